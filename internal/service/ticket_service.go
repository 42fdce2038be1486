package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// TicketDependencies bundles repositories for ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// TicketInput carries ticket text fields. On update, blank fields keep the stored value.
type TicketInput struct {
	Title            string
	ShortDescription string
	Description      string
	Category         string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// Create opens a pending, unassigned ticket and notifies every support user.
func (s *TicketService) Create(ctx context.Context, actor *domain.User, input TicketInput) (*domain.Ticket, error) {
	if err := auth.Authorize(auth.OpTicketCreate, actor, nil); err != nil {
		return nil, err
	}

	ticket := &domain.Ticket{
		Title:            strings.TrimSpace(input.Title),
		ShortDescription: strings.TrimSpace(input.ShortDescription),
		Description:      strings.TrimSpace(input.Description),
		Category:         strings.TrimSpace(input.Category),
		Status:           domain.TicketStatusPending,
		CreatedByID:      actor.ID,
	}
	if ticket.Title == "" || ticket.ShortDescription == "" || ticket.Description == "" || ticket.Category == "" {
		return nil, apperrors.NewValidationError("all fields are required", nil)
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, translateRepoError(err, "user")
	}
	created, err := s.reload(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}

	s.notifySupport(ctx, actor, created)
	return created, nil
}

// List returns every ticket to support users and only their own to everyone else.
func (s *TicketService) List(ctx context.Context, actor *domain.User) ([]domain.Ticket, error) {
	if err := auth.Authorize(auth.OpTicketList, actor, nil); err != nil {
		return nil, err
	}
	tickets, err := s.tickets.List(ctx, s.scope(actor))
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if tickets == nil {
		tickets = []domain.Ticket{}
	}
	return tickets, nil
}

// Count tallies tickets per status with the same scoping as List.
func (s *TicketService) Count(ctx context.Context, actor *domain.User) (*domain.TicketCounts, error) {
	if err := auth.Authorize(auth.OpTicketCount, actor, nil); err != nil {
		return nil, err
	}
	byStatus, err := s.tickets.CountByStatus(ctx, s.scope(actor))
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	counts := &domain.TicketCounts{ByStatus: make(map[domain.TicketStatus]int, len(domain.TicketStatuses))}
	for _, status := range domain.TicketStatuses {
		counts.ByStatus[status] = byStatus[status]
		counts.Total += byStatus[status]
	}
	return counts, nil
}

// GetByID fetches any ticket. Readers do not need to own it.
func (s *TicketService) GetByID(ctx context.Context, actor *domain.User, id string) (*domain.Ticket, error) {
	if err := auth.Authorize(auth.OpTicketRead, actor, nil); err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, apperrors.NewValidationError("invalid ticket id", map[string]any{"id": id})
	}
	return s.reload(ctx, id)
}

// Update merges non-blank fields into a ticket the actor created.
func (s *TicketService) Update(ctx context.Context, actor *domain.User, id string, input TicketInput) (*domain.Ticket, error) {
	ticket, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(auth.OpTicketUpdate, actor, ticket); err != nil {
		return nil, err
	}

	ticket.Title = mergeField(ticket.Title, input.Title)
	ticket.ShortDescription = mergeField(ticket.ShortDescription, input.ShortDescription)
	ticket.Description = mergeField(ticket.Description, input.Description)
	ticket.Category = mergeField(ticket.Category, input.Category)

	return s.save(ctx, ticket)
}

// Delete removes a ticket the actor created.
func (s *TicketService) Delete(ctx context.Context, actor *domain.User, id string) error {
	ticket, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := auth.Authorize(auth.OpTicketDelete, actor, ticket); err != nil {
		return err
	}
	return translateRepoError(s.tickets.Delete(ctx, ticket.ID), "ticket")
}

// Assign makes the support actor the ticket's assignee, replacing any previous one.
func (s *TicketService) Assign(ctx context.Context, actor *domain.User, id string) (*domain.Ticket, error) {
	if err := auth.Authorize(auth.OpTicketAssign, actor, nil); err != nil {
		return nil, err
	}
	ticket, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	assignee := actor.ID
	ticket.AssignedToID = &assignee
	updated, err := s.save(ctx, ticket)
	if err != nil {
		return nil, err
	}

	s.notifyCreator(ctx, events.EventTicketAssigned, actor, updated)
	return updated, nil
}

// MarkInProcess moves the ticket to inProcess with the given due date, which may be nil or past.
func (s *TicketService) MarkInProcess(ctx context.Context, actor *domain.User, id string, dueDate *time.Time) (*domain.Ticket, error) {
	if err := auth.Authorize(auth.OpTicketInProcess, actor, nil); err != nil {
		return nil, err
	}
	ticket, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	ticket.Status = domain.TicketStatusInProcess
	ticket.DueDate = dueDate
	updated, err := s.save(ctx, ticket)
	if err != nil {
		return nil, err
	}

	s.notifyCreator(ctx, events.EventTicketInProcess, actor, updated)
	return updated, nil
}

// Close completes the ticket from any state.
func (s *TicketService) Close(ctx context.Context, actor *domain.User, id string) (*domain.Ticket, error) {
	ticket, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(auth.OpTicketClose, actor, ticket); err != nil {
		return nil, err
	}

	ticket.Status = domain.TicketStatusCompleted
	updated, err := s.save(ctx, ticket)
	if err != nil {
		return nil, err
	}

	s.notifyCreator(ctx, events.EventTicketClosed, actor, updated)
	return updated, nil
}

func (s *TicketService) scope(actor *domain.User) repository.TicketFilter {
	if auth.ScopeToOwner(actor) {
		return repository.TicketFilter{CreatedByID: &actor.ID}
	}
	return repository.TicketFilter{}
}

// load fetches a ticket for mutation. A malformed id cannot name a ticket.
func (s *TicketService) load(ctx context.Context, id string) (*domain.Ticket, error) {
	if !validID(id) {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"id": id})
	}
	return s.reload(ctx, id)
}

func (s *TicketService) reload(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, translateRepoError(err, "ticket")
	}
	return ticket, nil
}

func (s *TicketService) save(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error) {
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, translateRepoError(err, "ticket")
	}
	return s.reload(ctx, ticket.ID)
}

func (s *TicketService) notifySupport(ctx context.Context, actor *domain.User, ticket *domain.Ticket) {
	support, err := s.users.ListByCapability(ctx, domain.CapabilitySupport)
	if err != nil {
		s.logger.Warn("resolve support recipients", zap.String("ticket_id", ticket.ID), zap.Error(err))
		return
	}
	recipients := make([]events.Recipient, 0, len(support))
	for i := range support {
		recipients = append(recipients, events.RecipientOf(&support[i]))
	}
	s.emit(ctx, events.EventTicketCreated, actor, recipients, ticket)
}

func (s *TicketService) notifyCreator(ctx context.Context, eventType events.EventType, actor *domain.User, ticket *domain.Ticket) {
	s.emit(ctx, eventType, actor, events.RecipientOfSummary(ticket.CreatedBy), ticket)
}

func (s *TicketService) emit(ctx context.Context, eventType events.EventType, actor *domain.User, recipients []events.Recipient, ticket *domain.Ticket) {
	payload := events.TicketPayload{
		Title:       ticket.Title,
		Description: ticket.Description,
		Status:      ticket.Status,
		DueDate:     ticket.DueDate,
	}
	if ticket.AssignedTo != nil {
		payload.AssigneeName = ticket.AssignedTo.FullName()
	}

	event := events.NewEvent(eventType, events.ActorOf(actor), recipients, payload)
	event.TicketID = ticket.ID
	publish(ctx, s.dispatcher, s.logger, event)
}
