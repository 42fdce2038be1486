// Package memory provides process-local implementations of the repositories.
// It backs the service when no database is configured and is used by tests.
package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// Store holds users and tickets behind one lock so reads can join them.
type Store struct {
	mu      sync.RWMutex
	users   map[string]domain.User
	tickets map[string]domain.Ticket
	now     func() time.Time
	last    time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		users:   make(map[string]domain.User),
		tickets: make(map[string]domain.Ticket),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Users returns the user repository view of the store.
func (s *Store) Users() repository.UserRepository { return (*userRepo)(s) }

// Tickets returns the ticket repository view of the store.
func (s *Store) Tickets() repository.TicketRepository { return (*ticketRepo)(s) }

// tick returns a timestamp strictly after every one handed out before, so
// newest-first ordering is stable even within one clock tick. Callers hold mu.
func (s *Store) tick() time.Time {
	t := s.now()
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}

type userRepo Store

func (r *userRepo) Create(_ context.Context, user *domain.User) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return repository.ErrDuplicate
		}
	}
	user.ID = uuid.NewString()
	user.CreatedAt = s.tick()
	user.UpdatedAt = user.CreatedAt
	s.users[user.ID] = cloneUser(*user)
	return nil
}

func (r *userRepo) Update(_ context.Context, user *domain.User) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.users[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	for id, existing := range s.users {
		if id != user.ID && strings.EqualFold(existing.Email, user.Email) {
			return repository.ErrDuplicate
		}
	}
	user.CreatedAt = current.CreatedAt
	user.UpdatedAt = s.tick()
	s.users[user.ID] = cloneUser(*user)
	return nil
}

// Delete removes the user and, like the SQL schema, every ticket they created.
func (r *userRepo) Delete(_ context.Context, id string) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.users, id)
	for tid, t := range s.tickets {
		switch {
		case t.CreatedByID == id:
			delete(s.tickets, tid)
		case t.AssignedToID != nil && *t.AssignedToID == id:
			t.AssignedToID = nil
			s.tickets[tid] = t
		}
	}
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := cloneUser(u)
	return &out, nil
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			out := cloneUser(u)
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepo) List(_ context.Context) ([]domain.User, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *userRepo) ListByCapability(_ context.Context, capability domain.Capability) ([]domain.User, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.User
	for _, u := range s.users {
		if u.IsActive && slices.Contains(u.Permissions, capability) {
			out = append(out, cloneUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type ticketRepo Store

func (r *ticketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[ticket.CreatedByID]; !ok {
		return repository.ErrNotFound
	}
	ticket.ID = uuid.NewString()
	ticket.CreatedAt = s.tick()
	ticket.UpdatedAt = ticket.CreatedAt
	s.tickets[ticket.ID] = stripProjections(*ticket)
	return nil
}

func (r *ticketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.tickets[ticket.ID]
	if !ok {
		return repository.ErrNotFound
	}
	next := stripProjections(*ticket)
	next.CreatedByID = current.CreatedByID
	next.CreatedAt = current.CreatedAt
	next.UpdatedAt = s.tick()
	s.tickets[ticket.ID] = next
	ticket.UpdatedAt = next.UpdatedAt
	return nil
}

func (r *ticketRepo) Delete(_ context.Context, id string) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tickets[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.tickets, id)
	return nil
}

func (r *ticketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := s.populate(t)
	return &out, nil
}

func (r *ticketRepo) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Ticket, 0)
	for _, t := range s.tickets {
		if matches(t, filter) {
			out = append(out, s.populate(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *ticketRepo) CountByStatus(_ context.Context, filter repository.TicketFilter) (map[domain.TicketStatus]int, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[domain.TicketStatus]int, len(domain.TicketStatuses))
	for _, t := range s.tickets {
		if matches(t, filter) {
			counts[t.Status]++
		}
	}
	return counts, nil
}

func (s *Store) populate(t domain.Ticket) domain.Ticket {
	if t.DueDate != nil {
		due := *t.DueDate
		t.DueDate = &due
	}
	if creator, ok := s.users[t.CreatedByID]; ok {
		t.CreatedBy = creator.Summary()
	}
	if t.AssignedToID != nil {
		id := *t.AssignedToID
		t.AssignedToID = &id
		if assignee, ok := s.users[id]; ok {
			t.AssignedTo = assignee.Summary()
		}
	}
	return t
}

func matches(t domain.Ticket, filter repository.TicketFilter) bool {
	return filter.CreatedByID == nil || t.CreatedByID == *filter.CreatedByID
}

func stripProjections(t domain.Ticket) domain.Ticket {
	t.CreatedBy = nil
	t.AssignedTo = nil
	if t.DueDate != nil {
		due := *t.DueDate
		t.DueDate = &due
	}
	if t.AssignedToID != nil {
		id := *t.AssignedToID
		t.AssignedToID = &id
	}
	return t
}

func cloneUser(u domain.User) domain.User {
	u.Permissions = slices.Clone(u.Permissions)
	return u
}
