package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// TicketFilter narrows listings. A nil CreatedByID means every ticket.
type TicketFilter struct {
	CreatedByID *string
}

// TicketRepository encapsulates ticket persistence.
//
// Reads return tickets with CreatedBy and AssignedTo projections populated.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	CountByStatus(ctx context.Context, filter TicketFilter) (map[domain.TicketStatus]int, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketSelect = `
        SELECT t.id, t.title, t.short_description, t.description, t.category, t.status, t.due_date,
               t.created_by, t.assigned_to, t.created_at, t.updated_at,
               c.name, c.last_name, c.email, c.permissions, c.avatar_url, c.avatar_public_id, c.created_at,
               a.name, a.last_name, a.email, a.permissions, a.avatar_url, a.avatar_public_id, a.created_at
        FROM tickets t
        JOIN users c ON c.id = t.created_by
        LEFT JOIN users a ON a.id = t.assigned_to`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (title, short_description, description, category, status, due_date, created_by, assigned_to)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		ticket.Title,
		ticket.ShortDescription,
		ticket.Description,
		ticket.Category,
		ticket.Status,
		ticket.DueDate,
		ticket.CreatedByID,
		ticket.AssignedToID,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
	return translate(err)
}

// Update overwrites every mutable column. created_by is never written.
func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$1, short_description=$2, description=$3, category=$4,
            status=$5, due_date=$6, assigned_to=$7, updated_at=NOW()
        WHERE id=$8
        RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query,
		ticket.Title,
		ticket.ShortDescription,
		ticket.Description,
		ticket.Category,
		ticket.Status,
		ticket.DueDate,
		ticket.AssignedToID,
		ticket.ID,
	).Scan(&ticket.UpdatedAt)
	return translate(err)
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return translate(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := scanTicket(r.pool.QueryRow(ctx, ticketSelect+` WHERE t.id=$1`, id))
	if err != nil {
		return nil, translate(err)
	}
	return ticket, nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	where, args := filter.where()
	query := fmt.Sprintf(`%s WHERE %s ORDER BY t.created_at DESC`, ticketSelect, where)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) CountByStatus(ctx context.Context, filter TicketFilter) (map[domain.TicketStatus]int, error) {
	where, args := filter.where()
	query := fmt.Sprintf(`SELECT t.status, COUNT(*) FROM tickets t WHERE %s GROUP BY t.status`, where)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.TicketStatus]int, len(domain.TicketStatuses))
	for rows.Next() {
		var (
			status domain.TicketStatus
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func (f TicketFilter) where() (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}
	if f.CreatedByID != nil {
		args = append(args, *f.CreatedByID)
		clauses = append(clauses, fmt.Sprintf("t.created_by=$%d", len(args)))
	}
	return strings.Join(clauses, " AND "), args
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var (
		ticket       domain.Ticket
		creator      domain.UserSummary
		creatorPerms []string

		assigneeName     *string
		assigneeLastName *string
		assigneeEmail    *string
		assigneePerms    []string
		assigneeAvatar   *string
		assigneeAvatarID *string
		assigneeCreated  *time.Time
	)
	if err := row.Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.ShortDescription,
		&ticket.Description,
		&ticket.Category,
		&ticket.Status,
		&ticket.DueDate,
		&ticket.CreatedByID,
		&ticket.AssignedToID,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&creator.Name,
		&creator.LastName,
		&creator.Email,
		&creatorPerms,
		&creator.Avatar.URL,
		&creator.Avatar.PublicID,
		&creator.CreatedAt,
		&assigneeName,
		&assigneeLastName,
		&assigneeEmail,
		&assigneePerms,
		&assigneeAvatar,
		&assigneeAvatarID,
		&assigneeCreated,
	); err != nil {
		return nil, err
	}

	creator.ID = ticket.CreatedByID
	creator.Permissions = stringsToCapabilities(creatorPerms)
	ticket.CreatedBy = &creator

	if ticket.AssignedToID != nil && assigneeName != nil {
		ticket.AssignedTo = &domain.UserSummary{
			ID:          *ticket.AssignedToID,
			Name:        *assigneeName,
			LastName:    deref(assigneeLastName),
			Email:       deref(assigneeEmail),
			Permissions: stringsToCapabilities(assigneePerms),
			Avatar:      domain.Avatar{URL: deref(assigneeAvatar), PublicID: deref(assigneeAvatarID)},
		}
		if assigneeCreated != nil {
			ticket.AssignedTo.CreatedAt = *assigneeCreated
		}
	}
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
