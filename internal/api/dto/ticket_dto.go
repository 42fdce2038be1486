package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// TicketRequest payload for create and update.
type TicketRequest struct {
	Title            string `json:"title"`
	ShortDescription string `json:"shortDescription"`
	Description      string `json:"description"`
	Category         string `json:"category"`
}

// InProcessRequest payload for PUT /tickets/in-process/:id.
type InProcessRequest struct {
	DueDate DueDate `json:"dueDate"`
}

// DueDate accepts null, an RFC 3339 timestamp or a plain YYYY-MM-DD date.
type DueDate struct {
	Time *time.Time
}

const dateOnly = "2006-01-02"

// UnmarshalJSON implements json.Unmarshaler.
func (d *DueDate) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		d.Time = nil
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("dueDate must be a date string")
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		d.Time = nil
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, dateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			d.Time = &t
			return nil
		}
	}
	return fmt.Errorf("dueDate %q is not RFC 3339 or YYYY-MM-DD", raw)
}

// TicketResponse is the ticket with sanitized creator and assignee.
type TicketResponse struct {
	ID               string              `json:"id"`
	Title            string              `json:"title"`
	ShortDescription string              `json:"shortDescription"`
	Description      string              `json:"description"`
	Category         string              `json:"category"`
	Status           domain.TicketStatus `json:"status"`
	DueDate          *time.Time          `json:"dueDate"`
	CreatedBy        *UserResponse       `json:"createdBy"`
	AssignedTo       *UserResponse       `json:"assignedTo"`
	CreatedAt        time.Time           `json:"createdAt"`
	UpdatedAt        time.Time           `json:"updatedAt"`
}

// TicketCountsResponse tallies tickets by status.
type TicketCountsResponse struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	InProcess int `json:"inProcess"`
	Completed int `json:"completed"`
}

// NewTicketResponse renders a ticket.
func NewTicketResponse(ticket *domain.Ticket) TicketResponse {
	resp := TicketResponse{
		ID:               ticket.ID,
		Title:            ticket.Title,
		ShortDescription: ticket.ShortDescription,
		Description:      ticket.Description,
		Category:         ticket.Category,
		Status:           ticket.Status,
		DueDate:          ticket.DueDate,
		CreatedAt:        ticket.CreatedAt,
		UpdatedAt:        ticket.UpdatedAt,
	}
	if ticket.CreatedBy != nil {
		u := NewUserSummaryResponse(ticket.CreatedBy)
		resp.CreatedBy = &u
	}
	if ticket.AssignedTo != nil {
		u := NewUserSummaryResponse(ticket.AssignedTo)
		resp.AssignedTo = &u
	}
	return resp
}

// NewTicketResponses renders a list of tickets.
func NewTicketResponses(tickets []domain.Ticket) []TicketResponse {
	out := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		out = append(out, NewTicketResponse(&tickets[i]))
	}
	return out
}

// NewTicketCountsResponse flattens per-status counts.
func NewTicketCountsResponse(counts *domain.TicketCounts) TicketCountsResponse {
	return TicketCountsResponse{
		Total:     counts.Total,
		Pending:   counts.ByStatus[domain.TicketStatusPending],
		InProcess: counts.ByStatus[domain.TicketStatusInProcess],
		Completed: counts.ByStatus[domain.TicketStatusCompleted],
	}
}
