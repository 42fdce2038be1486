package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusPending   TicketStatus = "pending"
	TicketStatusInProcess TicketStatus = "inProcess"
	TicketStatusCompleted TicketStatus = "completed"
)

// TicketStatuses lists every status in lifecycle order.
var TicketStatuses = []TicketStatus{
	TicketStatusPending,
	TicketStatusInProcess,
	TicketStatusCompleted,
}

// Ticket is the aggregate for support requests.
//
// CreatedBy and AssignedTo are read-side projections filled in by the
// repository; writes only look at CreatedByID and AssignedToID.
type Ticket struct {
	ID               string
	Title            string
	ShortDescription string
	Description      string
	Category         string
	Status           TicketStatus
	DueDate          *time.Time
	CreatedByID      string
	AssignedToID     *string
	CreatedBy        *UserSummary
	AssignedTo       *UserSummary
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TicketCounts aggregates tickets per status.
type TicketCounts struct {
	Total    int
	ByStatus map[TicketStatus]int
}
