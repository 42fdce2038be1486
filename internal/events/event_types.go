package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventAccountConfirmation EventType = "account_confirmation"
	EventTicketCreated       EventType = "ticket_created"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketInProcess     EventType = "ticket_in_process"
	EventTicketClosed        EventType = "ticket_closed"
)

// Actor is the user whose action produced the event.
type Actor struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

// Recipient is an address a notification is delivered to.
type Recipient struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID         string      `json:"id"`
	Type       EventType   `json:"type"`
	TicketID   string      `json:"ticket_id,omitempty"`
	Actor      Actor       `json:"actor"`
	Recipients []Recipient `json:"recipients"`
	Timestamp  time.Time   `json:"timestamp"`
	Payload    interface{} `json:"payload"`
}

// AccountConfirmationPayload carries the code a new user has to submit.
type AccountConfirmationPayload struct {
	Code string `json:"code"`
}

// TicketPayload is the ticket snapshot shared by all ticket events.
type TicketPayload struct {
	Title        string              `json:"title"`
	Description  string              `json:"description"`
	Status       domain.TicketStatus `json:"status"`
	DueDate      *time.Time          `json:"due_date,omitempty"`
	AssigneeName string              `json:"assignee_name,omitempty"`
}

// NewEvent stamps an event with an id and the current time.
func NewEvent(eventType EventType, actor Actor, recipients []Recipient, payload interface{}) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		Actor:      actor,
		Recipients: recipients,
		Timestamp:  time.Now().UTC(),
		Payload:    payload,
	}
}

// ActorOf describes a user as an event actor.
func ActorOf(user *domain.User) Actor {
	if user == nil {
		return Actor{}
	}
	return Actor{UserID: user.ID, Name: user.FullName()}
}

// RecipientOf addresses a user.
func RecipientOf(user *domain.User) Recipient {
	return Recipient{Name: user.FullName(), Email: user.Email}
}

// RecipientOfSummary addresses a projected user. A nil summary yields no recipients.
func RecipientOfSummary(summary *domain.UserSummary) []Recipient {
	if summary == nil || summary.Email == "" {
		return nil
	}
	return []Recipient{{Name: summary.FullName(), Email: summary.Email}}
}
