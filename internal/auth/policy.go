package auth

import (
	"fmt"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// Operation names an action subject to authorization.
type Operation string

const (
	OpTicketCreate    Operation = "ticket.create"
	OpTicketList      Operation = "ticket.list"
	OpTicketCount     Operation = "ticket.count"
	OpTicketRead      Operation = "ticket.read"
	OpTicketUpdate    Operation = "ticket.update"
	OpTicketDelete    Operation = "ticket.delete"
	OpTicketAssign    Operation = "ticket.assign"
	OpTicketInProcess Operation = "ticket.in_process"
	OpTicketClose     Operation = "ticket.close"

	OpUserList   Operation = "user.list"
	OpUserRead   Operation = "user.read"
	OpUserUpdate Operation = "user.update"
	OpUserDelete Operation = "user.delete"
	OpUserAvatar Operation = "user.avatar"
)

// Requirement is what an actor must satisfy to perform an operation.
// The zero value only requires an authenticated actor.
type Requirement struct {
	Capability domain.Capability
	Owner      bool
	Message    string
}

// Policies is the single source of truth for who may do what.
//
// Gaps are deliberate and kept visible here: ticket.read has no ownership
// check, ticket.close needs no support capability, and the user routes
// only require a session.
var Policies = map[Operation]Requirement{
	OpTicketCreate:    {},
	OpTicketList:      {},
	OpTicketCount:     {},
	OpTicketRead:      {},
	OpTicketUpdate:    {Owner: true, Message: "only the ticket creator can update it"},
	OpTicketDelete:    {Owner: true, Message: "only the ticket creator can delete it"},
	OpTicketAssign:    {Capability: domain.CapabilitySupport, Message: "support permission required to assign tickets"},
	OpTicketInProcess: {Capability: domain.CapabilitySupport, Message: "support permission required to progress tickets"},
	OpTicketClose:     {},

	OpUserList:   {},
	OpUserRead:   {},
	OpUserUpdate: {},
	OpUserDelete: {},
	OpUserAvatar: {},
}

// Authorize checks the actor against the operation's requirement.
// ticket may be nil for operations that are not bound to a ticket; an
// ownership requirement with a nil ticket is a programming error.
func Authorize(op Operation, actor *domain.User, ticket *domain.Ticket) error {
	if actor == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	req, ok := Policies[op]
	if !ok {
		return apperrors.NewInternalError(fmt.Errorf("no policy for operation %q", op))
	}
	if req.Capability != "" && !actor.Can(req.Capability) {
		return apperrors.NewForbidden(req.message())
	}
	if req.Owner {
		if ticket == nil {
			return apperrors.NewInternalError(fmt.Errorf("operation %q needs a ticket for ownership check", op))
		}
		if ticket.CreatedByID != actor.ID {
			return apperrors.NewForbidden(req.message())
		}
	}
	return nil
}

// ScopeToOwner reports whether ticket listings for the actor are limited to tickets they created.
func ScopeToOwner(actor *domain.User) bool {
	return !actor.Can(domain.CapabilitySupport)
}

func (r Requirement) message() string {
	if r.Message == "" {
		return "not authorized"
	}
	return r.Message
}
