package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// TicketsHandler exposes the ticket lifecycle endpoints.
type TicketsHandler struct {
	tickets *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService) *TicketsHandler {
	return &TicketsHandler{tickets: tickets}
}

// Create handles POST /tickets.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	actor, err := auth.RequireActor(c)
	if err != nil {
		return err
	}
	var req dto.TicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.tickets.Create(c.UserContext(), actor, ticketInput(req))
	if err != nil {
		return err
	}
	return respond(c, http.StatusAccepted, "ticket created", fiber.Map{"ticket": dto.NewTicketResponse(ticket)})
}

// List handles POST /tickets/get-all.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	actor, err := auth.RequireActor(c)
	if err != nil {
		return err
	}
	tickets, err := h.tickets.List(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "tickets", fiber.Map{"tickets": dto.NewTicketResponses(tickets)})
}

// Count handles GET /tickets/count/total.
func (h *TicketsHandler) Count(c *fiber.Ctx) error {
	actor, err := auth.RequireActor(c)
	if err != nil {
		return err
	}
	counts, err := h.tickets.Count(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "ticket counts", fiber.Map{"counts": dto.NewTicketCountsResponse(counts)})
}

// Get handles GET /tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	actor, err := auth.RequireActor(c)
	if err != nil {
		return err
	}
	ticket, err := h.tickets.GetByID(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "ticket", fiber.Map{"ticket": dto.NewTicketResponse(ticket)})
}

// Update handles PUT /tickets/:id.
func (h *TicketsHandler) Update(c *fiber.Ctx) error {
	actor, err := auth.RequireActor(c)
	if err != nil {
		return err
	}
	var req dto.TicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.tickets.Update(c.UserContext(), actor, c.Params("id"), ticketInput(req))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "ticket updated", fiber.Map{"ticket": dto.NewTicketResponse(ticket)})
}

// Delete handles DELETE /tickets/:id.
func (h *TicketsHandler) Delete(c *fiber.Ctx) error {
	actor, err := auth.RequireActor(c)
	if err != nil {
		return err
	}
	if err := h.tickets.Delete(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "ticket deleted", nil)
}

// Assign handles PUT /tickets/assign/:id.
func (h *TicketsHandler) Assign(c *fiber.Ctx) error {
	actor, err := auth.RequireActor(c)
	if err != nil {
		return err
	}
	ticket, err := h.tickets.Assign(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "ticket assigned", fiber.Map{"ticket": dto.NewTicketResponse(ticket)})
}

// InProcess handles PUT /tickets/in-process/:id.
func (h *TicketsHandler) InProcess(c *fiber.Ctx) error {
	actor, err := auth.RequireActor(c)
	if err != nil {
		return err
	}
	var req dto.InProcessRequest
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return err
		}
	}
	ticket, err := h.tickets.MarkInProcess(c.UserContext(), actor, c.Params("id"), req.DueDate.Time)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "ticket in process", fiber.Map{"ticket": dto.NewTicketResponse(ticket)})
}

// Close handles PUT /tickets/close-ticket/:id.
func (h *TicketsHandler) Close(c *fiber.Ctx) error {
	actor, err := auth.RequireActor(c)
	if err != nil {
		return err
	}
	ticket, err := h.tickets.Close(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "ticket closed", fiber.Map{"ticket": dto.NewTicketResponse(ticket)})
}

func ticketInput(req dto.TicketRequest) service.TicketInput {
	return service.TicketInput{
		Title:            req.Title,
		ShortDescription: req.ShortDescription,
		Description:      req.Description,
		Category:         req.Category,
	}
}
