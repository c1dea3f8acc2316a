package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/autotickets/autotickets/internal/api/dto"
	"github.com/autotickets/autotickets/internal/auth"
	"github.com/autotickets/autotickets/internal/domain"
	"github.com/autotickets/autotickets/internal/service"
)

// TicketsHandler exposes the tenant-facing ticket endpoints.
type TicketsHandler struct {
	tickets *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService) *TicketsHandler {
	return &TicketsHandler{tickets: tickets}
}

func companyPrincipal(c *fiber.Ctx) (*auth.Principal, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Company == nil {
		return nil, fiber.NewError(http.StatusForbidden, "company account required")
	}
	return principal, nil
}

// Create handles POST /api/tickets.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	principal, err := companyPrincipal(c)
	if err != nil {
		return err
	}

	var req dto.TicketCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	ticket, err := h.tickets.CreateTicket(c.UserContext(), principal.Company.ID, service.TicketCreateInput{
		Title:            req.Title,
		Description:      req.Description,
		WhatShouldHappen: req.WhatShouldHappen,
		Urgency:          domain.UrgencyLevel(req.Urgency),
		AIID:             req.AIID,
		AIName:           req.AIName,
		Attachments:      req.Attachments,
		RequesterName:    req.RequesterName,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.FromTicket(ticket, time.Now())})
}

// List handles GET /api/tickets, scoped to the caller's tenant.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	principal, err := companyPrincipal(c)
	if err != nil {
		return err
	}

	filter := listFilterFromQuery(c)
	companyID := principal.Company.ID
	filter.CompanyID = &companyID

	tickets, err := h.tickets.ListTickets(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTickets(tickets, time.Now())})
}

// Get handles GET /api/tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	principal, err := companyPrincipal(c)
	if err != nil {
		return err
	}

	ticket, err := h.tickets.GetTicketForCompany(c.UserContext(), principal.Company.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTicket(ticket, time.Now())})
}

// GetByNumero handles GET /api/tickets/numero/:numero, looking a ticket
// up by the display number clients quote ("ticket #42").
func (h *TicketsHandler) GetByNumero(c *fiber.Ctx) error {
	principal, err := companyPrincipal(c)
	if err != nil {
		return err
	}

	numero, err := c.ParamsInt("numero")
	if err != nil || numero <= 0 {
		return fiber.NewError(http.StatusBadRequest, "invalid ticket number")
	}

	ticket, err := h.tickets.GetTicketByNumero(c.UserContext(), principal.Company.ID, numero)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTicket(ticket, time.Now())})
}

// Reply handles POST /api/tickets/:id/messages. A client reply never
// changes the ticket status; it only freezes the auto-resolve countdown
// on the admin side.
func (h *TicketsHandler) Reply(c *fiber.Ctx) error {
	principal, err := companyPrincipal(c)
	if err != nil {
		return err
	}

	var req dto.ChatMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	ticket, err := h.tickets.Reply(c.UserContext(), principal.Company.ID, c.Params("id"), req.Message)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTicket(ticket, time.Now())})
}

// Delete handles DELETE /api/tickets/:id.
func (h *TicketsHandler) Delete(c *fiber.Ctx) error {
	principal, err := companyPrincipal(c)
	if err != nil {
		return err
	}

	if err := h.tickets.DeleteTicket(c.UserContext(), principal.Company.ID, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// listFilterFromQuery parses the shared listing query parameters.
func listFilterFromQuery(c *fiber.Ctx) service.TicketListFilter {
	filter := service.TicketListFilter{
		Limit:  c.QueryInt("limit", 50),
		Offset: c.QueryInt("offset", 0),
	}
	for _, raw := range strings.Split(c.Query("status"), ",") {
		if status := domain.TicketStatus(strings.TrimSpace(raw)); status.IsValid() {
			filter.Statuses = append(filter.Statuses, status)
		}
	}
	for _, raw := range strings.Split(c.Query("urgency"), ",") {
		if raw = strings.TrimSpace(raw); raw != "" {
			filter.Urgencies = append(filter.Urgencies, domain.UrgencyLevel(raw))
		}
	}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		filter.SearchTerm = &search
	}
	if from, err := time.Parse(time.RFC3339, c.Query("created_from")); err == nil {
		filter.CreatedFrom = &from
	}
	if to, err := time.Parse(time.RFC3339, c.Query("created_to")); err == nil {
		filter.CreatedTo = &to
	}
	return filter
}
