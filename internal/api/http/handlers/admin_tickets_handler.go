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

// AdminTicketsHandler exposes the supervisor ticket endpoints: cross
// tenant listing, status transitions and the awaiting-info chat.
type AdminTicketsHandler struct {
	tickets *service.TicketService
}

// NewAdminTicketsHandler constructs handler.
func NewAdminTicketsHandler(tickets *service.TicketService) *AdminTicketsHandler {
	return &AdminTicketsHandler{tickets: tickets}
}

func adminPrincipal(c *fiber.Ctx) (*auth.Principal, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Admin == nil {
		return nil, fiber.NewError(http.StatusForbidden, "admin account required")
	}
	return principal, nil
}

// List handles GET /api/admin/tickets across all tenants.
func (h *AdminTicketsHandler) List(c *fiber.Ctx) error {
	if _, err := adminPrincipal(c); err != nil {
		return err
	}

	filter := listFilterFromQuery(c)
	if companyID := strings.TrimSpace(c.Query("company_id")); companyID != "" {
		filter.CompanyID = &companyID
	}

	tickets, err := h.tickets.ListTickets(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTickets(tickets, time.Now())})
}

// Get handles GET /api/admin/tickets/:id.
func (h *AdminTicketsHandler) Get(c *fiber.Ctx) error {
	if _, err := adminPrincipal(c); err != nil {
		return err
	}

	ticket, err := h.tickets.GetTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTicket(ticket, time.Now())})
}

// SetStatus handles PATCH /api/admin/tickets/:id/status.
func (h *AdminTicketsHandler) SetStatus(c *fiber.Ctx) error {
	principal, err := adminPrincipal(c)
	if err != nil {
		return err
	}

	var req dto.TicketStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	ticket, err := h.tickets.SetStatus(c.UserContext(), principal.Actor(), c.Params("id"), service.StatusChangeInput{
		NewStatus:           domain.TicketStatus(req.Status),
		Solution:            req.Solution,
		SolutionAttachments: req.SolutionAttachments,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTicket(ticket, time.Now())})
}

// RequestInfo handles POST /api/admin/tickets/:id/request-info. The
// message lands in the chat and the ticket moves to awaiting info,
// starting the auto-resolve countdown.
func (h *AdminTicketsHandler) RequestInfo(c *fiber.Ctx) error {
	principal, err := adminPrincipal(c)
	if err != nil {
		return err
	}

	var req dto.ChatMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	ticket, err := h.tickets.RequestInfo(c.UserContext(), principal.Admin.Name, c.Params("id"), req.Message)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTicket(ticket, time.Now())})
}
