package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/autotickets/autotickets/internal/api/dto"
	"github.com/autotickets/autotickets/internal/domain"
	"github.com/autotickets/autotickets/internal/service"
)

// AutomationHandler exposes the admin configuration surface: automation
// rules, notification settings and the manual pass triggers.
type AutomationHandler struct {
	automation *service.AutomationService
	passes     *service.SchedulerService
}

// NewAutomationHandler constructs handler.
func NewAutomationHandler(automation *service.AutomationService, passes *service.SchedulerService) *AutomationHandler {
	return &AutomationHandler{automation: automation, passes: passes}
}

// ListRules handles GET /api/admin/automation/rules.
func (h *AutomationHandler) ListRules(c *fiber.Ctx) error {
	rules, err := h.automation.ListRules(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromRules(rules)})
}

// CreateRule handles POST /api/admin/automation/rules.
func (h *AutomationHandler) CreateRule(c *fiber.Ctx) error {
	var req dto.AutomationRuleRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	rule, err := h.automation.CreateRule(c.UserContext(), ruleInputFromRequest(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.FromRule(rule)})
}

// UpdateRule handles PUT /api/admin/automation/rules/:id.
func (h *AutomationHandler) UpdateRule(c *fiber.Ctx) error {
	var req dto.AutomationRuleRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	rule, err := h.automation.UpdateRule(c.UserContext(), c.Params("id"), ruleInputFromRequest(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromRule(rule)})
}

// DeleteRule handles DELETE /api/admin/automation/rules/:id.
func (h *AutomationHandler) DeleteRule(c *fiber.Ctx) error {
	if err := h.automation.DeleteRule(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// GetNotificationConfig handles GET /api/admin/notifications/config.
func (h *AutomationHandler) GetNotificationConfig(c *fiber.Ctx) error {
	cfg, err := h.automation.GetNotificationConfig(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": cfg})
}

// SaveNotificationConfig handles PUT /api/admin/notifications/config.
func (h *AutomationHandler) SaveNotificationConfig(c *fiber.Ctx) error {
	var cfg domain.NotificationConfig
	if err := c.BodyParser(&cfg); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if err := h.automation.SaveNotificationConfig(c.UserContext(), &cfg); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": cfg})
}

// RunTacitPass handles POST /api/admin/automation/tacit-pass, the
// manual trigger for the 48h auto-resolution sweep.
func (h *AutomationHandler) RunTacitPass(c *fiber.Ctx) error {
	summary, err := h.passes.RunTacitAcceptancePass(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": summary})
}

// RunRulePass handles POST /api/admin/automation/rule-pass, the manual
// trigger for the column automation sweep.
func (h *AutomationHandler) RunRulePass(c *fiber.Ctx) error {
	summary, err := h.passes.RunAutomationRulePass(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": summary})
}

func ruleInputFromRequest(req dto.AutomationRuleRequest) service.RuleInput {
	return service.RuleInput{
		Name:         req.Name,
		SourceStatus: domain.TicketStatus(req.SourceStatus),
		TargetStatus: domain.TicketStatus(req.TargetStatus),
		DelayDays:    req.DelayDays,
		DelayHours:   req.DelayHours,
		IsEnabled:    req.IsEnabled,
	}
}
