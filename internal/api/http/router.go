package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/autotickets/autotickets/internal/api/http/handlers"
	"github.com/autotickets/autotickets/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	AdminTickets   *handlers.AdminTicketsHandler
	Automation     *handlers.AutomationHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/companies/register", cfg.Auth.RegisterCompany)
	authGroup.Post("/companies/login", cfg.Auth.LoginCompany)
	authGroup.Post("/admins/login", cfg.Auth.LoginAdmin)

	api := app.Group("/api", cfg.AuthMiddleware.Handle)

	tickets := api.Group("/tickets", auth.RequireCompany())
	tickets.Post("/", cfg.Tickets.Create)
	tickets.Get("/", cfg.Tickets.List)
	tickets.Get("/numero/:numero", cfg.Tickets.GetByNumero)
	tickets.Get("/:id", cfg.Tickets.Get)
	tickets.Post("/:id/messages", cfg.Tickets.Reply)
	tickets.Delete("/:id", cfg.Tickets.Delete)

	admin := api.Group("/admin", auth.RequireAdmin())
	admin.Get("/tickets", cfg.AdminTickets.List)
	admin.Get("/tickets/:id", cfg.AdminTickets.Get)
	admin.Patch("/tickets/:id/status", cfg.AdminTickets.SetStatus)
	admin.Post("/tickets/:id/request-info", cfg.AdminTickets.RequestInfo)

	admin.Get("/automation/rules", cfg.Automation.ListRules)
	admin.Post("/automation/rules", cfg.Automation.CreateRule)
	admin.Put("/automation/rules/:id", cfg.Automation.UpdateRule)
	admin.Delete("/automation/rules/:id", cfg.Automation.DeleteRule)
	admin.Post("/automation/tacit-pass", cfg.Automation.RunTacitPass)
	admin.Post("/automation/rule-pass", cfg.Automation.RunRulePass)

	admin.Get("/notifications/config", cfg.Automation.GetNotificationConfig)
	admin.Put("/notifications/config", cfg.Automation.SaveNotificationConfig)
}
