package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/autotickets/autotickets/internal/domain"
)

// RequireCompany ensures a company (tenant) is authenticated.
func RequireCompany() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.SubjectType != domain.SubjectTypeCompany || principal.Company == nil {
			return fiber.NewError(http.StatusForbidden, "company account required")
		}
		return c.Next()
	}
}

// RequireAdmin ensures an admin is authenticated.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.SubjectType != domain.SubjectTypeAdmin || principal.Admin == nil {
			return fiber.NewError(http.StatusForbidden, "admin account required")
		}
		return c.Next()
	}
}
