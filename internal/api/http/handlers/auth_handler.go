package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/autotickets/autotickets/internal/api/dto"
	"github.com/autotickets/autotickets/internal/service"
)

// AuthHandler exposes login endpoints for companies and admins.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// RegisterCompany handles POST /auth/companies/register.
func (h *AuthHandler) RegisterCompany(c *fiber.Ctx) error {
	var req dto.CompanyRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	company, token, exp, err := h.auth.RegisterCompany(c.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"company": fiber.Map{
				"id":    company.ID,
				"name":  company.Name,
				"email": company.Email,
			},
			"auth": dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// LoginCompany handles POST /auth/companies/login.
func (h *AuthHandler) LoginCompany(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" || req.Password == "" {
		return fiber.NewError(http.StatusBadRequest, "email and password required")
	}

	company, token, exp, err := h.auth.LoginCompany(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"company": fiber.Map{
				"id":    company.ID,
				"name":  company.Name,
				"email": company.Email,
			},
			"auth": dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// LoginAdmin handles POST /auth/admins/login.
func (h *AuthHandler) LoginAdmin(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" || req.Password == "" {
		return fiber.NewError(http.StatusBadRequest, "email and password required")
	}

	admin, token, exp, err := h.auth.LoginAdmin(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"admin": fiber.Map{
				"id":    admin.ID,
				"name":  admin.Name,
				"email": admin.Email,
			},
			"auth": dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}
