package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/autotickets/autotickets/internal/domain"
	"github.com/autotickets/autotickets/internal/repository"
	apperrors "github.com/autotickets/autotickets/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	SubjectType domain.SubjectType
	Company     *domain.Company
	Admin       *domain.Admin
}

// Actor converts the principal into the domain actor recorded on
// status transitions and chat messages.
func (p *Principal) Actor() domain.Actor {
	actor := domain.Actor{Type: p.SubjectType}
	switch p.SubjectType {
	case domain.SubjectTypeCompany:
		if p.Company != nil {
			actor.ID = p.Company.ID
			actor.Name = p.Company.Name
		}
	case domain.SubjectTypeAdmin:
		if p.Admin != nil {
			actor.ID = p.Admin.ID
			actor.Name = p.Admin.Name
		}
	}
	return actor
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens    *TokenManager
	companies repository.CompanyRepository
	admins    repository.AdminRepository
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, companies repository.CompanyRepository, admins repository.AdminRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, companies: companies, admins: admins}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	principal := &Principal{SubjectType: claims.Subject}

	switch claims.Subject {
	case domain.SubjectTypeCompany:
		company, err := m.companies.GetByID(c.Context(), claims.SubjectID)
		if err != nil {
			if err == pgx.ErrNoRows {
				return apperrors.NewUnauthorized("company not found")
			}
			return apperrors.MapError(err)
		}
		if !company.IsActive {
			return apperrors.NewUnauthorized("company disabled")
		}
		principal.Company = company
	case domain.SubjectTypeAdmin:
		admin, err := m.admins.GetByID(c.Context(), claims.SubjectID)
		if err != nil {
			if err == pgx.ErrNoRows {
				return apperrors.NewUnauthorized("admin not found")
			}
			return apperrors.MapError(err)
		}
		if !admin.IsActive {
			return apperrors.NewUnauthorized("admin disabled")
		}
		principal.Admin = admin
	default:
		return apperrors.NewUnauthorized("unknown subject")
	}

	c.Locals(principalKey, principal)
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
