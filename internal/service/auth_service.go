package service

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/autotickets/autotickets/internal/auth"
	"github.com/autotickets/autotickets/internal/config"
	"github.com/autotickets/autotickets/internal/domain"
	"github.com/autotickets/autotickets/internal/repository"
	apperrors "github.com/autotickets/autotickets/pkg/util"
)

// AuthService coordinates company and admin login flows.
type AuthService struct {
	companies  repository.CompanyRepository
	admins     repository.AdminRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
}

// AuthDependencies encapsulates repo requirements for the auth service.
type AuthDependencies struct {
	CompanyRepo repository.CompanyRepository
	AdminRepo   repository.AdminRepository
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		companies:  deps.CompanyRepo,
		admins:     deps.AdminRepo,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// TokenManager exposes the signing manager for the HTTP middleware.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// RegisterCompany creates a new tenant account.
func (s *AuthService) RegisterCompany(ctx context.Context, name, email, password string) (*domain.Company, string, time.Time, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || password == "" {
		return nil, "", time.Time{}, apperrors.NewValidationError("name, email and password are required", nil)
	}

	if _, err := s.companies.GetByEmail(ctx, email); err == nil {
		return nil, "", time.Time{}, apperrors.NewConflict("email already registered", nil)
	} else if err != pgx.ErrNoRows {
		return nil, "", time.Time{}, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	company := &domain.Company{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := s.companies.Create(ctx, company); err != nil {
		return nil, "", time.Time{}, err
	}

	token, exp, err := s.tokenMgr.GenerateToken(company.ID, domain.SubjectTypeCompany)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return company, token, exp, nil
}

// LoginCompany authenticates a tenant.
func (s *AuthService) LoginCompany(ctx context.Context, email, password string) (*domain.Company, string, time.Time, error) {
	company, err := s.companies.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, err
	}
	if !company.IsActive {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("company disabled")
	}
	if err := auth.ComparePassword(company.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	token, exp, err := s.tokenMgr.GenerateToken(company.ID, domain.SubjectTypeCompany)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return company, token, exp, nil
}

// LoginAdmin authenticates a supervisor account.
func (s *AuthService) LoginAdmin(ctx context.Context, email, password string) (*domain.Admin, string, time.Time, error) {
	admin, err := s.admins.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, err
	}
	if !admin.IsActive {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("admin disabled")
	}
	if err := auth.ComparePassword(admin.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	token, exp, err := s.tokenMgr.GenerateToken(admin.ID, domain.SubjectTypeAdmin)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return admin, token, exp, nil
}
