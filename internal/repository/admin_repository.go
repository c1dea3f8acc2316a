package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/autotickets/autotickets/internal/domain"
)

// AdminRepository manages supervisor accounts.
type AdminRepository interface {
	Create(ctx context.Context, admin *domain.Admin) error
	GetByID(ctx context.Context, id string) (*domain.Admin, error)
	GetByEmail(ctx context.Context, email string) (*domain.Admin, error)
}

type adminRepository struct {
	pool *pgxpool.Pool
}

// NewAdminRepository builds repository.
func NewAdminRepository(pool *pgxpool.Pool) AdminRepository {
	return &adminRepository{pool: pool}
}

const adminColumns = `id, name, email, password_hash, is_active, created_at, updated_at`

func (r *adminRepository) Create(ctx context.Context, admin *domain.Admin) error {
	const query = `
        INSERT INTO admins (name, email, password_hash, is_active)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		admin.Name,
		admin.Email,
		admin.PasswordHash,
		admin.IsActive,
	).Scan(&admin.ID, &admin.CreatedAt, &admin.UpdatedAt)
}

func (r *adminRepository) GetByID(ctx context.Context, id string) (*domain.Admin, error) {
	return r.fetchSingle(ctx, `SELECT `+adminColumns+` FROM admins WHERE id=$1`, id)
}

func (r *adminRepository) GetByEmail(ctx context.Context, email string) (*domain.Admin, error) {
	return r.fetchSingle(ctx, `SELECT `+adminColumns+` FROM admins WHERE email=$1`, email)
}

func (r *adminRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Admin, error) {
	var admin domain.Admin
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&admin.ID,
		&admin.Name,
		&admin.Email,
		&admin.PasswordHash,
		&admin.IsActive,
		&admin.CreatedAt,
		&admin.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &admin, nil
}
