package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/autotickets/autotickets/internal/domain"
)

// CompanyRepository manages tenant accounts.
type CompanyRepository interface {
	Create(ctx context.Context, company *domain.Company) error
	Update(ctx context.Context, company *domain.Company) error
	GetByID(ctx context.Context, id string) (*domain.Company, error)
	GetByEmail(ctx context.Context, email string) (*domain.Company, error)
	List(ctx context.Context) ([]domain.Company, error)
}

type companyRepository struct {
	pool *pgxpool.Pool
}

// NewCompanyRepository builds repository.
func NewCompanyRepository(pool *pgxpool.Pool) CompanyRepository {
	return &companyRepository{pool: pool}
}

const companyColumns = `id, name, email, password_hash, contact_phone, contact_email, is_active, created_at, updated_at`

func (r *companyRepository) Create(ctx context.Context, company *domain.Company) error {
	const query = `
        INSERT INTO companies (name, email, password_hash, contact_phone, contact_email, is_active)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		company.Name,
		company.Email,
		company.PasswordHash,
		company.ContactPhone,
		company.ContactEmail,
		company.IsActive,
	).Scan(&company.ID, &company.CreatedAt, &company.UpdatedAt)
}

func (r *companyRepository) Update(ctx context.Context, company *domain.Company) error {
	const query = `
        UPDATE companies SET name=$1, email=$2, password_hash=$3, contact_phone=$4,
            contact_email=$5, is_active=$6, updated_at=NOW()
        WHERE id=$7`
	cmd, err := r.pool.Exec(ctx, query,
		company.Name,
		company.Email,
		company.PasswordHash,
		company.ContactPhone,
		company.ContactEmail,
		company.IsActive,
		company.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *companyRepository) GetByID(ctx context.Context, id string) (*domain.Company, error) {
	return r.fetchSingle(ctx, `SELECT `+companyColumns+` FROM companies WHERE id=$1`, id)
}

func (r *companyRepository) GetByEmail(ctx context.Context, email string) (*domain.Company, error) {
	return r.fetchSingle(ctx, `SELECT `+companyColumns+` FROM companies WHERE email=$1`, email)
}

func (r *companyRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Company, error) {
	var company domain.Company
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&company.ID,
		&company.Name,
		&company.Email,
		&company.PasswordHash,
		&company.ContactPhone,
		&company.ContactEmail,
		&company.IsActive,
		&company.CreatedAt,
		&company.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *companyRepository) List(ctx context.Context) ([]domain.Company, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+companyColumns+` FROM companies ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Company
	for rows.Next() {
		var company domain.Company
		if err := rows.Scan(
			&company.ID,
			&company.Name,
			&company.Email,
			&company.PasswordHash,
			&company.ContactPhone,
			&company.ContactEmail,
			&company.IsActive,
			&company.CreatedAt,
			&company.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, company)
	}
	return result, rows.Err()
}
