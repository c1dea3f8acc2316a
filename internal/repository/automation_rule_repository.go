package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/autotickets/autotickets/internal/domain"
)

// AutomationRuleRepository manages column automation rules.
type AutomationRuleRepository interface {
	Create(ctx context.Context, rule *domain.AutomationRule) error
	Update(ctx context.Context, rule *domain.AutomationRule) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.AutomationRule, error)
	List(ctx context.Context) ([]domain.AutomationRule, error)
	ListEnabled(ctx context.Context) ([]domain.AutomationRule, error)
}

type automationRuleRepository struct {
	pool *pgxpool.Pool
}

// NewAutomationRuleRepository builds repository.
func NewAutomationRuleRepository(pool *pgxpool.Pool) AutomationRuleRepository {
	return &automationRuleRepository{pool: pool}
}

const ruleColumns = `id, name, source_status, target_status, delay_days, delay_hours, is_enabled, created_at, updated_at`

func (r *automationRuleRepository) Create(ctx context.Context, rule *domain.AutomationRule) error {
	const query = `
        INSERT INTO automation_rules (name, source_status, target_status, delay_days, delay_hours, is_enabled)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		rule.Name,
		rule.SourceStatus,
		rule.TargetStatus,
		rule.DelayDays,
		rule.DelayHours,
		rule.IsEnabled,
	).Scan(&rule.ID, &rule.CreatedAt, &rule.UpdatedAt)
}

func (r *automationRuleRepository) Update(ctx context.Context, rule *domain.AutomationRule) error {
	const query = `
        UPDATE automation_rules SET name=$1, source_status=$2, target_status=$3,
            delay_days=$4, delay_hours=$5, is_enabled=$6, updated_at=NOW()
        WHERE id=$7`
	cmd, err := r.pool.Exec(ctx, query,
		rule.Name,
		rule.SourceStatus,
		rule.TargetStatus,
		rule.DelayDays,
		rule.DelayHours,
		rule.IsEnabled,
		rule.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *automationRuleRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM automation_rules WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *automationRuleRepository) GetByID(ctx context.Context, id string) (*domain.AutomationRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM automation_rules WHERE id=$1`
	var rule domain.AutomationRule
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&rule.ID,
		&rule.Name,
		&rule.SourceStatus,
		&rule.TargetStatus,
		&rule.DelayDays,
		&rule.DelayHours,
		&rule.IsEnabled,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *automationRuleRepository) List(ctx context.Context) ([]domain.AutomationRule, error) {
	return r.list(ctx, `SELECT `+ruleColumns+` FROM automation_rules ORDER BY created_at ASC`)
}

func (r *automationRuleRepository) ListEnabled(ctx context.Context) ([]domain.AutomationRule, error) {
	return r.list(ctx, `SELECT `+ruleColumns+` FROM automation_rules WHERE is_enabled ORDER BY created_at ASC`)
}

func (r *automationRuleRepository) list(ctx context.Context, query string) ([]domain.AutomationRule, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AutomationRule
	for rows.Next() {
		var rule domain.AutomationRule
		if err := rows.Scan(
			&rule.ID,
			&rule.Name,
			&rule.SourceStatus,
			&rule.TargetStatus,
			&rule.DelayDays,
			&rule.DelayHours,
			&rule.IsEnabled,
			&rule.CreatedAt,
			&rule.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, rule)
	}
	return result, rows.Err()
}
