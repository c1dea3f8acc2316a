package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/autotickets/autotickets/internal/domain"
)

// SettingsRepository stores the notification configuration as a single
// row. Callers load it and pass it into the dispatch decision explicitly.
type SettingsRepository interface {
	GetNotificationConfig(ctx context.Context) (*domain.NotificationConfig, error)
	SaveNotificationConfig(ctx context.Context, cfg *domain.NotificationConfig) error
}

type settingsRepository struct {
	pool *pgxpool.Pool
}

// NewSettingsRepository builds repository.
func NewSettingsRepository(pool *pgxpool.Pool) SettingsRepository {
	return &settingsRepository{pool: pool}
}

// GetNotificationConfig returns the stored configuration, or an empty
// default when none has been saved yet.
func (r *settingsRepository) GetNotificationConfig(ctx context.Context) (*domain.NotificationConfig, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx, `SELECT config FROM system_settings LIMIT 1`).Scan(&raw)
	if err == pgx.ErrNoRows {
		return &domain.NotificationConfig{}, nil
	}
	if err != nil {
		return nil, err
	}

	var cfg domain.NotificationConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *settingsRepository) SaveNotificationConfig(ctx context.Context, cfg *domain.NotificationConfig) error {
	encoded, err := json.Marshal(cfg)
	if err != nil {
		return err
	}

	var id string
	err = r.pool.QueryRow(ctx, `SELECT id FROM system_settings LIMIT 1`).Scan(&id)
	if err == pgx.ErrNoRows {
		_, err = r.pool.Exec(ctx, `INSERT INTO system_settings (config) VALUES ($1::jsonb)`, string(encoded))
		return err
	}
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx,
		`UPDATE system_settings SET config=$1::jsonb, updated_at=NOW() WHERE id=$2`,
		string(encoded), id)
	return err
}
