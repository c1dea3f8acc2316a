package domain

import "time"

// Admin is a supervisor account that triages tickets across all tenants
// and edits automation and notification configuration.
type Admin struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
