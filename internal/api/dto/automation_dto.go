package dto

import (
	"time"

	"github.com/autotickets/autotickets/internal/domain"
)

// AutomationRuleRequest payload for creating or updating a rule.
type AutomationRuleRequest struct {
	Name         string `json:"name"`
	SourceStatus string `json:"source_status"`
	TargetStatus string `json:"target_status"`
	DelayDays    int    `json:"delay_days"`
	DelayHours   int    `json:"delay_hours"`
	IsEnabled    bool   `json:"is_enabled"`
}

// AutomationRuleResponse serializes a rule.
type AutomationRuleResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	SourceStatus string    `json:"source_status"`
	TargetStatus string    `json:"target_status"`
	DelayDays    int       `json:"delay_days"`
	DelayHours   int       `json:"delay_hours"`
	IsEnabled    bool      `json:"is_enabled"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FromRule maps a domain rule to its API shape.
func FromRule(r *domain.AutomationRule) AutomationRuleResponse {
	return AutomationRuleResponse{
		ID:           r.ID,
		Name:         r.Name,
		SourceStatus: string(r.SourceStatus),
		TargetStatus: string(r.TargetStatus),
		DelayDays:    r.DelayDays,
		DelayHours:   r.DelayHours,
		IsEnabled:    r.IsEnabled,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

// FromRules maps a slice of rules.
func FromRules(rules []domain.AutomationRule) []AutomationRuleResponse {
	out := make([]AutomationRuleResponse, len(rules))
	for i := range rules {
		out[i] = FromRule(&rules[i])
	}
	return out
}
