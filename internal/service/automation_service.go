package service

import (
	"context"
	"strings"

	"github.com/autotickets/autotickets/internal/domain"
	"github.com/autotickets/autotickets/internal/repository"
	apperrors "github.com/autotickets/autotickets/pkg/util"
)

// AutomationService manages automation rules and the notification
// configuration edited by admins.
type AutomationService struct {
	rules    repository.AutomationRuleRepository
	settings repository.SettingsRepository
}

func NewAutomationService(rules repository.AutomationRuleRepository, settings repository.SettingsRepository) *AutomationService {
	return &AutomationService{rules: rules, settings: settings}
}

// RuleInput carries the editable fields of an automation rule.
type RuleInput struct {
	Name         string
	SourceStatus domain.TicketStatus
	TargetStatus domain.TicketStatus
	DelayDays    int
	DelayHours   int
	IsEnabled    bool
}

func (in *RuleInput) apply(rule *domain.AutomationRule) error {
	rule.Name = strings.TrimSpace(in.Name)
	rule.SourceStatus = in.SourceStatus
	rule.TargetStatus = in.TargetStatus
	rule.DelayDays = in.DelayDays
	rule.DelayHours = in.DelayHours
	rule.IsEnabled = in.IsEnabled
	if rule.Name == "" {
		return apperrors.NewValidationError("rule name required", nil)
	}
	return rule.Validate()
}

// CreateRule validates and stores a new rule.
func (s *AutomationService) CreateRule(ctx context.Context, input RuleInput) (*domain.AutomationRule, error) {
	rule := &domain.AutomationRule{}
	if err := input.apply(rule); err != nil {
		return nil, err
	}
	if err := s.rules.Create(ctx, rule); err != nil {
		return nil, err
	}
	return rule, nil
}

// UpdateRule validates and stores changes to an existing rule.
func (s *AutomationService) UpdateRule(ctx context.Context, id string, input RuleInput) (*domain.AutomationRule, error) {
	rule, err := s.rules.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := input.apply(rule); err != nil {
		return nil, err
	}
	if err := s.rules.Update(ctx, rule); err != nil {
		return nil, err
	}
	return rule, nil
}

// DeleteRule removes a rule.
func (s *AutomationService) DeleteRule(ctx context.Context, id string) error {
	if _, err := s.rules.GetByID(ctx, id); err != nil {
		return apperrors.MapError(err)
	}
	return s.rules.Delete(ctx, id)
}

// ListRules returns every rule, enabled or not.
func (s *AutomationService) ListRules(ctx context.Context) ([]domain.AutomationRule, error) {
	return s.rules.List(ctx)
}

// GetNotificationConfig returns the current notification configuration.
func (s *AutomationService) GetNotificationConfig(ctx context.Context) (*domain.NotificationConfig, error) {
	return s.settings.GetNotificationConfig(ctx)
}

// SaveNotificationConfig validates and persists the configuration.
func (s *AutomationService) SaveNotificationConfig(ctx context.Context, cfg *domain.NotificationConfig) error {
	for i, rule := range cfg.Rules {
		if !rule.Status.IsValid() {
			return apperrors.NewValidationError("unknown status in notification rule", map[string]any{"index": i})
		}
		if rule.Channel != domain.ChannelWhatsApp && rule.Channel != domain.ChannelEmail {
			return apperrors.NewValidationError("unknown channel in notification rule", map[string]any{"index": i})
		}
		if rule.Channel == domain.ChannelWhatsApp && strings.TrimSpace(rule.TemplateName) == "" {
			return apperrors.NewValidationError("whatsapp rule requires a template name", map[string]any{"index": i})
		}
	}
	return s.settings.SaveNotificationConfig(ctx, cfg)
}
