package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/autotickets/autotickets/internal/domain"
	"github.com/autotickets/autotickets/internal/observability"
	"github.com/autotickets/autotickets/internal/repository"
	apperrors "github.com/autotickets/autotickets/pkg/util"
)

// TacitSolutionText is written into tickets auto-resolved after the
// 48h awaiting-info window expires without a client reply.
const TacitSolutionText = "Auto-resolved by tacit acceptance (no client response within 48h)"

// TacitResolvedBy labels auto-resolutions in the resolution record.
const TacitResolvedBy = "System (Tacit Acceptance)"

// TicketRef identifies an affected ticket in a pass summary.
type TicketRef struct {
	ID     string `json:"id"`
	Numero int    `json:"numero"`
	Title  string `json:"title"`
}

// TacitPassSummary reports one tacit-acceptance run.
type TacitPassSummary struct {
	Resolved int         `json:"resolved"`
	Tickets  []TicketRef `json:"tickets,omitempty"`
}

// RuleResult reports one rule's evaluation within a pass.
type RuleResult struct {
	RuleID   string `json:"rule_id"`
	RuleName string `json:"rule_name"`
	Matched  int    `json:"matched"`
	Moved    int    `json:"moved"`
	Skipped  bool   `json:"skipped,omitempty"`
	Error    string `json:"error,omitempty"`
}

// RulePassSummary reports one automation-rule run.
type RulePassSummary struct {
	Rules []RuleResult `json:"rules"`
	Moved int          `json:"moved"`
}

// SchedulerService runs the periodic evaluators. Both passes are
// idempotent pull-based scans; they never rely on change notifications.
type SchedulerService struct {
	tickets repository.TicketRepository
	rules   repository.AutomationRuleRepository
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewSchedulerService constructs the service.
func NewSchedulerService(tickets repository.TicketRepository, rules repository.AutomationRuleRepository, logger *zap.Logger, metrics *observability.Metrics) *SchedulerService {
	return &SchedulerService{tickets: tickets, rules: rules, logger: logger, metrics: metrics}
}

// RunTacitAcceptancePass resolves every ticket that has been awaiting
// client info for longer than the acceptance window. Re-running is a
// no-op for tickets already resolved: the selection predicate excludes
// them.
func (s *SchedulerService) RunTacitAcceptancePass(ctx context.Context) (*TacitPassSummary, error) {
	deadline := time.Now().UTC().Add(-domain.TacitAcceptanceWindow)

	expired, err := s.tickets.ListExpiredAwaitingInfo(ctx, deadline)
	if err != nil {
		s.logger.Error("tacit pass: fetch failed", zap.Error(err))
		return nil, apperrors.NewStoreUnavailable(err)
	}

	summary := &TacitPassSummary{Resolved: 0}
	if len(expired) == 0 {
		s.logger.Info("tacit pass: no expired tickets")
		s.metrics.RecordPass("tacit_acceptance", 0, 0)
		return summary, nil
	}

	ids := make([]string, 0, len(expired))
	for _, ticket := range expired {
		ids = append(ids, ticket.ID)
		summary.Tickets = append(summary.Tickets, TicketRef{ID: ticket.ID, Numero: ticket.Numero, Title: ticket.Title})
	}

	now := time.Now().UTC()
	if err := s.tickets.ResolveTacitly(ctx, ids, TacitSolutionText, TacitResolvedBy, now); err != nil {
		s.logger.Error("tacit pass: bulk resolve failed", zap.Error(err), zap.Int("tickets", len(ids)))
		s.metrics.RecordPass("tacit_acceptance", 0, len(ids))
		return nil, apperrors.NewStoreUnavailable(err)
	}

	summary.Resolved = len(ids)
	s.logger.Info("tacit pass: tickets auto-resolved",
		zap.Int("resolved", summary.Resolved),
		zap.Strings("ticket_ids", ids))
	s.metrics.RecordPass("tacit_acceptance", summary.Resolved, 0)
	return summary, nil
}

// RunAutomationRulePass evaluates every enabled column automation rule.
// Rules run independently: a failure on one rule is recorded in the
// summary and does not abort the rest. Zero-delay rules are skipped to
// guard against instant or cyclic moves.
func (s *SchedulerService) RunAutomationRulePass(ctx context.Context) (*RulePassSummary, error) {
	enabled, err := s.rules.ListEnabled(ctx)
	if err != nil {
		s.logger.Error("rule pass: fetch rules failed", zap.Error(err))
		return nil, apperrors.NewStoreUnavailable(err)
	}

	summary := &RulePassSummary{}
	if len(enabled) == 0 {
		s.logger.Info("rule pass: no enabled rules")
		s.metrics.RecordPass("automation_rules", 0, 0)
		return summary, nil
	}

	now := time.Now().UTC()
	failed := 0
	for _, rule := range enabled {
		result := RuleResult{RuleID: rule.ID, RuleName: rule.Name}

		delay := rule.TotalDelay()
		if delay <= 0 {
			result.Skipped = true
			summary.Rules = append(summary.Rules, result)
			s.logger.Warn("rule pass: zero-delay rule skipped", zap.String("rule", rule.Name))
			continue
		}

		cutoff := now.Add(-delay)
		matching, err := s.tickets.ListByStatusOlderThan(ctx, rule.SourceStatus, cutoff)
		if err != nil {
			result.Error = err.Error()
			summary.Rules = append(summary.Rules, result)
			failed++
			s.logger.Error("rule pass: fetch tickets failed", zap.String("rule", rule.Name), zap.Error(err))
			continue
		}

		result.Matched = len(matching)
		if len(matching) == 0 {
			summary.Rules = append(summary.Rules, result)
			continue
		}

		ids := make([]string, 0, len(matching))
		for _, ticket := range matching {
			ids = append(ids, ticket.ID)
		}
		if err := s.tickets.MoveStatus(ctx, ids, rule.TargetStatus, now); err != nil {
			result.Error = err.Error()
			summary.Rules = append(summary.Rules, result)
			failed++
			s.logger.Error("rule pass: move failed", zap.String("rule", rule.Name), zap.Error(err))
			continue
		}

		result.Moved = len(ids)
		summary.Moved += result.Moved
		summary.Rules = append(summary.Rules, result)
		s.logger.Info("rule pass: tickets moved",
			zap.String("rule", rule.Name),
			zap.String("from", string(rule.SourceStatus)),
			zap.String("to", string(rule.TargetStatus)),
			zap.Int("moved", result.Moved))
	}

	s.metrics.RecordPass("automation_rules", summary.Moved, failed)
	return summary, nil
}
