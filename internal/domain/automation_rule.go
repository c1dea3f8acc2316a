package domain

import (
	"errors"
	"time"
)

// AutomationRule moves tickets from one status to another after they
// have sat in the source status for the configured delay. Rules are
// admin-configured and evaluated by the scheduler; only enabled rules
// are ever applied.
type AutomationRule struct {
	ID           string
	Name         string
	SourceStatus TicketStatus
	TargetStatus TicketStatus
	DelayDays    int
	DelayHours   int
	IsEnabled    bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TotalDelay returns the configured delay as a duration.
func (r *AutomationRule) TotalDelay() time.Duration {
	return time.Duration(r.DelayDays*24+r.DelayHours) * time.Hour
}

// Validate checks the rule's field constraints. A zero total delay is
// legal to store but the evaluator skips it, so it is not rejected here.
func (r *AutomationRule) Validate() error {
	if r.Name == "" {
		return errors.New("rule name required")
	}
	if !r.SourceStatus.IsValid() {
		return errors.New("invalid source status")
	}
	if !r.TargetStatus.IsValid() {
		return errors.New("invalid target status")
	}
	if r.SourceStatus == r.TargetStatus {
		return errors.New("source and target status must differ")
	}
	if r.DelayDays < 0 {
		return errors.New("delay days must be >= 0")
	}
	if r.DelayHours < 0 || r.DelayHours > 23 {
		return errors.New("delay hours must be in 0..23")
	}
	return nil
}
