package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/autotickets/autotickets/internal/domain"
	"github.com/autotickets/autotickets/internal/repository"
)

type fakeTicketRepo struct {
	mu         sync.Mutex
	tickets    map[string]*domain.Ticket
	nextNumero map[string]int

	failList    error
	failResolve error
	failMove    error
	// failMoveFor makes MoveStatus fail only when moving to this status.
	failMoveFor domain.TicketStatus
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{
		tickets:    map[string]*domain.Ticket{},
		nextNumero: map[string]int{},
	}
}

func (f *fakeTicketRepo) add(t *domain.Ticket) *domain.Ticket {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Numero == 0 {
		f.nextNumero[t.CompanyID]++
		t.Numero = f.nextNumero[t.CompanyID]
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	if t.StatusChangedAt.IsZero() {
		t.StatusChangedAt = t.CreatedAt
	}
	f.tickets[t.ID] = t
	return t
}

func (f *fakeTicketRepo) Create(_ context.Context, t *domain.Ticket) error {
	f.add(t)
	return nil
}

func (f *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *t
	return &copied, nil
}

func (f *fakeTicketRepo) GetByNumero(_ context.Context, companyID string, numero int) (*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tickets {
		if t.CompanyID == companyID && t.Numero == numero {
			copied := *t
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Ticket
	for _, t := range f.tickets {
		if filter.CompanyID != nil && t.CompanyID != *filter.CompanyID {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, t.Status) {
			continue
		}
		if filter.SearchTerm != nil && !strings.Contains(strings.ToLower(t.Title), strings.ToLower(*filter.SearchTerm)) {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

func (f *fakeTicketRepo) UpdateStatus(_ context.Context, id string, fields repository.StatusFields) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tickets[id]
	if !ok {
		return pgx.ErrNoRows
	}
	t.Status = fields.Status
	t.AwaitingInfoSince = fields.AwaitingInfoSince
	t.Solution = fields.Solution
	t.SolutionAttachments = fields.SolutionAttachments
	t.ResolvedBy = fields.ResolvedBy
	t.ResolvedAt = fields.ResolvedAt
	t.StatusChangedAt = fields.StatusChangedAt
	t.UpdatedAt = fields.StatusChangedAt
	return nil
}

func (f *fakeTicketRepo) AppendChatMessage(_ context.Context, id string, msg domain.ChatMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tickets[id]
	if !ok {
		return pgx.ErrNoRows
	}
	t.ChatHistory = append(t.ChatHistory, msg)
	return nil
}

func (f *fakeTicketRepo) Delete(_ context.Context, companyID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tickets[id]
	if !ok || t.CompanyID != companyID {
		return pgx.ErrNoRows
	}
	delete(f.tickets, id)
	return nil
}

func (f *fakeTicketRepo) ListExpiredAwaitingInfo(_ context.Context, deadline time.Time) ([]domain.Ticket, error) {
	if f.failList != nil {
		return nil, f.failList
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Ticket
	for _, t := range f.tickets {
		if t.Status != domain.TicketStatusAwaitingInfo || t.AwaitingInfoSince == nil {
			continue
		}
		if t.AwaitingInfoSince.Before(deadline) {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeTicketRepo) ResolveTacitly(_ context.Context, ids []string, solution, resolvedBy string, now time.Time) error {
	if f.failResolve != nil {
		return f.failResolve
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		t, ok := f.tickets[id]
		if !ok {
			continue
		}
		t.Status = domain.TicketStatusResolved
		t.Solution = solution
		t.ResolvedBy = resolvedBy
		resolvedAt := now
		t.ResolvedAt = &resolvedAt
		t.AwaitingInfoSince = nil
		t.StatusChangedAt = now
		t.UpdatedAt = now
	}
	return nil
}

func (f *fakeTicketRepo) ListByStatusOlderThan(_ context.Context, status domain.TicketStatus, cutoff time.Time) ([]domain.Ticket, error) {
	if f.failList != nil {
		return nil, f.failList
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Ticket
	for _, t := range f.tickets {
		if t.Status == status && t.StatusChangedAt.Before(cutoff) {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeTicketRepo) MoveStatus(_ context.Context, ids []string, target domain.TicketStatus, now time.Time) error {
	if f.failMove != nil && (f.failMoveFor == "" || f.failMoveFor == target) {
		return f.failMove
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		t, ok := f.tickets[id]
		if !ok {
			continue
		}
		t.Status = target
		t.StatusChangedAt = now
		t.UpdatedAt = now
		if target == domain.TicketStatusAwaitingInfo {
			if t.AwaitingInfoSince == nil {
				anchor := now
				t.AwaitingInfoSince = &anchor
			}
		} else {
			t.AwaitingInfoSince = nil
		}
	}
	return nil
}

func containsStatus(statuses []domain.TicketStatus, status domain.TicketStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

type fakeCompanyRepo struct {
	companies map[string]*domain.Company
}

func newFakeCompanyRepo(companies ...*domain.Company) *fakeCompanyRepo {
	repo := &fakeCompanyRepo{companies: map[string]*domain.Company{}}
	for _, c := range companies {
		repo.companies[c.ID] = c
	}
	return repo
}

func (f *fakeCompanyRepo) Create(_ context.Context, c *domain.Company) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	f.companies[c.ID] = c
	return nil
}

func (f *fakeCompanyRepo) Update(_ context.Context, c *domain.Company) error {
	if _, ok := f.companies[c.ID]; !ok {
		return pgx.ErrNoRows
	}
	f.companies[c.ID] = c
	return nil
}

func (f *fakeCompanyRepo) GetByID(_ context.Context, id string) (*domain.Company, error) {
	c, ok := f.companies[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return c, nil
}

func (f *fakeCompanyRepo) GetByEmail(_ context.Context, email string) (*domain.Company, error) {
	for _, c := range f.companies {
		if c.Email == email {
			return c, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeCompanyRepo) List(_ context.Context) ([]domain.Company, error) {
	var out []domain.Company
	for _, c := range f.companies {
		out = append(out, *c)
	}
	return out, nil
}

type fakeRuleRepo struct {
	rules    []domain.AutomationRule
	failList error
}

func (f *fakeRuleRepo) Create(_ context.Context, rule *domain.AutomationRule) error {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	rule.CreatedAt = time.Now().UTC()
	rule.UpdatedAt = rule.CreatedAt
	f.rules = append(f.rules, *rule)
	return nil
}

func (f *fakeRuleRepo) Update(_ context.Context, rule *domain.AutomationRule) error {
	for i := range f.rules {
		if f.rules[i].ID == rule.ID {
			f.rules[i] = *rule
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (f *fakeRuleRepo) Delete(_ context.Context, id string) error {
	for i := range f.rules {
		if f.rules[i].ID == id {
			f.rules = append(f.rules[:i], f.rules[i+1:]...)
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (f *fakeRuleRepo) GetByID(_ context.Context, id string) (*domain.AutomationRule, error) {
	for i := range f.rules {
		if f.rules[i].ID == id {
			copied := f.rules[i]
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeRuleRepo) List(_ context.Context) ([]domain.AutomationRule, error) {
	return append([]domain.AutomationRule{}, f.rules...), nil
}

func (f *fakeRuleRepo) ListEnabled(_ context.Context) ([]domain.AutomationRule, error) {
	if f.failList != nil {
		return nil, f.failList
	}
	var out []domain.AutomationRule
	for _, r := range f.rules {
		if r.IsEnabled {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeSettingsRepo struct {
	cfg *domain.NotificationConfig
}

func (f *fakeSettingsRepo) GetNotificationConfig(_ context.Context) (*domain.NotificationConfig, error) {
	if f.cfg == nil {
		return &domain.NotificationConfig{}, nil
	}
	return f.cfg, nil
}

func (f *fakeSettingsRepo) SaveNotificationConfig(_ context.Context, cfg *domain.NotificationConfig) error {
	f.cfg = cfg
	return nil
}

var errStoreDown = fmt.Errorf("store unavailable")
