package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/autotickets/autotickets/internal/domain"
	"github.com/autotickets/autotickets/internal/events"
	"github.com/autotickets/autotickets/internal/repository"
	apperrors "github.com/autotickets/autotickets/pkg/util"
)

// TicketService coordinates the ticket lifecycle: creation, the status
// state machine, and the awaiting-info chat sub-protocol.
type TicketService struct {
	tickets    repository.TicketRepository
	companies  repository.CompanyRepository
	dispatcher events.Dispatcher
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	CompanyRepo repository.CompanyRepository
	Dispatcher  events.Dispatcher
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title            string
	Description      string
	WhatShouldHappen string
	Urgency          domain.UrgencyLevel
	AIID             *string
	AIName           string
	Attachments      []domain.Attachment
	RequesterName    string
}

// StatusChangeInput describes a requested transition. Solution fields
// are only consulted when the new status is Resolved.
type StatusChangeInput struct {
	NewStatus           domain.TicketStatus
	Solution            string
	SolutionAttachments []domain.Attachment
}

// TicketListFilter describes listing filters for both tenant and admin
// views. Admin callers leave CompanyID nil to see all tenants.
type TicketListFilter struct {
	CompanyID   *string
	Statuses    []domain.TicketStatus
	Urgencies   []domain.UrgencyLevel
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		companies:  deps.CompanyRepo,
		dispatcher: deps.Dispatcher,
	}
}

// CreateTicket opens a new ticket for a tenant. Status starts at
// Pending and the display number is assigned sequentially per tenant.
func (s *TicketService) CreateTicket(ctx context.Context, companyID string, input TicketCreateInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title required", nil)
	}

	ticket := &domain.Ticket{
		CompanyID:        companyID,
		AIID:             input.AIID,
		AIName:           strings.TrimSpace(input.AIName),
		Title:            title,
		Description:      strings.TrimSpace(input.Description),
		WhatShouldHappen: strings.TrimSpace(input.WhatShouldHappen),
		Urgency:          input.Urgency,
		Attachments:      input.Attachments,
		RequesterName:    strings.TrimSpace(input.RequesterName),
		Status:           domain.TicketStatusPending,
	}
	if ticket.Urgency == "" {
		ticket.Urgency = domain.UrgencyMedium
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:      events.EventTicketCreated,
		TicketID:  ticket.ID,
		CompanyID: ticket.CompanyID,
		Actor:     domain.Actor{Type: domain.SubjectTypeCompany, ID: companyID, Name: ticket.RequesterName},
		Payload: events.TicketCreatedPayload{
			Numero:  ticket.Numero,
			Title:   ticket.Title,
			Urgency: ticket.Urgency,
			AIName:  ticket.AIName,
			Ticket:  ticket,
		},
	})
	return ticket, nil
}

// GetTicketForCompany fetches a ticket ensuring tenant ownership.
func (s *TicketService) GetTicketForCompany(ctx context.Context, companyID, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.CompanyID != companyID {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"id": ticketID})
	}
	return ticket, nil
}

// GetTicket fetches a ticket without tenant scoping, for admin views.
func (s *TicketService) GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	return s.tickets.GetByID(ctx, ticketID)
}

// GetTicketByNumero looks up a ticket by its tenant-scoped display number.
func (s *TicketService) GetTicketByNumero(ctx context.Context, companyID string, numero int) (*domain.Ticket, error) {
	return s.tickets.GetByNumero(ctx, companyID, numero)
}

// ListTickets returns tickets matching the filter.
func (s *TicketService) ListTickets(ctx context.Context, filter TicketListFilter) ([]domain.Ticket, error) {
	return s.tickets.ListWithFilter(ctx, repository.TicketFilter{
		CompanyID:   filter.CompanyID,
		Statuses:    filter.Statuses,
		Urgencies:   filter.Urgencies,
		SearchTerm:  filter.SearchTerm,
		CreatedFrom: filter.CreatedFrom,
		CreatedTo:   filter.CreatedTo,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	})
}

// SetStatus applies a status transition. The machine allows any manual
// transition between distinct statuses; entering AwaitingInfo anchors
// the tacit-acceptance clock, leaving it clears the anchor, and entering
// Resolved requires a non-empty solution. Re-asserting the current
// status is a no-op and in particular never resets the anchor.
func (s *TicketService) SetStatus(ctx context.Context, actor domain.Actor, ticketID string, input StatusChangeInput) (*domain.Ticket, error) {
	if !input.NewStatus.IsValid() {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": input.NewStatus})
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	oldStatus := ticket.Status
	if oldStatus == input.NewStatus {
		return ticket, nil
	}

	now := time.Now().UTC()
	fields := repository.StatusFields{
		Status:          input.NewStatus,
		StatusChangedAt: now,
	}

	switch input.NewStatus {
	case domain.TicketStatusAwaitingInfo:
		fields.AwaitingInfoSince = &now
	case domain.TicketStatusResolved:
		solution := strings.TrimSpace(input.Solution)
		if solution == "" {
			return nil, apperrors.NewValidationError("solution required to resolve a ticket", nil)
		}
		fields.Solution = solution
		fields.SolutionAttachments = input.SolutionAttachments
		fields.ResolvedBy = actor.Name
		if fields.ResolvedBy == "" {
			fields.ResolvedBy = string(actor.Type)
		}
		fields.ResolvedAt = &now
	}
	// Archived keeps the resolution record it may carry from Resolved.
	if input.NewStatus == domain.TicketStatusArchived && oldStatus == domain.TicketStatusResolved {
		fields.Solution = ticket.Solution
		fields.SolutionAttachments = ticket.SolutionAttachments
		fields.ResolvedBy = ticket.ResolvedBy
		fields.ResolvedAt = ticket.ResolvedAt
	}

	if err := s.tickets.UpdateStatus(ctx, ticket.ID, fields); err != nil {
		return nil, err
	}

	ticket.Status = fields.Status
	ticket.AwaitingInfoSince = fields.AwaitingInfoSince
	ticket.Solution = fields.Solution
	ticket.SolutionAttachments = fields.SolutionAttachments
	ticket.ResolvedBy = fields.ResolvedBy
	ticket.ResolvedAt = fields.ResolvedAt
	ticket.StatusChangedAt = now
	ticket.UpdatedAt = now

	s.publishEvent(ctx, events.Event{
		Type:      events.EventTicketStatusChanged,
		TicketID:  ticket.ID,
		CompanyID: ticket.CompanyID,
		Actor:     actor,
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: ticket.Status,
			Ticket:    ticket,
		},
	})
	return ticket, nil
}

// RequestInfo appends an admin question to the ticket conversation and,
// when the ticket is not already AwaitingInfo, moves it there as part of
// the same logical operation. A repeated request while already awaiting
// info only appends the message; the 48h clock keeps its anchor.
func (s *TicketService) RequestInfo(ctx context.Context, adminName, ticketID, message string) (*domain.Ticket, error) {
	text := strings.TrimSpace(message)
	if text == "" {
		return nil, apperrors.NewValidationError("message required", nil)
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	msg := domain.ChatMessage{
		ID:        uuid.NewString(),
		Sender:    domain.ChatSenderAdmin,
		AdminName: adminName,
		Message:   text,
		Timestamp: time.Now().UTC(),
	}
	if err := s.tickets.AppendChatMessage(ctx, ticket.ID, msg); err != nil {
		return nil, err
	}
	ticket.ChatHistory = append(ticket.ChatHistory, msg)

	s.publishEvent(ctx, events.Event{
		Type:      events.EventTicketMessageAdded,
		TicketID:  ticket.ID,
		CompanyID: ticket.CompanyID,
		Actor:     domain.Actor{Type: domain.SubjectTypeAdmin, Name: adminName},
		Payload: events.TicketMessageAddedPayload{
			MessageID: msg.ID,
			Sender:    msg.Sender,
			Preview:   stringPreview(msg.Message, 120),
		},
	})

	if ticket.Status != domain.TicketStatusAwaitingInfo {
		actor := domain.Actor{Type: domain.SubjectTypeAdmin, Name: adminName}
		return s.SetStatus(ctx, actor, ticket.ID, StatusChangeInput{NewStatus: domain.TicketStatusAwaitingInfo})
	}
	return ticket, nil
}

// Reply appends a client answer to the conversation. It never changes
// the status: an admin reviews the reply and moves the ticket out of
// AwaitingInfo explicitly.
func (s *TicketService) Reply(ctx context.Context, companyID, ticketID, message string) (*domain.Ticket, error) {
	text := strings.TrimSpace(message)
	if text == "" {
		return nil, apperrors.NewValidationError("message required", nil)
	}

	ticket, err := s.GetTicketForCompany(ctx, companyID, ticketID)
	if err != nil {
		return nil, err
	}

	msg := domain.ChatMessage{
		ID:        uuid.NewString(),
		Sender:    domain.ChatSenderClient,
		Message:   text,
		Timestamp: time.Now().UTC(),
	}
	if err := s.tickets.AppendChatMessage(ctx, ticket.ID, msg); err != nil {
		return nil, err
	}
	ticket.ChatHistory = append(ticket.ChatHistory, msg)

	s.publishEvent(ctx, events.Event{
		Type:      events.EventTicketMessageAdded,
		TicketID:  ticket.ID,
		CompanyID: ticket.CompanyID,
		Actor:     domain.Actor{Type: domain.SubjectTypeCompany, ID: companyID},
		Payload: events.TicketMessageAddedPayload{
			MessageID: msg.ID,
			Sender:    msg.Sender,
			Preview:   stringPreview(msg.Message, 120),
		},
	})
	return ticket, nil
}

// DeleteTicket permanently removes a tenant's ticket. Resolved tickets
// are not deletable through this path.
func (s *TicketService) DeleteTicket(ctx context.Context, companyID, ticketID string) error {
	ticket, err := s.GetTicketForCompany(ctx, companyID, ticketID)
	if err != nil {
		return err
	}
	if ticket.Status == domain.TicketStatusResolved {
		return apperrors.NewValidationError("resolved tickets cannot be deleted", nil)
	}

	if err := s.tickets.Delete(ctx, companyID, ticketID); err != nil {
		return err
	}
	s.publishEvent(ctx, events.Event{
		Type:      events.EventTicketDeleted,
		TicketID:  ticket.ID,
		CompanyID: ticket.CompanyID,
		Actor:     domain.Actor{Type: domain.SubjectTypeCompany, ID: companyID},
		Payload:   events.TicketDeletedPayload{Numero: ticket.Numero},
	})
	return nil
}

// ContactForCompany returns the notification contact info for a tenant.
func (s *TicketService) ContactForCompany(ctx context.Context, companyID string) (domain.ContactInfo, error) {
	company, err := s.companies.GetByID(ctx, companyID)
	if err != nil {
		return domain.ContactInfo{}, err
	}
	return company.Contact(), nil
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
