package dto

import (
	"time"

	"github.com/autotickets/autotickets/internal/domain"
)

// TicketCreateRequest payload for opening a ticket.
type TicketCreateRequest struct {
	Title            string              `json:"title"`
	Description      string              `json:"description"`
	WhatShouldHappen string              `json:"what_should_happen"`
	Urgency          string              `json:"urgency"`
	AIID             *string             `json:"ai_id,omitempty"`
	AIName           string              `json:"ai_name,omitempty"`
	Attachments      []domain.Attachment `json:"attachments,omitempty"`
	RequesterName    string              `json:"requester_name,omitempty"`
}

// TicketStatusRequest payload for admin transitions.
type TicketStatusRequest struct {
	Status              string              `json:"status"`
	Solution            string              `json:"solution,omitempty"`
	SolutionAttachments []domain.Attachment `json:"solution_attachments,omitempty"`
}

// ChatMessageRequest payload for chat appends from either side.
type ChatMessageRequest struct {
	Message string `json:"message"`
}

// TicketResponse serializes a ticket for API consumers.
type TicketResponse struct {
	ID                  string               `json:"id"`
	Numero              int                  `json:"numero"`
	CompanyID           string               `json:"company_id"`
	AIID                *string              `json:"ai_id,omitempty"`
	AIName              string               `json:"ai_name,omitempty"`
	Title               string               `json:"title"`
	Description         string               `json:"description"`
	WhatShouldHappen    string               `json:"what_should_happen,omitempty"`
	Urgency             string               `json:"urgency"`
	Attachments         []domain.Attachment  `json:"attachments,omitempty"`
	RequesterName       string               `json:"requester_name,omitempty"`
	Status              string               `json:"status"`
	Solution            string               `json:"solution,omitempty"`
	SolutionAttachments []domain.Attachment  `json:"solution_attachments,omitempty"`
	ResolvedBy          string               `json:"resolved_by,omitempty"`
	ResolvedAt          *time.Time           `json:"resolved_at,omitempty"`
	AwaitingInfoSince   *time.Time           `json:"awaiting_info_since,omitempty"`
	ChatHistory         []domain.ChatMessage `json:"chat_history"`
	CreatedAt           time.Time            `json:"created_at"`
	UpdatedAt           time.Time            `json:"updated_at"`
	StatusChangedAt     time.Time            `json:"status_changed_at"`
	// AutoResolveRemainingSeconds counts down the tacit-acceptance
	// window while the ticket awaits client info.
	AutoResolveRemainingSeconds *int64 `json:"auto_resolve_remaining_seconds,omitempty"`
}

// FromTicket maps a domain ticket to its API shape.
func FromTicket(t *domain.Ticket, now time.Time) TicketResponse {
	resp := TicketResponse{
		ID:                  t.ID,
		Numero:              t.Numero,
		CompanyID:           t.CompanyID,
		AIID:                t.AIID,
		AIName:              t.AIName,
		Title:               t.Title,
		Description:         t.Description,
		WhatShouldHappen:    t.WhatShouldHappen,
		Urgency:             string(t.Urgency),
		Attachments:         t.Attachments,
		RequesterName:       t.RequesterName,
		Status:              string(t.Status),
		Solution:            t.Solution,
		SolutionAttachments: t.SolutionAttachments,
		ResolvedBy:          t.ResolvedBy,
		ResolvedAt:          t.ResolvedAt,
		AwaitingInfoSince:   t.AwaitingInfoSince,
		ChatHistory:         t.ChatHistory,
		CreatedAt:           t.CreatedAt,
		UpdatedAt:           t.UpdatedAt,
		StatusChangedAt:     t.StatusChangedAt,
	}
	if resp.ChatHistory == nil {
		resp.ChatHistory = []domain.ChatMessage{}
	}
	if remaining, ok := t.AwaitingInfoRemaining(now); ok {
		seconds := int64(remaining.Seconds())
		resp.AutoResolveRemainingSeconds = &seconds
	}
	return resp
}

// FromTickets maps a slice of tickets.
func FromTickets(tickets []domain.Ticket, now time.Time) []TicketResponse {
	out := make([]TicketResponse, len(tickets))
	for i := range tickets {
		out[i] = FromTicket(&tickets[i], now)
	}
	return out
}
