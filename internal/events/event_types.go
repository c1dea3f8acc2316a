package events

import (
	"time"

	"github.com/autotickets/autotickets/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketMessageAdded  EventType = "ticket_message_added"
	EventTicketDeleted       EventType = "ticket_deleted"
)

// Event represents a domain event emitted by services. Store-change
// subscribers (UI refresh, notification fan-out) receive these; the
// scheduler evaluators never depend on them, they always pull.
type Event struct {
	ID        string       `json:"id"`
	Type      EventType    `json:"type"`
	TicketID  string       `json:"ticket_id"`
	CompanyID string       `json:"company_id"`
	Actor     domain.Actor `json:"actor"`
	Timestamp time.Time    `json:"timestamp"`
	Payload   interface{}  `json:"payload"`
}

// TicketCreatedPayload payload. Ticket carries the created snapshot so
// subscribers do not re-read the store.
type TicketCreatedPayload struct {
	Numero  int                 `json:"numero"`
	Title   string              `json:"title"`
	Urgency domain.UrgencyLevel `json:"urgency"`
	AIName  string              `json:"ai_name,omitempty"`
	Ticket  *domain.Ticket      `json:"-"`
}

// TicketStatusChangedPayload payload. Ticket carries the post-transition
// snapshot so notification decisions do not re-read the store.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	Ticket    *domain.Ticket      `json:"-"`
}

// TicketMessageAddedPayload payload.
type TicketMessageAddedPayload struct {
	MessageID string            `json:"message_id"`
	Sender    domain.ChatSender `json:"sender"`
	Preview   string            `json:"preview"`
}

// TicketDeletedPayload payload.
type TicketDeletedPayload struct {
	Numero int `json:"numero"`
}
