package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusPending      TicketStatus = "Pending"
	TicketStatusInAnalysis   TicketStatus = "InAnalysis"
	TicketStatusAwaitingInfo TicketStatus = "AwaitingInfo"
	TicketStatusResolved     TicketStatus = "Resolved"
	TicketStatusArchived     TicketStatus = "Archived"
)

// KnownStatuses lists every valid status value.
var KnownStatuses = []TicketStatus{
	TicketStatusPending,
	TicketStatusInAnalysis,
	TicketStatusAwaitingInfo,
	TicketStatusResolved,
	TicketStatusArchived,
}

// IsValid reports whether the status is one of the known values.
func (s TicketStatus) IsValid() bool {
	for _, known := range KnownStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// UrgencyLevel enumerates how pressing a ticket is for the tenant.
type UrgencyLevel string

const (
	UrgencyLow      UrgencyLevel = "Low"
	UrgencyMedium   UrgencyLevel = "Medium"
	UrgencyHigh     UrgencyLevel = "High"
	UrgencyCritical UrgencyLevel = "Critical"
)

// Attachment references an uploaded file by its public URL.
type Attachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// TacitAcceptanceWindow is how long a ticket may sit in AwaitingInfo
// before client silence is treated as acceptance and the ticket is
// auto-resolved.
const TacitAcceptanceWindow = 48 * time.Hour

// Ticket is the aggregate for support requests. Each ticket belongs to
// exactly one company and optionally targets one of its AI agents.
type Ticket struct {
	ID                  string
	Numero              int
	CompanyID           string
	AIID                *string
	AIName              string
	Title               string
	Description         string
	WhatShouldHappen    string
	Urgency             UrgencyLevel
	Attachments         []Attachment
	RequesterName       string
	Status              TicketStatus
	Solution            string
	SolutionAttachments []Attachment
	ResolvedBy          string
	ResolvedAt          *time.Time
	AwaitingInfoSince   *time.Time
	ChatHistory         []ChatMessage
	CreatedAt           time.Time
	UpdatedAt           time.Time
	StatusChangedAt     time.Time
}

// AwaitingInfoAnchor returns the instant the tacit-acceptance clock
// started. When AwaitingInfoSince is missing it falls back to the last
// admin chat message, then to CreatedAt. Every countdown display must
// use this same chain so urgency signals stay consistent.
func (t *Ticket) AwaitingInfoAnchor() time.Time {
	if t.AwaitingInfoSince != nil {
		return *t.AwaitingInfoSince
	}
	for i := len(t.ChatHistory) - 1; i >= 0; i-- {
		if t.ChatHistory[i].Sender == ChatSenderAdmin {
			return t.ChatHistory[i].Timestamp
		}
	}
	return t.CreatedAt
}

// AwaitingInfoRemaining returns the time left before tacit acceptance
// resolves the ticket. The second result is false when the ticket is not
// awaiting info at all.
func (t *Ticket) AwaitingInfoRemaining(now time.Time) (time.Duration, bool) {
	if t.Status != TicketStatusAwaitingInfo {
		return 0, false
	}
	deadline := t.AwaitingInfoAnchor().Add(TacitAcceptanceWindow)
	remaining := deadline.Sub(now)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, true
}
