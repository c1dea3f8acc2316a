package domain

import (
	"testing"
	"time"
)

func TestAwaitingInfoAnchorFallbackChain(t *testing.T) {
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	adminAt := created.Add(2 * time.Hour)
	clientAt := created.Add(3 * time.Hour)
	since := created.Add(5 * time.Hour)

	ticket := Ticket{
		Status:    TicketStatusAwaitingInfo,
		CreatedAt: created,
		ChatHistory: []ChatMessage{
			{Sender: ChatSenderAdmin, Timestamp: adminAt},
			{Sender: ChatSenderClient, Timestamp: clientAt},
		},
		AwaitingInfoSince: &since,
	}
	if got := ticket.AwaitingInfoAnchor(); !got.Equal(since) {
		t.Fatalf("anchor = %v, want awaiting_info_since", got)
	}

	ticket.AwaitingInfoSince = nil
	if got := ticket.AwaitingInfoAnchor(); !got.Equal(adminAt) {
		t.Fatalf("anchor = %v, want last admin message", got)
	}

	ticket.ChatHistory = []ChatMessage{{Sender: ChatSenderClient, Timestamp: clientAt}}
	if got := ticket.AwaitingInfoAnchor(); !got.Equal(created) {
		t.Fatalf("anchor = %v, want created_at", got)
	}
}

func TestAwaitingInfoRemaining(t *testing.T) {
	since := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	ticket := Ticket{
		Status:            TicketStatusAwaitingInfo,
		AwaitingInfoSince: &since,
	}

	remaining, ok := ticket.AwaitingInfoRemaining(since.Add(10 * time.Hour))
	if !ok {
		t.Fatal("expected countdown")
	}
	if remaining != 38*time.Hour {
		t.Fatalf("remaining = %v, want 38h", remaining)
	}

	remaining, ok = ticket.AwaitingInfoRemaining(since.Add(60 * time.Hour))
	if !ok || remaining != 0 {
		t.Fatalf("expired countdown = %v/%v, want 0/true", remaining, ok)
	}

	ticket.Status = TicketStatusPending
	if _, ok := ticket.AwaitingInfoRemaining(since); ok {
		t.Fatal("countdown reported for non-awaiting ticket")
	}
}

func TestStatusIsValid(t *testing.T) {
	for _, status := range KnownStatuses {
		if !status.IsValid() {
			t.Fatalf("%s reported invalid", status)
		}
	}
	if TicketStatus("Closed").IsValid() {
		t.Fatal("unknown status reported valid")
	}
}

func TestAutomationRuleTotalDelay(t *testing.T) {
	rule := AutomationRule{DelayDays: 2, DelayHours: 3}
	if got := rule.TotalDelay(); got != 51*time.Hour {
		t.Fatalf("TotalDelay = %v, want 51h", got)
	}
	empty := AutomationRule{}
	if empty.TotalDelay() != 0 {
		t.Fatal("zero rule has non-zero delay")
	}
}

func TestAutomationRuleValidate(t *testing.T) {
	good := AutomationRule{
		Name:         "archive resolved",
		SourceStatus: TicketStatusResolved,
		TargetStatus: TicketStatusArchived,
		DelayDays:    7,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("valid rule rejected: %v", err)
	}

	same := good
	same.TargetStatus = same.SourceStatus
	if err := same.Validate(); err == nil {
		t.Fatal("source == target accepted")
	}

	negative := good
	negative.DelayDays = -1
	if err := negative.Validate(); err == nil {
		t.Fatal("negative delay accepted")
	}

	badHours := good
	badHours.DelayHours = 24
	if err := badHours.Validate(); err == nil {
		t.Fatal("delay hours out of range accepted")
	}

	zero := good
	zero.DelayDays = 0
	zero.DelayHours = 0
	if err := zero.Validate(); err != nil {
		t.Fatalf("zero delay should be storable, got %v", err)
	}
}
