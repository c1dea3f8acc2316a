package channel

import (
	"strings"
	"testing"
	"time"

	"github.com/autotickets/autotickets/internal/domain"
)

func discordTicket() *domain.Ticket {
	aiID := "ai-7"
	return &domain.Ticket{
		ID:          "tk-1",
		Numero:      7,
		Title:       "Printer offline",
		Description: "nothing prints since monday",
		Urgency:     domain.UrgencyCritical,
		AIID:        &aiID,
		AIName:      "Clara",
		CreatedAt:   time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC),
	}
}

func TestSubstituteDiscordVariables(t *testing.T) {
	ticket := discordTicket()
	got := SubstituteDiscordVariables(
		"#{{numero}} {{titulo}} ({{urgencia}}) da {{empresa}} via {{ia}}: {{link}}",
		ticket, "Acme", "https://panel.test/tickets/tk-1",
	)
	want := "#0007 Printer offline (Critical) da Acme via Clara: https://panel.test/tickets/tk-1"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestSubstituteDiscordVariablesMissingAI(t *testing.T) {
	ticket := discordTicket()
	ticket.AIName = ""
	if got := SubstituteDiscordVariables("{{ia}}", ticket, "", ""); got != "N/A" {
		t.Fatalf("ia placeholder = %q, want N/A", got)
	}
}

func TestUrgencyColor(t *testing.T) {
	cases := []struct {
		urgency domain.UrgencyLevel
		want    int
	}{
		{domain.UrgencyLow, discordColorLow},
		{domain.UrgencyMedium, discordColorMedium},
		{domain.UrgencyHigh, discordColorHigh},
		{domain.UrgencyCritical, discordColorCritical},
		{domain.UrgencyLevel("weird"), discordColorDefault},
	}
	for _, c := range cases {
		if got := UrgencyColor(c.urgency); got != c.want {
			t.Fatalf("UrgencyColor(%s) = %d, want %d", c.urgency, got, c.want)
		}
	}
}

func TestBuildTicketEmbedDefaults(t *testing.T) {
	msg := BuildTicketEmbed(domain.DiscordSettings{}, discordTicket(), "Acme", "https://panel.test/tickets/tk-1")
	if len(msg.Embeds) != 1 {
		t.Fatalf("embeds = %d, want 1", len(msg.Embeds))
	}
	embed := msg.Embeds[0]
	if !strings.Contains(embed.Title, "#0007") {
		t.Fatalf("default title missing padded numero: %q", embed.Title)
	}
	if embed.Description != "nothing prints since monday" {
		t.Fatalf("description = %q", embed.Description)
	}
	if embed.Color != discordColorCritical {
		t.Fatalf("color = %d, want critical", embed.Color)
	}
	if len(msg.Components) != 1 {
		t.Fatalf("components = %d, want link button row", len(msg.Components))
	}
	button := msg.Components[0].Components[0]
	if button.URL != "https://panel.test/tickets/tk-1" || button.Style != 5 {
		t.Fatalf("unexpected button: %+v", button)
	}
}

func TestBuildTicketEmbedNoLinkOmitsButton(t *testing.T) {
	msg := BuildTicketEmbed(domain.DiscordSettings{}, discordTicket(), "Acme", "")
	if len(msg.Components) != 0 {
		t.Fatalf("components = %d, want none without a link", len(msg.Components))
	}
}
