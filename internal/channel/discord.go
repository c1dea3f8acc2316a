package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/autotickets/autotickets/internal/domain"
)

// Discord embed accent colors per ticket urgency.
const (
	discordColorLow      = 3066993
	discordColorMedium   = 16776960
	discordColorHigh     = 15158332
	discordColorCritical = 15548997
	discordColorDefault  = 5814783
)

// DiscordEmbed is the subset of Discord's embed object we emit.
type DiscordEmbed struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Color       int    `json:"color,omitempty"`
	Timestamp   string `json:"timestamp,omitempty"`
}

// DiscordComponent models a link button row on the message.
type DiscordComponent struct {
	Type       int                `json:"type"`
	Components []DiscordComponent `json:"components,omitempty"`
	Style      int                `json:"style,omitempty"`
	Label      string             `json:"label,omitempty"`
	URL        string             `json:"url,omitempty"`
}

// DiscordMessage is a webhook payload.
type DiscordMessage struct {
	Content    string             `json:"content,omitempty"`
	Embeds     []DiscordEmbed     `json:"embeds,omitempty"`
	Components []DiscordComponent `json:"components,omitempty"`
}

// UrgencyColor maps a ticket urgency to its embed accent color.
func UrgencyColor(urgency domain.UrgencyLevel) int {
	switch urgency {
	case domain.UrgencyLow:
		return discordColorLow
	case domain.UrgencyMedium:
		return discordColorMedium
	case domain.UrgencyHigh:
		return discordColorHigh
	case domain.UrgencyCritical:
		return discordColorCritical
	default:
		return discordColorDefault
	}
}

// SubstituteDiscordVariables replaces the supported placeholders in a
// settings-provided template string with ticket values. The ticket
// number is zero padded to four digits to match how it renders in the
// panel.
func SubstituteDiscordVariables(text string, ticket *domain.Ticket, companyName, link string) string {
	aiName := ticket.AIName
	if aiName == "" {
		aiName = "N/A"
	}
	replacer := strings.NewReplacer(
		"{{numero}}", fmt.Sprintf("%04d", ticket.Numero),
		"{{titulo}}", ticket.Title,
		"{{descricao}}", ticket.Description,
		"{{empresa}}", companyName,
		"{{urgencia}}", string(ticket.Urgency),
		"{{ia}}", aiName,
		"{{link}}", link,
	)
	return replacer.Replace(text)
}

// BuildTicketEmbed renders the new-ticket announcement message from the
// company's Discord settings.
func BuildTicketEmbed(settings domain.DiscordSettings, ticket *domain.Ticket, companyName, link string) DiscordMessage {
	title := settings.EmbedTitle
	if title == "" {
		title = "Novo ticket #{{numero}}: {{titulo}}"
	}
	description := settings.EmbedDescription
	if description == "" {
		description = "{{descricao}}"
	}

	message := DiscordMessage{
		Embeds: []DiscordEmbed{{
			Title:       SubstituteDiscordVariables(title, ticket, companyName, link),
			Description: SubstituteDiscordVariables(description, ticket, companyName, link),
			Color:       UrgencyColor(ticket.Urgency),
			Timestamp:   ticket.CreatedAt.UTC().Format(time.RFC3339),
		}},
	}
	if link != "" {
		message.Components = []DiscordComponent{{
			Type: 1,
			Components: []DiscordComponent{{
				Type:  2,
				Style: 5,
				Label: "Abrir ticket",
				URL:   link,
			}},
		}}
	}
	return message
}

// DiscordWebhookClient posts messages to a Discord webhook URL.
type DiscordWebhookClient struct {
	httpClient *http.Client
	logger     *zap.Logger
}

func NewDiscordWebhookClient(logger *zap.Logger) *DiscordWebhookClient {
	return &DiscordWebhookClient{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
	}
}

// PostEmbed delivers one webhook message.
func (c *DiscordWebhookClient) PostEmbed(ctx context.Context, webhookURL string, message DiscordMessage) Result {
	if webhookURL == "" {
		return Result{Success: false, Error: "discord webhook url not configured"}
	}

	payload, err := json.Marshal(message)
	if err != nil {
		return Result{Success: false, Error: err.Error()}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(payload))
	if err != nil {
		return Result{Success: false, Error: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{Success: false, Error: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("discord: send failed", zap.Int("status", resp.StatusCode))
		return Result{Success: false, Error: fmt.Sprintf("discord webhook status %d", resp.StatusCode)}
	}
	return Result{Success: true}
}
