// Package channel contains the outbound notification adapters. The
// adapters own protocol details (Graph API payload shapes, Discord
// embed JSON, SMTP framing); callers hand them fully-resolved payloads
// and treat every send as best-effort.
package channel

import (
	"context"

	"github.com/autotickets/autotickets/internal/domain"
)

// Result reports a single delivery attempt.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// WhatsAppSender delivers a pre-resolved template message. Exactly one
// of named or positional parameters is populated.
type WhatsAppSender interface {
	SendTemplate(ctx context.Context, settings domain.WhatsAppSettings, to, templateName string, named map[string]string, positional []string, buttons []string) Result
}

// EmailSender delivers a plain email over SMTP.
type EmailSender interface {
	Send(ctx context.Context, settings domain.EmailSettings, to, subject, text, html string) Result
}

// DiscordPoster delivers an embed to a Discord webhook.
type DiscordPoster interface {
	PostEmbed(ctx context.Context, webhookURL string, message DiscordMessage) Result
}

// TemplateInfo is the metadata the dispatch decision needs about a
// WhatsApp message template.
type TemplateInfo struct {
	Name           string `json:"name"`
	Language       string `json:"language"`
	BodyText       string `json:"body_text"`
	URLButtonCount int    `json:"url_button_count"`
}

// TemplateCatalog resolves template metadata by name.
type TemplateCatalog interface {
	Lookup(ctx context.Context, settings domain.WhatsAppSettings, name string) (*TemplateInfo, error)
}
