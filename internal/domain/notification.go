package domain

// ChannelType identifies an outbound notification channel.
type ChannelType string

const (
	ChannelWhatsApp ChannelType = "whatsapp"
	ChannelEmail    ChannelType = "email"
)

// NotificationRule maps a ticket status to one outbound send. Several
// rules may target the same status; each produces its own send decision.
type NotificationRule struct {
	Status       TicketStatus `json:"status"`
	Channel      ChannelType  `json:"channel"`
	TemplateName string       `json:"template_name,omitempty"`
	Subject      string       `json:"subject,omitempty"`
	// Variables lists variable keys, in order, for positional template
	// substitution. Ignored when the template declares named placeholders.
	Variables     []string `json:"variables,omitempty"`
	ButtonBaseURL string   `json:"button_base_url,omitempty"`
}

// DiscordSettings configures the new-ticket webhook embed.
type DiscordSettings struct {
	WebhookURL       string `json:"webhook_url"`
	EmbedTitle       string `json:"embed_title,omitempty"`
	EmbedDescription string `json:"embed_description,omitempty"`
}

// WhatsAppSettings holds WhatsApp Business Cloud API credentials.
type WhatsAppSettings struct {
	WABAID        string `json:"waba_id"`
	PhoneNumberID string `json:"phone_number_id"`
	AccessToken   string `json:"access_token"`
}

// EmailSettings holds SMTP parameters.
type EmailSettings struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Secure   bool   `json:"secure"`
	Username string `json:"username"`
	Password string `json:"password"`
	From     string `json:"from"`
}

// NotificationConfig is the admin-edited notification configuration.
// It is loaded by the caller and passed explicitly into the dispatch
// decision, never read from ambient state.
type NotificationConfig struct {
	Discord  DiscordSettings    `json:"discord"`
	WhatsApp WhatsAppSettings   `json:"whatsapp"`
	Email    EmailSettings      `json:"email"`
	Rules    []NotificationRule `json:"rules"`
}

// RulesForStatus returns the rules triggered by the given status.
func (c *NotificationConfig) RulesForStatus(status TicketStatus) []NotificationRule {
	var matched []NotificationRule
	for _, rule := range c.Rules {
		if rule.Status == status {
			matched = append(matched, rule)
		}
	}
	return matched
}

// ContactInfo is the tenant contact data used to address notifications.
type ContactInfo struct {
	Phone string
	Email string
}
