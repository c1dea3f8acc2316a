package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/autotickets/autotickets/internal/channel"
	"github.com/autotickets/autotickets/internal/domain"
	"github.com/autotickets/autotickets/internal/events"
	"github.com/autotickets/autotickets/internal/repository"
	apperrors "github.com/autotickets/autotickets/pkg/util"
)

// defaultPositionalVariables is used when a positional-mode rule does
// not configure its own variable list.
var defaultPositionalVariables = []string{"ticketNumber", "ticketStatus"}

// WhatsAppDecision is a fully-resolved WhatsApp template send.
type WhatsAppDecision struct {
	To           string
	TemplateName string
	// Named holds parameter name to value when the template declares
	// named placeholders. Positional is used otherwise. Exactly one of
	// the two is populated.
	Named      map[string]string
	Positional []string
	// Buttons holds URL button parameters, one per dynamic URL button
	// on the template.
	Buttons []string
}

// EmailDecision is a fully-resolved email send.
type EmailDecision struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Decision is one resolved outbound send. Exactly one of the channel
// fields is set, matching Channel.
type Decision struct {
	Channel  domain.ChannelType
	WhatsApp *WhatsAppDecision
	Email    *EmailDecision
}

// ticketValue resolves one variable key against a ticket. Unknown keys
// fall back to the ticket title so a misconfigured template still sends
// something recognizable instead of failing the whole notification.
func ticketValue(ticket *domain.Ticket, key string) string {
	switch key {
	case "ticketNumber", "ticket_number", "numero":
		return fmt.Sprintf("%d", ticket.Numero)
	case "ticketTitle", "ticket_title", "titulo":
		return ticket.Title
	case "ticketStatus", "ticket_status", "status":
		return string(ticket.Status)
	default:
		return ticket.Title
	}
}

// DecideNotifications computes the outbound sends triggered by a ticket
// entering newStatus. It is pure apart from the template catalog lookup:
// config and contact are passed in explicitly, and no send happens here.
//
// Rules whose channel lacks contact info are skipped silently; a tenant
// without a phone number is normal, not an error.
func DecideNotifications(ctx context.Context, ticket *domain.Ticket, newStatus domain.TicketStatus, cfg *domain.NotificationConfig, contact domain.ContactInfo, catalog channel.TemplateCatalog) []Decision {
	var decisions []Decision
	for _, rule := range cfg.RulesForStatus(newStatus) {
		switch rule.Channel {
		case domain.ChannelWhatsApp:
			if contact.Phone == "" {
				continue
			}
			decisions = append(decisions, Decision{
				Channel:  domain.ChannelWhatsApp,
				WhatsApp: decideWhatsApp(ctx, ticket, rule, cfg.WhatsApp, contact.Phone, catalog),
			})
		case domain.ChannelEmail:
			if contact.Email == "" {
				continue
			}
			decisions = append(decisions, Decision{
				Channel: domain.ChannelEmail,
				Email:   decideEmail(ticket, rule, contact.Email),
			})
		}
	}
	return decisions
}

func decideWhatsApp(ctx context.Context, ticket *domain.Ticket, rule domain.NotificationRule, settings domain.WhatsAppSettings, phone string, catalog channel.TemplateCatalog) *WhatsAppDecision {
	decision := &WhatsAppDecision{To: phone, TemplateName: rule.TemplateName}

	var info *channel.TemplateInfo
	if catalog != nil {
		info, _ = catalog.Lookup(ctx, settings, rule.TemplateName)
	}

	// Named placeholders in the template body take precedence over the
	// rule's positional variable list.
	if info != nil {
		if names := channel.NamedPlaceholders(info.BodyText); len(names) > 0 {
			decision.Named = make(map[string]string, len(names))
			for _, name := range names {
				decision.Named[name] = ticketValue(ticket, name)
			}
		}
	}
	if decision.Named == nil {
		variables := rule.Variables
		if len(variables) == 0 {
			variables = defaultPositionalVariables
		}
		decision.Positional = make([]string, len(variables))
		for i, key := range variables {
			decision.Positional[i] = ticketValue(ticket, key)
		}
	}

	// Dynamic URL buttons each receive the ticket ID as their parameter
	// so the deep link lands on this ticket.
	if info != nil {
		for i := 0; i < info.URLButtonCount; i++ {
			decision.Buttons = append(decision.Buttons, ticket.ID)
		}
	}
	return decision
}

func decideEmail(ticket *domain.Ticket, rule domain.NotificationRule, email string) *EmailDecision {
	subject := rule.Subject
	if subject == "" {
		subject = fmt.Sprintf("Ticket #%04d: %s", ticket.Numero, ticket.Title)
	}
	subject = strings.NewReplacer(
		"{{ticketNumber}}", fmt.Sprintf("%d", ticket.Numero),
		"{{ticketTitle}}", ticket.Title,
		"{{ticketStatus}}", string(ticket.Status),
	).Replace(subject)

	text := fmt.Sprintf("O ticket #%04d (%s) mudou para o status %s.", ticket.Numero, ticket.Title, ticket.Status)
	if ticket.Status == domain.TicketStatusResolved && ticket.Solution != "" {
		text += "\n\nSolução:\n" + ticket.Solution
	}
	return &EmailDecision{To: email, Subject: subject, Text: text}
}

// NotificationDependencies bundles what the notification service needs.
type NotificationDependencies struct {
	SettingsRepo repository.SettingsRepository
	CompanyRepo  repository.CompanyRepository
	Dispatcher   events.Dispatcher
	WhatsApp     channel.WhatsAppSender
	Email        channel.EmailSender
	Discord      channel.DiscordPoster
	Catalog      channel.TemplateCatalog
	Logger       *zap.Logger
	// FrontendBaseURL builds the deep links placed in Discord embeds.
	FrontendBaseURL string
}

// NotificationService listens for ticket events and fans them out to
// the configured channels. Every delivery is best effort: failures are
// logged and never surface to the operation that triggered them.
type NotificationService struct {
	settings        repository.SettingsRepository
	companies       repository.CompanyRepository
	whatsapp        channel.WhatsAppSender
	email           channel.EmailSender
	discord         channel.DiscordPoster
	catalog         channel.TemplateCatalog
	logger          *zap.Logger
	frontendBaseURL string

	cancels []events.CancelFunc
}

func NewNotificationService(deps NotificationDependencies) *NotificationService {
	return &NotificationService{
		settings:        deps.SettingsRepo,
		companies:       deps.CompanyRepo,
		whatsapp:        deps.WhatsApp,
		email:           deps.Email,
		discord:         deps.Discord,
		catalog:         deps.Catalog,
		logger:          deps.Logger,
		frontendBaseURL: deps.FrontendBaseURL,
	}
}

// Start subscribes to ticket events. Safe to call once.
func (s *NotificationService) Start(dispatcher events.Dispatcher) {
	s.cancels = append(s.cancels,
		dispatcher.Subscribe(events.EventTicketStatusChanged, s.onStatusChanged),
		dispatcher.Subscribe(events.EventTicketCreated, s.onCreated),
	)
}

// Stop detaches the event subscriptions.
func (s *NotificationService) Stop() {
	for _, cancel := range s.cancels {
		cancel()
	}
	s.cancels = nil
}

func (s *NotificationService) onStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketStatusChangedPayload)
	if !ok || payload.Ticket == nil {
		return nil
	}
	// Dispatch off the caller's goroutine so a slow channel never
	// delays the status change response.
	go s.dispatchStatusChange(payload.Ticket, payload.NewStatus)
	return nil
}

func (s *NotificationService) onCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok || payload.Ticket == nil {
		return nil
	}
	go s.announceCreated(payload.Ticket)
	return nil
}

func (s *NotificationService) dispatchStatusChange(ticket *domain.Ticket, newStatus domain.TicketStatus) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	cfg, err := s.settings.GetNotificationConfig(ctx)
	if err != nil {
		s.logger.Warn("notifications: config load failed", zap.Error(err))
		return
	}
	company, err := s.companies.GetByID(ctx, ticket.CompanyID)
	if err != nil {
		s.logger.Warn("notifications: company load failed",
			zap.String("company_id", ticket.CompanyID), zap.Error(err))
		return
	}

	decisions := DecideNotifications(ctx, ticket, newStatus, cfg, company.Contact(), s.catalog)
	for _, decision := range decisions {
		if err := s.deliver(ctx, ticket, cfg, decision); err != nil {
			s.logger.Warn("notifications: delivery failed",
				zap.Int("numero", ticket.Numero), zap.Error(err))
		}
	}
}

// deliver runs one decision to completion. Failures come back as
// channel delivery errors for the caller to log; they never reach the
// operation that triggered the notification.
func (s *NotificationService) deliver(ctx context.Context, ticket *domain.Ticket, cfg *domain.NotificationConfig, decision Decision) error {
	switch decision.Channel {
	case domain.ChannelWhatsApp:
		return s.deliverWhatsApp(ctx, ticket, cfg.WhatsApp, decision.WhatsApp)
	case domain.ChannelEmail:
		d := decision.Email
		result := s.email.Send(ctx, cfg.Email, d.To, d.Subject, d.Text, d.HTML)
		if !result.Success {
			return apperrors.NewChannelDeliveryError("email", errors.New(result.Error))
		}
	}
	return nil
}

// deliverWhatsApp degrades on failure: first the configured parameters,
// then a single ticket-number parameter, then no parameters at all.
// Templates frequently drift out of sync with the configured variable
// count; degrading keeps the client informed anyway.
func (s *NotificationService) deliverWhatsApp(ctx context.Context, ticket *domain.Ticket, settings domain.WhatsAppSettings, d *WhatsAppDecision) error {
	result := s.whatsapp.SendTemplate(ctx, settings, d.To, d.TemplateName, d.Named, d.Positional, d.Buttons)
	if result.Success {
		return nil
	}
	s.logger.Warn("notifications: whatsapp failed, retrying with ticket number only",
		zap.Int("numero", ticket.Numero), zap.String("error", result.Error))

	result = s.whatsapp.SendTemplate(ctx, settings, d.To, d.TemplateName, nil, []string{fmt.Sprintf("%d", ticket.Numero)}, nil)
	if result.Success {
		return nil
	}
	s.logger.Warn("notifications: whatsapp retry failed, sending without parameters",
		zap.Int("numero", ticket.Numero), zap.String("error", result.Error))

	result = s.whatsapp.SendTemplate(ctx, settings, d.To, d.TemplateName, nil, nil, nil)
	if !result.Success {
		return apperrors.NewChannelDeliveryError("whatsapp", errors.New(result.Error))
	}
	return nil
}

func (s *NotificationService) announceCreated(ticket *domain.Ticket) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := s.settings.GetNotificationConfig(ctx)
	if err != nil {
		s.logger.Warn("notifications: config load failed", zap.Error(err))
		return
	}
	if cfg.Discord.WebhookURL == "" {
		return
	}

	companyName := ""
	if company, err := s.companies.GetByID(ctx, ticket.CompanyID); err == nil {
		companyName = company.Name
	}

	link := ""
	if s.frontendBaseURL != "" {
		link = strings.TrimRight(s.frontendBaseURL, "/") + "/tickets/" + ticket.ID
	}

	message := channel.BuildTicketEmbed(cfg.Discord, ticket, companyName, link)
	result := s.discord.PostEmbed(ctx, cfg.Discord.WebhookURL, message)
	if !result.Success {
		s.logger.Warn("notifications: discord failed",
			zap.Int("numero", ticket.Numero),
			zap.Error(apperrors.NewChannelDeliveryError("discord", errors.New(result.Error))))
	}
}
