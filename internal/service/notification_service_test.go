package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/autotickets/autotickets/internal/channel"
	"github.com/autotickets/autotickets/internal/domain"
	apperrors "github.com/autotickets/autotickets/pkg/util"
)

type fakeCatalog struct {
	templates map[string]*channel.TemplateInfo
}

func (f *fakeCatalog) Lookup(_ context.Context, _ domain.WhatsAppSettings, name string) (*channel.TemplateInfo, error) {
	if info, ok := f.templates[name]; ok {
		return info, nil
	}
	return nil, context.Canceled
}

func notificationTicket() *domain.Ticket {
	return &domain.Ticket{
		ID:        "tk-1",
		Numero:    42,
		CompanyID: "co-1",
		Title:     "Printer offline",
		Status:    domain.TicketStatusResolved,
		Urgency:   domain.UrgencyHigh,
	}
}

func TestDecideNotificationsNamedTemplateWins(t *testing.T) {
	cfg := &domain.NotificationConfig{
		Rules: []domain.NotificationRule{{
			Status:       domain.TicketStatusResolved,
			Channel:      domain.ChannelWhatsApp,
			TemplateName: "ticket_resolvido",
			Variables:    []string{"ticketNumber"},
		}},
	}
	catalog := &fakeCatalog{templates: map[string]*channel.TemplateInfo{
		"ticket_resolvido": {
			Name:     "ticket_resolvido",
			Language: "pt_BR",
			BodyText: "Olá! O ticket {{ticket_number}} ({{ticket_title}}) foi atualizado para {{ticket_status}}.",
		},
	}}
	contact := domain.ContactInfo{Phone: "+55 11 98888-7777"}

	decisions := DecideNotifications(context.Background(), notificationTicket(), domain.TicketStatusResolved, cfg, contact, catalog)
	if len(decisions) != 1 {
		t.Fatalf("decisions = %d, want 1", len(decisions))
	}
	d := decisions[0].WhatsApp
	if d == nil {
		t.Fatal("whatsapp decision missing")
	}
	if d.Positional != nil {
		t.Fatalf("positional params populated despite named template: %v", d.Positional)
	}
	if d.Named["ticket_number"] != "42" {
		t.Fatalf("ticket_number = %q, want 42", d.Named["ticket_number"])
	}
	if d.Named["ticket_title"] != "Printer offline" {
		t.Fatalf("ticket_title = %q", d.Named["ticket_title"])
	}
	if d.Named["ticket_status"] != string(domain.TicketStatusResolved) {
		t.Fatalf("ticket_status = %q", d.Named["ticket_status"])
	}
}

func TestDecideNotificationsPositionalDefaults(t *testing.T) {
	cfg := &domain.NotificationConfig{
		Rules: []domain.NotificationRule{{
			Status:       domain.TicketStatusInAnalysis,
			Channel:      domain.ChannelWhatsApp,
			TemplateName: "ticket_andamento",
		}},
	}
	catalog := &fakeCatalog{templates: map[string]*channel.TemplateInfo{
		"ticket_andamento": {
			Name:     "ticket_andamento",
			Language: "pt_BR",
			BodyText: "Ticket {{1}} agora está {{2}}.",
		},
	}}
	ticket := notificationTicket()
	ticket.Status = domain.TicketStatusInAnalysis
	contact := domain.ContactInfo{Phone: "5511988887777"}

	decisions := DecideNotifications(context.Background(), ticket, domain.TicketStatusInAnalysis, cfg, contact, catalog)
	if len(decisions) != 1 {
		t.Fatalf("decisions = %d, want 1", len(decisions))
	}
	d := decisions[0].WhatsApp
	if len(d.Positional) != 2 {
		t.Fatalf("positional = %v, want 2 defaults", d.Positional)
	}
	if d.Positional[0] != "42" || d.Positional[1] != string(domain.TicketStatusInAnalysis) {
		t.Fatalf("positional values = %v", d.Positional)
	}
}

func TestDecideNotificationsUnknownNamedKeyFallsBackToTitle(t *testing.T) {
	cfg := &domain.NotificationConfig{
		Rules: []domain.NotificationRule{{
			Status:       domain.TicketStatusResolved,
			Channel:      domain.ChannelWhatsApp,
			TemplateName: "custom",
		}},
	}
	catalog := &fakeCatalog{templates: map[string]*channel.TemplateInfo{
		"custom": {Name: "custom", BodyText: "Hey {{customer_nickname}}!"},
	}}
	contact := domain.ContactInfo{Phone: "5511988887777"}

	decisions := DecideNotifications(context.Background(), notificationTicket(), domain.TicketStatusResolved, cfg, contact, catalog)
	if got := decisions[0].WhatsApp.Named["customer_nickname"]; got != "Printer offline" {
		t.Fatalf("unknown key = %q, want ticket title fallback", got)
	}
}

func TestDecideNotificationsButtonParamsPerURLButton(t *testing.T) {
	cfg := &domain.NotificationConfig{
		Rules: []domain.NotificationRule{{
			Status:       domain.TicketStatusResolved,
			Channel:      domain.ChannelWhatsApp,
			TemplateName: "ticket_resolvido",
		}},
	}
	catalog := &fakeCatalog{templates: map[string]*channel.TemplateInfo{
		"ticket_resolvido": {
			Name:           "ticket_resolvido",
			BodyText:       "Ticket {{1}} resolvido.",
			URLButtonCount: 2,
		},
	}}
	contact := domain.ContactInfo{Phone: "5511988887777"}

	decisions := DecideNotifications(context.Background(), notificationTicket(), domain.TicketStatusResolved, cfg, contact, catalog)
	buttons := decisions[0].WhatsApp.Buttons
	if len(buttons) != 2 {
		t.Fatalf("buttons = %d, want 2", len(buttons))
	}
	for _, b := range buttons {
		if b != "tk-1" {
			t.Fatalf("button param = %q, want ticket id", b)
		}
	}
}

func TestDecideNotificationsSkipsRulesWithoutContact(t *testing.T) {
	cfg := &domain.NotificationConfig{
		Rules: []domain.NotificationRule{
			{Status: domain.TicketStatusResolved, Channel: domain.ChannelWhatsApp, TemplateName: "tpl"},
			{Status: domain.TicketStatusResolved, Channel: domain.ChannelEmail, Subject: "Resolved"},
		},
	}

	decisions := DecideNotifications(context.Background(), notificationTicket(), domain.TicketStatusResolved, cfg, domain.ContactInfo{Email: "ops@acme.test"}, nil)
	if len(decisions) != 1 {
		t.Fatalf("decisions = %d, want only email", len(decisions))
	}
	if decisions[0].Channel != domain.ChannelEmail {
		t.Fatalf("channel = %s, want email", decisions[0].Channel)
	}
	if decisions[0].Email.To != "ops@acme.test" {
		t.Fatalf("email to = %q", decisions[0].Email.To)
	}

	none := DecideNotifications(context.Background(), notificationTicket(), domain.TicketStatusResolved, cfg, domain.ContactInfo{}, nil)
	if len(none) != 0 {
		t.Fatalf("decisions without contact = %d, want 0", len(none))
	}
}

func TestDecideNotificationsMultipleRulesSameStatus(t *testing.T) {
	cfg := &domain.NotificationConfig{
		Rules: []domain.NotificationRule{
			{Status: domain.TicketStatusResolved, Channel: domain.ChannelWhatsApp, TemplateName: "a"},
			{Status: domain.TicketStatusResolved, Channel: domain.ChannelWhatsApp, TemplateName: "b"},
			{Status: domain.TicketStatusPending, Channel: domain.ChannelWhatsApp, TemplateName: "c"},
		},
	}
	contact := domain.ContactInfo{Phone: "5511988887777"}

	decisions := DecideNotifications(context.Background(), notificationTicket(), domain.TicketStatusResolved, cfg, contact, nil)
	if len(decisions) != 2 {
		t.Fatalf("decisions = %d, want one per matching rule", len(decisions))
	}
}

func TestEmailDecisionSubjectSubstitution(t *testing.T) {
	cfg := &domain.NotificationConfig{
		Rules: []domain.NotificationRule{{
			Status:  domain.TicketStatusResolved,
			Channel: domain.ChannelEmail,
			Subject: "Ticket {{ticketNumber}} agora: {{ticketStatus}}",
		}},
	}
	ticket := notificationTicket()
	ticket.Solution = "rebooted the spooler"

	decisions := DecideNotifications(context.Background(), ticket, domain.TicketStatusResolved, cfg, domain.ContactInfo{Email: "ops@acme.test"}, nil)
	d := decisions[0].Email
	want := "Ticket 42 agora: " + string(domain.TicketStatusResolved)
	if d.Subject != want {
		t.Fatalf("subject = %q, want %q", d.Subject, want)
	}
	if d.Text == "" {
		t.Fatal("body empty")
	}
}

type fakeWhatsAppSender struct {
	fail  bool
	calls int
}

func (f *fakeWhatsAppSender) SendTemplate(_ context.Context, _ domain.WhatsAppSettings, _, _ string, _ map[string]string, _ []string, _ []string) channel.Result {
	f.calls++
	if f.fail {
		return channel.Result{Error: "graph api rejected template"}
	}
	return channel.Result{Success: true}
}

type fakeEmailSender struct {
	fail bool
}

func (f *fakeEmailSender) Send(_ context.Context, _ domain.EmailSettings, _, _, _, _ string) channel.Result {
	if f.fail {
		return channel.Result{Error: "smtp connection refused"}
	}
	return channel.Result{Success: true}
}

func TestDeliverWrapsEmailFailure(t *testing.T) {
	svc := NewNotificationService(NotificationDependencies{
		Email:  &fakeEmailSender{fail: true},
		Logger: zap.NewNop(),
	})
	ticket := &domain.Ticket{Numero: 9, Title: "Broken scanner"}

	err := svc.deliver(context.Background(), ticket, &domain.NotificationConfig{}, Decision{
		Channel: domain.ChannelEmail,
		Email:   &EmailDecision{To: "ops@acme.test", Subject: "s", Text: "x"},
	})
	var de *apperrors.DomainError
	if !errors.As(err, &de) || de.Code != "CHANNEL_DELIVERY_FAILED" {
		t.Fatalf("error = %v, want CHANNEL_DELIVERY_FAILED", err)
	}
}

func TestDeliverWhatsAppExhaustsRetriesThenFails(t *testing.T) {
	sender := &fakeWhatsAppSender{fail: true}
	svc := NewNotificationService(NotificationDependencies{
		WhatsApp: sender,
		Logger:   zap.NewNop(),
	})
	ticket := &domain.Ticket{Numero: 9, Title: "Broken scanner"}

	err := svc.deliver(context.Background(), ticket, &domain.NotificationConfig{}, Decision{
		Channel:  domain.ChannelWhatsApp,
		WhatsApp: &WhatsAppDecision{To: "+5511999990000", TemplateName: "status_update", Positional: []string{"9"}},
	})
	var de *apperrors.DomainError
	if !errors.As(err, &de) || de.Code != "CHANNEL_DELIVERY_FAILED" {
		t.Fatalf("error = %v, want CHANNEL_DELIVERY_FAILED", err)
	}
	// Configured params, numero-only retry, then bare template.
	if sender.calls != 3 {
		t.Fatalf("send attempts = %d, want 3", sender.calls)
	}
}

func TestDeliverSuccessReturnsNil(t *testing.T) {
	svc := NewNotificationService(NotificationDependencies{
		Email:  &fakeEmailSender{},
		Logger: zap.NewNop(),
	})
	ticket := &domain.Ticket{Numero: 9, Title: "Broken scanner"}

	if err := svc.deliver(context.Background(), ticket, &domain.NotificationConfig{}, Decision{
		Channel: domain.ChannelEmail,
		Email:   &EmailDecision{To: "ops@acme.test", Subject: "s", Text: "x"},
	}); err != nil {
		t.Fatalf("deliver: %v", err)
	}
}
