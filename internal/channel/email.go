package channel

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/autotickets/autotickets/internal/domain"
)

// SMTPEmailClient sends notification mail with net/smtp.
type SMTPEmailClient struct {
	logger *zap.Logger
}

func NewSMTPEmailClient(logger *zap.Logger) *SMTPEmailClient {
	return &SMTPEmailClient{logger: logger}
}

// Send delivers one message. When html is non-empty the mail goes out
// as a multipart/alternative with the text part first. net/smtp has no
// per-request context support, so the deadline is only checked up
// front.
func (c *SMTPEmailClient) Send(ctx context.Context, settings domain.EmailSettings, to, subject, text, html string) Result {
	if settings.Host == "" || settings.From == "" {
		return Result{Success: false, Error: "email not configured"}
	}
	if to == "" {
		return Result{Success: false, Error: "no recipient email address"}
	}
	if deadline, ok := ctx.Deadline(); ok && time.Now().After(deadline) {
		return Result{Success: false, Error: ctx.Err().Error()}
	}

	addr := fmt.Sprintf("%s:%d", settings.Host, settings.Port)
	var auth smtp.Auth
	if settings.Username != "" {
		auth = smtp.PlainAuth("", settings.Username, settings.Password, settings.Host)
	}

	message := buildMIMEMessage(settings.From, to, subject, text, html)
	if err := smtp.SendMail(addr, auth, settings.From, []string{to}, message); err != nil {
		c.logger.Warn("email: send failed", zap.String("to", to), zap.Error(err))
		return Result{Success: false, Error: err.Error()}
	}
	return Result{Success: true}
}

func buildMIMEMessage(from, to, subject, text, html string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")

	if html == "" {
		b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
		b.WriteString(text)
		return []byte(b.String())
	}

	const boundary = "autotickets-alt"
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)
	fmt.Fprintf(&b, "--%s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n", boundary, text)
	fmt.Fprintf(&b, "--%s\r\nContent-Type: text/html; charset=utf-8\r\n\r\n%s\r\n", boundary, html)
	fmt.Fprintf(&b, "--%s--\r\n", boundary)
	return []byte(b.String())
}
