// Package mailer sends transactional email over SMTP. Delivery failures are
// logged and never fail the calling request.
package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/setdecrunner/backend/pkg/config"
	"github.com/setdecrunner/backend/pkg/logger"
)

// Sender delivers a single message.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Mailer is an SMTP-backed Sender. When the SMTP config is absent the mailer
// is disabled and Send becomes a logged no-op, which keeps local dev working
// without a mail relay.
type Mailer struct {
	cfg  config.SMTPConfig
	logg *logger.Logger
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func New(cfg config.SMTPConfig, logg *logger.Logger) *Mailer {
	return &Mailer{cfg: cfg, logg: logg, send: smtp.SendMail}
}

// Send delivers one plain-text message.
func (m *Mailer) Send(ctx context.Context, to, subject, body string) error {
	if !m.cfg.Enabled() {
		if m.logg != nil {
			m.logg.Info(m.logg.WithField(ctx, "mail_to", to), "smtp disabled, skipping email")
		}
		return nil
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString(body)

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	if err := m.send(addr, auth, m.cfg.From, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

// SendAsync fires the message in a goroutine; errors only get logged.
func (m *Mailer) SendAsync(ctx context.Context, to, subject, body string) {
	go func() {
		if err := m.Send(context.WithoutCancel(ctx), to, subject, body); err != nil && m.logg != nil {
			m.logg.Error(ctx, "email delivery failed", err)
		}
	}()
}
