// Package notify delivers transactional email.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/spec-kit/helpdesk-service/internal/config"
)

// ErrSkipped reports a message that was intentionally not delivered.
var ErrSkipped = errors.New("delivery skipped")

// Message is a rendered email for a single recipient.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// NewMailer returns an SMTP mailer when SMTP is configured and a log-only mailer otherwise.
func NewMailer(cfg config.NotificationConfig, logger *zap.Logger) Mailer {
	if !cfg.Enabled() {
		logger.Warn("SMTP_HOST not provided; emails are logged, not sent")
		return NewLogMailer(logger)
	}
	return NewSMTPMailer(cfg, logger)
}

// SMTPMailer sends mail through an SMTP relay.
type SMTPMailer struct {
	from   string
	dialer *gomail.Dialer
	logger *zap.Logger
}

// NewSMTPMailer builds a mailer for the configured relay.
func NewSMTPMailer(cfg config.NotificationConfig, logger *zap.Logger) *SMTPMailer {
	return &SMTPMailer{
		from:   cfg.EmailFrom,
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass),
		logger: logger,
	}
}

// Send dials the relay and delivers msg. gomail has no context support, so
// ctx is only checked before dialing.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return fmt.Errorf("%w: empty recipient", ErrSkipped)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := m.dialer.DialAndSend(m.build(msg)); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	m.logger.Info("email sent", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}

func (m *SMTPMailer) build(msg Message) *gomail.Message {
	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/plain", msg.Text)
	if msg.HTML != "" {
		gm.AddAlternative("text/html", msg.HTML)
	}
	return gm
}

// LogMailer writes messages to the log instead of sending them.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer creates a log-only mailer.
func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// Send logs msg and reports ErrSkipped.
func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.logger.Info("email not sent, smtp disabled",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("text", msg.Text),
	)
	return ErrSkipped
}
