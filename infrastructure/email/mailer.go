// Package email delivers result notifications over SMTP.
package email

import (
	"context"

	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"

	apperrors "slidesmith/pkg/errors"
)

// Config holds SMTP settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer sends HTML mail through a configured SMTP relay.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
	logger *zap.Logger
}

func NewSMTPMailer(config Config, logger *zap.Logger) (*SMTPMailer, error) {
	if config.Host == "" {
		return nil, apperrors.NewConfigurationError("SMTP host is required for email delivery")
	}
	if config.From == "" {
		config.From = config.Username
	}
	return &SMTPMailer{
		dialer: gomail.NewDialer(config.Host, config.Port, config.Username, config.Password),
		from:   config.From,
		logger: logger,
	}, nil
}

// Send delivers one HTML message. The dialer has no context support, so the
// context is checked up front and the send itself runs to completion.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return apperrors.NewTimeoutError("email delivery").WithCause(err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return apperrors.NewExternalError("smtp", err)
	}
	m.logger.Debug("email sent", zap.String("to", to))
	return nil
}

// NoopMailer is used when delivery mode is app-only: results are polled, not
// mailed.
type NoopMailer struct {
	logger *zap.Logger
}

func NewNoopMailer(logger *zap.Logger) *NoopMailer {
	return &NoopMailer{logger: logger}
}

func (m *NoopMailer) Send(_ context.Context, to, _, _ string) error {
	m.logger.Debug("email delivery disabled, skipping", zap.String("to", to))
	return nil
}
