// Package email delivers outbound email: prospecting messages on the email
// channel and internal sales-team notifications.
package email

import (
	"context"

	"prospect_backend/platform/config"
)

// Sender delivers email. The prospecting transport and the notification
// module both sit on top of this interface.
type Sender interface {
	SendProspectingEmail(ctx context.Context, toEmail, subject, body string) error
	SendSalesNotification(ctx context.Context, toEmail, subject, body string) error
}

// NoopSender is used when email is disabled; sends succeed silently.
type NoopSender struct{}

func (NoopSender) SendProspectingEmail(ctx context.Context, toEmail, subject, body string) error {
	return nil
}

func (NoopSender) SendSalesNotification(ctx context.Context, toEmail, subject, body string) error {
	return nil
}

// NewSender builds the configured Sender implementation.
func NewSender(cfg config.EmailConfig) (Sender, error) {
	if !cfg.GetEmailEnabled() {
		return NoopSender{}, nil
	}
	return NewSMTPSender(
		cfg.GetSMTPHost(), cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(), cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(), cfg.GetEmailFromName(),
	), nil
}
