// Package email delivers scheduling notifications.
package email

import (
	"context"

	"scheduling_backend/platform/config"
)

// ScheduleConfirmedNotice is the content of a schedule confirmation email.
type ScheduleConfirmedNotice struct {
	ScheduleType string
	ProjectName  string
	LocalDate    string
	LocalStart   string
	Timezone     string
	Assignee     string
	ZuperJobUID  string
	ConfirmedBy  string
}

// Sender delivers notification emails.
type Sender interface {
	SendScheduleConfirmed(ctx context.Context, toEmail string, notice ScheduleConfirmedNotice) error
}

// NoopSender drops every message. Used when SMTP is not configured.
type NoopSender struct{}

func (NoopSender) SendScheduleConfirmed(ctx context.Context, toEmail string, notice ScheduleConfirmedNotice) error {
	return nil
}

// NewSender returns an SMTP sender, or a NoopSender when email is disabled.
func NewSender(cfg config.EmailConfig) Sender {
	if !cfg.GetEmailEnabled() {
		return NoopSender{}
	}
	return NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(),
		cfg.GetEmailFromName(),
	)
}
