package email

import (
	"context"
	"fmt"
	"net"
	"time"

	"scheduling_backend/platform/sanitize"

	gomail "github.com/wneessen/go-mail"
)

// SMTPSender implements the Sender interface using a direct SMTP connection via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSMTPSender creates a new SMTPSender with the given SMTP credentials.
func NewSMTPSender(host string, port int, username, password, fromEmail, fromName string) *SMTPSender {
	return &SMTPSender{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, htmlContent string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	opts := []gomail.Option{
		gomail.WithPort(s.port),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15 * time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	}
	if s.username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.username),
			gomail.WithPassword(s.password),
		)
	}

	client, err := gomail.NewClient(s.host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}

func (s *SMTPSender) SendScheduleConfirmed(ctx context.Context, toEmail string, notice ScheduleConfirmedNotice) error {
	subject, content, err := renderScheduleConfirmed(notice)
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subject, content)
}

func renderScheduleConfirmed(notice ScheduleConfirmedNotice) (string, string, error) {
	typeLabel := scheduleTypeLabel(notice.ScheduleType)
	subject := sanitize.Line(fmt.Sprintf(subjectScheduleConfirmedFmt, typeLabel, notice.ProjectName, notice.LocalDate))

	content, err := renderEmailTemplate("schedule_confirmed.html", scheduleConfirmedEmailData{
		baseEmailData: baseEmailData{
			Title:      subject,
			Heading:    typeLabel + " confirmed",
			Subheading: "The job was updated in Zuper.",
		},
		ScheduleType: typeLabel,
		ProjectName:  sanitize.Text(notice.ProjectName),
		LocalDate:    notice.LocalDate,
		LocalStart:   notice.LocalStart,
		Timezone:     notice.Timezone,
		Assignee:     sanitize.Text(notice.Assignee),
		ZuperJobUID:  notice.ZuperJobUID,
		ConfirmedBy:  notice.ConfirmedBy,
	})
	if err != nil {
		return "", "", err
	}
	return subject, content, nil
}

func scheduleTypeLabel(scheduleType string) string {
	switch scheduleType {
	case "survey":
		return "Site survey"
	case "installation":
		return "Installation"
	case "inspection":
		return "Inspection"
	}
	return "Schedule"
}
