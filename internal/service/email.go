package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
	"gopkg.in/gomail.v2"

	"github.com/goalbuddy/server/internal/config"
)

const (
	EmailProviderResend = "resend"
	EmailProviderSMTP   = "smtp"
)

// GoalSharedEmail is everything a buddy needs to know about a new share.
type GoalSharedEmail struct {
	To          string `json:"to"`
	OwnerEmail  string `json:"ownerEmail"`
	GoalTitle   string `json:"goalTitle"`
	Category    string `json:"goalCategory,omitempty"`
	TargetDate  string `json:"targetDate,omitempty"` // YYYY-MM-DD
	Permissions string `json:"permission"`
	Link        string `json:"link"`
}

// Notifier tells a buddy a goal was shared with them. It never fails the
// caller: the return value only reports whether an email went out.
type Notifier interface {
	NotifyGoalShared(ctx context.Context, p GoalSharedEmail) bool
}

type mailSender interface {
	Send(ctx context.Context, from, to, subject, body string) error
	Name() string
}

type EmailService struct {
	sender    mailSender
	fromEmail string
	appName   string
}

// NewEmailService picks the delivery provider from configuration. With
// EMAIL_ENABLED=false the service only logs what it would send.
func NewEmailService(cfg *config.Config) (*EmailService, error) {
	s := &EmailService{
		fromEmail: cfg.EmailFrom,
		appName:   cfg.AppName,
	}

	if !cfg.EmailEnabled {
		return s, nil
	}

	slog.Info("initializing email provider", "provider", cfg.EmailProvider)

	switch cfg.EmailProvider {
	case EmailProviderResend:
		if cfg.ResendAPIKey == "" {
			return nil, fmt.Errorf("RESEND_API_KEY is required when using resend provider")
		}
		s.sender = &resendSender{client: resend.NewClient(cfg.ResendAPIKey)}

	case EmailProviderSMTP:
		if cfg.SMTPHost == "" {
			return nil, fmt.Errorf("SMTP_HOST is required when using smtp provider")
		}
		s.sender = &smtpSender{dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass)}

	default:
		return nil, fmt.Errorf("unknown email provider: %s (supported: resend, smtp)", cfg.EmailProvider)
	}

	return s, nil
}

func (s *EmailService) NotifyGoalShared(ctx context.Context, p GoalSharedEmail) bool {
	subject, body := goalSharedEmailTemplate(p, s.appName)

	if s.sender == nil {
		slog.Info("email disabled, not sent", "type", "goal_shared", "to", p.To, "subject", subject, "payload", p)
		return false
	}

	err := s.sender.Send(ctx, s.fromEmail, p.To, subject, body)
	if err != nil {
		slog.Warn("email send failed", "type", "goal_shared", "provider", s.sender.Name(), "to", p.To, "error", err)
		return false
	}

	slog.Info("email sent", "type", "goal_shared", "provider", s.sender.Name(), "to", p.To)
	return true
}

type resendSender struct {
	client *resend.Client
}

func (r *resendSender) Name() string { return EmailProviderResend }

func (r *resendSender) Send(ctx context.Context, from, to, subject, body string) error {
	params := &resend.SendEmailRequest{
		From:    from,
		To:      []string{to},
		Subject: subject,
		Text:    body,
	}

	_, err := r.client.Emails.SendWithContext(ctx, params)
	return err
}

type smtpSender struct {
	dialer *gomail.Dialer
}

func (m *smtpSender) Name() string { return EmailProviderSMTP }

// Send ignores ctx; gomail dials synchronously.
func (m *smtpSender) Send(_ context.Context, from, to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	return m.dialer.DialAndSend(msg)
}
