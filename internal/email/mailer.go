// Package email sends transactional email through Resend. Sending is always
// best-effort: a missing API key turns the mailer into a logging no-op, and
// delivery failures are reported to the caller but must never fail the
// operation that triggered them (signup, password reset).
package email

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"
)

// Mailer sends application email. A nil underlying client (no API key)
// makes every send a logged no-op, which keeps local development working
// without credentials.
type Mailer struct {
	client *resend.Client
	from   string
	appURL string
	log    zerolog.Logger
}

// New constructs a Mailer. An empty apiKey disables sending.
func New(apiKey, from, appURL string, log zerolog.Logger) *Mailer {
	m := &Mailer{from: from, appURL: appURL, log: log}
	if apiKey == "" {
		log.Warn().Msg("RESEND_API_KEY not set, email sending disabled")
		return m
	}
	m.client = resend.NewClient(apiKey)
	return m
}

// SendWelcome greets a newly registered user.
func (m *Mailer) SendWelcome(ctx context.Context, to, firstName string) error {
	if m.client == nil {
		m.log.Info().Str("to", to).Msg("mailer disabled, welcome email skipped")
		return nil
	}
	html := fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>Welcome, %s!</h2>
  <p>Your account has been created successfully. Start writing today!</p>
  <p><a href="%s">Go to Dashboard</a></p>
</div>`, firstName, m.appURL)

	_, err := m.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{to},
		Subject: "Welcome to the Blog",
		Html:    html,
	})
	if err != nil {
		m.log.Error().Err(err).Str("to", to).Msg("welcome email failed")
	}
	return err
}

// SendPasswordReset delivers a reset link built from the app URL and token.
func (m *Mailer) SendPasswordReset(ctx context.Context, to, resetToken string) error {
	resetLink := fmt.Sprintf("%s/reset-password?token=%s", m.appURL, resetToken)
	if m.client == nil {
		// Log the link so local development can complete the flow.
		m.log.Warn().Str("reset_link", resetLink).Msg("mailer disabled, password reset link not sent")
		return nil
	}
	html := fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2>Password Reset Request</h2>
  <p>We received a request to reset your password. Click the link below to proceed:</p>
  <p><a href="%s">Reset Password</a></p>
  <p>Or copy this link: %s</p>
  <p style="color: #666; font-size: 12px;">This link expires in 1 hour. If you didn't request this, please ignore this email.</p>
</div>`, resetLink, resetLink)

	_, err := m.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{to},
		Subject: "Reset Your Password",
		Html:    html,
	})
	if err != nil {
		m.log.Error().Err(err).Str("to", to).Msg("password reset email failed")
	}
	return err
}
