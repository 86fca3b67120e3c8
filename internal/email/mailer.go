// Package email sends transactional mail for OTP flows over SMTP.
package email

import (
	"fmt"
	"strings"

	mail "gopkg.in/mail.v2"

	"github.com/pavelchamgl/analog-threads/internal/config"
	"github.com/pavelchamgl/analog-threads/internal/middleware"
	"github.com/pavelchamgl/analog-threads/internal/models"
)

// Mailer sends one-time-password mail to users.
type Mailer interface {
	SendOTP(to, username string, code int, flow models.OTPTitle) error
}

// NopMailer logs instead of sending. Used in development and tests.
type NopMailer struct{}

// SendOTP implements Mailer.
func (NopMailer) SendOTP(to, username string, code int, flow models.OTPTitle) error {
	middleware.Logger.Info("otp mail suppressed", "to", to, "flow", string(flow))
	return nil
}

// SMTPMailer delivers mail through the configured SMTP relay.
type SMTPMailer struct {
	dialer *mail.Dialer
	from   string
}

// NewSMTPMailer builds a mailer from SMTP settings.
func NewSMTPMailer(cfg *config.Config) *SMTPMailer {
	return &SMTPMailer{
		dialer: mail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
		from:   cfg.SMTPFrom,
	}
}

var otpTemplates = map[models.OTPTitle]struct {
	subject string
	body    string
}{
	models.OTPForgotPassword: {
		subject: "Reset your password",
		body: "Hi {username},\n\n" +
			"Use the code {otp} to reset your password.\n" +
			"If you did not request a reset, ignore this message.\n",
	},
	models.OTPConfirmEmail: {
		subject: "Confirm your email",
		body: "Hi {username},\n\n" +
			"Use the code {otp} to confirm your email address.\n",
	},
}

// SendOTP sends the flow-specific template with the code substituted in.
func (m *SMTPMailer) SendOTP(to, username string, code int, flow models.OTPTitle) error {
	tpl, ok := otpTemplates[flow]
	if !ok {
		return fmt.Errorf("no mail template for flow %q", flow)
	}

	body := strings.NewReplacer(
		"{username}", username,
		"{email}", to,
		"{otp}", fmt.Sprintf("%04d", code),
	).Replace(tpl.body)

	msg := mail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", tpl.subject)
	msg.SetBody("text/plain", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send otp mail: %w", err)
	}
	return nil
}
