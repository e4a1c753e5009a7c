package mailer

import (
	"fmt"
	"net/smtp"

	"github.com/rs/zerolog"

	"github.com/assesshub/assesshub-backend/internal/config"
)

// Mailer delivers transactional mail. The only message today is the
// verification code sent at registration.
type Mailer interface {
	SendOTP(to, code string) error
}

// SMTPMailer sends mail through a plain SMTP relay.
type SMTPMailer struct {
	cfg *config.Config
	log zerolog.Logger
}

// NewSMTPMailer creates a mailer backed by the configured SMTP relay.
func NewSMTPMailer(cfg *config.Config, log zerolog.Logger) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, log: log.With().Str("component", "mailer").Logger()}
}

// SendOTP mails a verification code to the given address.
func (m *SMTPMailer) SendOTP(to, code string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: Your verification code\r\n\r\n"+
		"Your verification code is %s. It expires in 2 minutes.\r\n",
		m.cfg.SMTPFrom, to, code)

	addr := m.cfg.SMTPHost + ":" + m.cfg.SMTPPort
	var auth smtp.Auth
	if m.cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", m.cfg.SMTPUser, m.cfg.SMTPPass, m.cfg.SMTPHost)
	}
	if err := smtp.SendMail(addr, auth, m.cfg.SMTPFrom, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	m.log.Debug().Str("to", to).Msg("OTP mail sent")
	return nil
}

// LogMailer writes codes to the log instead of sending mail. Used in
// development when no SMTP relay is configured.
type LogMailer struct {
	log zerolog.Logger
}

// NewLogMailer creates a log-only mailer.
func NewLogMailer(log zerolog.Logger) *LogMailer {
	return &LogMailer{log: log.With().Str("component", "mailer").Logger()}
}

// SendOTP logs the verification code.
func (m *LogMailer) SendOTP(to, code string) error {
	m.log.Info().Str("to", to).Str("code", code).Msg("OTP (log-only mailer)")
	return nil
}
