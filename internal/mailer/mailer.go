package mailer

import (
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"reviewhub/internal/config"
)

// Mailer delivers confirmation codes to users out-of-band.
type Mailer interface {
	SendConfirmationCode(to, username, code string) error
}

// NewMailer picks the SMTP sender when mail is enabled, otherwise a
// logger-backed sender for development.
func NewMailer(cfg *config.Config, logger *slog.Logger) Mailer {
	if cfg.MailEnabled {
		return &smtpMailer{
			host:     cfg.SMTPHost,
			port:     cfg.SMTPPort,
			from:     cfg.SMTPFrom,
			password: cfg.SMTPPassword,
		}
	}
	return &logMailer{logger: logger}
}

type smtpMailer struct {
	host     string
	port     int
	from     string
	password string
}

func (m *smtpMailer) SendConfirmationCode(to, username, code string) error {
	subject := "Your confirmation code"
	body := fmt.Sprintf("Hello %s,\n\nYour confirmation code is: %s\n", username, code)

	// MIME basics
	msg := "MIME-version: 1.0;\nContent-Type: text/plain; charset=\"UTF-8\";\n"
	msg += fmt.Sprintf("From: reviewhub <%s>\r\n", m.from)
	msg += fmt.Sprintf("To: %s\r\n", strings.Join([]string{to}, ","))
	msg += fmt.Sprintf("Subject: %s\r\n\r\n", subject)
	msg += body

	auth := smtp.PlainAuth("", m.from, m.password, m.host)
	addr := fmt.Sprintf("%s:%d", m.host, m.port)

	if err := smtp.SendMail(addr, auth, m.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send confirmation mail: %w", err)
	}
	return nil
}

// logMailer writes the code to the log instead of sending mail.
type logMailer struct {
	logger *slog.Logger
}

func (m *logMailer) SendConfirmationCode(to, username, code string) error {
	m.logger.Info("confirmation code issued",
		"email", to,
		"username", username,
		"code", code,
	)
	return nil
}
