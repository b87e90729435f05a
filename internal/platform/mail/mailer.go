package mail

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog"
)

// Mailer sends transactional email. A nil-configured mailer logs and drops
// messages so that booking never fails on mail trouble.
type Mailer interface {
	Send(to, subject, body string) error
}

type smtpMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// NewSMTP creates a Mailer backed by plain SMTP with auth.
func NewSMTP(host string, port int, username, password, from string) Mailer {
	return &smtpMailer{host: host, port: port, username: username, password: password, from: from}
}

func (m *smtpMailer) Send(to, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	auth := smtp.PlainAuth("", m.username, m.password, m.host)

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	if err := smtp.SendMail(addr, auth, m.from, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

type noopMailer struct {
	logger zerolog.Logger
}

// NewNoop returns a Mailer that logs instead of sending. Used when SMTP is
// not configured.
func NewNoop(logger zerolog.Logger) Mailer {
	return &noopMailer{logger: logger}
}

func (m *noopMailer) Send(to, subject, _ string) error {
	m.logger.Warn().
		Str("to", to).
		Str("subject", subject).
		Msg("mail not configured, dropping message")
	return nil
}
