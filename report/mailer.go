package report

import (
	"fmt"
	"net/smtp"
	"strings"
)

// Mailer delivers a rendered report. The SMTP implementation is swapped for a
// recorder in tests and for a stdout printer on dry runs.
type Mailer interface {
	Send(subject, htmlBody string, recipients []string) error
}

// SMTPMailer sends via a submission endpoint (port 587 STARTTLS in the usual
// setup; net/smtp negotiates STARTTLS when the server offers it).
type SMTPMailer struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func (m *SMTPMailer) Send(subject, htmlBody string, recipients []string) error {
	if m.Host == "" {
		return fmt.Errorf("smtp host is not configured")
	}
	if m.From == "" {
		return fmt.Errorf("smtp from address is not configured")
	}

	var auth smtp.Auth
	if m.Username != "" {
		auth = smtp.PlainAuth("", m.Username, m.Password, m.Host)
	}

	msg := buildMessage(m.From, recipients, subject, htmlBody)
	addr := fmt.Sprintf("%s:%d", m.Host, m.Port)
	if err := smtp.SendMail(addr, auth, m.From, recipients, msg); err != nil {
		return fmt.Errorf("send mail via %s: %w", addr, err)
	}
	return nil
}

func buildMessage(from string, recipients []string, subject, htmlBody string) []byte {
	var builder strings.Builder
	builder.WriteString("From: " + from + "\r\n")
	builder.WriteString("To: " + strings.Join(recipients, ", ") + "\r\n")
	builder.WriteString("Subject: " + subject + "\r\n")
	builder.WriteString("MIME-Version: 1.0\r\n")
	builder.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	builder.WriteString("\r\n")
	builder.WriteString(htmlBody)
	return []byte(builder.String())
}
