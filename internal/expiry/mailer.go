package expiry

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// SMTPMailer sends reports through a plain SMTP relay. Auth is left to the
// relay; the engine runs inside the club network.
type SMTPMailer struct {
	addr string
	from string
}

// NewSMTPMailer constructs a mailer targeting the given relay ("host:port").
func NewSMTPMailer(addr, from string) *SMTPMailer {
	return &SMTPMailer{addr: addr, from: from}
}

// Send delivers one HTML message to all recipients in a single envelope.
func (m *SMTPMailer) Send(ctx context.Context, recipients []string, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.from)
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(recipients, ", "))
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	if err := smtp.SendMail(m.addr, nil, m.from, recipients, []byte(msg.String())); err != nil {
		return fmt.Errorf("send expiry report: %w", err)
	}
	return nil
}
