package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/hibiken/asynq"
)

// Mailer sends plain-text mail over SMTP. It targets a local relay such as
// Mailpit in development, so no TLS negotiation is attempted.
type Mailer struct {
	addr   string
	from   string
	logger *slog.Logger
}

func NewMailer(addr, from string, logger *slog.Logger) *Mailer {
	return &Mailer{addr: addr, from: from, logger: logger}
}

// HandleSendEmail processes TaskTypeSendEmail tasks.
func (m *Mailer) HandleSendEmail(ctx context.Context, t *asynq.Task) error {
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.To == "" {
		m.logger.Warn("mail task without recipient dropped", slog.String("subject", payload.Subject))
		return asynq.SkipRetry
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.from)
	fmt.Fprintf(&msg, "To: %s\r\n", payload.To)
	fmt.Fprintf(&msg, "Subject: %s\r\n", payload.Subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString(payload.Body)

	if err := smtp.SendMail(m.addr, nil, m.from, []string{payload.To}, []byte(msg.String())); err != nil {
		return fmt.Errorf("jobs: send mail to %s: %w", payload.To, err)
	}
	m.logger.Info("mail sent", slog.String("to", payload.To), slog.String("subject", payload.Subject))
	return nil
}
