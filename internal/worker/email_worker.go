package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"atlascrm/internal/infra"

	"github.com/rs/zerolog/log"
)

// EmailJobPayload is the job envelope sent to QueueEmail.
type EmailJobPayload struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
}

// MailSender is satisfied by *infra.Mailer.
type MailSender interface {
	Send(msg infra.Mail) error
}

// EmailWorker sends plain mails, such as payment reminders.
type EmailWorker struct {
	mailer MailSender
}

func NewEmailWorker(mailer MailSender) *EmailWorker {
	return &EmailWorker{mailer: mailer}
}

func (w *EmailWorker) Process(_ context.Context, raw json.RawMessage) error {
	var payload EmailJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("email_worker: invalid payload: %w", err)
	}
	if len(payload.To) == 0 {
		log.Warn().Str("subject", payload.Subject).Msg("email_worker: no recipient, skipping")
		return nil
	}
	if payload.Subject == "" {
		return errors.New("email_worker: empty subject")
	}

	if err := w.mailer.Send(infra.Mail{To: payload.To, Subject: payload.Subject, Text: payload.Body}); err != nil {
		return fmt.Errorf("email_worker: send: %w", err)
	}
	log.Info().Strs("to", payload.To).Str("subject", payload.Subject).Msg("email_worker: mail sent")
	return nil
}
