package worker

import (
	"context"
	"fmt"
	"time"

	"atlascrm/internal/infra"
	"atlascrm/internal/model"
	"atlascrm/internal/pricing"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

const reminderBatchSize = 200

// OverdueSource lists unpaid invoices past their payment limit.
type OverdueSource interface {
	OverdueInvoices(ctx context.Context, now time.Time, limit int) ([]model.Invoice, error)
}

// EmailQueue is satisfied by *Dispatcher.
type EmailQueue interface {
	EnqueueEmail(ctx context.Context, payload EmailJobPayload) error
}

// ReminderConfig holds the dependencies of the reminder cron.
type ReminderConfig struct {
	Schedule string
	Invoices OverdueSource
	Queue    EmailQueue
	// Breaker, when set, skips a run while SMTP is known to be down.
	Breaker *infra.CircuitBreaker
	Now     func() time.Time
}

// StartReminderCron schedules the overdue-invoice reminders and stops the
// scheduler when ctx is cancelled.
func StartReminderCron(ctx context.Context, cfg ReminderConfig) (*cron.Cron, error) {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	c := cron.New()
	if _, err := c.AddFunc(cfg.Schedule, func() { EnqueueReminders(ctx, cfg) }); err != nil {
		return nil, fmt.Errorf("reminder_cron: invalid schedule %q: %w", cfg.Schedule, err)
	}
	c.Start()
	log.Info().Str("schedule", cfg.Schedule).Msg("reminder_cron: started")

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
		log.Info().Msg("reminder_cron: stopped")
	}()
	return c, nil
}

// EnqueueReminders queues one reminder mail per overdue invoice whose client
// has an email address, and returns how many were queued.
func EnqueueReminders(ctx context.Context, cfg ReminderConfig) int {
	if cfg.Breaker != nil && cfg.Breaker.State() == infra.CBOpen {
		log.Debug().Msg("reminder_cron: circuit breaker is open, skipping run")
		return 0
	}
	now := time.Now()
	if cfg.Now != nil {
		now = cfg.Now()
	}

	invoices, err := cfg.Invoices.OverdueInvoices(ctx, now, reminderBatchSize)
	if err != nil {
		log.Error().Err(err).Msg("reminder_cron: failed to query overdue invoices")
		return 0
	}

	queued := 0
	for i := range invoices {
		inv := &invoices[i]
		if inv.Client == nil || inv.Client.Email == "" {
			continue
		}
		remaining := pricing.Total(inv.AmountType, inv.TotalHT, inv.TotalTTC).Sub(inv.Payee)
		payload := EmailJobPayload{
			To:      []string{inv.Client.Email},
			Subject: fmt.Sprintf("Relance : facture %s", inv.Reference),
			Body: fmt.Sprintf(
				"Bonjour %s,\n\nSauf erreur de notre part, la facture %s arrivée à échéance le %s reste impayée.\nMontant restant dû : %s.\n\nCordialement.",
				inv.Client.CompanyName, inv.Reference, inv.PaymentLimit.Format("02/01/2006"), remaining.StringFixed(2),
			),
		}
		if err := cfg.Queue.EnqueueEmail(ctx, payload); err != nil {
			log.Warn().Err(err).Str("invoice_id", inv.ID.String()).Msg("reminder_cron: failed to enqueue reminder")
			continue
		}
		queued++
	}
	if queued > 0 {
		log.Info().Int("count", queued).Msg("reminder_cron: reminders enqueued")
	}
	return queued
}
