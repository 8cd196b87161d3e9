package scheduler

import (
	"context"
	"strings"
	"time"

	"github.com/autovisite/reportsvc/internal/config"
	invoicedomain "github.com/autovisite/reportsvc/internal/invoice/domain"
	"go.uber.org/zap"
)

const (
	defaultReminderInterval = 24 * time.Hour
	reminderLockKey         = "reportsvc:reminder_sweep"
)

// ReminderWorker periodically finds overdue invoices and emails payment
// reminders. With a Locker configured only one replica sweeps per interval.
type ReminderWorker struct {
	invoices invoicedomain.Service
	locker   *Locker
	log      *zap.Logger
	interval time.Duration
	enabled  bool
}

func NewReminderWorker(cfg config.Config, invoices invoicedomain.Service, locker *Locker, log *zap.Logger) *ReminderWorker {
	interval := defaultReminderInterval
	if d, err := time.ParseDuration(cfg.ReminderInterval); err == nil && d > 0 {
		interval = d
	}
	return &ReminderWorker{
		invoices: invoices,
		locker:   locker,
		log:      log.Named("reminder"),
		interval: interval,
		enabled:  cfg.ReminderEnabled,
	}
}

// RunForever sweeps on every tick until the context is cancelled.
func (w *ReminderWorker) RunForever(ctx context.Context) {
	if !w.enabled {
		w.log.Info("reminder sweeps disabled")
		return
	}

	w.log.Info("reminder sweeps scheduled", zap.Duration("interval", w.interval))
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep sends one reminder per overdue invoice that has a recipient.
func (w *ReminderWorker) Sweep(ctx context.Context) {
	if w.locker != nil {
		token, ok, err := w.locker.TryLock(ctx, reminderLockKey, w.interval/2)
		if err != nil {
			w.log.Warn("reminder lock unavailable, sweeping anyway", zap.Error(err))
		} else if !ok {
			w.log.Debug("reminder sweep held by another instance")
			return
		} else {
			defer func() {
				if err := w.locker.Release(ctx, reminderLockKey, token); err != nil {
					w.log.Warn("reminder lock not released", zap.Error(err))
				}
			}()
		}
	}

	overdue, err := w.invoices.FindOverdue(ctx)
	if err != nil {
		w.log.Error("overdue lookup failed", zap.Error(err))
		return
	}
	if len(overdue) == 0 {
		return
	}

	sent := 0
	for _, invoice := range overdue {
		if strings.TrimSpace(invoice.CustomerEmail) == "" {
			continue
		}
		if err := w.invoices.SendReminder(ctx, invoice.ID); err != nil {
			w.log.Warn("reminder not sent",
				zap.String("invoice_number", invoice.InvoiceNumber),
				zap.Error(err),
			)
			continue
		}
		sent++
	}

	w.log.Info("reminder sweep finished",
		zap.Int("overdue", len(overdue)),
		zap.Int("sent", sent),
	)
}
