package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/viralforge/birthday-reminder/internal/application"
)

type reminderRunner interface {
	RunOnce(ctx context.Context) application.RunReport
}

// ReminderWorker periodically resolves eligible reminders and dispatches them.
type ReminderWorker struct {
	logger     *slog.Logger
	service    reminderRunner
	interval   time.Duration
	runOnStart bool
}

func NewReminderWorker(logger *slog.Logger, service reminderRunner, interval time.Duration, runOnStart bool) *ReminderWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &ReminderWorker{
		logger:     logger,
		service:    service,
		interval:   interval,
		runOnStart: runOnStart,
	}
}

func (w *ReminderWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	if w.runOnStart {
		w.runIteration(ctx)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.runIteration(ctx)
		}
	}
}

func (w *ReminderWorker) runIteration(ctx context.Context) {
	report := w.service.RunOnce(ctx)
	fields := []any{
		"module", "events.reminder_worker",
		"layer", "adapter",
		"operation", "run_reminders",
		"eligible_count", report.EligibleCount,
		"push_count", report.PushCount,
		"batch_id", report.BatchID,
	}
	if report.ResolutionFailed {
		w.logger.ErrorContext(ctx, "reminder iteration could not resolve eligibility", append(fields, "outcome", "failure")...)
		return
	}
	w.logger.InfoContext(ctx, "reminder iteration completed", append(fields, "outcome", "success")...)
}
