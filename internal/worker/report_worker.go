// Package worker runs the long-lived loops behind the worker binaries.
package worker

import (
	"context"
	"sync"
	"time"

	"madrassa/internal/core"
	applog "madrassa/internal/log"
	"madrassa/internal/services"
)

// Runner executes one scheduled report run.
type Runner interface {
	Run(ctx context.Context, now time.Time) (services.TriggerResult, error)
}

// ReportWorker fires the scheduled report at most once per local calendar day,
// on the first tick at or after the configured hour. A failed run is retried
// on the next tick.
type ReportWorker struct {
	runner   Runner
	interval time.Duration
	hour     int
	loc      *time.Location
	logger   *applog.Logger

	mu      sync.Mutex
	lastRun core.Date
}

func NewReportWorker(runner Runner, interval time.Duration, hour int, loc *time.Location, logger *applog.Logger) *ReportWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = applog.Discard()
	}
	return &ReportWorker{
		runner:   runner,
		interval: interval,
		hour:     hour,
		loc:      loc,
		logger:   logger.WithComponent(applog.ComponentWorker),
	}
}

// Tick runs the report if it is due at now. It reports whether a run happened.
func (w *ReportWorker) Tick(ctx context.Context, now time.Time) (bool, error) {
	local := now.In(w.loc)
	if local.Hour() < w.hour {
		return false, nil
	}
	today := core.DateOf(local)

	w.mu.Lock()
	done := w.lastRun.Equal(today.Time)
	w.mu.Unlock()
	if done {
		return false, nil
	}

	res, err := w.runner.Run(ctx, now)
	if err != nil {
		return false, err
	}

	w.mu.Lock()
	w.lastRun = today
	w.mu.Unlock()

	w.logger.InfoContext(ctx, "Scheduled run complete",
		"day", today.String(),
		"skipped", res.Skipped,
		applog.FieldReportKind, string(res.Kind),
		applog.FieldPeriod, res.Period)
	return true, nil
}

// Run ticks until ctx is done.
func (w *ReportWorker) Run(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Report worker started",
		"interval", w.interval.String(),
		"hour", w.hour,
		"timezone", w.loc.String())

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.tick(ctx, time.Now())
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Report worker stopped")
			return nil
		case now := <-ticker.C:
			w.tick(ctx, now)
		}
	}
}

func (w *ReportWorker) tick(ctx context.Context, now time.Time) {
	if _, err := w.Tick(ctx, now); err != nil {
		w.logger.ErrorContext(ctx, "Scheduled run failed, retrying next tick",
			applog.FieldError, err,
			"next_check", now.Add(w.interval).Format("15:04:05"))
	}
}
