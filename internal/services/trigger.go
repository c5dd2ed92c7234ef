package services

import (
	"context"
	"fmt"
	"time"

	"madrassa/internal/core"
	applog "madrassa/internal/log"
	"madrassa/internal/notify"
	"madrassa/internal/reports"
)

// TriggerResult summarises one scheduled run.
type TriggerResult struct {
	Skipped  bool
	Kind     reports.Kind
	Period   string
	Delivery Delivery
}

// ScheduledTrigger picks the report for the day and sends it to the admins.
type ScheduledTrigger struct {
	config    notify.ConfigReader
	reports   *ReportService
	deliverer Deliverer
	loc       *time.Location
	logger    *applog.Logger
}

func NewScheduledTrigger(
	config notify.ConfigReader,
	reportService *ReportService,
	deliverer Deliverer,
	loc *time.Location,
	logger *applog.Logger,
) *ScheduledTrigger {
	if deliverer == nil {
		deliverer = reportService
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = applog.Discard()
	}
	return &ScheduledTrigger{
		config:    config,
		reports:   reportService,
		deliverer: deliverer,
		loc:       loc,
		logger:    logger.WithComponent(applog.ComponentScheduler),
	}
}

// Run executes the scheduled report for the calendar day of now.
func (t *ScheduledTrigger) Run(ctx context.Context, now time.Time) (TriggerResult, error) {
	cfg, err := t.config.GetConfig(ctx)
	if err != nil {
		return TriggerResult{}, fmt.Errorf("load config: %w", err)
	}

	phones := notify.SanitizePhones(cfg.AdminPhones)
	if len(phones) == 0 {
		t.logger.InfoContext(ctx, "No admin phones configured, skipping report")
		return TriggerResult{Skipped: true}, nil
	}

	today := core.DateOf(now.In(t.loc))
	schedule := SelectSchedule(today)
	period := schedule.Period(today)

	g, err := t.reports.Generate(ctx, schedule.Kind(), period)
	if err != nil {
		return TriggerResult{}, fmt.Errorf("generate %s report: %w", schedule.Kind(), err)
	}

	d, err := t.deliverer.Deliver(ctx, g, phones)
	if err != nil {
		return TriggerResult{}, fmt.Errorf("deliver %s report: %w", schedule.Kind(), err)
	}

	t.logger.InfoContext(ctx, "Scheduled report sent",
		applog.FieldReportKind, string(g.Kind),
		applog.FieldPeriod, g.Period,
		applog.FieldRecipients, d.Result.Total,
		applog.FieldSent, d.Result.Sent,
		"queued", d.Queued)

	return TriggerResult{Kind: g.Kind, Period: g.Period, Delivery: d}, nil
}
