package services

import (
	"context"
	"fmt"
	"time"

	"madrassa/internal/core"
	applog "madrassa/internal/log"
	"madrassa/internal/notify"
	"madrassa/internal/reports"
	"madrassa/internal/sheets"
)

// OrgNamer resolves the organisation display name used in message footers.
type OrgNamer interface {
	OrgName(ctx context.Context) string
}

// Generated is a report rendered and ready to deliver.
type Generated struct {
	Kind    reports.Kind
	Period  string
	Totals  reports.Totals
	Message string
}

// Delivery describes what happened to a generated report.
type Delivery struct {
	Queued    bool          `json:"queued,omitempty"`
	MessageID string        `json:"messageId,omitempty"`
	Result    notify.Result `json:"result"`
}

// Deliverer hands a generated report to its recipients.
type Deliverer interface {
	Deliver(ctx context.Context, g Generated, phones []string) (Delivery, error)
}

// ReportService generates, formats, delivers and archives reports.
type ReportService struct {
	agg        *reports.Aggregator
	names      OrgNamer
	dispatcher notify.Dispatcher
	archiver   sheets.ReportArchiver
	now        func() time.Time
	logger     *applog.Logger
}

var _ Deliverer = (*ReportService)(nil)

func NewReportService(
	ledger reports.Ledger,
	names OrgNamer,
	dispatcher notify.Dispatcher,
	archiver sheets.ReportArchiver,
	logger *applog.Logger,
) *ReportService {
	if archiver == nil {
		archiver = sheets.Noop{}
	}
	if logger == nil {
		logger = applog.Discard()
	}
	return &ReportService{
		agg:        reports.NewAggregator(ledger),
		names:      names,
		dispatcher: dispatcher,
		archiver:   archiver,
		now:        time.Now,
		logger:     logger.WithComponent(applog.ComponentReports),
	}
}

func (s *ReportService) formatter(ctx context.Context) *reports.Formatter {
	return reports.NewFormatter(s.names.OrgName(ctx))
}

// Daily returns the daily report and its message.
func (s *ReportService) Daily(ctx context.Context, day core.Date) (reports.DailyReport, string, error) {
	r, err := s.agg.Daily(ctx, day)
	if err != nil {
		return r, "", fmt.Errorf("daily report %s: %w", day, err)
	}
	return r, s.formatter(ctx).FormatDaily(r), nil
}

// Weekly returns the report for the seven days ending on end.
func (s *ReportService) Weekly(ctx context.Context, end core.Date) (reports.WeeklyReport, string, error) {
	r, err := s.agg.Weekly(ctx, end)
	if err != nil {
		return r, "", fmt.Errorf("weekly report ending %s: %w", end, err)
	}
	return r, s.formatter(ctx).FormatWeekly(r), nil
}

// Monthly returns the extended monthly summary and the monthly message.
func (s *ReportService) Monthly(ctx context.Context, month core.Month) (reports.MonthlySummary, string, error) {
	r, err := s.agg.MonthlySummary(ctx, month)
	if err != nil {
		return r, "", fmt.Errorf("monthly report %s: %w", month, err)
	}
	return r, s.formatter(ctx).FormatMonthly(r.Report), nil
}

// Generate parses period for kind and renders the report.
func (s *ReportService) Generate(ctx context.Context, kind reports.Kind, period string) (Generated, error) {
	start := s.now()
	var g Generated
	switch kind {
	case reports.KindDaily:
		day, err := core.ParseDay(period)
		if err != nil {
			return g, err
		}
		r, msg, err := s.Daily(ctx, day)
		if err != nil {
			return g, err
		}
		g = Generated{Kind: kind, Period: day.String(), Totals: r.Totals, Message: msg}
	case reports.KindWeekly:
		end, err := core.ParseDay(period)
		if err != nil {
			return g, err
		}
		r, msg, err := s.Weekly(ctx, end)
		if err != nil {
			return g, err
		}
		g = Generated{Kind: kind, Period: end.String(), Totals: r.Totals, Message: msg}
	case reports.KindMonthly:
		month, err := core.ParseMonth(period)
		if err != nil {
			return g, err
		}
		r, msg, err := s.Monthly(ctx, month)
		if err != nil {
			return g, err
		}
		g = Generated{Kind: kind, Period: month.String(), Totals: r.Totals, Message: msg}
	default:
		return g, fmt.Errorf("%w: unknown report kind %q", core.ErrInvalidPeriod, kind)
	}

	s.logger.DebugContext(ctx, "Report generated",
		applog.FieldOperation, applog.OpGenerate,
		applog.FieldReportKind, string(g.Kind),
		applog.FieldPeriod, g.Period,
		applog.FieldDuration, time.Since(start).Milliseconds())
	return g, nil
}

// Deliver dispatches the message directly and archives the outcome.
// Archive failures are logged and never fail the delivery.
func (s *ReportService) Deliver(ctx context.Context, g Generated, phones []string) (Delivery, error) {
	res, err := notify.Broadcast(ctx, s.dispatcher, phones, g.Message)
	if err != nil {
		return Delivery{}, err
	}

	s.logger.InfoContext(ctx, "Report delivered",
		applog.FieldOperation, applog.OpDeliver,
		applog.FieldReportKind, string(g.Kind),
		applog.FieldPeriod, g.Period,
		applog.FieldRecipients, res.Total,
		applog.FieldSent, res.Sent,
		applog.FieldFailed, res.Failed)

	s.archive(ctx, g, res)
	return Delivery{Result: res}, nil
}

func (s *ReportService) archive(ctx context.Context, g Generated, res notify.Result) {
	_, err := s.archiver.Archive(ctx, sheets.ArchivedReport{
		GeneratedAt: s.now(),
		Kind:        string(g.Kind),
		Period:      g.Period,
		Income:      g.Totals.TotalIncome,
		Expenses:    g.Totals.TotalExpenses,
		Net:         g.Totals.NetAmount,
		Sent:        res.Sent,
		Failed:      res.Failed,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to archive report",
			applog.FieldError, err,
			applog.FieldReportKind, string(g.Kind),
			applog.FieldPeriod, g.Period)
	}
}
