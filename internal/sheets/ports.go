// Package sheets archives delivered reports to a spreadsheet.
package sheets

import (
	"context"
	"time"

	"madrassa/internal/core"
)

// ArchivedReport is one row in the report log.
type ArchivedReport struct {
	GeneratedAt time.Time
	Kind        string
	Period      string
	Income      core.Money
	Expenses    core.Money
	Net         core.Money
	Sent        int
	Failed      int
}

// Row renders the report as spreadsheet cells:
// timestamp, kind, period, income, expenses, net, sent, failed.
func (r ArchivedReport) Row() []any {
	return []any{
		r.GeneratedAt.UTC().Format(time.RFC3339),
		r.Kind,
		r.Period,
		r.Income.Decimal().StringFixed(2),
		r.Expenses.Decimal().StringFixed(2),
		r.Net.Decimal().StringFixed(2),
		r.Sent,
		r.Failed,
	}
}

// Header names the columns written by Row.
var Header = []any{"Generated At", "Kind", "Period", "Income", "Expenses", "Net", "Sent", "Failed"}

type ReportArchiver interface {
	Archive(ctx context.Context, r ArchivedReport) (rowRef string, err error)
}

// Noop discards reports. Used when no spreadsheet is configured.
type Noop struct{}

func (Noop) Archive(context.Context, ArchivedReport) (string, error) { return "", nil }
