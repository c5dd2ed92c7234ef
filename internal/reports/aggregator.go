package reports

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"madrassa/internal/core"
)

// topCategoryLimit caps MonthlySummary.TopExpenseCategories.
const topCategoryLimit = 5

// Aggregator computes report data from a Ledger. It never writes and holds no
// per-call state, so one instance serves concurrent requests.
type Aggregator struct {
	ledger Ledger
}

func NewAggregator(ledger Ledger) *Aggregator {
	return &Aggregator{ledger: ledger}
}

// rangeData is what every report reads for its window.
type rangeData struct {
	payments   []core.Payment
	expenses   []core.Expense
	admissions int
	active     []core.Student
}

func (a *Aggregator) load(ctx context.Context, from, to core.Date, admissions, active bool) (rangeData, error) {
	var rd rangeData
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		p, err := a.ledger.PaymentsBetween(gctx, from, to)
		if err != nil {
			return fmt.Errorf("load payments: %w", err)
		}
		rd.payments = p
		return nil
	})
	g.Go(func() error {
		e, err := a.ledger.ExpensesBetween(gctx, from, to)
		if err != nil {
			return fmt.Errorf("load expenses: %w", err)
		}
		rd.expenses = e
		return nil
	})
	if admissions {
		g.Go(func() error {
			n, err := a.ledger.CountAdmissionsBetween(gctx, from, to)
			if err != nil {
				return fmt.Errorf("count admissions: %w", err)
			}
			rd.admissions = n
			return nil
		})
	}
	if active {
		g.Go(func() error {
			s, err := a.ledger.ActiveStudents(gctx)
			if err != nil {
				return fmt.Errorf("load active students: %w", err)
			}
			rd.active = s
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return rangeData{}, err
	}
	return rd, nil
}

// Daily covers payments and expenses dated exactly on day.
func (a *Aggregator) Daily(ctx context.Context, day core.Date) (DailyReport, error) {
	rd, err := a.load(ctx, day, day, false, false)
	if err != nil {
		return DailyReport{}, err
	}
	return DailyReport{
		Date:               day,
		Totals:             totals(rd.payments, rd.expenses),
		PaymentsByType:     byFeeType(rd.payments),
		ExpensesByCategory: byCategory(rd.expenses),
	}, nil
}

// Weekly covers the 7 days ending on end, inclusive.
func (a *Aggregator) Weekly(ctx context.Context, end core.Date) (WeeklyReport, error) {
	start, end := core.WeekEnding(end)
	rd, err := a.load(ctx, start, end, true, false)
	if err != nil {
		return WeeklyReport{}, err
	}

	breakdown := make([]DayTotals, 0, 7)
	for d := start; !d.After(end.Time); d = d.AddDays(1) {
		day := DayTotals{Date: d}
		for _, p := range rd.payments {
			if p.Date.Equal(d.Time) {
				day.Income = day.Income.Add(nonNegative(p.Amount))
			}
		}
		for _, e := range rd.expenses {
			if e.Date.Equal(d.Time) {
				day.Expenses = day.Expenses.Add(nonNegative(e.Amount))
			}
		}
		breakdown = append(breakdown, day)
	}

	return WeeklyReport{
		StartDate:      start,
		EndDate:        end,
		Totals:         totals(rd.payments, rd.expenses),
		NewStudents:    rd.admissions,
		DailyBreakdown: breakdown,
	}, nil
}

// Monthly covers the calendar month. Expected fees are a snapshot of the
// currently active students; collected fees only count Monthly payments
// tagged with this exact month.
func (a *Aggregator) Monthly(ctx context.Context, month core.Month) (MonthlyReport, error) {
	r, _, err := a.monthly(ctx, month)
	return r, err
}

func (a *Aggregator) monthly(ctx context.Context, month core.Month) (MonthlyReport, rangeData, error) {
	start, end := month.Range()
	rd, err := a.load(ctx, start, end, true, true)
	if err != nil {
		return MonthlyReport{}, rangeData{}, err
	}

	var expected, collected core.Money
	for _, s := range rd.active {
		expected = expected.Add(nonNegative(s.MonthlyFee))
	}
	tag := month.String()
	for _, p := range rd.payments {
		if p.FeeType == core.FeeMonthly && p.Month == tag {
			collected = collected.Add(nonNegative(p.Amount))
		}
	}

	return MonthlyReport{
		Month:             month,
		StartDate:         start,
		EndDate:           end,
		Totals:            totals(rd.payments, rd.expenses),
		NewStudents:       rd.admissions,
		ExpectedFees:      expected,
		CollectedFees:     collected,
		FeeCollectionRate: CollectionRate(collected, expected),
	}, rd, nil
}

// MonthlySummary extends Monthly with student stats, per-type income and the
// biggest expense categories.
func (a *Aggregator) MonthlySummary(ctx context.Context, month core.Month) (MonthlySummary, error) {
	r, rd, err := a.monthly(ctx, month)
	if err != nil {
		return MonthlySummary{}, err
	}
	counts, err := a.ledger.StudentCounts(ctx)
	if err != nil {
		return MonthlySummary{}, fmt.Errorf("count students: %w", err)
	}

	return MonthlySummary{
		Report: r,
		Totals: r.Totals,
		FeeCollection: FeeCollection{
			Expected:       r.ExpectedFees,
			Collected:      r.CollectedFees,
			Pending:        r.ExpectedFees.Sub(r.CollectedFees),
			CollectionRate: r.FeeCollectionRate,
		},
		StudentStats: StudentStats{
			Total:        counts.Total,
			Active:       len(rd.active),
			NewThisMonth: r.NewStudents,
		},
		PaymentsByType:       byFeeType(rd.payments),
		TopExpenseCategories: TopCategories(byCategory(rd.expenses), topCategoryLimit),
	}, nil
}

// CollectionRate is round(100*collected/expected) as an integer percentage,
// rounding half away from zero. It is 0 when nothing is expected.
func CollectionRate(collected, expected core.Money) int {
	if expected.Cents <= 0 {
		return 0
	}
	rate := decimal.NewFromInt(collected.Cents).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(expected.Cents)).
		Round(0)
	return int(rate.IntPart())
}

// TopCategories returns up to limit categories by amount, largest first, ties by name.
func TopCategories(amounts map[string]core.Money, limit int) []CategoryAmount {
	out := make([]CategoryAmount, 0, len(amounts))
	for c, amt := range amounts {
		out = append(out, CategoryAmount{Category: c, Amount: amt})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount.Cents != out[j].Amount.Cents {
			return out[i].Amount.Cents > out[j].Amount.Cents
		}
		return out[i].Category < out[j].Category
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func totals(payments []core.Payment, expenses []core.Expense) Totals {
	var t Totals
	for _, p := range payments {
		t.TotalIncome = t.TotalIncome.Add(nonNegative(p.Amount))
	}
	for _, e := range expenses {
		t.TotalExpenses = t.TotalExpenses.Add(nonNegative(e.Amount))
	}
	t.NetAmount = t.TotalIncome.Sub(t.TotalExpenses)
	t.PaymentCount = len(payments)
	t.ExpenseCount = len(expenses)
	return t
}

func byFeeType(payments []core.Payment) map[core.FeeType]core.Money {
	m := make(map[core.FeeType]core.Money)
	for _, p := range payments {
		m[p.FeeType] = m[p.FeeType].Add(nonNegative(p.Amount))
	}
	return m
}

func byCategory(expenses []core.Expense) map[string]core.Money {
	m := make(map[string]core.Money)
	for _, e := range expenses {
		m[e.Category] = m[e.Category].Add(nonNegative(e.Amount))
	}
	return m
}

// nonNegative treats a corrupt negative amount as zero.
func nonNegative(m core.Money) core.Money {
	if m.Cents < 0 {
		return core.Money{}
	}
	return m
}
