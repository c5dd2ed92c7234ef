// Package reports computes the daily, weekly and monthly financial rollups over
// the ledger and renders them as chat messages.
package reports

import (
	"context"

	"madrassa/internal/core"
)

// Kind names a report period.
type Kind string

const (
	KindDaily   Kind = "daily"
	KindWeekly  Kind = "weekly"
	KindMonthly Kind = "monthly"
)

func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindDaily, KindWeekly, KindMonthly:
		return Kind(s), nil
	}
	return "", core.ErrInvalidPeriod
}

// Ledger is the read side of the store the aggregator needs. Ranges are inclusive on both ends.
type Ledger interface {
	PaymentsBetween(ctx context.Context, from, to core.Date) ([]core.Payment, error)
	ExpensesBetween(ctx context.Context, from, to core.Date) ([]core.Expense, error)
	CountAdmissionsBetween(ctx context.Context, from, to core.Date) (int, error)
	ActiveStudents(ctx context.Context) ([]core.Student, error)
	StudentCounts(ctx context.Context) (StudentCounts, error)
}

type StudentCounts struct {
	Total  int
	Active int
}

// Totals are shared by every report kind. NetAmount is always TotalIncome - TotalExpenses.
type Totals struct {
	TotalIncome   core.Money `json:"totalIncome"`
	TotalExpenses core.Money `json:"totalExpenses"`
	NetAmount     core.Money `json:"netAmount"`
	PaymentCount  int        `json:"paymentCount"`
	ExpenseCount  int        `json:"expenseCount"`
}

type DailyReport struct {
	Date core.Date `json:"date"`
	Totals
	PaymentsByType     map[core.FeeType]core.Money `json:"paymentsByType"`
	ExpensesByCategory map[string]core.Money       `json:"expensesByCategory"`
}

type DayTotals struct {
	Date     core.Date  `json:"date"`
	Income   core.Money `json:"income"`
	Expenses core.Money `json:"expenses"`
}

type WeeklyReport struct {
	StartDate core.Date `json:"startDate"`
	EndDate   core.Date `json:"endDate"`
	Totals
	NewStudents    int         `json:"newStudents"`
	DailyBreakdown []DayTotals `json:"dailyBreakdown"`
}

type MonthlyReport struct {
	Month     core.Month `json:"month"`
	StartDate core.Date  `json:"startDate"`
	EndDate   core.Date  `json:"endDate"`
	Totals
	NewStudents       int        `json:"newStudents"`
	ExpectedFees      core.Money `json:"expectedFees"`
	CollectedFees     core.Money `json:"collectedFees"`
	FeeCollectionRate int        `json:"feeCollectionRate"`
}

type FeeCollection struct {
	Expected       core.Money `json:"expected"`
	Collected      core.Money `json:"collected"`
	Pending        core.Money `json:"pending"`
	CollectionRate int        `json:"collectionRate"`
}

type StudentStats struct {
	Total        int `json:"total"`
	Active       int `json:"active"`
	NewThisMonth int `json:"newThisMonth"`
}

type CategoryAmount struct {
	Category string     `json:"category"`
	Amount   core.Money `json:"amount"`
}

// MonthlySummary is the detailed monthly view served over HTTP.
type MonthlySummary struct {
	Report MonthlyReport `json:"-"`
	Totals
	FeeCollection        FeeCollection               `json:"feeCollection"`
	StudentStats         StudentStats                `json:"studentStats"`
	PaymentsByType       map[core.FeeType]core.Money `json:"paymentsByType"`
	TopExpenseCategories []CategoryAmount            `json:"topExpenseCategories"`
}
