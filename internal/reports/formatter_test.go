package reports

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"madrassa/internal/core"
)

func TestFormatter_Amount(t *testing.T) {
	f := NewFormatter("")
	cases := []struct {
		in   core.Money
		want string
	}{
		{core.Rupees(0), "0"},
		{core.Rupees(999), "999"},
		{core.Rupees(12345), "12,345"},
		{core.Rupees(1234567), "1,234,567"},
		{core.Money{Cents: 1250}, "12.5"},
		{core.Money{Cents: 123405}, "1,234.05"},
		{core.Rupees(-1300), "-1,300"},
		{core.Money{Cents: -50}, "-0.5"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, f.Amount(tc.in))
	}
}

func TestFormatDaily(t *testing.T) {
	r := DailyReport{
		Date: day("2024-05-10"),
		Totals: Totals{
			TotalIncome:   core.Rupees(12500),
			TotalExpenses: core.Rupees(1200),
			NetAmount:     core.Rupees(11300),
			PaymentCount:  3,
			ExpenseCount:  1,
		},
		PaymentsByType: map[core.FeeType]core.Money{
			core.FeeOther:   core.Rupees(500),
			core.FeeMonthly: core.Rupees(12000),
		},
		ExpensesByCategory: map[string]core.Money{"Utilities": core.Rupees(1200)},
	}
	want := strings.Join([]string{
		"📊 *Daily Report - 2024-05-10*",
		"",
		"💰 *Income:* Rs. 12,500",
		"💸 *Expenses:* Rs. 1,200",
		"📈 *Net:* Rs. 11,300",
		"",
		"*Payments (3):*",
		"  • Monthly: Rs. 12,000",
		"  • Other: Rs. 500",
		"",
		"*Expenses (1):*",
		"  • Utilities: Rs. 1,200",
	}, "\n")
	assert.Equal(t, want, NewFormatter("").FormatDaily(r))
}

func TestFormatDaily_NoTransactions(t *testing.T) {
	got := NewFormatter("").FormatDaily(DailyReport{Date: day("2024-05-10")})
	assert.True(t, strings.HasSuffix(got, "\n_No transactions recorded_"), got)
	assert.NotContains(t, got, "*Payments")
	assert.NotContains(t, got, "*Expenses (")
}

func TestFormatDaily_OnlyExpenses(t *testing.T) {
	got := NewFormatter("").FormatDaily(DailyReport{
		Date:               day("2024-05-10"),
		Totals:             Totals{TotalExpenses: core.Rupees(10), NetAmount: core.Rupees(-10), ExpenseCount: 1},
		ExpensesByCategory: map[string]core.Money{"Food": core.Rupees(10)},
	})
	assert.Contains(t, got, "📈 *Net:* Rs. -10")
	assert.Contains(t, got, "*Expenses (1):*\n  • Food: Rs. 10")
	assert.NotContains(t, got, "*Payments")
	assert.NotContains(t, got, "_No transactions recorded_")
}

func TestFormatWeekly(t *testing.T) {
	start := day("2024-05-05")
	r := WeeklyReport{
		StartDate: start,
		EndDate:   day("2024-05-11"),
		Totals: Totals{
			TotalIncome:   core.Rupees(3000),
			TotalExpenses: core.Rupees(1000),
			NetAmount:     core.Rupees(2000),
			PaymentCount:  2,
			ExpenseCount:  1,
		},
		NewStudents: 1,
	}
	for i := 0; i < 7; i++ {
		r.DailyBreakdown = append(r.DailyBreakdown, DayTotals{Date: start.AddDays(i)})
	}
	r.DailyBreakdown[1].Income = core.Rupees(3000)
	r.DailyBreakdown[6].Expenses = core.Rupees(1000)

	want := strings.Join([]string{
		"📊 *Weekly Report*",
		"📅 2024-05-05 to 2024-05-11",
		"",
		"💰 *Total Income:* Rs. 3,000",
		"💸 *Total Expenses:* Rs. 1,000",
		"📈 *Net Amount:* Rs. 2,000",
		"",
		"📝 *Transactions:* 2 payments, 1 expenses",
		"👨‍🎓 *New Students:* 1",
		"",
		"*Daily Breakdown:*",
		"  Sun: +0 / -0",
		"  Mon: +3,000 / -0",
		"  Tue: +0 / -0",
		"  Wed: +0 / -0",
		"  Thu: +0 / -0",
		"  Fri: +0 / -0",
		"  Sat: +0 / -1,000",
	}, "\n")
	assert.Equal(t, want, NewFormatter("").FormatWeekly(r))
}

func TestFormatMonthly(t *testing.T) {
	r := MonthlyReport{
		Month:     month("2024-05"),
		StartDate: day("2024-05-01"),
		EndDate:   day("2024-05-31"),
		Totals: Totals{
			TotalIncome:   core.Rupees(2500),
			TotalExpenses: core.Rupees(1200),
			NetAmount:     core.Rupees(1300),
			PaymentCount:  2,
			ExpenseCount:  1,
		},
		ExpectedFees:      core.Rupees(10000),
		CollectedFees:     core.Rupees(7500),
		FeeCollectionRate: 75,
	}
	want := strings.Join([]string{
		"📊 *Monthly Report - May 2024*",
		"",
		"💰 *Total Income:* Rs. 2,500",
		"💸 *Total Expenses:* Rs. 1,200",
		"📈 *Net Amount:* Rs. 1,300",
		"",
		"📝 *Transactions:* 2 payments, 1 expenses",
		"👨‍🎓 *New Students:* 0",
		"",
		"*Fee Collection:*",
		"  Expected: Rs. 10,000",
		"  Collected: Rs. 7,500",
		"  Rate: 75%",
	}, "\n") + "\n---\n_Darul Uloom_"
	assert.Equal(t, want, NewFormatter("Darul Uloom").FormatMonthly(r))
}

func TestFormatter_Deterministic(t *testing.T) {
	r := DailyReport{
		Date:   day("2024-05-10"),
		Totals: Totals{PaymentCount: 5, ExpenseCount: 4},
		PaymentsByType: map[core.FeeType]core.Money{
			core.FeeMonthly: core.Rupees(1), core.FeeAdmission: core.Rupees(2), core.FeeAnnual: core.Rupees(3),
			core.FeeSummer: core.Rupees(4), core.FeeOther: core.Rupees(5),
		},
		ExpensesByCategory: map[string]core.Money{
			"d": core.Rupees(1), "c": core.Rupees(2), "b": core.Rupees(3), "a": core.Rupees(4),
		},
	}
	f := NewFormatter("X")
	first := f.FormatDaily(r)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, f.FormatDaily(r))
	}
}
