package reports

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"madrassa/internal/core"
)

// CurrencyLabel prefixes every rendered amount.
const CurrencyLabel = "Rs."

// Formatter renders report data as WhatsApp-flavoured text. Output depends only
// on its input, so a retried delivery carries the same bytes.
type Formatter struct {
	printer *message.Printer
	orgName string
}

// NewFormatter returns a formatter that signs messages with orgName.
// An empty orgName leaves the footer off.
func NewFormatter(orgName string) *Formatter {
	return &Formatter{
		printer: message.NewPrinter(language.English),
		orgName: strings.TrimSpace(orgName),
	}
}

// Amount renders m with thousands grouping: 12345 -> "12,345", 12.5 -> "12.5".
func (f *Formatter) Amount(m core.Money) string {
	cents := m.Cents
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	whole := f.printer.Sprintf("%d", cents/100)
	frac := cents % 100
	if frac == 0 {
		return sign + whole
	}
	return sign + strings.TrimRight(fmt.Sprintf("%s.%02d", whole, frac), "0")
}

func (f *Formatter) rs(m core.Money) string {
	return CurrencyLabel + " " + f.Amount(m)
}

// Footer renders the signature block appended to outgoing messages.
func Footer(orgName string) string {
	return "\n---\n_" + orgName + "_"
}

func (f *Formatter) finish(lines []string) string {
	msg := strings.Join(lines, "\n")
	if f.orgName != "" {
		msg += Footer(f.orgName)
	}
	return msg
}

func (f *Formatter) FormatDaily(r DailyReport) string {
	lines := []string{
		fmt.Sprintf("📊 *Daily Report - %s*", r.Date),
		"",
		"💰 *Income:* " + f.rs(r.TotalIncome),
		"💸 *Expenses:* " + f.rs(r.TotalExpenses),
		"📈 *Net:* " + f.rs(r.NetAmount),
		"",
	}

	if r.PaymentCount > 0 {
		lines = append(lines, fmt.Sprintf("*Payments (%d):*", r.PaymentCount))
		for _, ft := range sortedFeeTypes(r.PaymentsByType) {
			lines = append(lines, fmt.Sprintf("  • %s: %s", ft, f.rs(r.PaymentsByType[ft])))
		}
		lines = append(lines, "")
	}

	if r.ExpenseCount > 0 {
		lines = append(lines, fmt.Sprintf("*Expenses (%d):*", r.ExpenseCount))
		for _, c := range sortedKeys(r.ExpensesByCategory) {
			lines = append(lines, fmt.Sprintf("  • %s: %s", c, f.rs(r.ExpensesByCategory[c])))
		}
	}

	if r.PaymentCount == 0 && r.ExpenseCount == 0 {
		lines = append(lines, "_No transactions recorded_")
	}

	return f.finish(lines)
}

func (f *Formatter) FormatWeekly(r WeeklyReport) string {
	lines := []string{
		"📊 *Weekly Report*",
		fmt.Sprintf("📅 %s to %s", r.StartDate, r.EndDate),
		"",
		"💰 *Total Income:* " + f.rs(r.TotalIncome),
		"💸 *Total Expenses:* " + f.rs(r.TotalExpenses),
		"📈 *Net Amount:* " + f.rs(r.NetAmount),
		"",
		fmt.Sprintf("📝 *Transactions:* %d payments, %d expenses", r.PaymentCount, r.ExpenseCount),
		fmt.Sprintf("👨‍🎓 *New Students:* %d", r.NewStudents),
		"",
		"*Daily Breakdown:*",
	}

	for _, day := range r.DailyBreakdown {
		lines = append(lines, fmt.Sprintf("  %s: +%s / -%s",
			day.Date.Weekday().String()[:3], f.Amount(day.Income), f.Amount(day.Expenses)))
	}

	return f.finish(lines)
}

func (f *Formatter) FormatMonthly(r MonthlyReport) string {
	lines := []string{
		fmt.Sprintf("📊 *Monthly Report - %s*", r.Month.Title()),
		"",
		"💰 *Total Income:* " + f.rs(r.TotalIncome),
		"💸 *Total Expenses:* " + f.rs(r.TotalExpenses),
		"📈 *Net Amount:* " + f.rs(r.NetAmount),
		"",
		fmt.Sprintf("📝 *Transactions:* %d payments, %d expenses", r.PaymentCount, r.ExpenseCount),
		fmt.Sprintf("👨‍🎓 *New Students:* %d", r.NewStudents),
		"",
		"*Fee Collection:*",
		"  Expected: " + f.rs(r.ExpectedFees),
		"  Collected: " + f.rs(r.CollectedFees),
		fmt.Sprintf("  Rate: %d%%", r.FeeCollectionRate),
	}

	return f.finish(lines)
}

// sortedFeeTypes orders known fee types by their display order, unknown ones after, by name.
func sortedFeeTypes(m map[core.FeeType]core.Money) []core.FeeType {
	rank := make(map[core.FeeType]int, len(core.FeeTypes))
	for i, ft := range core.FeeTypes {
		rank[ft] = i
	}
	keys := make([]core.FeeType, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ri, iok := rank[keys[i]]
		rj, jok := rank[keys[j]]
		switch {
		case iok && jok:
			return ri < rj
		case iok != jok:
			return iok
		default:
			return keys[i] < keys[j]
		}
	})
	return keys
}

func sortedKeys(m map[string]core.Money) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
