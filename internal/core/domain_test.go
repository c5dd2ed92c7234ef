package core

import (
	"errors"
	"testing"
)

func TestParseFeeType(t *testing.T) {
	cases := []struct {
		in   string
		want FeeType
		ok   bool
	}{
		{"Monthly", FeeMonthly, true},
		{"admission", FeeAdmission, true},
		{"SUMMER", FeeSummer, true},
		{"Other", FeeOther, true},
		{"Tuition", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseFeeType(tc.in)
		if tc.ok {
			if err != nil || got != tc.want {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.want, got, err)
			}
			continue
		}
		if !errors.Is(err, ErrInvalidFeeType) {
			t.Fatalf("%q expected ErrInvalidFeeType, got %v", tc.in, err)
		}
	}
}

func TestPaymentValidate(t *testing.T) {
	good := Payment{
		StudentID: "s1",
		FeeType:   FeeMonthly,
		Amount:    Rupees(2000),
		Date:      NewDate(2024, 5, 10),
		Month:     "2024-05",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Payment{
		{FeeType: FeeMonthly, Amount: Rupees(1), Date: NewDate(2024, 5, 1)},
		{StudentID: "s1", FeeType: "Tuition", Amount: Rupees(1), Date: NewDate(2024, 5, 1)},
		{StudentID: "s1", FeeType: FeeOther, Amount: Money{Cents: -1}, Date: NewDate(2024, 5, 1)},
		{StudentID: "s1", FeeType: FeeOther, Amount: Rupees(1)},
		{StudentID: "s1", FeeType: FeeMonthly, Amount: Rupees(1), Date: NewDate(2024, 5, 1), Month: "May"},
	}
	for i, p := range bads {
		if err := p.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestExpenseValidate(t *testing.T) {
	good := Expense{Category: "Utilities", Amount: Rupees(1200), Date: NewDate(2024, 5, 15)}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Expense{Amount: Rupees(1), Date: NewDate(2024, 5, 15)}).Validate(); !errors.Is(err, ErrEmptyCategory) {
		t.Fatalf("expected ErrEmptyCategory, got %v", err)
	}
}

func TestConfigOrgName(t *testing.T) {
	if got := (Config{Name: "  "}).OrgName(); got != DefaultOrgName {
		t.Fatalf("expected default name, got %q", got)
	}
	if got := (Config{Name: "Jamia"}).OrgName(); got != "Jamia" {
		t.Fatalf("expected Jamia, got %q", got)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	cfg.MonthlyDueDate = 0
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidDueDate) {
		t.Fatalf("expected ErrInvalidDueDate, got %v", err)
	}
	cfg = DefaultConfig()
	cfg.AnnualFeeMonth = "13"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for month 13")
	}
}
