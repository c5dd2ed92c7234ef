package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	FeeMonthly   FeeType = "Monthly"
	FeeAdmission FeeType = "Admission"
	FeeAnnual    FeeType = "Annual"
	FeeSummer    FeeType = "Summer"
	FeeOther     FeeType = "Other"
)

const (
	StatusActive   StudentStatus = "Active"
	StatusArchived StudentStatus = "Archived"
)

type (
	FeeType       string
	StudentStatus string

	Teacher struct {
		ID    string
		Name  string
		Phone string
	}

	Class struct {
		ID        string
		Name      string
		TeacherID string
	}

	Student struct {
		ID            string
		GRNumber      string
		Name          string
		ParentName    string
		Phone         string
		ClassID       string
		AdmissionDate Date
		MonthlyFee    Money
		Status        StudentStatus
		Discount      Money
	}

	Payment struct {
		ID         string
		StudentID  string
		FeeType    FeeType
		Amount     Money
		Date       Date
		Month      string // YYYY-MM, only meaningful for FeeMonthly
		ReceivedBy string
		Timestamp  time.Time
	}

	Expense struct {
		ID        string
		Category  string
		Amount    Money
		Date      Date
		Notes     string
		Timestamp time.Time
	}

	// Config is the singleton settings row.
	Config struct {
		Name           string
		Address        string
		Phone          string
		AdminName      string
		AdminPhones    []string
		MonthlyDueDate int
		AnnualFeeMonth string
		AnnualFee      Money
	}
)

// DefaultOrgName is used wherever the configured name is missing.
const DefaultOrgName = "Madrassa"

var (
	ErrInvalidPeriod   = errors.New("invalid period")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidFeeType  = errors.New("invalid fee type")
	ErrInvalidStatus   = errors.New("invalid student status")
	ErrEmptyCategory   = errors.New("empty expense category")
	ErrInvalidDueDate  = errors.New("invalid monthly due date")
	ErrEmptyStudentRef = errors.New("empty student reference")
)

// FeeTypes lists fee types in display order.
var FeeTypes = []FeeType{FeeMonthly, FeeAdmission, FeeAnnual, FeeSummer, FeeOther}

func ParseFeeType(s string) (FeeType, error) {
	for _, ft := range FeeTypes {
		if strings.EqualFold(s, string(ft)) {
			return ft, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidFeeType, s)
}

func ParseStudentStatus(s string) (StudentStatus, error) {
	switch {
	case strings.EqualFold(s, string(StatusActive)):
		return StatusActive, nil
	case strings.EqualFold(s, string(StatusArchived)):
		return StatusArchived, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

func (p Payment) Validate() error {
	if strings.TrimSpace(p.StudentID) == "" {
		return ErrEmptyStudentRef
	}
	if _, err := ParseFeeType(string(p.FeeType)); err != nil {
		return err
	}
	if err := p.Amount.Validate(); err != nil {
		return err
	}
	if p.Date.IsZero() {
		return fmt.Errorf("%w: missing payment date", ErrInvalidPeriod)
	}
	if p.Month != "" {
		if _, err := ParseMonth(p.Month); err != nil {
			return err
		}
	}
	return nil
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if e.Date.IsZero() {
		return fmt.Errorf("%w: missing expense date", ErrInvalidPeriod)
	}
	return nil
}

func (s Student) Validate() error {
	if _, err := ParseStudentStatus(string(s.Status)); err != nil {
		return err
	}
	if err := s.MonthlyFee.Validate(); err != nil {
		return err
	}
	return s.Discount.Validate()
}

// OrgName returns the configured display name or DefaultOrgName.
func (c Config) OrgName() string {
	if name := strings.TrimSpace(c.Name); name != "" {
		return name
	}
	return DefaultOrgName
}

func (c Config) Validate() error {
	if c.MonthlyDueDate < 1 || c.MonthlyDueDate > 31 {
		return fmt.Errorf("%w: %d", ErrInvalidDueDate, c.MonthlyDueDate)
	}
	if c.AnnualFeeMonth != "" {
		if len(c.AnnualFeeMonth) != 2 || c.AnnualFeeMonth < "01" || c.AnnualFeeMonth > "12" {
			return fmt.Errorf("invalid annual fee month %q", c.AnnualFeeMonth)
		}
	}
	return c.AnnualFee.Validate()
}

// DefaultConfig mirrors the column defaults of the config table.
func DefaultConfig() Config {
	return Config{
		Name:           "Madrassa Darul Uloom",
		AdminPhones:    []string{},
		MonthlyDueDate: 10,
		AnnualFeeMonth: "05",
	}
}
