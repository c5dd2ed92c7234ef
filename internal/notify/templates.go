package notify

import (
	"encoding/json"
	"fmt"
	"strings"

	"madrassa/internal/core"
	"madrassa/internal/reports"
)

// EventKind identifies a notification template.
type EventKind string

const (
	EventStudentCreated  EventKind = "STUDENT_CREATED"
	EventPaymentReceived EventKind = "PAYMENT_RECEIVED"
	EventFeeReminder     EventKind = "FEE_REMINDER"
	EventAnnouncement    EventKind = "ANNOUNCEMENT"
)

// Event is a renderable notification with its own recipients.
type Event interface {
	Kind() EventKind
	Recipients() []string
	Render(orgName string, f *reports.Formatter) string
}

type StudentInfo struct {
	Name       string     `json:"name" validate:"required"`
	GRNumber   string     `json:"grNumber" validate:"required"`
	ParentName string     `json:"parentName"`
	Phone      string     `json:"phone"`
	MonthlyFee core.Money `json:"monthlyFee"`
}

type StudentCreated struct {
	Student   StudentInfo `json:"student" validate:"required"`
	ClassName string      `json:"className,omitempty"`
}

type PaymentInfo struct {
	Amount  core.Money `json:"amount"`
	FeeType string     `json:"feeType" validate:"required"`
	Date    string     `json:"date" validate:"required"`
	Month   string     `json:"month,omitempty"`
}

type PaymentReceived struct {
	Payment PaymentInfo `json:"payment" validate:"required"`
	Student StudentInfo `json:"student" validate:"required"`
}

type FeeReminder struct {
	Student StudentInfo `json:"student" validate:"required"`
	Month   string      `json:"month" validate:"required"`
	DueDate int         `json:"dueDate" validate:"min=1,max=31"`
}

type Announcement struct {
	Message string   `json:"message" validate:"required"`
	Phones  []string `json:"phones" validate:"required,min=1"`
}

func (StudentCreated) Kind() EventKind  { return EventStudentCreated }
func (PaymentReceived) Kind() EventKind { return EventPaymentReceived }
func (FeeReminder) Kind() EventKind     { return EventFeeReminder }
func (Announcement) Kind() EventKind    { return EventAnnouncement }

func (e StudentCreated) Recipients() []string  { return []string{e.Student.Phone} }
func (e PaymentReceived) Recipients() []string { return []string{e.Student.Phone} }
func (e FeeReminder) Recipients() []string     { return []string{e.Student.Phone} }
func (e Announcement) Recipients() []string    { return e.Phones }

func (e StudentCreated) Render(orgName string, f *reports.Formatter) string {
	lines := []string{
		fmt.Sprintf("🎓 *Welcome to %s!*", orgName),
		"",
		fmt.Sprintf("Assalamu Alaikum %s,", e.Student.ParentName),
		"",
		fmt.Sprintf("Your child *%s* has been enrolled successfully.", e.Student.Name),
		"",
		"📋 *Details:*",
		"• GR Number: " + e.Student.GRNumber,
	}
	if e.ClassName != "" {
		lines = append(lines, "• Class: "+e.ClassName)
	}
	lines = append(lines,
		fmt.Sprintf("• Monthly Fee: %s %s", reports.CurrencyLabel, f.Amount(e.Student.MonthlyFee)),
		"",
		"JazakAllah Khair for choosing us.",
	)
	return strings.Join(lines, "\n") + reports.Footer(orgName)
}

func (e PaymentReceived) Render(orgName string, f *reports.Formatter) string {
	lines := []string{
		"✅ *Payment Received*",
		"",
		"Assalamu Alaikum,",
		"",
		fmt.Sprintf("We have received your payment for *%s*.", e.Student.Name),
		"",
		"📋 *Details:*",
		fmt.Sprintf("• Amount: %s %s", reports.CurrencyLabel, f.Amount(e.Payment.Amount)),
		"• Type: " + e.Payment.FeeType,
		"• Date: " + e.Payment.Date,
	}
	if e.Payment.Month != "" {
		lines = append(lines, "• For Month: "+e.Payment.Month)
	}
	lines = append(lines, "", "JazakAllah Khair.")
	return strings.Join(lines, "\n") + reports.Footer(orgName)
}

func (e FeeReminder) Render(orgName string, f *reports.Formatter) string {
	monthName := e.Month
	if m, err := core.ParseMonth(e.Month); err == nil {
		monthName = m.Title()
	}
	lines := []string{
		"📢 *Fee Reminder*",
		"",
		"Assalamu Alaikum,",
		"",
		fmt.Sprintf("This is a gentle reminder that the fee for *%s* (%s) for %s is pending.",
			e.Student.Name, e.Student.GRNumber, monthName),
		"",
		fmt.Sprintf("• Amount Due: %s %s", reports.CurrencyLabel, f.Amount(e.Student.MonthlyFee)),
		fmt.Sprintf("• Due Date: %dth of the month", e.DueDate),
		"",
		"Please pay at your earliest convenience.",
		"",
		"JazakAllah Khair.",
	}
	return strings.Join(lines, "\n") + reports.Footer(orgName)
}

func (e Announcement) Render(orgName string, _ *reports.Formatter) string {
	return strings.Join([]string{"📢 *Announcement*", "", e.Message}, "\n") + reports.Footer(orgName)
}

// DecodeEvent builds a typed event from its wire name and JSON payload.
func DecodeEvent(kind string, data json.RawMessage) (Event, error) {
	var ev Event
	switch EventKind(kind) {
	case EventStudentCreated:
		var e StudentCreated
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
		}
		ev = e
	case EventPaymentReceived:
		var e PaymentReceived
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
		}
		ev = e
	case EventFeeReminder:
		var e FeeReminder
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
		}
		ev = e
	case EventAnnouncement:
		var e Announcement
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
		}
		ev = e
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, kind)
	}
	return ev, nil
}
