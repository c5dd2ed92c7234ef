// Package services provides business logic and orchestration services.
//
// This file implements the strategy pattern for choosing which report the
// daily scheduled run sends. Each schedule decides whether it applies to a
// given day and which period it covers.
package services

import (
	"time"

	"madrassa/internal/core"
	"madrassa/internal/reports"
)

// Schedule is the strategy interface for the scheduled report run.
type Schedule interface {
	Kind() reports.Kind
	// Applies reports whether this schedule fires on today.
	Applies(today core.Date) bool
	// Period returns the period string the report covers.
	Period(today core.Date) string
}

// MonthlySchedule fires on the first of the month for the month just ended.
type MonthlySchedule struct{}

func (MonthlySchedule) Kind() reports.Kind { return reports.KindMonthly }

func (MonthlySchedule) Applies(today core.Date) bool { return today.Day() == 1 }

func (MonthlySchedule) Period(today core.Date) string {
	return today.Month().Previous().String()
}

// WeeklySchedule fires on Saturday for the seven days ending today.
type WeeklySchedule struct{}

func (WeeklySchedule) Kind() reports.Kind { return reports.KindWeekly }

func (WeeklySchedule) Applies(today core.Date) bool { return today.Weekday() == time.Saturday }

func (WeeklySchedule) Period(today core.Date) string { return today.String() }

// DailySchedule covers today. It always applies.
type DailySchedule struct{}

func (DailySchedule) Kind() reports.Kind { return reports.KindDaily }

func (DailySchedule) Applies(core.Date) bool { return true }

func (DailySchedule) Period(today core.Date) string { return today.String() }

// schedules in priority order. The last entry must always apply.
var schedules = []Schedule{
	MonthlySchedule{},
	WeeklySchedule{},
	DailySchedule{},
}

// SelectSchedule returns the first schedule that applies to today.
func SelectSchedule(today core.Date) Schedule {
	for _, s := range schedules {
		if s.Applies(today) {
			return s
		}
	}
	return DailySchedule{}
}
