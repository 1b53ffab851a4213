// Package schedule decides whether a habit is due on a calendar date.
package schedule

import (
	"time"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/utils"
)

// IsDue reports whether the habit's frequency schedules it on date. Only the calendar
// day of date (in its own zone) is considered.
//
// A missing or unrecognised frequency is treated as daily. Weekly and monthly rules
// with an empty day set are never due. A monthly day that does not exist in the
// month (e.g. the 31st in April) does not roll over.
func IsDue(habit models.Habit, date time.Time) bool {
	freq := habit.Frequency
	switch freq.Type {
	case constants.FrequencyWeekly:
		return contains(freq.DaysOfWeek, int(date.Weekday()))
	case constants.FrequencyMonthly:
		return contains(freq.DaysOfMonth, date.Day())
	default:
		return true
	}
}

// IsDueOn is IsDue for a YYYY-MM-DD date string. Malformed dates are never due.
func IsDueOn(habit models.Habit, dateStr string) bool {
	date, err := utils.ParseDate(dateStr)
	if err != nil {
		return false
	}
	return IsDue(habit, date)
}

// DueHabits returns the active habits due on date, preserving input order.
func DueHabits(habits []models.Habit, date time.Time) []models.Habit {
	due := make([]models.Habit, 0, len(habits))
	for _, h := range habits {
		if h.IsActive && IsDue(h, date) {
			due = append(due, h)
		}
	}
	return due
}

func contains(days []int, day int) bool {
	for _, d := range days {
		if d == day {
			return true
		}
	}
	return false
}
