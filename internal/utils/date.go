package utils

import (
	"fmt"
	"time"

	"github.com/julianstephens/habitual/internal/constants"
)

// ParseDate parses a calendar date (YYYY-MM-DD) as midnight UTC. Calendar arithmetic is
// done in UTC so day shifts never cross a DST boundary.
func ParseDate(dateStr string) (time.Time, error) {
	t, err := time.Parse(constants.DateFormat, dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", dateStr, err)
	}
	return t, nil
}

// FormatDate formats t as a calendar date using t's own zone.
func FormatDate(t time.Time) string {
	return t.Format(constants.DateFormat)
}

// CalendarDate strips the clock time from t, keeping the calendar day as seen in t's
// zone, and returns it as midnight UTC.
func CalendarDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ValidateDateFormat checks if the string is a real calendar date in YYYY-MM-DD form.
func ValidateDateFormat(dateStr string) bool {
	_, err := ParseDate(dateStr)
	return err == nil
}

// WeekStart returns the Sunday on or before t.
func WeekStart(t time.Time) time.Time {
	d := CalendarDate(t)
	return d.AddDate(0, 0, -int(d.Weekday()))
}

// MonthStart returns the first day of t's month.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(CalendarDate(b).Sub(CalendarDate(a)).Hours() / 24)
}
