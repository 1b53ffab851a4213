package validation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/utils"
)

// IssueType represents the type of validation issue
type IssueType string

const (
	IssueEmptyName          IssueType = "empty_name"
	IssueNameTooLong        IssueType = "name_too_long"
	IssueInvalidColor       IssueType = "invalid_color"
	IssueUnknownFrequency   IssueType = "unknown_frequency"
	IssueDayOutOfRange      IssueType = "day_out_of_range"
	IssueEmptyDaySet        IssueType = "empty_day_set"
	IssueDuplicateDay       IssueType = "duplicate_day"
	IssueDuplicateName      IssueType = "duplicate_habit_name"
	IssueUnreachableMonthly IssueType = "unreachable_monthly_day"
)

var colorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Issue is a single problem found in a habit. Errors reject the habit, warnings do not.
type Issue struct {
	Type        IssueType
	Field       string
	Description string
	HabitID     string
}

// Result contains all detected issues
type Result struct {
	Errors   []Issue
	Warnings []Issue
}

func (r *Result) HasErrors() bool   { return len(r.Errors) > 0 }
func (r *Result) HasWarnings() bool { return len(r.Warnings) > 0 }

// Err returns the first error as a ValidationError, or nil when the habit is acceptable
func (r *Result) Err() error {
	if !r.HasErrors() {
		return nil
	}
	first := r.Errors[0]
	return errors.Validation(first.Field, "%s", first.Description)
}

// WarningMessages returns the descriptions of all warnings
func (r *Result) WarningMessages() []string {
	msgs := make([]string, 0, len(r.Warnings))
	for _, w := range r.Warnings {
		msgs = append(msgs, w.Description)
	}
	return msgs
}

// FormatReport returns a human-readable report of all issues
func (r *Result) FormatReport() string {
	if !r.HasErrors() && !r.HasWarnings() {
		return "No issues detected."
	}

	var b strings.Builder
	if r.HasErrors() {
		b.WriteString("Errors:\n")
		for _, issue := range r.Errors {
			fmt.Fprintf(&b, "- %s\n", issue.Description)
		}
	}
	if r.HasWarnings() {
		b.WriteString("Warnings:\n")
		for _, issue := range r.Warnings {
			fmt.Fprintf(&b, "- %s\n", issue.Description)
		}
	}
	return b.String()
}

func (r *Result) addError(issue Issue)   { r.Errors = append(r.Errors, issue) }
func (r *Result) addWarning(issue Issue) { r.Warnings = append(r.Warnings, issue) }

// Validator validates habits and log input
type Validator struct{}

// New creates a new Validator
func New() *Validator {
	return &Validator{}
}

// ValidateHabit checks a single habit's fields and frequency
func (v *Validator) ValidateHabit(habit models.Habit) Result {
	var result Result

	name := strings.TrimSpace(habit.Name)
	if name == "" {
		result.addError(Issue{
			Type:        IssueEmptyName,
			Field:       "name",
			Description: "habit name must not be empty",
			HabitID:     habit.ID,
		})
	} else if len(name) > constants.MaxHabitNameLength {
		result.addError(Issue{
			Type:        IssueNameTooLong,
			Field:       "name",
			Description: fmt.Sprintf("habit name must be at most %d characters", constants.MaxHabitNameLength),
			HabitID:     habit.ID,
		})
	}

	if habit.Color != "" && !colorPattern.MatchString(habit.Color) {
		result.addError(Issue{
			Type:        IssueInvalidColor,
			Field:       "color",
			Description: fmt.Sprintf("color %q must be a hex value like %s", habit.Color, constants.DefaultHabitColor),
			HabitID:     habit.ID,
		})
	}

	v.validateFrequency(habit, &result)
	return result
}

func (v *Validator) validateFrequency(habit models.Habit, result *Result) {
	freq := habit.Frequency
	switch freq.Type {
	case "", constants.FrequencyDaily:
		return
	case constants.FrequencyWeekly:
		checkDays(habit, freq.DaysOfWeek, 0, 6, "days_of_week", "weekly", result)
	case constants.FrequencyMonthly:
		checkDays(habit, freq.DaysOfMonth, 1, 31, "days_of_month", "monthly", result)
		if len(freq.DaysOfMonth) > 0 && allAbove(freq.DaysOfMonth, 28) {
			result.addWarning(Issue{
				Type:        IssueUnreachableMonthly,
				Field:       "days_of_month",
				Description: "habit only falls on days after the 28th and will be skipped in shorter months",
				HabitID:     habit.ID,
			})
		}
	default:
		result.addError(Issue{
			Type:        IssueUnknownFrequency,
			Field:       "frequency",
			Description: fmt.Sprintf("unknown frequency %q (expected daily, weekly or monthly)", freq.Type),
			HabitID:     habit.ID,
		})
	}
}

func checkDays(habit models.Habit, days []int, lo, hi int, field, kind string, result *Result) {
	if len(days) == 0 {
		result.addWarning(Issue{
			Type:        IssueEmptyDaySet,
			Field:       field,
			Description: fmt.Sprintf("%s habit has no days selected and will never be due", kind),
			HabitID:     habit.ID,
		})
		return
	}

	seen := make(map[int]bool, len(days))
	for _, d := range days {
		if d < lo || d > hi {
			result.addError(Issue{
				Type:        IssueDayOutOfRange,
				Field:       field,
				Description: fmt.Sprintf("day %d is outside %d-%d", d, lo, hi),
				HabitID:     habit.ID,
			})
			continue
		}
		if seen[d] {
			result.addWarning(Issue{
				Type:        IssueDuplicateDay,
				Field:       field,
				Description: fmt.Sprintf("day %d is listed more than once", d),
				HabitID:     habit.ID,
			})
		}
		seen[d] = true
	}
}

func allAbove(days []int, n int) bool {
	for _, d := range days {
		if d <= n {
			return false
		}
	}
	return true
}

// ValidateHabits validates every habit and reports active habits sharing a name
func (v *Validator) ValidateHabits(habits []models.Habit) Result {
	var result Result
	byName := make(map[string][]string)

	for _, h := range habits {
		r := v.ValidateHabit(h)
		result.Errors = append(result.Errors, r.Errors...)
		result.Warnings = append(result.Warnings, r.Warnings...)
		if h.IsActive {
			key := strings.ToLower(strings.TrimSpace(h.Name))
			byName[key] = append(byName[key], h.ID)
		}
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		ids := byName[name]
		if name == "" || len(ids) < 2 {
			continue
		}
		result.addWarning(Issue{
			Type:        IssueDuplicateName,
			Field:       "name",
			Description: fmt.Sprintf("%d active habits are named %q", len(ids), name),
			HabitID:     ids[0],
		})
	}
	return result
}

// NormalizeFrequency sorts and de-duplicates day sets and fills in the daily default
func NormalizeFrequency(freq models.Frequency) models.Frequency {
	if freq.Type == "" {
		freq.Type = constants.FrequencyDaily
	}
	switch freq.Type {
	case constants.FrequencyDaily:
		freq.DaysOfWeek = nil
		freq.DaysOfMonth = nil
	case constants.FrequencyWeekly:
		freq.DaysOfWeek = uniqueSorted(freq.DaysOfWeek)
		freq.DaysOfMonth = nil
	case constants.FrequencyMonthly:
		freq.DaysOfMonth = uniqueSorted(freq.DaysOfMonth)
		freq.DaysOfWeek = nil
	}
	return freq
}

func uniqueSorted(days []int) []int {
	if days == nil {
		return nil
	}
	out := make([]int, 0, len(days))
	seen := make(map[int]bool, len(days))
	for _, d := range days {
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	sort.Ints(out)
	return out
}

// ValidateLogInput checks a status write: only completed and missed are storable
func ValidateLogInput(date string, status constants.LogStatus) error {
	if !utils.ValidateDateFormat(date) {
		return errors.Validation("date", "%q is not a valid YYYY-MM-DD date", date)
	}
	switch status {
	case constants.StatusCompleted, constants.StatusMissed:
		return nil
	case constants.StatusPending:
		return errors.Validation("status", "pending is not stored; undo the log instead")
	default:
		return errors.Validation("status", "unknown status %q (expected completed or missed)", status)
	}
}

// ValidateDate checks a YYYY-MM-DD date argument
func ValidateDate(date string) error {
	if !utils.ValidateDateFormat(date) {
		return errors.Validation("date", "%q is not a valid YYYY-MM-DD date", date)
	}
	return nil
}
