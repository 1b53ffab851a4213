package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/models"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	completedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	missedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)
)

// StatusMark renders the one-character marker for a day's status
func StatusMark(status constants.LogStatus) string {
	switch status {
	case constants.StatusCompleted:
		return completedStyle.Render("✓")
	case constants.StatusMissed:
		return missedStyle.Render("✗")
	default:
		return mutedStyle.Render("·")
	}
}

// RenderDailyView renders the habits due on date with their status and streaks
func RenderDailyView(date string, views []models.DailyHabitView) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Habits for "+date) + "\n\n")

	if len(views) == 0 {
		b.WriteString(mutedStyle.Render("Nothing due.") + "\n")
		return b.String()
	}

	done := 0
	for _, v := range views {
		if v.Status() == constants.StatusCompleted {
			done++
		}
		fmt.Fprintf(&b, "  %s  %s  %s\n",
			StatusMark(v.Status()),
			nameStyle.Render(v.Name),
			mutedStyle.Render(fmt.Sprintf("streak %d · best %d · %d%%", v.Stats.CurrentStreak, v.Stats.LongestStreak, v.Stats.CompletionRate)),
		)
	}
	fmt.Fprintf(&b, "\n%d/%d done\n", done, len(views))
	return b.String()
}

// RenderStats renders one habit's statistics
func RenderStats(habit models.Habit, st models.HabitStats) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(habit.Name) + " " + mutedStyle.Render(FormatFrequency(habit.Frequency)) + "\n")
	fmt.Fprintf(&b, "  Current streak:  %d\n", st.CurrentStreak)
	fmt.Fprintf(&b, "  Longest streak:  %d\n", st.LongestStreak)
	fmt.Fprintf(&b, "  Completed:       %d\n", st.TotalCompleted)
	fmt.Fprintf(&b, "  Missed:          %d\n", st.TotalMissed)
	fmt.Fprintf(&b, "  Completion rate: %d%%\n", st.CompletionRate)
	last := st.LastCompletedDate
	if last == "" {
		last = "never"
	}
	fmt.Fprintf(&b, "  Last completed:  %s\n", last)
	return b.String()
}

// RenderInsight renders an insight with a marker matching its kind
func RenderInsight(in models.Insight) string {
	marker := mutedStyle.Render("ℹ")
	switch in.Type {
	case models.InsightSuccess, models.InsightAchievement:
		marker = completedStyle.Render("★")
	case models.InsightWarning:
		marker = warningStyle.Render("!")
	}
	return fmt.Sprintf("  %s %s: %s", marker, nameStyle.Render(in.Title), in.Message)
}

// Warn renders a warning line
func Warn(msg string) string {
	return warningStyle.Render("⚠ " + msg)
}
