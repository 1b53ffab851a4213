package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/models"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch {
	case !m.loaded:
		content = mutedStyle.Render("Loading...")
	case len(m.habits) == 0:
		content = mutedStyle.Render("Nothing due.")
	default:
		content = m.viewHabits()
	}

	var footer string
	switch {
	case m.err != nil:
		footer = dangerStyle.Render("Error: " + m.err.Error())
	case m.status != "":
		footer = mutedStyle.Render(m.status)
	}

	ui := lipgloss.JoinVertical(
		lipgloss.Left,
		titleStyle.Render("Habits for "+m.date),
		content,
		"",
		footer,
		m.help.View(m.keys),
	)
	return docStyle.Render(ui)
}

func (m Model) viewHabits() string {
	var b strings.Builder
	done := 0
	for i, h := range m.habits {
		if h.Status() == constants.StatusCompleted {
			done++
		}

		cursor := "  "
		name := h.Name
		if i == m.cursor {
			cursor = "> "
			name = selectedStyle.Render(name)
		}
		fmt.Fprintf(&b, "%s%s %s  %s\n", cursor, statusMark(h), name,
			mutedStyle.Render(fmt.Sprintf("streak %d · best %d", h.Stats.CurrentStreak, h.Stats.LongestStreak)))
	}
	fmt.Fprintf(&b, "\n%d/%d done", done, len(m.habits))
	return b.String()
}

func statusMark(h models.DailyHabitView) string {
	switch h.Status() {
	case constants.StatusCompleted:
		return completedStyle.Render("✓")
	case constants.StatusMissed:
		return missedStyle.Render("✗")
	default:
		return mutedStyle.Render("·")
	}
}
