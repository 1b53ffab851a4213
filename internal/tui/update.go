package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/habitual/internal/constants"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case viewsMsg:
		m.habits = msg
		m.loaded = true
		if m.cursor >= len(m.habits) {
			m.cursor = max(len(m.habits)-1, 0)
		}
		return m, m.waitForViews()

	case resultMsg:
		m.err = msg.err
		m.status = msg.text
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.habits)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Done):
		return m, m.mark(constants.StatusCompleted)
	case key.Matches(msg, m.keys.Miss):
		return m, m.mark(constants.StatusMissed)
	case key.Matches(msg, m.keys.Undo):
		return m, m.undo()
	}
	return m, nil
}

// mark writes status for the selected habit. The subscription redelivers the view, so the
// command only reports the outcome.
func (m Model) mark(status constants.LogStatus) tea.Cmd {
	habit, ok := m.Selected()
	if !ok {
		return nil
	}
	ctx, tr, userID, date := m.ctx, m.tracker, m.userID, m.date
	return func() tea.Msg {
		if _, err := tr.SetStatus(ctx, habit.ID, userID, date, status); err != nil {
			return resultMsg{err: err}
		}
		return resultMsg{text: fmt.Sprintf("%s marked %s", habit.Name, status)}
	}
}

func (m Model) undo() tea.Cmd {
	habit, ok := m.Selected()
	if !ok {
		return nil
	}
	ctx, tr, userID, date := m.ctx, m.tracker, m.userID, m.date
	return func() tea.Msg {
		if err := tr.Undo(ctx, habit.ID, userID, date); err != nil {
			return resultMsg{err: err}
		}
		return resultMsg{text: fmt.Sprintf("Cleared %s", habit.Name)}
	}
}
