package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/storage"
	"github.com/julianstephens/habitual/internal/tracker"
	"github.com/julianstephens/habitual/internal/view"
)

// viewsMsg carries a freshly composed daily view from the subscription
type viewsMsg []models.DailyHabitView

// resultMsg reports the outcome of a mark or undo
type resultMsg struct {
	text string
	err  error
}

type Model struct {
	ctx      context.Context
	tracker  *tracker.Service
	userID   string
	date     string
	updates  <-chan []models.DailyHabitView
	keys     KeyMap
	help     help.Model
	habits   []models.DailyHabitView
	cursor   int
	loaded   bool
	status   string
	err      error
	quitting bool
	width    int
}

// NewModel builds the board for date. updates delivers each re-composed view; the model
// waits on it for as long as the program runs.
func NewModel(ctx context.Context, tr *tracker.Service, userID, date string, updates <-chan []models.DailyHabitView) Model {
	return Model{
		ctx:     ctx,
		tracker: tr,
		userID:  userID,
		date:    date,
		updates: updates,
		keys:    DefaultKeyMap(),
		help:    help.New(),
	}
}

func (m Model) Init() tea.Cmd {
	return m.waitForViews()
}

func (m Model) waitForViews() tea.Cmd {
	ctx, updates := m.ctx, m.updates
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return nil
		case views := <-updates:
			return viewsMsg(views)
		}
	}
}

// Selected returns the habit under the cursor
func (m Model) Selected() (models.DailyHabitView, bool) {
	if m.cursor < 0 || m.cursor >= len(m.habits) {
		return models.DailyHabitView{}, false
	}
	return m.habits[m.cursor], true
}

// Subscribe watches date and delivers each re-composed view on the returned channel. Only
// the latest view is kept if the reader falls behind.
func Subscribe(ctx context.Context, views *view.Service, userID, date string) (<-chan []models.DailyHabitView, storage.Unsubscribe, error) {
	updates := make(chan []models.DailyHabitView, 1)
	unsubscribe, err := views.Watch(ctx, userID, date, func(v []models.DailyHabitView) {
		select {
		case <-updates:
		default:
		}
		updates <- v
	})
	if err != nil {
		return nil, nil, err
	}
	return updates, unsubscribe, nil
}

// Run opens the board for date and keeps it in sync with the day's logs until the user
// quits or ctx is done.
func Run(ctx context.Context, tr *tracker.Service, views *view.Service, userID, date string) error {
	updates, unsubscribe, err := Subscribe(ctx, views, userID, date)
	if err != nil {
		return err
	}
	defer unsubscribe()

	p := tea.NewProgram(NewModel(ctx, tr, userID, date, updates), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	if ctx.Err() != nil {
		return nil
	}
	return err
}
