// Package view composes the per-day habit list shown to the user.
package view

import (
	"context"
	"time"

	"github.com/julianstephens/habitual/internal/clock"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/schedule"
	"github.com/julianstephens/habitual/internal/stats"
	"github.com/julianstephens/habitual/internal/storage"
	"github.com/julianstephens/habitual/internal/utils"
	"github.com/julianstephens/habitual/internal/validation"
)

// BuildDailyView returns one entry per active habit due on date, in the order the habits
// were given. Each entry carries the habit's log for date (nil when pending) and its
// stats, or an empty stats record if none has been computed yet.
func BuildDailyView(habits []models.Habit, logsForDate []models.HabitLog, statsByHabit map[string]models.HabitStats, date time.Time) []models.DailyHabitView {
	day := utils.FormatDate(date)
	logs := make(map[string]models.HabitLog, len(logsForDate))
	for _, l := range logsForDate {
		if l.Date == day {
			logs[l.HabitID] = l
		}
	}

	views := []models.DailyHabitView{}
	for _, h := range schedule.DueHabits(habits, date) {
		v := models.DailyHabitView{Habit: h}
		if l, ok := logs[h.ID]; ok {
			v.TodayLog = &l
		}
		if st, ok := statsByHabit[h.ID]; ok {
			v.Stats = st
		} else {
			v.Stats = models.EmptyStats(h)
		}
		views = append(views, v)
	}
	return views
}

// StatsByHabit indexes stats records by habit id
func StatsByHabit(records []models.HabitStats) map[string]models.HabitStats {
	out := make(map[string]models.HabitStats, len(records))
	for _, st := range records {
		out[st.HabitID] = st
	}
	return out
}

type Service struct {
	store storage.Provider
	clock clock.Clock
}

func NewService(store storage.Provider, clk clock.Clock) *Service {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Service{store: store, clock: clk}
}

// Today loads the user's habits, the logs for date, and the stored stats, and composes
// the daily view. An empty date means today.
func (s *Service) Today(ctx context.Context, userID, date string) ([]models.DailyHabitView, error) {
	day, err := s.resolve(date)
	if err != nil {
		return nil, err
	}

	habits, err := s.store.GetHabits(ctx, userID, false)
	if err != nil {
		return nil, err
	}
	logs, err := s.store.GetLogsForDate(ctx, userID, utils.FormatDate(day))
	if err != nil {
		return nil, err
	}
	records, err := s.store.GetStatsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return BuildDailyView(habits, logs, StatsByHabit(records), day), nil
}

// Watch delivers the daily view for date now and again after every change to that
// day's logs, until the returned func is called or ctx is done. Stats in pushed views
// are derived from each habit's log history at push time, so they never trail the log
// change that triggered the push.
func (s *Service) Watch(ctx context.Context, userID, date string, fn func([]models.DailyHabitView)) (storage.Unsubscribe, error) {
	day, err := s.resolve(date)
	if err != nil {
		return nil, err
	}

	return s.store.SubscribeLogsForDate(ctx, userID, utils.FormatDate(day), func(logs []models.HabitLog) {
		views, err := s.compose(ctx, userID, logs, day)
		if err != nil {
			logger.Error("Failed to refresh daily view", "user", userID, "date", utils.FormatDate(day), "error", err)
			return
		}
		fn(views)
	})
}

func (s *Service) compose(ctx context.Context, userID string, logs []models.HabitLog, day time.Time) ([]models.DailyHabitView, error) {
	habits, err := s.store.GetHabits(ctx, userID, false)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	records := make(map[string]models.HabitStats)
	for _, h := range schedule.DueHabits(habits, day) {
		history, err := s.store.GetLogsForHabit(ctx, userID, h.ID)
		if err != nil {
			return nil, err
		}
		records[h.ID] = stats.Compute(h.ID, userID, history, now, now)
	}

	return BuildDailyView(habits, logs, records, day), nil
}

func (s *Service) resolve(date string) (time.Time, error) {
	if date == "" {
		return utils.CalendarDate(s.clock.Now()), nil
	}
	if err := validation.ValidateDate(date); err != nil {
		return time.Time{}, err
	}
	return utils.ParseDate(date)
}
