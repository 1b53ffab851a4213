// Package memory is an in-process storage.Provider for tests and throwaway sessions.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/storage"
)

type logKey struct {
	habitID string
	date    string
}

type Store struct {
	mu     sync.RWMutex
	habits map[string]models.Habit
	logs   map[logKey]models.HabitLog
	stats  map[string]models.HabitStats
	hub    *storage.Hub

	failWith error
}

func New() *Store {
	return &Store{
		habits: make(map[string]models.Habit),
		logs:   make(map[logKey]models.HabitLog),
		stats:  make(map[string]models.HabitStats),
		hub:    storage.NewHub(),
	}
}

// FailWith makes every subsequent operation fail with err as a StorageError. Pass nil
// to restore normal behaviour.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWith = err
}

func (s *Store) fail(op string) error {
	if s.failWith != nil {
		return errors.Storage(op, s.failWith)
	}
	return nil
}

func (s *Store) Init(ctx context.Context) error { return nil }
func (s *Store) Load(ctx context.Context) error { return nil }

func (s *Store) Close() error {
	s.hub.Close()
	return nil
}

func (s *Store) GetConfigPath() string { return ":memory:" }

func (s *Store) AddHabit(ctx context.Context, habit models.Habit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("add habit"); err != nil {
		return err
	}
	s.habits[habit.ID] = cloneHabit(habit)
	return nil
}

func (s *Store) GetHabit(ctx context.Context, userID, habitID string) (models.Habit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail("get habit"); err != nil {
		return models.Habit{}, err
	}
	h, ok := s.habits[habitID]
	if !ok || h.UserID != userID {
		return models.Habit{}, errors.NotFound("habit", habitID)
	}
	return cloneHabit(h), nil
}

func (s *Store) GetHabits(ctx context.Context, userID string, includeInactive bool) ([]models.Habit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail("list habits"); err != nil {
		return nil, err
	}

	habits := []models.Habit{}
	for _, h := range s.habits {
		if h.UserID != userID || (!h.IsActive && !includeInactive) {
			continue
		}
		habits = append(habits, cloneHabit(h))
	}
	sort.Slice(habits, func(i, j int) bool {
		if habits[i].CreatedAt.Equal(habits[j].CreatedAt) {
			return habits[i].ID < habits[j].ID
		}
		return habits[i].CreatedAt.Before(habits[j].CreatedAt)
	})
	return habits, nil
}

func (s *Store) UpdateHabit(ctx context.Context, habit models.Habit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("update habit"); err != nil {
		return err
	}
	existing, ok := s.habits[habit.ID]
	if !ok || existing.UserID != habit.UserID {
		return errors.NotFound("habit", habit.ID)
	}
	s.habits[habit.ID] = cloneHabit(habit)
	return nil
}

func (s *Store) GetLog(ctx context.Context, userID, habitID, date string) (models.HabitLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail("get log"); err != nil {
		return models.HabitLog{}, err
	}
	l, ok := s.logs[logKey{habitID, date}]
	if !ok || l.UserID != userID {
		return models.HabitLog{}, errors.NotFound("log", habitID+"/"+date)
	}
	return l, nil
}

func (s *Store) GetLogsForHabit(ctx context.Context, userID, habitID string) ([]models.HabitLog, error) {
	logs, err := s.filterLogs("list habit logs", func(l models.HabitLog) bool {
		return l.UserID == userID && l.HabitID == habitID
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(logs, func(i, j int) bool { return logs[i].Date > logs[j].Date })
	return logs, nil
}

func (s *Store) GetLogsForDate(ctx context.Context, userID, date string) ([]models.HabitLog, error) {
	logs, err := s.filterLogs("list logs for date", func(l models.HabitLog) bool {
		return l.UserID == userID && l.Date == date
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(logs, func(i, j int) bool { return logs[i].HabitID < logs[j].HabitID })
	return logs, nil
}

func (s *Store) GetLogsInRange(ctx context.Context, userID, start, end string) ([]models.HabitLog, error) {
	logs, err := s.filterLogs("list logs in range", func(l models.HabitLog) bool {
		return l.UserID == userID && l.Date >= start && l.Date <= end
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(logs, func(i, j int) bool {
		if logs[i].Date == logs[j].Date {
			return logs[i].HabitID < logs[j].HabitID
		}
		return logs[i].Date < logs[j].Date
	})
	return logs, nil
}

func (s *Store) filterLogs(op string, keep func(models.HabitLog) bool) ([]models.HabitLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail(op); err != nil {
		return nil, err
	}
	logs := []models.HabitLog{}
	for _, l := range s.logs {
		if keep(l) {
			logs = append(logs, l)
		}
	}
	return logs, nil
}

func (s *Store) UpsertLog(ctx context.Context, log models.HabitLog) error {
	s.mu.Lock()
	if err := s.fail("upsert log"); err != nil {
		s.mu.Unlock()
		return err
	}
	key := logKey{log.HabitID, log.Date}
	if existing, ok := s.logs[key]; ok {
		log.ID = existing.ID
		log.CreatedAt = existing.CreatedAt
	}
	s.logs[key] = log
	s.mu.Unlock()

	s.hub.Notify(log.UserID, log.Date)
	return nil
}

func (s *Store) DeleteLog(ctx context.Context, userID, habitID, date string) (bool, error) {
	s.mu.Lock()
	if err := s.fail("delete log"); err != nil {
		s.mu.Unlock()
		return false, err
	}
	key := logKey{habitID, date}
	l, ok := s.logs[key]
	if !ok || l.UserID != userID {
		s.mu.Unlock()
		return false, nil
	}
	delete(s.logs, key)
	s.mu.Unlock()

	s.hub.Notify(userID, date)
	return true, nil
}

func (s *Store) SubscribeLogsForDate(ctx context.Context, userID, date string, fn storage.LogsCallback) (storage.Unsubscribe, error) {
	return s.hub.Subscribe(ctx, userID, date, func(ctx context.Context) ([]models.HabitLog, error) {
		return s.GetLogsForDate(ctx, userID, date)
	}, fn)
}

func (s *Store) GetStats(ctx context.Context, userID, habitID string) (models.HabitStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail("get stats"); err != nil {
		return models.HabitStats{}, err
	}
	st, ok := s.stats[habitID]
	if !ok || st.UserID != userID {
		return models.HabitStats{}, errors.NotFound("stats", habitID)
	}
	return st, nil
}

func (s *Store) GetStatsForUser(ctx context.Context, userID string) ([]models.HabitStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail("list stats"); err != nil {
		return nil, err
	}
	stats := []models.HabitStats{}
	for _, st := range s.stats {
		if st.UserID == userID {
			stats = append(stats, st)
		}
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].HabitID < stats[j].HabitID })
	return stats, nil
}

func (s *Store) UpsertStats(ctx context.Context, stats models.HabitStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("upsert stats"); err != nil {
		return err
	}
	s.stats[stats.HabitID] = stats
	return nil
}

func (s *Store) DeleteAllForUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	if err := s.fail("delete user data"); err != nil {
		s.mu.Unlock()
		return err
	}
	for id, h := range s.habits {
		if h.UserID == userID {
			delete(s.habits, id)
		}
	}
	for key, l := range s.logs {
		if l.UserID == userID {
			delete(s.logs, key)
		}
	}
	for id, st := range s.stats {
		if st.UserID == userID {
			delete(s.stats, id)
		}
	}
	s.mu.Unlock()

	s.hub.NotifyUser(userID)
	return nil
}

func cloneHabit(h models.Habit) models.Habit {
	h.Frequency.DaysOfWeek = append([]int(nil), h.Frequency.DaysOfWeek...)
	h.Frequency.DaysOfMonth = append([]int(nil), h.Frequency.DaysOfMonth...)
	return h
}
