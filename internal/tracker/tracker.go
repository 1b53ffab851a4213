// Package tracker records habit outcomes and manages the habit lifecycle. Every write
// that changes a habit's log history recomputes that habit's stats before returning.
package tracker

import (
	"context"
	"time"

	"github.com/julianstephens/habitual/internal/clock"
	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/stats"
	"github.com/julianstephens/habitual/internal/storage"
	"github.com/julianstephens/habitual/internal/validation"
)

// Recorder receives domain events for instrumentation
type Recorder interface {
	LogWritten(status constants.LogStatus)
	LogUndone()
	StatsRecomputed(elapsed time.Duration, err error)
	MissedDaysMarked(n int)
}

type nopRecorder struct{}

func (nopRecorder) LogWritten(constants.LogStatus)       {}
func (nopRecorder) LogUndone()                           {}
func (nopRecorder) StatsRecomputed(time.Duration, error) {}
func (nopRecorder) MissedDaysMarked(int)                 {}

type Service struct {
	store     storage.Provider
	engine    *stats.Engine
	clock     clock.Clock
	ids       clock.IDGenerator
	validator *validation.Validator
	recorder  Recorder
}

type Option func(*Service)

func WithClock(c clock.Clock) Option {
	return func(s *Service) { s.clock = c }
}

func WithIDGenerator(g clock.IDGenerator) Option {
	return func(s *Service) { s.ids = g }
}

func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

func New(store storage.Provider, opts ...Option) *Service {
	s := &Service{
		store:     store,
		clock:     clock.RealClock{},
		ids:       clock.UUIDGenerator{},
		validator: validation.New(),
		recorder:  nopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.engine = stats.NewEngine(store, s.clock)
	return s
}

// Stats exposes the engine sharing this service's store and clock
func (s *Service) Stats() *stats.Engine {
	return s.engine
}

// SetStatus records status for the habit on date, overwriting any earlier log for that
// day, and recomputes the habit's stats with the new log included. Only completed and
// missed can be stored; use Undo to return a day to pending.
func (s *Service) SetStatus(ctx context.Context, habitID, userID, date string, status constants.LogStatus) (models.HabitLog, error) {
	if err := validation.ValidateLogInput(date, status); err != nil {
		return models.HabitLog{}, err
	}
	if _, err := s.store.GetHabit(ctx, userID, habitID); err != nil {
		return models.HabitLog{}, err
	}

	now := s.clock.Now()
	log, err := s.store.GetLog(ctx, userID, habitID, date)
	switch {
	case err == nil:
		log.Status = status
		log.UpdatedAt = now
	case errors.IsNotFound(err):
		log = models.HabitLog{
			ID:        s.ids.New(),
			HabitID:   habitID,
			UserID:    userID,
			Date:      date,
			Status:    status,
			CreatedAt: now,
			UpdatedAt: now,
		}
	default:
		return models.HabitLog{}, err
	}

	if err := s.store.UpsertLog(ctx, log); err != nil {
		return models.HabitLog{}, err
	}
	s.recorder.LogWritten(status)
	logger.Info("Logged habit", "habit", habitID, "date", date, "status", status)

	if _, err := s.recompute(ctx, habitID, userID, &log, ""); err != nil {
		return log, err
	}
	return log, nil
}

// Undo deletes the habit's log for date, returning the day to pending. A day that was
// never logged is not an error. Stats are recomputed either way.
func (s *Service) Undo(ctx context.Context, habitID, userID, date string) error {
	if err := validation.ValidateDate(date); err != nil {
		return err
	}
	if _, err := s.store.GetHabit(ctx, userID, habitID); err != nil {
		return err
	}

	deleted, err := s.store.DeleteLog(ctx, userID, habitID, date)
	if err != nil {
		return err
	}
	if deleted {
		s.recorder.LogUndone()
		logger.Info("Undid habit log", "habit", habitID, "date", date)
	} else {
		logger.Debug("Nothing to undo", "habit", habitID, "date", date)
	}

	_, err = s.recompute(ctx, habitID, userID, nil, date)
	return err
}

// Recompute rebuilds one habit's stats from its stored logs
func (s *Service) Recompute(ctx context.Context, habitID, userID string) (models.HabitStats, error) {
	if _, err := s.store.GetHabit(ctx, userID, habitID); err != nil {
		return models.HabitStats{}, err
	}
	return s.recompute(ctx, habitID, userID, nil, "")
}

func (s *Service) recompute(ctx context.Context, habitID, userID string, written *models.HabitLog, deleted string) (models.HabitStats, error) {
	start := time.Now()
	st, err := s.engine.RecomputeWith(ctx, habitID, userID, written, deleted)
	s.recorder.StatsRecomputed(time.Since(start), err)
	if err != nil {
		logger.Error("Failed to recompute stats", "habit", habitID, "error", err)
		return models.HabitStats{}, err
	}
	return st, nil
}

// ResetAll permanently deletes every habit, log, and stats record of the user. Other
// users are untouched. This is separate from DeleteHabit, which only deactivates.
func (s *Service) ResetAll(ctx context.Context, userID string) error {
	if err := s.store.DeleteAllForUser(ctx, userID); err != nil {
		logger.Error("Bulk reset failed", "user", userID, "error", err)
		return err
	}
	logger.Info("Deleted all habit data", "user", userID)
	return nil
}
