package storage

import (
	"context"

	"github.com/julianstephens/habitual/internal/models"
)

// LogsCallback receives the complete set of logs for a subscribed (user, date).
type LogsCallback func(logs []models.HabitLog)

// Unsubscribe stops a subscription. No callback starts after it returns. It is safe to
// call more than once but must not be called from inside the subscription's callback;
// cancel the subscription context there instead.
type Unsubscribe func()

// Provider is the persistence contract the core depends on. Missing records are reported
// as errors.NotFoundError and backend failures as errors.StorageError.
type Provider interface {
	// Lifecycle
	Init(ctx context.Context) error
	Load(ctx context.Context) error
	Close() error

	// Habits
	AddHabit(ctx context.Context, habit models.Habit) error
	GetHabit(ctx context.Context, userID, habitID string) (models.Habit, error)
	// GetHabits returns the user's habits ordered by creation time.
	GetHabits(ctx context.Context, userID string, includeInactive bool) ([]models.Habit, error)
	UpdateHabit(ctx context.Context, habit models.Habit) error

	// Logs
	GetLog(ctx context.Context, userID, habitID, date string) (models.HabitLog, error)
	// GetLogsForHabit returns every log of one habit, newest date first.
	GetLogsForHabit(ctx context.Context, userID, habitID string) ([]models.HabitLog, error)
	GetLogsForDate(ctx context.Context, userID, date string) ([]models.HabitLog, error)
	// GetLogsInRange returns the user's logs with start <= date <= end, oldest first.
	GetLogsInRange(ctx context.Context, userID, start, end string) ([]models.HabitLog, error)
	// UpsertLog inserts or replaces the log for (HabitID, Date). An existing record keeps
	// its id and created_at.
	UpsertLog(ctx context.Context, log models.HabitLog) error
	// DeleteLog removes the log for (habitID, date) and reports whether one existed.
	DeleteLog(ctx context.Context, userID, habitID, date string) (bool, error)
	// SubscribeLogsForDate delivers the logs for (userID, date) once immediately and again
	// after every change. Delivery stops on Unsubscribe or when ctx is cancelled.
	SubscribeLogsForDate(ctx context.Context, userID, date string, fn LogsCallback) (Unsubscribe, error)

	// Stats
	GetStats(ctx context.Context, userID, habitID string) (models.HabitStats, error)
	GetStatsForUser(ctx context.Context, userID string) ([]models.HabitStats, error)
	UpsertStats(ctx context.Context, stats models.HabitStats) error

	// DeleteAllForUser removes every habit, log, and stats record owned by userID.
	DeleteAllForUser(ctx context.Context, userID string) error

	// Utils
	GetConfigPath() string
}
