// Package stats derives streaks, totals, and completion rates from a habit's logs.
package stats

import (
	"context"
	"math"
	"time"

	"github.com/julianstephens/habitual/internal/clock"
	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/storage"
	"github.com/julianstephens/habitual/internal/utils"
)

// Compute derives the stats record of one habit from its logs. The result depends only
// on the arguments: logs in any order, the calendar day of today, and now as the
// LastUpdated timestamp.
//
// The current streak walks back from today counting completed days. A missed day ends
// the walk; a day with no log is skipped without counting, so an unlogged today does
// not zero yesterday's streak. The walk is bounded to StreakWalkLimit days.
//
// The longest streak scans the history oldest first and only an explicit missed log
// resets the running count; calendar gaps do not.
func Compute(habitID, userID string, logs []models.HabitLog, today time.Time, now time.Time) models.HabitStats {
	st := models.HabitStats{
		HabitID:     habitID,
		UserID:      userID,
		LastUpdated: now,
	}

	byDate := make(map[string]constants.LogStatus, len(logs))
	earliest := ""
	for _, l := range logs {
		switch l.Status {
		case constants.StatusCompleted:
			st.TotalCompleted++
			if l.Date > st.LastCompletedDate {
				st.LastCompletedDate = l.Date
			}
		case constants.StatusMissed:
			st.TotalMissed++
		default:
			continue
		}
		byDate[l.Date] = l.Status
		if earliest == "" || l.Date < earliest {
			earliest = l.Date
		}
	}

	st.CompletionRate = CompletionRate(st.TotalCompleted, st.TotalMissed)
	st.CurrentStreak = currentStreak(byDate, utils.CalendarDate(today), earliest)
	st.LongestStreak = max(longestStreak(logs), st.CurrentStreak)
	return st
}

// CompletionRate returns round(100 * completed / (completed + missed)), halves rounding
// up, or 0 when nothing is logged.
func CompletionRate(completed, missed int) int {
	total := completed + missed
	if total == 0 {
		return 0
	}
	return int(math.Floor(100*float64(completed)/float64(total) + 0.5))
}

func currentStreak(byDate map[string]constants.LogStatus, today time.Time, earliest string) int {
	streak := 0
	for i := 0; i < constants.StreakWalkLimit; i++ {
		date := utils.FormatDate(today.AddDate(0, 0, -i))
		if earliest == "" || date < earliest {
			break
		}
		switch byDate[date] {
		case constants.StatusCompleted:
			streak++
		case constants.StatusMissed:
			return streak
		}
	}
	return streak
}

func longestStreak(logs []models.HabitLog) int {
	ordered := make([]models.HabitLog, len(logs))
	copy(ordered, logs)
	sortChronological(ordered)

	longest, run := 0, 0
	for _, l := range ordered {
		switch l.Status {
		case constants.StatusCompleted:
			run++
			longest = max(longest, run)
		case constants.StatusMissed:
			run = 0
		}
	}
	return longest
}

// Engine recomputes and persists stats records
type Engine struct {
	store storage.Provider
	clock clock.Clock
}

func NewEngine(store storage.Provider, clk clock.Clock) *Engine {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Engine{store: store, clock: clk}
}

// Recompute rebuilds the habit's stats from the stored logs and persists them
func (e *Engine) Recompute(ctx context.Context, habitID, userID string) (models.HabitStats, error) {
	return e.RecomputeWith(ctx, habitID, userID, nil, "")
}

// RecomputeWith is Recompute with the caller's own write overlaid on the loaded history:
// written replaces any stored log for its date and deletedDate drops the log for that
// date. This keeps the result correct on stores whose reads may lag their writes.
func (e *Engine) RecomputeWith(ctx context.Context, habitID, userID string, written *models.HabitLog, deletedDate string) (models.HabitStats, error) {
	logs, err := e.store.GetLogsForHabit(ctx, userID, habitID)
	if err != nil {
		return models.HabitStats{}, err
	}

	logs = overlay(logs, written, deletedDate)

	now := e.clock.Now()
	st := Compute(habitID, userID, logs, now, now)
	if err := e.store.UpsertStats(ctx, st); err != nil {
		return models.HabitStats{}, err
	}

	logger.Debug("Recomputed habit stats",
		"habit", habitID,
		"current_streak", st.CurrentStreak,
		"longest_streak", st.LongestStreak,
		"completion_rate", st.CompletionRate)
	return st, nil
}

func overlay(logs []models.HabitLog, written *models.HabitLog, deletedDate string) []models.HabitLog {
	if written == nil && deletedDate == "" {
		return logs
	}

	out := make([]models.HabitLog, 0, len(logs)+1)
	for _, l := range logs {
		if l.Date == deletedDate || (written != nil && l.Date == written.Date) {
			continue
		}
		out = append(out, l)
	}
	if written != nil {
		out = append(out, *written)
	}
	return out
}
