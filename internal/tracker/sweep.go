package tracker

import (
	"context"
	"fmt"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/schedule"
	"github.com/julianstephens/habitual/internal/utils"
)

// DetectMissedDays marks yesterday as missed for every active habit that was due then
// and has no log for the day, then recomputes the stats of all active habits so streaks
// reflect the new day. Habits created after yesterday are left alone. It returns the
// number of missed logs written.
func (s *Service) DetectMissedDays(ctx context.Context, userID string) (int, error) {
	now := s.clock.Now()
	yesterday := utils.CalendarDate(now).AddDate(0, 0, -1)
	date := utils.FormatDate(yesterday)

	habits, err := s.store.GetHabits(ctx, userID, false)
	if err != nil {
		return 0, err
	}

	logged, err := s.store.GetLogsForDate(ctx, userID, date)
	if err != nil {
		return 0, err
	}
	seen := make(map[string]bool, len(logged))
	for _, l := range logged {
		seen[l.HabitID] = true
	}

	written := 0
	for _, h := range schedule.DueHabits(habits, yesterday) {
		// Stores may hand CreatedAt back in UTC; compare on the clock's calendar.
		if seen[h.ID] || utils.FormatDate(h.CreatedAt.In(now.Location())) > date {
			continue
		}

		log := models.HabitLog{
			ID:        s.ids.New(),
			HabitID:   h.ID,
			UserID:    userID,
			Date:      date,
			Status:    constants.StatusMissed,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.store.UpsertLog(ctx, log); err != nil {
			return written, err
		}
		s.recorder.LogWritten(constants.StatusMissed)
		written++
		logger.Debug("Marked habit missed", "habit", h.ID, "date", date)
	}

	var errs []error
	for _, h := range habits {
		if _, err := s.recompute(ctx, h.ID, userID, nil, ""); err != nil {
			errs = append(errs, err)
		}
	}

	s.recorder.MissedDaysMarked(written)
	logger.Info("Missed-day sweep complete", "user", userID, "date", date, "marked", written)
	if len(errs) > 0 {
		return written, fmt.Errorf("recompute stats for %d habits: %w", len(errs), errs[0])
	}
	return written, nil
}
