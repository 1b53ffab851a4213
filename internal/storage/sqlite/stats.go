package sqlite

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"

	"github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/models"
)

const statsColumns = `habit_id, user_id, current_streak, longest_streak, total_completed, total_missed,
		       completion_rate, last_completed_date, last_updated`

func (s *Store) GetStats(ctx context.Context, userID, habitID string) (models.HabitStats, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+statsColumns+`
		FROM habit_stats WHERE habit_id = ? AND user_id = ?`, habitID, userID)

	st, err := scanStats(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return models.HabitStats{}, errors.NotFound("stats", habitID)
	}
	if err != nil {
		return models.HabitStats{}, errors.Storage("get stats", err)
	}
	return st, nil
}

func (s *Store) GetStatsForUser(ctx context.Context, userID string) ([]models.HabitStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+statsColumns+`
		FROM habit_stats WHERE user_id = ? ORDER BY habit_id`, userID)
	if err != nil {
		return nil, errors.Storage("list stats", err)
	}
	defer rows.Close()

	stats := []models.HabitStats{}
	for rows.Next() {
		st, err := scanStats(rows)
		if err != nil {
			return nil, errors.Storage("list stats", err)
		}
		stats = append(stats, st)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Storage("list stats", err)
	}
	return stats, nil
}

func (s *Store) UpsertStats(ctx context.Context, stats models.HabitStats) error {
	var lastCompleted sql.NullString
	if stats.LastCompletedDate != "" {
		lastCompleted = sql.NullString{String: stats.LastCompletedDate, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO habit_stats (`+statsColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(habit_id) DO UPDATE SET
			user_id = excluded.user_id,
			current_streak = excluded.current_streak,
			longest_streak = excluded.longest_streak,
			total_completed = excluded.total_completed,
			total_missed = excluded.total_missed,
			completion_rate = excluded.completion_rate,
			last_completed_date = excluded.last_completed_date,
			last_updated = excluded.last_updated`,
		stats.HabitID, stats.UserID, stats.CurrentStreak, stats.LongestStreak, stats.TotalCompleted,
		stats.TotalMissed, stats.CompletionRate, lastCompleted, formatTime(stats.LastUpdated))
	return errors.Storage("upsert stats", err)
}

func scanStats(row scanner) (models.HabitStats, error) {
	var st models.HabitStats
	var lastCompleted sql.NullString
	var lastUpdated string

	err := row.Scan(&st.HabitID, &st.UserID, &st.CurrentStreak, &st.LongestStreak, &st.TotalCompleted,
		&st.TotalMissed, &st.CompletionRate, &lastCompleted, &lastUpdated)
	if err != nil {
		return models.HabitStats{}, err
	}

	if lastCompleted.Valid {
		st.LastCompletedDate = lastCompleted.String
	}
	if st.LastUpdated, err = parseTime(lastUpdated); err != nil {
		return models.HabitStats{}, fmt.Errorf("failed to parse last_updated for habit %s: %w", st.HabitID, err)
	}
	return st, nil
}
