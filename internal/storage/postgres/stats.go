package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/models"
)

const statsColumns = `habit_id, user_id, current_streak, longest_streak, total_completed, total_missed,
		       completion_rate, to_char(last_completed_date, 'YYYY-MM-DD'), last_updated`

func (s *Store) GetStats(ctx context.Context, userID, habitID string) (models.HabitStats, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+statsColumns+`
		FROM habit_stats WHERE habit_id = $1 AND user_id = $2`, habitID, userID)

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
		FROM habit_stats WHERE user_id = $1 ORDER BY habit_id`, userID)
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
		INSERT INTO habit_stats (habit_id, user_id, current_streak, longest_streak, total_completed,
			total_missed, completion_rate, last_completed_date, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (habit_id) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			current_streak = EXCLUDED.current_streak,
			longest_streak = EXCLUDED.longest_streak,
			total_completed = EXCLUDED.total_completed,
			total_missed = EXCLUDED.total_missed,
			completion_rate = EXCLUDED.completion_rate,
			last_completed_date = EXCLUDED.last_completed_date,
			last_updated = EXCLUDED.last_updated`,
		stats.HabitID, stats.UserID, stats.CurrentStreak, stats.LongestStreak, stats.TotalCompleted,
		stats.TotalMissed, stats.CompletionRate, lastCompleted, stats.LastUpdated)
	return errors.Storage("upsert stats", err)
}

func scanStats(row scanner) (models.HabitStats, error) {
	var st models.HabitStats
	var lastCompleted sql.NullString

	err := row.Scan(&st.HabitID, &st.UserID, &st.CurrentStreak, &st.LongestStreak, &st.TotalCompleted,
		&st.TotalMissed, &st.CompletionRate, &lastCompleted, &st.LastUpdated)
	if err != nil {
		return models.HabitStats{}, err
	}
	if lastCompleted.Valid {
		st.LastCompletedDate = lastCompleted.String
	}
	st.LastUpdated = st.LastUpdated.UTC()
	return st, nil
}
