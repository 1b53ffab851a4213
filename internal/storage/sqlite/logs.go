package sqlite

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/models"
)

const logColumns = "id, habit_id, user_id, date, status, created_at, updated_at"

func (s *Store) GetLog(ctx context.Context, userID, habitID, date string) (models.HabitLog, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+logColumns+`
		FROM habit_logs WHERE habit_id = ? AND date = ? AND user_id = ?`, habitID, date, userID)

	l, err := scanLog(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return models.HabitLog{}, errors.NotFound("log", habitID+"/"+date)
	}
	if err != nil {
		return models.HabitLog{}, errors.Storage("get log", err)
	}
	return l, nil
}

func (s *Store) GetLogsForHabit(ctx context.Context, userID, habitID string) ([]models.HabitLog, error) {
	return s.queryLogs(ctx, "list habit logs", `
		SELECT `+logColumns+` FROM habit_logs
		WHERE user_id = ? AND habit_id = ?
		ORDER BY date DESC`, userID, habitID)
}

func (s *Store) GetLogsForDate(ctx context.Context, userID, date string) ([]models.HabitLog, error) {
	return s.queryLogs(ctx, "list logs for date", `
		SELECT `+logColumns+` FROM habit_logs
		WHERE user_id = ? AND date = ?
		ORDER BY habit_id`, userID, date)
}

func (s *Store) GetLogsInRange(ctx context.Context, userID, start, end string) ([]models.HabitLog, error) {
	return s.queryLogs(ctx, "list logs in range", `
		SELECT `+logColumns+` FROM habit_logs
		WHERE user_id = ? AND date >= ? AND date <= ?
		ORDER BY date, habit_id`, userID, start, end)
}

func (s *Store) queryLogs(ctx context.Context, op, query string, args ...interface{}) ([]models.HabitLog, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Storage(op, err)
	}
	defer rows.Close()

	logs := []models.HabitLog{}
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, errors.Storage(op, err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Storage(op, err)
	}
	return logs, nil
}

func (s *Store) UpsertLog(ctx context.Context, log models.HabitLog) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO habit_logs (`+logColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(habit_id, date) DO UPDATE SET
			status = excluded.status,
			updated_at = excluded.updated_at`,
		log.ID, log.HabitID, log.UserID, log.Date, string(log.Status),
		formatTime(log.CreatedAt), formatTime(log.UpdatedAt))
	if err != nil {
		return errors.Storage("upsert log", err)
	}

	s.hub.Notify(log.UserID, log.Date)
	return nil
}

func (s *Store) DeleteLog(ctx context.Context, userID, habitID, date string) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM habit_logs WHERE habit_id = ? AND date = ? AND user_id = ?", habitID, date, userID)
	if err != nil {
		return false, errors.Storage("delete log", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, errors.Storage("delete log", err)
	}
	if rows == 0 {
		return false, nil
	}

	s.hub.Notify(userID, date)
	return true, nil
}

func scanLog(row scanner) (models.HabitLog, error) {
	var l models.HabitLog
	var status, createdAt, updatedAt string

	if err := row.Scan(&l.ID, &l.HabitID, &l.UserID, &l.Date, &status, &createdAt, &updatedAt); err != nil {
		return models.HabitLog{}, err
	}

	l.Status = constants.LogStatus(status)
	var err error
	if l.CreatedAt, err = parseTime(createdAt); err != nil {
		return models.HabitLog{}, fmt.Errorf("failed to parse created_at for log %s: %w", l.ID, err)
	}
	if l.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return models.HabitLog{}, fmt.Errorf("failed to parse updated_at for log %s: %w", l.ID, err)
	}
	return l, nil
}
