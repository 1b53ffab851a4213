package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/models"
)

const logColumns = "id, habit_id, user_id, to_char(date, 'YYYY-MM-DD'), status, created_at, updated_at"

func (s *Store) GetLog(ctx context.Context, userID, habitID, date string) (models.HabitLog, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+logColumns+`
		FROM habit_logs WHERE habit_id = $1 AND date = $2 AND user_id = $3`, habitID, date, userID)

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
		WHERE user_id = $1 AND habit_id = $2
		ORDER BY date DESC`, userID, habitID)
}

func (s *Store) GetLogsForDate(ctx context.Context, userID, date string) ([]models.HabitLog, error) {
	return s.queryLogs(ctx, "list logs for date", `
		SELECT `+logColumns+` FROM habit_logs
		WHERE user_id = $1 AND date = $2
		ORDER BY habit_id`, userID, date)
}

func (s *Store) GetLogsInRange(ctx context.Context, userID, start, end string) ([]models.HabitLog, error) {
	return s.queryLogs(ctx, "list logs in range", `
		SELECT `+logColumns+` FROM habit_logs
		WHERE user_id = $1 AND date BETWEEN $2 AND $3
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

// UpsertLog writes the log and queues a change notification in the same transaction
func (s *Store) UpsertLog(ctx context.Context, log models.HabitLog) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Storage("upsert log", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO habit_logs (id, habit_id, user_id, date, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (habit_id, date) DO UPDATE SET
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at`,
		log.ID, log.HabitID, log.UserID, log.Date, string(log.Status), log.CreatedAt, log.UpdatedAt)
	if err != nil {
		_ = tx.Rollback()
		return errors.Storage("upsert log", err)
	}
	if err := notify(ctx, tx, log.UserID, log.Date); err != nil {
		_ = tx.Rollback()
		return errors.Storage("upsert log", err)
	}

	return errors.Storage("upsert log", tx.Commit())
}

func (s *Store) DeleteLog(ctx context.Context, userID, habitID, date string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, errors.Storage("delete log", err)
	}

	result, err := tx.ExecContext(ctx,
		"DELETE FROM habit_logs WHERE habit_id = $1 AND date = $2 AND user_id = $3", habitID, date, userID)
	if err != nil {
		_ = tx.Rollback()
		return false, errors.Storage("delete log", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return false, errors.Storage("delete log", err)
	}
	if rows == 0 {
		_ = tx.Rollback()
		return false, nil
	}

	if err := notify(ctx, tx, userID, date); err != nil {
		_ = tx.Rollback()
		return false, errors.Storage("delete log", err)
	}
	if err := tx.Commit(); err != nil {
		return false, errors.Storage("delete log", err)
	}
	return true, nil
}

func scanLog(row scanner) (models.HabitLog, error) {
	var l models.HabitLog
	var status string

	if err := row.Scan(&l.ID, &l.HabitID, &l.UserID, &l.Date, &status, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return models.HabitLog{}, err
	}
	l.Status = constants.LogStatus(status)
	l.CreatedAt = l.CreatedAt.UTC()
	l.UpdatedAt = l.UpdatedAt.UTC()
	return l, nil
}
