package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"

	pq "github.com/lib/pq"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/models"
)

const habitColumns = `id, user_id, name, description, color, frequency_type, days_of_week, days_of_month,
		       is_active, created_at, updated_at`

func (s *Store) AddHabit(ctx context.Context, habit models.Habit) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO habits (`+habitColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		habit.ID, habit.UserID, habit.Name, habit.Description, habit.Color, string(habit.Frequency.Type),
		pq.Array(intArray(habit.Frequency.DaysOfWeek)), pq.Array(intArray(habit.Frequency.DaysOfMonth)),
		habit.IsActive, habit.CreatedAt, habit.UpdatedAt)
	return errors.Storage("add habit", err)
}

func (s *Store) GetHabit(ctx context.Context, userID, habitID string) (models.Habit, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+habitColumns+`
		FROM habits WHERE id = $1 AND user_id = $2`, habitID, userID)

	h, err := scanHabit(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return models.Habit{}, errors.NotFound("habit", habitID)
	}
	if err != nil {
		return models.Habit{}, errors.Storage("get habit", err)
	}
	return h, nil
}

func (s *Store) GetHabits(ctx context.Context, userID string, includeInactive bool) ([]models.Habit, error) {
	query := "SELECT " + habitColumns + " FROM habits WHERE user_id = $1"
	if !includeInactive {
		query += " AND is_active"
	}
	query += " ORDER BY created_at, id"

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, errors.Storage("list habits", err)
	}
	defer rows.Close()

	habits := []models.Habit{}
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, errors.Storage("list habits", err)
		}
		habits = append(habits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Storage("list habits", err)
	}
	return habits, nil
}

func (s *Store) UpdateHabit(ctx context.Context, habit models.Habit) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE habits SET
			name = $1, description = $2, color = $3, frequency_type = $4, days_of_week = $5,
			days_of_month = $6, is_active = $7, updated_at = $8
		WHERE id = $9 AND user_id = $10`,
		habit.Name, habit.Description, habit.Color, string(habit.Frequency.Type),
		pq.Array(intArray(habit.Frequency.DaysOfWeek)), pq.Array(intArray(habit.Frequency.DaysOfMonth)),
		habit.IsActive, habit.UpdatedAt, habit.ID, habit.UserID)
	if err != nil {
		return errors.Storage("update habit", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.Storage("update habit", err)
	}
	if rows == 0 {
		return errors.NotFound("habit", habit.ID)
	}
	return nil
}

func scanHabit(row scanner) (models.Habit, error) {
	var h models.Habit
	var freqType string
	var dow, dom pq.Int64Array

	err := row.Scan(&h.ID, &h.UserID, &h.Name, &h.Description, &h.Color, &freqType, &dow, &dom,
		&h.IsActive, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return models.Habit{}, err
	}

	h.Frequency.Type = constants.FrequencyType(freqType)
	h.Frequency.DaysOfWeek = toInts(dow)
	h.Frequency.DaysOfMonth = toInts(dom)
	h.CreatedAt = h.CreatedAt.UTC()
	h.UpdatedAt = h.UpdatedAt.UTC()
	return h, nil
}

func intArray(days []int) []int64 {
	out := make([]int64, len(days))
	for i, d := range days {
		out[i] = int64(d)
	}
	return out
}

func toInts(arr pq.Int64Array) []int {
	if len(arr) == 0 {
		return nil
	}
	out := make([]int, len(arr))
	for i, d := range arr {
		out[i] = int(d)
	}
	return out
}
