package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/models"
)

const habitColumns = `id, user_id, name, description, color, frequency_type, days_of_week, days_of_month,
		       is_active, created_at, updated_at`

func (s *Store) AddHabit(ctx context.Context, habit models.Habit) error {
	dow, dom, err := encodeDays(habit.Frequency)
	if err != nil {
		return errors.Storage("add habit", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO habits (`+habitColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		habit.ID, habit.UserID, habit.Name, habit.Description, habit.Color, string(habit.Frequency.Type),
		dow, dom, habit.IsActive, formatTime(habit.CreatedAt), formatTime(habit.UpdatedAt))
	return errors.Storage("add habit", err)
}

func (s *Store) GetHabit(ctx context.Context, userID, habitID string) (models.Habit, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+habitColumns+`
		FROM habits WHERE id = ? AND user_id = ?`, habitID, userID)

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
	query := "SELECT " + habitColumns + " FROM habits WHERE user_id = ?"
	if !includeInactive {
		query += " AND is_active = 1"
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
	dow, dom, err := encodeDays(habit.Frequency)
	if err != nil {
		return errors.Storage("update habit", err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE habits SET
			name = ?, description = ?, color = ?, frequency_type = ?, days_of_week = ?, days_of_month = ?,
			is_active = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		habit.Name, habit.Description, habit.Color, string(habit.Frequency.Type), dow, dom,
		habit.IsActive, formatTime(habit.UpdatedAt), habit.ID, habit.UserID)
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
	var freqType, dow, dom, createdAt, updatedAt string

	err := row.Scan(&h.ID, &h.UserID, &h.Name, &h.Description, &h.Color, &freqType, &dow, &dom,
		&h.IsActive, &createdAt, &updatedAt)
	if err != nil {
		return models.Habit{}, err
	}

	h.Frequency.Type = constants.FrequencyType(freqType)
	if h.Frequency.DaysOfWeek, err = decodeDays(dow); err != nil {
		return models.Habit{}, fmt.Errorf("failed to parse days_of_week for habit %s: %w", h.ID, err)
	}
	if h.Frequency.DaysOfMonth, err = decodeDays(dom); err != nil {
		return models.Habit{}, fmt.Errorf("failed to parse days_of_month for habit %s: %w", h.ID, err)
	}
	if h.CreatedAt, err = parseTime(createdAt); err != nil {
		return models.Habit{}, fmt.Errorf("failed to parse created_at for habit %s: %w", h.ID, err)
	}
	if h.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return models.Habit{}, fmt.Errorf("failed to parse updated_at for habit %s: %w", h.ID, err)
	}
	return h, nil
}

func encodeDays(freq models.Frequency) (string, string, error) {
	dow, err := json.Marshal(nonNil(freq.DaysOfWeek))
	if err != nil {
		return "", "", err
	}
	dom, err := json.Marshal(nonNil(freq.DaysOfMonth))
	if err != nil {
		return "", "", err
	}
	return string(dow), string(dom), nil
}

func decodeDays(raw string) ([]int, error) {
	if raw == "" {
		return nil, nil
	}
	var days []int
	if err := json.Unmarshal([]byte(raw), &days); err != nil {
		return nil, err
	}
	if len(days) == 0 {
		return nil, nil
	}
	return days, nil
}

func nonNil(days []int) []int {
	if days == nil {
		return []int{}
	}
	return days
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
