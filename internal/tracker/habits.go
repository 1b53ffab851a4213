package tracker

import (
	"context"
	"strings"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/validation"
)

// HabitInput describes a habit to create
type HabitInput struct {
	Name        string
	Description string
	Color       string
	Frequency   models.Frequency
}

// HabitPatch is a partial update; nil fields are left unchanged
type HabitPatch struct {
	Name        *string
	Description *string
	Color       *string
	Frequency   *models.Frequency
}

// CreateHabit adds an active habit for the user and seeds its empty stats record.
// Validation warnings (such as a weekly habit with no days) do not block creation and
// are returned alongside the habit.
func (s *Service) CreateHabit(ctx context.Context, userID string, in HabitInput) (models.Habit, []string, error) {
	now := s.clock.Now()
	habit := models.Habit{
		ID:          s.ids.New(),
		UserID:      userID,
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Color:       in.Color,
		Frequency:   in.Frequency,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if habit.Color == "" {
		habit.Color = constants.DefaultHabitColor
	}

	warnings, err := s.check(habit)
	if err != nil {
		return models.Habit{}, nil, err
	}
	habit.Frequency = validation.NormalizeFrequency(habit.Frequency)

	if err := s.store.AddHabit(ctx, habit); err != nil {
		return models.Habit{}, nil, err
	}
	// The habit is stored either way; views fall back to zero stats until the first recompute.
	if err := s.store.UpsertStats(ctx, models.EmptyStats(habit)); err != nil {
		logger.Warn("Failed to seed habit stats", "id", habit.ID, "error", err)
	}

	logger.Info("Created habit", "id", habit.ID, "name", habit.Name, "frequency", habit.Frequency.Type)
	return habit, warnings, nil
}

// UpdateHabit applies patch to an existing habit
func (s *Service) UpdateHabit(ctx context.Context, userID, habitID string, patch HabitPatch) (models.Habit, []string, error) {
	habit, err := s.store.GetHabit(ctx, userID, habitID)
	if err != nil {
		return models.Habit{}, nil, err
	}

	if patch.Name != nil {
		habit.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		habit.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Color != nil {
		habit.Color = *patch.Color
		if habit.Color == "" {
			habit.Color = constants.DefaultHabitColor
		}
	}
	if patch.Frequency != nil {
		habit.Frequency = *patch.Frequency
	}

	warnings, err := s.check(habit)
	if err != nil {
		return models.Habit{}, nil, err
	}
	habit.Frequency = validation.NormalizeFrequency(habit.Frequency)
	habit.UpdatedAt = s.clock.Now()

	if err := s.store.UpdateHabit(ctx, habit); err != nil {
		return models.Habit{}, nil, err
	}

	logger.Info("Updated habit", "id", habit.ID, "name", habit.Name)
	return habit, warnings, nil
}

// DeleteHabit deactivates the habit. Its logs and stats are kept.
func (s *Service) DeleteHabit(ctx context.Context, userID, habitID string) error {
	return s.setActive(ctx, userID, habitID, false)
}

// RestoreHabit reactivates a deleted habit
func (s *Service) RestoreHabit(ctx context.Context, userID, habitID string) error {
	return s.setActive(ctx, userID, habitID, true)
}

func (s *Service) setActive(ctx context.Context, userID, habitID string, active bool) error {
	habit, err := s.store.GetHabit(ctx, userID, habitID)
	if err != nil {
		return err
	}
	if habit.IsActive == active {
		return nil
	}

	habit.IsActive = active
	habit.UpdatedAt = s.clock.Now()
	if err := s.store.UpdateHabit(ctx, habit); err != nil {
		return err
	}

	if active {
		logger.Info("Restored habit", "id", habitID)
	} else {
		logger.Info("Deleted habit", "id", habitID)
	}
	return nil
}

// Habits lists the user's habits in creation order
func (s *Service) Habits(ctx context.Context, userID string, includeInactive bool) ([]models.Habit, error) {
	return s.store.GetHabits(ctx, userID, includeInactive)
}

// FindHabit resolves a habit by id or by case-insensitive name. Active habits win a name
// match over deleted ones.
func (s *Service) FindHabit(ctx context.Context, userID, ref string) (models.Habit, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return models.Habit{}, errors.Validation("habit", "a habit name or id is required")
	}

	habit, err := s.store.GetHabit(ctx, userID, ref)
	if err == nil {
		return habit, nil
	}
	if !errors.IsNotFound(err) {
		return models.Habit{}, err
	}

	habits, err := s.store.GetHabits(ctx, userID, true)
	if err != nil {
		return models.Habit{}, err
	}

	var match *models.Habit
	for i := range habits {
		if !strings.EqualFold(habits[i].Name, ref) {
			continue
		}
		if match == nil || (!match.IsActive && habits[i].IsActive) {
			match = &habits[i]
		}
	}
	if match == nil {
		return models.Habit{}, errors.NotFound("habit", ref)
	}
	return *match, nil
}

func (s *Service) check(habit models.Habit) ([]string, error) {
	result := s.validator.ValidateHabit(habit)
	if err := result.Err(); err != nil {
		return nil, err
	}

	warnings := result.WarningMessages()
	for _, w := range warnings {
		logger.Warn("Habit validation warning", "habit", habit.Name, "warning", w)
	}
	return warnings, nil
}
