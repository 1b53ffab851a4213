package models

import (
	"time"

	"github.com/julianstephens/habitual/internal/constants"
)

// Frequency is the recurrence rule of a habit. The zero value behaves as daily.
type Frequency struct {
	Type        constants.FrequencyType `json:"type"`
	DaysOfWeek  []int                   `json:"days_of_week,omitempty"`  // 0 = Sunday ... 6 = Saturday
	DaysOfMonth []int                   `json:"days_of_month,omitempty"` // 1 ... 31
}

// Habit represents a recurring practice to track
type Habit struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Color       string    `json:"color"`
	Frequency   Frequency `json:"frequency"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// HabitLog is the single recorded outcome of a habit on a calendar day.
// (HabitID, Date) identifies it; a day without a log is pending.
type HabitLog struct {
	ID        string              `json:"id"`
	HabitID   string              `json:"habit_id"`
	UserID    string              `json:"user_id"`
	Date      string              `json:"date"` // YYYY-MM-DD format
	Status    constants.LogStatus `json:"status"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// HabitStats is the derived statistics record of a habit, rebuilt from its logs
type HabitStats struct {
	HabitID           string    `json:"habit_id"`
	UserID            string    `json:"user_id"`
	CurrentStreak     int       `json:"current_streak"`
	LongestStreak     int       `json:"longest_streak"`
	TotalCompleted    int       `json:"total_completed"`
	TotalMissed       int       `json:"total_missed"`
	CompletionRate    int       `json:"completion_rate"` // 0-100
	LastCompletedDate string    `json:"last_completed_date,omitempty"`
	LastUpdated       time.Time `json:"last_updated"`
}

// DailyHabitView joins a habit with its log for the viewed day and its stats
type DailyHabitView struct {
	Habit
	TodayLog *HabitLog  `json:"today_log,omitempty"`
	Stats    HabitStats `json:"stats"`
}

// Status returns the logged status for the viewed day, or pending if nothing is logged
func (v DailyHabitView) Status() constants.LogStatus {
	if v.TodayLog == nil {
		return constants.StatusPending
	}
	return v.TodayLog.Status
}

// EmptyStats returns the zero-valued stats record of a habit that has not been recomputed yet
func EmptyStats(habit Habit) HabitStats {
	return HabitStats{
		HabitID:     habit.ID,
		UserID:      habit.UserID,
		LastUpdated: habit.UpdatedAt,
	}
}
