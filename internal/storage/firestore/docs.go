package firestore

import (
	"time"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/models"
)

type frequencyDoc struct {
	Type        string `firestore:"type"`
	DaysOfWeek  []int  `firestore:"daysOfWeek,omitempty"`
	DaysOfMonth []int  `firestore:"daysOfMonth,omitempty"`
}

type habitDoc struct {
	UserID      string       `firestore:"userId"`
	Name        string       `firestore:"name"`
	Description string       `firestore:"description"`
	Color       string       `firestore:"color"`
	Frequency   frequencyDoc `firestore:"frequency"`
	IsActive    bool         `firestore:"isActive"`
	CreatedAt   time.Time    `firestore:"createdAt"`
	UpdatedAt   time.Time    `firestore:"updatedAt"`
}

func newHabitDoc(h models.Habit) habitDoc {
	return habitDoc{
		UserID:      h.UserID,
		Name:        h.Name,
		Description: h.Description,
		Color:       h.Color,
		Frequency: frequencyDoc{
			Type:        string(h.Frequency.Type),
			DaysOfWeek:  h.Frequency.DaysOfWeek,
			DaysOfMonth: h.Frequency.DaysOfMonth,
		},
		IsActive:  h.IsActive,
		CreatedAt: h.CreatedAt,
		UpdatedAt: h.UpdatedAt,
	}
}

func (d habitDoc) model(id string) models.Habit {
	return models.Habit{
		ID:          id,
		UserID:      d.UserID,
		Name:        d.Name,
		Description: d.Description,
		Color:       d.Color,
		Frequency: models.Frequency{
			Type:        constants.FrequencyType(d.Frequency.Type),
			DaysOfWeek:  d.Frequency.DaysOfWeek,
			DaysOfMonth: d.Frequency.DaysOfMonth,
		},
		IsActive:  d.IsActive,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

type logDoc struct {
	ID        string    `firestore:"id"`
	HabitID   string    `firestore:"habitId"`
	UserID    string    `firestore:"userId"`
	Date      string    `firestore:"date"`
	Status    string    `firestore:"status"`
	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

func newLogDoc(l models.HabitLog) logDoc {
	return logDoc{
		ID:        l.ID,
		HabitID:   l.HabitID,
		UserID:    l.UserID,
		Date:      l.Date,
		Status:    string(l.Status),
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
}

func (d logDoc) model() models.HabitLog {
	return models.HabitLog{
		ID:        d.ID,
		HabitID:   d.HabitID,
		UserID:    d.UserID,
		Date:      d.Date,
		Status:    constants.LogStatus(d.Status),
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

type statsDoc struct {
	UserID            string    `firestore:"userId"`
	CurrentStreak     int       `firestore:"currentStreak"`
	LongestStreak     int       `firestore:"longestStreak"`
	TotalCompleted    int       `firestore:"totalCompleted"`
	TotalMissed       int       `firestore:"totalMissed"`
	CompletionRate    int       `firestore:"completionRate"`
	LastCompletedDate string    `firestore:"lastCompletedDate,omitempty"`
	LastUpdated       time.Time `firestore:"lastUpdated"`
}

func newStatsDoc(st models.HabitStats) statsDoc {
	return statsDoc{
		UserID:            st.UserID,
		CurrentStreak:     st.CurrentStreak,
		LongestStreak:     st.LongestStreak,
		TotalCompleted:    st.TotalCompleted,
		TotalMissed:       st.TotalMissed,
		CompletionRate:    st.CompletionRate,
		LastCompletedDate: st.LastCompletedDate,
		LastUpdated:       st.LastUpdated,
	}
}

func (d statsDoc) model(habitID string) models.HabitStats {
	return models.HabitStats{
		HabitID:           habitID,
		UserID:            d.UserID,
		CurrentStreak:     d.CurrentStreak,
		LongestStreak:     d.LongestStreak,
		TotalCompleted:    d.TotalCompleted,
		TotalMissed:       d.TotalMissed,
		CompletionRate:    d.CompletionRate,
		LastCompletedDate: d.LastCompletedDate,
		LastUpdated:       d.LastUpdated.UTC(),
	}
}
