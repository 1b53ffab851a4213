package tracker

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/storage/memory"
	"github.com/julianstephens/habitual/internal/testutil"
)

func strPtr(s string) *string { return &s }

func TestCreateHabit(t *testing.T) {
	ctx := context.Background()
	f := setup(t, "2024-01-03")

	habit, warnings, err := f.svc.CreateHabit(ctx, "u1", HabitInput{Name: "  Read  "})
	if err != nil {
		t.Fatalf("CreateHabit failed: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	if habit.ID != "id-1" || habit.Name != "Read" || !habit.IsActive {
		t.Errorf("habit = %+v", habit)
	}
	if habit.Color != constants.DefaultHabitColor {
		t.Errorf("Color = %q, want %q", habit.Color, constants.DefaultHabitColor)
	}
	if habit.Frequency.Type != constants.FrequencyDaily {
		t.Errorf("Frequency.Type = %q, want daily", habit.Frequency.Type)
	}
	if !habit.CreatedAt.Equal(f.clock.Now()) {
		t.Errorf("CreatedAt = %v, want %v", habit.CreatedAt, f.clock.Now())
	}

	stored, err := f.store.GetHabit(ctx, "u1", habit.ID)
	if err != nil {
		t.Fatalf("GetHabit failed: %v", err)
	}
	if !reflect.DeepEqual(stored, habit) {
		t.Errorf("stored = %+v, want %+v", stored, habit)
	}

	st, err := f.store.GetStats(ctx, "u1", habit.ID)
	if err != nil {
		t.Fatalf("seeded stats missing: %v", err)
	}
	if st.CurrentStreak != 0 || st.TotalCompleted != 0 || st.HabitID != habit.ID {
		t.Errorf("seeded stats = %+v", st)
	}
}

func TestCreateHabitStatsSeedFailure(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	t.Cleanup(func() { _ = store.Close() })
	svc := New(statsFailingStore{store},
		WithClock(testutil.ClockOn("2024-01-03")),
		WithIDGenerator(testutil.NewStubIDGenerator()))

	habit, _, err := svc.CreateHabit(ctx, "u1", HabitInput{Name: "Read"})
	if err != nil {
		t.Fatalf("CreateHabit should succeed when only the stats seed fails: %v", err)
	}
	if habit.ID == "" {
		t.Fatal("expected the created habit to be returned")
	}

	habits, err := store.GetHabits(ctx, "u1", true)
	if err != nil {
		t.Fatalf("GetHabits failed: %v", err)
	}
	if len(habits) != 1 || habits[0].ID != habit.ID {
		t.Errorf("expected exactly the created habit to be stored, got %+v", habits)
	}
	if _, err := store.GetStats(ctx, "u1", habit.ID); !errors.IsNotFound(err) {
		t.Errorf("expected no stats record, got %v", err)
	}
}

func TestCreateHabitFrequency(t *testing.T) {
	ctx := context.Background()
	f := setup(t, "2024-01-03")

	habit, warnings, err := f.svc.CreateHabit(ctx, "u1", HabitInput{
		Name:      "Gym",
		Frequency: models.Frequency{Type: constants.FrequencyWeekly, DaysOfWeek: []int{5, 1, 3, 1}},
	})
	if err != nil {
		t.Fatalf("CreateHabit failed: %v", err)
	}
	if want := []int{1, 3, 5}; !reflect.DeepEqual(habit.Frequency.DaysOfWeek, want) {
		t.Errorf("DaysOfWeek = %v, want %v", habit.Frequency.DaysOfWeek, want)
	}
	if len(warnings) != 1 {
		t.Errorf("warnings = %v, want one duplicate-day warning", warnings)
	}

	_, warnings, err = f.svc.CreateHabit(ctx, "u1", HabitInput{
		Name:      "Someday",
		Frequency: models.Frequency{Type: constants.FrequencyMonthly},
	})
	if err != nil {
		t.Fatalf("empty day set must not be an error: %v", err)
	}
	if len(warnings) != 1 {
		t.Errorf("warnings = %v, want one empty-day-set warning", warnings)
	}
}

func TestCreateHabitValidation(t *testing.T) {
	ctx := context.Background()
	f := setup(t, "2024-01-03")

	tests := []struct {
		name  string
		input HabitInput
	}{
		{"empty name", HabitInput{Name: "   "}},
		{"malformed color", HabitInput{Name: "Read", Color: "blue"}},
		{"weekday out of range", HabitInput{
			Name:      "Read",
			Frequency: models.Frequency{Type: constants.FrequencyWeekly, DaysOfWeek: []int{7}},
		}},
		{"month day out of range", HabitInput{
			Name:      "Read",
			Frequency: models.Frequency{Type: constants.FrequencyMonthly, DaysOfMonth: []int{0}},
		}},
		{"unknown frequency", HabitInput{
			Name:      "Read",
			Frequency: models.Frequency{Type: "hourly"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := f.svc.CreateHabit(ctx, "u1", tt.input)
			if !errors.IsValidation(err) {
				t.Errorf("CreateHabit error = %v, want validation", err)
			}
		})
	}

	habits, _ := f.store.GetHabits(ctx, "u1", true)
	if len(habits) != 0 {
		t.Errorf("rejected habits were stored: %+v", habits)
	}
}

func TestUpdateHabit(t *testing.T) {
	ctx := context.Background()
	f := setup(t, "2024-01-03")

	habit, _, err := f.svc.CreateHabit(ctx, "u1", HabitInput{Name: "Read", Description: "20 pages"})
	if err != nil {
		t.Fatalf("CreateHabit failed: %v", err)
	}
	f.clock.Advance(time.Minute)

	freq := models.Frequency{Type: constants.FrequencyMonthly, DaysOfMonth: []int{15, 1}}
	updated, _, err := f.svc.UpdateHabit(ctx, "u1", habit.ID, HabitPatch{
		Name:      strPtr("Read more"),
		Color:     strPtr("#abc"),
		Frequency: &freq,
	})
	if err != nil {
		t.Fatalf("UpdateHabit failed: %v", err)
	}
	if updated.Name != "Read more" || updated.Color != "#abc" || updated.Description != "20 pages" {
		t.Errorf("updated = %+v", updated)
	}
	if want := []int{1, 15}; !reflect.DeepEqual(updated.Frequency.DaysOfMonth, want) {
		t.Errorf("DaysOfMonth = %v, want %v", updated.Frequency.DaysOfMonth, want)
	}
	if !updated.UpdatedAt.After(habit.UpdatedAt) {
		t.Errorf("UpdatedAt not bumped")
	}

	if _, _, err := f.svc.UpdateHabit(ctx, "u1", habit.ID, HabitPatch{Name: strPtr("")}); !errors.IsValidation(err) {
		t.Errorf("blanking the name error = %v, want validation", err)
	}
	if _, _, err := f.svc.UpdateHabit(ctx, "u1", "missing", HabitPatch{}); !errors.IsNotFound(err) {
		t.Errorf("UpdateHabit on unknown habit error = %v, want not found", err)
	}
	if _, _, err := f.svc.UpdateHabit(ctx, "u2", habit.ID, HabitPatch{}); !errors.IsNotFound(err) {
		t.Errorf("UpdateHabit on another user's habit error = %v, want not found", err)
	}
}

func TestDeleteAndRestoreHabit(t *testing.T) {
	ctx := context.Background()
	f := setup(t, "2024-01-03")

	habit, _, err := f.svc.CreateHabit(ctx, "u1", HabitInput{Name: "Read"})
	if err != nil {
		t.Fatalf("CreateHabit failed: %v", err)
	}
	if _, err := f.svc.SetStatus(ctx, habit.ID, "u1", "2024-01-03", constants.StatusCompleted); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}

	if err := f.svc.DeleteHabit(ctx, "u1", habit.ID); err != nil {
		t.Fatalf("DeleteHabit failed: %v", err)
	}
	active, _ := f.svc.Habits(ctx, "u1", false)
	if len(active) != 0 {
		t.Errorf("deleted habit still listed as active")
	}
	all, _ := f.svc.Habits(ctx, "u1", true)
	if len(all) != 1 || all[0].IsActive {
		t.Errorf("all habits = %+v, want one inactive habit", all)
	}
	logs, _ := f.store.GetLogsForHabit(ctx, "u1", habit.ID)
	if len(logs) != 1 {
		t.Errorf("soft delete dropped history: %d logs", len(logs))
	}

	if err := f.svc.RestoreHabit(ctx, "u1", habit.ID); err != nil {
		t.Fatalf("RestoreHabit failed: %v", err)
	}
	active, _ = f.svc.Habits(ctx, "u1", false)
	if len(active) != 1 {
		t.Errorf("restored habit not active")
	}

	if err := f.svc.DeleteHabit(ctx, "u1", "missing"); !errors.IsNotFound(err) {
		t.Errorf("DeleteHabit on unknown habit error = %v, want not found", err)
	}
}

func TestFindHabit(t *testing.T) {
	ctx := context.Background()
	f := setup(t, "2024-01-03")

	old, _, _ := f.svc.CreateHabit(ctx, "u1", HabitInput{Name: "Read"})
	if err := f.svc.DeleteHabit(ctx, "u1", old.ID); err != nil {
		t.Fatalf("DeleteHabit failed: %v", err)
	}
	current, _, _ := f.svc.CreateHabit(ctx, "u1", HabitInput{Name: "read"})

	tests := []struct {
		name   string
		ref    string
		wantID string
	}{
		{"by id", old.ID, old.ID},
		{"by name prefers active", "READ", current.ID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.svc.FindHabit(ctx, "u1", tt.ref)
			if err != nil {
				t.Fatalf("FindHabit(%q) failed: %v", tt.ref, err)
			}
			if got.ID != tt.wantID {
				t.Errorf("FindHabit(%q) = %s, want %s", tt.ref, got.ID, tt.wantID)
			}
		})
	}

	if _, err := f.svc.FindHabit(ctx, "u1", "Write"); !errors.IsNotFound(err) {
		t.Errorf("FindHabit(unknown) error = %v, want not found", err)
	}
	if _, err := f.svc.FindHabit(ctx, "u2", "Read"); !errors.IsNotFound(err) {
		t.Errorf("FindHabit for another user error = %v, want not found", err)
	}
	if _, err := f.svc.FindHabit(ctx, "u1", " "); !errors.IsValidation(err) {
		t.Errorf("FindHabit(blank) error = %v, want validation", err)
	}
}
