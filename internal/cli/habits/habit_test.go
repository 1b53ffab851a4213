package habits

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/config"
	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/storage/memory"
	"github.com/julianstephens/habitual/internal/testutil"
)

func setupTestContext(t *testing.T, today string) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	store := memory.New()
	t.Cleanup(func() { _ = store.Close() })

	cfg := config.Default(t.TempDir())
	cfg.Storage.Type = config.StorageMemory

	var out bytes.Buffer
	ctx := cli.NewContext(context.Background(), cfg, store,
		cli.WithClock(testutil.ClockOn(today)),
		cli.WithIDGenerator(testutil.NewStubIDGenerator()),
		cli.WithOutput(&out))
	return ctx, &out
}

func addHabit(t *testing.T, ctx *cli.Context, cmd HabitAddCmd) {
	t.Helper()
	if cmd.Every == "" {
		cmd.Every = "daily"
	}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("habit add %q failed: %v", cmd.Name, err)
	}
}

func TestHabitAddCmd(t *testing.T) {
	ctx, out := setupTestContext(t, "2024-03-05")

	addHabit(t, ctx, HabitAddCmd{Name: "Gym", Every: "weekly", Days: "fri,mon,wed"})
	if !strings.Contains(out.String(), "Added habit: Gym (weekly on Mon,Wed,Fri)") {
		t.Errorf("unexpected output: %q", out.String())
	}

	habit, err := ctx.FindHabit("gym")
	if err != nil {
		t.Fatalf("FindHabit failed: %v", err)
	}
	if habit.Color != constants.DefaultHabitColor {
		t.Errorf("expected default color, got %s", habit.Color)
	}
	if !habit.IsActive {
		t.Error("new habit should be active")
	}
}

func TestHabitAddCmdWarnsOnEmptySchedule(t *testing.T) {
	ctx, out := setupTestContext(t, "2024-03-05")

	addHabit(t, ctx, HabitAddCmd{Name: "Someday", Every: "weekly"})
	if !strings.Contains(out.String(), "⚠") {
		t.Errorf("expected a warning for a weekly habit with no days, got %q", out.String())
	}
}

func TestHabitAddCmdRejectsInvalidInput(t *testing.T) {
	ctx, _ := setupTestContext(t, "2024-03-05")

	tests := []struct {
		name string
		cmd  HabitAddCmd
	}{
		{"blank name", HabitAddCmd{Name: "  ", Every: "daily"}},
		{"bad color", HabitAddCmd{Name: "Read", Every: "daily", Color: "blue"}},
		{"bad weekday", HabitAddCmd{Name: "Read", Every: "weekly", Days: "mon,funday"}},
		{"days on daily", HabitAddCmd{Name: "Read", Every: "daily", Days: "1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cmd.Run(ctx); err == nil {
				t.Error("expected an error")
			}
		})
	}

	habits, err := ctx.Tracker.Habits(ctx.Ctx(), ctx.UserID, true)
	if err != nil {
		t.Fatalf("Habits failed: %v", err)
	}
	if len(habits) != 0 {
		t.Errorf("rejected habits must not be stored, found %d", len(habits))
	}
}

func TestHabitListCmd(t *testing.T) {
	ctx, out := setupTestContext(t, "2024-03-05")

	if err := (&HabitListCmd{}).Run(ctx); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out.String(), "No habits found.") {
		t.Errorf("unexpected output for empty list: %q", out.String())
	}

	addHabit(t, ctx, HabitAddCmd{Name: "Read"})
	addHabit(t, ctx, HabitAddCmd{Name: "Run"})
	if err := (&HabitDeleteCmd{Habit: "Run"}).Run(ctx); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	out.Reset()
	if err := (&HabitListCmd{}).Run(ctx); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out.String(), "Read") || strings.Contains(out.String(), "Run") {
		t.Errorf("list should only show active habits, got %q", out.String())
	}

	out.Reset()
	if err := (&HabitListCmd{Deleted: true, IDs: true}).Run(ctx); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	for _, want := range []string{"Run", "[DELETED]", "id-1"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("list --deleted --ids missing %q in %q", want, out.String())
		}
	}
}

func TestHabitEditCmd(t *testing.T) {
	ctx, _ := setupTestContext(t, "2024-03-05")
	addHabit(t, ctx, HabitAddCmd{Name: "Gym", Every: "weekly", Days: "mon"})

	name := "Lift"
	days := "tue,thu"
	if err := (&HabitEditCmd{Habit: "Gym", Name: &name, Days: &days}).Run(ctx); err != nil {
		t.Fatalf("edit failed: %v", err)
	}

	habit, err := ctx.FindHabit("Lift")
	if err != nil {
		t.Fatalf("FindHabit failed: %v", err)
	}
	if habit.Frequency.Type != constants.FrequencyWeekly {
		t.Errorf("editing only the days should keep the weekly type, got %s", habit.Frequency.Type)
	}
	if len(habit.Frequency.DaysOfWeek) != 2 || habit.Frequency.DaysOfWeek[0] != 2 || habit.Frequency.DaysOfWeek[1] != 4 {
		t.Errorf("unexpected days: %v", habit.Frequency.DaysOfWeek)
	}

	every := "monthly"
	monthDays := "1,15"
	if err := (&HabitEditCmd{Habit: "Lift", Every: &every, Days: &monthDays}).Run(ctx); err != nil {
		t.Fatalf("edit failed: %v", err)
	}
	habit, _ = ctx.FindHabit("Lift")
	if habit.Frequency.Type != constants.FrequencyMonthly || len(habit.Frequency.DaysOfWeek) != 0 {
		t.Errorf("unexpected frequency after switching to monthly: %+v", habit.Frequency)
	}

	if err := (&HabitEditCmd{Habit: "Nope", Name: &name}).Run(ctx); !errors.IsNotFound(err) {
		t.Errorf("expected NotFoundError for an unknown habit, got %v", err)
	}
}

func TestHabitDeleteAndRestoreCmd(t *testing.T) {
	ctx, out := setupTestContext(t, "2024-03-05")
	addHabit(t, ctx, HabitAddCmd{Name: "Read"})

	if err := (&HabitRestoreCmd{Habit: "Read"}).Run(ctx); err == nil {
		t.Error("restoring an active habit should fail")
	}

	if err := (&HabitDeleteCmd{Habit: "read"}).Run(ctx); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if !strings.Contains(out.String(), "habitual habit restore id-1") {
		t.Errorf("delete should print the restore hint, got %q", out.String())
	}

	if err := (&HabitRestoreCmd{Habit: "Read"}).Run(ctx); err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	habit, err := ctx.FindHabit("id-1")
	if err != nil {
		t.Fatalf("FindHabit failed: %v", err)
	}
	if !habit.IsActive {
		t.Error("habit should be active after restore")
	}
}
