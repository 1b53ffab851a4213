package reports

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/config"
	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/storage/memory"
	"github.com/julianstephens/habitual/internal/testutil"
	"github.com/julianstephens/habitual/internal/tracker"
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

func createHabit(t *testing.T, ctx *cli.Context, name string, freq models.Frequency) models.Habit {
	t.Helper()
	habit, _, err := ctx.Tracker.CreateHabit(ctx.Ctx(), ctx.UserID, tracker.HabitInput{Name: name, Frequency: freq})
	if err != nil {
		t.Fatalf("CreateHabit(%q) failed: %v", name, err)
	}
	return habit
}

func setStatus(t *testing.T, ctx *cli.Context, habitID, date string, status constants.LogStatus) {
	t.Helper()
	if _, err := ctx.Tracker.SetStatus(ctx.Ctx(), habitID, ctx.UserID, date, status); err != nil {
		t.Fatalf("SetStatus(%s, %s) failed: %v", habitID, date, err)
	}
}

func TestTodayCmd(t *testing.T) {
	// 2024-03-05 is a Tuesday
	ctx, out := setupTestContext(t, "2024-03-05")
	read := createHabit(t, ctx, "Read", models.Frequency{})
	createHabit(t, ctx, "Gym", models.Frequency{Type: constants.FrequencyWeekly, DaysOfWeek: []int{1, 3, 5}})
	createHabit(t, ctx, "Stretch", models.Frequency{Type: constants.FrequencyWeekly, DaysOfWeek: []int{2}})

	setStatus(t, ctx, read.ID, "2024-03-04", constants.StatusCompleted)
	setStatus(t, ctx, read.ID, "2024-03-05", constants.StatusCompleted)

	if err := (&TodayCmd{}).Run(ctx); err != nil {
		t.Fatalf("today failed: %v", err)
	}

	got := out.String()
	for _, want := range []string{"Habits for 2024-03-05", "Read", "Stretch", "streak 2", "1/2 done"} {
		if !strings.Contains(got, want) {
			t.Errorf("today output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "Gym") {
		t.Errorf("Gym is not due on a Tuesday:\n%s", got)
	}
}

func TestTodayCmdWithDate(t *testing.T) {
	ctx, out := setupTestContext(t, "2024-03-05")
	createHabit(t, ctx, "Gym", models.Frequency{Type: constants.FrequencyWeekly, DaysOfWeek: []int{1}})

	ctx.Date = "2024-03-04"
	if err := (&TodayCmd{}).Run(ctx); err != nil {
		t.Fatalf("today failed: %v", err)
	}
	if !strings.Contains(out.String(), "Gym") {
		t.Errorf("Gym is due on Monday 2024-03-04:\n%s", out.String())
	}

	ctx.Date = "2024-13-01"
	if err := (&TodayCmd{}).Run(ctx); err == nil {
		t.Error("expected an error for an invalid --date")
	}
}

func TestStatsCmd(t *testing.T) {
	ctx, out := setupTestContext(t, "2024-03-05")
	read := createHabit(t, ctx, "Read", models.Frequency{})
	createHabit(t, ctx, "Run", models.Frequency{})

	setStatus(t, ctx, read.ID, "2024-03-03", constants.StatusCompleted)
	setStatus(t, ctx, read.ID, "2024-03-04", constants.StatusMissed)
	setStatus(t, ctx, read.ID, "2024-03-05", constants.StatusCompleted)

	if err := (&StatsCmd{Habit: "read"}).Run(ctx); err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	got := out.String()
	for _, want := range []string{"Current streak:  1", "Longest streak:  1", "Missed:          1", "Completion rate: 67%", "Last completed:  2024-03-05"} {
		if !strings.Contains(got, want) {
			t.Errorf("stats output missing %q:\n%s", want, got)
		}
	}

	out.Reset()
	if err := (&StatsCmd{}).Run(ctx); err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if !strings.Contains(out.String(), "Run") || !strings.Contains(out.String(), "Last completed:  never") {
		t.Errorf("stats for all habits should include Run:\n%s", out.String())
	}

	if err := (&StatsCmd{Habit: "Nope"}).Run(ctx); err == nil {
		t.Error("expected an error for an unknown habit")
	}
}

func TestReportCmd(t *testing.T) {
	ctx, out := setupTestContext(t, "2024-03-05")
	read := createHabit(t, ctx, "Read", models.Frequency{})
	for _, day := range []string{"2024-03-01", "2024-03-02", "2024-03-03", "2024-03-04", "2024-03-05"} {
		setStatus(t, ctx, read.ID, day, constants.StatusCompleted)
	}

	if err := (&ReportCmd{Weeks: 2, Months: 2}).Run(ctx); err != nil {
		t.Fatalf("report failed: %v", err)
	}
	got := out.String()
	for _, want := range []string{"Weekly", "2024-03-03", "Monthly", "2024-03", "2024-02", "Insights"} {
		if !strings.Contains(got, want) {
			t.Errorf("report output missing %q:\n%s", want, got)
		}
	}

	if err := (&ReportCmd{Weeks: 0, Months: 1}).Run(ctx); err == nil {
		t.Error("expected an error for zero weeks")
	}
}

func TestBar(t *testing.T) {
	tests := []struct {
		completed, missed int
		wantPrefix        string
		wantSuffix        string
	}{
		{0, 0, strings.Repeat(" ", 30), " 0/0"},
		{2, 1, "██░", " 2/3"},
		{60, 0, strings.Repeat("█", 30), " 60/60"},
		{30, 30, strings.Repeat("█", 15) + strings.Repeat("░", 15), " 30/60"},
	}

	for _, tt := range tests {
		got := bar(tt.completed, tt.missed)
		if !strings.HasPrefix(got, tt.wantPrefix) || !strings.HasSuffix(got, tt.wantSuffix) {
			t.Errorf("bar(%d, %d) = %q", tt.completed, tt.missed, got)
		}
	}
}

// lockedBuffer lets the test read output while the watch loop is still writing
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatchCmdPlainRedraws(t *testing.T) {
	store := memory.New()
	t.Cleanup(func() { _ = store.Close() })
	cfg := config.Default(t.TempDir())
	cfg.Storage.Type = config.StorageMemory

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := &lockedBuffer{}
	ctx := cli.NewContext(runCtx, cfg, store,
		cli.WithClock(testutil.ClockOn("2024-03-05")),
		cli.WithIDGenerator(testutil.NewStubIDGenerator()),
		cli.WithOutput(out))
	read := createHabit(t, ctx, "Read", models.Frequency{})

	done := make(chan error, 1)
	go func() { done <- (&WatchCmd{Plain: true}).Run(ctx) }()

	waitFor := func(want string) {
		t.Helper()
		deadline := time.Now().Add(5 * time.Second)
		for !strings.Contains(out.String(), want) {
			if time.Now().After(deadline) {
				t.Fatalf("timed out waiting for %q, got:\n%s", want, out.String())
			}
			time.Sleep(10 * time.Millisecond)
		}
	}

	waitFor("0/1 done")
	setStatus(t, ctx, read.ID, "2024-03-05", constants.StatusCompleted)
	waitFor("1/1 done")

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("watch returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}
