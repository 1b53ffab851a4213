package tracker

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/storage/memory"
	"github.com/julianstephens/habitual/internal/storage/storagetest"
	"github.com/julianstephens/habitual/internal/testutil"
)

type countingRecorder struct {
	mu         sync.Mutex
	written    map[constants.LogStatus]int
	undone     int
	recomputes int
	failures   int
	swept      int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{written: make(map[constants.LogStatus]int)}
}

func (r *countingRecorder) LogWritten(status constants.LogStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.written[status]++
}

func (r *countingRecorder) LogUndone() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.undone++
}

func (r *countingRecorder) StatsRecomputed(_ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recomputes++
	if err != nil {
		r.failures++
	}
}

func (r *countingRecorder) MissedDaysMarked(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.swept += n
}

// statsFailingStore accepts everything except stats writes
type statsFailingStore struct {
	*memory.Store
}

func (s statsFailingStore) UpsertStats(ctx context.Context, st models.HabitStats) error {
	return errors.Storage("upsert stats", fmt.Errorf("quota exceeded"))
}

type fixture struct {
	svc      *Service
	store    *memory.Store
	clock    *testutil.StubClock
	recorder *countingRecorder
}

func setup(t *testing.T, today string) *fixture {
	t.Helper()
	store := memory.New()
	t.Cleanup(func() { _ = store.Close() })

	f := &fixture{
		store:    store,
		clock:    testutil.ClockOn(today),
		recorder: newCountingRecorder(),
	}
	f.svc = New(store,
		WithClock(f.clock),
		WithIDGenerator(testutil.NewStubIDGenerator()),
		WithRecorder(f.recorder))
	return f
}

func (f *fixture) addHabit(t *testing.T, h models.Habit) {
	t.Helper()
	if err := f.store.AddHabit(context.Background(), h); err != nil {
		t.Fatalf("AddHabit failed: %v", err)
	}
}

func TestSetStatus(t *testing.T) {
	ctx := context.Background()
	f := setup(t, "2024-01-03")
	f.addHabit(t, storagetest.Habit("h1", "u1", "Read", 0))

	log, err := f.svc.SetStatus(ctx, "h1", "u1", "2024-01-03", constants.StatusCompleted)
	if err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	if log.ID != "id-1" || log.Status != constants.StatusCompleted || log.Date != "2024-01-03" {
		t.Errorf("log = %+v", log)
	}

	st, err := f.store.GetStats(ctx, "u1", "h1")
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if st.CurrentStreak != 1 || st.TotalCompleted != 1 || st.CompletionRate != 100 {
		t.Errorf("stats after completion = %+v", st)
	}

	created := log.CreatedAt
	f.clock.Advance(time.Hour)

	log, err = f.svc.SetStatus(ctx, "h1", "u1", "2024-01-03", constants.StatusMissed)
	if err != nil {
		t.Fatalf("overwriting SetStatus failed: %v", err)
	}
	if log.ID != "id-1" {
		t.Errorf("overwrite changed id to %q", log.ID)
	}
	if !log.CreatedAt.Equal(created) {
		t.Errorf("overwrite changed CreatedAt to %v", log.CreatedAt)
	}
	if !log.UpdatedAt.After(created) {
		t.Errorf("UpdatedAt %v not bumped past %v", log.UpdatedAt, created)
	}

	logs, err := f.store.GetLogsForHabit(ctx, "u1", "h1")
	if err != nil {
		t.Fatalf("GetLogsForHabit failed: %v", err)
	}
	if len(logs) != 1 || logs[0].Status != constants.StatusMissed {
		t.Errorf("logs = %+v, want a single missed log", logs)
	}

	st, err = f.store.GetStats(ctx, "u1", "h1")
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if st.CurrentStreak != 0 || st.TotalCompleted != 0 || st.TotalMissed != 1 {
		t.Errorf("stats after overwrite = %+v", st)
	}

	if f.recorder.written[constants.StatusCompleted] != 1 || f.recorder.written[constants.StatusMissed] != 1 {
		t.Errorf("recorded writes = %v", f.recorder.written)
	}
	if f.recorder.recomputes != 2 {
		t.Errorf("recorded %d recomputes, want 2", f.recorder.recomputes)
	}
}

func TestSetStatusRejectsInput(t *testing.T) {
	ctx := context.Background()
	f := setup(t, "2024-01-03")
	f.addHabit(t, storagetest.Habit("h1", "u1", "Read", 0))

	tests := []struct {
		name    string
		habitID string
		userID  string
		date    string
		status  constants.LogStatus
		check   func(error) bool
	}{
		{"pending is not storable", "h1", "u1", "2024-01-03", constants.StatusPending, errors.IsValidation},
		{"unknown status", "h1", "u1", "2024-01-03", "skipped", errors.IsValidation},
		{"malformed date", "h1", "u1", "2024-13-01", constants.StatusCompleted, errors.IsValidation},
		{"unknown habit", "nope", "u1", "2024-01-03", constants.StatusCompleted, errors.IsNotFound},
		{"other user's habit", "h1", "u2", "2024-01-03", constants.StatusCompleted, errors.IsNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.SetStatus(ctx, tt.habitID, tt.userID, tt.date, tt.status)
			if !tt.check(err) {
				t.Errorf("SetStatus error = %v", err)
			}
		})
	}

	logs, _ := f.store.GetLogsForHabit(ctx, "u1", "h1")
	if len(logs) != 0 {
		t.Errorf("rejected writes left %d logs", len(logs))
	}
}

func TestSetStatusStorageFailure(t *testing.T) {
	ctx := context.Background()
	f := setup(t, "2024-01-03")
	f.addHabit(t, storagetest.Habit("h1", "u1", "Read", 0))
	f.store.FailWith(fmt.Errorf("connection reset"))

	_, err := f.svc.SetStatus(ctx, "h1", "u1", "2024-01-03", constants.StatusCompleted)
	if !errors.IsStorage(err) {
		t.Errorf("SetStatus error = %v, want a storage error", err)
	}
	if err := f.svc.Undo(ctx, "h1", "u1", "2024-01-03"); !errors.IsStorage(err) {
		t.Errorf("Undo error = %v, want a storage error", err)
	}
	if err := f.svc.ResetAll(ctx, "u1"); !errors.IsStorage(err) {
		t.Errorf("ResetAll error = %v, want a storage error", err)
	}
}

func TestSetStatusRecomputeFailure(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	t.Cleanup(func() { _ = store.Close() })
	if err := store.AddHabit(ctx, storagetest.Habit("h1", "u1", "Read", 0)); err != nil {
		t.Fatalf("AddHabit failed: %v", err)
	}

	recorder := newCountingRecorder()
	svc := New(statsFailingStore{store}, WithClock(testutil.ClockOn("2024-01-03")), WithRecorder(recorder))

	log, err := svc.SetStatus(ctx, "h1", "u1", "2024-01-03", constants.StatusCompleted)
	if !errors.IsStorage(err) {
		t.Fatalf("SetStatus error = %v, want the recompute failure", err)
	}
	if log.Date != "2024-01-03" {
		t.Errorf("written log not returned alongside the error: %+v", log)
	}
	if recorder.failures != 1 {
		t.Errorf("recorded %d recompute failures, want 1", recorder.failures)
	}
}

func TestUndo(t *testing.T) {
	ctx := context.Background()
	f := setup(t, "2024-01-03")
	f.addHabit(t, storagetest.Habit("h1", "u1", "Read", 0))

	for _, date := range []string{"2024-01-02", "2024-01-03"} {
		if _, err := f.svc.SetStatus(ctx, "h1", "u1", date, constants.StatusCompleted); err != nil {
			t.Fatalf("SetStatus(%s) failed: %v", date, err)
		}
	}

	if err := f.svc.Undo(ctx, "h1", "u1", "2024-01-03"); err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	if _, err := f.store.GetLog(ctx, "u1", "h1", "2024-01-03"); !errors.IsNotFound(err) {
		t.Errorf("GetLog after undo error = %v, want not found", err)
	}

	st, err := f.store.GetStats(ctx, "u1", "h1")
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if st.TotalCompleted != 1 || st.CurrentStreak != 1 || st.LastCompletedDate != "2024-01-02" {
		t.Errorf("stats after undo = %+v", st)
	}

	if err := f.svc.Undo(ctx, "h1", "u1", "2024-01-03"); err != nil {
		t.Errorf("Undo of an unlogged day failed: %v", err)
	}
	if f.recorder.undone != 1 {
		t.Errorf("recorded %d undos, want 1", f.recorder.undone)
	}

	if err := f.svc.Undo(ctx, "nope", "u1", "2024-01-03"); !errors.IsNotFound(err) {
		t.Errorf("Undo for unknown habit error = %v, want not found", err)
	}
	if err := f.svc.Undo(ctx, "h1", "u1", "yesterday"); !errors.IsValidation(err) {
		t.Errorf("Undo with malformed date error = %v, want validation", err)
	}
}

func TestResetAll(t *testing.T) {
	ctx := context.Background()
	f := setup(t, "2024-01-03")
	f.addHabit(t, storagetest.Habit("h1", "u1", "Read", 0))
	f.addHabit(t, storagetest.Habit("h2", "u2", "Run", 1))

	for _, w := range []struct{ habit, user string }{{"h1", "u1"}, {"h2", "u2"}} {
		if _, err := f.svc.SetStatus(ctx, w.habit, w.user, "2024-01-03", constants.StatusCompleted); err != nil {
			t.Fatalf("SetStatus failed: %v", err)
		}
	}

	if err := f.svc.ResetAll(ctx, "u1"); err != nil {
		t.Fatalf("ResetAll failed: %v", err)
	}

	habits, _ := f.store.GetHabits(ctx, "u1", true)
	logs, _ := f.store.GetLogsForDate(ctx, "u1", "2024-01-03")
	stats, _ := f.store.GetStatsForUser(ctx, "u1")
	if len(habits)+len(logs)+len(stats) != 0 {
		t.Errorf("u1 still has %d habits, %d logs, %d stats", len(habits), len(logs), len(stats))
	}

	habits, _ = f.store.GetHabits(ctx, "u2", true)
	logs, _ = f.store.GetLogsForDate(ctx, "u2", "2024-01-03")
	stats, _ = f.store.GetStatsForUser(ctx, "u2")
	if len(habits) != 1 || len(logs) != 1 || len(stats) != 1 {
		t.Errorf("u2 data changed: %d habits, %d logs, %d stats", len(habits), len(logs), len(stats))
	}
}
