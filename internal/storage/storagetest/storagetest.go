// Package storagetest holds the behavioural suite every storage.Provider must pass.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/storage"
)

// Factory returns an initialized, empty store. Cleanup is the factory's job.
type Factory func(t *testing.T) storage.Provider

// PairFactory returns two independently opened stores over the same data, the way two
// processes would see it.
type PairFactory func(t *testing.T) (storage.Provider, storage.Provider)

var base = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

// Habit builds an active daily habit for userID created at base+offset minutes.
func Habit(id, userID, name string, offset int) models.Habit {
	ts := base.Add(time.Duration(offset) * time.Minute)
	return models.Habit{
		ID:        id,
		UserID:    userID,
		Name:      name,
		Color:     constants.DefaultHabitColor,
		Frequency: models.Frequency{Type: constants.FrequencyDaily},
		IsActive:  true,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
}

// Log builds a log for (habitID, date).
func Log(id, userID, habitID, date string, status constants.LogStatus) models.HabitLog {
	return models.HabitLog{
		ID:        id,
		HabitID:   habitID,
		UserID:    userID,
		Date:      date,
		Status:    status,
		CreatedAt: base,
		UpdatedAt: base,
	}
}

// Run executes the full provider suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("Habits", func(t *testing.T) { testHabits(t, newStore(t)) })
	t.Run("Logs", func(t *testing.T) { testLogs(t, newStore(t)) })
	t.Run("LogQueries", func(t *testing.T) { testLogQueries(t, newStore(t)) })
	t.Run("Stats", func(t *testing.T) { testStats(t, newStore(t)) })
	t.Run("DeleteAllForUser", func(t *testing.T) { testDeleteAllForUser(t, newStore(t)) })
	t.Run("Subscribe", func(t *testing.T) { testSubscribe(t, newStore(t)) })
}

func testHabits(t *testing.T, s storage.Provider) {
	ctx := context.Background()

	second := Habit("h2", "alice", "Write", 2)
	second.Frequency = models.Frequency{Type: constants.FrequencyWeekly, DaysOfWeek: []int{1, 3, 5}}
	second.Description = "500 words"
	for _, h := range []models.Habit{
		second,
		Habit("h1", "alice", "Read", 1),
		Habit("h3", "bob", "Run", 3),
	} {
		if err := s.AddHabit(ctx, h); err != nil {
			t.Fatalf("AddHabit(%s) failed: %v", h.ID, err)
		}
	}

	got, err := s.GetHabit(ctx, "alice", "h2")
	if err != nil {
		t.Fatalf("GetHabit failed: %v", err)
	}
	if got.Name != "Write" || got.Description != "500 words" || !got.IsActive {
		t.Errorf("unexpected habit: %+v", got)
	}
	if got.Frequency.Type != constants.FrequencyWeekly || len(got.Frequency.DaysOfWeek) != 3 || got.Frequency.DaysOfWeek[2] != 5 {
		t.Errorf("frequency not round-tripped: %+v", got.Frequency)
	}
	if !got.CreatedAt.Equal(second.CreatedAt) {
		t.Errorf("created_at = %v, want %v", got.CreatedAt, second.CreatedAt)
	}

	if _, err := s.GetHabit(ctx, "bob", "h2"); !errors.IsNotFound(err) {
		t.Errorf("expected NotFound for another user's habit, got %v", err)
	}
	if _, err := s.GetHabit(ctx, "alice", "missing"); !errors.IsNotFound(err) {
		t.Errorf("expected NotFound for missing habit, got %v", err)
	}

	habits, err := s.GetHabits(ctx, "alice", false)
	if err != nil {
		t.Fatalf("GetHabits failed: %v", err)
	}
	if len(habits) != 2 || habits[0].ID != "h1" || habits[1].ID != "h2" {
		t.Fatalf("expected [h1 h2] in creation order, got %+v", habitIDs(habits))
	}

	got.IsActive = false
	got.Name = "Write daily"
	got.UpdatedAt = base.Add(time.Hour)
	if err := s.UpdateHabit(ctx, got); err != nil {
		t.Fatalf("UpdateHabit failed: %v", err)
	}

	active, err := s.GetHabits(ctx, "alice", false)
	if err != nil {
		t.Fatalf("GetHabits failed: %v", err)
	}
	if len(active) != 1 || active[0].ID != "h1" {
		t.Errorf("expected only h1 active, got %v", habitIDs(active))
	}

	all, err := s.GetHabits(ctx, "alice", true)
	if err != nil {
		t.Fatalf("GetHabits(includeInactive) failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 habits including inactive, got %d", len(all))
	}

	updated, err := s.GetHabit(ctx, "alice", "h2")
	if err != nil {
		t.Fatalf("GetHabit after update failed: %v", err)
	}
	if updated.Name != "Write daily" || updated.IsActive {
		t.Errorf("update not persisted: %+v", updated)
	}

	ghost := Habit("ghost", "alice", "Ghost", 9)
	if err := s.UpdateHabit(ctx, ghost); !errors.IsNotFound(err) {
		t.Errorf("expected NotFound updating a missing habit, got %v", err)
	}
}

func testLogs(t *testing.T, s storage.Provider) {
	ctx := context.Background()
	if err := s.AddHabit(ctx, Habit("h1", "alice", "Read", 1)); err != nil {
		t.Fatalf("AddHabit failed: %v", err)
	}

	if _, err := s.GetLog(ctx, "alice", "h1", "2024-01-01"); !errors.IsNotFound(err) {
		t.Errorf("expected NotFound before any log, got %v", err)
	}

	first := Log("l1", "alice", "h1", "2024-01-01", constants.StatusCompleted)
	if err := s.UpsertLog(ctx, first); err != nil {
		t.Fatalf("UpsertLog failed: %v", err)
	}

	// Second write for the same (habit, date) replaces the status but keeps identity.
	second := Log("l2", "alice", "h1", "2024-01-01", constants.StatusMissed)
	second.CreatedAt = base.Add(time.Hour)
	second.UpdatedAt = base.Add(time.Hour)
	if err := s.UpsertLog(ctx, second); err != nil {
		t.Fatalf("UpsertLog (overwrite) failed: %v", err)
	}

	got, err := s.GetLog(ctx, "alice", "h1", "2024-01-01")
	if err != nil {
		t.Fatalf("GetLog failed: %v", err)
	}
	if got.Status != constants.StatusMissed {
		t.Errorf("status = %s, want missed", got.Status)
	}
	if got.ID != "l1" || !got.CreatedAt.Equal(base) {
		t.Errorf("overwrite should keep id and created_at, got id=%s created=%v", got.ID, got.CreatedAt)
	}
	if !got.UpdatedAt.Equal(base.Add(time.Hour)) {
		t.Errorf("updated_at = %v, want %v", got.UpdatedAt, base.Add(time.Hour))
	}

	logs, err := s.GetLogsForHabit(ctx, "alice", "h1")
	if err != nil {
		t.Fatalf("GetLogsForHabit failed: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("expected exactly one log per (habit, date), got %d", len(logs))
	}

	if _, err := s.GetLog(ctx, "bob", "h1", "2024-01-01"); !errors.IsNotFound(err) {
		t.Errorf("expected NotFound for another user's log, got %v", err)
	}

	deleted, err := s.DeleteLog(ctx, "alice", "h1", "2024-01-01")
	if err != nil {
		t.Fatalf("DeleteLog failed: %v", err)
	}
	if !deleted {
		t.Error("expected DeleteLog to report a deletion")
	}

	deleted, err = s.DeleteLog(ctx, "alice", "h1", "2024-01-01")
	if err != nil {
		t.Fatalf("DeleteLog (absent) failed: %v", err)
	}
	if deleted {
		t.Error("expected DeleteLog on an absent log to report false")
	}
}

func testLogQueries(t *testing.T, s storage.Provider) {
	ctx := context.Background()
	for _, h := range []models.Habit{Habit("h1", "alice", "Read", 1), Habit("h2", "alice", "Write", 2), Habit("h3", "bob", "Run", 3)} {
		if err := s.AddHabit(ctx, h); err != nil {
			t.Fatalf("AddHabit failed: %v", err)
		}
	}

	logs := []models.HabitLog{
		Log("a", "alice", "h1", "2024-01-01", constants.StatusCompleted),
		Log("b", "alice", "h1", "2024-01-03", constants.StatusMissed),
		Log("c", "alice", "h1", "2024-01-02", constants.StatusCompleted),
		Log("d", "alice", "h2", "2024-01-02", constants.StatusCompleted),
		Log("e", "bob", "h3", "2024-01-02", constants.StatusCompleted),
	}
	for _, l := range logs {
		if err := s.UpsertLog(ctx, l); err != nil {
			t.Fatalf("UpsertLog(%s) failed: %v", l.ID, err)
		}
	}

	forHabit, err := s.GetLogsForHabit(ctx, "alice", "h1")
	if err != nil {
		t.Fatalf("GetLogsForHabit failed: %v", err)
	}
	if dates := logDates(forHabit); !equalStrings(dates, []string{"2024-01-03", "2024-01-02", "2024-01-01"}) {
		t.Errorf("GetLogsForHabit should be newest first, got %v", dates)
	}

	forDate, err := s.GetLogsForDate(ctx, "alice", "2024-01-02")
	if err != nil {
		t.Fatalf("GetLogsForDate failed: %v", err)
	}
	if len(forDate) != 2 {
		t.Errorf("expected 2 alice logs on 2024-01-02, got %d", len(forDate))
	}
	for _, l := range forDate {
		if l.UserID != "alice" {
			t.Errorf("GetLogsForDate leaked a log of %s", l.UserID)
		}
	}

	inRange, err := s.GetLogsInRange(ctx, "alice", "2024-01-02", "2024-01-03")
	if err != nil {
		t.Fatalf("GetLogsInRange failed: %v", err)
	}
	if len(inRange) != 3 {
		t.Fatalf("expected 3 logs in range, got %d", len(inRange))
	}
	if inRange[0].Date != "2024-01-02" || inRange[2].Date != "2024-01-03" {
		t.Errorf("GetLogsInRange should be oldest first, got %v", logDates(inRange))
	}

	none, err := s.GetLogsForDate(ctx, "alice", "2023-12-31")
	if err != nil {
		t.Fatalf("GetLogsForDate (empty) failed: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no logs, got %d", len(none))
	}
}

func testStats(t *testing.T, s storage.Provider) {
	ctx := context.Background()

	if _, err := s.GetStats(ctx, "alice", "h1"); !errors.IsNotFound(err) {
		t.Errorf("expected NotFound before stats exist, got %v", err)
	}

	stats := models.HabitStats{
		HabitID:           "h1",
		UserID:            "alice",
		CurrentStreak:     2,
		LongestStreak:     5,
		TotalCompleted:    7,
		TotalMissed:       1,
		CompletionRate:    88,
		LastCompletedDate: "2024-01-02",
		LastUpdated:       base,
	}
	if err := s.UpsertStats(ctx, stats); err != nil {
		t.Fatalf("UpsertStats failed: %v", err)
	}

	stats.CurrentStreak = 3
	stats.LastUpdated = base.Add(time.Minute)
	if err := s.UpsertStats(ctx, stats); err != nil {
		t.Fatalf("UpsertStats (replace) failed: %v", err)
	}
	if err := s.UpsertStats(ctx, models.HabitStats{HabitID: "h9", UserID: "bob", LastUpdated: base}); err != nil {
		t.Fatalf("UpsertStats (bob) failed: %v", err)
	}

	got, err := s.GetStats(ctx, "alice", "h1")
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if got.CurrentStreak != 3 || got.LongestStreak != 5 || got.CompletionRate != 88 || got.LastCompletedDate != "2024-01-02" {
		t.Errorf("unexpected stats: %+v", got)
	}

	all, err := s.GetStatsForUser(ctx, "alice")
	if err != nil {
		t.Fatalf("GetStatsForUser failed: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("expected one stats record per habit, got %d", len(all))
	}

	empty := models.HabitStats{HabitID: "h2", UserID: "alice", LastUpdated: base}
	if err := s.UpsertStats(ctx, empty); err != nil {
		t.Fatalf("UpsertStats (empty) failed: %v", err)
	}
	got, err = s.GetStats(ctx, "alice", "h2")
	if err != nil {
		t.Fatalf("GetStats (empty) failed: %v", err)
	}
	if got.LastCompletedDate != "" {
		t.Errorf("expected empty last completed date, got %q", got.LastCompletedDate)
	}
}

func testDeleteAllForUser(t *testing.T, s storage.Provider) {
	ctx := context.Background()

	for _, user := range []string{"alice", "bob"} {
		h := Habit("h-"+user, user, "Read", 1)
		if err := s.AddHabit(ctx, h); err != nil {
			t.Fatalf("AddHabit failed: %v", err)
		}
		if err := s.UpsertLog(ctx, Log("l-"+user, user, h.ID, "2024-01-01", constants.StatusCompleted)); err != nil {
			t.Fatalf("UpsertLog failed: %v", err)
		}
		if err := s.UpsertStats(ctx, models.HabitStats{HabitID: h.ID, UserID: user, TotalCompleted: 1, LastUpdated: base}); err != nil {
			t.Fatalf("UpsertStats failed: %v", err)
		}
	}

	if err := s.DeleteAllForUser(ctx, "alice"); err != nil {
		t.Fatalf("DeleteAllForUser failed: %v", err)
	}

	habits, err := s.GetHabits(ctx, "alice", true)
	if err != nil {
		t.Fatalf("GetHabits failed: %v", err)
	}
	if len(habits) != 0 {
		t.Errorf("expected alice's habits gone, got %d", len(habits))
	}
	if logs, _ := s.GetLogsInRange(ctx, "alice", "2000-01-01", "2100-01-01"); len(logs) != 0 {
		t.Errorf("expected alice's logs gone, got %d", len(logs))
	}
	if stats, _ := s.GetStatsForUser(ctx, "alice"); len(stats) != 0 {
		t.Errorf("expected alice's stats gone, got %d", len(stats))
	}

	// Bob is untouched
	if _, err := s.GetHabit(ctx, "bob", "h-bob"); err != nil {
		t.Errorf("bob's habit should survive: %v", err)
	}
	if _, err := s.GetLog(ctx, "bob", "h-bob", "2024-01-01"); err != nil {
		t.Errorf("bob's log should survive: %v", err)
	}
	if _, err := s.GetStats(ctx, "bob", "h-bob"); err != nil {
		t.Errorf("bob's stats should survive: %v", err)
	}

	// Resetting an empty account is fine
	if err := s.DeleteAllForUser(ctx, "alice"); err != nil {
		t.Errorf("DeleteAllForUser on an empty account failed: %v", err)
	}
}

// RunShared checks that a subscriber on one store sees writes made through the other.
func RunShared(t *testing.T, newPair PairFactory) {
	t.Run("SubscribeSeesOtherWriter", func(t *testing.T) {
		watcher, writer := newPair(t)
		testSubscribeOtherWriter(t, watcher, writer)
	})
}

func testSubscribeOtherWriter(t *testing.T, watcher, writer storage.Provider) {
	ctx := context.Background()
	if err := writer.AddHabit(ctx, Habit("h1", "alice", "Read", 1)); err != nil {
		t.Fatalf("AddHabit failed: %v", err)
	}

	ch := make(chan []models.HabitLog, 32)
	unsub, err := watcher.SubscribeLogsForDate(ctx, "alice", "2024-01-01", func(logs []models.HabitLog) {
		ch <- logs
	})
	if err != nil {
		t.Fatalf("SubscribeLogsForDate failed: %v", err)
	}
	defer unsub()
	await(t, ch, func(l []models.HabitLog) bool { return len(l) == 0 })

	if err := writer.UpsertLog(ctx, Log("l1", "alice", "h1", "2024-01-01", constants.StatusCompleted)); err != nil {
		t.Fatalf("UpsertLog failed: %v", err)
	}
	await(t, ch, func(l []models.HabitLog) bool {
		return len(l) == 1 && l[0].Status == constants.StatusCompleted
	})

	if _, err := writer.DeleteLog(ctx, "alice", "h1", "2024-01-01"); err != nil {
		t.Fatalf("DeleteLog failed: %v", err)
	}
	await(t, ch, func(l []models.HabitLog) bool { return len(l) == 0 })
}

func testSubscribe(t *testing.T, s storage.Provider) {
	ctx := context.Background()
	if err := s.AddHabit(ctx, Habit("h1", "alice", "Read", 1)); err != nil {
		t.Fatalf("AddHabit failed: %v", err)
	}

	ch := make(chan []models.HabitLog, 32)
	unsub, err := s.SubscribeLogsForDate(ctx, "alice", "2024-01-01", func(logs []models.HabitLog) {
		ch <- logs
	})
	if err != nil {
		t.Fatalf("SubscribeLogsForDate failed: %v", err)
	}
	defer unsub()

	if logs := await(t, ch, func(l []models.HabitLog) bool { return true }); len(logs) != 0 {
		t.Errorf("expected empty initial snapshot, got %d", len(logs))
	}

	if err := s.UpsertLog(ctx, Log("l1", "alice", "h1", "2024-01-01", constants.StatusCompleted)); err != nil {
		t.Fatalf("UpsertLog failed: %v", err)
	}
	await(t, ch, func(l []models.HabitLog) bool {
		return len(l) == 1 && l[0].Status == constants.StatusCompleted
	})

	if _, err := s.DeleteLog(ctx, "alice", "h1", "2024-01-01"); err != nil {
		t.Fatalf("DeleteLog failed: %v", err)
	}
	await(t, ch, func(l []models.HabitLog) bool { return len(l) == 0 })

	unsub()
	drain(ch)
	if err := s.UpsertLog(ctx, Log("l2", "alice", "h1", "2024-01-01", constants.StatusMissed)); err != nil {
		t.Fatalf("UpsertLog failed: %v", err)
	}
	select {
	case logs := <-ch:
		t.Errorf("callback fired after unsubscribe with %d logs", len(logs))
	case <-time.After(200 * time.Millisecond):
	}
}

// await reads snapshots until one satisfies ok. Change feeds may deliver intermediate
// states, so earlier snapshots are skipped.
func await(t *testing.T, ch chan []models.HabitLog, ok func([]models.HabitLog) bool) []models.HabitLog {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case logs := <-ch:
			if ok(logs) {
				return logs
			}
		case <-timeout:
			t.Fatal("timed out waiting for subscription snapshot")
			return nil
		}
	}
}

func drain(ch chan []models.HabitLog) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}

func habitIDs(habits []models.Habit) []string {
	ids := make([]string, len(habits))
	for i, h := range habits {
		ids[i] = h.ID
	}
	return ids
}

func logDates(logs []models.HabitLog) []string {
	dates := make([]string, len(logs))
	for i, l := range logs {
		dates[i] = l.Date
	}
	return dates
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
