package firestore

import (
	"context"
	"os"
	"testing"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/storage"
	"github.com/julianstephens/habitual/internal/storage/storagetest"
)

var _ storage.Provider = (*Store)(nil)

func TestLogDocID(t *testing.T) {
	if got := logDocID("habit-1", "2024-01-01"); got != "habit-1_2024-01-01" {
		t.Errorf("logDocID() = %q", got)
	}
}

func TestDocRoundTrip(t *testing.T) {
	h := storagetest.Habit("h1", "alice", "Read", 0)
	h.Frequency = models.Frequency{Type: constants.FrequencyWeekly, DaysOfWeek: []int{1, 3}}
	got := newHabitDoc(h).model("h1")
	if got.Name != h.Name || got.Frequency.Type != h.Frequency.Type || len(got.Frequency.DaysOfWeek) != 2 {
		t.Errorf("habit doc round trip mismatch: %+v", got)
	}

	l := storagetest.Log("l1", "alice", "h1", "2024-01-01", constants.StatusMissed)
	if gotLog := newLogDoc(l).model(); gotLog != l {
		t.Errorf("log doc round trip mismatch: %+v", gotLog)
	}

	st := models.HabitStats{HabitID: "h1", UserID: "alice", CurrentStreak: 2, LastCompletedDate: "2024-01-01"}
	if gotStats := newStatsDoc(st).model("h1"); gotStats != st {
		t.Errorf("stats doc round trip mismatch: %+v", gotStats)
	}
}

func TestSortLogs(t *testing.T) {
	logs := []models.HabitLog{
		{HabitID: "b", Date: "2024-01-02"},
		{HabitID: "a", Date: "2024-01-01"},
		{HabitID: "a", Date: "2024-01-02"},
	}

	sortLogs(logs, false)
	if logs[0].Date != "2024-01-01" || logs[1].HabitID != "a" || logs[2].HabitID != "b" {
		t.Errorf("ascending order wrong: %+v", logs)
	}

	sortLogs(logs, true)
	if logs[0].Date != "2024-01-02" || logs[2].Date != "2024-01-01" {
		t.Errorf("descending order wrong: %+v", logs)
	}
}

func TestClientOptionsFromEnv(t *testing.T) {
	t.Setenv(CredentialsEnv, "not base64!")
	s := New(Config{ProjectID: "demo"})
	if _, err := s.clientOptions(); err == nil {
		t.Error("expected an error for malformed base64 credentials")
	}
}

func TestClientOptionsMissingFile(t *testing.T) {
	t.Setenv(CredentialsEnv, "")
	s := New(Config{ProjectID: "demo", CredentialsFile: "/does/not/exist.json"})
	if _, err := s.clientOptions(); err == nil {
		t.Error("expected an error for a missing credentials file")
	}
}

// TestStore_Integration runs the provider suite against the Firestore emulator.
// Start it with `gcloud emulators firestore start` and set FIRESTORE_EMULATOR_HOST.
func TestStore_Integration(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set, skipping Firestore integration test")
	}

	storagetest.Run(t, func(t *testing.T) storage.Provider {
		ctx := context.Background()
		store := New(Config{ProjectID: "habitual-test"})
		if err := store.Init(ctx); err != nil {
			t.Fatalf("Failed to initialize store: %v", err)
		}
		for _, user := range []string{"alice", "bob"} {
			if err := store.DeleteAllForUser(ctx, user); err != nil {
				t.Fatalf("Failed to clean up %s: %v", user, err)
			}
		}
		t.Cleanup(func() { store.Close() })
		return store
	})
}
