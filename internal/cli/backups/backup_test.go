package backups

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/config"
	"github.com/julianstephens/habitual/internal/storage/memory"
	"github.com/julianstephens/habitual/internal/storage/sqlite"
	"github.com/julianstephens/habitual/internal/testutil"
	"github.com/julianstephens/habitual/internal/tracker"
)

func setupTestContext(t *testing.T) (*cli.Context, *bytes.Buffer, *testutil.StubClock) {
	t.Helper()
	cfg := config.Default(t.TempDir())
	store := sqlite.NewStore(cfg.Storage.Path)
	t.Cleanup(func() { _ = store.Close() })

	clk := testutil.ClockOn("2024-03-05")
	var out bytes.Buffer
	ctx := cli.NewContext(context.Background(), cfg, store, cli.WithClock(clk), cli.WithOutput(&out))
	if err := store.Init(ctx.Ctx()); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	return ctx, &out, clk
}

func habitCount(t *testing.T, ctx *cli.Context) int {
	t.Helper()
	habits, err := ctx.Tracker.Habits(ctx.Ctx(), ctx.UserID, true)
	if err != nil {
		t.Fatalf("Habits failed: %v", err)
	}
	return len(habits)
}

func TestBackupCreateAndList(t *testing.T) {
	ctx, out, clk := setupTestContext(t)

	if err := (&BackupListCmd{}).Run(ctx); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out.String(), "No backups found.") {
		t.Errorf("unexpected output: %q", out.String())
	}

	out.Reset()
	if err := (&BackupCreateCmd{}).Run(ctx); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if !strings.Contains(out.String(), "habitual-20240305-103000.db") {
		t.Errorf("unexpected output: %q", out.String())
	}

	clk.AdvanceDays(1)
	if err := (&BackupCreateCmd{}).Run(ctx); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	out.Reset()
	if err := (&BackupListCmd{}).Run(ctx); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "2 total") {
		t.Errorf("expected two backups:\n%s", got)
	}
	if strings.Index(got, "20240306") > strings.Index(got, "20240305") {
		t.Errorf("backups should be listed newest first:\n%s", got)
	}
}

func TestBackupRestore(t *testing.T) {
	ctx, out, _ := setupTestContext(t)

	if err := (&BackupCreateCmd{}).Run(ctx); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, _, err := ctx.Tracker.CreateHabit(ctx.Ctx(), ctx.UserID, tracker.HabitInput{Name: "Read"}); err != nil {
		t.Fatalf("CreateHabit failed: %v", err)
	}
	if n := habitCount(t, ctx); n != 1 {
		t.Fatalf("expected 1 habit before restore, got %d", n)
	}

	if err := (&BackupRestoreCmd{BackupFile: "habitual-20240305-103000.db", Yes: true}).Run(ctx); err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if !strings.Contains(out.String(), "restored successfully") {
		t.Errorf("unexpected output: %q", out.String())
	}

	if err := ctx.Store.Load(ctx.Ctx()); err != nil {
		t.Fatalf("failed to reload store: %v", err)
	}
	if n := habitCount(t, ctx); n != 0 {
		t.Errorf("expected the empty snapshot to be restored, got %d habits", n)
	}
}

func TestBackupRestoreMissingFile(t *testing.T) {
	ctx, _, _ := setupTestContext(t)

	err := (&BackupRestoreCmd{BackupFile: "habitual-19990101-000000.db", Yes: true}).Run(ctx)
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected a not found error, got %v", err)
	}

	err = (&BackupRestoreCmd{BackupFile: filepath.Join(t.TempDir(), "gone.db"), Yes: true}).Run(ctx)
	if err == nil {
		t.Error("expected an error for a missing absolute path")
	}
}

func TestBackupRequiresSQLite(t *testing.T) {
	cfg := config.Default(t.TempDir())
	cfg.Storage.Type = config.StorageMemory
	ctx := cli.NewContext(context.Background(), cfg, memory.New())

	if err := (&BackupCreateCmd{}).Run(ctx); err != errNotSQLite {
		t.Errorf("expected errNotSQLite, got %v", err)
	}
}
