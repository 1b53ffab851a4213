package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/migration"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/storage"
	"github.com/julianstephens/habitual/migrations"
)

type Store struct {
	path string
	db   *sql.DB
	hub  *storage.Hub

	pollInterval time.Duration
	watchMu      sync.Mutex
	watchers     int
	stopWatch    chan struct{}
	watchDone    chan struct{}
}

func NewStore(path string) *Store {
	return &Store{
		path:         path,
		hub:          storage.NewHub(),
		pollInterval: constants.SQLitePollInterval,
	}
}

func (s *Store) open() error {
	db, err := sql.Open("sqlite", s.path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection serialises writers; subscription refreshes queue behind them.
	db.SetMaxOpenConns(1)
	s.db = db
	return nil
}

func (s *Store) Init(ctx context.Context) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if s.db == nil {
		if err := s.open(); err != nil {
			return err
		}
	}

	if _, err := s.Migrate(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context) error {
	if s.db != nil {
		return nil
	}

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return fmt.Errorf("storage not initialized, run '%s init' first", constants.AppName)
	}

	if err := s.open(); err != nil {
		return err
	}

	return s.runner().ValidateVersion()
}

func (s *Store) Close() error {
	s.stopWatcher()
	s.hub.Close()
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

func (s *Store) runner() *migration.Runner {
	subFS, err := fs.Sub(migrations.FS, "sqlite")
	if err != nil {
		// fs.Sub only fails on an invalid path literal
		panic(fmt.Sprintf("sqlite migrations: %v", err))
	}
	return migration.NewRunner(s.db, subFS)
}

// Migrate applies pending schema migrations and returns how many ran
func (s *Store) Migrate() (int, error) {
	return s.runner().ApplyMigrations(func(msg string) {
		logger.Info(msg, "backend", "sqlite")
	})
}

// MigrationStatus reports the schema version against the embedded migrations
func (s *Store) MigrationStatus() (migration.Status, error) {
	return s.runner().Status()
}

func (s *Store) GetConfigPath() string {
	return s.path
}

// GetDB returns the underlying database connection, or nil before Init/Load
func (s *Store) GetDB() *sql.DB {
	return s.db
}

// tableExists checks if a table exists in the SQLite database (case-insensitive)
func (s *Store) tableExists(tableName string) (bool, error) {
	var count int
	row := s.db.QueryRow("SELECT count(*) FROM sqlite_master WHERE type='table' AND name COLLATE NOCASE = ?", tableName)
	if err := row.Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// SubscribeLogsForDate delivers the date's logs now and after every change. Writes made
// through this store notify directly; commits from other connections to the same file are
// picked up by the data_version watcher within one poll interval.
func (s *Store) SubscribeLogsForDate(ctx context.Context, userID, date string, fn storage.LogsCallback) (storage.Unsubscribe, error) {
	release := s.acquireWatcher()
	unsubscribe, err := s.hub.Subscribe(ctx, userID, date, func(ctx context.Context) ([]models.HabitLog, error) {
		return s.GetLogsForDate(ctx, userID, date)
	}, fn)
	if err != nil {
		release()
		return nil, err
	}

	stop := context.AfterFunc(ctx, release)
	return func() {
		unsubscribe()
		stop()
		release()
	}, nil
}

// DeleteAllForUser removes the user's habits, logs, and stats in one transaction
func (s *Store) DeleteAllForUser(ctx context.Context, userID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Storage("delete user data", err)
	}

	for _, table := range []string{"habit_logs", "habit_stats", "habits"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE user_id = ?", userID); err != nil {
			_ = tx.Rollback()
			return errors.Storage("delete user data", fmt.Errorf("%s: %w", table, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Storage("delete user data", err)
	}

	s.hub.NotifyUser(userID)
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}
