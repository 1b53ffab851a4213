package sqlite

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/julianstephens/habitual/internal/logger"
)

// acquireWatcher registers a subscriber and starts the data_version watcher for the first
// one. The returned release is safe to call more than once; the watcher stops when the
// last subscriber releases.
func (s *Store) acquireWatcher() func() {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()

	s.watchers++
	if s.watchers == 1 && s.db != nil {
		// Baseline before the subscription's first read, so a commit racing that read
		// still registers as a change.
		version, err := dataVersion(s.db)
		if err != nil {
			logger.Warn("Failed to read sqlite data_version", "error", err)
			version = -1
		}
		s.stopWatch = make(chan struct{})
		s.watchDone = make(chan struct{})
		go s.watchDataVersion(s.db, version, s.stopWatch, s.watchDone)
	}

	var once sync.Once
	return func() {
		once.Do(s.releaseWatcher)
	}
}

func (s *Store) releaseWatcher() {
	s.watchMu.Lock()
	if s.watchers > 0 {
		s.watchers--
	}
	var done chan struct{}
	if s.watchers == 0 && s.stopWatch != nil {
		close(s.stopWatch)
		done = s.watchDone
		s.stopWatch, s.watchDone = nil, nil
	}
	s.watchMu.Unlock()

	if done != nil {
		<-done
	}
}

// stopWatcher ends the watcher regardless of outstanding subscribers
func (s *Store) stopWatcher() {
	s.watchMu.Lock()
	s.watchers = 0
	stop, done := s.stopWatch, s.watchDone
	s.stopWatch, s.watchDone = nil, nil
	s.watchMu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
}

// watchDataVersion polls PRAGMA data_version, which changes on this connection only when
// another connection commits. Each change wakes every subscriber to re-read.
func (s *Store) watchDataVersion(db *sql.DB, last int64, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		version, err := dataVersion(db)
		if err != nil {
			logger.Debug("Failed to poll sqlite data_version", "error", err)
			continue
		}
		if version != last {
			last = version
			s.hub.NotifyAll()
		}
	}
}

func dataVersion(db *sql.DB) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var version int64
	err := db.QueryRowContext(ctx, "PRAGMA data_version").Scan(&version)
	return version, err
}
