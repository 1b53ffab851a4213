package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	pq "github.com/lib/pq"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/storage"
)

// change is the NOTIFY payload. An empty Date means every date of the user changed.
type change struct {
	UserID string `json:"user_id"`
	Date   string `json:"date,omitempty"`
}

// notify queues a change notification inside tx; PostgreSQL delivers it on commit
func notify(ctx context.Context, tx *sql.Tx, userID, date string) error {
	payload, err := json.Marshal(change{UserID: userID, Date: date})
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, "SELECT pg_notify($1, $2)", constants.LogsNotifyChannel, string(payload))
	return err
}

// SubscribeLogsForDate listens on the logs channel so writes from any process reach
// the subscriber. The listener connection is opened on first use.
func (s *Store) SubscribeLogsForDate(ctx context.Context, userID, date string, fn storage.LogsCallback) (storage.Unsubscribe, error) {
	if err := s.startListener(); err != nil {
		return nil, errors.Storage("subscribe logs", err)
	}
	return s.hub.Subscribe(ctx, userID, date, func(ctx context.Context) ([]models.HabitLog, error) {
		return s.GetLogsForDate(ctx, userID, date)
	}, fn)
}

func (s *Store) startListener() error {
	s.listenMu.Lock()
	defer s.listenMu.Unlock()
	if s.listener != nil {
		return nil
	}

	listener := pq.NewListener(s.connStr, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			logger.Warn("Postgres listener event", "event", ev, "error", err)
		}
	})
	if err := listener.Listen(constants.LogsNotifyChannel); err != nil {
		listener.Close()
		return fmt.Errorf("failed to listen on %s: %w", constants.LogsNotifyChannel, err)
	}

	s.listener = listener
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.dispatch(listener, s.stop, s.done)
	return nil
}

func (s *Store) dispatch(listener *pq.Listener, stop, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-stop:
			return
		case n, ok := <-listener.Notify:
			if !ok {
				return
			}
			if n == nil {
				// connection was re-established; events may have been dropped
				s.hub.NotifyAll()
				continue
			}
			var c change
			if err := json.Unmarshal([]byte(n.Extra), &c); err != nil {
				logger.Warn("Ignoring malformed log notification", "payload", n.Extra, "error", err)
				continue
			}
			if c.Date == "" {
				s.hub.NotifyUser(c.UserID)
			} else {
				s.hub.Notify(c.UserID, c.Date)
			}
		case <-time.After(90 * time.Second):
			go func() {
				if err := listener.Ping(); err != nil {
					logger.Debug("Postgres listener ping failed", "error", err)
				}
			}()
		}
	}
}

func (s *Store) stopListener() {
	s.listenMu.Lock()
	defer s.listenMu.Unlock()
	if s.listener == nil {
		return
	}
	close(s.stop)
	<-s.done
	if err := s.listener.Close(); err != nil {
		logger.Debug("Failed to close Postgres listener", "error", err)
	}
	s.listener = nil
}
