package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"

	"github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/storage"
)

// SubscribeLogsForDate streams query snapshots of the (user, date) logs. The first
// snapshot is delivered before returning.
func (s *Store) SubscribeLogsForDate(ctx context.Context, userID, date string, fn storage.LogsCallback) (storage.Unsubscribe, error) {
	subCtx, cancel := context.WithCancel(ctx)
	it := s.logsForDateQuery(userID, date).Snapshots(subCtx)

	first, err := it.Next()
	if err != nil {
		cancel()
		it.Stop()
		return nil, errors.Storage("subscribe logs", err)
	}
	logs, err := snapshotLogs(first.Documents.GetAll)
	if err != nil {
		cancel()
		it.Stop()
		return nil, errors.Storage("subscribe logs", err)
	}
	fn(logs)

	exited := make(chan struct{})
	go func() {
		defer close(exited)
		defer it.Stop()
		for {
			qs, err := it.Next()
			if subCtx.Err() != nil {
				return
			}
			if err != nil {
				logger.Warn("Firestore log subscription ended", "user", userID, "date", date, "error", err)
				return
			}
			logs, err := snapshotLogs(qs.Documents.GetAll)
			if err != nil {
				logger.Warn("Failed to decode log snapshot", "user", userID, "date", date, "error", err)
				continue
			}
			if subCtx.Err() != nil {
				return
			}
			fn(logs)
		}
	}()

	return func() {
		cancel()
		<-exited
	}, nil
}

func snapshotLogs(getAll func() ([]*firestore.DocumentSnapshot, error)) ([]models.HabitLog, error) {
	docs, err := getAll()
	if err != nil {
		return nil, err
	}
	logs := make([]models.HabitLog, 0, len(docs))
	for _, snap := range docs {
		var doc logDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode %s: %w", snap.Ref.ID, err)
		}
		logs = append(logs, doc.model())
	}
	sortLogs(logs, false)
	return logs, nil
}
