package firestore

import (
	"context"

	"cloud.google.com/go/firestore"

	"github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/models"
)

func (s *Store) GetLog(ctx context.Context, userID, habitID, date string) (models.HabitLog, error) {
	snap, err := s.logs().Doc(logDocID(habitID, date)).Get(ctx)
	if isNotFound(err) {
		return models.HabitLog{}, errors.NotFound("log", habitID+"/"+date)
	}
	if err != nil {
		return models.HabitLog{}, errors.Storage("get log", err)
	}

	var doc logDoc
	if err := snap.DataTo(&doc); err != nil {
		return models.HabitLog{}, errors.Storage("get log", err)
	}
	if doc.UserID != userID {
		return models.HabitLog{}, errors.NotFound("log", habitID+"/"+date)
	}
	return doc.model(), nil
}

func (s *Store) GetLogsForHabit(ctx context.Context, userID, habitID string) ([]models.HabitLog, error) {
	logs, err := queryLogs(ctx, "list habit logs",
		s.logs().Where("userId", "==", userID).Where("habitId", "==", habitID))
	if err != nil {
		return nil, err
	}
	sortLogs(logs, true)
	return logs, nil
}

func (s *Store) GetLogsForDate(ctx context.Context, userID, date string) ([]models.HabitLog, error) {
	logs, err := queryLogs(ctx, "list logs for date", s.logsForDateQuery(userID, date))
	if err != nil {
		return nil, err
	}
	sortLogs(logs, false)
	return logs, nil
}

func (s *Store) logsForDateQuery(userID, date string) firestore.Query {
	return s.logs().Where("userId", "==", userID).Where("date", "==", date)
}

func (s *Store) GetLogsInRange(ctx context.Context, userID, start, end string) ([]models.HabitLog, error) {
	logs, err := queryLogs(ctx, "list logs in range", s.logs().
		Where("userId", "==", userID).
		Where("date", ">=", start).
		Where("date", "<=", end))
	if err != nil {
		return nil, err
	}
	sortLogs(logs, false)
	return logs, nil
}

// UpsertLog writes to the deterministic (habit, date) document in a transaction so a
// concurrent first write for the same day cannot create a second record.
func (s *Store) UpsertLog(ctx context.Context, log models.HabitLog) error {
	ref := s.logs().Doc(logDocID(log.HabitID, log.Date))
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil && !isNotFound(err) {
			return err
		}
		doc := newLogDoc(log)
		if err == nil && snap.Exists() {
			var existing logDoc
			if err := snap.DataTo(&existing); err != nil {
				return err
			}
			doc.ID = existing.ID
			doc.CreatedAt = existing.CreatedAt
		}
		return tx.Set(ref, doc)
	})
	return errors.Storage("upsert log", err)
}

func (s *Store) DeleteLog(ctx context.Context, userID, habitID, date string) (bool, error) {
	ref := s.logs().Doc(logDocID(habitID, date))
	deleted := false
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		deleted = false
		snap, err := tx.Get(ref)
		if isNotFound(err) {
			return nil
		}
		if err != nil {
			return err
		}
		owner, err := snap.DataAt("userId")
		if err != nil || owner != userID {
			return nil
		}
		deleted = true
		return tx.Delete(ref)
	})
	if err != nil {
		return false, errors.Storage("delete log", err)
	}
	return deleted, nil
}
