package firestore

import (
	"context"
	"fmt"
	"sort"

	"google.golang.org/api/iterator"

	"github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/models"
)

func (s *Store) GetStats(ctx context.Context, userID, habitID string) (models.HabitStats, error) {
	snap, err := s.stats().Doc(habitID).Get(ctx)
	if isNotFound(err) {
		return models.HabitStats{}, errors.NotFound("stats", habitID)
	}
	if err != nil {
		return models.HabitStats{}, errors.Storage("get stats", err)
	}

	var doc statsDoc
	if err := snap.DataTo(&doc); err != nil {
		return models.HabitStats{}, errors.Storage("get stats", err)
	}
	if doc.UserID != userID {
		return models.HabitStats{}, errors.NotFound("stats", habitID)
	}
	return doc.model(snap.Ref.ID), nil
}

func (s *Store) GetStatsForUser(ctx context.Context, userID string) ([]models.HabitStats, error) {
	iter := s.stats().Where("userId", "==", userID).Documents(ctx)
	defer iter.Stop()

	stats := []models.HabitStats{}
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Storage("list stats", err)
		}
		var doc statsDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, errors.Storage("list stats", fmt.Errorf("decode %s: %w", snap.Ref.ID, err))
		}
		stats = append(stats, doc.model(snap.Ref.ID))
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].HabitID < stats[j].HabitID })
	return stats, nil
}

// UpsertStats replaces the single stats document of the habit
func (s *Store) UpsertStats(ctx context.Context, stats models.HabitStats) error {
	_, err := s.stats().Doc(stats.HabitID).Set(ctx, newStatsDoc(stats))
	return errors.Storage("upsert stats", err)
}
