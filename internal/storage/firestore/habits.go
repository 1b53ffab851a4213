package firestore

import (
	"context"
	"fmt"
	"sort"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/models"
)

func (s *Store) AddHabit(ctx context.Context, habit models.Habit) error {
	_, err := s.habits().Doc(habit.ID).Create(ctx, newHabitDoc(habit))
	return errors.Storage("add habit", err)
}

func (s *Store) GetHabit(ctx context.Context, userID, habitID string) (models.Habit, error) {
	snap, err := s.habits().Doc(habitID).Get(ctx)
	if isNotFound(err) {
		return models.Habit{}, errors.NotFound("habit", habitID)
	}
	if err != nil {
		return models.Habit{}, errors.Storage("get habit", err)
	}

	var doc habitDoc
	if err := snap.DataTo(&doc); err != nil {
		return models.Habit{}, errors.Storage("get habit", err)
	}
	if doc.UserID != userID {
		return models.Habit{}, errors.NotFound("habit", habitID)
	}
	return doc.model(snap.Ref.ID), nil
}

func (s *Store) GetHabits(ctx context.Context, userID string, includeInactive bool) ([]models.Habit, error) {
	q := s.habits().Where("userId", "==", userID)
	if !includeInactive {
		q = q.Where("isActive", "==", true)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	habits := []models.Habit{}
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Storage("list habits", err)
		}
		var doc habitDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, errors.Storage("list habits", fmt.Errorf("decode %s: %w", snap.Ref.ID, err))
		}
		habits = append(habits, doc.model(snap.Ref.ID))
	}

	// ordering in memory avoids a composite index on (userId, isActive, createdAt)
	sort.Slice(habits, func(i, j int) bool {
		if habits[i].CreatedAt.Equal(habits[j].CreatedAt) {
			return habits[i].ID < habits[j].ID
		}
		return habits[i].CreatedAt.Before(habits[j].CreatedAt)
	})
	return habits, nil
}

func (s *Store) UpdateHabit(ctx context.Context, habit models.Habit) error {
	ref := s.habits().Doc(habit.ID)
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if isNotFound(err) {
			return errors.NotFound("habit", habit.ID)
		}
		if err != nil {
			return err
		}
		owner, err := snap.DataAt("userId")
		if err != nil || owner != habit.UserID {
			return errors.NotFound("habit", habit.ID)
		}
		return tx.Set(ref, newHabitDoc(habit))
	})
	return errors.Storage("update habit", err)
}
