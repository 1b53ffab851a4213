package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/logger"
)

// DeleteAllForUser deletes the user's documents page by page through a BulkWriter.
// Firestore has no multi-collection transaction of this size, so a failure can leave
// a partial reset; every failed delete is counted into the returned StorageError.
func (s *Store) DeleteAllForUser(ctx context.Context, userID string) error {
	bw := s.client.BulkWriter(ctx)
	defer bw.End()

	total := 0
	for _, col := range []*firestore.CollectionRef{s.logs(), s.stats(), s.habits()} {
		n, err := deleteMatching(ctx, bw, col.Where("userId", "==", userID))
		total += n
		if err != nil {
			return errors.Storage("delete user data", fmt.Errorf("%s: %w", col.ID, err))
		}
	}

	logger.Info("Deleted user documents", "user", userID, "documents", total)
	return nil
}

func deleteMatching(ctx context.Context, bw *firestore.BulkWriter, q firestore.Query) (int, error) {
	deleted := 0
	for {
		docs, err := q.Limit(constants.MaxBatchSize).Documents(ctx).GetAll()
		if err != nil {
			return deleted, err
		}
		if len(docs) == 0 {
			return deleted, nil
		}

		jobs := make([]*firestore.BulkWriterJob, 0, len(docs))
		for _, doc := range docs {
			job, err := bw.Delete(doc.Ref)
			if err != nil {
				return deleted, err
			}
			jobs = append(jobs, job)
		}
		bw.Flush()

		var failed int
		var firstErr error
		for _, job := range jobs {
			if _, err := job.Results(); err != nil {
				failed++
				if firstErr == nil {
					firstErr = err
				}
			}
		}
		deleted += len(jobs) - failed
		if failed > 0 {
			return deleted, fmt.Errorf("%d of %d deletes failed: %w", failed, len(jobs), firstErr)
		}
	}
}
