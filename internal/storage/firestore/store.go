// Package firestore stores habits in Cloud Firestore through the Firebase Admin SDK,
// using the habits / habitLogs / habitStats collection layout.
package firestore

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"sort"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/models"
)

const (
	habitsCollection = "habits"
	logsCollection   = "habitLogs"
	statsCollection  = "habitStats"

	// CredentialsEnv holds a base64-encoded service account JSON
	CredentialsEnv = "FIREBASE_SERVICE_ACCOUNT_JSON"
)

// Config selects the Firebase project and credentials. With no credentials the
// client uses application default credentials, or FIRESTORE_EMULATOR_HOST when set.
type Config struct {
	ProjectID       string
	CredentialsFile string
}

type Store struct {
	cfg    Config
	client *firestore.Client
}

func New(cfg Config) *Store {
	return &Store{cfg: cfg}
}

func (s *Store) clientOptions() ([]option.ClientOption, error) {
	if encoded := os.Getenv(CredentialsEnv); encoded != "" {
		decoded, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("failed to decode base64 firebase credentials from %s: %w", CredentialsEnv, err)
		}
		logger.Debug("Firestore: using credentials from environment")
		return []option.ClientOption{option.WithCredentialsJSON(decoded)}, nil
	}
	if s.cfg.CredentialsFile != "" {
		if _, err := os.Stat(s.cfg.CredentialsFile); err != nil {
			return nil, fmt.Errorf("firebase credentials file not found: %s", s.cfg.CredentialsFile)
		}
		logger.Debug("Firestore: using credentials file", "path", s.cfg.CredentialsFile)
		return []option.ClientOption{option.WithCredentialsFile(s.cfg.CredentialsFile)}, nil
	}
	return nil, nil
}

func (s *Store) Init(ctx context.Context) error {
	if s.client != nil {
		return nil
	}

	opts, err := s.clientOptions()
	if err != nil {
		return err
	}

	var conf *firebase.Config
	if s.cfg.ProjectID != "" {
		conf = &firebase.Config{ProjectID: s.cfg.ProjectID}
	}
	app, err := firebase.NewApp(ctx, conf, opts...)
	if err != nil {
		return fmt.Errorf("error initializing firebase app: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return fmt.Errorf("error getting firestore client: %w", err)
	}
	s.client = client
	return nil
}

// Load connects like Init; Firestore has no schema to validate
func (s *Store) Load(ctx context.Context) error {
	return s.Init(ctx)
}

func (s *Store) Close() error {
	if s.client != nil {
		err := s.client.Close()
		s.client = nil
		return err
	}
	return nil
}

func (s *Store) GetConfigPath() string {
	return "firestore://" + s.cfg.ProjectID
}

func logDocID(habitID, date string) string {
	return habitID + "_" + date
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

func (s *Store) habits() *firestore.CollectionRef { return s.client.Collection(habitsCollection) }
func (s *Store) logs() *firestore.CollectionRef   { return s.client.Collection(logsCollection) }
func (s *Store) stats() *firestore.CollectionRef  { return s.client.Collection(statsCollection) }

func queryLogs(ctx context.Context, op string, q firestore.Query) ([]models.HabitLog, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	logs := []models.HabitLog{}
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Storage(op, err)
		}
		var doc logDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, errors.Storage(op, fmt.Errorf("decode %s: %w", snap.Ref.ID, err))
		}
		logs = append(logs, doc.model())
	}
	return logs, nil
}

func sortLogs(logs []models.HabitLog, newestFirst bool) {
	sort.Slice(logs, func(i, j int) bool {
		if logs[i].Date == logs[j].Date {
			return logs[i].HabitID < logs[j].HabitID
		}
		if newestFirst {
			return logs[i].Date > logs[j].Date
		}
		return logs[i].Date < logs[j].Date
	})
}
