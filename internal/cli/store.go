package cli

import (
	stderrors "errors"
	"fmt"

	"github.com/julianstephens/habitual/internal/config"
	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/keyring"
	"github.com/julianstephens/habitual/internal/storage"
	"github.com/julianstephens/habitual/internal/storage/firestore"
	"github.com/julianstephens/habitual/internal/storage/memory"
	"github.com/julianstephens/habitual/internal/storage/postgres"
	"github.com/julianstephens/habitual/internal/storage/sqlite"
)

// OpenStore selects the storage backend named by the config. Nothing is connected
// until Init or Load.
func OpenStore(cfg *config.Config) (storage.Provider, error) {
	switch cfg.Storage.Type {
	case config.StorageSQLite, "":
		return sqlite.NewStore(config.ExpandPath(cfg.Storage.Path)), nil

	case config.StoragePostgres:
		// The DSN in the config file is stored in plain text, so it must not carry a password
		if cfg.Storage.DSN != "" {
			if valid, err := postgres.ValidateConnString(cfg.Storage.DSN); !valid {
				if stderrors.Is(err, postgres.ErrEmbeddedCredentials) {
					return nil, fmt.Errorf("PostgreSQL DSN in the config file must not contain a password: "+
						"use '%s keyring set' or %s instead", constants.AppName, keyring.EnvConnection)
				}
				return nil, err
			}
		}
		connStr, err := keyring.New(cfg.Storage.KeyringAccount).Resolve(cfg.Storage.DSN)
		if err != nil {
			return nil, err
		}
		return postgres.New(connStr), nil

	case config.StorageFirestore:
		return firestore.New(firestore.Config{
			ProjectID:       cfg.Storage.ProjectID,
			CredentialsFile: config.ExpandPath(cfg.Storage.CredentialsFile),
		}), nil

	case config.StorageMemory:
		return memory.New(), nil

	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Storage.Type)
	}
}
