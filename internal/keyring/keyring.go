// Package keyring keeps the PostgreSQL connection string in the OS keyring so that
// passwords never land in the config file.
package keyring

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"

	"github.com/julianstephens/habitual/internal/constants"
)

// EnvConnection overrides the keyring entry when set
const EnvConnection = "HABITUAL_DB_CONNECTION"

var (
	// ErrNotFound is returned when no credentials are found in the keyring
	ErrNotFound = errors.New("credentials not found in keyring")
	// ErrKeyringUnavailable is returned when the OS keyring is not available
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

// Vault reads and writes one keyring entry. Entries are scoped by account so several
// profiles can keep separate connection strings.
type Vault struct {
	service string
	account string
}

// New returns a Vault for account, or the default account when it is empty
func New(account string) *Vault {
	if account == "" {
		account = constants.DefaultKeyringUser
	}
	return &Vault{service: constants.AppName, account: account}
}

// Get returns the stored connection string
func (v *Vault) Get() (string, error) {
	connStr, err := keyring.Get(v.service, v.account)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return connStr, nil
}

func (v *Vault) Set(connStr string) error {
	if strings.TrimSpace(connStr) == "" {
		return errors.New("connection string cannot be empty")
	}
	if err := keyring.Set(v.service, v.account, connStr); err != nil {
		return fmt.Errorf("failed to store credentials in keyring: %w", err)
	}
	return nil
}

func (v *Vault) Delete() error {
	if err := keyring.Delete(v.service, v.account); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete credentials from keyring: %w", err)
	}
	return nil
}

// Resolve picks the connection string to use: the environment override first, then the
// keyring entry, then fallback (usually the password-free DSN from the config file).
func (v *Vault) Resolve(fallback string) (string, error) {
	if env := os.Getenv(EnvConnection); env != "" {
		return env, nil
	}

	connStr, err := v.Get()
	switch {
	case err == nil:
		return connStr, nil
	case errors.Is(err, ErrNotFound) || errors.Is(err, ErrKeyringUnavailable):
		if fallback == "" {
			return "", fmt.Errorf("no database connection configured: set %s or run '%s keyring set'", EnvConnection, constants.AppName)
		}
		return fallback, nil
	default:
		return "", err
	}
}

// IsAvailable reports whether the OS keyring answers a read. Best effort only.
func IsAvailable() bool {
	_, err := keyring.Get(constants.AppName, "availability-probe")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}
