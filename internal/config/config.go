// Package config loads habitual's settings from a TOML file, a .env file, and the
// environment, in increasing order of precedence.
package config

import (
	"fmt"
	"io"
	"net/netip"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/errors"
)

// Storage backend names
const (
	StorageSQLite    = "sqlite"
	StoragePostgres  = "postgres"
	StorageFirestore = "firestore"
	StorageMemory    = "memory"
)

// Environment overrides
const (
	EnvUser    = "HABITUAL_USER"
	EnvStorage = "HABITUAL_STORAGE"
	EnvProject = "GOOGLE_CLOUD_PROJECT"
	EnvAddr    = "HABITUAL_ADDR"
	EnvDebug   = "HABITUAL_DEBUG"
)

// Config is the complete habitual configuration
type Config struct {
	UserID  string        `toml:"user_id"`
	Debug   bool          `toml:"debug"`
	Storage StorageConfig `toml:"storage"`
	Server  ServerConfig  `toml:"server"`

	// Dir is the directory holding the config file, logs and the default database
	Dir string `toml:"-"`
}

// StorageConfig selects and configures the backend. Type decides which of the other
// fields apply.
type StorageConfig struct {
	Type string `toml:"type"` // "sqlite" (default), "postgres", "firestore" or "memory"

	// sqlite
	Path string `toml:"path,omitempty"`

	// postgres; the DSN must not embed a password
	DSN            string `toml:"dsn,omitempty"`
	KeyringAccount string `toml:"keyring_account,omitempty"`

	// firestore
	ProjectID       string `toml:"project_id,omitempty"`
	CredentialsFile string `toml:"credentials_file,omitempty"`
}

// ServerConfig configures `habitual serve`
type ServerConfig struct {
	Addr           string   `toml:"addr"`
	AllowedOrigins []string `toml:"allowed_origins"`
	RateLimit      float64  `toml:"rate_limit"` // requests per second per client
	RateBurst      int      `toml:"rate_burst"`
	TrustedProxies []string `toml:"trusted_proxies"` // IPs or CIDRs allowed to set X-Forwarded-For
}

// TrustedPrefixes parses TrustedProxies. A bare IP becomes a single-address prefix.
func (s ServerConfig) TrustedPrefixes() ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(s.TrustedProxies))
	for _, entry := range s.TrustedProxies {
		entry = strings.TrimSpace(entry)
		if strings.Contains(entry, "/") {
			prefix, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, errors.Validation("server.trusted_proxies", "invalid CIDR %q", entry)
			}
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, errors.Validation("server.trusted_proxies", "invalid IP %q", entry)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

// Default returns the configuration used when no file exists
func Default(dir string) *Config {
	return &Config{
		UserID: constants.DefaultUserID,
		Storage: StorageConfig{
			Type: StorageSQLite,
			Path: filepath.Join(dir, constants.DefaultDBFile),
		},
		Server: ServerConfig{
			Addr:      constants.DefaultServerAddr,
			RateLimit: constants.DefaultRateLimit,
			RateBurst: constants.DefaultRateBurst,
		},
		Dir: dir,
	}
}

// Read decodes a Config from r on top of defaults for dir
func Read(r io.Reader, dir string) (*Config, error) {
	cfg := Default(dir)
	if _, err := toml.NewDecoder(r).Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// Write encodes cfg to w
func Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// Load reads the config file at path (a missing file yields defaults), loads .env files
// from the working directory and the config directory, and applies environment
// overrides.
func Load(path string) (*Config, error) {
	path = ExpandPath(path)
	dir := filepath.Dir(path)

	cfg := Default(dir)
	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		cfg, err = Read(f, dir)
		if err != nil {
			return nil, fmt.Errorf("reading config from %s: %w", path, err)
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	// godotenv never overrides variables that are already set.
	for _, envFile := range []string{".env", filepath.Join(dir, ".env")} {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	cfg.ApplyEnv()
	cfg.Storage.Path = ExpandPath(cfg.Storage.Path)
	cfg.Storage.CredentialsFile = ExpandPath(cfg.Storage.CredentialsFile)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overlays the HABITUAL_* and GOOGLE_CLOUD_PROJECT environment variables
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvUser); v != "" {
		c.UserID = v
	}
	if v := os.Getenv(EnvStorage); v != "" {
		c.Storage.Type = strings.ToLower(v)
	}
	if v := os.Getenv(EnvProject); v != "" {
		c.Storage.ProjectID = v
	}
	if v := os.Getenv(EnvAddr); v != "" {
		c.Server.Addr = v
	}
	if v, err := strconv.ParseBool(os.Getenv(EnvDebug)); err == nil {
		c.Debug = v
	}
}

// Validate checks that the selected backend has what it needs
func (c *Config) Validate() error {
	if strings.TrimSpace(c.UserID) == "" {
		return errors.Validation("user_id", "must not be empty")
	}

	switch c.Storage.Type {
	case "", StorageSQLite:
		c.Storage.Type = StorageSQLite
		if c.Storage.Path == "" {
			return errors.Validation("storage.path", "sqlite storage needs a database path")
		}
	case StoragePostgres:
		// The DSN may come from the keyring or HABITUAL_DB_CONNECTION at open time.
	case StorageFirestore:
		if c.Storage.ProjectID == "" {
			return errors.Validation("storage.project_id", "firestore storage needs a project id (or set %s)", EnvProject)
		}
	case StorageMemory:
	default:
		return errors.Validation("storage.type", "unknown storage %q (expected sqlite, postgres, firestore or memory)", c.Storage.Type)
	}

	if c.Server.RateLimit <= 0 {
		c.Server.RateLimit = constants.DefaultRateLimit
	}
	if c.Server.RateBurst <= 0 {
		c.Server.RateBurst = constants.DefaultRateBurst
	}
	if _, err := c.Server.TrustedPrefixes(); err != nil {
		return err
	}
	return nil
}

// Init writes cfg to path, refusing to overwrite an existing file
func Init(path string, cfg *Config) error {
	path = ExpandPath(path)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if err := Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// DefaultPath is the config file location used when --config is not given
func DefaultPath() string {
	return ExpandPath(filepath.Join(constants.DefaultConfigDir, constants.DefaultConfigFile))
}

// ExpandPath replaces a leading ~ with the user's home directory
func ExpandPath(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
