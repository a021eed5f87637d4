package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jdziat/sync-schedules/pkg/gitsync"
	"github.com/jdziat/sync-schedules/pkg/storage"
)

// Config is the CLI configuration file.
type Config struct {
	Storage StorageConfig `yaml:"storage" json:"storage"`
	Repo    RepoConfig    `yaml:"repo" json:"repo"`

	// MinGap is the minimum time between two syncs, e.g. "1m". "0" disables it.
	MinGap string `yaml:"min_gap" json:"min_gap"`

	// RunTimeout bounds a single sync. Empty or "0" disables it.
	RunTimeout string `yaml:"run_timeout,omitempty" json:"run_timeout,omitempty"`

	// Timezone is the IANA zone new schedules are created in. Empty means
	// the local zone.
	Timezone string `yaml:"timezone,omitempty" json:"timezone,omitempty"`

	// Notify shows a desktop notification after every sync the daemon
	// completes.
	Notify bool `yaml:"notify" json:"notify"`

	Log LogConfig `yaml:"log" json:"log"`
}

// StorageConfig selects the database.
type StorageConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver string `yaml:"driver" json:"driver"`
	// DSN is a file path for sqlite or a connection string for postgres.
	// Relative sqlite paths are resolved against the config directory.
	DSN string `yaml:"dsn" json:"dsn"`
}

// RepoConfig describes the repository that gets synced.
type RepoConfig struct {
	Dir      string `yaml:"dir" json:"dir"`
	Remote   string `yaml:"remote" json:"remote"`
	CheckURL string `yaml:"check_url" json:"check_url"`
}

// LogConfig controls daemon logging.
type LogConfig struct {
	Level string `yaml:"level" json:"level"`
	// Format is "console" or "json".
	Format string `yaml:"format" json:"format"`
}

const (
	defaultDSN    = "schedules.db"
	defaultMinGap = "1m"
)

// DefaultConfigPath returns the per-user config file location.
func DefaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config dir: %w", err)
	}
	return filepath.Join(dir, "syncsched", "config.yaml"), nil
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{Driver: storage.DriverSQLite, DSN: defaultDSN},
		Repo:    RepoConfig{Remote: gitsync.DefaultRemote, CheckURL: gitsync.DefaultCheckURL},
		MinGap:  defaultMinGap,
		Log:     LogConfig{Level: "info", Format: "console"},
	}
}

// Normalize fills in missing values so partially written files still work.
func (c *Config) Normalize() {
	switch strings.ToLower(c.Storage.Driver) {
	case storage.DriverSQLite, storage.DriverPostgres:
		c.Storage.Driver = strings.ToLower(c.Storage.Driver)
	default:
		c.Storage.Driver = storage.DriverSQLite
	}
	if c.Storage.DSN == "" && c.Storage.Driver == storage.DriverSQLite {
		c.Storage.DSN = defaultDSN
	}
	if c.Repo.Remote == "" {
		c.Repo.Remote = gitsync.DefaultRemote
	}
	if c.Repo.CheckURL == "" {
		c.Repo.CheckURL = gitsync.DefaultCheckURL
	}
	if c.MinGap == "" {
		c.MinGap = defaultMinGap
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
		c.Log.Level = strings.ToLower(c.Log.Level)
	default:
		c.Log.Level = "info"
	}
	if c.Log.Format != "json" {
		c.Log.Format = "console"
	}
}

// Validate checks the fields Normalize cannot repair.
func (c *Config) Validate() error {
	if c.Storage.DSN == "" {
		return errors.New("storage.dsn is required")
	}
	if _, err := c.MinGapDuration(); err != nil {
		return err
	}
	if _, err := c.RunTimeoutDuration(); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// MinGapDuration parses MinGap.
func (c *Config) MinGapDuration() (time.Duration, error) {
	return parseDuration("min_gap", c.MinGap)
}

// RunTimeoutDuration parses RunTimeout.
func (c *Config) RunTimeoutDuration() (time.Duration, error) {
	return parseDuration("run_timeout", c.RunTimeout)
}

func parseDuration(field, s string) (time.Duration, error) {
	if s == "" || s == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", field, s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s %q: must not be negative", field, s)
	}
	return d, nil
}

// Location returns the configured zone, time.Local when unset.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// ResolveDSN returns the DSN with a relative sqlite path anchored at base.
func (c *Config) ResolveDSN(base string) string {
	dsn := c.Storage.DSN
	if c.Storage.Driver != storage.DriverSQLite {
		return dsn
	}
	if dsn == ":memory:" || strings.HasPrefix(dsn, "file:") || filepath.IsAbs(dsn) {
		return dsn
	}
	return filepath.Join(base, dsn)
}

// RepoDir returns the repository directory with a leading "~" expanded.
func (c *Config) RepoDir() (string, error) {
	dir := c.Repo.Dir
	if dir == "" {
		return "", errors.New("repo.dir is not set")
	}
	if dir == "~" || strings.HasPrefix(dir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, strings.TrimPrefix(dir, "~"))
	}
	return dir, nil
}

// LoadConfig reads the YAML config at path. A missing file is created with
// the defaults and 0600 permissions.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := SaveConfig(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

// SaveConfig writes cfg to path atomically via a temp file and rename.
func SaveConfig(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".syncsched-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
