// Package config resolves pillbox settings.
//
// Precedence, lowest first: built-in defaults, the YAML config file, a .env
// file in the working directory, PILLBOX_* environment variables. Command
// line flags are applied on top by the cmd package.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	pkgdb "github.com/unowned-ai/pillbox/pkg/db"
	"github.com/unowned-ai/pillbox/pkg/logging"
	"github.com/unowned-ai/pillbox/pkg/utils"
)

const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
)

// Config holds every tunable of the CLI, TUI, MCP server and daemon.
type Config struct {
	DBPath    string        `yaml:"db_path"`
	Backend   string        `yaml:"backend"`
	FilePath  string        `yaml:"file_path"`
	WAL       bool          `yaml:"wal"`
	SyncMode  string        `yaml:"sync_mode"`
	LogLevel  string        `yaml:"log_level"`
	SaveDelay time.Duration `yaml:"save_delay"`

	DosageUnit string `yaml:"dosage_unit"`
	TimeLayout string `yaml:"time_layout"`

	Notifications Notifications `yaml:"notifications"`
}

// Notifications configures the reminder scheduler and the daemon.
type Notifications struct {
	Title            string        `yaml:"title"`
	GrantByDefault   bool          `yaml:"grant_by_default"`
	Concurrency      int           `yaml:"concurrency"`
	DispatchInterval time.Duration `yaml:"dispatch_interval"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DBPath:     "",
		Backend:    BackendSQLite,
		FilePath:   "",
		WAL:        false,
		SyncMode:   "FULL",
		LogLevel:   "info",
		SaveDelay:  100 * time.Millisecond,
		DosageUnit: "mg",
		TimeLayout: "03:04 PM",
		Notifications: Notifications{
			Title:            "⏰ Medicine Reminder",
			GrantByDefault:   true,
			Concurrency:      1,
			DispatchInterval: 30 * time.Second,
		},
	}
}

// Load builds a Config from defaults, the YAML file at path, .env and the
// environment. An empty path falls back to $PILLBOX_CONFIG and then to the
// per-user default location, which may be absent.
func Load(path string) (*Config, error) {
	cfg := Default()

	// Keep values already exported in the shell; .env only fills gaps.
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	}

	if path == "" {
		path = os.Getenv("PILLBOX_CONFIG")
	}
	if path == "" {
		if err := cfg.mergeFile(utils.GetDefaultConfigPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	} else if err := cfg.mergeFile(path); err != nil {
		return nil, err
	}

	cfg.applyEnv()
	return cfg, cfg.Validate()
}

func (c *Config) mergeFile(path string) error {
	expanded, err := utils.ExpandHome(path)
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(expanded)
	if err != nil {
		return fmt.Errorf("failed to read config file '%s': %w", expanded, err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("failed to parse config file '%s': %w", expanded, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.DBPath = getEnvAsString("PILLBOX_DB", c.DBPath)
	c.Backend = getEnvAsString("PILLBOX_BACKEND", c.Backend)
	c.FilePath = getEnvAsString("PILLBOX_FILE", c.FilePath)
	c.WAL = getEnvAsBool("PILLBOX_WAL", c.WAL)
	c.SyncMode = getEnvAsString("PILLBOX_SYNC", c.SyncMode)
	c.LogLevel = getEnvAsString("PILLBOX_LOG_LEVEL", c.LogLevel)
	c.SaveDelay = getEnvAsDuration("PILLBOX_SAVE_DELAY", c.SaveDelay)
	c.DosageUnit = getEnvAsString("PILLBOX_DOSAGE_UNIT", c.DosageUnit)
	c.TimeLayout = getEnvAsString("PILLBOX_TIME_LAYOUT", c.TimeLayout)
	c.Notifications.Title = getEnvAsString("PILLBOX_NOTIFY_TITLE", c.Notifications.Title)
	c.Notifications.GrantByDefault = getEnvAsBool("PILLBOX_NOTIFY_GRANT", c.Notifications.GrantByDefault)
	c.Notifications.Concurrency = getEnvAsInt("PILLBOX_NOTIFY_CONCURRENCY", c.Notifications.Concurrency)
	c.Notifications.DispatchInterval = getEnvAsDuration("PILLBOX_DISPATCH_INTERVAL", c.Notifications.DispatchInterval)
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Backend != BackendSQLite && c.Backend != BackendFile {
		return fmt.Errorf("backend must be one of: %s, %s (got %q)", BackendSQLite, BackendFile, c.Backend)
	}
	if !pkgdb.ValidSyncMode(c.SyncMode) {
		return fmt.Errorf("sync_mode must be one of OFF, NORMAL, FULL, EXTRA (got %q)", c.SyncMode)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.SaveDelay < 0 {
		return errors.New("save_delay must not be negative")
	}
	if strings.TrimSpace(c.TimeLayout) == "" {
		return errors.New("time_layout must not be empty")
	}
	if c.Notifications.Concurrency < 1 {
		return errors.New("notifications.concurrency must be at least 1")
	}
	if c.Notifications.DispatchInterval <= 0 {
		return errors.New("notifications.dispatch_interval must be positive")
	}
	return nil
}

// ResolveDBPath returns the absolute database path, creating its directory.
func (c *Config) ResolveDBPath() (string, error) {
	return utils.ResolveAndEnsureDataPath(c.DBPath, utils.DefaultDBFile)
}

// ResolveFilePath returns the absolute snapshot file path for the file backend.
func (c *Config) ResolveFilePath() (string, error) {
	return utils.ResolveAndEnsureDataPath(c.FilePath, utils.DefaultSnapshotFile)
}

func getEnvAsString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
