package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points every lookup location at an empty temp dir and clears the
// PILLBOX_* variables the tests care about.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	for _, key := range []string{
		"PILLBOX_CONFIG", "PILLBOX_DB", "PILLBOX_BACKEND", "PILLBOX_FILE", "PILLBOX_WAL",
		"PILLBOX_SYNC", "PILLBOX_LOG_LEVEL", "PILLBOX_SAVE_DELAY", "PILLBOX_DOSAGE_UNIT",
		"PILLBOX_TIME_LAYOUT", "PILLBOX_NOTIFY_TITLE", "PILLBOX_NOTIFY_GRANT",
		"PILLBOX_NOTIFY_CONCURRENCY", "PILLBOX_DISPATCH_INTERVAL",
	} {
		t.Setenv(key, "")
	}
	return dir
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "pillbox.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, BackendSQLite, cfg.Backend)
	assert.Equal(t, "FULL", cfg.SyncMode)
	assert.Equal(t, 1, cfg.Notifications.Concurrency)
}

func TestLoadFile(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, `
backend: file
file_path: /tmp/meds.json
wal: true
sync_mode: NORMAL
log_level: debug
save_delay: 250ms
dosage_unit: ml
notifications:
  title: Pills
  concurrency: 3
  dispatch_interval: 1m
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendFile, cfg.Backend)
	assert.Equal(t, "/tmp/meds.json", cfg.FilePath)
	assert.True(t, cfg.WAL)
	assert.Equal(t, "NORMAL", cfg.SyncMode)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 250*time.Millisecond, cfg.SaveDelay)
	assert.Equal(t, "ml", cfg.DosageUnit)
	assert.Equal(t, "Pills", cfg.Notifications.Title)
	assert.Equal(t, 3, cfg.Notifications.Concurrency)
	assert.Equal(t, time.Minute, cfg.Notifications.DispatchInterval)

	// Unset keys keep their defaults.
	assert.Equal(t, "03:04 PM", cfg.TimeLayout)
	assert.True(t, cfg.Notifications.GrantByDefault)
}

func TestLoadFromEnvConfigPath(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, "dosage_unit: ml\n")
	t.Setenv("PILLBOX_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "ml", cfg.DosageUnit)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, "backend: file\nlog_level: debug\n")
	t.Setenv("PILLBOX_BACKEND", "sqlite")
	t.Setenv("PILLBOX_WAL", "true")
	t.Setenv("PILLBOX_NOTIFY_CONCURRENCY", "4")
	t.Setenv("PILLBOX_SAVE_DELAY", "2s")
	t.Setenv("PILLBOX_NOTIFY_GRANT", "false")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendSQLite, cfg.Backend)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.WAL)
	assert.Equal(t, 4, cfg.Notifications.Concurrency)
	assert.Equal(t, 2*time.Second, cfg.SaveDelay)
	assert.False(t, cfg.Notifications.GrantByDefault)
}

func TestLoadIgnoresMalformedEnv(t *testing.T) {
	isolate(t)
	t.Setenv("PILLBOX_WAL", "maybe")
	t.Setenv("PILLBOX_SAVE_DELAY", "soon")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.False(t, cfg.WAL)
	assert.Equal(t, Default().SaveDelay, cfg.SaveDelay)
}

func TestLoadErrors(t *testing.T) {
	dir := isolate(t)

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)

	bad := writeConfig(t, dir, "backend: [not, a, string]\n")
	_, err = Load(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")

	invalid := writeConfig(t, dir, "backend: postgres\n")
	_, err = Load(invalid)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend must be one of")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"backend", func(c *Config) { c.Backend = "redis" }, "backend must be one of"},
		{"sync mode", func(c *Config) { c.SyncMode = "SOMETIMES" }, "sync_mode must be one of"},
		{"log level", func(c *Config) { c.LogLevel = "loud" }, "unknown log level"},
		{"save delay", func(c *Config) { c.SaveDelay = -time.Second }, "save_delay"},
		{"time layout", func(c *Config) { c.TimeLayout = " " }, "time_layout"},
		{"concurrency", func(c *Config) { c.Notifications.Concurrency = 0 }, "concurrency"},
		{"interval", func(c *Config) { c.Notifications.DispatchInterval = 0 }, "dispatch_interval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestResolvePaths(t *testing.T) {
	dir := isolate(t)

	cfg := Default()
	cfg.DBPath = filepath.Join(dir, "nested", "pillbox.db")
	path, err := cfg.ResolveDBPath()
	require.NoError(t, err)
	assert.Equal(t, cfg.DBPath, path)
	assert.DirExists(t, filepath.Join(dir, "nested"))

	cfg.DBPath = ":memory:"
	path, err = cfg.ResolveDBPath()
	require.NoError(t, err)
	assert.Equal(t, ":memory:", path)

	cfg.FilePath = ""
	path, err = cfg.ResolveFilePath()
	require.NoError(t, err)
	assert.Equal(t, "medicines.json", filepath.Base(path))
}
