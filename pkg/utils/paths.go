package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	appDirName = "pillbox"

	DefaultDBFile       = "pillbox.db"
	DefaultSnapshotFile = "medicines.json"
	DefaultConfigFile   = "config.yaml"
)

// GetDefaultDataDir returns a system-appropriate directory for pillbox data.
func GetDefaultDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join(homeDir, "AppData", "Roaming", appDirName)
	case "darwin":
		return filepath.Join(homeDir, "Library", "Application Support", appDirName)
	default: // Primarily Linux, but also other UNIX-like systems.
		return filepath.Join(homeDir, ".local", "share", appDirName)
	}
}

// GetDefaultConfigPath returns where the YAML config is looked up when no
// path was given.
func GetDefaultConfigPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, appDirName, DefaultConfigFile)
	}
	return filepath.Join(GetDefaultDataDir(), DefaultConfigFile)
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory to expand path '%s': %w", path, err)
	}
	return filepath.Join(homeDir, path[2:]), nil
}

// ResolveAndEnsureDataPath turns providedPath (or defaultFile inside the
// default data directory) into an absolute path and creates its parent
// directory. ":memory:" is returned untouched.
func ResolveAndEnsureDataPath(providedPath, defaultFile string) (string, error) {
	if providedPath == ":memory:" {
		return providedPath, nil
	}

	targetPath := providedPath
	if targetPath == "" {
		targetPath = filepath.Join(GetDefaultDataDir(), defaultFile)
	}

	targetPath, err := ExpandHome(targetPath)
	if err != nil {
		return "", err
	}

	absPath, err := filepath.Abs(targetPath)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path for '%s': %w", targetPath, err)
	}

	dir := filepath.Dir(absPath)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create directory '%s': %w", dir, err)
		}
	} else if err != nil {
		return "", fmt.Errorf("failed to stat directory '%s': %w", dir, err)
	}

	return absPath, nil
}
