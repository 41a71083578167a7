package config

import (
	"os"
	"path/filepath"
)

// HomeEnv overrides every default location when set.
const HomeEnv = "LOGSHIP_HOME"

// DefaultDataDir returns the directory logship keeps local state in, based on
// the host OS. LOGSHIP_HOME wins, then XDG_DATA_HOME, then the platform's
// usual application data location, then ~/.logship.
func DefaultDataDir() string {
	if v := os.Getenv(HomeEnv); v != "" {
		return v
	}
	homeDir, err := os.UserHomeDir()
	if err != nil || homeDir == "" {
		return "./data"
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "logship")
	}
	switch {
	case isDir("/var/lib"):
		return "/var/lib/logship"
	case isDir(filepath.Join(homeDir, "Library")):
		return filepath.Join(homeDir, "Library", "Application Support", "Logship")
	case isDir(filepath.Join(homeDir, "AppData")):
		return filepath.Join(homeDir, "AppData", "Local", "Logship")
	}
	return filepath.Join(homeDir, ".logship")
}

// DefaultStoreDir is the pebble directory used when storage.dataDir is empty.
func DefaultStoreDir() string { return filepath.Join(DefaultDataDir(), "store") }

// DefaultSQLitePath is the database file used when storage.sqlitePath is empty.
func DefaultSQLitePath() string { return filepath.Join(DefaultDataDir(), "logship.db") }

// WithDefaultPaths fills empty storage locations for the selected backend.
func (c Config) WithDefaultPaths() Config {
	switch c.Storage.Backend {
	case BackendPebble:
		if c.Storage.DataDir == "" {
			c.Storage.DataDir = DefaultStoreDir()
		}
	case BackendSQLite:
		if c.Storage.SQLitePath == "" {
			c.Storage.SQLitePath = DefaultSQLitePath()
		}
	}
	return c
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
