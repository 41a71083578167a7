package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultDataDirOverrides(t *testing.T) {
	t.Setenv(HomeEnv, "")
	t.Setenv("XDG_DATA_HOME", "/custom/data")
	if got := DefaultDataDir(); got != "/custom/data/logship" {
		t.Fatalf("xdg: got %s", got)
	}

	t.Setenv(HomeEnv, "/srv/logship")
	if got := DefaultDataDir(); got != "/srv/logship" {
		t.Fatalf("home env: got %s", got)
	}
	if got := DefaultStoreDir(); got != filepath.Join("/srv/logship", "store") {
		t.Fatalf("store dir: got %s", got)
	}
	if got := DefaultSQLitePath(); got != filepath.Join("/srv/logship", "logship.db") {
		t.Fatalf("sqlite path: got %s", got)
	}
}

func TestDefaultDataDirNoHome(t *testing.T) {
	t.Setenv(HomeEnv, "")
	t.Setenv("HOME", "")
	if got := DefaultDataDir(); got != "./data" {
		t.Fatalf("expected fallback to ./data, got %s", got)
	}
}

func TestDefaultDataDirCrossPlatform(t *testing.T) {
	t.Setenv(HomeEnv, "")
	result := DefaultDataDir()
	if !filepath.IsAbs(result) && !strings.HasPrefix(result, "./") {
		t.Fatalf("expected absolute path or ./ prefix, got %s", result)
	}
	if !strings.HasSuffix(result, "logship") && !strings.HasSuffix(result, "Logship") && result != "./data" {
		t.Fatalf("expected a logship directory, got %s", result)
	}
}

func TestWithDefaultPaths(t *testing.T) {
	t.Setenv(HomeEnv, "/srv/logship")

	cfg := Default().WithDefaultPaths()
	if cfg.Storage.DataDir != DefaultStoreDir() {
		t.Fatalf("pebble data dir: %s", cfg.Storage.DataDir)
	}

	cfg = Default()
	cfg.Storage.Backend = BackendSQLite
	cfg = cfg.WithDefaultPaths()
	if cfg.Storage.SQLitePath != DefaultSQLitePath() || cfg.Storage.DataDir != "" {
		t.Fatalf("sqlite: %+v", cfg.Storage)
	}

	cfg = Default()
	cfg.Storage.DataDir = "/explicit"
	if got := cfg.WithDefaultPaths().Storage.DataDir; got != "/explicit" {
		t.Fatalf("explicit dir overwritten: %s", got)
	}
}

func TestIsDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "f")
	if err := os.WriteFile(file, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	for path, want := range map[string]bool{
		".":                 true,
		"/non/existent/dir": false,
		file:                false,
	} {
		if got := isDir(path); got != want {
			t.Errorf("isDir(%s) = %v, want %v", path, got, want)
		}
	}
}
