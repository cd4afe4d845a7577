package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingReturnsDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.General.CategoryGroup != "Subscriptions" {
		t.Errorf("category group = %q, want Subscriptions", cfg.General.CategoryGroup)
	}
	if cfg.Daemon.IntervalMinutes != 60 {
		t.Errorf("interval = %d, want 60", cfg.Daemon.IntervalMinutes)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := DefaultConfig()
	cfg.Monarch.Token = "tok-123"
	cfg.General.CategoryGroup = "Bills"
	cfg.Daemon.IntervalMinutes = 15

	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Monarch.Token != "tok-123" {
		t.Errorf("token = %q, want tok-123", loaded.Monarch.Token)
	}
	if loaded.General.CategoryGroup != "Bills" {
		t.Errorf("category group = %q, want Bills", loaded.General.CategoryGroup)
	}
	if loaded.Daemon.IntervalMinutes != 15 {
		t.Errorf("interval = %d, want 15", loaded.Daemon.IntervalMinutes)
	}
}

func TestTokenPrefersEnv(t *testing.T) {
	t.Setenv("MONARCH_TOKEN", "env-tok")

	cfg := DefaultConfig()
	cfg.Monarch.Token = "file-tok"
	if got := Token(cfg); got != "env-tok" {
		t.Errorf("Token = %q, want env-tok", got)
	}

	t.Setenv("MONARCH_TOKEN", "")
	if got := Token(cfg); got != "file-tok" {
		t.Errorf("Token = %q, want file-tok", got)
	}
}

func TestDataDirOverride(t *testing.T) {
	cfg := DefaultConfig()
	cfg.General.DataDir = "/tmp/eclosion-data"
	if got := DataDir(cfg); got != "/tmp/eclosion-data" {
		t.Errorf("DataDir = %q", got)
	}

	cfg.General.DataDir = ""
	t.Setenv("XDG_DATA_HOME", "/xdg/data")
	want := filepath.Join("/xdg/data", "eclosion")
	if got := DataDir(cfg); got != want {
		t.Errorf("DataDir = %q, want %q", got, want)
	}
	if got := StatePath(cfg); got != filepath.Join(want, "state.json") {
		t.Errorf("StatePath = %q", got)
	}
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	if Exists() {
		t.Error("Exists should be false before save")
	}
	if err := os.MkdirAll(filepath.Join(dir, "eclosion"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := Save(DefaultConfig()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !Exists() {
		t.Error("Exists should be true after save")
	}
}
