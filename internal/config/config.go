package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds all eclosion configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Monarch    MonarchConfig    `toml:"monarch"`
	Daemon     DaemonConfig     `toml:"daemon"`
	Appearance AppearanceConfig `toml:"appearance"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	CategoryGroup string `toml:"category_group"`
	DataDir       string `toml:"data_dir,omitempty"`
}

// MonarchConfig holds Monarch Money API settings.
type MonarchConfig struct {
	Token   string `toml:"token,omitempty"`
	BaseURL string `toml:"base_url,omitempty"`
}

// DaemonConfig holds background sync settings.
type DaemonConfig struct {
	IntervalMinutes int    `toml:"interval_minutes"`
	ListenAddr      string `toml:"listen_addr,omitempty"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			CategoryGroup: "Subscriptions",
		},
		Daemon: DaemonConfig{
			IntervalMinutes: 60,
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "eclosion")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "eclosion")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// DataDir returns the directory holding tracker state, preferring the
// configured override, then XDG_DATA_HOME.
func DataDir(cfg Config) string {
	if cfg.General.DataDir != "" {
		return cfg.General.DataDir
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "eclosion")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "eclosion")
}

// StatePath returns the path to the tracker state file.
func StatePath(cfg Config) string {
	return filepath.Join(DataDir(cfg), "state.json")
}

// LockPath returns the path to the sync lock file.
func LockPath(cfg Config) string {
	return filepath.Join(DataDir(cfg), "sync.lock")
}

// HistoryPath returns the path to the sync history database.
func HistoryPath(cfg Config) string {
	return filepath.Join(DataDir(cfg), "history.db")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(ConfigPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Token returns the Monarch token from env var or config, in that order.
func Token(cfg Config) string {
	if tok := os.Getenv("MONARCH_TOKEN"); tok != "" {
		return tok
	}
	return cfg.Monarch.Token
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}
