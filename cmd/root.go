package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/312-dev/eclosion-for-monarch-sub000/internal/config"
	"github.com/312-dev/eclosion-for-monarch-sub000/internal/monarch"
	"github.com/312-dev/eclosion-for-monarch-sub000/internal/state"
	"github.com/312-dev/eclosion-for-monarch-sub000/internal/sync"
	"github.com/312-dev/eclosion-for-monarch-sub000/internal/tui/theme"
)

var (
	flagStatePath string
	flagQuiet     bool
	flagJSON      bool
)

var rootCmd = &cobra.Command{
	Use:   "eclosion",
	Short: "Subscription savings tracker for Monarch Money",
	Long:  "Track recurring subscriptions against Monarch budget categories and set aside the right amount each month.",
	RunE:  runStatus,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagStatePath, "state", "", "Override tracker state file path")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Machine-readable JSON output")
}

// loadConfig reads the config file and applies the configured theme.
func loadConfig() config.Config {
	cfg, err := config.Load()
	if err != nil && !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Warning: %v (using defaults)\n", err)
	}
	theme.SetActive(cfg.Appearance.Theme)
	return cfg
}

// openStore returns the tracker state store for the configured data dir.
func openStore(cfg config.Config) *state.Store {
	path := flagStatePath
	if path == "" {
		path = config.StatePath(cfg)
	}
	return state.NewStore(path)
}

// newClient builds an authenticated Monarch client, or an error telling
// the user how to configure one.
func newClient(cfg config.Config) (*monarch.Client, error) {
	token := config.Token(cfg)
	if token == "" {
		return nil, errors.New("no Monarch token configured — run `eclosion setup` or set MONARCH_TOKEN")
	}

	var opts []monarch.Option
	if cfg.Monarch.BaseURL != "" {
		opts = append(opts, monarch.WithBaseURL(cfg.Monarch.BaseURL))
	}

	client := monarch.NewClient(token, opts...)
	if client == nil {
		return nil, errors.New("invalid Monarch token")
	}
	return client, nil
}

// newEngine wires the reconciliation engine for one command invocation.
func newEngine(cfg config.Config, store *state.Store) (*sync.Engine, error) {
	client, err := newClient(cfg)
	if err != nil {
		return nil, err
	}
	return sync.New(client, store, sync.WithCategoryGroup(cfg.General.CategoryGroup)), nil
}
