// Package cmd implements the eclosion CLI commands.
package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/312-dev/eclosion-for-monarch-sub000/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set one configuration value. Keys:
  monarch.token            Monarch Money API token
  monarch.base_url         Override the GraphQL endpoint
  general.category_group   Budget group for created categories
  general.data_dir         Tracker data directory
  daemon.interval_minutes  Background sync interval
  daemon.listen_addr       Daemon HTTP listen address
  appearance.theme         Color theme name`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

func init() {
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigSet(_ *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	key, value := args[0], args[1]
	switch key {
	case "monarch.token":
		cfg.Monarch.Token = value
	case "monarch.base_url":
		cfg.Monarch.BaseURL = value
	case "general.category_group":
		if value == "" {
			return fmt.Errorf("category group cannot be empty")
		}
		cfg.General.CategoryGroup = value
	case "general.data_dir":
		cfg.General.DataDir = value
	case "daemon.interval_minutes":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("invalid interval %q", value)
		}
		cfg.Daemon.IntervalMinutes = n
	case "daemon.listen_addr":
		cfg.Daemon.ListenAddr = value
	case "appearance.theme":
		cfg.Appearance.Theme = value
	default:
		return fmt.Errorf("unknown config key %q", key)
	}

	if err := config.Save(cfg); err != nil {
		return err
	}
	fmt.Printf("  Set %s\n", key)
	return nil
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Category group: %s\n", cfg.General.CategoryGroup)
	fmt.Printf("    Data dir:       %s\n", config.DataDir(cfg))
	fmt.Printf("    State file:     %s\n", config.StatePath(cfg))
	fmt.Println()

	fmt.Println("  [Monarch]")
	token := config.Token(cfg)
	if token != "" {
		fmt.Printf("    Token: %s\n", maskToken(token))
	} else {
		fmt.Println("    Token: not configured")
	}
	if cfg.Monarch.BaseURL != "" {
		fmt.Printf("    Base URL: %s\n", cfg.Monarch.BaseURL)
	}
	fmt.Println()

	fmt.Println("  [Daemon]")
	fmt.Printf("    Sync interval: %dm\n", cfg.Daemon.IntervalMinutes)
	if cfg.Daemon.ListenAddr != "" {
		fmt.Printf("    Listen addr:   %s\n", cfg.Daemon.ListenAddr)
	}
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  Run `eclosion setup` to reconfigure.")
	return nil
}
