package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/312-dev/eclosion-for-monarch-sub000/internal/config"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	cfg, _ := config.Load()
	store := openStore(cfg)

	scope, err := store.Begin()
	if err != nil {
		return err
	}
	prefs := &scope.State().Preferences

	token := cfg.Monarch.Token
	group := cfg.General.CategoryGroup
	themeName := cfg.Appearance.Theme
	interval := strconv.Itoa(cfg.Daemon.IntervalMinutes)
	autoTrack := prefs.AutoSyncNew
	threshold := prefs.AutoTrackThreshold.String()

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Monarch Money API token").
				Description("From Monarch: Settings > API. Leave blank to keep using MONARCH_TOKEN.").
				EchoMode(huh.EchoModePassword).
				Value(&token),

			huh.NewInput().
				Title("Category group").
				Description("Budget group new subscription categories are created in.").
				Value(&group).
				Validate(func(s string) error {
					if s == "" {
						return errors.New("category group cannot be empty")
					}
					return nil
				}),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Daemon sync interval").
				Options(
					huh.NewOption("15 minutes", "15"),
					huh.NewOption("1 hour", "60"),
					huh.NewOption("6 hours", "360"),
					huh.NewOption("Daily", "1440"),
				).
				Value(&interval),

			huh.NewSelect[string]().
				Title("Color theme").
				Options(
					huh.NewOption("Flexoki Dark", "flexoki-dark"),
					huh.NewOption("Catppuccin Mocha", "catppuccin-mocha"),
					huh.NewOption("Tokyo Night", "tokyo-night"),
					huh.NewOption("Terminal (ANSI 16)", "terminal"),
				).
				Value(&themeName),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Track new subscriptions automatically?").
				Description("When syncing, start tracking recurring streams that appear upstream.").
				Value(&autoTrack),

			huh.NewInput().
				Title("Auto-track minimum amount").
				Description("Streams below this amount are left untracked. 0 tracks everything.").
				Value(&threshold).
				Validate(func(s string) error {
					d, err := decimal.NewFromString(s)
					if err != nil || d.IsNegative() {
						return errors.New("enter a non-negative amount")
					}
					return nil
				}),
		),
	)

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return nil
		}
		return err
	}

	cfg.Monarch.Token = token
	cfg.General.CategoryGroup = group
	cfg.Appearance.Theme = themeName
	if n, err := strconv.Atoi(interval); err == nil && n > 0 {
		cfg.Daemon.IntervalMinutes = n
	}

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	prefs.AutoSyncNew = autoTrack
	if d, err := decimal.NewFromString(threshold); err == nil {
		prefs.AutoTrackThreshold = d
	}
	scope.MarkDirty()
	if err := scope.Commit(); err != nil {
		return fmt.Errorf("saving preferences: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.ConfigPath())
	fmt.Println("  Run `eclosion setup` anytime to reconfigure.")
	fmt.Println()

	return nil
}

func maskToken(token string) string {
	if len(token) > 16 {
		return token[:8] + "..." + token[len(token)-4:]
	}
	if len(token) > 4 {
		return token[:4] + "..."
	}
	return "****"
}
