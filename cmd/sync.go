package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/312-dev/eclosion-for-monarch-sub000/internal/cli"
	"github.com/312-dev/eclosion-for-monarch-sub000/internal/config"
	"github.com/312-dev/eclosion-for-monarch-sub000/internal/history"
	"github.com/312-dev/eclosion-for-monarch-sub000/internal/state"
	"github.com/312-dev/eclosion-for-monarch-sub000/internal/sync"
)

var flagSyncNoHistory bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile tracked obligations with Monarch",
	Long:  "Fetch recurring streams and categories from Monarch, update budgets for every tracked obligation, and record removals.",
	RunE:  runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&flagSyncNoHistory, "no-history", false, "Skip recording this run in the history log")
	rootCmd.AddCommand(syncCmd)
}

func runSync(_ *cobra.Command, _ []string) error {
	cfg := loadConfig()
	store := openStore(cfg)

	engine, err := newEngine(cfg, store)
	if err != nil {
		return err
	}

	lockPath := config.LockPath(cfg)
	lock, err := state.AcquireLock(lockPath)
	if err != nil {
		if errors.Is(err, state.ErrLocked) {
			if pid, perr := state.LockPID(lockPath); perr == nil {
				return fmt.Errorf("another sync is already running (pid %d)", pid)
			}
			return errors.New("another sync is already running")
		}
		return err
	}
	defer func() { _ = lock.Release() }()

	if !flagQuiet && !flagJSON {
		fmt.Fprintf(os.Stderr, "  Syncing with Monarch...\n")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	summary, err := engine.Run(ctx)
	if err != nil {
		var cooldown *sync.CooldownError
		if errors.As(err, &cooldown) {
			return fmt.Errorf("synced recently, try again in %s", cli.FormatDuration(cooldown.Remaining))
		}
		return err
	}

	if !flagSyncNoHistory {
		recordHistory(cfg, summary)
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}

	printSummary(summary)
	return nil
}

func recordHistory(cfg config.Config, summary *sync.Summary) {
	hist, err := history.Open(config.HistoryPath(cfg))
	if err != nil {
		if !flagQuiet {
			fmt.Fprintf(os.Stderr, "  Warning: history unavailable: %v\n", err)
		}
		return
	}
	defer hist.Close()

	var msgs []string
	for _, ie := range summary.Errors {
		msgs = append(msgs, fmt.Sprintf("%s: %s", ie.Name, ie.Message))
	}
	err = hist.Append(history.Entry{
		SyncTime:       summary.SyncTime,
		Created:        len(summary.Created),
		Updated:        len(summary.Updated),
		Deactivated:    len(summary.Deactivated),
		Errors:         len(summary.Errors),
		RecurringCount: summary.RecurringCount,
		TotalMonthly:   summary.TotalMonthly,
		ErrorDetail:    history.JoinErrorDetail(msgs),
	})
	if err != nil && !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Warning: recording history: %v\n", err)
	}
}

func printSummary(summary *sync.Summary) {
	fmt.Println()
	fmt.Printf("  Synced %d recurring stream(s).\n", summary.RecurringCount)

	if len(summary.Created) > 0 {
		fmt.Printf("  Created categories: %d\n", len(summary.Created))
		for _, name := range summary.Created {
			fmt.Printf("    + %s\n", name)
		}
	}
	if len(summary.Updated) > 0 {
		fmt.Printf("  Updated budgets: %d\n", len(summary.Updated))
	}
	if len(summary.Deactivated) > 0 {
		fmt.Printf("  No longer upstream: %d\n", len(summary.Deactivated))
		for _, name := range summary.Deactivated {
			fmt.Printf("    - %s\n", name)
		}
	}
	for _, notice := range summary.RemovedNotices {
		fmt.Printf("  %s\n", cli.Warn(fmt.Sprintf("Notice: %s disappeared from Monarch", notice.Name)))
	}

	fmt.Printf("  Monthly set-aside: %s\n", cli.FormatMoney(summary.TotalMonthly))

	if len(summary.Errors) > 0 {
		fmt.Printf("\n  %d item(s) failed:\n", len(summary.Errors))
		for _, ie := range summary.Errors {
			fmt.Printf("    ! %s: %s\n", ie.Name, ie.Message)
		}
	}
	fmt.Println()
}
