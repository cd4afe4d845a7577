package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/312-dev/eclosion-for-monarch-sub000/internal/cli"
	"github.com/312-dev/eclosion-for-monarch-sub000/internal/model"
)

var flagRollupLink string

var rollupCmd = &cobra.Command{
	Use:   "rollup",
	Short: "Manage the shared rollup bucket",
	Long:  "The rollup pools several small subscriptions into one budget category with a single combined monthly target.",
	RunE:  runRollupShow,
}

var rollupEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Enable the rollup bucket",
	RunE:  runRollupEnable,
}

var rollupDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Disable the rollup and remove its members",
	RunE:  runRollupDisable,
}

var rollupAddCmd = &cobra.Command{
	Use:   "add <recurring-id>",
	Short: "Move a tracked obligation into the rollup",
	Args:  cobra.ExactArgs(1),
	RunE:  runRollupAdd,
}

var rollupRemoveCmd = &cobra.Command{
	Use:   "remove <recurring-id>",
	Short: "Move an obligation back to its own category",
	Args:  cobra.ExactArgs(1),
	RunE:  runRollupRemove,
}

var rollupBudgetCmd = &cobra.Command{
	Use:   "budget <amount>",
	Short: "Pin the rollup's monthly budget (0 to clear)",
	Args:  cobra.ExactArgs(1),
	RunE:  runRollupBudget,
}

func init() {
	rollupEnableCmd.Flags().StringVar(&flagRollupLink, "link", "", "Link an existing category ID instead of creating one")

	rollupCmd.AddCommand(rollupEnableCmd)
	rollupCmd.AddCommand(rollupDisableCmd)
	rollupCmd.AddCommand(rollupAddCmd)
	rollupCmd.AddCommand(rollupRemoveCmd)
	rollupCmd.AddCommand(rollupBudgetCmd)
	rootCmd.AddCommand(rollupCmd)
}

func runRollupShow(_ *cobra.Command, _ []string) error {
	cfg := loadConfig()
	store := openStore(cfg)

	st, err := store.Load()
	if err != nil {
		return err
	}

	fmt.Println()
	if !st.Rollup.Enabled {
		fmt.Println("  Rollup is disabled. Enable it with `eclosion rollup enable`.")
		fmt.Println()
		return nil
	}

	fmt.Printf("  %s (%d member(s))\n\n", st.Rollup.Name, len(st.Rollup.Members))

	total := decimal.Zero
	var rows [][]string
	for _, id := range st.Rollup.Members {
		ob, ok := st.Obligations[id]
		if !ok {
			continue
		}
		ft := st.Rollup.FrozenTargets[model.RollupTargetKey(id)]
		total = total.Add(ft.MonthlyTarget)
		rows = append(rows, []string{
			ob.Name,
			cli.FormatMoney(ob.Amount),
			cli.FormatFrequency(ft.FrequencyMonths),
			cli.FormatMoney(ft.MonthlyTarget),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Member", "Amount", "Cadence", "Monthly"},
		Rows:    rows,
	}))

	if st.Rollup.BudgetedAmount.IsPositive() {
		fmt.Printf("  Budget: %s/mo (pinned)\n", cli.FormatMoney(st.Rollup.BudgetedAmount))
	} else {
		fmt.Printf("  Budget: %s/mo (computed)\n", cli.FormatMoney(total))
	}
	fmt.Println()
	return nil
}

func runRollupEnable(_ *cobra.Command, _ []string) error {
	cfg := loadConfig()
	store := openStore(cfg)

	engine, err := newEngine(cfg, store)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := engine.EnableRollup(ctx, flagRollupLink); err != nil {
		return err
	}
	fmt.Println("  Rollup enabled. Add members with `eclosion rollup add <id>`.")
	return nil
}

func runRollupDisable(_ *cobra.Command, _ []string) error {
	cfg := loadConfig()
	store := openStore(cfg)

	engine, err := newEngine(cfg, store)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := engine.DisableRollup(ctx); err != nil {
		return err
	}
	fmt.Println("  Rollup disabled.")
	return nil
}

func runRollupAdd(_ *cobra.Command, args []string) error {
	cfg := loadConfig()
	store := openStore(cfg)

	engine, err := newEngine(cfg, store)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := engine.AddRollupMember(ctx, args[0]); err != nil {
		return err
	}
	fmt.Printf("  Moved %s into the rollup.\n", args[0])
	return nil
}

func runRollupRemove(_ *cobra.Command, args []string) error {
	cfg := loadConfig()
	store := openStore(cfg)

	engine, err := newEngine(cfg, store)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := engine.RemoveRollupMember(ctx, args[0]); err != nil {
		return err
	}
	fmt.Printf("  Moved %s back to its own category.\n", args[0])
	return nil
}

func runRollupBudget(_ *cobra.Command, args []string) error {
	cfg := loadConfig()
	store := openStore(cfg)

	amount, err := decimal.NewFromString(args[0])
	if err != nil || amount.IsNegative() {
		return fmt.Errorf("invalid amount %q", args[0])
	}

	scope, err := store.Begin()
	if err != nil {
		return err
	}
	scope.State().Rollup.BudgetedAmount = amount
	scope.MarkDirty()
	if err := scope.Commit(); err != nil {
		return err
	}

	if amount.IsZero() {
		fmt.Println("  Cleared pinned rollup budget, next sync computes it from members.")
	} else {
		fmt.Printf("  Pinned rollup budget to %s/mo, applied on next sync.\n", cli.FormatMoney(amount))
	}
	return nil
}
