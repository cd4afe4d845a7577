package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/312-dev/eclosion-for-monarch-sub000/internal/cli"
	"github.com/312-dev/eclosion-for-monarch-sub000/internal/config"
	"github.com/312-dev/eclosion-for-monarch-sub000/internal/history"
)

var flagHistoryLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent reconciliation runs",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&flagHistoryLimit, "limit", "n", 20, "Number of runs to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(_ *cobra.Command, _ []string) error {
	cfg := loadConfig()

	hist, err := history.Open(config.HistoryPath(cfg))
	if err != nil {
		return err
	}
	defer hist.Close()

	entries, err := hist.Recent(flagHistoryLimit)
	if err != nil {
		return err
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	fmt.Println()
	if len(entries) == 0 {
		fmt.Println("  No syncs recorded yet. Run `eclosion sync` first.")
		fmt.Println()
		return nil
	}

	var rows [][]string
	for _, e := range entries {
		errCol := ""
		if e.Errors > 0 {
			errCol = fmt.Sprintf("%d", e.Errors)
		}
		rows = append(rows, []string{
			e.SyncTime.Local().Format("2006-01-02 15:04"),
			fmt.Sprintf("%d", e.RecurringCount),
			fmt.Sprintf("%d", e.Created),
			fmt.Sprintf("%d", e.Updated),
			fmt.Sprintf("%d", e.Deactivated),
			errCol,
			cli.FormatMoney(e.TotalMonthly),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Sync History",
		Headers: []string{"When", "Streams", "New", "Updated", "Gone", "Errs", "Monthly"},
		Rows:    rows,
	}))

	// Oldest to newest for the trend line.
	values := make([]float64, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		v, _ := entries[i].TotalMonthly.Float64()
		values = append(values, v)
	}
	if len(values) > 1 {
		fmt.Printf("  Set-aside trend: %s\n", cli.RenderSparkline(values))
	}
	fmt.Println()
	return nil
}
