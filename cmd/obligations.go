package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/312-dev/eclosion-for-monarch-sub000/internal/cli"
	"github.com/312-dev/eclosion-for-monarch-sub000/internal/model"
)

var flagTrackLink string

var obligationsCmd = &cobra.Command{
	Use:   "obligations",
	Short: "List recurring streams and manage which are tracked",
	RunE:  runObligationsList,
}

var trackCmd = &cobra.Command{
	Use:   "track <recurring-id>",
	Short: "Start tracking a recurring stream",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrack,
}

var untrackCmd = &cobra.Command{
	Use:   "untrack <recurring-id>",
	Short: "Stop tracking a recurring stream",
	Args:  cobra.ExactArgs(1),
	RunE:  runUntrack,
}

func init() {
	trackCmd.Flags().StringVar(&flagTrackLink, "link", "", "Link an existing category ID instead of creating one")

	obligationsCmd.AddCommand(trackCmd)
	obligationsCmd.AddCommand(untrackCmd)
	rootCmd.AddCommand(obligationsCmd)
}

func runObligationsList(_ *cobra.Command, _ []string) error {
	cfg := loadConfig()
	store := openStore(cfg)

	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	st, err := store.Load()
	if err != nil {
		return err
	}

	if !flagQuiet && !flagJSON {
		fmt.Fprintf(os.Stderr, "  Fetching recurring streams...\n")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	items, err := client.Recurring(ctx)
	if err != nil {
		return err
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	}

	var rows [][]string
	for _, item := range items {
		if !item.Active {
			continue
		}
		mark := ""
		if ob, ok := st.Obligations[item.ID]; ok && ob.Active {
			mark = "tracked"
			if st.Rollup.HasMember(item.ID) {
				mark = "rollup"
			}
		}
		rows = append(rows, []string{
			item.Name,
			item.ID,
			cli.FormatMoney(item.Amount),
			cli.FormatFrequency(model.FrequencyMonths(item.Frequency)),
			item.NextDueDate,
			mark,
		})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Recurring Streams",
		Headers: []string{"Name", "ID", "Amount", "Cadence", "Next Due", ""},
		Rows:    rows,
	}))
	fmt.Println("  Track one with: eclosion obligations track <id>")
	fmt.Println()
	return nil
}

func runTrack(_ *cobra.Command, args []string) error {
	cfg := loadConfig()
	store := openStore(cfg)

	engine, err := newEngine(cfg, store)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := engine.Enable(ctx, args[0], flagTrackLink); err != nil {
		return err
	}

	st, err := store.Load()
	if err != nil {
		return err
	}
	if ob, ok := st.Obligations[args[0]]; ok {
		fmt.Printf("  Tracking %s (%s, %s each month)\n",
			ob.Name, cli.FormatMoney(ob.Amount), cli.FormatMoney(ob.Frozen.MonthlyTarget))
	}
	return nil
}

func runUntrack(_ *cobra.Command, args []string) error {
	cfg := loadConfig()
	store := openStore(cfg)

	engine, err := newEngine(cfg, store)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := engine.Disable(ctx, args[0]); err != nil {
		return err
	}

	fmt.Printf("  Stopped tracking %s\n", args[0])
	return nil
}
