package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/312-dev/eclosion-for-monarch-sub000/internal/cli"
	"github.com/312-dev/eclosion-for-monarch-sub000/internal/model"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show tracked obligations and monthly set-aside",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(_ *cobra.Command, _ []string) error {
	cfg := loadConfig()
	store := openStore(cfg)

	st, err := store.Load()
	if err != nil {
		return err
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}

	active := activeObligations(st)
	if len(active) == 0 {
		fmt.Println()
		fmt.Println("  Nothing tracked yet.")
		fmt.Println()
		fmt.Println("  Start with:")
		fmt.Println("    eclosion obligations          (list recurring streams)")
		fmt.Println("    eclosion obligations track <id>")
		fmt.Println()
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("ECLOSION STATUS"))
	fmt.Println()

	var rows [][]string
	total := decimal.Zero
	for _, ob := range active {
		name := ob.Name
		inRollup := st.Rollup.HasMember(ob.ID)
		if inRollup {
			name += " *"
		} else {
			total = total.Add(ob.Frozen.MonthlyTarget)
		}
		rows = append(rows, []string{
			name,
			cli.FormatMoney(ob.Amount),
			cli.FormatFrequency(ob.Frozen.FrequencyMonths),
			cli.FormatMoney(ob.Frozen.MonthlyTarget),
			cli.FormatMonth(ob.Frozen.TargetMonth),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Tracked Obligations",
		Headers: []string{"Name", "Amount", "Cadence", "Monthly", "Month"},
		Rows:    rows,
	}))

	if st.Rollup.Enabled {
		rollupMonthly := decimal.Zero
		for _, ft := range st.Rollup.FrozenTargets {
			rollupMonthly = rollupMonthly.Add(ft.MonthlyTarget)
		}
		total = total.Add(rollupMonthly)
		fmt.Printf("  * %s: %d member(s), %s/mo\n",
			st.Rollup.Name, len(st.Rollup.Members), cli.FormatMoney(rollupMonthly))
	}

	fmt.Printf("  Monthly set-aside: %s\n", cli.FormatMoney(total))

	if notices := st.ActiveNotices(); len(notices) > 0 {
		fmt.Printf("  %s\n", cli.Warn(fmt.Sprintf("%d removal notice(s), see `eclosion notices`", len(notices))))
	}

	fmt.Printf("  Last sync: %s\n\n", cli.FormatRelativeTime(st.LastSyncAt, time.Now()))
	return nil
}

func activeObligations(st *model.TrackerState) []*model.Obligation {
	var out []*model.Obligation
	for _, ob := range st.Obligations {
		if ob.Active {
			out = append(out, ob)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
