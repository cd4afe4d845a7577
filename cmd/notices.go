package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/312-dev/eclosion-for-monarch-sub000/internal/cli"
)

var noticesCmd = &cobra.Command{
	Use:   "notices",
	Short: "Show removal notices for vanished obligations",
	RunE:  runNoticesList,
}

var noticesDismissCmd = &cobra.Command{
	Use:   "dismiss <notice-id>",
	Short: "Dismiss a removal notice",
	Args:  cobra.ExactArgs(1),
	RunE:  runNoticesDismiss,
}

var noticesClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Dismiss all removal notices",
	RunE:  runNoticesClear,
}

func init() {
	noticesCmd.AddCommand(noticesDismissCmd)
	noticesCmd.AddCommand(noticesClearCmd)
	rootCmd.AddCommand(noticesCmd)
}

func runNoticesList(_ *cobra.Command, _ []string) error {
	cfg := loadConfig()
	store := openStore(cfg)

	st, err := store.Load()
	if err != nil {
		return err
	}

	notices := st.ActiveNotices()

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(notices)
	}

	fmt.Println()
	if len(notices) == 0 {
		fmt.Println("  No removal notices.")
		fmt.Println()
		return nil
	}

	var rows [][]string
	for _, n := range notices {
		kind := "tracked"
		if n.WasRollup {
			kind = "rollup"
		}
		rows = append(rows, []string{
			n.Name,
			kind,
			n.CreatedAt.Local().Format("2006-01-02"),
			n.ID,
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Removed From Monarch",
		Headers: []string{"Name", "Was", "Noticed", "Notice ID"},
		Rows:    rows,
	}))
	fmt.Println("  Dismiss with: eclosion notices dismiss <notice-id>")
	fmt.Println()
	return nil
}

func runNoticesDismiss(_ *cobra.Command, args []string) error {
	cfg := loadConfig()
	store := openStore(cfg)

	scope, err := store.Begin()
	if err != nil {
		return err
	}

	if !scope.State().DismissNotice(args[0]) {
		return fmt.Errorf("no active notice %q", args[0])
	}
	scope.MarkDirty()
	if err := scope.Commit(); err != nil {
		return err
	}

	fmt.Println("  Dismissed.")
	return nil
}

func runNoticesClear(_ *cobra.Command, _ []string) error {
	cfg := loadConfig()
	store := openStore(cfg)

	scope, err := store.Begin()
	if err != nil {
		return err
	}

	st := scope.State()
	cleared := 0
	for _, n := range st.ActiveNotices() {
		if st.DismissNotice(n.ID) {
			cleared++
		}
	}
	if cleared > 0 {
		scope.MarkDirty()
	}
	if err := scope.Commit(); err != nil {
		return err
	}

	fmt.Printf("  Dismissed %d notice(s).\n", cleared)
	return nil
}
