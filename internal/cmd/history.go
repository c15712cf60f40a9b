// Copyright 2025 Wasize Users
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dotandev/wasize/internal/history"
	"github.com/dotandev/wasize/internal/render"
)

var (
	historyLimit  int
	historyModule string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent analysis runs",
	Long: `List the analysis runs recorded in the local history database,
newest first. Every top/dominators/paths/monos/diff/garbage invocation
records one row, so module growth stays visible across builds.

Examples:
  wasize history
  wasize history --module ./contract.wasm --limit 5`,
	Args: cobra.NoArgs,
	RunE: historyExec,
}

func historyExec(cmd *cobra.Command, args []string) error {
	store, err := history.Open(cfg.HistoryPath)
	if err != nil {
		return err
	}
	defer store.Close()

	var runs []history.Run
	if historyModule != "" {
		runs, err = store.ForModule(historyModule, historyLimit)
	} else {
		runs, err = store.Recent(historyLimit)
	}
	if err != nil {
		return err
	}

	format, err := render.ParseFormat(outputFormat)
	if err != nil {
		return err
	}
	if format == render.FormatJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	w := tabwriter.NewWriter(stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "When\tCommand\tModule\tBytes\tItems\tLargest Item")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s (%d)\n",
			r.Timestamp.Format("2006-01-02 15:04"), r.Command, r.ModulePath,
			r.ModuleSize, r.ItemCount, r.TopItem, r.TopSize)
	}
	return w.Flush()
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum runs to display")
	historyCmd.Flags().StringVar(&historyModule, "module", "", "Only show runs of this module path")
	rootCmd.AddCommand(historyCmd)
}
