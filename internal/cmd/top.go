// Copyright 2025 Wasize Users
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/dotandev/wasize/internal/analyze"
)

var (
	topNumber   int
	topAll      bool
	topRetained bool
)

var topCmd = &cobra.Command{
	Use:   "top <wasm-file>",
	Short: "List the largest items in a WASM binary",
	Long: `Parse a compiled WASM binary and list its largest items.

By default items are ranked by their own (shallow) size. With --retained,
each item is ranked by the total size it keeps alive in the reference
graph, computed over the dominator tree.

Examples:
  wasize top ./contract.wasm -n 10
  wasize top ./contract.wasm --retained`,
	Args: cobra.ExactArgs(1),
	RunE: topExec,
}

func topExec(cmd *cobra.Command, args []string) error {
	items, size, err := loadModule(cmd.Context(), "cmd_top", args[0])
	if err != nil {
		return err
	}

	report := analyze.Top(items, analyze.TopOptions{
		Number:   topNumber,
		All:      topAll,
		Retained: topRetained,
	})

	r, err := newRenderer()
	if err != nil {
		return err
	}
	if err := r.Top(report); err != nil {
		return err
	}

	recordRun("top", args[0], items, size)
	return nil
}

func init() {
	topCmd.Flags().IntVarP(&topNumber, "number", "n", 25, "Maximum rows to display")
	topCmd.Flags().BoolVar(&topAll, "all", false, "Display all items, disabling -n")
	topCmd.Flags().BoolVar(&topRetained, "retained", false, "Rank by retained size instead of shallow size")
	rootCmd.AddCommand(topCmd)
}
