// Copyright 2025 Wasize Users
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/dotandev/wasize/internal/analyze"
)

var (
	domRegex    string
	domMaxDepth int
	domMaxRows  int
)

var dominatorsCmd = &cobra.Command{
	Use:   "dominators <wasm-file> [item-name ...]",
	Short: "Show the dominator tree of a WASM binary's reference graph",
	Long: `Compute the dominator tree of the module's reference graph and render
it with retained sizes: every row accounts for the bytes that would become
unreachable if that item were removed.

Item names or --regex select subtrees; without a selection, the tree is
rendered from the GC roots.

Examples:
  wasize dominators ./contract.wasm
  wasize dominators ./contract.wasm --regex 'func\[[0-9]+\]'`,
	Args: cobra.MinimumNArgs(1),
	RunE: dominatorsExec,
}

func dominatorsExec(cmd *cobra.Command, args []string) error {
	items, size, err := loadModule(cmd.Context(), "cmd_dominators", args[0])
	if err != nil {
		return err
	}

	report, err := analyze.Dominators(items, analyze.DominatorsOptions{
		Names:    args[1:],
		Regex:    domRegex,
		MaxDepth: domMaxDepth,
		MaxRows:  domMaxRows,
	})
	if err != nil {
		return err
	}

	r, err := newRenderer()
	if err != nil {
		return err
	}
	if err := r.Dominators(report); err != nil {
		return err
	}

	recordRun("dominators", args[0], items, size)
	return nil
}

func init() {
	dominatorsCmd.Flags().StringVar(&domRegex, "regex", "", "Select subtree roots matching this pattern")
	dominatorsCmd.Flags().IntVarP(&domMaxDepth, "depth", "d", 10, "Maximum subtree depth to display")
	dominatorsCmd.Flags().IntVarP(&domMaxRows, "rows", "r", 0, "Maximum rows to display (0 = unbounded)")
	rootCmd.AddCommand(dominatorsCmd)
}
