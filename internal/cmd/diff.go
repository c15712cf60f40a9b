// Copyright 2025 Wasize Users
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/dotandev/wasize/internal/analyze"
)

var (
	diffNumber int
	diffAll    bool
)

var diffCmd = &cobra.Command{
	Use:   "diff <old-wasm-file> <new-wasm-file>",
	Short: "Diff the item sizes of two WASM binaries",
	Long: `Parse both binaries and compare their items by name, sorted by
absolute size delta. Items present in only one binary are reported with
their whole size, signed.

Examples:
  wasize diff ./before.wasm ./after.wasm -n 5`,
	Args: cobra.ExactArgs(2),
	RunE: diffExec,
}

func diffExec(cmd *cobra.Command, args []string) error {
	oldItems, _, err := loadModule(cmd.Context(), "cmd_diff_old", args[0])
	if err != nil {
		return err
	}
	newItems, newSize, err := loadModule(cmd.Context(), "cmd_diff_new", args[1])
	if err != nil {
		return err
	}

	report := analyze.Diff(oldItems, newItems, analyze.DiffOptions{
		Number: diffNumber,
		All:    diffAll,
	})

	r, err := newRenderer()
	if err != nil {
		return err
	}
	if err := r.Diff(report); err != nil {
		return err
	}

	recordRun("diff", args[1], newItems, newSize)
	return nil
}

func init() {
	diffCmd.Flags().IntVarP(&diffNumber, "number", "n", 20, "Maximum rows to display")
	diffCmd.Flags().BoolVar(&diffAll, "all", false, "Display all changed items, disabling -n")
	rootCmd.AddCommand(diffCmd)
}
