// Copyright 2025 Wasize Users
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/dotandev/wasize/internal/analyze"
)

var (
	garbageNumber int
	garbageAll    bool
)

var garbageCmd = &cobra.Command{
	Use:   "garbage <wasm-file>",
	Short: "List the items no GC root can reach",
	Long: `Walk the reference graph from the GC roots (exports, tables, the
start function, section headers) and list every item the walk never
touches. These bytes ship in the binary but nothing can use them.

Examples:
  wasize garbage ./contract.wasm
  wasize garbage ./contract.wasm --all`,
	Args: cobra.ExactArgs(1),
	RunE: garbageExec,
}

func garbageExec(cmd *cobra.Command, args []string) error {
	items, size, err := loadModule(cmd.Context(), "cmd_garbage", args[0])
	if err != nil {
		return err
	}

	report := analyze.Garbage(items, analyze.GarbageOptions{
		Number: garbageNumber,
		All:    garbageAll,
	})

	r, err := newRenderer()
	if err != nil {
		return err
	}
	if err := r.Garbage(report); err != nil {
		return err
	}

	recordRun("garbage", args[0], items, size)
	return nil
}

func init() {
	garbageCmd.Flags().IntVarP(&garbageNumber, "number", "n", 10, "Maximum rows to display")
	garbageCmd.Flags().BoolVar(&garbageAll, "all", false, "Display all garbage items, disabling -n")
	rootCmd.AddCommand(garbageCmd)
}
