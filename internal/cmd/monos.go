// Copyright 2025 Wasize Users
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/dotandev/wasize/internal/analyze"
)

var (
	monosMaxGenerics  int
	monosMaxMonos     int
	monosOnlyGenerics bool
	monosAll          bool
)

var monosCmd = &cobra.Command{
	Use:   "monos <wasm-file>",
	Short: "Cluster monomorphized copies of generic functions",
	Long: `Group the code items whose demangled names carry generic parameter
markers by the generic function they instantiate, and estimate how many
bytes the duplicated instantiations cost.

Examples:
  wasize monos ./contract.wasm
  wasize monos ./contract.wasm -g`,
	Args: cobra.ExactArgs(1),
	RunE: monosExec,
}

func monosExec(cmd *cobra.Command, args []string) error {
	items, size, err := loadModule(cmd.Context(), "cmd_monos", args[0])
	if err != nil {
		return err
	}

	report := analyze.Monos(items, analyze.MonosOptions{
		MaxGenerics:  monosMaxGenerics,
		MaxMonos:     monosMaxMonos,
		OnlyGenerics: monosOnlyGenerics,
		All:          monosAll,
	})

	r, err := newRenderer()
	if err != nil {
		return err
	}
	if err := r.Monos(report); err != nil {
		return err
	}

	recordRun("monos", args[0], items, size)
	return nil
}

func init() {
	monosCmd.Flags().IntVarP(&monosMaxGenerics, "max-generics", "m", 10, "Maximum generics to display")
	monosCmd.Flags().IntVarP(&monosMaxMonos, "max-monos", "n", 5, "Maximum instantiations per generic")
	monosCmd.Flags().BoolVarP(&monosOnlyGenerics, "only-generics", "g", false, "Hide the individual instantiations")
	monosCmd.Flags().BoolVar(&monosAll, "all", false, "Display everything, disabling -m and -n")
	rootCmd.AddCommand(monosCmd)
}
