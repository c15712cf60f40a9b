// Copyright 2025 Wasize Users
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/dotandev/wasize/internal/analyze"
)

var (
	pathsRegex      string
	pathsMax        int
	pathsDepth      int
	pathsDescending bool
)

var pathsCmd = &cobra.Command{
	Use:   "paths <wasm-file> [item-name ...]",
	Short: "Find the paths that keep an item alive",
	Long: `For each selected item, walk the reference graph backwards from the
item to the GC roots and print the retaining call paths. With --descending
the walk goes forward instead, showing what the item itself keeps alive.

Examples:
  wasize paths ./contract.wasm 'core::fmt::Formatter::pad'
  wasize paths ./contract.wasm --regex 'alloc::.*' --max-paths 4`,
	Args: cobra.MinimumNArgs(1),
	RunE: pathsExec,
}

func pathsExec(cmd *cobra.Command, args []string) error {
	items, size, err := loadModule(cmd.Context(), "cmd_paths", args[0])
	if err != nil {
		return err
	}

	report, err := analyze.Paths(items, analyze.PathsOptions{
		Names:      args[1:],
		Regex:      pathsRegex,
		MaxPaths:   pathsMax,
		MaxDepth:   pathsDepth,
		Descending: pathsDescending,
	})
	if err != nil {
		return err
	}

	r, err := newRenderer()
	if err != nil {
		return err
	}
	if err := r.Paths(report); err != nil {
		return err
	}

	recordRun("paths", args[0], items, size)
	return nil
}

func init() {
	pathsCmd.Flags().StringVar(&pathsRegex, "regex", "", "Select targets matching this pattern")
	pathsCmd.Flags().IntVar(&pathsMax, "max-paths", 10, "Maximum paths per target")
	pathsCmd.Flags().IntVar(&pathsDepth, "max-depth", 20, "Maximum path length")
	pathsCmd.Flags().BoolVar(&pathsDescending, "descending", false, "Walk callees away from the targets instead of callers toward them")
	rootCmd.AddCommand(pathsCmd)
}
