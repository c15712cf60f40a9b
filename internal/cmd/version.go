// Copyright 2025 Wasize Users
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dotandev/wasize/internal/updater"
)

var versionCheck bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the wasize version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("wasize %s\n", buildVersion)
		if versionCheck {
			updater.NewChecker(buildVersion, false).CheckForUpdates()
		}
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionCheck, "check", false, "Also check GitHub for a newer release")
	rootCmd.AddCommand(versionCmd)
}
