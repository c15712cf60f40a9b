// Copyright 2025 Wasize Users
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dotandev/wasize/internal/daemon"
)

var (
	daemonPort  string
	daemonToken string
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Serve the analyses over JSON-RPC",
	Long: `Run a long-lived JSON-RPC 2.0 server exposing Analyzer.Top,
Analyzer.Garbage, and Analyzer.Summary. Module paths are supplied per
request, so one daemon serves any number of binaries.

Examples:
  wasize daemon -p 8374
  wasize daemon -p 8374 --token s3cret`,
	Args: cobra.NoArgs,
	RunE: daemonExec,
}

func daemonExec(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return daemon.Start(ctx, daemon.Config{
		Port:      daemonPort,
		AuthToken: daemonToken,
	})
}

func init() {
	daemonCmd.Flags().StringVarP(&daemonPort, "port", "p", "8374", "Port to listen on")
	daemonCmd.Flags().StringVar(&daemonToken, "token", "", "Bearer token required on every request")
	rootCmd.AddCommand(daemonCmd)
}
