// Copyright 2025 Wasize Users
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"

	"github.com/dotandev/wasize/internal/analyze"
	"github.com/dotandev/wasize/internal/config"
	"github.com/dotandev/wasize/internal/history"
	"github.com/dotandev/wasize/internal/ir"
	"github.com/dotandev/wasize/internal/logger"
	"github.com/dotandev/wasize/internal/render"
	"github.com/dotandev/wasize/internal/telemetry"
	"github.com/dotandev/wasize/internal/updater"
	"github.com/dotandev/wasize/internal/wasmparse"
)

var (
	cfg          *config.Config
	buildVersion = "dev"
	outputFormat string

	// stdout is swapped out by tests.
	stdout io.Writer = os.Stdout
)

var rootCmd = &cobra.Command{
	Use:   "wasize",
	Short: "Wasize - WebAssembly binary size profiler",
	Long: `Wasize answers the question "why is my .wasm file this big?".

It parses a compiled WebAssembly module into sized items and a reference
graph between them, then runs size analyses over that graph:
  • Listing the largest items, by shallow or retained size
  • Walking the dominator tree and the retaining call paths
  • Clustering monomorphized copies of generic functions
  • Diffing two builds and collecting unreachable garbage`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command with the loaded configuration.
func Execute(c *config.Config, version string) error {
	if c == nil {
		c = config.DefaultConfig()
	}
	cfg = c
	buildVersion = version

	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))

	// Fire-and-forget; failures and rate limiting are its problem.
	go updater.NewChecker(version, cfg.DisableUpdateCheck).CheckForUpdates()

	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "table", "Output format: table, csv, or json")
}

func newRenderer() (*render.Renderer, error) {
	format, err := render.ParseFormat(outputFormat)
	if err != nil {
		return nil, err
	}
	return render.New(format, cfg.Color, stdout), nil
}

// loadModule reads and parses one module under a telemetry span.
func loadModule(ctx context.Context, spanName, path string) (*ir.Builder, uint64, error) {
	_, span := telemetry.GetTracer().Start(ctx, spanName)
	span.SetAttributes(attribute.String("module.path", path))
	defer span.End()

	data, err := os.ReadFile(path)
	if err != nil {
		span.RecordError(err)
		return nil, 0, fmt.Errorf("reading WASM file: %w", err)
	}
	items, err := wasmparse.Parse(data)
	if err != nil {
		span.RecordError(err)
		return nil, 0, err
	}
	return items, uint64(len(data)), nil
}

// recordRun writes one line of history; analyses never fail because the
// history database does.
func recordRun(command, path string, items *ir.Builder, size uint64) {
	if cfg == nil || cfg.HistoryPath == "" {
		return
	}
	store, err := history.Open(cfg.HistoryPath)
	if err != nil {
		logger.Logger.Debug("history store unavailable", "error", err)
		return
	}
	defer store.Close()

	run := history.Run{
		Command:    command,
		ModulePath: path,
		ModuleSize: size,
		ItemCount:  len(items.Items()),
	}
	if top := analyze.Top(items, analyze.TopOptions{Number: 1}); len(top.Entries) > 0 {
		run.TopItem = top.Entries[0].Name
		run.TopSize = uint64(top.Entries[0].ShallowSize)
	}
	if _, err := store.Record(run); err != nil {
		logger.Logger.Debug("failed to record run", "error", err)
	}
}
