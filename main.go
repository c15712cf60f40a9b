// Copyright 2025 Wasize Users
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dotandev/wasize/internal/cmd"
	"github.com/dotandev/wasize/internal/config"
	"github.com/dotandev/wasize/internal/telemetry"
)

// Build-time variables injected via -ldflags.
var (
	version = "dev"
)

func main() {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		// Non-fatal: fall back to the defaults.
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		cfg = config.DefaultConfig()
	}

	shutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:     cfg.Telemetry,
		ExporterURL: cfg.TelemetryURL,
		ServiceName: "wasize",
		Version:     version,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: telemetry disabled: %v\n", err)
		shutdown = func() {}
	}
	defer shutdown()

	if execErr := cmd.Execute(cfg, version); execErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", execErr)
		shutdown()
		os.Exit(1)
	}
}
