// Copyright 2025 Wasize Users
// SPDX-License-Identifier: Apache-2.0

// Package daemon serves the analyses over JSON-RPC so editors and CI
// dashboards can query module sizes without shelling out per request.
package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/gorilla/rpc/v2"
	"github.com/gorilla/rpc/v2/json2"
	"go.opentelemetry.io/otel/attribute"

	"github.com/dotandev/wasize/internal/analyze"
	"github.com/dotandev/wasize/internal/ir"
	"github.com/dotandev/wasize/internal/logger"
	"github.com/dotandev/wasize/internal/telemetry"
	"github.com/dotandev/wasize/internal/wasmparse"
)

// loaded is one parsed module plus its on-disk size.
type loaded struct {
	items *ir.Builder
	size  uint64
}

// Analyzer is the JSON-RPC service: each method loads the requested
// module, runs one analysis, and returns its report.
type Analyzer struct {
	authToken string
}

// Config holds daemon configuration
type Config struct {
	Port      string
	AuthToken string
}

// TopRequest asks for the largest items of a module.
type TopRequest struct {
	Path     string `json:"path"`
	Number   int    `json:"number,omitempty"`
	Retained bool   `json:"retained,omitempty"`
}

// GarbageRequest asks for the unreachable items of a module.
type GarbageRequest struct {
	Path   string `json:"path"`
	Number int    `json:"number,omitempty"`
	All    bool   `json:"all,omitempty"`
}

// SummaryRequest asks for the headline numbers of a module.
type SummaryRequest struct {
	Path string `json:"path"`
}

// SummaryResponse carries the headline numbers of a module.
type SummaryResponse struct {
	Path      string `json:"path"`
	Size      uint64 `json:"size"`
	ItemCount int    `json:"item_count"`
	EdgeCount int    `json:"edge_count"`
	RootCount int    `json:"root_count"`
}

// NewAnalyzer creates the RPC service.
func NewAnalyzer(config Config) *Analyzer {
	return &Analyzer{authToken: config.AuthToken}
}

// authenticate validates the authorization token
func (a *Analyzer) authenticate(r *http.Request) bool {
	if a.authToken == "" {
		return true // No auth required
	}

	auth := r.Header.Get("Authorization")
	if auth == "" {
		return false
	}

	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ") == a.authToken
	}

	return auth == a.authToken
}

func (a *Analyzer) load(ctx context.Context, spanName, path string) (*loaded, error) {
	tracer := telemetry.GetTracer()
	_, span := tracer.Start(ctx, spanName)
	span.SetAttributes(attribute.String("module.path", path))
	defer span.End()

	data, err := os.ReadFile(path)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to read module: %w", err)
	}
	items, err := wasmparse.Parse(data)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return &loaded{items: items, size: uint64(len(data))}, nil
}

// Top handles top RPC calls
func (a *Analyzer) Top(r *http.Request, req *TopRequest, resp *analyze.TopReport) error {
	if !a.authenticate(r) {
		return fmt.Errorf("unauthorized")
	}

	logger.Logger.Info("Processing top RPC", "path", req.Path)
	result, err := a.load(r.Context(), "rpc_top", req.Path)
	if err != nil {
		return err
	}
	*resp = *analyze.Top(result.items, analyze.TopOptions{Number: req.Number, Retained: req.Retained})
	return nil
}

// Garbage handles garbage RPC calls
func (a *Analyzer) Garbage(r *http.Request, req *GarbageRequest, resp *analyze.GarbageReport) error {
	if !a.authenticate(r) {
		return fmt.Errorf("unauthorized")
	}

	logger.Logger.Info("Processing garbage RPC", "path", req.Path)
	result, err := a.load(r.Context(), "rpc_garbage", req.Path)
	if err != nil {
		return err
	}
	*resp = *analyze.Garbage(result.items, analyze.GarbageOptions{Number: req.Number, All: req.All})
	return nil
}

// Summary handles summary RPC calls
func (a *Analyzer) Summary(r *http.Request, req *SummaryRequest, resp *SummaryResponse) error {
	if !a.authenticate(r) {
		return fmt.Errorf("unauthorized")
	}

	logger.Logger.Info("Processing summary RPC", "path", req.Path)
	result, err := a.load(r.Context(), "rpc_summary", req.Path)
	if err != nil {
		return err
	}
	*resp = SummaryResponse{
		Path:      req.Path,
		Size:      result.size,
		ItemCount: len(result.items.Items()),
		EdgeCount: len(result.items.Edges()),
		RootCount: len(result.items.Roots()),
	}
	return nil
}

// Start starts the JSON-RPC server
func Start(ctx context.Context, config Config) error {
	server := rpc.NewServer()
	server.RegisterCodec(json2.NewCodec(), "application/json")
	server.RegisterCodec(json2.NewCodec(), "application/json;charset=UTF-8")

	analyzer := NewAnalyzer(config)
	if err := server.RegisterService(analyzer, "Analyzer"); err != nil {
		return fmt.Errorf("failed to register service: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/rpc", server)

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	logger.Logger.Info("Starting JSON-RPC server", "port", config.Port)

	srv := &http.Server{
		Addr:    ":" + config.Port,
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Error("Server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Logger.Info("Shutting down JSON-RPC server")
	return srv.Shutdown(context.Background())
}
