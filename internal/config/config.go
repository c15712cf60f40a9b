// Copyright 2025 Wasize Users
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dotandev/wasize/internal/errors"
)

type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

var validColorModes = map[string]bool{
	string(ColorAuto):   true,
	string(ColorAlways): true,
	string(ColorNever):  true,
}

// Config represents the general configuration for wasize
type Config struct {
	LogLevel     string    `json:"log_level,omitempty"`
	Color        ColorMode `json:"color,omitempty"`
	HistoryPath  string    `json:"history_path,omitempty"`
	// Telemetry enables opt-in OTLP trace export.
	// Set via "telemetry": true in the config file or WASIZE_TELEMETRY=true (or 1).
	Telemetry    bool   `json:"telemetry,omitempty"`
	// TelemetryURL is the OTLP/HTTP collector endpoint.
	TelemetryURL string `json:"telemetry_url,omitempty"`
	// DisableUpdateCheck turns off the background release check.
	DisableUpdateCheck bool `json:"disable_update_check,omitempty"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return &Config{
		LogLevel:     "warn",
		Color:        ColorAuto,
		HistoryPath:  filepath.Join(home, ".wasize", "history.db"),
		TelemetryURL: "localhost:4318",
	}
}

// GetConfigPath returns the directory holding wasize configuration
func GetConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home dir: %w", err)
	}
	return filepath.Join(home, ".wasize"), nil
}

// GetGeneralConfigPath returns the path to the general configuration file
func GetGeneralConfigPath() (string, error) {
	configDir, err := GetConfigPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.json"), nil
}

// LoadConfig loads the general configuration from disk (JSON format)
func LoadConfig() (*Config, error) {
	configPath, err := GetGeneralConfigPath()
	if err != nil {
		return nil, err
	}

	// If file doesn't exist, return default config
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return applyEnv(DefaultConfig())
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return applyEnv(cfg)
}

// SaveConfig writes the configuration back to disk
func SaveConfig(cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	configPath, err := GetGeneralConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(configPath, data, 0644)
}

// Validate checks field values that have a closed domain.
func (c *Config) Validate() error {
	if c.Color != "" && !validColorModes[string(c.Color)] {
		return errors.WrapConfigInvalid("color", string(c.Color))
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return errors.WrapConfigInvalid("log_level", c.LogLevel)
	}
	return nil
}

// applyEnv layers WASIZE_* environment overrides on top of cfg.
func applyEnv(cfg *Config) (*Config, error) {
	if v := os.Getenv("WASIZE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("WASIZE_COLOR"); v != "" {
		cfg.Color = ColorMode(v)
	}
	if v := os.Getenv("WASIZE_HISTORY_PATH"); v != "" {
		cfg.HistoryPath = v
	}
	if v := os.Getenv("WASIZE_TELEMETRY"); v == "true" || v == "1" {
		cfg.Telemetry = true
	}
	if v := os.Getenv("WASIZE_TELEMETRY_URL"); v != "" {
		cfg.TelemetryURL = v
	}
	if v := os.Getenv("WASIZE_NO_UPDATE_CHECK"); v == "true" || v == "1" {
		cfg.DisableUpdateCheck = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
