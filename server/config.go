// Copyright 2026 The Innatives Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/innatives/geocoding-app-v2/pipeline"
)

// Config holds the serve-mode settings. Values come from an optional config
// file, overridden by GEOCSV_* environment variables.
type Config struct {
	// Addr is the listen address.
	Addr string

	// MaxUploadBytes caps the size of one uploaded file.
	MaxUploadBytes int64

	// Delay is the pause between consecutive geocoding calls.
	Delay time.Duration

	// Timeout bounds each geocoding HTTP request.
	Timeout time.Duration

	// Region biases geocoding results, for example "uy".
	Region string

	// AllowedOrigins is the CORS allowlist.
	AllowedOrigins []string

	// IDGenerator selects how upload IDs are minted, "uuid" or "snowflake".
	IDGenerator string

	// APIKey, when set, skips the environment and ADC credential lookup.
	APIKey string

	// H3Resolution, when positive, adds an H3 cell index column to results.
	H3Resolution int

	// TraceHTTP dumps geocoding requests and responses to the log.
	TraceHTTP bool
}

// LoadConfig reads the configuration at path, or just defaults and
// environment variables when path is empty.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("addr", "localhost:8080")
	v.SetDefault("max_upload_bytes", 10<<20)
	v.SetDefault("delay", pipeline.DefaultDelay)
	v.SetDefault("timeout", 10*time.Second)
	v.SetDefault("region", "")
	v.SetDefault("allowed_origins", []string{"*"})
	v.SetDefault("id_generator", "uuid")
	v.SetDefault("api_key", "")
	v.SetDefault("h3_resolution", 0)
	v.SetDefault("trace_http", false)

	v.SetEnvPrefix("GEOCSV")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := &Config{
		Addr:           v.GetString("addr"),
		MaxUploadBytes: v.GetInt64("max_upload_bytes"),
		Delay:          v.GetDuration("delay"),
		Timeout:        v.GetDuration("timeout"),
		Region:         v.GetString("region"),
		AllowedOrigins: v.GetStringSlice("allowed_origins"),
		IDGenerator:    v.GetString("id_generator"),
		APIKey:         v.GetString("api_key"),
		H3Resolution:   v.GetInt("h3_resolution"),
		TraceHTTP:      v.GetBool("trace_http"),
	}

	if cfg.H3Resolution < 0 || cfg.H3Resolution > 15 {
		return nil, fmt.Errorf("h3_resolution must be within 0..15, got %d", cfg.H3Resolution)
	}

	return cfg, nil
}
