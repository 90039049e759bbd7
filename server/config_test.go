// Copyright 2026 The Innatives Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "localhost:8080", cfg.Addr)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes)
	assert.Equal(t, 200*time.Millisecond, cfg.Delay)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, "uuid", cfg.IDGenerator)
	assert.Equal(t, 0, cfg.H3Resolution)
	assert.False(t, cfg.TraceHTTP)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("GEOCSV_ADDR", ":9090")
	t.Setenv("GEOCSV_DELAY", "50ms")
	t.Setenv("GEOCSV_REGION", "uy")
	t.Setenv("GEOCSV_H3_RESOLUTION", "7")
	t.Setenv("GEOCSV_TRACE_HTTP", "true")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, 50*time.Millisecond, cfg.Delay)
	assert.Equal(t, "uy", cfg.Region)
	assert.Equal(t, 7, cfg.H3Resolution)
	assert.True(t, cfg.TraceHTTP)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "geocsv.yaml")
	content := "addr: 127.0.0.1:7000\nregion: uy\nid_generator: snowflake\nallowed_origins:\n  - https://example.com\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:7000", cfg.Addr)
	assert.Equal(t, "uy", cfg.Region)
	assert.Equal(t, "snowflake", cfg.IDGenerator)
	assert.Equal(t, []string{"https://example.com"}, cfg.AllowedOrigins)

	// Unset keys keep their defaults.
	assert.Equal(t, 200*time.Millisecond, cfg.Delay)
}

func TestLoadConfigErrors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing config file")
	}

	t.Setenv("GEOCSV_H3_RESOLUTION", "99")

	if _, err := LoadConfig(""); err == nil {
		t.Error("expected an error for an out of range h3 resolution")
	}
}
