package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	fresherDir := filepath.Join(dir, ".fresher")
	require.NoError(t, os.MkdirAll(fresherDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(fresherDir, "config.yaml"), []byte(content), 0o644))
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, ModePlanning, cfg.Loop.Mode)
	assert.Equal(t, 0, cfg.Loop.MaxIterations)
	assert.True(t, cfg.Loop.SmartTermination)
	assert.Equal(t, DefaultMaxTurns, cfg.Loop.MaxTurns)
	assert.Equal(t, DefaultModel, cfg.Loop.Model)
	assert.True(t, cfg.Hooks.Enabled)
	assert.Equal(t, DefaultHookTimeoutSec, cfg.Hooks.TimeoutSeconds)
}

func TestLoad_FileValues(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeConfig(t, dir, `
fresher:
  mode: building
  max_iterations: 10
  smart_termination: false
  dangerous_permissions: true
  max_turns: 80
  model: opus
commands:
  test: go test ./...
hooks:
  enabled: true
  timeout_seconds: 5
`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, ModeBuilding, cfg.Loop.Mode)
	assert.Equal(t, 10, cfg.Loop.MaxIterations)
	assert.False(t, cfg.Loop.SmartTermination)
	assert.Equal(t, 80, cfg.Loop.MaxTurns)
	assert.Equal(t, "opus", cfg.Loop.Model)
	assert.Equal(t, "go test ./...", cfg.Commands.Test)
	assert.Equal(t, 5, cfg.Hooks.TimeoutSeconds)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	// Not parallel: mutates process environment.
	dir := t.TempDir()
	writeConfig(t, dir, `
fresher:
  mode: planning
  max_iterations: 10
`)

	t.Setenv("FRESHER_MODE", "building")
	t.Setenv("FRESHER_MAX_ITERATIONS", "3")
	t.Setenv("FRESHER_SMART_TERMINATION", "FALSE")
	t.Setenv("FRESHER_MODEL", "haiku")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, ModeBuilding, cfg.Loop.Mode)
	assert.Equal(t, 3, cfg.Loop.MaxIterations)
	assert.False(t, cfg.Loop.SmartTermination)
	assert.Equal(t, "haiku", cfg.Loop.Model)
}

func TestLoad_InvalidEnvIntIgnored(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
fresher:
  max_iterations: 7
`)

	t.Setenv("FRESHER_MAX_ITERATIONS", "not-a-number")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Loop.MaxIterations)
}

func TestLoad_MalformedYAML(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeConfig(t, dir, "fresher: [not a map")

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid defaults", func(c *Config) {}, ""},
		{"bad mode", func(c *Config) { c.Loop.Mode = "verifying" }, "fresher.mode"},
		{"negative iterations", func(c *Config) { c.Loop.MaxIterations = -1 }, "fresher.max_iterations"},
		{"zero turns", func(c *Config) { c.Loop.MaxTurns = 0 }, "fresher.max_turns"},
		{"empty model", func(c *Config) { c.Loop.Model = "" }, "fresher.model"},
		{"zero hook timeout", func(c *Config) { c.Hooks.TimeoutSeconds = 0 }, "hooks.timeout_seconds"},
	}

	for _, tt := range tests {
		tt := tt // loop variable capture (pre-Go 1.22 semantics)
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := Validate(&cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
