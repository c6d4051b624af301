// Package config loads and validates the .fresher/config.yaml file.
// Environment variables (FRESHER_*) override file values so hooks and CI
// can steer a run without editing the project config.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Default values for Config.
const (
	DefaultMode           = ModePlanning
	DefaultMaxIterations  = 0 // unlimited
	DefaultMaxTurns       = 50
	DefaultModel          = "sonnet"
	DefaultHookTimeoutSec = 30
	DefaultLogDir         = ".fresher/logs"
	DefaultSpecDir        = "specs"
	DefaultSrcDir         = "src"
)

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		Loop: Loop{
			Mode:                 DefaultMode,
			MaxIterations:        DefaultMaxIterations,
			SmartTermination:     true,
			DangerousPermissions: true,
			MaxTurns:             DefaultMaxTurns,
			Model:                DefaultModel,
		},
		Paths: Paths{
			LogDir:  DefaultLogDir,
			SpecDir: DefaultSpecDir,
			SrcDir:  DefaultSrcDir,
		},
		Hooks: Hooks{
			Enabled:        true,
			TimeoutSeconds: DefaultHookTimeoutSec,
		},
	}
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// Load reads and parses .fresher/config.yaml from the given base path.
// If the file doesn't exist, defaults are used. Environment overrides are
// applied after the file, then the result is validated.
func Load(basePath string) (*Config, error) {
	configPath := filepath.Join(basePath, ".fresher", "config.yaml")

	cfg := DefaultConfig()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that all config values are valid.
func Validate(cfg *Config) error {
	if cfg.Loop.Mode != ModePlanning && cfg.Loop.Mode != ModeBuilding {
		return ValidationError{Field: "fresher.mode", Message: "must be planning or building"}
	}
	if cfg.Loop.MaxIterations < 0 {
		return ValidationError{Field: "fresher.max_iterations", Message: "must not be negative"}
	}
	if cfg.Loop.MaxTurns <= 0 {
		return ValidationError{Field: "fresher.max_turns", Message: "must be positive"}
	}
	if cfg.Loop.Model == "" {
		return ValidationError{Field: "fresher.model", Message: "must not be empty"}
	}
	if cfg.Hooks.TimeoutSeconds <= 0 {
		return ValidationError{Field: "hooks.timeout_seconds", Message: "must be positive"}
	}
	return nil
}

// applyEnvOverrides applies FRESHER_* environment variables on top of the
// loaded config. Env vars take precedence over file values.
func (c *Config) applyEnvOverrides() {
	setString(&c.Loop.Mode, "FRESHER_MODE")
	setInt(&c.Loop.MaxIterations, "FRESHER_MAX_ITERATIONS")
	setBool(&c.Loop.SmartTermination, "FRESHER_SMART_TERMINATION")
	setBool(&c.Loop.DangerousPermissions, "FRESHER_DANGEROUS_PERMISSIONS")
	setInt(&c.Loop.MaxTurns, "FRESHER_MAX_TURNS")
	setString(&c.Loop.Model, "FRESHER_MODEL")

	setString(&c.Commands.Test, "FRESHER_TEST_CMD")
	setString(&c.Commands.Build, "FRESHER_BUILD_CMD")
	setString(&c.Commands.Lint, "FRESHER_LINT_CMD")

	setString(&c.Paths.LogDir, "FRESHER_LOG_DIR")
	setString(&c.Paths.SpecDir, "FRESHER_SPEC_DIR")
	setString(&c.Paths.SrcDir, "FRESHER_SRC_DIR")

	setBool(&c.Hooks.Enabled, "FRESHER_HOOKS_ENABLED")
	setInt(&c.Hooks.TimeoutSeconds, "FRESHER_HOOK_TIMEOUT")
}

func setString(dst *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		*dst = val
	}
}

func setInt(dst *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(val); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		*dst = strings.EqualFold(val, "true")
	}
}
