// Package config loads harness settings from .lattice-e2e/config.yaml
// with environment overrides, so the same suite runs unchanged against
// a laptop compose stack and a CI deployment.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Default values for Config.
const (
	DefaultDockerBinary          = "docker"
	DefaultIntervalSeconds       = 1.0
	DefaultDeadlineSeconds       = 30.0
	DefaultFallbackAfterSeconds  = 5.0
	DefaultCommandTimeoutSeconds = 30.0
)

// Environment variable names recognized by ApplyEnv.
const (
	EnvTargetURL  = "LATTICE_E2E_TARGET_URL"
	EnvAdminToken = "LATTICE_E2E_ADMIN_TOKEN"
	EnvStoreURL   = "LATTICE_E2E_STORE_URL"
	EnvTokenSalt  = "LATTICE_E2E_TOKEN_SALT"
	EnvDocker     = "LATTICE_E2E_DOCKER"
	EnvNetwork    = "LATTICE_E2E_NETWORK"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		Poll: Poll{
			IntervalSeconds:      DefaultIntervalSeconds,
			DeadlineSeconds:      DefaultDeadlineSeconds,
			FallbackAfterSeconds: DefaultFallbackAfterSeconds,
		},
		Fault: Fault{
			DockerBinary:          DefaultDockerBinary,
			CommandTimeoutSeconds: DefaultCommandTimeoutSeconds,
		},
	}
}

// Load reads .lattice-e2e/config.yaml from the given base path, applies
// a .env file if present, overlays process environment variables, and
// validates the result. A missing config file yields defaults.
func Load(basePath string) (*Config, error) {
	// .env is optional; process environment always wins over it.
	_ = godotenv.Load(filepath.Join(basePath, ".env"))

	cfg := DefaultConfig()

	configPath := filepath.Join(basePath, ".lattice-e2e", "config.yaml")
	data, err := os.ReadFile(configPath)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	ApplyEnv(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyEnv overlays recognized environment variables onto cfg.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv(EnvTargetURL); v != "" {
		cfg.Target.URL = v
	}
	if v := os.Getenv(EnvAdminToken); v != "" {
		cfg.Target.AdminToken = v
	}
	if v := os.Getenv(EnvStoreURL); v != "" {
		cfg.Credentials.StoreURL = v
	}
	if v := os.Getenv(EnvTokenSalt); v != "" {
		cfg.Credentials.TokenSalt = v
	}
	if v := os.Getenv(EnvDocker); v != "" {
		cfg.Fault.DockerBinary = v
	}
	if v := os.Getenv(EnvNetwork); v != "" {
		cfg.Fault.Network = v
	}
}

// Validate checks that all config values are usable.
func Validate(cfg *Config) error {
	if cfg.Poll.IntervalSeconds <= 0 {
		return ValidationError{Field: "poll.interval_seconds", Message: "must be positive"}
	}
	if cfg.Poll.DeadlineSeconds <= 0 {
		return ValidationError{Field: "poll.deadline_seconds", Message: "must be positive"}
	}
	if cfg.Poll.FallbackAfterSeconds < 0 {
		return ValidationError{Field: "poll.fallback_after_seconds", Message: "must not be negative"}
	}
	if cfg.Fault.CommandTimeoutSeconds <= 0 {
		return ValidationError{Field: "fault.command_timeout_seconds", Message: "must be positive"}
	}
	if cfg.Fault.DockerBinary == "" {
		return ValidationError{Field: "fault.docker_binary", Message: "must not be empty"}
	}
	return nil
}
