package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any
// errors. The configuration is not modified by environment variables; use
// LoadConfigWithEnvOverrides for that functionality.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	// Seed fields whose documented default is true before unmarshaling,
	// so an explicit "false" in the file still wins.
	cfg := newConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention ATLAS_SECTION_FIELD (e.g., ATLAS_SERVER_LISTEN_ADDRESS) and
// always take precedence over file-based configuration.
//
// The loading sequence is:
//  1. Load YAML from file
//  2. Apply default values
//  3. Apply environment variable overrides
//  4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// newConfig returns a Config with the default-true boolean fields set, so
// YAML unmarshaling only flips them when the file says so explicitly.
func newConfig() *Config {
	cfg := &Config{}
	cfg.Upstream.RetryIdempotent = true
	cfg.Upstream.HealthProbe.Enabled = true
	cfg.Audit.Enabled = true
	cfg.Audit.SQLite.WALMode = true
	cfg.Telemetry.Metrics.Enabled = true
	return cfg
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Environment variables use the format ATLAS_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	// Server overrides
	if val := os.Getenv("ATLAS_SERVER_LISTEN_ADDRESS"); val != "" {
		cfg.Server.ListenAddress = val
	}
	if val := os.Getenv("ATLAS_SERVER_READ_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if val := os.Getenv("ATLAS_SERVER_WRITE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}
	if val := os.Getenv("ATLAS_SERVER_SHUTDOWN_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ShutdownTimeout = d
		}
	}

	// Auth overrides
	if val := os.Getenv("ATLAS_AUTH_SIGNING_KEY"); val != "" {
		cfg.Auth.SigningKey = val
	}
	if val := os.Getenv("ATLAS_AUTH_SIGNING_KEY_FILE"); val != "" {
		cfg.Auth.SigningKeyFile = val
	}
	if val := os.Getenv("ATLAS_AUTH_CLOCK_SKEW"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Auth.ClockSkew = d
		}
	}

	// Upstream overrides
	if val := os.Getenv("ATLAS_UPSTREAM_REQUEST_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Upstream.RequestTimeout = d
		}
	}
	if val := os.Getenv("ATLAS_UPSTREAM_RETRY_IDEMPOTENT"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Upstream.RetryIdempotent = b
		}
	}
	if val := os.Getenv("ATLAS_UPSTREAM_HEALTH_PROBE_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Upstream.HealthProbe.Enabled = b
		}
	}
	if val := os.Getenv("ATLAS_UPSTREAM_HEALTH_PROBE_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Upstream.HealthProbe.Interval = d
		}
	}

	// Audit overrides
	if val := os.Getenv("ATLAS_AUDIT_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Audit.Enabled = b
		}
	}
	if val := os.Getenv("ATLAS_AUDIT_BACKEND"); val != "" {
		cfg.Audit.Backend = val
	}
	if val := os.Getenv("ATLAS_AUDIT_SQLITE_PATH"); val != "" {
		cfg.Audit.SQLite.Path = val
	}
	if val := os.Getenv("ATLAS_AUDIT_RETENTION_DAYS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Audit.Retention.Days = i
		}
	}

	// Telemetry overrides
	if val := os.Getenv("ATLAS_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("ATLAS_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("ATLAS_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("ATLAS_TELEMETRY_METRICS_PATH"); val != "" {
		cfg.Telemetry.Metrics.Path = val
	}
}
