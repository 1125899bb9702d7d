package config

import "time"

// Config is the root configuration structure for the Atlas gateway.
// It contains all configuration sections for the HTTP server, the route
// table, backend services, authentication, upstream forwarding, the audit
// trail, and telemetry.
type Config struct {
	// Server contains HTTP server configuration including listen address
	// and connection timeouts.
	Server ServerConfig `yaml:"server"`

	// Routes is the static route table. Each entry maps a path pattern to
	// a backend service and declares whether the route requires a valid
	// bearer token. The table is built once at startup and never mutated.
	Routes []RouteConfig `yaml:"routes"`

	// Services contains configuration for all backend services referenced
	// by the route table. Keys are service identifiers
	// (e.g., "task-service", "auth-service").
	Services map[string]ServiceConfig `yaml:"services"`

	// Auth contains token validation configuration including the signing
	// key source and clock skew tolerance.
	Auth AuthConfig `yaml:"auth"`

	// Upstream contains forwarding configuration: request timeout, retry
	// behavior, and backend health probing.
	Upstream UpstreamConfig `yaml:"upstream"`

	// Audit contains configuration for the dispatch audit trail.
	Audit AuditConfig `yaml:"audit"`

	// Telemetry contains observability configuration: logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the gateway HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port for the gateway to listen on.
	// Format: "host:port" (e.g., "0.0.0.0:8080").
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body. A zero or negative value means no timeout.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response. It must be larger than the upstream request timeout so the
	// dispatcher can still write a 504 body after an upstream timeout.
	// Default: 60s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next
	// request when keep-alives are enabled.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful
	// shutdown. In-flight requests past this deadline are dropped.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes controls the maximum number of bytes the server will
	// read parsing request headers.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`
}

// RouteConfig is a single route table entry.
type RouteConfig struct {
	// Pattern is the path pattern, a segment-aligned prefix optionally
	// written with a "/**" suffix. Examples: "/tasks/**", "/auth/**".
	Pattern string `yaml:"pattern"`

	// Service is the backend service identifier this route dispatches to.
	// It must match a key in the services section.
	Service string `yaml:"service"`

	// RequiresAuth controls whether the authentication filter runs before
	// this route is dispatched.
	// Default: false
	RequiresAuth bool `yaml:"requires_auth"`
}

// ServiceConfig contains configuration for a single backend service.
type ServiceConfig struct {
	// Targets is the list of backend instance base URLs for this service.
	// Example: ["http://task-service-1:8081", "http://task-service-2:8081"]
	Targets []string `yaml:"targets"`

	// MaxConcurrent limits simultaneous in-flight forwarded requests to
	// this service so one overloaded backend cannot starve the others.
	// 0 uses the default.
	// Default: 64
	MaxConcurrent int `yaml:"max_concurrent"`
}

// AuthConfig contains token validation configuration.
type AuthConfig struct {
	// SigningKey is the HMAC secret used to verify bearer token
	// signatures. This should typically be supplied via the
	// ATLAS_AUTH_SIGNING_KEY environment variable rather than the file.
	SigningKey string `yaml:"signing_key"`

	// SigningKeyFile is a path to a file holding the signing secret. When
	// set it takes precedence over SigningKey, and the file is watched so
	// key rotation takes effect without a restart.
	SigningKeyFile string `yaml:"signing_key_file"`

	// ClockSkew is the leeway applied when comparing token expiry against
	// the current time, so tokens near expiry are not spuriously rejected
	// under minor clock drift.
	// Default: 5s
	ClockSkew time.Duration `yaml:"clock_skew"`
}

// UpstreamConfig contains forwarding configuration.
type UpstreamConfig struct {
	// RequestTimeout bounds each forward attempt separately. A retried
	// idempotent request gets a fresh timeout for its second attempt,
	// so it can take up to twice this value end to end.
	// Default: 30s
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// RetryIdempotent controls whether GET/HEAD requests are retried once
	// against a different backend target after a timeout or connection
	// failure. Non-idempotent methods are never retried.
	// Default: true
	RetryIdempotent bool `yaml:"retry_idempotent"`

	// HealthProbe contains backend health probing configuration.
	HealthProbe HealthProbeConfig `yaml:"health_probe"`
}

// HealthProbeConfig contains backend health probing configuration.
type HealthProbeConfig struct {
	// Enabled controls whether backend targets are probed periodically.
	// When disabled, all configured targets are considered healthy.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Interval is how often each target is probed.
	// Default: 10s
	Interval time.Duration `yaml:"interval"`

	// Timeout bounds a single probe request.
	// Default: 2s
	Timeout time.Duration `yaml:"timeout"`

	// Path is the path probed on each target.
	// Default: "/health"
	Path string `yaml:"path"`
}

// AuditConfig contains configuration for the dispatch audit trail.
type AuditConfig struct {
	// Enabled controls whether dispatch outcomes are recorded.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Backend specifies the audit storage backend.
	// Options: "sqlite", "memory"
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLite contains SQLite-specific configuration.
	SQLite SQLiteConfig `yaml:"sqlite"`

	// Buffer is the size of the async record channel. Records are dropped,
	// not blocked on, when the buffer is full.
	// Default: 1000
	Buffer int `yaml:"buffer"`

	// Retention contains retention policy configuration.
	Retention RetentionConfig `yaml:"retention"`
}

// SQLiteConfig contains SQLite-specific audit storage configuration.
type SQLiteConfig struct {
	// Path is the file path for the SQLite database.
	// Default: "data/audit.db"
	Path string `yaml:"path"`

	// MaxOpenConns is the maximum number of open database connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	// Default: true
	WALMode bool `yaml:"wal_mode"`

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// RetentionConfig contains audit retention policy configuration.
type RetentionConfig struct {
	// Days is the number of days to retain audit records. Records older
	// than this are eligible for deletion. 0 means keep records forever.
	// Default: 30
	Days int `yaml:"days"`

	// MaxRecords is the maximum number of records to keep. 0 means
	// unlimited.
	// Default: 0
	MaxRecords int64 `yaml:"max_records"`

	// PruneSchedule is a cron expression for scheduling pruning.
	// Default: "0 3 * * *" (daily at 3 AM)
	PruneSchedule string `yaml:"prune_schedule"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "atlas"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "gateway"
	Subsystem string `yaml:"subsystem"`

	// RequestDurationBuckets defines histogram buckets for request
	// duration in seconds.
	// Default: [0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0]
	RequestDurationBuckets []float64 `yaml:"request_duration_buckets"`
}
