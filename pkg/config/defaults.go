package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxHeaderBytes  = 1048576 // 1MB

	// Service defaults
	DefaultMaxConcurrent = 64

	// Auth defaults
	DefaultClockSkew = 5 * time.Second

	// Upstream defaults
	DefaultRequestTimeout      = 30 * time.Second
	DefaultHealthProbeInterval = 10 * time.Second
	DefaultHealthProbeTimeout  = 2 * time.Second
	DefaultHealthProbePath     = "/health"

	// Audit defaults
	DefaultAuditBackend        = "sqlite"
	DefaultAuditSQLitePath     = "data/audit.db"
	DefaultAuditMaxOpenConns   = 10
	DefaultAuditBusyTimeout    = 5 * time.Second
	DefaultAuditBuffer         = 1000
	DefaultAuditRetentionDays  = 30
	DefaultAuditPruneSchedule  = "0 3 * * *"

	// Telemetry defaults
	DefaultLoggingLevel     = "info"
	DefaultLoggingFormat    = "json"
	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "atlas"
	DefaultMetricsSubsystem = "gateway"
)

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = DefaultMaxHeaderBytes
	}

	// Service defaults
	for name, svc := range cfg.Services {
		if svc.MaxConcurrent == 0 {
			svc.MaxConcurrent = DefaultMaxConcurrent
			cfg.Services[name] = svc
		}
	}

	// Auth defaults
	if cfg.Auth.ClockSkew == 0 {
		cfg.Auth.ClockSkew = DefaultClockSkew
	}

	// Upstream defaults
	if cfg.Upstream.RequestTimeout == 0 {
		cfg.Upstream.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.Upstream.HealthProbe.Interval == 0 {
		cfg.Upstream.HealthProbe.Interval = DefaultHealthProbeInterval
	}
	if cfg.Upstream.HealthProbe.Timeout == 0 {
		cfg.Upstream.HealthProbe.Timeout = DefaultHealthProbeTimeout
	}
	if cfg.Upstream.HealthProbe.Path == "" {
		cfg.Upstream.HealthProbe.Path = DefaultHealthProbePath
	}

	// Audit defaults
	if cfg.Audit.Backend == "" {
		cfg.Audit.Backend = DefaultAuditBackend
	}
	if cfg.Audit.SQLite.Path == "" {
		cfg.Audit.SQLite.Path = DefaultAuditSQLitePath
	}
	if cfg.Audit.SQLite.MaxOpenConns == 0 {
		cfg.Audit.SQLite.MaxOpenConns = DefaultAuditMaxOpenConns
	}
	if cfg.Audit.SQLite.BusyTimeout == 0 {
		cfg.Audit.SQLite.BusyTimeout = DefaultAuditBusyTimeout
	}
	if cfg.Audit.Buffer == 0 {
		cfg.Audit.Buffer = DefaultAuditBuffer
	}
	if cfg.Audit.Retention.Days == 0 {
		cfg.Audit.Retention.Days = DefaultAuditRetentionDays
	}
	if cfg.Audit.Retention.PruneSchedule == "" {
		cfg.Audit.Retention.PruneSchedule = DefaultAuditPruneSchedule
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if len(cfg.Telemetry.Metrics.RequestDurationBuckets) == 0 {
		cfg.Telemetry.Metrics.RequestDurationBuckets = []float64{
			0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0,
		}
	}
}
