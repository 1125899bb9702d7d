package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "server.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together so operators can
// fix a broken config in one pass. Any error here is fatal at startup: the
// gateway does not serve traffic on a partially valid configuration.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateRoutes(cfg)...)
	errs = append(errs, validateServices(cfg.Services)...)
	errs = append(errs, validateAuth(cfg)...)
	errs = append(errs, validateUpstream(&cfg.Upstream)...)
	errs = append(errs, validateAudit(&cfg.Audit)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateServer validates server configuration.
func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	}
	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.read_timeout",
			Message: "read timeout must be positive",
		})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.write_timeout",
			Message: "write timeout must be positive",
		})
	}
	if cfg.MaxHeaderBytes < 0 {
		errs = append(errs, FieldError{
			Field:   "server.max_header_bytes",
			Message: "max header bytes must be non-negative",
		})
	}

	return errs
}

// validateRoutes validates the route table entries. Duplicate patterns are a
// configuration error: the longest-prefix matching contract requires that
// exactly one route can win for any path, and two routes with the same
// pattern would be an ambiguous tie.
func validateRoutes(cfg *Config) []FieldError {
	var errs []FieldError

	if len(cfg.Routes) == 0 {
		errs = append(errs, FieldError{
			Field:   "routes",
			Message: "at least one route is required",
		})
		return errs
	}

	seen := make(map[string]int)
	for i, route := range cfg.Routes {
		field := fmt.Sprintf("routes[%d]", i)

		if route.Pattern == "" {
			errs = append(errs, FieldError{
				Field:   field + ".pattern",
				Message: "pattern is required",
			})
		} else if !strings.HasPrefix(route.Pattern, "/") {
			errs = append(errs, FieldError{
				Field:   field + ".pattern",
				Message: fmt.Sprintf("pattern %q must start with '/'", route.Pattern),
			})
		}

		if route.Service == "" {
			errs = append(errs, FieldError{
				Field:   field + ".service",
				Message: "service is required",
			})
		} else if len(cfg.Services) > 0 {
			if _, ok := cfg.Services[route.Service]; !ok {
				errs = append(errs, FieldError{
					Field:   field + ".service",
					Message: fmt.Sprintf("unknown service %q", route.Service),
				})
			}
		}

		normalized := normalizePattern(route.Pattern)
		if prev, dup := seen[normalized]; dup {
			errs = append(errs, FieldError{
				Field:   field + ".pattern",
				Message: fmt.Sprintf("duplicate pattern %q (already declared at routes[%d])", route.Pattern, prev),
			})
		} else {
			seen[normalized] = i
		}
	}

	return errs
}

// normalizePattern strips the glob suffix and trailing slash so the
// duplicate check catches patterns that differ only in spelling
// ("/tasks", "/tasks/", "/tasks/**").
func normalizePattern(pattern string) string {
	pattern = strings.TrimSuffix(pattern, "/**")
	pattern = strings.TrimSuffix(pattern, "/")
	if pattern == "" {
		pattern = "/"
	}
	return pattern
}

// validateServices validates backend service configuration.
func validateServices(services map[string]ServiceConfig) []FieldError {
	var errs []FieldError

	for name, svc := range services {
		field := fmt.Sprintf("services.%s", name)

		if len(svc.Targets) == 0 {
			errs = append(errs, FieldError{
				Field:   field + ".targets",
				Message: "at least one target is required",
			})
		}
		for i, target := range svc.Targets {
			u, err := url.Parse(target)
			if err != nil || u.Scheme == "" || u.Host == "" {
				errs = append(errs, FieldError{
					Field:   fmt.Sprintf("%s.targets[%d]", field, i),
					Message: fmt.Sprintf("invalid target URL %q", target),
				})
			}
		}
		if svc.MaxConcurrent < 0 {
			errs = append(errs, FieldError{
				Field:   field + ".max_concurrent",
				Message: "max concurrent must be non-negative",
			})
		}
	}

	return errs
}

// validateAuth validates authentication configuration. A signing key is
// required only when at least one route actually enforces authentication.
func validateAuth(cfg *Config) []FieldError {
	var errs []FieldError

	needsKey := false
	for _, route := range cfg.Routes {
		if route.RequiresAuth {
			needsKey = true
			break
		}
	}

	if needsKey && cfg.Auth.SigningKey == "" && cfg.Auth.SigningKeyFile == "" {
		errs = append(errs, FieldError{
			Field:   "auth.signing_key",
			Message: "signing key is required when any route requires authentication",
		})
	}
	if cfg.Auth.ClockSkew < 0 {
		errs = append(errs, FieldError{
			Field:   "auth.clock_skew",
			Message: "clock skew must be non-negative",
		})
	}

	return errs
}

// validateUpstream validates forwarding configuration.
func validateUpstream(cfg *UpstreamConfig) []FieldError {
	var errs []FieldError

	if cfg.RequestTimeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "upstream.request_timeout",
			Message: "request timeout must be positive",
		})
	}
	if cfg.HealthProbe.Enabled {
		if cfg.HealthProbe.Interval <= 0 {
			errs = append(errs, FieldError{
				Field:   "upstream.health_probe.interval",
				Message: "probe interval must be positive",
			})
		}
		if cfg.HealthProbe.Timeout <= 0 {
			errs = append(errs, FieldError{
				Field:   "upstream.health_probe.timeout",
				Message: "probe timeout must be positive",
			})
		}
		if !strings.HasPrefix(cfg.HealthProbe.Path, "/") {
			errs = append(errs, FieldError{
				Field:   "upstream.health_probe.path",
				Message: fmt.Sprintf("probe path %q must start with '/'", cfg.HealthProbe.Path),
			})
		}
	}

	return errs
}

// validateAudit validates audit configuration.
func validateAudit(cfg *AuditConfig) []FieldError {
	var errs []FieldError

	if !cfg.Enabled {
		return nil
	}

	switch cfg.Backend {
	case "sqlite", "memory":
	default:
		errs = append(errs, FieldError{
			Field:   "audit.backend",
			Message: fmt.Sprintf("unsupported backend %q (options: sqlite, memory)", cfg.Backend),
		})
	}

	if cfg.Backend == "sqlite" && cfg.SQLite.Path == "" {
		errs = append(errs, FieldError{
			Field:   "audit.sqlite.path",
			Message: "database path is required for the sqlite backend",
		})
	}
	if cfg.Buffer < 0 {
		errs = append(errs, FieldError{
			Field:   "audit.buffer",
			Message: "buffer size must be non-negative",
		})
	}
	if cfg.Retention.Days < 0 {
		errs = append(errs, FieldError{
			Field:   "audit.retention.days",
			Message: "retention days must be non-negative",
		})
	}
	if cfg.Retention.PruneSchedule != "" {
		if _, err := cron.ParseStandard(cfg.Retention.PruneSchedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "audit.retention.prune_schedule",
				Message: fmt.Sprintf("invalid cron schedule %q: %v", cfg.Retention.PruneSchedule, err),
			})
		}
	}

	return errs
}
