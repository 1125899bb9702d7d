package config

import (
	"strings"
	"testing"
)

func TestValidate_ValidConfig(t *testing.T) {
	cfg := NewTestConfig().Build()
	if err := Validate(cfg); err != nil {
		t.Fatalf("expected valid config, got: %v", err)
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := NewTestConfig().
		WithListenAddress("").
		WithSigningKey("").
		Build()

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error")
	}

	verr, ok := err.(ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if len(verr.Errors) < 2 {
		t.Errorf("expected at least 2 field errors, got %d: %v", len(verr.Errors), verr.Errors)
	}
}

func TestValidateRoutes(t *testing.T) {
	tests := []struct {
		name      string
		routes    []RouteConfig
		wantField string
	}{
		{
			name:      "no routes",
			routes:    nil,
			wantField: "routes",
		},
		{
			name: "empty pattern",
			routes: []RouteConfig{
				{Pattern: "", Service: "task-service"},
			},
			wantField: "routes[0].pattern",
		},
		{
			name: "pattern without leading slash",
			routes: []RouteConfig{
				{Pattern: "tasks/**", Service: "task-service"},
			},
			wantField: "routes[0].pattern",
		},
		{
			name: "empty service",
			routes: []RouteConfig{
				{Pattern: "/tasks/**", Service: ""},
			},
			wantField: "routes[0].service",
		},
		{
			name: "unknown service",
			routes: []RouteConfig{
				{Pattern: "/reports/**", Service: "report-service"},
			},
			wantField: "routes[0].service",
		},
		{
			name: "exact duplicate pattern",
			routes: []RouteConfig{
				{Pattern: "/tasks/**", Service: "task-service"},
				{Pattern: "/tasks/**", Service: "auth-service"},
			},
			wantField: "routes[1].pattern",
		},
		{
			name: "duplicate after normalization",
			routes: []RouteConfig{
				{Pattern: "/tasks/**", Service: "task-service"},
				{Pattern: "/tasks", Service: "auth-service"},
			},
			wantField: "routes[1].pattern",
		},
		{
			name: "trailing slash duplicate",
			routes: []RouteConfig{
				{Pattern: "/tasks/", Service: "task-service"},
				{Pattern: "/tasks", Service: "auth-service"},
			},
			wantField: "routes[1].pattern",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewTestConfig().WithRoutes(tt.routes...).Build()

			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !containsFieldError(t, err, tt.wantField) {
				t.Errorf("expected error on field %q, got: %v", tt.wantField, err)
			}
		})
	}
}

func TestValidateRoutes_PrefixesAreNotDuplicates(t *testing.T) {
	cfg := NewTestConfig().
		WithRoutes(
			RouteConfig{Pattern: "/tasks/**", Service: "task-service"},
			RouteConfig{Pattern: "/tasks/archive/**", Service: "task-service"},
		).
		Build()

	if err := Validate(cfg); err != nil {
		t.Fatalf("nested prefixes should be allowed, got: %v", err)
	}
}

func TestValidateServices(t *testing.T) {
	tests := []struct {
		name      string
		service   ServiceConfig
		wantField string
	}{
		{
			name:      "no targets",
			service:   ServiceConfig{},
			wantField: "services.task-service.targets",
		},
		{
			name:      "invalid target URL",
			service:   ServiceConfig{Targets: []string{"not a url"}},
			wantField: "services.task-service.targets[0]",
		},
		{
			name:      "target without scheme",
			service:   ServiceConfig{Targets: []string{"task-service:8082"}},
			wantField: "services.task-service.targets[0]",
		},
		{
			name:      "negative max concurrent",
			service:   ServiceConfig{Targets: []string{"http://task-service:8082"}, MaxConcurrent: -1},
			wantField: "services.task-service.max_concurrent",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewTestConfig().WithService("task-service", tt.service).Build()

			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !containsFieldError(t, err, tt.wantField) {
				t.Errorf("expected error on field %q, got: %v", tt.wantField, err)
			}
		})
	}
}

func TestValidateAuth_KeyRequiredOnlyWithProtectedRoutes(t *testing.T) {
	// No protected routes: missing key is fine.
	open := NewTestConfig().
		WithRoutes(RouteConfig{Pattern: "/auth/**", Service: "auth-service"}).
		WithSigningKey("").
		Build()
	if err := Validate(open); err != nil {
		t.Errorf("expected no error without protected routes, got: %v", err)
	}

	// A protected route makes the key mandatory.
	protected := NewTestConfig().WithSigningKey("").Build()
	err := Validate(protected)
	if err == nil {
		t.Fatal("expected validation error for missing signing key")
	}
	if !containsFieldError(t, err, "auth.signing_key") {
		t.Errorf("expected error on auth.signing_key, got: %v", err)
	}
}

func TestValidateAudit(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*AuditConfig)
		wantField string
	}{
		{
			name:      "unsupported backend",
			mutate:    func(c *AuditConfig) { c.Backend = "postgres" },
			wantField: "audit.backend",
		},
		{
			name: "sqlite without path",
			mutate: func(c *AuditConfig) {
				c.Backend = "sqlite"
				c.SQLite.Path = ""
			},
			wantField: "audit.sqlite.path",
		},
		{
			name:      "invalid prune schedule",
			mutate:    func(c *AuditConfig) { c.Retention.PruneSchedule = "not a schedule" },
			wantField: "audit.retention.prune_schedule",
		},
		{
			name:      "negative retention days",
			mutate:    func(c *AuditConfig) { c.Retention.Days = -1 },
			wantField: "audit.retention.days",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewTestConfig().Build()
			tt.mutate(&cfg.Audit)

			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !containsFieldError(t, err, tt.wantField) {
				t.Errorf("expected error on field %q, got: %v", tt.wantField, err)
			}
		})
	}
}

func TestValidateAudit_DisabledSkipsChecks(t *testing.T) {
	cfg := NewTestConfig().Build()
	cfg.Audit.Enabled = false
	cfg.Audit.Backend = "postgres"

	if err := Validate(cfg); err != nil {
		t.Errorf("disabled audit should skip backend checks, got: %v", err)
	}
}

func TestValidationError_Message(t *testing.T) {
	single := ValidationError{Errors: []FieldError{
		{Field: "server.listen_address", Message: "listen address is required"},
	}}
	if !strings.Contains(single.Error(), "server.listen_address") {
		t.Errorf("expected field name in message, got: %q", single.Error())
	}

	multi := ValidationError{Errors: []FieldError{
		{Field: "a", Message: "one"},
		{Field: "b", Message: "two"},
	}}
	if !strings.Contains(multi.Error(), "2 errors") {
		t.Errorf("expected error count in message, got: %q", multi.Error())
	}
}

func containsFieldError(t *testing.T, err error, field string) bool {
	t.Helper()
	verr, ok := err.(ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	for _, fe := range verr.Errors {
		if fe.Field == field {
			return true
		}
	}
	return false
}
