package config

// ConfigBuilder builds Config instances for tests with sensible defaults
// already applied. It avoids repeating the minimal valid route/service
// wiring in every test.
type ConfigBuilder struct {
	cfg *Config
}

// NewTestConfig creates a builder seeded with a minimal valid gateway
// configuration: one open auth route, one protected task route, and a
// signing key.
func NewTestConfig() *ConfigBuilder {
	cfg := newConfig()
	cfg.Routes = []RouteConfig{
		{Pattern: "/auth/**", Service: "auth-service"},
		{Pattern: "/tasks/**", Service: "task-service", RequiresAuth: true},
	}
	cfg.Services = map[string]ServiceConfig{
		"auth-service": {Targets: []string{"http://auth-service:8081"}},
		"task-service": {Targets: []string{"http://task-service:8082"}},
	}
	cfg.Auth.SigningKey = "test-signing-key"
	ApplyDefaults(cfg)
	return &ConfigBuilder{cfg: cfg}
}

// WithListenAddress overrides the server listen address.
func (b *ConfigBuilder) WithListenAddress(addr string) *ConfigBuilder {
	b.cfg.Server.ListenAddress = addr
	return b
}

// WithRoutes replaces the route table.
func (b *ConfigBuilder) WithRoutes(routes ...RouteConfig) *ConfigBuilder {
	b.cfg.Routes = routes
	return b
}

// WithService adds or replaces a backend service.
func (b *ConfigBuilder) WithService(name string, svc ServiceConfig) *ConfigBuilder {
	if b.cfg.Services == nil {
		b.cfg.Services = make(map[string]ServiceConfig)
	}
	b.cfg.Services[name] = svc
	return b
}

// WithSigningKey overrides the token signing key.
func (b *ConfigBuilder) WithSigningKey(key string) *ConfigBuilder {
	b.cfg.Auth.SigningKey = key
	return b
}

// WithAuditBackend overrides the audit backend.
func (b *ConfigBuilder) WithAuditBackend(backend string) *ConfigBuilder {
	b.cfg.Audit.Backend = backend
	return b
}

// Build returns the built configuration.
func (b *ConfigBuilder) Build() *Config {
	return b.cfg
}
