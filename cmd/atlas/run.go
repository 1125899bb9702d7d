package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"taskmesh/atlas/pkg/audit"
	"taskmesh/atlas/pkg/auth"
	"taskmesh/atlas/pkg/cli"
	"taskmesh/atlas/pkg/config"
	"taskmesh/atlas/pkg/keys"
	"taskmesh/atlas/pkg/limits"
	"taskmesh/atlas/pkg/proxy"
	"taskmesh/atlas/pkg/routing"
	"taskmesh/atlas/pkg/server"
	"taskmesh/atlas/pkg/telemetry/logging"
	"taskmesh/atlas/pkg/telemetry/metrics"
	"taskmesh/atlas/pkg/upstream"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Atlas gateway",
	Long: `Start the Atlas gateway with the specified configuration.

The gateway listens on the configured address, matches request paths
against the route table, verifies JWTs on protected routes, and forwards
admitted requests to backend services.

Examples:
  # Start with default config
  atlas run

  # Start with custom config
  atlas run --config /etc/atlas/config.yaml

  # Override listen address
  atlas run --listen 0.0.0.0:8080

  # Validate config without starting the gateway
  atlas run --dry-run`,
	RunE: runGateway,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the gateway")
}

func runGateway(cmd *cobra.Command, args []string) error {
	if err := config.Initialize(cfgFile); err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	cfg := config.GetConfig()

	// Apply flag overrides
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	logging.Setup(cfg.Telemetry.Logging.Level, cfg.Telemetry.Logging.Format)

	table, err := buildTable(cfg)
	if err != nil {
		return cli.NewConfigError("routes", err.Error())
	}

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		fmt.Printf("✓ Route table compiled (%d routes)\n", table.Len())
		return nil
	}

	fmt.Printf("Atlas v%s\n", Version)
	fmt.Printf("Loading configuration from: %s\n", cfgFile)
	fmt.Println("✓ Configuration loaded")
	fmt.Printf("✓ Route table compiled (%d routes)\n", table.Len())

	// Token validation
	filter, closeKeys, err := buildFilter(cfg)
	if err != nil {
		return cli.NewConfigError("auth", err.Error())
	}
	if closeKeys != nil {
		defer closeKeys()
	}
	if filter != nil {
		fmt.Println("✓ Token validator initialized")
	}

	// Admission limits
	registry := limits.NewRegistry(config.DefaultMaxConcurrent)
	for name, svc := range cfg.Services {
		registry.Register(name, svc.MaxConcurrent)
	}

	// Backend resolution and health probing
	resolver, err := buildResolver(cfg)
	if err != nil {
		return cli.NewConfigError("services", err.Error())
	}
	fmt.Printf("✓ Backend services registered (%d services)\n", len(cfg.Services))

	if cfg.Upstream.HealthProbe.Enabled {
		prober := upstream.NewProber(resolver,
			cfg.Upstream.HealthProbe.Interval,
			cfg.Upstream.HealthProbe.Timeout,
			cfg.Upstream.HealthProbe.Path,
		)
		prober.Start()
		defer prober.Stop()
	}

	opts := proxy.Options{
		Table:           table,
		Filter:          filter,
		Limits:          registry,
		Resolver:        resolver,
		RequestTimeout:  cfg.Upstream.RequestTimeout,
		RetryIdempotent: cfg.Upstream.RetryIdempotent,
	}

	// Audit trail
	if cfg.Audit.Enabled {
		recorder, pruner, err := buildAudit(cfg)
		if err != nil {
			return cli.NewCommandError("run", err)
		}
		defer recorder.Close()
		if pruner != nil {
			defer pruner.Stop()
		}
		opts.Audit = recorder
		fmt.Printf("✓ Audit trail initialized (%s backend)\n", cfg.Audit.Backend)
	}

	// Metrics
	var metricsHandler http.Handler
	if cfg.Telemetry.Metrics.Enabled {
		collector := metrics.NewCollector(metrics.Config{
			Namespace:              cfg.Telemetry.Metrics.Namespace,
			Subsystem:              cfg.Telemetry.Metrics.Subsystem,
			RequestDurationBuckets: cfg.Telemetry.Metrics.RequestDurationBuckets,
		})
		opts.Metrics = collector
		metricsHandler = collector.Handler()
	}

	dispatcher := proxy.NewDispatcher(opts)

	// SIGHUP swaps in a freshly loaded route table.
	reloadDone := watchReload(dispatcher, filter != nil)
	defer close(reloadDone)

	srv := server.NewServer(server.Options{
		Config:      &cfg.Server,
		Dispatcher:  dispatcher,
		Readiness:   resolver,
		Metrics:     metricsHandler,
		MetricsPath: cfg.Telemetry.Metrics.Path,
	})

	fmt.Println()
	fmt.Printf("✓ Gateway listening on %s\n", cfg.Server.ListenAddress)
	fmt.Printf("✓ Health endpoint: http://%s/health\n", cfg.Server.ListenAddress)
	if cfg.Telemetry.Metrics.Enabled {
		fmt.Printf("✓ Metrics endpoint: http://%s%s\n", cfg.Server.ListenAddress, cfg.Telemetry.Metrics.Path)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	if err := srv.Start(cli.SetupSignalHandler()); err != nil {
		return cli.NewCommandError("run", err)
	}

	fmt.Println("✓ Gateway stopped")
	return nil
}

// buildTable compiles the configured routes into a route table.
func buildTable(cfg *config.Config) (*routing.Table, error) {
	routes := make([]routing.Route, 0, len(cfg.Routes))
	for _, rc := range cfg.Routes {
		routes = append(routes, routing.Route{
			Pattern:      rc.Pattern,
			Service:      rc.Service,
			RequiresAuth: rc.RequiresAuth,
		})
	}
	return routing.NewTable(routes)
}

// buildFilter constructs the authentication filter from the configured
// signing key. Returns a nil filter when no key is configured, which is
// valid only while no route requires auth. The returned func releases the
// key file watcher when one was started.
func buildFilter(cfg *config.Config) (*auth.Filter, func() error, error) {
	var source auth.KeySource
	var closeFn func() error

	switch {
	case cfg.Auth.SigningKeyFile != "":
		fileSource, err := keys.NewFileSource(cfg.Auth.SigningKeyFile)
		if err != nil {
			return nil, nil, fmt.Errorf("signing key file: %w", err)
		}
		source = fileSource
		closeFn = fileSource.Close
	case cfg.Auth.SigningKey != "":
		staticSource, err := keys.NewStaticSource([]byte(cfg.Auth.SigningKey))
		if err != nil {
			return nil, nil, fmt.Errorf("signing key: %w", err)
		}
		source = staticSource
	default:
		return nil, nil, nil
	}

	validator := auth.NewValidator(source, cfg.Auth.ClockSkew)
	return auth.NewFilter(validator), closeFn, nil
}

// buildResolver constructs the static backend resolver from the
// configured services.
func buildResolver(cfg *config.Config) (*upstream.StaticResolver, error) {
	services := make(map[string][]string, len(cfg.Services))
	for name, svc := range cfg.Services {
		services[name] = svc.Targets
	}
	return upstream.NewStaticResolver(services)
}

// buildAudit constructs the audit recorder and, when a schedule is
// configured, starts the retention pruner.
func buildAudit(cfg *config.Config) (*audit.Recorder, *audit.Pruner, error) {
	var storage audit.Storage
	switch cfg.Audit.Backend {
	case "sqlite":
		sqliteStorage, err := audit.NewSQLiteStorage(audit.SQLiteConfig{
			Path:         cfg.Audit.SQLite.Path,
			MaxOpenConns: cfg.Audit.SQLite.MaxOpenConns,
			WALMode:      cfg.Audit.SQLite.WALMode,
			BusyTimeout:  cfg.Audit.SQLite.BusyTimeout,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create SQLite storage: %w", err)
		}
		storage = sqliteStorage
	case "memory":
		storage = audit.NewMemoryStorage()
	default:
		return nil, nil, fmt.Errorf("unsupported audit backend: %s", cfg.Audit.Backend)
	}

	recorder := audit.NewRecorder(storage, cfg.Audit.Buffer)

	var pruner *audit.Pruner
	if cfg.Audit.Retention.PruneSchedule != "" {
		pruner = audit.NewPruner(storage, audit.RetentionPolicy{
			Days:          cfg.Audit.Retention.Days,
			MaxRecords:    cfg.Audit.Retention.MaxRecords,
			PruneSchedule: cfg.Audit.Retention.PruneSchedule,
		})
		if err := pruner.Start(); err != nil {
			slog.Warn("failed to start retention scheduler", "error", err)
			pruner = nil
		}
	}

	return recorder, pruner, nil
}

// watchReload swaps a freshly compiled route table into the dispatcher
// whenever the process receives SIGHUP. The returned channel stops the
// watcher when closed.
func watchReload(dispatcher *proxy.Dispatcher, hasFilter bool) chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGHUP)

	go func() {
		defer signal.Stop(sigChan)
		for {
			select {
			case <-done:
				return
			case <-sigChan:
				table, err := reloadTable(dispatcher, hasFilter)
				if err != nil {
					slog.Error("route reload failed, keeping current table", "error", err)
					continue
				}
				slog.Info("route table reloaded", "routes", table.Len())
			}
		}
	}()

	return done
}

// reloadTable recompiles the route table from the config file and swaps
// it into the running dispatcher. The swap is refused when the new table
// has protected routes but the gateway was started without a signing
// key: the running validator cannot authenticate anything, so such
// routes could only ever answer 500. Changing the auth configuration
// requires a restart.
func reloadTable(dispatcher *proxy.Dispatcher, hasFilter bool) (*routing.Table, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, err
	}
	table, err := buildTable(cfg)
	if err != nil {
		return nil, err
	}
	if !hasFilter && hasProtectedRoutes(table) {
		return nil, fmt.Errorf("table has protected routes but the gateway was started without a signing key")
	}
	dispatcher.SwapTable(table)
	return table, nil
}

// hasProtectedRoutes reports whether any route in the table requires
// authentication.
func hasProtectedRoutes(table *routing.Table) bool {
	for _, route := range table.Routes() {
		if route.RequiresAuth {
			return true
		}
	}
	return false
}
