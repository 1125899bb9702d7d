// Package server provides the HTTP edge gateway server.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"taskmesh/atlas/pkg/config"
	"taskmesh/atlas/pkg/proxy/middleware"
)

// ReadinessChecker reports whether the gateway can usefully accept traffic.
type ReadinessChecker interface {
	HasHealthyTargets() bool
}

// Options configures a Server.
type Options struct {
	// Config supplies listen address, timeouts, and header limits.
	Config *config.ServerConfig

	// Dispatcher receives every request that is not an operational endpoint.
	Dispatcher http.Handler

	// Readiness backs the /ready endpoint. When nil, /ready always reports
	// ready while the server is running.
	Readiness ReadinessChecker

	// Metrics is the Prometheus exposition handler. When nil, no metrics
	// endpoint is registered.
	Metrics http.Handler

	// MetricsPath is the path the metrics handler is mounted at.
	// Default: "/metrics".
	MetricsPath string
}

// Server is the HTTP edge gateway server.
type Server struct {
	config       *config.ServerConfig
	dispatcher   http.Handler
	readiness    ReadinessChecker
	metrics      http.Handler
	metricsPath  string
	httpServer   *http.Server
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// NewServer creates a new gateway server.
func NewServer(opts Options) *Server {
	metricsPath := opts.MetricsPath
	if metricsPath == "" {
		metricsPath = "/metrics"
	}

	return &Server{
		config:       opts.Config,
		dispatcher:   opts.Dispatcher,
		readiness:    opts.Readiness,
		metrics:      opts.Metrics,
		metricsPath:  metricsPath,
		shutdownChan: make(chan struct{}, 1),
	}
}

// Start starts the HTTP server and blocks until shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	handler := s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:           s.config.ListenAddress,
		Handler:        handler,
		ReadTimeout:    s.config.ReadTimeout,
		WriteTimeout:   s.config.WriteTimeout,
		IdleTimeout:    s.config.IdleTimeout,
		MaxHeaderBytes: s.config.MaxHeaderBytes,
	}

	errChan := make(chan error, 1)
	go func() {
		slog.Info("starting gateway server", "address", s.config.ListenAddress)

		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		slog.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	case <-s.shutdownChan:
		slog.Info("shutdown requested")
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		slog.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("error during server shutdown", "error", err)
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		slog.Info("gateway server stopped")
	})

	return shutdownErr
}

// setupRoutes configures HTTP routes and the middleware chain.
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReady)
	if s.metrics != nil {
		mux.Handle(s.metricsPath, s.metrics)
	}
	mux.Handle("/", s.dispatcher)

	var handler http.Handler = mux
	handler = middleware.Logging(handler)
	handler = middleware.RequestID(handler)
	handler = middleware.Recovery(handler)

	return handler
}

// handleHealth is the liveness probe. It returns 200 whenever the process
// is able to serve the request.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeStatus(w, http.StatusOK, "ok")
}

// handleReady is the readiness probe. It returns 200 when at least one
// backend target is healthy, and 503 otherwise.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.readiness != nil && !s.readiness.HasHealthyTargets() {
		writeStatus(w, http.StatusServiceUnavailable, "no healthy backends")
		return
	}
	writeStatus(w, http.StatusOK, "ready")
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler returns the configured HTTP handler. Tests use it to exercise
// the full middleware chain without binding a listener.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}

// Stop requests a shutdown of a server blocked in Start.
func (s *Server) Stop() {
	select {
	case s.shutdownChan <- struct{}{}:
	default:
	}
}
