// Package server provides the HTTP edge gateway server.
//
// This package ties together the request pipeline (middleware, dispatcher)
// and provides server lifecycle management including start, shutdown, and
// health checks.
//
// # Architecture
//
// The server package is the top-level orchestrator that:
//   - Routes operational endpoints (/health, /ready, /metrics)
//   - Sends all remaining traffic to the dispatcher
//   - Chains middleware for cross-cutting concerns
//   - Manages graceful shutdown
//   - Handles OS signals (SIGTERM, SIGINT)
//
// # Basic Usage
//
// Creating and starting a server:
//
//	import (
//	    "context"
//	    "taskmesh/atlas/pkg/config"
//	    "taskmesh/atlas/pkg/proxy"
//	    "taskmesh/atlas/pkg/server"
//	)
//
//	cfg := config.GetConfig()
//
//	dispatcher := proxy.NewDispatcher(proxy.Options{ /* ... */ })
//
//	srv := server.NewServer(server.Options{
//	    Config:     &cfg.Server,
//	    Dispatcher: dispatcher,
//	})
//	if err := srv.Start(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
//
// # Routes
//
// The server exposes the following operational endpoints:
//
//   - GET /health - Liveness probe (always returns 200 while running)
//   - GET /ready - Readiness probe (checks backend target health)
//   - GET /metrics - Prometheus exposition (when metrics are enabled)
//
// Every other path is handed to the dispatcher, which matches it against
// the route table and forwards it to a backend service.
//
// # Middleware Chain
//
// Requests pass through the following middleware (outermost to innermost):
//  1. Recovery: Recovers from panics and returns 500 error
//  2. RequestID: Generates unique request ID for tracing
//  3. Logging: Logs request/response details
//
// # Graceful Shutdown
//
// The server handles graceful shutdown automatically when receiving SIGTERM
// or SIGINT. The shutdown process:
//  1. Stops accepting new connections
//  2. Waits for active connections to complete (up to shutdown timeout)
//  3. Forces connection closure if timeout exceeded
//
// # Thread Safety
//
// All server operations are thread-safe and can be called concurrently from
// multiple goroutines.
package server
