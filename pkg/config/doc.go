// Package config provides configuration management for the Atlas gateway.
//
// This package handles loading, validating, and managing configuration from
// YAML files with environment variable overrides. It provides a type-safe
// configuration system with comprehensive validation and sensible defaults.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("config.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("config.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention ATLAS_SECTION_FIELD.
// For example:
//
//   - ATLAS_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - ATLAS_AUTH_SIGNING_KEY overrides auth.signing_key
//   - ATLAS_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// Environment variables always take precedence over file-based configuration.
//
// # Configuration Precedence
//
// Configuration values are applied in the following order (later overrides
// earlier):
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Validation
//
// All configuration is validated automatically during loading. Any
// validation error is fatal at startup: the gateway refuses to serve
// traffic on a partially valid configuration. Validation errors include
// field paths and helpful messages:
//
//	configuration validation failed with 2 errors:
//	  - routes[1].pattern: duplicate pattern "/tasks/**" (already declared at routes[0])
//	  - services.task-service.targets: at least one target is required
//
// # Example Configuration
//
// Here is a minimal configuration file:
//
//	server:
//	  listen_address: "0.0.0.0:8080"
//
//	routes:
//	  - pattern: /auth/**
//	    service: auth-service
//	  - pattern: /tasks/**
//	    service: task-service
//	    requires_auth: true
//
//	services:
//	  auth-service:
//	    targets: ["http://auth-service:8081"]
//	  task-service:
//	    targets: ["http://task-service:8082"]
//
//	auth:
//	  signing_key: "${ATLAS_AUTH_SIGNING_KEY}"
//
// # Thread Safety
//
// All configuration access is thread-safe. The singleton pattern uses
// read-write locks to allow concurrent reads; a loaded Config is treated as
// immutable by every consumer.
package config
