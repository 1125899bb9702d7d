// Atlas is the edge gateway for the TaskMesh platform.
//
// It terminates client HTTP traffic at the platform boundary, providing:
//   - Path-based routing onto internal backend services
//   - JWT verification for protected routes
//   - Trusted identity header propagation
//   - Per-service concurrency admission and retry
//   - Dispatch audit trail and Prometheus metrics
//
// Usage:
//
//	# Start the gateway with default configuration
//	atlas run
//
//	# Start with custom configuration file
//	atlas run --config /path/to/config.yaml
//
//	# Validate configuration without starting
//	atlas validate
//
//	# Print the compiled route table
//	atlas routes --format json
//
//	# Show version information
//	atlas version
package main

func main() {
	Execute()
}
