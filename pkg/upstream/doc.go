// Package upstream resolves backend service names to concrete targets.
//
// The Resolver turns a service name from the route table into the list
// of target base URLs the dispatcher may forward to. StaticResolver is
// built from configuration and rotates the order of returned targets so
// the dispatcher's first choice round-robins across a service's
// instances.
//
// The optional Prober pings each target's health endpoint on an interval
// and marks failing targets down. Down targets are filtered out of
// Resolve results until a probe succeeds again; when every target of a
// service is down, Resolve reports ErrNoHealthyTargets and the request
// is rejected instead of forwarded at a known-dead instance.
package upstream
