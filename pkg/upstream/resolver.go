package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync/atomic"
)

// Resolution errors that can be checked with errors.Is().
var (
	// ErrUnknownService is returned when no targets are configured for
	// the requested service.
	ErrUnknownService = errors.New("unknown service")

	// ErrNoHealthyTargets is returned when a service is configured but
	// all of its targets are currently marked down.
	ErrNoHealthyTargets = errors.New("no healthy targets")
)

// Target is one backend instance a request can be forwarded to.
type Target struct {
	// Service is the service this target belongs to.
	Service string

	// URL is the target's base URL. The request path is appended to it.
	URL *url.URL
}

// Resolver resolves a service name to the targets the dispatcher may
// forward to, in preference order.
type Resolver interface {
	Resolve(ctx context.Context, service string) ([]Target, error)
}

// targetState tracks one configured target and its health.
type targetState struct {
	target  Target
	healthy atomic.Bool
}

// serviceTargets holds a service's targets and its rotation counter.
type serviceTargets struct {
	targets []*targetState
	next    atomic.Int64
}

// StaticResolver resolves services from a fixed target list built at
// construction. Resolve rotates the order of the returned targets, so
// consecutive requests to the same service start at different instances.
// All methods are safe for concurrent use.
type StaticResolver struct {
	services map[string]*serviceTargets
}

// NewStaticResolver builds a resolver from service name to target base
// URLs. All targets start healthy. Invalid URLs are a construction error.
func NewStaticResolver(services map[string][]string) (*StaticResolver, error) {
	r := &StaticResolver{services: make(map[string]*serviceTargets, len(services))}

	for name, targets := range services {
		st := &serviceTargets{}
		for _, raw := range targets {
			u, err := url.Parse(raw)
			if err != nil || u.Scheme == "" || u.Host == "" {
				return nil, fmt.Errorf("invalid target URL %q for service %q", raw, name)
			}
			ts := &targetState{target: Target{Service: name, URL: u}}
			ts.healthy.Store(true)
			st.targets = append(st.targets, ts)
		}
		r.services[name] = st
	}

	return r, nil
}

// Resolve returns the healthy targets for a service. The first element
// rotates per call; the rest follow in ring order, which gives retry a
// natural "next instance" to try.
func (r *StaticResolver) Resolve(_ context.Context, service string) ([]Target, error) {
	st, ok := r.services[service]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownService, service)
	}

	healthy := make([]Target, 0, len(st.targets))
	for _, ts := range st.targets {
		if ts.healthy.Load() {
			healthy = append(healthy, ts.target)
		}
	}
	if len(healthy) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoHealthyTargets, service)
	}
	if len(healthy) == 1 {
		return healthy, nil
	}

	offset := int(st.next.Add(1)-1) % len(healthy)
	if offset < 0 {
		offset = 0
	}

	rotated := make([]Target, 0, len(healthy))
	rotated = append(rotated, healthy[offset:]...)
	rotated = append(rotated, healthy[:offset]...)
	return rotated, nil
}

// HasHealthyTargets reports whether any configured target of any service
// is currently up. The readiness endpoint uses this.
func (r *StaticResolver) HasHealthyTargets() bool {
	for _, st := range r.services {
		for _, ts := range st.targets {
			if ts.healthy.Load() {
				return true
			}
		}
	}
	return false
}

// setHealth marks one target up or down. Used by the prober.
func (r *StaticResolver) setHealth(service string, targetURL string, healthy bool) {
	st, ok := r.services[service]
	if !ok {
		return
	}
	for _, ts := range st.targets {
		if ts.target.URL.String() == targetURL {
			ts.healthy.Store(healthy)
			return
		}
	}
}

// allTargets returns every configured target state. Used by the prober.
func (r *StaticResolver) allTargets() []*targetState {
	var all []*targetState
	for _, st := range r.services {
		all = append(all, st.targets...)
	}
	return all
}
