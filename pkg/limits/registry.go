package limits

import (
	"sync"
)

// Registry holds one ConcurrentLimiter per backend service.
//
// Services are registered up front from configuration; Get for an
// unregistered service lazily creates a limiter with the default limit
// so a route added by reload before its service limit is tuned still
// gets admission control.
type Registry struct {
	mu           sync.RWMutex
	limiters     map[string]*ConcurrentLimiter
	defaultLimit int
}

// NewRegistry creates a Registry using defaultLimit for services without
// an explicit limit.
func NewRegistry(defaultLimit int) *Registry {
	return &Registry{
		limiters:     make(map[string]*ConcurrentLimiter),
		defaultLimit: defaultLimit,
	}
}

// Register sets the concurrency limit for a service. A limit of zero or
// below falls back to the registry default.
func (r *Registry) Register(service string, limit int) {
	if limit <= 0 {
		limit = r.defaultLimit
	}
	r.mu.Lock()
	r.limiters[service] = NewConcurrentLimiter(limit)
	r.mu.Unlock()
}

// Get returns the limiter for a service, creating one with the default
// limit on first use.
func (r *Registry) Get(service string) *ConcurrentLimiter {
	r.mu.RLock()
	limiter, ok := r.limiters[service]
	r.mu.RUnlock()
	if ok {
		return limiter
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if limiter, ok := r.limiters[service]; ok {
		return limiter
	}
	limiter = NewConcurrentLimiter(r.defaultLimit)
	r.limiters[service] = limiter
	return limiter
}

// Services returns the names of all registered services.
func (r *Registry) Services() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.limiters))
	for name := range r.limiters {
		names = append(names, name)
	}
	return names
}
