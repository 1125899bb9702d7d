package upstream

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Prober periodically checks each target's health endpoint and updates
// the resolver's view of which targets are up.
//
// A probe succeeds when the target answers with a 2xx status within the
// probe timeout. State transitions are logged; steady state is silent.
type Prober struct {
	resolver *StaticResolver
	client   *http.Client
	interval time.Duration
	path     string
	logger   *slog.Logger

	stopOnce sync.Once
	done     chan struct{}
}

// NewProber creates a Prober for the given resolver. path is the health
// endpoint probed on each target (e.g. "/health").
func NewProber(resolver *StaticResolver, interval, timeout time.Duration, path string) *Prober {
	return &Prober{
		resolver: resolver,
		client:   &http.Client{Timeout: timeout},
		interval: interval,
		path:     path,
		logger:   slog.Default().With("component", "prober"),
		done:     make(chan struct{}),
	}
}

// Start begins probing in a background goroutine. The first sweep runs
// immediately so a dead target configured at startup is marked down
// before the first interval elapses.
func (p *Prober) Start() {
	go func() {
		p.sweep()
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-p.done:
				return
			case <-ticker.C:
				p.sweep()
			}
		}
	}()
}

// Stop halts probing. Safe to call more than once.
func (p *Prober) Stop() {
	p.stopOnce.Do(func() { close(p.done) })
}

// sweep probes every target once.
func (p *Prober) sweep() {
	for _, ts := range p.resolver.allTargets() {
		healthy := p.probe(ts)
		was := ts.healthy.Load()
		if healthy != was {
			if healthy {
				p.logger.Info("target recovered",
					"service", ts.target.Service,
					"target", ts.target.URL.String(),
				)
			} else {
				p.logger.Warn("target marked down",
					"service", ts.target.Service,
					"target", ts.target.URL.String(),
				)
			}
		}
		ts.healthy.Store(healthy)
	}
}

// probe checks one target's health endpoint.
func (p *Prober) probe(ts *targetState) bool {
	ctx, cancel := context.WithTimeout(context.Background(), p.client.Timeout)
	defer cancel()

	probeURL := ts.target.URL.JoinPath(p.path).String()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, probeURL, nil)
	if err != nil {
		return false
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
