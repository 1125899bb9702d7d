// Package metrics exposes the gateway's Prometheus metrics.
//
// All metrics live in a collector-owned registry rather than the global
// default one, so tests can create collectors freely and the /metrics
// endpoint only serves what the gateway itself registers.
//
// Metrics (with the default namespace and subsystem):
//   - atlas_gateway_requests_total{service, method, code}
//   - atlas_gateway_request_duration_seconds{service}
//   - atlas_gateway_upstream_retries_total{service}
//   - atlas_gateway_inflight_requests{service}
//   - atlas_gateway_auth_rejections_total{reason}
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config configures metric naming and histogram buckets.
type Config struct {
	// Namespace is the metric name prefix. Default: "atlas"
	Namespace string

	// Subsystem is the second name component. Default: "gateway"
	Subsystem string

	// RequestDurationBuckets are the histogram buckets in seconds.
	RequestDurationBuckets []float64
}

// Collector records dispatch metrics. It implements the dispatcher's
// Observer interface.
type Collector struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	retriesTotal    *prometheus.CounterVec
	inflight        *prometheus.GaugeVec
	authRejections  *prometheus.CounterVec
}

// NewCollector creates a Collector with its own registry.
func NewCollector(cfg Config) *Collector {
	if cfg.Namespace == "" {
		cfg.Namespace = "atlas"
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = "gateway"
	}
	if len(cfg.RequestDurationBuckets) == 0 {
		cfg.RequestDurationBuckets = []float64{
			0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0,
		}
	}

	c := &Collector{
		registry: prometheus.NewRegistry(),

		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "requests_total",
				Help:      "Total number of requests handled, by service, method and status code",
			},
			[]string{"service", "method", "code"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "request_duration_seconds",
				Help:      "Dispatch duration in seconds, by service",
				Buckets:   cfg.RequestDurationBuckets,
			},
			[]string{"service"},
		),

		retriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "upstream_retries_total",
				Help:      "Total number of forwards retried against a second target",
			},
			[]string{"service"},
		),

		inflight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "inflight_requests",
				Help:      "Number of admitted requests currently in flight, by service",
			},
			[]string{"service"},
		),

		authRejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "auth_rejections_total",
				Help:      "Total number of authentication rejections, by reason code",
			},
			[]string{"reason"},
		),
	}

	c.registry.MustRegister(
		c.requestsTotal,
		c.requestDuration,
		c.retriesTotal,
		c.inflight,
		c.authRejections,
	)

	return c
}

// ObserveRequest records one completed dispatch. An empty service (no
// route matched) is labeled "none" to keep the label set bounded.
func (c *Collector) ObserveRequest(service, method string, status int, duration time.Duration) {
	if service == "" {
		service = "none"
	}
	c.requestsTotal.WithLabelValues(service, method, strconv.Itoa(status)).Inc()
	c.requestDuration.WithLabelValues(service).Observe(duration.Seconds())
}

// RetryOccurred records a forward retried against a second target.
func (c *Collector) RetryOccurred(service string) {
	c.retriesTotal.WithLabelValues(service).Inc()
}

// AuthRejected records an authentication rejection.
func (c *Collector) AuthRejected(reason string) {
	c.authRejections.WithLabelValues(reason).Inc()
}

// InflightInc marks one admitted request in flight.
func (c *Collector) InflightInc(service string) {
	c.inflight.WithLabelValues(service).Inc()
}

// InflightDec marks one in-flight request finished.
func (c *Collector) InflightDec(service string) {
	c.inflight.WithLabelValues(service).Dec()
}

// Registry exposes the collector's registry for tests.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler returns the HTTP handler for the metrics endpoint.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
}
