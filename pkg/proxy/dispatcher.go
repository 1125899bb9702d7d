package proxy

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"taskmesh/atlas/pkg/audit"
	"taskmesh/atlas/pkg/auth"
	"taskmesh/atlas/pkg/limits"
	"taskmesh/atlas/pkg/routing"
	"taskmesh/atlas/pkg/upstream"
)

// Observer receives dispatch metrics. pkg/telemetry/metrics implements
// this interface; a nil Observer disables instrumentation.
type Observer interface {
	// ObserveRequest records one completed dispatch.
	ObserveRequest(service, method string, status int, duration time.Duration)

	// RetryOccurred records a forward retried against a second target.
	RetryOccurred(service string)

	// AuthRejected records an authentication rejection by reason code.
	AuthRejected(reason string)

	// InflightInc and InflightDec track admitted in-flight requests.
	InflightInc(service string)
	InflightDec(service string)
}

// Options configures a Dispatcher.
type Options struct {
	// Table is the initial route table.
	Table *routing.Table

	// Filter authenticates requests on routes that require it.
	Filter *auth.Filter

	// Limits is the per-service admission registry.
	Limits *limits.Registry

	// Resolver resolves service names to targets.
	Resolver upstream.Resolver

	// RequestTimeout bounds each forward attempt.
	RequestTimeout time.Duration

	// RetryIdempotent enables the single retry for GET and HEAD.
	RetryIdempotent bool

	// Transport is the upstream round tripper. Defaults to
	// http.DefaultTransport.
	Transport http.RoundTripper

	// Metrics receives dispatch metrics. Optional.
	Metrics Observer

	// Audit receives one record per dispatch. Optional.
	Audit audit.Sink
}

// Dispatcher carries requests from route matching to a relayed backend
// response. It implements http.Handler and is safe for concurrent use.
type Dispatcher struct {
	table    atomic.Pointer[routing.Table]
	filter   *auth.Filter
	limits   *limits.Registry
	resolver upstream.Resolver
	client   *http.Client
	timeout  time.Duration
	retry    bool
	metrics  Observer
	audit    audit.Sink
	logger   *slog.Logger
}

// NewDispatcher creates a Dispatcher from options.
func NewDispatcher(opts Options) *Dispatcher {
	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	d := &Dispatcher{
		filter:   opts.Filter,
		limits:   opts.Limits,
		resolver: opts.Resolver,
		// Attempt timeouts come from per-request contexts, not the
		// client, so a reload of the timeout needs no new client.
		client:  &http.Client{Transport: transport, CheckRedirect: noRedirect},
		timeout: opts.RequestTimeout,
		retry:   opts.RetryIdempotent,
		metrics: opts.Metrics,
		audit:   opts.Audit,
		logger:  slog.Default().With("component", "dispatcher"),
	}
	d.table.Store(opts.Table)
	return d
}

// noRedirect relays backend redirects to the client instead of following
// them at the gateway.
func noRedirect(*http.Request, []*http.Request) error {
	return http.ErrUseLastResponse
}

// SwapTable atomically replaces the route table. In-flight requests keep
// the table they matched against.
func (d *Dispatcher) SwapTable(table *routing.Table) {
	d.table.Store(table)
}

// Table returns the current route table.
func (d *Dispatcher) Table() *routing.Table {
	return d.table.Load()
}

// dispatch tracks one request through the pipeline for logging, metrics
// and the audit record.
type dispatch struct {
	start   time.Time
	reqID   string
	method  string
	path    string
	service string
	subject string
	retried bool
}

// ServeHTTP handles one request end to end.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	state := &dispatch{
		start:  time.Now(),
		reqID:  r.Header.Get("X-Request-ID"),
		method: r.Method,
		path:   r.URL.Path,
	}

	// Client-supplied identity headers are never forwarded.
	auth.StripIdentityHeaders(r.Header)

	route, ok := d.table.Load().Match(r.URL.Path)
	if !ok {
		d.reject(w, state, http.StatusNotFound, ReasonNotFound,
			"no route matches the request path")
		return
	}
	state.service = route.Service

	var identity *auth.Identity
	if route.RequiresAuth {
		if d.filter == nil {
			// A protected route with no validator means the table was
			// swapped past a gateway started without a signing key.
			// Nothing the client sends can authenticate here.
			d.logger.Error("protected route has no token validator",
				"service", route.Service,
				"path", state.path,
			)
			d.reject(w, state, http.StatusInternalServerError, ReasonInternal,
				"an internal error occurred")
			return
		}
		var err error
		identity, err = d.filter.Authenticate(r)
		if err != nil {
			reason := authReason(err)
			if d.metrics != nil {
				d.metrics.AuthRejected(reason)
			}
			d.reject(w, state, http.StatusUnauthorized, reason, authMessage(reason))
			return
		}
		state.subject = identity.UserID
	}

	limiter := d.limits.Get(route.Service)
	if !limiter.Acquire() {
		d.reject(w, state, http.StatusServiceUnavailable, ReasonUnavailable,
			"service is at its concurrency limit")
		return
	}
	defer limiter.Release()
	if d.metrics != nil {
		d.metrics.InflightInc(route.Service)
		defer d.metrics.InflightDec(route.Service)
	}

	targets, err := d.resolver.Resolve(r.Context(), route.Service)
	if err != nil {
		d.reject(w, state, http.StatusServiceUnavailable, ReasonUnavailable,
			"no backend available for this service")
		return
	}

	resp, err := d.forward(r, identity, targets, state)
	if err != nil {
		if r.Context().Err() != nil {
			// Client gone; nothing useful can be written.
			d.logger.Debug("client disconnected during forward",
				"service", state.service,
				"path", state.path,
			)
			d.record(state, audit.OutcomeRejected, "", 0)
			return
		}
		if isTimeout(err) {
			d.reject(w, state, http.StatusGatewayTimeout, ReasonUpstreamTimeout,
				"backend did not respond in time")
			return
		}
		d.logger.Warn("forward failed",
			"service", state.service,
			"path", state.path,
			"error", err,
		)
		d.reject(w, state, http.StatusServiceUnavailable, ReasonUnavailable,
			"backend is unreachable")
		return
	}
	defer resp.Body.Close()

	d.relay(w, resp)

	if d.metrics != nil {
		d.metrics.ObserveRequest(state.service, state.method, resp.StatusCode, time.Since(state.start))
	}
	d.record(state, audit.OutcomeForwarded, "", resp.StatusCode)
}

// forward attempts the upstream call. GET and HEAD get one retry against
// the next target on timeout or connection failure; other methods fail
// on the first error because the backend may already have acted on the
// request.
func (d *Dispatcher) forward(r *http.Request, identity *auth.Identity, targets []upstream.Target, state *dispatch) (*http.Response, error) {
	attempts := 1
	if d.retry && retryable(r.Method) && len(targets) > 1 {
		attempts = 2
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			state.retried = true
			if d.metrics != nil {
				d.metrics.RetryOccurred(state.service)
			}
			d.logger.Debug("retrying against next target",
				"service", state.service,
				"target", targets[i].URL.String(),
			)
		}

		resp, err := d.attempt(r, identity, targets[i])
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if r.Context().Err() != nil {
			// The client is gone or the inbound deadline passed;
			// another target cannot help.
			break
		}
	}
	return nil, lastErr
}

// attempt forwards the request to one target.
func (d *Dispatcher) attempt(r *http.Request, identity *auth.Identity, target upstream.Target) (*http.Response, error) {
	ctx, cancel := context.WithTimeout(r.Context(), d.timeout)

	out, err := http.NewRequestWithContext(ctx, r.Method, targetURL(target, r.URL), outboundBody(r))
	if err != nil {
		cancel()
		return nil, err
	}
	if out.Body != nil {
		// The inbound body is an opaque reader; without the declared
		// length the client would send it chunked.
		out.ContentLength = r.ContentLength
	}

	out.Header = forwardHeaders(r)
	if identity != nil {
		auth.SetIdentityHeaders(out.Header, identity)
	}
	appendForwardedFor(out.Header, r.RemoteAddr)

	resp, err := d.client.Do(out)
	if err != nil {
		cancel()
		return nil, err
	}

	// The timeout context must stay alive until the body is consumed.
	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

// relay copies the backend response to the client, minus hop-by-hop
// headers.
func (d *Dispatcher) relay(w http.ResponseWriter, resp *http.Response) {
	copyHeaders(w.Header(), resp.Header)
	for _, h := range hopByHop {
		w.Header().Del(h)
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		// The client went away mid-body; the status is already written.
		d.logger.Debug("response relay interrupted", "error", err)
	}
}

// reject answers the request at the gateway.
func (d *Dispatcher) reject(w http.ResponseWriter, state *dispatch, status int, reason, message string) {
	WriteRejection(w, status, reason, message)
	if d.metrics != nil {
		d.metrics.ObserveRequest(state.service, state.method, status, time.Since(state.start))
	}
	d.record(state, audit.OutcomeRejected, reason, status)
}

// record emits the audit record for a finished dispatch.
func (d *Dispatcher) record(state *dispatch, outcome, reason string, status int) {
	if d.audit == nil {
		return
	}
	d.audit.RecordDispatch(audit.Record{
		RequestID:      state.reqID,
		Method:         state.method,
		Path:           state.path,
		Service:        state.service,
		Subject:        state.subject,
		Outcome:        outcome,
		Reason:         reason,
		UpstreamStatus: status,
		LatencyMS:      time.Since(state.start).Milliseconds(),
		Retried:        state.retried,
	})
}

// retryable reports whether a method is safe to retry against another
// target.
func retryable(method string) bool {
	return method == http.MethodGet || method == http.MethodHead
}

// isTimeout reports whether an upstream error is a timeout rather than a
// connection failure.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// targetURL joins the target base URL with the request path and query.
func targetURL(target upstream.Target, in *url.URL) string {
	out := *target.URL
	out.Path = strings.TrimSuffix(out.Path, "/") + in.Path
	out.RawQuery = in.RawQuery
	return out.String()
}

// outboundBody returns the body for the outbound request. GET and HEAD
// requests carry none, which is also what makes their retry safe.
func outboundBody(r *http.Request) io.Reader {
	if retryable(r.Method) {
		return nil
	}
	return r.Body
}

// hopByHop are the connection-scoped headers that must not be forwarded.
var hopByHop = []string{
	"Connection",
	"Proxy-Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// forwardHeaders builds the outbound header set: the inbound headers
// minus hop-by-hop ones and the Authorization header, which backends
// have no use for once the gateway has authenticated the request.
func forwardHeaders(r *http.Request) http.Header {
	out := make(http.Header, len(r.Header))
	copyHeaders(out, r.Header)

	for _, h := range hopByHop {
		out.Del(h)
	}
	// Headers named by the inbound Connection header are hop-by-hop too.
	for _, name := range strings.Split(r.Header.Get("Connection"), ",") {
		if name = strings.TrimSpace(name); name != "" {
			out.Del(name)
		}
	}
	out.Del("Authorization")
	return out
}

// copyHeaders copies all values of src into dst.
func copyHeaders(dst, src http.Header) {
	for k, vv := range src {
		for _, v := range vv {
			dst.Add(k, v)
		}
	}
}

// appendForwardedFor records the client address on the outbound request.
func appendForwardedFor(h http.Header, remoteAddr string) {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	if prior := h.Get("X-Forwarded-For"); prior != "" {
		host = prior + ", " + host
	}
	h.Set("X-Forwarded-For", host)
}

// cancelOnClose ties a forward attempt's timeout context to the life of
// the response body.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

// Close closes the body and releases the attempt context.
func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}
