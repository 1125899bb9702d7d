package proxy

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"taskmesh/atlas/pkg/audit"
	"taskmesh/atlas/pkg/auth"
	"taskmesh/atlas/pkg/limits"
	"taskmesh/atlas/pkg/routing"
	"taskmesh/atlas/pkg/upstream"
)

type staticKey []byte

func (k staticKey) SigningKey() []byte { return k }

var testKey = staticKey("test-signing-key")

func signToken(t *testing.T, key []byte, claims auth.Claims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func validToken(t *testing.T) string {
	return signToken(t, testKey, auth.Claims{
		UserID: "user-1",
		Email:  "alice@example.com",
		Role:   "USER",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "alice@example.com",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
}

// memorySink collects audit records synchronously for assertions.
type memorySink struct {
	mu      sync.Mutex
	records []audit.Record
}

func (s *memorySink) RecordDispatch(record audit.Record) {
	s.mu.Lock()
	s.records = append(s.records, record)
	s.mu.Unlock()
}

func (s *memorySink) last(t *testing.T) audit.Record {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.records) == 0 {
		t.Fatal("no audit records recorded")
	}
	return s.records[len(s.records)-1]
}

type dispatcherFixture struct {
	dispatcher *Dispatcher
	sink       *memorySink
}

// newFixture builds a dispatcher with an open /auth route and a
// protected /tasks route, both pointing at the given targets.
func newFixture(t *testing.T, targets []string, opts func(*Options)) *dispatcherFixture {
	t.Helper()

	table, err := routing.NewTable([]routing.Route{
		{Pattern: "/auth/**", Service: "auth-service"},
		{Pattern: "/tasks/**", Service: "task-service", RequiresAuth: true},
	})
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}

	resolver, err := upstream.NewStaticResolver(map[string][]string{
		"auth-service": targets,
		"task-service": targets,
	})
	if err != nil {
		t.Fatalf("NewStaticResolver failed: %v", err)
	}

	sink := &memorySink{}
	o := Options{
		Table:           table,
		Filter:          auth.NewFilter(auth.NewValidator(testKey, 5*time.Second)),
		Limits:          limits.NewRegistry(64),
		Resolver:        resolver,
		RequestTimeout:  5 * time.Second,
		RetryIdempotent: true,
		Audit:           sink,
	}
	if opts != nil {
		opts(&o)
	}

	return &dispatcherFixture{dispatcher: NewDispatcher(o), sink: sink}
}

func decodeRejection(t *testing.T, rec *httptest.ResponseRecorder) Rejection {
	t.Helper()
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %q", ct)
	}
	var rej Rejection
	if err := json.NewDecoder(rec.Body).Decode(&rej); err != nil {
		t.Fatalf("failed to decode rejection body: %v", err)
	}
	return rej
}

func TestDispatcher_ForwardsOpenRoute(t *testing.T) {
	var got *http.Request
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(r.Context())
		w.Header().Set("X-Backend", "auth-1")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"token":"..."}`))
	}))
	defer backend.Close()

	f := newFixture(t, []string{backend.URL}, nil)

	req := httptest.NewRequest(http.MethodPost, "/auth/login?remember=1", strings.NewReader(`{"user":"alice"}`))
	rec := httptest.NewRecorder()
	f.dispatcher.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 relayed, got %d", rec.Code)
	}
	if rec.Header().Get("X-Backend") != "auth-1" {
		t.Error("expected backend headers relayed")
	}
	if rec.Body.String() != `{"token":"..."}` {
		t.Errorf("expected backend body relayed, got %q", rec.Body.String())
	}

	if got.URL.Path != "/auth/login" {
		t.Errorf("expected path forwarded, got %q", got.URL.Path)
	}
	if got.URL.RawQuery != "remember=1" {
		t.Errorf("expected query forwarded, got %q", got.URL.RawQuery)
	}

	record := f.sink.last(t)
	if record.Outcome != audit.OutcomeForwarded || record.UpstreamStatus != 201 {
		t.Errorf("unexpected audit record: %+v", record)
	}
}

func TestDispatcher_NoRoute(t *testing.T) {
	f := newFixture(t, []string{"http://unused:1"}, nil)

	rec := httptest.NewRecorder()
	f.dispatcher.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports/weekly", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if rej := decodeRejection(t, rec); rej.Error != ReasonNotFound {
		t.Errorf("expected NOT_FOUND, got %q", rej.Error)
	}

	record := f.sink.last(t)
	if record.Outcome != audit.OutcomeRejected || record.Reason != ReasonNotFound {
		t.Errorf("unexpected audit record: %+v", record)
	}
}

func TestDispatcher_AuthRejections(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("backend must not be reached for rejected requests")
	}))
	defer backend.Close()

	f := newFixture(t, []string{backend.URL}, nil)

	expired := signToken(t, testKey, auth.Claims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	badSig := signToken(t, []byte("wrong-key"), auth.Claims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	tests := []struct {
		name       string
		authHeader string
		wantReason string
	}{
		{name: "missing token", authHeader: "", wantReason: ReasonMissingToken},
		{name: "malformed token", authHeader: "Bearer not-a-jwt", wantReason: ReasonMalformedToken},
		{name: "invalid signature", authHeader: "Bearer " + badSig, wantReason: ReasonInvalidSignature},
		{name: "expired token", authHeader: "Bearer " + expired, wantReason: ReasonExpiredToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/tasks/1", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()
			f.dispatcher.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
			if rej := decodeRejection(t, rec); rej.Error != tt.wantReason {
				t.Errorf("expected reason %q, got %q", tt.wantReason, rej.Error)
			}

			record := f.sink.last(t)
			if record.Reason != tt.wantReason || record.Subject != "" {
				t.Errorf("unexpected audit record: %+v", record)
			}
		})
	}
}

func TestDispatcher_IdentityHeaders(t *testing.T) {
	var got http.Header
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
	}))
	defer backend.Close()

	f := newFixture(t, []string{backend.URL}, nil)

	req := httptest.NewRequest(http.MethodGet, "/tasks/1", nil)
	req.Header.Set("Authorization", "Bearer "+validToken(t))
	// Spoofed identity headers must not survive.
	req.Header.Set("X-User-Id", "attacker")
	req.Header.Set("X-User-Roles", "ADMIN")

	rec := httptest.NewRecorder()
	f.dispatcher.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got.Get("X-User-Id") != "user-1" {
		t.Errorf("expected X-User-Id user-1, got %q", got.Get("X-User-Id"))
	}
	if got.Get("X-User-Email") != "alice@example.com" {
		t.Errorf("expected X-User-Email, got %q", got.Get("X-User-Email"))
	}
	if got.Get("X-User-Roles") != "USER" {
		t.Errorf("expected X-User-Roles USER, got %q", got.Get("X-User-Roles"))
	}
	if got.Get("Authorization") != "" {
		t.Error("expected Authorization header not forwarded")
	}

	if record := f.sink.last(t); record.Subject != "user-1" {
		t.Errorf("expected audit subject user-1, got %q", record.Subject)
	}
}

func TestDispatcher_SpoofedIdentityStrippedOnOpenRoute(t *testing.T) {
	var got http.Header
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
	}))
	defer backend.Close()

	f := newFixture(t, []string{backend.URL}, nil)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("X-User-Id", "attacker")

	rec := httptest.NewRecorder()
	f.dispatcher.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got.Get("X-User-Id") != "" {
		t.Errorf("expected spoofed X-User-Id stripped, got %q", got.Get("X-User-Id"))
	}
}

func TestDispatcher_ForwardedFor(t *testing.T) {
	var got http.Header
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
	}))
	defer backend.Close()

	f := newFixture(t, []string{backend.URL}, nil)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.RemoteAddr = "203.0.113.9:4312"
	f.dispatcher.ServeHTTP(httptest.NewRecorder(), req)

	if got.Get("X-Forwarded-For") != "203.0.113.9" {
		t.Errorf("expected X-Forwarded-For 203.0.113.9, got %q", got.Get("X-Forwarded-For"))
	}

	// An existing chain gets appended to, not replaced.
	req = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.RemoteAddr = "203.0.113.9:4312"
	req.Header.Set("X-Forwarded-For", "198.51.100.7")
	f.dispatcher.ServeHTTP(httptest.NewRecorder(), req)

	if got.Get("X-Forwarded-For") != "198.51.100.7, 203.0.113.9" {
		t.Errorf("expected appended chain, got %q", got.Get("X-Forwarded-For"))
	}
}

func TestDispatcher_HopByHopStripped(t *testing.T) {
	var got http.Header
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
	}))
	defer backend.Close()

	f := newFixture(t, []string{backend.URL}, nil)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Proxy-Authorization", "Basic xxx")
	req.Header.Set("Keep-Alive", "timeout=5")
	req.Header.Set("Connection", "X-Drop-Me")
	req.Header.Set("X-Drop-Me", "1")
	req.Header.Set("X-Keep-Me", "1")

	f.dispatcher.ServeHTTP(httptest.NewRecorder(), req)

	for _, h := range []string{"Proxy-Authorization", "Keep-Alive", "X-Drop-Me"} {
		if got.Get(h) != "" {
			t.Errorf("expected %s stripped, got %q", h, got.Get(h))
		}
	}
	if got.Get("X-Keep-Me") != "1" {
		t.Error("expected ordinary headers forwarded")
	}
}

func TestDispatcher_ConcurrencyLimit(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started <- struct{}{}
		<-release
	}))
	defer backend.Close()

	f := newFixture(t, []string{backend.URL}, func(o *Options) {
		o.Limits = limits.NewRegistry(64)
		o.Limits.Register("auth-service", 1)
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		f.dispatcher.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/auth/slow", nil))
	}()
	<-started

	// The slot is held; the next request is rejected, not queued.
	rec := httptest.NewRecorder()
	f.dispatcher.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/fast", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 at the concurrency limit, got %d", rec.Code)
	}
	if rej := decodeRejection(t, rec); rej.Error != ReasonUnavailable {
		t.Errorf("expected SERVICE_UNAVAILABLE, got %q", rej.Error)
	}

	close(release)
	wg.Wait()

	// The slot is free again.
	rec = httptest.NewRecorder()
	f.dispatcher.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/after", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 after slot release, got %d", rec.Code)
	}
}

func TestDispatcher_UnreachableBackend(t *testing.T) {
	gone := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	goneURL := gone.URL
	gone.Close()

	f := newFixture(t, []string{goneURL}, nil)

	rec := httptest.NewRecorder()
	f.dispatcher.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/me", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 for unreachable backend, got %d", rec.Code)
	}
	if rej := decodeRejection(t, rec); rej.Error != ReasonUnavailable {
		t.Errorf("expected SERVICE_UNAVAILABLE, got %q", rej.Error)
	}
}

func TestDispatcher_UpstreamTimeout(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer backend.Close()

	f := newFixture(t, []string{backend.URL}, func(o *Options) {
		o.RequestTimeout = 50 * time.Millisecond
	})

	rec := httptest.NewRecorder()
	f.dispatcher.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/slow", nil))

	if rec.Code != http.StatusGatewayTimeout {
		t.Fatalf("expected 504 on timeout, got %d", rec.Code)
	}
	if rej := decodeRejection(t, rec); rej.Error != ReasonUpstreamTimeout {
		t.Errorf("expected UPSTREAM_TIMEOUT, got %q", rej.Error)
	}
}

func TestDispatcher_RetriesGetAgainstSecondTarget(t *testing.T) {
	gone := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	goneURL := gone.URL
	gone.Close()

	var hits int
	alive := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusOK)
	}))
	defer alive.Close()

	// Both orders of the rotated target list must end at the live
	// backend within one retry.
	f := newFixture(t, []string{goneURL, alive.URL}, nil)

	for i := 0; i < 4; i++ {
		rec := httptest.NewRecorder()
		f.dispatcher.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/me", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200 via retry, got %d", i, rec.Code)
		}
	}
	if hits != 4 {
		t.Errorf("expected 4 hits on the live backend, got %d", hits)
	}

	// At least one dispatch went through the dead target first.
	f.sink.mu.Lock()
	defer f.sink.mu.Unlock()
	retried := false
	for _, r := range f.sink.records {
		retried = retried || r.Retried
	}
	if !retried {
		t.Error("expected at least one retried dispatch in the audit trail")
	}
}

func TestDispatcher_NoRetryForPost(t *testing.T) {
	gone := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	goneURL := gone.URL
	gone.Close()

	var hits int
	alive := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer alive.Close()

	f := newFixture(t, []string{goneURL, alive.URL}, nil)

	// Rotation alternates which target is first. POSTs that start at
	// the dead target must fail without touching the live one.
	var failures int
	for i := 0; i < 4; i++ {
		rec := httptest.NewRecorder()
		f.dispatcher.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader("{}")))
		if rec.Code == http.StatusServiceUnavailable {
			failures++
		}
	}

	if failures == 0 {
		t.Fatal("expected some POSTs to start at the dead target and fail")
	}
	if hits+failures != 4 {
		t.Errorf("POSTs must not be retried: hits=%d failures=%d", hits, failures)
	}
}

func TestDispatcher_RetryDisabled(t *testing.T) {
	gone := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	goneURL := gone.URL
	gone.Close()

	var hits int
	alive := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer alive.Close()

	f := newFixture(t, []string{goneURL, alive.URL}, func(o *Options) {
		o.RetryIdempotent = false
	})

	var failures int
	for i := 0; i < 4; i++ {
		rec := httptest.NewRecorder()
		f.dispatcher.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/me", nil))
		if rec.Code == http.StatusServiceUnavailable {
			failures++
		}
	}
	if failures == 0 {
		t.Error("expected failures with retry disabled")
	}
	if hits+failures != 4 {
		t.Errorf("no retries expected: hits=%d failures=%d", hits, failures)
	}
}

func TestDispatcher_ProtectedRouteWithoutValidator(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("backend must not be reached without a validator")
	}))
	defer backend.Close()

	// A gateway started without a signing key has no filter; a table
	// with protected routes can still be swapped in underneath it.
	f := newFixture(t, []string{backend.URL}, func(o *Options) {
		o.Filter = nil
	})

	tests := []struct {
		name       string
		authHeader string
	}{
		{name: "with bearer token", authHeader: "Bearer abc.def.ghi"},
		{name: "without token", authHeader: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/tasks/1", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()
			f.dispatcher.ServeHTTP(rec, req)

			if rec.Code != http.StatusInternalServerError {
				t.Fatalf("expected 500 for protected route without validator, got %d", rec.Code)
			}
			if rej := decodeRejection(t, rec); rej.Error != ReasonInternal {
				t.Errorf("expected INTERNAL_ERROR, got %q", rej.Error)
			}
		})
	}
}

func TestDispatcher_BodyLengthRelayed(t *testing.T) {
	var gotLength int64
	var gotEncoding []string
	var gotBody string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLength = r.ContentLength
		gotEncoding = r.TransferEncoding
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
	}))
	defer backend.Close()

	f := newFixture(t, []string{backend.URL}, nil)

	payload := `{"user":"alice","password":"s3cret"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	f.dispatcher.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	// The backend must see the declared length, not a chunked stream.
	if gotLength != int64(len(payload)) {
		t.Errorf("expected ContentLength %d at the backend, got %d", len(payload), gotLength)
	}
	if len(gotEncoding) != 0 {
		t.Errorf("expected no transfer encoding, got %v", gotEncoding)
	}
	if gotBody != payload {
		t.Errorf("expected body relayed verbatim, got %q", gotBody)
	}
}

func TestDispatcher_RetryAfterTimeout(t *testing.T) {
	var slowHits int
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slowHits++
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer slow.Close()

	var fastHits int
	fast := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fastHits++
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer fast.Close()

	f := newFixture(t, []string{slow.URL, fast.URL}, func(o *Options) {
		o.RequestTimeout = 100 * time.Millisecond
	})

	// Rotation alternates which target is tried first; GETs that hit
	// the slow one time out and succeed on the retry. Every caller
	// gets the successful response, exactly once.
	for i := 0; i < 4; i++ {
		rec := httptest.NewRecorder()
		f.dispatcher.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/me", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200 via retry after timeout, got %d", i, rec.Code)
		}
		if rec.Body.String() != `{"status":"ok"}` {
			t.Errorf("request %d: expected the fast backend's body once, got %q", i, rec.Body.String())
		}
	}

	if fastHits != 4 {
		t.Errorf("expected the fast backend to serve all 4 requests, got %d", fastHits)
	}
	if slowHits == 0 {
		t.Error("expected at least one request to time out against the slow backend first")
	}

	f.sink.mu.Lock()
	defer f.sink.mu.Unlock()
	retried := false
	for _, r := range f.sink.records {
		retried = retried || r.Retried
	}
	if !retried {
		t.Error("expected retried dispatches in the audit trail")
	}
}

func TestDispatcher_SwapTable(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer backend.Close()

	f := newFixture(t, []string{backend.URL}, nil)

	rec := httptest.NewRecorder()
	f.dispatcher.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports/x", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before swap, got %d", rec.Code)
	}

	table, err := routing.NewTable([]routing.Route{
		{Pattern: "/reports/**", Service: "auth-service"},
	})
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}
	f.dispatcher.SwapTable(table)

	rec = httptest.NewRecorder()
	f.dispatcher.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports/x", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 after swap, got %d", rec.Code)
	}
}

func TestWriteRejection(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteRejection(rec, http.StatusServiceUnavailable, ReasonUnavailable, "service is at its concurrency limit")

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
	rej := decodeRejection(t, rec)
	if rej.Error != "SERVICE_UNAVAILABLE" {
		t.Errorf("expected SERVICE_UNAVAILABLE, got %q", rej.Error)
	}
	if rej.Message == "" {
		t.Error("expected a human-readable message")
	}
}
