// Package backends provides mock backend services for testing the gateway.
package backends

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// MockBackend is a mock backend HTTP service for gateway tests.
// It simulates backend behavior including delays, errors, and echoing
// the identity headers the gateway sets.
type MockBackend struct {
	server       *httptest.Server
	responses    map[string]MockResponse
	requests     []ReceivedRequest
	requestCount int
	mu           sync.Mutex
}

// MockResponse defines a mock response configuration.
type MockResponse struct {
	StatusCode int
	Body       interface{}
	Delay      time.Duration
	Headers    map[string]string
}

// ReceivedRequest captures what the backend saw for one request.
type ReceivedRequest struct {
	Method string
	Path   string
	Header http.Header
}

// NewMockBackend creates a new mock backend.
func NewMockBackend() *MockBackend {
	mb := &MockBackend{
		responses: make(map[string]MockResponse),
	}
	mb.server = httptest.NewServer(http.HandlerFunc(mb.handler))
	return mb
}

// URL returns the mock backend's base URL.
func (mb *MockBackend) URL() string {
	return mb.server.URL
}

// Close closes the mock backend.
func (mb *MockBackend) Close() {
	mb.server.Close()
}

// SetResponse sets a mock response for a specific path.
func (mb *MockBackend) SetResponse(path string, response MockResponse) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.responses[path] = response
}

// RequestCount returns the number of requests received.
func (mb *MockBackend) RequestCount() int {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	return mb.requestCount
}

// LastRequest returns the most recently received request, or false when
// the backend has not been hit.
func (mb *MockBackend) LastRequest() (ReceivedRequest, bool) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	if len(mb.requests) == 0 {
		return ReceivedRequest{}, false
	}
	return mb.requests[len(mb.requests)-1], true
}

// Reset clears recorded requests and the request counter.
func (mb *MockBackend) Reset() {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.requests = nil
	mb.requestCount = 0
}

func (mb *MockBackend) handler(w http.ResponseWriter, r *http.Request) {
	mb.mu.Lock()
	mb.requestCount++
	mb.requests = append(mb.requests, ReceivedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Header: r.Header.Clone(),
	})
	response, ok := mb.responses[r.URL.Path]
	mb.mu.Unlock()

	if !ok {
		// Default response echoes the path and the identity headers, so
		// tests can assert what the gateway forwarded.
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"path":    r.URL.Path,
			"user_id": r.Header.Get("X-User-Id"),
			"email":   r.Header.Get("X-User-Email"),
			"roles":   r.Header.Get("X-User-Roles"),
		})
		return
	}

	if response.Delay > 0 {
		select {
		case <-time.After(response.Delay):
		case <-r.Context().Done():
			return
		}
	}

	for key, value := range response.Headers {
		w.Header().Set(key, value)
	}
	status := response.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if response.Body != nil {
		json.NewEncoder(w).Encode(response.Body)
	}
}
