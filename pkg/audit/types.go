package audit

import (
	"context"
	"time"
)

// Outcome values for a dispatch record.
const (
	// OutcomeForwarded means the request reached a backend and its
	// response was relayed, whatever the upstream status code.
	OutcomeForwarded = "forwarded"

	// OutcomeRejected means the gateway answered the request itself
	// without contacting a backend.
	OutcomeRejected = "rejected"
)

// Record is one dispatched request.
type Record struct {
	// ID is the unique record identifier, assigned by the recorder.
	ID string

	// RequestID correlates the record with request logs.
	RequestID string

	// Time is when the dispatch completed.
	Time time.Time

	// Method and Path identify the inbound request.
	Method string
	Path   string

	// Service is the matched backend service, empty when no route
	// matched.
	Service string

	// Subject is the authenticated user ID, empty for open routes and
	// rejected authentications.
	Subject string

	// Outcome is OutcomeForwarded or OutcomeRejected.
	Outcome string

	// Reason is the rejection reason code, empty for forwarded requests.
	Reason string

	// UpstreamStatus is the status code relayed to the client.
	UpstreamStatus int

	// LatencyMS is the total dispatch latency in milliseconds.
	LatencyMS int64

	// Retried marks dispatches that needed a second target.
	Retried bool
}

// Storage persists dispatch records.
//
// Implementations must be safe for concurrent use. The recorder calls
// Insert from a single background goroutine; the pruner and any
// inspection tooling call the rest concurrently with it.
type Storage interface {
	// Insert stores one record.
	Insert(ctx context.Context, record *Record) error

	// Count returns the number of stored records.
	Count(ctx context.Context) (int64, error)

	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]*Record, error)

	// PruneBefore deletes records older than cutoff and returns how
	// many were removed.
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// PruneToCount deletes the oldest records until at most max remain
	// and returns how many were removed.
	PruneToCount(ctx context.Context, max int64) (int64, error)

	// Close releases storage resources.
	Close() error
}
