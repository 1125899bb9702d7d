package audit

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Sink receives one record per completed dispatch. The dispatcher holds
// a Sink so tests can substitute their own.
type Sink interface {
	RecordDispatch(record Record)
}

// Recorder is the production Sink. Records are queued on a buffered
// channel and written by a single background worker, keeping storage
// latency off the request path. When the buffer is full the record is
// dropped and counted; a full buffer means storage cannot keep up, and
// blocking dispatches on it would turn an audit problem into an outage.
type Recorder struct {
	storage Storage
	records chan Record
	dropped atomic.Int64
	wg      sync.WaitGroup
	done    chan struct{}
	logger  *slog.Logger

	writeTimeout time.Duration
}

// NewRecorder creates a Recorder draining into the given storage.
// buffer is the channel capacity; a buffer of 0 falls back to 1000.
func NewRecorder(storage Storage, buffer int) *Recorder {
	if buffer <= 0 {
		buffer = 1000
	}

	r := &Recorder{
		storage:      storage,
		records:      make(chan Record, buffer),
		done:         make(chan struct{}),
		logger:       slog.Default().With("component", "audit.recorder"),
		writeTimeout: 5 * time.Second,
	}

	r.wg.Add(1)
	go r.worker()

	r.logger.Info("audit recorder started", "buffer", buffer)
	return r
}

// RecordDispatch queues one record. Assigns the record ID and timestamp
// if unset. Never blocks.
func (r *Recorder) RecordDispatch(record Record) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.Time.IsZero() {
		record.Time = time.Now()
	}

	select {
	case r.records <- record:
	default:
		dropped := r.dropped.Add(1)
		if dropped%100 == 1 {
			r.logger.Warn("audit buffer full, dropping records", "dropped_total", dropped)
		}
	}
}

// Dropped returns the number of records dropped due to a full buffer.
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}

// Close stops the worker after draining queued records and closes the
// underlying storage.
func (r *Recorder) Close() error {
	close(r.done)
	r.wg.Wait()
	return r.storage.Close()
}

// worker drains the record channel into storage.
func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case record := <-r.records:
			r.write(record)
		case <-r.done:
			// Drain whatever is still queued before exiting.
			for {
				select {
				case record := <-r.records:
					r.write(record)
				default:
					return
				}
			}
		}
	}
}

// write persists one record.
func (r *Recorder) write(record Record) {
	ctx, cancel := context.WithTimeout(context.Background(), r.writeTimeout)
	defer cancel()

	if err := r.storage.Insert(ctx, &record); err != nil {
		r.logger.Error("failed to write audit record",
			"record_id", record.ID,
			"error", err,
		)
	}
}
