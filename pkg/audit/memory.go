package audit

import (
	"context"
	"sync"
	"time"
)

// MemoryStorage is an in-memory Storage implementation. Records are held
// in insertion order. Intended for tests and deployments that do not
// need the trail to survive a restart.
type MemoryStorage struct {
	mu      sync.RWMutex
	records []*Record
}

// NewMemoryStorage creates an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// Insert stores one record.
func (s *MemoryStorage) Insert(_ context.Context, record *Record) error {
	cp := *record
	s.mu.Lock()
	s.records = append(s.records, &cp)
	s.mu.Unlock()
	return nil
}

// Count returns the number of stored records.
func (s *MemoryStorage) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.records)), nil
}

// Recent returns up to limit records, newest first.
func (s *MemoryStorage) Recent(_ context.Context, limit int) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.records)
	if limit > n {
		limit = n
	}
	out := make([]*Record, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		cp := *s.records[i]
		out = append(out, &cp)
	}
	return out, nil
}

// PruneBefore deletes records older than cutoff.
func (s *MemoryStorage) PruneBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	var removed int64
	for _, r := range s.records {
		if r.Time.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	s.records = kept
	return removed, nil
}

// PruneToCount deletes the oldest records until at most max remain.
func (s *MemoryStorage) PruneToCount(_ context.Context, max int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if max < 0 {
		max = 0
	}
	excess := int64(len(s.records)) - max
	if excess <= 0 {
		return 0, nil
	}
	s.records = append(s.records[:0:0], s.records[excess:]...)
	return excess, nil
}

// Close is a no-op for in-memory storage.
func (s *MemoryStorage) Close() error {
	return nil
}
