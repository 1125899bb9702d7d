package limits

import (
	"sync/atomic"
)

// ConcurrentLimiter limits the number of simultaneous in-flight requests
// against one backend service.
//
// This implements a counting semaphore using atomic operations for
// lock-free performance.
//
// # Algorithm
//
//  1. Atomically increment counter
//  2. Check if counter exceeds limit
//  3. If yes: decrement and reject
//  4. If no: allow request
//  5. On completion: decrement counter
//
// # Thread Safety
//
// ConcurrentLimiter is lock-free and thread-safe using atomic operations.
type ConcurrentLimiter struct {
	limit   int64 // Maximum concurrent requests
	current int64 // Current number of in-flight requests
}

// NewConcurrentLimiter creates a new concurrent request limiter.
//
// Example:
//
//	limiter := NewConcurrentLimiter(64)
//	if limiter.Acquire() {
//	    defer limiter.Release()
//	    // Forward request
//	} else {
//	    // Reject with 503
//	}
func NewConcurrentLimiter(limit int) *ConcurrentLimiter {
	return &ConcurrentLimiter{
		limit: int64(limit),
	}
}

// Acquire attempts to acquire a concurrency slot.
// Returns true if acquired, false if the limit is reached.
//
// If this returns true, the caller MUST call Release() when done.
func (cl *ConcurrentLimiter) Acquire() bool {
	current := atomic.AddInt64(&cl.current, 1)
	if current > cl.limit {
		atomic.AddInt64(&cl.current, -1)
		return false
	}
	return true
}

// Release releases a concurrency slot.
// This MUST be called exactly once after a successful Acquire().
func (cl *ConcurrentLimiter) Release() {
	atomic.AddInt64(&cl.current, -1)
}

// Current returns the current number of in-flight requests.
func (cl *ConcurrentLimiter) Current() int64 {
	return atomic.LoadInt64(&cl.current)
}

// Limit returns the configured concurrency limit.
func (cl *ConcurrentLimiter) Limit() int64 {
	return atomic.LoadInt64(&cl.limit)
}

// Remaining returns the number of available concurrency slots.
func (cl *ConcurrentLimiter) Remaining() int64 {
	remaining := cl.Limit() - cl.Current()
	if remaining < 0 {
		return 0
	}
	return remaining
}
