package limits

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestConcurrentLimiter_AcquireRelease(t *testing.T) {
	limiter := NewConcurrentLimiter(2)

	if !limiter.Acquire() {
		t.Fatal("first acquire should succeed")
	}
	if !limiter.Acquire() {
		t.Fatal("second acquire should succeed")
	}
	if limiter.Acquire() {
		t.Fatal("third acquire should fail at limit 2")
	}

	if got := limiter.Current(); got != 2 {
		t.Errorf("expected 2 in flight, got %d", got)
	}
	if got := limiter.Remaining(); got != 0 {
		t.Errorf("expected 0 remaining, got %d", got)
	}

	limiter.Release()
	if !limiter.Acquire() {
		t.Error("acquire should succeed after release")
	}
}

func TestConcurrentLimiter_RejectionDoesNotLeakSlots(t *testing.T) {
	limiter := NewConcurrentLimiter(1)

	if !limiter.Acquire() {
		t.Fatal("first acquire should succeed")
	}
	for i := 0; i < 10; i++ {
		if limiter.Acquire() {
			t.Fatal("acquire over the limit should fail")
		}
	}

	limiter.Release()
	if got := limiter.Current(); got != 0 {
		t.Errorf("expected 0 in flight after release, got %d", got)
	}
	if !limiter.Acquire() {
		t.Error("acquire should succeed once the slot is free")
	}
}

func TestConcurrentLimiter_Concurrent(t *testing.T) {
	const limit = 8
	const goroutines = 64

	limiter := NewConcurrentLimiter(limit)

	var admitted atomic.Int64
	var peak atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !limiter.Acquire() {
				return
			}
			defer limiter.Release()
			admitted.Add(1)

			// Track the highest concurrent count observed.
			for {
				cur := limiter.Current()
				prev := peak.Load()
				if cur <= prev || peak.CompareAndSwap(prev, cur) {
					break
				}
			}
		}()
	}
	wg.Wait()

	if peak.Load() > limit {
		t.Errorf("observed %d concurrent holders, limit is %d", peak.Load(), limit)
	}
	if admitted.Load() == 0 {
		t.Error("expected at least one admission")
	}
	if got := limiter.Current(); got != 0 {
		t.Errorf("expected 0 in flight after all releases, got %d", got)
	}
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry(16)
	reg.Register("task-service", 2)
	reg.Register("auth-service", 0) // falls back to default

	if got := reg.Get("task-service").Limit(); got != 2 {
		t.Errorf("expected limit 2, got %d", got)
	}
	if got := reg.Get("auth-service").Limit(); got != 16 {
		t.Errorf("expected default limit 16, got %d", got)
	}

	// Unregistered services get a limiter with the default limit.
	if got := reg.Get("unknown-service").Limit(); got != 16 {
		t.Errorf("expected default limit 16 for lazy limiter, got %d", got)
	}

	// Get returns the same limiter each time.
	if reg.Get("task-service") != reg.Get("task-service") {
		t.Error("expected stable limiter instance per service")
	}

	if got := len(reg.Services()); got != 3 {
		t.Errorf("expected 3 registered services, got %d", got)
	}
}
