package infrastructure

import (
	"sync"
	"time"
)

// SlidingWindowLimiter keeps, per key, the timestamps of accepted requests
// inside the current window. State is in-process only; a restart clears it,
// and multi-instance deployments need the Redis-backed limiter instead.
type SlidingWindowLimiter struct {
	mu          sync.Mutex
	windows     map[string][]time.Time
	cleanupTick time.Duration
	maxIdle     time.Duration
	now         func() time.Time
}

func NewSlidingWindowLimiter() *SlidingWindowLimiter {
	rl := &SlidingWindowLimiter{
		windows:     make(map[string][]time.Time),
		cleanupTick: 5 * time.Minute,
		maxIdle:     10 * time.Minute,
		now:         time.Now,
	}

	// Start cleanup goroutine
	go rl.cleanup()

	return rl
}

// Allow reports whether a request for key fits inside the window. Rejected
// requests are not recorded, so a steady flood does not extend the window.
func (rl *SlidingWindowLimiter) Allow(key string, limit int, window time.Duration) bool {
	if limit <= 0 {
		return false
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	bucket := rl.windows[key]

	// Drop timestamps that aged out of the window
	cut := 0
	for cut < len(bucket) && now.Sub(bucket[cut]) > window {
		cut++
	}
	if cut > 0 {
		bucket = append(bucket[:0], bucket[cut:]...)
	}

	if len(bucket) >= limit {
		rl.windows[key] = bucket
		return false
	}

	rl.windows[key] = append(bucket, now)
	return true
}

// cleanup removes keys with no recent activity so the map does not grow
// without bound under rotating keys.
func (rl *SlidingWindowLimiter) cleanup() {
	ticker := time.NewTicker(rl.cleanupTick)
	for range ticker.C {
		rl.mu.Lock()
		now := rl.now()
		for key, bucket := range rl.windows {
			if len(bucket) == 0 || now.Sub(bucket[len(bucket)-1]) > rl.maxIdle {
				delete(rl.windows, key)
			}
		}
		rl.mu.Unlock()
	}
}

// ActiveKeys returns the number of tracked keys.
func (rl *SlidingWindowLimiter) ActiveKeys() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.windows)
}
