package infrastructure

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// newStoppedClockLimiter builds a limiter whose clock is controlled by the
// test; no cleanup goroutine is started.
func newStoppedClockLimiter(start time.Time) (*SlidingWindowLimiter, *time.Time) {
	current := start
	rl := &SlidingWindowLimiter{
		windows: make(map[string][]time.Time),
		now:     func() time.Time { return current },
	}
	return rl, &current
}

func TestSlidingWindowLimiterExactLimit(t *testing.T) {
	rl, _ := newStoppedClockLimiter(time.Now())

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("k", 3, time.Minute), "request %d should pass", i+1)
	}
	assert.False(t, rl.Allow("k", 3, time.Minute), "4th request must be rejected")
	assert.False(t, rl.Allow("k", 3, time.Minute))
}

func TestSlidingWindowLimiterWindowExpiry(t *testing.T) {
	rl, clock := newStoppedClockLimiter(time.Now())

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("k", 3, time.Minute))
	}
	assert.False(t, rl.Allow("k", 3, time.Minute))

	*clock = clock.Add(61 * time.Second)
	assert.True(t, rl.Allow("k", 3, time.Minute), "window must slide after 60s")
}

func TestSlidingWindowLimiterRejectionNotRecorded(t *testing.T) {
	rl, clock := newStoppedClockLimiter(time.Now())

	for i := 0; i < 3; i++ {
		rl.Allow("k", 3, time.Minute)
	}
	// A steady flood of rejected requests must not extend the window.
	for i := 0; i < 10; i++ {
		*clock = clock.Add(5 * time.Second)
		rl.Allow("k", 3, time.Minute)
	}
	*clock = clock.Add(12 * time.Second) // 62s after the accepted burst
	assert.True(t, rl.Allow("k", 3, time.Minute))
}

func TestSlidingWindowLimiterKeysIndependent(t *testing.T) {
	rl, _ := newStoppedClockLimiter(time.Now())

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("a", 3, time.Minute))
	}
	assert.False(t, rl.Allow("a", 3, time.Minute))
	assert.True(t, rl.Allow("b", 3, time.Minute), "key b has its own window")
	assert.Equal(t, 2, rl.ActiveKeys())
}

func TestSlidingWindowLimiterZeroLimit(t *testing.T) {
	rl, _ := newStoppedClockLimiter(time.Now())
	assert.False(t, rl.Allow("k", 0, time.Minute))
}
