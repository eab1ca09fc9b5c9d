package autopress

import (
	"sync"
	"time"
)

// RateLimit tracks the last-fired time per (caller_last10, digit) pair
// (§3's AutoPressRateLimit), rejecting re-fires within the window. digit is
// a string token rather than a single byte so the default-digits variant's
// "default" pseudo-digit can share the same key namespace as real digit
// characters (SPEC_FULL §13 open-question decision 2 — preserved, flagged).
type RateLimit struct {
	mu       sync.Mutex
	window   time.Duration
	lastFire map[string]time.Time
}

// NewRateLimit builds a RateLimit with the given window (§6 AUTO_PRESS_RATE_LIMIT_SECS).
func NewRateLimit(window time.Duration) *RateLimit {
	return &RateLimit{window: window, lastFire: make(map[string]time.Time)}
}

func key(last10, digit string) string {
	return last10 + ":" + digit
}

// Allowed reports whether (last10, digit) is outside the rate-limit window.
func (r *RateLimit) Allowed(last10, digit string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	last, ok := r.lastFire[key(last10, digit)]
	if !ok {
		return true
	}
	return time.Since(last) >= r.window
}

// Record latches the attempt time for (last10, digit). Per SPEC_FULL §13's
// open-question decision, this is called before the REST redirect is known
// to have succeeded, so a failed redirect is not retried within the window
// — preserved from the source behavior, not re-designed.
func (r *RateLimit) Record(last10, digit string) {
	r.mu.Lock()
	r.lastFire[key(last10, digit)] = time.Now()
	r.mu.Unlock()
}
