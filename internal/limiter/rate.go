package limiter

import (
	"sync"
	"time"
)

// RateLimiter caps requests per second with a sliding one-second window,
// tracked independently per key (the API keys it by client address).
type RateLimiter struct {
	maxRequests  int
	mu           sync.Mutex
	requestTimes map[string][]time.Time
}

func NewRateLimiter(maxRequests int) *RateLimiter {
	return &RateLimiter{
		maxRequests:  maxRequests,
		requestTimes: make(map[string][]time.Time),
	}
}

// Allow reports whether one more request fits the key's window right now,
// and records it when it does.
func (r *RateLimiter) Allow(key string) bool {
	if r.maxRequests <= 0 {
		return true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	oneSecondAgo := now.Add(-1 * time.Second)

	// Drop requests older than one second
	validTimes := make([]time.Time, 0, len(r.requestTimes[key]))
	for _, t := range r.requestTimes[key] {
		if t.After(oneSecondAgo) {
			validTimes = append(validTimes, t)
		}
	}

	if len(validTimes) < r.maxRequests {
		validTimes = append(validTimes, now)
		r.requestTimes[key] = validTimes
		return true
	}

	r.requestTimes[key] = validTimes
	return false
}
