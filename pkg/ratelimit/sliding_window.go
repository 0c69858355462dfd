package ratelimit

import (
	"sync"
	"time"
)

// SlidingWindowLimiter allows at most limit events per key within any
// window of the given size
type SlidingWindowLimiter struct {
	mu         sync.Mutex
	windows    map[string][]time.Time
	limit      int
	windowSize time.Duration
	now        func() time.Time
}

// NewSlidingWindowLimiter creates a new sliding window rate limiter
func NewSlidingWindowLimiter(limit int, windowSize time.Duration) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		windows:    make(map[string][]time.Time),
		limit:      limit,
		windowSize: windowSize,
		now:        time.Now,
	}
}

// Allow records an event for key and reports whether it is within the limit.
// Rejected events are not recorded.
func (l *SlidingWindowLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	requests := prune(l.windows[key], now.Add(-l.windowSize))

	if len(requests) >= l.limit {
		l.windows[key] = requests
		return false
	}
	l.windows[key] = append(requests, now)
	return true
}

// RetryAfter returns how long key has to wait for its next allowed event
func (l *SlidingWindowLimiter) RetryAfter(key string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	requests := l.windows[key]
	if len(requests) < l.limit {
		return 0
	}
	wait := requests[0].Add(l.windowSize).Sub(l.now())
	if wait < 0 {
		return 0
	}
	return wait
}

// Sweep drops keys whose events have all left the window
func (l *SlidingWindowLimiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.windowSize)
	for key, requests := range l.windows {
		if requests = prune(requests, cutoff); len(requests) == 0 {
			delete(l.windows, key)
		} else {
			l.windows[key] = requests
		}
	}
}

// prune drops timestamps at or before cutoff; requests is sorted
func prune(requests []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(requests) && !requests[i].After(cutoff) {
		i++
	}
	return requests[i:]
}
