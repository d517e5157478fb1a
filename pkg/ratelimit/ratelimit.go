// Package ratelimit rejects bursty clients with a fixed window per client
// key. State is process-local and ephemeral.
package ratelimit

import (
	"sync"
	"time"
)

const sweepEvery = 256

// Limiter tracks request instants per key inside a trailing window. The
// clock is injectable so tests can drive the window.
type Limiter struct {
	mu     sync.Mutex
	window time.Duration
	max    int
	now    func() time.Time
	hits   map[string][]time.Time
	calls  int
}

func New(window time.Duration, max int) *Limiter {
	return NewWithClock(window, max, time.Now)
}

func NewWithClock(window time.Duration, max int, now func() time.Time) *Limiter {
	return &Limiter{
		window: window,
		max:    max,
		now:    now,
		hits:   make(map[string][]time.Time),
	}
}

// Allow purges instants older than the window, then either records the
// current instant and accepts, or rejects without recording once the key
// already holds max instants.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	recent := l.hits[key][:0]
	for _, t := range l.hits[key] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}

	l.calls++
	if l.calls%sweepEvery == 0 {
		l.sweep(cutoff)
	}

	if len(recent) >= l.max {
		l.hits[key] = recent
		return false
	}

	l.hits[key] = append(recent, now)
	return true
}

// Count reports how many instants a key currently holds in the window.
func (l *Limiter) Count(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.window)
	n := 0
	for _, t := range l.hits[key] {
		if t.After(cutoff) {
			n++
		}
	}
	return n
}

// sweep drops keys whose every instant fell out of the window, so the
// table does not grow with dead keys. Caller holds the lock.
func (l *Limiter) sweep(cutoff time.Time) {
	for key, times := range l.hits {
		alive := false
		for _, t := range times {
			if t.After(cutoff) {
				alive = true
				break
			}
		}
		if !alive {
			delete(l.hits, key)
		}
	}
}
