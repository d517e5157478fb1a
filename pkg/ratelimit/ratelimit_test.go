package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func newTestLimiter(max int) (*Limiter, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)}
	return NewWithClock(time.Hour, max, clock.Now), clock
}

func TestSixthRequestRejected(t *testing.T) {
	l, clock := newTestLimiter(5)

	for i := 0; i < 5; i++ {
		assert.True(t, l.Allow("1.2.3.4"), "request %d should pass", i+1)
		clock.Advance(time.Minute)
	}
	assert.False(t, l.Allow("1.2.3.4"), "6th request inside the window must be rejected")
}

func TestRejectedAttemptNotRecorded(t *testing.T) {
	l, _ := newTestLimiter(5)

	for i := 0; i < 5; i++ {
		l.Allow("k")
	}
	for i := 0; i < 20; i++ {
		l.Allow("k")
	}
	assert.Equal(t, 5, l.Count("k"), "rejected attempts must not extend the window")
}

func TestAcceptedAfterWindowElapses(t *testing.T) {
	l, clock := newTestLimiter(5)

	for i := 0; i < 5; i++ {
		l.Allow("k")
	}
	assert.False(t, l.Allow("k"))

	clock.Advance(time.Hour + time.Second)
	assert.True(t, l.Allow("k"), "first request after the window fully elapses is accepted")
}

func TestWindowSlidesPerInstant(t *testing.T) {
	l, clock := newTestLimiter(2)

	assert.True(t, l.Allow("k"))
	clock.Advance(40 * time.Minute)
	assert.True(t, l.Allow("k"))
	assert.False(t, l.Allow("k"))

	// The first instant ages out; one slot opens.
	clock.Advance(25 * time.Minute)
	assert.True(t, l.Allow("k"))
	assert.False(t, l.Allow("k"))
}

func TestKeysAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(5)

	for i := 0; i < 5; i++ {
		l.Allow("a")
	}
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"))
}

func TestSweepDropsDeadKeys(t *testing.T) {
	l, clock := newTestLimiter(5)

	for i := 0; i < 10; i++ {
		l.Allow("dead")
	}
	clock.Advance(2 * time.Hour)

	// Drive enough checks on another key to trigger the sweep.
	for i := 0; i < sweepEvery+1; i++ {
		l.Allow("live")
	}

	l.mu.Lock()
	_, ok := l.hits["dead"]
	l.mu.Unlock()
	assert.False(t, ok, "expired keys should be swept from the table")
}
