// Package turntimer measures how long the player to move has been thinking.
// It never interrupts anything: callers ask whether the limit has passed.
package turntimer

import "time"

type Option func(*Timer)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(timer *Timer) {
		timer.now = now
	}
}

type Timer struct {
	limit time.Duration
	start time.Time
	now   func() time.Time
}

// New starts a timer with the given per-turn limit.
func New(limit time.Duration, opts ...Option) *Timer {
	timer := &Timer{
		limit: limit,
		now:   time.Now,
	}

	for _, opt := range opts {
		opt(timer)
	}

	timer.start = timer.now()

	return timer
}

func (that *Timer) Limit() time.Duration {
	return that.limit
}

// Reset starts a new turn.
func (that *Timer) Reset() {
	that.start = that.now()
}

func (that *Timer) Started() time.Time {
	return that.start
}

func (that *Timer) Elapsed() time.Duration {
	return that.now().Sub(that.start)
}

// Remaining never goes below zero.
func (that *Timer) Remaining() time.Duration {
	return Remaining(that.limit, that.start, that.now())
}

func (that *Timer) Expired() bool {
	return Expired(that.limit, that.start, that.now())
}

// Remaining computes the time left of a turn that started at start.
func Remaining(limit time.Duration, start, now time.Time) time.Duration {
	left := limit - now.Sub(start)
	if left < 0 {
		return 0
	}

	return left
}

// Expired reports whether a turn started at start is over. A non-positive
// limit disables the timer.
func Expired(limit time.Duration, start, now time.Time) bool {
	if limit <= 0 || start.IsZero() {
		return false
	}

	return now.Sub(start) >= limit
}
