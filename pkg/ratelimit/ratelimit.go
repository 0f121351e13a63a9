// Package ratelimit implements windowed admission control for the event
// pipeline.
package ratelimit

import (
	"sync"
	"time"

	"github.com/cellwatch/cellwatch/pkg/clock"
)

// Limiter admits at most limit events per fixed window. Events past the
// limit are dropped, not queued: this is hard admission control protecting
// the dispatcher and history from unbounded burst growth, not smoothing.
type Limiter struct {
	mu          sync.Mutex
	clock       clock.Clock
	limit       int
	window      time.Duration
	count       int
	dropped     uint64
	windowStart time.Time
}

// New creates a limiter admitting limit events per window.
func New(limit int, window time.Duration, clk clock.Clock) *Limiter {
	return &Limiter{
		clock:       clk,
		limit:       limit,
		window:      window,
		windowStart: clk.Now(),
	}
}

// Admit records an admission attempt and reports whether the event may
// proceed. The counter rolls over to a fresh window once the current one
// has elapsed. Check and increment happen under one lock acquisition so
// concurrent attempts cannot lose updates.
func (l *Limiter) Admit() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	if now.Sub(l.windowStart) >= l.window {
		l.count = 0
		l.windowStart = now
	}

	l.count++
	if l.count > l.limit {
		l.dropped++
		return false
	}
	return true
}

// Count returns the number of attempts seen in the current window.
func (l *Limiter) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}

// Dropped returns the total number of attempts rejected since creation.
func (l *Limiter) Dropped() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dropped
}
