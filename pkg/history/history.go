// Package history keeps a bounded, FIFO-evicting log of admitted events.
package history

import (
	"sync"
	"time"

	"github.com/cellwatch/cellwatch/pkg/types"
)

// Query selects events from the buffer. Zero values disable each filter.
type Query struct {
	// Type restricts results to a single event type.
	Type types.EventType

	// Limit caps the number of results.
	Limit int

	// Since excludes events at or before the given instant.
	Since time.Time
}

// Buffer is an append log bounded at max entries. When the bound is
// exceeded the oldest entries are trimmed, never by priority or type.
type Buffer struct {
	mu      sync.RWMutex
	max     int
	entries []*types.Event
}

// New creates a buffer holding at most max events.
func New(max int) *Buffer {
	return &Buffer{max: max}
}

// Append records an event, trimming the oldest entries if the bound is now
// exceeded. Trimming happens after insertion, so the newest event is never
// the one evicted.
func (b *Buffer) Append(e *types.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries = append(b.entries, e)
	if excess := len(b.entries) - b.max; excess > 0 {
		b.entries = append(b.entries[:0:0], b.entries[excess:]...)
	}
}

// Events returns matching events most-recent-first.
func (b *Buffer) Events(q Query) []*types.Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]*types.Event, 0, len(b.entries))
	for i := len(b.entries) - 1; i >= 0; i-- {
		e := b.entries[i]
		if q.Type != "" && e.Type != q.Type {
			continue
		}
		if !q.Since.IsZero() && !e.Timestamp.After(q.Since) {
			continue
		}
		out = append(out, e)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out
}

// All returns every entry in chronological order.
func (b *Buffer) All() []*types.Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]*types.Event, len(b.entries))
	copy(out, b.entries)
	return out
}

// Len returns the number of entries held.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

// Oldest returns the oldest entry still held.
func (b *Buffer) Oldest() (*types.Event, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.entries) == 0 {
		return nil, false
	}
	return b.entries[0], true
}

// CountByType returns entry counts per event type.
func (b *Buffer) CountByType() map[types.EventType]int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	counts := make(map[types.EventType]int)
	for _, e := range b.entries {
		counts[e.Type]++
	}
	return counts
}

// CountSince returns the number of entries newer than t.
func (b *Buffer) CountSince(t time.Time) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n := 0
	for i := len(b.entries) - 1; i >= 0; i-- {
		if !b.entries[i].Timestamp.After(t) {
			break
		}
		n++
	}
	return n
}

// Clear drops every entry.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = nil
}
