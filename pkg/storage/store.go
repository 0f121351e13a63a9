package storage

import (
	"time"

	"github.com/cellwatch/cellwatch/pkg/types"
)

// Query selects events from the archive. Zero values disable each filter.
type Query struct {
	Type  types.EventType
	Limit int
	Since time.Time
}

// Archive is a durable, append-only record of admitted events. It outlives
// the in-memory history buffer and backs export and replay of past runs.
type Archive interface {
	// Append records one admitted event.
	Append(e *types.Event) error

	// List returns matching events most-recent-first.
	List(q Query) ([]*types.Event, error)

	// Count returns the total number of archived events.
	Count() (int, error)

	// Close releases the underlying store.
	Close() error
}
