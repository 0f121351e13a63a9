package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EventType identifies the kind of document change an event describes.
// The set is open: producers may introduce new tags beyond the canonical
// constants below.
type EventType string

const (
	EventRangeChanged         EventType = "range-changed"
	EventSelectionChanged     EventType = "selection-changed"
	EventFormulaChanged       EventType = "formula-changed"
	EventWorksheetAdded       EventType = "worksheet-added"
	EventWorksheetDeleted     EventType = "worksheet-deleted"
	EventWorksheetActivated   EventType = "worksheet-activated"
	EventTableChanged         EventType = "table-changed"
	EventCalculationCompleted EventType = "calculation-completed"
)

// EventTypeAll is the wildcard subscription tag that matches every event type.
const EventTypeAll EventType = "all"

// DefaultEnabledEvents returns the canonical event types monitored when no
// explicit allow-list is configured.
func DefaultEnabledEvents() []EventType {
	return []EventType{
		EventRangeChanged,
		EventSelectionChanged,
		EventFormulaChanged,
		EventWorksheetAdded,
		EventWorksheetDeleted,
		EventWorksheetActivated,
		EventTableChanged,
		EventCalculationCompleted,
	}
}

// Event is an immutable record of a single document change, timestamped at
// ingestion by the engine.
type Event struct {
	ID             string          `json:"id"`
	Type           EventType       `json:"type"`
	Timestamp      time.Time       `json:"timestamp"`
	Source         string          `json:"source"`
	Payload        json.RawMessage `json:"payload,omitempty"`
	AffectedRanges []string        `json:"affected_ranges,omitempty"`
	Worksheet      string          `json:"worksheet,omitempty"`
	Actor          string          `json:"actor,omitempty"`
}

// NewEventID returns a unique event identifier. IDs embed the ingestion
// timestamp so they sort chronologically, plus a random suffix for
// uniqueness within a nanosecond.
func NewEventID(ts time.Time) string {
	return fmt.Sprintf("evt-%d-%s", ts.UnixNano(), strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// NewSubscriptionID returns a unique subscription identifier.
func NewSubscriptionID() string {
	return "sub-" + uuid.NewString()
}

// Priority determines the order subscribers are notified for a single event.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
	PriorityLow    Priority = "low"
)

// Rank maps a priority to a sortable rank, lower first. Unknown values rank
// as normal.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityLow:
		return 2
	default:
		return 1
	}
}

// FilterFunc is an optional predicate narrowing which events a subscription
// receives beyond its event-type set.
type FilterFunc func(*Event) bool

// Handler receives events on behalf of a subscriber. A handler must tolerate
// being invoked zero or more times; returning an error marks the delivery
// failed but never affects other subscribers.
type Handler interface {
	Handle(*Event) error
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(*Event) error

// Handle calls f(e).
func (f HandlerFunc) Handle(e *Event) error {
	return f(e)
}

// Subscription is a registry entry binding a handler to a set of event types.
type Subscription struct {
	ID       string
	Types    []EventType
	Handler  Handler
	Filter   FilterFunc
	Priority Priority

	// Seq is the registration sequence number, used to keep notification
	// order stable within a priority tier.
	Seq uint64
}

// Matches reports whether the subscription should be notified for the event:
// type membership (or the wildcard) first, then the optional filter.
func (s *Subscription) Matches(e *Event) bool {
	matched := false
	for _, t := range s.Types {
		if t == EventTypeAll || t == e.Type {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}
	if s.Filter != nil && !s.Filter(e) {
		return false
	}
	return true
}

// Statistics is a point-in-time summary derived from the history buffer and
// the subscription registry.
type Statistics struct {
	TotalEvents            int               `json:"total_events"`
	EventsByType           map[EventType]int `json:"events_by_type"`
	EventsInLastHour       int               `json:"events_in_last_hour"`
	AverageEventsPerMinute float64           `json:"average_events_per_minute"`
	ActiveSubscriptions    int               `json:"active_subscriptions"`
}
