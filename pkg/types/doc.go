/*
Package types defines the shared data model of the engine.

# Core Types

Event:
  - ID: unique, time-derived with a random suffix
  - Type: open string tag (range-changed, formula-changed, ...)
  - Timestamp: assigned at ingestion, monotonically non-decreasing
  - Payload: opaque JSON from the document host
  - AffectedRanges, Worksheet, Actor: best-effort location and origin

Subscription:
  - Types: non-empty set of event types, or the wildcard "all"
  - Handler: typed delivery contract; a nil handler is rejected at
    subscribe time, not discovered at dispatch time
  - Filter: optional predicate over the event
  - Priority: high, normal, or low notification tier

# Usage

	sub := &types.Subscription{
		Types:    []types.EventType{types.EventRangeChanged},
		Priority: types.PriorityHigh,
		Handler: types.HandlerFunc(func(e *types.Event) error {
			return process(e)
		}),
	}

Handlers must tolerate being invoked zero or more times: debouncing can
coalesce several matching events into one delivery, and rate limiting can
drop events before they are ever dispatched.
*/
package types
