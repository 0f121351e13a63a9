/*
Package monitor implements the event monitoring and dispatch engine.

The engine observes change notifications from a spreadsheet document host,
filters and rate-limits them, keeps a bounded history, and delivers matching
events to subscribers in priority order with per-subscription debouncing.

# Architecture

	┌───────────────────── EVENT PIPELINE ──────────────────────┐
	│                                                            │
	│  Source Adapter (host callbacks, HTTP, replay)             │
	│       │                                                    │
	│       ▼  Notification                                      │
	│  ┌──────────────────────────────────────────┐              │
	│  │ Ingest                                    │              │
	│  │  - assign ID + monotonic timestamp        │              │
	│  │  - rate limiter: admit or drop            │              │
	│  │  - history buffer append (bounded FIFO)   │              │
	│  │  - archive append (optional, BoltDB)      │              │
	│  └──────────────────┬───────────────────────┘              │
	│                     │ admitted Event                       │
	│  ┌──────────────────▼───────────────────────┐              │
	│  │ Dispatcher                                │              │
	│  │  - FIFO queue, single drain loop          │              │
	│  │  - match subscriptions (type + filter)    │              │
	│  │  - stable priority order                  │              │
	│  └──────────────────┬───────────────────────┘              │
	│                     │ per match                            │
	│  ┌──────────────────▼───────────────────────┐              │
	│  │ Debounce Coordinator                      │              │
	│  │  - one timer per (subscription, type)     │              │
	│  │  - trailing edge, latest event wins       │              │
	│  └──────────────────┬───────────────────────┘              │
	│                     ▼                                      │
	│             Subscriber handlers                            │
	└────────────────────────────────────────────────────────────┘

# Ordering Guarantees

Events are admitted and appended to history in ingestion order. The
dispatcher schedules all matching subscriptions for one event, in priority
order, before taking the next queued event. Debounced deliveries are not
ordered relative to each other: each timer fires independently, so
cross-subscriber delivery order is unspecified once coalescing applies.

# Failure Model

  - Adapter unavailable at Initialize: warning, engine serves queries.
  - Rate-limit drop: warning, event discarded before history and dispatch.
  - Handler error or panic: logged, counted, other subscribers unaffected.

# Usage

	cfg := config.Default()
	engine := monitor.New(cfg)
	if err := engine.Initialize(); err != nil {
		return err
	}
	defer engine.Cleanup()

	id, err := engine.Subscribe(
		[]types.EventType{types.EventRangeChanged},
		types.HandlerFunc(func(e *types.Event) error {
			fmt.Printf("changed: %v\n", e.AffectedRanges)
			return nil
		}),
		monitor.WithPriority(types.PriorityHigh),
	)
	if err != nil {
		return err
	}
	defer engine.Unsubscribe(id)

Watching a specific range:

	engine.MonitorRange("B2:D10", "Sheet1", types.HandlerFunc(func(e *types.Event) error {
		recalcDashboard()
		return nil
	}))

# Integration Points

This package integrates with:

  - pkg/source: adapters feeding notifications into Ingest
  - pkg/api: HTTP surface over the engine
  - pkg/storage: optional durable event archive
  - pkg/metrics: pipeline instrumentation
*/
package monitor
