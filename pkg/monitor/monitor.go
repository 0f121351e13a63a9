package monitor

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/cellwatch/cellwatch/pkg/clock"
	"github.com/cellwatch/cellwatch/pkg/config"
	"github.com/cellwatch/cellwatch/pkg/debounce"
	"github.com/cellwatch/cellwatch/pkg/dispatch"
	"github.com/cellwatch/cellwatch/pkg/history"
	"github.com/cellwatch/cellwatch/pkg/log"
	"github.com/cellwatch/cellwatch/pkg/metrics"
	"github.com/cellwatch/cellwatch/pkg/ratelimit"
	"github.com/cellwatch/cellwatch/pkg/registry"
	"github.com/cellwatch/cellwatch/pkg/source"
	"github.com/cellwatch/cellwatch/pkg/storage"
	"github.com/cellwatch/cellwatch/pkg/types"
)

// Engine is the event monitoring and dispatch engine. It exclusively owns
// the subscription registry, history buffer, rate counter, and all debounce
// timers.
type Engine struct {
	cfg    config.Config
	clock  clock.Clock
	logger zerolog.Logger

	registry   *registry.Registry
	limiter    *ratelimit.Limiter
	history    *history.Buffer
	debounce   *debounce.Coordinator
	dispatcher *dispatch.Dispatcher
	archive    storage.Archive
	adapter    source.Adapter

	mu          sync.Mutex
	initialized bool

	// lastStamp enforces monotonically non-decreasing ingestion timestamps.
	lastStamp time.Time
}

// Option configures the engine at construction time.
type Option func(*Engine)

// WithClock injects a time source, used by tests for deterministic burst
// and window behavior.
func WithClock(clk clock.Clock) Option {
	return func(e *Engine) { e.clock = clk }
}

// WithAdapter wires a source adapter. Without one the engine still serves
// history and statistics queries.
func WithAdapter(a source.Adapter) Option {
	return func(e *Engine) { e.adapter = a }
}

// WithArchive attaches a durable event archive. Admitted events are
// appended to it whenever persistence is enabled.
func WithArchive(a storage.Archive) Option {
	return func(e *Engine) { e.archive = a }
}

// New creates an engine from the given configuration. The engine accepts
// subscriptions and queries immediately; Initialize wires the source
// adapter.
func New(cfg config.Config, opts ...Option) *Engine {
	e := &Engine{
		cfg:    cfg,
		clock:  clock.Real(),
		logger: log.WithComponent("monitor"),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.registry = registry.New()
	e.limiter = ratelimit.New(cfg.MaxEventsPerSecond, cfg.RateWindow(), e.clock)
	e.history = history.New(cfg.MaxHistorySize)
	e.debounce = debounce.New(cfg.Debounce(), e.clock)
	e.dispatcher = dispatch.New(e.registry, e.debounce)
	return e
}

// Initialize wires the source adapter for the configured event types.
// Calling it again while already initialized is a no-op. An unavailable
// adapter is fail-soft: the engine logs a warning and remains usable for
// subscriptions, history, and statistics.
func (e *Engine) Initialize() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.initialized {
		e.logger.Debug().Msg("already initialized")
		return nil
	}

	if e.adapter == nil {
		e.logger.Warn().Msg("no source adapter configured, running in query-only mode")
	} else if err := e.adapter.Start(e.cfg.EnabledEvents, func(n source.Notification) {
		e.Ingest(n)
	}); err != nil {
		e.logger.Warn().Err(err).Msg("source adapter unavailable, running in query-only mode")
	} else {
		e.logger.Info().
			Int("enabled_events", len(e.cfg.EnabledEvents)).
			Msg("source adapter wired")
	}

	e.initialized = true
	return nil
}

// Initialized reports whether Initialize has completed.
func (e *Engine) Initialized() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initialized
}

// Ingest is the pipeline entrypoint: it stamps the notification into a
// canonical event, applies admission control, records it, and queues it for
// dispatch. It returns the event and whether it was admitted.
func (e *Engine) Ingest(n source.Notification) (*types.Event, bool) {
	e.mu.Lock()
	now := e.clock.Now()
	if now.Before(e.lastStamp) {
		now = e.lastStamp
	}
	e.lastStamp = now
	e.mu.Unlock()

	evt := &types.Event{
		ID:             types.NewEventID(now),
		Type:           n.Type,
		Timestamp:      now,
		Source:         n.Source,
		Payload:        n.Payload,
		AffectedRanges: n.AffectedRanges,
		Worksheet:      n.Worksheet,
		Actor:          n.Actor,
	}

	if !e.limiter.Admit() {
		metrics.EventsDroppedTotal.WithLabelValues("rate_limit").Inc()
		e.logger.Warn().
			Str("event_id", evt.ID).
			Str("type", string(evt.Type)).
			Msg("event dropped by rate limit")
		return evt, false
	}

	metrics.EventsIngestedTotal.WithLabelValues(string(evt.Type)).Inc()

	if e.cfg.PersistEvents {
		e.history.Append(evt)
		metrics.HistorySize.Set(float64(e.history.Len()))

		if e.archive != nil {
			if err := e.archive.Append(evt); err != nil {
				metrics.ArchiveErrorsTotal.Inc()
				e.logger.Error().Err(err).Str("event_id", evt.ID).Msg("archive append failed")
			} else {
				metrics.ArchiveWritesTotal.Inc()
			}
		}
	}

	e.dispatcher.Enqueue(evt)
	return evt, true
}

// SubscribeOption configures a subscription.
type SubscribeOption func(*types.Subscription)

// WithFilter adds a predicate narrowing which events the subscription
// receives.
func WithFilter(f types.FilterFunc) SubscribeOption {
	return func(s *types.Subscription) { s.Filter = f }
}

// WithPriority sets the notification priority tier.
func WithPriority(p types.Priority) SubscribeOption {
	return func(s *types.Subscription) { s.Priority = p }
}

// Subscribe registers a handler for the given event types (or the wildcard
// types.EventTypeAll) and returns the subscription ID. A nil handler or
// empty type set is rejected here rather than surfacing at dispatch time.
func (e *Engine) Subscribe(eventTypes []types.EventType, h types.Handler, opts ...SubscribeOption) (string, error) {
	sub := &types.Subscription{
		Types:   eventTypes,
		Handler: h,
	}
	for _, opt := range opts {
		opt(sub)
	}

	id, err := e.registry.Add(sub)
	if err != nil {
		return "", fmt.Errorf("failed to subscribe: %w", err)
	}

	metrics.SubscriptionsActive.Set(float64(e.registry.Len()))
	e.logger.Debug().
		Str("subscription_id", id).
		Str("priority", string(sub.Priority)).
		Msg("subscription added")
	return id, nil
}

// Unsubscribe removes a subscription and cancels its pending debounce
// timers, so a detached subscriber is never invoked again. It reports
// whether an entry was removed.
func (e *Engine) Unsubscribe(id string) bool {
	if !e.registry.Remove(id) {
		return false
	}

	cancelled := e.debounce.CancelSubscription(id)
	metrics.SubscriptionsActive.Set(float64(e.registry.Len()))
	metrics.DebouncePending.Set(float64(e.debounce.PendingCount()))
	e.logger.Debug().
		Str("subscription_id", id).
		Int("cancelled_timers", cancelled).
		Msg("subscription removed")
	return true
}

// MonitorRange is sugar over Subscribe: it watches range and formula
// changes whose affected ranges overlap the given range (substring
// containment in either direction) on the given worksheet.
func (e *Engine) MonitorRange(rng, worksheet string, h types.Handler) (string, error) {
	return e.Subscribe(
		[]types.EventType{types.EventRangeChanged, types.EventFormulaChanged},
		h,
		WithFilter(RangeOverlapFilter(rng, worksheet)),
	)
}

// History returns admitted events most-recent-first, optionally filtered by
// type, count, and timestamp lower bound.
func (e *Engine) History(q history.Query) []*types.Event {
	return e.history.Events(q)
}

// Archive returns the durable archive, or nil when none is configured.
func (e *Engine) Archive() storage.Archive {
	return e.archive
}

// Export returns a JSON snapshot of the configuration, full history, and
// current statistics.
func (e *Engine) Export() (string, error) {
	snapshot := struct {
		ExportedAt time.Time        `json:"exported_at"`
		Config     config.Config    `json:"config"`
		Statistics types.Statistics `json:"statistics"`
		History    []*types.Event   `json:"history"`
	}{
		ExportedAt: e.clock.Now(),
		Config:     e.cfg,
		Statistics: e.Statistics(),
		History:    e.history.All(),
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to export snapshot: %w", err)
	}
	return string(data), nil
}

// Cleanup cancels every pending debounce timer, clears the registry and the
// ingestion queue, stops the adapter, and marks the engine uninitialized.
// History is kept so past events stay queryable.
func (e *Engine) Cleanup() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	cancelled := e.debounce.CancelAll()
	e.dispatcher.Clear()
	e.registry.Clear()

	if e.adapter != nil {
		if err := e.adapter.Stop(); err != nil {
			e.logger.Error().Err(err).Msg("source adapter stop failed")
		}
	}

	metrics.SubscriptionsActive.Set(0)
	metrics.DebouncePending.Set(0)
	e.initialized = false
	e.logger.Info().Int("cancelled_timers", cancelled).Msg("engine cleaned up")
	return nil
}
