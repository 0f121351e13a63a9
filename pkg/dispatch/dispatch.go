package dispatch

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/cellwatch/cellwatch/pkg/debounce"
	"github.com/cellwatch/cellwatch/pkg/log"
	"github.com/cellwatch/cellwatch/pkg/metrics"
	"github.com/cellwatch/cellwatch/pkg/registry"
	"github.com/cellwatch/cellwatch/pkg/types"
)

// Dispatcher connects the registry to the debounce coordinator. Enqueue is
// safe to call from handler callbacks: a re-entrant call while the queue is
// draining only appends, it never starts a second drain.
type Dispatcher struct {
	registry *registry.Registry
	debounce *debounce.Coordinator
	logger   zerolog.Logger

	mu       sync.Mutex
	queue    []*types.Event
	draining bool
}

// New creates a dispatcher over the given registry and coordinator.
func New(reg *registry.Registry, deb *debounce.Coordinator) *Dispatcher {
	return &Dispatcher{
		registry: reg,
		debounce: deb,
		logger:   log.WithComponent("dispatcher"),
	}
}

// Enqueue appends an event and drains the queue unless another drain is
// already in progress. Events are processed strictly FIFO; each event's
// matching subscriptions are scheduled in priority order before the next
// event is taken.
func (d *Dispatcher) Enqueue(e *types.Event) {
	d.mu.Lock()
	d.queue = append(d.queue, e)
	metrics.DispatchQueueDepth.Set(float64(len(d.queue)))
	if d.draining {
		d.mu.Unlock()
		return
	}
	d.draining = true
	d.mu.Unlock()

	d.drain()
}

// drain pops events until the queue is empty, then releases the draining
// flag under the same lock acquisition that observed the empty queue.
func (d *Dispatcher) drain() {
	for {
		d.mu.Lock()
		if len(d.queue) == 0 {
			d.draining = false
			d.mu.Unlock()
			return
		}
		e := d.queue[0]
		d.queue = d.queue[1:]
		metrics.DispatchQueueDepth.Set(float64(len(d.queue)))
		d.mu.Unlock()

		d.dispatch(e)
	}
}

// dispatch schedules a debounced delivery for every matching subscription.
func (d *Dispatcher) dispatch(e *types.Event) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.DispatchDuration)

	matches := d.registry.Match(e)
	if len(matches) == 0 {
		d.logger.Debug().
			Str("event_id", e.ID).
			Str("type", string(e.Type)).
			Msg("no matching subscriptions")
		return
	}

	for _, sub := range matches {
		key := debounce.Key{SubscriptionID: sub.ID, EventType: e.Type}
		handler := sub.Handler
		subID := sub.ID
		d.debounce.Schedule(key, e, func(latest *types.Event) {
			d.deliver(subID, handler, latest)
		})
	}
	metrics.DebouncePending.Set(float64(d.debounce.PendingCount()))
}

// deliver invokes one handler with failure isolation: an error or panic is
// logged and counted, and never affects other subscriptions or queued
// events.
func (d *Dispatcher) deliver(subscriptionID string, h types.Handler, e *types.Event) {
	defer metrics.DebouncePending.Set(float64(d.debounce.PendingCount()))

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("handler panic: %v", r)
			}
		}()
		return h.Handle(e)
	}()

	if err != nil {
		metrics.DeliveryFailuresTotal.Inc()
		d.logger.Error().
			Err(err).
			Str("subscription_id", subscriptionID).
			Str("event_id", e.ID).
			Msg("subscriber callback failed")
		return
	}

	metrics.DeliveriesTotal.Inc()
	d.logger.Debug().
		Str("subscription_id", subscriptionID).
		Str("event_id", e.ID).
		Msg("event delivered")
}

// QueueLen returns the number of events waiting to be drained.
func (d *Dispatcher) QueueLen() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}

// Clear drops all queued events.
func (d *Dispatcher) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.queue = nil
	metrics.DispatchQueueDepth.Set(0)
}
