package debounce

import (
	"sync"
	"time"

	"github.com/cellwatch/cellwatch/pkg/clock"
	"github.com/cellwatch/cellwatch/pkg/types"
)

// Key identifies one debounce timer. Keys combine subscription and event
// type, so one subscriber keeps independent timers per matching type: a
// burst of range-changed events never delays a pending formula-changed
// delivery for the same subscriber.
type Key struct {
	SubscriptionID string
	EventType      types.EventType
}

// FireFunc receives the coalesced event when a timer expires.
type FireFunc func(*types.Event)

type pending struct {
	timer clock.Timer
	event *types.Event
	gen   uint64
}

// Coordinator owns all pending debounce timers. At most one timer exists
// per key: scheduling a key that already has a pending timer cancels it and
// replaces its payload and deadline.
type Coordinator struct {
	mu      sync.Mutex
	clock   clock.Clock
	delay   time.Duration
	pending map[Key]*pending
	gen     uint64
}

// New creates a coordinator firing deliveries delay after the last event
// seen for a key.
func New(delay time.Duration, clk clock.Clock) *Coordinator {
	return &Coordinator{
		clock:   clk,
		delay:   delay,
		pending: make(map[Key]*pending),
	}
}

// Schedule arms (or re-arms) the timer for key with the latest event. When
// the timer fires, fire receives the event most recently scheduled for the
// key and the entry is cleared.
func (c *Coordinator) Schedule(key Key, e *types.Event, fire FireFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if p, ok := c.pending[key]; ok {
		p.timer.Stop()
	}

	c.gen++
	gen := c.gen
	p := &pending{event: e, gen: gen}
	p.timer = c.clock.AfterFunc(c.delay, func() {
		c.fire(key, gen, fire)
	})
	c.pending[key] = p
}

// fire delivers the pending event for key if the firing timer is still the
// live one. A timer that lost the race to a Schedule or cancel is a no-op.
func (c *Coordinator) fire(key Key, gen uint64, fn FireFunc) {
	c.mu.Lock()
	p, ok := c.pending[key]
	if !ok || p.gen != gen {
		c.mu.Unlock()
		return
	}
	delete(c.pending, key)
	e := p.event
	c.mu.Unlock()

	fn(e)
}

// CancelSubscription stops and removes every pending timer owned by the
// subscription, returning how many were cancelled. Called on unsubscribe so
// a detached subscriber is never invoked again.
func (c *Coordinator) CancelSubscription(subscriptionID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for key, p := range c.pending {
		if key.SubscriptionID == subscriptionID {
			p.timer.Stop()
			delete(c.pending, key)
			n++
		}
	}
	return n
}

// CancelAll stops and removes every pending timer.
func (c *Coordinator) CancelAll() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.pending)
	for key, p := range c.pending {
		p.timer.Stop()
		delete(c.pending, key)
	}
	return n
}

// PendingCount returns the number of armed timers.
func (c *Coordinator) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
