// Package registry stores active subscriptions and resolves which ones match
// an event, in priority order.
package registry

import (
	"errors"
	"sort"
	"sync"

	"github.com/cellwatch/cellwatch/pkg/types"
)

var (
	// ErrNilHandler is returned when a subscription has no handler.
	ErrNilHandler = errors.New("subscription handler must not be nil")

	// ErrNoEventTypes is returned when a subscription names no event types.
	ErrNoEventTypes = errors.New("subscription must name at least one event type")
)

// Registry is the authoritative store of live subscriptions. All methods are
// safe for concurrent use.
type Registry struct {
	mu   sync.RWMutex
	subs map[string]*types.Subscription
	seq  uint64
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		subs: make(map[string]*types.Subscription),
	}
}

// Add validates and registers a subscription, assigning an ID if the entry
// has none, and returns the subscription ID.
func (r *Registry) Add(sub *types.Subscription) (string, error) {
	if sub.Handler == nil {
		return "", ErrNilHandler
	}
	if len(sub.Types) == 0 {
		return "", ErrNoEventTypes
	}
	if sub.Priority == "" {
		sub.Priority = types.PriorityNormal
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if sub.ID == "" {
		sub.ID = types.NewSubscriptionID()
	}
	sub.Seq = r.seq
	r.seq++
	r.subs[sub.ID] = sub
	return sub.ID, nil
}

// Remove deletes a subscription and reports whether an entry was removed.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.subs[id]; !ok {
		return false
	}
	delete(r.subs, id)
	return true
}

// Get returns the subscription with the given ID.
func (r *Registry) Get(id string) (*types.Subscription, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sub, ok := r.subs[id]
	return sub, ok
}

// Match returns the subscriptions the event should be delivered to, ordered
// by priority (high, normal, low) with registration order breaking ties.
// Matching is a full scan, acceptable at the expected scale of tens of
// subscribers.
func (r *Registry) Match(e *types.Event) []*types.Subscription {
	r.mu.RLock()
	matched := make([]*types.Subscription, 0, len(r.subs))
	for _, sub := range r.subs {
		if sub.Matches(e) {
			matched = append(matched, sub)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		ri, rj := matched[i].Priority.Rank(), matched[j].Priority.Rank()
		if ri != rj {
			return ri < rj
		}
		return matched[i].Seq < matched[j].Seq
	})
	return matched
}

// Len returns the number of live subscriptions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

// Clear removes every subscription.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs = make(map[string]*types.Subscription)
}
