package dispatch

import (
	"errors"
	"testing"
	"time"

	"github.com/cellwatch/cellwatch/pkg/clock"
	"github.com/cellwatch/cellwatch/pkg/debounce"
	"github.com/cellwatch/cellwatch/pkg/registry"
	"github.com/cellwatch/cellwatch/pkg/types"
)

const delay = 100 * time.Millisecond

func setup() (*Dispatcher, *registry.Registry, *debounce.Coordinator, *clock.Fake) {
	fake := clock.NewFake(time.Unix(1700000000, 0))
	reg := registry.New()
	deb := debounce.New(delay, fake)
	return New(reg, deb), reg, deb, fake
}

func makeEvent(id string, typ types.EventType) *types.Event {
	return &types.Event{ID: id, Type: typ}
}

func TestEnqueue_DeliversToMatch(t *testing.T) {
	d, reg, _, fake := setup()

	var got []*types.Event
	reg.Add(&types.Subscription{
		Types: []types.EventType{types.EventRangeChanged},
		Handler: types.HandlerFunc(func(e *types.Event) error {
			got = append(got, e)
			return nil
		}),
	})

	d.Enqueue(makeEvent("evt-1", types.EventRangeChanged))
	if len(got) != 0 {
		t.Fatal("delivery should be deferred by the debounce window")
	}

	fake.Advance(delay)
	if len(got) != 1 || got[0].ID != "evt-1" {
		t.Fatalf("expected evt-1 delivered, got %v", got)
	}
}

func TestEnqueue_PriorityOrder(t *testing.T) {
	d, reg, _, fake := setup()

	var order []string
	handler := func(name string) types.Handler {
		return types.HandlerFunc(func(*types.Event) error {
			order = append(order, name)
			return nil
		})
	}

	// Registered low, high, normal; delivery must be high, normal, low.
	reg.Add(&types.Subscription{
		Types:    []types.EventType{types.EventRangeChanged},
		Handler:  handler("low"),
		Priority: types.PriorityLow,
	})
	reg.Add(&types.Subscription{
		Types:    []types.EventType{types.EventRangeChanged},
		Handler:  handler("high"),
		Priority: types.PriorityHigh,
	})
	reg.Add(&types.Subscription{
		Types:    []types.EventType{types.EventRangeChanged},
		Handler:  handler("normal"),
		Priority: types.PriorityNormal,
	})

	d.Enqueue(makeEvent("evt-1", types.EventRangeChanged))
	fake.Advance(delay)

	if len(order) != 3 {
		t.Fatalf("expected 3 deliveries, got %d", len(order))
	}
	want := []string{"high", "normal", "low"}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], order[i])
		}
	}
}

func TestEnqueue_FailureIsolation(t *testing.T) {
	d, reg, _, fake := setup()

	delivered := 0
	reg.Add(&types.Subscription{
		Types:    []types.EventType{types.EventRangeChanged},
		Priority: types.PriorityHigh,
		Handler: types.HandlerFunc(func(*types.Event) error {
			return errors.New("subscriber broke")
		}),
	})
	reg.Add(&types.Subscription{
		Types:    []types.EventType{types.EventRangeChanged},
		Priority: types.PriorityHigh,
		Handler: types.HandlerFunc(func(*types.Event) error {
			panic("subscriber panicked")
		}),
	})
	reg.Add(&types.Subscription{
		Types: []types.EventType{types.EventRangeChanged},
		Handler: types.HandlerFunc(func(*types.Event) error {
			delivered++
			return nil
		}),
	})

	d.Enqueue(makeEvent("evt-1", types.EventRangeChanged))
	fake.Advance(delay)

	if delivered != 1 {
		t.Errorf("failing subscribers must not block the healthy one, delivered=%d", delivered)
	}
}

func TestEnqueue_FIFO(t *testing.T) {
	d, reg, _, fake := setup()

	var got []string
	reg.Add(&types.Subscription{
		Types: []types.EventType{types.EventTypeAll},
		Handler: types.HandlerFunc(func(e *types.Event) error {
			got = append(got, e.ID)
			return nil
		}),
	})

	// Distinct types so debouncing does not coalesce them.
	d.Enqueue(makeEvent("evt-1", types.EventRangeChanged))
	d.Enqueue(makeEvent("evt-2", types.EventFormulaChanged))
	d.Enqueue(makeEvent("evt-3", types.EventSelectionChanged))

	if d.QueueLen() != 0 {
		t.Errorf("queue should be drained, %d events left", d.QueueLen())
	}

	fake.Advance(delay)
	if len(got) != 3 {
		t.Fatalf("expected 3 deliveries, got %d", len(got))
	}
}

func TestEnqueue_ReentrantFromFilter(t *testing.T) {
	d, reg, _, fake := setup()

	// A filter that feeds a follow-up event back into the dispatcher while
	// the drain loop is running must only append, not start a second drain.
	injected := false
	reg.Add(&types.Subscription{
		Types:   []types.EventType{types.EventRangeChanged},
		Handler: types.HandlerFunc(func(*types.Event) error { return nil }),
		Filter: func(e *types.Event) bool {
			if !injected {
				injected = true
				d.Enqueue(makeEvent("evt-injected", types.EventFormulaChanged))
			}
			return true
		},
	})

	var got []string
	reg.Add(&types.Subscription{
		Types: []types.EventType{types.EventFormulaChanged},
		Handler: types.HandlerFunc(func(e *types.Event) error {
			got = append(got, e.ID)
			return nil
		}),
	})

	d.Enqueue(makeEvent("evt-1", types.EventRangeChanged))

	if d.QueueLen() != 0 {
		t.Errorf("re-entrant enqueue left %d events queued", d.QueueLen())
	}

	fake.Advance(delay)
	if len(got) != 1 || got[0] != "evt-injected" {
		t.Errorf("injected event should have been dispatched, got %v", got)
	}
}

func TestClear(t *testing.T) {
	d, _, _, _ := setup()

	d.Clear()
	if d.QueueLen() != 0 {
		t.Errorf("expected empty queue, got %d", d.QueueLen())
	}
}
