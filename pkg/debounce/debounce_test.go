package debounce

import (
	"testing"
	"time"

	"github.com/cellwatch/cellwatch/pkg/clock"
	"github.com/cellwatch/cellwatch/pkg/types"
)

func makeEvent(id string, typ types.EventType) *types.Event {
	return &types.Event{ID: id, Type: typ}
}

func TestSchedule_FiresAfterDelay(t *testing.T) {
	fake := clock.NewFake(time.Unix(1700000000, 0))
	c := New(100*time.Millisecond, fake)

	var fired []*types.Event
	key := Key{SubscriptionID: "sub-1", EventType: types.EventRangeChanged}
	c.Schedule(key, makeEvent("evt-1", types.EventRangeChanged), func(e *types.Event) {
		fired = append(fired, e)
	})

	fake.Advance(99 * time.Millisecond)
	if len(fired) != 0 {
		t.Fatal("timer fired before the delay elapsed")
	}

	fake.Advance(time.Millisecond)
	if len(fired) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(fired))
	}
	if fired[0].ID != "evt-1" {
		t.Errorf("expected evt-1, got %s", fired[0].ID)
	}
	if c.PendingCount() != 0 {
		t.Errorf("expected 0 pending timers after fire, got %d", c.PendingCount())
	}
}

func TestSchedule_CoalescesBurst(t *testing.T) {
	fake := clock.NewFake(time.Unix(1700000000, 0))
	c := New(100*time.Millisecond, fake)

	var fired []*types.Event
	key := Key{SubscriptionID: "sub-1", EventType: types.EventRangeChanged}
	record := func(e *types.Event) { fired = append(fired, e) }

	// Three events within the window, each resetting the timer.
	c.Schedule(key, makeEvent("evt-1", types.EventRangeChanged), record)
	fake.Advance(50 * time.Millisecond)
	c.Schedule(key, makeEvent("evt-2", types.EventRangeChanged), record)
	fake.Advance(50 * time.Millisecond)
	c.Schedule(key, makeEvent("evt-3", types.EventRangeChanged), record)

	if len(fired) != 0 {
		t.Fatal("burst should not have fired yet")
	}
	if c.PendingCount() != 1 {
		t.Fatalf("expected exactly 1 pending timer for the key, got %d", c.PendingCount())
	}

	fake.Advance(100 * time.Millisecond)

	if len(fired) != 1 {
		t.Fatalf("expected exactly 1 delivery for the burst, got %d", len(fired))
	}
	if fired[0].ID != "evt-3" {
		t.Errorf("delivery should carry the last event of the burst, got %s", fired[0].ID)
	}
}

func TestSchedule_IndependentKeysPerType(t *testing.T) {
	fake := clock.NewFake(time.Unix(1700000000, 0))
	c := New(100*time.Millisecond, fake)

	var fired []*types.Event
	record := func(e *types.Event) { fired = append(fired, e) }

	keyA := Key{SubscriptionID: "sub-1", EventType: types.EventRangeChanged}
	keyB := Key{SubscriptionID: "sub-1", EventType: types.EventFormulaChanged}

	c.Schedule(keyB, makeEvent("evt-b", types.EventFormulaChanged), record)
	fake.Advance(60 * time.Millisecond)

	// A burst on key A must not delay the pending key B delivery.
	c.Schedule(keyA, makeEvent("evt-a1", types.EventRangeChanged), record)
	fake.Advance(30 * time.Millisecond)
	c.Schedule(keyA, makeEvent("evt-a2", types.EventRangeChanged), record)

	fake.Advance(10 * time.Millisecond)
	if len(fired) != 1 || fired[0].ID != "evt-b" {
		t.Fatalf("key B should have fired on schedule, fired=%v", ids(fired))
	}

	fake.Advance(100 * time.Millisecond)
	if len(fired) != 2 || fired[1].ID != "evt-a2" {
		t.Fatalf("key A burst should coalesce to evt-a2, fired=%v", ids(fired))
	}
}

func TestCancelSubscription(t *testing.T) {
	fake := clock.NewFake(time.Unix(1700000000, 0))
	c := New(100*time.Millisecond, fake)

	var fired []*types.Event
	record := func(e *types.Event) { fired = append(fired, e) }

	c.Schedule(Key{SubscriptionID: "sub-1", EventType: types.EventRangeChanged}, makeEvent("evt-1", types.EventRangeChanged), record)
	c.Schedule(Key{SubscriptionID: "sub-1", EventType: types.EventFormulaChanged}, makeEvent("evt-2", types.EventFormulaChanged), record)
	c.Schedule(Key{SubscriptionID: "sub-2", EventType: types.EventRangeChanged}, makeEvent("evt-3", types.EventRangeChanged), record)

	if n := c.CancelSubscription("sub-1"); n != 2 {
		t.Errorf("expected 2 cancelled timers, got %d", n)
	}

	fake.Advance(200 * time.Millisecond)

	if len(fired) != 1 || fired[0].ID != "evt-3" {
		t.Errorf("only sub-2's timer should fire, fired=%v", ids(fired))
	}
}

func TestCancelAll(t *testing.T) {
	fake := clock.NewFake(time.Unix(1700000000, 0))
	c := New(100*time.Millisecond, fake)

	fired := 0
	record := func(*types.Event) { fired++ }

	c.Schedule(Key{SubscriptionID: "sub-1", EventType: types.EventRangeChanged}, makeEvent("evt-1", types.EventRangeChanged), record)
	c.Schedule(Key{SubscriptionID: "sub-2", EventType: types.EventRangeChanged}, makeEvent("evt-2", types.EventRangeChanged), record)

	if n := c.CancelAll(); n != 2 {
		t.Errorf("expected 2 cancelled timers, got %d", n)
	}

	fake.Advance(200 * time.Millisecond)
	if fired != 0 {
		t.Errorf("expected no deliveries after CancelAll, got %d", fired)
	}
	if c.PendingCount() != 0 {
		t.Errorf("expected 0 pending timers, got %d", c.PendingCount())
	}
}

func ids(events []*types.Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.ID
	}
	return out
}
