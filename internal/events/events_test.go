package events

import (
	"testing"
	"time"
)

func TestEmitValidatesName(t *testing.T) {
	if _, err := Emit("info", "made.up.event", "", nil); err == nil {
		t.Errorf("expected unknown event name to be rejected")
	}
	if _, err := Emit("info", "run.started", "", map[string]any{"run_id": "r1"}); err != nil {
		t.Errorf("expected registered event to be accepted: %v", err)
	}
}

func TestSubscribeUnsubscribe(t *testing.T) {
	initial := SubscriberCount()

	sub1 := Subscribe()
	if SubscriberCount() != initial+1 {
		t.Errorf("expected %d subscribers after first subscribe, got %d", initial+1, SubscriberCount())
	}

	sub2 := Subscribe()
	if SubscriberCount() != initial+2 {
		t.Errorf("expected %d subscribers after second subscribe, got %d", initial+2, SubscriberCount())
	}

	Unsubscribe(sub1)
	Unsubscribe(sub2)
	if SubscriberCount() != initial {
		t.Errorf("expected %d subscribers after all unsubscribed, got %d", initial, SubscriberCount())
	}

	// Double unsubscribe must not panic on a closed channel.
	Unsubscribe(sub1)
}

func TestBroadcastToSubscribers(t *testing.T) {
	sub := Subscribe()
	defer Unsubscribe(sub)

	Emit("info", "node.entered", "", map[string]any{"node_id": "intro"})

	select {
	case e := <-sub:
		if e.Name != "node.entered" {
			t.Errorf("expected 'node.entered', got %q", e.Name)
		}
		if e.Fields["node_id"] != "intro" {
			t.Errorf("expected node_id 'intro', got %v", e.Fields["node_id"])
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("timeout waiting for broadcast event")
	}
}

func TestRecentEvents(t *testing.T) {
	Clear()

	for i := 0; i < 10; i++ {
		Emit("info", "node.entered", "", map[string]any{"i": i})
	}

	recent := RecentEvents(5)
	if len(recent) != 5 {
		t.Errorf("expected 5 recent events, got %d", len(recent))
	}
	if recent[0].Fields["i"] != 5 {
		t.Errorf("expected first recent event i=5, got %v", recent[0].Fields["i"])
	}

	all := RecentEvents(100)
	if len(all) != 10 {
		t.Errorf("expected 10 events when requesting 100, got %d", len(all))
	}
}

func TestRingBufferWrapsAndCounts(t *testing.T) {
	rb := NewRingBuffer(4)
	for i := 0; i < 6; i++ {
		rb.Add(Event{Name: "node.entered", Fields: map[string]any{"i": i}})
	}

	snap := rb.Snapshot()
	if len(snap) != 4 {
		t.Fatalf("expected 4 buffered events, got %d", len(snap))
	}
	// Oldest surviving event is i=2, newest is i=5.
	if snap[0].Fields["i"] != 2 || snap[3].Fields["i"] != 5 {
		t.Errorf("unexpected window: first=%v last=%v", snap[0].Fields["i"], snap[3].Fields["i"])
	}
	if rb.Total() != 6 {
		t.Errorf("expected total 6, got %d", rb.Total())
	}

	rb.Clear()
	if len(rb.Snapshot()) != 0 || rb.Total() != 0 {
		t.Errorf("expected empty buffer after clear")
	}
}
