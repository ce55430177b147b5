package trigger

import (
	"testing"

	"github.com/gc-audio/routingctl/gctypes"
)

func TestFIFOOrderWithinLane(t *testing.T) {
	q := New()
	q.Push(Normal, gctypes.Trigger{Kind: gctypes.TriggerConnect})
	q.Push(Normal, gctypes.Trigger{Kind: gctypes.TriggerDisconnect})

	first, ok := q.Pop()
	if !ok || first.Kind != gctypes.TriggerConnect {
		t.Fatalf("first = %+v, ok=%v", first, ok)
	}
	second, ok := q.Pop()
	if !ok || second.Kind != gctypes.TriggerDisconnect {
		t.Fatalf("second = %+v, ok=%v", second, ok)
	}
	if _, ok := q.Pop(); ok {
		t.Fatal("expected queue empty")
	}
}

func TestPriorityLanePreemptsNormal(t *testing.T) {
	q := New()
	q.Push(Normal, gctypes.Trigger{Kind: gctypes.TriggerConnect})
	q.Push(Priority, gctypes.Trigger{Kind: gctypes.TriggerUserSetMute})

	first, ok := q.Pop()
	if !ok || first.Kind != gctypes.TriggerUserSetMute {
		t.Fatalf("expected priority trigger first, got %+v", first)
	}
}

func TestPushTopJumpsLaneQueue(t *testing.T) {
	q := New()
	q.Push(Normal, gctypes.Trigger{Kind: gctypes.TriggerConnect})
	q.PushTop(Normal, gctypes.Trigger{Kind: gctypes.TriggerConnectionStateChange})

	first, _ := q.Pop()
	if first.Kind != gctypes.TriggerConnectionStateChange {
		t.Fatalf("PushTop did not jump the queue: got %+v", first)
	}
}

func TestLen(t *testing.T) {
	q := New()
	if q.Len() != 0 {
		t.Fatal("expected empty queue length 0")
	}
	q.Push(Normal, gctypes.Trigger{Kind: gctypes.TriggerConnect})
	q.Push(Priority, gctypes.Trigger{Kind: gctypes.TriggerUserSetMute})
	if q.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", q.Len())
	}
}
