package daemon

import (
	"context"
	"errors"
	"testing"

	"github.com/gc-audio/routingctl/gctypes"
)

func TestFakeRecordsCalls(t *testing.T) {
	f := NewFake()
	h := gctypes.NewHandle(gctypes.HandleConnect)
	if err := f.Connect(context.Background(), h, 1, 2); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	last := f.LastCall()
	if last.Primitive != "connect" || last.Handle != h {
		t.Fatalf("unexpected last call: %+v", last)
	}
}

func TestFakeFailNext(t *testing.T) {
	f := NewFake()
	boom := errors.New("boom")
	f.FailNext("disconnect", boom)

	h := gctypes.NewHandle(gctypes.HandleDisconnect)
	if err := f.Disconnect(context.Background(), h, 7); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	// Second call should succeed since FailNext only arms once.
	if err := f.Disconnect(context.Background(), h, 7); err != nil {
		t.Fatalf("expected nil on second call, got %v", err)
	}
}
