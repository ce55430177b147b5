package container

import (
	"context"
	"testing"

	"github.com/gc-audio/routingctl/gctypes"
	"github.com/gc-audio/routingctl/registry"
)

func setupMainConnection(t *testing.T) (*registry.Registry, *registry.MainConnection) {
	t.Helper()
	reg := registry.New()
	reg.RegisterDomain("DomainA")
	if _, err := reg.RegisterSource("PhoneSource", "DomainA"); err != nil {
		t.Fatalf("RegisterSource: %v", err)
	}
	if _, err := reg.RegisterSink("AmpSink", "DomainA"); err != nil {
		t.Fatalf("RegisterSink: %v", err)
	}
	mc := reg.NewMainConnection("PhoneSource", "AmpSink", "Playback", nil)
	return reg, mc
}

func TestMainConnectionActionConnectResolvesConnectedWhenSourceOn(t *testing.T) {
	reg, mc := setupMainConnection(t)
	src, _ := reg.Source("PhoneSource")
	child := &scriptedAction{name: "child"}
	a := NewMainConnectionActionConnect(mc, reg, gctypes.DirSourceToSink, gctypes.NopLogger{}, child)

	src.State = gctypes.SourceOn

	if err := a.Execute(context.Background()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if mc.State != gctypes.ConnConnected {
		t.Fatalf("state = %v, want Connected", mc.State)
	}
	if mc.HasObservers() {
		t.Fatal("expected the connect observer to be unregistered on completion")
	}
}

func TestMainConnectionActionConnectResolvesSuspendedWhenSourcePaused(t *testing.T) {
	reg, mc := setupMainConnection(t)
	src, _ := reg.Source("PhoneSource")
	src.State = gctypes.SourcePaused
	child := &scriptedAction{name: "child"}
	a := NewMainConnectionActionConnect(mc, reg, gctypes.DirSourceToSink, gctypes.NopLogger{}, child)

	if err := a.Execute(context.Background()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if mc.State != gctypes.ConnSuspended {
		t.Fatalf("state = %v, want Suspended", mc.State)
	}
}

func TestMainConnectionActionConnectRecomputesMainVolume(t *testing.T) {
	reg, mc := setupMainConnection(t)
	src, _ := reg.Source("PhoneSource")
	src.State = gctypes.SourceOn
	sink, _ := reg.Sink("AmpSink")
	sink.Volume = 4200
	child := &scriptedAction{name: "child"}
	a := NewMainConnectionActionConnect(mc, reg, gctypes.DirSourceToSink, gctypes.NopLogger{}, child)

	if err := a.Execute(context.Background()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if mc.MainVolume != 4200 {
		t.Fatalf("MainVolume = %d, want 4200", mc.MainVolume)
	}
}

func TestMainConnectionActionConnectRegistersObserverWhileRunning(t *testing.T) {
	reg, mc := setupMainConnection(t)
	child := &scriptedAction{name: "child", waitOnce: true}
	a := NewMainConnectionActionConnect(mc, reg, gctypes.DirSourceToSink, gctypes.NopLogger{}, child)

	err := a.Execute(context.Background())
	if !gctypes.ErrWaitForChild(err) {
		t.Fatalf("Execute = %v, want WaitForChild", err)
	}
	if !mc.HasObservers() {
		t.Fatal("expected a registered transition observer while the connect is in flight")
	}

	if err := child.Acknowledge(context.Background(), gctypes.Handle{}, nil); err != nil {
		t.Fatalf("child Acknowledge failed: %v", err)
	}
	if err := a.Acknowledge(context.Background(), gctypes.Handle{}, nil); err != nil {
		t.Fatalf("Acknowledge failed: %v", err)
	}
	if mc.HasObservers() {
		t.Fatal("expected the observer to be unregistered once the connect settles")
	}
}

func TestMainConnectionActionDisconnectClearsState(t *testing.T) {
	reg, mc := setupMainConnection(t)
	mc.State = gctypes.ConnConnected
	child := &scriptedAction{name: "child"}
	a := NewMainConnectionActionDisconnect(mc, gctypes.NopLogger{}, child)

	if err := a.Execute(context.Background()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if mc.State != gctypes.ConnDisconnected {
		t.Fatalf("state = %v, want Disconnected", mc.State)
	}
	if mc.HasObservers() {
		t.Fatal("expected the disconnect observer to be unregistered on completion")
	}
}
