package leaf

import (
	"context"
	"testing"

	"github.com/gc-audio/routingctl/daemon"
	"github.com/gc-audio/routingctl/gctypes"
	"github.com/gc-audio/routingctl/handlestore"
	"github.com/gc-audio/routingctl/registry"
)

func testConfig(t *testing.T) gctypes.Config {
	t.Helper()
	cfg, err := gctypes.NewConfig(gctypes.WithLogger(gctypes.NopLogger{}))
	if err != nil {
		t.Fatalf("NewConfig failed: %v", err)
	}
	return cfg
}

func TestRouteActionConnectLifecycle(t *testing.T) {
	reg := registry.New()
	reg.RegisterDomain("Domain1")
	src, _ := reg.RegisterSource("PhoneSource", "Domain1")
	sink, _ := reg.RegisterSink("AmpSink", "Domain1")
	re := reg.NewRouteElement(src.ID, sink.ID, 1, 0)

	fake := daemon.NewFake()
	store := handlestore.New(nil, nil)
	cfg := testConfig(t)

	a := NewRouteActionConnect(fake, store, reg, re, cfg)
	err := a.Execute(context.Background())
	if !gctypes.ErrWaitForChild(err) {
		t.Fatalf("Execute = %v, want WaitForChild", err)
	}
	if re.State != gctypes.ConnConnecting {
		t.Fatalf("state = %v, want Connecting", re.State)
	}

	call := fake.LastCall()
	if err := a.Acknowledge(context.Background(), call.Handle, nil); err != nil {
		t.Fatalf("Acknowledge failed: %v", err)
	}
	if re.State != gctypes.ConnConnected {
		t.Fatalf("state after ack = %v, want Connected", re.State)
	}
	if a.Status() != gctypes.ActionFinished {
		t.Fatalf("status = %v, want Finished", a.Status())
	}
}

func TestRouteActionConnectAlreadyConnected(t *testing.T) {
	reg := registry.New()
	reg.RegisterDomain("Domain1")
	src, _ := reg.RegisterSource("PhoneSource", "Domain1")
	sink, _ := reg.RegisterSink("AmpSink", "Domain1")
	re := reg.NewRouteElement(src.ID, sink.ID, 1, 0)
	re.State = gctypes.ConnConnected

	fake := daemon.NewFake()
	store := handlestore.New(nil, nil)
	a := NewRouteActionConnect(fake, store, reg, re, testConfig(t))

	if err := a.Execute(context.Background()); err != nil {
		t.Fatalf("Execute should no-op, got %v", err)
	}
	if len(fake.Calls) != 0 {
		t.Fatalf("expected no daemon calls, got %d", len(fake.Calls))
	}
}

func TestSourceActionSetStateNoopWhenUnchanged(t *testing.T) {
	reg := registry.New()
	reg.RegisterDomain("Domain1")
	src, _ := reg.RegisterSource("PhoneSource", "Domain1")
	src.State = gctypes.SourceOn

	fake := daemon.NewFake()
	store := handlestore.New(nil, nil)
	a := NewSourceActionSetState(fake, store, src, gctypes.SourceOn, testConfig(t))

	if err := a.Execute(context.Background()); err != nil {
		t.Fatalf("Execute should no-op, got %v", err)
	}
	if len(fake.Calls) != 0 {
		t.Fatal("expected no daemon calls for unchanged state")
	}
}

func TestSourceActionSetStateUndoRestoresOldState(t *testing.T) {
	reg := registry.New()
	reg.RegisterDomain("Domain1")
	src, _ := reg.RegisterSource("PhoneSource", "Domain1")
	src.State = gctypes.SourceOff

	fake := daemon.NewFake()
	store := handlestore.New(nil, nil)
	a := NewSourceActionSetState(fake, store, src, gctypes.SourceOn, testConfig(t))

	err := a.Execute(context.Background())
	if !gctypes.ErrWaitForChild(err) {
		t.Fatalf("Execute = %v, want WaitForChild", err)
	}
	call := fake.LastCall()
	if err := a.Acknowledge(context.Background(), call.Handle, nil); err != nil {
		t.Fatalf("Acknowledge failed: %v", err)
	}
	if src.State != gctypes.SourceOn {
		t.Fatalf("state = %v, want On", src.State)
	}

	err = a.Undo(context.Background())
	if !gctypes.ErrWaitForChild(err) {
		t.Fatalf("Undo = %v, want WaitForChild", err)
	}
	call = fake.LastCall()
	if call.Args["state"] != gctypes.SourceOff {
		t.Fatalf("Undo issued state %v, want Off", call.Args["state"])
	}
}

func TestSinkVolumeClampsAndCurves(t *testing.T) {
	reg := registry.New()
	reg.RegisterDomain("Domain1")
	sink, _ := reg.RegisterSink("AmpSink", "Domain1")
	sink.Volume = -1000 // away from the clamped target, so a primitive is issued

	fake := daemon.NewFake()
	store := handlestore.New(nil, nil)
	cfg := testConfig(t)

	params := gctypes.Params{
		gctypes.ParamVolume: int16(100), // above VolumeMax, should clamp to 0
	}
	a, err := NewSinkVolume(fake, store, sink, params, cfg)
	if err != nil {
		t.Fatalf("NewSinkVolume failed: %v", err)
	}
	execErr := a.Execute(context.Background())
	if !gctypes.ErrWaitForChild(execErr) {
		t.Fatalf("Execute = %v, want WaitForChild", execErr)
	}
	if a.target != cfg.Properties.VolumeMax {
		t.Fatalf("target = %d, want clamped to %d", a.target, cfg.Properties.VolumeMax)
	}
}

func TestSinkVolumeCurveScript(t *testing.T) {
	reg := registry.New()
	reg.RegisterDomain("Domain1")
	sink, _ := reg.RegisterSink("AmpSink", "Domain1")

	fake := daemon.NewFake()
	store := handlestore.New(nil, nil)
	cfg := testConfig(t)

	params := gctypes.Params{
		gctypes.ParamVolume: int16(-1000),
		"curve":             "v / 2",
	}
	a, err := NewSinkVolume(fake, store, sink, params, cfg)
	if err != nil {
		t.Fatalf("NewSinkVolume failed: %v", err)
	}
	if err := a.Execute(context.Background()); !gctypes.ErrWaitForChild(err) {
		t.Fatalf("Execute = %v, want WaitForChild", err)
	}
	if a.target != -500 {
		t.Fatalf("target = %d, want -500 from curve script", a.target)
	}
}

func TestMuteSynchronousNoHandle(t *testing.T) {
	reg := registry.New()
	reg.RegisterDomain("Domain1")
	sink, _ := reg.RegisterSink("AmpSink", "Domain1")

	fake := daemon.NewFake()
	store := handlestore.New(nil, nil)
	a, err := NewMute(fake, store, sink, gctypes.Params{gctypes.ParamMuteState: gctypes.Muted}, testConfig(t))
	if err != nil {
		t.Fatalf("NewMute failed: %v", err)
	}
	if err := a.Execute(context.Background()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if sink.Mute != gctypes.Muted {
		t.Fatalf("sink.Mute = %v, want Muted", sink.Mute)
	}
	if err := a.Undo(context.Background()); err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	if sink.Mute != gctypes.Unmuted {
		t.Fatalf("sink.Mute after undo = %v, want Unmuted", sink.Mute)
	}
}
