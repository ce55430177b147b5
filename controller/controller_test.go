package controller

import (
	"context"
	"testing"
	"time"

	"github.com/gc-audio/routingctl/daemon"
	"github.com/gc-audio/routingctl/dispatcher"
	"github.com/gc-audio/routingctl/gctypes"
	"github.com/gc-audio/routingctl/policy"
	"github.com/gc-audio/routingctl/policy/mixing"
	"github.com/gc-audio/routingctl/registry"
	"github.com/gc-audio/routingctl/resolver"
	"github.com/gc-audio/routingctl/trigger"
)

func setup(t *testing.T) (*Controller, *dispatcher.Dispatcher, *registry.Registry, *daemon.Fake) {
	t.Helper()
	reg := registry.New()
	reg.RegisterDomain("DomainA")
	if _, err := reg.RegisterSource("PhoneSource", "DomainA"); err != nil {
		t.Fatalf("RegisterSource: %v", err)
	}
	if _, err := reg.RegisterSink("AmpSink", "DomainA"); err != nil {
		t.Fatalf("RegisterSink: %v", err)
	}
	if _, err := reg.RegisterClass(registry.Class{
		Name:    "Playback",
		Type:    gctypes.ClassPlayback,
		Sources: []string{"PhoneSource"},
		Sinks:   []string{"AmpSink"},
	}); err != nil {
		t.Fatalf("RegisterClass: %v", err)
	}

	fakeDaemon := daemon.NewFake()
	cfg, err := gctypes.NewConfig(gctypes.WithLogger(gctypes.NopLogger{}))
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	res := resolver.New(reg, fakeDaemon, cfg.Properties)

	rules := []mixing.Rule{{
		Name:        "connect",
		TriggerKind: gctypes.TriggerClassConnect,
		Descriptors: []policy.ActionDescriptor{{
			Kind: policy.ActionClassConnect,
			Params: gctypes.Params{
				gctypes.ParamSourceName: "PhoneSource",
				gctypes.ParamSinkName:   "AmpSink",
				gctypes.ParamClassName:  "Playback",
			},
		}},
	}}
	eng, err := mixing.New(reg, gctypes.NopLogger{}, rules)
	if err != nil {
		t.Fatalf("mixing.New: %v", err)
	}

	q := trigger.New()
	d := dispatcher.New(q, eng, reg, res, fakeDaemon, cfg)
	ctrl := New(reg, d, cfg)
	return ctrl, d, reg, fakeDaemon
}

// awaitHandle polls fakeDaemon for a freshly issued handle not yet seen,
// the same pattern dispatcher_test.go's awaitCall uses to observe a
// primitive issued asynchronously by the pump goroutine.
func awaitHandle(t *testing.T, fakeDaemon *daemon.Fake, seen gctypes.Handle, timeout time.Duration) (gctypes.Handle, bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if call := fakeDaemon.LastCall(); call.Handle != seen && !call.Handle.IsZero() {
			return call.Handle, true
		}
		time.Sleep(2 * time.Millisecond)
	}
	return gctypes.Handle{}, false
}

// driveToConnected acknowledges every primitive the pump issues, in
// order, until the named main connection reaches Connected or the
// iteration budget runs out.
func driveToConnected(t *testing.T, d *dispatcher.Dispatcher, reg *registry.Registry, fakeDaemon *daemon.Fake, connName string) {
	t.Helper()
	var seen gctypes.Handle
	for i := 0; i < 10; i++ {
		if mc, ok := reg.MainConnection(connName); ok && mc.State == gctypes.ConnConnected {
			return
		}
		handle, ok := awaitHandle(t, fakeDaemon, seen, 500*time.Millisecond)
		if !ok {
			t.Fatalf("no further primitive issued before connection reached Connected")
		}
		seen = handle
		d.Acknowledge(handle, nil)
	}
	t.Fatal("main connection did not reach Connected within iteration budget")
}

func TestUserConnectionRequestQueuesClassConnect(t *testing.T) {
	ctrl, d, reg, fakeDaemon := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()
	defer func() { cancel(); <-done }()

	connName, err := ctrl.UserConnectionRequest("PhoneSource", "AmpSink")
	if err != nil {
		t.Fatalf("UserConnectionRequest: %v", err)
	}
	if connName != "PhoneSource-AmpSink" {
		t.Fatalf("connName = %q, want PhoneSource-AmpSink", connName)
	}

	driveToConnected(t, d, reg, fakeDaemon, connName)
}

func TestUserConnectionRequestIdempotent(t *testing.T) {
	ctrl, _, reg, _ := setup(t)
	reg.NewMainConnection("PhoneSource", "AmpSink", "Playback", nil)

	connName, err := ctrl.UserConnectionRequest("PhoneSource", "AmpSink")
	if err != nil {
		t.Fatalf("UserConnectionRequest: %v", err)
	}
	if connName != "PhoneSource-AmpSink" {
		t.Fatalf("connName = %q, want PhoneSource-AmpSink", connName)
	}
}

func TestUserConnectionRequestUnknownSource(t *testing.T) {
	ctrl, _, _, _ := setup(t)
	if _, err := ctrl.UserConnectionRequest("NoSuchSource", "AmpSink"); err == nil {
		t.Fatal("expected an error for an unregistered source")
	}
}

func TestUserDisconnectionRequestUnknownConnection(t *testing.T) {
	ctrl, _, _, _ := setup(t)
	if err := ctrl.UserDisconnectionRequest("NoSuchConnection"); err == nil {
		t.Fatal("expected an error for an unregistered main connection")
	}
}

func TestSystemRegisterSourceAndDeregister(t *testing.T) {
	ctrl, _, reg, _ := setup(t)
	id, err := ctrl.SystemRegisterSource("Navi", "DomainA")
	if err != nil {
		t.Fatalf("SystemRegisterSource: %v", err)
	}
	if id == 0 {
		t.Fatal("expected a non-zero element id")
	}
	if err := ctrl.SystemDeregisterSource("Navi"); err != nil {
		t.Fatalf("SystemDeregisterSource: %v", err)
	}
	if !reg.IsZombie(gctypes.KindSource, id) {
		t.Fatal("expected source to be marked zombie after deregister")
	}
}

func TestSystemSourceAvailabilityStateChangeUpdatesRegistry(t *testing.T) {
	ctrl, _, reg, _ := setup(t)
	avail := gctypes.Availability{State: gctypes.Unavailable, Reason: "muted by domain"}
	if err := ctrl.SystemSourceAvailabilityStateChange("PhoneSource", avail); err != nil {
		t.Fatalf("SystemSourceAvailabilityStateChange: %v", err)
	}
	src, _ := reg.Source("PhoneSource")
	if src.Availability != avail {
		t.Fatalf("availability = %+v, want %+v", src.Availability, avail)
	}
}

func TestUserVolumeChangeRejectsUnknownSink(t *testing.T) {
	ctrl, _, _, _ := setup(t)
	if err := ctrl.UserVolumeChange("NoSuchSink", -1000); err == nil {
		t.Fatal("expected an error for an unregistered sink")
	}
}

func TestGetConnectionFormatChoicePreservesOrder(t *testing.T) {
	ctrl, _, _, _ := setup(t)
	possible := []int16{3, 1, 2}
	got := ctrl.GetConnectionFormatChoice("PhoneSource", "AmpSink", possible)
	if len(got) != len(possible) {
		t.Fatalf("GetConnectionFormatChoice returned %v, want same length as %v", got, possible)
	}
	for i := range possible {
		if got[i] != possible[i] {
			t.Fatalf("GetConnectionFormatChoice reordered: got %v, want %v", got, possible)
		}
	}
	possible[0] = 99
	if got[0] == 99 {
		t.Fatal("GetConnectionFormatChoice must return a copy, not alias the caller's slice")
	}
}
