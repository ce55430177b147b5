package resolver

import (
	"context"
	"testing"

	"github.com/gc-audio/routingctl/daemon"
	"github.com/gc-audio/routingctl/gctypes"
	"github.com/gc-audio/routingctl/registry"
)

func setup(t *testing.T) (*registry.Registry, *daemon.Fake) {
	t.Helper()
	r := registry.New()
	r.RegisterDomain("Domain1")
	if _, err := r.RegisterSource("PhoneSource", "Domain1"); err != nil {
		t.Fatal(err)
	}
	if _, err := r.RegisterSink("AmpSink", "Domain1"); err != nil {
		t.Fatal(err)
	}
	return r, daemon.NewFake()
}

func TestResolveDirect(t *testing.T) {
	r, fd := setup(t)
	if _, err := r.RegisterClass(registry.Class{Name: "Base", Type: gctypes.ClassPlayback}); err != nil {
		t.Fatal(err)
	}
	res := New(r, fd, gctypes.DefaultSystemProperties())
	hops, err := res.Resolve(context.Background(), "PhoneSource", "AmpSink", "Base")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	src, _ := r.Source("PhoneSource")
	sink, _ := r.Sink("AmpSink")
	if len(hops) != 1 || hops[0].SourceID != src.ID || hops[0].SinkID != sink.ID {
		t.Fatalf("unexpected hops: %+v", hops)
	}
}

func TestResolveUnknownClass(t *testing.T) {
	r, fd := setup(t)
	res := New(r, fd, gctypes.DefaultSystemProperties())
	if _, err := res.Resolve(context.Background(), "PhoneSource", "AmpSink", "Nope"); err == nil {
		t.Fatal("expected error for unknown class")
	}
}

func TestResolveWithGatewayTopology(t *testing.T) {
	r, fd := setup(t)
	src, _ := r.Source("PhoneSource")
	sink, _ := r.Sink("AmpSink")
	gw, err := r.RegisterGateway("GatewayA", "PhoneSource", "AmpSink")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.RegisterClass(registry.Class{
		Name:       "Routed",
		Type:       gctypes.ClassPlayback,
		Topologies: []string{"SOURCE GATEWAY:GatewayA SINK"},
	}); err != nil {
		t.Fatal(err)
	}
	fd.SetRoutes(src.ID, sink.ID, []daemon.Route{{
		{SourceID: src.ID, SinkID: gw.ID, DomainID: 1, ConnectionFormat: 2},
		{SourceID: gw.ID, SinkID: sink.ID, DomainID: 1, ConnectionFormat: 2},
	}})

	res := New(r, fd, gctypes.DefaultSystemProperties())
	hops, err := res.Resolve(context.Background(), "PhoneSource", "AmpSink", "Routed")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(hops) != 2 {
		t.Fatalf("expected 2 hops through the gateway, got %+v", hops)
	}
	if hops[0].SinkID != gw.ID || hops[1].SourceID != gw.ID {
		t.Fatalf("unexpected hop chain: %+v", hops)
	}
	if hops[0].ConnectionFormat != 2 {
		t.Fatalf("expected adopted connection format 2, got %d", hops[0].ConnectionFormat)
	}
}

func TestResolveAsteriskMatchesClassGateway(t *testing.T) {
	r, fd := setup(t)
	src, _ := r.Source("PhoneSource")
	sink, _ := r.Sink("AmpSink")
	gw, err := r.RegisterGateway("AnyGateway", "PhoneSource", "AmpSink")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.RegisterClass(registry.Class{
		Name:       "Wild",
		Type:       gctypes.ClassPlayback,
		Gateways:   []string{"AnyGateway"},
		Topologies: []string{"SOURCE GATEWAY:* SINK"},
	}); err != nil {
		t.Fatal(err)
	}
	fd.SetRoutes(src.ID, sink.ID, []daemon.Route{{
		{SourceID: src.ID, SinkID: gw.ID, DomainID: 1},
		{SourceID: gw.ID, SinkID: sink.ID, DomainID: 1},
	}})

	res := New(r, fd, gctypes.DefaultSystemProperties())
	hops, err := res.Resolve(context.Background(), "PhoneSource", "AmpSink", "Wild")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(hops) != 2 || hops[0].SinkID != gw.ID {
		t.Fatalf("expected the wildcard to resolve to AnyGateway, got %+v", hops)
	}
}

func TestResolveSkipsBracketedMissingGateway(t *testing.T) {
	r, fd := setup(t)
	src, _ := r.Source("PhoneSource")
	sink, _ := r.Sink("AmpSink")
	if _, err := r.RegisterClass(registry.Class{
		Name:       "Optional",
		Type:       gctypes.ClassPlayback,
		Topologies: []string{"SOURCE [ GATEWAY:Missing ] SINK"},
	}); err != nil {
		t.Fatal(err)
	}
	res := New(r, fd, gctypes.DefaultSystemProperties())
	hops, err := res.Resolve(context.Background(), "PhoneSource", "AmpSink", "Optional")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(hops) != 1 || hops[0].SourceID != src.ID || hops[0].SinkID != sink.ID {
		t.Fatalf("expected a direct hop after skipping the missing-gateway block, got %+v", hops)
	}
}

func TestResolveFallsBackWhenNonTopologyRouteAllowed(t *testing.T) {
	r, fd := setup(t)
	src, _ := r.Source("PhoneSource")
	sink, _ := r.Sink("AmpSink")
	if _, err := r.RegisterClass(registry.Class{
		Name:       "Mismatched",
		Type:       gctypes.ClassPlayback,
		Topologies: []string{"SOURCE GATEWAY:Missing SINK"},
	}); err != nil {
		t.Fatal(err)
	}
	props := gctypes.DefaultSystemProperties()
	props.NonTopologyRouteAllowed = true
	fd.SetRoutes(src.ID, sink.ID, []daemon.Route{{
		{SourceID: src.ID, SinkID: sink.ID, DomainID: 9, ConnectionFormat: 3},
	}})

	res := New(r, fd, props)
	hops, err := res.Resolve(context.Background(), "PhoneSource", "AmpSink", "Mismatched")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(hops) != 1 || hops[0].DomainID != 9 {
		t.Fatalf("expected fallback to the daemon's first route, got %+v", hops)
	}
}

func TestResolveFailsWithoutFallback(t *testing.T) {
	r, fd := setup(t)
	if _, err := r.RegisterClass(registry.Class{
		Name:       "Mismatched",
		Type:       gctypes.ClassPlayback,
		Topologies: []string{"SOURCE GATEWAY:Missing SINK"},
	}); err != nil {
		t.Fatal(err)
	}
	res := New(r, fd, gctypes.DefaultSystemProperties())
	if _, err := res.Resolve(context.Background(), "PhoneSource", "AmpSink", "Mismatched"); err == nil {
		t.Fatal("expected an error when no topology validates and the fallback is disabled")
	}
}

func TestAvailableRejectsUnavailable(t *testing.T) {
	r, fd := setup(t)
	if _, err := r.RegisterClass(registry.Class{Name: "Base"}); err != nil {
		t.Fatal(err)
	}
	res := New(r, fd, gctypes.DefaultSystemProperties())
	hops, err := res.Resolve(context.Background(), "PhoneSource", "AmpSink", "Base")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Available(hops) {
		t.Fatal("expected available by default")
	}
	src, _ := r.Source("PhoneSource")
	src.Availability.State = gctypes.Unavailable
	if res.Available(hops) {
		t.Fatal("expected unavailable after marking the source unavailable")
	}
}
