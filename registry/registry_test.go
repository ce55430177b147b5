package registry

import (
	"testing"

	"github.com/gc-audio/routingctl/gctypes"
)

func TestRegisterSourceRequiresDomain(t *testing.T) {
	r := New()
	if _, err := r.RegisterSource("PhoneSource", "Domain1"); err == nil {
		t.Fatal("expected error registering source against unknown domain")
	}
	r.RegisterDomain("Domain1")
	s, err := r.RegisterSource("PhoneSource", "Domain1")
	if err != nil {
		t.Fatalf("RegisterSource failed: %v", err)
	}
	if s.Name != "PhoneSource" {
		t.Fatalf("unexpected source: %+v", s)
	}
}

func TestRegisterSourceDuplicate(t *testing.T) {
	r := New()
	r.RegisterDomain("Domain1")
	if _, err := r.RegisterSource("PhoneSource", "Domain1"); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	if _, err := r.RegisterSource("PhoneSource", "Domain1"); err == nil {
		t.Fatal("expected AlreadyExists on duplicate register")
	}
}

func TestObserverCountSharedRouteElement(t *testing.T) {
	r := New()
	r.RegisterDomain("Domain1")
	src, _ := r.RegisterSource("PhoneSource", "Domain1")
	sink, _ := r.RegisterSink("AmpSink", "Domain1")
	sink2, _ := r.RegisterSink("SpeakerSink", "Domain1")

	re := r.NewRouteElement(src.ID, sink.ID, 1, 0)
	re2 := r.NewRouteElement(src.ID, sink2.ID, 1, 0)

	r.NewMainConnection("PhoneSource", "AmpSink", "Base", []gctypes.ElementID{re.ID})
	r.NewMainConnection("PhoneSource", "SpeakerSink", "Base", []gctypes.ElementID{re2.ID})

	if got := r.ObserverCount(gctypes.KindSource, src.ID); got != 2 {
		t.Fatalf("ObserverCount(source) = %d, want 2 (shared across two connections)", got)
	}
	if got := r.ObserverCount(gctypes.KindRouteElement, re.ID); got != 1 {
		t.Fatalf("ObserverCount(routeElement) = %d, want 1", got)
	}

	r.RemoveMainConnection("PhoneSource-AmpSink")
	if got := r.ObserverCount(gctypes.KindSource, src.ID); got != 1 {
		t.Fatalf("ObserverCount(source) after removing one connection = %d, want 1", got)
	}
}

func TestFindRouteElementSharesOnMatchingKey(t *testing.T) {
	r := New()
	r.RegisterDomain("Domain1")
	src, _ := r.RegisterSource("PhoneSource", "Domain1")
	sink, _ := r.RegisterSink("AmpSink", "Domain1")

	re := r.NewRouteElement(src.ID, sink.ID, 1, 2)

	if found, ok := r.FindRouteElement(src.ID, sink.ID, 2); !ok || found.ID != re.ID {
		t.Fatalf("expected FindRouteElement to return the existing element, got %+v, %v", found, ok)
	}
	if _, ok := r.FindRouteElement(src.ID, sink.ID, 3); ok {
		t.Fatal("expected FindRouteElement to miss on a different connection format (I3 dedup key)")
	}
}

func TestMainConnectionsForClassAndSink(t *testing.T) {
	r := New()
	r.RegisterDomain("Domain1")
	src, _ := r.RegisterSource("PhoneSource", "Domain1")
	sink, _ := r.RegisterSink("AmpSink", "Domain1")
	sink2, _ := r.RegisterSink("SpeakerSink", "Domain1")

	re := r.NewRouteElement(src.ID, sink.ID, 1, 0)
	re2 := r.NewRouteElement(src.ID, sink2.ID, 1, 0)
	r.NewMainConnection("PhoneSource", "AmpSink", "Entertainment", []gctypes.ElementID{re.ID})
	r.NewMainConnection("PhoneSource", "SpeakerSink", "PhoneCall", []gctypes.ElementID{re2.ID})

	if got := r.MainConnectionsForClass("Entertainment"); len(got) != 1 || got[0].SinkName != "AmpSink" {
		t.Fatalf("MainConnectionsForClass(Entertainment) = %+v", got)
	}
	if got := r.MainConnectionsForSink("SpeakerSink"); len(got) != 1 || got[0].ClassName != "PhoneCall" {
		t.Fatalf("MainConnectionsForSink(SpeakerSink) = %+v", got)
	}
}

func TestZombieAndReap(t *testing.T) {
	r := New()
	r.RegisterDomain("Domain1")
	src, _ := r.RegisterSource("PhoneSource", "Domain1")

	r.MarkZombie(gctypes.KindSource, src.ID)
	if !r.IsZombie(gctypes.KindSource, src.ID) {
		t.Fatal("expected source to be marked zombie")
	}
	if r.Reap(gctypes.KindSource, src.ID, 1) {
		t.Fatal("Reap should refuse while a handle is outstanding")
	}
	if !r.Reap(gctypes.KindSource, src.ID, 0) {
		t.Fatal("Reap should succeed once no handle is outstanding")
	}
	if _, ok := r.Source("PhoneSource"); ok {
		t.Fatal("source should be gone after Reap")
	}
}
