package daemon

import (
	"context"
	"sync"

	"github.com/gc-audio/routingctl/gctypes"
)

// Call records a single primitive invocation against Fake, for test
// assertions.
type Call struct {
	Primitive string
	Handle    gctypes.Handle
	Args      map[string]any
}

// Fake is an in-memory ControlReceive used by tests across actions/leaf,
// dispatcher, and controller. It records every call and, unless told to
// fail a primitive via FailNext, always returns nil (success) the same
// way a well-behaved daemon does on a healthy route; the caller still
// gets a Handle back and must wait for a separately delivered
// acknowledgment to observe the outcome; Fake does not auto-acknowledge,
// leaving that orchestration to the test. Grounded on
// original_source/PluginCommandInterfaceCAPI/test/MockNotificationsClient.h's
// role as a hand-rolled stand-in for the real daemon in the original's own
// test suite.
type Fake struct {
	mu       sync.Mutex
	Calls    []Call
	failNext map[string]error
	routes   map[routeKey][]Route
}

type routeKey struct {
	sourceID gctypes.ElementID
	sinkID   gctypes.ElementID
}

// fakeDefaultDomainID is the domain Fake reports for a (source, sink)
// pair nobody primed via SetRoutes. Fake has no domain topology of its
// own; this just needs to be nonzero so resolved route elements aren't
// mistaken for ones whose domain has since deregistered.
const fakeDefaultDomainID gctypes.ElementID = 1

// NewFake returns an empty Fake.
func NewFake() *Fake {
	return &Fake{failNext: make(map[string]error), routes: make(map[routeKey][]Route)}
}

// SetRoutes primes the candidate routes Fake reports for GetRoute(sourceID,
// sinkID), overriding the single-hop direct default.
func (f *Fake) SetRoutes(sourceID, sinkID gctypes.ElementID, routes []Route) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[routeKey{sourceID, sinkID}] = routes
}

// GetRoute returns whatever was primed via SetRoutes, or a single direct
// hop on a placeholder domain when nothing was primed.
func (f *Fake) GetRoute(_ context.Context, sourceID, sinkID gctypes.ElementID) ([]Route, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if routes, ok := f.routes[routeKey{sourceID, sinkID}]; ok {
		return routes, nil
	}
	return []Route{{{SourceID: sourceID, SinkID: sinkID, DomainID: fakeDefaultDomainID, ConnectionFormat: 0}}}, nil
}

// FailNext arranges for the next call to the named primitive to return
// err instead of nil.
func (f *Fake) FailNext(primitive string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failNext[primitive] = err
}

func (f *Fake) record(primitive string, h gctypes.Handle, args map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, Call{Primitive: primitive, Handle: h, Args: args})
	if err, ok := f.failNext[primitive]; ok {
		delete(f.failNext, primitive)
		return err
	}
	return nil
}

func (f *Fake) Connect(_ context.Context, h gctypes.Handle, sourceID, sinkID gctypes.ElementID) error {
	return f.record("connect", h, map[string]any{"sourceID": sourceID, "sinkID": sinkID})
}

func (f *Fake) Disconnect(_ context.Context, h gctypes.Handle, routeElementID gctypes.ElementID) error {
	return f.record("disconnect", h, map[string]any{"routeElementID": routeElementID})
}

func (f *Fake) SetSourceState(_ context.Context, h gctypes.Handle, sourceID gctypes.ElementID, state gctypes.SourceState) error {
	return f.record("setSourceState", h, map[string]any{"sourceID": sourceID, "state": state})
}

func (f *Fake) SetSinkVolume(_ context.Context, h gctypes.Handle, sinkID gctypes.ElementID, volume int16, ramp gctypes.RampType, rampMS uint16) error {
	return f.record("setSinkVolume", h, map[string]any{"sinkID": sinkID, "volume": volume, "ramp": ramp, "rampMS": rampMS})
}

func (f *Fake) SetSourceVolume(_ context.Context, h gctypes.Handle, sourceID gctypes.ElementID, volume int16, ramp gctypes.RampType, rampMS uint16) error {
	return f.record("setSourceVolume", h, map[string]any{"sourceID": sourceID, "volume": volume, "ramp": ramp, "rampMS": rampMS})
}

func (f *Fake) SetSinkSoundProperty(_ context.Context, h gctypes.Handle, sinkID gctypes.ElementID, propertyType int16, value int16) error {
	return f.record("setSinkSoundProperty", h, map[string]any{"sinkID": sinkID, "propertyType": propertyType, "value": value})
}

func (f *Fake) SetSourceSoundProperty(_ context.Context, h gctypes.Handle, sourceID gctypes.ElementID, propertyType int16, value int16) error {
	return f.record("setSourceSoundProperty", h, map[string]any{"sourceID": sourceID, "propertyType": propertyType, "value": value})
}

func (f *Fake) SetSinkNotificationConfiguration(_ context.Context, h gctypes.Handle, sinkID gctypes.ElementID, notificationType int16, min, max int16) error {
	return f.record("setSinkNotificationConfiguration", h, map[string]any{"sinkID": sinkID, "notificationType": notificationType, "min": min, "max": max})
}

func (f *Fake) SetSourceNotificationConfiguration(_ context.Context, h gctypes.Handle, sourceID gctypes.ElementID, notificationType int16, min, max int16) error {
	return f.record("setSourceNotificationConfiguration", h, map[string]any{"sourceID": sourceID, "notificationType": notificationType, "min": min, "max": max})
}

func (f *Fake) AbortAction(_ context.Context, h gctypes.Handle) error {
	return f.record("abortAction", h, nil)
}

// LastCall returns the most recently recorded call, or the zero Call if
// none have been made yet.
func (f *Fake) LastCall() Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Calls) == 0 {
		return Call{}
	}
	return f.Calls[len(f.Calls)-1]
}
