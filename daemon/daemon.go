// Package daemon declares the contract this module consumes from the
// AudioManager daemon core, and ships a Fake implementation so the rest
// of the module is testable without a real daemon process. Grounded on
// original_source/PluginControlInterfaceGeneric/include/IAmControlReceive.h,
// renamed to ControlReceive per this module's own naming and pared down
// to the primitives leaves actually call.
package daemon

import (
	"context"

	"github.com/gc-audio/routingctl/gctypes"
)

// RouteHop is one daemon-reported leg of a candidate route, already
// pinned to a concrete domain and connection format.
type RouteHop struct {
	SourceID         gctypes.ElementID
	SinkID           gctypes.ElementID
	DomainID         gctypes.ElementID
	ConnectionFormat int16
}

// Route is one candidate path between a source and a sink, ordered
// source to sink, as GetRoute proposes it.
type Route []RouteHop

// ControlReceive is the set of asynchronous primitives a leaf action may
// issue against the daemon core. Every primitive is issued under a Handle
// the caller mints and returns immediately; the eventual outcome arrives
// later through controller.Controller.Acknowledge, matching the
// daemon's real async completion protocol.
type ControlReceive interface {
	Connect(ctx context.Context, h gctypes.Handle, sourceID, sinkID gctypes.ElementID) error
	Disconnect(ctx context.Context, h gctypes.Handle, routeElementID gctypes.ElementID) error
	SetSourceState(ctx context.Context, h gctypes.Handle, sourceID gctypes.ElementID, state gctypes.SourceState) error
	SetSinkVolume(ctx context.Context, h gctypes.Handle, sinkID gctypes.ElementID, volume int16, ramp gctypes.RampType, rampMS uint16) error
	SetSourceVolume(ctx context.Context, h gctypes.Handle, sourceID gctypes.ElementID, volume int16, ramp gctypes.RampType, rampMS uint16) error
	SetSinkSoundProperty(ctx context.Context, h gctypes.Handle, sinkID gctypes.ElementID, propertyType int16, value int16) error
	SetSourceSoundProperty(ctx context.Context, h gctypes.Handle, sourceID gctypes.ElementID, propertyType int16, value int16) error
	SetSinkNotificationConfiguration(ctx context.Context, h gctypes.Handle, sinkID gctypes.ElementID, notificationType int16, min, max int16) error
	SetSourceNotificationConfiguration(ctx context.Context, h gctypes.Handle, sourceID gctypes.ElementID, notificationType int16, min, max int16) error

	// GetRoute is the one synchronous query on this interface: it asks
	// the daemon for every candidate route between source and sink, the
	// list the resolver intersects against each class topology.
	GetRoute(ctx context.Context, sourceID, sinkID gctypes.ElementID) ([]Route, error)

	// AbortAction cancels an outstanding primitive identified by h,
	// best-effort, as issued by a leaf's Timeout handler.
	AbortAction(ctx context.Context, h gctypes.Handle) error
}
