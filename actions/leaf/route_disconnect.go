package leaf

import (
	"context"

	"github.com/gc-audio/routingctl/daemon"
	"github.com/gc-audio/routingctl/gctypes"
	"github.com/gc-audio/routingctl/handlestore"
	"github.com/gc-audio/routingctl/registry"
)

// RouteActionDisconnect disconnects a single route element at the daemon
// level. Grounded file-for-file on
// original_source/PluginControlInterfaceGeneric/src/CAmRouteActionDisconnect.cpp.
// The shared-route-element check (is another main connection still using
// this element?) happens one level up, in
// actions/container.MainConnectionActionDisconnect, exactly as in the
// original where CAmMainConnectionActionDisconnect decides whether to
// even build this leaf into its child list.
type RouteActionDisconnect struct {
	base
	reg     *registry.Registry
	element *registry.RouteElement
	handle  gctypes.Handle
}

// NewRouteActionDisconnect builds a RouteActionDisconnect for element.
func NewRouteActionDisconnect(ctl daemon.ControlReceive, handles *handlestore.Store, reg *registry.Registry, element *registry.RouteElement, cfg gctypes.Config) *RouteActionDisconnect {
	return &RouteActionDisconnect{
		base:    newBase("RouteActionDisconnect", ctl, handles, cfg),
		reg:     reg,
		element: element,
	}
}

func (a *RouteActionDisconnect) Execute(ctx context.Context) error {
	a.setStatus(gctypes.ActionExecuting)

	if a.element.State == gctypes.ConnDisconnected || a.element.State == gctypes.ConnUnknown {
		return a.finish(nil)
	}

	a.handle = gctypes.NewHandle(gctypes.HandleDisconnect)
	if err := a.ctl.Disconnect(ctx, a.handle, a.element.ID); err != nil {
		return a.finish(gctypes.NewError("RouteActionDisconnect", gctypes.DatabaseError, err))
	}

	a.element.State = gctypes.ConnDisconnecting
	a.handles.Save(a.handle, a, a.element.ID, a.timeout)
	return a.waitForChild()
}

func (a *RouteActionDisconnect) Acknowledge(_ context.Context, h gctypes.Handle, result error) error {
	if h != a.handle {
		return nil
	}
	if result != nil {
		return a.finish(result)
	}
	a.element.State = gctypes.ConnDisconnected
	return a.finish(nil)
}

func (a *RouteActionDisconnect) Timeout(ctx context.Context, h gctypes.Handle) error {
	if h != a.handle {
		return nil
	}
	_ = a.ctl.AbortAction(ctx, h)
	return a.finish(gctypes.NewError("RouteActionDisconnect", gctypes.Aborted, nil))
}

func (a *RouteActionDisconnect) Undo(ctx context.Context) error {
	a.handle = gctypes.NewHandle(gctypes.HandleConnect)
	if err := a.ctl.Connect(ctx, a.handle, a.element.SourceID, a.element.SinkID); err != nil {
		return a.finish(gctypes.NewError("RouteActionDisconnect.Undo", gctypes.DatabaseError, err))
	}
	a.element.State = gctypes.ConnConnecting
	a.handles.Save(a.handle, a, a.element.ID, a.timeout)
	return a.waitForChild()
}
