package leaf

import (
	"context"

	"github.com/gc-audio/routingctl/daemon"
	"github.com/gc-audio/routingctl/gctypes"
	"github.com/gc-audio/routingctl/handlestore"
	"github.com/gc-audio/routingctl/registry"
)

// RouteActionConnect connects a single route element at the daemon level.
// Grounded file-for-file on
// original_source/PluginControlInterfaceGeneric/src/CAmRouteActionConnect.cpp.
type RouteActionConnect struct {
	base
	reg     *registry.Registry
	element *registry.RouteElement
	handle  gctypes.Handle
}

// NewRouteActionConnect builds a RouteActionConnect for element.
func NewRouteActionConnect(ctl daemon.ControlReceive, handles *handlestore.Store, reg *registry.Registry, element *registry.RouteElement, cfg gctypes.Config) *RouteActionConnect {
	return &RouteActionConnect{
		base:    newBase("RouteActionConnect", ctl, handles, cfg),
		reg:     reg,
		element: element,
	}
}

func (a *RouteActionConnect) Execute(ctx context.Context) error {
	a.setStatus(gctypes.ActionExecuting)

	if a.element.State == gctypes.ConnConnected {
		return a.finish(nil)
	}

	a.handle = gctypes.NewHandle(gctypes.HandleConnect)
	if err := a.ctl.Connect(ctx, a.handle, a.element.SourceID, a.element.SinkID); err != nil {
		return a.finish(gctypes.NewError("RouteActionConnect", gctypes.DatabaseError, err))
	}

	a.element.State = gctypes.ConnConnecting
	a.handles.Save(a.handle, a, a.element.ID, a.timeout)
	return a.waitForChild()
}

func (a *RouteActionConnect) Acknowledge(_ context.Context, h gctypes.Handle, result error) error {
	if h != a.handle {
		return nil
	}
	if result != nil {
		a.element.State = gctypes.ConnDisconnected
		return a.finish(result)
	}
	a.element.State = gctypes.ConnConnected
	return a.finish(nil)
}

func (a *RouteActionConnect) Timeout(ctx context.Context, h gctypes.Handle) error {
	if h != a.handle {
		return nil
	}
	_ = a.ctl.AbortAction(ctx, h)
	a.element.State = gctypes.ConnDisconnected
	return a.finish(gctypes.NewError("RouteActionConnect", gctypes.Aborted, nil))
}

func (a *RouteActionConnect) Undo(ctx context.Context) error {
	if a.element.State != gctypes.ConnConnected {
		return nil
	}
	a.handle = gctypes.NewHandle(gctypes.HandleDisconnect)
	if err := a.ctl.Disconnect(ctx, a.handle, a.element.ID); err != nil {
		return a.finish(gctypes.NewError("RouteActionConnect.Undo", gctypes.DatabaseError, err))
	}
	a.element.State = gctypes.ConnDisconnecting
	a.handles.Save(a.handle, a, a.element.ID, 0)
	return a.waitForChild()
}
