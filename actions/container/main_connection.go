package container

import (
	"context"

	"github.com/gc-audio/routingctl/gctypes"
	"github.com/gc-audio/routingctl/registry"
)

// connectObserverName is this container's fixed role key under
// registry.MainConnection.TransitionObservers (I5): one name per
// container kind, not per instance, since only one connect container
// ever drives a given main connection at a time.
const connectObserverName = "connect"

// MainConnectionActionConnect establishes a main connection by running
// its children in the order given: as dispatcher's buildMainConnect
// builds them, a RouteActionConnect for each route element followed by a
// SourceActionSetState(ON) for each route element's source, each group
// walked sink-most first by default and source first when dir is
// DirSourceToSink. Grounded file-for-file on
// CAmMainConnectionActionConnect.cpp: Execute sets the connection's state
// to CS_CONNECTING up front, and _update resolves to
// CS_CONNECTED or CS_SUSPENDED depending on the final source state once
// every child has finished.
type MainConnectionActionConnect struct {
	Base
	mc  *registry.MainConnection
	reg *registry.Registry
	dir gctypes.SetSourceStateDirection
}

// NewMainConnectionActionConnect builds the connect container for mc.
// children must already be in execution order (route-connects then
// source-set-states, or reversed per dir); building that order from a
// resolved route is the dispatcher factory's job (see buildMainConnect),
// since it needs the resolver and registry together. reg is consulted in
// afterRun to decide CONNECTED vs SUSPENDED from the main source's
// current state and to recompute the connection's main volume.
func NewMainConnectionActionConnect(mc *registry.MainConnection, reg *registry.Registry, dir gctypes.SetSourceStateDirection, log gctypes.Logger, children ...gctypes.Action) *MainConnectionActionConnect {
	return &MainConnectionActionConnect{
		Base: NewBase("MainConnectionActionConnect", log, children...),
		mc:   mc,
		reg:  reg,
		dir:  dir,
	}
}

func (a *MainConnectionActionConnect) Execute(ctx context.Context) error {
	if a.mc.State == gctypes.ConnConnected {
		return nil
	}
	a.mc.State = gctypes.ConnConnecting
	a.mc.RegisterObserver(connectObserverName)
	err := a.Run(ctx)
	return a.afterRun(err)
}

func (a *MainConnectionActionConnect) Acknowledge(ctx context.Context, h gctypes.Handle, result error) error {
	err := a.Base.Acknowledge(ctx, h, result)
	return a.afterRun(err)
}

func (a *MainConnectionActionConnect) Timeout(ctx context.Context, h gctypes.Handle) error {
	err := a.Base.Timeout(ctx, h)
	return a.afterRun(err)
}

// afterRun resolves the connection's terminal state once every child has
// settled: CONNECTED when the main source ended up ON, SUSPENDED
// otherwise (a child may have driven it to PAUSED rather than ON), per
// the state table's CONNECTING row. On either terminal outcome it
// recomputes MainVolume from the main sink's current volume and
// unregisters itself as a transition observer (I5); the connection's
// state only becomes terminal once this was its last observer.
func (a *MainConnectionActionConnect) afterRun(err error) error {
	if gctypes.ErrWaitForChild(err) {
		return err
	}
	if err != nil {
		a.mc.State = gctypes.ConnDisconnected
		a.mc.UnregisterObserver(connectObserverName)
		return err
	}
	if a.Status() == gctypes.ActionFinished {
		a.mc.UnregisterObserver(connectObserverName)
		if !a.mc.HasObservers() {
			a.mc.State = gctypes.ConnConnected
			if src, ok := a.reg.Source(a.mc.SourceName); ok && src.State != gctypes.SourceOn {
				a.mc.State = gctypes.ConnSuspended
			}
			if sink, ok := a.reg.Sink(a.mc.SinkName); ok {
				a.mc.MainVolume = sink.Volume
			}
		}
	}
	return err
}

func (a *MainConnectionActionConnect) Undo(ctx context.Context) error {
	err := a.Base.Undo(ctx)
	a.mc.State = gctypes.ConnDisconnected
	a.mc.UnregisterObserver(connectObserverName)
	return err
}

// MainConnectionActionDisconnect tears down a main connection's route
// elements and sources, skipping children that are still shared with
// another main connection. Grounded file-for-file on
// CAmMainConnectionActionDisconnect.cpp's _checkSharedRouteDisconnected /
// _checkSharedSourceDisconnected gates, applied by the caller when
// building the child list (see dispatcher's buildMainDisconnect), since that's where the
// registry's ObserverCount is available alongside the resolved route.
type MainConnectionActionDisconnect struct {
	Base
	mc *registry.MainConnection
}

// NewMainConnectionActionDisconnect builds the disconnect container for
// mc. children should already exclude any route element or source still
// shared with another main connection.
func NewMainConnectionActionDisconnect(mc *registry.MainConnection, log gctypes.Logger, children ...gctypes.Action) *MainConnectionActionDisconnect {
	return &MainConnectionActionDisconnect{
		Base: NewBase("MainConnectionActionDisconnect", log, children...),
		mc:   mc,
	}
}

const disconnectObserverName = "disconnect"

func (a *MainConnectionActionDisconnect) Execute(ctx context.Context) error {
	if a.mc.State == gctypes.ConnDisconnected {
		return nil
	}
	a.mc.State = gctypes.ConnDisconnecting
	a.mc.RegisterObserver(disconnectObserverName)
	err := a.Run(ctx)
	return a.afterRun(err)
}

func (a *MainConnectionActionDisconnect) Acknowledge(ctx context.Context, h gctypes.Handle, result error) error {
	err := a.Base.Acknowledge(ctx, h, result)
	return a.afterRun(err)
}

func (a *MainConnectionActionDisconnect) Timeout(ctx context.Context, h gctypes.Handle) error {
	err := a.Base.Timeout(ctx, h)
	return a.afterRun(err)
}

func (a *MainConnectionActionDisconnect) afterRun(err error) error {
	if gctypes.ErrWaitForChild(err) {
		return err
	}
	if a.Status() == gctypes.ActionFinished {
		a.mc.UnregisterObserver(disconnectObserverName)
		if !a.mc.HasObservers() {
			a.mc.State = gctypes.ConnDisconnected
		}
	}
	return err
}

// MainConnectionActionSuspend pauses an active connection: sources are
// driven to SS_PAUSED without tearing down the underlying route, so
// resuming is cheap. Grounded on CAmMainConnectionActionSuspend.cpp.
type MainConnectionActionSuspend struct {
	Base
	mc *registry.MainConnection
}

// NewMainConnectionActionSuspend builds the suspend container for mc.
func NewMainConnectionActionSuspend(mc *registry.MainConnection, log gctypes.Logger, children ...gctypes.Action) *MainConnectionActionSuspend {
	return &MainConnectionActionSuspend{
		Base: NewBase("MainConnectionActionSuspend", log, children...),
		mc:   mc,
	}
}

func (a *MainConnectionActionSuspend) Execute(ctx context.Context) error {
	if a.mc.State != gctypes.ConnConnected {
		return gctypes.NewError("MainConnectionActionSuspend", gctypes.NotPossible, nil)
	}
	err := a.Run(ctx)
	if gctypes.ErrWaitForChild(err) {
		return err
	}
	if err == nil && a.Status() == gctypes.ActionFinished {
		a.mc.State = gctypes.ConnSuspended
	}
	return err
}

func (a *MainConnectionActionSuspend) Acknowledge(ctx context.Context, h gctypes.Handle, result error) error {
	err := a.Base.Acknowledge(ctx, h, result)
	if !gctypes.ErrWaitForChild(err) && err == nil && a.Status() == gctypes.ActionFinished {
		a.mc.State = gctypes.ConnSuspended
	}
	return err
}

func (a *MainConnectionActionSuspend) Timeout(ctx context.Context, h gctypes.Handle) error {
	return a.Base.Timeout(ctx, h)
}
