package leaf

import (
	"context"

	"github.com/gc-audio/routingctl/daemon"
	"github.com/gc-audio/routingctl/gctypes"
	"github.com/gc-audio/routingctl/handlestore"
	"github.com/gc-audio/routingctl/registry"
)

// SourceActionSetState drives a source to a requested state. Grounded
// file-for-file on
// original_source/PluginControlInterfaceGeneric/src/CAmSourceActionSetState.cpp:
// a no-op if the source is already in the target state, otherwise an
// asynchronous daemon primitive; Undo unconditionally restores whatever
// state the source was in before Execute, regardless of what that state
// means.
type SourceActionSetState struct {
	base
	source   *registry.Source
	state    gctypes.SourceState
	oldState gctypes.SourceState
	handle   gctypes.Handle
}

// NewSourceActionSetState builds a SourceActionSetState targeting state
// on source.
func NewSourceActionSetState(ctl daemon.ControlReceive, handles *handlestore.Store, source *registry.Source, state gctypes.SourceState, cfg gctypes.Config) *SourceActionSetState {
	return &SourceActionSetState{
		base:   newBase("SourceActionSetState", ctl, handles, cfg),
		source: source,
		state:  state,
	}
}

func (a *SourceActionSetState) Execute(ctx context.Context) error {
	a.setStatus(gctypes.ActionExecuting)

	a.oldState = a.source.State
	a.log.Printf("SourceActionSetState: %s %s --> %s", a.source.Name, a.oldState, a.state)

	if a.oldState == a.state {
		return a.finish(nil)
	}

	a.handle = gctypes.NewHandle(gctypes.HandleSetSourceState)
	if err := a.ctl.SetSourceState(ctx, a.handle, a.source.ID, a.state); err != nil {
		return a.finish(gctypes.NewError("SourceActionSetState", gctypes.DatabaseError, err))
	}
	a.handles.Save(a.handle, a, a.source.ID, a.timeout)
	return a.waitForChild()
}

func (a *SourceActionSetState) Acknowledge(_ context.Context, h gctypes.Handle, result error) error {
	if h != a.handle {
		return nil
	}
	if result != nil {
		return a.finish(result)
	}
	a.source.State = a.state
	return a.finish(nil)
}

func (a *SourceActionSetState) Timeout(ctx context.Context, h gctypes.Handle) error {
	if h != a.handle {
		return nil
	}
	_ = a.ctl.AbortAction(ctx, h)
	return a.finish(gctypes.NewError("SourceActionSetState", gctypes.Aborted, nil))
}

func (a *SourceActionSetState) Undo(ctx context.Context) error {
	a.handle = gctypes.NewHandle(gctypes.HandleSetSourceState)
	if err := a.ctl.SetSourceState(ctx, a.handle, a.source.ID, a.oldState); err != nil {
		return a.finish(gctypes.NewError("SourceActionSetState.Undo", gctypes.DatabaseError, err))
	}
	a.handles.Save(a.handle, a, a.source.ID, a.timeout)
	return a.waitForChild()
}
