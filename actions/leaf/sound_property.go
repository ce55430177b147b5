package leaf

import (
	"context"

	"github.com/gc-audio/routingctl/daemon"
	"github.com/gc-audio/routingctl/gctypes"
	"github.com/gc-audio/routingctl/handlestore"
	"github.com/gc-audio/routingctl/registry"
)

// SoundPropertyParams is the decoded configuration for a SoundProperty
// leaf.
type SoundPropertyParams struct {
	PropertyType int16 `mapstructure:"propertyType" structs:"propertyType"`
	Value        int16 `mapstructure:"propertyValue" structs:"propertyValue"`
}

// SoundProperty sets a single sound property (bass, treble, balance, ...)
// on either a sink or a source, selected by which constructor built it.
// Grounded on the CAmSinkActionSetProperty/CAmSourceActionSetProperty
// pair in the original, which are identical in shape to
// CAmSourceActionSetState but target a property rather than a state;
// unified here into one leaf parameterized by target kind, since Go
// interfaces make the duplication the original's class hierarchy needed
// unnecessary.
type SoundProperty struct {
	base
	onSink   bool
	sinkID   gctypes.ElementID
	sourceID gctypes.ElementID
	props    map[int16]int16
	params   SoundPropertyParams
	handle   gctypes.Handle
	oldValue int16
}

// NewSinkSoundProperty builds a SoundProperty leaf targeting a sink.
func NewSinkSoundProperty(ctl daemon.ControlReceive, handles *handlestore.Store, sink *registry.Sink, p gctypes.Params, cfg gctypes.Config) (*SoundProperty, error) {
	var sp SoundPropertyParams
	if err := p.Decode(&sp); err != nil {
		return nil, gctypes.NewError("NewSinkSoundProperty", gctypes.NotPossible, err)
	}
	return &SoundProperty{
		base:   newBase("SinkSoundProperty", ctl, handles, cfg),
		onSink: true,
		sinkID: sink.ID,
		props:  sink.SoundProperties,
		params: sp,
	}, nil
}

// NewSourceSoundProperty builds a SoundProperty leaf targeting a source.
func NewSourceSoundProperty(ctl daemon.ControlReceive, handles *handlestore.Store, source *registry.Source, p gctypes.Params, cfg gctypes.Config) (*SoundProperty, error) {
	var sp SoundPropertyParams
	if err := p.Decode(&sp); err != nil {
		return nil, gctypes.NewError("NewSourceSoundProperty", gctypes.NotPossible, err)
	}
	return &SoundProperty{
		base:     newBase("SourceSoundProperty", ctl, handles, cfg),
		onSink:   false,
		sourceID: source.ID,
		props:    source.SoundProperties,
		params:   sp,
	}, nil
}

func (a *SoundProperty) targetID() gctypes.ElementID {
	if a.onSink {
		return a.sinkID
	}
	return a.sourceID
}

func (a *SoundProperty) issue(ctx context.Context, value int16) error {
	if a.onSink {
		return a.ctl.SetSinkSoundProperty(ctx, a.handle, a.sinkID, a.params.PropertyType, value)
	}
	return a.ctl.SetSourceSoundProperty(ctx, a.handle, a.sourceID, a.params.PropertyType, value)
}

func (a *SoundProperty) Execute(ctx context.Context) error {
	a.setStatus(gctypes.ActionExecuting)

	a.oldValue = a.props[a.params.PropertyType]
	if a.oldValue == a.params.Value {
		return a.finish(nil)
	}

	a.handle = gctypes.NewHandle(gctypes.HandleSetSinkSoundProperty)
	if !a.onSink {
		a.handle = gctypes.NewHandle(gctypes.HandleSetSourceSoundProperty)
	}
	if err := a.issue(ctx, a.params.Value); err != nil {
		return a.finish(gctypes.NewError("SoundProperty", gctypes.DatabaseError, err))
	}
	a.handles.Save(a.handle, a, a.targetID(), a.timeout)
	return a.waitForChild()
}

func (a *SoundProperty) Acknowledge(_ context.Context, h gctypes.Handle, result error) error {
	if h != a.handle {
		return nil
	}
	if result != nil {
		return a.finish(result)
	}
	a.props[a.params.PropertyType] = a.params.Value
	return a.finish(nil)
}

func (a *SoundProperty) Timeout(ctx context.Context, h gctypes.Handle) error {
	if h != a.handle {
		return nil
	}
	_ = a.ctl.AbortAction(ctx, h)
	return a.finish(gctypes.NewError("SoundProperty", gctypes.Aborted, nil))
}

func (a *SoundProperty) Undo(ctx context.Context) error {
	if a.props[a.params.PropertyType] == a.oldValue {
		return nil
	}
	if err := a.issue(ctx, a.oldValue); err != nil {
		return a.finish(gctypes.NewError("SoundProperty.Undo", gctypes.DatabaseError, err))
	}
	a.handles.Save(a.handle, a, a.targetID(), a.timeout)
	return a.waitForChild()
}
