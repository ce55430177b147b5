package leaf

import (
	"context"
	"fmt"

	"github.com/dop251/goja"

	"github.com/gc-audio/routingctl/daemon"
	"github.com/gc-audio/routingctl/gctypes"
	"github.com/gc-audio/routingctl/handlestore"
	"github.com/gc-audio/routingctl/registry"
)

// VolumeParams is the decoded, typed form of the gctypes.Params a volume
// leaf is constructed with. Curve, when non-empty, is a small JavaScript
// expression evaluated with the requested linear volume bound to `v` and
// the configured min/max bound to `min`/`max`; its result becomes the
// volume actually sent to the daemon. This lets a policy author shape a
// non-linear volume curve (e.g. loudness compensation) without the
// controller itself hard-coding one, the way a mixing rule's condition is
// itself scripted rather than compiled into Go.
type VolumeParams struct {
	Volume int16            `mapstructure:"volume" structs:"volume"`
	Ramp   gctypes.RampType `mapstructure:"ramp" structs:"ramp"`
	RampMS uint16           `mapstructure:"rampTime" structs:"rampTime"`
	Curve  string           `mapstructure:"curve" structs:"curve"`
}

func applyCurve(curve string, volume int16, props gctypes.SystemProperties) (int16, error) {
	if curve == "" {
		return volume, nil
	}
	vm := goja.New()
	if err := vm.Set("v", volume); err != nil {
		return 0, err
	}
	if err := vm.Set("min", props.VolumeMin); err != nil {
		return 0, err
	}
	if err := vm.Set("max", props.VolumeMax); err != nil {
		return 0, err
	}
	result, err := vm.RunString(curve)
	if err != nil {
		return 0, fmt.Errorf("volume curve: %w", err)
	}
	return int16(result.ToInteger()), nil
}

func clampVolume(v int16, props gctypes.SystemProperties) int16 {
	if v < props.VolumeMin {
		return props.VolumeMin
	}
	if v > props.VolumeMax {
		return props.VolumeMax
	}
	return v
}

// SinkVolume sets a sink's volume, optionally reshaping the requested
// value through a scripted curve before clamping it into range. Grounded
// on the CAmSinkActionSetVolume peer of CAmSourceActionSetState (same
// no-op-if-unchanged/async-primitive/undo-to-old-value shape), generalized
// to carry a volume-curve hook and clamp step-based requests into range.
type SinkVolume struct {
	base
	sink     *registry.Sink
	props    gctypes.SystemProperties
	params   VolumeParams
	target   int16
	oldValue int16
	handle   gctypes.Handle
}

// NewSinkVolume builds a SinkVolume leaf from a decoded Params payload.
func NewSinkVolume(ctl daemon.ControlReceive, handles *handlestore.Store, sink *registry.Sink, p gctypes.Params, cfg gctypes.Config) (*SinkVolume, error) {
	var vp VolumeParams
	if err := p.Decode(&vp); err != nil {
		return nil, gctypes.NewError("NewSinkVolume", gctypes.NotPossible, err)
	}
	return &SinkVolume{
		base:   newBase("SinkVolume", ctl, handles, cfg),
		sink:   sink,
		props:  cfg.Properties,
		params: vp,
	}, nil
}

func (a *SinkVolume) Execute(ctx context.Context) error {
	a.setStatus(gctypes.ActionExecuting)

	shaped, err := applyCurve(a.params.Curve, a.params.Volume, a.props)
	if err != nil {
		return a.finish(gctypes.NewError("SinkVolume", gctypes.NotPossible, err))
	}
	a.target = clampVolume(shaped, a.props)
	a.oldValue = a.sink.Volume

	if a.oldValue == a.target {
		return a.finish(nil)
	}

	a.handle = gctypes.NewHandle(gctypes.HandleSetSinkVolume)
	if err := a.ctl.SetSinkVolume(ctx, a.handle, a.sink.ID, a.target, a.params.Ramp, a.params.RampMS); err != nil {
		return a.finish(gctypes.NewError("SinkVolume", gctypes.DatabaseError, err))
	}
	a.handles.Save(a.handle, a, a.sink.ID, a.timeout)
	return a.waitForChild()
}

func (a *SinkVolume) Acknowledge(_ context.Context, h gctypes.Handle, result error) error {
	if h != a.handle {
		return nil
	}
	if result != nil {
		return a.finish(result)
	}
	a.sink.Volume = a.target
	return a.finish(nil)
}

func (a *SinkVolume) Timeout(ctx context.Context, h gctypes.Handle) error {
	if h != a.handle {
		return nil
	}
	_ = a.ctl.AbortAction(ctx, h)
	return a.finish(gctypes.NewError("SinkVolume", gctypes.Aborted, nil))
}

func (a *SinkVolume) Undo(ctx context.Context) error {
	if a.sink.Volume == a.oldValue {
		return nil
	}
	a.handle = gctypes.NewHandle(gctypes.HandleSetSinkVolume)
	if err := a.ctl.SetSinkVolume(ctx, a.handle, a.sink.ID, a.oldValue, gctypes.RampNone, 0); err != nil {
		return a.finish(gctypes.NewError("SinkVolume.Undo", gctypes.DatabaseError, err))
	}
	a.handles.Save(a.handle, a, a.sink.ID, a.timeout)
	return a.waitForChild()
}

// SourceVolume is the source-side peer of SinkVolume.
type SourceVolume struct {
	base
	source   *registry.Source
	props    gctypes.SystemProperties
	params   VolumeParams
	target   int16
	oldValue int16
	handle   gctypes.Handle
}

// NewSourceVolume builds a SourceVolume leaf from a decoded Params
// payload.
func NewSourceVolume(ctl daemon.ControlReceive, handles *handlestore.Store, source *registry.Source, p gctypes.Params, cfg gctypes.Config) (*SourceVolume, error) {
	var vp VolumeParams
	if err := p.Decode(&vp); err != nil {
		return nil, gctypes.NewError("NewSourceVolume", gctypes.NotPossible, err)
	}
	return &SourceVolume{
		base:   newBase("SourceVolume", ctl, handles, cfg),
		source: source,
		props:  cfg.Properties,
		params: vp,
	}, nil
}

func (a *SourceVolume) Execute(ctx context.Context) error {
	a.setStatus(gctypes.ActionExecuting)

	shaped, err := applyCurve(a.params.Curve, a.params.Volume, a.props)
	if err != nil {
		return a.finish(gctypes.NewError("SourceVolume", gctypes.NotPossible, err))
	}
	a.target = clampVolume(shaped, a.props)
	a.oldValue = a.source.Volume

	if a.oldValue == a.target {
		return a.finish(nil)
	}

	a.handle = gctypes.NewHandle(gctypes.HandleSetSourceVolume)
	if err := a.ctl.SetSourceVolume(ctx, a.handle, a.source.ID, a.target, a.params.Ramp, a.params.RampMS); err != nil {
		return a.finish(gctypes.NewError("SourceVolume", gctypes.DatabaseError, err))
	}
	a.handles.Save(a.handle, a, a.source.ID, a.timeout)
	return a.waitForChild()
}

func (a *SourceVolume) Acknowledge(_ context.Context, h gctypes.Handle, result error) error {
	if h != a.handle {
		return nil
	}
	if result != nil {
		return a.finish(result)
	}
	a.source.Volume = a.target
	return a.finish(nil)
}

func (a *SourceVolume) Timeout(ctx context.Context, h gctypes.Handle) error {
	if h != a.handle {
		return nil
	}
	_ = a.ctl.AbortAction(ctx, h)
	return a.finish(gctypes.NewError("SourceVolume", gctypes.Aborted, nil))
}

func (a *SourceVolume) Undo(ctx context.Context) error {
	if a.source.Volume == a.oldValue {
		return nil
	}
	a.handle = gctypes.NewHandle(gctypes.HandleSetSourceVolume)
	if err := a.ctl.SetSourceVolume(ctx, a.handle, a.source.ID, a.oldValue, gctypes.RampNone, 0); err != nil {
		return a.finish(gctypes.NewError("SourceVolume.Undo", gctypes.DatabaseError, err))
	}
	a.handles.Save(a.handle, a, a.source.ID, a.timeout)
	return a.waitForChild()
}
