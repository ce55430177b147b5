package leaf

import (
	"context"

	"github.com/gc-audio/routingctl/daemon"
	"github.com/gc-audio/routingctl/gctypes"
	"github.com/gc-audio/routingctl/handlestore"
	"github.com/gc-audio/routingctl/registry"
)

// MuteParams is the decoded configuration for a Mute leaf.
type MuteParams struct {
	MuteState gctypes.MuteState `mapstructure:"muteState" structs:"muteState"`
}

// Mute sets a sink's mute state. Unlike the volume and connection
// primitives, muting is applied synchronously at the daemon-core level
// rather than through an asynchronous IAmControlReceive primitive —
// grounded on original_source/CAmControlSend.h's
// hookUserSetSinkMuteState, which the command interface calls directly
// with no handle/acknowledgment round-trip. Mute therefore never returns
// gctypes.WaitForChild().
type Mute struct {
	base
	sink     *registry.Sink
	params   MuteParams
	oldValue gctypes.MuteState
}

// NewMute builds a Mute leaf targeting sink.
func NewMute(ctl daemon.ControlReceive, handles *handlestore.Store, sink *registry.Sink, p gctypes.Params, cfg gctypes.Config) (*Mute, error) {
	var mp MuteParams
	if err := p.Decode(&mp); err != nil {
		return nil, gctypes.NewError("NewMute", gctypes.NotPossible, err)
	}
	return &Mute{
		base:   newBase("Mute", ctl, handles, cfg),
		sink:   sink,
		params: mp,
	}, nil
}

func (a *Mute) Execute(ctx context.Context) error {
	a.setStatus(gctypes.ActionExecuting)
	a.oldValue = a.sink.Mute
	a.sink.Mute = a.params.MuteState
	return a.finish(nil)
}

// Acknowledge is never invoked for Mute since it issues no handle; it
// exists only to satisfy gctypes.Action.
func (a *Mute) Acknowledge(context.Context, gctypes.Handle, error) error { return nil }

// Timeout is never invoked for Mute since it issues no handle; it exists
// only to satisfy gctypes.Action.
func (a *Mute) Timeout(context.Context, gctypes.Handle) error { return nil }

func (a *Mute) Undo(context.Context) error {
	a.sink.Mute = a.oldValue
	return nil
}
