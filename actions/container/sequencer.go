package container

import (
	"context"

	"github.com/gc-audio/routingctl/gctypes"
)

// VolumeChangeSequencer drives a batch of volume/property leaves (e.g. "on
// Phone connect, duck Entertainment and raise Phone") through Base in a
// fixed order. It is a thin, explicitly-named wrapper around Base rather
// than a distinct implementation, since applying a batch of mixing-rule
// volume/property changes is just "run these in this order" with no
// container-specific state of its own — unlike MainConnectionAction*,
// which tracks a registry.MainConnection's state across its lifecycle.
type VolumeChangeSequencer struct {
	Base
}

// NewVolumeChangeSequencer builds a sequencer driving children in order.
func NewVolumeChangeSequencer(log gctypes.Logger, children ...gctypes.Action) *VolumeChangeSequencer {
	return &VolumeChangeSequencer{Base: NewBase("VolumeChangeSequencer", log, children...)}
}

func (a *VolumeChangeSequencer) Execute(ctx context.Context) error { return a.Run(ctx) }
