// Package policy declares the contract between the dispatcher and
// whatever decides what an incoming trigger should actually do: only the
// contract matters here. The generic controller's dispatcher is
// policy-agnostic, and a concrete reference implementation lives in
// policy/mixing.
package policy

import (
	"context"

	"github.com/gc-audio/routingctl/gctypes"
)

// ActionKind names the shape of container or leaf the dispatcher's action
// factory should build for an ActionDescriptor.
type ActionKind string

const (
	ActionClassConnect       ActionKind = "classConnect"
	ActionMainConnect        ActionKind = "mainConnect"
	ActionMainDisconnect     ActionKind = "mainDisconnect"
	ActionMainSuspend        ActionKind = "mainSuspend"
	ActionSourceSetState     ActionKind = "sourceSetState"
	ActionSinkVolume         ActionKind = "sinkVolume"
	ActionSourceVolume       ActionKind = "sourceVolume"
	ActionSinkSoundProp      ActionKind = "sinkSoundProperty"
	ActionSourceSoundProp    ActionKind = "sourceSoundProperty"
	ActionSinkNotification   ActionKind = "sinkNotification"
	ActionSourceNotification ActionKind = "sourceNotification"
	ActionMute               ActionKind = "mute"
	ActionClassDisconnect    ActionKind = "classDisconnect"
	ActionVolumeSequence     ActionKind = "volumeSequence"
)

// ActionDescriptor is the policy-authored, daemon-agnostic description of
// one action the dispatcher's factory should realize into a concrete
// gctypes.Action. A single trigger may evaluate to several descriptors
// (e.g. "connect Phone to Amp" plus "duck Entertainment by 6dB"),
// executed as siblings under Root.
type ActionDescriptor struct {
	Kind   ActionKind
	Target string // element or main-connection name the action applies to
	Params gctypes.Params
	// Nested holds the child descriptors an ActionVolumeSequence (or any
	// future composite kind) wraps; each is realized independently and
	// driven through the sequencer in order. Unused by leaf kinds.
	Nested []ActionDescriptor
}

// Engine is the policy contract: given a trigger, decide what actions
// should run. Implementations may consult the registry (read-only) to
// make that decision but must not mutate it directly — all state changes
// flow back through the actions the dispatcher builds from the returned
// descriptors.
type Engine interface {
	Evaluate(ctx context.Context, t gctypes.Trigger) ([]ActionDescriptor, error)
}
