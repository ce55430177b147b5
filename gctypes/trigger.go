package gctypes

// TriggerKind enumerates the events the daemon or a command client can
// push onto the trigger queue, mirroring the gc_Trigger_e alphabet in
// original_source/CAmTriggerQueue.h.
type TriggerKind int

const (
	TriggerUnknown TriggerKind = iota
	TriggerClassConnect
	TriggerConnect
	TriggerDisconnect
	TriggerSetSourceState
	TriggerSetSinkVolume
	TriggerSetSourceVolume
	TriggerSetSinkMuteState
	TriggerSetSourceSoundProperty
	TriggerSetSinkSoundProperty
	TriggerSetSystemProperty
	TriggerSourceAvailabilityChanged
	TriggerSinkAvailabilityChanged
	TriggerNumberOfMainConnectionsChanged
	TriggerConnectionStateChange
	TriggerSourceAdded
	TriggerSourceRemoved
	TriggerSinkAdded
	TriggerSinkRemoved
	TriggerDomainRegistration
	TriggerDomainDeregistration
	TriggerUserVolumeStep
	TriggerUserSetVolume
	TriggerUserSetMute
	TriggerSourceInterruptChange
)

func (k TriggerKind) String() string {
	switch k {
	case TriggerClassConnect:
		return "classConnect"
	case TriggerConnect:
		return "connect"
	case TriggerDisconnect:
		return "disconnect"
	case TriggerSetSourceState:
		return "setSourceState"
	case TriggerSetSinkVolume:
		return "setSinkVolume"
	case TriggerSetSourceVolume:
		return "setSourceVolume"
	case TriggerSetSinkMuteState:
		return "setSinkMuteState"
	case TriggerSetSourceSoundProperty:
		return "setSourceSoundProperty"
	case TriggerSetSinkSoundProperty:
		return "setSinkSoundProperty"
	case TriggerSetSystemProperty:
		return "setSystemProperty"
	case TriggerSourceAvailabilityChanged:
		return "sourceAvailabilityChanged"
	case TriggerSinkAvailabilityChanged:
		return "sinkAvailabilityChanged"
	case TriggerNumberOfMainConnectionsChanged:
		return "numberOfMainConnectionsChanged"
	case TriggerConnectionStateChange:
		return "connectionStateChange"
	case TriggerSourceAdded:
		return "sourceAdded"
	case TriggerSourceRemoved:
		return "sourceRemoved"
	case TriggerSinkAdded:
		return "sinkAdded"
	case TriggerSinkRemoved:
		return "sinkRemoved"
	case TriggerDomainRegistration:
		return "domainRegistration"
	case TriggerDomainDeregistration:
		return "domainDeregistration"
	case TriggerUserVolumeStep:
		return "userVolumeStep"
	case TriggerUserSetVolume:
		return "userSetVolume"
	case TriggerUserSetMute:
		return "userSetMute"
	case TriggerSourceInterruptChange:
		return "sourceInterruptChange"
	default:
		return "unknown"
	}
}

// Trigger is a single queue entry: a kind tag plus whichever payload
// struct below matches it. Dispatch keys off Kind, the same way
// CAmTriggerQueue pairs a gc_Trigger_e with a gc_TriggerElement_s*.
type Trigger struct {
	Kind    TriggerKind
	Payload any
}

// ClassConnectTrigger requests a connection be established for a class
// between a named source and sink. Grounded on gc_classConnectTrigger_s.
type ClassConnectTrigger struct {
	ClassName  string
	SourceName string
	SinkName   string
}

// ConnectTrigger requests a direct source-to-sink connection outside of
// class-based policy resolution. Grounded on gc_ConnectTrigger_s.
type ConnectTrigger struct {
	SourceName string
	SinkName   string
	ClassName  string
}

// DisconnectTrigger requests an existing main connection be torn down.
// Grounded on gc_DisconnectTrigger_s.
type DisconnectTrigger struct {
	ConnectionName string
}

// SetSourceStateTrigger requests a source be driven to a new state.
// Grounded on gc_SetSourceStateTrigger_s.
type SetSourceStateTrigger struct {
	SourceName string
	State      SourceState
}

// SetVolumeTrigger requests an absolute volume be applied to a source or
// sink. Grounded on gc_SetVolumeTrigger_s.
type SetVolumeTrigger struct {
	Name   string
	Volume int16
	Ramp   RampType
	RampMS uint16
}

// SetMuteStateTrigger requests a sink's (or muting-capable source's) mute
// state be changed. Grounded on gc_SetMuteStateTrigger_s.
type SetMuteStateTrigger struct {
	Name string
	Mute MuteState
}

// SetSoundPropertyTrigger requests a sound property (bass, treble, ...) be
// applied. Grounded on gc_SetSoundPropertyTrigger_s.
type SetSoundPropertyTrigger struct {
	Name         string
	PropertyType int16
	Value        int16
}

// SetSystemPropertyTrigger requests a system-wide property change.
// Grounded on gc_SetSystemPropertyTrigger_s.
type SetSystemPropertyTrigger struct {
	PropertyType int16
	Value        int16
}

// AvailabilityChangedTrigger reports a source or sink's availability
// changed, driving policy re-evaluation of affected main connections.
// Grounded on gc_sourceAvailabilityChangedTrigger_s /
// gc_sinkAvailabilityChangedTrigger_s.
type AvailabilityChangedTrigger struct {
	Name         string
	Availability Availability
}

// ConnectionStateChangeTrigger reports a main connection's state changed,
// typically as the terminal event of a connect/disconnect action tree.
// Grounded on gc_ConnectionStateChangeTrigger_s.
type ConnectionStateChangeTrigger struct {
	ConnectionName string
	State          ConnectionState
	Result         error
}

// ElementLifecycleTrigger reports a source, sink, domain, or gateway was
// registered or deregistered with the daemon. Grounded on
// gc_sourceAddedTrigger_s / gc_sourceRemovedTrigger_s and siblings.
type ElementLifecycleTrigger struct {
	Kind ElementKind
	Name string
}

// UserVolumeStepTrigger is a relative volume nudge requested by a command
// client (HMI knob, steering-wheel control). Grounded on
// gc_SetVolumeTrigger_s used in its relative form, for hookUserVolumeStep.
type UserVolumeStepTrigger struct {
	Name string
	Step int16
}

// SourceInterruptChangeTrigger reports a source's interrupt state changed
// (e.g. a higher-priority source ducked or released it), carrying the
// daemon's interrupt-state code as-is since this module assigns it no
// policy of its own. Grounded on hookSystemInterruptStateChange.
type SourceInterruptChangeTrigger struct {
	SourceName string
	State      int16
}
