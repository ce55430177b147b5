// Package controller implements C10: the control-side hook surface the
// daemon and command clients call into. Grounded file-for-file on
// original_source/CAmControlSend.h's hookUser*/hookSystem*/cbAck* method
// set, narrowed to the subset this module carries forward. Every method
// here is synchronous from the caller's viewpoint: it either mutates the
// registry and/or returns an error immediately, or enqueues a trigger
// onto the dispatcher and returns nil, leaving the eventual outcome to
// surface later as a connectionStateChange trigger.
package controller

import (
	"fmt"

	"github.com/gc-audio/routingctl/dispatcher"
	"github.com/gc-audio/routingctl/gctypes"
	"github.com/gc-audio/routingctl/metrics"
	"github.com/gc-audio/routingctl/registry"
	"github.com/gc-audio/routingctl/trigger"
)

// Controller is the hook-surface façade wired between whatever transport
// receives daemon/command-client calls (ipc.MQTTGateway, or a real daemon
// binding) and the dispatcher's trigger queue.
type Controller struct {
	reg  *registry.Registry
	disp *dispatcher.Dispatcher
	cfg  gctypes.Config
}

// New wires a Controller against the registry and dispatcher it controls.
func New(reg *registry.Registry, disp *dispatcher.Dispatcher, cfg gctypes.Config) *Controller {
	return &Controller{reg: reg, disp: disp, cfg: cfg}
}

// recordHook tags a hook invocation with its outcome for HooksInvoked.
func recordHook(hook string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.HooksInvoked.WithLabelValues(hook, outcome).Inc()
}

// -- user-side hooks --------------------------------------------------------

// UserConnectionRequest handles hookUserConnectionRequest: it derives the
// connecting class from the registry (the daemon only ever names a
// source and a sink), and either reports an already-established
// connection per P6 or queues a classConnect trigger and returns the
// connection name the eventual state-change notification will carry.
func (c *Controller) UserConnectionRequest(sourceName, sinkName string) (connName string, err error) {
	defer func() { recordHook("UserConnectionRequest", err) }()
	connName = sourceName + "-" + sinkName
	if _, exists := c.reg.MainConnection(connName); exists {
		return connName, nil
	}
	if _, ok := c.reg.Source(sourceName); !ok {
		return "", gctypes.NewError("UserConnectionRequest", gctypes.NonExistent, fmt.Errorf("source %q", sourceName))
	}
	if _, ok := c.reg.Sink(sinkName); !ok {
		return "", gctypes.NewError("UserConnectionRequest", gctypes.NonExistent, fmt.Errorf("sink %q", sinkName))
	}
	class, ok := c.reg.ClassForPair(sourceName, sinkName)
	if !ok {
		return "", gctypes.NewError("UserConnectionRequest", gctypes.NotPossible,
			fmt.Errorf("no class connects %q to %q", sourceName, sinkName))
	}
	c.disp.Submit(trigger.Normal, gctypes.Trigger{
		Kind: gctypes.TriggerClassConnect,
		Payload: gctypes.ClassConnectTrigger{
			ClassName:  class.Name,
			SourceName: sourceName,
			SinkName:   sinkName,
		},
	})
	return connName, nil
}

// UserDisconnectionRequest handles hookUserDisconnectionRequest.
func (c *Controller) UserDisconnectionRequest(connectionName string) (err error) {
	defer func() { recordHook("UserDisconnectionRequest", err) }()
	if _, ok := c.reg.MainConnection(connectionName); !ok {
		return gctypes.NewError("UserDisconnectionRequest", gctypes.NonExistent, fmt.Errorf("main connection %q", connectionName))
	}
	c.disp.Submit(trigger.Normal, gctypes.Trigger{
		Kind:    gctypes.TriggerDisconnect,
		Payload: gctypes.DisconnectTrigger{ConnectionName: connectionName},
	})
	return nil
}

// UserVolumeChange handles hookUserVolumeChange, setting a sink's main
// volume to an absolute value.
func (c *Controller) UserVolumeChange(sinkName string, newVolume int16) error {
	if _, ok := c.reg.Sink(sinkName); !ok {
		return gctypes.NewError("UserVolumeChange", gctypes.NonExistent, fmt.Errorf("sink %q", sinkName))
	}
	c.disp.Submit(trigger.Normal, gctypes.Trigger{
		Kind:    gctypes.TriggerSetSinkVolume,
		Payload: gctypes.SetVolumeTrigger{Name: sinkName, Volume: newVolume},
	})
	return nil
}

// UserVolumeStep handles hookUserVolumeStep: a relative nudge rather than
// an absolute value. Clamping to the sink's configured range happens
// where the volume leaf applies the trigger, not here; this hook only
// validates the sink exists.
func (c *Controller) UserVolumeStep(sinkName string, step int16) error {
	if _, ok := c.reg.Sink(sinkName); !ok {
		return gctypes.NewError("UserVolumeStep", gctypes.NonExistent, fmt.Errorf("sink %q", sinkName))
	}
	c.disp.Submit(trigger.Normal, gctypes.Trigger{
		Kind:    gctypes.TriggerUserVolumeStep,
		Payload: gctypes.UserVolumeStepTrigger{Name: sinkName, Step: step},
	})
	return nil
}

// UserSetSinkMuteState handles hookUserSetSinkMuteState.
func (c *Controller) UserSetSinkMuteState(sinkName string, mute gctypes.MuteState) error {
	if _, ok := c.reg.Sink(sinkName); !ok {
		return gctypes.NewError("UserSetSinkMuteState", gctypes.NonExistent, fmt.Errorf("sink %q", sinkName))
	}
	c.disp.Submit(trigger.Normal, gctypes.Trigger{
		Kind:    gctypes.TriggerSetSinkMuteState,
		Payload: gctypes.SetMuteStateTrigger{Name: sinkName, Mute: mute},
	})
	return nil
}

// UserSetMainSinkSoundProperty handles hookUserSetMainSinkSoundProperty.
func (c *Controller) UserSetMainSinkSoundProperty(sinkName string, propertyType, value int16) error {
	if _, ok := c.reg.Sink(sinkName); !ok {
		return gctypes.NewError("UserSetMainSinkSoundProperty", gctypes.NonExistent, fmt.Errorf("sink %q", sinkName))
	}
	c.disp.Submit(trigger.Normal, gctypes.Trigger{
		Kind:    gctypes.TriggerSetSinkSoundProperty,
		Payload: gctypes.SetSoundPropertyTrigger{Name: sinkName, PropertyType: propertyType, Value: value},
	})
	return nil
}

// UserSetMainSourceSoundProperty handles hookUserSetMainSourceSoundProperty.
func (c *Controller) UserSetMainSourceSoundProperty(sourceName string, propertyType, value int16) error {
	if _, ok := c.reg.Source(sourceName); !ok {
		return gctypes.NewError("UserSetMainSourceSoundProperty", gctypes.NonExistent, fmt.Errorf("source %q", sourceName))
	}
	c.disp.Submit(trigger.Normal, gctypes.Trigger{
		Kind:    gctypes.TriggerSetSourceSoundProperty,
		Payload: gctypes.SetSoundPropertyTrigger{Name: sourceName, PropertyType: propertyType, Value: value},
	})
	return nil
}

// UserSetSystemProperty handles hookUserSetSystemProperty.
func (c *Controller) UserSetSystemProperty(propertyType, value int16) error {
	c.disp.Submit(trigger.Normal, gctypes.Trigger{
		Kind:    gctypes.TriggerSetSystemProperty,
		Payload: gctypes.SetSystemPropertyTrigger{PropertyType: propertyType, Value: value},
	})
	return nil
}

// -- system-side registration hooks -----------------------------------------

// SystemRegisterDomain handles hookSystemRegisterDomain: registration
// itself is a synchronous registry mutation (there is no daemon primitive
// to wait on), so it needs no trigger of its own.
func (c *Controller) SystemRegisterDomain(name string) (gctypes.ElementID, error) {
	d := c.reg.RegisterDomain(name)
	return d.ID, nil
}

// SystemDomainRegistrationComplete handles
// hookSystemDomainRegistrationComplete, signaling that a domain's sources
// and sinks have all finished their own registration and policy may now
// treat the domain as fully available.
func (c *Controller) SystemDomainRegistrationComplete(name string) {
	c.disp.Submit(trigger.Normal, gctypes.Trigger{
		Kind:    gctypes.TriggerDomainRegistration,
		Payload: gctypes.ElementLifecycleTrigger{Kind: gctypes.KindDomain, Name: name},
	})
}

// SystemDeregisterDomain handles hookSystemDeregisterDomain.
func (c *Controller) SystemDeregisterDomain(name string) error {
	if !c.reg.DeregisterDomain(name) {
		return gctypes.NewError("SystemDeregisterDomain", gctypes.NonExistent, fmt.Errorf("domain %q", name))
	}
	c.disp.Submit(trigger.Normal, gctypes.Trigger{
		Kind:    gctypes.TriggerDomainDeregistration,
		Payload: gctypes.ElementLifecycleTrigger{Kind: gctypes.KindDomain, Name: name},
	})
	return nil
}

// SystemRegisterSource handles hookSystemRegisterSource.
func (c *Controller) SystemRegisterSource(name, domainName string) (gctypes.ElementID, error) {
	src, err := c.reg.RegisterSource(name, domainName)
	if err != nil {
		return 0, err
	}
	c.disp.Submit(trigger.Normal, gctypes.Trigger{
		Kind:    gctypes.TriggerSourceAdded,
		Payload: gctypes.ElementLifecycleTrigger{Kind: gctypes.KindSource, Name: name},
	})
	return src.ID, nil
}

// SystemDeregisterSource handles hookSystemDeregisterSource. Per
// DESIGN.md's Open Question 2 decision, the source is marked zombie
// rather than removed outright, whether or not a handle is outstanding.
// Nothing in this module removes it afterwards; removal happens only when
// a caller invokes registry.Registry.Reap.
func (c *Controller) SystemDeregisterSource(name string) error {
	src, ok := c.reg.Source(name)
	if !ok {
		return gctypes.NewError("SystemDeregisterSource", gctypes.NonExistent, fmt.Errorf("source %q", name))
	}
	c.reg.MarkZombie(gctypes.KindSource, src.ID)
	c.disp.Submit(trigger.Normal, gctypes.Trigger{
		Kind:    gctypes.TriggerSourceRemoved,
		Payload: gctypes.ElementLifecycleTrigger{Kind: gctypes.KindSource, Name: name},
	})
	return nil
}

// SystemRegisterSink handles hookSystemRegisterSink.
func (c *Controller) SystemRegisterSink(name, domainName string) (gctypes.ElementID, error) {
	sink, err := c.reg.RegisterSink(name, domainName)
	if err != nil {
		return 0, err
	}
	c.disp.Submit(trigger.Normal, gctypes.Trigger{
		Kind:    gctypes.TriggerSinkAdded,
		Payload: gctypes.ElementLifecycleTrigger{Kind: gctypes.KindSink, Name: name},
	})
	return sink.ID, nil
}

// SystemDeregisterSink handles hookSystemDeregisterSink, marking the sink
// zombie the same way SystemDeregisterSource does for sources.
func (c *Controller) SystemDeregisterSink(name string) error {
	sink, ok := c.reg.Sink(name)
	if !ok {
		return gctypes.NewError("SystemDeregisterSink", gctypes.NonExistent, fmt.Errorf("sink %q", name))
	}
	c.reg.MarkZombie(gctypes.KindSink, sink.ID)
	c.disp.Submit(trigger.Normal, gctypes.Trigger{
		Kind:    gctypes.TriggerSinkRemoved,
		Payload: gctypes.ElementLifecycleTrigger{Kind: gctypes.KindSink, Name: name},
	})
	return nil
}

// SystemRegisterGateway handles hookSystemRegisterGateway. Gateways have
// no independent lifecycle trigger of their own; they affect policy only
// through the topology a class resolves over them.
func (c *Controller) SystemRegisterGateway(name, sourceName, sinkName string) (gctypes.ElementID, error) {
	gw, err := c.reg.RegisterGateway(name, sourceName, sinkName)
	if err != nil {
		return 0, err
	}
	return gw.ID, nil
}

// -- synchronous query hooks --------------------------------------------------

// GetConnectionFormatChoice handles get_connection_format_choice: the
// daemon calls this synchronously, mid-route-resolution, to ask which of
// several connection formats it considers possible for a source/sink pair
// this controller prefers, returning them ordered most-preferred first.
// Unlike every hook above, it enqueues nothing; the daemon blocks on the
// return value before proceeding with its own route search. The generic
// controller has no format preference of its own, so it hands the
// daemon's list back untouched, same order.
func (c *Controller) GetConnectionFormatChoice(sourceName, sinkName string, possible []int16) []int16 {
	defer recordHook("GetConnectionFormatChoice", nil)
	ordered := make([]int16, len(possible))
	copy(ordered, possible)
	return ordered
}

// -- system-side state hooks -------------------------------------------------

// SystemSourceAvailabilityStateChange handles
// hookSystemSourceAvailablityStateChange.
func (c *Controller) SystemSourceAvailabilityStateChange(name string, avail gctypes.Availability) error {
	src, ok := c.reg.Source(name)
	if !ok {
		return gctypes.NewError("SystemSourceAvailabilityStateChange", gctypes.NonExistent, fmt.Errorf("source %q", name))
	}
	src.Availability = avail
	c.disp.Submit(trigger.Normal, gctypes.Trigger{
		Kind:    gctypes.TriggerSourceAvailabilityChanged,
		Payload: gctypes.AvailabilityChangedTrigger{Name: name, Availability: avail},
	})
	return nil
}

// SystemSinkAvailabilityStateChange handles
// hookSystemSinkAvailablityStateChange.
func (c *Controller) SystemSinkAvailabilityStateChange(name string, avail gctypes.Availability) error {
	sink, ok := c.reg.Sink(name)
	if !ok {
		return gctypes.NewError("SystemSinkAvailabilityStateChange", gctypes.NonExistent, fmt.Errorf("sink %q", name))
	}
	sink.Availability = avail
	c.disp.Submit(trigger.Normal, gctypes.Trigger{
		Kind:    gctypes.TriggerSinkAvailabilityChanged,
		Payload: gctypes.AvailabilityChangedTrigger{Name: name, Availability: avail},
	})
	return nil
}

// SystemInterruptStateChange handles hookSystemInterruptStateChange. The
// interrupt-state code is passed through as the daemon defines it; this
// module assigns it no policy of its own beyond forwarding it to whatever
// mixing rule wants to react.
func (c *Controller) SystemInterruptStateChange(sourceName string, state int16) error {
	if _, ok := c.reg.Source(sourceName); !ok {
		return gctypes.NewError("SystemInterruptStateChange", gctypes.NonExistent, fmt.Errorf("source %q", sourceName))
	}
	c.disp.Submit(trigger.Priority, gctypes.Trigger{
		Kind:    gctypes.TriggerSourceInterruptChange,
		Payload: gctypes.SourceInterruptChangeTrigger{SourceName: sourceName, State: state},
	})
	return nil
}

// -- daemon acknowledgment callbacks -----------------------------------------

// Acknowledge handles every cbAck* method CAmControlSend.h declares
// individually (cbAckConnect, cbAckDisconnect, cbAckSetSourceState,
// cbAckSetSinkVolumeChange, ...); since this module's Handle already
// tags which primitive it was minted for, one method suffices where the
// original needed one per primitive kind. result is nil for a
// successful acknowledgment, or the daemon's reported error otherwise.
func (c *Controller) Acknowledge(h gctypes.Handle, result error) {
	c.disp.Acknowledge(h, result)
}
