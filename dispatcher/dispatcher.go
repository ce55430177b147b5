// Package dispatcher implements C7: the pump loop that drains
// trigger.Queue, asks a policy.Engine what to do about each trigger,
// builds the resulting action tree, and drives it through Root to
// completion. Grounded on bittoy-rule's engine/chain_engine.go
// ChainEngine.OnMsg, which wraps a single message's
// execution in the same five-step shape this package generalizes: pop one
// unit of work, resolve what runs, execute it, record metrics around the
// execution, and react to the outcome before considering the next unit of
// work. Unlike ChainEngine (which can run concurrent chains), this
// dispatcher drives exactly one action tree at a time through the single
// Root singleton, matching original_source/CAmRootAction's process-wide
// exclusivity: a trigger that produces a WaitForChild tree occupies Root
// until every leaf in it resolves before the next queued trigger starts.
package dispatcher

import (
	"context"
	"fmt"
	"time"

	"github.com/gc-audio/routingctl/actions/container"
	"github.com/gc-audio/routingctl/actions/leaf"
	"github.com/gc-audio/routingctl/daemon"
	"github.com/gc-audio/routingctl/gctypes"
	"github.com/gc-audio/routingctl/handlestore"
	"github.com/gc-audio/routingctl/metrics"
	"github.com/gc-audio/routingctl/policy"
	"github.com/gc-audio/routingctl/registry"
	"github.com/gc-audio/routingctl/resolver"
	"github.com/gc-audio/routingctl/trigger"
)

type mailKind int

const (
	mailWake mailKind = iota
	mailAck
	mailTimeout
)

type mailItem struct {
	kind   mailKind
	handle gctypes.Handle
	result error
}

// Dispatcher owns the single-goroutine pump: every mutation of the
// registry, the action tree, or the handle store happens on the goroutine
// running Run, reached either by draining trigger.Queue or by a mailItem
// arriving on mailbox. Submit, SubmitTop and Acknowledge, plus the handle
// store's timeout callback (postTimeout), are the only thread-safe entry
// points meant to be called from other goroutines (a daemon transport, an
// IPC gateway, or a timer callback).
type Dispatcher struct {
	queue    *trigger.Queue
	policy   policy.Engine
	reg      *registry.Registry
	resolve  *resolver.Resolver
	handles  *handlestore.Store
	ctl      daemon.ControlReceive
	cfg      gctypes.Config
	root    *container.Root
	mailbox chan mailItem
	active  gctypes.Trigger

	// notify, when set, is called with every connectionStateChange
	// trigger emitTerminalTrigger produces, alongside pushing it onto the
	// queue. ipc.MQTTGateway uses this to republish state changes to
	// command clients without the dispatcher needing to know anything
	// about MQTT.
	notify func(gctypes.ConnectionStateChangeTrigger)
}

// OnConnectionStateChange registers fn to be called, on the pump
// goroutine, with every connectionStateChange trigger this dispatcher
// emits. Only one observer is supported; a later call replaces the
// earlier one.
func (d *Dispatcher) OnConnectionStateChange(fn func(gctypes.ConnectionStateChangeTrigger)) {
	d.notify = fn
}

// New wires a Dispatcher from its collaborators, constructing its own
// handlestore.Store so its onTimeout callback can marshal the timeout
// back onto the dispatcher's own goroutine (mailTimeout) rather than
// calling into the action tree directly from the timer's own goroutine,
// per handlestore.Store's doc comment.
func New(q *trigger.Queue, pol policy.Engine, reg *registry.Registry, res *resolver.Resolver, ctl daemon.ControlReceive, cfg gctypes.Config) *Dispatcher {
	d := &Dispatcher{
		queue:   q,
		policy:  pol,
		reg:     reg,
		resolve: res,
		ctl:     ctl,
		cfg:     cfg,
		root:    container.NewRoot(cfg.Logger),
		mailbox: make(chan mailItem, 1),
	}
	d.handles = handlestore.New(cfg.Clock, d.postTimeout)
	return d
}

// Handles returns the handle store this dispatcher and its built actions
// share, so a controller.Controller can resolve daemon-originated
// acknowledgments against the same store the actions were issued from.
func (d *Dispatcher) Handles() *handlestore.Store { return d.handles }

// Submit enqueues t on the given lane and wakes the pump if it is idle.
// Safe to call from any goroutine.
func (d *Dispatcher) Submit(lane trigger.Lane, t gctypes.Trigger) {
	d.queue.Push(lane, t)
	d.wake()
}

// SubmitTop enqueues t at the front of its lane; see trigger.Queue.PushTop.
func (d *Dispatcher) SubmitTop(lane trigger.Lane, t gctypes.Trigger) {
	d.queue.PushTop(lane, t)
	d.wake()
}

func (d *Dispatcher) wake() {
	select {
	case d.mailbox <- mailItem{kind: mailWake}:
	default:
		// a wake is already pending; the pump will drain the queue dry on
		// its next iteration regardless, so coalescing is safe.
	}
}

// postTimeout runs on the handle store's timer goroutine and blocks until
// the pump takes the item, the same way Acknowledge does.
func (d *Dispatcher) postTimeout(h gctypes.Handle) {
	d.mailbox <- mailItem{kind: mailTimeout, handle: h}
}

// Acknowledge delivers a daemon primitive's outcome for h. Safe to call
// from any goroutine (typically controller.Controller.Acknowledge); the
// actual state mutation happens on the pump goroutine.
func (d *Dispatcher) Acknowledge(h gctypes.Handle, result error) {
	d.mailbox <- mailItem{kind: mailAck, handle: h, result: result}
}

// Run drains the mailbox until ctx is canceled. Exactly one goroutine
// should call Run for a given Dispatcher.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case item := <-d.mailbox:
			switch item.kind {
			case mailAck:
				d.handleAck(ctx, item.handle, item.result)
			case mailTimeout:
				d.handleTimeout(ctx, item.handle)
			case mailWake:
				d.step(ctx)
			}
		}
	}
}

// step is the five-step pump body: pop the next trigger (if Root is free),
// evaluate policy, build the action tree, execute it, and react to the
// outcome.
func (d *Dispatcher) step(ctx context.Context) {
	for {
		if busy := d.root.Status(); busy == gctypes.ActionExecuting || busy == gctypes.ActionWaitingForChildren {
			return
		}
		t, ok := d.queue.Pop()
		if !ok {
			return
		}
		d.dispatchTrigger(ctx, t)
		if !d.rootSettled() {
			return
		}
	}
}

func (d *Dispatcher) rootSettled() bool {
	s := d.root.Status()
	return s != gctypes.ActionExecuting && s != gctypes.ActionWaitingForChildren
}

func (d *Dispatcher) dispatchTrigger(ctx context.Context, t gctypes.Trigger) {
	start := time.Now()
	defer func() {
		metrics.DispatchDuration.WithLabelValues(t.Kind.String()).Observe(time.Since(start).Seconds())
	}()

	descriptors, err := d.policy.Evaluate(ctx, t)
	if err != nil {
		metrics.DispatchErrors.WithLabelValues(t.Kind.String(), "policy").Inc()
		d.cfg.Logger.Printf("dispatcher: policy evaluation failed for %s: %v", t.Kind, err)
		return
	}
	if len(descriptors) == 0 {
		return
	}

	actions, err := d.build(ctx, descriptors)
	if err != nil {
		metrics.DispatchErrors.WithLabelValues(t.Kind.String(), "build").Inc()
		d.cfg.Logger.Printf("dispatcher: action build failed for %s: %v", t.Kind, err)
		return
	}

	d.active = t
	d.root.Cleanup()
	d.root.SetChildren(actions)
	err = d.root.Execute(ctx)
	d.afterRootStep(ctx, t.Kind, err)
}

func (d *Dispatcher) handleAck(ctx context.Context, h gctypes.Handle, result error) {
	d.handles.Resolve(ctx, h, result)
	err := d.root.Acknowledge(ctx, h, result)
	d.afterRootStep(ctx, d.active.Kind, err)
}

func (d *Dispatcher) handleTimeout(ctx context.Context, h gctypes.Handle) {
	d.handles.Timeout(ctx, h)
	err := d.root.Timeout(ctx, h)
	d.afterRootStep(ctx, d.active.Kind, err)
}

// afterRootStep reacts to Root's latest Execute/Acknowledge/Timeout
// result: if it's still waiting, nothing more happens until the next
// mailbox item; otherwise the dispatcher records the terminal outcome,
// reclaims Root for the next trigger, and resumes the pump inline so a
// burst of already-queued triggers doesn't each need its own wake.
func (d *Dispatcher) afterRootStep(ctx context.Context, kind gctypes.TriggerKind, err error) {
	if gctypes.ErrWaitForChild(err) {
		return
	}
	if err != nil {
		metrics.DispatchErrors.WithLabelValues(kind.String(), "execute").Inc()
		d.cfg.Logger.Printf("dispatcher: action tree for %s failed: %v", kind, err)
	}
	d.emitTerminalTrigger()
	d.root.Cleanup()
	d.step(ctx)
}

// emitTerminalTrigger pushes a connectionStateChange trigger describing
// the outcome of the just-completed main-connection action, the way the
// original's action containers fire a gc_ConnectionStateChangeTrigger
// once their _update reaches a terminal status. Triggers that didn't
// target a main connection (volume/property/mute leaves) have nothing to
// report here.
func (d *Dispatcher) emitTerminalTrigger() {
	var connName string
	switch p := d.active.Payload.(type) {
	case gctypes.ConnectTrigger:
		connName = p.SourceName + "-" + p.SinkName
	case gctypes.ClassConnectTrigger:
		connName = p.SourceName + "-" + p.SinkName
	case gctypes.DisconnectTrigger:
		connName = p.ConnectionName
	default:
		return
	}
	mc, ok := d.reg.MainConnection(connName)
	if !ok {
		return
	}
	payload := gctypes.ConnectionStateChangeTrigger{
		ConnectionName: connName,
		State:          mc.State,
	}
	d.queue.PushTop(trigger.Priority, gctypes.Trigger{
		Kind:    gctypes.TriggerConnectionStateChange,
		Payload: payload,
	})
	if d.notify != nil {
		d.notify(payload)
	}
}

// build realizes each policy.ActionDescriptor into a concrete
// gctypes.Action, in order.
func (d *Dispatcher) build(ctx context.Context, descriptors []policy.ActionDescriptor) ([]gctypes.Action, error) {
	actions := make([]gctypes.Action, 0, len(descriptors))
	for _, desc := range descriptors {
		a, err := d.buildOne(ctx, desc)
		if err != nil {
			return nil, err
		}
		if a != nil {
			actions = append(actions, a)
		}
	}
	return actions, nil
}

func (d *Dispatcher) buildOne(ctx context.Context, desc policy.ActionDescriptor) (gctypes.Action, error) {
	switch desc.Kind {
	case policy.ActionClassConnect, policy.ActionMainConnect:
		return d.buildMainConnect(ctx, desc)
	case policy.ActionMainDisconnect:
		return d.buildMainDisconnect(desc)
	case policy.ActionMainSuspend:
		return d.buildMainSuspend(desc)
	case policy.ActionClassDisconnect:
		return d.buildClassDisconnect(desc)
	case policy.ActionVolumeSequence:
		return d.buildVolumeSequence(ctx, desc)
	case policy.ActionSourceSetState:
		return d.buildSourceSetState(desc)
	case policy.ActionSinkVolume:
		return d.buildSinkVolume(desc)
	case policy.ActionSourceVolume:
		return d.buildSourceVolume(desc)
	case policy.ActionSinkSoundProp:
		return d.buildSinkSoundProperty(desc)
	case policy.ActionSourceSoundProp:
		return d.buildSourceSoundProperty(desc)
	case policy.ActionSinkNotification:
		return d.buildSinkNotification(desc)
	case policy.ActionSourceNotification:
		return d.buildSourceNotification(desc)
	case policy.ActionMute:
		return d.buildMute(desc)
	default:
		return nil, gctypes.NewError("dispatcher.build", gctypes.NotPossible, fmt.Errorf("unknown action kind %q", desc.Kind))
	}
}

// buildVolumeSequence realizes each of desc.Nested independently and wraps
// them in a container.VolumeChangeSequencer, the composite kind a mixing
// policy uses to batch a set of volume/property leaves (e.g. ducking one
// source while raising another) under one action-tree node.
func (d *Dispatcher) buildVolumeSequence(ctx context.Context, desc policy.ActionDescriptor) (gctypes.Action, error) {
	children := make([]gctypes.Action, 0, len(desc.Nested))
	for _, nd := range desc.Nested {
		a, err := d.buildOne(ctx, nd)
		if err != nil {
			return nil, err
		}
		if a != nil {
			children = append(children, a)
		}
	}
	return container.NewVolumeChangeSequencer(d.cfg.Logger, children...), nil
}

func (d *Dispatcher) buildSinkVolume(desc policy.ActionDescriptor) (gctypes.Action, error) {
	sink, ok := d.reg.Sink(desc.Target)
	if !ok {
		return nil, gctypes.NewError("buildSinkVolume", gctypes.NonExistent, fmt.Errorf("sink %q", desc.Target))
	}
	return leaf.NewSinkVolume(d.ctl, d.handles, sink, desc.Params, d.cfg)
}

func (d *Dispatcher) buildSourceVolume(desc policy.ActionDescriptor) (gctypes.Action, error) {
	source, ok := d.reg.Source(desc.Target)
	if !ok {
		return nil, gctypes.NewError("buildSourceVolume", gctypes.NonExistent, fmt.Errorf("source %q", desc.Target))
	}
	return leaf.NewSourceVolume(d.ctl, d.handles, source, desc.Params, d.cfg)
}

func (d *Dispatcher) buildSinkSoundProperty(desc policy.ActionDescriptor) (gctypes.Action, error) {
	sink, ok := d.reg.Sink(desc.Target)
	if !ok {
		return nil, gctypes.NewError("buildSinkSoundProperty", gctypes.NonExistent, fmt.Errorf("sink %q", desc.Target))
	}
	return leaf.NewSinkSoundProperty(d.ctl, d.handles, sink, desc.Params, d.cfg)
}

func (d *Dispatcher) buildSourceSoundProperty(desc policy.ActionDescriptor) (gctypes.Action, error) {
	source, ok := d.reg.Source(desc.Target)
	if !ok {
		return nil, gctypes.NewError("buildSourceSoundProperty", gctypes.NonExistent, fmt.Errorf("source %q", desc.Target))
	}
	return leaf.NewSourceSoundProperty(d.ctl, d.handles, source, desc.Params, d.cfg)
}

func (d *Dispatcher) buildSinkNotification(desc policy.ActionDescriptor) (gctypes.Action, error) {
	sink, ok := d.reg.Sink(desc.Target)
	if !ok {
		return nil, gctypes.NewError("buildSinkNotification", gctypes.NonExistent, fmt.Errorf("sink %q", desc.Target))
	}
	return leaf.NewSinkNotificationConfiguration(d.ctl, d.handles, sink, desc.Params, d.cfg)
}

func (d *Dispatcher) buildSourceNotification(desc policy.ActionDescriptor) (gctypes.Action, error) {
	source, ok := d.reg.Source(desc.Target)
	if !ok {
		return nil, gctypes.NewError("buildSourceNotification", gctypes.NonExistent, fmt.Errorf("source %q", desc.Target))
	}
	return leaf.NewSourceNotificationConfiguration(d.ctl, d.handles, source, desc.Params, d.cfg)
}

func (d *Dispatcher) buildMute(desc policy.ActionDescriptor) (gctypes.Action, error) {
	sink, ok := d.reg.Sink(desc.Target)
	if !ok {
		return nil, gctypes.NewError("buildMute", gctypes.NonExistent, fmt.Errorf("sink %q", desc.Target))
	}
	return leaf.NewMute(d.ctl, d.handles, sink, desc.Params, d.cfg)
}

func (d *Dispatcher) buildSourceSetState(desc policy.ActionDescriptor) (gctypes.Action, error) {
	source, ok := d.reg.Source(desc.Target)
	if !ok {
		return nil, gctypes.NewError("buildSourceSetState", gctypes.NonExistent, fmt.Errorf("source %q", desc.Target))
	}
	var p struct {
		State gctypes.SourceState `mapstructure:"sourceState"`
	}
	if err := desc.Params.Decode(&p); err != nil {
		return nil, gctypes.NewError("buildSourceSetState", gctypes.NotPossible, err)
	}
	return leaf.NewSourceActionSetState(d.ctl, d.handles, source, p.State, d.cfg), nil
}
