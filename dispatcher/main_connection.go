package dispatcher

import (
	"context"
	"fmt"

	"github.com/gc-audio/routingctl/actions/container"
	"github.com/gc-audio/routingctl/actions/leaf"
	"github.com/gc-audio/routingctl/gctypes"
	"github.com/gc-audio/routingctl/policy"
	"github.com/gc-audio/routingctl/registry"
)

// orderedHopIndices returns the order route elements should be driven in:
// forward (source-to-sink) when dir is DirSourceToSink, reverse
// (sink-most-first) otherwise, matching connect's default direction.
func orderedHopIndices(n int, dir gctypes.SetSourceStateDirection) []int {
	idx := make([]int, n)
	if dir == gctypes.DirSourceToSink {
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	for i := range idx {
		idx[i] = n - 1 - i
	}
	return idx
}

type mainConnectParams struct {
	SourceName string                          `mapstructure:"sourceName"`
	SinkName   string                          `mapstructure:"sinkName"`
	ClassName  string                          `mapstructure:"className"`
	Direction  gctypes.SetSourceStateDirection `mapstructure:"direction"`
}

// buildMainConnect resolves a route between the descriptor's source and
// sink, reusing an existing shared RouteElement for any (source, sink,
// connection-format) triple a hop lands on (I3) rather than always
// minting a fresh one, and registering a new MainConnection the first
// time a given (source, sink) pair connects. A competing, non-terminal
// main connection already holding the sink from a higher-priority class
// refuses the new connect outright. Grounded on CAmClassElement::connect's
// resolve-then-build-action-tree sequence and on
// CAmRouterMap::getActiveRoute's route-element reuse.
func (d *Dispatcher) buildMainConnect(ctx context.Context, desc policy.ActionDescriptor) (gctypes.Action, error) {
	var p mainConnectParams
	if err := desc.Params.Decode(&p); err != nil {
		return nil, gctypes.NewError("buildMainConnect", gctypes.NotPossible, err)
	}
	if p.SourceName == "" || p.SinkName == "" || p.ClassName == "" {
		return nil, gctypes.NewError("buildMainConnect", gctypes.NotPossible,
			fmt.Errorf("mainConnect requires sourceName, sinkName, and className params"))
	}

	class, ok := d.reg.Class(p.ClassName)
	if !ok {
		return nil, gctypes.NewError("buildMainConnect", gctypes.NonExistent, fmt.Errorf("class %q", p.ClassName))
	}

	connName := p.SourceName + "-" + p.SinkName
	for _, other := range d.reg.MainConnectionsForSink(p.SinkName) {
		if other.Name == connName || other.State == gctypes.ConnDisconnected {
			continue
		}
		if otherClass, ok := d.reg.Class(other.ClassName); ok && otherClass.Priority > class.Priority {
			return nil, gctypes.NewError("buildMainConnect", gctypes.NotPossible,
				fmt.Errorf("sink %q is already held by higher-priority class %q", p.SinkName, otherClass.Name))
		}
	}

	hops, err := d.resolve.Resolve(ctx, p.SourceName, p.SinkName, p.ClassName)
	if err != nil {
		return nil, err
	}
	if !d.resolve.Available(hops) {
		return nil, gctypes.NewError("buildMainConnect", gctypes.NotPossible,
			fmt.Errorf("route from %q to %q is unavailable", p.SourceName, p.SinkName))
	}

	mc, existed := d.reg.MainConnection(connName)
	routeElements := make([]*registry.RouteElement, len(hops))
	if existed {
		if len(mc.RouteElements) != len(hops) {
			return nil, gctypes.NewError("buildMainConnect", gctypes.DatabaseError,
				fmt.Errorf("stale route element count for %q", connName))
		}
		for i, id := range mc.RouteElements {
			re, ok := d.reg.RouteElement(id)
			if !ok {
				return nil, gctypes.NewError("buildMainConnect", gctypes.DatabaseError,
					fmt.Errorf("route element %d vanished for %q", id, connName))
			}
			routeElements[i] = re
		}
	} else {
		ids := make([]gctypes.ElementID, len(hops))
		for i, hop := range hops {
			re, ok := d.reg.FindRouteElement(hop.SourceID, hop.SinkID, hop.ConnectionFormat)
			if !ok {
				re = d.reg.NewRouteElement(hop.SourceID, hop.SinkID, hop.DomainID, hop.ConnectionFormat)
			}
			ids[i] = re.ID
			routeElements[i] = re
		}
		mc = d.reg.NewMainConnection(p.SourceName, p.SinkName, p.ClassName, ids)
	}

	order := orderedHopIndices(len(hops), p.Direction)
	children := make([]gctypes.Action, 0, len(hops)*2)
	for _, i := range order {
		children = append(children, leaf.NewRouteActionConnect(d.ctl, d.handles, d.reg, routeElements[i], d.cfg))
	}
	for _, i := range order {
		src, ok := d.reg.SourceByID(hops[i].SourceID)
		if !ok {
			continue
		}
		children = append(children, leaf.NewSourceActionSetState(d.ctl, d.handles, src, gctypes.SourceOn, d.cfg))
	}

	connect := container.NewMainConnectionActionConnect(mc, d.reg, p.Direction, d.cfg.Logger, children...)
	return container.NewClassActionConnect(class, d.cfg.Logger, connect), nil
}

type disconnectParams struct {
	ConnectionName string `mapstructure:"connectionName"`
}

// buildMainDisconnect tears down a main connection's route elements and
// sources, skipping any that are still referenced by another main
// connection and any route element on domain 0. Grounded file-for-file on
// CAmMainConnectionActionDisconnect.cpp's shared-element gates.
func (d *Dispatcher) buildMainDisconnect(desc policy.ActionDescriptor) (gctypes.Action, error) {
	var p disconnectParams
	if err := desc.Params.Decode(&p); err != nil {
		return nil, gctypes.NewError("buildMainDisconnect", gctypes.NotPossible, err)
	}
	connName := p.ConnectionName
	if connName == "" {
		connName = desc.Target
	}
	mc, ok := d.reg.MainConnection(connName)
	if !ok {
		return nil, gctypes.NewError("buildMainDisconnect", gctypes.NonExistent, fmt.Errorf("main connection %q", connName))
	}

	children := make([]gctypes.Action, 0, len(mc.RouteElements)*2)
	for i := len(mc.RouteElements) - 1; i >= 0; i-- {
		re, ok := d.reg.RouteElement(mc.RouteElements[i])
		if !ok || re.DomainID == 0 {
			continue
		}
		if d.reg.ObserverCount(gctypes.KindRouteElement, re.ID) <= 1 {
			children = append(children, leaf.NewRouteActionDisconnect(d.ctl, d.handles, d.reg, re, d.cfg))
		}
		if src, ok := d.reg.SourceByID(re.SourceID); ok && d.reg.ObserverCount(gctypes.KindSource, src.ID) <= 1 {
			children = append(children, leaf.NewSourceActionSetState(d.ctl, d.handles, src, gctypes.SourceOff, d.cfg))
		}
	}

	return container.NewMainConnectionActionDisconnect(mc, d.cfg.Logger, children...), nil
}

type classDisconnectParams struct {
	SourceName string `mapstructure:"sourceName"`
	SinkName   string `mapstructure:"sinkName"`
}

// buildClassDisconnect tears down every main connection belonging to
// desc.Target's class, optionally narrowed to those matching a given
// source or sink name, the class-wide teardown a "one active connection
// per class" policy issues before establishing a new one. Grounded on
// CAmClassElement::disconnect, which walks its class's held connections
// rather than a single named one.
func (d *Dispatcher) buildClassDisconnect(desc policy.ActionDescriptor) (gctypes.Action, error) {
	class, ok := d.reg.Class(desc.Target)
	if !ok {
		return nil, gctypes.NewError("buildClassDisconnect", gctypes.NonExistent, fmt.Errorf("class %q", desc.Target))
	}
	var p classDisconnectParams
	if err := desc.Params.Decode(&p); err != nil {
		return nil, gctypes.NewError("buildClassDisconnect", gctypes.NotPossible, err)
	}

	var children []gctypes.Action
	for _, mc := range d.reg.MainConnectionsForClass(class.Name) {
		if mc.State == gctypes.ConnDisconnected {
			continue
		}
		if p.SourceName != "" && mc.SourceName != p.SourceName {
			continue
		}
		if p.SinkName != "" && mc.SinkName != p.SinkName {
			continue
		}
		a, err := d.buildMainDisconnect(policy.ActionDescriptor{Target: mc.Name})
		if err != nil {
			return nil, err
		}
		children = append(children, a)
	}

	return container.NewClassActionDisconnect(class, d.cfg.Logger, children...), nil
}

// buildMainSuspend pauses an established main connection's sources
// without tearing down its route. Grounded on
// CAmMainConnectionActionSuspend.cpp.
func (d *Dispatcher) buildMainSuspend(desc policy.ActionDescriptor) (gctypes.Action, error) {
	var p disconnectParams
	if err := desc.Params.Decode(&p); err != nil {
		return nil, gctypes.NewError("buildMainSuspend", gctypes.NotPossible, err)
	}
	connName := p.ConnectionName
	if connName == "" {
		connName = desc.Target
	}
	mc, ok := d.reg.MainConnection(connName)
	if !ok {
		return nil, gctypes.NewError("buildMainSuspend", gctypes.NonExistent, fmt.Errorf("main connection %q", connName))
	}

	children := make([]gctypes.Action, 0, len(mc.RouteElements))
	for _, reID := range mc.RouteElements {
		re, ok := d.reg.RouteElement(reID)
		if !ok {
			continue
		}
		if src, ok := d.reg.SourceByID(re.SourceID); ok {
			children = append(children, leaf.NewSourceActionSetState(d.ctl, d.handles, src, gctypes.SourcePaused, d.cfg))
		}
	}

	return container.NewMainConnectionActionSuspend(mc, d.cfg.Logger, children...), nil
}
