// Package registry implements C2: the authoritative, in-memory directory
// of every element the controller knows about (domains, sources, sinks,
// gateways, classes, route elements, and main connections), plus the
// owner/observer bookkeeping the action tree needs to decide whether a
// route element or source is safe to tear down. Grounded on
// original_source/PluginControlInterfaceGeneric's CAmSourceElement,
// CAmSinkElement, CAmClassElement, CAmRouteElement, and
// CAmMainConnectionElement, and on bittoy-rule/engine/chain.go's ChainCtx
// (a name-keyed map of nodes plus a separate relations map) as the shape
// for "a registry of named things with edges between them".
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/gc-audio/routingctl/gctypes"
)

// Domain is a registered audio domain (one per daemon-side plugin
// instance), the unit of connectivity failure: when a domain deregisters,
// every route element that crosses it becomes unusable.
type Domain struct {
	ID    gctypes.ElementID
	Name  string
	State gctypes.DomainState
}

// Source is a registered audio source.
type Source struct {
	ID           gctypes.ElementID
	Name         string
	DomainID     gctypes.ElementID
	State        gctypes.SourceState
	Availability gctypes.Availability
	Volume       int16
	// SoundProperties holds the last-known value of each sound property
	// type applied to this source, keyed by the daemon's property-type
	// code, so a SoundProperty leaf's Undo can restore the prior value.
	SoundProperties map[int16]int16
	zombie          bool
}

// Sink is a registered audio sink.
type Sink struct {
	ID              gctypes.ElementID
	Name            string
	DomainID        gctypes.ElementID
	Availability    gctypes.Availability
	Volume          int16
	Mute            gctypes.MuteState
	SoundProperties map[int16]int16
	zombie          bool
}

// Gateway bridges a source domain to a sink domain, carrying its own
// source/sink pair as far as routing is concerned.
type Gateway struct {
	ID       gctypes.ElementID
	Name     string
	SourceID gctypes.ElementID
	SinkID   gctypes.ElementID
}

// Class groups sources and sinks that may be connected together under one
// policy, along with the class's priority for contention between
// competing connection requests. Topologies holds one topology-grammar
// string per configured route shape, tried in order (first-configured
// wins); Gateways lists the gateways an ASTERISK token in a topology may
// match on this class's behalf.
type Class struct {
	ID         gctypes.ElementID
	Name       string
	Type       gctypes.ClassType
	Priority   int32
	Sources    []string
	Sinks      []string
	Topologies []string
	Gateways   []string
}

// RouteElement is a single hop in a resolved route: one source, one sink,
// directly connectable (possibly through a gateway already folded into
// the endpoints by the resolver), at a single connection format. Two
// route elements are the same hop, per I3, only when source, sink, and
// connection format all agree.
type RouteElement struct {
	ID               gctypes.ElementID
	SourceID         gctypes.ElementID
	SinkID           gctypes.ElementID
	DomainID         gctypes.ElementID
	ConnectionFormat int16
	State            gctypes.ConnectionState
	zombie           bool
}

// MainConnection is the user-visible, end-to-end connection between a
// source and a sink, realized over one or more RouteElements. MainVolume
// mirrors the connection's user-facing volume (kept in step with the main
// sink's volume on every connect completion). TransitionObservers is the
// set of container actions currently driving this connection through a
// non-terminal state (I5): the state only settles to a terminal value
// once the last observer unregisters.
type MainConnection struct {
	ID                  gctypes.ElementID
	Name                string
	SourceName          string
	SinkName            string
	ClassName           string
	State               gctypes.ConnectionState
	MainVolume          int16
	RouteElements       []gctypes.ElementID
	TransitionObservers map[string]struct{}
}

// RegisterObserver marks name (a container action's role, e.g. "connect")
// as actively driving this connection through a transition.
func (mc *MainConnection) RegisterObserver(name string) {
	mc.TransitionObservers[name] = struct{}{}
}

// UnregisterObserver removes name from the set of active transition
// observers.
func (mc *MainConnection) UnregisterObserver(name string) {
	delete(mc.TransitionObservers, name)
}

// HasObservers reports whether any transition observer is still
// registered against this connection.
func (mc *MainConnection) HasObservers() bool {
	return len(mc.TransitionObservers) > 0
}

// Registry is the in-memory store of every element above, keyed by name
// (the policy-facing handle) with a parallel ID index (the daemon-facing
// handle). It is not safe for concurrent use by itself beyond the
// dispatcher's own single-goroutine discipline; the mutex exists so
// read-only accessors (e.g. for the command-IPC gateway) can be called
// from another goroutine without racing the dispatcher.
type Registry struct {
	mu sync.RWMutex

	nextID gctypes.ElementID

	domains  map[string]*Domain
	sources  map[string]*Source
	sinks    map[string]*Sink
	gateways map[string]*Gateway
	classes  map[string]*Class

	routeElements   map[gctypes.ElementID]*RouteElement
	mainConnections map[string]*MainConnection

	// observers counts, per (kind, elementID), how many main connections
	// currently reference that element through a route. Grounded on
	// CAmElement::getObserverCount, used by the disconnect action tree to
	// decide whether a route element or source is safe to tear down.
	observers map[observerKey]int
}

type observerKey struct {
	kind gctypes.ElementKind
	id   gctypes.ElementID
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		domains:         make(map[string]*Domain),
		sources:         make(map[string]*Source),
		sinks:           make(map[string]*Sink),
		gateways:        make(map[string]*Gateway),
		classes:         make(map[string]*Class),
		routeElements:   make(map[gctypes.ElementID]*RouteElement),
		mainConnections: make(map[string]*MainConnection),
		observers:       make(map[observerKey]int),
	}
}

func (r *Registry) allocID() gctypes.ElementID {
	r.nextID++
	return r.nextID
}

// RegisterDomain adds or updates a domain by name.
func (r *Registry) RegisterDomain(name string) *Domain {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.domains[name]; ok {
		d.State = gctypes.DomainControlled
		return d
	}
	d := &Domain{ID: r.allocID(), Name: name, State: gctypes.DomainControlled}
	r.domains[name] = d
	return d
}

// DeregisterDomain removes a domain by name, reporting whether it existed.
func (r *Registry) DeregisterDomain(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.domains[name]; !ok {
		return false
	}
	delete(r.domains, name)
	return true
}

// RegisterSource adds a source under domainName.
func (r *Registry) RegisterSource(name, domainName string) (*Source, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sources[name]; exists {
		return nil, gctypes.NewError("RegisterSource", gctypes.AlreadyExists, nil)
	}
	dom, ok := r.domains[domainName]
	if !ok {
		return nil, gctypes.NewError("RegisterSource", gctypes.NonExistent, fmt.Errorf("domain %q", domainName))
	}
	s := &Source{ID: r.allocID(), Name: name, DomainID: dom.ID, State: gctypes.SourceOff, SoundProperties: make(map[int16]int16)}
	r.sources[name] = s
	return s, nil
}

// Source looks up a source by name.
func (r *Registry) Source(name string) (*Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sources[name]
	return s, ok
}

// RegisterSink adds a sink under domainName.
func (r *Registry) RegisterSink(name, domainName string) (*Sink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sinks[name]; exists {
		return nil, gctypes.NewError("RegisterSink", gctypes.AlreadyExists, nil)
	}
	dom, ok := r.domains[domainName]
	if !ok {
		return nil, gctypes.NewError("RegisterSink", gctypes.NonExistent, fmt.Errorf("domain %q", domainName))
	}
	s := &Sink{ID: r.allocID(), Name: name, DomainID: dom.ID, Mute: gctypes.Unmuted, SoundProperties: make(map[int16]int16)}
	r.sinks[name] = s
	return s, nil
}

// Sink looks up a sink by name.
func (r *Registry) Sink(name string) (*Sink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sinks[name]
	return s, ok
}

// SourceByID looks up a source by its daemon-facing ID, for callers (the
// dispatcher's disconnect action-tree builder) that only have a
// RouteElement's SourceID to start from.
func (r *Registry) SourceByID(id gctypes.ElementID) (*Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.sources {
		if s.ID == id {
			return s, true
		}
	}
	return nil, false
}

// SinkByID looks up a sink by its daemon-facing ID.
func (r *Registry) SinkByID(id gctypes.ElementID) (*Sink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.sinks {
		if s.ID == id {
			return s, true
		}
	}
	return nil, false
}

// ClassForPair finds the class that lists both sourceName and sinkName
// among its members, the lookup hookUserConnectionRequest performs on the
// daemon's behalf to derive a connection's class without the caller
// having to name one explicitly.
func (r *Registry) ClassForPair(sourceName, sinkName string) (*Class, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.classes {
		if containsName(c.Sources, sourceName) && containsName(c.Sinks, sinkName) {
			return c, true
		}
	}
	return nil, false
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// RegisterGateway adds a gateway linking a source to a sink, both of which
// must already be registered.
func (r *Registry) RegisterGateway(name, sourceName, sinkName string) (*Gateway, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	src, ok := r.sources[sourceName]
	if !ok {
		return nil, gctypes.NewError("RegisterGateway", gctypes.NonExistent, fmt.Errorf("source %q", sourceName))
	}
	sink, ok := r.sinks[sinkName]
	if !ok {
		return nil, gctypes.NewError("RegisterGateway", gctypes.NonExistent, fmt.Errorf("sink %q", sinkName))
	}
	g := &Gateway{ID: r.allocID(), Name: name, SourceID: src.ID, SinkID: sink.ID}
	r.gateways[name] = g
	return g, nil
}

// Gateway looks up a gateway by name, for the resolver's named
// GATEWAY:<name> topology tokens.
func (r *Registry) Gateway(name string) (*Gateway, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.gateways[name]
	return g, ok
}

// RegisterClass adds a connection class.
func (r *Registry) RegisterClass(c Class) (*Class, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.classes[c.Name]; exists {
		return nil, gctypes.NewError("RegisterClass", gctypes.AlreadyExists, nil)
	}
	c.ID = r.allocID()
	stored := c
	r.classes[c.Name] = &stored
	return &stored, nil
}

// Class looks up a class by name.
func (r *Registry) Class(name string) (*Class, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.classes[name]
	return c, ok
}

// NewRouteElement allocates a route element between a source and sink in
// the given domain at the given connection format. Domain 0 marks a
// route element with no live domain backing it (the original's
// convention for a domain that has since deregistered); such elements are
// skipped entirely by the disconnect action tree rather than torn down.
func (r *Registry) NewRouteElement(sourceID, sinkID, domainID gctypes.ElementID, connectionFormat int16) *RouteElement {
	r.mu.Lock()
	defer r.mu.Unlock()
	re := &RouteElement{ID: r.allocID(), SourceID: sourceID, SinkID: sinkID, DomainID: domainID, ConnectionFormat: connectionFormat, State: gctypes.ConnDisconnected}
	r.routeElements[re.ID] = re
	return re
}

// RouteElement looks up a route element by ID.
func (r *Registry) RouteElement(id gctypes.ElementID) (*RouteElement, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	re, ok := r.routeElements[id]
	return re, ok
}

// FindRouteElement looks up an existing, non-zombie route element sharing
// I3's dedup key (source-id, sink-id, connection-format), so two main
// connections whose resolved hops land on the same (source, sink, format)
// triple share one RouteElement instead of each minting their own.
func (r *Registry) FindRouteElement(sourceID, sinkID gctypes.ElementID, connectionFormat int16) (*RouteElement, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, re := range r.routeElements {
		if re.SourceID == sourceID && re.SinkID == sinkID && re.ConnectionFormat == connectionFormat && !re.zombie {
			return re, true
		}
	}
	return nil, false
}

// NewMainConnection allocates and registers a main connection. The name
// is synthesized the way the original names connections:
// "sourceName-sinkName".
func (r *Registry) NewMainConnection(sourceName, sinkName, className string, routeElements []gctypes.ElementID) *MainConnection {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := sourceName + "-" + sinkName
	mc := &MainConnection{
		ID:                  r.allocID(),
		Name:                name,
		SourceName:          sourceName,
		SinkName:            sinkName,
		ClassName:           className,
		State:               gctypes.ConnDisconnected,
		RouteElements:       routeElements,
		TransitionObservers: make(map[string]struct{}),
	}
	r.mainConnections[name] = mc
	for _, reID := range routeElements {
		r.addObserverLocked(gctypes.KindRouteElement, reID)
		if re, ok := r.routeElements[reID]; ok {
			r.addObserverLocked(gctypes.KindSource, re.SourceID)
		}
	}
	return mc
}

// MainConnection looks up a main connection by its synthesized name.
func (r *Registry) MainConnection(name string) (*MainConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	mc, ok := r.mainConnections[name]
	return mc, ok
}

// MainConnectionsForClass returns every main connection belonging to
// className, ordered by name for determinism, the set ActionDisconnect's
// class-level container selects from.
func (r *Registry) MainConnectionsForClass(className string) []*MainConnection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*MainConnection
	for _, mc := range r.mainConnections {
		if mc.ClassName == className {
			out = append(out, mc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// MainConnectionsForSink returns every main connection terminating at
// sinkName, ordered by name for determinism, used to decide whether a
// higher-priority class already holds a sink a lower-priority class is
// trying to connect to.
func (r *Registry) MainConnectionsForSink(sinkName string) []*MainConnection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*MainConnection
	for _, mc := range r.mainConnections {
		if mc.SinkName == sinkName {
			out = append(out, mc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// RemoveMainConnection releases a main connection's observer references
// on its route elements and sources, and deletes it from the registry.
// Grounded on CAmMainConnectionElement's destructor releasing its held
// route element references.
func (r *Registry) RemoveMainConnection(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	mc, ok := r.mainConnections[name]
	if !ok {
		return
	}
	for _, reID := range mc.RouteElements {
		r.removeObserverLocked(gctypes.KindRouteElement, reID)
		if re, ok := r.routeElements[reID]; ok {
			r.removeObserverLocked(gctypes.KindSource, re.SourceID)
		}
	}
	delete(r.mainConnections, name)
}

func (r *Registry) addObserverLocked(kind gctypes.ElementKind, id gctypes.ElementID) {
	r.observers[observerKey{kind, id}]++
}

func (r *Registry) removeObserverLocked(kind gctypes.ElementKind, id gctypes.ElementID) {
	k := observerKey{kind, id}
	if r.observers[k] > 0 {
		r.observers[k]--
	}
	if r.observers[k] == 0 {
		delete(r.observers, k)
	}
}

// ObserverCount reports how many main connections currently reference the
// given element (a route element or a source) through their routes.
// Grounded on CAmElement::getObserverCount, which the disconnect action
// tree consults before tearing down a shared route element or source.
func (r *Registry) ObserverCount(kind gctypes.ElementKind, id gctypes.ElementID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.observers[observerKey{kind, id}]
}

// MarkZombie flags an element as pending deferred destruction; Reap
// removes it later (see DESIGN.md Open Question 2).
func (r *Registry) MarkZombie(kind gctypes.ElementKind, id gctypes.ElementID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch kind {
	case gctypes.KindRouteElement:
		if re, ok := r.routeElements[id]; ok {
			re.zombie = true
		}
	case gctypes.KindSource:
		for _, s := range r.sources {
			if s.ID == id {
				s.zombie = true
			}
		}
	case gctypes.KindSink:
		for _, s := range r.sinks {
			if s.ID == id {
				s.zombie = true
			}
		}
	}
}

// IsZombie reports whether the given element has been marked for deferred
// destruction.
func (r *Registry) IsZombie(kind gctypes.ElementKind, id gctypes.ElementID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	switch kind {
	case gctypes.KindRouteElement:
		if re, ok := r.routeElements[id]; ok {
			return re.zombie
		}
	case gctypes.KindSource:
		for _, s := range r.sources {
			if s.ID == id {
				return s.zombie
			}
		}
	case gctypes.KindSink:
		for _, s := range r.sinks {
			if s.ID == id {
				return s.zombie
			}
		}
	}
	return false
}

// Reap permanently removes a zombie element once no handle is outstanding
// against it. handleCount is supplied by the caller (typically
// handlestore.Store.CountFor) rather than imported directly, keeping
// registry free of a dependency on handlestore.
func (r *Registry) Reap(kind gctypes.ElementKind, id gctypes.ElementID, handleCount int) bool {
	if handleCount > 0 || !r.IsZombie(kind, id) {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	switch kind {
	case gctypes.KindRouteElement:
		delete(r.routeElements, id)
	case gctypes.KindSource:
		for name, s := range r.sources {
			if s.ID == id {
				delete(r.sources, name)
			}
		}
	case gctypes.KindSink:
		for name, s := range r.sinks {
			if s.ID == id {
				delete(r.sinks, name)
			}
		}
	}
	return true
}
