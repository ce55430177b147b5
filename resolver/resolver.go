// Package resolver implements C3: the route-resolution algorithm a class
// connect request runs before any action is built. It asks the daemon
// which routes it considers possible between a source and a sink, then
// walks the class's configured topologies looking for one whose token
// grammar (SOURCE, SINK, GATEWAY:<name-or-*>, and bracketed optional
// blocks) produces a node sequence matching one of the daemon's
// candidates hop for hop. Grounded on
// original_source/PluginControlInterfaceGeneric/src/CAmRouteElement.cpp
// and CAmClassElement.cpp's getRoute()/tokenizeTopologyString() pair, and
// on bittoy-rule/engine/parser.go's JsonParser.DecodeChain idiom of
// tokenizing a chain definition before walking it.
package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/gc-audio/routingctl/daemon"
	"github.com/gc-audio/routingctl/gctypes"
	"github.com/gc-audio/routingctl/registry"
)

// Hop is one resolved leg of a route: a source-sink pair already pinned
// to the domain and connection format the daemon's matched route
// reported for it (possibly through a gateway already folded into the
// endpoints).
type Hop struct {
	SourceID         gctypes.ElementID
	SinkID           gctypes.ElementID
	DomainID         gctypes.ElementID
	ConnectionFormat int16
}

type tokenKind int

const (
	tokSource tokenKind = iota
	tokSink
	tokGateway
	tokLBracket
	tokRBracket
)

type token struct {
	kind tokenKind
	name string // gateway name, or "*" for an ASTERISK wildcard
}

// Topology is a class's parsed topology grammar: SOURCE, SINK,
// GATEWAY:<name>, GATEWAY:*, and balanced [ ] blocks whose gateway, if
// missing, causes the whole block to be skipped rather than failing the
// topology outright.
type Topology struct {
	tokens []token
}

// ParseTopology tokenizes a topology string. An empty string parses to
// the implicit direct topology "SOURCE SINK", the shape every class
// without a configured topology resolves against.
func ParseTopology(raw string) Topology {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Topology{tokens: []token{{kind: tokSource}, {kind: tokSink}}}
	}
	fields := strings.Fields(raw)
	tokens := make([]token, 0, len(fields))
	for _, f := range fields {
		switch {
		case f == "SOURCE":
			tokens = append(tokens, token{kind: tokSource})
		case f == "SINK":
			tokens = append(tokens, token{kind: tokSink})
		case f == "[":
			tokens = append(tokens, token{kind: tokLBracket})
		case f == "]":
			tokens = append(tokens, token{kind: tokRBracket})
		case strings.HasPrefix(f, "GATEWAY:"):
			tokens = append(tokens, token{kind: tokGateway, name: strings.TrimPrefix(f, "GATEWAY:")})
		}
	}
	return Topology{tokens: tokens}
}

func matchingBracket(tokens []token, open int) int {
	depth := 0
	for i := open; i < len(tokens); i++ {
		switch tokens[i].kind {
		case tokLBracket:
			depth++
		case tokRBracket:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// Resolver resolves routes against a registry of known elements and a
// daemon collaborator it asks for candidate routes.
type Resolver struct {
	reg   *registry.Registry
	ctl   daemon.ControlReceive
	props gctypes.SystemProperties
}

// New builds a Resolver over reg, querying ctl for candidate routes and
// consulting props for the "non-topology-route-allowed" fallback.
func New(reg *registry.Registry, ctl daemon.ControlReceive, props gctypes.SystemProperties) *Resolver {
	return &Resolver{reg: reg, ctl: ctl, props: props}
}

func (r *Resolver) resolveGateway(class *registry.Class, name string) (*registry.Gateway, bool) {
	if name == "*" {
		for _, gwName := range class.Gateways {
			if gw, ok := r.reg.Gateway(gwName); ok {
				return gw, true
			}
		}
		return nil, false
	}
	return r.reg.Gateway(name)
}

// buildChain walks tokens left to right, producing the prospective
// element-ID sequence a topology proposes between sourceID and sinkID. A
// bracketed block whose first token is a gateway that isn't currently
// registered (or whose wildcard can't resolve) is skipped as a whole,
// balanced-bracket block; any other bracketed block is transparent. A
// named or wildcard gateway that can't resolve outside of a bracket
// fails the whole topology.
func (r *Resolver) buildChain(tokens []token, class *registry.Class, sourceID, sinkID gctypes.ElementID) ([]gctypes.ElementID, bool) {
	chain := make([]gctypes.ElementID, 0, len(tokens))
	for i := 0; i < len(tokens); i++ {
		switch tokens[i].kind {
		case tokSource:
			chain = append(chain, sourceID)
		case tokSink:
			chain = append(chain, sinkID)
		case tokGateway:
			gw, ok := r.resolveGateway(class, tokens[i].name)
			if !ok {
				return nil, false
			}
			chain = append(chain, gw.ID)
		case tokLBracket:
			end := matchingBracket(tokens, i)
			if end < 0 {
				return nil, false
			}
			if i+1 < end && tokens[i+1].kind == tokGateway {
				if _, ok := r.resolveGateway(class, tokens[i+1].name); !ok {
					i = end
					continue
				}
			}
			// the gateway inside is present, or the block doesn't open
			// on one: '[' itself contributes nothing to the chain.
		case tokRBracket:
			// contributes nothing; consumed as part of its '[' above.
		}
	}
	return chain, true
}

// matchChain intersects a prospective node chain against one daemon
// route: sizes must agree, and every consecutive (source-id, sink-id)
// pair in the chain must match the route's corresponding hop. On a
// match, the returned hops adopt the route's domain and connection
// format.
func matchChain(chain []gctypes.ElementID, route daemon.Route) ([]Hop, bool) {
	if len(chain) < 2 || len(chain)-1 != len(route) {
		return nil, false
	}
	hops := make([]Hop, len(route))
	for i, rh := range route {
		if chain[i] != rh.SourceID || chain[i+1] != rh.SinkID {
			return nil, false
		}
		hops[i] = Hop{SourceID: rh.SourceID, SinkID: rh.SinkID, DomainID: rh.DomainID, ConnectionFormat: rh.ConnectionFormat}
	}
	return hops, true
}

func routeToHops(route daemon.Route) []Hop {
	hops := make([]Hop, len(route))
	for i, rh := range route {
		hops[i] = Hop{SourceID: rh.SourceID, SinkID: rh.SinkID, DomainID: rh.DomainID, ConnectionFormat: rh.ConnectionFormat}
	}
	return hops
}

// Resolve runs the full algorithm: ask the daemon for candidate routes,
// try each of the class's topologies (first-configured wins) against
// each candidate (first daemon-ordered route wins), and fall back to the
// daemon's first candidate when nothing validates and
// NonTopologyRouteAllowed is set.
func (r *Resolver) Resolve(ctx context.Context, sourceName, sinkName, className string) ([]Hop, error) {
	class, ok := r.reg.Class(className)
	if !ok {
		return nil, gctypes.NewError("Resolve", gctypes.NonExistent, fmt.Errorf("class %q", className))
	}
	src, ok := r.reg.Source(sourceName)
	if !ok {
		return nil, gctypes.NewError("Resolve", gctypes.NonExistent, fmt.Errorf("source %q", sourceName))
	}
	sink, ok := r.reg.Sink(sinkName)
	if !ok {
		return nil, gctypes.NewError("Resolve", gctypes.NonExistent, fmt.Errorf("sink %q", sinkName))
	}

	daemonRoutes, err := r.ctl.GetRoute(ctx, src.ID, sink.ID)
	if err != nil {
		return nil, gctypes.NewError("Resolve", gctypes.NotPossible, err)
	}
	if len(daemonRoutes) == 0 {
		return nil, gctypes.NewError("Resolve", gctypes.NotPossible,
			fmt.Errorf("daemon reports no candidate route from %q to %q", sourceName, sinkName))
	}

	topologies := class.Topologies
	if len(topologies) == 0 {
		topologies = []string{""}
	}

	for _, raw := range topologies {
		topo := ParseTopology(raw)
		chain, ok := r.buildChain(topo.tokens, class, src.ID, sink.ID)
		if !ok {
			continue
		}
		for _, route := range daemonRoutes {
			if hops, ok := matchChain(chain, route); ok {
				return hops, nil
			}
		}
	}

	if r.props.NonTopologyRouteAllowed {
		return routeToHops(daemonRoutes[0]), nil
	}

	return nil, gctypes.NewError("Resolve", gctypes.NotPossible,
		fmt.Errorf("no topology for class %q validated against the daemon's route list", className))
}

// Available reports whether every hop's source and sink (where they
// resolve to a registered Source/Sink rather than a folded-in gateway)
// is currently available.
func (r *Resolver) Available(hops []Hop) bool {
	for _, h := range hops {
		if src, ok := r.reg.SourceByID(h.SourceID); ok && src.Availability.State == gctypes.Unavailable {
			return false
		}
		if sink, ok := r.reg.SinkByID(h.SinkID); ok && sink.Availability.State == gctypes.Unavailable {
			return false
		}
	}
	return true
}
