package container

import (
	"context"

	"github.com/gc-audio/routingctl/gctypes"
	"github.com/gc-audio/routingctl/registry"
)

// ClassActionConnect wraps a single MainConnectionActionConnect with the
// class-level bookkeeping original_source/.../CAmClassElement.cpp applies
// around connection requests: a class-priority policy may refuse a
// low-priority class's connect while a higher-priority class already
// holds the sink. That refusal is decided before this container is ever
// built — dispatcher.buildMainConnect checks Class.Priority against every
// other main connection already held on the target sink and returns an
// error instead of a tree when a higher-priority class wins.
type ClassActionConnect struct {
	Base
	class *registry.Class
}

// NewClassActionConnect wraps inner (typically a
// *MainConnectionActionConnect) with class bookkeeping for class.
func NewClassActionConnect(class *registry.Class, log gctypes.Logger, inner gctypes.Action) *ClassActionConnect {
	return &ClassActionConnect{
		Base:  NewBase("ClassActionConnect/"+class.Name, log, inner),
		class: class,
	}
}

func (a *ClassActionConnect) Execute(ctx context.Context) error { return a.Run(ctx) }

// ClassActionDisconnect wraps one or more MainConnectionActionDisconnect
// containers, used when a class-wide policy (e.g. "only one active
// connection per playback class") needs to tear down every other
// connection in the class before a new one is established.
type ClassActionDisconnect struct {
	Base
	class *registry.Class
}

// NewClassActionDisconnect wraps inner disconnect containers with class
// bookkeeping for class.
func NewClassActionDisconnect(class *registry.Class, log gctypes.Logger, inner ...gctypes.Action) *ClassActionDisconnect {
	return &ClassActionDisconnect{
		Base:  NewBase("ClassActionDisconnect/"+class.Name, log, inner...),
		class: class,
	}
}

func (a *ClassActionDisconnect) Execute(ctx context.Context) error { return a.Run(ctx) }
