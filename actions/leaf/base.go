// Package leaf implements C4: the leaf actions at the bottom of the
// action tree, each wrapping exactly one asynchronous daemon primitive.
// Every leaf follows the same shape as
// original_source/PluginControlInterfaceGeneric/src/CAm*.cpp: Execute
// checks whether the target is already in the desired state (a no-op
// success), otherwise issues the daemon primitive and returns
// gctypes.WaitForChild() until Acknowledge or Timeout arrives.
package leaf

import (
	"sync/atomic"
	"time"

	"github.com/gc-audio/routingctl/daemon"
	"github.com/gc-audio/routingctl/gctypes"
	"github.com/gc-audio/routingctl/handlestore"
	"github.com/gc-audio/routingctl/metrics"
)

// base carries the bookkeeping every leaf shares: its name for tracing,
// its current status, and the collaborators needed to issue and track a
// daemon primitive. Grounded on the common constructor parameters every
// CAmRouteAction*/CAmSourceAction*/CAmSinkAction* class in the original
// takes (a control-receive pointer and a handle-store reference).
type base struct {
	name    string
	status  int32 // gctypes.ActionStatus, accessed atomically for Status()
	ctl     daemon.ControlReceive
	handles *handlestore.Store
	clock   gctypes.Clock
	log     gctypes.Logger
	timeout time.Duration
}

func newBase(name string, ctl daemon.ControlReceive, handles *handlestore.Store, cfg gctypes.Config) base {
	return base{
		name:    name,
		status:  int32(gctypes.ActionNotStarted),
		ctl:     ctl,
		handles: handles,
		clock:   cfg.Clock,
		log:     cfg.Logger,
		timeout: time.Duration(leafTimeoutMS(cfg)) * time.Millisecond,
	}
}

func (b *base) Name() string { return b.name }

func (b *base) Status() gctypes.ActionStatus {
	return gctypes.ActionStatus(atomic.LoadInt32(&b.status))
}

func (b *base) setStatus(s gctypes.ActionStatus) {
	atomic.StoreInt32(&b.status, int32(s))
	metrics.ActionsExecuted.WithLabelValues(b.name, s.String()).Inc()
}

// waitForChild marks the leaf as waiting on a daemon handle and returns
// the sentinel error Execute should propagate.
func (b *base) waitForChild() error {
	b.setStatus(gctypes.ActionWaitingForChildren)
	return gctypes.WaitForChild()
}

func (b *base) finish(err error) error {
	if err != nil {
		b.setStatus(gctypes.ActionError)
		return err
	}
	b.setStatus(gctypes.ActionFinished)
	return nil
}

// leafTimeoutMS resolves the per-action timeout, defaulting to the
// system-wide LeafTimeoutMS when cfg carries no override.
func leafTimeoutMS(cfg gctypes.Config) uint32 {
	if cfg.Properties.LeafTimeoutMS == 0 {
		return gctypes.DefaultSystemProperties().LeafTimeoutMS
	}
	return cfg.Properties.LeafTimeoutMS
}
