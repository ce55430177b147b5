// Package container implements C5 and C8: the composite actions that
// drive an ordered sequence of children (leaves or nested containers) and
// unwind them in reverse order on failure. Grounded on the
// CAmActionContainer base class every CAmMainConnectionAction*.cpp in
// original_source/PluginControlInterfaceGeneric builds on, generalized
// from bittoy-rule/engine/chain.go's ChainCtx.execute() single-current-
// node walk: the spec's containers are strict sequences rather than
// branching chains, so Base advances an index instead of following named
// relations.
//
// Handle resolution does not flow down through the container tree: when
// a daemon primitive a leaf issued completes, handlestore.Store delivers
// the callback directly to that leaf (the leaf is its own
// handlestore.Acknowledger), which updates its own Status(). The
// dispatcher then re-enters Run at the root, which re-enters a still
// waiting child (so nested containers re-poll in turn) and polls the
// current child's Status() to decide whether to advance, unwind, or keep
// waiting.
// This mirrors the original's direct handle-to-action dispatch
// (CAmHandleStore calls straight into the saved IAmActionCommand*)
// without needing every container in the path to also track the handle.
package container

import (
	"context"
	"sync/atomic"

	"github.com/gc-audio/routingctl/gctypes"
	"github.com/gc-audio/routingctl/metrics"
)

// Base is the sequential child driver embedded by every concrete
// container.
type Base struct {
	name     string
	status   int32
	children []gctypes.Action
	current  int
	log      gctypes.Logger
}

// NewBase builds a Base named name driving the given children in order.
func NewBase(name string, log gctypes.Logger, children ...gctypes.Action) Base {
	return Base{name: name, status: int32(gctypes.ActionNotStarted), children: children, log: log}
}

func (b *Base) Name() string { return b.name }

func (b *Base) Status() gctypes.ActionStatus {
	return gctypes.ActionStatus(atomic.LoadInt32(&b.status))
}

func (b *Base) setStatus(s gctypes.ActionStatus) {
	atomic.StoreInt32(&b.status, int32(s))
	metrics.ActionsExecuted.WithLabelValues(b.name, s.String()).Inc()
}

// AddChild appends a child to the container's sequence. Containers that
// decide their child list dynamically (e.g. skipping a shared route
// element) call this during their own Execute, before delegating to Run.
func (b *Base) AddChild(a gctypes.Action) {
	b.children = append(b.children, a)
}

// Run drives the container's children starting at b.current, polling each
// child's own Status() rather than assuming Execute's return value is the
// last word on it — a child whose async primitive already completed
// between pump iterations reports Finished here without Run itself having
// observed the completion.
func (b *Base) Run(ctx context.Context) error {
	if b.status == int32(gctypes.ActionNotStarted) {
		b.setStatus(gctypes.ActionExecuting)
	}
	for b.current < len(b.children) {
		child := b.children[b.current]

		switch child.Status() {
		case gctypes.ActionNotStarted:
			err := child.Execute(ctx)
			if gctypes.ErrWaitForChild(err) {
				b.setStatus(gctypes.ActionWaitingForChildren)
				return gctypes.WaitForChild()
			}
			if err != nil {
				return b.unwind(ctx, err)
			}
			b.current++

		case gctypes.ActionExecuting, gctypes.ActionWaitingForChildren:
			// Re-enter the waiting child so a nested container re-polls its
			// own children; a leaf ignores the zero handle.
			_ = child.Acknowledge(ctx, gctypes.Handle{}, nil)
			if s := child.Status(); s == gctypes.ActionExecuting || s == gctypes.ActionWaitingForChildren {
				b.setStatus(gctypes.ActionWaitingForChildren)
				return gctypes.WaitForChild()
			}

		case gctypes.ActionFinished:
			b.current++

		case gctypes.ActionError, gctypes.ActionAborted:
			return b.unwind(ctx, gctypes.NewError(b.name, gctypes.NotPossible, nil))
		}
	}
	b.setStatus(gctypes.ActionFinished)
	return nil
}

// Acknowledge re-enters Run. The handle this callback names was already
// delivered directly to the leaf that issued it by handlestore.Store; Run
// discovers that leaf's new Status() on its own.
func (b *Base) Acknowledge(ctx context.Context, _ gctypes.Handle, _ error) error {
	return b.Run(ctx)
}

// Timeout re-enters Run, for the same reason as Acknowledge.
func (b *Base) Timeout(ctx context.Context, _ gctypes.Handle) error {
	return b.Run(ctx)
}

// unwind calls Undo on every child from current-1 down to 0, best-effort,
// and reports the original terminal error once finished. Grounded on
// CAmActionContainer::_undo's reverse iteration.
func (b *Base) unwind(ctx context.Context, cause error) error {
	for i := b.current - 1; i >= 0; i-- {
		if undoErr := b.children[i].Undo(ctx); undoErr != nil && b.log != nil {
			b.log.Printf("%s: undo of child %d failed: %v", b.name, i, undoErr)
		}
	}
	b.setStatus(gctypes.ActionError)
	return cause
}

// Undo reverses every child that had finished by the time this container
// itself is undone by an enclosing container.
func (b *Base) Undo(ctx context.Context) error {
	for i := b.current - 1; i >= 0; i-- {
		if err := b.children[i].Undo(ctx); err != nil {
			return err
		}
	}
	b.setStatus(gctypes.ActionAborted)
	return nil
}
