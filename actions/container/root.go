package container

import (
	"context"

	"github.com/gc-audio/routingctl/gctypes"
)

// Root is the single top-level container the dispatcher hands one
// trigger's resulting action tree to. Grounded on CAmRootAction.cpp/.h: a
// process-wide singleton whose _cleanup() resets status and error back to
// "not started" without reallocating its child slice, so the next
// dispatch reuses the same backing array instead of churning allocations
// on every trigger.
type Root struct {
	Base
}

// NewRoot builds an empty Root.
func NewRoot(log gctypes.Logger) *Root {
	return &Root{Base: NewBase("Root", log)}
}

// SetChildren replaces Root's child list for the next dispatch, reusing
// the existing backing array when it has enough capacity.
func (r *Root) SetChildren(children []gctypes.Action) {
	r.children = append(r.children[:0], children...)
	r.current = 0
	r.status = int32(gctypes.ActionNotStarted)
}

// Cleanup resets Root back to "not started" for reuse on the next
// dispatch without reallocating the child slice. Grounded on
// CAmRootAction::_cleanup.
func (r *Root) Cleanup() {
	r.children = r.children[:0]
	r.current = 0
	r.status = int32(gctypes.ActionNotStarted)
}

func (r *Root) Execute(ctx context.Context) error { return r.Run(ctx) }
