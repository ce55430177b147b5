package gctypes

import "context"

// ActionStatus mirrors am_Action_e / gc_Action_e: the lifecycle status an
// Action reports after Execute or an Acknowledge/Timeout callback.
type ActionStatus int

const (
	ActionNotStarted ActionStatus = iota
	ActionExecuting
	ActionWaitingForChildren
	ActionFinished
	ActionAborted
	ActionError
)

func (s ActionStatus) String() string {
	switch s {
	case ActionNotStarted:
		return "not started"
	case ActionExecuting:
		return "executing"
	case ActionWaitingForChildren:
		return "waiting for children"
	case ActionFinished:
		return "finished"
	case ActionAborted:
		return "aborted"
	case ActionError:
		return "error"
	default:
		return "unknown"
	}
}

// Action is the command-pattern contract shared by every leaf and
// container in the action tree, grounded on
// original_source/PluginControlInterfaceGeneric/include/CAmActionCommand.h's
// _execute/_update/_timeout/_undo lifecycle, generalized into Go method
// names and an explicit context.Context for cancellation instead of a
// bare virtual-call hierarchy.
//
// Execute returns WaitForChild() when the action has issued an
// asynchronous daemon primitive and is waiting on Acknowledge; any other
// non-nil error is terminal. Status always reflects the action's state
// after the most recent call into it.
type Action interface {
	// Name identifies the action for logging and tracing, e.g.
	// "MainConnectionActionConnect".
	Name() string

	// Execute starts the action. It may complete synchronously (returning
	// nil or a terminal error) or asynchronously (returning
	// WaitForChild()), in which case a later Acknowledge or Timeout call
	// drives it to completion.
	Execute(ctx context.Context) error

	// Acknowledge is delivered when a previously issued daemon handle
	// completes, carrying the daemon's reported error (nil on success).
	Acknowledge(ctx context.Context, h Handle, result error) error

	// Timeout is delivered when a previously issued daemon handle's
	// deadline elapses with no acknowledgment.
	Timeout(ctx context.Context, h Handle) error

	// Undo reverses a previously executed action, best-effort.
	Undo(ctx context.Context) error

	// Status reports the action's current lifecycle state.
	Status() ActionStatus
}
