// Package handlestore implements C1: a registry mapping outstanding
// daemon Handles back to the Action that issued them, so an asynchronous
// Acknowledge or Timeout callback can be routed to the right place in the
// action tree. Grounded on
// original_source/PluginControlInterfaceGeneric/include/CAmHandleStore.h,
// a process-wide singleton map of am_Handle_s to IAmActionCommand*; this
// module's style avoids singletons in favor of an explicit instance
// threaded through the dispatcher, the way bittoy-rule's
// types.SafeComponentSlice is a plain mutex-guarded struct rather than a
// package-level global.
package handlestore

import (
	"context"
	"sync"
	"time"

	"github.com/gc-audio/routingctl/gctypes"
	"github.com/gc-audio/routingctl/metrics"
)

// Acknowledger is the narrow slice of gctypes.Action a waiting entry needs
// once its handle resolves: Acknowledge on success/failure, Timeout if the
// deadline elapses with nothing heard.
type Acknowledger interface {
	Acknowledge(ctx context.Context, h gctypes.Handle, result error) error
	Timeout(ctx context.Context, h gctypes.Handle) error
}

type entry struct {
	owner     Acknowledger
	elementID gctypes.ElementID
	timer     *time.Timer
}

// Store tracks outstanding handles. One Store is shared by the whole
// dispatcher; it is safe for concurrent use, though in this module's
// single-goroutine dispatch model the only real concurrency is between
// the dispatcher goroutine and timer-fired Timeout callbacks.
type Store struct {
	mu      sync.Mutex
	clock   gctypes.Clock
	entries map[gctypes.Handle]*entry

	// onTimeout is invoked from a timer goroutine when a handle's deadline
	// elapses; it is expected to enqueue a trigger/callback rather than
	// call back into the action tree directly, keeping all action-tree
	// mutation on the single dispatcher goroutine.
	onTimeout func(h gctypes.Handle)
}

// New creates an empty Store. onTimeout is called (from a timer's own
// goroutine) when a handle's deadline elapses before Resolve is called for
// it; the dispatcher is expected to marshal that back onto its own
// goroutine before calling Timeout.
func New(clock gctypes.Clock, onTimeout func(h gctypes.Handle)) *Store {
	if clock == nil {
		clock = gctypes.RealClock{}
	}
	return &Store{
		clock:     clock,
		entries:   make(map[gctypes.Handle]*entry),
		onTimeout: onTimeout,
	}
}

// Save records h as outstanding against owner, representing elementID,
// and arms a timeout that fires after d if no Resolve or Clear arrives
// first. Grounded on CAmHandleStore::saveHandle.
func (s *Store) Save(h gctypes.Handle, owner Acknowledger, elementID gctypes.ElementID, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := &entry{owner: owner, elementID: elementID}
	if d > 0 && s.onTimeout != nil {
		e.timer = time.AfterFunc(d, func() { s.onTimeout(h) })
	}
	s.entries[h] = e
	metrics.HandlesOutstanding.Set(float64(len(s.entries)))
}

// Resolve delivers an acknowledgment for h to its owner and removes h from
// the store. It reports false if h was not outstanding (already resolved,
// timed out, or never saved). Grounded on
// CAmHandleStore::notifyAsyncResult dispatching to the saved
// IAmActionCommand.
func (s *Store) Resolve(ctx context.Context, h gctypes.Handle, result error) (bool, error) {
	e, ok := s.take(h)
	if !ok {
		return false, nil
	}
	return true, e.owner.Acknowledge(ctx, h, result)
}

// Timeout delivers a timeout for h to its owner and removes h from the
// store. It reports false if h was already resolved or cleared before the
// timeout could be delivered — a benign race the caller should not treat
// as an error.
func (s *Store) Timeout(ctx context.Context, h gctypes.Handle) (bool, error) {
	e, ok := s.take(h)
	if !ok {
		return false, nil
	}
	return true, e.owner.Timeout(ctx, h)
}

// Clear removes h without notifying its owner, for the case where the
// owning action is itself being aborted and no longer wants callbacks.
func (s *Store) Clear(h gctypes.Handle) {
	s.take(h)
}

func (s *Store) take(h gctypes.Handle) (*entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[h]
	if !ok {
		return nil, false
	}
	if e.timer != nil {
		e.timer.Stop()
	}
	delete(s.entries, h)
	metrics.HandlesOutstanding.Set(float64(len(s.entries)))
	return e, true
}

// CountFor returns the number of handles currently outstanding against
// elementID: the handleCount a caller passes to registry.Registry.Reap to
// decide whether a zombie element's last reference has cleared (see
// DESIGN.md Open Question 2).
func (s *Store) CountFor(elementID gctypes.ElementID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.entries {
		if e.elementID == elementID {
			n++
		}
	}
	return n
}

// Len reports the number of handles currently outstanding.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
