// Package trigger implements C6: the two-lane FIFO queue of incoming
// triggers the dispatcher pumps from. Grounded on
// original_source/CAmTriggerQueue.h's queue()/pushTop()/dequeue() over a
// std::vector<std::pair<gc_Trigger_e, gc_TriggerElement_s*>>. container/list
// is the idiomatic stdlib FIFO for this shape and matches the original's
// vector-as-queue simplicity; no third-party queue library fits this
// unbounded-but-small workload any better than the standard library does.
package trigger

import (
	"container/list"
	"sync"

	"github.com/gc-audio/routingctl/gctypes"
	"github.com/gc-audio/routingctl/metrics"
)

// Lane distinguishes the two priority lanes triggers can be queued on:
// Normal for daemon-originated and command-client events, Priority for
// events that must preempt whatever is already queued (e.g. an emergency
// mute). Grounded on CAmTriggerQueue::pushTop inserting at the front of
// the same underlying vector rather than maintaining a second structure;
// this module keeps that intent but models it as two lists to avoid
// O(n) front-insertion into a slice-backed queue.
type Lane int

const (
	Normal Lane = iota
	Priority
)

func (l Lane) String() string {
	if l == Priority {
		return "priority"
	}
	return "normal"
}

// Queue is the trigger FIFO. It is safe for concurrent use: Push is
// typically called from whatever goroutine observed the daemon event or
// command-client request, while Pop is called exclusively from the
// dispatcher's single pump goroutine.
type Queue struct {
	mu       sync.Mutex
	normal   *list.List
	priority *list.List
}

// New returns an empty Queue.
func New() *Queue {
	return &Queue{normal: list.New(), priority: list.New()}
}

// Push enqueues t on the given lane.
func (q *Queue) Push(lane Lane, t gctypes.Trigger) {
	q.mu.Lock()
	defer q.mu.Unlock()
	l := q.laneList(lane)
	l.PushBack(t)
	metrics.TriggersQueued.WithLabelValues(t.Kind.String()).Inc()
	metrics.TriggerQueueDepth.WithLabelValues(lane.String()).Set(float64(l.Len()))
}

// PushTop enqueues t at the front of its lane, to be the very next thing
// Pop returns. Grounded on CAmTriggerQueue::pushTop, used when a trigger
// must preempt whatever is already waiting (e.g. the terminal
// connectionStateChange a container's completion generates, which should
// be processed before any later-arriving request).
func (q *Queue) PushTop(lane Lane, t gctypes.Trigger) {
	q.mu.Lock()
	defer q.mu.Unlock()
	l := q.laneList(lane)
	l.PushFront(t)
	metrics.TriggersQueued.WithLabelValues(t.Kind.String()).Inc()
	metrics.TriggerQueueDepth.WithLabelValues(lane.String()).Set(float64(l.Len()))
}

func (q *Queue) laneList(lane Lane) *list.List {
	if lane == Priority {
		return q.priority
	}
	return q.normal
}

// Pop removes and returns the next trigger to process: the priority
// lane's head if non-empty, otherwise the normal lane's head. It reports
// false if both lanes are empty.
func (q *Queue) Pop() (gctypes.Trigger, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if front := q.priority.Front(); front != nil {
		q.priority.Remove(front)
		metrics.TriggerQueueDepth.WithLabelValues(Priority.String()).Set(float64(q.priority.Len()))
		return front.Value.(gctypes.Trigger), true
	}
	if front := q.normal.Front(); front != nil {
		q.normal.Remove(front)
		metrics.TriggerQueueDepth.WithLabelValues(Normal.String()).Set(float64(q.normal.Len()))
		return front.Value.(gctypes.Trigger), true
	}
	return gctypes.Trigger{}, false
}

// Len reports the total number of triggers waiting across both lanes.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.normal.Len() + q.priority.Len()
}
