// Package metrics centralizes the Prometheus collectors shared across the
// dispatcher, trigger queue, and action tree, grounded on
// bittoy-rule/engine/metrics.go's init()+MustRegister idiom: collectors
// are package-level vars registered once at import time, and call sites
// reach for them directly rather than threading a registry handle through
// every constructor.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// TriggersQueued counts triggers pushed onto the trigger queue, by kind.
	TriggersQueued = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "routingctl",
		Subsystem: "trigger",
		Name:      "queued_total",
		Help:      "Number of triggers enqueued, by trigger kind.",
	}, []string{"kind"})

	// TriggerQueueDepth reports the current depth of each trigger lane.
	TriggerQueueDepth = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "routingctl",
		Subsystem: "trigger",
		Name:      "queue_depth",
		Help:      "Current number of pending triggers, by lane.",
	}, []string{"lane"})

	// DispatchDuration measures how long dispatching one trigger took, from
	// policy evaluation until the action tree's first Execute returns; time
	// spent waiting for asynchronous acknowledgments is not included.
	DispatchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "routingctl",
		Subsystem: "dispatcher",
		Name:      "pump_duration_seconds",
		Help:      "Duration of a single dispatcher pump iteration.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"trigger_kind"})

	// DispatchErrors counts pump iterations that ended in an error, by
	// trigger kind and error kind.
	DispatchErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "routingctl",
		Subsystem: "dispatcher",
		Name:      "errors_total",
		Help:      "Number of dispatcher pump iterations that errored.",
	}, []string{"trigger_kind", "error_kind"})

	// ActionsExecuted counts action status changes, by action name and the
	// status entered (intermediate and terminal alike).
	ActionsExecuted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "routingctl",
		Subsystem: "action",
		Name:      "executed_total",
		Help:      "Number of actions executed, by action name and status.",
	}, []string{"action", "status"})

	// HandlesOutstanding reports the number of daemon handles currently
	// awaiting acknowledgment.
	HandlesOutstanding = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "routingctl",
		Subsystem: "handlestore",
		Name:      "outstanding",
		Help:      "Number of daemon handles currently awaiting acknowledgment.",
	})

	// HooksInvoked counts calls into controller.Controller's
	// UserConnectionRequest, UserDisconnectionRequest and
	// GetConnectionFormatChoice hooks, by hook method name and outcome
	// ("ok" or "error"); the other hooks are not counted.
	HooksInvoked = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "routingctl",
		Subsystem: "controller",
		Name:      "hooks_invoked_total",
		Help:      "Number of control-side hook calls, by hook name and outcome.",
	}, []string{"hook", "outcome"})
)

func init() {
	prometheus.MustRegister(
		TriggersQueued,
		TriggerQueueDepth,
		DispatchDuration,
		DispatchErrors,
		ActionsExecuted,
		HandlesOutstanding,
		HooksInvoked,
	)
}
