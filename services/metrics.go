package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var reviewTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "review_workflow_transitions_total",
	Help: "Number of committed review changes by action",
}, []string{"action"})

var reviewTransitionFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "review_workflow_transition_failures_total",
	Help: "Number of rejected review operations by action and error kind",
}, []string{"action", "kind"})

var gateVerdicts = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "review_workflow_gate_verdicts_total",
	Help: "Number of publish gate decisions by verdict",
}, []string{"verdict"})

var statusBatchSize = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "review_workflow_status_batch_size",
	Help:    "Number of document ids per batch status lookup",
	Buckets: prometheus.ExponentialBuckets(1, 2, 10),
})

// RegisterMetrics counts committed review changes published on bus.
func RegisterMetrics(bus *EventBus) (unsubscribe func()) {
	return bus.OnReviewsChanged(func(evt ReviewEvent) {
		reviewTransitions.WithLabelValues(evt.Action).Inc()
	})
}

// ObserveFailure counts a failed review operation.
func ObserveFailure(action string, err error) {
	if err == nil {
		return
	}
	kind := string(KindOf(err))
	if kind == "" {
		kind = "internal"
	}
	reviewTransitionFailures.WithLabelValues(action, kind).Inc()
}
