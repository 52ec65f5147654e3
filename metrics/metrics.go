package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	assignmentsCommitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reservations",
			Name:      "assignments_committed_total",
			Help:      "Count of committed table assignments by whether rows were written.",
		},
		[]string{"changed"},
	)

	assignmentConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "reservations",
			Name:      "assignment_conflicts_total",
			Help:      "Count of assignments rejected because a table was taken.",
		},
	)

	assignmentFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reservations",
			Name:      "assignment_failures_total",
			Help:      "Count of assignments that failed for reasons other than a conflict.",
		},
		[]string{"reason"},
	)

	assignmentDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "reservations",
			Name:      "assignment_duration_seconds",
			Help:      "Time spent inside the assignment transaction including retries.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	releases = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reservations",
			Name:      "releases_total",
			Help:      "Count of release-all operations by whether rows were removed.",
		},
		[]string{"removed"},
	)

	reconcileUpdated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "reservations",
			Name:      "reconcile_updated_total",
			Help:      "Count of stale reservations marked completed.",
		},
	)

	reconcileFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "reservations",
			Name:      "reconcile_failures_total",
			Help:      "Count of failed reconciliation sweeps.",
		},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			assignmentsCommitted,
			assignmentConflicts,
			assignmentFailures,
			assignmentDuration,
			releases,
			reconcileUpdated,
			reconcileFailures,
		)
	})
}

func IncAssignmentCommitted(changed bool) {
	assignmentsCommitted.WithLabelValues(boolLabel(changed)).Inc()
}

func IncAssignmentConflict() {
	assignmentConflicts.Inc()
}

func IncAssignmentFailure(reason string) {
	assignmentFailures.WithLabelValues(reason).Inc()
}

func ObserveAssignmentDuration(d time.Duration) {
	assignmentDuration.Observe(d.Seconds())
}

func IncRelease(removed bool) {
	releases.WithLabelValues(boolLabel(removed)).Inc()
}

func AddReconcileUpdated(n int64) {
	reconcileUpdated.Add(float64(n))
}

func IncReconcileFailure() {
	reconcileFailures.Inc()
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
