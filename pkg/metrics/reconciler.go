package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ReconcilerMetrics contains metrics for the scaling-group DNS reconciliation
// pipeline: lock contention, probe outcomes, and DNS changes applied.
//
// All metrics follow the taxonomy:
// asgdns_reconciler_<subsystem>_<metric_name>_<unit>
type ReconcilerMetrics struct {
	namespace string

	// Lock subsystem
	LocksAcquiredTotal   *prometheus.CounterVec   // outcome: acquired|unavailable
	LockWaitSeconds      prometheus.Histogram     // time spent retrying acquisition
	LockHeldSeconds      prometheus.Histogram     // time the lock was held before release

	// Probe subsystem
	ProbeDurationSeconds *prometheus.HistogramVec // kind: readiness|health, outcome: passed|failed|skipped
	ProbesTotal          *prometheus.CounterVec    // kind, outcome

	// DNS change subsystem
	DNSChangesPlannedTotal *prometheus.CounterVec // provider, action: CREATE|UPDATE|DELETE|IGNORE
	DNSChangesAppliedTotal *prometheus.CounterVec // provider, action, status: success|error
	EmptySetPolicyTotal    *prometheus.CounterVec // policy: KEEP|DELETE|FIXED

	// Pipeline subsystem
	PipelineDurationSeconds *prometheus.HistogramVec // transition, outcome
	PipelineAbortsTotal     *prometheus.CounterVec    // stage, error_type
}

// NewReconcilerMetrics creates reconciler pipeline metrics.
func NewReconcilerMetrics(namespace string) *ReconcilerMetrics {
	return &ReconcilerMetrics{
		namespace: namespace,

		LocksAcquiredTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "reconciler_lock",
				Name:      "acquired_total",
				Help:      "Total number of per-scaling-group lock acquisition attempts by outcome",
			},
			[]string{"outcome"},
		),

		LockWaitSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "reconciler_lock",
			Name:      "wait_seconds",
			Help:      "Time spent retrying lock acquisition before success or giving up",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),

		LockHeldSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "reconciler_lock",
			Name:      "held_seconds",
			Help:      "Time the per-scaling-group lock was held before release",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),

		ProbeDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "reconciler_probe",
				Name:      "duration_seconds",
				Help:      "Duration of readiness/health probes",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"kind", "outcome"},
		),

		ProbesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "reconciler_probe",
				Name:      "total",
				Help:      "Total number of readiness/health probes executed by outcome",
			},
			[]string{"kind", "outcome"},
		),

		DNSChangesPlannedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "reconciler_dns",
				Name:      "changes_planned_total",
				Help:      "Total number of DNS change plans produced by provider and action",
			},
			[]string{"provider", "action"},
		),

		DNSChangesAppliedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "reconciler_dns",
				Name:      "changes_applied_total",
				Help:      "Total number of DNS changes applied by provider, action, and status",
			},
			[]string{"provider", "action", "status"},
		),

		EmptySetPolicyTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "reconciler_dns",
				Name:      "empty_set_policy_total",
				Help:      "Total number of times an empty-set policy branch was taken",
			},
			[]string{"policy"},
		),

		PipelineDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "reconciler_pipeline",
				Name:      "duration_seconds",
				Help:      "End-to-end duration of a scaling-group lifecycle pipeline run",
				Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"transition", "outcome"},
		),

		PipelineAbortsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "reconciler_pipeline",
				Name:      "aborts_total",
				Help:      "Total number of pipeline runs aborted by stage and error type",
			},
			[]string{"stage", "error_type"},
		),
	}
}
