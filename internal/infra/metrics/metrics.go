// Package metrics provides Prometheus instrumentation for the MMSS engine:
// task lifecycle counters, execution latency, and gauges mirroring the
// current geometric metrics snapshot.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mmss-network/mmss/internal/domain"
)

// ─── Tasks ──────────────────────────────────────────────────────────────────

// TasksSubmitted counts accepted task submissions.
var TasksSubmitted = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "mmss",
	Name:      "tasks_submitted_total",
	Help:      "Total geometric tasks submitted.",
})

// TasksExecuted counts completed executions by operator.
var TasksExecuted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "mmss",
	Name:      "tasks_executed_total",
	Help:      "Total geometric task executions completed.",
}, []string{"operator"})

// TasksFailed counts failed executions by operator.
var TasksFailed = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "mmss",
	Name:      "tasks_failed_total",
	Help:      "Total geometric task executions that failed.",
}, []string{"operator"})

// ExecutionLatency tracks task execution duration in seconds. Executions
// are globally serialized, so this is also the inter-completion time floor.
var ExecutionLatency = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "mmss",
	Name:      "task_execution_seconds",
	Help:      "Geometric task execution duration in seconds.",
	Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
})

// ─── Snapshot gauges ────────────────────────────────────────────────────────

// VGeometric mirrors the v_geometric field of the current snapshot.
var VGeometric = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "mmss",
	Name:      "v_geometric",
	Help:      "Current geometric velocity metric.",
})

// SGeometric mirrors the s_geometric field of the current snapshot.
var SGeometric = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "mmss",
	Name:      "s_geometric",
	Help:      "Current geometric entropy metric.",
})

// QOscillator mirrors the q_oscillator field of the current snapshot.
var QOscillator = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "mmss",
	Name:      "q_oscillator",
	Help:      "Current oscillator metric.",
})

// QuaternionCoherence mirrors the quaternion_coherence field.
var QuaternionCoherence = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "mmss",
	Name:      "quaternion_coherence",
	Help:      "Current quaternion rotor-field coherence.",
})

// TopologicalWinding mirrors the topological_winding field.
var TopologicalWinding = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "mmss",
	Name:      "topological_winding",
	Help:      "Current topological winding number.",
})

// ─── Persistence ────────────────────────────────────────────────────────────

// PersistFailures counts best-effort snapshot persistence failures.
var PersistFailures = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "mmss",
	Name:      "persist_failures_total",
	Help:      "Total failed attempts to persist the metrics snapshot.",
})

// ObserveSnapshot updates the snapshot gauges from a metrics record.
func ObserveSnapshot(m domain.GeometricMetrics) {
	VGeometric.Set(m.VGeometric)
	SGeometric.Set(m.SGeometric)
	QOscillator.Set(m.QOscillator)
	QuaternionCoherence.Set(m.QuaternionCoherence)
	TopologicalWinding.Set(m.TopologicalWinding)
}
