package domain

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
)

// GeometricOperator is the closed set of transformations a task can apply
// to the shared metrics snapshot.
type GeometricOperator string

const (
	OperatorQuaternionRotation  GeometricOperator = "QuaternionRotation"
	OperatorZitterbewegung      GeometricOperator = "Zitterbewegung"
	OperatorGeometricDerivation GeometricOperator = "GeometricDerivation"
	OperatorSemanticSynthesis   GeometricOperator = "SemanticSynthesis"
)

// ParseOperator normalizes a free-text operator label (e.g. from an LLM
// reply) to one of the four variants. Total function: anything that matches
// no known substring defaults to QuaternionRotation.
func ParseOperator(raw string) GeometricOperator {
	lowered := strings.ToLower(strings.TrimSpace(raw))

	switch {
	case strings.Contains(lowered, "zitter"), strings.Contains(lowered, "oscillation"):
		return OperatorZitterbewegung
	case strings.Contains(lowered, "stabilize"), strings.Contains(lowered, "derivation"):
		return OperatorGeometricDerivation
	case strings.Contains(lowered, "semantic"), strings.Contains(lowered, "anchor"):
		return OperatorSemanticSynthesis
	case strings.Contains(lowered, "coherence"), strings.Contains(lowered, "optimize"),
		strings.Contains(lowered, "quaternion"):
		return OperatorQuaternionRotation
	default:
		return OperatorQuaternionRotation
	}
}

// UnmarshalJSON accepts any string label and normalizes it, so free-text
// operators never reach the core un-normalized. No error outcome.
func (op *GeometricOperator) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*op = ParseOperator(raw)
	return nil
}

// GeometricTaskCommand is a request to apply one geometric operator.
// Immutable once submitted.
type GeometricTaskCommand struct {
	TaskName             string            `json:"task_name"`
	GeometricOperator    GeometricOperator `json:"geometric_operator"`
	TargetModule         string            `json:"target_module"`
	Parameters           json.RawMessage   `json:"parameters"`
	ExpectedOutputMetric string            `json:"expected_output_metric"`
	// TaskID is the optional externally supplied identifier. When absent
	// the processor assigns a fresh random UUID.
	TaskID *uuid.UUID `json:"task_id,omitempty"`
}

// TaskState is the lifecycle phase of a task.
type TaskState string

const (
	TaskPending    TaskState = "PENDING"
	TaskInProgress TaskState = "IN_PROGRESS"
	TaskCompleted  TaskState = "COMPLETED"
	TaskFailed     TaskState = "FAILED"
)

// TaskStatus is a tagged variant: Pending | InProgress | Completed(metrics)
// | Failed(message). A task is created Pending, transitions to InProgress
// and then to exactly one terminal state. It never reverts.
type TaskStatus struct {
	State TaskState `json:"state"`
	// Metrics holds the historical snapshot at completion time.
	// Set only when State == TaskCompleted.
	Metrics *GeometricMetrics `json:"metrics,omitempty"`
	// Error is set only when State == TaskFailed.
	Error string `json:"error,omitempty"`
}

// StatusPending returns the initial status of a freshly submitted task.
func StatusPending() TaskStatus { return TaskStatus{State: TaskPending} }

// StatusInProgress marks a task as executing.
func StatusInProgress() TaskStatus { return TaskStatus{State: TaskInProgress} }

// StatusCompleted captures the metrics snapshot at the moment execution
// finished. The snapshot is deep-copied: it is a historical value, not a
// live reference.
func StatusCompleted(m GeometricMetrics) TaskStatus {
	snap := m.Clone()
	return TaskStatus{State: TaskCompleted, Metrics: &snap}
}

// StatusFailed records a terminal failure message.
func StatusFailed(msg string) TaskStatus {
	return TaskStatus{State: TaskFailed, Error: msg}
}

// Terminal reports whether the status is Completed or Failed.
func (s TaskStatus) Terminal() bool {
	return s.State == TaskCompleted || s.State == TaskFailed
}

// Clone deep-copies the status, including any embedded metrics snapshot.
func (s TaskStatus) Clone() TaskStatus {
	out := s
	if s.Metrics != nil {
		snap := s.Metrics.Clone()
		out.Metrics = &snap
	}
	return out
}

// TaskExecutionResult is produced once per execution attempt and never
// mutated after construction.
type TaskExecutionResult struct {
	TaskID  uuid.UUID        `json:"task_id"`
	Success bool             `json:"success"`
	Metrics GeometricMetrics `json:"metrics"`
	Output  json.RawMessage  `json:"output"`
	Error   string           `json:"error,omitempty"`
}
