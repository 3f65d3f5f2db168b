package domain

import (
	"encoding/json"
	"testing"
)

func TestParseOperator(t *testing.T) {
	tests := []struct {
		raw  string
		want GeometricOperator
	}{
		// Exact enum names (case-insensitive)
		{"QuaternionRotation", OperatorQuaternionRotation},
		{"ZitterBewegung", OperatorZitterbewegung},
		{"geometricderivation", OperatorGeometricDerivation},
		{"SemanticSynthesis", OperatorSemanticSynthesis},

		// Free-text labels
		{"optimize coherence", OperatorQuaternionRotation},
		{"apply zitter oscillation", OperatorZitterbewegung},
		{"stabilize the field", OperatorGeometricDerivation},
		{"derivation of metrics", OperatorGeometricDerivation},
		{"place semantic anchor", OperatorSemanticSynthesis},
		{"  Quaternion spin  ", OperatorQuaternionRotation},

		// Anything else defaults to QuaternionRotation
		{"", OperatorQuaternionRotation},
		{"garbage label", OperatorQuaternionRotation},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := ParseOperator(tt.raw); got != tt.want {
				t.Errorf("ParseOperator(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestGeometricOperator_UnmarshalNormalizes(t *testing.T) {
	var cmd GeometricTaskCommand
	body := `{
		"task_name": "t",
		"geometric_operator": "run a zitter sweep",
		"target_module": "emergence_logic",
		"parameters": {},
		"expected_output_metric": "v_geometric"
	}`

	if err := json.Unmarshal([]byte(body), &cmd); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if cmd.GeometricOperator != OperatorZitterbewegung {
		t.Errorf("operator = %q, want %q", cmd.GeometricOperator, OperatorZitterbewegung)
	}
	if cmd.TaskID != nil {
		t.Errorf("TaskID = %v, want nil", cmd.TaskID)
	}
}

func TestTaskStatus_Lifecycle(t *testing.T) {
	pending := StatusPending()
	if pending.Terminal() {
		t.Error("Pending should not be terminal")
	}
	if StatusInProgress().Terminal() {
		t.Error("InProgress should not be terminal")
	}

	done := StatusCompleted(BaselineMetrics())
	if !done.Terminal() {
		t.Error("Completed should be terminal")
	}
	if done.Metrics == nil {
		t.Fatal("Completed must carry a metrics snapshot")
	}

	failed := StatusFailed("boom")
	if !failed.Terminal() {
		t.Error("Failed should be terminal")
	}
	if failed.Error != "boom" {
		t.Errorf("Error = %q, want %q", failed.Error, "boom")
	}
}

func TestStatusCompleted_SnapshotIsHistoricalCopy(t *testing.T) {
	m := BaselineMetrics()
	m.CustomMetrics["k"] = 1

	status := StatusCompleted(m)

	// Mutating the source afterwards must not leak into the snapshot.
	m.VGeometric = 99
	m.CustomMetrics["k"] = 2

	if status.Metrics.VGeometric == 99 {
		t.Error("snapshot shares VGeometric with live metrics")
	}
	if status.Metrics.CustomMetrics["k"] != 1 {
		t.Error("snapshot shares CustomMetrics map with live metrics")
	}
}

func TestTaskStatus_JSONShape(t *testing.T) {
	data, err := json.Marshal(StatusCompleted(BaselineMetrics()))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded["state"] != "COMPLETED" {
		t.Errorf("state = %v, want COMPLETED", decoded["state"])
	}
	metrics, ok := decoded["metrics"].(map[string]interface{})
	if !ok {
		t.Fatal("metrics should be an object")
	}
	if _, ok := metrics["v_geometric"]; !ok {
		t.Error("metrics should contain v_geometric")
	}
}
