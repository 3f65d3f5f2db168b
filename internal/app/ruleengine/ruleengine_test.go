package ruleengine

import (
	"testing"

	"github.com/mmss-network/mmss/internal/domain"
)

func TestEngine_RuleNamesSorted(t *testing.T) {
	e := NewEngine()

	names := e.RuleNames()
	if len(names) != e.RuleCount() {
		t.Fatalf("len(names) = %d, want %d", len(names), e.RuleCount())
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Errorf("names not sorted: %q before %q", names[i-1], names[i])
		}
	}
}

func TestEngine_Evaluate(t *testing.T) {
	e := NewEngine()
	m := domain.BaselineMetrics()

	out := e.Evaluate(m)

	want := m.QuaternionCoherence / m.ZitterbewegungEntropy
	if got := out.CustomMetrics["coherence_entropy_ratio"]; got != want {
		t.Errorf("coherence_entropy_ratio = %g, want %g", got, want)
	}
	if _, ok := out.CustomMetrics["geometric_action"]; !ok {
		t.Error("geometric_action missing from evaluation")
	}

	// Input snapshot stays untouched.
	if len(m.CustomMetrics) != 0 {
		t.Error("Evaluate must not mutate its input")
	}
}

func TestEngine_Register(t *testing.T) {
	e := NewEngine()
	before := e.RuleCount()

	e.Register(Rule{
		Name:   "unity",
		Derive: func(domain.GeometricMetrics) float64 { return 1 },
	})

	if e.RuleCount() != before+1 {
		t.Errorf("RuleCount = %d, want %d", e.RuleCount(), before+1)
	}
	out := e.Evaluate(domain.BaselineMetrics())
	if out.CustomMetrics["unity"] != 1 {
		t.Error("registered rule should be evaluated")
	}
}
