package emergence

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/mmss-network/mmss/internal/domain"
)

func TestApplyOperator_RotationMonotonicity(t *testing.T) {
	logic := NewLogic()
	prev := domain.BaselineMetrics()

	for i := 0; i < 5; i++ {
		next, err := logic.ApplyOperator(domain.OperatorQuaternionRotation, nil, prev)
		if err != nil {
			t.Fatalf("ApplyOperator: %v", err)
		}

		if next.VGeometric <= prev.VGeometric {
			t.Errorf("step %d: v_geometric %g should strictly increase from %g",
				i, next.VGeometric, prev.VGeometric)
		}
		if next.SGeometric < prev.SGeometric {
			t.Errorf("step %d: s_geometric %g decreased from %g", i, next.SGeometric, prev.SGeometric)
		}
		if next.QOscillator < prev.QOscillator {
			t.Errorf("step %d: q_oscillator %g decreased from %g", i, next.QOscillator, prev.QOscillator)
		}
		prev = next
	}
}

func TestApplyOperator_RotationCompounds(t *testing.T) {
	// Two engines given identical input end up identical; applying one more
	// step changes the outcome — per-instance state compounds.
	a, b := NewLogic(), NewLogic()
	base := domain.BaselineMetrics()

	m1, _ := a.ApplyOperator(domain.OperatorQuaternionRotation, nil, base)
	m2, _ := b.ApplyOperator(domain.OperatorQuaternionRotation, nil, base)
	if m1.VGeometric != m2.VGeometric {
		t.Error("identical engines should produce identical results")
	}

	m3, _ := a.ApplyOperator(domain.OperatorQuaternionRotation, nil, m1)
	if m3.VGeometric <= m1.VGeometric {
		t.Error("second application should compound")
	}
}

func TestApplyOperator_DoesNotMutatePrev(t *testing.T) {
	logic := NewLogic()
	prev := domain.BaselineMetrics()
	before := prev.VGeometric

	if _, err := logic.ApplyOperator(domain.OperatorQuaternionRotation, nil, prev); err != nil {
		t.Fatalf("ApplyOperator: %v", err)
	}
	if prev.VGeometric != before {
		t.Error("previous snapshot must not be mutated")
	}
}

func TestApplyOperator_Zitterbewegung(t *testing.T) {
	logic := NewLogic()
	prev := domain.BaselineMetrics()

	next, err := logic.ApplyOperator(domain.OperatorZitterbewegung, json.RawMessage(`{}`), prev)
	if err != nil {
		t.Fatalf("ApplyOperator: %v", err)
	}
	if next.ZitterbewegungEntropy <= prev.ZitterbewegungEntropy {
		t.Error("zitterbewegung should raise the entropy")
	}
	if next.VGeometric != prev.VGeometric {
		t.Error("zitterbewegung should leave v_geometric untouched")
	}
}

func TestApplyOperator_Derivation(t *testing.T) {
	logic := NewLogic()
	prev := domain.BaselineMetrics()
	prev.EmergentElectronMass = 0
	prev.FineStructureConstant = 0

	next, err := logic.ApplyOperator(domain.OperatorGeometricDerivation, nil, prev)
	if err != nil {
		t.Fatalf("ApplyOperator: %v", err)
	}
	if next.EmergentElectronMass != domain.ComputeElectronMass() {
		t.Error("derivation should re-derive the electron mass")
	}
	if next.FineStructureConstant != domain.ComputeFineStructure() {
		t.Error("derivation should re-derive the fine-structure constant")
	}
}

func TestApplyOperator_SynthesisRecordsAnchor(t *testing.T) {
	logic := NewLogic()
	prev := domain.BaselineMetrics()

	params := json.RawMessage(`{"label": "vacuum seed"}`)
	next, err := logic.ApplyOperator(domain.OperatorSemanticSynthesis, params, prev)
	if err != nil {
		t.Fatalf("ApplyOperator: %v", err)
	}

	anchors := logic.Anchors()
	if len(anchors) != 1 {
		t.Fatalf("len(anchors) = %d, want 1", len(anchors))
	}
	if anchors[0].Label != "vacuum seed" {
		t.Errorf("label = %q, want %q", anchors[0].Label, "vacuum seed")
	}
	if next.CustomMetrics["semantic_anchor_count"] != 1 {
		t.Errorf("semantic_anchor_count = %g, want 1", next.CustomMetrics["semantic_anchor_count"])
	}
}

func TestApplyOperator_MalformedParams(t *testing.T) {
	logic := NewLogic()

	_, err := logic.ApplyOperator(domain.OperatorQuaternionRotation,
		json.RawMessage(`{not json`), domain.BaselineMetrics())
	if !errors.Is(err, domain.ErrSerialization) {
		t.Errorf("err = %v, want ErrSerialization", err)
	}
}

func TestAnchors_ReturnsCopy(t *testing.T) {
	logic := NewLogic()
	_, _ = logic.ApplyOperator(domain.OperatorSemanticSynthesis, nil, domain.BaselineMetrics())

	got := logic.Anchors()
	got[0].Label = "mutated"

	if logic.Anchors()[0].Label == "mutated" {
		t.Error("Anchors should return a copy, not internal state")
	}
}
