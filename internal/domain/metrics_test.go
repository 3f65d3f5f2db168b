package domain

import (
	"math"
	"testing"
)

func TestBaselineMetrics(t *testing.T) {
	m := BaselineMetrics()

	if m.QuaternionCoherence != 0.9997 {
		t.Errorf("QuaternionCoherence = %g, want 0.9997", m.QuaternionCoherence)
	}
	if m.ZitterbewegungEntropy != 0.0003 {
		t.Errorf("ZitterbewegungEntropy = %g, want 0.0003", m.ZitterbewegungEntropy)
	}
	if m.TopologicalWinding != 8.9997 {
		t.Errorf("TopologicalWinding = %g, want 8.9997", m.TopologicalWinding)
	}
	if m.VGeometric != m.QuaternionCoherence {
		t.Error("VGeometric should seed from coherence")
	}
	if m.CustomMetrics == nil {
		t.Error("CustomMetrics should be initialized")
	}

	wantAlpha := 1.0 / 137.035999084
	if math.Abs(m.FineStructureConstant-wantAlpha) > 1e-15 {
		t.Errorf("FineStructureConstant = %g, want %g", m.FineStructureConstant, wantAlpha)
	}

	wantMass := HBar / (2 * SpeedOfLight * ZitterAmplitude)
	if m.EmergentElectronMass != wantMass {
		t.Errorf("EmergentElectronMass = %g, want %g", m.EmergentElectronMass, wantMass)
	}
}

func TestGeometricMetrics_CloneIndependence(t *testing.T) {
	m := BaselineMetrics()
	m.CustomMetrics["a"] = 1

	c := m.Clone()
	c.VGeometric = 42
	c.CustomMetrics["a"] = 2
	c.CustomMetrics["b"] = 3

	if m.VGeometric == 42 {
		t.Error("clone shares scalar fields")
	}
	if m.CustomMetrics["a"] != 1 {
		t.Error("clone shares CustomMetrics map")
	}
	if _, ok := m.CustomMetrics["b"]; ok {
		t.Error("clone writes leak into the original map")
	}
}
