package domain

// Physical constants seeding the baseline metrics.
const (
	HBar            = 1.054571817e-34 // J·s
	SpeedOfLight    = 299792458.0     // m/s
	ZitterFrequency = 1.55e21         // rad/s
	ZitterAmplitude = 1.93e-13        // m

	// DefaultTopologicalWinding is the baseline winding number before any
	// task has executed.
	DefaultTopologicalWinding = 8.9997
)

// GeometricMetrics is the record of derived scalar quantities shared by all
// tasks. There is exactly one current snapshot per processor; each completed
// task keeps the snapshot value at the moment its execution finished.
type GeometricMetrics struct {
	VGeometric            float64            `json:"v_geometric"`
	SGeometric            float64            `json:"s_geometric"`
	QOscillator           float64            `json:"q_oscillator"`
	QuaternionCoherence   float64            `json:"quaternion_coherence"`
	EmergentElectronMass  float64            `json:"emergent_electron_mass"`
	FineStructureConstant float64            `json:"fine_structure_constant"`
	ZitterbewegungEntropy float64            `json:"zitterbewegung_entropy"`
	TopologicalWinding    float64            `json:"topological_winding"`
	CustomMetrics         map[string]float64 `json:"custom_metrics"`
}

// ComputeElectronMass derives the emergent electron mass from ℏ, c and the
// characteristic zitter amplitude: m = ℏ / (2·c·r_zitter).
func ComputeElectronMass() float64 {
	return HBar / (2 * SpeedOfLight * ZitterAmplitude)
}

// ComputeFineStructure returns the fine-structure constant α ≈ 1/137.036.
func ComputeFineStructure() float64 {
	return 1.0 / 137.035999084
}

// ComputeQuaternionCoherence returns the baseline rotor-field coherence.
func ComputeQuaternionCoherence() float64 {
	return 0.9997
}

// ComputeZitterEntropy returns the baseline zitterbewegung entropy.
func ComputeZitterEntropy() float64 {
	return 0.0003
}

// BaselineMetrics seeds the initial shared snapshot before any task
// executes. Pure function of the physical constants above.
func BaselineMetrics() GeometricMetrics {
	coherence := ComputeQuaternionCoherence()
	entropy := ComputeZitterEntropy()

	return GeometricMetrics{
		VGeometric:            coherence,
		SGeometric:            entropy,
		QOscillator:           DefaultTopologicalWinding,
		QuaternionCoherence:   coherence,
		EmergentElectronMass:  ComputeElectronMass(),
		FineStructureConstant: ComputeFineStructure(),
		ZitterbewegungEntropy: entropy,
		TopologicalWinding:    DefaultTopologicalWinding,
		CustomMetrics:         map[string]float64{},
	}
}

// Clone returns a deep copy. Callers outside the processor only ever see
// copies, never references into shared state.
func (m GeometricMetrics) Clone() GeometricMetrics {
	out := m
	out.CustomMetrics = make(map[string]float64, len(m.CustomMetrics))
	for k, v := range m.CustomMetrics {
		out.CustomMetrics[k] = v
	}
	return out
}
