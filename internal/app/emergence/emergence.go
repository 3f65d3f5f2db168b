// Package emergence computes new metric snapshots from geometric operators.
// The processor consumes it through the Engine capability interface so the
// task lifecycle can be tested against a deterministic stand-in.
package emergence

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/mmss-network/mmss/internal/domain"
)

// Engine transforms a previous metrics snapshot under one operator.
// Implementations may carry internal state (one instance lives per
// processor, so repeated applications compound), but must be deterministic
// for identical operator, parameters, previous metrics and internal state.
type Engine interface {
	ApplyOperator(op domain.GeometricOperator, params json.RawMessage, prev domain.GeometricMetrics) (domain.GeometricMetrics, error)
}

// AnchorSource is implemented by engines that record semantic anchors.
type AnchorSource interface {
	Anchors() []domain.SemanticAnchor
}

// operatorParams is the loose parameter shape shared by all operators.
// Unknown fields are ignored; absent fields fall back to defaults.
type operatorParams struct {
	Axis      *[3]float64 `json:"axis,omitempty"`
	AngleRad  *float64    `json:"angle_rad,omitempty"`
	Amplitude *float64    `json:"amplitude,omitempty"`
	Frequency *float64    `json:"frequency,omitempty"`
	Label     string      `json:"label,omitempty"`
}

// Default rotation step: π/8 about the z-axis.
var defaultAxis = [3]float64{0, 0, 1}

const defaultAngle = math.Pi / 8

// Logic is the default emergence engine. It accumulates a rotor across
// rotation steps so successive applications compound.
type Logic struct {
	rotor   domain.Quaternion
	steps   map[domain.GeometricOperator]int
	anchors []domain.SemanticAnchor
}

// NewLogic creates an engine starting from the identity rotor.
func NewLogic() *Logic {
	return &Logic{
		rotor: domain.IdentityQuaternion(),
		steps: make(map[domain.GeometricOperator]int),
	}
}

// ApplyOperator transforms prev into the next snapshot. The caller (the
// processor) serializes access; Logic itself is not goroutine safe.
//
// Contract: QuaternionRotation strictly increases v_geometric and never
// decreases s_geometric or q_oscillator.
func (l *Logic) ApplyOperator(op domain.GeometricOperator, params json.RawMessage, prev domain.GeometricMetrics) (domain.GeometricMetrics, error) {
	p, err := decodeParams(params)
	if err != nil {
		return domain.GeometricMetrics{}, err
	}

	next := prev.Clone()

	switch op {
	case domain.OperatorQuaternionRotation:
		l.applyRotation(p, &next)
	case domain.OperatorZitterbewegung:
		l.applyZitterbewegung(p, &next)
	case domain.OperatorGeometricDerivation:
		l.applyDerivation(&next)
	case domain.OperatorSemanticSynthesis:
		l.applySynthesis(p, &next)
	default:
		// Normalization upstream is total; treat stragglers as rotation.
		l.applyRotation(p, &next)
	}

	l.steps[op]++
	return next, nil
}

// applyRotation advances the accumulated rotor and lifts the geometric
// velocity and oscillator metrics.
func (l *Logic) applyRotation(p operatorParams, next *domain.GeometricMetrics) {
	axis := defaultAxis
	if p.Axis != nil {
		axis = *p.Axis
	}
	angle := defaultAngle
	if p.AngleRad != nil {
		angle = *p.AngleRad
	}

	step := domain.FromAxisAngle(axis, angle)
	l.rotor = l.rotor.Multiply(step).Normalize()

	next.VGeometric = next.VGeometric*1.03 + 0.01
	next.SGeometric += math.Abs(angle) * 1e-4
	next.QOscillator += math.Pow(math.Sin(angle/2), 2) * 0.01
	next.QuaternionCoherence = (next.QuaternionCoherence + math.Abs(l.rotor.W)) / 2
	next.TopologicalWinding += math.Abs(angle) / (2 * math.Pi)
}

// applyZitterbewegung models the trembling-motion oscillation: entropy and
// the oscillator metric grow with amplitude and frequency.
func (l *Logic) applyZitterbewegung(p operatorParams, next *domain.GeometricMetrics) {
	amplitude := domain.ZitterAmplitude
	if p.Amplitude != nil {
		amplitude = *p.Amplitude
	}
	frequency := domain.ZitterFrequency
	if p.Frequency != nil {
		frequency = *p.Frequency
	}

	// Dimensionless oscillation scale relative to the characteristic values.
	scale := math.Abs(amplitude/domain.ZitterAmplitude) * math.Abs(frequency/domain.ZitterFrequency)

	next.ZitterbewegungEntropy += 0.0001 * scale
	next.SGeometric += 0.0001 * scale
	next.QOscillator += 0.001 * scale
}

// applyDerivation re-derives the constant-based metrics and relaxes the
// coherence toward its baseline.
func (l *Logic) applyDerivation(next *domain.GeometricMetrics) {
	next.EmergentElectronMass = domain.ComputeElectronMass()
	next.FineStructureConstant = domain.ComputeFineStructure()

	baseline := domain.ComputeQuaternionCoherence()
	next.QuaternionCoherence += (baseline - next.QuaternionCoherence) / 2
}

// applySynthesis records a semantic anchor at the current rotor orientation.
func (l *Logic) applySynthesis(p operatorParams, next *domain.GeometricMetrics) {
	label := p.Label
	if label == "" {
		label = fmt.Sprintf("anchor-%d", len(l.anchors)+1)
	}

	l.anchors = append(l.anchors, domain.SemanticAnchor{
		ID:        uuid.New(),
		Label:     label,
		Position:  l.rotor.RotateVector([3]float64{1, 0, 0}),
		CreatedAt: time.Now().UTC(),
	})

	next.CustomMetrics["semantic_anchor_count"] = float64(len(l.anchors))
}

// Anchors returns a copy of all recorded semantic anchors.
func (l *Logic) Anchors() []domain.SemanticAnchor {
	out := make([]domain.SemanticAnchor, len(l.anchors))
	copy(out, l.anchors)
	return out
}

func decodeParams(params json.RawMessage) (operatorParams, error) {
	var p operatorParams
	if len(params) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return p, fmt.Errorf("%w: decode operator parameters: %v", domain.ErrSerialization, err)
	}
	return p, nil
}
