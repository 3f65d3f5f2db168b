// Package ruleengine derives named secondary metrics from a snapshot.
// Rules are pure functions; evaluation writes results into the open
// custom_metrics mapping without touching the named scalar fields.
package ruleengine

import (
	"sort"
	"sync"

	"github.com/mmss-network/mmss/internal/domain"
)

// Rule derives one named scalar from a metrics snapshot.
type Rule struct {
	Name   string
	Derive func(domain.GeometricMetrics) float64
}

// Engine holds a registry of derivation rules.
type Engine struct {
	mu    sync.RWMutex
	rules []Rule
}

// NewEngine returns an engine preloaded with the standard derivations.
func NewEngine() *Engine {
	return &Engine{
		rules: []Rule{
			{
				Name: "coherence_entropy_ratio",
				Derive: func(m domain.GeometricMetrics) float64 {
					if m.ZitterbewegungEntropy == 0 {
						return 0
					}
					return m.QuaternionCoherence / m.ZitterbewegungEntropy
				},
			},
			{
				Name: "zitter_mass_scale",
				Derive: func(m domain.GeometricMetrics) float64 {
					return m.EmergentElectronMass * domain.SpeedOfLight * domain.SpeedOfLight
				},
			},
			{
				Name: "winding_density",
				Derive: func(m domain.GeometricMetrics) float64 {
					if m.QOscillator == 0 {
						return 0
					}
					return m.TopologicalWinding / m.QOscillator
				},
			},
			{
				Name: "geometric_action",
				Derive: func(m domain.GeometricMetrics) float64 {
					return m.VGeometric * m.SGeometric
				},
			},
		},
	}
}

// Register appends a rule. Later registrations with the same name shadow
// earlier ones at evaluation time.
func (e *Engine) Register(r Rule) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rules = append(e.rules, r)
}

// RuleNames returns the registered rule names, sorted.
func (e *Engine) RuleNames() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	names := make([]string, 0, len(e.rules))
	for _, r := range e.rules {
		names = append(names, r.Name)
	}
	sort.Strings(names)
	return names
}

// RuleCount returns the number of registered rules.
func (e *Engine) RuleCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.rules)
}

// Evaluate runs every rule against the snapshot and returns a copy with
// the derived values merged into CustomMetrics. The input is not mutated.
func (e *Engine) Evaluate(m domain.GeometricMetrics) domain.GeometricMetrics {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := m.Clone()
	for _, r := range e.rules {
		out.CustomMetrics[r.Name] = r.Derive(m)
	}
	return out
}
