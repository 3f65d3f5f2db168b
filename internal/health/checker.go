// Package health provides periodic engine health checks.
package health

import (
	"context"
	"fmt"
	"math"
	"os"
	"sync"
	"time"

	"github.com/mmss-network/mmss/internal/domain"
)

// Pinger is the optional liveness probe of a persistence backend.
type Pinger interface {
	Ping() error
}

// SnapshotSource yields the current metrics snapshot.
type SnapshotSource interface {
	Metrics() domain.GeometricMetrics
}

// Check defines a single health check.
type Check struct {
	Name    string
	CheckFn func(ctx context.Context) error
}

// Status represents the result of a health check.
type Status struct {
	Name      string    `json:"name"`
	Healthy   bool      `json:"healthy"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// Checker runs periodic health checks over the engine's moving parts.
type Checker struct {
	mu       sync.RWMutex
	checks   []Check
	statuses []Status
	interval time.Duration
}

// NewChecker creates a checker over the snapshot source, the persistence
// backend (nil when persistence is disabled), and the data directory.
func NewChecker(src SnapshotSource, store Pinger, dataDir string) *Checker {
	return &Checker{
		interval: 60 * time.Second,
		checks: []Check{
			{
				Name: "storage",
				CheckFn: func(ctx context.Context) error {
					if store == nil {
						return nil // Persistence disabled, nothing to probe
					}
					return store.Ping()
				},
			},
			{
				Name: "snapshot",
				CheckFn: func(ctx context.Context) error {
					return checkSnapshot(src.Metrics())
				},
			},
			{
				Name: "data_dir",
				CheckFn: func(ctx context.Context) error {
					return checkDataDir(dataDir)
				},
			},
		},
	}
}

// Run starts the health check loop. Call in a goroutine.
func (c *Checker) Run(ctx context.Context) {
	// Run immediately on start
	c.runAll(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.runAll(ctx)
		}
	}
}

func (c *Checker) runAll(ctx context.Context) {
	statuses := make([]Status, len(c.checks))
	for i, check := range c.checks {
		s := Status{
			Name:      check.Name,
			CheckedAt: time.Now(),
		}
		if err := check.CheckFn(ctx); err != nil {
			s.Healthy = false
			s.Error = err.Error()
		} else {
			s.Healthy = true
		}
		statuses[i] = s
	}

	c.mu.Lock()
	c.statuses = statuses
	c.mu.Unlock()
}

// Statuses returns the latest health check results.
func (c *Checker) Statuses() []Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]Status, len(c.statuses))
	copy(result, c.statuses)
	return result
}

// IsHealthy returns true if all checks pass.
func (c *Checker) IsHealthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, s := range c.statuses {
		if !s.Healthy {
			return false
		}
	}
	return true
}

// ─── Check Implementations ──────────────────────────────────────────────────

// checkSnapshot validates the invariants of the shared metrics snapshot.
func checkSnapshot(m domain.GeometricMetrics) error {
	fields := map[string]float64{
		"v_geometric":             m.VGeometric,
		"s_geometric":             m.SGeometric,
		"q_oscillator":            m.QOscillator,
		"quaternion_coherence":    m.QuaternionCoherence,
		"emergent_electron_mass":  m.EmergentElectronMass,
		"fine_structure_constant": m.FineStructureConstant,
		"zitterbewegung_entropy":  m.ZitterbewegungEntropy,
		"topological_winding":     m.TopologicalWinding,
	}
	for name, v := range fields {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s is not finite", name)
		}
	}
	if m.QuaternionCoherence < 0 || m.QuaternionCoherence > 1 {
		return fmt.Errorf("quaternion_coherence %g outside [0,1]", m.QuaternionCoherence)
	}
	if m.EmergentElectronMass <= 0 {
		return fmt.Errorf("emergent_electron_mass %g not positive", m.EmergentElectronMass)
	}
	return nil
}

func checkDataDir(dir string) error {
	if dir == "" {
		return nil
	}
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // Not created yet, that's fine
		}
		return fmt.Errorf("check data dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}
