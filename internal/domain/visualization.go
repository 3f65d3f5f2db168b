package domain

import (
	"time"

	"github.com/google/uuid"
)

// SemanticAnchor is a labelled point in rotor space, recorded by
// SemanticSynthesis executions.
type SemanticAnchor struct {
	ID        uuid.UUID  `json:"id"`
	Label     string     `json:"label"`
	Position  [3]float64 `json:"position"`
	CreatedAt time.Time  `json:"created_at"`
}

// VisualizationPacket pairs a metrics snapshot with the anchors known at
// the time it was built. Read-only payload for visualization clients.
type VisualizationPacket struct {
	Metrics GeometricMetrics `json:"metrics"`
	Anchors []SemanticAnchor `json:"anchors"`
}

// NewVisualizationPacket builds a packet from copies of its inputs.
func NewVisualizationPacket(metrics GeometricMetrics, anchors []SemanticAnchor) VisualizationPacket {
	out := make([]SemanticAnchor, len(anchors))
	copy(out, anchors)
	return VisualizationPacket{Metrics: metrics.Clone(), Anchors: out}
}
