package cli

import (
	"sort"

	"github.com/mmss-network/mmss/internal/domain"
)

// sortedCustomNames returns the custom metric names in sorted order for
// stable table output.
func sortedCustomNames(m domain.GeometricMetrics) []string {
	names := make([]string, 0, len(m.CustomMetrics))
	for name := range m.CustomMetrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
