// Package metric provides distance measures over the continuous design
// space. The sequential optimizer uses them to weigh closeness to known
// good designs against novelty when picking its next evaluation.
package metric

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Metric measures distance between two points in design space.
type Metric interface {
	// Distance computes the distance between a and b. Both must have as
	// many coordinates as the metric has scales.
	Distance(a, b []float64) float64
}

// ScaledEuclidean divides each coordinate by a fixed scale before applying
// the L2 norm, so fields of very different magnitudes (cell counts vs
// pressures) contribute comparably.
type ScaledEuclidean struct {
	scales []float64
}

// NewScaledEuclidean creates a scaled Euclidean metric. Panics on empty or
// non-positive scales.
func NewScaledEuclidean(scales []float64) *ScaledEuclidean {
	if len(scales) == 0 {
		panic("metric: no scales given")
	}
	for i, s := range scales {
		if s <= 0 {
			panic(fmt.Sprintf("metric: scale %d must be positive, got %v", i, s))
		}
	}
	return &ScaledEuclidean{scales: append([]float64(nil), scales...)}
}

// Dims returns the number of coordinates the metric expects.
func (m *ScaledEuclidean) Dims() int { return len(m.scales) }

// Distance computes the scaled L2 distance between a and b.
func (m *ScaledEuclidean) Distance(a, b []float64) float64 {
	sa := make([]float64, len(m.scales))
	sb := make([]float64, len(m.scales))
	for i, s := range m.scales {
		sa[i] = a[i] / s
		sb[i] = b[i] / s
	}
	return floats.Distance(sa, sb, 2)
}
