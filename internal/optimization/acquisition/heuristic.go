// Package acquisition scores candidate designs for sequential optimization:
// deciding which point is worth the next oracle call.
package acquisition

// DefaultExplorationWeight is the novelty weight the sequential optimizer
// uses unless configured otherwise.
const DefaultExplorationWeight = 10.0

// DistanceWeighted is a surrogate-free acquisition heuristic. A candidate
// scores by how much its nearest observed neighbor improves on the
// incumbent, plus a bonus proportional to its distance from that neighbor.
// Far-from-data candidates can win even with no improvement in sight, which
// keeps the search exploring.
type DistanceWeighted struct {
	// Best observed value so far, user-facing sign (higher is better)
	bestObserved float64
	// Weight on the novelty bonus
	explorationWeight float64
}

// NewDistanceWeighted creates the scorer with the current incumbent value
// and the exploration weight.
func NewDistanceWeighted(bestObserved, explorationWeight float64) *DistanceWeighted {
	return &DistanceWeighted{
		bestObserved:      bestObserved,
		explorationWeight: explorationWeight,
	}
}

// Score rates one candidate given its nearest observed neighbor's value and
// distance. The result is always non-negative.
func (a *DistanceWeighted) Score(neighborValue, distance float64) float64 {
	improvement := neighborValue - a.bestObserved
	if improvement < 0 {
		improvement = 0
	}
	return improvement + a.explorationWeight*distance
}

// UpdateBest records a new incumbent value.
func (a *DistanceWeighted) UpdateBest(best float64) {
	a.bestObserved = best
}

// BestObserved returns the current incumbent value.
func (a *DistanceWeighted) BestObserved() float64 {
	return a.bestObserved
}
