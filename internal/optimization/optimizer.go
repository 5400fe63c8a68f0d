package optimization

import (
	"context"
	"math/rand"
	"time"
)

// Algorithm names a search strategy. The two reserved names are accepted on
// the wire but fall back to the genetic algorithm at the engine, as does
// anything unrecognized.
type Algorithm string

const (
	GradientDescent    Algorithm = "GRADIENT_DESCENT"
	GeneticAlgorithm   Algorithm = "GENETIC_ALGORITHM"
	Bayesian           Algorithm = "BAYESIAN"
	ParticleSwarm      Algorithm = "PARTICLE_SWARM"      // reserved
	SimulatedAnnealing Algorithm = "SIMULATED_ANNEALING" // reserved
)

// Defaults for zero-valued Parameters fields.
const (
	DefaultMaxIterations        = 100
	DefaultConvergenceTolerance = 1e-6
	DefaultPopulationSize       = 50
)

// Parameters tunes one run. Zero values mean "use the default".
type Parameters struct {
	Algorithm            Algorithm `json:"algorithm"`
	MaxIterations        int       `json:"maxIterations"`
	ConvergenceTolerance float64   `json:"convergenceTolerance"`
	PopulationSize       int       `json:"populationSize"` // genetic algorithm only
	RandomSeed           int64     `json:"randomSeed"`     // 0 seeds from the clock

	// Accepted for forward compatibility with the reserved algorithms;
	// nothing reads them today.
	TemperatureSchedule string `json:"temperatureSchedule,omitempty"`
	AcquisitionFunction string `json:"acquisitionFunction,omitempty"`
}

// WithDefaults returns a copy of p with zero values filled in.
func (p Parameters) WithDefaults() Parameters {
	if p.MaxIterations <= 0 {
		p.MaxIterations = DefaultMaxIterations
	}
	if p.ConvergenceTolerance <= 0 {
		p.ConvergenceTolerance = DefaultConvergenceTolerance
	}
	if p.PopulationSize <= 0 {
		p.PopulationSize = DefaultPopulationSize
	}
	return p
}

// NewRand builds a run's random source. Seed 0 draws from the clock so
// unseeded runs do not replay each other; any other seed reproduces the
// run exactly.
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// Problem is one fully assembled optimization task. The engine builds it:
// the model carries the oracle, objective, and catalog so every strategy
// shares a single evaluation path.
type Problem struct {
	Initial     DesignParameters
	Constraints Constraints
	Params      Parameters
	Model       *ObjectiveModel
}

// ConvergenceRecord is one history entry. Value is in user-facing sign
// (higher is better) regardless of the objective type.
type ConvergenceRecord struct {
	Iteration  int              `json:"iteration"`
	Value      float64          `json:"objectiveValue"`
	Parameters DesignParameters `json:"parameters"`
}

// Result is what one optimizer run returns. The history is owned by the
// caller once returned; the optimizer keeps no reference to it.
type Result struct {
	BestParameters DesignParameters    `json:"bestParameters"`
	BestValue      float64             `json:"bestValue"`
	Iterations     int                 `json:"iterations"`
	Converged      bool                `json:"converged"`
	History        []ConvergenceRecord `json:"history"`
}

// Optimizer is the strategy contract the searches implement. Optimize is
// synchronous and owns all of its state; callers abandon a run through ctx.
// Implementations must honor ctx at iteration boundaries at minimum.
type Optimizer interface {
	Optimize(ctx context.Context, problem Problem) (*Result, error)
	Name() string
}
