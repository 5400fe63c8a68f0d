// Package bayesian implements a sequential surrogate-free search: a
// stratified initial design followed by rounds that evaluate whichever
// candidate scores best on a distance-weighted acquisition heuristic. It is
// deliberately not a Gaussian-process optimizer; the heuristic needs no
// model fit and no matrix algebra.
package bayesian

import (
	"context"
	"math"
	"math/rand"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"

	"github.com/voltforge/stackopt/internal/optimization"
	"github.com/voltforge/stackopt/internal/optimization/acquisition"
	"github.com/voltforge/stackopt/internal/optimization/metric"
)

const (
	// initialSamples seeds the observation set. Sample i lands in stratum
	// i of each dimension independently; strata are not jointly permuted,
	// so this is stratified independent sampling rather than Latin
	// hypercube sampling.
	initialSamples = 10

	// candidatesPerRound are drawn uniformly and scored each round; only
	// the top scorer reaches the oracle.
	candidatesPerRound = 100

	// minObservationsForSpread gates the spread-based stop.
	minObservationsForSpread = 20

	// spreadWindow is how many trailing observed values the stop looks at.
	spreadWindow = 10
)

// designScales normalize the coordinates the neighbor metric compares:
// cellCount, activeArea, operatingTemperature, operatingPressure. Humidity
// and the flow rates do not contribute to distance.
var designScales = []float64{100, 1000, 100, 10}

// Observation is one evaluated design. Value is user-facing (higher is
// better), so the run's optimum is the observation with the maximum value.
type Observation struct {
	Parameters optimization.DesignParameters
	Value      float64
}

// Optimizer is the sequential heuristic strategy. Every run owns its
// observation list exclusively; nothing carries over between runs.
type Optimizer struct {
	logger *zap.Logger
}

// Option configures the optimizer.
type Option func(*Optimizer)

// WithLogger attaches a structured logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Optimizer) {
		if l != nil {
			o.logger = l
		}
	}
}

// New creates a sequential heuristic optimizer.
func New(opts ...Option) *Optimizer {
	o := &Optimizer{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = o.logger.Named("bayesian")
	return o
}

// Name returns the algorithm identifier.
func (o *Optimizer) Name() string { return string(optimization.Bayesian) }

// Optimize runs the initial design and then up to MaxIterations sequential
// rounds, stopping early once twenty or more observations exist and the
// spread of the last ten settles under the tolerance.
func (o *Optimizer) Optimize(ctx context.Context, problem optimization.Problem) (*optimization.Result, error) {
	const op = "Bayesian.Optimize"

	fields := optimization.BoundedFields(problem.Constraints)
	if len(fields) == 0 {
		return nil, optimization.NewError("constraints bound no continuous field").
			WithOperation(op).
			WithComponent("optimization")
	}
	boxes := optimization.Boxes(problem.Constraints, fields)

	params := problem.Params
	model := problem.Model
	rng := optimization.NewRand(params.RandomSeed)
	dist := metric.NewScaledEuclidean(designScales)

	o.logger.Debug("starting sequential search",
		zap.Int("dimensions", len(fields)),
		zap.Int("initial_samples", initialSamples),
		zap.Int("max_rounds", params.MaxIterations))

	observations := make([]Observation, 0, initialSamples+params.MaxIterations)
	for i := 0; i < initialSamples; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		x := make([]float64, len(fields))
		for j, b := range boxes {
			x[j] = b.Min + (float64(i)+rng.Float64())/initialSamples*b.Span()
		}
		optimization.Snap(x, fields, boxes)
		candidate := optimization.Apply(problem.Initial, fields, x)

		value, err := o.observe(ctx, model, candidate)
		if err != nil {
			return nil, err
		}
		observations = append(observations, Observation{Parameters: candidate, Value: value})
	}

	best := observations[0]
	for _, obs := range observations[1:] {
		if obs.Value > best.Value {
			best = obs
		}
	}
	acq := acquisition.NewDistanceWeighted(best.Value, acquisition.DefaultExplorationWeight)

	history := make([]optimization.ConvergenceRecord, 0, params.MaxIterations)
	converged := false

	for round := 0; round < params.MaxIterations; round++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		acq.UpdateBest(best.Value)
		candidate := o.nextCandidate(problem.Initial, fields, boxes, observations, acq, dist, rng)

		value, err := o.observe(ctx, model, candidate)
		if err != nil {
			return nil, err
		}
		observations = append(observations, Observation{Parameters: candidate, Value: value})
		if value > best.Value {
			best = observations[len(observations)-1]
		}

		history = append(history, optimization.ConvergenceRecord{
			Iteration:  round,
			Value:      best.Value,
			Parameters: best.Parameters,
		})

		if len(observations) >= minObservationsForSpread {
			recent := make([]float64, 0, spreadWindow)
			for _, obs := range observations[len(observations)-spreadWindow:] {
				recent = append(recent, obs.Value)
			}
			if spread := floats.Max(recent) - floats.Min(recent); spread < params.ConvergenceTolerance {
				converged = true
				o.logger.Debug("observed values settled",
					zap.Int("round", round),
					zap.Float64("spread", spread))
				break
			}
		}
	}

	return &optimization.Result{
		BestParameters: best.Parameters,
		BestValue:      best.Value,
		Iterations:     len(history),
		Converged:      converged,
		History:        history,
	}, nil
}

// observe runs one oracle evaluation and converts it to user-facing sign.
func (o *Optimizer) observe(ctx context.Context, model *optimization.ObjectiveModel, p optimization.DesignParameters) (float64, error) {
	scalar, err := model.Evaluate(ctx, p)
	if err != nil {
		return 0, err
	}
	return model.Value(scalar), nil
}

// nextCandidate scores a batch of uniform draws and returns the winner. A
// candidate near a strong observation scores on improvement, a candidate
// far from all data scores on novelty.
func (o *Optimizer) nextCandidate(
	base optimization.DesignParameters,
	fields []optimization.FieldSpec,
	boxes []optimization.Bounds,
	observations []Observation,
	acq *acquisition.DistanceWeighted,
	dist metric.Metric,
	rng *rand.Rand,
) optimization.DesignParameters {
	var best optimization.DesignParameters
	bestScore := math.Inf(-1)

	for c := 0; c < candidatesPerRound; c++ {
		x := make([]float64, len(fields))
		for j, b := range boxes {
			x[j] = b.Min + rng.Float64()*b.Span()
		}
		optimization.Snap(x, fields, boxes)
		candidate := optimization.Apply(base, fields, x)

		neighbor, d := nearest(observations, candidate, dist)
		if score := acq.Score(neighbor.Value, d); score > bestScore {
			bestScore = score
			best = candidate
		}
	}
	return best
}

// nearest finds the observation closest to p under the design metric.
func nearest(observations []Observation, p optimization.DesignParameters, dist metric.Metric) (Observation, float64) {
	bestIdx := 0
	bestDist := math.Inf(1)
	f := features(p)
	for i, obs := range observations {
		if d := dist.Distance(f, features(obs.Parameters)); d < bestDist {
			bestIdx = i
			bestDist = d
		}
	}
	return observations[bestIdx], bestDist
}

// features projects a design onto the coordinates the metric compares.
func features(p optimization.DesignParameters) []float64 {
	return []float64{p.CellCount, p.ActiveArea, p.OperatingTemperature, p.OperatingPressure}
}
