// Package genetic implements population-based evolutionary search with
// tournament selection, uniform crossover, and elitism. Within a generation
// no individual depends on another, so fitness evaluation fans out across
// the oracle concurrently.
package genetic

import (
	"context"
	"math"
	"math/rand"
	"runtime"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/voltforge/stackopt/internal/optimization"
)

const (
	tournamentSize = 3
	crossoverRate  = 0.8
	mutationRate   = 0.1
	eliteFraction  = 0.1

	// varianceWindow is how many trailing generations the convergence
	// check looks at; the check arms only once the window has history
	// beyond itself.
	varianceWindow = 10
)

// Mutation step half-widths. Only these three fields (and the anode
// catalyst) mutate; everything else moves through crossover alone.
const (
	cellCountStep   = 5.0
	activeAreaStep  = 10.0
	temperatureStep = 5.0
)

// Optimizer is the genetic-algorithm strategy.
type Optimizer struct {
	logger  *zap.Logger
	workers int
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

// WithWorkers caps how many oracle calls one generation may have in flight
// at once. Values below 1 keep the GOMAXPROCS default.
func WithWorkers(n int) Option {
	return func(o *Optimizer) {
		if n > 0 {
			o.workers = n
		}
	}
}

// New creates a genetic-algorithm optimizer.
func New(opts ...Option) *Optimizer {
	o := &Optimizer{
		logger:  zap.NewNop(),
		workers: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = o.logger.Named("genetic_algorithm")
	return o
}

// Name returns the algorithm identifier.
func (o *Optimizer) Name() string { return string(optimization.GeneticAlgorithm) }

// Optimize evolves a population until the best fitness plateaus or
// iterations run out. The returned optimum comes from a fresh evaluation of
// the terminal population, which can disagree with the best history entry;
// the history keeps its own record.
func (o *Optimizer) Optimize(ctx context.Context, problem optimization.Problem) (*optimization.Result, error) {
	const op = "GeneticAlgorithm.Optimize"

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

	population := o.initialize(problem, fields, boxes, rng)
	history := make([]optimization.ConvergenceRecord, 0, params.MaxIterations)
	bestPerGeneration := make([]float64, 0, params.MaxIterations)
	converged := false

	o.logger.Debug("starting evolution",
		zap.Int("population", len(population)),
		zap.Int("workers", o.workers),
		zap.Int("max_iterations", params.MaxIterations))

	for iter := 0; iter < params.MaxIterations; iter++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		fitness, err := o.evaluateGeneration(ctx, model, population)
		if err != nil {
			return nil, err
		}

		best := bestIndex(fitness)
		history = append(history, optimization.ConvergenceRecord{
			Iteration:  iter,
			Value:      fitness[best],
			Parameters: population[best],
		})
		bestPerGeneration = append(bestPerGeneration, fitness[best])

		if len(bestPerGeneration) > varianceWindow {
			window := bestPerGeneration[len(bestPerGeneration)-varianceWindow:]
			if v := stat.Variance(window, nil); v < params.ConvergenceTolerance {
				converged = true
				o.logger.Debug("best fitness plateaued",
					zap.Int("generation", iter),
					zap.Float64("variance", v))
				break
			}
		}

		population = o.reproduce(population, fitness, problem.Constraints, rng)
	}

	// The terminal population may have been reproduced after the last
	// recorded generation, so it gets its own evaluation.
	fitness, err := o.evaluateGeneration(ctx, model, population)
	if err != nil {
		return nil, err
	}
	best := bestIndex(fitness)

	return &optimization.Result{
		BestParameters: population[best],
		BestValue:      fitness[best],
		Iterations:     len(history),
		Converged:      converged,
		History:        history,
	}, nil
}

// evaluateGeneration fans the whole population out to the oracle, honoring
// the worker cap. The first failed evaluation cancels the rest and aborts
// the run.
func (o *Optimizer) evaluateGeneration(ctx context.Context, model *optimization.ObjectiveModel, population []optimization.DesignParameters) ([]float64, error) {
	fitness := make([]float64, len(population))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for i, candidate := range population {
		g.Go(func() error {
			scalar, err := model.Evaluate(ctx, candidate)
			if err != nil {
				return err
			}
			fitness[i] = model.Value(scalar)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return fitness, nil
}

// initialize seeds the population: slot 0 is the caller's guess snapped
// into the box, the rest are uniform draws within every bound with
// materials sampled from their allow-lists.
func (o *Optimizer) initialize(problem optimization.Problem, fields []optimization.FieldSpec, boxes []optimization.Bounds, rng *rand.Rand) []optimization.DesignParameters {
	population := make([]optimization.DesignParameters, problem.Params.PopulationSize)

	x := optimization.Vector(problem.Initial, fields)
	optimization.Snap(x, fields, boxes)
	population[0] = optimization.Apply(problem.Initial, fields, x)

	for i := 1; i < len(population); i++ {
		draw := make([]float64, len(fields))
		for j, b := range boxes {
			draw[j] = uniform(rng, b.Min, b.Max)
		}
		optimization.Snap(draw, fields, boxes)

		candidate := optimization.Apply(problem.Initial, fields, draw)
		candidate.AnodeCatalyst = sampleMaterial(problem.Constraints.AllowedAnodeCatalysts, candidate.AnodeCatalyst, rng)
		candidate.CathodeCatalyst = sampleMaterial(problem.Constraints.AllowedCathodeCatalysts, candidate.CathodeCatalyst, rng)
		candidate.MembraneType = sampleMaterial(problem.Constraints.AllowedMembranes, candidate.MembraneType, rng)
		population[i] = candidate
	}
	return population
}

// reproduce builds the next generation: elites first, then crossover pairs
// or mutated tournament winners until the population is full.
func (o *Optimizer) reproduce(population []optimization.DesignParameters, fitness []float64, constraints optimization.Constraints, rng *rand.Rand) []optimization.DesignParameters {
	size := len(population)
	next := make([]optimization.DesignParameters, 0, size)

	order := make([]int, size)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return fitness[order[a]] > fitness[order[b]] })

	eliteCount := int(eliteFraction * float64(size))
	for _, idx := range order[:eliteCount] {
		next = append(next, population[idx])
	}

	for len(next) < size {
		if rng.Float64() < crossoverRate {
			first, second := o.crossover(
				o.tournament(population, fitness, rng),
				o.tournament(population, fitness, rng),
				rng,
			)
			next = append(next, first)
			if len(next) < size {
				next = append(next, second)
			}
		} else {
			next = append(next, o.mutate(o.tournament(population, fitness, rng), constraints, rng))
		}
	}
	return next
}

// tournament picks the fittest of tournamentSize individuals drawn
// uniformly with replacement.
func (o *Optimizer) tournament(population []optimization.DesignParameters, fitness []float64, rng *rand.Rand) optimization.DesignParameters {
	best := rng.Intn(len(population))
	for i := 1; i < tournamentSize; i++ {
		if c := rng.Intn(len(population)); fitness[c] > fitness[best] {
			best = c
		}
	}
	return population[best]
}

// crossover produces two children by swapping each continuous field between
// the parents independently at even odds; the anode catalyst swaps the same
// way. Feasible parents always yield feasible children.
func (o *Optimizer) crossover(a, b optimization.DesignParameters, rng *rand.Rand) (optimization.DesignParameters, optimization.DesignParameters) {
	first, second := a, b
	for _, f := range optimization.ContinuousFields() {
		if rng.Float64() < 0.5 {
			va, vb := f.Get(a), f.Get(b)
			first = f.Set(first, vb)
			second = f.Set(second, va)
		}
	}
	if rng.Float64() < 0.5 {
		first.AnodeCatalyst, second.AnodeCatalyst = b.AnodeCatalyst, a.AnodeCatalyst
	}
	return first, second
}

// mutate perturbs the three mutable numeric fields and resamples the anode
// catalyst, each independently at the mutation rate, staying inside the box.
func (o *Optimizer) mutate(p optimization.DesignParameters, c optimization.Constraints, rng *rand.Rand) optimization.DesignParameters {
	if b := c.CellCount; b != nil && rng.Float64() < mutationRate {
		p.CellCount = b.Clamp(math.Round(p.CellCount + uniform(rng, -cellCountStep, cellCountStep)))
	}
	if b := c.ActiveArea; b != nil && rng.Float64() < mutationRate {
		p.ActiveArea = b.Clamp(p.ActiveArea + uniform(rng, -activeAreaStep, activeAreaStep))
	}
	if b := c.OperatingTemperature; b != nil && rng.Float64() < mutationRate {
		p.OperatingTemperature = b.Clamp(p.OperatingTemperature + uniform(rng, -temperatureStep, temperatureStep))
	}
	if allowed := c.AllowedAnodeCatalysts; len(allowed) > 0 && rng.Float64() < mutationRate {
		p.AnodeCatalyst = allowed[rng.Intn(len(allowed))]
	}
	return p
}

// uniform draws from [min, max).
func uniform(rng *rand.Rand, min, max float64) float64 {
	return min + rng.Float64()*(max-min)
}

func sampleMaterial(allowed []string, current string, rng *rand.Rand) string {
	if len(allowed) == 0 {
		return current
	}
	return allowed[rng.Intn(len(allowed))]
}

func bestIndex(fitness []float64) int {
	best := 0
	for i, v := range fitness {
		if v > fitness[best] {
			best = i
		}
	}
	return best
}
