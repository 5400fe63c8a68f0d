// Package engine orchestrates optimization runs. It builds the initial
// guess, selects and runs a concrete optimizer, checks the returned optimum
// against the constraints and the caller's performance targets, and attaches
// a sensitivity analysis when the run supports one.
package engine

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/voltforge/stackopt/internal/optimization"
	"github.com/voltforge/stackopt/internal/optimization/bayesian"
	"github.com/voltforge/stackopt/internal/optimization/genetic"
	"github.com/voltforge/stackopt/internal/optimization/gradient"
	"github.com/voltforge/stackopt/internal/optimization/sensitivity"
)

// Engine runs optimization requests against one oracle and one material
// catalog. It is stateless across runs and safe for concurrent use.
type Engine struct {
	oracle      optimization.Oracle
	catalog     *optimization.Catalog
	logger      *zap.Logger
	evalWorkers int
}

// Option configures an Engine.
type Option func(*Engine)

// WithCatalog overrides the compiled-in material catalog.
func WithCatalog(c *optimization.Catalog) Option {
	return func(e *Engine) {
		if c != nil {
			e.catalog = c
		}
	}
}

// WithLogger attaches a structured logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithEvalWorkers caps the genetic algorithm's concurrent oracle calls.
func WithEvalWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.evalWorkers = n
		}
	}
}

// New creates an engine over the prediction oracle.
func New(oracle optimization.Oracle, opts ...Option) *Engine {
	e := &Engine{
		oracle:  oracle,
		catalog: optimization.DefaultCatalog(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.Named("engine")
	return e
}

// Overrides carries caller-supplied starting values. Set fields replace the
// corresponding field of the engine's default guess; unset fields keep it.
type Overrides struct {
	FuelCellType         *string  `json:"fuelCellType,omitempty"`
	CellCount            *float64 `json:"cellCount,omitempty"`
	ActiveArea           *float64 `json:"activeArea,omitempty"`
	OperatingTemperature *float64 `json:"operatingTemperature,omitempty"`
	OperatingPressure    *float64 `json:"operatingPressure,omitempty"`
	Humidity             *float64 `json:"humidity,omitempty"`
	FuelFlowRate         *float64 `json:"fuelFlowRate,omitempty"`
	AirFlowRate          *float64 `json:"airFlowRate,omitempty"`
	AnodeCatalyst        *string  `json:"anodeCatalyst,omitempty"`
	CathodeCatalyst      *string  `json:"cathodeCatalyst,omitempty"`
	MembraneType         *string  `json:"membraneType,omitempty"`
	ModelFidelity        *string  `json:"modelFidelity,omitempty"`
}

func (o *Overrides) apply(p optimization.DesignParameters) optimization.DesignParameters {
	if o.FuelCellType != nil {
		p.FuelCellType = *o.FuelCellType
	}
	if o.CellCount != nil {
		p.CellCount = *o.CellCount
	}
	if o.ActiveArea != nil {
		p.ActiveArea = *o.ActiveArea
	}
	if o.OperatingTemperature != nil {
		p.OperatingTemperature = *o.OperatingTemperature
	}
	if o.OperatingPressure != nil {
		p.OperatingPressure = *o.OperatingPressure
	}
	if o.Humidity != nil {
		p.Humidity = *o.Humidity
	}
	if o.FuelFlowRate != nil {
		p.FuelFlowRate = *o.FuelFlowRate
	}
	if o.AirFlowRate != nil {
		p.AirFlowRate = *o.AirFlowRate
	}
	if o.AnodeCatalyst != nil {
		p.AnodeCatalyst = *o.AnodeCatalyst
	}
	if o.CathodeCatalyst != nil {
		p.CathodeCatalyst = *o.CathodeCatalyst
	}
	if o.MembraneType != nil {
		p.MembraneType = *o.MembraneType
	}
	if o.ModelFidelity != nil {
		p.ModelFidelity = *o.ModelFidelity
	}
	return p
}

// Request is one optimization task as callers submit it.
type Request struct {
	FuelCellType string                   `json:"fuelCellType"`
	Objective    optimization.Objective   `json:"objective"`
	Constraints  optimization.Constraints `json:"constraints"`
	Params       optimization.Parameters  `json:"parameters"`
	Initial      *Overrides               `json:"initialGuess,omitempty"`
}

// Report is the full outcome of one run. Success reflects constraint
// satisfaction of the returned optimum only; missed performance targets are
// reported separately and never fail a run.
type Report struct {
	Success          bool                              `json:"success"`
	Algorithm        optimization.Algorithm            `json:"algorithm"`
	BestParameters   optimization.DesignParameters     `json:"optimizedParameters"`
	BestValue        float64                           `json:"objectiveValue"`
	Iterations       int                               `json:"iterations"`
	Converged        bool                              `json:"converged"`
	History          []optimization.ConvergenceRecord  `json:"convergenceHistory"`
	Violations       []string                          `json:"constraintViolations"`
	TargetShortfalls []string                          `json:"targetShortfalls,omitempty"`
	Sensitivity      []sensitivity.Entry               `json:"sensitivity,omitempty"`
	Elapsed          time.Duration                     `json:"elapsedNs"`

	// ParetoFront is reserved. Multi-objective runs collapse the criteria
	// into one weighted scalar and no front is computed.
	ParetoFront []optimization.DesignParameters `json:"paretoFront,omitempty"`
}

// Run executes one optimization end to end. Oracle failures and context
// cancellation abort the run with an error; an infeasible or target-missing
// optimum is reported in the Report, not as an error.
func (e *Engine) Run(ctx context.Context, req Request) (*Report, error) {
	const op = "Engine.Run"
	start := time.Now()

	params := req.Params.WithDefaults()
	fields := optimization.BoundedFields(req.Constraints)
	if len(fields) == 0 {
		return nil, optimization.NewError("constraints bind no continuous field").
			WithOperation(op).
			WithComponent("engine")
	}
	if !req.Objective.Type.Valid() {
		return nil, optimization.NewErrorf("unknown objective type %q", req.Objective.Type).
			WithOperation(op).
			WithComponent("engine")
	}
	if req.Objective.Type == optimization.MultiObjective && req.Objective.Weights.IsZero() {
		e.logger.Warn("multi-objective run with all-zero weights; the objective is constant")
	}

	algorithm := EffectiveAlgorithm(params.Algorithm)
	if algorithm != params.Algorithm {
		e.logger.Warn("algorithm not available, falling back",
			zap.String("requested", string(params.Algorithm)),
			zap.String("effective", string(algorithm)))
	}

	e.logger.Info("optimization started",
		zap.String("algorithm", string(algorithm)),
		zap.String("objective", string(req.Objective.Type)),
		zap.String("fuel_cell_type", req.FuelCellType),
		zap.Int("dimensions", len(fields)),
		zap.Int("max_iterations", params.MaxIterations))

	model := optimization.NewObjectiveModel(e.oracle, req.Objective, e.catalog, e.logger)
	problem := optimization.Problem{
		Initial:     e.initialGuess(req),
		Constraints: req.Constraints,
		Params:      params,
		Model:       model,
	}

	result, err := e.optimizerFor(algorithm).Optimize(ctx, problem)
	if err != nil {
		return nil, err
	}

	violations := optimization.NewConstraintChecker(req.Constraints).Check(result.BestParameters)
	report := &Report{
		Success:        len(violations) == 0,
		Algorithm:      algorithm,
		BestParameters: result.BestParameters,
		BestValue:      result.BestValue,
		Iterations:     result.Iterations,
		Converged:      result.Converged,
		History:        result.History,
		Violations:     violations,
	}

	shortfalls, err := e.targetShortfalls(ctx, req, model, result.BestParameters)
	if err != nil {
		return nil, err
	}
	report.TargetShortfalls = shortfalls
	if len(shortfalls) > 0 {
		e.logger.Warn("optimum misses performance targets", zap.Strings("shortfalls", shortfalls))
	}

	// A genetic optimum is a population sample, not a stationary point, so
	// local derivatives around it say little. Skip the analysis there.
	if report.Success && algorithm != optimization.GeneticAlgorithm {
		analyzer := sensitivity.New(model, sensitivity.WithLogger(e.logger))
		entries, err := analyzer.Analyze(ctx, result.BestParameters, req.Constraints)
		if err != nil {
			return nil, err
		}
		report.Sensitivity = entries
	}

	report.Elapsed = time.Since(start)
	e.logger.Info("optimization finished",
		zap.String("algorithm", string(algorithm)),
		zap.Bool("success", report.Success),
		zap.Bool("converged", report.Converged),
		zap.Float64("objective_value", report.BestValue),
		zap.Int("iterations", report.Iterations),
		zap.Duration("elapsed", report.Elapsed))
	return report, nil
}

// initialGuess centers the search in the feasible box: midpoints of every
// bounded field (cell count rounded), first allowed material for each
// categorical field, then caller overrides on top.
func (e *Engine) initialGuess(req Request) optimization.DesignParameters {
	p := optimization.DesignParameters{
		FuelCellType:  req.FuelCellType,
		ModelFidelity: optimization.ModelFidelityDefault,
	}
	for _, f := range optimization.ContinuousFields() {
		b := f.Bounds(req.Constraints)
		if b == nil {
			continue
		}
		v := b.Midpoint()
		if f.Integer {
			v = b.Clamp(math.Round(v))
		}
		p = f.Set(p, v)
	}
	if len(req.Constraints.AllowedAnodeCatalysts) > 0 {
		p.AnodeCatalyst = req.Constraints.AllowedAnodeCatalysts[0]
	}
	if len(req.Constraints.AllowedCathodeCatalysts) > 0 {
		p.CathodeCatalyst = req.Constraints.AllowedCathodeCatalysts[0]
	}
	if len(req.Constraints.AllowedMembranes) > 0 {
		p.MembraneType = req.Constraints.AllowedMembranes[0]
	}
	if req.Initial != nil {
		p = req.Initial.apply(p)
	}
	return p
}

// EffectiveAlgorithm maps a requested algorithm to a runnable one. The
// reserved names and anything unrecognized, the empty string included, run
// as the genetic algorithm.
func EffectiveAlgorithm(a optimization.Algorithm) optimization.Algorithm {
	switch a {
	case optimization.GradientDescent, optimization.GeneticAlgorithm, optimization.Bayesian:
		return a
	default:
		return optimization.GeneticAlgorithm
	}
}

func (e *Engine) optimizerFor(a optimization.Algorithm) optimization.Optimizer {
	switch a {
	case optimization.GradientDescent:
		return gradient.New(gradient.WithLogger(e.logger))
	case optimization.Bayesian:
		return bayesian.New(bayesian.WithLogger(e.logger))
	default:
		opts := []genetic.Option{genetic.WithLogger(e.logger)}
		if e.evalWorkers > 0 {
			opts = append(opts, genetic.WithWorkers(e.evalWorkers))
		}
		return genetic.New(opts...)
	}
}

// targetShortfalls compares the optimum against the caller's soft targets
// and the system cost cap. Power and efficiency need one synchronous oracle
// call; cost and durability are computed locally. Shortfalls are advisory
// and never affect Success.
func (e *Engine) targetShortfalls(ctx context.Context, req Request, model *optimization.ObjectiveModel, best optimization.DesignParameters) ([]string, error) {
	const op = "Engine.targetShortfalls"

	var shortfalls []string
	t := req.Objective.Targets

	if t != nil && (t.MinPower != nil || t.MinEfficiency != nil) {
		pred, err := e.oracle.Predict(ctx, best)
		if err != nil {
			return nil, optimization.WrapError(err, "target check prediction failed").
				WithOperation(op).
				WithComponent("engine")
		}
		if t.MinPower != nil && pred.Power < *t.MinPower {
			shortfalls = append(shortfalls,
				fmt.Sprintf("power %.1f W below target %.1f W", pred.Power, *t.MinPower))
		}
		if t.MinEfficiency != nil && pred.Efficiency < *t.MinEfficiency {
			shortfalls = append(shortfalls,
				fmt.Sprintf("efficiency %.1f%% below target %.1f%%", pred.Efficiency, *t.MinEfficiency))
		}
	}

	if t != nil && (t.MaxCost != nil || t.MinDurability != nil) {
		if t.MaxCost != nil {
			if cost := model.Cost(best); cost > *t.MaxCost {
				shortfalls = append(shortfalls,
					fmt.Sprintf("cost $%.2f above target $%.2f", cost, *t.MaxCost))
			}
		}
		if t.MinDurability != nil {
			if d := model.Durability(best); d < *t.MinDurability {
				shortfalls = append(shortfalls,
					fmt.Sprintf("durability %.0f h below target %.0f h", d, *t.MinDurability))
			}
		}
	}

	if limit := req.Constraints.MaxSystemCost; limit != nil {
		if cost := model.Cost(best); cost > *limit {
			shortfalls = append(shortfalls,
				fmt.Sprintf("cost $%.2f above system cap $%.2f", cost, *limit))
		}
	}
	// MaxStackVolume is accepted but has no volume model behind it yet.

	return shortfalls, nil
}
