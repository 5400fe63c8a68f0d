// Package gradient implements local search by finite-difference gradient
// descent over the bounded design fields.
package gradient

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/voltforge/stackopt/internal/optimization"
)

const (
	// probeStep is the absolute perturbation used for central differences.
	// Probes are raw: not clipped into the box and never rounded, so the
	// derivative of an integer field does not collapse to zero.
	probeStep = 1e-6

	// learningRate is the fixed step size applied against the gradient.
	learningRate = 0.01
)

// Optimizer walks downhill from the initial guess. It evaluates strictly
// sequentially: every probe depends on the position reached by the
// previous update.
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

// New creates a gradient-descent optimizer.
func New(opts ...Option) *Optimizer {
	o := &Optimizer{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = o.logger.Named("gradient_descent")
	return o
}

// Name returns the algorithm identifier.
func (o *Optimizer) Name() string { return string(optimization.GradientDescent) }

// Optimize iterates until every partial derivative is within tolerance in
// the same step, or iterations run out. Each history record captures the
// state before that iteration's update.
func (o *Optimizer) Optimize(ctx context.Context, problem optimization.Problem) (*optimization.Result, error) {
	const op = "GradientDescent.Optimize"

	fields := optimization.BoundedFields(problem.Constraints)
	if len(fields) == 0 {
		return nil, optimization.NewError("constraints bound no continuous field").
			WithOperation(op).
			WithComponent("optimization")
	}
	boxes := optimization.Boxes(problem.Constraints, fields)

	x := optimization.Vector(problem.Initial, fields)
	optimization.Snap(x, fields, boxes)
	current := optimization.Apply(problem.Initial, fields, x)

	params := problem.Params
	model := problem.Model
	history := make([]optimization.ConvergenceRecord, 0, params.MaxIterations)
	grad := make([]float64, len(fields))
	converged := false

	o.logger.Debug("starting descent",
		zap.Int("dimensions", len(fields)),
		zap.Int("max_iterations", params.MaxIterations),
		zap.Float64("tolerance", params.ConvergenceTolerance))

	for iter := 0; iter < params.MaxIterations; iter++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		scalar, err := model.Evaluate(ctx, current)
		if err != nil {
			return nil, err
		}
		history = append(history, optimization.ConvergenceRecord{
			Iteration:  iter,
			Value:      model.Value(scalar),
			Parameters: current,
		})

		maxGrad := 0.0
		for i := range fields {
			forward := append([]float64(nil), x...)
			forward[i] += probeStep
			backward := append([]float64(nil), x...)
			backward[i] -= probeStep

			fPlus, err := model.Evaluate(ctx, optimization.Apply(current, fields, forward))
			if err != nil {
				return nil, err
			}
			fMinus, err := model.Evaluate(ctx, optimization.Apply(current, fields, backward))
			if err != nil {
				return nil, err
			}

			grad[i] = (fPlus - fMinus) / (2 * probeStep)
			if g := math.Abs(grad[i]); g > maxGrad {
				maxGrad = g
			}
		}

		if maxGrad <= params.ConvergenceTolerance {
			converged = true
			o.logger.Debug("gradient within tolerance",
				zap.Int("iteration", iter),
				zap.Float64("max_gradient", maxGrad))
			break
		}

		for i := range x {
			x[i] -= learningRate * grad[i]
		}
		optimization.Snap(x, fields, boxes)
		current = optimization.Apply(current, fields, x)
	}

	finalScalar, err := model.Evaluate(ctx, current)
	if err != nil {
		return nil, err
	}

	return &optimization.Result{
		BestParameters: current,
		BestValue:      model.Value(finalScalar),
		Iterations:     len(history),
		Converged:      converged,
		History:        history,
	}, nil
}
