// Package sensitivity estimates how strongly each design field moves the
// objective around a found optimum, and the range over which the field
// stays near-optimal.
package sensitivity

import (
	"context"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"

	"github.com/voltforge/stackopt/internal/optimization"
)

const (
	// relativeStep sizes the central difference from the optimum's own
	// field value. A field sitting at zero gets sensitivity zero instead
	// of a vanishing step.
	relativeStep = 1e-4

	// sweepPoints per field across its box.
	sweepPoints = 20

	// nearOptimalFraction qualifies sweep samples for the optimal range.
	nearOptimalFraction = 0.95
)

// Entry is the analysis for one field: the local derivative magnitude of
// the objective and the envelope of sweep samples that stayed within 95%
// of the optimum. Multiple disjoint good regions collapse into one
// envelope; the range can overstate, never understate.
type Entry struct {
	Parameter    string     `json:"parameter"`
	Sensitivity  float64    `json:"sensitivity"`
	OptimalRange [2]float64 `json:"optimalRange"`
}

// Analyzer perturbs an optimum field by field on the user-facing objective.
// Evaluations run sequentially; any oracle failure aborts the analysis.
type Analyzer struct {
	model  *optimization.ObjectiveModel
	logger *zap.Logger
}

// Option configures the analyzer.
type Option func(*Analyzer)

// WithLogger attaches a structured logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.logger = l
		}
	}
}

// New creates an analyzer over the run's objective model.
func New(model *optimization.ObjectiveModel, opts ...Option) *Analyzer {
	a := &Analyzer{
		model:  model,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.Named("sensitivity")
	return a
}

// Analyze produces one entry per bounded field, in field-table order.
func (a *Analyzer) Analyze(ctx context.Context, optimum optimization.DesignParameters, constraints optimization.Constraints) ([]Entry, error) {
	optScalar, err := a.model.Evaluate(ctx, optimum)
	if err != nil {
		return nil, err
	}
	optValue := a.model.Value(optScalar)

	fields := optimization.BoundedFields(constraints)
	entries := make([]Entry, 0, len(fields))
	for _, f := range fields {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		entry, err := a.analyzeField(ctx, optimum, f, *f.Bounds(constraints), optValue)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	a.logger.Debug("analysis complete",
		zap.Int("fields", len(entries)),
		zap.Float64("optimum_value", optValue))
	return entries, nil
}

func (a *Analyzer) analyzeField(ctx context.Context, optimum optimization.DesignParameters, f optimization.FieldSpec, b optimization.Bounds, optValue float64) (Entry, error) {
	if b.Degenerate() {
		return Entry{
			Parameter:    f.Name,
			OptimalRange: [2]float64{b.Min, b.Min},
		}, nil
	}

	value := f.Get(optimum)

	sensitivity := 0.0
	if value != 0 {
		delta := math.Abs(value) * relativeStep
		plus, err := a.value(ctx, f.Set(optimum, value+delta))
		if err != nil {
			return Entry{}, err
		}
		minus, err := a.value(ctx, f.Set(optimum, value-delta))
		if err != nil {
			return Entry{}, err
		}
		sensitivity = math.Abs((plus - minus) / (2 * delta))
	}

	// The range starts at the optimum's own value so it is never empty,
	// even when a negative optimum disqualifies every sample.
	lo, hi := value, value
	grid := make([]float64, sweepPoints)
	floats.Span(grid, b.Min, b.Max)
	for _, g := range grid {
		v, err := a.value(ctx, f.Set(optimum, g))
		if err != nil {
			return Entry{}, err
		}
		if v >= nearOptimalFraction*optValue {
			if g < lo {
				lo = g
			}
			if g > hi {
				hi = g
			}
		}
	}

	return Entry{
		Parameter:    f.Name,
		Sensitivity:  sensitivity,
		OptimalRange: [2]float64{lo, hi},
	}, nil
}

func (a *Analyzer) value(ctx context.Context, p optimization.DesignParameters) (float64, error) {
	scalar, err := a.model.Evaluate(ctx, p)
	if err != nil {
		return 0, err
	}
	return a.model.Value(scalar), nil
}
