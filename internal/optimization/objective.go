package optimization

import (
	"context"
	"math"

	"go.uber.org/zap"
)

// ObjectiveType selects what a run optimizes for.
type ObjectiveType string

const (
	MaximizePower      ObjectiveType = "MAXIMIZE_POWER"
	MaximizeEfficiency ObjectiveType = "MAXIMIZE_EFFICIENCY"
	MinimizeCost       ObjectiveType = "MINIMIZE_COST"
	MaximizeDurability ObjectiveType = "MAXIMIZE_DURABILITY"
	MultiObjective     ObjectiveType = "MULTI_OBJECTIVE"
)

// Valid reports whether t is one of the known objective types.
func (t ObjectiveType) Valid() bool {
	switch t {
	case MaximizePower, MaximizeEfficiency, MinimizeCost, MaximizeDurability, MultiObjective:
		return true
	}
	return false
}

// Weights blends the four criteria for MULTI_OBJECTIVE runs. Unset weights
// count as zero; callers must set at least one nonzero weight or the
// blended objective is constantly zero.
type Weights struct {
	Power      float64 `json:"power"`
	Efficiency float64 `json:"efficiency"`
	Cost       float64 `json:"cost"`
	Durability float64 `json:"durability"`
}

// IsZero reports whether every weight is unset.
func (w Weights) IsZero() bool { return w == Weights{} }

// Targets are soft performance thresholds reported after a run. They never
// steer or prune the search.
type Targets struct {
	MinPower      *float64 `json:"minPower,omitempty"`      // W
	MinEfficiency *float64 `json:"minEfficiency,omitempty"` // percent
	MaxCost       *float64 `json:"maxCost,omitempty"`       // $
	MinDurability *float64 `json:"minDurability,omitempty"` // h
}

// Objective describes what one optimization run is after.
type Objective struct {
	Type    ObjectiveType `json:"type"`
	Weights Weights       `json:"weights,omitempty"`
	Targets *Targets      `json:"targets,omitempty"`
}

// Cost model coefficients, dollars.
const (
	baseCost    = 500.0 // assembly, housing, balance of plant
	perCellCost = 45.0  // bipolar plates, gaskets, manifolding per cell
	perAreaCost = 1.8   // GDL and machining per cm² of active area
)

// baseDurabilityHours is the stack life of a design run at its chemistry's
// optimal temperature with benign pressure and membrane choices.
const baseDurabilityHours = 40000.0

// ObjectiveModel turns oracle predictions into the scalar a search
// minimizes, and prices and ages designs via the material catalog. One
// model instance serves a whole run and is safe for concurrent use.
type ObjectiveModel struct {
	oracle    Oracle
	objective Objective
	catalog   *Catalog
	logger    *zap.Logger
}

// NewObjectiveModel assembles the evaluation path for one run. A nil
// catalog uses the compiled-in tables; a nil logger is replaced by a nop.
func NewObjectiveModel(oracle Oracle, objective Objective, catalog *Catalog, logger *zap.Logger) *ObjectiveModel {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ObjectiveModel{
		oracle:    oracle,
		objective: objective,
		catalog:   catalog,
		logger:    logger.Named("objective"),
	}
}

// Objective returns the objective this model scalarizes.
func (m *ObjectiveModel) Objective() Objective { return m.objective }

// Oracle exposes the prediction backend for callers that need a raw
// prediction next to scalar evaluations, such as the engine's target
// post-check.
func (m *ObjectiveModel) Oracle() Oracle { return m.oracle }

// Evaluate scores p with exactly one oracle round trip and returns the
// scalar the search MINIMIZES. The oracle call is the only suspension
// point; its error aborts the evaluation.
func (m *ObjectiveModel) Evaluate(ctx context.Context, p DesignParameters) (float64, error) {
	const op = "ObjectiveModel.Evaluate"
	pred, err := m.oracle.Predict(ctx, p)
	if err != nil {
		return 0, WrapError(err, "oracle prediction failed").
			WithOperation(op).
			WithComponent("optimization")
	}
	return m.scalar(pred, p), nil
}

// Value converts an internal scalar into the user-facing objective value,
// where higher is always better (a MINIMIZE_COST run reports -cost).
func (m *ObjectiveModel) Value(scalar float64) float64 { return -scalar }

func (m *ObjectiveModel) scalar(pred Prediction, p DesignParameters) float64 {
	switch m.objective.Type {
	case MaximizeEfficiency:
		return -pred.Efficiency
	case MinimizeCost:
		return m.Cost(p)
	case MaximizeDurability:
		return -m.Durability(p)
	case MultiObjective:
		w := m.objective.Weights
		return -(w.Power*pred.Power +
			w.Efficiency*pred.Efficiency -
			w.Cost*m.Cost(p) +
			w.Durability*m.Durability(p))
	default: // MaximizePower; the engine rejects unknown types up front
		return -pred.Power
	}
}

// Cost prices a design in dollars: stack base plus per-cell and per-area
// terms, plus both catalysts and the membrane priced per cm² of active
// area. Deterministic, no oracle involvement.
func (m *ObjectiveModel) Cost(p DesignParameters) float64 {
	materialRate := m.catalog.CatalystCost(p.AnodeCatalyst) +
		m.catalog.CatalystCost(p.CathodeCatalyst) +
		m.catalog.MembraneCost(p.MembraneType)
	return baseCost + perCellCost*p.CellCount + perAreaCost*p.ActiveArea + materialRate*p.ActiveArea
}

// Durability estimates stack life in hours: the baseline decays
// exponentially with distance from the chemistry's optimal temperature,
// derated 10% above 5 atm and 20% on hydrocarbon membranes.
func (m *ObjectiveModel) Durability(p DesignParameters) float64 {
	tOpt := m.catalog.OptimalTemperature(p.FuelCellType)
	d := baseDurabilityHours * math.Exp(-math.Abs(p.OperatingTemperature-tOpt)/100)
	if p.OperatingPressure > 5 {
		d *= 0.9
	}
	if m.catalog.IsHydrocarbonMembrane(p.MembraneType) {
		d *= 0.8
	}
	return d
}
