// Package optimization defines the fuel-cell design-space model, objective
// scalarization, constraint checking, and the optimizer contract shared by
// the concrete search strategies in the sub-packages.
package optimization

import "math"

// Fuel-cell chemistries known to the durability model. Unknown values fall
// back to PEM-like behavior rather than failing a run.
const (
	FuelCellPEM  = "PEM"
	FuelCellSOFC = "SOFC"
	FuelCellPAFC = "PAFC"
	FuelCellMCFC = "MCFC"
	FuelCellAFC  = "AFC"
)

// ModelFidelityDefault is applied when a caller does not pick a fidelity
// tier for oracle predictions.
const ModelFidelityDefault = "INTERMEDIATE"

// DesignParameters is the decision vector for one stack design. Instances
// are value objects: searches never mutate a candidate after creation, they
// derive new candidates from copies.
//
// CellCount is integer-valued in every produced candidate but kept as a
// float64 so finite-difference probes can perturb it fractionally.
type DesignParameters struct {
	FuelCellType         string  `json:"fuelCellType"`
	CellCount            float64 `json:"cellCount"`
	ActiveArea           float64 `json:"activeArea"`           // cm² per cell
	OperatingTemperature float64 `json:"operatingTemperature"` // °C
	OperatingPressure    float64 `json:"operatingPressure"`    // atm
	Humidity             float64 `json:"humidity"`             // relative, %
	FuelFlowRate         float64 `json:"fuelFlowRate"`         // L/min
	AirFlowRate          float64 `json:"airFlowRate"`          // L/min
	AnodeCatalyst        string  `json:"anodeCatalyst,omitempty"`
	CathodeCatalyst      string  `json:"cathodeCatalyst,omitempty"`
	MembraneType         string  `json:"membraneType,omitempty"`
	ModelFidelity        string  `json:"modelFidelity,omitempty"`
}

// FieldSpec describes one continuous design field: how to read and write it
// on a DesignParameters value and where its box lives in Constraints.
// Set writes the raw value; snapping (rounding integer fields, clipping into
// the box) happens only when a search produces a candidate, never on
// derivative probes.
type FieldSpec struct {
	Name    string
	Integer bool
	Get     func(p DesignParameters) float64
	Set     func(p DesignParameters, v float64) DesignParameters
	Bounds  func(c Constraints) *Bounds
}

// continuousFields lists every numeric field a search may move, in the
// order searches traverse them.
var continuousFields = []FieldSpec{
	{
		Name:    "cellCount",
		Integer: true,
		Get:     func(p DesignParameters) float64 { return p.CellCount },
		Set:     func(p DesignParameters, v float64) DesignParameters { p.CellCount = v; return p },
		Bounds:  func(c Constraints) *Bounds { return c.CellCount },
	},
	{
		Name:   "activeArea",
		Get:    func(p DesignParameters) float64 { return p.ActiveArea },
		Set:    func(p DesignParameters, v float64) DesignParameters { p.ActiveArea = v; return p },
		Bounds: func(c Constraints) *Bounds { return c.ActiveArea },
	},
	{
		Name:   "operatingTemperature",
		Get:    func(p DesignParameters) float64 { return p.OperatingTemperature },
		Set:    func(p DesignParameters, v float64) DesignParameters { p.OperatingTemperature = v; return p },
		Bounds: func(c Constraints) *Bounds { return c.OperatingTemperature },
	},
	{
		Name:   "operatingPressure",
		Get:    func(p DesignParameters) float64 { return p.OperatingPressure },
		Set:    func(p DesignParameters, v float64) DesignParameters { p.OperatingPressure = v; return p },
		Bounds: func(c Constraints) *Bounds { return c.OperatingPressure },
	},
	{
		Name:   "humidity",
		Get:    func(p DesignParameters) float64 { return p.Humidity },
		Set:    func(p DesignParameters, v float64) DesignParameters { p.Humidity = v; return p },
		Bounds: func(c Constraints) *Bounds { return c.Humidity },
	},
	{
		Name:   "fuelFlowRate",
		Get:    func(p DesignParameters) float64 { return p.FuelFlowRate },
		Set:    func(p DesignParameters, v float64) DesignParameters { p.FuelFlowRate = v; return p },
		Bounds: func(c Constraints) *Bounds { return c.FuelFlowRate },
	},
	{
		Name:   "airFlowRate",
		Get:    func(p DesignParameters) float64 { return p.AirFlowRate },
		Set:    func(p DesignParameters, v float64) DesignParameters { p.AirFlowRate = v; return p },
		Bounds: func(c Constraints) *Bounds { return c.AirFlowRate },
	},
}

// ContinuousFields returns the full field table. The slice is shared;
// callers must treat it as read-only.
func ContinuousFields() []FieldSpec { return continuousFields }

// BoundedFields returns the fields for which c supplies a box, in table
// order. These are the dimensions a search actually moves.
func BoundedFields(c Constraints) []FieldSpec {
	fields := make([]FieldSpec, 0, len(continuousFields))
	for _, f := range continuousFields {
		if f.Bounds(c) != nil {
			fields = append(fields, f)
		}
	}
	return fields
}

// Boxes collects the per-field bounds for the given fields. Every field
// must be bounded in c; use BoundedFields to build the field list.
func Boxes(c Constraints, fields []FieldSpec) []Bounds {
	boxes := make([]Bounds, len(fields))
	for i, f := range fields {
		boxes[i] = *f.Bounds(c)
	}
	return boxes
}

// Vector extracts the given fields of p into a fresh slice.
func Vector(p DesignParameters, fields []FieldSpec) []float64 {
	x := make([]float64, len(fields))
	for i, f := range fields {
		x[i] = f.Get(p)
	}
	return x
}

// Apply writes x onto a copy of p, raw. Pair with Snap when the result is a
// candidate rather than a probe.
func Apply(p DesignParameters, fields []FieldSpec, x []float64) DesignParameters {
	for i, f := range fields {
		p = f.Set(p, x[i])
	}
	return p
}

// Snap rounds integer fields and clips every coordinate of x into its box,
// in place, turning an arbitrary vector into a feasible candidate.
func Snap(x []float64, fields []FieldSpec, boxes []Bounds) {
	for i, f := range fields {
		v := x[i]
		if f.Integer {
			v = math.Round(v)
		}
		x[i] = boxes[i].Clamp(v)
	}
}
