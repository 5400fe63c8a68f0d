// Package oracle provides the built-in fuel-cell performance model used when
// no external simulator backs the service. It is a coarse polarization-curve
// approximation: deterministic, fast, and smooth in every design parameter,
// which is all the optimizers require of it.
package oracle

import (
	"context"
	"math"

	"github.com/voltforge/stackopt/internal/optimization"
)

// Electrochemical constants for the per-cell voltage model.
const (
	openCircuitVoltage   = 1.2  // V
	thermoneutralVoltage = 1.48 // V, LHV basis for efficiency

	activationLoss    = 0.25 // V at the optimal temperature
	activationKelvin  = 1200 // Arrhenius slope, K
	arealResistance   = 0.15 // Ω·cm² for a fully hydrated membrane
	concentrationLoss = 0.06 // V per unit of log current ratio
	nernstSlope       = 0.03 // V per unit of log pressure

	// Current density: flow-limited baseline in A/cm², scaled by pressure.
	limitingCurrentDensity = 1.4
	baselineCurrentDensity = 0.2
	fuelFlowCoefficient    = 0.004
	airFlowCoefficient     = 0.003
	pressureExponent       = 0.25

	fuelUtilization = 0.85
)

// Model predicts stack power and efficiency from design parameters. It
// implements optimization.Oracle and is safe for concurrent use.
type Model struct {
	catalog *optimization.Catalog
}

// New builds a model over the material catalog. A nil catalog falls back to
// the compiled-in defaults.
func New(catalog *optimization.Catalog) *Model {
	if catalog == nil {
		catalog = optimization.DefaultCatalog()
	}
	return &Model{catalog: catalog}
}

// Predict computes a polarization point for the design. It is a pure
// function of its inputs and never fails except on context cancellation.
func (m *Model) Predict(ctx context.Context, p optimization.DesignParameters) (optimization.Prediction, error) {
	select {
	case <-ctx.Done():
		return optimization.Prediction{}, ctx.Err()
	default:
	}

	j := currentDensity(p)
	vcell := m.cellVoltage(p, j)

	power := p.CellCount * p.ActiveArea * j * vcell
	efficiency := clamp(vcell/thermoneutralVoltage*fuelUtilization*100, 0, 100)

	return optimization.Prediction{Power: power, Efficiency: efficiency}, nil
}

// currentDensity caps the flow-supported current and scales it with
// pressure. Richer reactant supply raises the ceiling until mass transport
// saturates.
func currentDensity(p optimization.DesignParameters) float64 {
	supplied := baselineCurrentDensity +
		fuelFlowCoefficient*p.FuelFlowRate +
		airFlowCoefficient*p.AirFlowRate
	j := math.Min(limitingCurrentDensity, supplied)
	return j * math.Pow(math.Max(p.OperatingPressure, 0), pressureExponent)
}

// cellVoltage is the open-circuit voltage minus activation, ohmic, and
// concentration losses, plus the Nernst pressure gain. Unknown fuel-cell
// types use PEM coefficients throughout.
func (m *Model) cellVoltage(p optimization.DesignParameters, j float64) float64 {
	optimal := m.catalog.OptimalTemperature(p.FuelCellType)

	// Activation follows an Arrhenius factor centered on the chemistry's
	// optimal temperature; kinetics slow as the stack runs colder.
	tK := p.OperatingTemperature + 273.15
	optK := optimal + 273.15
	activation := activationLoss * math.Exp(activationKelvin*(1/tK-1/optK))

	// Dry PEM membranes conduct poorly, which shows up as ohmic loss.
	resistance := arealResistance
	if m.humiditySensitive(p.FuelCellType) {
		hydration := 0.5 + clamp(p.Humidity, 0, 100)/200
		resistance /= hydration
	}
	ohmic := j * resistance

	concentration := concentrationLoss * math.Log1p(j/limitingCurrentDensity)
	nernst := nernstSlope * math.Log(math.Max(p.OperatingPressure, 0.1))

	v := openCircuitVoltage + nernst - activation - ohmic - concentration
	return math.Max(v, 0)
}

// humiditySensitive reports whether membrane hydration affects conductivity.
// High-temperature chemistries run on solid or molten electrolytes and do
// not care; unrecognized types are treated as PEM.
func (m *Model) humiditySensitive(fuelCellType string) bool {
	switch fuelCellType {
	case optimization.FuelCellSOFC, optimization.FuelCellPAFC,
		optimization.FuelCellMCFC, optimization.FuelCellAFC:
		return false
	default:
		return true
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
