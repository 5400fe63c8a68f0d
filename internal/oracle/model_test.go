package oracle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltforge/stackopt/internal/optimization"
)

func baseDesign() optimization.DesignParameters {
	return optimization.DesignParameters{
		FuelCellType:         optimization.FuelCellPEM,
		CellCount:            50,
		ActiveArea:           200,
		OperatingTemperature: 80,
		OperatingPressure:    3,
		Humidity:             100,
		FuelFlowRate:         50,
		AirFlowRate:          100,
		AnodeCatalyst:        "platinum",
		CathodeCatalyst:      "platinum",
		MembraneType:         "nafion",
		ModelFidelity:        optimization.ModelFidelityDefault,
	}
}

func TestPredictIsDeterministic(t *testing.T) {
	m := New(nil)

	first, err := m.Predict(context.Background(), baseDesign())
	require.NoError(t, err)
	second, err := m.Predict(context.Background(), baseDesign())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Positive(t, first.Power)
}

func TestPredictPowerScalesWithActiveArea(t *testing.T) {
	m := New(nil)

	small := baseDesign()
	small.ActiveArea = 100
	large := baseDesign()
	large.ActiveArea = 200

	predSmall, err := m.Predict(context.Background(), small)
	require.NoError(t, err)
	predLarge, err := m.Predict(context.Background(), large)
	require.NoError(t, err)

	// Area multiplies power without touching the polarization point.
	assert.InDelta(t, 2*predSmall.Power, predLarge.Power, 1e-9)
	assert.Equal(t, predSmall.Efficiency, predLarge.Efficiency)
}

func TestPredictFlowCapSaturates(t *testing.T) {
	m := New(nil)

	rich := baseDesign()
	rich.FuelFlowRate = 350
	richer := baseDesign()
	richer.FuelFlowRate = 400

	predRich, err := m.Predict(context.Background(), rich)
	require.NoError(t, err)
	predRicher, err := m.Predict(context.Background(), richer)
	require.NoError(t, err)

	// Past the mass-transport limit, extra reactant buys nothing.
	assert.Equal(t, predRich, predRicher)
}

func TestPredictEfficiencyStaysInRange(t *testing.T) {
	m := New(nil)

	designs := []optimization.DesignParameters{
		baseDesign(),
		{FuelCellType: optimization.FuelCellPEM, CellCount: 1, ActiveArea: 1},
		{FuelCellType: optimization.FuelCellSOFC, CellCount: 80, ActiveArea: 400,
			OperatingTemperature: 750, OperatingPressure: 1, FuelFlowRate: 200, AirFlowRate: 400},
	}

	for _, d := range designs {
		pred, err := m.Predict(context.Background(), d)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, pred.Efficiency, 0.0)
		assert.LessOrEqual(t, pred.Efficiency, 100.0)
	}

	// A healthy PEM point sits well inside the clamp.
	pred, err := m.Predict(context.Background(), baseDesign())
	require.NoError(t, err)
	assert.Greater(t, pred.Efficiency, 30.0)
	assert.Less(t, pred.Efficiency, 60.0)
}

func TestPredictUnknownTypeBehavesLikePEM(t *testing.T) {
	m := New(nil)

	pem := baseDesign()
	unknown := baseDesign()
	unknown.FuelCellType = "UNOBTAINIUM"

	predPEM, err := m.Predict(context.Background(), pem)
	require.NoError(t, err)
	predUnknown, err := m.Predict(context.Background(), unknown)
	require.NoError(t, err)

	assert.Equal(t, predPEM, predUnknown)
}

func TestPredictColderStackMakesLessPower(t *testing.T) {
	m := New(nil)

	warm := baseDesign()
	cold := baseDesign()
	cold.OperatingTemperature = 40

	predWarm, err := m.Predict(context.Background(), warm)
	require.NoError(t, err)
	predCold, err := m.Predict(context.Background(), cold)
	require.NoError(t, err)

	assert.Less(t, predCold.Power, predWarm.Power)
	assert.Less(t, predCold.Efficiency, predWarm.Efficiency)
}

func TestPredictPressureRaisesPower(t *testing.T) {
	m := New(nil)

	ambient := baseDesign()
	ambient.OperatingPressure = 1
	pressurized := baseDesign()
	pressurized.OperatingPressure = 3

	predAmbient, err := m.Predict(context.Background(), ambient)
	require.NoError(t, err)
	predPressurized, err := m.Predict(context.Background(), pressurized)
	require.NoError(t, err)

	assert.Greater(t, predPressurized.Power, predAmbient.Power)
}

func TestPredictHumidityMattersOnlyForPEMLikeChemistries(t *testing.T) {
	m := New(nil)

	dryPEM := baseDesign()
	dryPEM.Humidity = 20
	wetPEM := baseDesign()
	wetPEM.Humidity = 100

	predDry, err := m.Predict(context.Background(), dryPEM)
	require.NoError(t, err)
	predWet, err := m.Predict(context.Background(), wetPEM)
	require.NoError(t, err)

	// A dry membrane conducts worse, costing voltage.
	assert.Less(t, predDry.Power, predWet.Power)

	drySOFC := baseDesign()
	drySOFC.FuelCellType = optimization.FuelCellSOFC
	drySOFC.OperatingTemperature = 700
	drySOFC.Humidity = 20
	wetSOFC := drySOFC
	wetSOFC.Humidity = 100

	predDrySOFC, err := m.Predict(context.Background(), drySOFC)
	require.NoError(t, err)
	predWetSOFC, err := m.Predict(context.Background(), wetSOFC)
	require.NoError(t, err)

	// Solid-electrolyte chemistries ignore humidity entirely.
	assert.Equal(t, predDrySOFC, predWetSOFC)
}

func TestPredictHonorsContextCancellation(t *testing.T) {
	m := New(nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Predict(ctx, baseDesign())
	assert.ErrorIs(t, err, context.Canceled)
}
