package optimization

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogLookups(t *testing.T) {
	catalog := DefaultCatalog()

	assert.Equal(t, 0.85, catalog.CatalystCost("platinum"))
	assert.Equal(t, defaultCatalystCost, catalog.CatalystCost("unobtainium"))
	assert.Equal(t, 0.45, catalog.MembraneCost("nafion"))
	assert.Equal(t, defaultMembraneCost, catalog.MembraneCost("mystery-polymer"))

	assert.True(t, catalog.IsHydrocarbonMembrane("speek"))
	assert.False(t, catalog.IsHydrocarbonMembrane("nafion"))

	assert.Equal(t, 750.0, catalog.OptimalTemperature(FuelCellSOFC))
	assert.Equal(t, pemOptimalTemperature, catalog.OptimalTemperature("UNKNOWN_CHEMISTRY"))
}

func writeCatalogFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "materials.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadCatalogEmptyPathKeepsDefaults(t *testing.T) {
	catalog, err := LoadCatalog("")
	require.NoError(t, err)
	assert.Equal(t, DefaultCatalog(), catalog)
}

func TestLoadCatalogMergesOverDefaults(t *testing.T) {
	path := writeCatalogFile(t, `
catalystCosts:
  platinum: 0.99
  graphene: 2.50
optimalTemperatures:
  PEM: 85
`)

	catalog, err := LoadCatalog(path)
	require.NoError(t, err)

	// Overridden and added entries take effect.
	assert.Equal(t, 0.99, catalog.CatalystCost("platinum"))
	assert.Equal(t, 2.50, catalog.CatalystCost("graphene"))
	assert.Equal(t, 85.0, catalog.OptimalTemperature(FuelCellPEM))

	// Untouched defaults stay in place.
	assert.Equal(t, 0.12, catalog.CatalystCost("nickel"))
	assert.Equal(t, 750.0, catalog.OptimalTemperature(FuelCellSOFC))
	assert.True(t, catalog.IsHydrocarbonMembrane("pbi"))
}

func TestLoadCatalogRejectsNegativeCost(t *testing.T) {
	path := writeCatalogFile(t, "catalystCosts:\n  platinum: -1.0\n")

	_, err := LoadCatalog(path)
	assert.ErrorContains(t, err, "negative cost")
}

func TestLoadCatalogRejectsHydrocarbonWithoutCost(t *testing.T) {
	path := writeCatalogFile(t, "hydrocarbonMembranes:\n  - newpoly\n")

	_, err := LoadCatalog(path)
	assert.ErrorContains(t, err, "no cost entry")
}

func TestLoadCatalogMissingFile(t *testing.T) {
	_, err := LoadCatalog(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadCatalogRejectsMalformedYAML(t *testing.T) {
	path := writeCatalogFile(t, "catalystCosts: [not, a, map]\n")

	_, err := LoadCatalog(path)
	assert.Error(t, err)
}
