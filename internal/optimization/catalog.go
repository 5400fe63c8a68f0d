package optimization

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Default unit prices applied when a material is unknown or unset.
const (
	defaultCatalystCost = 0.50 // $/cm²
	defaultMembraneCost = 0.30 // $/cm²
)

// pemOptimalTemperature is the last-resort optimal temperature for unknown
// fuel-cell chemistries.
const pemOptimalTemperature = 80.0

// Catalog carries the material price tables and per-chemistry optimal
// operating temperatures the objective model looks up. A catalog is built
// once at startup and treated as immutable afterwards; nothing in the
// engine writes to it.
type Catalog struct {
	CatalystCosts        map[string]float64 `yaml:"catalystCosts"`        // $/cm² of active area
	MembraneCosts        map[string]float64 `yaml:"membraneCosts"`        // $/cm² of active area
	HydrocarbonMembranes []string           `yaml:"hydrocarbonMembranes"` // membranes that derate durability
	OptimalTemperatures  map[string]float64 `yaml:"optimalTemperatures"`  // °C per fuel-cell type
}

// DefaultCatalog returns the compiled-in material tables.
func DefaultCatalog() *Catalog {
	return &Catalog{
		CatalystCosts: map[string]float64{
			"platinum":           0.85,
			"platinum-ruthenium": 1.10,
			"platinum-cobalt":    0.95,
			"iridium":            1.60,
			"nickel":             0.12,
			"silver":             0.30,
		},
		MembraneCosts: map[string]float64{
			"nafion":               0.45,
			"pfsa":                 0.40,
			"speek":                0.22,
			"sulfonated-polyimide": 0.25,
			"pbi":                  0.35,
		},
		HydrocarbonMembranes: []string{"speek", "sulfonated-polyimide", "pbi"},
		OptimalTemperatures: map[string]float64{
			FuelCellPEM:  80,
			FuelCellSOFC: 750,
			FuelCellPAFC: 200,
			FuelCellMCFC: 650,
			FuelCellAFC:  70,
		},
	}
}

// LoadCatalog reads a YAML override file and merges it over the compiled-in
// defaults. An empty path returns the defaults unchanged. Override entries
// replace same-named entries; defaults that are not named stay in place.
func LoadCatalog(path string) (*Catalog, error) {
	catalog := DefaultCatalog()
	if path == "" {
		return catalog, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read material catalog: %w", err)
	}

	var override Catalog
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("parse material catalog %s: %w", path, err)
	}

	for name, cost := range override.CatalystCosts {
		catalog.CatalystCosts[name] = cost
	}
	for name, cost := range override.MembraneCosts {
		catalog.MembraneCosts[name] = cost
	}
	for name, t := range override.OptimalTemperatures {
		catalog.OptimalTemperatures[name] = t
	}
	if len(override.HydrocarbonMembranes) > 0 {
		catalog.HydrocarbonMembranes = override.HydrocarbonMembranes
	}

	if err := catalog.validate(); err != nil {
		return nil, fmt.Errorf("material catalog %s: %w", path, err)
	}
	return catalog, nil
}

func (c *Catalog) validate() error {
	for name, cost := range c.CatalystCosts {
		if cost < 0 {
			return fmt.Errorf("catalyst %q has negative cost %g", name, cost)
		}
	}
	for name, cost := range c.MembraneCosts {
		if cost < 0 {
			return fmt.Errorf("membrane %q has negative cost %g", name, cost)
		}
	}
	for _, name := range c.HydrocarbonMembranes {
		if _, ok := c.MembraneCosts[name]; !ok {
			return fmt.Errorf("hydrocarbon membrane %q has no cost entry", name)
		}
	}
	return nil
}

// CatalystCost returns the unit price for a catalyst, falling back to the
// default price for unknown or unset materials.
func (c *Catalog) CatalystCost(name string) float64 {
	if cost, ok := c.CatalystCosts[name]; ok {
		return cost
	}
	return defaultCatalystCost
}

// MembraneCost returns the unit price for a membrane, falling back to the
// default price for unknown or unset materials.
func (c *Catalog) MembraneCost(name string) float64 {
	if cost, ok := c.MembraneCosts[name]; ok {
		return cost
	}
	return defaultMembraneCost
}

// IsHydrocarbonMembrane reports whether the membrane chemistry derates
// durability.
func (c *Catalog) IsHydrocarbonMembrane(name string) bool {
	for _, h := range c.HydrocarbonMembranes {
		if h == name {
			return true
		}
	}
	return false
}

// OptimalTemperature returns the chemistry's sweet-spot temperature in °C,
// with PEM's as the fallback for unknown types.
func (c *Catalog) OptimalTemperature(fuelCellType string) float64 {
	if t, ok := c.OptimalTemperatures[fuelCellType]; ok {
		return t
	}
	return pemOptimalTemperature
}
