package optimization

// Bounds is an inclusive box constraint on one continuous parameter.
type Bounds struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Clamp forces v into the interval.
func (b Bounds) Clamp(v float64) float64 {
	if v < b.Min {
		return b.Min
	}
	if v > b.Max {
		return b.Max
	}
	return v
}

// Midpoint returns the center of the interval.
func (b Bounds) Midpoint() float64 { return (b.Min + b.Max) / 2 }

// Span returns the interval width.
func (b Bounds) Span() float64 { return b.Max - b.Min }

// Degenerate reports whether the interval has zero width.
func (b Bounds) Degenerate() bool { return b.Min == b.Max }

// Constraints bounds the search space. A nil box leaves that field fixed and
// out of the search; an empty material list allows any material. The
// economic caps never steer the search, they only feed post-run reporting.
type Constraints struct {
	CellCount            *Bounds `json:"cellCount,omitempty"`
	ActiveArea           *Bounds `json:"activeArea,omitempty"`
	OperatingTemperature *Bounds `json:"operatingTemperature,omitempty"`
	OperatingPressure    *Bounds `json:"operatingPressure,omitempty"`
	Humidity             *Bounds `json:"humidity,omitempty"`
	FuelFlowRate         *Bounds `json:"fuelFlowRate,omitempty"`
	AirFlowRate          *Bounds `json:"airFlowRate,omitempty"`

	AllowedAnodeCatalysts   []string `json:"allowedAnodeCatalysts,omitempty"`
	AllowedCathodeCatalysts []string `json:"allowedCathodeCatalysts,omitempty"`
	AllowedMembranes        []string `json:"allowedMembranes,omitempty"`

	MaxSystemCost  *float64 `json:"maxSystemCost,omitempty"`
	MaxStackVolume *float64 `json:"maxStackVolume,omitempty"` // reserved, no volume model yet
}
