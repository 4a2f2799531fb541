package hydrology

import "github.com/pthm-cable/negsim/grid"

// RunoffMechanism classifies the dominant overland-flow generation
// process for a cell-step.
type RunoffMechanism int

const (
	RunoffNone RunoffMechanism = iota
	RunoffHortonian
	RunoffDunne
)

// dunneSaturationFraction is how close theta must be to
// porosity_eff before a rainfall event is classified Dunne rather than
// Hortonian.
const dunneSaturationFraction = 0.98

// ClassifyRunoff returns the dominant mechanism for a rainfall event on
// a cell: Hortonian when rainfall exceeds the cell's current
// infiltration capacity (approximated by K(theta) at the surface layer),
// Dunne when the cell is already near saturation, none otherwise.
func ClassifyRunoff(c *grid.Cell, tables *Tables, rainfallRate float64) RunoffMechanism {
	if c.Theta >= c.PorosityEff*dunneSaturationFraction {
		return RunoffDunne
	}
	infiltrationCapacity := tables.KOfTheta(float64(c.Theta)) * float64(c.MKzz)
	if rainfallRate > infiltrationCapacity {
		return RunoffHortonian
	}
	return RunoffNone
}

// TotalWater is theta*dz + h_s, the per-cell water balance diagnostic.
func TotalWater(c *grid.Cell) float64 {
	return float64(c.Theta)*float64(c.Dz) + float64(c.SurfaceH)
}
