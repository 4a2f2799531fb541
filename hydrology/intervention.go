package hydrology

import "github.com/pthm-cable/negsim/grid"

// interventionRange bounds one multiplier's [low, high] across
// intensity 0..1.
type interventionRange struct {
	low, high float64
}

func lerpRange(r interventionRange, intensity float32) float64 {
	i := float64(intensity)
	if i < 0 {
		i = 0
	}
	if i > 1 {
		i = 1
	}
	return r.low + (r.high-r.low)*i
}

// Pinned multiplier ranges.
var (
	mulchGravelMKzz   = interventionRange{1, 6}
	mulchGravelKappaE = interventionRange{1, 0.25}
	mulchGravelDZeta  = interventionRange{0, 0.0007} // up to ~0.7mm

	swaleMKzz = interventionRange{1, 3}
	swaleMKxx = interventionRange{1, 2}

	bermDZeta = interventionRange{0, 0.010} // up to 10mm

	biocrustMKzz  = interventionRange{1, 0.4} // reduces K
	biocrustDZeta = interventionRange{0, 0.003}
)

// ApplyIntervention derives a cell's conductivity/evaporation/
// depression-storage multipliers from its Intervention type and
// intensity, idempotently (recomputed from the stored type/intensity
// each call rather than accumulated).
func ApplyIntervention(c *grid.Cell) {
	switch c.Intervention.Type {
	case grid.InterventionNone:
		c.MKzz, c.MKxx, c.KappaE, c.DeltaZeta = 1, 1, 1, 0
	case grid.InterventionMulchGravel:
		c.MKzz = float32(lerpRange(mulchGravelMKzz, c.Intervention.Intensity))
		c.MKxx = 1
		c.KappaE = float32(lerpRange(mulchGravelKappaE, c.Intervention.Intensity))
		c.DeltaZeta = float32(lerpRange(mulchGravelDZeta, c.Intervention.Intensity))
	case grid.InterventionSwale:
		c.MKzz = float32(lerpRange(swaleMKzz, c.Intervention.Intensity))
		c.MKxx = float32(lerpRange(swaleMKxx, c.Intervention.Intensity))
		c.KappaE = 1
		c.DeltaZeta = 0
	case grid.InterventionBerm:
		c.MKzz, c.MKxx, c.KappaE = 1, 1, 1
		c.DeltaZeta = float32(lerpRange(bermDZeta, c.Intervention.Intensity))
	case grid.InterventionBiocrust:
		c.MKzz = float32(lerpRange(biocrustMKzz, c.Intervention.Intensity))
		c.MKxx = 1
		c.KappaE = 1
		c.DeltaZeta = float32(lerpRange(biocrustDZeta, c.Intervention.Intensity))
	}
}
