package hydrology

import (
	"testing"

	"github.com/pthm-cable/negsim/grid"
)

// TestScenarioRainfallMassBalance mirrors the 16x16x8 uniform-grid rainfall
// scenario: zero evaporation, no-flux bottom, 10mm/hr for 60 minutes, and
// checks the closure error stays within the documented 1.5% tolerance.
func TestScenarioRainfallMassBalance(t *testing.T) {
	const (
		nx, ny, nz = 16, 16, 8
		dz         = 0.1
		dt         = 60.0 // seconds
		steps      = 60   // 60 minutes
		rainfall   = 2.78e-6
	)

	soil := sandyLoam()
	tables := NewTables(soil)

	columns := make([]*Column, nx*ny)
	for k := range columns {
		columns[k] = NewColumn(nz, dz, soil, tables, 0.20)
	}

	initMass := 0.0
	for _, col := range columns {
		initMass += columnWaterMass(col)
	}

	cfg := VerticalConfig{
		Dt:              dt,
		RainfallFlux:    rainfall,
		UseFreeDrainage: false,
		MKzz:            1,
		PicardTol:       1e-7,
		PicardMaxIter:   50,
	}

	for s := 0; s < steps; s++ {
		for _, col := range columns {
			VerticalImplicitPass(col, cfg, soil.ThetaS)
		}
	}

	finalMass := 0.0
	for _, col := range columns {
		finalMass += columnWaterMass(col)
	}

	inputPerColumn := rainfall * dt * float64(steps)
	expected := initMass + inputPerColumn*float64(len(columns))

	relErr := (finalMass - expected) / expected
	if relErr < 0 {
		relErr = -relErr
	}
	if relErr > 0.015 {
		t.Errorf("mass balance relative error %f exceeds 1.5%%: init=%f final=%f expected=%f", relErr, initMass, finalMass, expected)
	}
}

// TestScenarioMulchGravelReducesSurfaceWater compares mean surface water
// under MULCH_GRAVEL intensity 1.0 against a bare-soil control over 8 hours
// of 1.5mm/hr rainfall, expecting the intervention to hold surface water to
// at most 15% of the control.
func TestScenarioMulchGravelReducesSurfaceWater(t *testing.T) {
	const (
		n        = 8 // n x n grid
		dz       = 0.1
		nz       = 4
		dt       = 300.0 // 5 minutes
		steps    = 96    // 8 hours
		rainfall = 4.17e-7
	)

	soil := sandyLoam()
	tables := NewTables(soil)

	run := func(intervention grid.InterventionType, intensity float32) float64 {
		cells := make([]*grid.Cell, n*n)
		columns := make([]*Column, n*n)
		for k := range cells {
			c := &grid.Cell{
				ThetaR: float32(soil.ThetaR), PorosityEff: float32(soil.ThetaS),
				ZetaC: 0.005, DeltaZeta: 0.0,
				Ac: 50,
				Intervention: grid.Intervention{
					Type: intervention, Intensity: intensity,
				},
			}
			cells[k] = c
			columns[k] = NewColumn(nz, dz, soil, tables, 0.15)
		}

		neighbor := func(idx int, di, dj int) *grid.Cell {
			i, j := idx%n, idx/n
			ni, nj := i+di, j+dj
			if ni < 0 || ni >= n || nj < 0 || nj >= n {
				return nil
			}
			return cells[nj*n+ni]
		}

		for s := 0; s < steps; s++ {
			for k, c := range cells {
				ApplyIntervention(c)
				SurfaceUpdate(c)
				col := columns[k]
				VerticalImplicitPass(col, VerticalConfig{
					Dt: dt, RainfallFlux: rainfall, MKzz: float64(c.MKzz),
					PicardTol: 1e-6, PicardMaxIter: 30,
				}, float64(c.PorosityEff))
				c.Theta = float32(col.Theta[0])

				neighbors := [4]*grid.Cell{
					neighbor(k, 1, 0), neighbor(k, -1, 0),
					neighbor(k, 0, 1), neighbor(k, 0, -1),
				}
				HorizontalExplicitPass(c, neighbors, float64(tables.KOfTheta(float64(c.Theta))), HorizontalConfig{
					Dt: dt, Dx: 1, CFLFactor: 0.5,
				})
			}
		}

		total := 0.0
		for _, c := range cells {
			total += float64(c.SurfaceH)
		}
		return total / float64(len(cells))
	}

	control := run(grid.InterventionNone, 0)
	treated := run(grid.InterventionMulchGravel, 1.0)

	if control <= 0 {
		t.Fatalf("expected positive control mean surface water, got %f", control)
	}
	if treated > 0.15*control {
		t.Errorf("expected mulch-gravel mean surface water <= 15%% of control, got treated=%f control=%f (%.1f%%)", treated, control, 100*treated/control)
	}
}
