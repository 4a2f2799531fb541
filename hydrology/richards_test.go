package hydrology

import (
	"testing"

	"github.com/pthm-cable/negsim/grid"
)

func columnWaterMass(col *Column) float64 {
	sum := 0.0
	for _, th := range col.Theta {
		sum += th * col.Dz
	}
	return sum
}

func TestVerticalImplicitPassKeepsThetaInBounds(t *testing.T) {
	soil := sandyLoam()
	tables := NewTables(soil)
	col := NewColumn(8, 0.05, soil, tables, 0.20)
	cfg := VerticalConfig{
		Dt:            60,
		RainfallFlux:  2.8e-6, // ~10mm/hr
		PicardTol:     1e-6,
		PicardMaxIter: 20,
	}
	for step := 0; step < 20; step++ {
		VerticalImplicitPass(col, cfg, soil.ThetaS)
		for i, th := range col.Theta {
			if th < soil.ThetaR-1e-9 || th > soil.ThetaS+1e-9 {
				t.Fatalf("theta[%d]=%f out of [theta_r,theta_s] at step %d", i, th, step)
			}
		}
	}
}

func TestVerticalImplicitPassRainfallIncreasesMass(t *testing.T) {
	soil := sandyLoam()
	tables := NewTables(soil)
	col := NewColumn(8, 0.05, soil, tables, 0.15)
	before := columnWaterMass(col)
	cfg := VerticalConfig{
		Dt:            60,
		RainfallFlux:  2.8e-6,
		PicardTol:     1e-6,
		PicardMaxIter: 20,
	}
	VerticalImplicitPass(col, cfg, soil.ThetaS)
	after := columnWaterMass(col)
	if after <= before {
		t.Errorf("expected rainfall input to increase column water mass: before=%f after=%f", before, after)
	}
}

func TestVerticalImplicitPassConvergesWithinBudget(t *testing.T) {
	soil := sandyLoam()
	tables := NewTables(soil)
	col := NewColumn(6, 0.05, soil, tables, 0.20)
	cfg := VerticalConfig{
		Dt:            60,
		RainfallFlux:  1e-6,
		PicardTol:     1e-5,
		PicardMaxIter: 50,
	}
	_, converged := VerticalImplicitPass(col, cfg, soil.ThetaS)
	if !converged {
		t.Errorf("expected Picard iteration to converge within the iteration budget")
	}
}

func TestSurfaceUpdateClampsToFillCapacity(t *testing.T) {
	c := &grid.Cell{SurfaceH: 0.02, ZetaC: 0.005, DeltaZeta: 0.002}
	SurfaceUpdate(c)
	if c.Zeta > c.ZetaC+c.DeltaZeta {
		t.Errorf("expected zeta clamped to zeta_c+delta_zeta, got %f", c.Zeta)
	}
}

func TestSurfaceUpdateBelowCapacityPassesThrough(t *testing.T) {
	c := &grid.Cell{SurfaceH: 0.001, ZetaC: 0.005, DeltaZeta: 0.002}
	SurfaceUpdate(c)
	if c.Zeta != c.SurfaceH {
		t.Errorf("expected zeta = surface_h below capacity, got %f vs %f", c.Zeta, c.SurfaceH)
	}
}

func TestHorizontalPassSkipsBelowConnectivityFloor(t *testing.T) {
	c := &grid.Cell{SurfaceH: 0.5, Z: 0, ZetaC: 1.0, Ac: 10, Zeta: 0} // far below zeta_c -> near-zero connectivity
	n := &grid.Cell{SurfaceH: 0, Z: 0}
	cfg := HorizontalConfig{Dt: 1, Dx: 1, CFLFactor: 1}
	HorizontalExplicitPass(c, [4]*grid.Cell{n, nil, nil, nil}, 1e-5, cfg)
	if c.SurfaceH != 0.5 {
		t.Errorf("expected surface water unchanged when connectivity below floor, got %f", c.SurfaceH)
	}
}

func TestHorizontalPassEqualizesWithNeighbor(t *testing.T) {
	c := &grid.Cell{SurfaceH: 1.0, Z: 0, ZetaC: 0, Ac: 100, Zeta: 1.0}
	n := &grid.Cell{SurfaceH: 0, Z: 0}
	cfg := HorizontalConfig{Dt: 10, Dx: 1, CFLFactor: 1}
	HorizontalExplicitPass(c, [4]*grid.Cell{n, nil, nil, nil}, 1e-4, cfg)
	if c.SurfaceH >= 1.0 {
		t.Errorf("expected surface water to decrease toward a lower neighbor, got %f", c.SurfaceH)
	}
	if c.SurfaceH < 0 {
		t.Errorf("expected surface water clamped at >= 0, got %f", c.SurfaceH)
	}
}

func TestEvaporationSinkReducesTopLayerNotBelowResidual(t *testing.T) {
	soil := sandyLoam()
	tables := NewTables(soil)
	col := NewColumn(4, 0.05, soil, tables, soil.ThetaR+0.001)
	c := &grid.Cell{KappaE: 1.0}
	EvaporationSink(c, col, 1e-3, 1e6) // huge dt forces clamp to residual
	if col.Theta[0] < soil.ThetaR-1e-9 {
		t.Errorf("expected evaporation not to drop theta below theta_r, got %f", col.Theta[0])
	}
	if float64(c.Theta) != col.Theta[0] {
		t.Errorf("expected cell theta synced with column top layer")
	}
}
