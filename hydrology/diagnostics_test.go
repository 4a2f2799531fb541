package hydrology

import (
	"math"
	"testing"

	"github.com/pthm-cable/negsim/grid"
)

func TestConnectivityBelowFloorNearZero(t *testing.T) {
	ac := 10.0
	zetaC := 0.05
	zeta := zetaC - 5/ac
	c := Connectivity(zeta, zetaC, ac)
	if c >= 0.1 {
		t.Errorf("expected connectivity < 0.1 at zeta_c - 5/a_c, got %f", c)
	}
}

func TestConnectivityAboveCeilNearOne(t *testing.T) {
	ac := 10.0
	zetaC := 0.05
	zeta := zetaC + 5/ac
	c := Connectivity(zeta, zetaC, ac)
	if c <= 0.9 {
		t.Errorf("expected connectivity > 0.9 at zeta_c + 5/a_c, got %f", c)
	}
}

func TestClassifyRunoffHortonianOnDryHighIntensity(t *testing.T) {
	soil := sandyLoam()
	tables := NewTables(soil)
	c := &grid.Cell{Theta: 0.10, PorosityEff: float32(soil.ThetaS), MKzz: 1}
	mech := ClassifyRunoff(c, tables, 1e-3) // 1mm/s is very high intensity
	if mech != RunoffHortonian {
		t.Errorf("expected Hortonian runoff on dry cell with high-intensity rainfall, got %v", mech)
	}
}

func TestClassifyRunoffDunneOnNearSaturated(t *testing.T) {
	soil := sandyLoam()
	tables := NewTables(soil)
	c := &grid.Cell{Theta: float32(soil.ThetaS) * 0.99, PorosityEff: float32(soil.ThetaS), MKzz: 1}
	mech := ClassifyRunoff(c, tables, 1e-7) // moderate rainfall
	if mech != RunoffDunne {
		t.Errorf("expected Dunne runoff on near-saturated cell, got %v", mech)
	}
}

func TestClassifyRunoffNoneOnLowIntensityDrySoil(t *testing.T) {
	soil := sandyLoam()
	tables := NewTables(soil)
	c := &grid.Cell{Theta: 0.30, PorosityEff: float32(soil.ThetaS), MKzz: 1}
	mech := ClassifyRunoff(c, tables, 1e-12)
	if mech != RunoffNone {
		t.Errorf("expected no runoff for negligible rainfall on unsaturated soil, got %v", mech)
	}
}

func TestTotalWater(t *testing.T) {
	c := &grid.Cell{Theta: 0.2, Dz: 0.5, SurfaceH: 0.01}
	got := TotalWater(c)
	want := 0.2*0.5 + 0.01
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("expected %f, got %f", want, got)
	}
}
