package integrator

import (
	"math"
	"testing"

	"github.com/pthm-cable/negsim/grid"
)

func TestStepRK4RejectsNonPositiveDt(t *testing.T) {
	c := &grid.Cell{}
	if status := StepRK4(c, 0, RelaxParams{}, Forcing{}); status != StatusInvalidParams {
		t.Errorf("expected StatusInvalidParams, got %v", status)
	}
}

func TestStepRK4RelaxesTowardTarget(t *testing.T) {
	c := &grid.Cell{Theta: 0}
	relax := RelaxParams{}
	relax.Target[0] = 1.0
	relax.Rate[0] = 2.0
	for i := 0; i < 500; i++ {
		StepRK4(c, 0.01, relax, Forcing{})
	}
	if math.Abs(float64(c.Theta)-1.0) > 1e-3 {
		t.Errorf("expected theta to relax to ~1.0, got %f", c.Theta)
	}
}

func TestStepRK4Deterministic(t *testing.T) {
	c1 := &grid.Cell{Theta: 0.2, SOM: 1.5, V: 0.3}
	c2 := *c1
	relax := RelaxParams{}
	relax.Target[0], relax.Rate[0] = 0.5, 1.0
	forcing := Forcing{SOM: 0.01}
	StepRK4(c1, 0.05, relax, forcing)
	StepRK4(&c2, 0.05, relax, forcing)
	if *c1 != c2 {
		t.Errorf("expected identical inputs to produce identical outputs")
	}
}

func TestStepExplicitEulerMatchesFirstOrder(t *testing.T) {
	c := &grid.Cell{Theta: 0}
	relax := RelaxParams{}
	relax.Target[0], relax.Rate[0] = 1.0, 1.0
	StepExplicitEuler(c, 0.1, relax, Forcing{})
	want := float32(0.1) // dx = rate*(target-0)*dt = 1*1*0.1
	if math.Abs(float64(c.Theta-want)) > 1e-6 {
		t.Errorf("expected theta %f, got %f", want, c.Theta)
	}
}

func TestStepSymplecticPRKRejectsNonPositiveDt(t *testing.T) {
	c := &grid.Cell{}
	if status := StepSymplecticPRK(c, -1, RelaxParams{}, Forcing{}); status != StatusInvalidParams {
		t.Errorf("expected StatusInvalidParams, got %v", status)
	}
}
