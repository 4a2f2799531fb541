package integrator

import "github.com/pthm-cable/negsim/grid"

// stateDim is the width of the scalar state vector RK4/PRK/Euler
// advance: theta, surface water, SOM, soil temperature, vegetation,
// momentum u, momentum v -- the same seven fields error estimation
// measures.
const stateDim = 7

// Forcing carries the external tendency applied to each state
// component for the step in flight, passed in through StepOptions
// (Simulation.stepIntegration passes a zero Forcing). A coarse-LoD or diagnostic cell
// relaxes toward RelaxTarget at rate RelaxRate plus this forcing, the
// same "driven first-order relaxation" shape used for diagnostics and
// coarse cells throughout the kernel.
type Forcing struct {
	Theta, SurfaceH, SOM, SoilTemp, V, MomU, MomV float64
}

// RelaxParams configures the first-order relaxation each coarse
// integrator pulls the state toward; zero rate disables relaxation for
// that component.
type RelaxParams struct {
	Target [stateDim]float64
	Rate   [stateDim]float64
}

func extractState(c *grid.Cell) [stateDim]float64 {
	return [stateDim]float64{
		float64(c.Theta), float64(c.SurfaceH), float64(c.SOM),
		float64(c.SoilTemp), float64(c.V), float64(c.MomU), float64(c.MomV),
	}
}

func writeState(c *grid.Cell, s [stateDim]float64) {
	c.Theta = float32(s[0])
	c.SurfaceH = float32(s[1])
	c.SOM = float32(s[2])
	c.SoilTemp = float32(s[3])
	c.V = float32(s[4])
	c.MomU = float32(s[5])
	c.MomV = float32(s[6])
}

func forcingVec(f Forcing) [stateDim]float64 {
	return [stateDim]float64{f.Theta, f.SurfaceH, f.SOM, f.SoilTemp, f.V, f.MomU, f.MomV}
}

// derivative evaluates dx/dt = rate*(target-x) + forcing for every
// component.
func derivative(x [stateDim]float64, relax RelaxParams, forcing [stateDim]float64) [stateDim]float64 {
	var d [stateDim]float64
	for i := 0; i < stateDim; i++ {
		d[i] = relax.Rate[i]*(relax.Target[i]-x[i]) + forcing[i]
	}
	return d
}

// StepRK4 advances a cell's scalar state by one classic 4-stage
// Runge-Kutta step. Reserved for coarse LoD (<2) or diagnostic cells;
// the exact dynamics are a driven first-order relaxation,
// deterministic given identical inputs.
func StepRK4(c *grid.Cell, dt float64, relax RelaxParams, forcing Forcing) Status {
	if dt <= 0 {
		return StatusInvalidParams
	}
	x0 := extractState(c)
	fv := forcingVec(forcing)

	k1 := derivative(x0, relax, fv)
	var x1 [stateDim]float64
	for i := range x1 {
		x1[i] = x0[i] + 0.5*dt*k1[i]
	}
	k2 := derivative(x1, relax, fv)
	var x2 [stateDim]float64
	for i := range x2 {
		x2[i] = x0[i] + 0.5*dt*k2[i]
	}
	k3 := derivative(x2, relax, fv)
	var x3 [stateDim]float64
	for i := range x3 {
		x3[i] = x0[i] + dt*k3[i]
	}
	k4 := derivative(x3, relax, fv)

	var xNext [stateDim]float64
	for i := range xNext {
		xNext[i] = x0[i] + (dt/6.0)*(k1[i]+2*k2[i]+2*k3[i]+k4[i])
	}
	writeState(c, xNext)
	return StatusOK
}

// StepExplicitEuler is the single-stage scaffold reserved alongside
// RK4; same dynamics, first-order accurate.
func StepExplicitEuler(c *grid.Cell, dt float64, relax RelaxParams, forcing Forcing) Status {
	if dt <= 0 {
		return StatusInvalidParams
	}
	x0 := extractState(c)
	fv := forcingVec(forcing)
	k1 := derivative(x0, relax, fv)
	var xNext [stateDim]float64
	for i := range xNext {
		xNext[i] = x0[i] + dt*k1[i]
	}
	writeState(c, xNext)
	return StatusOK
}

// StepSymplecticPRK scaffolds a partitioned RK split between the
// position-like fields (theta, surface water, SOM, temperature,
// vegetation) and the momentum-like fields (MomU, MomV), using
// symplectic Euler (update momentum, then position with the updated
// momentum) so the scaffold is at least first-order symplectic for the
// momentum pair while the remaining fields follow plain Euler.
func StepSymplecticPRK(c *grid.Cell, dt float64, relax RelaxParams, forcing Forcing) Status {
	if dt <= 0 {
		return StatusInvalidParams
	}
	x0 := extractState(c)
	fv := forcingVec(forcing)

	// Momentum half (indices 5,6) updates first.
	k := derivative(x0, relax, fv)
	x0[5] += dt * k[5]
	x0[6] += dt * k[6]

	// Position-like fields use the updated momentum in their derivative.
	k2 := derivative(x0, relax, fv)
	for i := 0; i < 5; i++ {
		x0[i] += dt * k2[i]
	}
	writeState(c, x0)
	return StatusOK
}
