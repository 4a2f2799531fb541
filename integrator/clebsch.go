package integrator

import "math"

// ClebschDefaultMaxIter and ClebschDefaultTol are the Newton bounds for
// the implicit partitioned-RK stages.
const (
	ClebschDefaultMaxIter = 4
	ClebschDefaultTol     = 1e-6
	casimirTol            = 1e-6
)

// ClebschParams configures a Clebsch step's driven-oscillator dynamics:
// dq/dt = p, dp/dt = -omega^2*q + tau. omega is the Lie-Poisson
// system's natural frequency (derived from local torsion/vorticity
// magnitude upstream); tau is the external torque forcing.
type ClebschParams struct {
	Omega   float64
	Tau     float64
	MaxIter int
	Tol     float64
}

// StepClebsch advances a Lie-Poisson variable m by lifting to canonical
// (q,p) via lut, taking one implicit-midpoint partitioned-RK step
// bounded by Newton iteration, and projecting back with Casimir
// correction. Returns the updated m, a status, and whether the
// symplectic-Euler fallback was used.
func StepClebsch(m0 float64, dt float64, params ClebschParams, lut *ClebschLUT) (mNext float64, status Status, fallback bool) {
	if dt <= 0 {
		return m0, StatusInvalidParams, false
	}
	maxIter := params.MaxIter
	if maxIter <= 0 {
		maxIter = ClebschDefaultMaxIter
	}
	tol := params.Tol
	if tol <= 0 {
		tol = ClebschDefaultTol
	}

	q0, p0 := lut.Lift(m0)
	c0 := Casimir(q0, p0)

	qMid, pMid, converged := newtonMidpoint(q0, p0, dt, params.Omega, params.Tau, maxIter, tol)

	var q1, p1 float64
	if converged {
		// Final update uses the converged midpoint derivative.
		q1 = q0 + dt*pMid
		p1 = p0 + dt*(-params.Omega*params.Omega*qMid+params.Tau)
	} else {
		fallback = true
		p1 = p0 + dt*(-params.Omega*params.Omega*q0+params.Tau)
		q1 = q0 + dt*p1
	}

	q1, p1 = casimirCorrect(q1, p1, c0)

	mNext = lut.Project(q1, p1)
	if fallback {
		return mNext, StatusFallback, true
	}
	return mNext, StatusOK, false
}

// newtonMidpoint solves the implicit-midpoint stage equations:
//
//	R_q = qMid - q0 - 0.5*dt*pMid             = 0
//	R_p = pMid - p0 - 0.5*dt*(-omega^2*qMid+tau) = 0
//
// via bounded Newton iteration. The system is linear so convergence is
// immediate; the bounded-iteration structure is kept because the
// surrounding contract (max_iter, tol) is the same for any future
// nonlinear Hamiltonian substituted here.
func newtonMidpoint(q0, p0, dt, omega, tau float64, maxIter int, tol float64) (qMid, pMid float64, converged bool) {
	qMid, pMid = q0, p0 // initial guess
	w2 := omega * omega
	for iter := 0; iter < maxIter; iter++ {
		rq := qMid - q0 - 0.5*dt*pMid
		rp := pMid - p0 - 0.5*dt*(-w2*qMid+tau)
		if math.Abs(rq) < tol && math.Abs(rp) < tol {
			return qMid, pMid, true
		}
		// Jacobian: [[1, -0.5dt], [0.5dt*w2, 1]]
		j00, j01 := 1.0, -0.5*dt
		j10, j11 := 0.5*dt*w2, 1.0
		det := j00*j11 - j01*j10
		if math.Abs(det) < 1e-15 {
			return qMid, pMid, false
		}
		dq := (rq*j11 - j01*rp) / det
		dp := (j00*rp - j10*rq) / det
		qMid -= dq
		pMid -= dp
	}
	rq := qMid - q0 - 0.5*dt*pMid
	rp := pMid - p0 - 0.5*dt*(-w2*qMid+tau)
	return qMid, pMid, math.Abs(rq) < tol && math.Abs(rp) < tol
}

// casimirCorrect rescales q so that C(q,p) is restored to target,
// skipping the correction when the drift is already below tolerance.
func casimirCorrect(q, p, target float64) (float64, float64) {
	current := Casimir(q, p)
	if math.Abs(current-target) < casimirTol {
		return q, p
	}
	remainder := target - p*p
	if remainder < 0 {
		remainder = 0
	}
	mag := math.Sqrt(remainder)
	if q < 0 {
		mag = -mag
	}
	return mag, p
}
