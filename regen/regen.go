// Package regen implements the slow V-SOM-theta regeneration cascade,
// called every N hydrology steps with a multi-year timestep.
package regen

import (
	"math"

	"github.com/pthm-cable/negsim/fixedpoint"
	"github.com/pthm-cable/negsim/grid"
)

// Params are the regeneration parameters loaded from a keyed source.
// The host validates ranges before handing these to the core; the
// core rejects clearly invalid values via Validate.
type Params struct {
	RV       float64 // intrinsic vegetation growth rate
	KV       float64 // vegetation carrying capacity
	Lambda1  float64 // moisture-surplus coupling
	Lambda2  float64 // SOM-surplus coupling
	ThetaStar float64
	SOMStar  float64
	A1       float64 // SOM gain from vegetation (REGv1)
	A2       float64 // SOM decay rate (REGv1)
	Eta1     float64 // porosity hydraulic-bonus scale
	KMult    float64 // K_tensor hydraulic-bonus multiplier base
	REGv2    bool    // use microbial P_micro/D_resp for dSOM/dt
}

// Validate rejects clearly invalid parameter values.
func (p Params) Validate() error {
	if p.RV <= 0 || p.RV >= 1 {
		return errInvalidParam("r_V must be in (0,1)")
	}
	if p.KV <= 0 {
		return errInvalidParam("K_V must be positive")
	}
	return nil
}

type errInvalidParam string

func (e errInvalidParam) Error() string { return "regen: " + string(e) }

const (
	vMin, vMax     = 0.0, 1.0
	somMin, somMax = 0.01, 10.0

	porosityMin, porosityMax = 0.3, 0.7
	kTensorMin, kTensorMax   = 1e-8, 1e-3
)

// ThresholdFlags is a bitmask over {theta > theta*, SOM > SOM*, V >
// K_V/2}.
type ThresholdFlags uint8

const (
	ThresholdThetaExceeded ThresholdFlags = 1 << iota
	ThresholdSOMExceeded
	ThresholdVHalfKV
)

// MicrobialRates carries the P_micro/D_resp pair the microbial module
// computes, consumed here only when Params.REGv2 is set.
type MicrobialRates struct {
	PMicro float64
	DResp  float64
}

// Step advances a cell's V/SOM state by dtYears and applies the
// hydraulic feedback into porosity_eff/K_tensor[8] immediately. theta
// is the cell's moisture input (theta_avg over the cascade's averaging
// window, supplied by the caller).
func Step(c *grid.Cell, theta float64, p Params, dtYears float64, microbial MicrobialRates) ThresholdFlags {
	v := float64(c.V)
	som := float64(c.SOM)

	dV := p.RV*v*(1-v/p.KV) +
		p.Lambda1*maxf(theta-p.ThetaStar, 0) +
		p.Lambda2*maxf(som-p.SOMStar, 0)
	dV *= dtYears

	var dSOM float64
	if p.REGv2 {
		dSOM = (microbial.PMicro - microbial.DResp) * 365.25 / 100
	} else {
		dSOM = p.A1*v - p.A2*som
	}
	dSOM *= dtYears

	v = clampf(v+dV, vMin, vMax)
	som = clampf(som+dSOM, somMin, somMax)

	c.V = float32(v)
	c.SOM = float32(som)
	c.VQ16 = fixedpoint.FromFloat64(v)
	c.SOMQ16 = fixedpoint.FromFloat64(som)

	applyHydraulicBonus(c, dSOM, p)

	var flags ThresholdFlags
	if theta > p.ThetaStar {
		flags |= ThresholdThetaExceeded
	}
	if som > p.SOMStar {
		flags |= ThresholdSOMExceeded
	}
	if v > p.KV/2 {
		flags |= ThresholdVHalfKV
	}
	return flags
}

// applyHydraulicBonus implements the immediate REG->HYD feedback:
// porosity_eff += (eta1/1000)*dSOM, K_tensor[8] *= K_mult^dSOM, both
// clamped to their configured bounds.
func applyHydraulicBonus(c *grid.Cell, dSOM float64, p Params) {
	porosity := float64(c.PorosityEff) + (p.Eta1/1000)*dSOM
	c.PorosityEff = float32(clampf(porosity, porosityMin, porosityMax))

	kzz := float64(c.KTensor[8]) * math.Pow(p.KMult, dSOM)
	c.KTensor[8] = float32(clampf(kzz, kTensorMin, kTensorMax))
}

// HealthScore combines V/K_V, SOM/5, and theta/theta_s, each clamped to
// 1, into a weighted 0..1 score.
func HealthScore(c *grid.Cell, p Params, thetaS float64) float64 {
	vTerm := minf(float64(c.V)/p.KV, 1)
	somTerm := minf(float64(c.SOM)/5, 1)
	thetaTerm := minf(float64(c.Theta)/thetaS, 1)
	return 0.4*vTerm + 0.35*somTerm + 0.25*thetaTerm
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func clampf(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
