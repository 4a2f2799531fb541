// Package barrier implements smooth convex barrier potentials that
// replace ad-hoc clamps for bounded simulation state: pseudocode "if"
// clamps for physical bounds are replaced by barrier potentials at the
// force/derivative level; remaining clamps appear only at state-write
// boundaries and in snapshot decode.
package barrier

import "github.com/pthm-cable/negsim/fixedpoint"

// Constants holds the module-wide κ (strength) and ε (softening) used by
// the barrier potentials. Defaults live in config.BarrierConsts; callers
// pass them explicitly so these functions stay pure.
type Constants struct {
	Kappa fixedpoint.Q16
	Eps   fixedpoint.Q16
}

// DefaultConstants returns a reasonable Kappa/Eps pair in Q16.16.
func DefaultConstants() Constants {
	return Constants{
		Kappa: fixedpoint.FromFloat64(1e-4),
		Eps:   fixedpoint.FromFloat64(1e-6),
	}
}

// LowerPotential returns U(x) = kappa / (x - xMin + eps) for a lower
// bound xMin. If x <= xMin+eps, the routine returns the saturated
// extremum (fixedpoint.MaxQ16) rather than dividing by a near-zero
// denominator.
func LowerPotential(x, xMin fixedpoint.Q16, c Constants) fixedpoint.Q16 {
	denom := fixedpoint.Add(fixedpoint.Sub(x, xMin), c.Eps)
	if fixedpoint.Sub(x, xMin) <= c.Eps {
		return fixedpoint.MaxQ16
	}
	return fixedpoint.Div(c.Kappa, denom)
}

// LowerGradient returns dU/dx = -kappa / (x - xMin + eps)^2 for the
// lower-bound potential. Strictly negative immediately above the bound,
// monotonically shrinking in magnitude with distance from it.
func LowerGradient(x, xMin fixedpoint.Q16, c Constants) fixedpoint.Q16 {
	denom := fixedpoint.Add(fixedpoint.Sub(x, xMin), c.Eps)
	if fixedpoint.Sub(x, xMin) <= c.Eps {
		return fixedpoint.MinQ16
	}
	denomSq := fixedpoint.Mul(denom, denom)
	mag := fixedpoint.Div(c.Kappa, denomSq)
	return -mag
}

// UpperPotential mirrors LowerPotential with the sign of the argument
// flipped: U(x) = kappa / (xMax - x + eps).
func UpperPotential(x, xMax fixedpoint.Q16, c Constants) fixedpoint.Q16 {
	denom := fixedpoint.Add(fixedpoint.Sub(xMax, x), c.Eps)
	if fixedpoint.Sub(xMax, x) <= c.Eps {
		return fixedpoint.MaxQ16
	}
	return fixedpoint.Div(c.Kappa, denom)
}

// UpperGradient returns dU/dx = +kappa / (xMax - x + eps)^2, strictly
// positive immediately below the upper bound.
func UpperGradient(x, xMax fixedpoint.Q16, c Constants) fixedpoint.Q16 {
	denom := fixedpoint.Add(fixedpoint.Sub(xMax, x), c.Eps)
	if fixedpoint.Sub(xMax, x) <= c.Eps {
		return fixedpoint.MaxQ16
	}
	denomSq := fixedpoint.Mul(denom, denom)
	return fixedpoint.Div(c.Kappa, denomSq)
}

// BoundedGradient returns the sum of the lower- and upper-bound
// gradients for x constrained to [xMin, xMax]. Callers add this directly
// to a state derivative; there is no thresholding branch in the caller's
// physics code.
func BoundedGradient(x, xMin, xMax fixedpoint.Q16, c Constants) fixedpoint.Q16 {
	return fixedpoint.Add(LowerGradient(x, xMin, c), UpperGradient(x, xMax, c))
}

// BoundedPotential returns the sum of the lower- and upper-bound
// potentials for x constrained to [xMin, xMax].
func BoundedPotential(x, xMin, xMax fixedpoint.Q16, c Constants) fixedpoint.Q16 {
	return fixedpoint.Add(LowerPotential(x, xMin, c), UpperPotential(x, xMax, c))
}
