// Package hydrology implements a Richards-Lite soil-water solver: a
// van Genuchten/Mualem lookup-table-accelerated implicit vertical
// pass, a conditional explicit horizontal pass, and the per-cell
// regenerative-earthworks interventions that modify its effective
// parameters.
package hydrology

import "math"

// TableSize is the bin count shared by every 256-entry lookup table in
// this package, the same "precompute once, expose read-only" shape as
// fixedpoint.Tables.
const TableSize = 256

// SoilParams are a cell's van Genuchten/Mualem soil hydraulic
// parameters.
type SoilParams struct {
	Ks      float64 // saturated conductivity
	Alpha   float64 // van Genuchten alpha
	N       float64 // van Genuchten n
	ThetaS  float64 // saturated moisture
	ThetaR  float64 // residual moisture
	PsiMin  float64 // table domain lower bound for psi (negative)
}

// Tables holds the three 256-entry interpolated lookup tables the
// vertical pass uses per step: theta(psi), K(theta), dtheta/dpsi(psi).
// Built once per distinct SoilParams and immutable thereafter.
type Tables struct {
	params SoilParams

	thetaOfPsi   [TableSize]float64 // indexed over [PsiMin, 0]
	kOfTheta     [TableSize]float64 // indexed over [ThetaR, ThetaS]
	dThetaDPsi   [TableSize]float64 // indexed over [PsiMin, 0]
}

// NewTables builds the van Genuchten/Mualem tables for a soil. m = 1 -
// 1/n is the Mualem exponent.
func NewTables(p SoilParams) *Tables {
	t := &Tables{params: p}
	m := 1 - 1/p.N

	for i := 0; i < TableSize; i++ {
		psi := psiAt(p, i)
		theta := vanGenuchtenTheta(p, m, psi)
		t.thetaOfPsi[i] = theta
		t.dThetaDPsi[i] = vanGenuchtenDThetaDPsi(p, m, psi)
	}
	for i := 0; i < TableSize; i++ {
		theta := thetaAt(p, i)
		t.kOfTheta[i] = mualemK(p, m, theta)
	}
	return t
}

func psiAt(p SoilParams, i int) float64 {
	return p.PsiMin + float64(i)*(0-p.PsiMin)/float64(TableSize-1)
}

func thetaAt(p SoilParams, i int) float64 {
	return p.ThetaR + float64(i)*(p.ThetaS-p.ThetaR)/float64(TableSize-1)
}

// vanGenuchtenTheta is theta(psi) = theta_r + (theta_s-theta_r) / (1 +
// |alpha*psi|^n)^m, saturating to theta_s for psi >= 0.
func vanGenuchtenTheta(p SoilParams, m, psi float64) float64 {
	if psi >= 0 {
		return p.ThetaS
	}
	se := math.Pow(1+math.Pow(math.Abs(p.Alpha*psi), p.N), -m)
	return p.ThetaR + (p.ThetaS-p.ThetaR)*se
}

// vanGenuchtenDThetaDPsi is the analytic derivative of theta(psi) used
// to seed the Picard linearization.
func vanGenuchtenDThetaDPsi(p SoilParams, m, psi float64) float64 {
	if psi >= 0 {
		return 0
	}
	absAP := math.Abs(p.Alpha * psi)
	base := 1 + math.Pow(absAP, p.N)
	// d/dpsi [ (1+(alpha*|psi|)^n)^-m ] = -m*n*alpha*(alpha*|psi|)^(n-1) * base^(-m-1) * sign(psi),
	// and sign(psi) = -1 here.
	deriv := m * p.N * p.Alpha * math.Pow(absAP, p.N-1) * math.Pow(base, -m-1)
	return (p.ThetaS - p.ThetaR) * deriv
}

// mualemK is the Mualem relative-permeability model,
// K(theta) = Ks * Se^0.5 * (1 - (1-Se^(1/m))^m)^2.
func mualemK(p SoilParams, m, theta float64) float64 {
	se := (theta - p.ThetaR) / (p.ThetaS - p.ThetaR)
	if se < 0 {
		se = 0
	}
	if se > 1 {
		se = 1
	}
	inner := 1 - math.Pow(se, 1/m)
	if inner < 0 {
		inner = 0
	}
	bracket := 1 - math.Pow(inner, m)
	return p.Ks * math.Sqrt(se) * bracket * bracket
}

func (t *Tables) binAndFrac(x, lo, hi float64) (int, float64) {
	if x < lo {
		x = lo
	}
	if x > hi {
		x = hi
	}
	step := (hi - lo) / float64(TableSize-1)
	pos := (x - lo) / step
	bin := int(pos)
	if bin >= TableSize-1 {
		return TableSize - 2, 1.0
	}
	return bin, pos - float64(bin)
}

// ThetaOfPsi linearly interpolates theta(psi) over the table domain.
func (t *Tables) ThetaOfPsi(psi float64) float64 {
	bin, frac := t.binAndFrac(psi, t.params.PsiMin, 0)
	return t.thetaOfPsi[bin]*(1-frac) + t.thetaOfPsi[bin+1]*frac
}

// KOfTheta linearly interpolates K(theta) over the table domain.
func (t *Tables) KOfTheta(theta float64) float64 {
	bin, frac := t.binAndFrac(theta, t.params.ThetaR, t.params.ThetaS)
	return t.kOfTheta[bin]*(1-frac) + t.kOfTheta[bin+1]*frac
}

// DThetaDPsi linearly interpolates dtheta/dpsi over the table domain.
func (t *Tables) DThetaDPsi(psi float64) float64 {
	bin, frac := t.binAndFrac(psi, t.params.PsiMin, 0)
	return t.dThetaDPsi[bin]*(1-frac) + t.dThetaDPsi[bin+1]*frac
}
