// Package microbial implements the optional priming module consumed by
// regen's REGv2 branch: fungal:bacterial lookup,
// microbial production/respiration, unsaturated conductivity bonus,
// condensation, bio-rain bonus, hydraulic lift, and swale balance
// update. Every exported function here except UpdateSwale is pure;
// UpdateSwale updates the SwaleState it is given in place.
package microbial

import "math"

// Params are the microbial parameters loaded from a keyed source.
type Params struct {
	PMax   float64
	KC     float64
	KTheta float64
	AlphaT float64
	T0     float64
	BetaN  float64
	BetaPhi float64

	RBase  float64
	Q10    float64
	KThetaR float64

	MAgg    float64
	Gamma   float64
	PhiC    float64
	AlphaMyco float64
	CThr    float64
	ThetaRep float64
	Eta     float64

	RhoW    float64
	Lambda  float64
	RHSat   float64
	BetaVeg float64
	BetaRock float64
	CondBonus float64

	DeltaMin float64
	DeltaMax float64

	KRoot float64
}

// fbTable is the 8-entry fungal:bacterial lookup anchored so that
// lookup(0.1)=1.0, lookup(1.0)=2.5, lookup(3.0) lands in [6,8], and
// anything past the last entry saturates at 8.0.
var fbTable = [8]struct {
	FB float64
	P  float64
}{
	{0.1, 1.0},
	{0.5, 1.8},
	{1.0, 2.5},
	{1.5, 3.5},
	{2.0, 4.5},
	{2.5, 5.5},
	{3.0, 7.0},
	{5.0, 8.0},
}

// LookupPFb implements the nearest-greater-bin lookup over fbTable,
// capping at the table's final entry for FB beyond its range.
func LookupPFb(fb float64) float64 {
	for _, e := range fbTable {
		if fb <= e.FB {
			return e.P
		}
	}
	return fbTable[len(fbTable)-1].P
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// PMicro computes microbial carbon production.
func PMicro(p Params, fb, c, theta, temp, nFix, phiAgg float64) float64 {
	pFb := LookupPFb(fb)
	return p.PMax * pFb * c / (p.KC + c) * theta / (p.KTheta + theta) *
		math.Exp(p.AlphaT*(temp-p.T0)) * (1 + p.BetaN*nFix) * (1 + p.BetaPhi*phiAgg)
}

// DResp computes microbial respiration.
func DResp(p Params, theta, temp, o2 float64) float64 {
	return p.RBase * math.Pow(p.Q10, (temp-p.T0)/10) * theta / (p.KThetaR + theta) * o2
}

// KUnsat computes the aggregate/hyphal-modulated unsaturated
// conductivity bonus.
func KUnsat(p Params, theta, k0, phiAgg, phiHyphae, cSup float64) float64 {
	aggTerm := 1 + p.MAgg*phiAgg*sigmoid(p.Gamma*(phiAgg-p.PhiC))
	mycoTerm := 1 + p.AlphaMyco*phiHyphae*sigmoid(cSup-p.CThr)
	dryTerm := 1 / (1 + math.Exp(p.Eta*(p.ThetaRep-theta)))
	return k0 * aggTerm * mycoTerm * dryTerm
}

// CCond computes fog/dew condensation input.
func CCond(p Params, rh, rhSat, lai, deltaTNight float64, nCondNeighbors int32) float64 {
	base := p.RhoW * p.Lambda * math.Max(rh-rhSat, 0) * (1 + p.BetaVeg*lai) * (1 + p.BetaRock*deltaTNight)
	return base + p.CondBonus*float64(nCondNeighbors)*deltaTNight
}

// BioRainBonus ramps linearly between DeltaMin at FB=2.0 and DeltaMax
// at FB=3.0 when vegetation cover exceeds 0.6; zero otherwise.
func BioRainBonus(p Params, v, fb float64) float64 {
	if v <= 0.6 {
		return 0
	}
	if fb <= 2.0 {
		return clampf(p.DeltaMin, 0.05, 0.15)
	}
	if fb >= 3.0 {
		return clampf(p.DeltaMax, 0.05, 0.15)
	}
	frac := (fb - 2.0) / (3.0 - 2.0)
	bonus := p.DeltaMin + frac*(p.DeltaMax-p.DeltaMin)
	return clampf(bonus, 0.05, 0.15)
}

// QLift computes hydraulic lift from deep to shallow soil, gated to
// nighttime when isNight is true.
func QLift(p Params, thetaDeep, thetaShallow, h float64, isNight bool) float64 {
	if !isNight {
		return 0
	}
	return p.KRoot * (thetaDeep - thetaShallow) * h
}

// SwaleState is the mutable balance a swale intervention tracks across
// steps.
type SwaleState struct {
	S float64 // stored water volume, >= 0
}

// SwaleConfig parameterizes one update_swale call.
type SwaleConfig struct {
	Theta          float64
	K              float64 // K(theta), supplied by the hydrology lookup
	Area           float64
	DepressStorage float64
	L              float64
	QRunon         float64
	ACatch         float64
	E              float64
	CCond          float64
	Dt             float64
}

// UpdateSwale advances a swale's stored volume by one step, clamping
// to non-negative.
func UpdateSwale(st *SwaleState, cfg SwaleConfig) {
	infiltration := cfg.K * math.Max(st.S/cfg.Area-cfg.DepressStorage, 0) / cfg.L
	st.S += cfg.Dt * (cfg.QRunon*cfg.ACatch - infiltration - cfg.E + cfg.CCond)
	if st.S < 0 {
		st.S = 0
	}
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
