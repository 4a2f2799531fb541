// Package atmosphere implements the biotic-pump atmospheric momentum
// solver: a Clausius-Clapeyron saturation-vapor-pressure
// lookup, pressure-gradient-force finite differencing, and a
// semi-implicit-drag wind update over a 1D transect.
package atmosphere

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// esTableSize is the bin count of the saturation vapor pressure LUT
// over [esMinK, esMaxK].
const (
	esTableSize = 256
	esMinK      = 243.0
	esMaxK      = 333.0
)

// EsTable is the Clausius-Clapeyron saturation vapor pressure lookup,
// linearly interpolated over [243,333] K.
type EsTable struct {
	values [esTableSize]float64
}

// clausiusClapeyronEs computes e_s(T) in Pa via the August-Roche-Magnus
// approximation, T in Kelvin.
func clausiusClapeyronEs(tKelvin float64) float64 {
	tC := tKelvin - 273.15
	return 610.94 * math.Exp(17.625*tC/(tC+243.04))
}

// NewEsTable builds the 256-bin lookup over [243,333] K.
func NewEsTable() *EsTable {
	tbl := &EsTable{}
	for i := 0; i < esTableSize; i++ {
		frac := float64(i) / float64(esTableSize-1)
		t := esMinK + frac*(esMaxK-esMinK)
		tbl.values[i] = clausiusClapeyronEs(t)
	}
	return tbl
}

func (tbl *EsTable) binAndFrac(tKelvin float64) (int, float64) {
	if tKelvin <= esMinK {
		return 0, 0
	}
	if tKelvin >= esMaxK {
		return esTableSize - 2, 1
	}
	pos := (tKelvin - esMinK) / (esMaxK - esMinK) * float64(esTableSize-1)
	idx := int(pos)
	if idx >= esTableSize-1 {
		idx = esTableSize - 2
	}
	return idx, pos - float64(idx)
}

// Es returns the linearly interpolated saturation vapor pressure at
// tKelvin.
func (tbl *EsTable) Es(tKelvin float64) float64 {
	idx, frac := tbl.binAndFrac(tKelvin)
	return tbl.values[idx]*(1-frac) + tbl.values[idx+1]*frac
}

// AeroParams parameterizes the phi_aero(LAI, H_c) aerodynamic coupling
// term used in the vapor-pressure mix.
type AeroParams struct {
	RT   float64 // transmission scale
	RH0  float64 // baseline relative humidity
	KE   float64 // evaporation-flux coupling
	HC   float64 // canopy height scale
}

// phiAero is a saturating canopy-coupling term: taller, denser canopies
// route more evaporative flux into the vapor-pressure signal.
func phiAero(lai, hc, hcScale float64) float64 {
	return (lai / (1 + lai)) * (hc / (hc + hcScale))
}

// VaporPressure computes p_v[i] = r_T*e_s(T[i])*(RH0 + k_E*E[i]*phi_aero(LAI,H_c)).
func VaporPressure(tbl *EsTable, p AeroParams, tKelvin, evap, lai, canopyH float64) float64 {
	return p.RT * tbl.Es(tKelvin) * (p.RH0 + p.KE*evap*phiAero(lai, canopyH, p.HC))
}

// lengthScale is the power-law canopy-roughness length L(phi_f)
// between 6e5 m and 2e6 m with exponent 2.5.
func lengthScale(phiF float64) float64 {
	const lMin, lMax, exponent = 6e5, 2e6, 2.5
	phiF = clampUnit(phiF)
	return lMin + (lMax-lMin)*math.Pow(phiF, exponent)
}

// PressureGradient computes the central-difference (or one-sided at
// boundaries) dp_v/dx, scaled by -h_gamma/(L(phi_f)*h_c) to form
// dp/dx.
func PressureGradient(pv []float64, dx, hGamma, phiF, hc float64) []float64 {
	n := len(pv)
	out := make([]float64, n)
	l := lengthScale(phiF)
	scale := -hGamma / (l * hc)
	for i := 0; i < n; i++ {
		var dpdx float64
		switch {
		case n < 2:
			dpdx = 0
		case i == 0:
			dpdx = (pv[1] - pv[0]) / dx
		case i == n-1:
			dpdx = (pv[n-1] - pv[n-2]) / dx
		default:
			dpdx = (pv[i+1] - pv[i-1]) / (2 * dx)
		}
		out[i] = scale * dpdx
	}
	return out
}

// windMagnitudeApprox is the sqrt-free speed approximation
// |u| ~= max(|u|,|v|) + 0.5*min(|u|,|v|).
func windMagnitudeApprox(u, v float64) float64 {
	au, av := math.Abs(u), math.Abs(v)
	hi, lo := au, av
	if lo > hi {
		hi, lo = lo, hi
	}
	return hi + 0.5*lo
}

// WindConfig parameterizes one wind-update step.
type WindConfig struct {
	Dt       float64
	Coriolis float64 // f, s^-1
	Cd       float64 // drag coefficient
}

// UpdateWind advances (u,v) by explicit Euler for the pressure-gradient
// and Coriolis terms, then applies semi-implicit drag using the
// sqrt-free magnitude approximation.
func UpdateWind(u, v, dpdx, dpdy float64, cfg WindConfig) (float64, float64) {
	ut := u + cfg.Dt*(-dpdx+cfg.Coriolis*v)
	vt := v + cfg.Dt*(-dpdy-cfg.Coriolis*u)

	speed := windMagnitudeApprox(ut, vt)
	denom := 1 + cfg.Dt*cfg.Cd*speed
	return ut / denom, vt / denom
}

// MoistureConvergence computes the diagnostic C = -d(uW)/dx with
// boundary rules matching PressureGradient's.
func MoistureConvergence(u, w []float64, dx float64) []float64 {
	n := len(u)
	flux := make([]float64, n)
	for i := range flux {
		flux[i] = u[i] * w[i]
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		var dflux float64
		switch {
		case n < 2:
			dflux = 0
		case i == 0:
			dflux = (flux[1] - flux[0]) / dx
		case i == n-1:
			dflux = (flux[n-1] - flux[n-2]) / dx
		default:
			dflux = (flux[i+1] - flux[i-1]) / (2 * dx)
		}
		out[i] = -dflux
	}
	return out
}

func clampUnit(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// RoughnessField generates a tiled 2D LAI/roughness perturbation used
// by scenario setup helpers, the same animated-noise pattern the
// resource field uses for its capacity grid.
type RoughnessField struct {
	noise opensimplex.Noise
	scale float64
}

// NewRoughnessField seeds a roughness perturbation field.
func NewRoughnessField(seed int64, scale float64) *RoughnessField {
	return &RoughnessField{noise: opensimplex.New(seed), scale: scale}
}

// Sample returns a perturbation in [0,1] at (x,y).
func (r *RoughnessField) Sample(x, y float64) float64 {
	return (r.noise.Eval2(x*r.scale, y*r.scale) + 1) * 0.5
}
