package hydrology

import (
	"math"

	"github.com/pthm-cable/negsim/grid"
)

// Column is a vertical soil profile discretized into NzLayers uniform
// layers, the per-column expansion of a single grid.Cell's
// column-aggregate Theta (the cell's Theta mirrors Column's top layer
// after each vertical pass).
type Column struct {
	Dz     float64
	Theta  []float64 // len NzLayers, top to bottom
	Psi    []float64 // len NzLayers
	Soil   SoilParams
	Tables *Tables
}

// NewColumn builds a uniform-theta column of nz layers.
func NewColumn(nz int, dz float64, soil SoilParams, tables *Tables, initTheta float64) *Column {
	theta := make([]float64, nz)
	psi := make([]float64, nz)
	for i := range theta {
		theta[i] = initTheta
		psi[i] = psiFromTheta(tables, initTheta)
	}
	return &Column{Dz: dz, Theta: theta, Psi: psi, Soil: soil, Tables: tables}
}

// psiFromTheta inverts theta(psi) by bisection over the table's psi
// domain (theta is monotonic non-decreasing in psi).
func psiFromTheta(t *Tables, theta float64) float64 {
	lo, hi := t.params.PsiMin, 0.0
	for i := 0; i < 40; i++ {
		mid := (lo + hi) / 2
		if t.ThetaOfPsi(mid) < theta {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2
}

// VerticalConfig configures one vertical-pass invocation.
type VerticalConfig struct {
	Dt              float64
	RainfallFlux    float64 // top boundary flux, positive downward
	UseFreeDrainage bool    // dpsi/dz = -1 at bottom; else no-flux
	MKzz            float64 // intervention conductivity multiplier
	KTensorZZ       float64 // regeneration-modified saturated K_zz; 0 disables the scale
	PicardTol       float64
	PicardMaxIter   int
}

// VerticalImplicitPass advances a column one step via backward-Euler in
// the mixed (head) form, linearized by Picard iteration around the
// previous theta estimate, solved by the Thomas algorithm at each
// Picard iterate. Clamps theta to [theta_r, porosity_eff] after
// convergence.
func VerticalImplicitPass(col *Column, cfg VerticalConfig, porosityEff float64) (iterations int, converged bool) {
	nz := len(col.Theta)
	thetaOld := append([]float64(nil), col.Theta...)
	psiOld := append([]float64(nil), col.Psi...)

	psiK := append([]float64(nil), psiOld...)

	kScale := cfg.MKzz
	if cfg.KTensorZZ > 0 && col.Soil.Ks > 0 {
		kScale *= cfg.KTensorZZ / col.Soil.Ks
	}

	for iter := 0; iter < cfg.PicardMaxIter; iter++ {
		iterations = iter + 1
		theta := make([]float64, nz)
		for i := range theta {
			theta[i] = col.Tables.ThetaOfPsi(psiK[i])
		}

		kFace := make([]float64, nz+1) // face i is between layer i-1 and i; kFace[0],kFace[nz] are boundary faces
		for i := 1; i < nz; i++ {
			kFace[i] = harmonicMean(col.Tables.KOfTheta(theta[i-1]), col.Tables.KOfTheta(theta[i])) * kScale
		}
		kFace[0] = col.Tables.KOfTheta(theta[0]) * kScale
		kFace[nz] = col.Tables.KOfTheta(theta[nz-1]) * kScale

		a := make([]float64, nz)
		b := make([]float64, nz)
		c := make([]float64, nz)
		d := make([]float64, nz)

		dz := col.Dz
		dz2 := dz * dz

		for i := 0; i < nz; i++ {
			capacity := -col.Tables.DThetaDPsi(psiK[i])
			if capacity > -1e-9 && capacity < 0 {
				capacity = -1e-9
			}
			if capacity >= 0 {
				capacity = -1e-9
			}
			capTerm := capacity / cfg.Dt

			var lower, upper float64
			if i > 0 {
				lower = kFace[i] / dz2
			}
			if i < nz-1 {
				upper = kFace[i+1] / dz2
			}

			b[i] = capTerm - lower - upper
			if i > 0 {
				a[i] = lower
			}
			if i < nz-1 {
				c[i] = upper
			}

			gravity := (kFace[i+1] - kFace[i]) / dz
			rhs := capTerm*psiOld[i] - capacity*(theta[i]-thetaOld[i])/cfg.Dt - gravity

			if i == 0 {
				rhs -= cfg.RainfallFlux / dz
			}
			if i == nz-1 {
				if cfg.UseFreeDrainage {
					rhs -= kFace[nz] / dz
				}
			}
			d[i] = rhs
		}

		psiNext := ThomasSolve(a, b, c, d)

		maxDelta := 0.0
		for i := 0; i < nz; i++ {
			thetaNext := col.Tables.ThetaOfPsi(psiNext[i])
			delta := math.Abs(thetaNext - theta[i])
			if delta > maxDelta {
				maxDelta = delta
			}
		}
		psiK = psiNext

		if maxDelta < cfg.PicardTol {
			converged = true
			break
		}
	}

	for i := 0; i < nz; i++ {
		theta := col.Tables.ThetaOfPsi(psiK[i])
		theta = clamp(theta, col.Soil.ThetaR, porosityEff)
		col.Theta[i] = theta
		col.Psi[i] = psiK[i]
	}
	return iterations, converged
}

func harmonicMean(a, b float64) float64 {
	if a <= 0 || b <= 0 {
		return 0
	}
	return 2 * a * b / (a + b)
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// SurfaceUpdate fills depression storage first: zeta = min(h_s,
// zeta_c+delta_zeta).
func SurfaceUpdate(c *grid.Cell) {
	fillCap := c.ZetaC + c.DeltaZeta
	if c.SurfaceH < fillCap {
		c.Zeta = c.SurfaceH
	} else {
		c.Zeta = fillCap
	}
}

// connectivityFloor is the minimum sigmoid connectivity below which a
// cell does not participate in the horizontal pass.
const connectivityFloor = 0.1

// Connectivity is the fill-and-spill sigmoid C(zeta) =
// sigma(a_c*(zeta-zeta_c)).
func Connectivity(zeta, zetaC, ac float64) float64 {
	return 1 / (1 + math.Exp(-ac*(zeta-zetaC)))
}

// HorizontalConfig configures the explicit horizontal pass.
type HorizontalConfig struct {
	Dt        float64
	Dx        float64
	CFLFactor float64
}

// HorizontalExplicitPass updates surface water for one interior cell
// against its four neighbors using CFL-substepped explicit diffusion of
// eta_s = h_s + z, gated by the cell's fill-and-spill connectivity.
// Cells below connectivityFloor are skipped.
func HorizontalExplicitPass(c *grid.Cell, neighbors [4]*grid.Cell, krRef float64, cfg HorizontalConfig) {
	conn := Connectivity(float64(c.Zeta), float64(c.ZetaC), float64(c.Ac))
	if conn < connectivityFloor {
		return
	}

	dtSub := cfg.Dt
	if krRef > 0 {
		cflLimit := 0.5 * cfg.Dx * cfg.Dx / (2 * krRef) * cfg.CFLFactor
		if cflLimit < dtSub {
			dtSub = cflLimit
		}
	}
	steps := 1
	if dtSub > 0 && dtSub < cfg.Dt {
		steps = int(math.Ceil(cfg.Dt / dtSub))
		if steps < 1 {
			steps = 1
		}
		dtSub = cfg.Dt / float64(steps)
	}

	etaSelf := float64(c.SurfaceH) + float64(c.Z)
	for s := 0; s < steps; s++ {
		laplacian := 0.0
		count := 0
		for _, n := range neighbors {
			if n == nil {
				continue
			}
			etaN := float64(n.SurfaceH) + float64(n.Z)
			laplacian += etaN - etaSelf
			count++
		}
		if count == 0 {
			continue
		}
		laplacian /= cfg.Dx * cfg.Dx
		etaSelf += dtSub * krRef * laplacian
	}

	hNew := etaSelf - float64(c.Z)
	if hNew < 0 {
		hNew = 0
	}
	c.SurfaceH = float32(hNew)
}

// EvaporationSink reduces the top layer's theta by
// kappa_e*E_bare_ref*dt/dz, not below theta_r.
func EvaporationSink(c *grid.Cell, col *Column, eBareRef, dt float64) {
	loss := float64(c.KappaE) * eBareRef * dt / col.Dz
	newTheta := col.Theta[0] - loss
	if newTheta < col.Soil.ThetaR {
		newTheta = col.Soil.ThetaR
	}
	col.Theta[0] = newTheta
	col.Psi[0] = psiFromTheta(col.Tables, newTheta)
	c.Theta = float32(newTheta)
}
