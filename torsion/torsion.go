// Package torsion computes the discrete curl of a grid tile's momentum
// field and the tendencies it drives into cell momentum and cloud
// probability.
package torsion

import (
	"math"

	"github.com/pthm-cable/negsim/grid"
)

// Config carries the couplings' defaults and enable switches: disabling
// either coupling independently and setting a magnitude floor.
type Config struct {
	MomentumCouplingEnabled bool
	CloudCouplingEnabled    bool
	Alpha                   float64 // base momentum-coupling coefficient
	Kappa                   float64 // cloud-probability coupling coefficient
	MagnitudeFloor          float64 // |omega| below this is treated as zero
}

// DefaultConfig returns defaults: alpha = 8e-4 (scaled by
// (lod/3)^1.5 per cell), kappa = 0.1.
func DefaultConfig() Config {
	return Config{
		MomentumCouplingEnabled: true,
		CloudCouplingEnabled:    true,
		Alpha:                   8e-4,
		Kappa:                   0.1,
		MagnitudeFloor:          0,
	}
}

// VorticityField holds the computed omega_z magnitude per tile cell,
// reused across steps the way systems/flowfield.go reuses its particle
// slice rather than reallocating.
type VorticityField struct {
	nx, ny int
	omegaZ []float64
}

// NewVorticityField allocates a field sized to a tile's (nx,ny).
func NewVorticityField(nx, ny int) *VorticityField {
	return &VorticityField{nx: nx, ny: ny, omegaZ: make([]float64, nx*ny)}
}

func (f *VorticityField) at(i, j int) float64 {
	return f.omegaZ[j*f.nx+i]
}

func (f *VorticityField) set(i, j int, v float64) {
	f.omegaZ[j*f.nx+i] = v
}

// Compute fills the field with omega_z = dv/dx - du/dy for a dense
// (i,j)-addressed tile, using central differences in the interior and
// one-sided differences at the boundaries. omega_x = omega_y = 0 in
// this 2.5D kernel.
func Compute(f *VorticityField, get func(i, j int) (u, v float32), dx, dy float64) {
	for j := 0; j < f.ny; j++ {
		for i := 0; i < f.nx; i++ {
			var dvdx, dudy float64

			if i > 0 && i < f.nx-1 {
				_, vPlus := get(i+1, j)
				_, vMinus := get(i-1, j)
				dvdx = (float64(vPlus) - float64(vMinus)) / (2 * dx)
			} else if i == 0 {
				_, v0 := get(i, j)
				_, v1 := get(i+1, j)
				dvdx = (float64(v1) - float64(v0)) / dx
			} else {
				_, v0 := get(i, j)
				_, vm1 := get(i-1, j)
				dvdx = (float64(v0) - float64(vm1)) / dx
			}

			if j > 0 && j < f.ny-1 {
				uPlus, _ := get(i, j+1)
				uMinus, _ := get(i, j-1)
				dudy = (float64(uPlus) - float64(uMinus)) / (2 * dy)
			} else if j == 0 {
				u0, _ := get(i, j)
				u1, _ := get(i, j+1)
				dudy = (float64(u1) - float64(u0)) / dy
			} else {
				u0, _ := get(i, j)
				um1, _ := get(i, j-1)
				dudy = (float64(u0) - float64(um1)) / dy
			}

			f.set(i, j, dvdx-dudy)
		}
	}
}

// Magnitude returns |omega| at (i,j) (omega_x=omega_y=0, so this is
// simply |omega_z|).
func (f *VorticityField) Magnitude(i, j int) float64 {
	v := f.at(i, j)
	if v < 0 {
		return -v
	}
	return v
}

// ApplyTendency increments a cell's momentum symmetrically by
// alpha*|omega|*dt, with alpha = base_alpha*(lod/3)^1.5, and enhances
// cloud probability by kappa*|omega|, clamped to [0,1]. Magnitudes below
// cfg.MagnitudeFloor are treated as zero.
func ApplyTendency(c *grid.Cell, omega float64, dt float64, cfg Config) {
	if omega < cfg.MagnitudeFloor {
		omega = 0
	}

	if cfg.MomentumCouplingEnabled && omega != 0 {
		lodFrac := float64(c.LoD) / 3.0
		alpha := cfg.Alpha * math.Pow(lodFrac, 1.5)
		delta := float32(alpha * omega * dt)
		c.MomU += delta
		c.MomV += delta
	}

	if cfg.CloudCouplingEnabled {
		p := float64(c.CloudProb) + cfg.Kappa*omega
		if p < 0 {
			p = 0
		}
		if p > 1 {
			p = 1
		}
		c.CloudProb = float32(p)
	}
}
