// Package grid provides the cell record and dense/sparse storage engines
// for the simulation's 2.5D surface tiles.
package grid

import "github.com/pthm-cable/negsim/fixedpoint"

// InterventionType enumerates the regenerative-earthworks interventions a
// cell may carry.
type InterventionType uint8

const (
	InterventionNone InterventionType = iota
	InterventionMulchGravel
	InterventionSwale
	InterventionBerm
	InterventionBiocrust
)

// Intervention records an intervention type and its applied intensity.
type Intervention struct {
	Type      InterventionType
	Intensity float32 // 0..1, interpolates within the type's parameter range
}

// LoDLevel is a cell's integration level of detail, 0 (coarsest) to 3
// (finest).
type LoDLevel uint8

// Capability flags describing what an integration step may require of a
// cell.
type Capabilities uint8

const (
	CapRequiresSE3 Capabilities = 1 << iota
	CapRequiresLP
	CapActive
	CapBoundary
)

// Cell represents one column of a 2.5D surface tile. Fields are grouped
// by concern to mirror partitioning.
type Cell struct {
	// Hydrological state.
	Theta    float32 // volumetric moisture, in [ThetaR, PorosityEff]
	Psi      float32 // matric head, <= 0
	SurfaceH float32 // surface ponding h_s, >= 0
	Zeta     float32 // depression storage, >= 0

	// Soil hydraulic parameters (base, pre-intervention).
	Ks     float32 // saturated conductivity
	VGAlpha float32 // van Genuchten alpha
	VGn    float32 // van Genuchten n
	ThetaS float32 // saturated moisture (base)
	ThetaR float32 // residual moisture

	// Intervention multipliers, derived from Intervention + base params.
	MKzz       float32 // vertical conductivity multiplier, >= 0
	MKxx       float32 // horizontal conductivity multiplier, >= 0
	KappaE     float32 // evaporation scale, in [0,1]
	DeltaZeta  float32 // added depression storage, >= 0
	Intervention Intervention

	// Microtopography.
	ZetaC float32 // fill-and-spill threshold
	Ac    float32 // sigmoid steepness

	// Regeneration state.
	V        float32 // vegetation cover, [0,1]
	SOM      float32 // soil organic matter percent, [0,10]
	VQ16     fixedpoint.Q16
	SOMQ16   fixedpoint.Q16

	// Effective (REG -> HYD) parameters.
	PorosityEff float32         // [0.3, 0.7]
	KTensor     [9]float32      // row-major 3x3, diagonal populated for isotropic usage

	// Microbial state.
	LabileC          float32
	SoilTemp         float32
	NFixation        float32
	PhiAgg           float32 // aggregate index
	FBRatio          float32 // fungal:bacterial ratio
	HyphalDensity    float32
	O2               float32
	CanopyLAI        float32
	ThetaDeep        float32
	CondenserNeighbors int32

	// Atmospheric/momentum state.
	MomU      float32 // horizontal momentum component, x
	MomV      float32 // horizontal momentum component, y
	CloudProb float32 // [0,1]

	// SE(3)/Lie-Poisson state, populated only when Caps carries
	// CapRequiresSE3 / CapRequiresLP respectively.
	PoseR [9]float32 // row-major 3x3 rotation, identity when unused
	PoseT [3]float32
	LieM  float32 // Lie-Poisson vorticity-like scalar

	// Geometry.
	Z  float32
	Dz float32
	Dx float32

	// Integration metadata.
	LoD    LoDLevel
	Caps   Capabilities
	Active bool
}

// TotalWater returns theta*dz + h_s, the per-cell water balance
// diagnostic.
func (c *Cell) TotalWater() float32 {
	return c.Theta*c.Dz + c.SurfaceH
}

// CheckInvariants reports whether the cell currently satisfies its
// invariants. It does not mutate the cell; callers decide
// how to respond (clamp, flag, reject).
func (c *Cell) CheckInvariants() []string {
	var violations []string
	if c.Theta < c.ThetaR || c.Theta > c.PorosityEff {
		violations = append(violations, "theta out of [theta_r, porosity_eff]")
	}
	if c.Psi > 0 {
		violations = append(violations, "psi > 0")
	}
	if c.KTensor[8] < 1e-8 || c.KTensor[8] > 1e-3 {
		violations = append(violations, "K_tensor[8] out of [1e-8, 1e-3]")
	}
	if c.PorosityEff < c.ThetaS {
		violations = append(violations, "porosity_eff < theta_s")
	}
	return violations
}
