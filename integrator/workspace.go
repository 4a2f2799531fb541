// Package integrator advances grid cells in time using one of several
// structure-preserving schemes (RK4, RKMK4 on SE(3), Clebsch symplectic
// partitioned RK), selected per cell by LoD and capability flags.
package integrator

import "github.com/pthm-cable/negsim/grid"

// MaxStateDim bounds the size of any per-cell state vector the
// integrators operate on (7 scalar fields plus the 3x3 SE(3) rotation,
// rounded up generously so stage buffers never need to grow).
const MaxStateDim = 128

// Method selects an integration routine.
type Method uint8

const (
	MethodRK4 Method = iota
	MethodSymplecticPRK
	MethodRKMK4
	MethodClebsch
	MethodExplicitEuler
)

func (m Method) String() string {
	switch m {
	case MethodRK4:
		return "rk4"
	case MethodSymplecticPRK:
		return "symplectic_prk"
	case MethodRKMK4:
		return "rkmk4"
	case MethodClebsch:
		return "clebsch"
	case MethodExplicitEuler:
		return "explicit_euler"
	default:
		return "unknown"
	}
}

// Status is the return code of a single integration attempt: 0
// success, 1 fallback used, negative specific failure kinds.
type Status int

const (
	StatusOK             Status = 0
	StatusFallback       Status = 1
	StatusInvalidParams  Status = -1
	StatusDiverged       Status = -2
	StatusUnstable       Status = -3
	StatusUnsupported    Status = -4
)

// Stats accumulates per-workspace step/fallback counters, an
// accumulate-across-ticks counter rather than one recomputed each
// call.
type Stats struct {
	Steps     uint64
	Fallbacks uint64
	Escalations uint64
}

// Workspace holds stage buffers sized against MaxStateDim, the
// saved-state slot dispatch uses to roll back an escalated attempt, and
// the step counters. The integration routines keep their stages in
// fixed-size local arrays and do not read the stage buffers; dispatch
// uses only SaveState, RestoreState and Stats.
type Workspace struct {
	// RK4 stage buffers: k1..k4, each MaxStateDim wide.
	k1, k2, k3, k4 [MaxStateDim]float64

	// RKMK4 stage buffers for the twist (angular+linear, 6-wide) and a
	// scratch 3x3 rotation.
	twistStage [4][6]float64
	rScratch   [3][3]float64

	// Clebsch partitioned-RK stage buffers (q,p) and Newton scratch.
	qStage, pStage [2]float64

	savedState [MaxStateDim]float64

	Stats Stats
}

// NewWorkspace constructs a zeroed scratch workspace.
func NewWorkspace() *Workspace {
	return &Workspace{}
}

// SaveState snapshots a cell's error-relevant fields into the
// workspace's scratch slot so a failed/escalated attempt can be rolled
// back.
func (w *Workspace) SaveState(c *grid.Cell) {
	w.savedState[0] = float64(c.Theta)
	w.savedState[1] = float64(c.SurfaceH)
	w.savedState[2] = float64(c.SOM)
	w.savedState[3] = float64(c.SoilTemp)
	w.savedState[4] = float64(c.V)
	w.savedState[5] = float64(c.MomU)
	w.savedState[6] = float64(c.MomV)
	w.savedState[7] = float64(c.Psi)
	w.savedState[8] = float64(c.Zeta)
}

// RestoreState writes the saved fields back onto the cell.
func (w *Workspace) RestoreState(c *grid.Cell) {
	c.Theta = float32(w.savedState[0])
	c.SurfaceH = float32(w.savedState[1])
	c.SOM = float32(w.savedState[2])
	c.SoilTemp = float32(w.savedState[3])
	c.V = float32(w.savedState[4])
	c.MomU = float32(w.savedState[5])
	c.MomV = float32(w.savedState[6])
	c.Psi = float32(w.savedState[7])
	c.Zeta = float32(w.savedState[8])
}
