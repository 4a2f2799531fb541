package integrator

import "github.com/pthm-cable/negsim/grid"

// Escalation thresholds on the L2 error rate.
const (
	escalateRK4ToRKMK4     = 1e-4
	escalateRKMK4ToClebsch = 1e-6
)

// SelectMethod implements the LoD-gated dispatch policy: LoD < 2 -> RK4;
// LoD >= 2 with SE(3) flag -> RKMK4; LoD >= 2 with Lie-Poisson flag ->
// Clebsch; otherwise RKMK4.
func SelectMethod(lod grid.LoDLevel, caps grid.Capabilities) Method {
	if lod < 2 {
		return MethodRK4
	}
	if caps&grid.CapRequiresSE3 != 0 {
		return MethodRKMK4
	}
	if caps&grid.CapRequiresLP != 0 {
		return MethodClebsch
	}
	return MethodRKMK4
}

// StepOptions carries every input a dispatched step might need,
// regardless of which method ends up handling the cell.
type StepOptions struct {
	Relax   RelaxParams
	Forcing Forcing
	Clebsch ClebschParams
	LUT     *ClebschLUT
}

// poseFromCell reads a cell's packed pose, treating an all-zero PoseR
// (never-initialized) as identity.
func poseFromCell(c *grid.Cell) Pose {
	allZero := true
	for _, v := range c.PoseR {
		if v != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		return IdentityPose()
	}
	var p Pose
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			p.R[i][j] = float64(c.PoseR[i*3+j])
		}
		p.T[i] = float64(c.PoseT[i])
	}
	return p
}

func writePoseToCell(c *grid.Cell, p Pose) {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			c.PoseR[i*3+j] = float32(p.R[i][j])
		}
		c.PoseT[i] = float32(p.T[i])
	}
}

// constantTwist builds a TwistFunc from a cell's forcing, used when no
// richer time-varying drive is supplied.
func constantTwist(f Forcing) TwistFunc {
	tw := Twist{
		Angular: [3]float64{0, 0, f.MomU - f.MomV},
		Linear:  [3]float64{f.MomU, f.MomV, 0},
	}
	return func(Pose, float64) Twist { return tw }
}

// runMethod executes exactly one of the five integration routines
// against c. Saving and restoring state for escalation is left to
// dispatchWithMethod.
func runMethod(method Method, c *grid.Cell, dt float64, opts StepOptions) Status {
	switch method {
	case MethodRK4:
		return StepRK4(c, dt, opts.Relax, opts.Forcing)
	case MethodExplicitEuler:
		return StepExplicitEuler(c, dt, opts.Relax, opts.Forcing)
	case MethodSymplecticPRK:
		return StepSymplecticPRK(c, dt, opts.Relax, opts.Forcing)
	case MethodRKMK4:
		pose := poseFromCell(c)
		next, status := StepRKMK4(pose, dt, constantTwist(opts.Forcing))
		if status == StatusOK {
			writePoseToCell(c, next)
		}
		return status
	case MethodClebsch:
		if opts.LUT == nil {
			return StatusInvalidParams
		}
		mNext, status, fallback := StepClebsch(float64(c.LieM), dt, opts.Clebsch, opts.LUT)
		c.LieM = float32(mNext)
		c.MomU = float32(mNext)
		if fallback {
			return StatusFallback
		}
		return status
	default:
		return StatusUnsupported
	}
}

// DispatchCell routes c to its LoD/capability-selected method, escalating
// to a higher-fidelity method when the post-step L2 error rate exceeds
// the current method's threshold. Escalation restores the pre-step state
// before retrying; Clebsch never escalates further.
func DispatchCell(c *grid.Cell, ws *Workspace, dt float64, opts StepOptions) Status {
	method := SelectMethod(c.LoD, c.Caps)
	return dispatchWithMethod(c, ws, dt, opts, method)
}

func dispatchWithMethod(c *grid.Cell, ws *Workspace, dt float64, opts StepOptions, method Method) Status {
	pre := *c
	ws.SaveState(c)

	status := runMethod(method, c, dt, opts)
	ws.Stats.Steps++
	if status == StatusFallback {
		ws.Stats.Fallbacks++
	}
	if status < 0 {
		return status
	}

	errRate := EstimateError(&pre, c, dt)

	switch method {
	case MethodRK4:
		if errRate > escalateRK4ToRKMK4 {
			ws.RestoreState(c)
			ws.Stats.Escalations++
			return dispatchWithMethod(c, ws, dt, opts, MethodRKMK4)
		}
	case MethodRKMK4:
		if errRate > escalateRKMK4ToClebsch {
			ws.RestoreState(c)
			ws.Stats.Escalations++
			return dispatchWithMethod(c, ws, dt, opts, MethodClebsch)
		}
	case MethodClebsch:
		// Clebsch does not escalate.
	}
	return status
}

// DispatchTile batches a tile of cells of (expected) equal LoD, skipping
// inactive cells and isolating per-cell failures so one cell's missing
// precondition never aborts the rest of the tick. Returns the indices
// of cells whose dispatch returned a negative status.
func DispatchTile(cells []*grid.Cell, ws *Workspace, dt float64, opts StepOptions) []int {
	var failed []int
	for i, c := range cells {
		if c == nil || !c.Active {
			continue
		}
		if status := DispatchCell(c, ws, dt, opts); status < 0 {
			failed = append(failed, i)
		}
	}
	return failed
}
