package integrator

import (
	"math"

	"github.com/pthm-cable/negsim/grid"
)

// EstimateError computes the L2 norm over (theta, surface water, SOM,
// temperature, vegetation, momentum u/v) of the difference between pre
// and post-step state, divided by dt. dt <= 0 yields +Inf.
func EstimateError(pre, post *grid.Cell, dt float64) float64 {
	if dt <= 0 {
		return math.Inf(1)
	}
	diffs := [stateDim]float64{
		float64(post.Theta) - float64(pre.Theta),
		float64(post.SurfaceH) - float64(pre.SurfaceH),
		float64(post.SOM) - float64(pre.SOM),
		float64(post.SoilTemp) - float64(pre.SoilTemp),
		float64(post.V) - float64(pre.V),
		float64(post.MomU) - float64(pre.MomU),
		float64(post.MomV) - float64(pre.MomV),
	}
	sumSq := 0.0
	for _, d := range diffs {
		sumSq += d * d
	}
	return math.Sqrt(sumSq) / dt
}
