package barrier

import (
	"testing"

	"github.com/pthm-cable/negsim/fixedpoint"
)

func TestLowerGradientStrictlyNegativeAboveBound(t *testing.T) {
	c := DefaultConstants()
	xMin := fixedpoint.FromFloat64(0)
	x := fixedpoint.FromFloat64(0.01)
	g := LowerGradient(x, xMin, c)
	if g >= 0 {
		t.Errorf("expected strictly negative gradient just above lower bound, got %v", g.ToFloat64())
	}
}

func TestUpperGradientStrictlyPositiveBelowBound(t *testing.T) {
	c := DefaultConstants()
	xMax := fixedpoint.FromFloat64(1)
	x := fixedpoint.FromFloat64(0.99)
	g := UpperGradient(x, xMax, c)
	if g <= 0 {
		t.Errorf("expected strictly positive gradient just below upper bound, got %v", g.ToFloat64())
	}
}

func TestGradientMagnitudeShrinksWithDistance(t *testing.T) {
	c := DefaultConstants()
	xMin := fixedpoint.FromFloat64(0)
	near := fixedpoint.Abs(LowerGradient(fixedpoint.FromFloat64(0.001), xMin, c))
	far := fixedpoint.Abs(LowerGradient(fixedpoint.FromFloat64(0.5), xMin, c))
	if far > near {
		t.Errorf("gradient magnitude should be non-increasing with distance: near=%v far=%v",
			near.ToFloat64(), far.ToFloat64())
	}
}

func TestDeepViolationSaturates(t *testing.T) {
	c := DefaultConstants()
	xMin := fixedpoint.FromFloat64(0)
	x := fixedpoint.FromFloat64(-1) // below xMin + eps
	g := LowerGradient(x, xMin, c)
	if g != fixedpoint.MinQ16 {
		t.Errorf("expected saturated extremum for deep violation, got %v", g.ToFloat64())
	}
}

func TestBoundedGradientSumsBoth(t *testing.T) {
	c := DefaultConstants()
	xMin := fixedpoint.FromFloat64(0)
	xMax := fixedpoint.FromFloat64(1)
	mid := fixedpoint.FromFloat64(0.5)
	lo := LowerGradient(mid, xMin, c)
	hi := UpperGradient(mid, xMax, c)
	want := fixedpoint.Add(lo, hi)
	got := BoundedGradient(mid, xMin, xMax, c)
	if got != want {
		t.Errorf("BoundedGradient = %v, want %v", got.ToFloat64(), want.ToFloat64())
	}
}
