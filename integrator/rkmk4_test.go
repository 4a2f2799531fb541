package integrator

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func toDense(r [3][3]float64) *mat.Dense {
	d := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			d.Set(i, j, r[i][j])
		}
	}
	return d
}

func TestExpSO3IdentityAtZeroAngle(t *testing.T) {
	r := expSO3([3]float64{0, 0, 0})
	if math.Abs(Determinant3(r)-1) > 1e-12 {
		t.Errorf("expected determinant 1 at zero angle, got %f", Determinant3(r))
	}
	if r != identity3() {
		t.Errorf("expected identity rotation at zero angle, got %v", r)
	}
}

func TestExpSO3TaylorMatchesRodriguesNearEpsilon(t *testing.T) {
	small := [3]float64{rodriguesEpsilon / 2, 0, 0}
	r := expSO3(small)
	if math.Abs(Determinant3(r)-1) > 1e-6 {
		t.Errorf("expected near-identity rotation determinant ~1, got %f", Determinant3(r))
	}

	// Rodrigues' closed form for a rotation by theta about the x axis.
	theta := small[0]
	want := [3][3]float64{
		{1, 0, 0},
		{0, math.Cos(theta), -math.Sin(theta)},
		{0, math.Sin(theta), math.Cos(theta)},
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if math.Abs(r[i][j]-want[i][j]) > 1e-15 {
				t.Errorf("Taylor branch r[%d][%d] = %g, Rodrigues closed form gives %g", i, j, r[i][j], want[i][j])
			}
		}
	}
}

func TestExpSO3OrthogonalityViaGonum(t *testing.T) {
	r := expSO3([3]float64{0.3, -0.5, 0.2})
	d := toDense(r)
	var rt mat.Dense
	rt.CloneFrom(d.T())
	var prod mat.Dense
	prod.Mul(&rt, d)

	var diff mat.Dense
	diff.Sub(&prod, eye3())
	norm := mat.Norm(&diff, 2)
	if norm > 1e-9 {
		t.Errorf("expected R^T R ~= I, norm(diff) = %e", norm)
	}
}

func eye3() *mat.Dense {
	d := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		d.Set(i, i, 1)
	}
	return d
}

func TestGramSchmidtRestoresOrthonormality(t *testing.T) {
	// Perturb a rotation slightly off SO(3) and verify Gram-Schmidt
	// restores it.
	r := identity3()
	r[0][1] = 0.01 // small drift
	out := gramSchmidt3(r)
	d := toDense(out)
	var rt mat.Dense
	rt.CloneFrom(d.T())
	var prod mat.Dense
	prod.Mul(&rt, d)
	var diff mat.Dense
	diff.Sub(&prod, eye3())
	if mat.Norm(&diff, 2) > 1e-9 {
		t.Errorf("expected orthonormal result after Gram-Schmidt")
	}
}

func TestStepRKMK4PreservesDeterminant(t *testing.T) {
	p := IdentityPose()
	twist := func(Pose, float64) Twist {
		return Twist{Angular: [3]float64{0.1, 0.05, -0.02}, Linear: [3]float64{1, 0, 0}}
	}
	for i := 0; i < 50; i++ {
		next, status := StepRKMK4(p, 0.01, twist)
		if status != StatusOK {
			t.Fatalf("unexpected status %v at step %d", status, i)
		}
		p = next
	}
	if math.Abs(Determinant3(p.R)-1) > 1e-6 {
		t.Errorf("expected |det(R)-1| <= 1e-6, got %e", math.Abs(Determinant3(p.R)-1))
	}
}

func TestStepRKMK4RejectsNonPositiveDt(t *testing.T) {
	p := IdentityPose()
	_, status := StepRKMK4(p, 0, func(Pose, float64) Twist { return Twist{} })
	if status != StatusInvalidParams {
		t.Errorf("expected StatusInvalidParams, got %v", status)
	}
}

func TestStepRKMK4ZeroTwistIsIdentity(t *testing.T) {
	p := IdentityPose()
	next, status := StepRKMK4(p, 0.1, func(Pose, float64) Twist { return Twist{} })
	if status != StatusOK {
		t.Fatalf("unexpected status %v", status)
	}
	if math.Abs(Determinant3(next.R)-1) > 1e-12 {
		t.Errorf("expected identity rotation preserved, det=%f", Determinant3(next.R))
	}
	if next != p {
		t.Errorf("expected zero twist to leave the pose unchanged, got %v", next)
	}
}
