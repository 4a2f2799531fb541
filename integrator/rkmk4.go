package integrator

import "math"

// rodriguesEpsilon is the angle below which the exponential map uses
// its Taylor expansion instead of Rodrigues' closed form, avoiding the
// 0/0 in sin(theta)/theta at small angles.
const rodriguesEpsilon = 1e-8

// Pose is an SE(3) element: rotation R in SO(3) plus translation T. It
// is the state RKMK4 advances -- an entity distinct from grid.Cell's
// column-aggregate state, addressed by the entities that require a full
// rigid-body frame.
type Pose struct {
	R [3][3]float64
	T [3]float64
}

// IdentityPose returns the identity element of SE(3).
func IdentityPose() Pose {
	p := Pose{}
	p.R[0][0], p.R[1][1], p.R[2][2] = 1, 1, 1
	return p
}

// Twist is a body-frame angular/linear velocity pair.
type Twist struct {
	Angular [3]float64
	Linear  [3]float64
}

// TwistFunc evaluates the twist driving a pose at a point in the step;
// constant-twist callers ignore their arguments.
type TwistFunc func(p Pose, t float64) Twist

func vecScale(v [3]float64, s float64) [3]float64 {
	return [3]float64{v[0] * s, v[1] * s, v[2] * s}
}

func vecAdd(a, b [3]float64) [3]float64 {
	return [3]float64{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

func vecNorm(v [3]float64) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

// hat maps an R^3 vector to its so(3) skew-symmetric matrix.
func hat(w [3]float64) [3][3]float64 {
	return [3][3]float64{
		{0, -w[2], w[1]},
		{w[2], 0, -w[0]},
		{-w[1], w[0], 0},
	}
}

func matMul3(a, b [3][3]float64) [3][3]float64 {
	var c [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			sum := 0.0
			for k := 0; k < 3; k++ {
				sum += a[i][k] * b[k][j]
			}
			c[i][j] = sum
		}
	}
	return c
}

func matVec3(a [3][3]float64, v [3]float64) [3]float64 {
	return [3]float64{
		a[0][0]*v[0] + a[0][1]*v[1] + a[0][2]*v[2],
		a[1][0]*v[0] + a[1][1]*v[1] + a[1][2]*v[2],
		a[2][0]*v[0] + a[2][1]*v[1] + a[2][2]*v[2],
	}
}

func matAddScaled(a, b [3][3]float64, s float64) [3][3]float64 {
	var c [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			c[i][j] = a[i][j] + s*b[i][j]
		}
	}
	return c
}

func identity3() [3][3]float64 {
	return [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

// expSO3 computes the exponential map of a so(3) element via Rodrigues'
// formula, falling back to its Taylor expansion below rodriguesEpsilon
// radians to avoid dividing by a vanishing angle.
func expSO3(w [3]float64) [3][3]float64 {
	theta := vecNorm(w)
	what := hat(w)
	if theta < rodriguesEpsilon {
		// Taylor: exp(what) ~= I + what + what^2/2
		return matAddScaled(matAddScaled(identity3(), what, 1), matMul3(what, what), 0.5)
	}
	k := vecScale(w, 1/theta) // unit axis
	khat := hat(k)
	sinT := math.Sin(theta)
	cosT := math.Cos(theta)
	// Rodrigues: I + sin(theta)*khat + (1-cos(theta))*khat^2
	r := matAddScaled(identity3(), khat, sinT)
	r = matAddScaled(r, matMul3(khat, khat), 1-cosT)
	return r
}

// gramSchmidt3 re-orthonormalizes a near-rotation matrix back onto
// SO(3) via column-wise Gram-Schmidt, the step RKMK4 runs after every
// composition to keep ‖det R - 1‖ within 1e-6 bound.
func gramSchmidt3(r [3][3]float64) [3][3]float64 {
	col := func(m [3][3]float64, j int) [3]float64 {
		return [3]float64{m[0][j], m[1][j], m[2][j]}
	}
	setCol := func(m *[3][3]float64, j int, v [3]float64) {
		m[0][j], m[1][j], m[2][j] = v[0], v[1], v[2]
	}
	dot := func(a, b [3]float64) float64 { return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] }

	e1 := col(r, 0)
	n1 := vecNorm(e1)
	if n1 < 1e-15 {
		return identity3()
	}
	e1 = vecScale(e1, 1/n1)

	u2 := col(r, 1)
	u2 = vecAdd(u2, vecScale(e1, -dot(u2, e1)))
	n2 := vecNorm(u2)
	if n2 < 1e-15 {
		return identity3()
	}
	e2 := vecScale(u2, 1/n2)

	// e3 = e1 x e2, guaranteeing a right-handed orthonormal frame.
	e3 := [3]float64{
		e1[1]*e2[2] - e1[2]*e2[1],
		e1[2]*e2[0] - e1[0]*e2[2],
		e1[0]*e2[1] - e1[1]*e2[0],
	}

	var out [3][3]float64
	setCol(&out, 0, e1)
	setCol(&out, 1, e2)
	setCol(&out, 2, e3)
	return out
}

// Determinant3 is exposed for tests verifying ‖det R - 1‖ <= 1e-6.
func Determinant3(r [3][3]float64) float64 {
	return r[0][0]*(r[1][1]*r[2][2]-r[1][2]*r[2][1]) -
		r[0][1]*(r[1][0]*r[2][2]-r[1][2]*r[2][0]) +
		r[0][2]*(r[1][0]*r[2][1]-r[1][1]*r[2][0])
}

// StepRKMK4 advances a Pose over dt given a (possibly time/state
// varying) twist. Four RK4-weighted stage evaluations of the twist
// approximate the driving vector field; the combined twist is
// exponentiated via expSO3 and composed onto the pose; Gram-Schmidt
// restores SO(3) afterward.
func StepRKMK4(p Pose, dt float64, twist TwistFunc) (Pose, Status) {
	if dt <= 0 {
		return p, StatusInvalidParams
	}

	k1 := twist(p, 0)
	mid1 := advancePose(p, k1, dt/2)
	k2 := twist(mid1, dt/2)
	mid2 := advancePose(p, k2, dt/2)
	k3 := twist(mid2, dt/2)
	end := advancePose(p, k3, dt)
	k4 := twist(end, dt)

	avgAngular := weightedAvg4(k1.Angular, k2.Angular, k3.Angular, k4.Angular)
	avgLinear := weightedAvg4(k1.Linear, k2.Linear, k3.Linear, k4.Linear)

	dR := expSO3(vecScale(avgAngular, dt))
	newR := matMul3(p.R, dR)
	newR = gramSchmidt3(newR)

	if math.Abs(Determinant3(newR)-1) > 1e-3 {
		return p, StatusUnstable
	}

	newT := vecAdd(p.T, matVec3(p.R, vecScale(avgLinear, dt)))

	return Pose{R: newR, T: newT}, StatusOK
}

func advancePose(p Pose, tw Twist, dt float64) Pose {
	dR := expSO3(vecScale(tw.Angular, dt))
	newR := gramSchmidt3(matMul3(p.R, dR))
	newT := vecAdd(p.T, matVec3(p.R, vecScale(tw.Linear, dt)))
	return Pose{R: newR, T: newT}
}

func weightedAvg4(a, b, c, d [3]float64) [3]float64 {
	var out [3]float64
	for i := 0; i < 3; i++ {
		out[i] = (a[i] + 2*b[i] + 2*c[i] + d[i]) / 6
	}
	return out
}
