package hydrology

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func solveWithGonum(a, b, c, d []float64) []float64 {
	n := len(b)
	dense := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		dense.Set(i, i, b[i])
		if i > 0 {
			dense.Set(i, i-1, a[i])
		}
		if i < n-1 {
			dense.Set(i, i+1, c[i])
		}
	}
	rhs := mat.NewVecDense(n, d)
	var x mat.VecDense
	if err := x.SolveVec(dense, rhs); err != nil {
		panic(err)
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = x.AtVec(i)
	}
	return out
}

func TestThomasSolveMatchesGonumDenseSolve(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	n := 12
	a := make([]float64, n)
	b := make([]float64, n)
	c := make([]float64, n)
	d := make([]float64, n)
	for i := 0; i < n; i++ {
		b[i] = 4.0 + rng.Float64() // diagonally dominant
		if i > 0 {
			a[i] = -1.0 - rng.Float64()*0.1
		}
		if i < n-1 {
			c[i] = -1.0 - rng.Float64()*0.1
		}
		d[i] = rng.Float64() * 10
	}

	got := ThomasSolve(a, b, c, d)
	want := solveWithGonum(a, b, c, d)

	for i := range got {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("index %d: thomas=%f gonum=%f", i, got[i], want[i])
		}
	}
}

func TestThomasSolveTrivialScalarSystem(t *testing.T) {
	got := ThomasSolve([]float64{0}, []float64{2}, []float64{0}, []float64{10})
	if math.Abs(got[0]-5.0) > 1e-12 {
		t.Errorf("expected 5.0, got %f", got[0])
	}
}
