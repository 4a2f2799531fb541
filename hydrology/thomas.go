package hydrology

// ThomasSolve solves a tridiagonal system Ax=d where a is the
// sub-diagonal (a[0] unused), b the diagonal, c the super-diagonal
// (c[n-1] unused), and d the right-hand side, all length n. Returns the
// solution in a freshly allocated slice; the inputs are not mutated.
//
// Cross-checked in tests against gonum.org/v1/gonum/mat's dense solve.
func ThomasSolve(a, b, c, d []float64) []float64 {
	n := len(b)
	cp := make([]float64, n)
	dp := make([]float64, n)

	cp[0] = c[0] / b[0]
	dp[0] = d[0] / b[0]
	for i := 1; i < n; i++ {
		m := b[i] - a[i]*cp[i-1]
		if i < n-1 {
			cp[i] = c[i] / m
		}
		dp[i] = (d[i] - a[i]*dp[i-1]) / m
	}

	x := make([]float64, n)
	x[n-1] = dp[n-1]
	for i := n - 2; i >= 0; i-- {
		x[i] = dp[i] - cp[i]*x[i+1]
	}
	return x
}
