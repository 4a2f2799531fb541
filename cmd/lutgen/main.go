// lutgen searches for the psi-domain lower bound that minimizes a soil's
// theta(psi) lookup-table interpolation error, the offline counterpart
// to the kernel's runtime LUTs (which are generated once at startup
// from a fixed domain).
package main

import (
	"flag"
	"fmt"
	"log"
	"math"

	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/negsim/hydrology"
)

// referenceSoil is a representative sandy-loam used as the search's
// fitness target; a real tuning run would sweep several soils and
// minimize the worst case across all of them.
var referenceSoil = hydrology.SoilParams{
	Ks: 2.8e-6, Alpha: 1.4, N: 1.5, ThetaS: 0.43, ThetaR: 0.05,
}

const (
	evalSamples  = 500
	psiMinFloor  = -50.0 // deepest suction the search is allowed to try
	psiMinCeil   = -1.0  // shallowest suction the search is allowed to try
)

// tableError returns the max relative error of a theta(psi) table built
// with the given psiMin, sampled densely across its own domain.
func tableError(psiMin float64) float64 {
	p := referenceSoil
	p.PsiMin = psiMin
	tables := hydrology.NewTables(p)

	m := 1 - 1/p.N
	var maxErr float64
	for i := 0; i < evalSamples; i++ {
		psi := psiMin + float64(i)*(0-psiMin)/float64(evalSamples-1)
		got := tables.ThetaOfPsi(psi)
		want := vanGenuchtenThetaRef(p, m, psi)
		if want == 0 {
			continue
		}
		relErr := math.Abs(got-want) / want
		if relErr > maxErr {
			maxErr = relErr
		}
	}
	return maxErr
}

// vanGenuchtenThetaRef mirrors hydrology's unexported reference formula
// so the search can score candidate domains against ground truth.
func vanGenuchtenThetaRef(p hydrology.SoilParams, m, psi float64) float64 {
	if psi >= 0 {
		return p.ThetaS
	}
	se := math.Pow(1+math.Pow(math.Abs(p.Alpha*psi), p.N), -m)
	return p.ThetaR + (p.ThetaS-p.ThetaR)*se
}

func main() {
	maxEvals := flag.Int("max-evals", 200, "Maximum number of evaluations")
	flag.Parse()

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			psiMin := clamp(x[0], psiMinFloor, psiMinCeil)
			return tableError(psiMin)
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations: *maxEvals,
	}
	method := &optimize.CmaEsChol{
		InitStepSize: 5.0,
		Population:   8,
	}

	initX := []float64{-20.0}
	result, err := optimize.Minimize(problem, initX, settings, method)
	if err != nil {
		log.Printf("optimization ended: %v", err)
	}

	best := clamp(result.X[0], psiMinFloor, psiMinCeil)
	fmt.Printf("best psi_min: %.4f (max_rel_error=%.3e, evaluations=%d)\n", best, result.F, result.Stats.FuncEvaluations)
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
