package integrator

import "math"

// ClebschLUTSize is the bin count of the canonical-lift tables.
const ClebschLUTSize = 512

const (
	clebschMMin = 0.0
	clebschMMax = 64.0
)

// ClebschLUT lifts a scalar Lie-Poisson variable m to canonical (q,p)
// coordinates via two precomputed tables, linearly interpolated
// independently. The section chosen is q0(m) = sqrt(2m), p0(m) = 0, so the
// Casimir C = q^2+p^2 recovers 2m on the lifted section. Built once at
// init and shared by pointer across every Clebsch workspace (the same
// precompute-once-immutable-thereafter shape as fixedpoint.Tables).
type ClebschLUT struct {
	qTable [ClebschLUTSize]float64
	pTable [ClebschLUTSize]float64
}

// NewClebschLUT builds the canonical-lift tables deterministically.
func NewClebschLUT() *ClebschLUT {
	lut := &ClebschLUT{}
	for i := 0; i < ClebschLUTSize; i++ {
		m := clebschMMin + float64(i)*(clebschMMax-clebschMMin)/float64(ClebschLUTSize-1)
		lut.qTable[i] = math.Sqrt(2 * m)
		lut.pTable[i] = 0
	}
	return lut
}

func (lut *ClebschLUT) binAndFrac(m float64) (int, float64) {
	if m < clebschMMin {
		m = clebschMMin
	}
	if m > clebschMMax {
		m = clebschMMax
	}
	step := (clebschMMax - clebschMMin) / float64(ClebschLUTSize-1)
	pos := (m - clebschMMin) / step
	bin := int(pos)
	if bin >= ClebschLUTSize-1 {
		return ClebschLUTSize - 2, 1.0
	}
	return bin, pos - float64(bin)
}

// Lift maps m to a canonical (q,p) pair via linear interpolation of the
// stored tables. Out-of-range m clamps to the table's domain edge.
func (lut *ClebschLUT) Lift(m float64) (q, p float64) {
	bin, frac := lut.binAndFrac(m)
	q = lut.qTable[bin]*(1-frac) + lut.qTable[bin+1]*frac
	p = lut.pTable[bin]*(1-frac) + lut.pTable[bin+1]*frac
	return q, p
}

// Project recovers m from a (possibly evolved) canonical pair via the
// Casimir C(q,p) = q^2+p^2 = 2m relation.
func (lut *ClebschLUT) Project(q, p float64) float64 {
	return Casimir(q, p) / 2
}

// Casimir is the conserved quantity of the canonical lift, C = q^2+p^2.
func Casimir(q, p float64) float64 {
	return q*q + p*p
}
