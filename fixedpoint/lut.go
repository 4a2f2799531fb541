package fixedpoint

import "math"

const (
	// ReciprocalTableSize is the number of entries in the reciprocal LUT.
	ReciprocalTableSize = 256
	reciprocalMin       = 1.0
	reciprocalMax       = 256.0

	// SqrtTableSize is the number of entries in the sqrt LUT.
	SqrtTableSize = 512
	sqrtMin       = 0.0
	sqrtMax       = 1024.0
)

// Tables holds deterministically generated lookup tables. Generation
// happens once at init time (see NewTables); the tables are immutable
// thereafter and safe to share across concurrent readers.
type Tables struct {
	reciprocal [ReciprocalTableSize]float64
	sqrtTable  [SqrtTableSize]float64
}

// NewTables builds all lookup tables deterministically. Call once at
// kernel initialization and share the result.
func NewTables() *Tables {
	t := &Tables{}
	for i := 0; i < ReciprocalTableSize; i++ {
		x := reciprocalMin + float64(i)*(reciprocalMax-reciprocalMin)/float64(ReciprocalTableSize-1)
		t.reciprocal[i] = 1.0 / x
	}
	for i := 0; i < SqrtTableSize; i++ {
		x := sqrtMin + float64(i)*(sqrtMax-sqrtMin)/float64(SqrtTableSize-1)
		t.sqrtTable[i] = math.Sqrt(x)
	}
	return t
}

// Reciprocal returns 1/x. For x in [1,256] it uses the 256-entry linearly
// interpolated LUT (relative error < 1e-4); outside that range it falls
// back to direct Q16.16 division.
func (t *Tables) Reciprocal(x Q16) Q16 {
	xf := x.ToFloat64()
	if xf < reciprocalMin || xf > reciprocalMax || xf == 0 {
		return Div(One, x)
	}
	pos := (xf - reciprocalMin) / (reciprocalMax - reciprocalMin) * float64(ReciprocalTableSize-1)
	idx := int(pos)
	if idx >= ReciprocalTableSize-1 {
		return FromFloat64(t.reciprocal[ReciprocalTableSize-1])
	}
	frac := pos - float64(idx)
	v := t.reciprocal[idx]*(1-frac) + t.reciprocal[idx+1]*frac
	return FromFloat64(v)
}

// Sqrt returns sqrt(x). For x in [0,1024] it uses the 512-entry linearly
// interpolated LUT; above that range it refines an initial guess of x/2
// with two Newton-Raphson iterations.
func (t *Tables) Sqrt(x Q16) Q16 {
	xf := x.ToFloat64()
	if xf <= 0 {
		return 0
	}
	if xf <= sqrtMax {
		pos := (xf - sqrtMin) / (sqrtMax - sqrtMin) * float64(SqrtTableSize-1)
		idx := int(pos)
		if idx >= SqrtTableSize-1 {
			return FromFloat64(t.sqrtTable[SqrtTableSize-1])
		}
		frac := pos - float64(idx)
		v := t.sqrtTable[idx]*(1-frac) + t.sqrtTable[idx+1]*frac
		return FromFloat64(v)
	}

	// Newton-Raphson refinement of sqrt(x), seeded with x/2.
	guess := xf / 2
	for i := 0; i < 2; i++ {
		if guess == 0 {
			break
		}
		guess = 0.5 * (guess + xf/guess)
	}
	return FromFloat64(guess)
}

// InvSqrt returns 1/sqrt(x) using the classic bit-magic initial estimate
// on the float32 bit pattern followed by one Newton-Raphson step. Float32
// arithmetic is IEEE-754 and therefore bit-identical across the targets
// this kernel supports within a single build.
func InvSqrt(x Q16) Q16 {
	xf := x.ToFloat32()
	if xf <= 0 {
		return MaxQ16
	}
	i := math.Float32bits(xf)
	i = 0x5f3759df - (i >> 1)
	y := math.Float32frombits(i)
	y = y * (1.5 - 0.5*xf*y*y)
	return FromFloat32(y)
}

// TableReport describes the measured accuracy of a single lookup table.
type TableReport struct {
	Name          string
	MaxRelError   float64
	SampleX       float64
	SampleCount   int
}

// VerifyTables samples each table against its exact mathematical
// definition and reports the maximum observed relative error. Intended
// to run once at startup and be logged, not called on the hot path.
func (t *Tables) VerifyTables() []TableReport {
	reports := make([]TableReport, 0, 2)

	var maxErr float64
	var worstX float64
	const reciprocalSamples = 2000
	for i := 0; i < reciprocalSamples; i++ {
		x := reciprocalMin + float64(i)*(reciprocalMax-reciprocalMin)/float64(reciprocalSamples-1)
		got := t.Reciprocal(FromFloat64(x)).ToFloat64()
		want := 1.0 / x
		relErr := math.Abs(got*x - 1.0)
		if relErr > maxErr {
			maxErr = relErr
			worstX = x
		}
		_ = want
	}
	reports = append(reports, TableReport{
		Name:        "reciprocal",
		MaxRelError: maxErr,
		SampleX:     worstX,
		SampleCount: reciprocalSamples,
	})

	maxErr = 0
	worstX = 0
	const sqrtSamples = 2000
	for i := 0; i < sqrtSamples; i++ {
		x := 0.1 + float64(i)*(sqrtMax-0.1)/float64(sqrtSamples-1)
		got := t.Sqrt(FromFloat64(x)).ToFloat64()
		relErr := math.Abs(got*got-x) / x
		if relErr > maxErr {
			maxErr = relErr
			worstX = x
		}
	}
	reports = append(reports, TableReport{
		Name:        "sqrt",
		MaxRelError: maxErr,
		SampleX:     worstX,
		SampleCount: sqrtSamples,
	})

	return reports
}
