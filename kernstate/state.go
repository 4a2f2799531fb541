// Package kernstate owns the canonical simulation state: a header, a
// pose block (one 192-byte record per entity), and a scalar block (4
// bytes per scalar field per entity), held as a struct and two
// separately allocated slices rather than one contiguous allocation.
// The layout is preserved across the process lifetime; Step only
// mutates in place.
package kernstate

import "fmt"

// PoseRecord is the 192-byte per-entity pose record: a 3x3 rotation, a
// translation, and a Lie-Poisson scalar, padded to a fixed width.
// float64 fields keep the record exactly 192 bytes: 9+3+1=13 float64s
// (104B) plus 11 float64s of reserved padding (88B).
type PoseRecord struct {
	R       [9]float64
	T       [3]float64
	LieM    float64
	Padding [11]float64
}

const poseRecordSize = 192

// ErrorFlags is a bitfield over the step-level error taxonomy, ordered
// from least to most severe so the highest set bit identifies the
// worst condition observed this step.
type ErrorFlags uint32

const (
	FlagSaturated ErrorFlags = 1 << iota
	FlagConvergenceFailed
	FlagSO3Drift
	FlagCasimirDrift
	FlagMassViolation
	FlagMemoryBudget
	FlagNaNInf
	FlagInvalidState
)

var flagNames = map[ErrorFlags]string{
	FlagSaturated:         "saturated",
	FlagConvergenceFailed: "convergence-failed",
	FlagSO3Drift:          "so3-drift",
	FlagCasimirDrift:      "casimir-drift",
	FlagMassViolation:     "mass-violation",
	FlagMemoryBudget:      "memory-budget",
	FlagNaNInf:            "nan-inf",
	FlagInvalidState:      "invalid-state",
}

// Severity returns the highest-severity flag set, or 0 if none are set.
func (f ErrorFlags) Severity() ErrorFlags {
	var worst ErrorFlags
	for flag := range flagNames {
		if f&flag != 0 && flag > worst {
			worst = flag
		}
	}
	return worst
}

// Descriptions returns a string per currently-set flag, in ascending
// severity order.
func (f ErrorFlags) Descriptions() []string {
	var out []string
	for flag := FlagSaturated; flag <= FlagInvalidState; flag <<= 1 {
		if f&flag != 0 {
			out = append(out, flagNames[flag])
		}
	}
	return out
}

// IsFatal reports whether f carries a flag that must terminate the
// current step at the dispatch boundary.
func (f ErrorFlags) IsFatal() bool {
	return f&(FlagNaNInf|FlagInvalidState) != 0
}

// Header is the fixed-size prologue of the contiguous state block.
type Header struct {
	EntityCount      uint32
	ScalarFieldCount uint32
	StepCount        uint64
	TimestampMicros  uint64
	Flags            ErrorFlags
}

// State owns a header, the pose records, and the per-entity scalar
// fields; poses and scalars are separate slices, not one contiguous
// allocation. Construction fixes the entity and
// scalar-field counts for the object's lifetime.
type State struct {
	Header  Header
	Poses   []PoseRecord
	Scalars []float32 // entityCount * scalarFieldCount, row-major by entity
}

// New allocates a State for entityCount entities and scalarFieldCount
// per-entity scalar fields.
func New(entityCount, scalarFieldCount uint32) *State {
	return &State{
		Header: Header{
			EntityCount:      entityCount,
			ScalarFieldCount: scalarFieldCount,
		},
		Poses:   make([]PoseRecord, entityCount),
		Scalars: make([]float32, uint64(entityCount)*uint64(scalarFieldCount)),
	}
}

// Scalar returns the scalarIdx-th scalar field of entity entityIdx.
func (s *State) Scalar(entityIdx, scalarIdx uint32) float32 {
	return s.Scalars[uint64(entityIdx)*uint64(s.Header.ScalarFieldCount)+uint64(scalarIdx)]
}

// SetScalar writes the scalarIdx-th scalar field of entity entityIdx.
func (s *State) SetScalar(entityIdx, scalarIdx uint32, v float32) {
	s.Scalars[uint64(entityIdx)*uint64(s.Header.ScalarFieldCount)+uint64(scalarIdx)] = v
}

// AdvanceStep bumps the step counter and sets the timestamp to
// tsMicros, merging newFlags into the header's accumulated flags.
func (s *State) AdvanceStep(tsMicros uint64, newFlags ErrorFlags) {
	s.Header.StepCount++
	s.Header.TimestampMicros = tsMicros
	s.Header.Flags |= newFlags
}

// ClearFlags resets the header's accumulated error flags, typically
// called by the host after consuming diagnostics for a step.
func (s *State) ClearFlags() {
	s.Header.Flags = 0
}

// Validate checks the counts recorded in the header against the
// backing slices, returning an error describing the first mismatch
// found.
func (s *State) Validate() error {
	if uint32(len(s.Poses)) != s.Header.EntityCount {
		return fmt.Errorf("kernstate: pose count %d does not match header entity count %d", len(s.Poses), s.Header.EntityCount)
	}
	wantScalars := uint64(s.Header.EntityCount) * uint64(s.Header.ScalarFieldCount)
	if uint64(len(s.Scalars)) != wantScalars {
		return fmt.Errorf("kernstate: scalar slice length %d does not match entity*field count %d", len(s.Scalars), wantScalars)
	}
	return nil
}
