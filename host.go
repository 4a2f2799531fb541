package negsim

import (
	"fmt"

	"github.com/pthm-cable/negsim/config"
	"github.com/pthm-cable/negsim/kernstate"
)

// NewFromConfigPath loads configuration from path (embedded defaults if
// path is empty) and builds a Simulation from it, the entry point a
// host (CLI, test harness, embedding service) calls at startup.
func NewFromConfigPath(path string) (*Simulation, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("negsim: loading configuration: %w", err)
	}
	return New(cfg)
}

// Snapshot encodes the simulation's current canonical state into the
// binary wire format.
func (s *Simulation) Snapshot() ([]byte, error) {
	return kernstate.Encode(s.state)
}

// Restore replaces the simulation's canonical state with a previously
// encoded snapshot, rejecting it on magic/version/hash mismatch. The
// grid and parameter records are left untouched: a restored state must
// have been produced by a simulation with the same configuration.
func (s *Simulation) Restore(buf []byte) error {
	st, err := kernstate.Decode(buf)
	if err != nil {
		return fmt.Errorf("negsim: restoring snapshot: %w", err)
	}
	s.state = st
	return nil
}

// StepCount returns the number of steps advanced so far.
func (s *Simulation) StepCount() uint64 {
	return s.stepCount
}
