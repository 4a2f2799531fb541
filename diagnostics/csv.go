// Package diagnostics exposes the core's error-flag/state-view surface
// and a per-step CSV writer for offline analysis.
package diagnostics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/negsim/kernstate"
)

// StepRecord is one CSV row: the per-step diagnostic summary a host
// logs alongside a simulation run.
type StepRecord struct {
	Step            uint64  `csv:"step"`
	TimestampMicros uint64  `csv:"timestamp_us"`
	Flags           uint32  `csv:"flags"`
	Hash            uint64  `csv:"hash"`
	TotalWater      float64 `csv:"total_water"`
	MeanV           float64 `csv:"mean_v"`
	MeanSOM         float64 `csv:"mean_som"`
}

// Writer appends StepRecords to a CSV file, writing the header exactly
// once, mirroring telemetry/output.go's header-then-headerless rolling
// write pattern.
type Writer struct {
	file          *os.File
	headerWritten bool
}

// NewWriter creates (or truncates) the CSV file at path.
func NewWriter(path string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("diagnostics: create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("diagnostics: create %s: %w", path, err)
	}
	return &Writer{file: f}, nil
}

// WriteStep appends one record, writing the CSV header on the first
// call only.
func (w *Writer) WriteStep(rec StepRecord) error {
	records := []StepRecord{rec}
	if !w.headerWritten {
		if err := gocsv.Marshal(records, w.file); err != nil {
			return fmt.Errorf("diagnostics: write step record: %w", err)
		}
		w.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, w.file); err != nil {
		return fmt.Errorf("diagnostics: write step record: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file.
func (w *Writer) Close() error {
	if w == nil || w.file == nil {
		return nil
	}
	return w.file.Close()
}

// SummarizeStep builds a StepRecord from a kernstate.State and a
// precomputed content hash (the authoritative fingerprint kernstate
// computed when it last encoded a snapshot).
func SummarizeStep(s *kernstate.State, hash uint64, totalWater, meanV, meanSOM float64) StepRecord {
	return StepRecord{
		Step:            s.Header.StepCount,
		TimestampMicros: s.Header.TimestampMicros,
		Flags:           uint32(s.Header.Flags),
		Hash:            hash,
		TotalWater:      totalWater,
		MeanV:           meanV,
		MeanSOM:         meanSOM,
	}
}
