package negsim

import "log/slog"

// logStep emits a structured per-step log line when any error flag was
// raised, keyed the way lifecycle.go's hall-of-fame events are: an
// event name plus key/value diagnostic pairs.
func logStep(step uint64, flags uint32, tsMicros uint64) {
	if flags == 0 {
		return
	}
	slog.Warn("sim_step_flags",
		"step", step,
		"timestamp_micros", tsMicros,
		"flags", flags,
	)
}

// logInit records the configuration a simulation started with.
func logInit(nx, ny, nz int, entityCount, scalarFieldCount uint32) {
	slog.Info("sim_init",
		"nx", nx, "ny", ny, "nz", nz,
		"entity_count", entityCount,
		"scalar_field_count", scalarFieldCount,
	)
}
