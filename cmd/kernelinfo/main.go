// kernelinfo loads a configuration, verifies the fixed-point lookup
// tables against their closed-form definitions, and prints a summary
// of the resulting kernel setup.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/pthm-cable/negsim/config"
	"github.com/pthm-cable/negsim/fixedpoint"
)

func main() {
	configPath := flag.String("config", "", "Configuration YAML file (empty = embedded defaults)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	fmt.Println("Grid")
	fmt.Printf("  dims: %dx%dx%d (cells: %d)\n", cfg.Grid.NX, cfg.Grid.NY, cfg.Grid.NZ, cfg.Derived.CellCount)
	fmt.Printf("  entity_count: %d  scalar_field_count: %d\n", cfg.Grid.EntityCount, cfg.Grid.ScalarFieldCount)
	fmt.Printf("  default_dt: %g  precision: %s  integrator: %s\n", cfg.Grid.DefaultDt, cfg.Grid.Precision, cfg.Grid.Integrator)
	fmt.Printf("  enabled: hydrology=%v regen=%v microbial=%v atmosphere=%v\n",
		cfg.Grid.EnableHydrology, cfg.Grid.EnableRegen, cfg.Grid.EnableMicrobial, cfg.Grid.EnableAtmosphere)

	fmt.Println("\nSlab pools")
	fmt.Printf("  integrator_pool_capacity: %d  clebsch_pool_capacity: %d  sparse_byte_budget: %d\n",
		cfg.Slab.IntegratorPoolCapacity, cfg.Slab.ClebschPoolCapacity, cfg.Slab.SparseByteBudget)

	fmt.Println("\nLookup table verification")
	tables := fixedpoint.NewTables()
	for _, report := range tables.VerifyTables() {
		fmt.Printf("  %-12s max_rel_error=%.2e at x=%.4f (n=%d samples)\n",
			report.Name, report.MaxRelError, report.SampleX, report.SampleCount)
	}

	fmt.Println("\nFungal:bacterial anchors")
	for _, a := range cfg.Microbial.FBTable {
		fmt.Printf("  F:B=%.2f -> P=%.2f\n", a.FB, a.P)
	}
}
