// Package negsim is the simulation handle: it owns the grid, the slab
// pools, the shared LUTs, and the canonical state block, and drives
// the fixed per-step order (torsion -> integration ->
// hydrology -> regeneration).
package negsim

import (
	"fmt"

	"github.com/pthm-cable/negsim/atmosphere"
	"github.com/pthm-cable/negsim/config"
	"github.com/pthm-cable/negsim/grid"
	"github.com/pthm-cable/negsim/hydrology"
	"github.com/pthm-cable/negsim/integrator"
	"github.com/pthm-cable/negsim/kernstate"
	"github.com/pthm-cable/negsim/microbial"
	"github.com/pthm-cable/negsim/regen"
	"github.com/pthm-cable/negsim/slab"
	"github.com/pthm-cable/negsim/torsion"
)

// regenIntervalSteps is the default "every N hydrology steps" cadence.
const regenIntervalSteps = 128

// Simulation is the kernel handle a host drives one Step at a time. It
// owns everything the hot path touches: grid storage, slab pools, the
// Clebsch LUT, soil tables, and the canonical state block.
type Simulation struct {
	cfg *config.Config

	grid *grid.Grid

	integratorPool *slab.Pool
	integratorWs   [slab.IntegratorPoolCapacity]*integrator.Workspace
	clebschLUT     *integrator.ClebschLUT
	clebschPool    *slab.ClebschPool

	torsionField *torsion.VorticityField
	torsionCfg   torsion.Config
	soilTables   *hydrology.Tables
	soil         hydrology.SoilParams
	columns      []*hydrology.Column // flat-indexed, one per surface cell
	rainfallFlux float64             // top-boundary flux, m/s, positive downward
	regenParams  regen.Params
	microParams  microbial.Params
	esTable      *atmosphere.EsTable

	state *kernstate.State

	stepCount    uint64
	hydroSteps   uint64
	lastTsMicros uint64
}

func (s *Simulation) columnIndex(i, j int) int {
	return j*s.cfg.Grid.NX + i
}

// SetRainfall sets the uniform top-boundary rainfall flux (m/s,
// positive downward) applied to every column's vertical pass.
func (s *Simulation) SetRainfall(fluxMetersPerSecond float64) {
	s.rainfallFlux = fluxMetersPerSecond
}

// New builds a Simulation from a loaded configuration.
func New(cfg *config.Config) (*Simulation, error) {
	if cfg.Grid.NX <= 0 || cfg.Grid.NY <= 0 {
		return nil, fmt.Errorf("negsim: grid dims must be positive, got nx=%d ny=%d", cfg.Grid.NX, cfg.Grid.NY)
	}

	g := grid.New(grid.Options{
		Nx: cfg.Grid.NX, Ny: cfg.Grid.NY, Nz: cfg.Grid.NZ,
		Dx: 1, Dy: 1, Dz: 1,
		MemoryBudgetBytes: int(cfg.Slab.SparseByteBudget),
	})

	integratorPool := slab.NewIntegratorPool()
	var integratorWs [slab.IntegratorPoolCapacity]*integrator.Workspace
	for i := range integratorWs {
		integratorWs[i] = integrator.NewWorkspace()
	}

	clebschLUT := integrator.NewClebschLUT()
	clebschPool := slab.NewClebschPool(clebschLUT)

	regenParams := regen.Params{
		RV: cfg.Regen.RV, KV: cfg.Regen.KV,
		Lambda1: cfg.Regen.Lambda1, Lambda2: cfg.Regen.Lambda2,
		ThetaStar: cfg.Regen.ThetaStar, SOMStar: cfg.Regen.SOMStar,
		A1: cfg.Regen.A1, A2: cfg.Regen.A2,
		Eta1: cfg.Regen.Eta1, KMult: cfg.Regen.KMult,
		REGv2: cfg.Regen.REGv2,
	}
	if err := regenParams.Validate(); err != nil {
		return nil, fmt.Errorf("negsim: invalid regeneration parameters: %w", err)
	}

	microParams := microbial.Params{
		PMax: cfg.Microbial.PMax, KC: cfg.Microbial.KC, KTheta: cfg.Microbial.KTheta,
		AlphaT: cfg.Microbial.AlphaT, T0: cfg.Microbial.T0,
		BetaN: cfg.Microbial.BetaN, BetaPhi: cfg.Microbial.BetaPhi,
		RBase: cfg.Microbial.RBase, Q10: cfg.Microbial.Q10, KThetaR: cfg.Microbial.KThetaR,
		MAgg: cfg.Microbial.MAgg, Gamma: cfg.Microbial.Gamma, PhiC: cfg.Microbial.PhiC,
		AlphaMyco: cfg.Microbial.AlphaMyco, CThr: cfg.Microbial.CThr,
		ThetaRep: cfg.Microbial.ThetaRep, Eta: cfg.Microbial.Eta,
		RhoW: cfg.Microbial.RhoW, Lambda: cfg.Microbial.Lambda, RHSat: cfg.Microbial.RHSat,
		BetaVeg: cfg.Microbial.BetaVeg, BetaRock: cfg.Microbial.BetaRock,
		CondBonus: cfg.Microbial.CondBonus,
		DeltaMin: cfg.Microbial.DeltaMin, DeltaMax: cfg.Microbial.DeltaMax,
		KRoot: cfg.Microbial.KRoot,
	}

	soil := hydrology.SoilParams{
		Ks: 2.8e-6, Alpha: 1.4, N: 1.5, ThetaS: 0.43, ThetaR: 0.05, PsiMin: -20,
	}
	soilTables := hydrology.NewTables(soil)

	s := &Simulation{
		cfg:            cfg,
		grid:           g,
		integratorPool: integratorPool,
		integratorWs:   integratorWs,
		clebschLUT:     clebschLUT,
		clebschPool:    clebschPool,
		torsionField:   torsion.NewVorticityField(cfg.Grid.NX, cfg.Grid.NY),
		torsionCfg:     torsion.DefaultConfig(),
		soilTables:     soilTables,
		soil:           soil,
		regenParams:    regenParams,
		microParams:    microParams,
		esTable:        atmosphere.NewEsTable(),
		state:          kernstate.New(cfg.Grid.EntityCount, cfg.Grid.ScalarFieldCount),
	}

	s.columns = make([]*hydrology.Column, cfg.Grid.NX*cfg.Grid.NY)
	g.ForEach(func(i, j int, c *grid.Cell) {
		initTheta := float64(c.Theta)
		if initTheta <= 0 {
			initTheta = float64(soil.ThetaR)
		}
		s.columns[s.columnIndex(i, j)] = hydrology.NewColumn(cfg.Grid.NZ, float64(c.Dz), soil, soilTables, initTheta)
	})

	logInit(cfg.Grid.NX, cfg.Grid.NY, cfg.Grid.NZ, cfg.Grid.EntityCount, cfg.Grid.ScalarFieldCount)
	return s, nil
}

// Grid exposes the underlying grid for host-side seeding/inspection.
func (s *Simulation) Grid() *grid.Grid {
	return s.grid
}

// State returns the canonical state block (read-only to callers).
func (s *Simulation) State() *kernstate.State {
	return s.state
}

// claimWorkspace claims a slab token and pairs it with the
// same-indexed integrator workspace, retrying while the pool has
// capacity available. Returns nil, nil on exhaustion (non-fatal).
func (s *Simulation) claimWorkspace() (*slab.Workspace, *integrator.Workspace) {
	tok := s.integratorPool.Claim()
	if tok == nil {
		return nil, nil
	}
	return tok, s.integratorWs[tok.Slot()]
}

// Step advances the simulation by dt seconds, in the fixed order
// torsion -> integration -> hydrology -> (regeneration), and returns
// the merged error flags observed this step.
func (s *Simulation) Step(dt float64, tsMicros uint64) kernstate.ErrorFlags {
	var flags kernstate.ErrorFlags

	s.stepTorsion()
	flags |= s.stepIntegration(dt)
	if s.cfg.Grid.EnableHydrology {
		flags |= s.stepHydrology(dt)
	}
	if s.cfg.Grid.EnableRegen {
		s.hydroSteps++
		if s.hydroSteps%regenIntervalSteps == 0 {
			s.stepRegeneration(dt)
		}
	}

	s.state.AdvanceStep(tsMicros, flags)
	s.stepCount++
	s.lastTsMicros = tsMicros
	logStep(s.stepCount, uint32(flags), tsMicros)
	return flags
}

func (s *Simulation) stepTorsion() {
	if !s.torsionCfg.MomentumCouplingEnabled && !s.torsionCfg.CloudCouplingEnabled {
		return
	}
	torsion.Compute(s.torsionField, func(i, j int) (float32, float32) {
		c := s.grid.GetCell(i, j)
		if c == nil {
			return 0, 0
		}
		return c.MomU, c.MomV
	}, 1, 1)

	s.grid.ForEach(func(i, j int, c *grid.Cell) {
		omega := s.torsionField.Magnitude(i, j)
		torsion.ApplyTendency(c, omega, 1.0/60, s.torsionCfg)
	})
}

func (s *Simulation) stepIntegration(dt float64) kernstate.ErrorFlags {
	var flags kernstate.ErrorFlags
	tok, ws := s.claimWorkspace()
	if tok == nil {
		return kernstate.FlagMemoryBudget
	}
	defer s.integratorPool.Release(tok)

	opts := integrator.StepOptions{LUT: s.clebschLUT}
	s.grid.ForEach(func(i, j int, c *grid.Cell) {
		if !c.Active {
			return
		}
		status := integrator.DispatchCell(c, ws, dt, opts)
		switch status {
		case integrator.StatusDiverged, integrator.StatusInvalidParams:
			flags |= kernstate.FlagNaNInf
		case integrator.StatusUnstable:
			flags |= kernstate.FlagSO3Drift
		case integrator.StatusFallback:
			flags |= kernstate.FlagConvergenceFailed
		}
	})
	return flags
}

// evaporationRefRate is the reference bare-soil evaporation demand fed
// into the evaporation sink each hydrology step.
const evaporationRefRate = 3.0e-8 // m/s

func (s *Simulation) stepHydrology(dt float64) kernstate.ErrorFlags {
	var flags kernstate.ErrorFlags
	s.grid.ForEach(func(i, j int, c *grid.Cell) {
		hydrology.ApplyIntervention(c)
		hydrology.SurfaceUpdate(c)

		col := s.columns[s.columnIndex(i, j)]
		_, converged := hydrology.VerticalImplicitPass(col, hydrology.VerticalConfig{
			Dt:            dt,
			RainfallFlux:  s.rainfallFlux,
			MKzz:          float64(c.MKzz),
			KTensorZZ:     float64(c.KTensor[8]),
			PicardTol:     1e-6,
			PicardMaxIter: 20,
		}, float64(c.PorosityEff))
		if !converged {
			flags |= kernstate.FlagConvergenceFailed
		}
		c.Theta = float32(col.Theta[0])
		c.Psi = float32(col.Psi[0])

		var neighbors [4]*grid.Cell
		neighbors[0] = s.grid.GetCell(i+1, j)
		neighbors[1] = s.grid.GetCell(i-1, j)
		neighbors[2] = s.grid.GetCell(i, j+1)
		neighbors[3] = s.grid.GetCell(i, j-1)
		hydrology.HorizontalExplicitPass(c, neighbors, float64(s.soilTables.KOfTheta(float64(c.Theta))), hydrology.HorizontalConfig{
			Dt: dt, Dx: float64(c.Dx), CFLFactor: 0.5,
		})

		hydrology.EvaporationSink(c, col, evaporationRefRate, dt)

		if violations := c.CheckInvariants(); len(violations) > 0 {
			flags |= kernstate.FlagMassViolation
		}
	})
	return flags
}

func (s *Simulation) stepRegeneration(dtYears float64) {
	s.grid.ForEach(func(i, j int, c *grid.Cell) {
		var rates regen.MicrobialRates
		if s.regenParams.REGv2 {
			fb := float64(c.FBRatio)
			rates.PMicro = microbial.PMicro(s.microParams, fb, float64(c.LabileC), float64(c.Theta), float64(c.SoilTemp), float64(c.NFixation), float64(c.PhiAgg))
			rates.DResp = microbial.DResp(s.microParams, float64(c.Theta), float64(c.SoilTemp), float64(c.O2))
		}
		regen.Step(c, float64(c.Theta), s.regenParams, dtYears, rates)
	})
}
