// Package config provides configuration loading and access for the
// simulation kernel: the host-parsed configuration record, plus the
// regeneration/microbial/intervention/barrier parameter records it
// hands to the core.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// PrecisionMode selects the numeric representation used for cell state.
type PrecisionMode string

const (
	Precision16    PrecisionMode = "16"
	Precision32    PrecisionMode = "32"
	Precision64    PrecisionMode = "64"
	PrecisionFixed PrecisionMode = "fixed"
)

// IntegratorType names the default integrator dispatch selects before
// LoD/error escalation.
type IntegratorType string

const (
	IntegratorRK4             IntegratorType = "rk4"
	IntegratorRKMK4           IntegratorType = "rkmk4"
	IntegratorClebsch         IntegratorType = "clebsch"
	IntegratorExplicitEuler   IntegratorType = "explicit_euler"
	IntegratorSymplecticPRK   IntegratorType = "symplectic_prk"
)

// Config holds the complete simulation configuration: the host
// configuration record plus every parameter record the core consumes.
type Config struct {
	Grid         GridConfig         `yaml:"grid"`
	Slab         SlabConfig         `yaml:"slab"`
	Regen        RegenParams        `yaml:"regen"`
	Microbial    MicrobialParams    `yaml:"microbial"`
	Intervention InterventionParams `yaml:"intervention"`
	Barrier      BarrierConsts      `yaml:"barrier"`
	Atmosphere   AtmosphereParams   `yaml:"atmosphere"`

	// Derived values computed after loading.
	Derived DerivedConfig `yaml:"-"`
}

// GridConfig is the host-provided configuration record: entity count,
// scalar-field count, grid dims, default dt, precision mode,
// integrator type, solver-enable flags.
type GridConfig struct {
	EntityCount      uint32         `yaml:"entity_count"`
	ScalarFieldCount uint32         `yaml:"scalar_field_count"`
	NX               int            `yaml:"nx"`
	NY               int            `yaml:"ny"`
	NZ               int            `yaml:"nz"`
	DefaultDt        float64        `yaml:"default_dt"`
	Precision        PrecisionMode  `yaml:"precision"`
	Integrator       IntegratorType `yaml:"integrator"`

	EnableHydrology  bool `yaml:"enable_hydrology"`
	EnableRegen      bool `yaml:"enable_regen"`
	EnableMicrobial  bool `yaml:"enable_microbial"`
	EnableAtmosphere bool `yaml:"enable_atmosphere"`
}

// SlabConfig sizes the zero-malloc workspace pools.
type SlabConfig struct {
	IntegratorPoolCapacity int `yaml:"integrator_pool_capacity"`
	ClebschPoolCapacity    int `yaml:"clebsch_pool_capacity"`
	SparseByteBudget       int64 `yaml:"sparse_byte_budget"`
}

// RegenParams mirrors regen.Params, loaded from a keyed source.
type RegenParams struct {
	RV        float64 `yaml:"r_v"`
	KV        float64 `yaml:"k_v"`
	Lambda1   float64 `yaml:"lambda1"`
	Lambda2   float64 `yaml:"lambda2"`
	ThetaStar float64 `yaml:"theta_star"`
	SOMStar   float64 `yaml:"som_star"`
	A1        float64 `yaml:"a1"`
	A2        float64 `yaml:"a2"`
	Eta1      float64 `yaml:"eta1"`
	KMult     float64 `yaml:"k_mult"`
	REGv2     bool    `yaml:"regv2"`
}

// MicrobialParams mirrors microbial.Params plus the 8-entry F:B table
// override.
type MicrobialParams struct {
	PMax    float64 `yaml:"p_max"`
	KC      float64 `yaml:"k_c"`
	KTheta  float64 `yaml:"k_theta"`
	AlphaT  float64 `yaml:"alpha_t"`
	T0      float64 `yaml:"t0"`
	BetaN   float64 `yaml:"beta_n"`
	BetaPhi float64 `yaml:"beta_phi"`

	RBase   float64 `yaml:"r_base"`
	Q10     float64 `yaml:"q10"`
	KThetaR float64 `yaml:"k_theta_r"`

	MAgg      float64 `yaml:"m_agg"`
	Gamma     float64 `yaml:"gamma"`
	PhiC      float64 `yaml:"phi_c"`
	AlphaMyco float64 `yaml:"alpha_myco"`
	CThr      float64 `yaml:"c_thr"`
	ThetaRep  float64 `yaml:"theta_rep"`
	Eta       float64 `yaml:"eta"`

	RhoW      float64 `yaml:"rho_w"`
	Lambda    float64 `yaml:"lambda"`
	RHSat     float64 `yaml:"rh_sat"`
	BetaVeg   float64 `yaml:"beta_veg"`
	BetaRock  float64 `yaml:"beta_rock"`
	CondBonus float64 `yaml:"cond_bonus"`

	DeltaMin float64 `yaml:"delta_min"`
	DeltaMax float64 `yaml:"delta_max"`

	KRoot float64 `yaml:"k_root"`

	// FBTable overrides the 8-entry fungal:bacterial anchor table,
	// {FB, P} pairs in ascending FB order.
	FBTable []FBAnchor `yaml:"fb_table"`
}

// FBAnchor is one {FB, P} entry of the fungal:bacterial lookup table.
type FBAnchor struct {
	FB float64 `yaml:"fb"`
	P  float64 `yaml:"p"`
}

// InterventionParams names the regenerative-earthworks ranges
// so hosts can retune them without a code change.
type InterventionParams struct {
	MulchGravelMKzz   [2]float64 `yaml:"mulch_gravel_mkzz"`
	MulchGravelKappaE [2]float64 `yaml:"mulch_gravel_kappa_e"`
	MulchGravelDZeta  [2]float64 `yaml:"mulch_gravel_dzeta"`
	SwaleMKzz         [2]float64 `yaml:"swale_mkzz"`
	SwaleMKxx         [2]float64 `yaml:"swale_mkxx"`
	BermDZeta         [2]float64 `yaml:"berm_dzeta"`
	BiocrustMKzz      [2]float64 `yaml:"biocrust_mkzz"`
	BiocrustDZeta     [2]float64 `yaml:"biocrust_dzeta"`
}

// BarrierConsts mirrors barrier.Constants in float form for YAML
// loading; the host converts to fixedpoint.Q16 at init.
type BarrierConsts struct {
	Kappa float64 `yaml:"kappa"`
	Eps   float64 `yaml:"eps"`
}

// AtmosphereParams parameterizes the biotic-pump solver.
type AtmosphereParams struct {
	RT       float64 `yaml:"r_t"`
	RH0      float64 `yaml:"rh0"`
	KE       float64 `yaml:"k_e"`
	HC       float64 `yaml:"hc"`
	HGamma   float64 `yaml:"h_gamma"`
	Coriolis float64 `yaml:"coriolis"`
	Cd       float64 `yaml:"cd"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	CellCount int // NX*NY*NZ
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded
// defaults if path is empty. Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded
// defaults. If path is empty, only embedded defaults are used. Missing
// values use defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()
	return cfg, nil
}

// WriteYAML saves the configuration to path, recording the exact
// parameter set a run used.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) computeDerived() {
	c.Derived.CellCount = c.Grid.NX * c.Grid.NY * c.Grid.NZ
}
