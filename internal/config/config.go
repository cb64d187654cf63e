// Package config loads the YAML run configuration, following a
// DefaultConfig-then-overlay pattern: build a struct of engine defaults,
// then yaml.Unmarshal the user's file on top so unset fields fall back
// sensibly.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cloudmicro/sdm/internal/sdmerrors"
)

const (
	DefaultBaseTick          = 1.0
	DefaultCondensationSubDt = 0.1
	DefaultCollisionSubDt    = 1.0
	DefaultMotionSubDt       = 1.0
	DefaultEndTick           = 99
	DefaultKernel            = "golovin"
	DefaultBreakupLaw        = "fixed"
	DefaultBreakupFrags      = 2.0
	DefaultBoundaryPolicy    = "periodic"
	DefaultLogLevel          = "info"
	DefaultMetricsAddr       = ":9090"
)

// Config is the top-level run configuration loaded from YAML, following
// the engine's configuration schema.
type Config struct {
	Seed      int64           `yaml:"seed"`
	Timesteps TimestepsConfig `yaml:"timesteps"`

	Physics  PhysicsConfig  `yaml:"physics"`
	Dynamics DynamicsConfig `yaml:"dynamics"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Domain   DomainConfig   `yaml:"domain"`
}

// TimestepsConfig configures the engine's multi-rate scheduler: a base
// tick plus four independent step intervals, each a positive integer
// multiple of that base tick, following the coupl/motion/micro/obs/end
// schedule. A phase with interval 1 runs every base tick; an interval of
// 10 runs it every tenth tick.
type TimestepsConfig struct {
	BaseTick float64 `yaml:"base_tick"`
	Coupl    int64   `yaml:"coupl"`
	Motion   int64   `yaml:"motion"`
	Micro    int64   `yaml:"micro"`
	Obs      int64   `yaml:"obs"`
	End      int64   `yaml:"end"`
}

// PhysicsConfig groups the sub-stepping and process parameters for
// condensation and collisions.
type PhysicsConfig struct {
	Condensation CondensationConfig `yaml:"condensation"`
	Collisions   CollisionsConfig   `yaml:"collisions"`
	Motion       MotionConfig       `yaml:"motion"`
}

type CondensationConfig struct {
	SubDt            float64 `yaml:"sub_dt"`
	TolerateFailures bool    `yaml:"tolerate_failures"`
	MaxIters         int     `yaml:"max_iters"`
	RTol             float64 `yaml:"rtol"`
	ATol             float64 `yaml:"atol"`
}

type CollisionsConfig struct {
	SubDt   float64       `yaml:"sub_dt"`
	Kernel  string        `yaml:"kernel"`
	Breakup BreakupConfig `yaml:"breakup"`
}

type BreakupConfig struct {
	Enabled bool    `yaml:"enabled"`
	Law     string  `yaml:"law"`
	Frags   float64 `yaml:"fragments"`
	Min     float64 `yaml:"rmin"`
	Max     float64 `yaml:"rmax"`
}

type MotionConfig struct {
	SubDt float64 `yaml:"sub_dt"`
}

// DynamicsConfig selects and configures the coupled-dynamics provider.
type DynamicsConfig struct {
	Provider string    `yaml:"provider"` // "null", "fromfile", or "yac"
	FromFile string    `yaml:"from_file"`
	YAC      YACConfig `yaml:"yac"`
}

// YACConfig configures the YAC coupling endpoint, grounded on
// coupldyn_fromfile's one-way external field injection generalised to a
// remote coupler rather than a static file.
type YACConfig struct {
	Endpoint string `yaml:"endpoint"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type MetricsConfig struct {
	ListenAddr string `yaml:"listen_addr"`
	Enabled    bool   `yaml:"enabled"`
}

type DomainConfig struct {
	NumGridboxes  int         `yaml:"num_gridboxes"`
	NumGridboxes1 int         `yaml:"num_gridboxes1"`
	NumGridboxes2 int         `yaml:"num_gridboxes2"`
	GridStep3     float64     `yaml:"gridstep3"`
	GridStep1     float64     `yaml:"gridstep1"`
	GridStep2     float64     `yaml:"gridstep2"`
	Boundary      BoundaryCfg `yaml:"boundary"`
}

type BoundaryCfg struct {
	Coord3 string `yaml:"coord3"`
	Coord1 string `yaml:"coord1"`
	Coord2 string `yaml:"coord2"`
}

// DefaultConfig returns a Config populated with the engine's defaults;
// Load overlays the user's YAML file on top of this.
func DefaultConfig() *Config {
	return &Config{
		Timesteps: TimestepsConfig{
			BaseTick: DefaultBaseTick,
			Coupl:    1, Motion: 1, Micro: 1, Obs: 1,
			End: DefaultEndTick,
		},
		Physics: PhysicsConfig{
			Condensation: CondensationConfig{
				SubDt:    DefaultCondensationSubDt,
				MaxIters: 50,
				RTol:     1e-8,
				ATol:     1e-6,
			},
			Collisions: CollisionsConfig{
				SubDt:  DefaultCollisionSubDt,
				Kernel: DefaultKernel,
				Breakup: BreakupConfig{
					Law:   DefaultBreakupLaw,
					Frags: DefaultBreakupFrags,
				},
			},
			Motion: MotionConfig{SubDt: DefaultMotionSubDt},
		},
		Dynamics: DynamicsConfig{Provider: "null"},
		Logging:  LoggingConfig{Level: DefaultLogLevel},
		Metrics:  MetricsConfig{ListenAddr: DefaultMetricsAddr, Enabled: false},
		Domain: DomainConfig{
			NumGridboxes: 1,
			GridStep3:    100, GridStep1: 100, GridStep2: 100,
			Boundary: BoundaryCfg{Coord3: DefaultBoundaryPolicy, Coord1: DefaultBoundaryPolicy, Coord2: DefaultBoundaryPolicy},
		},
	}
}

// Load reads and parses a YAML config file at path, overlaying it onto
// DefaultConfig(). A missing or malformed file surfaces as a wrapped
// sdmerrors.ErrConfig.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, sdmerrors.Config("reading config file %q: %v", path, err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, sdmerrors.Config("parsing config file %q: %v", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path as YAML.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
