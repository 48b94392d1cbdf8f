package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/chemlab/internal/quench"
	"github.com/san-kum/chemlab/internal/sweep"
)

const (
	DefaultSweepSteps = 500
	DefaultDataDir    = "runs"
	DefaultRuns       = 1
)

type Config struct {
	Simulation quench.Params `yaml:"simulation"`
	Sweep      SweepConfig   `yaml:"sweep"`
	O2Study    O2Config      `yaml:"o2_study"`
	Runs       int           `yaml:"runs"`
	Workers    int           `yaml:"workers"`
	DataDir    string        `yaml:"data_dir"`
}

// SweepConfig overrides the step count of the base simulation for every
// grid point.
type SweepConfig struct {
	Steps int        `yaml:"steps"`
	Grid  sweep.Grid `yaml:"grid"`
}

type O2Config struct {
	GridSize  int              `yaml:"grid_size"`
	MinO2     int              `yaml:"min_o2"`
	MaxO2     int              `yaml:"max_o2"`
	Steps     int              `yaml:"o2_steps"`
	Placement quench.Placement `yaml:"placement"`
}

func DefaultConfig() *Config {
	st := sweep.DefaultO2Study()
	return &Config{
		Simulation: quench.DefaultParams(),
		Sweep: SweepConfig{
			Steps: DefaultSweepSteps,
			Grid:  sweep.DefaultGrid(),
		},
		O2Study: O2Config{
			GridSize:  st.Base.GridSize,
			MinO2:     st.MinO2,
			MaxO2:     st.MaxO2,
			Steps:     st.Steps,
			Placement: st.Base.Placement,
		},
		Runs:    DefaultRuns,
		DataDir: DefaultDataDir,
	}
}

// Clone returns a copy that shares no slices with c.
func (c *Config) Clone() *Config {
	out := *c
	out.Sweep.Grid = c.Sweep.Grid.Clone()
	return &out
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// SweepBase is the simulation used at every sweep grid point.
func (c *Config) SweepBase() quench.Params {
	p := c.Simulation
	if c.Sweep.Steps > 0 {
		p.Steps = c.Sweep.Steps
	}
	return p
}

// Study assembles the O2 study from the simulation parameters and the
// study overrides.
func (c *Config) Study() sweep.O2Study {
	base := c.Simulation
	if c.O2Study.GridSize > 0 {
		base.GridSize = c.O2Study.GridSize
	}
	base.Placement = c.O2Study.Placement
	return sweep.O2Study{
		Base:  base,
		MinO2: c.O2Study.MinO2,
		MaxO2: c.O2Study.MaxO2,
		Steps: c.O2Study.Steps,
	}
}
