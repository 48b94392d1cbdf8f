package config

import (
	"sort"

	"github.com/san-kum/chemlab/internal/quench"
	"github.com/san-kum/chemlab/internal/sweep"
)

func preset(mutate func(c *Config)) *Config {
	c := DefaultConfig()
	mutate(c)
	return c
}

// Presets are grouped by the command they are meant for.
var Presets = map[string]map[string]*Config{
	"simulate": {
		"baseline": preset(func(c *Config) {}),
		"slow_core": preset(func(c *Config) {
			c.Simulation.DensitySteepness = 1.0
			c.Simulation.O2MoveProbMin = 0.02
		}),
		"sparse_o2": preset(func(c *Config) {
			c.Simulation.NumO2 = 60
		}),
		"ensemble": preset(func(c *Config) {
			c.Runs = 8
		}),
	},
	"sweep": {
		"batch": preset(func(c *Config) {}),
		"quick": preset(func(c *Config) {
			c.Sweep.Steps = 200
			c.Sweep.Grid = sweep.Grid{Axes: []sweep.Axis{
				{Name: sweep.NumO2, Values: []float64{100, 250}},
				{Name: sweep.DensitySteepness, Values: []float64{0.2, 0.5}},
			}}
		}),
		"core_radius": preset(func(c *Config) {
			c.Sweep.Grid = sweep.Grid{Axes: []sweep.Axis{
				{Name: sweep.CoreRadius, Values: []float64{10, 15, 20}},
				{Name: sweep.NumO2, Values: []float64{100, 180, 250}},
			}}
		}),
	},
	"o2-study": {
		"o2_study": preset(func(c *Config) {}),
		"fine": preset(func(c *Config) {
			c.O2Study.Steps = 20
		}),
		"low_density": preset(func(c *Config) {
			c.O2Study.Placement = quench.LowDensity
		}),
	},
}

func GetPreset(command, name string) *Config {
	group, ok := Presets[command]
	if !ok {
		return nil
	}
	cfg, ok := group[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(command string) []string {
	group, ok := Presets[command]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(group))
	for name := range group {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
