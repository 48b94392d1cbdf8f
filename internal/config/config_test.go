package config

import (
	"path/filepath"
	"testing"

	"github.com/san-kum/chemlab/internal/quench"
	"github.com/san-kum/chemlab/internal/sweep"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Simulation.GridSize != 50 {
		t.Errorf("expected grid size 50, got %d", cfg.Simulation.GridSize)
	}
	if cfg.Sweep.Steps != 500 {
		t.Errorf("expected 500 sweep steps, got %d", cfg.Sweep.Steps)
	}
	if cfg.Sweep.Grid.Size() != 81 {
		t.Errorf("expected 81 grid points, got %d", cfg.Sweep.Grid.Size())
	}
	if err := cfg.Simulation.Validate(); err != nil {
		t.Errorf("default simulation invalid: %v", err)
	}
}

func TestSweepBaseAndStudy(t *testing.T) {
	cfg := DefaultConfig()

	if got := cfg.SweepBase().Steps; got != 500 {
		t.Errorf("expected sweep base with 500 steps, got %d", got)
	}
	if cfg.Simulation.Steps != 600 {
		t.Error("SweepBase must not modify the simulation parameters")
	}

	st := cfg.Study()
	if st.Base.GridSize != 100 {
		t.Errorf("expected study grid 100, got %d", st.Base.GridSize)
	}
	if st.Base.Placement != quench.DensityWeighted {
		t.Errorf("expected density weighted placement, got %s", st.Base.Placement)
	}
	if len(st.Counts()) != 10 {
		t.Errorf("expected 10 O2 counts, got %d", len(st.Counts()))
	}
}

func TestLoadOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chemlab.yaml")

	cfg := DefaultConfig()
	cfg.Simulation.NumO2 = 90
	cfg.Simulation.Placement = quench.DensityWeighted
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Simulation.NumO2 != 90 {
		t.Errorf("expected 90 O2, got %d", loaded.Simulation.NumO2)
	}
	if loaded.Simulation.Placement != quench.DensityWeighted {
		t.Errorf("expected density weighted, got %s", loaded.Simulation.Placement)
	}
	if loaded.Sweep.Grid.Size() != 81 {
		t.Errorf("expected grid to survive the round trip, got %d points", loaded.Sweep.Grid.Size())
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("simulate", "slow_core")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Simulation.DensitySteepness != 1.0 {
		t.Errorf("expected steepness 1.0, got %f", cfg.Simulation.DensitySteepness)
	}
	if cfg.Simulation.NumO2 != 180 {
		t.Errorf("preset should keep defaults, got %d O2", cfg.Simulation.NumO2)
	}
}

func TestGetPresetReturnsCopy(t *testing.T) {
	cfg := GetPreset("sweep", "quick")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	cfg.Simulation.NumO2 = 1
	cfg.Sweep.Grid.Axes[0].Values[0] = -1
	cfg.Sweep.Grid.Axes = append(cfg.Sweep.Grid.Axes[:0], cfg.Sweep.Grid.Axes[1])

	again := GetPreset("sweep", "quick")
	if again.Simulation.NumO2 == 1 {
		t.Error("simulation edit leaked into the preset")
	}
	if len(again.Sweep.Grid.Axes) != 2 || again.Sweep.Grid.Axes[0].Name != sweep.NumO2 {
		t.Errorf("axis edit leaked into the preset: %+v", again.Sweep.Grid.Axes)
	}
	if again.Sweep.Grid.Axes[0].Values[0] != 100 {
		t.Errorf("value edit leaked into the preset: %v", again.Sweep.Grid.Axes[0].Values)
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	cfg := GetPreset("simulate", "nonexistent")
	if cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}

	cfg = GetPreset("nonexistent", "baseline")
	if cfg != nil {
		t.Error("expected nil for nonexistent command")
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets("sweep")
	if len(presets) != 3 || presets[0] != "batch" {
		t.Errorf("expected sorted sweep presets, got %v", presets)
	}

	presets = ListPresets("nonexistent")
	if presets != nil {
		t.Error("expected nil for nonexistent command")
	}
}

func TestPresetsValid(t *testing.T) {
	for command, group := range Presets {
		for name, cfg := range group {
			if err := cfg.Simulation.Validate(); err != nil {
				t.Errorf("%s/%s: %v", command, name, err)
			}
			if err := cfg.Sweep.Grid.Validate(); err != nil {
				t.Errorf("%s/%s: %v", command, name, err)
			}
		}
	}
}
