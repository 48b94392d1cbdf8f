package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/chemlab/internal/quench"
	"github.com/san-kum/chemlab/internal/sweep"
)

func TestParseAxes(t *testing.T) {
	g, err := parseAxes([]string{"NUM_O2=100, 200", "DENSITY_STEEPNESS=0.2,0.5,0.8"})
	require.NoError(t, err)
	assert.Equal(t, []string{sweep.NumO2, sweep.DensitySteepness}, g.Names())
	assert.Equal(t, 6, g.Size())

	_, err = parseAxes([]string{"NUM_O2"})
	assert.Error(t, err)
	_, err = parseAxes([]string{"NUM_O2=ten"})
	assert.Error(t, err)
	_, err = parseAxes([]string{"NOT_AN_AXIS=1"})
	assert.Error(t, err)
}

func TestApplyParamFlags(t *testing.T) {
	cmd := simulateCmd()
	require.NoError(t, cmd.Flags().Set("o2", "50"))
	require.NoError(t, cmd.Flags().Set("placement", "density_weighted"))
	require.NoError(t, cmd.Flags().Set("set", "density_steepness=0.7"))
	require.NoError(t, cmd.Flags().Set("set", "excitation_prob=0.5"))

	p := quench.DefaultParams()
	require.NoError(t, applyParamFlags(cmd, &p))
	assert.Equal(t, 50, p.NumO2)
	assert.Equal(t, quench.DensityWeighted, p.Placement)
	assert.Equal(t, 0.7, p.DensitySteepness)
	assert.Equal(t, 0.5, p.ExcitationProb)
	assert.Equal(t, quench.DefaultParams().Steps, p.Steps, "unchanged flags keep the config value")
}

func TestApplyParamFlagsRejects(t *testing.T) {
	tests := []struct {
		name, flag, value string
	}{
		{"malformed override", "set", "steps"},
		{"unknown key", "set", "nope=1"},
		{"invalid value", "set", "excitation_prob=2"},
		{"placement", "placement", "everywhere"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := simulateCmd()
			require.NoError(t, cmd.Flags().Set(tt.flag, tt.value))
			p := quench.DefaultParams()
			assert.Error(t, applyParamFlags(cmd, &p))
		})
	}
}

func TestResolveConfigPreset(t *testing.T) {
	cmd := simulateCmd()
	require.NoError(t, cmd.Flags().Set("preset", "sparse_o2"))
	cfg, err := resolveConfig(cmd, "simulate")
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.Simulation.NumO2)

	cmd = simulateCmd()
	require.NoError(t, cmd.Flags().Set("preset", "missing"))
	_, err = resolveConfig(cmd, "simulate")
	assert.Error(t, err)
}

func TestResolveConfigFileOverridesPreset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chemlab.yaml")
	require.NoError(t, os.WriteFile(path, []byte("simulation:\n  num_o2: 42\nruns: 3\nworkers: 2\n"), 0644))

	cmd := simulateCmd()
	require.NoError(t, cmd.Flags().Set("preset", "sparse_o2"))
	require.NoError(t, cmd.Flags().Set("config", path))
	require.NoError(t, cmd.Flags().Set("workers", "4"))
	cfg, err := resolveConfig(cmd, "simulate")
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.Simulation.NumO2)
	assert.Equal(t, 3, cfg.Runs)
	assert.Equal(t, 4, cfg.Workers)
}

func TestExpandScans(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.asc", "a.asc", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}
	single := filepath.Join(dir, "notes.txt")

	paths, err := expandScans([]string{dir, single})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.asc"), filepath.Join(dir, "b.asc"), single}, paths)

	_, err = expandScans([]string{t.TempDir()})
	assert.Error(t, err)
	_, err = expandScans([]string{filepath.Join(dir, "missing.asc")})
	assert.Error(t, err)
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, [][]string{{"1", "0.5"}}, formatRows([][]float64{{1, 0.5}}))
	assert.Equal(t, "-", metric(map[string]float64{}, "qy_ru1"))
	assert.Equal(t, "0.2500", metric(map[string]float64{"qy_ru1": 0.25}, "qy_ru1"))
	assert.Equal(t, []string{"a", "b"}, sortedKeys(map[string]int{"b": 1, "a": 2}))
	assert.InDelta(t, 25.0, percent(1, 4), 1e-12)
	assert.Equal(t, 0.0, percent(1, 0))
}
