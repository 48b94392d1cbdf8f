package quench

import (
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultParamsValid(t *testing.T) {
	require.NoError(t, DefaultParams().Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Params)
	}{
		{"grid", func(p *Params) { p.GridSize = 1 }},
		{"core radius", func(p *Params) { p.CoreRadius = 0 }},
		{"negative count", func(p *Params) { p.NumO2 = -1 }},
		{"lifetime", func(p *Params) { p.ExcitedLifetime = 0 }},
		{"move probabilities inverted", func(p *Params) { p.O2MoveProbMin, p.O2MoveProbMax = 0.9, 0.1 }},
		{"excitation probability", func(p *Params) { p.ExcitationProb = 1.5 }},
		{"placement", func(p *Params) { p.Placement = Placement(9) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			assert.Equal(t, ErrInvalidParams, errors.Cause(p.Validate()))
		})
	}
}

func TestSetRoundsIntegers(t *testing.T) {
	p := DefaultParams()
	require.NoError(t, p.Set("num_o2", 99.6))
	require.NoError(t, p.Set("density_steepness", 0.45))
	assert.Equal(t, 100, p.NumO2)
	assert.Equal(t, 0.45, p.DensitySteepness)

	err := p.Set("nope", 1)
	assert.Equal(t, ErrInvalidParams, errors.Cause(err))
}

func TestFieldsCoverParamKeys(t *testing.T) {
	p := DefaultParams()
	for _, k := range ParamKeys() {
		v := p.Fields()[k]
		require.NoError(t, p.Set(k, v), k)
	}
	assert.Equal(t, DefaultParams(), p)
}

func TestPlacementText(t *testing.T) {
	for _, s := range []string{"density_weighted", "Density-Weighted", "weighted"} {
		pl, err := ParsePlacement(s)
		require.NoError(t, err)
		assert.Equal(t, DensityWeighted, pl)
	}
	_, err := ParsePlacement("random")
	assert.Error(t, err)

	p := DefaultParams()
	p.Placement = DensityWeighted
	out, err := yaml.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(out), "placement: density_weighted")

	var back Params
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.Equal(t, p, back)

	js, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(js), `"placement":"density_weighted"`)
}

func TestDensityAndMoveProbability(t *testing.T) {
	p := DefaultParams()
	cx, cy := p.Center()

	assert.InDelta(t, 0.5, p.Density(cx+p.CoreRadius, cy), 1e-12)
	assert.Greater(t, p.Density(cx, cy), 0.98)
	assert.Less(t, p.Density(0, 0), 0.01)

	p.DensitySteepness = 1e6
	assert.Less(t, p.Density(0, 0), 1e-300)
	assert.Equal(t, 1.0, p.Density(cx, cy))

	p = DefaultParams()
	assert.Equal(t, p.O2MoveProbMax, p.MoveProbability(0))
	assert.Equal(t, p.O2MoveProbMin, p.MoveProbability(1))
	assert.InDelta(t, 0.54, p.MoveProbability(0.5), 1e-12)
}

func TestShellBoundary(t *testing.T) {
	p := DefaultParams()
	cx, cy := p.Center()
	assert.False(t, p.inCore(cx+p.CoreRadius, cy))
	assert.True(t, p.inShell(cx+p.CoreRadius, cy))
	assert.False(t, p.inShell(cx+p.CoreRadius+p.SurfaceThickness, cy))
	assert.True(t, p.inCore(cx, cy))
}

func TestQuencherMoveClamps(t *testing.T) {
	q := &Quencher{X: 0, Y: 5}
	q.moveBy(-1, 1, 49)
	assert.Equal(t, 0.0, q.X)
	assert.Equal(t, 6.0, q.Y)
	assert.Equal(t, 1.0, q.PathLength)

	q.moveBy(1, 1, 49)
	assert.InDelta(t, 1+1.4142135623730951, q.PathLength, 1e-12)
	assert.InDelta(t, q.PathLength/4, q.MeanSpeed(4), 1e-12)
}

func TestComplexLifecycle(t *testing.T) {
	c := &Complex{}
	c.excite(3)
	assert.False(t, c.relax(3))
	c.quench(1.2, 3)
	assert.Equal(t, []int{1}, c.Durations)
	assert.False(t, c.relax(3), "ground state does not emit")

	c.excite(3)
	c.relax(3)
	c.relax(3)
	assert.True(t, c.relax(3))
	assert.Equal(t, []int{1, 3}, c.Durations)
	assert.Equal(t, 0.5, c.QY())
	assert.Equal(t, 2.0, c.MeanDuration())
	assert.Equal(t, 2, c.Excited)
}

func TestQuantumYield(t *testing.T) {
	assert.Equal(t, 0.0, QuantumYield(0, 0))
	assert.Equal(t, 0.25, QuantumYield(1, 3))
	assert.Equal(t, 1.0, QuantumYield(4, 0))
}

func TestCellIndexMatchesScan(t *testing.T) {
	qs := []*Quencher{{X: 10, Y: 10}, {X: 11, Y: 10}, {X: 10.5, Y: 10.2}, {X: 30, Y: 30}}
	ix := newCellIndex(50, 1.8)
	ix.rebuild(qs)

	i, d2 := ix.nearest(qs, 10.9, 10, 1.8*1.8)
	assert.Equal(t, 0, i)
	assert.InDelta(t, 0.81, d2, 1e-12)

	i, _ = ix.nearest(qs, 12.5, 10, 1.8*1.8)
	assert.Equal(t, 1, i)

	i, _ = ix.nearest(qs, 20, 20, 1.8*1.8)
	assert.Equal(t, -1, i)
}

func TestHistogram(t *testing.T) {
	qs := []*Quencher{{X: 0, Y: 0}, {X: 49, Y: 49}, {X: 50, Y: 0}, {X: 12, Y: 27}}
	h := Histogram(qs, 50, 10)
	require.Len(t, h, 10)
	assert.Equal(t, 1, h[0][0])
	assert.Equal(t, 1, h[9][9])
	assert.Equal(t, 1, h[0][9])
	assert.Equal(t, 1, h[5][2])

	assert.NotPanics(t, func() { assert.Nil(t, Histogram(qs, 50, -1)) })
	assert.Nil(t, Histogram(qs, 50, 0))
	assert.Len(t, Histogram(qs, 0, 4), 4)
}

func TestStepErrorUnwrap(t *testing.T) {
	err := &StepError{Step: 4, Err: ErrPlacement}
	assert.ErrorIs(t, err, ErrPlacement)
	assert.Contains(t, err.Error(), "tick 4")
}
