package sweep

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/chemlab/internal/quench"
)

func TestGridPoints(t *testing.T) {
	g := Grid{Axes: []Axis{
		{Name: NumO2, Values: []float64{100, 200}},
		{Name: ExcitedLifetime, Values: []float64{20, 30, 40}},
	}}
	require.NoError(t, g.Validate())
	assert.Equal(t, 6, g.Size())

	pts := g.Points()
	require.Len(t, pts, 6)
	assert.Equal(t, []float64{100, 20}, pts[0])
	assert.Equal(t, []float64{100, 40}, pts[2])
	assert.Equal(t, []float64{200, 20}, pts[3])

	p, err := g.Apply(quench.DefaultParams(), pts[4])
	require.NoError(t, err)
	assert.Equal(t, 200, p.NumO2)
	assert.Equal(t, 30, p.ExcitedLifetime)

	assert.Equal(t, 81, DefaultGrid().Size())
}

func TestGridValidate(t *testing.T) {
	tests := []struct {
		name string
		grid Grid
	}{
		{"empty", Grid{}},
		{"unknown axis", Grid{Axes: []Axis{{Name: "TEMPERATURE", Values: []float64{1}}}}},
		{"duplicate", Grid{Axes: []Axis{{Name: NumO2, Values: []float64{1}}, {Name: NumO2, Values: []float64{2}}}}},
		{"no values", Grid{Axes: []Axis{{Name: NumO2}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, ErrGrid, errors.Cause(tt.grid.Validate()))
		})
	}
}

func smallBase() quench.Params {
	p := quench.DefaultParams()
	p.Steps = 40
	p.Seed = 11
	return p
}

func TestGridClone(t *testing.T) {
	g := DefaultGrid()
	c := g.Clone()
	c.Axes[0].Values[0] = -1
	c.Axes[1].Name = ExcitedLifetime
	assert.Equal(t, 100.0, g.Axes[0].Values[0])
	assert.Equal(t, DensitySteepness, g.Axes[1].Name)
	assert.Equal(t, g.Size(), c.Size())
}

func TestRunnerOrderAndSeeds(t *testing.T) {
	base := smallBase()
	g := Grid{Axes: []Axis{
		{Name: NumO2, Values: []float64{20, 60}},
		{Name: DensitySteepness, Values: []float64{0.3, 0.5}},
	}}

	var calls, last int
	r := NewRunner(base)
	r.Workers = 3
	r.Progress = func(done, total int) {
		calls++
		last = done
		assert.Equal(t, 4, total)
	}
	res, err := r.Run(context.Background(), g)
	require.NoError(t, err)
	require.Len(t, res.Rows, 4)
	assert.Equal(t, 4, calls)
	assert.Equal(t, 4, last)
	assert.Equal(t, []string{NumO2, DensitySteepness}, res.Axes)

	for i, row := range res.Rows {
		assert.Equal(t, i, row.Index)
	}
	assert.Equal(t, []float64{60, 0.3}, res.Rows[2].Values)

	p := base
	p.NumO2 = 60
	p.DensitySteepness = 0.3
	p.Seed = base.Seed + 2
	s, err := quench.New(p)
	require.NoError(t, err)
	want, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want.Ru1.QY(), res.Rows[2].QYRu1)
	assert.Equal(t, want.Ru2.Events(), res.Rows[2].EventsRu2)
}

func TestRunnerSkipsFailedPlacement(t *testing.T) {
	g := Grid{Axes: []Axis{{Name: CoreRadius, Values: []float64{15, 40}}}}
	res, err := NewRunner(smallBase()).Run(context.Background(), g)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, []float64{15}, res.Rows[0].Values)
}

func TestRunnerRejectsInvalidPoint(t *testing.T) {
	g := Grid{Axes: []Axis{{Name: O2MoveProbMin, Values: []float64{0.1, 2}}}}
	_, err := NewRunner(smallBase()).Run(context.Background(), g)
	assert.Equal(t, quench.ErrInvalidParams, errors.Cause(err))
}

func TestRunnerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewRunner(smallBase()).Run(ctx, DefaultGrid())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestO2StudyCounts(t *testing.T) {
	st := DefaultO2Study()
	assert.Equal(t, []int{10, 31, 52, 73, 94, 116, 137, 158, 179, 200}, st.Counts())
	assert.Equal(t, 100, st.Base.GridSize)
	assert.Equal(t, quench.DensityWeighted, st.Base.Placement)

	st.Steps = 1
	assert.Equal(t, []int{10}, st.Counts())
}

func TestRunO2Study(t *testing.T) {
	st := DefaultO2Study()
	st.Base.Steps = 30
	st.MinO2, st.MaxO2, st.Steps = 10, 50, 3

	points, err := NewRunner(quench.DefaultParams()).RunO2Study(context.Background(), st)
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, 30, points[1].Requested)
	for _, p := range points {
		assert.LessOrEqual(t, p.Placed, p.Requested)
		assert.GreaterOrEqual(t, p.QYRu1, 0.0)
		assert.LessOrEqual(t, p.QYRu1, 1.0)
	}

	var csvBuf, jsonBuf bytes.Buffer
	require.NoError(t, WriteO2CSV(&csvBuf, points))
	assert.True(t, strings.HasPrefix(csvBuf.String(), "O2_Count,Ru1_QY,Ru2_QY\n"))
	require.NoError(t, WriteO2JSON(&jsonBuf, st, points, time.Unix(0, 0)))
	assert.Contains(t, jsonBuf.String(), `"o2_counts"`)

	st.MaxO2 = 5
	_, err = NewRunner(quench.DefaultParams()).RunO2Study(context.Background(), st)
	assert.Error(t, err)
}

func sampleResults() *Results {
	return &Results{
		Axes: []string{NumO2, ExcitedLifetime},
		Rows: []Row{
			{Index: 0, Values: []float64{100, 20}, QYRu1: 0.8, QYRu2: 0.5, EventsRu1: 300, EventsRu2: 280},
			{Index: 1, Values: []float64{100, 40}, QYRu1: 0.7, QYRu2: 0.6, EventsRu1: 200, EventsRu2: 190},
			{Index: 2, Values: []float64{250, 20}, QYRu1: 0.6, QYRu2: 0.6, EventsRu1: 310, EventsRu2: 305},
			{Index: 3, Values: []float64{250, 40}, QYRu1: 0.4, QYRu2: 0.6, EventsRu1: 210, EventsRu2: 200},
		},
	}
}

func TestCSVExport(t *testing.T) {
	res := sampleResults()
	res.Axes = []string{NumO2, DensitySteepness, O2MoveProbMin, ExcitedLifetime}
	for i := range res.Rows {
		v := res.Rows[i].Values
		res.Rows[i].Values = []float64{v[0], 0.3, 0.05, v[1]}
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, res))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "NUM_O2,DENSITY_STEEPNESS,O2_MOVE_PROB_MIN,EXCITED_LIFETIME,Simulated_QY_Ru1,Simulated_QY_Ru2,Ru1_Events,Ru2_Events", lines[0])
	assert.Equal(t, "100,0.3,0.05,20,0.8,0.5,300,280", lines[1])

	back, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, res.Axes, back.Axes)
	assert.Equal(t, res.Rows, back.Rows)
}

func TestReadCSVMissingColumn(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("NUM_O2,Simulated_QY_Ru1\n100,0.5\n"))
	assert.Error(t, err)

	res, err := ReadCSV(strings.NewReader("NUM_O2,Simulated_QY_Ru1,Simulated_QY_Ru2,Ru1_Events,Ru2_Events\n100,0.5,0.4,12.0,9\n"))
	require.NoError(t, err)
	assert.Equal(t, 12, res.Rows[0].EventsRu1)
}

func TestAnalyze(t *testing.T) {
	a, err := Analyze(sampleResults())
	require.NoError(t, err)

	assert.Equal(t, 4, a.N)
	assert.Equal(t, 2, a.Ru1Wins)
	assert.Equal(t, 1, a.Ru2Wins)
	assert.Equal(t, 1, a.Ties)
	assert.Equal(t, Ru1, a.Winner)
	assert.InDelta(t, 0.625, a.MeanRu1, 1e-12)
	assert.InDelta(t, 0.575, a.MeanRu2, 1e-12)
	require.NotNil(t, a.TTest)

	require.Len(t, a.Parameters, 2)
	o2 := a.Parameters[0]
	require.Len(t, o2.Levels, 2)
	assert.InDelta(t, 0.2, o2.Levels[0].MeanDiff, 1e-12)
	assert.Equal(t, Ru1, o2.Levels[0].Winner)
	assert.Equal(t, Ru2, o2.Levels[1].Winner)
	assert.InDelta(t, 4.5, o2.F, 1e-9)

	require.Len(t, a.Ranking, 2)
	assert.Equal(t, NumO2, a.Ranking[0].Axis)
	assert.InDelta(t, 0.04/0.045, a.Ranking[1].F, 1e-9)

	require.NotNil(t, a.Pivot)
	assert.Equal(t, []float64{100, 250}, a.Pivot.RowValues)
	assert.Equal(t, []float64{20, 40}, a.Pivot.ColValues)
	assert.InDelta(t, 0.3, a.Pivot.Mean[0][0], 1e-12)
	assert.InDelta(t, -0.2, a.Pivot.Mean[1][1], 1e-12)

	require.Len(t, a.Optimal, 2)
	assert.Equal(t, Ru1, a.Optimal[0].Complex)
	assert.Equal(t, 1, a.Optimal[0].Count)
	assert.Equal(t, 100.0, a.Optimal[0].MostCommon[NumO2])
	assert.InDelta(t, 0.3, a.Optimal[0].BestDiff, 1e-12)
	assert.Equal(t, 3, a.Optimal[1].Best.Index)
	assert.InDelta(t, 0.2, a.Optimal[1].BestDiff, 1e-12)

	assert.Contains(t, strings.Join(a.Conclusion, "\n"), "At lower O2 concentrations")
}

func TestAnalyzeEmpty(t *testing.T) {
	_, err := Analyze(&Results{})
	assert.Equal(t, ErrNoRows, err)
}
