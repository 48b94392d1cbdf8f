package quench

import (
	"time"

	"gonum.org/v1/gonum/stat"
)

// Tally aggregates one species.
type Tally struct {
	Species      Species `json:"species"`
	Complexes    int     `json:"complexes"`
	Emissions    int     `json:"emissions"`
	Quenched     int     `json:"quenched"`
	Excitations  int     `json:"excitations"`
	MeanDuration float64 `json:"mean_excited_duration"`
	MeanDistance float64 `json:"mean_quench_distance"`
}

func (t Tally) Events() int { return t.Emissions + t.Quenched }
func (t Tally) QY() float64 { return QuantumYield(t.Emissions, t.Quenched) }

type QuencherSummary struct {
	Quenches     int     `json:"quenches"`
	MeanQuenches float64 `json:"mean_quenches"`
	MeanPath     float64 `json:"mean_path_length"`
	MeanSpeed    float64 `json:"mean_speed"`
	Active       int     `json:"active"` // quenchers with at least one quench
}

type Result struct {
	Params    Params          `json:"params"`
	Placed    PlacementReport `json:"placed"`
	Ru1       Tally           `json:"ru1"`
	Ru2       Tally           `json:"ru2"`
	Quenchers QuencherSummary `json:"quenchers"`
	Histogram [][]int         `json:"o2_histogram"`
	Steps     int             `json:"steps"`
	Runtime   time.Duration   `json:"runtime_ns"`
	Complexes []*Complex      `json:"-"`
	O2        []*Quencher     `json:"-"`
}

// Difference is QY(Ru1) - QY(Ru2).
func (r *Result) Difference() float64 { return r.Ru1.QY() - r.Ru2.QY() }

const histogramBins = 10

// Result snapshots the current state. The complex and quencher slices are
// shared with the simulation.
func (s *Simulation) Result() *Result {
	ru1, ru2 := s.tallies()
	return &Result{
		Params:    s.params,
		Placed:    s.report,
		Ru1:       ru1,
		Ru2:       ru2,
		Quenchers: summarize(s.quenchers, s.tick),
		Histogram: Histogram(s.quenchers, s.params.GridSize, histogramBins),
		Steps:     s.tick,
		Complexes: s.complexes,
		O2:        s.quenchers,
	}
}

func (s *Simulation) tallies() (Tally, Tally) {
	acc := [2]struct {
		t         Tally
		durations []float64
		distances []float64
	}{}
	acc[Surface].t.Species = Surface
	acc[Core].t.Species = Core

	for _, c := range s.complexes {
		a := &acc[c.Species]
		a.t.Complexes++
		a.t.Emissions += c.Emissions
		a.t.Quenched += c.Quenched
		a.t.Excitations += c.Excited
		for _, d := range c.Durations {
			a.durations = append(a.durations, float64(d))
		}
		a.distances = append(a.distances, c.Distances...)
	}

	for i := range acc {
		if len(acc[i].durations) > 0 {
			acc[i].t.MeanDuration = stat.Mean(acc[i].durations, nil)
		}
		if len(acc[i].distances) > 0 {
			acc[i].t.MeanDistance = stat.Mean(acc[i].distances, nil)
		}
	}
	return acc[Surface].t, acc[Core].t
}

func summarize(qs []*Quencher, steps int) QuencherSummary {
	var s QuencherSummary
	if len(qs) == 0 {
		return s
	}
	var path float64
	for _, q := range qs {
		s.Quenches += q.Quenches
		path += q.PathLength
		if q.Quenches > 0 {
			s.Active++
		}
	}
	n := float64(len(qs))
	s.MeanQuenches = float64(s.Quenches) / n
	s.MeanPath = path / n
	if steps > 0 {
		s.MeanSpeed = s.MeanPath / float64(steps)
	}
	return s
}

// Histogram counts quencher positions in bins x bins equal cells over
// [0, gridSize]². The last bin on each axis includes its upper edge.
// Rows are indexed by y.
func Histogram(qs []*Quencher, gridSize, bins int) [][]int {
	if bins <= 0 {
		return nil
	}
	h := make([][]int, bins)
	for i := range h {
		h[i] = make([]int, bins)
	}
	if gridSize <= 0 {
		return h
	}
	width := float64(gridSize) / float64(bins)
	bin := func(v float64) int {
		b := int(v / width)
		if b >= bins {
			b = bins - 1
		}
		if b < 0 {
			b = 0
		}
		return b
	}
	for _, q := range qs {
		h[bin(q.Y)][bin(q.X)]++
	}
	return h
}
