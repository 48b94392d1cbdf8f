package epr

import (
	"math"
	"sort"

	"github.com/pkg/errors"

	"github.com/san-kum/chemlab/internal/signal"
)

// ExpectedVOLines is the 2I+1 = 8 pattern of ⁵¹V.
const ExpectedVOLines = 8

// VOAnalysis assigns derivative-spectrum extrema of an axial S=1/2, I=7/2
// spectrum: the outermost lines are parallel, the central ones perpendicular.
type VOAnalysis struct {
	Peaks         []int // sorted sample indices of maxima and minima
	GParallelT    float64
	GPerpT        float64
	Parallel      []int
	Perpendicular []int
}

func AnalyzeVO(fieldT, derivative []float64) (VOAnalysis, error) {
	if len(fieldT) != len(derivative) {
		return VOAnalysis{}, errors.Errorf("epr: %d fields for %d derivative points", len(fieldT), len(derivative))
	}

	opts := signal.PeakOptions{Height: 0.05 * signal.PeakToPeak(derivative), Distance: 5}
	idx := append(signal.Indices(signal.FindPeaks(derivative, opts)),
		signal.Indices(signal.FindPeaks(signal.Negate(derivative), opts))...)
	sort.Ints(idx)
	if len(idx) == 0 {
		return VOAnalysis{}, ErrNoPeaks
	}

	a := VOAnalysis{Peaks: idx}

	lo, hi := int(float64(len(idx))*0.25), int(float64(len(idx))*0.75)
	if lo >= hi {
		lo, hi = 0, len(idx)
	}
	best := idx[lo]
	for _, i := range idx[lo:hi] {
		if math.Abs(derivative[i]) > math.Abs(derivative[best]) {
			best = i
		}
	}
	a.GPerpT = fieldT[best]
	a.GParallelT = (fieldT[idx[0]] + fieldT[idx[len(idx)-1]]) / 2

	side := len(idx) / 2
	if side > 3 {
		side = 3
	}
	a.Parallel = append(append([]int(nil), idx[:side]...), idx[len(idx)-side:]...)
	a.Perpendicular = append([]int(nil), idx[side:len(idx)-side]...)
	return a, nil
}

// HyperfineSet is the full parameter set of an axial VO(IV) spectrum.
// Undetermined constants are NaN.
type HyperfineSet struct {
	GParallel float64
	GPerp     float64
	GAvg      float64
	AParallel Hyperfine
	APerp     Hyperfine
	AIso      float64
}

func Hyperfines(fieldT []float64, a VOAnalysis, freqHz float64) (HyperfineSet, error) {
	var s HyperfineSet
	var err error
	if s.GParallel, err = GValue(a.GParallelT, freqHz); err != nil {
		return s, errors.Wrap(err, "g parallel")
	}
	if s.GPerp, err = GValue(a.GPerpT, freqHz); err != nil {
		return s, errors.Wrap(err, "g perpendicular")
	}
	s.GAvg = (s.GParallel + 2*s.GPerp) / 3

	s.AParallel = hyperfineAt(fieldT, a.Parallel, s.GParallel)
	s.APerp = hyperfineAt(fieldT, a.Perpendicular, s.GPerp)
	s.AIso = math.NaN()
	if s.AParallel.Determined() && s.APerp.Determined() {
		s.AIso = (s.AParallel.MHz + 2*s.APerp.MHz) / 3
	}
	return s, nil
}

func hyperfineAt(fieldT []float64, idx []int, g float64) Hyperfine {
	fields := make([]float64, len(idx))
	for i, j := range idx {
		fields[i] = fieldT[j]
	}
	h, err := HyperfineConstant(fields, g)
	if err != nil {
		return Hyperfine{MHz: math.NaN(), SpacingMT: math.NaN()}
	}
	return h
}

// VORange reports whether each parameter falls inside the window typical
// of vanadyl complexes such as VO(acac)₂.
type VORange struct {
	GParallel bool // 1.92–1.96
	GPerp     bool // 1.96–2.00
	AParallel bool // 160–190 MHz
	APerp     bool // 50–80 MHz
}

func (s HyperfineSet) CheckVO() VORange {
	return VORange{
		GParallel: within(s.GParallel, 1.92, 1.96),
		GPerp:     within(s.GPerp, 1.96, 2.00),
		AParallel: s.AParallel.Determined() && within(s.AParallel.MHz, 160, 190),
		APerp:     s.APerp.Determined() && within(s.APerp.MHz, 50, 80),
	}
}

func within(v, lo, hi float64) bool { return v >= lo && v <= hi }
