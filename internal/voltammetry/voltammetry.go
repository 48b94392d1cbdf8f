// Package voltammetry extracts half-wave potentials and redox peaks from
// cyclic voltammograms, optionally referenced to ferrocene.
package voltammetry

import (
	"math"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/chemlab/internal/signal"
)

var ErrEmptyScan = errors.New("voltammetry: empty scan")

type Scan struct {
	Potential []float64 // V
	Current   []float64 // A
}

func (s Scan) validate() error {
	if len(s.Potential) != len(s.Current) {
		return errors.Errorf("voltammetry: %d potentials for %d currents", len(s.Potential), len(s.Current))
	}
	if len(s.Current) == 0 {
		return ErrEmptyScan
	}
	return nil
}

type HalfWave struct {
	Anodic   float64 // potential at maximum current
	Cathodic float64 // potential at minimum current
	EHalf    float64
}

func (h HalfWave) Separation() float64 { return math.Abs(h.Anodic - h.Cathodic) }

// HalfWavePotential treats the scan as a reversible couple:
// E½ = (Epa + Epc)/2.
func HalfWavePotential(s Scan) (HalfWave, error) {
	if err := s.validate(); err != nil {
		return HalfWave{}, err
	}
	epa := s.Potential[floats.MaxIdx(s.Current)]
	epc := s.Potential[floats.MinIdx(s.Current)]
	return HalfWave{Anodic: epa, Cathodic: epc, EHalf: (epa + epc) / 2}, nil
}

// Reference shifts potentials so the ferrocene couple sits at 0 V.
func Reference(s Scan, eHalfFc float64) Scan {
	p := make([]float64, len(s.Potential))
	copy(p, s.Potential)
	floats.AddConst(-eHalfFc, p)
	return Scan{Potential: p, Current: s.Current}
}

type PeakParams struct {
	Prominence float64 // fraction of the current span
	Width      float64 // samples
	Distance   int     // samples
	Height     float64
}

func DefaultPeakParams() PeakParams {
	return PeakParams{Prominence: 0.03, Width: 5, Distance: 20}
}

type RedoxPeak struct {
	Potential float64
	Current   float64
	Index     int
	Major     bool
}

type Redox struct {
	Oxidation []RedoxPeak
	Reduction []RedoxPeak
}

// RedoxPeaks finds anodic maxima and cathodic minima, each list ordered by
// |current| with the two largest flagged as major.
func RedoxPeaks(s Scan, p PeakParams) (Redox, error) {
	if err := s.validate(); err != nil {
		return Redox{}, err
	}
	opts := signal.PeakOptions{
		Prominence: p.Prominence * signal.PeakToPeak(s.Current),
		Width:      p.Width,
		Distance:   p.Distance,
		Height:     p.Height,
	}
	return Redox{
		Oxidation: rank(s, signal.FindPeaks(s.Current, opts)),
		Reduction: rank(s, signal.FindPeaks(signal.Negate(s.Current), opts)),
	}, nil
}

func rank(s Scan, peaks []signal.Peak) []RedoxPeak {
	out := make([]RedoxPeak, len(peaks))
	for i, pk := range peaks {
		out[i] = RedoxPeak{Potential: s.Potential[pk.Index], Current: s.Current[pk.Index], Index: pk.Index}
	}
	sort.SliceStable(out, func(a, b int) bool { return math.Abs(out[a].Current) > math.Abs(out[b].Current) })
	for i := range out {
		out[i].Major = i < 2
	}
	return out
}
