// Package epr derives g-values and hyperfine coupling constants from
// continuous-wave EPR spectra, with an axial VO(IV) assignment helper.
package epr

import (
	"math"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/chemlab/internal/signal"
)

const (
	Planck       = 6.62607015e-34   // J s
	BohrMagneton = 9.2740100783e-24 // J/T
	XBandHz      = 9.5e9            // default microwave frequency
	GaussToTesla = 1e-4
)

var (
	ErrField   = errors.New("epr: resonance field must be positive")
	ErrNoPeaks = errors.New("epr: no peaks in derivative spectrum")
	ErrSpacing = errors.New("epr: hyperfine spacing needs at least two lines")
)

func GaussToTeslaSlice(gauss []float64) []float64 {
	out := make([]float64, len(gauss))
	floats.ScaleTo(out, GaussToTesla, gauss)
	return out
}

// GValue is hν/(μB·B).
func GValue(fieldT, freqHz float64) (float64, error) {
	if fieldT <= 0 {
		return math.NaN(), errors.Wrapf(ErrField, "got %g T", fieldT)
	}
	return Planck * freqHz / (BohrMagneton * fieldT), nil
}

type Hyperfine struct {
	MHz       float64
	SpacingMT float64
	Spacings  int
}

func (h Hyperfine) Determined() bool { return h.Spacings > 0 }

// HyperfineConstant converts the mean spacing of the sorted line positions
// into A = g·μB·ΔB/h, reported in MHz.
func HyperfineConstant(fieldsT []float64, g float64) (Hyperfine, error) {
	if len(fieldsT) < 2 {
		return Hyperfine{}, errors.Wrapf(ErrSpacing, "got %d", len(fieldsT))
	}
	sorted := append([]float64(nil), fieldsT...)
	sort.Float64s(sorted)

	mean := (sorted[len(sorted)-1] - sorted[0]) / float64(len(sorted)-1)
	return Hyperfine{
		MHz:       g * BohrMagneton * mean / Planck / 1e6,
		SpacingMT: mean * 1000,
		Spacings:  len(sorted) - 1,
	}, nil
}

// Derivative smooths intensity with Savitzky-Golay when the window allows it
// and differentiates against field. A window of 0 disables smoothing.
func Derivative(fieldT, intensity []float64, window, order int) ([]float64, bool, error) {
	y := intensity
	smoothed := false
	if window > order && len(intensity) > window {
		if s, err := signal.SavitzkyGolay(intensity, window, order); err == nil {
			y, smoothed = s, true
		}
	}
	d, err := signal.Gradient(y, fieldT)
	if err != nil {
		return nil, false, errors.Wrap(err, "derivative")
	}
	return d, smoothed, nil
}
