package spectroscopy

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/chemlab/internal/signal"
)

var (
	ErrNoSpectra          = errors.New("spectroscopy: no spectra")
	ErrWavelengthMismatch = errors.New("spectroscopy: wavelength grids differ")
	ErrLengthMismatch     = errors.New("spectroscopy: absorbance and wavelength lengths differ")
)

type Spectrum struct {
	Name       string
	Wavelength []float64
	Absorbance []float64
}

type AverageParams struct {
	Window     int
	Order      int
	Prominence float64
}

func DefaultAverageParams() AverageParams {
	return AverageParams{Window: 51, Order: 3, Prominence: 0.1}
}

type AverageResult struct {
	Wavelength []float64
	Smoothed   [][]float64
	Mean       []float64
	Std        []float64 // population standard deviation
	Peaks      []SpectralPeak
}

// AverageSpectra smooths every scan, requires identical wavelength grids and
// reports the pointwise mean and spread along with the peaks of the mean.
func AverageSpectra(spectra []Spectrum, p AverageParams) (AverageResult, error) {
	if len(spectra) == 0 {
		return AverageResult{}, ErrNoSpectra
	}

	res := AverageResult{Wavelength: spectra[0].Wavelength}
	for _, s := range spectra {
		if !floats.Equal(res.Wavelength, s.Wavelength) {
			return AverageResult{}, errors.Wrapf(ErrWavelengthMismatch, "spectrum %q", s.Name)
		}
		if len(s.Absorbance) != len(s.Wavelength) {
			return AverageResult{}, errors.Wrapf(ErrLengthMismatch, "spectrum %q: %d points for %d wavelengths",
				s.Name, len(s.Absorbance), len(s.Wavelength))
		}
		sm, err := signal.SavitzkyGolay(s.Absorbance, p.Window, p.Order)
		if err != nil {
			return AverageResult{}, errors.Wrapf(err, "smooth spectrum %q", s.Name)
		}
		res.Smoothed = append(res.Smoothed, sm)
	}

	n := len(res.Wavelength)
	res.Mean = make([]float64, n)
	res.Std = make([]float64, n)
	col := make([]float64, len(res.Smoothed))
	for i := 0; i < n; i++ {
		for j, sm := range res.Smoothed {
			col[j] = sm[i]
		}
		res.Mean[i], res.Std[i] = stat.PopMeanStdDev(col, nil)
	}

	res.Peaks = toSpectral(res.Wavelength, signal.FindPeaks(res.Mean, signal.PeakOptions{Prominence: p.Prominence}))
	return res, nil
}
