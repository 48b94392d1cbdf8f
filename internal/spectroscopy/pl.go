package spectroscopy

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/chemlab/internal/signal"
)

type PLParams struct {
	Window     int
	Order      int
	Prominence float64 // 0 means 5% of the smoothed range
	Distance   int
	Width      float64
}

func DefaultPLParams() PLParams {
	return PLParams{Window: 11, Order: 3, Distance: 10, Width: 3}
}

type SpectralPeak struct {
	Wavelength float64
	Intensity  float64
	Prominence float64
	Width      float64 // samples
	Index      int
}

type PLResult struct {
	Wavelength []float64
	Raw        []float64
	Smoothed   []float64
	Residuals  []float64 // raw - smoothed
	Prominence float64   // threshold actually applied
	Peaks      []SpectralPeak
}

// AnalyzePL smooths a photoluminescence scan and reports the emission peaks
// of the smoothed curve. Even windows are widened by one sample.
func AnalyzePL(wavelength, cps []float64, p PLParams) (PLResult, error) {
	if len(wavelength) != len(cps) {
		return PLResult{}, errors.Errorf("spectroscopy: %d wavelengths for %d intensities", len(wavelength), len(cps))
	}
	if p.Window%2 == 0 {
		p.Window++
	}
	smoothed, err := signal.SavitzkyGolay(cps, p.Window, p.Order)
	if err != nil {
		return PLResult{}, errors.Wrap(err, "smooth PL scan")
	}

	res := PLResult{
		Wavelength: wavelength,
		Raw:        cps,
		Smoothed:   smoothed,
		Residuals:  make([]float64, len(cps)),
		Prominence: p.Prominence,
	}
	floats.SubTo(res.Residuals, cps, smoothed)
	if res.Prominence == 0 {
		res.Prominence = 0.05 * signal.PeakToPeak(smoothed)
	}

	peaks := signal.FindPeaks(smoothed, signal.PeakOptions{
		Prominence: res.Prominence,
		Distance:   p.Distance,
		Width:      p.Width,
	})
	res.Peaks = toSpectral(wavelength, peaks)
	return res, nil
}

func toSpectral(wavelength []float64, peaks []signal.Peak) []SpectralPeak {
	out := make([]SpectralPeak, len(peaks))
	for i, pk := range peaks {
		out[i] = SpectralPeak{
			Wavelength: wavelength[pk.Index],
			Intensity:  pk.Height,
			Prominence: pk.Prominence,
			Width:      pk.Width,
			Index:      pk.Index,
		}
	}
	return out
}
