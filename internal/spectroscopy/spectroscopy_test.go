package spectroscopy

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gauss(x, mu, sigma float64) float64 {
	return math.Exp(-(x - mu) * (x - mu) / (2 * sigma * sigma))
}

func grid(from, to float64) []float64 {
	var out []float64
	for x := from; x <= to; x++ {
		out = append(out, x)
	}
	return out
}

func TestAnalyzePL(t *testing.T) {
	wl := grid(400, 800)
	cps := make([]float64, len(wl))
	for i, w := range wl {
		cps[i] = 1000*gauss(w, 610, 10) + 100*gauss(w, 700, 8)
	}

	p := DefaultPLParams()
	p.Window = 10
	res, err := AnalyzePL(wl, cps, p)
	require.NoError(t, err)

	require.Len(t, res.Peaks, 2)
	assert.Equal(t, 610.0, res.Peaks[0].Wavelength)
	assert.Equal(t, 700.0, res.Peaks[1].Wavelength)
	assert.InDelta(t, 1000, res.Peaks[0].Intensity, 5)
	assert.Greater(t, res.Peaks[0].Width, 3.0)
	assert.InDelta(t, 0.05*1000, res.Prominence, 3)

	for _, r := range res.Residuals {
		assert.Less(t, math.Abs(r), 5.0)
	}
}

func TestAnalyzePLExplicitProminence(t *testing.T) {
	wl := grid(400, 800)
	cps := make([]float64, len(wl))
	for i, w := range wl {
		cps[i] = 1000*gauss(w, 610, 10) + 100*gauss(w, 700, 8)
	}
	p := DefaultPLParams()
	p.Prominence = 200
	res, err := AnalyzePL(wl, cps, p)
	require.NoError(t, err)
	require.Len(t, res.Peaks, 1)
	assert.Equal(t, 610.0, res.Peaks[0].Wavelength)
}

func TestAnalyzePLErrors(t *testing.T) {
	_, err := AnalyzePL([]float64{1, 2}, []float64{1}, DefaultPLParams())
	assert.Error(t, err)

	_, err = AnalyzePL(grid(1, 5), grid(1, 5), DefaultPLParams())
	assert.Error(t, err, "window longer than scan")
}

func TestAverageSpectra(t *testing.T) {
	wl := grid(300, 700)
	var spectra []Spectrum
	for _, a := range []float64{0.9, 1.0, 1.1} {
		abs := make([]float64, len(wl))
		for i, w := range wl {
			abs[i] = a * gauss(w, 450, 20)
		}
		spectra = append(spectra, Spectrum{Name: "scan", Wavelength: wl, Absorbance: abs})
	}

	res, err := AverageSpectra(spectra, DefaultAverageParams())
	require.NoError(t, err)
	require.Len(t, res.Smoothed, 3)

	peak := 150
	assert.InDelta(t, 1.0, res.Mean[peak], 0.03)
	// smoothing is linear, so the spread scales with the mean
	assert.InDelta(t, math.Sqrt(0.02/3)*res.Mean[peak], res.Std[peak], 1e-9)

	require.Len(t, res.Peaks, 1)
	assert.Equal(t, 450.0, res.Peaks[0].Wavelength)
}

func TestAverageSpectraErrors(t *testing.T) {
	_, err := AverageSpectra(nil, DefaultAverageParams())
	assert.Equal(t, ErrNoSpectra, err)

	wl := grid(300, 379)
	tests := []struct {
		name    string
		second  Spectrum
		wantErr error
	}{
		{"shifted grid", Spectrum{Name: "b", Wavelength: grid(301, 380), Absorbance: make([]float64, 80)}, ErrWavelengthMismatch},
		{"short absorbance", Spectrum{Name: "b", Wavelength: wl, Absorbance: make([]float64, 60)}, ErrLengthMismatch},
		{"long absorbance", Spectrum{Name: "b", Wavelength: wl, Absorbance: make([]float64, 90)}, ErrLengthMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Spectrum{Name: "a", Wavelength: wl, Absorbance: make([]float64, 80)}
			var err error
			assert.NotPanics(t, func() {
				_, err = AverageSpectra([]Spectrum{a, tt.second}, DefaultAverageParams())
			})
			assert.Equal(t, tt.wantErr, errors.Cause(err))
		})
	}
}
