package signal

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSavitzkyGolayPreservesPolynomials(t *testing.T) {
	tests := []struct {
		name   string
		f      func(x float64) float64
		window int
		order  int
	}{
		{"constant", func(x float64) float64 { return 4 }, 5, 2},
		{"line", func(x float64) float64 { return 3*x - 2 }, 7, 3},
		{"quadratic", func(x float64) float64 { return 0.5*x*x - x + 1 }, 11, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			y := make([]float64, 30)
			for i := range y {
				y[i] = tt.f(float64(i))
			}
			out, err := SavitzkyGolay(y, tt.window, tt.order)
			require.NoError(t, err)
			require.Len(t, out, len(y))
			for i := range y {
				assert.InDelta(t, y[i], out[i], 1e-8, "index %d", i)
			}
		})
	}
}

func TestSavitzkyGolaySmoothsNoise(t *testing.T) {
	y := make([]float64, 41)
	for i := range y {
		if i%2 == 0 {
			y[i] = 1
		} else {
			y[i] = -1
		}
	}
	out, err := SavitzkyGolay(y, 11, 3)
	require.NoError(t, err)
	assert.Less(t, PeakToPeak(out[5:36]), PeakToPeak(y))
}

func TestSavitzkyGolayRejectsBadWindow(t *testing.T) {
	y := make([]float64, 10)
	tests := []struct {
		name   string
		window int
		order  int
	}{
		{"even", 4, 2},
		{"order too high", 3, 3},
		{"longer than signal", 11, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SavitzkyGolay(y, tt.window, tt.order)
			assert.Equal(t, ErrWindow, errors.Cause(err))
		})
	}
}

func TestGradientNonUniform(t *testing.T) {
	x := []float64{0, 1, 3, 4}
	y := []float64{0, 1, 9, 16}
	g, err := Gradient(y, x)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, 2, 6, 7}, g, 1e-12)

	_, err = Gradient(y, x[:2])
	assert.Error(t, err)
	_, err = Gradient([]float64{1}, []float64{1})
	assert.Error(t, err)
}

func TestFindPeaks(t *testing.T) {
	y := []float64{0, 1, 0, 2, 0, 3, 0}

	peaks := FindPeaks(y, PeakOptions{})
	require.Len(t, peaks, 3)
	assert.Equal(t, []int{1, 3, 5}, Indices(peaks))
	assert.InDelta(t, 1.0, peaks[0].Prominence, 1e-12)
	assert.InDelta(t, 2.0, peaks[1].Prominence, 1e-12)
	assert.InDelta(t, 3.0, peaks[2].Prominence, 1e-12)
	assert.Equal(t, 4, peaks[2].LeftBase)
	assert.Equal(t, 6, peaks[2].RightBase)
	assert.InDelta(t, 1.0, peaks[2].Width, 1e-12)

	tests := []struct {
		name string
		opts PeakOptions
		want []int
	}{
		{"height", PeakOptions{Height: 1.5}, []int{3, 5}},
		{"distance keeps tallest", PeakOptions{Distance: 3}, []int{1, 5}},
		{"prominence", PeakOptions{Prominence: 2.5}, []int{5}},
		{"width", PeakOptions{Width: 1.5}, []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Indices(FindPeaks(y, tt.opts)))
		})
	}
}

func TestFindPeaksPlateau(t *testing.T) {
	peaks := FindPeaks([]float64{0, 1, 1, 1, 0}, PeakOptions{})
	require.Len(t, peaks, 1)
	assert.Equal(t, 2, peaks[0].Index)
}

func TestFindValleys(t *testing.T) {
	valleys := FindValleys([]float64{3, 1, 3, 0, 3}, PeakOptions{})
	require.Len(t, valleys, 2)
	assert.Equal(t, 1, valleys[0].Index)
	assert.Equal(t, 0.0, valleys[1].Height)
}

func TestNegateAndPeakToPeak(t *testing.T) {
	assert.Equal(t, []float64{-1, 2, -3}, Negate([]float64{1, -2, 3}))
	assert.Equal(t, 5.0, PeakToPeak([]float64{1, -2, 3}))
	assert.Equal(t, 0.0, PeakToPeak(nil))
}
