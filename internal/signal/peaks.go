package signal

import (
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// PeakOptions filter the local maxima FindPeaks reports. Zero values
// disable a filter.
type PeakOptions struct {
	Height     float64 // minimum peak height
	Distance   int     // minimum index separation, taller peaks win
	Prominence float64 // minimum prominence
	Width      float64 // minimum width at half prominence, in samples
}

type Peak struct {
	Index      int
	Height     float64
	Prominence float64
	Width      float64
	LeftBase   int
	RightBase  int
}

// FindPeaks locates local maxima of y. The filters run in the same order as
// scipy.signal.find_peaks: height, distance, prominence, width.
func FindPeaks(y []float64, opts PeakOptions) []Peak {
	idx := localMaxima(y)

	if opts.Height != 0 {
		kept := idx[:0]
		for _, i := range idx {
			if y[i] >= opts.Height {
				kept = append(kept, i)
			}
		}
		idx = kept
	}

	if opts.Distance > 1 && len(idx) > 1 {
		idx = selectByDistance(y, idx, opts.Distance)
	}

	peaks := make([]Peak, 0, len(idx))
	for _, i := range idx {
		p := Peak{Index: i, Height: y[i]}
		p.Prominence, p.LeftBase, p.RightBase = prominence(y, i)
		if opts.Prominence != 0 && p.Prominence < opts.Prominence {
			continue
		}
		p.Width = widthAt(y, p, 0.5)
		if opts.Width != 0 && p.Width < opts.Width {
			continue
		}
		peaks = append(peaks, p)
	}
	return peaks
}

// FindValleys runs FindPeaks on -y and reports the unnegated (negative side)
// values as heights.
func FindValleys(y []float64, opts PeakOptions) []Peak {
	peaks := FindPeaks(Negate(y), opts)
	for i := range peaks {
		peaks[i].Height = y[peaks[i].Index]
	}
	return peaks
}

// localMaxima resolves flat tops to their middle sample.
func localMaxima(y []float64) []int {
	var out []int
	n := len(y)
	i := 1
	for i < n-1 {
		if y[i-1] < y[i] {
			ahead := i + 1
			for ahead < n-1 && y[ahead] == y[i] {
				ahead++
			}
			if y[ahead] < y[i] {
				out = append(out, (i+ahead-1)/2)
				i = ahead
			}
		}
		i++
	}
	return out
}

func selectByDistance(y []float64, idx []int, distance int) []int {
	order := make([]int, len(idx))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return y[idx[order[a]]] < y[idx[order[b]]] })

	keep := make([]bool, len(idx))
	for i := range keep {
		keep[i] = true
	}
	for k := len(order) - 1; k >= 0; k-- {
		j := order[k]
		if !keep[j] {
			continue
		}
		for l := j - 1; l >= 0 && idx[j]-idx[l] < distance; l-- {
			keep[l] = false
		}
		for l := j + 1; l < len(idx) && idx[l]-idx[j] < distance; l++ {
			keep[l] = false
		}
	}

	out := make([]int, 0, len(idx))
	for i, k := range keep {
		if k {
			out = append(out, idx[i])
		}
	}
	return out
}

func prominence(y []float64, peak int) (float64, int, int) {
	left, leftMin := peak, y[peak]
	for i := peak; i >= 0 && y[i] <= y[peak]; i-- {
		if y[i] < leftMin {
			leftMin, left = y[i], i
		}
	}
	right, rightMin := peak, y[peak]
	for i := peak; i < len(y) && y[i] <= y[peak]; i++ {
		if y[i] < rightMin {
			rightMin, right = y[i], i
		}
	}
	base := leftMin
	if rightMin > base {
		base = rightMin
	}
	return y[peak] - base, left, right
}

// widthAt measures the peak width at y[peak] - rel*prominence with linear
// interpolation between samples.
func widthAt(y []float64, p Peak, rel float64) float64 {
	h := y[p.Index] - p.Prominence*rel

	i := p.Index
	for p.LeftBase < i && h < y[i] {
		i--
	}
	left := float64(i)
	if y[i] < h {
		left += (h - y[i]) / (y[i+1] - y[i])
	}

	i = p.Index
	for i < p.RightBase && h < y[i] {
		i++
	}
	right := float64(i)
	if y[i] < h {
		right -= (h - y[i]) / (y[i-1] - y[i])
	}
	return right - left
}

// Gradient mirrors numpy.gradient with sample coordinates x: second-order
// central differences inside, one-sided differences at the ends.
func Gradient(y, x []float64) ([]float64, error) {
	n := len(y)
	if len(x) != n {
		return nil, errors.Errorf("signal: gradient needs matching lengths, got %d and %d", n, len(x))
	}
	if n < 2 {
		return nil, errors.New("signal: gradient needs at least two samples")
	}
	g := make([]float64, n)
	g[0] = (y[1] - y[0]) / (x[1] - x[0])
	g[n-1] = (y[n-1] - y[n-2]) / (x[n-1] - x[n-2])
	for i := 1; i < n-1; i++ {
		hl := x[i] - x[i-1]
		hr := x[i+1] - x[i]
		g[i] = (hl*hl*y[i+1] - hr*hr*y[i-1] + (hr*hr-hl*hl)*y[i]) / (hl * hr * (hl + hr))
	}
	return g, nil
}

func PeakToPeak(y []float64) float64 {
	if len(y) == 0 {
		return 0
	}
	return floats.Max(y) - floats.Min(y)
}

func Negate(y []float64) []float64 {
	out := make([]float64, len(y))
	floats.ScaleTo(out, -1, y)
	return out
}

// Indices extracts peak indices, handy when only positions matter.
func Indices(peaks []Peak) []int {
	out := make([]int, len(peaks))
	for i, p := range peaks {
		out[i] = p.Index
	}
	return out
}
