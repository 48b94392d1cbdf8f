package titration

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"

	"github.com/san-kum/chemlab/internal/stats"
)

const (
	DefaultStock         = 0.04 // mol/L SDS
	DefaultInitialVolume = 60.0 // mL
	DefaultMinSegment    = 2
)

// VolumeToConcentration converts titrant volume added to an initial volume
// into the diluted concentration: v*stock/(initial+v).
func VolumeToConcentration(volume, stock, initial float64) float64 {
	return volume * stock / (initial + volume)
}

func Concentrations(volumes []float64, stock, initial float64) []float64 {
	out := make([]float64, len(volumes))
	for i, v := range volumes {
		out[i] = VolumeToConcentration(v, stock, initial)
	}
	return out
}

type Segment struct {
	Slope     float64
	Intercept float64
	MSE       float64
	N         int
}

func (s Segment) At(x float64) float64 { return s.Slope*x + s.Intercept }

// Piecewise is a two-segment linear model. Breakpoint is the first x of the
// right segment; x below it belongs to Left.
type Piecewise struct {
	Left       Segment
	Right      Segment
	Breakpoint float64
	Split      int
	Score      float64 // Left.MSE + Right.MSE
}

func (p Piecewise) Predict(x float64) float64 {
	if x < p.Breakpoint {
		return p.Left.At(x)
	}
	return p.Right.At(x)
}

// Curve samples the piecewise model at n evenly spaced points over [lo, hi].
func (p Piecewise) Curve(lo, hi float64, n int) (xs, ys []float64) {
	if n < 2 {
		n = 2
	}
	xs = make([]float64, n)
	ys = make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range xs {
		xs[i] = lo + float64(i)*step
		ys[i] = p.Predict(xs[i])
	}
	return xs, ys
}

// Breakpoint searches every split of the x-sorted data that leaves at least
// minSegment points on each side and keeps the one with the lowest summed
// segment MSE. Ties keep the earliest split. minSegment below 2 is rejected.
func Breakpoint(x, y []float64, minSegment int) (Piecewise, error) {
	if len(x) != len(y) {
		return Piecewise{}, ErrLengthMismatch
	}
	if minSegment < 2 {
		return Piecewise{}, errors.Wrapf(ErrMinSegment, "min segment %d", minSegment)
	}
	n := len(x)
	if n < 2*minSegment {
		return Piecewise{}, errors.Wrapf(ErrTooFewPoints, "breakpoint search needs %d points, got %d", 2*minSegment, n)
	}

	xs, ys := sortByX(x, y)

	best := Piecewise{Split: -1}
	for i := minSegment; i <= n-minSegment; i++ {
		left, err := fitSegment(xs[:i], ys[:i])
		if err != nil {
			continue
		}
		right, err := fitSegment(xs[i:], ys[i:])
		if err != nil {
			continue
		}
		score := left.MSE + right.MSE
		if best.Split < 0 || score < best.Score {
			best = Piecewise{Left: left, Right: right, Breakpoint: xs[i], Split: i, Score: score}
		}
	}
	if best.Split < 0 {
		return Piecewise{}, errors.Wrap(stats.ErrDegenerate, "no split has two distinct x values per side")
	}
	return best, nil
}

func fitSegment(x, y []float64) (Segment, error) {
	slope, intercept, mse, err := stats.LeastSquares(x, y)
	if err != nil {
		return Segment{}, err
	}
	return Segment{Slope: slope, Intercept: intercept, MSE: mse, N: len(x)}, nil
}

func sortByX(x, y []float64) ([]float64, []float64) {
	idx := make([]int, len(x))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return x[idx[a]] < x[idx[b]] })
	xs := make([]float64, len(x))
	ys := make([]float64, len(y))
	for i, j := range idx {
		xs[i], ys[i] = x[j], y[j]
	}
	return xs, ys
}

// PolyModel is one entry of a polynomial model comparison.
type PolyModel struct {
	Degree int
	Coef   []float64 // highest power first
	R2     float64
}

func (m PolyModel) Name() string {
	switch m.Degree {
	case 1:
		return "linear"
	case 2:
		return "quadratic"
	case 3:
		return "cubic"
	}
	return fmt.Sprintf("degree %d", m.Degree)
}

// CompareModels fits each requested polynomial degree and reports R².
// Degrees the data cannot support are skipped.
func CompareModels(x, y []float64, degrees ...int) ([]PolyModel, error) {
	if len(x) != len(y) {
		return nil, ErrLengthMismatch
	}
	if len(degrees) == 0 {
		degrees = []int{1, 2, 3}
	}
	var out []PolyModel
	for _, d := range degrees {
		coef, err := stats.PolyFit(x, y, d)
		if err != nil {
			continue
		}
		pred := make([]float64, len(x))
		for i, v := range x {
			pred[i] = stats.PolyEval(coef, v)
		}
		out = append(out, PolyModel{Degree: d, Coef: coef, R2: stats.RSquared(y, pred)})
	}
	if len(out) == 0 {
		return nil, errors.Wrapf(ErrTooFewPoints, "no polynomial model fits %d points", len(x))
	}
	return out, nil
}
