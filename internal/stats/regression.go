package stats

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	ErrLengthMismatch = errors.New("stats: x and y lengths differ")
	ErrTooFewPoints   = errors.New("stats: not enough points")
	ErrDegenerate     = errors.New("stats: degenerate input (zero variance)")
)

// LinearFit is a straight-line least-squares fit y = Slope*x + Intercept
// with the standard errors and significance reported by scipy's linregress.
type LinearFit struct {
	Slope        float64
	Intercept    float64
	SlopeErr     float64
	InterceptErr float64
	R            float64
	R2           float64
	PValue       float64
	N            int
}

func (f LinearFit) Predict(x float64) float64 { return f.Slope*x + f.Intercept }

// Linregress needs at least three points so the residual variance has a
// positive number of degrees of freedom.
func Linregress(x, y []float64) (LinearFit, error) {
	if len(x) != len(y) {
		return LinearFit{}, ErrLengthMismatch
	}
	n := len(x)
	if n < 3 {
		return LinearFit{}, errors.Wrapf(ErrTooFewPoints, "linear regression needs 3, got %d", n)
	}

	xm := stat.Mean(x, nil)
	sxx := 0.0
	sx2 := 0.0
	for _, v := range x {
		sxx += (v - xm) * (v - xm)
		sx2 += v * v
	}
	if sxx == 0 {
		return LinearFit{}, errors.Wrap(ErrDegenerate, "all x values are equal")
	}

	intercept, slope := stat.LinearRegression(x, y, nil, false)

	ssr := 0.0
	for i := range x {
		res := y[i] - (slope*x[i] + intercept)
		ssr += res * res
	}
	df := float64(n - 2)
	slopeErr := math.Sqrt(ssr / df / sxx)

	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		// constant y: a perfect horizontal fit
		r = 0
	}

	fit := LinearFit{
		Slope:        slope,
		Intercept:    intercept,
		SlopeErr:     slopeErr,
		InterceptErr: slopeErr * math.Sqrt(sx2/float64(n)),
		R:            r,
		R2:           r * r,
		PValue:       correlationPValue(r, n),
		N:            n,
	}
	return fit, nil
}

// correlationPValue is the two-sided p-value for H0: slope == 0.
func correlationPValue(r float64, n int) float64 {
	df := float64(n - 2)
	if math.Abs(r) >= 1 {
		return 0
	}
	t := r * math.Sqrt(df/((1-r)*(1+r)))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return 2 * dist.Survival(math.Abs(t))
}

// LeastSquares is the bare two-parameter fit used inside exhaustive
// searches, where uncertainties are not needed. Two points are enough.
func LeastSquares(x, y []float64) (slope, intercept, mse float64, err error) {
	if len(x) != len(y) {
		return 0, 0, 0, ErrLengthMismatch
	}
	if len(x) < 2 {
		return 0, 0, 0, ErrTooFewPoints
	}
	if floats.Max(x) == floats.Min(x) {
		return 0, 0, 0, ErrDegenerate
	}
	intercept, slope = stat.LinearRegression(x, y, nil, false)
	for i := range x {
		res := y[i] - (slope*x[i] + intercept)
		mse += res * res
	}
	mse /= float64(len(x))
	return slope, intercept, mse, nil
}

// PolyFit returns least-squares polynomial coefficients, highest power first
// (numpy.polyfit order).
func PolyFit(x, y []float64, degree int) ([]float64, error) {
	if len(x) != len(y) {
		return nil, ErrLengthMismatch
	}
	if degree < 0 {
		return nil, errors.Errorf("stats: negative polynomial degree %d", degree)
	}
	if len(x) < degree+1 {
		return nil, errors.Wrapf(ErrTooFewPoints, "degree %d needs %d points, got %d", degree, degree+1, len(x))
	}

	cols := degree + 1
	a := mat.NewDense(len(x), cols, nil)
	for i, xv := range x {
		p := 1.0
		for j := cols - 1; j >= 0; j-- {
			a.Set(i, j, p)
			p *= xv
		}
	}

	var coef mat.VecDense
	if err := coef.SolveVec(a, mat.NewVecDense(len(y), append([]float64(nil), y...))); err != nil {
		// ill-conditioned systems still carry a usable solution
		if _, ok := err.(mat.Condition); !ok {
			return nil, errors.Wrap(ErrDegenerate, err.Error())
		}
	}
	out := make([]float64, cols)
	for i := range out {
		out[i] = coef.AtVec(i)
	}
	return out, nil
}

// PolyEval evaluates coefficients in PolyFit order with Horner's rule.
func PolyEval(coef []float64, x float64) float64 {
	v := 0.0
	for _, c := range coef {
		v = v*x + c
	}
	return v
}

// RSquared is the coefficient of determination of predictions against y.
func RSquared(y, predicted []float64) float64 {
	ym := stat.Mean(y, nil)
	ssRes, ssTot := 0.0, 0.0
	for i := range y {
		ssRes += (y[i] - predicted[i]) * (y[i] - predicted[i])
		ssTot += (y[i] - ym) * (y[i] - ym)
	}
	if ssTot == 0 {
		return math.NaN()
	}
	return 1 - ssRes/ssTot
}
