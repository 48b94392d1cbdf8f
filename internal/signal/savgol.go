package signal

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/chemlab/internal/stats"
)

var ErrWindow = errors.New("signal: invalid smoothing window")

// SavitzkyGolay smooths y with a least-squares polynomial of the given order
// over a sliding odd-length window. The half-window at each edge is taken
// from a polynomial fitted to the first (last) window points, matching
// scipy's mode="interp".
func SavitzkyGolay(y []float64, window, order int) ([]float64, error) {
	switch {
	case window%2 == 0:
		return nil, errors.Wrapf(ErrWindow, "window %d must be odd", window)
	case window <= order:
		return nil, errors.Wrapf(ErrWindow, "window %d must exceed polynomial order %d", window, order)
	case window > len(y):
		return nil, errors.Wrapf(ErrWindow, "window %d longer than signal (%d points)", window, len(y))
	case order < 0:
		return nil, errors.Wrapf(ErrWindow, "negative polynomial order %d", order)
	}

	coef, err := savgolCoefficients(window, order)
	if err != nil {
		return nil, err
	}

	n := len(y)
	half := window / 2
	out := make([]float64, n)
	for i := half; i < n-half; i++ {
		s := 0.0
		for k, c := range coef {
			s += c * y[i-half+k]
		}
		out[i] = s
	}

	pos := make([]float64, window)
	for i := range pos {
		pos[i] = float64(i)
	}

	head, err := stats.PolyFit(pos, y[:window], order)
	if err != nil {
		return nil, errors.Wrap(err, "fit leading edge")
	}
	for i := 0; i < half; i++ {
		out[i] = stats.PolyEval(head, float64(i))
	}

	tail, err := stats.PolyFit(pos, y[n-window:], order)
	if err != nil {
		return nil, errors.Wrap(err, "fit trailing edge")
	}
	for i := n - half; i < n; i++ {
		out[i] = stats.PolyEval(tail, float64(i-(n-window)))
	}

	return out, nil
}

// savgolCoefficients returns the convolution weights that evaluate the
// fitted polynomial at the window centre: row 0 of (AᵀA)⁻¹Aᵀ with A the
// Vandermonde matrix of offsets -half..half.
func savgolCoefficients(window, order int) ([]float64, error) {
	half := window / 2
	cols := order + 1
	a := mat.NewDense(window, cols, nil)
	for i := 0; i < window; i++ {
		off := float64(i - half)
		p := 1.0
		for j := 0; j < cols; j++ {
			a.Set(i, j, p)
			p *= off
		}
	}

	var ata mat.Dense
	ata.Mul(a.T(), a)

	var proj mat.Dense
	if err := proj.Solve(&ata, a.T()); err != nil {
		if _, ok := err.(mat.Condition); !ok {
			return nil, errors.Wrap(err, "savitzky-golay normal equations")
		}
	}

	coef := make([]float64, window)
	for i := range coef {
		coef[i] = proj.At(0, i)
	}
	return coef, nil
}
