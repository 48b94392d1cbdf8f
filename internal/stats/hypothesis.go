package stats

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

type TTest struct {
	T      float64
	PValue float64
	DF     int
}

// PairedT tests whether the mean of a[i]-b[i] differs from zero.
func PairedT(a, b []float64) (TTest, error) {
	if len(a) != len(b) {
		return TTest{}, ErrLengthMismatch
	}
	n := len(a)
	if n < 2 {
		return TTest{}, errors.Wrapf(ErrTooFewPoints, "paired t-test needs 2 pairs, got %d", n)
	}
	d := make([]float64, n)
	for i := range a {
		d[i] = a[i] - b[i]
	}
	mean, sd := stat.MeanStdDev(d, nil)
	if sd == 0 {
		return TTest{}, errors.Wrap(ErrDegenerate, "all paired differences are equal")
	}
	t := mean / (sd / math.Sqrt(float64(n)))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 1)}
	return TTest{T: t, PValue: 2 * dist.Survival(math.Abs(t)), DF: n - 1}, nil
}

type ANOVA struct {
	F        float64
	PValue   float64
	DFGroups int
	DFError  int
}

// OneWayANOVA compares the means of two or more groups.
func OneWayANOVA(groups ...[]float64) (ANOVA, error) {
	k := 0
	total := 0
	sum := 0.0
	for _, g := range groups {
		if len(g) == 0 {
			continue
		}
		k++
		total += len(g)
		for _, v := range g {
			sum += v
		}
	}
	if k < 2 {
		return ANOVA{}, errors.Wrap(ErrTooFewPoints, "anova needs at least two non-empty groups")
	}
	if total <= k {
		return ANOVA{}, errors.Wrap(ErrTooFewPoints, "anova needs more observations than groups")
	}
	grand := sum / float64(total)

	ssb, ssw := 0.0, 0.0
	for _, g := range groups {
		if len(g) == 0 {
			continue
		}
		m := stat.Mean(g, nil)
		ssb += float64(len(g)) * (m - grand) * (m - grand)
		for _, v := range g {
			ssw += (v - m) * (v - m)
		}
	}
	dfb, dfw := k-1, total-k
	if ssw == 0 {
		return ANOVA{}, errors.Wrap(ErrDegenerate, "no variance within groups")
	}
	f := (ssb / float64(dfb)) / (ssw / float64(dfw))
	dist := distuv.F{D1: float64(dfb), D2: float64(dfw)}
	return ANOVA{F: f, PValue: dist.Survival(f), DFGroups: dfb, DFError: dfw}, nil
}

// Pearson returns the correlation coefficient and its two-sided p-value.
func Pearson(x, y []float64) (r, p float64, err error) {
	if len(x) != len(y) {
		return 0, 0, ErrLengthMismatch
	}
	if len(x) < 3 {
		return 0, 0, ErrTooFewPoints
	}
	r = stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		return 0, 0, errors.Wrap(ErrDegenerate, "constant input")
	}
	return r, correlationPValue(r, len(x)), nil
}
