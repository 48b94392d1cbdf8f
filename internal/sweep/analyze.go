package sweep

import (
	"fmt"
	"math"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/chemlab/internal/stats"
)

const (
	Ru1   = "Ru1"
	Ru2   = "Ru2"
	Equal = "Equal"

	// optimalBand is the |difference| above which one complex counts as
	// clearly better for a point.
	optimalBand = 0.1
	// o2EffectBand is the change in mean difference between the lowest and
	// highest O2 levels worth reporting.
	o2EffectBand = 0.05
	significance = 0.05
)

var ErrNoRows = errors.New("sweep: no rows to analyze")

func winner(diff float64) string {
	switch {
	case diff > 0:
		return Ru1
	case diff < 0:
		return Ru2
	}
	return Equal
}

// Level summarises every row sharing one value of an axis.
type Level struct {
	Value    float64 `json:"value"`
	N        int     `json:"n"`
	MeanRu1  float64 `json:"mean_qy_ru1"`
	MeanRu2  float64 `json:"mean_qy_ru2"`
	MeanDiff float64 `json:"mean_difference"`
	Winner   string  `json:"winner"`
}

type Influence struct {
	Axis   string  `json:"axis"`
	Levels []Level `json:"levels"`
	// F and PValue are the one-way ANOVA of the difference across levels;
	// NaN when the axis has a single level or no within-level variance.
	F      float64 `json:"-"`
	PValue float64 `json:"-"`
}

type Pivot struct {
	RowAxis   string      `json:"row_axis"`
	ColAxis   string      `json:"col_axis"`
	RowValues []float64   `json:"row_values"`
	ColValues []float64   `json:"col_values"`
	Mean      [][]float64 `json:"-"` // NaN for empty cells
}

type Optimal struct {
	Complex    string             `json:"complex"`
	Count      int                `json:"count"`
	MostCommon map[string]float64 `json:"most_common"`
	BestDiff   float64            `json:"best_difference"`
	Best       Row                `json:"best"`
}

type Analysis struct {
	N          int          `json:"n"`
	Ru1Wins    int          `json:"ru1_wins"`
	Ru2Wins    int          `json:"ru2_wins"`
	Ties       int          `json:"ties"`
	Winner     string       `json:"winner"`
	MeanRu1    float64      `json:"mean_qy_ru1"`
	MeanRu2    float64      `json:"mean_qy_ru2"`
	TTest      *stats.TTest `json:"paired_t,omitempty"`
	Parameters []Influence  `json:"parameters"` // axis order
	Ranking    []Influence  `json:"-"`          // by F, descending
	Pivot      *Pivot       `json:"-"`
	Optimal    []Optimal    `json:"optimal"`
	Conclusion []string     `json:"conclusion"`
}

// Analyze compares the two complexes across a sweep: who wins where, which
// parameters move the QY difference most, and under which conditions each
// complex is clearly better.
func Analyze(res *Results) (*Analysis, error) {
	if res == nil || len(res.Rows) == 0 {
		return nil, ErrNoRows
	}
	rows := res.Rows
	n := len(rows)

	ru1 := make([]float64, n)
	ru2 := make([]float64, n)
	diff := make([]float64, n)
	for i, r := range rows {
		ru1[i], ru2[i], diff[i] = r.QYRu1, r.QYRu2, r.Difference()
	}

	a := &Analysis{N: n, MeanRu1: stat.Mean(ru1, nil), MeanRu2: stat.Mean(ru2, nil)}
	for _, d := range diff {
		switch winner(d) {
		case Ru1:
			a.Ru1Wins++
		case Ru2:
			a.Ru2Wins++
		default:
			a.Ties++
		}
	}
	a.Winner = Ru1
	if a.Ru2Wins > a.Ru1Wins && a.Ru2Wins >= a.Ties {
		a.Winner = Ru2
	} else if a.Ties > a.Ru1Wins && a.Ties > a.Ru2Wins {
		a.Winner = Equal
	}

	if tt, err := stats.PairedT(ru1, ru2); err == nil {
		a.TTest = &tt
	}

	for _, axis := range res.Axes {
		a.Parameters = append(a.Parameters, influence(res, axis))
	}
	for _, inf := range a.Parameters {
		if !math.IsNaN(inf.F) {
			a.Ranking = append(a.Ranking, inf)
		}
	}
	sort.SliceStable(a.Ranking, func(i, j int) bool { return a.Ranking[i].F > a.Ranking[j].F })

	var top []string
	for _, inf := range a.Ranking {
		top = append(top, inf.Axis)
	}
	if len(top) < 2 {
		top = res.Axes
	}
	if len(top) >= 2 {
		a.Pivot = pivot(res, top[0], top[1])
	}

	for _, c := range []string{Ru1, Ru2} {
		if o, ok := optimal(res, diff, c); ok {
			a.Optimal = append(a.Optimal, o)
		}
	}

	a.Conclusion = conclude(a, res)
	return a, nil
}

func levels(res *Results, axis string) []float64 {
	var vals []float64
	seen := make(map[float64]bool)
	for _, r := range res.Rows {
		v, ok := res.Value(r, axis)
		if ok && !seen[v] {
			seen[v] = true
			vals = append(vals, v)
		}
	}
	sort.Float64s(vals)
	return vals
}

func influence(res *Results, axis string) Influence {
	inf := Influence{Axis: axis, F: math.NaN(), PValue: math.NaN()}
	var groups [][]float64
	for _, v := range levels(res, axis) {
		var q1, q2, d []float64
		for _, r := range res.Rows {
			if x, _ := res.Value(r, axis); x == v {
				q1 = append(q1, r.QYRu1)
				q2 = append(q2, r.QYRu2)
				d = append(d, r.Difference())
			}
		}
		lv := Level{
			Value:    v,
			N:        len(d),
			MeanRu1:  stat.Mean(q1, nil),
			MeanRu2:  stat.Mean(q2, nil),
			MeanDiff: stat.Mean(d, nil),
		}
		lv.Winner = winner(lv.MeanDiff)
		inf.Levels = append(inf.Levels, lv)
		groups = append(groups, d)
	}
	if len(groups) > 1 {
		if an, err := stats.OneWayANOVA(groups...); err == nil {
			inf.F, inf.PValue = an.F, an.PValue
		}
	}
	return inf
}

func pivot(res *Results, rowAxis, colAxis string) *Pivot {
	p := &Pivot{
		RowAxis:   rowAxis,
		ColAxis:   colAxis,
		RowValues: levels(res, rowAxis),
		ColValues: levels(res, colAxis),
	}
	p.Mean = make([][]float64, len(p.RowValues))
	for i, rv := range p.RowValues {
		p.Mean[i] = make([]float64, len(p.ColValues))
		for j, cv := range p.ColValues {
			var d []float64
			for _, r := range res.Rows {
				x, _ := res.Value(r, rowAxis)
				y, _ := res.Value(r, colAxis)
				if x == rv && y == cv {
					d = append(d, r.Difference())
				}
			}
			p.Mean[i][j] = math.NaN()
			if len(d) > 0 {
				p.Mean[i][j] = stat.Mean(d, nil)
			}
		}
	}
	return p
}

// optimal collects the rows where complex c beats the other by more than
// optimalBand and reports the most frequent value of every axis among
// them (smallest value on ties).
func optimal(res *Results, diff []float64, c string) (Optimal, bool) {
	o := Optimal{Complex: c, MostCommon: make(map[string]float64)}
	var subset []Row
	for i, r := range res.Rows {
		if (c == Ru1 && diff[i] > optimalBand) || (c == Ru2 && diff[i] < -optimalBand) {
			subset = append(subset, r)
		}
	}
	if len(subset) == 0 {
		return o, false
	}
	o.Count = len(subset)

	for _, axis := range res.Axes {
		counts := make(map[float64]int)
		for _, r := range subset {
			v, _ := res.Value(r, axis)
			counts[v]++
		}
		best, bestN := math.Inf(1), 0
		for v, k := range counts {
			if k > bestN || (k == bestN && v < best) {
				best, bestN = v, k
			}
		}
		o.MostCommon[axis] = best
	}

	if c == Ru1 {
		i := floats.MaxIdx(diff)
		o.Best, o.BestDiff = res.Rows[i], diff[i]
	} else {
		i := floats.MinIdx(diff)
		o.Best, o.BestDiff = res.Rows[i], -diff[i]
	}
	return o, true
}

func conclude(a *Analysis, res *Results) []string {
	pct := func(k int) float64 { return 100 * float64(k) / float64(a.N) }
	var out []string
	out = append(out, fmt.Sprintf("Based on %d simulation runs:", a.N))
	switch {
	case a.Ru1Wins > a.Ru2Wins:
		out = append(out, fmt.Sprintf("Ru1 (surface) shows higher quantum yield in %d scenarios (%.1f%%) compared to Ru2 (core) with %d scenarios (%.1f%%).",
			a.Ru1Wins, pct(a.Ru1Wins), a.Ru2Wins, pct(a.Ru2Wins)))
	case a.Ru2Wins > a.Ru1Wins:
		out = append(out, fmt.Sprintf("Ru2 (core) shows higher quantum yield in %d scenarios (%.1f%%) compared to Ru1 (surface) with %d scenarios (%.1f%%).",
			a.Ru2Wins, pct(a.Ru2Wins), a.Ru1Wins, pct(a.Ru1Wins)))
	default:
		out = append(out, "Both complexes show equivalent performance across scenarios.")
	}
	out = append(out, fmt.Sprintf("Average QY: Ru1=%.4f, Ru2=%.4f", a.MeanRu1, a.MeanRu2))

	if a.TTest != nil {
		if a.TTest.PValue < significance {
			who := "Ru1 (surface)"
			if a.TTest.T < 0 {
				who = "Ru2 (core)"
			}
			out = append(out, fmt.Sprintf("Paired t-test t=%.4f p=%.4f: %s has significantly higher QY overall.", a.TTest.T, a.TTest.PValue, who))
		} else {
			out = append(out, fmt.Sprintf("Paired t-test t=%.4f p=%.4f: no statistically significant difference overall.", a.TTest.T, a.TTest.PValue))
		}
	}

	if lv := levels(res, NumO2); len(lv) > 1 {
		var lo, hi []float64
		for _, r := range res.Rows {
			v, _ := res.Value(r, NumO2)
			switch v {
			case lv[0]:
				lo = append(lo, r.Difference())
			case lv[len(lv)-1]:
				hi = append(hi, r.Difference())
			}
		}
		loDiff, hiDiff := stat.Mean(lo, nil), stat.Mean(hi, nil)
		if math.Abs(loDiff-hiDiff) > o2EffectBand {
			if loDiff > hiDiff {
				out = append(out, "At lower O2 concentrations, Ru1 (surface) has greater advantage.")
			} else {
				out = append(out, "At higher O2 concentrations, Ru2 (core) has greater advantage.")
			}
		}
	}

	if a.MeanRu1 > a.MeanRu2 {
		out = append(out, "Surface complexes (Ru1) generally show higher quantum yield: the density gradient slows O2 on its way into the particle.")
	} else {
		out = append(out, "Core complexes (Ru2) generally show higher quantum yield: the dense polymer shields them from mobile O2.")
	}
	return out
}
