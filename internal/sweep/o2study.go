package sweep

import (
	"context"
	"math"

	"github.com/pkg/errors"

	"github.com/san-kum/chemlab/internal/quench"
)

// O2Study varies only the O2 count, with O2 scattered in proportion to the
// polymer density.
type O2Study struct {
	Base  quench.Params `yaml:"base" json:"base"`
	MinO2 int           `yaml:"min_o2" json:"min_o2"`
	MaxO2 int           `yaml:"max_o2" json:"max_o2"`
	Steps int           `yaml:"o2_steps" json:"o2_steps"`
}

func DefaultO2Study() O2Study {
	base := quench.DefaultParams()
	base.GridSize = 100
	base.Placement = quench.DensityWeighted
	return O2Study{Base: base, MinO2: 10, MaxO2: 200, Steps: 10}
}

// Counts are Steps evenly spaced values from MinO2 to MaxO2, rounded to the
// nearest integer.
func (st O2Study) Counts() []int {
	switch {
	case st.Steps <= 0:
		return nil
	case st.Steps == 1:
		return []int{st.MinO2}
	}
	out := make([]int, st.Steps)
	span := float64(st.MaxO2 - st.MinO2)
	for i := range out {
		out[i] = int(math.Round(float64(st.MinO2) + span*float64(i)/float64(st.Steps-1)))
	}
	return out
}

type O2Point struct {
	Requested int     `json:"requested_o2"`
	Placed    int     `json:"o2_count"`
	QYRu1     float64 `json:"ru1_qy"`
	QYRu2     float64 `json:"ru2_qy"`
}

func (st O2Study) Grid() Grid {
	counts := st.Counts()
	values := make([]float64, len(counts))
	for i, c := range counts {
		values[i] = float64(c)
	}
	return Grid{Axes: []Axis{{Name: NumO2, Values: values}}}
}

// RunO2Study runs the study through the runner's worker pool. The study's
// base parameters replace the runner's.
func (r *Runner) RunO2Study(ctx context.Context, st O2Study) ([]O2Point, error) {
	if st.Steps <= 0 || st.MinO2 < 0 || st.MaxO2 < st.MinO2 {
		return nil, errors.Wrapf(ErrGrid, "o2 study range %d..%d in %d steps", st.MinO2, st.MaxO2, st.Steps)
	}
	sub := *r
	sub.Base = st.Base
	res, err := sub.Run(ctx, st.Grid())
	if err != nil {
		return nil, err
	}
	out := make([]O2Point, len(res.Rows))
	for i, row := range res.Rows {
		out[i] = O2Point{
			Requested: int(row.Values[0]),
			Placed:    row.PlacedO2,
			QYRu1:     row.QYRu1,
			QYRu2:     row.QYRu2,
		}
	}
	return out, nil
}
