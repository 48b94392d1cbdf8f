package sweep

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/chemlab/internal/quench"
)

// Row is one completed grid point.
type Row struct {
	Index     int       `json:"index"`
	Values    []float64 `json:"values"`
	QYRu1     float64   `json:"qy_ru1"`
	QYRu2     float64   `json:"qy_ru2"`
	EventsRu1 int       `json:"ru1_events"`
	EventsRu2 int       `json:"ru2_events"`
	PlacedO2  int       `json:"placed_o2"`
}

// Difference is QY(Ru1) - QY(Ru2); positive favours the surface complex.
func (r Row) Difference() float64 { return r.QYRu1 - r.QYRu2 }

type Results struct {
	Axes    []string `json:"axes"`
	Rows    []Row    `json:"rows"`
	Skipped int      `json:"skipped"`
}

// Value returns the row's value on the named axis.
func (r *Results) Value(row Row, axis string) (float64, bool) {
	for i, a := range r.Axes {
		if a == axis && i < len(row.Values) {
			return row.Values[i], true
		}
	}
	return 0, false
}

// Runner executes grid points concurrently. Point i runs with seed
// Base.Seed+i, so a sweep is reproducible regardless of scheduling.
type Runner struct {
	Base     quench.Params
	Workers  int
	Progress func(done, total int)
	Log      *slog.Logger
}

func NewRunner(base quench.Params) *Runner {
	return &Runner{Base: base, Workers: runtime.NumCPU(), Log: slog.Default()}
}

// Run skips points where a species could not be placed; any other failure
// aborts the sweep.
func (r *Runner) Run(ctx context.Context, grid Grid) (*Results, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}

	points := grid.Points()
	params := make([]quench.Params, len(points))
	for i, pt := range points {
		p, err := grid.Apply(r.Base, pt)
		if err != nil {
			return nil, err
		}
		p.Seed = r.Base.Seed + int64(i)
		if err := p.Validate(); err != nil {
			return nil, errors.Wrapf(err, "grid point %d", i)
		}
		params[i] = p
	}

	rows := make([]*Row, len(points))
	total := len(points)
	var (
		mu   sync.Mutex
		done int
	)
	report := func() {
		mu.Lock()
		done++
		if r.Progress != nil {
			r.Progress(done, total)
		}
		mu.Unlock()
	}

	workers := r.Workers
	if workers <= 0 {
		workers = 1
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range points {
		idx := i
		g.Go(func() error {
			defer report()

			s, err := quench.New(params[idx])
			if err != nil {
				return err
			}
			s.SetLogger(r.logger().With("point", idx))
			s.RequireComplexes()

			res, err := s.Run(ctx)
			if errors.Is(err, quench.ErrPlacement) {
				r.logger().Warn("skipping grid point", "point", idx, "values", points[idx], "err", err)
				return nil
			}
			if err != nil {
				return errors.Wrapf(err, "grid point %d", idx)
			}

			rows[idx] = &Row{
				Index:     idx,
				Values:    points[idx],
				QYRu1:     res.Ru1.QY(),
				QYRu2:     res.Ru2.QY(),
				EventsRu1: res.Ru1.Events(),
				EventsRu2: res.Ru2.Events(),
				PlacedO2:  res.Placed.O2,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &Results{Axes: grid.Names(), Rows: make([]Row, 0, len(rows))}
	for _, row := range rows {
		if row == nil {
			out.Skipped++
			continue
		}
		out.Rows = append(out.Rows, *row)
	}
	return out, nil
}

func (r *Runner) logger() *slog.Logger {
	if r.Log == nil {
		return slog.Default()
	}
	return r.Log
}
