package quench

import (
	"context"
	"log/slog"
	"runtime"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// Ensemble repeats one parameter set over consecutive seeds.
type Ensemble struct {
	params    Params
	runs      int
	seedStart int64
	workers   int
	log       *slog.Logger
}

func NewEnsemble(p Params, runs int, seedStart int64) *Ensemble {
	return &Ensemble{params: p, runs: runs, seedStart: seedStart, workers: runtime.NumCPU(), log: slog.Default()}
}

func (e *Ensemble) SetWorkers(n int) {
	if n > 0 {
		e.workers = n
	}
}

func (e *Ensemble) SetLogger(l *slog.Logger) {
	if l != nil {
		e.log = l
	}
}

// Run executes every replica, run i with seed seedStart+i. Results are in
// seed order; the first failure cancels the rest.
func (e *Ensemble) Run(ctx context.Context) ([]*Result, error) {
	results := make([]*Result, e.runs)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i := 0; i < e.runs; i++ {
		idx := i
		g.Go(func() error {
			p := e.params
			p.Seed = e.seedStart + int64(idx)

			s, err := New(p)
			if err != nil {
				return err
			}
			s.SetLogger(e.log.With("seed", p.Seed))
			res, err := s.Run(ctx)
			if err != nil {
				return errors.Wrapf(err, "replica %d", idx)
			}
			results[idx] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

type Spread struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

// EnsembleSummary is the across-seed mean and sample standard deviation of
// each species' quantum yield.
type EnsembleSummary struct {
	Runs int    `json:"runs"`
	Ru1  Spread `json:"ru1_qy"`
	Ru2  Spread `json:"ru2_qy"`
	Diff Spread `json:"difference"`
}

func Summarize(results []*Result) EnsembleSummary {
	ru1 := make([]float64, len(results))
	ru2 := make([]float64, len(results))
	diff := make([]float64, len(results))
	for i, r := range results {
		ru1[i], ru2[i], diff[i] = r.Ru1.QY(), r.Ru2.QY(), r.Difference()
	}
	return EnsembleSummary{
		Runs: len(results),
		Ru1:  spread(ru1),
		Ru2:  spread(ru2),
		Diff: spread(diff),
	}
}

func spread(x []float64) Spread {
	switch len(x) {
	case 0:
		return Spread{}
	case 1:
		return Spread{Mean: x[0]}
	}
	m, s := stat.MeanStdDev(x, nil)
	return Spread{Mean: m, Std: s}
}
