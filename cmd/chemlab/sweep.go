package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/san-kum/chemlab/internal/quench"
	"github.com/san-kum/chemlab/internal/storage"
	"github.com/san-kum/chemlab/internal/sweep"
	"github.com/san-kum/chemlab/internal/tui"
)

var (
	axes     []string
	minO2    int
	maxO2    int
	o2Steps  int
	maxLevel int
)

func sweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "run the parameter grid and compare Ru1 with Ru2",
		RunE:  runSweep,
	}
	addConfigFlags(cmd)
	addParamFlags(cmd)
	cmd.Flags().StringArrayVar(&axes, "axis", nil, "grid axis NAME=v1,v2,... (repeatable, replaces the configured grid)")
	cmd.Flags().BoolVar(&progress, "progress", false, "show an interactive progress view")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the sweep")
	return cmd
}

func o2StudyCmd() *cobra.Command {
	d := sweep.DefaultO2Study()
	cmd := &cobra.Command{
		Use:   "o2-study",
		Short: "quantum yield as a function of O2 count",
		RunE:  runO2Study,
	}
	addConfigFlags(cmd)
	addParamFlags(cmd)
	cmd.Flags().IntVar(&minO2, "min", d.MinO2, "smallest O2 count")
	cmd.Flags().IntVar(&maxO2, "max", d.MaxO2, "largest O2 count")
	cmd.Flags().IntVar(&o2Steps, "points", d.Steps, "number of O2 counts")
	cmd.Flags().BoolVar(&progress, "progress", false, "show an interactive progress view")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the study")
	return cmd
}

func analyzeSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze-sweep [csv_file|run_id]",
		Short: "analyze a sweep CSV or a stored sweep",
		Args:  cobra.ExactArgs(1),
		RunE:  runAnalyzeSweep,
	}
	cmd.Flags().IntVar(&maxLevel, "levels", 10, "levels shown per parameter")
	return cmd
}

// parseAxes turns NAME=v1,v2 flags into a grid.
func parseAxes(specs []string) (sweep.Grid, error) {
	var g sweep.Grid
	for _, s := range specs {
		name, list, ok := strings.Cut(s, "=")
		if !ok {
			return g, errors.Errorf("--axis %q: expected NAME=v1,v2,...", s)
		}
		axis := sweep.Axis{Name: strings.TrimSpace(name)}
		for _, f := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				return g, errors.Wrapf(err, "--axis %s", axis.Name)
			}
			axis.Values = append(axis.Values, v)
		}
		g.Axes = append(g.Axes, axis)
	}
	return g, g.Validate()
}

// execute runs work under the bubbletea progress view or, without
// --progress, reports progress through the logger.
func execute(ctx context.Context, title string, total int,
	work func(ctx context.Context, progress func(done, total int)) error) error {

	if progress {
		return tui.RunWithProgress(ctx, title, total, os.Stdout, work)
	}
	step := total / 10
	if step < 1 {
		step = 1
	}
	return work(ctx, func(done, total int) {
		if done%step == 0 || done == total {
			logger.Info(title, "done", done, "total", total)
		}
	})
}

func newRunner(base quench.Params, workers int) *sweep.Runner {
	r := sweep.NewRunner(base)
	r.Log = logger
	if workers > 0 {
		r.Workers = workers
	}
	return r
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, "sweep")
	if err != nil {
		return err
	}
	base := cfg.SweepBase()
	if err := applyParamFlags(cmd, &base); err != nil {
		return err
	}
	grid := cfg.Sweep.Grid
	if len(axes) > 0 {
		if grid, err = parseAxes(axes); err != nil {
			return err
		}
	}
	if err := grid.Validate(); err != nil {
		return err
	}

	runner := newRunner(base, cfg.Workers)
	logger.Info("starting sweep", "points", grid.Size(), "axes", strings.Join(grid.Names(), ","), "steps", base.Steps)

	start := time.Now()
	var res *sweep.Results
	err = execute(cmd.Context(), "sweep", grid.Size(), func(ctx context.Context, progress func(done, total int)) error {
		runner.Progress = progress
		var err error
		res, err = runner.Run(ctx, grid)
		return err
	})
	if err != nil {
		return err
	}
	logger.Info("sweep finished", "rows", len(res.Rows), "skipped", res.Skipped, "elapsed", time.Since(start).Round(time.Millisecond))

	a, err := sweep.Analyze(res)
	if err != nil {
		return err
	}
	printAnalysis(a)

	if noSave {
		return nil
	}
	id, err := saveSweep(base, grid, res, a, start)
	if err != nil {
		return err
	}
	fmt.Printf("\nsaved: %s\n", id)
	return nil
}

func saveSweep(base quench.Params, grid sweep.Grid, res *sweep.Results, a *sweep.Analysis, ts time.Time) (string, error) {
	st := storage.New(dataDir)
	meta := storage.RunMetadata{
		Kind:   "sweep",
		Seed:   base.Seed,
		Params: base.Fields(),
		Labels: map[string]string{
			"axes":      strings.Join(grid.Names(), ","),
			"placement": base.Placement.String(),
			"winner":    a.Winner,
		},
		Metrics: map[string]float64{
			"points":  float64(len(res.Rows)),
			"skipped": float64(res.Skipped),
			"qy_ru1":  a.MeanRu1,
			"qy_ru2":  a.MeanRu2,
		},
	}
	id, err := st.Save(meta)
	if err != nil {
		return "", errors.Wrap(err, "save sweep")
	}
	if err := st.WriteFile(id, "sweep.csv", func(w io.Writer) error { return sweep.WriteCSV(w, res) }); err != nil {
		return id, err
	}
	name := fmt.Sprintf("sweep_%s.json", ts.Format("20060102_150405"))
	if err := st.WriteFile(id, name, func(w io.Writer) error { return sweep.WriteJSON(w, base, grid, res, ts) }); err != nil {
		return id, err
	}
	return id, st.SaveJSON(id, "analysis.json", a)
}

func runO2Study(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, "o2-study")
	if err != nil {
		return err
	}
	study := cfg.Study()
	if err := applyParamFlags(cmd, &study.Base); err != nil {
		return err
	}
	f := cmd.Flags()
	if f.Changed("min") {
		study.MinO2 = minO2
	}
	if f.Changed("max") {
		study.MaxO2 = maxO2
	}
	if f.Changed("points") {
		study.Steps = o2Steps
	}

	runner := newRunner(study.Base, cfg.Workers)
	logger.Info("starting O2 study", "min", study.MinO2, "max", study.MaxO2, "points", study.Steps, "placement", study.Base.Placement)

	start := time.Now()
	var points []sweep.O2Point
	err = execute(cmd.Context(), "o2 study", study.Steps, func(ctx context.Context, progress func(done, total int)) error {
		runner.Progress = progress
		var err error
		points, err = runner.RunO2Study(ctx, study)
		return err
	})
	if err != nil {
		return err
	}

	printO2Study(study, points)

	if noSave {
		return nil
	}
	st := storage.New(dataDir)
	meta := storage.RunMetadata{
		Kind:   "o2_study",
		Seed:   study.Base.Seed,
		Params: study.Base.Fields(),
		Labels: map[string]string{"placement": study.Base.Placement.String()},
		Metrics: map[string]float64{
			"points": float64(len(points)),
			"min_o2": float64(study.MinO2),
			"max_o2": float64(study.MaxO2),
		},
	}
	id, err := st.Save(meta)
	if err != nil {
		return errors.Wrap(err, "save o2 study")
	}
	stamp := start.Format("20060102_150405")
	if err := st.WriteFile(id, "o2_study_"+stamp+".csv", func(w io.Writer) error { return sweep.WriteO2CSV(w, points) }); err != nil {
		return err
	}
	if err := st.WriteFile(id, "o2_study_"+stamp+".json", func(w io.Writer) error { return sweep.WriteO2JSON(w, study, points, start) }); err != nil {
		return err
	}
	fmt.Printf("\nsaved: %s\n", id)
	return nil
}

func printO2Study(study sweep.O2Study, points []sweep.O2Point) {
	fmt.Println(tui.Title("O2 concentration study"))
	fmt.Println(tui.KV("grid", "%d, placement %s", study.Base.GridSize, study.Base.Placement))

	rows := make([][]string, len(points))
	ru1 := make([]float64, len(points))
	ru2 := make([]float64, len(points))
	for i, p := range points {
		ru1[i], ru2[i] = p.QYRu1, p.QYRu2
		rows[i] = []string{
			strconv.Itoa(p.Requested),
			strconv.Itoa(p.Placed),
			fmt.Sprintf("%.4f", p.QYRu1),
			fmt.Sprintf("%.4f", p.QYRu2),
			fmt.Sprintf("%+.4f", p.QYRu1-p.QYRu2),
		}
	}
	fmt.Println(tui.Table([]string{"requested", "placed", "QY Ru1", "QY Ru2", "difference"}, rows))
	caption := fmt.Sprintf("quantum yield vs O2 count (%d..%d)", study.MinO2, study.MaxO2)
	if chart := tui.PlotMany([][]float64{ru1, ru2}, caption, "Ru1", "Ru2"); chart != "" {
		fmt.Println()
		fmt.Println(chart)
	}
}

func runAnalyzeSweep(cmd *cobra.Command, args []string) error {
	var r io.ReadCloser
	if _, err := os.Stat(args[0]); err == nil {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		r = f
	} else {
		f, err := storage.New(dataDir).Open(args[0], "sweep.csv")
		if err != nil {
			return errors.Wrapf(err, "%s is neither a file nor a stored sweep", args[0])
		}
		r = f
	}
	defer r.Close()

	res, err := sweep.ReadCSV(r)
	if err != nil {
		return errors.Wrap(err, args[0])
	}
	a, err := sweep.Analyze(res)
	if err != nil {
		return err
	}
	printAnalysis(a)
	return nil
}

func printAnalysis(a *sweep.Analysis) {
	fmt.Println(tui.Title(fmt.Sprintf("sweep analysis (%d points)", a.N)))
	fmt.Println(tui.KV("Ru1 wins", "%d (%.1f%%)", a.Ru1Wins, percent(a.Ru1Wins, a.N)))
	fmt.Println(tui.KV("Ru2 wins", "%d (%.1f%%)", a.Ru2Wins, percent(a.Ru2Wins, a.N)))
	fmt.Println(tui.KV("ties", "%d", a.Ties))
	fmt.Println(tui.KV("mean QY", "Ru1 %.4f  Ru2 %.4f", a.MeanRu1, a.MeanRu2))
	if a.TTest != nil {
		fmt.Println(tui.KV("paired t-test", "t = %.3f, p = %.4g (df %d)", a.TTest.T, a.TTest.PValue, a.TTest.DF))
	}
	fmt.Println(tui.KV("overall", "%s", tui.Species(a.Winner)))

	fmt.Println()
	fmt.Println(tui.Title("parameter influence"))
	rank := make([][]string, 0, len(a.Ranking))
	for _, inf := range a.Ranking {
		rank = append(rank, []string{inf.Axis, fmtStat(inf.F), fmtStat(inf.PValue), strconv.Itoa(len(inf.Levels))})
	}
	fmt.Println(tui.Table([]string{"parameter", "F", "p", "levels"}, rank))

	for _, inf := range a.Parameters {
		rows := make([][]string, 0, len(inf.Levels))
		for i, l := range inf.Levels {
			if maxLevel > 0 && i >= maxLevel {
				break
			}
			rows = append(rows, []string{
				strconv.FormatFloat(l.Value, 'g', -1, 64),
				strconv.Itoa(l.N),
				fmt.Sprintf("%.4f", l.MeanRu1),
				fmt.Sprintf("%.4f", l.MeanRu2),
				fmt.Sprintf("%+.4f", l.MeanDiff),
				tui.Species(l.Winner),
			})
		}
		fmt.Println(tui.Note("%s", inf.Axis))
		fmt.Println(tui.Table([]string{"value", "n", "Ru1", "Ru2", "difference", "better"}, rows))
	}

	if p := a.Pivot; p != nil {
		fmt.Println()
		fmt.Println(tui.Title(fmt.Sprintf("mean difference: %s x %s", p.RowAxis, p.ColAxis)))
		headers := []string{p.RowAxis}
		for _, c := range p.ColValues {
			headers = append(headers, strconv.FormatFloat(c, 'g', -1, 64))
		}
		rows := make([][]string, len(p.RowValues))
		for i, rv := range p.RowValues {
			rows[i] = []string{strconv.FormatFloat(rv, 'g', -1, 64)}
			for _, m := range p.Mean[i] {
				rows[i] = append(rows[i], fmtStat(m))
			}
		}
		fmt.Println(tui.Table(headers, rows))
	}

	if len(a.Optimal) > 0 {
		fmt.Println()
		fmt.Println(tui.Title("optimal conditions"))
		for _, o := range a.Optimal {
			var parts []string
			for _, k := range sortedKeys(o.MostCommon) {
				parts = append(parts, fmt.Sprintf("%s=%g", k, o.MostCommon[k]))
			}
			fmt.Println(tui.KV(o.Complex, "%d points better by > 0.1; typical %s; best %+.4f",
				o.Count, strings.Join(parts, " "), o.BestDiff))
		}
	}

	fmt.Println()
	fmt.Println(tui.Title("conclusion"))
	for _, line := range a.Conclusion {
		fmt.Println("  " + line)
	}
}

func fmtStat(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.4g", v)
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(n) / float64(total)
}
