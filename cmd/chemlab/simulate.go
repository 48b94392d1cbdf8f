package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/san-kum/chemlab/internal/quench"
	"github.com/san-kum/chemlab/internal/storage"
	"github.com/san-kum/chemlab/internal/tui"
)

var (
	seed       int64
	steps      int
	numRu1     int
	numRu2     int
	numO2      int
	gridSize   int
	coreRadius float64
	steepness  float64
	lifetime   int
	placement  string
	runs       int
	overrides  []string
	noSave     bool
)

func simulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "run the Ru(bpy) quenching simulation",
		RunE:  runSimulate,
	}
	addConfigFlags(cmd)
	addParamFlags(cmd)
	cmd.Flags().IntVar(&runs, "runs", 1, "replicas over consecutive seeds")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	return cmd
}

// addParamFlags registers the per-parameter overrides. --set reaches every
// numeric parameter by its config name.
func addParamFlags(cmd *cobra.Command) {
	d := quench.DefaultParams()
	cmd.Flags().Int64Var(&seed, "seed", d.Seed, "random seed")
	cmd.Flags().IntVar(&steps, "steps", d.Steps, "simulation ticks")
	cmd.Flags().IntVar(&numRu1, "ru1", d.NumRu1, "surface complexes")
	cmd.Flags().IntVar(&numRu2, "ru2", d.NumRu2, "core complexes")
	cmd.Flags().IntVar(&numO2, "o2", d.NumO2, "O2 quenchers")
	cmd.Flags().IntVar(&gridSize, "grid", d.GridSize, "grid size")
	cmd.Flags().Float64Var(&coreRadius, "core-radius", d.CoreRadius, "particle core radius")
	cmd.Flags().Float64Var(&steepness, "steepness", d.DensitySteepness, "density sigmoid steepness")
	cmd.Flags().IntVar(&lifetime, "lifetime", d.ExcitedLifetime, "excited-state lifetime in ticks")
	cmd.Flags().StringVar(&placement, "placement", d.Placement.String(), "O2 placement (low_density, density_weighted)")
	cmd.Flags().StringArrayVar(&overrides, "set", nil, "parameter override key=value (repeatable)")
}

func applyParamFlags(cmd *cobra.Command, p *quench.Params) error {
	f := cmd.Flags()
	if f.Changed("seed") {
		p.Seed = seed
	}
	if f.Changed("steps") {
		p.Steps = steps
	}
	if f.Changed("ru1") {
		p.NumRu1 = numRu1
	}
	if f.Changed("ru2") {
		p.NumRu2 = numRu2
	}
	if f.Changed("o2") {
		p.NumO2 = numO2
	}
	if f.Changed("grid") {
		p.GridSize = gridSize
	}
	if f.Changed("core-radius") {
		p.CoreRadius = coreRadius
	}
	if f.Changed("steepness") {
		p.DensitySteepness = steepness
	}
	if f.Changed("lifetime") {
		p.ExcitedLifetime = lifetime
	}
	if f.Changed("placement") {
		pl, err := quench.ParsePlacement(placement)
		if err != nil {
			return err
		}
		p.Placement = pl
	}
	for _, kv := range overrides {
		key, val, ok := strings.Cut(kv, "=")
		if !ok {
			return errors.Errorf("--set %q: expected key=value", kv)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return errors.Wrapf(err, "--set %s", key)
		}
		if err := p.Set(strings.TrimSpace(key), v); err != nil {
			return err
		}
	}
	return p.Validate()
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, "simulate")
	if err != nil {
		return err
	}
	p := cfg.Simulation
	if err := applyParamFlags(cmd, &p); err != nil {
		return err
	}
	if cmd.Flags().Changed("runs") {
		cfg.Runs = runs
	}

	if cfg.Runs > 1 {
		return runEnsemble(cmd, p, cfg.Runs, cfg.Workers)
	}

	sim, err := quench.New(p)
	if err != nil {
		return err
	}
	sim.SetLogger(logger)
	trace := &quench.Trace{}
	sim.AddObserver(trace)

	logger.Info("simulating", "seed", p.Seed, "steps", p.Steps, "o2", p.NumO2, "placement", p.Placement)
	res, err := sim.Run(cmd.Context())
	if err != nil {
		return err
	}

	printResult(res)
	if chart := tui.PlotMany([][]float64{trace.Ru1, trace.Ru2}, "running quantum yield per tick", "Ru1", "Ru2"); chart != "" {
		fmt.Println()
		fmt.Println(chart)
	}

	if noSave {
		return nil
	}
	st := storage.New(dataDir)
	id, err := st.SaveSimulation(res)
	if err != nil {
		return errors.Wrap(err, "save run")
	}
	if err := st.SaveJSON(id, "result.json", res); err != nil {
		return errors.Wrap(err, "save result")
	}
	fmt.Printf("\nsaved: %s\n", id)
	return nil
}

func printResult(res *quench.Result) {
	p := res.Params
	fmt.Println(tui.Title("quenching simulation"))
	fmt.Println(tui.KV("grid", "%d x %d, core radius %g, shell %g", p.GridSize, p.GridSize, p.CoreRadius, p.SurfaceThickness))
	fmt.Println(tui.KV("placed", "Ru1 %d/%d  Ru2 %d/%d  O2 %d/%d",
		res.Placed.Ru1, p.NumRu1, res.Placed.Ru2, p.NumRu2, res.Placed.O2, p.NumO2))
	fmt.Println(tui.KV("steps", "%d (%s)", res.Steps, res.Runtime.Round(time.Microsecond)))
	fmt.Println()

	rows := make([][]string, 0, 2)
	for _, t := range []quench.Tally{res.Ru1, res.Ru2} {
		rows = append(rows, []string{
			tui.Species(t.Species.String()),
			strconv.Itoa(t.Complexes),
			strconv.Itoa(t.Excitations),
			strconv.Itoa(t.Emissions),
			strconv.Itoa(t.Quenched),
			fmt.Sprintf("%.4f", t.QY()),
			fmt.Sprintf("%.2f", t.MeanDuration),
			fmt.Sprintf("%.3f", t.MeanDistance),
		})
	}
	fmt.Println(tui.Table([]string{"complex", "n", "excited", "emitted", "quenched", "QY", "mean life", "quench dist"}, rows))

	q := res.Quenchers
	fmt.Println(tui.KV("O2 quenches", "%d (%d active, %.2f per molecule)", q.Quenches, q.Active, q.MeanQuenches))
	fmt.Println(tui.KV("O2 mean path", "%.2f (speed %.3f/tick)", q.MeanPath, q.MeanSpeed))
	fmt.Println(tui.KV("QY difference", "%+.4f", res.Difference()))
}

func runEnsemble(cmd *cobra.Command, p quench.Params, n, workers int) error {
	ens := quench.NewEnsemble(p, n, p.Seed)
	ens.SetWorkers(workers)
	ens.SetLogger(logger)

	logger.Info("running ensemble", "runs", n, "seed_start", p.Seed)
	results, err := ens.Run(cmd.Context())
	if err != nil {
		return err
	}
	sum := quench.Summarize(results)

	fmt.Println(tui.Title(fmt.Sprintf("ensemble of %d runs", sum.Runs)))
	rows := make([][]string, len(results))
	ru1 := make([]float64, len(results))
	ru2 := make([]float64, len(results))
	for i, r := range results {
		ru1[i], ru2[i] = r.Ru1.QY(), r.Ru2.QY()
		rows[i] = []string{
			strconv.FormatInt(r.Params.Seed, 10),
			fmt.Sprintf("%.4f", ru1[i]),
			fmt.Sprintf("%.4f", ru2[i]),
			fmt.Sprintf("%+.4f", r.Difference()),
		}
	}
	fmt.Println(tui.Table([]string{"seed", "QY Ru1", "QY Ru2", "difference"}, rows))
	fmt.Println(tui.KV("QY Ru1", "%.4f ± %.4f", sum.Ru1.Mean, sum.Ru1.Std))
	fmt.Println(tui.KV("QY Ru2", "%.4f ± %.4f", sum.Ru2.Mean, sum.Ru2.Std))
	fmt.Println(tui.KV("difference", "%+.4f ± %.4f", sum.Diff.Mean, sum.Diff.Std))
	if chart := tui.PlotMany([][]float64{ru1, ru2}, "quantum yield by seed", "Ru1", "Ru2"); chart != "" {
		fmt.Println()
		fmt.Println(chart)
	}

	if noSave {
		return nil
	}
	st := storage.New(dataDir)
	meta := storage.RunMetadata{
		Kind:   "ensemble",
		Seed:   p.Seed,
		Params: p.Fields(),
		Labels: map[string]string{"placement": p.Placement.String()},
		Metrics: map[string]float64{
			"runs":              float64(sum.Runs),
			"qy_ru1":            sum.Ru1.Mean,
			"qy_ru1_std":        sum.Ru1.Std,
			"qy_ru2":            sum.Ru2.Mean,
			"qy_ru2_std":        sum.Ru2.Std,
			"qy_difference":     sum.Diff.Mean,
			"qy_difference_std": sum.Diff.Std,
		},
	}
	table := storage.Table{Name: "replicas.csv", Header: []string{"seed", "qy_ru1", "qy_ru2", "difference"}}
	for i, r := range results {
		table.Rows = append(table.Rows, []float64{float64(r.Params.Seed), ru1[i], ru2[i], r.Difference()})
	}
	id, err := st.Save(meta, table)
	if err != nil {
		return errors.Wrap(err, "save ensemble")
	}
	fmt.Printf("\nsaved: %s\n", id)
	return nil
}
