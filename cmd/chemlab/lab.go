package main

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/san-kum/chemlab/internal/dataset"
	"github.com/san-kum/chemlab/internal/epr"
	"github.com/san-kum/chemlab/internal/spectroscopy"
	"github.com/san-kum/chemlab/internal/stats"
	"github.com/san-kum/chemlab/internal/titration"
	"github.com/san-kum/chemlab/internal/tui"
	"github.com/san-kum/chemlab/internal/voltammetry"
)

// The analysis commands keep their flags in per-command structs because
// their defaults differ for the same flag names.

// columnOptions are the reader flags shared by the two-column commands.
type columnOptions struct {
	skip   int
	header bool
	tabs   bool
}

func (o *columnOptions) register(cmd *cobra.Command, skip int) {
	cmd.Flags().IntVar(&o.skip, "skip", skip, "leading lines to drop")
	cmd.Flags().BoolVar(&o.header, "header", false, "first data line names the columns")
	cmd.Flags().BoolVar(&o.tabs, "tabs", false, "tab separated instead of whitespace")
}

func (o columnOptions) read(path string) (dataset.Columns, error) {
	opts := dataset.Options{SkipLines: o.skip, Header: o.header}
	if o.tabs {
		opts.Delimiter = dataset.Tab
	}
	return readColumns(path, opts)
}

func readColumns(path string, opts dataset.Options) (dataset.Columns, error) {
	cols, err := dataset.ReadColumnsFile(path, opts)
	if err != nil {
		return cols, err
	}
	if cols.Skipped > 0 {
		logger.Warn("dropped malformed rows", "file", path, "rows", cols.Skipped)
	}
	return cols, nil
}

type cmcOptions struct {
	columns    columnOptions
	stock      float64
	initial    float64
	minSegment int
}

func cmcCmd() *cobra.Command {
	o := &cmcOptions{}
	cmd := &cobra.Command{
		Use:   "cmc [file]",
		Short: "critical micelle concentration from a conductometric titration",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCMC(o, args)
		},
	}
	o.columns.register(cmd, 0)
	cmd.Flags().Float64Var(&o.stock, "stock", titration.DefaultStock, "surfactant stock concentration (mol/L)")
	cmd.Flags().Float64Var(&o.initial, "initial", titration.DefaultInitialVolume, "initial volume (mL)")
	cmd.Flags().IntVar(&o.minSegment, "min-segment", titration.DefaultMinSegment, "minimum points per segment (at least 2)")
	return cmd
}

func runCMC(o *cmcOptions, args []string) error {
	volume, kappa := titration.SampleSDSVolume, titration.SampleSDSConductivity
	source := "bundled SDS titration"
	if len(args) == 1 {
		cols, err := o.columns.read(args[0])
		if err != nil {
			return err
		}
		volume, kappa, source = cols.X, cols.Y, args[0]
	}

	conc := titration.Concentrations(volume, o.stock, o.initial)
	pw, err := titration.Breakpoint(conc, kappa, o.minSegment)
	if err != nil {
		return err
	}
	models, err := titration.CompareModels(conc, kappa, 1, 2, 3)
	if err != nil {
		return err
	}

	fmt.Println(tui.Title("critical micelle concentration"))
	fmt.Println(tui.KV("data", "%s (%d points)", source, len(conc)))
	fmt.Println(tui.KV("CMC", "%.6f mol/L (%.3f mM)", pw.Breakpoint, pw.Breakpoint*1000))
	fmt.Println(tui.KV("pre-micellar", "slope %.4g, intercept %.4g (%d points)", pw.Left.Slope, pw.Left.Intercept, pw.Left.N))
	fmt.Println(tui.KV("post-micellar", "slope %.4g, intercept %.4g (%d points)", pw.Right.Slope, pw.Right.Intercept, pw.Right.N))
	if pw.Left.Slope != 0 {
		fmt.Println(tui.KV("slope ratio", "%.3f", pw.Right.Slope/pw.Left.Slope))
	}
	fmt.Println(tui.KV("segment MSE", "%.4g", pw.Score))

	rows := make([][]string, len(models))
	for i, m := range models {
		rows[i] = []string{m.Name(), fmt.Sprintf("%.6f", m.R2)}
	}
	fmt.Println(tui.Table([]string{"model", "R²"}, rows))

	fit := make([]float64, len(conc))
	for i, c := range conc {
		fit[i] = pw.Predict(c)
	}
	fmt.Println(tui.PlotMany([][]float64{kappa, fit}, "conductivity per titrant addition", "measured", "two-segment fit"))
	return nil
}

type ostwaldOptions struct {
	volumeCol string
	condCol   string
	params    titration.OstwaldParams
}

func ostwaldCmd() *cobra.Command {
	o := &ostwaldOptions{}
	d := titration.DefaultOstwaldParams()
	cmd := &cobra.Command{
		Use:   "ostwald [file]",
		Short: "Ostwald dilution law fit for a weak acid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOstwald(o, args[0])
		},
	}
	cmd.Flags().StringVar(&o.volumeCol, "volume-col", "Volume of Acetic Acid(ml)", "volume column header")
	cmd.Flags().StringVar(&o.condCol, "conductance-col", "Conductance in microsimen(G)", "conductance column header")
	cmd.Flags().Float64Var(&o.params.InitialVolume, "initial", d.InitialVolume, "initial volume (mL)")
	cmd.Flags().Float64Var(&o.params.Stock, "stock", d.Stock, "acid stock normality")
	cmd.Flags().Float64Var(&o.params.MolarMass, "molar-mass", d.MolarMass, "acid molar mass (g/mol)")
	return cmd
}

func runOstwald(o *ostwaldOptions, path string) error {
	t, err := dataset.ReadTableFile(path)
	if err != nil {
		return err
	}
	if t.Skipped > 0 {
		logger.Warn("dropped malformed rows", "file", path, "rows", t.Skipped)
	}
	volume, err := t.Column(o.volumeCol)
	if err != nil {
		return err
	}
	g, err := t.Column(o.condCol)
	if err != nil {
		return err
	}

	res, err := titration.Ostwald(volume, g, o.params)
	if err != nil {
		return err
	}

	fmt.Println(tui.Title("ostwald dilution law"))
	rows := make([][]string, len(res.Points))
	invG := make([]float64, len(res.Points))
	for i, p := range res.Points {
		invG[i] = p.InvG
		rows[i] = []string{
			strconv.FormatFloat(p.Volume, 'g', -1, 64),
			fmt.Sprintf("%.4g", p.Conductance),
			fmt.Sprintf("%.5f", p.Concentration),
			fmt.Sprintf("%.5g", p.InvG),
			fmt.Sprintf("%.5g", p.GC),
		}
	}
	fmt.Println(tui.Table([]string{"V (mL)", "G", "c (g/L)", "1/G", "G·c"}, rows))
	printFit("1/G vs G·c", res.Fit)
	fmt.Println(tui.KV("G0", "%.5g", res.G0))
	fmt.Println(tui.KV("Ka", "%.5g", res.Ka))
	fmt.Println(tui.Plot(invG, "1/G per dilution step"))
	return nil
}

type sternVolmerOptions struct {
	columns columnOptions
	params  titration.SternVolmerParams
	area    bool
}

func sternVolmerCmd() *cobra.Command {
	o := &sternVolmerOptions{}
	d := titration.DefaultSternVolmerParams()
	cmd := &cobra.Command{
		Use:   "stern-volmer [file]",
		Short: "Stern-Volmer quenching constant from fluorescence intensities",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSternVolmer(o, args)
		},
	}
	o.columns.register(cmd, 0)
	cmd.Flags().Float64Var(&o.params.InitialVolume, "initial", d.InitialVolume, "sample volume (mL)")
	cmd.Flags().Float64Var(&o.params.Stock, "stock", d.Stock, "quencher stock concentration (M)")
	cmd.Flags().BoolVar(&o.area, "area", false, "use the bundled integrated areas instead of peak maxima")
	return cmd
}

func runSternVolmer(o *sternVolmerOptions, args []string) error {
	volume, intensity := titration.SampleQuencherVolume, titration.SampleIntensityMax
	source := "bundled peak maxima"
	if o.area {
		intensity, source = titration.SampleIntensityArea, "bundled integrated areas"
	}
	if len(args) == 1 {
		cols, err := o.columns.read(args[0])
		if err != nil {
			return err
		}
		volume, intensity, source = cols.X, cols.Y, args[0]
	}

	res, err := titration.SternVolmer(volume, intensity, o.params)
	if err != nil {
		return err
	}

	fmt.Println(tui.Title("stern-volmer"))
	fmt.Println(tui.KV("data", "%s", source))
	rows := make([][]string, len(volume))
	for i := range volume {
		rows[i] = []string{
			strconv.FormatFloat(volume[i], 'g', -1, 64),
			fmt.Sprintf("%.4e", res.Concentration[i]),
			fmt.Sprintf("%.5f", res.Ratio[i]),
		}
	}
	fmt.Println(tui.Table([]string{"quencher (µL)", "[Q] (M)", "F0/F"}, rows))
	printFit("F0/F vs [Q]", res.Fit)
	fmt.Println(tui.KV("Ksv", "%.4e M⁻¹", res.Ksv()))
	return nil
}

func printFit(name string, f stats.LinearFit) {
	fmt.Println(tui.KV("fit", "%s (%d points)", name, f.N))
	fmt.Println(tui.KV("slope", "%.5g ± %.2g", f.Slope, f.SlopeErr))
	fmt.Println(tui.KV("intercept", "%.5g ± %.2g", f.Intercept, f.InterceptErr))
	fmt.Println(tui.KV("r / R²", "%.5f / %.5f", f.R, f.R2))
	fmt.Println(tui.KV("p-value", "%.3g", f.PValue))
}

type eprOptions struct {
	columns columnOptions
	freqGHz float64
	window  int
	order   int
}

func eprCmd() *cobra.Command {
	o := &eprOptions{}
	cmd := &cobra.Command{
		Use:   "epr [file]",
		Short: "g-values and hyperfine constants of a VO(IV) EPR spectrum",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEPR(o, args[0])
		},
	}
	o.columns.register(cmd, 3)
	cmd.Flags().Float64Var(&o.freqGHz, "freq", epr.XBandHz/1e9, "microwave frequency (GHz)")
	cmd.Flags().IntVar(&o.window, "window", 11, "smoothing window (0 disables)")
	cmd.Flags().IntVar(&o.order, "order", 3, "smoothing polynomial order")
	return cmd
}

func runEPR(o *eprOptions, path string) error {
	cols, err := o.columns.read(path)
	if err != nil {
		return err
	}
	field := epr.GaussToTeslaSlice(cols.X)
	deriv, smoothed, err := epr.Derivative(field, cols.Y, o.window, o.order)
	if err != nil {
		return err
	}
	if !smoothed && o.window > 0 {
		logger.Warn("spectrum not smoothed", "points", cols.Len(), "window", o.window, "order", o.order)
	}
	a, err := epr.AnalyzeVO(field, deriv)
	if err != nil {
		return err
	}
	h, err := epr.Hyperfines(field, a, o.freqGHz*1e9)
	if err != nil {
		return err
	}
	check := h.CheckVO()

	fmt.Println(tui.Title("epr"))
	fmt.Println(tui.KV("spectrum", "%s (%d points, %.1f to %.1f G)", path, cols.Len(), cols.X[0], cols.X[len(cols.X)-1]))
	fmt.Println(tui.KV("frequency", "%.4g GHz", o.freqGHz))
	fmt.Println(tui.KV("lines", "%d found, %d expected", len(a.Peaks), epr.ExpectedVOLines))
	if len(a.Peaks) != epr.ExpectedVOLines {
		fmt.Println(tui.Note("line count differs from the 8-line ⁵¹V pattern"))
	}
	fmt.Println()

	rows := [][]string{
		{"g∥", fmt.Sprintf("%.4f", h.GParallel), fmt.Sprintf("%.1f G", a.GParallelT/epr.GaussToTesla), inRange(check.GParallel)},
		{"g⊥", fmt.Sprintf("%.4f", h.GPerp), fmt.Sprintf("%.1f G", a.GPerpT/epr.GaussToTesla), inRange(check.GPerp)},
		{"g avg", fmt.Sprintf("%.4f", h.GAvg), "", ""},
		{"A∥", fmtMHz(h.AParallel), fmtSpacing(h.AParallel), inRange(check.AParallel)},
		{"A⊥", fmtMHz(h.APerp), fmtSpacing(h.APerp), inRange(check.APerp)},
		{"A iso", fmtStat(h.AIso) + " MHz", "", ""},
	}
	fmt.Println(tui.Table([]string{"parameter", "value", "field / spacing", "VO(IV) range"}, rows))
	fmt.Println(tui.Plot(deriv, "first derivative dI/dB"))
	return nil
}

func fmtMHz(h epr.Hyperfine) string {
	if !h.Determined() {
		return "undetermined"
	}
	return fmt.Sprintf("%.1f MHz", h.MHz)
}

func fmtSpacing(h epr.Hyperfine) string {
	if !h.Determined() {
		return ""
	}
	return fmt.Sprintf("%.2f mT over %d gaps", h.SpacingMT, h.Spacings)
}

func inRange(ok bool) string {
	if ok {
		return "yes"
	}
	return "no"
}

type cvOptions struct {
	columns   columnOptions
	ferrocene string
	peaks     voltammetry.PeakParams
}

func cvCmd() *cobra.Command {
	o := &cvOptions{}
	d := voltammetry.DefaultPeakParams()
	cmd := &cobra.Command{
		Use:   "cv [file]",
		Short: "half-wave potential and redox peaks of a cyclic voltammogram",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCV(o, args[0])
		},
	}
	o.columns.register(cmd, 0)
	cmd.Flags().StringVar(&o.ferrocene, "ferrocene", "", "ferrocene scan used as the potential reference")
	cmd.Flags().Float64Var(&o.peaks.Prominence, "prominence", d.Prominence, "peak prominence as a fraction of the current span")
	cmd.Flags().Float64Var(&o.peaks.Width, "width", d.Width, "minimum peak width (samples)")
	cmd.Flags().IntVar(&o.peaks.Distance, "distance", d.Distance, "minimum peak separation (samples)")
	cmd.Flags().Float64Var(&o.peaks.Height, "height", d.Height, "minimum peak current (A)")
	return cmd
}

func (o *cvOptions) scan(path string) (voltammetry.Scan, error) {
	cols, err := o.columns.read(path)
	if err != nil {
		return voltammetry.Scan{}, err
	}
	return voltammetry.Scan{Potential: cols.X, Current: cols.Y}, nil
}

func runCV(o *cvOptions, path string) error {
	scan, err := o.scan(path)
	if err != nil {
		return err
	}

	fmt.Println(tui.Title("cyclic voltammetry"))
	scale := "V"
	if o.ferrocene != "" {
		fc, err := o.scan(o.ferrocene)
		if err != nil {
			return errors.Wrap(err, "ferrocene")
		}
		hw, err := voltammetry.HalfWavePotential(fc)
		if err != nil {
			return errors.Wrap(err, "ferrocene")
		}
		fmt.Println(tui.KV("ferrocene E½", "%.4f V (ΔEp %.0f mV)", hw.EHalf, hw.Separation()*1000))
		scan = voltammetry.Reference(scan, hw.EHalf)
		scale = "V vs Fc/Fc⁺"
	}

	hw, err := voltammetry.HalfWavePotential(scan)
	if err != nil {
		return err
	}
	fmt.Println(tui.KV("Epa", "%.4f %s", hw.Anodic, scale))
	fmt.Println(tui.KV("Epc", "%.4f %s", hw.Cathodic, scale))
	fmt.Println(tui.KV("E½", "%.4f %s", hw.EHalf, scale))
	fmt.Println(tui.KV("ΔEp", "%.0f mV", hw.Separation()*1000))

	redox, err := voltammetry.RedoxPeaks(scan, o.peaks)
	if err != nil {
		return err
	}
	var rows [][]string
	add := func(kind string, peaks []voltammetry.RedoxPeak) {
		for _, p := range peaks {
			major := ""
			if p.Major {
				major = "major"
			}
			rows = append(rows, []string{kind, fmt.Sprintf("%.4f", p.Potential), fmt.Sprintf("%.3f", p.Current*1e6), major})
		}
	}
	add("oxidation", redox.Oxidation)
	add("reduction", redox.Reduction)
	fmt.Println(tui.Table([]string{"peak", "E (" + scale + ")", "I (µA)", ""}, rows))

	micro := make([]float64, len(scan.Current))
	for i, c := range scan.Current {
		micro[i] = c * 1e6
	}
	fmt.Println(tui.Plot(micro, "current (µA) over the scan"))
	return nil
}

type plOptions struct {
	columns columnOptions
	params  spectroscopy.PLParams
}

func plCmd() *cobra.Command {
	o := &plOptions{}
	d := spectroscopy.DefaultPLParams()
	cmd := &cobra.Command{
		Use:   "pl [file...]",
		Short: "photoluminescence emission peaks",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPL(o, args)
		},
	}
	o.columns.register(cmd, 2)
	cmd.Flags().IntVar(&o.params.Window, "window", d.Window, "smoothing window")
	cmd.Flags().IntVar(&o.params.Order, "order", d.Order, "smoothing polynomial order")
	cmd.Flags().Float64Var(&o.params.Prominence, "prominence", d.Prominence, "peak prominence (0 = 5% of the smoothed range)")
	cmd.Flags().IntVar(&o.params.Distance, "distance", d.Distance, "minimum peak separation (samples)")
	cmd.Flags().Float64Var(&o.params.Width, "width", d.Width, "minimum peak width (samples)")
	return cmd
}

func runPL(o *plOptions, paths []string) error {
	for _, path := range paths {
		cols, err := o.columns.read(path)
		if err != nil {
			return err
		}
		res, err := spectroscopy.AnalyzePL(cols.X, cols.Y, o.params)
		if err != nil {
			return errors.Wrap(err, path)
		}

		fmt.Println(tui.Title("photoluminescence: " + filepath.Base(path)))
		fmt.Println(tui.KV("range", "%.1f to %.1f nm (%d points)", res.Wavelength[0], res.Wavelength[len(res.Wavelength)-1], len(res.Wavelength)))
		fmt.Println(tui.KV("prominence", "%.4g", res.Prominence))
		fmt.Println(tui.KV("residual rms", "%.4g", rms(res.Residuals)))
		fmt.Println(tui.Table([]string{"λ (nm)", "intensity", "prominence", "width"}, peakRows(res.Peaks)))
		fmt.Println(tui.Plot(res.Smoothed, "smoothed emission"))
	}
	return nil
}

func uvvisCmd() *cobra.Command {
	params := spectroscopy.DefaultAverageParams()
	cmd := &cobra.Command{
		Use:   "uvvis [file|dir...]",
		Short: "average repeated UV-vis scans and report absorption peaks",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUVVis(params, args)
		},
	}
	cmd.Flags().IntVar(&params.Window, "window", params.Window, "smoothing window")
	cmd.Flags().IntVar(&params.Order, "order", params.Order, "smoothing polynomial order")
	cmd.Flags().Float64Var(&params.Prominence, "prominence", params.Prominence, "peak prominence")
	return cmd
}

// expandScans replaces directories with the .asc files inside them.
func expandScans(args []string) ([]string, error) {
	var out []string
	for _, a := range args {
		info, err := os.Stat(a)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			out = append(out, a)
			continue
		}
		matches, err := filepath.Glob(filepath.Join(a, "*.asc"))
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			return nil, errors.Errorf("no .asc files in %s", a)
		}
		sort.Strings(matches)
		out = append(out, matches...)
	}
	return out, nil
}

func runUVVis(params spectroscopy.AverageParams, args []string) error {
	paths, err := expandScans(args)
	if err != nil {
		return err
	}
	spectra := make([]spectroscopy.Spectrum, 0, len(paths))
	for _, p := range paths {
		cols, err := readColumns(p, dataset.Options{Marker: "#DATA"})
		if err != nil {
			return err
		}
		spectra = append(spectra, spectroscopy.Spectrum{Name: filepath.Base(p), Wavelength: cols.X, Absorbance: cols.Y})
	}

	res, err := spectroscopy.AverageSpectra(spectra, params)
	if err != nil {
		return err
	}

	fmt.Println(tui.Title(fmt.Sprintf("uv-vis average of %d scans", len(spectra))))
	maxStd := 0.0
	for _, s := range res.Std {
		maxStd = math.Max(maxStd, s)
	}
	fmt.Println(tui.KV("max std", "%.4g", maxStd))
	fmt.Println(tui.Table([]string{"λ (nm)", "absorbance", "prominence", "width"}, peakRows(res.Peaks)))
	fmt.Println(tui.Plot(res.Mean, "mean absorbance"))
	return nil
}

func peakRows(peaks []spectroscopy.SpectralPeak) [][]string {
	rows := make([][]string, len(peaks))
	for i, p := range peaks {
		rows[i] = []string{
			fmt.Sprintf("%.1f", p.Wavelength),
			fmt.Sprintf("%.4g", p.Intensity),
			fmt.Sprintf("%.4g", p.Prominence),
			fmt.Sprintf("%.1f", p.Width),
		}
	}
	return rows
}

func rms(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	s := 0.0
	for _, v := range x {
		s += v * v
	}
	return math.Sqrt(s / float64(len(x)))
}
