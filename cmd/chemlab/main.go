package main

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/san-kum/chemlab/internal/config"
	"github.com/san-kum/chemlab/internal/storage"
	"github.com/san-kum/chemlab/internal/tui"
)

var (
	dataDir    string
	logLevel   string
	configFile string
	preset     string
	workers    int
	progress   bool

	logger = slog.Default()
)

// main registers every command and exits with status 1 when one fails.
func main() {
	rootCmd := &cobra.Command{
		Use:           "chemlab",
		Short:         "photophysics simulations and lab data analysis",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(logLevel)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		simulateCmd(),
		sweepCmd(),
		o2StudyCmd(),
		analyzeSweepCmd(),
		runsCmd(),
		showCmd(),
		presetsCmd(),
		cmcCmd(),
		ostwaldCmd(),
		sternVolmerCmd(),
		eprCmd(),
		cvCmd(),
		plCmd(),
		uvvisCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func setupLogging(level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return errors.Wrapf(err, "log level %q", level)
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return nil
}

// addConfigFlags registers the flags shared by the simulation commands.
func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().IntVar(&workers, "workers", 0, "parallel simulations (0 = number of CPUs)")
}

// resolveConfig layers the preset, then the config file, over the defaults.
// Command flags are applied on top by the caller.
func resolveConfig(cmd *cobra.Command, command string) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		p := config.GetPreset(command, preset)
		if p == nil {
			return nil, errors.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(command))
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, errors.Wrap(err, "failed to load config")
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("workers") {
		cfg.Workers = workers
	}
	if cfg.DataDir != "" && !cmd.Flags().Changed("data") {
		dataDir = cfg.DataDir
	}
	return cfg, nil
}

func runsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "runs",
		Short: "list stored runs",
		RunE:  listRuns,
	}
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tTIME\tSEED\tQY RU1\tQY RU2\tFILES")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%d\n",
			run.ID,
			run.Kind,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Seed,
			metric(run.Metrics, "qy_ru1"),
			metric(run.Metrics, "qy_ru2"),
			len(run.Files),
		)
	}

	return w.Flush()
}

func metric(m map[string]float64, key string) string {
	v, ok := m[key]
	if !ok {
		return "-"
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func showCmd() *cobra.Command {
	var rows int
	cmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return showRun(args[0], rows)
		},
	}
	cmd.Flags().IntVar(&rows, "rows", 10, "table rows to print (0 = all)")
	return cmd
}

func showRun(id string, maxRows int) error {
	st := storage.New(dataDir)
	meta, err := st.Load(id)
	if err != nil {
		return err
	}

	fmt.Println(tui.Title("run " + meta.ID))
	fmt.Println(tui.KV("kind", "%s", meta.Kind))
	fmt.Println(tui.KV("time", "%s", meta.Timestamp.Format("2006-01-02 15:04:05")))
	fmt.Println(tui.KV("seed", "%d", meta.Seed))
	for _, k := range sortedKeys(meta.Labels) {
		fmt.Println(tui.KV(k, "%s", meta.Labels[k]))
	}

	if len(meta.Params) > 0 {
		fmt.Println()
		fmt.Println(tui.Title("parameters"))
		for _, k := range sortedKeys(meta.Params) {
			fmt.Println(tui.KV(k, "%g", meta.Params[k]))
		}
	}
	if len(meta.Metrics) > 0 {
		fmt.Println()
		fmt.Println(tui.Title("metrics"))
		for _, k := range sortedKeys(meta.Metrics) {
			fmt.Println(tui.KV(k, "%.6g", meta.Metrics[k]))
		}
	}

	for _, name := range meta.Files {
		if !strings.HasSuffix(name, ".csv") {
			fmt.Println(tui.Note("%s", name))
			continue
		}
		t, err := st.LoadTable(meta.ID, name)
		if err != nil {
			logger.Warn("table unreadable", "run", meta.ID, "file", name, "err", err)
			continue
		}
		fmt.Println()
		fmt.Println(tui.Title(fmt.Sprintf("%s (%d rows)", name, len(t.Rows))))
		rows := t.Rows
		if maxRows > 0 && len(rows) > maxRows {
			rows = rows[:maxRows]
		}
		fmt.Println(tui.Table(t.Header, formatRows(rows)))
	}
	return nil
}

func presetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets [command]",
		Short: "list presets",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			commands := []string{"simulate", "sweep", "o2-study"}
			if len(args) == 1 {
				commands = args
			}
			for _, c := range commands {
				names := config.ListPresets(c)
				if names == nil {
					return errors.Errorf("no presets for %q", c)
				}
				fmt.Println(tui.KV(c, "%s", strings.Join(names, ", ")))
			}
			return nil
		},
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func formatRows(rows [][]float64) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = make([]string, len(row))
		for j, v := range row {
			out[i][j] = strconv.FormatFloat(v, 'g', 6, 64)
		}
	}
	return out
}
