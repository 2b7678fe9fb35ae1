package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/san-kum/physlab/internal/config"
	"github.com/san-kum/physlab/internal/demo"
)

var (
	dataDir    string
	configFile string
	preset     string
	logLevel   string
	jsonLog    bool

	dt       float64
	duration float64
	save     bool
	validate bool

	format   string
	metadata bool
	every    int
	outFile  string
	svgFile  string

	timeScale float64
	check     bool
	columns   []string
	xColumn   string
	yColumn   string

	logger = zap.NewNop()
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "physlab",
		Short:         "interactive physics demos: pendulums, RLC circuit and a fluid toy",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := newLogger(logLevel, jsonLog)
			if err != nil {
				return err
			}
			logger = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLive(cmd, []string{string(demo.KindPendulum)})
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultStoreDir, "run store directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&jsonLog, "json-log", false, "log as JSON")

	runCmd := &cobra.Command{
		Use:   "run [demo]",
		Short: "run a demo headlessly and print its metrics",
		Args:  cobra.ExactArgs(1),
		RunE:  runSimulation,
	}
	simFlags(runCmd)
	runCmd.Flags().BoolVar(&save, "save", false, "store the run")
	runCmd.Flags().BoolVar(&validate, "validate", true, "stop at the first NaN/Inf state")

	liveCmd := &cobra.Command{
		Use:   "live [demo]",
		Short: "host every demo in the terminal, starting on one",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	liveCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	liveCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	liveCmd.Flags().Float64Var(&timeScale, "speed", config.DefaultTimeScale, "time scale")

	exportCmd := &cobra.Command{
		Use:   "export [demo]",
		Short: "run a demo and export its recorded series",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSeries,
	}
	simFlags(exportCmd)
	exportCmd.Flags().StringVar(&format, "format", "csv", "csv or json")
	exportCmd.Flags().BoolVar(&metadata, "metadata", false, "wrap JSON in a metadata envelope")
	exportCmd.Flags().IntVar(&every, "every", 1, "keep one record in n")
	exportCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")
	exportCmd.Flags().StringVar(&svgFile, "svg", "", "also write the trail as SVG (pendulums)")

	lyapunovCmd := &cobra.Command{
		Use:   "lyapunov",
		Short: "run the double pendulum and report its divergence estimate",
		Args:  cobra.NoArgs,
		RunE:  lyapunovReport,
	}
	simFlags(lyapunovCmd)
	lyapunovCmd.Flags().StringVarP(&outFile, "out", "o", "", "write the estimate series as JSON")

	fftCmd := &cobra.Command{
		Use:   "fft",
		Short: "run the circuit and print the spectrum of its current",
		Args:  cobra.NoArgs,
		RunE:  spectrumReport,
	}
	simFlags(fftCmd)
	fftCmd.Flags().BoolVar(&check, "check", false, "compare the peak against an FFT")
	fftCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot stored series in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringSliceVar(&columns, "columns", nil, "series columns to plot (default: all, up to 6)")

	phaseCmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "phase portrait of two stored columns",
		Args:  cobra.ExactArgs(1),
		RunE:  phasePlot,
	}
	phaseCmd.Flags().StringVar(&xColumn, "x", "", "x column (default: first after time)")
	phaseCmd.Flags().StringVar(&yColumn, "y", "", "y column (default: second after time)")

	chartCmd := &cobra.Command{
		Use:   "chart [run_id]",
		Short: "render stored series as a PNG chart",
		Args:  cobra.ExactArgs(1),
		RunE:  chartRun,
	}
	chartCmd.Flags().StringSliceVar(&columns, "columns", nil, "series columns to chart (default: all)")
	chartCmd.Flags().StringVarP(&outFile, "out", "o", "", "png path (default <run_id>.png)")

	resumeCmd := &cobra.Command{
		Use:   "resume [run_id]",
		Short: "restore a stored run and continue it",
		Args:  cobra.ExactArgs(1),
		RunE:  resumeRun,
	}
	resumeCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	resumeCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "additional duration")
	resumeCmd.Flags().BoolVar(&save, "save", false, "store the continued run")

	deleteCmd := &cobra.Command{
		Use:   "delete [run_id]",
		Short: "delete a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  deleteRun,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [demo]",
		Short: "list available presets for a demo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for demo: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write the default configuration as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Save(args[0], config.DefaultConfig()); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", args[0])
			return nil
		},
	}

	sweepCmd := &cobra.Command{
		Use:     "sweep [demo]",
		Short:   "run a demo over a parameter grid",
		Example: "  physlab sweep circuit --axis frequency=5:30:26 --metric peak_current --max --dt 0.0005 --time 1",
		Args:    cobra.ExactArgs(1),
		RunE:    sweepParams,
	}
	simFlags(sweepCmd)
	sweepCmd.Flags().StringArrayVar(&axes, "axis", nil, "name=lo:hi:n or name=v1,v2 (repeatable)")
	sweepCmd.Flags().StringVar(&metric, "metric", "energy_drift", "metric to rank points by")
	sweepCmd.Flags().BoolVar(&maximize, "max", false, "pick the largest metric instead of the smallest")
	sweepCmd.Flags().IntVar(&workers, "workers", 0, "concurrent runs (default GOMAXPROCS)")

	scriptCmd := &cobra.Command{
		Use:   "script [scenario.yaml]",
		Short: "run a YAML scenario of demo runs",
		Args:  cobra.ExactArgs(1),
		RunE:  runScript,
	}

	rootCmd.AddCommand(runCmd, liveCmd, exportCmd, lyapunovCmd, fftCmd, listCmd, plotCmd, phaseCmd, chartCmd, resumeCmd, deleteCmd, presetsCmd, initCmd, sweepCmd, scriptCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func simFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
}

func newLogger(level string, asJSON bool) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	cfg := zap.NewDevelopmentConfig()
	if asJSON {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

// loadConfig layers defaults, a preset, a config file and finally the
// flags the user actually set.
func loadConfig(cmd *cobra.Command, kind demo.Kind) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(string(kind), preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(string(kind)))
		}
	}
	if configFile != "" {
		fileCfg, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = fileCfg
	}

	cfg.Demo = string(kind)
	flags := cmd.Flags()
	if flags.Changed("dt") || (preset == "" && configFile == "") {
		cfg.Dt = dt
	}
	if flags.Changed("time") || (preset == "" && configFile == "") {
		cfg.Duration = duration
	}
	if flags.Changed("speed") {
		cfg.TimeScale = timeScale
	}
	if flags.Changed("data") || cfg.StoreDir == "" {
		cfg.StoreDir = dataDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
