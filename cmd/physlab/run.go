package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/physlab/internal/analysis"
	"github.com/san-kum/physlab/internal/config"
	"github.com/san-kum/physlab/internal/demo"
	"github.com/san-kum/physlab/internal/dynamo"
	"github.com/san-kum/physlab/internal/experiment"
	"github.com/san-kum/physlab/internal/export"
	"github.com/san-kum/physlab/internal/integrators"
	"github.com/san-kum/physlab/internal/storage"
	"github.com/san-kum/physlab/internal/viz"
)

// simulate builds the configured demo and runs it for cfg.Duration.
func simulate(cfg *config.Config) (demo.Model, *experiment.Result, error) {
	registry := experiment.NewRegistry()
	m, err := registry.GetModel(cfg.Kind(), cfg)
	if err != nil {
		return nil, nil, err
	}
	res, err := runModel(registry, m, cfg.Dt, cfg.Duration)
	return m, res, err
}

func runModel(registry *experiment.Registry, m demo.Model, dt, duration float64) (*experiment.Result, error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	exp := experiment.New(
		experiment.Config{Dt: dt, Duration: duration, ValidateState: validate},
		m,
		experiment.WithLogger(logger),
		experiment.WithMetrics(registry.DefaultMetrics(m.Kind())...),
	)
	res, err := exp.Run(ctx)
	if errors.Is(err, context.Canceled) {
		logger.Warn("run interrupted, keeping partial result", zap.Int("steps", res.StepsTaken))
		return res, nil
	}
	return res, err
}

func printResult(res *experiment.Result, elapsed time.Duration) {
	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("steps: %d\n", res.StepsTaken)
	fmt.Printf("time: %.3fs\n", res.Time)
	fmt.Println("\nmetrics:")
	names := make([]string, 0, len(res.Metrics))
	for name := range res.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, res.Metrics[name])
	}
	for _, e := range res.Errors {
		fmt.Printf("\nwarning: %v\n", e)
	}
}

func storeRun(m demo.Model, res *experiment.Result, dt, duration float64) error {
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(m, storage.RunMetadata{
		Dt:       dt,
		Duration: duration,
		Steps:    res.StepsTaken,
		Metrics:  res.Metrics,
	})
	if err != nil {
		return err
	}
	logger.Info("run stored", zap.String("id", runID), zap.String("dir", dataDir))
	fmt.Printf("run id: %s\n", runID)
	return nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	kind, err := demo.ParseKind(args[0])
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd, kind)
	if err != nil {
		return err
	}

	fmt.Printf("running %s simulation...\n", kind)
	start := time.Now()
	m, res, err := simulate(cfg)
	if err != nil {
		return err
	}
	printResult(res, time.Since(start))

	if save {
		return storeRun(m, res, cfg.Dt, cfg.Duration)
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	kind := demo.KindPendulum
	if len(args) > 0 {
		k, err := demo.ParseKind(args[0])
		if err != nil {
			return err
		}
		kind = k
	}
	cfg, err := loadConfig(cmd, kind)
	if err != nil {
		return err
	}

	host, err := experiment.NewHostFromConfig(experiment.NewRegistry(), cfg, experiment.WithHostLogger(logger))
	if err != nil {
		return err
	}
	if err := host.Start(kind); err != nil {
		return err
	}

	p := tea.NewProgram(viz.NewModel(host, kind), tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err = p.Run()
	return err
}

func writeOutput(path, body string) error {
	if path == "" {
		fmt.Println(body)
		return nil
	}
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		return err
	}
	logger.Info("wrote file", zap.String("path", path), zap.Int("bytes", len(body)))
	return nil
}

func exportSeries(cmd *cobra.Command, args []string) error {
	kind, err := demo.ParseKind(args[0])
	if err != nil {
		return err
	}
	f, err := dynamo.ParseFormat(format)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd, kind)
	if err != nil {
		return err
	}
	m, _, err := simulate(cfg)
	if err != nil {
		return err
	}

	body, err := demo.Export(m, f, export.Options{Metadata: metadata, Every: every})
	if err != nil {
		return err
	}
	if err := writeOutput(outFile, body); err != nil {
		return err
	}

	if svgFile == "" {
		return nil
	}
	var points []dynamo.Vec2
	switch d := m.(type) {
	case *demo.SimplePendulum:
		for _, s := range d.State().Trail {
			points = append(points, s.Pos)
		}
	case *demo.DoublePendulum:
		for _, s := range d.State().Trail {
			points = append(points, s.Bob2)
		}
	default:
		return fmt.Errorf("%s has no trail to draw", kind)
	}
	svg := export.TrailSVG(points, 400, 400, "#00ccff")
	if svg == "" {
		return fmt.Errorf("trail too short: %w", dynamo.ErrInsufficientData)
	}
	return os.WriteFile(svgFile, []byte(svg), 0644)
}

func asDoublePendulum(m demo.Model) (*demo.DoublePendulum, error) {
	dp, ok := m.(*demo.DoublePendulum)
	if !ok {
		return nil, fmt.Errorf("lyapunov: expected a double pendulum, got %s", m.Kind())
	}
	return dp, nil
}

func lyapunovReport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, demo.KindDoublePendulum)
	if err != nil {
		return err
	}
	m, res, err := simulate(cfg)
	if err != nil {
		return err
	}
	dp, err := asDoublePendulum(m)
	if err != nil {
		return err
	}

	fmt.Printf("steps: %d, time: %.3fs\n", res.StepsTaken, res.Time)
	if last, ok := dp.Lyapunov(); ok {
		fmt.Printf("running estimate: %.6f (t=%.3f)\n", last.Value, last.Time)
	}
	fmt.Printf("separation: %.6e\n", dp.Separation())

	// independent batch estimate from the same initial conditions
	dc := dp.Config()
	sys := dp.System()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	batch, err := analysis.LyapunovExponent(ctx, sys, integrators.NewSymplecticEuler(),
		dynamo.State{dc.Angle1, dc.Angle2, 0, 0}, cfg.Dt, cfg.Duration, dc.Separation)
	if err != nil {
		return fmt.Errorf("batch estimate: %w", err)
	}
	fmt.Printf("batch estimate: %.6f\n", batch)

	if outFile == "" {
		return nil
	}
	body, err := dp.ExportLyapunovSeries()
	if err != nil {
		return err
	}
	return writeOutput(outFile, body)
}

func spectrumReport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, demo.KindCircuit)
	if err != nil {
		return err
	}
	m, _, err := simulate(cfg)
	if err != nil {
		return err
	}
	c := m.(*demo.Circuit)

	body, err := c.ExportFFT()
	if err != nil {
		return err
	}
	if err := writeOutput(outFile, body); err != nil {
		return err
	}
	if !check {
		return nil
	}

	direct, err := c.Spectrum()
	if err != nil {
		return err
	}
	fast, err := analysis.PowerSpectrum(c.Currents(), c.SampleRate())
	if err != nil {
		return err
	}
	dp, _ := analysis.PeakFrequency(direct)
	fp, _ := analysis.PeakFrequency(fast)
	fmt.Fprintf(os.Stderr, "dft peak: %.3f Hz, fft peak: %.3f Hz, resonance: %.3f Hz\n",
		dp.Frequency, fp.Frequency, c.ResonantFrequency())
	if dp.Frequency != fp.Frequency {
		return fmt.Errorf("spectrum mismatch: dft %.3f Hz vs fft %.3f Hz", dp.Frequency, fp.Frequency)
	}
	return nil
}

func resumeRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	snap, err := st.LoadSnapshot(args[0])
	if err != nil {
		return err
	}

	cfg := config.DefaultConfig()
	cfg.Demo = string(meta.Demo)
	registry := experiment.NewRegistry()
	m, err := registry.GetModel(meta.Demo, cfg)
	if err != nil {
		return err
	}
	if err := m.Restore(snap); err != nil {
		return err
	}

	fmt.Printf("resuming %s from t=%.3fs...\n", meta.ID, m.Time())
	start := time.Now()
	res, err := runModel(registry, m, dt, duration)
	if err != nil {
		return err
	}
	printResult(res, time.Since(start))

	if save {
		return storeRun(m, res, dt, meta.Duration+duration)
	}
	return nil
}
