package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/physlab/internal/automation"
	"github.com/san-kum/physlab/internal/demo"
	"github.com/san-kum/physlab/internal/experiment"
	"github.com/san-kum/physlab/internal/optim"
	"github.com/san-kum/physlab/internal/storage"
)

var (
	axes     []string
	metric   string
	maximize bool
	workers  int
)

func sweepParams(cmd *cobra.Command, args []string) error {
	kind, err := demo.ParseKind(args[0])
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd, kind)
	if err != nil {
		return err
	}
	if len(axes) == 0 {
		return fmt.Errorf("no --axis given")
	}
	grid := make([]optim.Axis, 0, len(axes))
	for _, a := range axes {
		axis, err := optim.ParseAxis(a)
		if err != nil {
			return err
		}
		grid = append(grid, axis)
	}

	registry := experiment.NewRegistry()
	build := func(params map[string]float64) (*experiment.Experiment, error) {
		m, err := registry.GetModel(kind, cfg)
		if err != nil {
			return nil, err
		}
		for k, v := range params {
			if err := m.SetParam(k, v); err != nil {
				return nil, err
			}
		}
		return experiment.New(
			experiment.Config{Dt: cfg.Dt, Duration: cfg.Duration, ValidateState: true},
			m,
			experiment.WithMetrics(registry.DefaultMetrics(kind)...),
		), nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	search := optim.NewGridSearch(grid, optim.WithWorkers(workers), optim.WithLogger(logger))
	points, err := search.Run(ctx, build)
	if err != nil {
		return err
	}

	names := make([]string, len(grid))
	for i, a := range grid {
		names[i] = a.Param
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", strings.ToUpper(strings.Join(names, "\t")), strings.ToUpper(metric))
	for _, p := range points {
		for _, n := range names {
			fmt.Fprintf(w, "%.4g\t", p.Params[n])
		}
		fmt.Fprintf(w, "%.6f\n", p.Result.Metrics[metric])
	}
	if err := w.Flush(); err != nil {
		return err
	}

	best, ok := optim.Best(points, metric, maximize)
	if !ok {
		available := make([]string, 0)
		if len(points) > 0 {
			for k := range points[0].Result.Metrics {
				available = append(available, k)
			}
			sort.Strings(available)
		}
		return fmt.Errorf("metric %q not reported (available: %v)", metric, available)
	}
	fmt.Printf("\nbest: %v -> %s = %.6f\n", best.Params, metric, best.Result.Metrics[metric])
	return nil
}

func runScript(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	runner := automation.NewRunner(experiment.NewRegistry(), storage.New(dataDir), logger)
	results, err := runner.Run(ctx, sc)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tDEMO\tSTEPS\tTIME\tDRIFT\tRUN")
	for _, r := range results {
		fmt.Fprintf(w, "%d\t%s\t%d\t%.3fs\t%.6f\t%s\n",
			r.Index+1, r.Demo, r.Result.StepsTaken, r.Result.Time, r.Result.EnergyDrift, r.RunID)
	}
	if ferr := w.Flush(); ferr != nil && err == nil {
		err = ferr
	}
	return err
}
