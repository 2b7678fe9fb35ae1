package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/physlab/internal/analysis"
	"github.com/san-kum/physlab/internal/export"
	"github.com/san-kum/physlab/internal/storage"
)

const maxPlots = 6

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
	fmt.Fprintln(w, "ID\tDEMO\tTIME\tDURATION\tDT\tSTEPS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%d\n",
			run.ID,
			run.Demo,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Steps,
		)
	}
	return w.Flush()
}

// selectColumns returns the requested columns, or every non-time column
// when none are named.
func selectColumns(s *storage.Series, names []string, limit int) ([]string, error) {
	if len(names) == 0 {
		for _, h := range s.Headers {
			if h != "time" {
				names = append(names, h)
			}
		}
	}
	for _, n := range names {
		if s.Column(n) == nil {
			return nil, fmt.Errorf("no column %q (have %v)", n, s.Headers)
		}
	}
	if limit > 0 && len(names) > limit {
		names = names[:limit]
	}
	return names, nil
}

func loadRun(runID string) (*storage.RunMetadata, *storage.Series, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	series, err := st.LoadSeries(runID)
	if err != nil {
		return nil, nil, err
	}
	if len(series.Rows) == 0 {
		return nil, nil, fmt.Errorf("no data in run %s", runID)
	}
	return meta, series, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, series, err := loadRun(args[0])
	if err != nil {
		return err
	}
	names, err := selectColumns(series, columns, maxPlots)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("demo: %s\n", meta.Demo)
	fmt.Printf("samples: %d\n\n", len(series.Rows))

	for _, name := range names {
		graph := asciigraph.Plot(series.Column(name),
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(name+" vs time"),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func phasePlot(cmd *cobra.Command, args []string) error {
	_, series, err := loadRun(args[0])
	if err != nil {
		return err
	}
	x, y := xColumn, yColumn
	if x == "" || y == "" {
		defaults, err := selectColumns(series, nil, 2)
		if err != nil {
			return err
		}
		if len(defaults) < 2 {
			return fmt.Errorf("run has fewer than two columns")
		}
		if x == "" {
			x = defaults[0]
		}
		if y == "" {
			y = defaults[1]
		}
	}
	if _, err := selectColumns(series, []string{x, y}, 0); err != nil {
		return err
	}

	portrait := analysis.NewPhasePortrait(series.Column(x), series.Column(y))
	fmt.Printf("phase portrait: %s vs %s\n", y, x)
	fmt.Println(portrait.ASCII(70, 25))
	return nil
}

func chartRun(cmd *cobra.Command, args []string) error {
	meta, series, err := loadRun(args[0])
	if err != nil {
		return err
	}
	names, err := selectColumns(series, columns, 0)
	if err != nil {
		return err
	}

	spec := export.ChartSpec{Title: meta.ID, XLabel: "time", YLabel: "value"}
	t := series.Column("time")
	for _, name := range names {
		spec.Series = append(spec.Series, export.Series{Name: name, X: t, Y: series.Column(name)})
	}

	path := outFile
	if path == "" {
		path = meta.ID + ".png"
	}
	if err := export.SaveChart(path, spec); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}

func deleteRun(cmd *cobra.Command, args []string) error {
	if err := storage.New(dataDir).Delete(args[0]); err != nil {
		return err
	}
	fmt.Printf("deleted %s\n", args[0])
	return nil
}
