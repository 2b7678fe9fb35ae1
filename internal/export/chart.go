package export

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

type Series struct {
	Name string
	X, Y []float64
}

type ChartSpec struct {
	Title          string
	XLabel, YLabel string
	Series         []Series
	// Width and Height in inches; zero means 8x4.
	Width, Height float64
	DPI           int
}

func (c ChartSpec) build() (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = c.Title
	p.X.Label.Text = c.XLabel
	p.Y.Label.Text = c.YLabel
	p.Add(plotter.NewGrid())

	for i, s := range c.Series {
		n := min(len(s.X), len(s.Y))
		if n == 0 {
			continue
		}
		pts := make(plotter.XYs, n)
		for j := 0; j < n; j++ {
			pts[j].X = s.X[j]
			pts[j].Y = s.Y[j]
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("series %q: %w", s.Name, err)
		}
		line.Color = plotutil.Color(i)
		line.LineStyle.Width = vg.Points(1.5)
		p.Add(line)
		if s.Name != "" {
			p.Legend.Add(s.Name, line)
		}
	}
	p.Legend.Top = true
	return p, nil
}

// WriteChart renders the chart as PNG.
func WriteChart(w io.Writer, c ChartSpec) error {
	p, err := c.build()
	if err != nil {
		return err
	}

	width, height := c.Width, c.Height
	if width <= 0 || height <= 0 {
		width, height = 8, 4
	}
	dpi := c.DPI
	if dpi <= 0 {
		dpi = 96
	}

	canvas := vgimg.NewWith(
		vgimg.UseWH(vg.Length(width)*vg.Inch, vg.Length(height)*vg.Inch),
		vgimg.UseDPI(dpi),
	)
	p.Draw(draw.New(canvas))

	png := vgimg.PngCanvas{Canvas: canvas}
	if _, err := png.WriteTo(w); err != nil {
		return fmt.Errorf("cannot write png: %w", err)
	}
	return nil
}

func SaveChart(path string, c ChartSpec) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create png: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if err := WriteChart(bw, c); err != nil {
		return err
	}
	return bw.Flush()
}
