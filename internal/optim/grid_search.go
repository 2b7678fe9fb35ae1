package optim

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/physlab/internal/experiment"
)

// Axis is one swept parameter and the values it takes.
type Axis struct {
	Param  string
	Values []float64
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi
	return out
}

// ParseAxis reads "name=lo:hi:n" or "name=v1,v2,...".
func ParseAxis(s string) (Axis, error) {
	name, spec, ok := strings.Cut(s, "=")
	if !ok || name == "" || spec == "" {
		return Axis{}, fmt.Errorf("axis %q: want name=lo:hi:n or name=v1,v2", s)
	}

	if parts := strings.Split(spec, ":"); len(parts) == 3 {
		lo, err1 := strconv.ParseFloat(parts[0], 64)
		hi, err2 := strconv.ParseFloat(parts[1], 64)
		n, err3 := strconv.Atoi(parts[2])
		if err1 != nil || err2 != nil || err3 != nil || n < 1 {
			return Axis{}, fmt.Errorf("axis %q: bad range", s)
		}
		return Axis{Param: name, Values: Linspace(lo, hi, n)}, nil
	}

	var values []float64
	for _, f := range strings.Split(spec, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return Axis{}, fmt.Errorf("axis %q: %w", s, err)
		}
		values = append(values, v)
	}
	return Axis{Param: name, Values: values}, nil
}

// Point is one grid cell and the run it produced.
type Point struct {
	Params map[string]float64
	Result *experiment.Result
}

// BuildFunc makes a fresh experiment for one set of parameter values. It
// is called concurrently and must not share models between calls.
type BuildFunc func(params map[string]float64) (*experiment.Experiment, error)

type GridSearch struct {
	axes    []Axis
	workers int
	log     *zap.Logger
}

type Option func(*GridSearch)

func WithWorkers(n int) Option {
	return func(g *GridSearch) {
		if n > 0 {
			g.workers = n
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(g *GridSearch) {
		if l != nil {
			g.log = l
		}
	}
}

func NewGridSearch(axes []Axis, opts ...Option) *GridSearch {
	g := &GridSearch{axes: axes, workers: runtime.GOMAXPROCS(0), log: zap.NewNop()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Points enumerates the cartesian product, last axis varying fastest.
func (g *GridSearch) Points() []map[string]float64 {
	var out []map[string]float64
	g.enumerate(0, map[string]float64{}, &out)
	return out
}

func (g *GridSearch) enumerate(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.axes) {
		p := make(map[string]float64, len(current))
		for k, v := range current {
			p[k] = v
		}
		*out = append(*out, p)
		return
	}
	axis := g.axes[depth]
	for _, v := range axis.Values {
		current[axis.Param] = v
		g.enumerate(depth+1, current, out)
	}
	delete(current, axis.Param)
}

// Run builds and runs every point with at most workers experiments in
// flight. Results keep the order of Points. The first failure cancels the
// remaining runs.
func (g *GridSearch) Run(ctx context.Context, build BuildFunc) ([]Point, error) {
	params := g.Points()
	points := make([]Point, len(params))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.workers)
	for i, p := range params {
		i, p := i, p
		points[i].Params = p
		eg.Go(func() error {
			exp, err := build(p)
			if err != nil {
				return fmt.Errorf("point %v: %w", p, err)
			}
			res, err := exp.Run(ctx)
			if err != nil {
				return fmt.Errorf("point %v: %w", p, err)
			}
			points[i].Result = res
			g.log.Debug("point done", zap.Any("params", p), zap.Int("steps", res.StepsTaken))
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return points, nil
}

// Best returns the point with the lowest metric, or the highest when
// maximize is set. Points missing the metric or holding NaN are skipped.
func Best(points []Point, metric string, maximize bool) (Point, bool) {
	best, found := Point{}, false
	bestVal := math.Inf(1)
	if maximize {
		bestVal = math.Inf(-1)
	}
	for _, p := range points {
		if p.Result == nil {
			continue
		}
		v, ok := p.Result.Metrics[metric]
		if !ok || math.IsNaN(v) {
			continue
		}
		if (maximize && v > bestVal) || (!maximize && v < bestVal) {
			best, bestVal, found = p, v, true
		}
	}
	return best, found
}
