package optim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/physlab/internal/config"
	"github.com/san-kum/physlab/internal/demo"
	"github.com/san-kum/physlab/internal/dynamo"
	"github.com/san-kum/physlab/internal/experiment"
)

func TestLinspace(t *testing.T) {
	got := Linspace(0, 1, 5)
	expected := []float64{0, 0.25, 0.5, 0.75, 1}
	for i := range expected {
		if math.Abs(got[i]-expected[i]) > 1e-12 {
			t.Errorf("index %d: got %f, expected %f", i, got[i], expected[i])
		}
	}
	if got := Linspace(3, 9, 1); len(got) != 1 || got[0] != 3 {
		t.Errorf("single value: got %v", got)
	}
}

func TestParseAxis(t *testing.T) {
	tests := []struct {
		in      string
		param   string
		values  []float64
		wantErr bool
	}{
		{"frequency=10:30:3", "frequency", []float64{10, 20, 30}, false},
		{"damping=0, 0.1,0.5", "damping", []float64{0, 0.1, 0.5}, false},
		{"frequency", "", nil, true},
		{"=1,2", "", nil, true},
		{"mass=1:2:x", "", nil, true},
		{"mass=a,b", "", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			axis, err := ParseAxis(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", axis)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if axis.Param != tt.param || len(axis.Values) != len(tt.values) {
				t.Fatalf("got %+v", axis)
			}
			for i, v := range tt.values {
				if axis.Values[i] != v {
					t.Errorf("value %d: got %f, expected %f", i, axis.Values[i], v)
				}
			}
		})
	}
}

func TestPointsCartesianOrder(t *testing.T) {
	g := NewGridSearch([]Axis{
		{Param: "a", Values: []float64{1, 2}},
		{Param: "b", Values: []float64{10, 20, 30}},
	})
	points := g.Points()
	if len(points) != 6 {
		t.Fatalf("got %d points, expected 6", len(points))
	}
	if points[0]["a"] != 1 || points[0]["b"] != 10 || points[1]["b"] != 20 || points[3]["a"] != 2 {
		t.Errorf("unexpected order: %v", points)
	}
	points[0]["a"] = 99
	if g.Points()[0]["a"] != 1 {
		t.Error("points share maps")
	}
}

func circuitBuilder(reg *experiment.Registry) BuildFunc {
	return func(params map[string]float64) (*experiment.Experiment, error) {
		cfg := config.DefaultConfig()
		m, err := reg.GetModel(demo.KindCircuit, cfg)
		if err != nil {
			return nil, err
		}
		for k, v := range params {
			if err := m.SetParam(k, v); err != nil {
				return nil, err
			}
		}
		return experiment.New(
			experiment.Config{Dt: 0.0005, Duration: 1},
			m,
			experiment.WithMetrics(reg.DefaultMetrics(demo.KindCircuit)...),
		), nil
	}
}

func TestSweepFindsResonance(t *testing.T) {
	reg := experiment.NewRegistry()
	g := NewGridSearch([]Axis{{Param: "frequency", Values: []float64{5, 15.9155, 50}}}, WithWorkers(2))

	points, err := g.Run(context.Background(), circuitBuilder(reg))
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("got %d points", len(points))
	}
	for i, f := range []float64{5, 15.9155, 50} {
		if points[i].Params["frequency"] != f || points[i].Result == nil {
			t.Errorf("point %d out of order: %+v", i, points[i].Params)
		}
	}

	best, ok := Best(points, "peak_current", true)
	if !ok {
		t.Fatal("no best point")
	}
	if best.Params["frequency"] != 15.9155 {
		t.Errorf("resonance: got %f Hz, expected 15.9155", best.Params["frequency"])
	}
	if peak := best.Result.Metrics["peak_current"]; math.Abs(peak-0.5) > 0.01 {
		t.Errorf("peak current: got %f, expected about 0.5 (V/R)", peak)
	}

	low, _ := Best(points, "peak_current", false)
	if low.Params["frequency"] == 15.9155 {
		t.Error("minimum should be off resonance")
	}
}

func TestSweepStopsOnBuildError(t *testing.T) {
	reg := experiment.NewRegistry()
	g := NewGridSearch([]Axis{{Param: "resistance", Values: []float64{1, -1}}})

	_, err := g.Run(context.Background(), circuitBuilder(reg))
	if !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("got %v, expected ErrParameterBounds", err)
	}
}

func TestBestSkipsMissingMetric(t *testing.T) {
	points := []Point{
		{Params: map[string]float64{"x": 1}},
		{Params: map[string]float64{"x": 2}, Result: &experiment.Result{Metrics: map[string]float64{"m": math.NaN()}}},
		{Params: map[string]float64{"x": 3}, Result: &experiment.Result{Metrics: map[string]float64{"m": 4}}},
	}
	best, ok := Best(points, "m", false)
	if !ok || best.Params["x"] != 3 {
		t.Errorf("got %+v, expected x=3", best.Params)
	}
	if _, ok := Best(points, "other", false); ok {
		t.Error("absent metric should find nothing")
	}
}
