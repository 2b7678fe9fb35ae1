package demo

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/physlab/internal/analysis"
	"github.com/san-kum/physlab/internal/dynamo"
	"github.com/san-kum/physlab/internal/physics"
)

func mustCircuit(t *testing.T, cfg CircuitConfig) *Circuit {
	t.Helper()
	c, err := NewCircuit(cfg)
	if err != nil {
		t.Fatalf("NewCircuit: %v", err)
	}
	return c
}

func resonantConfig() CircuitConfig {
	cfg := DefaultCircuitConfig()
	cfg.Resistance = 1
	cfg.Inductance = 0.1
	cfg.Capacitance = 0.001
	cfg.Voltage = 5
	cfg.Frequency = 1 / (2 * math.Pi * math.Sqrt(0.1*0.001))
	return cfg
}

func TestCircuitReferenceTrajectory(t *testing.T) {
	tests := []struct {
		name      string
		frequency float64
		current   float64
		charge    float64
	}{
		{"at resonance", 1 / (2 * math.Pi * math.Sqrt(0.1*0.001)), -1.0938406349231986, 0.015481614041811689},
		{"159.15 Hz", 159.15, -0.06755894885197411, -0.0001391052226562697},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := resonantConfig()
			cfg.Frequency = tt.frequency
			c := mustCircuit(t, cfg)

			for i := 0; i < 1000; i++ {
				c.Step(0.0001)
			}
			s := c.State()
			if math.Abs(s.Current-tt.current) > 1e-6 {
				t.Errorf("current: got %.12f, expected %.12f", s.Current, tt.current)
			}
			if math.Abs(s.Charge-tt.charge) > 1e-6 {
				t.Errorf("charge: got %.12f, expected %.12f", s.Charge, tt.charge)
			}
		})
	}
}

func TestCircuitSeriesMatchesDirectLoop(t *testing.T) {
	cfg := resonantConfig()
	c := mustCircuit(t, cfg)

	q, i, tm := 0.0, 0.0, 0.0
	dt := 0.0001
	for k := 0; k < 1000; k++ {
		v := cfg.Voltage * math.Sin(2*math.Pi*cfg.Frequency*tm)
		i += (v - cfg.Resistance*i - q/cfg.Capacitance) / cfg.Inductance * dt
		q += i * dt
		tm += dt

		c.Step(dt)
		s := c.State()
		if math.Abs(s.Current-i) > 1e-12 || math.Abs(s.Charge-q) > 1e-12 {
			t.Fatalf("step %d: got (%g, %g), expected (%g, %g)", k, s.Current, s.Charge, i, q)
		}
	}
}

func TestCircuitResonanceGrowth(t *testing.T) {
	c := mustCircuit(t, resonantConfig())

	early, late := 0.0, 0.0
	for k := 0; k < 1000; k++ {
		c.Step(0.0001)
		amp := math.Abs(c.State().Current)
		if k < 250 {
			early = math.Max(early, amp)
		}
		if k >= 750 {
			late = math.Max(late, amp)
		}
	}
	if late <= 2*early {
		t.Errorf("current amplitude should grow at resonance: early %f, late %f", early, late)
	}
}

func TestCircuitParallel(t *testing.T) {
	cfg := DefaultCircuitConfig()
	cfg.Topology = string(physics.Parallel)
	c := mustCircuit(t, cfg)

	rlc := &physics.RLC{R: cfg.Resistance, L: cfg.Inductance, C: cfg.Capacitance,
		Amplitude: cfg.Voltage, Frequency: cfg.Frequency, Topology: physics.Parallel}

	q, tm, dt := 0.0, 0.0, 0.001
	for k := 0; k < 100; k++ {
		i := rlc.ParallelCurrent(tm)
		q += i * dt
		tm += dt
		c.Step(dt)
		if s := c.State(); s.Current != i || math.Abs(s.Charge-q) > 1e-15 {
			t.Fatalf("step %d: got (%g, %g), expected (%g, %g)", k, s.Current, s.Charge, i, q)
		}
	}
}

func TestCircuitParallelDirectCurrent(t *testing.T) {
	cfg := DefaultCircuitConfig()
	cfg.Topology = string(physics.Parallel)
	cfg.Frequency = 0
	c := mustCircuit(t, cfg)

	for k := 0; k < 10; k++ {
		c.Step(0.01)
	}
	if s := c.State(); math.IsNaN(s.Current) || math.IsNaN(s.Charge) {
		t.Errorf("DC parallel produced NaN: %+v", s)
	}
}

func TestCircuitSetTopologyResets(t *testing.T) {
	c := mustCircuit(t, DefaultCircuitConfig())
	for k := 0; k < 10; k++ {
		c.Step(0.001)
	}

	if err := c.SetTopology(physics.Parallel); err != nil {
		t.Fatal(err)
	}
	s := c.State()
	if s.Time != 0 || s.Current != 0 || s.Charge != 0 || len(s.Series) != 0 {
		t.Errorf("topology change should zero the state: %+v", s)
	}
	if c.Topology() != physics.Parallel {
		t.Errorf("topology = %s", c.Topology())
	}
	if err := c.SetTopology("mesh"); err == nil {
		t.Error("unknown topology accepted")
	}
}

func TestCircuitRejectsBadConfig(t *testing.T) {
	for _, mutate := range []func(*CircuitConfig){
		func(c *CircuitConfig) { c.Resistance = 0 },
		func(c *CircuitConfig) { c.Inductance = -0.1 },
		func(c *CircuitConfig) { c.Capacitance = 0 },
		func(c *CircuitConfig) { c.Frequency = -1 },
	} {
		cfg := DefaultCircuitConfig()
		mutate(&cfg)
		if _, err := NewCircuit(cfg); !errors.Is(err, dynamo.ErrParameterBounds) {
			t.Errorf("config %+v: expected ErrParameterBounds, got %v", cfg, err)
		}
	}
}

func TestCircuitSeriesCapacity(t *testing.T) {
	c := mustCircuit(t, DefaultCircuitConfig())
	dt := 0.001
	for k := 0; k < 700; k++ {
		c.Step(dt)
	}
	series := c.State().Series
	if len(series) != 500 {
		t.Fatalf("series length = %d, want 500", len(series))
	}
	if math.Abs(series[0].Time-201*dt) > 1e-9 {
		t.Errorf("oldest sample at t=%f, expected %f", series[0].Time, 201*dt)
	}
}

func TestCircuitExportFFT(t *testing.T) {
	c := mustCircuit(t, DefaultCircuitConfig())

	if _, err := c.ExportFFT(); !errors.Is(err, dynamo.ErrInsufficientData) {
		t.Errorf("empty series: expected ErrInsufficientData, got %v", err)
	}
	c.Step(0.001)
	if _, err := c.ExportFFT(); !errors.Is(err, dynamo.ErrInsufficientData) {
		t.Errorf("one sample: expected ErrInsufficientData, got %v", err)
	}

	for k := 1; k < 400; k++ {
		c.Step(0.001)
	}
	out, err := c.ExportFFT()
	if err != nil {
		t.Fatal(err)
	}
	var bins []analysis.Bin
	if err := json.Unmarshal([]byte(out), &bins); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(bins) != 200 {
		t.Errorf("expected 200 bins, got %d", len(bins))
	}
	peak, _ := analysis.PeakFrequency(bins)
	// 400 samples at 1 kHz: 2.5 Hz bins
	if math.Abs(peak.Frequency-50) > 2.5 {
		t.Errorf("peak at %f Hz, expected the 50 Hz drive", peak.Frequency)
	}
}

func TestCircuitDerived(t *testing.T) {
	c := mustCircuit(t, resonantConfig())
	if math.Abs(c.ResonantFrequency()-c.Config().Frequency) > 1e-9 {
		t.Errorf("resonance %f vs drive %f", c.ResonantFrequency(), c.Config().Frequency)
	}
	if math.Abs(c.Impedance()-1) > 1e-9 {
		t.Errorf("impedance at resonance should equal R, got %f", c.Impedance())
	}
	if math.Abs(c.InductiveReactance()-c.CapacitiveReactance()) > 1e-9 {
		t.Errorf("reactances should cancel: %f vs %f", c.InductiveReactance(), c.CapacitiveReactance())
	}
}
