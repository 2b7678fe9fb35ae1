package demo

import (
	"github.com/san-kum/physlab/internal/analysis"
	"github.com/san-kum/physlab/internal/dynamo"
	"github.com/san-kum/physlab/internal/export"
	"github.com/san-kum/physlab/internal/integrators"
	"github.com/san-kum/physlab/internal/physics"
)

type CircuitConfig struct {
	Resistance  float64 `yaml:"resistance" json:"resistance"`
	Inductance  float64 `yaml:"inductance" json:"inductance"`
	Capacitance float64 `yaml:"capacitance" json:"capacitance"`
	Voltage     float64 `yaml:"voltage" json:"voltage"`
	Frequency   float64 `yaml:"frequency" json:"frequency"`
	Topology    string  `yaml:"topology" json:"topology"`
	MaxSamples  int     `yaml:"max_samples" json:"max_samples"`
}

func DefaultCircuitConfig() CircuitConfig {
	return CircuitConfig{
		Resistance:  10,
		Inductance:  0.1,
		Capacitance: 0.001,
		Voltage:     5,
		Frequency:   50,
		Topology:    string(physics.Series),
		MaxSamples:  500,
	}
}

func (c CircuitConfig) system() (*physics.RLC, error) {
	if c.Topology == "" {
		c.Topology = string(physics.Series)
	}
	sys := &physics.RLC{
		R: c.Resistance, L: c.Inductance, C: c.Capacitance,
		Amplitude: c.Voltage,
		Frequency: c.Frequency,
		Topology:  physics.Topology(c.Topology),
	}
	if err := sys.Validate(); err != nil {
		return nil, err
	}
	return sys, nil
}

type CircuitSample struct {
	Time    float64 `json:"time"`
	Current float64 `json:"current"`
	Voltage float64 `json:"voltage"`
	Charge  float64 `json:"charge"`
}

type CircuitState struct {
	Time    float64         `json:"time"`
	Current float64         `json:"current"`
	Charge  float64         `json:"charge"`
	Series  []CircuitSample `json:"series"`
}

// Circuit drives an RLC network with V*sin(2*pi*f*t). Series topology
// integrates the charge ODE; parallel topology evaluates branch currents
// directly and only accumulates charge.
type Circuit struct {
	cfg    CircuitConfig
	sys    *physics.RLC
	integ  dynamo.Integrator
	q, i   float64
	t      float64
	series *dynamo.Ring[CircuitSample]
}

func NewCircuit(cfg CircuitConfig) (*Circuit, error) {
	if cfg.MaxSamples < 1 {
		cfg.MaxSamples = 500
	}
	sys, err := cfg.system()
	if err != nil {
		return nil, err
	}
	cfg.Topology = string(sys.Topology)
	c := &Circuit{
		cfg:    cfg,
		sys:    sys,
		integ:  integrators.NewSymplecticEuler(),
		series: dynamo.NewRing[CircuitSample](cfg.MaxSamples),
	}
	c.Reset()
	return c, nil
}

func (c *Circuit) Kind() Kind { return KindCircuit }

func (c *Circuit) Config() CircuitConfig { return c.cfg }

func (c *Circuit) Time() float64 { return c.t }

func (c *Circuit) Step(dt float64) {
	v := c.sys.DrivingVoltage(c.t)

	switch c.sys.Topology {
	case physics.Parallel:
		c.i = c.sys.ParallelCurrent(c.t)
		c.q += c.i * dt
	default:
		// current first, then charge with the new current
		x := c.integ.Step(c.sys, dynamo.State{c.q, c.i}, c.t, dt)
		c.q, c.i = x[0], x[1]
	}
	c.t += dt

	c.series.Push(CircuitSample{Time: c.t, Current: c.i, Voltage: v, Charge: c.q})
}

func (c *Circuit) Reset() {
	c.q, c.i, c.t = 0, 0, 0
	c.series.Clear()
}

func (c *Circuit) ResetWith(cfg CircuitConfig) error {
	if cfg.MaxSamples < 1 {
		cfg.MaxSamples = c.series.Cap()
	}
	sys, err := cfg.system()
	if err != nil {
		return err
	}
	cfg.Topology = string(sys.Topology)
	c.cfg, c.sys = cfg, sys
	c.series.Resize(cfg.MaxSamples)
	c.Reset()
	return nil
}

// SetTopology switches the network arrangement and zeroes the state.
func (c *Circuit) SetTopology(topo physics.Topology) error {
	cfg := c.cfg
	cfg.Topology = string(topo)
	return c.ResetWith(cfg)
}

func (c *Circuit) Topology() physics.Topology { return c.sys.Topology }

func (c *Circuit) State() CircuitState {
	return CircuitState{Time: c.t, Current: c.i, Charge: c.q, Series: c.series.Slice()}
}

func (c *Circuit) ResonantFrequency() float64   { return c.sys.ResonantFrequency() }
func (c *Circuit) QualityFactor() float64       { return c.sys.QualityFactor() }
func (c *Circuit) Impedance() float64           { return c.sys.Impedance() }
func (c *Circuit) InductiveReactance() float64  { return c.sys.InductiveReactance() }
func (c *Circuit) CapacitiveReactance() float64 { return c.sys.CapacitiveReactance() }

func (c *Circuit) Vector() dynamo.State {
	return dynamo.State{c.q, c.i}
}

func (c *Circuit) Energy() physics.EnergyParts {
	return c.sys.EnergyParts(dynamo.State{c.q, c.i})
}

func (c *Circuit) SetSeriesCapacity(n int) {
	c.series.Resize(n)
	c.cfg.MaxSamples = c.series.Cap()
}

func (c *Circuit) GetParams() map[string]float64 {
	return c.sys.GetParams()
}

func (c *Circuit) SetParam(name string, value float64) error {
	if err := c.sys.SetParam(name, value); err != nil {
		return err
	}
	c.cfg.Resistance, c.cfg.Inductance, c.cfg.Capacitance = c.sys.R, c.sys.L, c.sys.C
	c.cfg.Voltage, c.cfg.Frequency = c.sys.Amplitude, c.sys.Frequency
	return nil
}

// Currents returns the recorded current column.
func (c *Circuit) Currents() []float64 {
	out := make([]float64, c.series.Len())
	for k := range out {
		out[k] = c.series.At(k).Current
	}
	return out
}

// SampleRate is the recorded sample count over elapsed time.
func (c *Circuit) SampleRate() float64 {
	if c.t <= 0 {
		return 0
	}
	return float64(c.series.Len()) / c.t
}

// Spectrum runs the direct DFT over the recorded current.
func (c *Circuit) Spectrum() ([]analysis.Bin, error) {
	return analysis.DFT(c.Currents(), c.SampleRate())
}

// ExportFFT returns the spectrum as a JSON array of {frequency, magnitude}.
// Below two samples it returns dynamo.ErrInsufficientData, which callers
// should treat as an empty spectrum rather than a failure.
func (c *Circuit) ExportFFT() (string, error) {
	bins, err := c.Spectrum()
	if err != nil {
		return "", err
	}
	return export.JSON(bins, export.Options{})
}

func (c *Circuit) Records() []export.Record {
	out := make([]export.Record, 0, c.series.Len())
	for k := 0; k < c.series.Len(); k++ {
		s := c.series.At(k)
		out = append(out, export.Record{
			{Key: "time", Value: s.Time},
			{Key: "current", Value: s.Current},
			{Key: "voltage", Value: s.Voltage},
			{Key: "charge", Value: s.Charge},
		})
	}
	return out
}

func (c *Circuit) ExportSeries(format dynamo.Format) (string, error) {
	return Export(c, format, export.Options{})
}

func (c *Circuit) Snapshot() (Snapshot, error) {
	return newSnapshot(KindCircuit, c.cfg, c.State())
}

func (c *Circuit) Restore(s Snapshot) error {
	var (
		cfg   CircuitConfig
		state CircuitState
	)
	if err := s.decode(KindCircuit, &cfg, &state); err != nil {
		return err
	}
	if err := c.ResetWith(cfg); err != nil {
		return err
	}
	c.t, c.i, c.q = state.Time, state.Current, state.Charge
	restoreRing(c.series, state.Series)
	return nil
}
