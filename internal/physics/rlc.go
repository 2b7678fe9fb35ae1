package physics

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/physlab/internal/dynamo"
)

type Topology string

const (
	Series   Topology = "series"
	Parallel Topology = "parallel"
)

func ParseTopology(s string) (Topology, error) {
	switch Topology(s) {
	case Series, Parallel:
		return Topology(s), nil
	}
	return "", fmt.Errorf("%w: unknown topology %q", dynamo.ErrParameterBounds, s)
}

// RLC is a resistor-inductor-capacitor circuit driven by V*sin(2*pi*f*t).
// In series topology it is an ODE over [q, i]; parallel topology is purely
// algebraic, see ParallelCurrent.
type RLC struct {
	R, L, C   float64
	Amplitude float64
	Frequency float64
	Topology  Topology
}

func NewRLC() *RLC {
	return &RLC{
		R:         10,
		L:         0.1,
		C:         0.001,
		Amplitude: 5,
		Frequency: 50,
		Topology:  Series,
	}
}

func (c *RLC) Validate() error {
	var topo error
	if _, err := ParseTopology(string(c.Topology)); err != nil {
		topo = err
	}
	return errors.Join(
		dynamo.RequirePositive("resistance", c.R),
		dynamo.RequirePositive("inductance", c.L),
		dynamo.RequirePositive("capacitance", c.C),
		dynamo.RequireNonNegative("frequency", c.Frequency),
		topo,
	)
}

func (c *RLC) StateDim() int {
	return 2
}

func (c *RLC) DrivingVoltage(t float64) float64 {
	return c.Amplitude * math.Sin(2*math.Pi*c.Frequency*t)
}

// Derive is the series equation L*q'' + R*q' + q/C = v(t) with x = [q, i].
func (c *RLC) Derive(x dynamo.State, t float64) dynamo.State {
	q, i := x[0], x[1]
	di := (c.DrivingVoltage(t) - c.R*i - q/c.C) / c.L
	return dynamo.State{i, di}
}

// ParallelCurrent sums the resistive, inductive and capacitive branch
// currents at instant t. A DC source (f = 0) has no inductive term.
func (c *RLC) ParallelCurrent(t float64) float64 {
	v := c.DrivingVoltage(t)
	w := 2 * math.Pi * c.Frequency
	phase := math.Cos(w * t)

	current := v / c.R
	if c.Frequency > 0 {
		current += v / (w * c.L) * phase
	}
	current += w * c.C * v * phase
	return current
}

func (c *RLC) ResonantFrequency() float64 {
	return 1 / (2 * math.Pi * math.Sqrt(c.L*c.C))
}

func (c *RLC) QualityFactor() float64 {
	return (1 / c.R) * math.Sqrt(c.L/c.C)
}

func (c *RLC) InductiveReactance() float64 {
	return 2 * math.Pi * c.Frequency * c.L
}

// CapacitiveReactance is +Inf for a DC source.
func (c *RLC) CapacitiveReactance() float64 {
	return 1 / (2 * math.Pi * c.Frequency * c.C)
}

// Impedance returns |Z| for the configured topology. At f = 0 the series
// circuit is open (+Inf) and the parallel one is shorted by the inductor (0).
func (c *RLC) Impedance() float64 {
	xl, xc := c.InductiveReactance(), c.CapacitiveReactance()
	if c.Topology == Parallel {
		return 1 / math.Sqrt(1/(c.R*c.R)+math.Pow(1/xc-1/xl, 2))
	}
	return math.Sqrt(c.R*c.R + math.Pow(xl-xc, 2))
}

// EnergyParts reports magnetic (kinetic) and electric (potential) storage.
func (c *RLC) EnergyParts(x dynamo.State) EnergyParts {
	q, i := x[0], x[1]
	magnetic := 0.5 * c.L * i * i
	electric := 0.5 * q * q / c.C
	return EnergyParts{Kinetic: magnetic, Potential: electric, Total: magnetic + electric}
}

func (c *RLC) Energy(x dynamo.State) float64 {
	return c.EnergyParts(x).Total
}

func (c *RLC) GetParams() map[string]float64 {
	return map[string]float64{
		"resistance":  c.R,
		"inductance":  c.L,
		"capacitance": c.C,
		"voltage":     c.Amplitude,
		"frequency":   c.Frequency,
	}
}

func (c *RLC) SetParam(name string, value float64) error {
	next := *c
	switch name {
	case "resistance":
		next.R = value
	case "inductance":
		next.L = value
	case "capacitance":
		next.C = value
	case "voltage":
		next.Amplitude = value
	case "frequency":
		next.Frequency = value
	default:
		return fmt.Errorf("%w: %s", dynamo.ErrUnknownParam, name)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}
