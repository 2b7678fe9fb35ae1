package dynamo

import (
	"fmt"
	"math"
)

// State is a phase-space vector laid out as [positions..., velocities...].
type State []float64

func (s State) Clone() State {
	return append(State(nil), s...)
}

// IsValid reports whether no component is NaN or infinite.
func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Distance is the Euclidean distance to o over the shorter of the two lengths.
func (s State) Distance(o State) float64 {
	n := min(len(s), len(o))
	sum := 0.0
	for i := 0; i < n; i++ {
		d := s[i] - o[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Contract rescales s in place so that its offset from anchor is multiplied
// by f.
func (s State) Contract(anchor State, f float64) {
	for i := range s {
		if i < len(anchor) {
			s[i] = anchor[i] + (s[i]-anchor[i])*f
		}
	}
}

// System is a time-dependent first-order ODE dx/dt = f(x, t).
type System interface {
	Derive(x State, t float64) State
	StateDim() int
}

type Hamiltonian interface {
	Energy(x State) float64
}

type Integrator interface {
	Step(dyn System, x State, t float64, dt float64) State
}

type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

// Format selects a series encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatCSV, FormatJSON:
		return Format(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Steppable is the capability every demo model offers to a host.
type Steppable interface {
	Step(dt float64)
	Reset()
	ExportSeries(format Format) (string, error)
}

type SimError struct {
	Time    float64
	Step    int
	Message string
}

func (e SimError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %s", e.Step, e.Time, e.Message)
}
