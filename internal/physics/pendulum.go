package physics

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/physlab/internal/dynamo"
)

// Pendulum is a damped point-mass pendulum. State: [theta, omega].
type Pendulum struct {
	Length  float64
	Gravity float64
	Mass    float64
	Damping float64
}

func NewPendulum() *Pendulum {
	return &Pendulum{
		Length:  1.0,
		Gravity: 9.81,
		Mass:    1.0,
		Damping: 0.01,
	}
}

func (p *Pendulum) Validate() error {
	return errors.Join(
		dynamo.RequirePositive("length", p.Length),
		dynamo.RequirePositive("gravity", p.Gravity),
		dynamo.RequirePositive("mass", p.Mass),
		dynamo.RequireNonNegative("damping", p.Damping),
	)
}

func (p *Pendulum) StateDim() int {
	return 2
}

// Acceleration is the angular acceleration -(g/L)sin(theta) - (b/m)omega.
func (p *Pendulum) Acceleration(theta, omega float64) float64 {
	return -(p.Gravity/p.Length)*math.Sin(theta) - (p.Damping/p.Mass)*omega
}

func (p *Pendulum) Derive(x dynamo.State, t float64) dynamo.State {
	return dynamo.State{x[1], p.Acceleration(x[0], x[1])}
}

type EnergyParts struct {
	Kinetic   float64 `json:"kinetic"`
	Potential float64 `json:"potential"`
	Total     float64 `json:"total"`
}

func (p *Pendulum) EnergyParts(x dynamo.State) EnergyParts {
	// KE = 0.5 * m * (L*omega)^2
	// PE = m * g * L * (1 - cos(theta))
	v := p.Length * x[1]
	ke := 0.5 * p.Mass * v * v
	pe := p.Mass * p.Gravity * p.Length * (1.0 - math.Cos(x[0]))
	return EnergyParts{Kinetic: ke, Potential: pe, Total: ke + pe}
}

func (p *Pendulum) Energy(x dynamo.State) float64 {
	return p.EnergyParts(x).Total
}

// BobPosition returns the bob in metres with the pivot at the origin and y up.
func (p *Pendulum) BobPosition(theta float64) dynamo.Vec2 {
	return dynamo.Vec2{X: p.Length * math.Sin(theta), Y: -p.Length * math.Cos(theta)}
}

// Period is the small-angle period 2*pi*sqrt(L/g).
func (p *Pendulum) Period() float64 {
	return 2 * math.Pi * math.Sqrt(p.Length/p.Gravity)
}

func (p *Pendulum) GetParams() map[string]float64 {
	return map[string]float64{
		"length":  p.Length,
		"gravity": p.Gravity,
		"mass":    p.Mass,
		"damping": p.Damping,
	}
}

func (p *Pendulum) SetParam(name string, value float64) error {
	next := *p
	switch name {
	case "length":
		next.Length = value
	case "gravity":
		next.Gravity = value
	case "mass":
		next.Mass = value
	case "damping":
		next.Damping = value
	default:
		return fmt.Errorf("%w: %s", dynamo.ErrUnknownParam, name)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*p = next
	return nil
}
