package physics

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/physlab/internal/dynamo"
)

// Equations selects the closed form used for the angular accelerations.
type Equations string

const (
	// ReferenceEquations is the documented classroom form. It is not energy
	// conserving and large swings blow up within seconds.
	ReferenceEquations Equations = "reference"
	// LagrangianEquations is the textbook form derived from the Lagrangian.
	LagrangianEquations Equations = "lagrangian"
)

// ParseEquations accepts "reference", "lagrangian" or "" (reference).
func ParseEquations(s string) (Equations, error) {
	switch Equations(s) {
	case "":
		return ReferenceEquations, nil
	case ReferenceEquations, LagrangianEquations:
		return Equations(s), nil
	}
	return "", fmt.Errorf("%w: unknown equations %q", dynamo.ErrParameterBounds, s)
}

// DoublePendulum is a two-link pendulum with point masses.
// State: [theta1, theta2, omega1, omega2].
type DoublePendulum struct {
	M1, M2    float64
	L1, L2    float64
	Gravity   float64
	Damping   float64
	Equations Equations
}

func NewDoublePendulum() *DoublePendulum {
	return &DoublePendulum{
		M1: 1.0, M2: 1.0,
		L1: 1.0, L2: 1.0,
		Gravity:   9.81,
		Damping:   0.001,
		Equations: ReferenceEquations,
	}
}

func (d *DoublePendulum) Validate() error {
	_, eqErr := ParseEquations(string(d.Equations))
	return errors.Join(
		dynamo.RequirePositive("mass1", d.M1),
		dynamo.RequirePositive("mass2", d.M2),
		dynamo.RequirePositive("length1", d.L1),
		dynamo.RequirePositive("length2", d.L2),
		dynamo.RequirePositive("gravity", d.Gravity),
		dynamo.RequireNonNegative("damping", d.Damping),
		eqErr,
	)
}

func (d *DoublePendulum) StateDim() int {
	return 4
}

// Accelerations returns the angular accelerations of both links using the
// configured equations, with linear damping -b*omega on each joint.
func (d *DoublePendulum) Accelerations(th1, th2, w1, w2 float64) (float64, float64) {
	if d.Equations == LagrangianEquations {
		return d.LagrangianAccelerations(th1, th2, w1, w2)
	}
	return d.ReferenceAccelerations(th1, th2, w1, w2)
}

// ReferenceAccelerations is the documented closed form:
//
//	a1 = [-g(m1+m2)sin1 - m2 g sin2 cos12 + m2 l2 w2^2 sin12 cos12 - m2 l1 w1^2 sin12 - b w1] / (l1 k)
//	a2 = [l1/l2 (m1+m2) g sin1 cos12 + (m1+m2) g sin2 - (m1+m2) l1 w1^2 sin12 - m2 l2 w2^2 sin12 cos12 - b w2] / (l2 k)
//
// with k = m1 + m2 sin^2(th1-th2).
func (d *DoublePendulum) ReferenceAccelerations(th1, th2, w1, w2 float64) (float64, float64) {
	m1, m2, l1, l2, g, b := d.M1, d.M2, d.L1, d.L2, d.Gravity, d.Damping

	sin12 := math.Sin(th1 - th2)
	cos12 := math.Cos(th1 - th2)
	sin1 := math.Sin(th1)
	sin2 := math.Sin(th2)
	k := m1 + m2*sin12*sin12

	num1 := -g*(m1+m2)*sin1 -
		m2*g*sin2*cos12 +
		m2*l2*w2*w2*sin12*cos12 -
		m2*l1*w1*w1*sin12 -
		b*w1

	num2 := l1/l2*(m1+m2)*g*sin1*cos12 +
		(m1+m2)*g*sin2 -
		(m1+m2)*l1*w1*w1*sin12 -
		m2*l2*w2*w2*sin12*cos12 -
		b*w2

	return num1 / (l1 * k), num2 / (l2 * k)
}

// LagrangianAccelerations solves the Lagrangian equations of motion. Unlike
// the reference form it conserves energy when undamped.
func (d *DoublePendulum) LagrangianAccelerations(th1, th2, w1, w2 float64) (float64, float64) {
	m1, m2, l1, l2, g, b := d.M1, d.M2, d.L1, d.L2, d.Gravity, d.Damping

	sin12 := math.Sin(th1 - th2)
	cos12 := math.Cos(th1 - th2)
	sin1 := math.Sin(th1)
	sin2 := math.Sin(th2)

	// never zero while both masses are positive
	k := m1 + m2*sin12*sin12

	num1 := m2*g*sin2*cos12 -
		m2*sin12*(l1*w1*w1*cos12+l2*w2*w2) -
		(m1+m2)*g*sin1 -
		b*w1

	num2 := (m1+m2)*(l1*w1*w1*sin12-g*sin2+g*sin1*cos12) +
		m2*l2*w2*w2*sin12*cos12 -
		b*w2

	return num1 / (l1 * k), num2 / (l2 * k)
}

func (d *DoublePendulum) Derive(x dynamo.State, t float64) dynamo.State {
	a1, a2 := d.Accelerations(x[0], x[1], x[2], x[3])
	return dynamo.State{x[2], x[3], a1, a2}
}

// Bobs returns both bob positions in metres, pivot at the origin, y up.
func (d *DoublePendulum) Bobs(th1, th2 float64) (dynamo.Vec2, dynamo.Vec2) {
	b1 := dynamo.Vec2{X: d.L1 * math.Sin(th1), Y: -d.L1 * math.Cos(th1)}
	b2 := dynamo.Vec2{X: b1.X + d.L2*math.Sin(th2), Y: b1.Y - d.L2*math.Cos(th2)}
	return b1, b2
}

func (d *DoublePendulum) EnergyParts(x dynamo.State) EnergyParts {
	th1, th2, w1, w2 := x[0], x[1], x[2], x[3]
	b1, b2 := d.Bobs(th1, th2)

	vx1 := d.L1 * w1 * math.Cos(th1)
	vy1 := d.L1 * w1 * math.Sin(th1)
	vx2 := vx1 + d.L2*w2*math.Cos(th2)
	vy2 := vy1 + d.L2*w2*math.Sin(th2)

	ke := 0.5*d.M1*(vx1*vx1+vy1*vy1) + 0.5*d.M2*(vx2*vx2+vy2*vy2)
	// zero at the hanging configuration
	pe := d.M1*d.Gravity*(b1.Y+d.L1) + d.M2*d.Gravity*(b2.Y+d.L1+d.L2)
	return EnergyParts{Kinetic: ke, Potential: pe, Total: ke + pe}
}

func (d *DoublePendulum) Energy(x dynamo.State) float64 {
	return d.EnergyParts(x).Total
}

func (d *DoublePendulum) GetParams() map[string]float64 {
	return map[string]float64{
		"mass1":   d.M1,
		"mass2":   d.M2,
		"length1": d.L1,
		"length2": d.L2,
		"gravity": d.Gravity,
		"damping": d.Damping,
	}
}

func (d *DoublePendulum) SetParam(name string, value float64) error {
	next := *d
	switch name {
	case "mass1":
		next.M1 = value
	case "mass2":
		next.M2 = value
	case "length1":
		next.L1 = value
	case "length2":
		next.L2 = value
	case "gravity":
		next.Gravity = value
	case "damping":
		next.Damping = value
	default:
		return fmt.Errorf("%w: %s", dynamo.ErrUnknownParam, name)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*d = next
	return nil
}
