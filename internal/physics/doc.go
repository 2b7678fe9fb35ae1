// Package physics provides the parameter sets and equations of motion of
// the demo systems.
//
// The ODE models implement [dynamo.System] and carry no mutable state:
//
//   - [Pendulum]: damped simple pendulum
//   - [DoublePendulum]: chaotic two-link pendulum, reference or Lagrangian equations
//   - [RLC]: sinusoidally driven series or parallel circuit
//
// Each also implements [dynamo.Configurable] for validated runtime
// parameter changes and [dynamo.Hamiltonian] for energy accounting.
//
// The fluid toy is not an ODE. [FlowField], [Particle] and [Obstacle] hold
// the grid diffusion and collision rules used by the stateful fluid model.
//
//	p := physics.NewPendulum()
//	energy := p.Energy(dynamo.State{math.Pi / 4, 0})
package physics
