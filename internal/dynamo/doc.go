// Package dynamo provides core simulation primitives for the demo models.
//
// The package defines the fundamental interfaces and types shared by the
// integrators, physical systems and stateful demos:
//
//   - [State]: phase-space vector, positions first then velocities
//   - [System]: interface for ODE systems (dX/dt = f(X, t))
//   - [Integrator]: numerical step interface
//   - [Steppable]: what a host drives once per frame
//   - [Ring]: bounded FIFO used for trails and recorded series
//
// # Example
//
//	sys := &physics.Pendulum{Length: 1, Gravity: 9.81, Mass: 1}
//	integ := integrators.NewSymplecticEuler()
//	x = integ.Step(sys, x, t, dt)
//
// # Thread Safety
//
// Nothing in this package is safe for concurrent mutation. Each demo owns
// its state and is stepped from a single goroutine.
package dynamo
