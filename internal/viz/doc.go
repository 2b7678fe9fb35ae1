// Package viz is the terminal front end of the demos.
//
// [Model] is a Bubble Tea program that drives an experiment.Host at 60
// frames per second and renders the selected demo on a braille [Canvas]
// next to a stats panel with an asciigraph chart:
//
//   - pendulum: rod, bob and trail, with the energy history
//   - double-pendulum: both links and the outer bob trail, with the
//     Lyapunov estimate
//   - circuit: an oscilloscope trace of the current
//   - fluid: particles and obstacles; drag with the mouse to push the flow
//
// # Key Bindings
//
//	Space - Start/Pause the selected demo
//	R     - Reset (shift restores parameters too)
//	←→    - Switch demo
//	Tab   - Cycle parameters, ↑↓ to tune
//	O     - Toggle circuit topology
//	A / C - Add / clear fluid obstacles
//	T     - Cycle color themes
//	?     - Show help overlay
package viz
