// Package analysis provides chaos and spectral analysis tools.
//
//   - [ShadowTracker]: running divergence estimate from a shadow trajectory
//   - [LyapunovExponent]: batch largest-exponent estimate via renormalized
//     trajectory separation
//   - [DFT]: direct discrete Fourier magnitudes of a sampled signal
//   - [PowerSpectrum]: the same bins computed by FFT
//   - [PhasePortrait]: 2D phase space trajectories rendered as text
//
// # Chaos Detection
//
// A positive largest Lyapunov exponent indicates chaotic dynamics:
//
//	lambda, err := analysis.LyapunovExponent(ctx, dyn, integ, x0, dt, duration, 1e-8)
//	if err == nil && lambda > 0 {
//	    // System is chaotic
//	}
package analysis
