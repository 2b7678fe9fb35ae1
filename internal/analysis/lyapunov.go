package analysis

import (
	"context"
	"math"

	"github.com/san-kum/physlab/internal/dynamo"
)

// LyapunovExponent estimates the largest Lyapunov exponent using the
// trajectory separation method. A positive value indicates chaos.
//
// Algorithm:
// 1. Run two nearby trajectories
// 2. Measure their divergence every step
// 3. λ ≈ mean(ln(|δx|/δx0)) / dt, renormalizing δx when it exceeds 1
func LyapunovExponent(
	ctx context.Context,
	dyn dynamo.System,
	integ dynamo.Integrator,
	x0 dynamo.State,
	dt, duration float64,
	perturbation float64,
) (float64, error) {
	if len(x0) == 0 || !(perturbation > 0) {
		return 0, dynamo.ErrInsufficientData
	}

	x := x0.Clone()
	xp := x0.Clone()
	xp[0] += perturbation
	d0 := perturbation

	t := 0.0
	sumLog := 0.0
	count := 0

	for step := 0; t < duration; step++ {
		if step%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
		}

		x = integ.Step(dyn, x, t, dt)
		xp = integ.Step(dyn, xp, t, dt)
		t += dt

		sep := xp.Distance(x)
		if sep > 0 {
			sumLog += math.Log(sep / d0)
			count++
		}

		if sep > 1.0 {
			xp.Contract(x, d0/sep)
		}
	}

	if count == 0 {
		return 0, dynamo.ErrInsufficientData
	}
	return sumLog / (float64(count) * dt), nil
}
