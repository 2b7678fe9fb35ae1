package analysis

import (
	"math"

	"github.com/san-kum/physlab/internal/dynamo"
)

type LyapunovSample struct {
	Time  float64 `json:"time"`
	Value float64 `json:"value"`
}

type ShadowConfig struct {
	// Offset added to every position component of the primary state.
	Offset float64
	// Threshold above which the shadow is pulled back to distance Offset.
	Threshold float64
	// Weights scale the squared component differences in the distance.
	Weights []float64
	// Capacity bounds the estimate series.
	Capacity int
}

// DefaultShadowConfig matches a [theta1, theta2, omega1, omega2] state with
// velocity terms weighted down by 0.01.
func DefaultShadowConfig() ShadowConfig {
	return ShadowConfig{
		Offset:    1e-4,
		Threshold: 10,
		Weights:   []float64{1, 1, 0.01, 0.01},
		Capacity:  1000,
	}
}

// ShadowTracker follows a nearby trajectory and records the running
// divergence estimate ln(d/d0)/t. It is a single time-averaged exponent,
// not an orthogonalized spectrum.
type ShadowTracker struct {
	cfg    ShadowConfig
	shadow dynamo.State
	series *dynamo.Ring[LyapunovSample]
}

func NewShadowTracker(primary dynamo.State, cfg ShadowConfig) *ShadowTracker {
	if cfg.Capacity < 1 {
		cfg.Capacity = 1000
	}
	s := &ShadowTracker{
		cfg:    cfg,
		series: dynamo.NewRing[LyapunovSample](cfg.Capacity),
	}
	s.Reset(primary)
	return s
}

// Reset re-seeds the shadow from primary and clears the series.
func (s *ShadowTracker) Reset(primary dynamo.State) {
	s.shadow = primary.Clone()
	for i := 0; i < len(primary)/2; i++ {
		s.shadow[i] += s.cfg.Offset
	}
	s.series.Clear()
}

// Advance integrates the shadow with the primary's scheme and parameters.
func (s *ShadowTracker) Advance(dyn dynamo.System, integ dynamo.Integrator, t, dt float64) {
	s.shadow = integ.Step(dyn, s.shadow, t, dt)
}

func (s *ShadowTracker) Separation(primary dynamo.State) float64 {
	sum := 0.0
	for i := range primary {
		w := 1.0
		if i < len(s.cfg.Weights) {
			w = s.cfg.Weights[i]
		}
		diff := s.shadow[i] - primary[i]
		sum += w * diff * diff
	}
	return math.Sqrt(sum)
}

// Update records an estimate at time t and renormalizes the shadow when it
// has drifted past the threshold. It returns the separation measured before
// any rescale.
func (s *ShadowTracker) Update(primary dynamo.State, t float64) float64 {
	d := s.Separation(primary)
	d0 := s.cfg.Offset

	if d > 0 && t > 0 {
		s.series.Push(LyapunovSample{Time: t, Value: math.Log(d/d0) / t})
	}

	if d > s.cfg.Threshold {
		scale := d0 / d
		for i := range s.shadow {
			s.shadow[i] = primary[i] + (s.shadow[i]-primary[i])*scale
		}
	}
	return d
}

func (s *ShadowTracker) Series() []LyapunovSample {
	return s.series.Slice()
}

func (s *ShadowTracker) Latest() (LyapunovSample, bool) {
	return s.series.Last()
}

func (s *ShadowTracker) Shadow() dynamo.State {
	return s.shadow.Clone()
}

// Restore replaces the shadow and series, e.g. from a snapshot.
func (s *ShadowTracker) Restore(shadow dynamo.State, series []LyapunovSample) {
	s.shadow = shadow.Clone()
	s.series.Clear()
	for _, p := range series {
		s.series.Push(p)
	}
}
