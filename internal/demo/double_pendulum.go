package demo

import (
	"fmt"
	"math"

	"github.com/san-kum/physlab/internal/analysis"
	"github.com/san-kum/physlab/internal/dynamo"
	"github.com/san-kum/physlab/internal/export"
	"github.com/san-kum/physlab/internal/integrators"
	"github.com/san-kum/physlab/internal/physics"
)

type DoublePendulumConfig struct {
	Mass1         float64 `yaml:"mass1" json:"mass1"`
	Mass2         float64 `yaml:"mass2" json:"mass2"`
	Length1       float64 `yaml:"length1" json:"length1"`
	Length2       float64 `yaml:"length2" json:"length2"`
	Gravity       float64 `yaml:"gravity" json:"gravity"`
	Damping       float64 `yaml:"damping" json:"damping"`
	Angle1        float64 `yaml:"angle1" json:"angle1"`
	Angle2        float64 `yaml:"angle2" json:"angle2"`
	TrailLength   int     `yaml:"trail_length" json:"trail_length"`
	Separation    float64 `yaml:"separation" json:"separation"`
	RescaleAbove  float64 `yaml:"rescale_above" json:"rescale_above"`
	LyapunovLimit int     `yaml:"lyapunov_limit" json:"lyapunov_limit"`
	Equations     string  `yaml:"equations" json:"equations"`
}

func DefaultDoublePendulumConfig() DoublePendulumConfig {
	return DoublePendulumConfig{
		Mass1: 1, Mass2: 1,
		Length1: 1, Length2: 1,
		Gravity:       9.81,
		Damping:       0.001,
		Angle1:        math.Pi / 2,
		Angle2:        math.Pi / 2,
		TrailLength:   500,
		Separation:    1e-4,
		RescaleAbove:  10,
		LyapunovLimit: 1000,
		Equations:     string(physics.ReferenceEquations),
	}
}

func (c *DoublePendulumConfig) fill() {
	d := DefaultDoublePendulumConfig()
	if c.TrailLength < 1 {
		c.TrailLength = d.TrailLength
	}
	if c.Separation <= 0 {
		c.Separation = d.Separation
	}
	if c.RescaleAbove <= 0 {
		c.RescaleAbove = d.RescaleAbove
	}
	if c.LyapunovLimit < 1 {
		c.LyapunovLimit = d.LyapunovLimit
	}
	if c.Equations == "" {
		c.Equations = d.Equations
	}
}

func (c DoublePendulumConfig) system() *physics.DoublePendulum {
	return &physics.DoublePendulum{
		M1: c.Mass1, M2: c.Mass2,
		L1: c.Length1, L2: c.Length2,
		Gravity:   c.Gravity,
		Damping:   c.Damping,
		Equations: physics.Equations(c.Equations),
	}
}

func (c DoublePendulumConfig) shadow() analysis.ShadowConfig {
	cfg := analysis.DefaultShadowConfig()
	cfg.Offset = c.Separation
	cfg.Threshold = c.RescaleAbove
	cfg.Capacity = c.LyapunovLimit
	return cfg
}

type DoublePendulumSample struct {
	Time   float64     `json:"time"`
	Angle1 float64     `json:"angle1"`
	Angle2 float64     `json:"angle2"`
	Vel1   float64     `json:"vel1"`
	Vel2   float64     `json:"vel2"`
	Bob1   dynamo.Vec2 `json:"bob1"`
	Bob2   dynamo.Vec2 `json:"bob2"`
}

type DoublePendulumState struct {
	Angle1   float64                   `json:"angle1"`
	Angle2   float64                   `json:"angle2"`
	Vel1     float64                   `json:"vel1"`
	Vel2     float64                   `json:"vel2"`
	Time     float64                   `json:"time"`
	Trail    []DoublePendulumSample    `json:"trail"`
	Lyapunov []analysis.LyapunovSample `json:"lyapunov"`
}

// persisted form; the shadow never leaves the model otherwise
type doublePendulumSnapshot struct {
	DoublePendulumState
	Shadow dynamo.State `json:"shadow"`
}

// DoublePendulum integrates the two-link pendulum and a shadow trajectory
// offset by Separation radians, recording a running divergence estimate.
type DoublePendulum struct {
	cfg    DoublePendulumConfig
	sys    *physics.DoublePendulum
	integ  dynamo.Integrator
	x      dynamo.State
	t      float64
	trail  *dynamo.Ring[DoublePendulumSample]
	shadow *analysis.ShadowTracker
}

func NewDoublePendulum(cfg DoublePendulumConfig) (*DoublePendulum, error) {
	cfg.fill()
	sys := cfg.system()
	if err := sys.Validate(); err != nil {
		return nil, err
	}
	d := &DoublePendulum{
		cfg:   cfg,
		sys:   sys,
		integ: integrators.NewSymplecticEuler(),
		trail: dynamo.NewRing[DoublePendulumSample](cfg.TrailLength),
	}
	d.Reset()
	return d, nil
}

func (d *DoublePendulum) Kind() Kind { return KindDoublePendulum }

func (d *DoublePendulum) Config() DoublePendulumConfig { return d.cfg }

func (d *DoublePendulum) Time() float64 { return d.t }

func (d *DoublePendulum) Step(dt float64) {
	d.x = d.integ.Step(d.sys, d.x, d.t, dt)
	d.shadow.Advance(d.sys, d.integ, d.t, dt)
	d.t += dt

	b1, b2 := d.sys.Bobs(d.x[0], d.x[1])
	d.trail.Push(DoublePendulumSample{
		Time:   d.t,
		Angle1: d.x[0], Angle2: d.x[1],
		Vel1: d.x[2], Vel2: d.x[3],
		Bob1: b1, Bob2: b2,
	})

	d.shadow.Update(d.x, d.t)
}

func (d *DoublePendulum) Reset() {
	d.x = dynamo.State{d.cfg.Angle1, d.cfg.Angle2, 0, 0}
	d.t = 0
	d.trail.Clear()
	d.shadow = analysis.NewShadowTracker(d.x, d.cfg.shadow())
}

func (d *DoublePendulum) ResetWith(cfg DoublePendulumConfig) error {
	cfg.fill()
	sys := cfg.system()
	if err := sys.Validate(); err != nil {
		return err
	}
	d.cfg, d.sys = cfg, sys
	d.trail.Resize(cfg.TrailLength)
	d.Reset()
	return nil
}

func (d *DoublePendulum) State() DoublePendulumState {
	return DoublePendulumState{
		Angle1:   d.x[0],
		Angle2:   d.x[1],
		Vel1:     d.x[2],
		Vel2:     d.x[3],
		Time:     d.t,
		Trail:    d.trail.Slice(),
		Lyapunov: d.shadow.Series(),
	}
}

func (d *DoublePendulum) Vector() dynamo.State {
	return d.x.Clone()
}

// System returns a copy of the equations of motion in use.
func (d *DoublePendulum) System() *physics.DoublePendulum {
	sys := *d.sys
	return &sys
}

func (d *DoublePendulum) Energy() physics.EnergyParts {
	return d.sys.EnergyParts(d.x)
}

// Separation is the current weighted phase-space distance to the shadow.
func (d *DoublePendulum) Separation() float64 {
	return d.shadow.Separation(d.x)
}

// Lyapunov returns the latest running estimate.
func (d *DoublePendulum) Lyapunov() (analysis.LyapunovSample, bool) {
	return d.shadow.Latest()
}

func (d *DoublePendulum) SetTrailCapacity(n int) {
	d.trail.Resize(n)
	d.cfg.TrailLength = d.trail.Cap()
}

func (d *DoublePendulum) GetParams() map[string]float64 {
	return d.sys.GetParams()
}

func (d *DoublePendulum) SetParam(name string, value float64) error {
	if err := d.sys.SetParam(name, value); err != nil {
		return err
	}
	d.cfg.Mass1, d.cfg.Mass2 = d.sys.M1, d.sys.M2
	d.cfg.Length1, d.cfg.Length2 = d.sys.L1, d.sys.L2
	d.cfg.Gravity, d.cfg.Damping = d.sys.Gravity, d.sys.Damping
	return nil
}

func (d *DoublePendulum) Records() []export.Record {
	out := make([]export.Record, 0, d.trail.Len())
	for i := 0; i < d.trail.Len(); i++ {
		s := d.trail.At(i)
		out = append(out, export.Record{
			{Key: "time", Value: s.Time},
			{Key: "angle1", Value: s.Angle1},
			{Key: "angle2", Value: s.Angle2},
			{Key: "velocity1", Value: s.Vel1},
			{Key: "velocity2", Value: s.Vel2},
			{Key: "bob1", Value: vecRecord(s.Bob1)},
			{Key: "bob2", Value: vecRecord(s.Bob2)},
		})
	}
	return out
}

func (d *DoublePendulum) ExportSeries(format dynamo.Format) (string, error) {
	return Export(d, format, export.Options{})
}

// ExportLyapunovSeries returns the estimate series as a JSON array of
// {time, value}. Before the first estimate it returns dynamo.ErrInsufficientData,
// which callers should treat as an empty series rather than a failure.
func (d *DoublePendulum) ExportLyapunovSeries() (string, error) {
	series := d.shadow.Series()
	if len(series) == 0 {
		return "", dynamo.ErrInsufficientData
	}
	return export.JSON(series, export.Options{})
}

func (d *DoublePendulum) Snapshot() (Snapshot, error) {
	return newSnapshot(KindDoublePendulum, d.cfg, doublePendulumSnapshot{
		DoublePendulumState: d.State(),
		Shadow:              d.shadow.Shadow(),
	})
}

func (d *DoublePendulum) Restore(s Snapshot) error {
	var (
		cfg   DoublePendulumConfig
		state doublePendulumSnapshot
	)
	if err := s.decode(KindDoublePendulum, &cfg, &state); err != nil {
		return err
	}
	if len(state.Shadow) != d.sys.StateDim() {
		return fmt.Errorf("restore state: %w: shadow has %d components, expected %d",
			ErrBadSnapshot, len(state.Shadow), d.sys.StateDim())
	}
	if err := d.ResetWith(cfg); err != nil {
		return err
	}
	d.x = dynamo.State{state.Angle1, state.Angle2, state.Vel1, state.Vel2}
	d.t = state.Time
	restoreRing(d.trail, state.Trail)
	d.shadow.Restore(state.Shadow, state.Lyapunov)
	return nil
}
