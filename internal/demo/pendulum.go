package demo

import (
	"math"

	"github.com/san-kum/physlab/internal/dynamo"
	"github.com/san-kum/physlab/internal/export"
	"github.com/san-kum/physlab/internal/integrators"
	"github.com/san-kum/physlab/internal/physics"
)

type PendulumConfig struct {
	Length          float64 `yaml:"length" json:"length"`
	Gravity         float64 `yaml:"gravity" json:"gravity"`
	Mass            float64 `yaml:"mass" json:"mass"`
	Damping         float64 `yaml:"damping" json:"damping"`
	InitialAngle    float64 `yaml:"initial_angle" json:"initial_angle"`
	InitialVelocity float64 `yaml:"initial_velocity" json:"initial_velocity"`
	TrailLength     int     `yaml:"trail_length" json:"trail_length"`
}

func DefaultPendulumConfig() PendulumConfig {
	return PendulumConfig{
		Length:       1.0,
		Gravity:      9.81,
		Mass:         1.0,
		Damping:      0.01,
		InitialAngle: math.Pi / 4,
		TrailLength:  100,
	}
}

func (c PendulumConfig) system() *physics.Pendulum {
	return &physics.Pendulum{Length: c.Length, Gravity: c.Gravity, Mass: c.Mass, Damping: c.Damping}
}

type PendulumSample struct {
	Time            float64             `json:"time"`
	Pos             dynamo.Vec2         `json:"position"`
	Angle           float64             `json:"angle"`
	AngularVelocity float64             `json:"angular_velocity"`
	Energy          physics.EnergyParts `json:"energy"`
}

type PendulumState struct {
	Angle           float64          `json:"angle"`
	AngularVelocity float64          `json:"angular_velocity"`
	Time            float64          `json:"time"`
	Trail           []PendulumSample `json:"trail"`
}

// SimplePendulum integrates a damped pendulum with semi-implicit Euler and
// keeps a bounded trail of bob samples.
type SimplePendulum struct {
	cfg   PendulumConfig
	sys   *physics.Pendulum
	integ dynamo.Integrator
	x     dynamo.State
	t     float64
	trail *dynamo.Ring[PendulumSample]
}

func NewSimplePendulum(cfg PendulumConfig) (*SimplePendulum, error) {
	if cfg.TrailLength < 1 {
		cfg.TrailLength = 100
	}
	sys := cfg.system()
	if err := sys.Validate(); err != nil {
		return nil, err
	}
	p := &SimplePendulum{
		cfg:   cfg,
		sys:   sys,
		integ: integrators.NewSymplecticEuler(),
		trail: dynamo.NewRing[PendulumSample](cfg.TrailLength),
	}
	p.Reset()
	return p, nil
}

func (p *SimplePendulum) Kind() Kind { return KindPendulum }

func (p *SimplePendulum) Config() PendulumConfig { return p.cfg }

func (p *SimplePendulum) Time() float64 { return p.t }

func (p *SimplePendulum) Step(dt float64) {
	p.x = p.integ.Step(p.sys, p.x, p.t, dt)
	p.t += dt
	p.trail.Push(p.sample())
}

func (p *SimplePendulum) sample() PendulumSample {
	return PendulumSample{
		Time:            p.t,
		Pos:             p.sys.BobPosition(p.x[0]),
		Angle:           p.x[0],
		AngularVelocity: p.x[1],
		Energy:          p.sys.EnergyParts(p.x),
	}
}

// Reset returns to the configured initial angle and velocity.
func (p *SimplePendulum) Reset() {
	p.x = dynamo.State{p.cfg.InitialAngle, p.cfg.InitialVelocity}
	p.t = 0
	p.trail.Clear()
}

// ResetWith validates cfg, adopts it and resets. On error nothing changes.
func (p *SimplePendulum) ResetWith(cfg PendulumConfig) error {
	if cfg.TrailLength < 1 {
		cfg.TrailLength = p.trail.Cap()
	}
	sys := cfg.system()
	if err := sys.Validate(); err != nil {
		return err
	}
	p.cfg, p.sys = cfg, sys
	p.trail.Resize(cfg.TrailLength)
	p.Reset()
	return nil
}

func (p *SimplePendulum) State() PendulumState {
	return PendulumState{
		Angle:           p.x[0],
		AngularVelocity: p.x[1],
		Time:            p.t,
		Trail:           p.trail.Slice(),
	}
}

func (p *SimplePendulum) Vector() dynamo.State {
	return p.x.Clone()
}

func (p *SimplePendulum) Energy() physics.EnergyParts {
	return p.sys.EnergyParts(p.x)
}

func (p *SimplePendulum) Period() float64 {
	return p.sys.Period()
}

func (p *SimplePendulum) SetTrailCapacity(n int) {
	p.trail.Resize(n)
	p.cfg.TrailLength = p.trail.Cap()
}

func (p *SimplePendulum) GetParams() map[string]float64 {
	return p.sys.GetParams()
}

// SetParam changes a physical constant without resetting the motion.
func (p *SimplePendulum) SetParam(name string, value float64) error {
	if err := p.sys.SetParam(name, value); err != nil {
		return err
	}
	p.cfg.Length, p.cfg.Gravity = p.sys.Length, p.sys.Gravity
	p.cfg.Mass, p.cfg.Damping = p.sys.Mass, p.sys.Damping
	return nil
}

func (p *SimplePendulum) Records() []export.Record {
	out := make([]export.Record, 0, p.trail.Len())
	for i := 0; i < p.trail.Len(); i++ {
		s := p.trail.At(i)
		out = append(out, export.Record{
			{Key: "time", Value: s.Time},
			{Key: "angle", Value: s.Angle},
			{Key: "angular_velocity", Value: s.AngularVelocity},
			{Key: "position", Value: vecRecord(s.Pos)},
			{Key: "energy", Value: energyRecord(s.Energy)},
		})
	}
	return out
}

func (p *SimplePendulum) ExportSeries(format dynamo.Format) (string, error) {
	return Export(p, format, export.Options{})
}

func (p *SimplePendulum) Snapshot() (Snapshot, error) {
	return newSnapshot(KindPendulum, p.cfg, p.State())
}

func (p *SimplePendulum) Restore(s Snapshot) error {
	var (
		cfg   PendulumConfig
		state PendulumState
	)
	if err := s.decode(KindPendulum, &cfg, &state); err != nil {
		return err
	}
	if err := p.ResetWith(cfg); err != nil {
		return err
	}
	p.x = dynamo.State{state.Angle, state.AngularVelocity}
	p.t = state.Time
	restoreRing(p.trail, state.Trail)
	return nil
}
