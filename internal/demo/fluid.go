package demo

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/san-kum/physlab/internal/dynamo"
	"github.com/san-kum/physlab/internal/export"
	"github.com/san-kum/physlab/internal/physics"
)

const (
	forceRadius    = 100.0
	obstacleRadius = 30.0
	stepScale      = 60.0
)

type FluidConfig struct {
	Viscosity     float64 `yaml:"viscosity" json:"viscosity"`
	Density       float64 `yaml:"density" json:"density"`
	ForceStrength float64 `yaml:"force_strength" json:"force_strength"`
	VelocityScale float64 `yaml:"velocity_scale" json:"velocity_scale"`
	Jitter        float64 `yaml:"jitter" json:"jitter"`
	Particles     int     `yaml:"particles" json:"particles"`
	GridWidth     int     `yaml:"grid_width" json:"grid_width"`
	GridHeight    int     `yaml:"grid_height" json:"grid_height"`
	Width         float64 `yaml:"width" json:"width"`
	Height        float64 `yaml:"height" json:"height"`
	Seed          int64   `yaml:"seed" json:"seed"`
	MaxSamples    int     `yaml:"max_samples" json:"max_samples"`
}

func DefaultFluidConfig() FluidConfig {
	return FluidConfig{
		Viscosity:     0.001,
		Density:       1.0,
		ForceStrength: 0.5,
		VelocityScale: 1.0,
		Particles:     500,
		GridWidth:     32,
		GridHeight:    24,
		Width:         800,
		Height:        600,
		Seed:          1,
		MaxSamples:    500,
	}
}

func (c *FluidConfig) fill() {
	d := DefaultFluidConfig()
	if c.GridWidth < 1 || c.GridHeight < 1 {
		c.GridWidth, c.GridHeight = d.GridWidth, d.GridHeight
	}
	if c.Width <= 0 || c.Height <= 0 {
		c.Width, c.Height = d.Width, d.Height
	}
	if c.MaxSamples < 1 {
		c.MaxSamples = d.MaxSamples
	}
}

func (c FluidConfig) Validate() error {
	var count error
	if c.Particles < 0 {
		count = &dynamo.ConfigurationError{Param: "particles", Value: float64(c.Particles), Reason: "must not be negative"}
	}
	return errors.Join(
		dynamo.RequirePositive("viscosity", c.Viscosity),
		dynamo.RequireNonNegative("density", c.Density),
		dynamo.RequireNonNegative("jitter", c.Jitter),
		count,
	)
}

// FluidSample is one frame of aggregate flow statistics.
type FluidSample struct {
	Time       float64 `json:"time"`
	MeanSpeed  float64 `json:"mean_speed"`
	FieldSpeed float64 `json:"field_speed"`
	Respawned  int     `json:"respawned"`
}

type FluidState struct {
	Time      float64            `json:"time"`
	Field     *physics.FlowField `json:"field"`
	Particles []physics.Particle `json:"particles"`
	Obstacles []physics.Obstacle `json:"obstacles"`
	Series    []FluidSample      `json:"series"`
}

// Fluid is a particle and vector-field toy: the field diffuses, particles
// ride it, bounce off circular obstacles and respawn when they leave the
// canvas.
type Fluid struct {
	cfg          FluidConfig
	rng          *rand.Rand
	field        *physics.FlowField
	particles    []physics.Particle
	obstacles    []physics.Obstacle
	cellW, cellH float64
	t            float64
	series       *dynamo.Ring[FluidSample]
}

func NewFluid(cfg FluidConfig) (*Fluid, error) {
	cfg.fill()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	f := &Fluid{cfg: cfg, series: dynamo.NewRing[FluidSample](cfg.MaxSamples)}
	f.Reset()
	return f, nil
}

func (f *Fluid) Kind() Kind { return KindFluid }

func (f *Fluid) Config() FluidConfig { return f.cfg }

func (f *Fluid) Time() float64 { return f.t }

// Reset reseeds the generator, respawns every particle, restores the
// initial vortex and removes the obstacles.
func (f *Fluid) Reset() {
	f.rng = rand.New(rand.NewSource(f.cfg.Seed))
	f.cellW = f.cfg.Width / float64(f.cfg.GridWidth)
	f.cellH = f.cfg.Height / float64(f.cfg.GridHeight)
	f.field = physics.NewVortexField(f.cfg.GridWidth, f.cfg.GridHeight)
	f.particles = make([]physics.Particle, f.cfg.Particles)
	for i := range f.particles {
		f.spawn(&f.particles[i])
		f.particles[i].Size = 2 + f.rng.Float64()*3
	}
	f.obstacles = nil
	f.t = 0
	f.series.Clear()
}

func (f *Fluid) ResetWith(cfg FluidConfig) error {
	cfg.fill()
	if err := cfg.Validate(); err != nil {
		return err
	}
	f.cfg = cfg
	f.series.Resize(cfg.MaxSamples)
	f.Reset()
	return nil
}

func (f *Fluid) spawn(p *physics.Particle) {
	p.Pos = dynamo.Vec2{X: f.rng.Float64() * f.cfg.Width, Y: f.rng.Float64() * f.cfg.Height}
	p.Vel = dynamo.Vec2{X: (f.rng.Float64() - 0.5) * 2, Y: (f.rng.Float64() - 0.5) * 2}
	p.Age = 0
}

func (f *Fluid) inside(p dynamo.Vec2) bool {
	return p.X >= 0 && p.X <= f.cfg.Width && p.Y >= 0 && p.Y <= f.cfg.Height
}

func (f *Fluid) Step(dt float64) {
	f.t += dt
	f.field.Diffuse(f.cfg.Viscosity * dt * 100)

	drag := 1 - f.cfg.Viscosity*10
	respawned := 0
	speed := 0.0

	for i := range f.particles {
		p := &f.particles[i]

		flow := f.field.Sample(p.Pos, f.cellW, f.cellH).Scale(f.cfg.VelocityScale)
		total := p.Vel.Add(flow)
		speed += total.Len()

		p.Pos = p.Pos.Add(total.Scale(dt * stepScale))
		p.Vel = p.Vel.Scale(drag)
		if f.cfg.Jitter > 0 {
			p.Vel.X += (f.rng.Float64() - 0.5) * f.cfg.Jitter
			p.Vel.Y += (f.rng.Float64() - 0.5) * f.cfg.Jitter
		}
		p.Age += dt

		for _, o := range f.obstacles {
			o.Collide(p, total)
		}

		if !f.inside(p.Pos) {
			f.spawn(p)
			respawned++
		}
	}

	f.field.ZeroBoundary()

	if n := len(f.particles); n > 0 {
		speed /= float64(n)
	}
	f.series.Push(FluidSample{
		Time:       f.t,
		MeanSpeed:  speed,
		FieldSpeed: f.field.MeanSpeed(),
		Respawned:  respawned,
	})
}

// ApplyForce drags the fluid from one canvas point toward another. Particles
// within forceRadius of from get a kick attenuated linearly with distance;
// the field cell under from gets a tenth of the force.
func (f *Fluid) ApplyForce(from, to dynamo.Vec2) {
	dir := to.Sub(from)
	mag := dir.Len()
	if mag == 0 {
		return
	}
	force := dir.Scale(f.cfg.ForceStrength * 10 / mag)

	for i := range f.particles {
		p := &f.particles[i]
		dist := p.Pos.Sub(from).Len()
		if dist < forceRadius {
			p.Vel = p.Vel.Add(force.Scale(1 - dist/forceRadius))
		}
	}

	if gx, gy, ok := f.field.CellOf(from, f.cellW, f.cellH); ok {
		f.field.Set(gx, gy, f.field.At(gx, gy).Add(force.Scale(0.1)))
	}
}

func (f *Fluid) AddObstacle(center dynamo.Vec2, radius float64) error {
	if err := dynamo.RequirePositive("radius", radius); err != nil {
		return err
	}
	f.obstacles = append(f.obstacles, physics.Obstacle{Center: center, Radius: radius})
	return nil
}

// AddObstacleAt places an obstacle of the default click radius.
func (f *Fluid) AddObstacleAt(center dynamo.Vec2) {
	f.obstacles = append(f.obstacles, physics.Obstacle{Center: center, Radius: obstacleRadius})
}

// AddRandomObstacle places an obstacle of radius 20 to 50 fully inside the
// canvas.
func (f *Fluid) AddRandomObstacle() physics.Obstacle {
	r := 20 + f.rng.Float64()*30
	w := max(f.cfg.Width-2*r, 0)
	h := max(f.cfg.Height-2*r, 0)
	o := physics.Obstacle{
		Center: dynamo.Vec2{X: r + f.rng.Float64()*w, Y: r + f.rng.Float64()*h},
		Radius: r,
	}
	f.obstacles = append(f.obstacles, o)
	return o
}

func (f *Fluid) ClearObstacles() {
	f.obstacles = nil
}

func (f *Fluid) Obstacles() []physics.Obstacle {
	return append([]physics.Obstacle(nil), f.obstacles...)
}

func (f *Fluid) Particles() []physics.Particle {
	return append([]physics.Particle(nil), f.particles...)
}

func (f *Fluid) Field() *physics.FlowField {
	return f.field.Clone()
}

// Vector lays the particles out as [x..., y..., vx..., vy...].
func (f *Fluid) Vector() dynamo.State {
	n := len(f.particles)
	v := make(dynamo.State, 4*n)
	for i, p := range f.particles {
		v[i], v[n+i] = p.Pos.X, p.Pos.Y
		v[2*n+i], v[3*n+i] = p.Vel.X, p.Vel.Y
	}
	return v
}

func (f *Fluid) State() FluidState {
	return FluidState{
		Time:      f.t,
		Field:     f.field.Clone(),
		Particles: f.Particles(),
		Obstacles: f.Obstacles(),
		Series:    f.series.Slice(),
	}
}

func (f *Fluid) GetParams() map[string]float64 {
	return map[string]float64{
		"viscosity":      f.cfg.Viscosity,
		"density":        f.cfg.Density,
		"force_strength": f.cfg.ForceStrength,
		"velocity_scale": f.cfg.VelocityScale,
		"jitter":         f.cfg.Jitter,
	}
}

func (f *Fluid) SetParam(name string, value float64) error {
	next := f.cfg
	switch name {
	case "viscosity":
		next.Viscosity = value
	case "density":
		next.Density = value
	case "force_strength":
		next.ForceStrength = value
	case "velocity_scale":
		next.VelocityScale = value
	case "jitter":
		next.Jitter = value
	default:
		return fmt.Errorf("%w: %s", dynamo.ErrUnknownParam, name)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	f.cfg = next
	return nil
}

func (f *Fluid) Records() []export.Record {
	out := make([]export.Record, 0, f.series.Len())
	for i := 0; i < f.series.Len(); i++ {
		s := f.series.At(i)
		out = append(out, export.Record{
			{Key: "time", Value: s.Time},
			{Key: "mean_speed", Value: s.MeanSpeed},
			{Key: "field_speed", Value: s.FieldSpeed},
			{Key: "respawned", Value: s.Respawned},
		})
	}
	return out
}

func (f *Fluid) ExportSeries(format dynamo.Format) (string, error) {
	return Export(f, format, export.Options{})
}

type flowFieldDump struct {
	Width      int             `json:"width"`
	Height     int             `json:"height"`
	CellWidth  float64         `json:"cell_width"`
	CellHeight float64         `json:"cell_height"`
	Time       float64         `json:"time"`
	Rows       [][]dynamo.Vec2 `json:"rows"`
}

// ExportFlowField dumps the grid as JSON rows of {x, y} vectors.
func (f *Fluid) ExportFlowField() (string, error) {
	return export.JSON(flowFieldDump{
		Width:      f.field.W,
		Height:     f.field.H,
		CellWidth:  f.cellW,
		CellHeight: f.cellH,
		Time:       f.t,
		Rows:       f.field.Rows(),
	}, export.Options{})
}

func (f *Fluid) Snapshot() (Snapshot, error) {
	return newSnapshot(KindFluid, f.cfg, f.State())
}

// Restore adopts a saved configuration and frame. The generator restarts
// from the configured seed.
func (f *Fluid) Restore(s Snapshot) error {
	var (
		cfg   FluidConfig
		state FluidState
	)
	if err := s.decode(KindFluid, &cfg, &state); err != nil {
		return err
	}
	if err := f.ResetWith(cfg); err != nil {
		return err
	}
	if state.Field != nil && state.Field.W == f.cfg.GridWidth && state.Field.H == f.cfg.GridHeight &&
		len(state.Field.Cells) == state.Field.W*state.Field.H {
		f.field = state.Field.Clone()
	}
	f.particles = append([]physics.Particle(nil), state.Particles...)
	f.obstacles = append([]physics.Obstacle(nil), state.Obstacles...)
	f.t = state.Time
	restoreRing(f.series, state.Series)
	return nil
}
