package demo

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/physlab/internal/dynamo"
	"github.com/san-kum/physlab/internal/physics"
)

func mustFluid(t *testing.T, cfg FluidConfig) *Fluid {
	t.Helper()
	f, err := NewFluid(cfg)
	if err != nil {
		t.Fatalf("NewFluid: %v", err)
	}
	return f
}

// single particle in a still field
func stillFluid(t *testing.T) *Fluid {
	cfg := DefaultFluidConfig()
	cfg.Particles = 1
	f := mustFluid(t, cfg)
	f.field = physics.NewFlowField(cfg.GridWidth, cfg.GridHeight)
	return f
}

func TestFluidObstacleReflection(t *testing.T) {
	f := stillFluid(t)
	center := dynamo.Vec2{X: 400, Y: 300}
	if err := f.AddObstacle(center, 50); err != nil {
		t.Fatal(err)
	}
	f.particles[0] = physics.Particle{Pos: dynamo.Vec2{X: 440, Y: 310}, Vel: dynamo.Vec2{X: -1, Y: 0.5}}

	total := f.particles[0].Vel
	f.Step(0.01)
	p := f.particles[0]

	d := p.Pos.Sub(center)
	if math.Abs(d.Len()-51) > 1e-9 {
		t.Errorf("distance after collision: got %f, expected 51", d.Len())
	}
	n := d.Scale(1 / d.Len())
	if before, after := total.Dot(n), p.Vel.Dot(n); before >= 0 || after <= 0 || math.Abs(before+after) > 1e-9 {
		t.Errorf("normal velocity should reverse: %f -> %f", before, after)
	}
}

func TestFluidParticleAdvection(t *testing.T) {
	f := stillFluid(t)
	f.particles[0] = physics.Particle{Pos: dynamo.Vec2{X: 100, Y: 100}, Vel: dynamo.Vec2{X: 1, Y: -2}}

	f.Step(0.01)
	p := f.particles[0]
	if math.Abs(p.Pos.X-100.6) > 1e-9 || math.Abs(p.Pos.Y-98.8) > 1e-9 {
		t.Errorf("position: got %v, expected (100.6, 98.8)", p.Pos)
	}
	drag := 1 - 0.001*10
	if math.Abs(p.Vel.X-drag) > 1e-12 || math.Abs(p.Vel.Y+2*drag) > 1e-12 {
		t.Errorf("velocity: got %v", p.Vel)
	}
	if p.Age != 0.01 {
		t.Errorf("age: got %f", p.Age)
	}
}

func TestFluidFieldVelocityScale(t *testing.T) {
	f := stillFluid(t)
	f.cfg.VelocityScale = 2
	// cell (4, 4) covers x in [100, 125), y in [100, 125)
	f.field.Set(4, 4, dynamo.Vec2{X: 1})
	f.cfg.Viscosity = 1e-9
	f.particles[0] = physics.Particle{Pos: dynamo.Vec2{X: 110, Y: 110}}

	f.Step(0.01)
	if x := f.particles[0].Pos.X; math.Abs(x-(110+2*0.01*60)) > 1e-6 {
		t.Errorf("field-driven x: got %f, expected %f", x, 110+2*0.01*60)
	}
}

func TestFluidRespawn(t *testing.T) {
	f := stillFluid(t)
	f.particles[0] = physics.Particle{Pos: dynamo.Vec2{X: 799, Y: 300}, Vel: dynamo.Vec2{X: 50}, Age: 3}

	f.Step(0.01)
	p := f.particles[0]
	if p.Pos.X < 0 || p.Pos.X > 800 || p.Pos.Y < 0 || p.Pos.Y > 600 {
		t.Errorf("respawned outside the canvas: %v", p.Pos)
	}
	if p.Age != 0 || math.Abs(p.Vel.X) > 1 || math.Abs(p.Vel.Y) > 1 {
		t.Errorf("respawn should reset age and draw a fresh velocity: %+v", p)
	}
	last := f.State().Series
	if len(last) != 1 || last[0].Respawned != 1 {
		t.Errorf("respawn not counted: %+v", last)
	}
}

func TestFluidBoundaryZeroed(t *testing.T) {
	f := mustFluid(t, DefaultFluidConfig())
	for i := 0; i < 5; i++ {
		f.Step(0.016)
	}

	field := f.Field()
	for y := 0; y < field.H; y++ {
		for x := 0; x < field.W; x++ {
			if x != 0 && y != 0 && x != field.W-1 && y != field.H-1 {
				continue
			}
			if c := field.At(x, y); c.X != 0 || c.Y != 0 {
				t.Fatalf("boundary cell (%d,%d) = %v", x, y, c)
			}
		}
	}
	if field.MeanSpeed() == 0 {
		t.Error("interior vortex vanished")
	}
}

func TestFluidDeterministic(t *testing.T) {
	cfg := DefaultFluidConfig()
	cfg.Jitter = 0.2
	a := mustFluid(t, cfg)
	b := mustFluid(t, cfg)
	a.AddRandomObstacle()
	b.AddRandomObstacle()

	for i := 0; i < 100; i++ {
		a.Step(0.016)
		b.Step(0.016)
	}
	pa, pb := a.Particles(), b.Particles()
	for i := range pa {
		if pa[i] != pb[i] {
			t.Fatalf("particle %d diverged: %+v vs %+v", i, pa[i], pb[i])
		}
	}
}

func TestFluidApplyForce(t *testing.T) {
	f := stillFluid(t)
	f.particles[0] = physics.Particle{Pos: dynamo.Vec2{X: 150, Y: 100}}

	f.ApplyForce(dynamo.Vec2{X: 100, Y: 100}, dynamo.Vec2{X: 100, Y: 130})

	// |force| = 0.5*10 = 5 along +y, attenuated by 1 - 50/100
	if v := f.particles[0].Vel; math.Abs(v.X) > 1e-12 || math.Abs(v.Y-2.5) > 1e-12 {
		t.Errorf("particle kick: got %v, expected (0, 2.5)", v)
	}
	if c := f.field.At(4, 4); math.Abs(c.Y-0.5) > 1e-12 || c.X != 0 {
		t.Errorf("field kick: got %v, expected (0, 0.5)", c)
	}

	before := f.particles[0].Vel
	f.ApplyForce(dynamo.Vec2{X: 100, Y: 100}, dynamo.Vec2{X: 100, Y: 100})
	if f.particles[0].Vel != before {
		t.Error("zero-length drag should do nothing")
	}
}

func TestFluidObstacles(t *testing.T) {
	f := mustFluid(t, DefaultFluidConfig())

	if err := f.AddObstacle(dynamo.Vec2{X: 1, Y: 1}, 0); !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("zero radius: expected ErrParameterBounds, got %v", err)
	}
	for i := 0; i < 50; i++ {
		o := f.AddRandomObstacle()
		if o.Radius < 20 || o.Radius > 50 {
			t.Fatalf("radius out of range: %f", o.Radius)
		}
		if o.Center.X-o.Radius < 0 || o.Center.X+o.Radius > 800 || o.Center.Y-o.Radius < 0 || o.Center.Y+o.Radius > 600 {
			t.Fatalf("obstacle leaves the canvas: %+v", o)
		}
	}
	f.AddObstacleAt(dynamo.Vec2{X: 10, Y: 10})
	if n := len(f.Obstacles()); n != 51 {
		t.Errorf("expected 51 obstacles, got %d", n)
	}
	f.ClearObstacles()
	if len(f.Obstacles()) != 0 {
		t.Error("obstacles not cleared")
	}
}

func TestFluidExportFlowField(t *testing.T) {
	f := mustFluid(t, DefaultFluidConfig())
	out, err := f.ExportFlowField()
	if err != nil {
		t.Fatal(err)
	}

	var dump struct {
		Width, Height int
		Rows          [][]dynamo.Vec2
	}
	if err := json.Unmarshal([]byte(out), &dump); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if dump.Width != 32 || dump.Height != 24 || len(dump.Rows) != 24 || len(dump.Rows[0]) != 32 {
		t.Errorf("unexpected grid %dx%d", dump.Width, len(dump.Rows))
	}
}

func TestFluidSnapshotRoundTrip(t *testing.T) {
	a := mustFluid(t, DefaultFluidConfig())
	a.AddObstacleAt(dynamo.Vec2{X: 400, Y: 300})
	for i := 0; i < 20; i++ {
		a.Step(0.016)
	}
	snap, err := a.Snapshot()
	if err != nil {
		t.Fatal(err)
	}

	b := mustFluid(t, DefaultFluidConfig())
	if err := b.Restore(snap); err != nil {
		t.Fatal(err)
	}
	if b.Time() != a.Time() || len(b.Obstacles()) != 1 || b.Particles()[7] != a.Particles()[7] {
		t.Errorf("restore lost state")
	}
	if b.Field().At(10, 10) != a.Field().At(10, 10) {
		t.Error("restore lost the flow field")
	}
}

func TestFluidRejectsBadConfig(t *testing.T) {
	cfg := DefaultFluidConfig()
	cfg.Viscosity = 0
	if _, err := NewFluid(cfg); !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("expected ErrParameterBounds, got %v", err)
	}
	f := mustFluid(t, DefaultFluidConfig())
	if err := f.SetParam("jitter", -1); err == nil {
		t.Error("negative jitter accepted")
	}
	if err := f.SetParam("velocity_scale", 3); err != nil || f.GetParams()["velocity_scale"] != 3 {
		t.Errorf("velocity_scale: %v", err)
	}
}
