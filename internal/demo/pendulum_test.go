package demo

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/san-kum/physlab/internal/dynamo"
)

func mustPendulum(t *testing.T, cfg PendulumConfig) *SimplePendulum {
	t.Helper()
	p, err := NewSimplePendulum(cfg)
	if err != nil {
		t.Fatalf("NewSimplePendulum: %v", err)
	}
	return p
}

func TestPendulumStepOrder(t *testing.T) {
	cfg := DefaultPendulumConfig()
	cfg.InitialAngle = 0.3
	p := mustPendulum(t, cfg)

	dt := 0.01
	a := -(cfg.Gravity/cfg.Length)*math.Sin(0.3) - (cfg.Damping/cfg.Mass)*0
	omega := a * dt
	theta := 0.3 + omega*dt

	p.Step(dt)
	s := p.State()
	if math.Abs(s.AngularVelocity-omega) > 1e-15 || math.Abs(s.Angle-theta) > 1e-15 {
		t.Errorf("got (%v, %v), expected (%v, %v)", s.Angle, s.AngularVelocity, theta, omega)
	}
	if s.Time != dt {
		t.Errorf("time: got %f, expected %f", s.Time, dt)
	}
	bob := s.Trail[0].Pos
	if math.Abs(bob.X-math.Sin(theta)) > 1e-12 || math.Abs(bob.Y+math.Cos(theta)) > 1e-12 {
		t.Errorf("bob: got %v", bob)
	}
}

func TestPendulumEnergyConserved(t *testing.T) {
	cfg := DefaultPendulumConfig()
	cfg.Damping = 0
	p := mustPendulum(t, cfg)

	e0 := p.Energy().Total
	for i := 0; i < 10000; i++ {
		p.Step(0.001)
	}

	drift := math.Abs(p.Energy().Total-e0) / e0
	if drift > 0.01 {
		t.Errorf("energy drift too large: %.6f", drift)
	}
}

func TestPendulumEnergyDecays(t *testing.T) {
	tests := []struct {
		name    string
		damping float64
		angle   float64
	}{
		{"light", 0.1, math.Pi / 4},
		{"heavy", 1.0, math.Pi / 4},
		{"large swing", 0.1, 2.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultPendulumConfig()
			cfg.Damping = tt.damping
			cfg.InitialAngle = tt.angle
			p := mustPendulum(t, cfg)

			prev := p.Energy().Total
			for i := 1; i <= 10000; i++ {
				p.Step(0.001)
				if i%500 == 0 {
					e := p.Energy().Total
					if e > prev {
						t.Fatalf("energy increased at step %d: %.9f > %.9f", i, e, prev)
					}
					prev = e
				}
			}
		})
	}
}

func TestPendulumDeterministic(t *testing.T) {
	a := mustPendulum(t, DefaultPendulumConfig())
	b := mustPendulum(t, DefaultPendulumConfig())

	dts := []float64{0.016, 0.033, 0.001, 0.02}
	for i := 0; i < 400; i++ {
		dt := dts[i%len(dts)]
		a.Step(dt)
		b.Step(dt)
		sa, sb := a.State(), b.State()
		if sa.Angle != sb.Angle || sa.AngularVelocity != sb.AngularVelocity || sa.Time != sb.Time {
			t.Fatalf("step %d diverged: %+v vs %+v", i, sa, sb)
		}
	}
}

func TestPendulumTrailEviction(t *testing.T) {
	p := mustPendulum(t, DefaultPendulumConfig())
	dt := 0.01
	for i := 0; i < 250; i++ {
		p.Step(dt)
	}

	trail := p.State().Trail
	if len(trail) != 100 {
		t.Fatalf("trail length = %d, want 100", len(trail))
	}
	// oldest retained is the 151st sample
	if math.Abs(trail[0].Time-151*dt) > 1e-9 {
		t.Errorf("oldest sample at t=%f, expected %f", trail[0].Time, 151*dt)
	}

	p.SetTrailCapacity(10)
	if got := p.State().Trail; len(got) != 10 || got[9].Time != trail[99].Time {
		t.Errorf("resize kept wrong samples: %d", len(got))
	}
}

func TestPendulumRejectsBadConfig(t *testing.T) {
	for _, mutate := range []func(*PendulumConfig){
		func(c *PendulumConfig) { c.Length = 0 },
		func(c *PendulumConfig) { c.Gravity = -9.81 },
		func(c *PendulumConfig) { c.Mass = 0 },
		func(c *PendulumConfig) { c.Damping = -1 },
	} {
		cfg := DefaultPendulumConfig()
		mutate(&cfg)
		if _, err := NewSimplePendulum(cfg); !errors.Is(err, dynamo.ErrParameterBounds) {
			t.Errorf("config %+v: expected ErrParameterBounds, got %v", cfg, err)
		}
	}
}

func TestPendulumReset(t *testing.T) {
	p := mustPendulum(t, DefaultPendulumConfig())
	for i := 0; i < 20; i++ {
		p.Step(0.01)
	}

	cfg := DefaultPendulumConfig()
	cfg.InitialAngle = 1
	cfg.InitialVelocity = 0.5
	if err := p.ResetWith(cfg); err != nil {
		t.Fatal(err)
	}
	s := p.State()
	if s.Angle != 1 || s.AngularVelocity != 0.5 || s.Time != 0 || len(s.Trail) != 0 {
		t.Errorf("unexpected state after reset: %+v", s)
	}

	bad := cfg
	bad.Length = -1
	if err := p.ResetWith(bad); err == nil {
		t.Error("ResetWith accepted a negative length")
	}
	if p.Config().Length != cfg.Length {
		t.Error("rejected config was adopted")
	}
}

func TestPendulumExportCSV(t *testing.T) {
	p := mustPendulum(t, DefaultPendulumConfig())
	for i := 0; i < 3; i++ {
		p.Step(0.01)
	}

	out, err := p.ExportSeries(dynamo.FormatCSV)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	header := "time,angle,angular_velocity,position.x,position.y,energy.kinetic,energy.potential,energy.total"
	if lines[0] != header {
		t.Errorf("header: got %q", lines[0])
	}
	if len(lines) != 4 {
		t.Errorf("expected 3 rows, got %d", len(lines)-1)
	}
	if !strings.HasPrefix(lines[1], "0.010000,") {
		t.Errorf("first row: %q", lines[1])
	}
}

func TestPendulumSnapshotRoundTrip(t *testing.T) {
	a := mustPendulum(t, DefaultPendulumConfig())
	for i := 0; i < 50; i++ {
		a.Step(0.01)
	}
	snap, err := a.Snapshot()
	if err != nil {
		t.Fatal(err)
	}

	b := mustPendulum(t, DefaultPendulumConfig())
	if err := b.Restore(snap); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 50; i++ {
		a.Step(0.01)
		b.Step(0.01)
	}
	if a.State().Angle != b.State().Angle || len(b.State().Trail) != len(a.State().Trail) {
		t.Errorf("restored model diverged: %+v vs %+v", a.State().Angle, b.State().Angle)
	}

	c, _ := NewCircuit(DefaultCircuitConfig())
	if err := c.Restore(snap); !errors.Is(err, ErrKindMismatch) {
		t.Errorf("expected ErrKindMismatch, got %v", err)
	}
}
