package config

import (
	"math"
	"sort"

	"github.com/san-kum/physlab/internal/demo"
	"github.com/san-kum/physlab/internal/physics"
)

func preset(kind demo.Kind, dt, duration float64, edit func(c *Config)) *Config {
	c := DefaultConfig()
	c.Demo = string(kind)
	c.Dt = dt
	c.Duration = duration
	edit(c)
	return c
}

var Presets = map[string]map[string]*Config{
	"pendulum": {
		"small": preset(demo.KindPendulum, 0.01, 20.0, func(c *Config) {
			c.Pendulum.InitialAngle = 0.2
			c.Pendulum.Damping = 0
		}),
		"large": preset(demo.KindPendulum, 0.01, 20.0, func(c *Config) {
			c.Pendulum.InitialAngle = 2.5
			c.Pendulum.Damping = 0
		}),
		"spinning": preset(demo.KindPendulum, 0.005, 30.0, func(c *Config) {
			c.Pendulum.InitialAngle = 0.1
			c.Pendulum.InitialVelocity = 8.0
		}),
		"damped": preset(demo.KindPendulum, 0.01, 30.0, func(c *Config) {
			c.Pendulum.Damping = 0.5
		}),
	},
	"double-pendulum": {
		"symmetric": preset(demo.KindDoublePendulum, 0.005, 30.0, func(c *Config) {
			c.DoublePendulum.Angle1, c.DoublePendulum.Angle2 = 1.5, 1.5
		}),
		"chaos": preset(demo.KindDoublePendulum, 0.005, 60.0, func(c *Config) {
			c.DoublePendulum.Angle1, c.DoublePendulum.Angle2 = 3.0, 3.0
			c.DoublePendulum.Damping = 0
			c.DoublePendulum.Equations = string(physics.LagrangianEquations)
		}),
		"lagrangian": preset(demo.KindDoublePendulum, 0.005, 30.0, func(c *Config) {
			c.DoublePendulum.Equations = string(physics.LagrangianEquations)
		}),
		"gentle": preset(demo.KindDoublePendulum, 0.005, 30.0, func(c *Config) {
			c.DoublePendulum.Angle1, c.DoublePendulum.Angle2 = 0.3, 0.3
		}),
	},
	"circuit": {
		"mains": preset(demo.KindCircuit, 0.001, 2.0, func(c *Config) {}),
		"resonance": preset(demo.KindCircuit, 0.0001, 0.5, func(c *Config) {
			c.Circuit.Resistance = 1
			c.Circuit.Frequency = 1 / (2 * math.Pi * math.Sqrt(c.Circuit.Inductance*c.Circuit.Capacitance))
		}),
		"parallel": preset(demo.KindCircuit, 0.001, 2.0, func(c *Config) {
			c.Circuit.Topology = "parallel"
		}),
		"dc": preset(demo.KindCircuit, 0.001, 2.0, func(c *Config) {
			c.Circuit.Frequency = 0
		}),
	},
	"fluid": {
		"calm": preset(demo.KindFluid, 0.016, 20.0, func(c *Config) {
			c.Fluid.Viscosity = 0.005
		}),
		"stormy": preset(demo.KindFluid, 0.016, 20.0, func(c *Config) {
			c.Fluid.ForceStrength = 2
			c.Fluid.Jitter = 0.5
		}),
		"dense": preset(demo.KindFluid, 0.016, 10.0, func(c *Config) {
			c.Fluid.Particles = 2000
		}),
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(model, name string) *Config {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	cfg, ok := modelPresets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(model string) []string {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
