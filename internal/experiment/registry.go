package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/physlab/internal/config"
	"github.com/san-kum/physlab/internal/demo"
	"github.com/san-kum/physlab/internal/metrics"
)

// Factory builds a model from the demo section of a config.
type Factory func(cfg *config.Config) (demo.Model, error)

type Registry struct {
	models map[demo.Kind]Factory
}

func NewRegistry() *Registry {
	r := &Registry{models: make(map[demo.Kind]Factory)}

	r.models[demo.KindPendulum] = func(cfg *config.Config) (demo.Model, error) {
		return demo.NewSimplePendulum(cfg.Pendulum)
	}
	r.models[demo.KindDoublePendulum] = func(cfg *config.Config) (demo.Model, error) {
		return demo.NewDoublePendulum(cfg.DoublePendulum)
	}
	r.models[demo.KindCircuit] = func(cfg *config.Config) (demo.Model, error) {
		return demo.NewCircuit(cfg.Circuit)
	}
	r.models[demo.KindFluid] = func(cfg *config.Config) (demo.Model, error) {
		return demo.NewFluid(cfg.Fluid)
	}

	return r
}

// Register adds or replaces a factory.
func (r *Registry) Register(kind demo.Kind, f Factory) {
	r.models[kind] = f
}

func (r *Registry) GetModel(kind demo.Kind, cfg *config.Config) (demo.Model, error) {
	fn, ok := r.models[kind]
	if !ok {
		return nil, fmt.Errorf("unknown demo: %s", kind)
	}
	return fn(cfg)
}

func (r *Registry) ListModels() []string {
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, string(name))
	}
	sort.Strings(names)
	return names
}

// DefaultMetrics are attached by the batch runner unless the caller
// supplies its own.
func (r *Registry) DefaultMetrics(kind demo.Kind) []metrics.Metric {
	ms := []metrics.Metric{metrics.NewStability(1e6)}
	if kind != demo.KindFluid {
		ms = append(ms,
			metrics.NewMeanEnergy(),
			metrics.NewEnergyDrift(),
			metrics.NewEnergyIncreases(1e-9, 1),
		)
	}
	if kind == demo.KindCircuit {
		ms = append(ms, metrics.NewPeak("peak_current", 1))
	}
	return ms
}
