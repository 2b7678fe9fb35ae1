package experiment

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/san-kum/physlab/internal/demo"
	"github.com/san-kum/physlab/internal/dynamo"
	"github.com/san-kum/physlab/internal/metrics"
)

type Config struct {
	Dt       float64
	Duration float64
	// ValidateState stops the run at the first NaN/Inf state.
	ValidateState bool
	// LogEvery logs progress every n steps; zero disables it.
	LogEvery int
}

// Observer is called after every step with the step index.
type Observer interface {
	OnStep(m demo.Model, step int)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(m demo.Model, step int)

func (f ObserverFunc) OnStep(m demo.Model, step int) { f(m, step) }

type Result struct {
	Demo        demo.Kind          `json:"demo"`
	StepsTaken  int                `json:"steps"`
	Time        float64            `json:"time"`
	EnergyDrift float64            `json:"energy_drift"`
	Metrics     map[string]float64 `json:"metrics"`
	Errors      []error            `json:"-"`
}

// Experiment drives one model headlessly for a fixed duration.
type Experiment struct {
	cfg       Config
	model     demo.Model
	metrics   []metrics.Metric
	observers []Observer
	log       *zap.Logger
}

type Option func(*Experiment)

func WithLogger(l *zap.Logger) Option {
	return func(e *Experiment) {
		if l != nil {
			e.log = l
		}
	}
}

func WithMetrics(ms ...metrics.Metric) Option {
	return func(e *Experiment) { e.metrics = append(e.metrics, ms...) }
}

func New(cfg Config, model demo.Model, opts ...Option) *Experiment {
	e := &Experiment{cfg: cfg, model: model, log: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Experiment) AddMetric(m metrics.Metric) { e.metrics = append(e.metrics, m) }
func (e *Experiment) AddObserver(o Observer)     { e.observers = append(e.observers, o) }

func (e *Experiment) Model() demo.Model { return e.model }

func (e *Experiment) validateConfig() error {
	if !(e.cfg.Dt > 0) {
		return fmt.Errorf("dt must be positive, got %f", e.cfg.Dt)
	}
	if !(e.cfg.Duration > 0) {
		return fmt.Errorf("duration must be positive, got %f", e.cfg.Duration)
	}
	return nil
}

func sampleOf(m demo.Model) metrics.Sample {
	s := metrics.Sample{Time: m.Time(), Vector: m.Vector()}
	if en, ok := m.(demo.Energetic); ok {
		s.Energy = en.Energy()
		s.HasEnergy = true
	}
	return s
}

// Run steps the model from its current state. On cancellation it returns
// the partial result together with ctx.Err().
func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	if e.model == nil {
		return nil, fmt.Errorf("experiment has no model")
	}
	if err := e.validateConfig(); err != nil {
		return nil, err
	}

	steps := int(e.cfg.Duration/e.cfg.Dt + 0.5)
	result := &Result{
		Demo:    e.model.Kind(),
		Metrics: make(map[string]float64),
		Errors:  make([]error, 0),
	}

	for _, m := range e.metrics {
		m.Reset()
	}
	drift := metrics.NewEnergyDrift()
	first := sampleOf(e.model)
	drift.Observe(first)
	for _, m := range e.metrics {
		m.Observe(first)
	}

	log := e.log.With(zap.String("demo", string(result.Demo)))
	log.Debug("run started", zap.Float64("dt", e.cfg.Dt), zap.Int("steps", steps))

	var runErr error
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			runErr = ctx.Err()
		default:
		}
		if runErr != nil {
			log.Warn("run cancelled", zap.Int("step", i), zap.Error(runErr))
			break
		}

		e.model.Step(e.cfg.Dt)
		result.StepsTaken++

		s := sampleOf(e.model)
		if e.cfg.ValidateState && !s.Vector.IsValid() {
			err := dynamo.SimError{Time: s.Time, Step: i, Message: "invalid state (NaN/Inf)"}
			result.Errors = append(result.Errors, err)
			log.Error("state diverged", zap.Int("step", i), zap.Float64("t", s.Time))
			break
		}

		drift.Observe(s)
		for _, m := range e.metrics {
			m.Observe(s)
		}
		for _, obs := range e.observers {
			obs.OnStep(e.model, i)
		}

		if e.cfg.LogEvery > 0 && (i+1)%e.cfg.LogEvery == 0 {
			log.Info("progress", zap.Int("step", i+1), zap.Float64("t", s.Time))
		}
	}

	result.Time = e.model.Time()
	result.EnergyDrift = drift.Final()
	for _, m := range e.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	log.Debug("run finished",
		zap.Int("steps", result.StepsTaken),
		zap.Float64("energy_drift", result.EnergyDrift),
		zap.Int("errors", len(result.Errors)),
	)
	return result, runErr
}
