package automation

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/physlab/internal/config"
	"github.com/san-kum/physlab/internal/demo"
	"github.com/san-kum/physlab/internal/experiment"
	"github.com/san-kum/physlab/internal/storage"
)

// Scenario is a scripted sequence of headless runs.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

// Step runs one demo. Preset, when set, replaces the defaults; Dt and
// Duration override it when positive. Params are applied after the model
// is built.
type Step struct {
	Demo     string             `yaml:"demo"`
	Preset   string             `yaml:"preset"`
	Dt       float64            `yaml:"dt"`
	Duration float64            `yaml:"duration"`
	Params   map[string]float64 `yaml:"params"`
	Save     bool               `yaml:"save"`
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (s *Scenario) Validate() error {
	if len(s.Steps) == 0 {
		return errors.New("scenario has no steps")
	}
	var errs []error
	for i, st := range s.Steps {
		if _, err := demo.ParseKind(st.Demo); err != nil {
			errs = append(errs, fmt.Errorf("step %d: %w", i+1, err))
			continue
		}
		if st.Preset != "" && config.GetPreset(st.Demo, st.Preset) == nil {
			errs = append(errs, fmt.Errorf("step %d: unknown preset %s", i+1, st.Preset))
		}
	}
	return errors.Join(errs...)
}

// settings resolves the run configuration of one step.
func (st Step) settings() *config.Config {
	cfg := config.DefaultConfig()
	if st.Preset != "" {
		if p := config.GetPreset(st.Demo, st.Preset); p != nil {
			cfg = p
		}
	}
	cfg.Demo = st.Demo
	if st.Dt > 0 {
		cfg.Dt = st.Dt
	}
	if st.Duration > 0 {
		cfg.Duration = st.Duration
	}
	return cfg
}

type StepResult struct {
	Index  int
	Demo   demo.Kind
	Result *experiment.Result
	// RunID is set when the step was saved.
	RunID string
}

// Runner executes scenarios. A nil store makes Save steps fail.
type Runner struct {
	registry *experiment.Registry
	store    *storage.Store
	log      *zap.Logger
}

func NewRunner(reg *experiment.Registry, store *storage.Store, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{registry: reg, store: store, log: log}
}

// Run executes the steps in order and stops at the first failure,
// returning the results gathered so far.
func (r *Runner) Run(ctx context.Context, sc *Scenario) ([]StepResult, error) {
	results := make([]StepResult, 0, len(sc.Steps))

	for i, st := range sc.Steps {
		r.log.Info("scenario step", zap.String("scenario", sc.Name), zap.Int("step", i+1), zap.String("demo", st.Demo))

		res, err := r.runStep(ctx, i, st)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		results = append(results, res)
	}
	return results, nil
}

func (r *Runner) runStep(ctx context.Context, i int, st Step) (StepResult, error) {
	cfg := st.settings()
	if err := cfg.Validate(); err != nil {
		return StepResult{}, err
	}
	m, err := r.registry.GetModel(cfg.Kind(), cfg)
	if err != nil {
		return StepResult{}, err
	}
	for k, v := range st.Params {
		if err := m.SetParam(k, v); err != nil {
			return StepResult{}, err
		}
	}

	exp := experiment.New(
		experiment.Config{Dt: cfg.Dt, Duration: cfg.Duration, ValidateState: true},
		m,
		experiment.WithLogger(r.log),
		experiment.WithMetrics(r.registry.DefaultMetrics(cfg.Kind())...),
	)
	res, err := exp.Run(ctx)
	if err != nil {
		return StepResult{}, err
	}

	out := StepResult{Index: i, Demo: cfg.Kind(), Result: res}
	if !st.Save {
		return out, nil
	}
	if r.store == nil {
		return StepResult{}, errors.New("save requested without a store")
	}
	if err := r.store.Init(); err != nil {
		return StepResult{}, err
	}
	out.RunID, err = r.store.Save(m, storage.RunMetadata{
		Dt:       cfg.Dt,
		Duration: cfg.Duration,
		Steps:    res.StepsTaken,
		Metrics:  res.Metrics,
	})
	if err != nil {
		return StepResult{}, err
	}
	return out, nil
}
