package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/physlab/internal/demo"
)

const (
	DefaultDt        = 0.016
	DefaultDuration  = 10.0
	DefaultTimeScale = 1.0
	// DefaultMaxFrame caps one animation frame at 33 ms.
	DefaultMaxFrame = 0.033
	DefaultStoreDir = ".physlab/runs"
)

type Config struct {
	Demo      string  `yaml:"demo"`
	Dt        float64 `yaml:"dt"`
	Duration  float64 `yaml:"duration"`
	TimeScale float64 `yaml:"time_scale"`
	MaxFrame  float64 `yaml:"max_frame"`
	StoreDir  string  `yaml:"store_dir"`

	Pendulum       demo.PendulumConfig       `yaml:"pendulum"`
	DoublePendulum demo.DoublePendulumConfig `yaml:"double_pendulum"`
	Circuit        demo.CircuitConfig        `yaml:"circuit"`
	Fluid          demo.FluidConfig          `yaml:"fluid"`
}

func DefaultConfig() *Config {
	return &Config{
		Demo:      string(demo.KindPendulum),
		Dt:        DefaultDt,
		Duration:  DefaultDuration,
		TimeScale: DefaultTimeScale,
		MaxFrame:  DefaultMaxFrame,
		StoreDir:  DefaultStoreDir,

		Pendulum:       demo.DefaultPendulumConfig(),
		DoublePendulum: demo.DefaultDoublePendulumConfig(),
		Circuit:        demo.DefaultCircuitConfig(),
		Fluid:          demo.DefaultFluidConfig(),
	}
}

// Load reads a YAML file over the defaults, so a file only needs the keys
// it changes.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the run settings. Physical parameters are checked by the
// demo constructors.
func (c *Config) Validate() error {
	var errs []error
	if _, err := demo.ParseKind(c.Demo); err != nil {
		errs = append(errs, err)
	}
	if !(c.Dt > 0) {
		errs = append(errs, fmt.Errorf("dt must be positive, got %f", c.Dt))
	}
	if !(c.Duration > 0) {
		errs = append(errs, fmt.Errorf("duration must be positive, got %f", c.Duration))
	}
	if !(c.TimeScale > 0) {
		errs = append(errs, fmt.Errorf("time_scale must be positive, got %f", c.TimeScale))
	}
	if !(c.MaxFrame > 0) {
		errs = append(errs, fmt.Errorf("max_frame must be positive, got %f", c.MaxFrame))
	}
	return errors.Join(errs...)
}

// Kind returns the selected demo.
func (c *Config) Kind() demo.Kind {
	return demo.Kind(c.Demo)
}

func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}
