package experiment

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/san-kum/physlab/internal/config"
	"github.com/san-kum/physlab/internal/demo"
	"github.com/san-kum/physlab/internal/physics"
)

var (
	ErrUnknownDemo = errors.New("experiment: demo not hosted")
	ErrNotCircuit  = errors.New("experiment: demo has no topology")
)

type entry struct {
	model   demo.Model
	running bool
}

// Host is the frame-driven driver of the interactive demos. Each hosted
// model is stopped or running; Advance converts a wall-clock frame delta
// into one Step on every running model.
type Host struct {
	entries   map[demo.Kind]*entry
	order     []demo.Kind
	maxFrame  time.Duration
	timeScale float64
	log       *zap.Logger
}

type HostOption func(*Host)

func WithHostLogger(l *zap.Logger) HostOption {
	return func(h *Host) {
		if l != nil {
			h.log = l
		}
	}
}

// WithMaxFrame overrides the 33 ms frame cap.
func WithMaxFrame(d time.Duration) HostOption {
	return func(h *Host) {
		if d > 0 {
			h.maxFrame = d
		}
	}
}

func NewHost(opts ...HostOption) *Host {
	h := &Host{
		entries:   make(map[demo.Kind]*entry),
		maxFrame:  time.Duration(config.DefaultMaxFrame * float64(time.Second)),
		timeScale: config.DefaultTimeScale,
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NewHostFromConfig hosts every registered demo built from cfg.
func NewHostFromConfig(reg *Registry, cfg *config.Config, opts ...HostOption) (*Host, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts = append([]HostOption{WithMaxFrame(time.Duration(cfg.MaxFrame * float64(time.Second)))}, opts...)
	h := NewHost(opts...)
	if err := h.SetTimeScale(cfg.TimeScale); err != nil {
		return nil, err
	}
	for _, name := range reg.ListModels() {
		m, err := reg.GetModel(demo.Kind(name), cfg)
		if err != nil {
			return nil, fmt.Errorf("build %s: %w", name, err)
		}
		h.Add(m)
	}
	return h, nil
}

// Add hosts m in the stopped state, replacing any model of the same kind.
func (h *Host) Add(m demo.Model) {
	kind := m.Kind()
	if _, ok := h.entries[kind]; !ok {
		h.order = append(h.order, kind)
	}
	h.entries[kind] = &entry{model: m}
	h.log.Debug("demo added", zap.String("demo", string(kind)))
}

func (h *Host) Kinds() []demo.Kind {
	return append([]demo.Kind(nil), h.order...)
}

func (h *Host) Model(kind demo.Kind) (demo.Model, bool) {
	e, ok := h.entries[kind]
	if !ok {
		return nil, false
	}
	return e.model, true
}

func (h *Host) get(kind demo.Kind) (*entry, error) {
	e, ok := h.entries[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDemo, kind)
	}
	return e, nil
}

func (h *Host) Start(kind demo.Kind) error {
	e, err := h.get(kind)
	if err != nil {
		return err
	}
	e.running = true
	h.log.Info("demo started", zap.String("demo", string(kind)), zap.Float64("t", e.model.Time()))
	return nil
}

func (h *Host) Pause(kind demo.Kind) error {
	e, err := h.get(kind)
	if err != nil {
		return err
	}
	e.running = false
	h.log.Info("demo paused", zap.String("demo", string(kind)), zap.Float64("t", e.model.Time()))
	return nil
}

// Toggle flips between running and stopped and reports the new state.
func (h *Host) Toggle(kind demo.Kind) (bool, error) {
	e, err := h.get(kind)
	if err != nil {
		return false, err
	}
	if e.running {
		return false, h.Pause(kind)
	}
	return true, h.Start(kind)
}

// Reset stops the demo and returns it to its initial state.
func (h *Host) Reset(kind demo.Kind) error {
	e, err := h.get(kind)
	if err != nil {
		return err
	}
	e.running = false
	e.model.Reset()
	h.log.Info("demo reset", zap.String("demo", string(kind)))
	return nil
}

func (h *Host) Running(kind demo.Kind) bool {
	e, ok := h.entries[kind]
	return ok && e.running
}

// SetTopology switches the hosted circuit, which forces it back to the
// stopped, zeroed state.
func (h *Host) SetTopology(topo physics.Topology) error {
	e, err := h.get(demo.KindCircuit)
	if err != nil {
		return err
	}
	c, ok := e.model.(*demo.Circuit)
	if !ok {
		return ErrNotCircuit
	}
	if err := c.SetTopology(topo); err != nil {
		return err
	}
	e.running = false
	h.log.Info("topology changed", zap.String("topology", string(topo)))
	return nil
}

func (h *Host) TimeScale() float64 { return h.timeScale }

func (h *Host) SetTimeScale(s float64) error {
	if !(s > 0) {
		return fmt.Errorf("time scale must be positive, got %f", s)
	}
	h.timeScale = s
	return nil
}

// FrameDt is the step a frame of length frame produces: the delta clamped
// to the frame cap, then scaled. Negative deltas give zero.
func (h *Host) FrameDt(frame time.Duration) float64 {
	if frame <= 0 {
		return 0
	}
	if frame > h.maxFrame {
		frame = h.maxFrame
	}
	return frame.Seconds() * h.timeScale
}

// Advance steps every running model once and returns the dt applied.
func (h *Host) Advance(frame time.Duration) float64 {
	dt := h.FrameDt(frame)
	if dt == 0 {
		return 0
	}
	for _, kind := range h.order {
		if e := h.entries[kind]; e.running {
			e.model.Step(dt)
		}
	}
	return dt
}
