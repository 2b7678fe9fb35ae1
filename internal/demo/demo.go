package demo

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/san-kum/physlab/internal/dynamo"
	"github.com/san-kum/physlab/internal/export"
	"github.com/san-kum/physlab/internal/physics"
)

// Kind tags the four demo variants.
type Kind string

const (
	KindPendulum       Kind = "pendulum"
	KindDoublePendulum Kind = "double-pendulum"
	KindCircuit        Kind = "circuit"
	KindFluid          Kind = "fluid"
)

var (
	ErrKindMismatch = errors.New("demo: snapshot kind mismatch")
	ErrBadSnapshot  = errors.New("demo: malformed snapshot")
)

func Kinds() []Kind {
	return []Kind{KindPendulum, KindDoublePendulum, KindCircuit, KindFluid}
}

func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown demo: %s", s)
}

// Model is a self-contained demo a host can step, reset, export and persist.
type Model interface {
	dynamo.Steppable
	dynamo.Configurable
	Kind() Kind
	Time() float64
	// Vector is a copy of the live state vector, for validation and probes.
	Vector() dynamo.State
	// Records returns the bounded recorded series, oldest first.
	Records() []export.Record
	Snapshot() (Snapshot, error)
	Restore(Snapshot) error
}

// Energetic is implemented by models with a conserved-quantity breakdown.
type Energetic interface {
	Energy() physics.EnergyParts
}

// Snapshot is a plain (parameters, state) pair.
type Snapshot struct {
	Kind   Kind            `json:"kind"`
	Config json.RawMessage `json:"config"`
	State  json.RawMessage `json:"state"`
}

func newSnapshot(kind Kind, cfg, state any) (Snapshot, error) {
	c, err := json.Marshal(cfg)
	if err != nil {
		return Snapshot{}, fmt.Errorf("snapshot config: %w", err)
	}
	s, err := json.Marshal(state)
	if err != nil {
		return Snapshot{}, fmt.Errorf("snapshot state: %w", err)
	}
	return Snapshot{Kind: kind, Config: c, State: s}, nil
}

func (s Snapshot) decode(kind Kind, cfg, state any) error {
	if s.Kind != kind {
		return fmt.Errorf("%w: %s into %s", ErrKindMismatch, s.Kind, kind)
	}
	if err := json.Unmarshal(s.Config, cfg); err != nil {
		return fmt.Errorf("restore config: %w", err)
	}
	if err := json.Unmarshal(s.State, state); err != nil {
		return fmt.Errorf("restore state: %w", err)
	}
	return nil
}

// Export encodes the model's series with explicit options. DataType
// defaults to the model kind.
func Export(m Model, format dynamo.Format, opts export.Options) (string, error) {
	if opts.DataType == "" {
		opts.DataType = string(m.Kind())
	}
	return export.Encode(m.Records(), format, opts)
}

func energyRecord(e physics.EnergyParts) export.Record {
	return export.Record{
		{Key: "kinetic", Value: e.Kinetic},
		{Key: "potential", Value: e.Potential},
		{Key: "total", Value: e.Total},
	}
}

func vecRecord(v dynamo.Vec2) export.Record {
	return export.Record{{Key: "x", Value: v.X}, {Key: "y", Value: v.Y}}
}

func restoreRing[T any](r *dynamo.Ring[T], items []T) {
	r.Clear()
	for _, it := range items {
		r.Push(it)
	}
}

var (
	_ Energetic = (*SimplePendulum)(nil)
	_ Energetic = (*DoublePendulum)(nil)
	_ Energetic = (*Circuit)(nil)

	_ Model = (*SimplePendulum)(nil)
	_ Model = (*DoublePendulum)(nil)
	_ Model = (*Circuit)(nil)
	_ Model = (*Fluid)(nil)
)
