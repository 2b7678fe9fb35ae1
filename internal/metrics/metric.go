package metrics

import (
	"github.com/san-kum/physlab/internal/dynamo"
	"github.com/san-kum/physlab/internal/physics"
)

// Sample is what a metric sees after each step. HasEnergy is false for
// models without an energy breakdown.
type Sample struct {
	Time      float64
	Vector    dynamo.State
	Energy    physics.EnergyParts
	HasEnergy bool
}

type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}
