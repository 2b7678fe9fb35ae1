package metrics

import (
	"math"
)

// MeanEnergy averages the total energy over every observed sample.
type MeanEnergy struct {
	name        string
	samples     int
	totalEnergy float64
}

func NewMeanEnergy() *MeanEnergy {
	return &MeanEnergy{name: "energy"}
}

func (e *MeanEnergy) Name() string { return e.name }

func (e *MeanEnergy) Observe(s Sample) {
	if !s.HasEnergy {
		return
	}
	e.totalEnergy += s.Energy.Total
	e.samples++
}

func (e *MeanEnergy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.totalEnergy / float64(e.samples)
}

func (e *MeanEnergy) Reset() {
	e.totalEnergy = 0
	e.samples = 0
}

// EnergyDrift tracks the largest relative departure from the first
// observed energy.
type EnergyDrift struct {
	name          string
	initialEnergy float64
	currentEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{name: "energy_drift"}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(s Sample) {
	if !s.HasEnergy {
		return
	}
	energy := s.Energy.Total

	if e.samples == 0 {
		e.initialEnergy = energy
	}

	e.currentEnergy = energy
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

// Final is the relative drift of the latest sample.
func (e *EnergyDrift) Final() float64 {
	if e.initialEnergy == 0 {
		return 0
	}
	return math.Abs(e.currentEnergy-e.initialEnergy) / math.Abs(e.initialEnergy)
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.currentEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}

// EnergyIncreases counts samples whose total energy rose above the previous
// one by more than tol (relative). A damped model should report zero.
type EnergyIncreases struct {
	name     string
	tol      float64
	prev     float64
	seen     bool
	count    int
	every    int
	observed int
}

// NewEnergyIncreases compares one sample in every; every <= 1 compares
// consecutive samples.
func NewEnergyIncreases(tol float64, every int) *EnergyIncreases {
	if every < 1 {
		every = 1
	}
	return &EnergyIncreases{name: "energy_increases", tol: tol, every: every}
}

func (e *EnergyIncreases) Name() string { return e.name }

func (e *EnergyIncreases) Observe(s Sample) {
	if !s.HasEnergy {
		return
	}
	e.observed++
	if e.observed%e.every != 0 {
		return
	}

	energy := s.Energy.Total
	if e.seen && energy-e.prev > e.tol*math.Abs(e.prev) {
		e.count++
	}
	e.prev = energy
	e.seen = true
}

func (e *EnergyIncreases) Value() float64 {
	return float64(e.count)
}

func (e *EnergyIncreases) Reset() {
	e.prev = 0
	e.seen = false
	e.count = 0
	e.observed = 0
}
