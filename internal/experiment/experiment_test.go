package experiment_test

import (
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/physlab/internal/demo"
	"github.com/san-kum/physlab/internal/dynamo"
	"github.com/san-kum/physlab/internal/experiment"
	"github.com/san-kum/physlab/internal/export"
	"github.com/san-kum/physlab/internal/metrics"
)

// blowup doubles its state every step and turns NaN after a few.
type blowup struct {
	x     float64
	t     float64
	steps int
}

func (b *blowup) Step(dt float64) {
	b.steps++
	b.t += dt
	b.x *= 2
	if b.steps >= 5 {
		b.x = math.NaN()
	}
}
func (b *blowup) Reset()                                     { b.x, b.t, b.steps = 1, 0, 0 }
func (b *blowup) ExportSeries(dynamo.Format) (string, error) { return "", nil }
func (b *blowup) GetParams() map[string]float64              { return nil }
func (b *blowup) SetParam(string, float64) error             { return dynamo.ErrUnknownParam }
func (b *blowup) Kind() demo.Kind                            { return "blowup" }
func (b *blowup) Time() float64                              { return b.t }
func (b *blowup) Vector() dynamo.State                       { return dynamo.State{b.x} }
func (b *blowup) Records() []export.Record                   { return nil }
func (b *blowup) Snapshot() (demo.Snapshot, error)           { return demo.Snapshot{}, nil }
func (b *blowup) Restore(demo.Snapshot) error                { return nil }

var _ = Describe("Experiment", func() {
	var pendulum *demo.SimplePendulum

	BeforeEach(func() {
		cfg := demo.DefaultPendulumConfig()
		cfg.Damping = 0
		var err error
		pendulum, err = demo.NewSimplePendulum(cfg)
		Expect(err).NotTo(HaveOccurred())
	})

	It("runs for duration/dt steps and reports metrics", func() {
		exp := experiment.New(experiment.Config{Dt: 0.001, Duration: 10}, pendulum,
			experiment.WithMetrics(metrics.NewEnergyDrift(), metrics.NewStability(100)))

		res, err := exp.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(res.StepsTaken).To(Equal(10000))
		Expect(res.Time).To(BeNumerically("~", 10, 1e-9))
		Expect(res.EnergyDrift).To(BeNumerically("<", 0.01))
		Expect(res.Metrics).To(HaveKeyWithValue("stability", 1.0))
		Expect(res.Metrics["energy_drift"]).To(BeNumerically("<", 0.01))
	})

	It("finds no energy increase in a damped pendulum", func() {
		cfg := demo.DefaultPendulumConfig()
		cfg.Damping = 0.1
		p, err := demo.NewSimplePendulum(cfg)
		Expect(err).NotTo(HaveOccurred())

		exp := experiment.New(experiment.Config{Dt: 0.001, Duration: 10}, p,
			experiment.WithMetrics(metrics.NewEnergyIncreases(0, 500)))
		res, err := exp.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Metrics["energy_increases"]).To(BeZero())
	})

	It("calls observers after every step", func() {
		seen := 0
		exp := experiment.New(experiment.Config{Dt: 0.01, Duration: 0.1}, pendulum)
		exp.AddObserver(experiment.ObserverFunc(func(m demo.Model, step int) {
			Expect(step).To(Equal(seen))
			seen++
		}))

		_, err := exp.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(seen).To(Equal(10))
	})

	It("rejects invalid run settings", func() {
		_, err := experiment.New(experiment.Config{Dt: 0, Duration: 1}, pendulum).Run(context.Background())
		Expect(err).To(MatchError(ContainSubstring("dt must be positive")))

		_, err = experiment.New(experiment.Config{Dt: 0.1, Duration: -1}, pendulum).Run(context.Background())
		Expect(err).To(MatchError(ContainSubstring("duration must be positive")))

		_, err = experiment.New(experiment.Config{Dt: 0.1, Duration: 1}, nil).Run(context.Background())
		Expect(err).To(HaveOccurred())
	})

	It("returns the partial result on cancellation", func() {
		ctx, cancel := context.WithCancel(context.Background())
		exp := experiment.New(experiment.Config{Dt: 0.01, Duration: 10}, pendulum)
		exp.AddObserver(experiment.ObserverFunc(func(m demo.Model, step int) {
			if step == 9 {
				cancel()
			}
		}))

		res, err := exp.Run(ctx)
		Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		Expect(res.StepsTaken).To(Equal(10))
	})

	It("stops at the first invalid state", func() {
		b := &blowup{}
		b.Reset()
		exp := experiment.New(experiment.Config{Dt: 0.1, Duration: 10, ValidateState: true}, b)

		res, err := exp.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Errors).To(HaveLen(1))

		var simErr dynamo.SimError
		Expect(errors.As(res.Errors[0], &simErr)).To(BeTrue())
		Expect(simErr.Step).To(Equal(4))
		Expect(res.StepsTaken).To(Equal(5))
	})
})
