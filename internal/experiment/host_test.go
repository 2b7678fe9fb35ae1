package experiment_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/san-kum/physlab/internal/config"
	"github.com/san-kum/physlab/internal/demo"
	"github.com/san-kum/physlab/internal/experiment"
	"github.com/san-kum/physlab/internal/physics"
)

var _ = Describe("Host", func() {
	var host *experiment.Host

	BeforeEach(func() {
		var err error
		host, err = experiment.NewHostFromConfig(experiment.NewRegistry(), config.DefaultConfig(),
			experiment.WithHostLogger(zap.NewNop()))
		Expect(err).NotTo(HaveOccurred())
	})

	It("hosts every demo stopped", func() {
		Expect(host.Kinds()).To(HaveLen(4))
		for _, kind := range host.Kinds() {
			Expect(host.Running(kind)).To(BeFalse())
		}
	})

	Describe("frame timing", func() {
		DescribeTable("clamps then scales the frame delta",
			func(frame time.Duration, scale, expected float64) {
				Expect(host.SetTimeScale(scale)).To(Succeed())
				Expect(host.FrameDt(frame)).To(BeNumerically("~", expected, 1e-12))
			},
			Entry("short frame", 16*time.Millisecond, 1.0, 0.016),
			Entry("long frame is capped", 250*time.Millisecond, 1.0, 0.033),
			Entry("slow motion", 16*time.Millisecond, 0.5, 0.008),
			Entry("capped before scaling", time.Second, 2.0, 0.066),
			Entry("negative delta", -time.Millisecond, 1.0, 0.0),
		)

		It("rejects a non-positive time scale", func() {
			Expect(host.SetTimeScale(0)).NotTo(Succeed())
			Expect(host.TimeScale()).To(Equal(1.0))
		})
	})

	It("steps only running demos", func() {
		Expect(host.Start(demo.KindPendulum)).To(Succeed())

		dt := host.Advance(20 * time.Millisecond)
		Expect(dt).To(BeNumerically("~", 0.02, 1e-12))

		p, _ := host.Model(demo.KindPendulum)
		c, _ := host.Model(demo.KindCircuit)
		Expect(p.Time()).To(BeNumerically("~", 0.02, 1e-12))
		Expect(c.Time()).To(BeZero())
	})

	It("pauses and resumes without losing time", func() {
		Expect(host.Start(demo.KindDoublePendulum)).To(Succeed())
		host.Advance(10 * time.Millisecond)
		Expect(host.Pause(demo.KindDoublePendulum)).To(Succeed())
		host.Advance(10 * time.Millisecond)

		m, _ := host.Model(demo.KindDoublePendulum)
		Expect(m.Time()).To(BeNumerically("~", 0.01, 1e-12))

		running, err := host.Toggle(demo.KindDoublePendulum)
		Expect(err).NotTo(HaveOccurred())
		Expect(running).To(BeTrue())
		host.Advance(10 * time.Millisecond)
		Expect(m.Time()).To(BeNumerically("~", 0.02, 1e-12))
	})

	It("resets to the stopped initial state", func() {
		Expect(host.Start(demo.KindFluid)).To(Succeed())
		host.Advance(16 * time.Millisecond)
		Expect(host.Reset(demo.KindFluid)).To(Succeed())

		m, _ := host.Model(demo.KindFluid)
		Expect(m.Time()).To(BeZero())
		Expect(host.Running(demo.KindFluid)).To(BeFalse())
	})

	It("stops the circuit on a topology change", func() {
		Expect(host.Start(demo.KindCircuit)).To(Succeed())
		host.Advance(5 * time.Millisecond)

		Expect(host.SetTopology(physics.Parallel)).To(Succeed())
		Expect(host.Running(demo.KindCircuit)).To(BeFalse())

		m, _ := host.Model(demo.KindCircuit)
		c := m.(*demo.Circuit)
		Expect(c.Topology()).To(Equal(physics.Parallel))
		Expect(c.State().Series).To(BeEmpty())

		Expect(host.SetTopology("mesh")).NotTo(Succeed())
	})

	It("reports unknown demos", func() {
		empty := experiment.NewHost()
		Expect(empty.Start(demo.KindPendulum)).To(MatchError(experiment.ErrUnknownDemo))
		Expect(empty.SetTopology(physics.Series)).To(MatchError(experiment.ErrUnknownDemo))
	})

	It("honours the configured frame cap", func() {
		cfg := config.DefaultConfig()
		cfg.MaxFrame = 0.01
		h, err := experiment.NewHostFromConfig(experiment.NewRegistry(), cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(h.FrameDt(time.Second)).To(BeNumerically("~", 0.01, 1e-12))
	})
})
