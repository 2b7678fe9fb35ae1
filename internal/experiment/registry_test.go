package experiment_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/physlab/internal/config"
	"github.com/san-kum/physlab/internal/demo"
	"github.com/san-kum/physlab/internal/dynamo"
	"github.com/san-kum/physlab/internal/experiment"
)

var _ = Describe("Registry", func() {
	var reg *experiment.Registry

	BeforeEach(func() {
		reg = experiment.NewRegistry()
	})

	It("lists the four demos in order", func() {
		Expect(reg.ListModels()).To(Equal([]string{"circuit", "double-pendulum", "fluid", "pendulum"}))
	})

	It("builds each demo from its config section", func() {
		cfg := config.DefaultConfig()
		cfg.Pendulum.Length = 2
		for _, kind := range demo.Kinds() {
			m, err := reg.GetModel(kind, cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(m.Kind()).To(Equal(kind))
		}

		m, err := reg.GetModel(demo.KindPendulum, cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(m.GetParams()).To(HaveKeyWithValue("length", 2.0))
	})

	It("rejects unknown demos", func() {
		_, err := reg.GetModel("cartpole", config.DefaultConfig())
		Expect(err).To(MatchError(ContainSubstring("unknown demo")))
	})

	It("surfaces configuration errors", func() {
		cfg := config.DefaultConfig()
		cfg.Circuit.Capacitance = 0
		_, err := reg.GetModel(demo.KindCircuit, cfg)
		Expect(err).To(MatchError(dynamo.ErrParameterBounds))
	})

	It("skips energy metrics for the fluid", func() {
		Expect(reg.DefaultMetrics(demo.KindFluid)).To(HaveLen(1))
		Expect(reg.DefaultMetrics(demo.KindPendulum)).To(HaveLen(4))
		Expect(reg.DefaultMetrics(demo.KindCircuit)).To(HaveLen(5))
	})
})
