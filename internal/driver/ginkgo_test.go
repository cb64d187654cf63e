package driver_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/cloudmicro/sdm/internal/collision"
	"github.com/cloudmicro/sdm/internal/condensation"
	"github.com/cloudmicro/sdm/internal/domain"
	"github.com/cloudmicro/sdm/internal/driver"
	"github.com/cloudmicro/sdm/internal/dynamics"
	"github.com/cloudmicro/sdm/internal/gridbox"
	"github.com/cloudmicro/sdm/internal/metrics"
	"github.com/cloudmicro/sdm/internal/motion"
	"github.com/cloudmicro/sdm/internal/parallel"
	"github.com/cloudmicro/sdm/internal/solute"
	"github.com/cloudmicro/sdm/internal/superdrop"
)

func newColumn() *driver.Driver {
	gbxs := []gridbox.Gridbox{{
		Index: 0,
		State: gridbox.State{Volume: 1.0, Press: 1.0, Temp: 280.0 / 273.15, Qvap: 0.018},
	}}
	supers := []superdrop.Superdrop{
		{ID: 1, GbxIndex: 0, Eps: 2000, Radius: 5e-6 / 1e-6, MSol: 1e-18, Solute: solute.AmmoniumSulfate()},
		{ID: 2, GbxIndex: 0, Eps: 1500, Radius: 8e-6 / 1e-6, MSol: 1e-18, Solute: solute.AmmoniumSulfate()},
		{ID: 3, GbxIndex: 0, Eps: 3000, Radius: 3e-6 / 1e-6, MSol: 1e-18, Solute: solute.AmmoniumSulfate()},
	}

	maps := gridbox.NewCartesianMaps(1, 1, 1, 100, 100, 100)

	return &driver.Driver{
		Domain:    domain.New(gbxs, supers, maps),
		Collision: &collision.Sampler{Kernel: collision.Golovin{}},
		Motion:    &motion.Integrator{GridStep3: 100, GridStep1: 100, GridStep2: 100},
		Dynamics:  dynamics.Null{},
		Backend:   parallel.SequentialBackend{},
		MassDrift: metrics.NewMassDrift(),
		Config: driver.Config{
			Seed: 3, BaseTick: 1.0, CouplTicks: 1, MotionTicks: 1, MicroTicks: 1, ObsTicks: 1,
			CollisionSubDt: 1.0, MotionSubDt: 1.0,
			EndTick: 19, TolerateFailures: true,
		},
	}
}

var _ = Describe("Driver.Run", func() {
	var d *driver.Driver

	BeforeEach(func() {
		d = newColumn()
	})

	When("condensation is disabled and only collisions run", func() {
		It("advances every configured tick", func() {
			result, err := d.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(result.TicksRun).To(Equal(int64(20)))
		})

		It("keeps the gridbox span invariant intact", func() {
			_, err := d.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			for i := range d.Domain.Gridboxes {
				Expect(d.Domain.Gridboxes[i].IsCorrect(d.Domain.Supers)).To(BeTrue())
			}
		})

		It("never increases total super-droplet multiplicity-weighted mass beyond its starting value", func() {
			before := totalMass(d)
			_, err := d.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			after := totalMass(d)
			// Golovin coalescence conserves mass exactly; motion and the
			// (disabled) condensation step cannot add mass, so after must
			// equal before to within floating point accumulation error.
			Expect(after).To(BeNumerically("~", before, before*1e-6+1e-30))
		})
	})

	When("condensation is enabled in supersaturated air", func() {
		It("reports a non-negative mass-drift metric", func() {
			d.Condensation = condensation.NewSolver()
			d.Config.CondensationSubDt = 0.1
			result, err := d.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Metrics["mass_drift"]).To(BeNumerically(">=", 0))
		})
	})

	When("the context is already cancelled", func() {
		It("returns immediately having run no ticks", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			result, err := d.Run(ctx)
			Expect(err).To(HaveOccurred())
			Expect(result.TicksRun).To(BeZero())
		})
	})
})

func totalMass(d *driver.Driver) float64 {
	total := 0.0
	for i := range d.Domain.Supers {
		sd := &d.Domain.Supers[i]
		total += float64(sd.Eps) * sd.Mass()
	}
	return total
}
