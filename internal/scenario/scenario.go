// Package scenario loads a scripted run definition from YAML and builds
// the domain.Domain and driver.Driver it describes: a YAML-defined list
// of steps, each resolved against the engine's registry rather
// than wired by hand in Go. A scenario step seeds an entire
// super-droplet population per gridbox from a lognormal aerosol size
// distribution, following initattributes.py's InitManyAttrsGen +
// radiiprobdistribs.LnNormal (Lohmann, Lüönd & Mahrt eq. 5.8) rather
// than a single scalar initial state.
package scenario

import (
	"math"
	"math/rand"
	"os"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
	"gopkg.in/yaml.v3"

	"github.com/cloudmicro/sdm/internal/collision"
	"github.com/cloudmicro/sdm/internal/condensation"
	"github.com/cloudmicro/sdm/internal/domain"
	"github.com/cloudmicro/sdm/internal/driver"
	"github.com/cloudmicro/sdm/internal/dynamics"
	"github.com/cloudmicro/sdm/internal/gridbox"
	"github.com/cloudmicro/sdm/internal/metrics"
	"github.com/cloudmicro/sdm/internal/motion"
	"github.com/cloudmicro/sdm/internal/parallel"
	"github.com/cloudmicro/sdm/internal/registry"
	"github.com/cloudmicro/sdm/internal/sdmerrors"
	"github.com/cloudmicro/sdm/internal/solute"
	"github.com/cloudmicro/sdm/internal/superdrop"
	"github.com/cloudmicro/sdm/internal/transport"
)

// Scenario is a scripted run definition with a name, description, and
// ordered steps. Build uses only Steps[0]; any later steps are parsed but
// not run.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Seed        int64          `yaml:"seed"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep configures one phase of the run: the physical process
// parameters, the grid, and the aerosol population to seed it with.
type ScenarioStep struct {
	Timesteps         TimestepsStep      `yaml:"timesteps"`
	CondensationSubDt float64            `yaml:"condensation_sub_dt"`
	CollisionSubDt    float64            `yaml:"collision_sub_dt"`
	MotionSubDt       float64            `yaml:"motion_sub_dt"`
	Kernel            string             `yaml:"kernel"`
	KernelParams      map[string]float64 `yaml:"kernel_params"`
	Boundary          BoundaryStep       `yaml:"boundary"`
	Grid              GridStep           `yaml:"grid"`
	Population        PopulationStep     `yaml:"population"`
	TolerateFailures  bool               `yaml:"tolerate_failures"`
}

// TimestepsStep configures the driver's multi-rate scheduler: a base tick
// plus four independent step intervals, each a positive integer multiple
// of it.
type TimestepsStep struct {
	BaseTick float64 `yaml:"base_tick"`
	Coupl    int64   `yaml:"coupl"`
	Motion   int64   `yaml:"motion"`
	Micro    int64   `yaml:"micro"`
	Obs      int64   `yaml:"obs"`
	End      int64   `yaml:"end"`
}

// BoundaryStep names the per-axis boundary policy, resolved through
// registry.BoundaryPolicy at build time.
type BoundaryStep struct {
	Coord3 string `yaml:"coord3"`
	Coord1 string `yaml:"coord1"`
	Coord2 string `yaml:"coord2"`
}

// GridStep lays out a dense n3 x n1 x n2 Cartesian grid of gridboxes.
// NumGridboxes is the vertical (coord3) count; NumGridboxes1/2 default to
// 1 when absent, collapsing the grid to the 1-D column that is the common
// case for a single-column SDM run.
type GridStep struct {
	NumGridboxes  int     `yaml:"num_gridboxes"`
	NumGridboxes1 int     `yaml:"num_gridboxes1"`
	NumGridboxes2 int     `yaml:"num_gridboxes2"`
	GridStep3     float64 `yaml:"gridstep3"`
	GridStep1     float64 `yaml:"gridstep1"`
	GridStep2     float64 `yaml:"gridstep2"`
	Press         float64 `yaml:"press"`
	Temp          float64 `yaml:"temp"`
	Qvap          float64 `yaml:"qvap"`
	Qcond         float64 `yaml:"qcond"`
}

// PopulationStep describes a lognormal aerosol population to seed each
// gridbox with, following radiiprobdistribs.LnNormal's multi-mode
// superposition: NumSupers super-droplets sample dry radii from the
// superposition of the given modes, each with its own geometric mean
// radius, geometric standard deviation, and relative weight.
type PopulationStep struct {
	NumSupers int             `yaml:"num_supers"`
	Solute    string          `yaml:"solute"` // "ammonium_sulfate" or "nacl"
	EpsPerSD  uint64          `yaml:"eps_per_superdrop"`
	Modes     []LognormalMode `yaml:"modes"`
}

// LognormalMode is one mode of a multi-mode lognormal dry-radius
// distribution, per LnNormal.lnnormaldist's geomean/geosig/scalefac
// triple.
type LognormalMode struct {
	GeoMeanRadius float64 `yaml:"geomean_radius"` // dimensionless, scaled by consts.R0 by the caller
	GeoStdDev     float64 `yaml:"geostddev"`      // geometric standard deviation (>1)
	Weight        float64 `yaml:"weight"`         // relative contribution of this mode
}

// Load reads and parses a scenario definition from a YAML file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, sdmerrors.Config("reading scenario file %q: %v", path, err)
	}
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, sdmerrors.Config("parsing scenario file %q: %v", path, err)
	}
	return &s, nil
}

// Build constructs a domain.Domain and a driver.Driver from a
// scenario's first step, resolving the named kernel and boundary policy
// against the registry and seeding every gridbox with an independently
// sampled aerosol population.
func Build(s *Scenario, reg *registry.Registry, rng *rand.Rand) (*driver.Driver, error) {
	if len(s.Steps) == 0 {
		return nil, sdmerrors.Config("scenario %q has no steps", s.Name)
	}
	step := s.Steps[0]

	gbxs, maps, err := buildGridboxes(step.Grid)
	if err != nil {
		return nil, err
	}

	supers, err := seedPopulation(step.Population, gbxs, maps, rng)
	if err != nil {
		return nil, err
	}

	kernel, err := reg.Kernel(step.Kernel, step.KernelParams)
	if err != nil {
		return nil, err
	}

	bounds, err := buildBounds(step.Boundary)
	if err != nil {
		return nil, err
	}

	dom := domain.New(gbxs, supers, maps)

	d := &driver.Driver{
		Domain:       dom,
		Condensation: condensation.NewSolver(),
		Collision:    &collision.Sampler{Kernel: kernel},
		Motion: &motion.Integrator{
			GridStep3: step.Grid.GridStep3,
			GridStep1: step.Grid.GridStep1,
			GridStep2: step.Grid.GridStep2,
		},
		Dynamics:  dynamics.Null{},
		Backend:   parallel.NewCPUBackend(),
		MassDrift: metrics.NewMassDrift(),
		Config: driver.Config{
			Seed:              s.Seed,
			BaseTick:          nonZero(step.Timesteps.BaseTick, 1.0),
			CouplTicks:        positiveOr(step.Timesteps.Coupl, 1),
			MotionTicks:       positiveOr(step.Timesteps.Motion, 1),
			MicroTicks:        positiveOr(step.Timesteps.Micro, 1),
			ObsTicks:          positiveOr(step.Timesteps.Obs, 1),
			EndTick:           step.Timesteps.End,
			CondensationSubDt: step.CondensationSubDt,
			CollisionSubDt:    step.CollisionSubDt,
			MotionSubDt:       step.MotionSubDt,
			Bounds:            bounds,
			TolerateFailures:  step.TolerateFailures,
		},
	}
	return d, nil
}

func positiveOr(v, fallback int64) int64 {
	if v <= 0 {
		return fallback
	}
	return v
}

// buildGridboxes lays out a dense n3 x n1 x n2 Cartesian grid and its
// gridbox.Maps bounds-and-neighbour table together, indexed identically
// so gbxs[i].Index always resolves through maps to that same gridbox's
// physical bounds.
func buildGridboxes(g GridStep) ([]gridbox.Gridbox, *gridbox.Maps, error) {
	n3 := g.NumGridboxes
	if n3 <= 0 {
		n3 = 1
	}
	n1 := g.NumGridboxes1
	if n1 <= 0 {
		n1 = 1
	}
	n2 := g.NumGridboxes2
	if n2 <= 0 {
		n2 = 1
	}

	maps := gridbox.NewCartesianMaps(n3, n1, n2, g.GridStep3, g.GridStep1, g.GridStep2)

	gbxs := make([]gridbox.Gridbox, 0, n3*n1*n2)
	for i3 := 0; i3 < n3; i3++ {
		for i1 := 0; i1 < n1; i1++ {
			for i2 := 0; i2 < n2; i2++ {
				idx := uint32(i3*n1*n2 + i1*n2 + i2)
				gbxs = append(gbxs, gridbox.Gridbox{
					Index: idx,
					State: gridbox.State{
						Volume: g.GridStep3 * g.GridStep1 * g.GridStep2,
						Press:  nonZero(g.Press, 1.0),
						Temp:   nonZero(g.Temp, 1.0),
						Qvap:   g.Qvap,
						Qcond:  g.Qcond,
					},
				})
			}
		}
	}
	return gbxs, maps, nil
}

func nonZero(v, fallback float64) float64 {
	if v == 0 {
		return fallback
	}
	return v
}

func buildBounds(b BoundaryStep) (transport.Bounds, error) {
	reg := registry.New()
	resolve := func(name string) (transport.Policy, error) {
		if name == "" {
			return transport.Periodic, nil
		}
		return reg.BoundaryPolicy(name)
	}

	p3, err := resolve(b.Coord3)
	if err != nil {
		return transport.Bounds{}, err
	}
	p1, err := resolve(b.Coord1)
	if err != nil {
		return transport.Bounds{}, err
	}
	p2, err := resolve(b.Coord2)
	if err != nil {
		return transport.Bounds{}, err
	}

	return transport.Bounds{Coord3: p3, Coord1: p1, Coord2: p2}, nil
}

// seedPopulation samples NumSupers dry radii per gridbox from the
// scenario's lognormal mode superposition and builds a Superdrop for
// each, following InitManyAttrsGen.mass_solutes: solute mass derives
// from dry radius and solute density, wet radius starts equal to dry
// radius (droplets grow by condensation from their driest state).
func seedPopulation(p PopulationStep, gbxs []gridbox.Gridbox, maps *gridbox.Maps, rng *rand.Rand) ([]superdrop.Superdrop, error) {
	if p.NumSupers <= 0 {
		return nil, nil
	}
	if len(p.Modes) == 0 {
		return nil, sdmerrors.Config("population has no lognormal modes")
	}

	soluteProps := solute.AmmoniumSulfate()
	if p.Solute == "nacl" {
		soluteProps = solute.NaCl()
	}
	eps := p.EpsPerSD
	if eps == 0 {
		eps = 1
	}

	sampler, err := newLognormalSampler(p.Modes, rng)
	if err != nil {
		return nil, err
	}

	var id uint64
	supers := make([]superdrop.Superdrop, 0, p.NumSupers*len(gbxs))
	for _, gbx := range gbxs {
		m, ok := maps.Get(gbx.Index)
		if !ok {
			return nil, sdmerrors.Config("gridbox %d has no entry in the gridbox map", gbx.Index)
		}
		coord3 := (m.Bounds3.Lower + m.Bounds3.Upper) / 2
		coord1 := (m.Bounds1.Lower + m.Bounds1.Upper) / 2
		coord2 := (m.Bounds2.Lower + m.Bounds2.Upper) / 2

		for i := 0; i < p.NumSupers; i++ {
			id++
			dryRadius := sampler.Sample()
			mSol := (4.0 / 3.0) * math.Pi * math.Pow(dryRadius, 3.0) * soluteProps.Rho

			supers = append(supers, superdrop.Superdrop{
				ID:       id,
				GbxIndex: gbx.Index,
				Eps:      eps,
				Radius:   dryRadius,
				MSol:     mSol,
				Solute:   soluteProps,
				Coord3:   coord3,
				Coord1:   coord1,
				Coord2:   coord2,
			})
		}
	}
	return supers, nil
}

// lognormalSampler draws from a superposition of lognormal modes by
// first choosing a mode weighted by its Weight (mirroring LnNormal's
// normalised-superposition density) and then drawing from that mode's
// distuv.LogNormal.
type lognormalSampler struct {
	modes   []distuv.LogNormal
	weights []float64
	total   float64
	rng     *rand.Rand
}

func newLognormalSampler(modes []LognormalMode, rng *rand.Rand) (*lognormalSampler, error) {
	s := &lognormalSampler{rng: rng}
	for _, m := range modes {
		if m.GeoMeanRadius <= 0 || m.GeoStdDev <= 1 {
			return nil, sdmerrors.Config("invalid lognormal mode: geomean=%v geostddev=%v", m.GeoMeanRadius, m.GeoStdDev)
		}
		// distuv.LogNormal parametrises by the underlying normal's mean
		// (Mu = ln(geomean)) and stddev (Sigma = ln(geostddev)), matching
		// lnnormaldist's mutilda/sigtilda substitution.
		s.modes = append(s.modes, distuv.LogNormal{
			Mu:    math.Log(m.GeoMeanRadius),
			Sigma: math.Log(m.GeoStdDev),
			Src:   rng,
		})
		weight := m.Weight
		if weight <= 0 {
			weight = 1
		}
		s.weights = append(s.weights, weight)
		s.total += weight
	}
	return s, nil
}

func (s *lognormalSampler) Sample() float64 {
	pick := s.rng.Float64() * s.total
	cumulative := 0.0
	for i, w := range s.weights {
		cumulative += w
		if pick <= cumulative {
			return s.modes[i].Rand()
		}
	}
	return s.modes[len(s.modes)-1].Rand()
}

// ModeStatistics summarises the radii a sampler actually drew, letting a
// scenario's build step report the realised size distribution alongside
// the configured one.
func ModeStatistics(radii []float64) (mean, stddev float64) {
	if len(radii) == 0 {
		return 0, 0
	}
	return stat.MeanStdDev(radii, nil)
}
