// Package collision implements stochastic collision-coalescence and
// collision-breakup of super-droplets within a single gridbox using the
// all-pairs Monte Carlo scheme of Shima et al. 2009. It is grounded on
// collisionx.hpp's collide_superdroplets/collide_superdroplet_pair (the
// shuffle-and-pair sampling and gamma-factor enactment), coalescence.hpp
// (the multiplicity-weighted coalescence update), and
// collisionkernels.hpp (the Golovin and Long-hydrodynamic kernels).
package collision

import (
	"math"
	"math/rand"

	"github.com/cloudmicro/sdm/internal/consts"
	"github.com/cloudmicro/sdm/internal/superdrop"
)

// Kernel computes the un-scaled pairwise collision probability prob_jk
// for a candidate pair over sub-timestep delt in a gridbox of volume
// vol. Implementations are registered by name in internal/registry.
type Kernel interface {
	ProbJK(d1, d2 *superdrop.Superdrop, delt, vol float64) float64
}

// Golovin is the sum-of-volumes coalescence kernel: K = const*(vol1+vol2).
type Golovin struct{}

func (Golovin) ProbJK(d1, d2 *superdrop.Superdrop, delt, vol float64) float64 {
	const probJKConst = 1.5e3 * consts.R0 * consts.R0 * consts.R0
	kernel := probJKConst * (d1.Volume() + d2.Volume())
	return kernel * delt / vol
}

// TerminalVelocity returns a droplet's terminal fall speed given its
// radius, following Simmel et al. 2002's piecewise mass-power-law fit
// (terminalvelocity.cpp's SimmelTerminalVelocity).
func TerminalVelocity(radius float64) float64 {
	r1 := 6.7215e-5 / consts.R0
	r2 := 7.5582e-4 / consts.R0
	r3 := 1.73892e-3 / consts.R0

	massConst := (4.0 / 3.0) * math.Pi * consts.RhoL * consts.R0 * consts.R0 * consts.R0
	velConst := consts.W0
	a1 := 457950.0 / velConst
	a2 := 4962.0 / velConst
	a3 := 1732.0 / velConst
	a4 := 917.0 / velConst

	mass := massConst * radius * radius * radius

	switch {
	case radius < r1:
		return a4 * math.Pow(mass, 2.0/3.0)
	case radius < r2:
		return a3 * math.Pow(mass, 1.0/3.0)
	case radius < r3:
		return a2 * math.Pow(mass, 1.0/6.0)
	default:
		return a1
	}
}

// LongHydrodynamic is Long's gravitational collision-coalescence kernel
// with the Simmel et al. 2002 collision efficiency, per
// collisionkernels.hpp's LongHydrodynamicCoalProb.
type LongHydrodynamic struct {
	CoalEff float64 // collision-coalescence efficiency for large droplets; CLEO's examples fix this at 1.0
}

func (l LongHydrodynamic) ProbJK(d1, d2 *superdrop.Superdrop, delt, vol float64) float64 {
	coalEff := l.CoalEff
	if coalEff == 0 {
		coalEff = 1.0
	}

	const (
		rlim            = 5e-5 / consts.R0
		smallColleffMax = 0.001
	)
	a1 := 4.5e4 * consts.R0 * consts.R0
	a2 := 3e-4 / consts.R0

	bigR, smallR := d1.Radius, d2.Radius
	if smallR > bigR {
		bigR, smallR = smallR, bigR
	}

	colleff := 1.0
	if bigR < rlim {
		small := a1 * bigR * bigR * (1 - a2/smallR)
		colleff = math.Max(small, smallColleffMax)
	}
	eff := colleff * coalEff

	probJKConst := math.Pi * consts.R0 * consts.R0 * consts.W0
	sumRSqrd := (bigR + smallR) * (bigR + smallR)
	vdiff := math.Abs(TerminalVelocity(d1.Radius) - TerminalVelocity(d2.Radius))
	kernel := probJKConst * eff * sumRSqrd * vdiff

	return kernel * delt / vol
}

// LowList is Long's gravitational geometric kernel combined with the Low
// & List 1982 coalescence efficiency, which (unlike Simmel's radius-ratio
// fit used by LongHydrodynamic) falls off with the ratio of collision
// kinetic energy to surface energy: energetic collisions between
// similarly-sized large drops tend to bounce or temporarily coalesce and
// separate rather than merge.
type LowList struct {
	CoalEff float64 // overall multiplier on top of the energy-ratio efficiency; 0 defaults to 1.0
}

// weberRef is the collision-kinetic-energy/surface-energy ratio at which
// Low & List's efficiency curve has fallen to one half; chosen so that
// raindrop-scale collisions (weberNumber of order a few) suppress
// coalescence the way Low & List 1982's flume measurements show, while
// cloud-droplet-scale collisions (weberNumber << 1) coalesce freely.
const weberRef = 1.0

func (l LowList) ProbJK(d1, d2 *superdrop.Superdrop, delt, vol float64) float64 {
	coalEff := l.CoalEff
	if coalEff == 0 {
		coalEff = 1.0
	}

	bigR, smallR := d1.Radius, d2.Radius
	if smallR > bigR {
		bigR, smallR = smallR, bigR
	}

	weber := weberNumber(d1, d2)
	eff := coalEff / (1.0 + weber/weberRef)

	probJKConst := math.Pi * consts.R0 * consts.R0 * consts.W0
	sumRSqrd := (bigR + smallR) * (bigR + smallR)
	vdiff := math.Abs(TerminalVelocity(d1.Radius) - TerminalVelocity(d2.Radius))
	kernel := probJKConst * eff * sumRSqrd * vdiff

	return kernel * delt / vol
}

// FragmentLaw returns the number of fragments a breakup event between d1
// and d2 produces. Registered implementations must satisfy this to plug
// into Sampler the way CLEO's NFragments concept does for DoBreakup.
type FragmentLaw interface {
	NFrags(d1, d2 *superdrop.Superdrop) float64
}

// ConstFrags always returns a fixed fragment count, CLEO's
// breakup_nfrags.hpp ConstNFrags.
type ConstFrags struct{ N float64 }

func (c ConstFrags) NFrags(d1, d2 *superdrop.Superdrop) float64 { return c.N }

// UniformFrags draws a fragment count uniformly from [Min, Max], the
// alternative breakup fragmentation law offered alongside the
// constant-fragment default.
type UniformFrags struct {
	Min, Max float64
	Rand     *rand.Rand
}

func (u UniformFrags) NFrags(d1, d2 *superdrop.Superdrop) float64 {
	return u.Min + u.Rand.Float64()*(u.Max-u.Min)
}

// Sampler runs one gridbox's worth of collision sampling for a single
// sub-timestep, following collisionx.hpp's collide_superdroplets: shuffle
// the gridbox's span, pair consecutive elements, and enact a collision
// event per pair according to kernel and breakup.
type Sampler struct {
	Kernel   Kernel
	Breakup  FragmentLaw // nil disables breakup; every collision that fires coalesces
	WeberCap float64     // Weber number above which a coalescing collision instead breaks up; 0 disables this split
}

// Run samples and enacts collisions among supers (one gridbox's
// contiguous span) over sub-timestep delt in a volume of vol, using r as
// this gridbox's per-tick PRNG stream. If supers has an odd length, the
// unpaired last element (after shuffling) is left untouched for this
// sub-step: a "skip one" policy for odd gridbox occupancy.
func (s *Sampler) Run(supers []superdrop.Superdrop, delt, vol float64, r *rand.Rand) {
	n := len(supers)
	if n < 2 {
		return
	}

	r.Shuffle(n, func(i, j int) { supers[i], supers[j] = supers[j], supers[i] })

	nHalf := n / 2
	scaleP := float64(n) * float64(n-1) / (2.0 * float64(nHalf))

	for i := 1; i < n; i += 2 {
		s.collidePair(&supers[i-1], &supers[i], scaleP, delt, vol, r)
	}
}

// collidePair enacts the Monte Carlo collision step for one candidate
// pair, per collisionx.hpp's collide_superdroplet_pair.
func (s *Sampler) collidePair(a, b *superdrop.Superdrop, scaleP, delt, vol float64, r *rand.Rand) {
	drop1, drop2 := a, b
	if drop1.Eps < drop2.Eps {
		drop1, drop2 = drop2, drop1
	}

	probJK := s.Kernel.ProbJK(drop1, drop2, delt, vol)
	maxEps := drop1.Eps
	if drop2.Eps > maxEps {
		maxEps = drop2.Eps
	}
	prob := scaleP * float64(maxEps) * probJK

	phi := r.Float64()
	gamma := collisionGamma(drop1.Eps, drop2.Eps, prob, phi)
	if gamma == 0 {
		return
	}

	if s.Breakup != nil && s.shouldBreakup(drop1, drop2) {
		breakupPair(drop1, drop2, gamma, s.Breakup.NFrags(drop1, drop2))
		return
	}
	coalescePair(drop1, drop2, gamma)
}

// collisionGamma computes the Shima et al. 2009 gamma factor: the number
// of real-droplet collision events the candidate superdrop pair
// represents this step, per coalescence.hpp's coalescence_gamma.
func collisionGamma(eps1, eps2 uint64, prob, phi float64) uint64 {
	gamma := uint64(math.Floor(prob))
	if phi < prob-float64(gamma) {
		gamma++
	}
	maxGamma := eps1 / eps2
	if gamma > maxGamma {
		return maxGamma
	}
	return gamma
}

// shouldBreakup decides coalescence vs. breakup by a Weber-number
// threshold, following CoalBreakup::operator()'s "if weber < x coalesce,
// else breakup" branch; coal_breakup.hpp leaves the threshold's exact
// form as a TODO, so WeberCap==0 (the default) always coalesces.
func (s *Sampler) shouldBreakup(d1, d2 *superdrop.Superdrop) bool {
	if s.WeberCap <= 0 {
		return false
	}
	weber := weberNumber(d1, d2)
	return weber > s.WeberCap
}

func weberNumber(d1, d2 *superdrop.Superdrop) float64 {
	bigR := math.Max(d1.Radius, d2.Radius)
	vdiff := math.Abs(TerminalVelocity(d1.Radius) - TerminalVelocity(d2.Radius))
	return consts.RhoL * vdiff * vdiff * bigR
}

// coalescePair merges gamma of drop1's droplets into each of drop2's
// droplets: drop1 loses gamma*eps2 multiplicity and drop2 grows, per
// coalescence.hpp's coalesce_superdroplet_pair. When eps1 == gamma*eps2 exactly, both
// superdrops become identical twins instead of eps1 being driven to zero.
func coalescePair(drop1, drop2 *superdrop.Superdrop, gamma uint64) {
	diff := int64(drop1.Eps) - int64(gamma*drop2.Eps)

	switch {
	case diff > 0:
		differentCoalescence(drop1, drop2, gamma)
	case diff == 0:
		twinCoalescence(drop1, drop2, gamma)
	default:
		// eps1 < gamma*eps2 cannot occur: gamma is capped at eps1/eps2.
	}
}

func differentCoalescence(drop1, drop2 *superdrop.Superdrop, gamma uint64) {
	drop1.Eps -= gamma * drop2.Eps

	r1cubed := drop1.Radius * drop1.Radius * drop1.Radius
	r2cubed := drop2.Radius * drop2.Radius * drop2.Radius
	newRCubed := r2cubed + float64(gamma)*r1cubed
	drop2.Radius = math.Cbrt(newRCubed)

	drop2.MSol += float64(gamma) * drop1.MSol
}

func twinCoalescence(drop1, drop2 *superdrop.Superdrop, gamma uint64) {
	newEps := drop2.Eps / 2
	drop1.Eps = newEps
	drop2.Eps = drop2.Eps - newEps

	r1cubed := drop1.Radius * drop1.Radius * drop1.Radius
	r2cubed := drop2.Radius * drop2.Radius * drop2.Radius
	newR := math.Cbrt(r2cubed + float64(gamma)*r1cubed)
	drop1.Radius = newR
	drop2.Radius = newR

	newMSol := drop2.MSol + float64(gamma)*drop1.MSol
	drop1.MSol = newMSol
	drop2.MSol = newMSol
}

// breakupPair fragments gamma collision events' worth of drop1 into
// nFrags-sized pieces redistributed onto drop2, conserving total droplet
// mass. CLEO's breakup.hpp leaves the enactment body as a TODO; this
// follows the same mass-conserving, multiplicity-redistributing shape as
// coalescePair with the merge direction reversed.
func breakupPair(drop1, drop2 *superdrop.Superdrop, gamma uint64, nFrags float64) {
	if nFrags < 1 {
		nFrags = 1
	}

	totalMass := drop1.Mass()*float64(gamma) + drop2.Mass()
	fragMass := totalMass / nFrags

	newVolume := fragMass / consts.RhoL
	newRadius := math.Cbrt(newVolume * 3.0 / (4.0 * math.Pi))

	drop2.Radius = newRadius
	drop1.Eps += gamma * uint64(math.Round(nFrags))
}
