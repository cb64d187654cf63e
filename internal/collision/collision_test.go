package collision

import (
	"math"
	"math/rand"
	"testing"

	"github.com/cloudmicro/sdm/internal/solute"
	"github.com/cloudmicro/sdm/internal/superdrop"
)

func makeDrop(id uint64, eps uint64, radius float64) superdrop.Superdrop {
	return superdrop.Superdrop{
		ID: id, Eps: eps, Radius: radius, MSol: 1e-18,
		Solute: solute.AmmoniumSulfate(),
	}
}

func totalWaterMass(supers []superdrop.Superdrop) float64 {
	total := 0.0
	for i := range supers {
		total += float64(supers[i].Eps) * supers[i].Mass()
	}
	return total
}

func TestCollisionGammaCappedAtMultiplicityRatio(t *testing.T) {
	gamma := collisionGamma(100, 30, 1000.0, 0.5)
	if gamma > 100/30 {
		t.Fatalf("gamma %d exceeds eps1/eps2 cap %d", gamma, 100/30)
	}
}

func TestCollisionGammaZeroBelowProbability(t *testing.T) {
	gamma := collisionGamma(100, 10, 0.2, 0.9) // phi=0.9 > prob=0.2, floor(prob)=0
	if gamma != 0 {
		t.Fatalf("gamma = %d, want 0 when phi exceeds prob", gamma)
	}
}

func TestCoalescePairConservesTotalMultiplicityWeightedVolume(t *testing.T) {
	drop1 := makeDrop(1, 100, 2.0)
	drop2 := makeDrop(2, 10, 1.0) // eps1 > gamma*eps2: takes the non-twin merge path

	beforeVol := float64(drop1.Eps)*drop1.Volume() + float64(drop2.Eps)*drop2.Volume()

	coalescePair(&drop1, &drop2, 5)

	afterVol := float64(drop1.Eps)*drop1.Volume() + float64(drop2.Eps)*drop2.Volume()
	if math.Abs(beforeVol-afterVol)/beforeVol > 1e-9 {
		t.Fatalf("multiplicity-weighted volume not conserved: before=%v after=%v", beforeVol, afterVol)
	}
}

func TestCoalescePairTwinCase(t *testing.T) {
	drop1 := makeDrop(1, 10, 2.0)
	drop2 := makeDrop(2, 10, 1.0) // eps1 == gamma*eps2 for gamma=1

	coalescePair(&drop1, &drop2, 1)

	if drop1.Radius != drop2.Radius {
		t.Fatalf("twin coalescence should leave both superdrops with equal radius")
	}
	if drop1.Eps+drop2.Eps != 10 {
		t.Fatalf("twin coalescence should conserve total multiplicity: got %d+%d", drop1.Eps, drop2.Eps)
	}
}

func TestGolovinKernelSymmetric(t *testing.T) {
	drop1 := makeDrop(1, 10, 1.0)
	drop2 := makeDrop(2, 10, 2.0)
	k := Golovin{}
	p12 := k.ProbJK(&drop1, &drop2, 1.0, 1.0)
	p21 := k.ProbJK(&drop2, &drop1, 1.0, 1.0)
	if math.Abs(p12-p21) > 1e-15 {
		t.Fatalf("golovin kernel should be symmetric: %v vs %v", p12, p21)
	}
}

func TestTerminalVelocityIncreasesWithRadius(t *testing.T) {
	small := TerminalVelocity(10e-6 / 1e-6)
	large := TerminalVelocity(1000e-6 / 1e-6)
	if large <= small {
		t.Fatalf("larger droplets should fall faster: small=%v large=%v", small, large)
	}
}

func TestLowListKernelSymmetric(t *testing.T) {
	drop1 := makeDrop(1, 10, 1.0)
	drop2 := makeDrop(2, 10, 2.0)
	k := LowList{}
	p12 := k.ProbJK(&drop1, &drop2, 1.0, 1.0)
	p21 := k.ProbJK(&drop2, &drop1, 1.0, 1.0)
	if math.Abs(p12-p21) > 1e-15 {
		t.Fatalf("lowlist kernel should be symmetric: %v vs %v", p12, p21)
	}
}

func TestLowListEfficiencyFallsWithCollisionEnergy(t *testing.T) {
	// two drops with a large terminal-velocity difference collide more
	// energetically than two drops with a small one; Low & List's
	// efficiency must fall as that collision energy rises.
	gentle := LowList{}.ProbJK(&superdrop.Superdrop{Radius: 100, Eps: 1}, &superdrop.Superdrop{Radius: 99, Eps: 1}, 1.0, 1.0)
	energetic := LowList{}.ProbJK(&superdrop.Superdrop{Radius: 1700, Eps: 1}, &superdrop.Superdrop{Radius: 5, Eps: 1}, 1.0, 1.0)

	longGentle := LongHydrodynamic{}.ProbJK(&superdrop.Superdrop{Radius: 100, Eps: 1}, &superdrop.Superdrop{Radius: 99, Eps: 1}, 1.0, 1.0)
	longEnergetic := LongHydrodynamic{}.ProbJK(&superdrop.Superdrop{Radius: 1700, Eps: 1}, &superdrop.Superdrop{Radius: 5, Eps: 1}, 1.0, 1.0)

	// lowlist's efficiency ratio relative to long's geometric-only kernel
	// must fall further from gentle to energetic collisions.
	gentleRatio := gentle / longGentle
	energeticRatio := energetic / longEnergetic
	if energeticRatio >= gentleRatio {
		t.Fatalf("lowlist efficiency should fall relative to long's geometric kernel as collision energy rises: gentle=%v energetic=%v", gentleRatio, energeticRatio)
	}
}

func TestSamplerRunConservesTotalMassWithoutBreakup(t *testing.T) {
	supers := []superdrop.Superdrop{
		makeDrop(1, 1000, 1.0),
		makeDrop(2, 500, 2.0),
		makeDrop(3, 2000, 0.5),
		makeDrop(4, 800, 1.5),
	}
	before := totalWaterMass(supers)

	s := &Sampler{Kernel: Golovin{}}
	r := rand.New(rand.NewSource(1))
	s.Run(supers, 1.0, 1.0, r)

	after := totalWaterMass(supers)
	if math.Abs(before-after)/before > 1e-6 {
		t.Fatalf("total water mass not conserved by coalescence: before=%v after=%v", before, after)
	}
}

func TestSamplerRunSkipsOddLeftover(t *testing.T) {
	supers := []superdrop.Superdrop{
		makeDrop(1, 1000, 1.0),
		makeDrop(2, 500, 2.0),
		makeDrop(3, 2000, 0.5),
	}
	s := &Sampler{Kernel: Golovin{}}
	r := rand.New(rand.NewSource(2))
	// must not panic or index out of range with odd-length span.
	s.Run(supers, 1.0, 1.0, r)
}
