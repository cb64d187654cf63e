// Package superdrop defines the per-particle state the rest of the engine
// operates on: a single super-droplet's position, radius, dry aerosol
// mass, and multiplicity, plus the Köhler-equation helpers that depend
// only on that state. The type mirrors CLEO's Superdrop struct field for
// field, trading its Kokkos-view storage for plain Go slices owned by the
// domain package.
package superdrop

import (
	"math"

	"github.com/cloudmicro/sdm/internal/consts"
	"github.com/cloudmicro/sdm/internal/solute"
)

// OutsideDomain is the GbxIndex sentinel for a super-droplet that has left
// the modelled volume. Such a particle is inert (no microphysics or
// motion applied) and is sorted to a trailing segment of the global array
// that no gridbox span covers, rather than being deleted outright — it is
// retained only for reporting.
const OutsideDomain uint32 = math.MaxUint32

// Superdrop is one computational particle representing Eps identical real
// droplets. All length/mass/coordinate fields are dimensionless.
type Superdrop struct {
	ID       uint64  // stable identifier, assigned at creation and never reused
	GbxIndex uint32  // gridbox this super-droplet currently belongs to
	Eps      uint64  // multiplicity: number of real droplets this superdrop represents
	Radius   float64 // droplet radius (solution + water)
	MSol     float64 // dry solute mass
	Coord3   float64 // vertical coordinate
	Coord1   float64 // first horizontal coordinate
	Coord2   float64 // second horizontal coordinate
	Solute   solute.Properties
}

// DryRadius returns the radius the droplet would have if all its water
// evaporated, leaving only the solute core.
func (s *Superdrop) DryRadius() float64 {
	return math.Cbrt(3.0 * s.MSol / (4.0 * math.Pi * s.Solute.Rho))
}

// Mass returns the superdrop's total droplet mass (water plus dissolved
// solute), per CLEO's superdrop.cpp mass(): a sphere of liquid water
// density displaced by the solute's own volume.
func (s *Superdrop) Mass() float64 {
	volume := (4.0 / 3.0) * math.Pi * consts.RhoL * math.Pow(s.Radius, 3.0)
	return volume + s.MSol*(1.0-consts.RhoL/s.Solute.Rho)
}

// AKohler returns the Köhler "a" (curvature) coefficient at dimensionless
// temperature temp.
func (s *Superdrop) AKohler(temp float64) float64 {
	const surfaceTensionTerm = 3.3e-7 / (consts.Temp0 * consts.R0)
	return surfaceTensionTerm / temp
}

// BKohler returns the Köhler "b" (solute) coefficient. It depends only on
// the droplet's solute mass and species, not on ambient state.
func (s *Superdrop) BKohler() float64 {
	soluteTerm := 4.3e-6 * consts.Rho0 / consts.Mr0
	return soluteTerm * s.MSol * s.Solute.Ionic / s.Solute.MolarMass
}

// ChangeRadius sets the droplet's radius to newRadius, clamped below by
// DryRadius so a droplet cannot evaporate smaller than its solute core,
// and returns the actual change applied.
func (s *Superdrop) ChangeRadius(newRadius float64) float64 {
	old := s.Radius
	dry := s.DryRadius()
	if newRadius < dry {
		newRadius = dry
	}
	s.Radius = newRadius
	return newRadius - old
}

// Volume returns the droplet's liquid volume (excluding solute volume
// correction), used by the Golovin collision kernel.
func (s *Superdrop) Volume() float64 {
	return (4.0 / 3.0) * math.Pi * math.Pow(s.Radius, 3.0)
}
