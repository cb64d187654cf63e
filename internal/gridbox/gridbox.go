// Package gridbox holds the per-gridbox thermodynamic state and the
// sorted-array span bookkeeping the driver uses to address each
// gridbox's super-droplets without per-gridbox slices. It is grounded on
// CLEO's gridboxes/gridbox.hpp (Gridbox/SupersInGbx) and
// superdrops/state.hpp (State), trading Kokkos subviews for a
// [first,last) index pair into a flat, externally-owned slice.
package gridbox

import (
	"sort"

	"github.com/cloudmicro/sdm/internal/superdrop"
)

// State carries the thermodynamic variables defined over one gridbox's
// volume: pressure, temperature, vapour/condensate mixing ratios at the
// volume centre, and the wind components on the volume's faces.
type State struct {
	Volume float64 // gridbox volume, fixed for the gridbox's lifetime

	Press float64
	Temp  float64
	Qvap  float64
	Qcond float64

	// WVel/UVel/VVel hold the {lower, upper} face-normal wind component
	// for each axis; the *VelCentre methods evaluate the volume-centred
	// value by averaging the pair.
	WVel [2]float64
	UVel [2]float64
	VVel [2]float64
}

func (s *State) WVelCentre() float64 { return (s.WVel[0] + s.WVel[1]) / 2 }
func (s *State) UVelCentre() float64 { return (s.UVel[0] + s.UVel[1]) / 2 }
func (s *State) VVelCentre() float64 { return (s.VVel[0] + s.VVel[1]) / 2 }

// Gridbox is one control volume: its index, thermodynamic State, and the
// [First,Last) span of a sorted super-droplet slice that currently
// belongs to it.
type Gridbox struct {
	Index uint32
	State State
	First int // inclusive start of this gridbox's span in the domain's sorted superdrop slice
	Last  int // exclusive end of the span
}

// NSupers returns the number of super-droplets currently in this
// gridbox's span.
func (g *Gridbox) NSupers() int { return g.Last - g.First }

// SetRefs recomputes First/Last for g against supers, which callers must
// have already stably sorted by GbxIndex. It locates the span via binary
// search (sort.Search), mirroring CLEO's partition_point-based
// Ref0/Ref1 predicates rather than a linear scan.
func (g *Gridbox) SetRefs(supers []superdrop.Superdrop) {
	first := sort.Search(len(supers), func(i int) bool {
		return supers[i].GbxIndex >= g.Index
	})
	last := sort.Search(len(supers), func(i int) bool {
		return supers[i].GbxIndex > g.Index
	})
	g.First, g.Last = first, last
}

// IsCorrect checks the three-part span invariant the engine requires
// after every SetRefs rebuild: every superdrop inside [First,Last) must
// match this gridbox's index, and none outside it may. Assumes supers is
// sorted by GbxIndex.
func (g *Gridbox) IsCorrect(supers []superdrop.Superdrop) bool {
	for i := g.First; i < g.Last; i++ {
		if supers[i].GbxIndex != g.Index {
			return false
		}
	}
	for i := 0; i < g.First; i++ {
		if supers[i].GbxIndex == g.Index {
			return false
		}
	}
	for i := g.Last; i < len(supers); i++ {
		if supers[i].GbxIndex == g.Index {
			return false
		}
	}
	return true
}

// SortAndRebuild stably sorts supers by GbxIndex, breaking ties by ID,
// and rebuilds every gridbox's span against the freshly sorted slice.
// This is the one place the per-tick span invariant is restored after
// motion or collision processing may have reassigned super-droplets to
// different gridboxes.
func SortAndRebuild(gbxs []Gridbox, supers []superdrop.Superdrop) {
	sort.SliceStable(supers, func(i, j int) bool {
		if supers[i].GbxIndex != supers[j].GbxIndex {
			return supers[i].GbxIndex < supers[j].GbxIndex
		}
		return supers[i].ID < supers[j].ID
	})
	for i := range gbxs {
		gbxs[i].SetRefs(supers)
	}
}
