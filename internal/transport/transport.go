// Package transport reassigns super-droplets to their new gridbox after
// a motion step and applies the configured domain boundary policy to
// particles that cross the domain's outer edge. It is grounded on
// cartesiandomain/boundaryconditions.hpp, which hard-codes CLEO's
// z-finite/x-periodic/y-periodic scheme, and on gridboxes/gridbox.hpp's
// CartesianMaps neighbour lookup that drives it: each axis is checked in
// turn against the particle's current gridbox bounds, and only a face
// that is an actual domain boundary (the map's neighbour sentinel) is
// handed to the configured boundary policy.
package transport

import (
	"github.com/cloudmicro/sdm/internal/gridbox"
	"github.com/cloudmicro/sdm/internal/sdmerrors"
	"github.com/cloudmicro/sdm/internal/superdrop"
)

// Policy is the boundary behaviour applied to one axis when a
// super-droplet crosses a domain-edge face on that axis.
type Policy int

const (
	// Periodic wraps the coordinate into the gridbox at the opposite edge
	// of the domain, per boundaryconditions.hpp's coordbeyond_periodicdomain.
	Periodic Policy = iota
	// Reflective mirrors the coordinate about the face it crossed and
	// keeps the particle in the same gridbox, negating its outward motion.
	Reflective
	// Outflow marks the particle as superdrop.OutsideDomain once it leaves
	// through this face, under a "retain indefinitely" policy: the
	// particle stays in the global array, inert and unreferenced by any
	// gridbox span, rather than being deleted outright.
	Outflow
)

// Bounds carries the boundary policy for each of the three coordinate
// axes. Per-axis physical extents no longer live here: they are read from
// the gridbox.Maps table itself.
type Bounds struct {
	Coord3, Coord1, Coord2 Policy
}

// Advance resolves sd's gbx_index against m after a motion step, checking
// axis 3, then 1, then 2 in turn per the gridbox-index update algorithm:
// a coordinate still within its current gridbox's bounds on that axis is
// left alone; one that has crossed into a real neighbour hops to it; one
// that has crossed a domain-boundary face has the configured Policy
// applied. After all three axes are resolved, the final gridbox's bounds
// must actually contain sd's coordinates (or sd must have been marked
// outside domain); otherwise this is a CFL violation and a *sdmerrors
// error is returned. Callers must call domain.Rebuild afterwards to
// restore the sorted-array span invariant.
func Advance(sd *superdrop.Superdrop, m *gridbox.Maps, bounds Bounds, tick int64) error {
	if sd.GbxIndex == superdrop.OutsideDomain {
		return nil
	}

	cur, ok := m.Get(sd.GbxIndex)
	if !ok {
		return sdmerrors.Invariant(tick, "super-droplet %d references unknown gridbox %d", sd.ID, sd.GbxIndex)
	}

	cur = advanceAxis3(sd, m, cur, bounds.Coord3)
	if sd.GbxIndex == superdrop.OutsideDomain {
		return nil
	}
	cur = advanceAxis1(sd, m, cur, bounds.Coord1)
	if sd.GbxIndex == superdrop.OutsideDomain {
		return nil
	}
	cur = advanceAxis2(sd, m, cur, bounds.Coord2)
	if sd.GbxIndex == superdrop.OutsideDomain {
		return nil
	}

	if !cur.Bounds3.Contains(sd.Coord3) || !cur.Bounds1.Contains(sd.Coord1) || !cur.Bounds2.Contains(sd.Coord2) {
		return sdmerrors.Motion(tick, cur.Index, sd.ID,
			"coordinates (%.6g,%.6g,%.6g) outside resolved gridbox bounds after motion, likely a CFL violation",
			sd.Coord3, sd.Coord1, sd.Coord2)
	}
	return nil
}

func advanceAxis3(sd *superdrop.Superdrop, m *gridbox.Maps, cur gridbox.Map, policy Policy) gridbox.Map {
	if cur.Bounds3.Contains(sd.Coord3) {
		return cur
	}
	if sd.Coord3 < cur.Bounds3.Lower {
		return crossFace(sd, m, policy, cur.NeighbourDown3, m.OppositeDown3(cur), m.Extent3(), cur.Bounds3.Lower, &sd.Coord3, +1)
	}
	return crossFace(sd, m, policy, cur.NeighbourUp3, m.OppositeUp3(cur), m.Extent3(), cur.Bounds3.Upper, &sd.Coord3, -1)
}

func advanceAxis1(sd *superdrop.Superdrop, m *gridbox.Maps, cur gridbox.Map, policy Policy) gridbox.Map {
	if cur.Bounds1.Contains(sd.Coord1) {
		return cur
	}
	if sd.Coord1 < cur.Bounds1.Lower {
		return crossFace(sd, m, policy, cur.NeighbourDown1, m.OppositeDown1(cur), m.Extent1(), cur.Bounds1.Lower, &sd.Coord1, +1)
	}
	return crossFace(sd, m, policy, cur.NeighbourUp1, m.OppositeUp1(cur), m.Extent1(), cur.Bounds1.Upper, &sd.Coord1, -1)
}

func advanceAxis2(sd *superdrop.Superdrop, m *gridbox.Maps, cur gridbox.Map, policy Policy) gridbox.Map {
	if cur.Bounds2.Contains(sd.Coord2) {
		return cur
	}
	if sd.Coord2 < cur.Bounds2.Lower {
		return crossFace(sd, m, policy, cur.NeighbourDown2, m.OppositeDown2(cur), m.Extent2(), cur.Bounds2.Lower, &sd.Coord2, +1)
	}
	return crossFace(sd, m, policy, cur.NeighbourUp2, m.OppositeUp2(cur), m.Extent2(), cur.Bounds2.Upper, &sd.Coord2, -1)
}

// crossFace resolves a single face crossing: if neighbour is a real
// gridbox, sd simply hops to it with its coordinate untouched. If
// neighbour is the domain-boundary sentinel, the configured policy
// decides what happens: periodic wraps the coordinate by extent*wrapSign
// and hops to the opposite-edge gridbox; reflective mirrors the
// coordinate about face (the bound it crossed) and stays in cur; outflow
// marks sd departed.
func crossFace(sd *superdrop.Superdrop, m *gridbox.Maps, policy Policy, neighbour, opposite uint32, extent, face float64, coord *float64, wrapSign float64) gridbox.Map {
	cur, _ := m.Get(sd.GbxIndex)

	if neighbour != gridbox.NoNeighbour {
		sd.GbxIndex = neighbour
		next, _ := m.Get(neighbour)
		return next
	}

	switch policy {
	case Periodic:
		*coord += wrapSign * extent
		sd.GbxIndex = opposite
		next, _ := m.Get(opposite)
		return next
	case Reflective:
		*coord = 2*face - *coord
		return cur
	case Outflow:
		sd.GbxIndex = superdrop.OutsideDomain
		return cur
	default:
		return cur
	}
}
