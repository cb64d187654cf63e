package gridbox

import (
	"github.com/cloudmicro/sdm/internal/superdrop"
)

// NoNeighbour is the sentinel neighbour index denoting a domain-boundary
// face: the same value superdrop.OutsideDomain uses for a particle that
// has left the domain, since both mean "there is nothing real on the
// other side of this face."
const NoNeighbour = superdrop.OutsideDomain

// AxisBounds is the [lower,upper) physical extent of one gridbox along
// one coordinate axis.
type AxisBounds struct {
	Lower, Upper float64
}

// Contains reports whether coord falls within b.
func (b AxisBounds) Contains(coord float64) bool {
	return coord >= b.Lower && coord < b.Upper
}

// Map is one gridbox's entry in the immutable bounds-and-neighbour table,
// grounded on gridboxes/gridbox.hpp's CartesianMaps: physical bounds on
// each of the three coordinate axes, volume, and the forward/backward
// neighbour gridbox index in each direction. A neighbour equal to
// NoNeighbour marks a domain-boundary face.
type Map struct {
	Index                        uint32
	Bounds3, Bounds1, Bounds2    AxisBounds
	Volume                       float64
	NeighbourDown3, NeighbourUp3 uint32
	NeighbourDown1, NeighbourUp1 uint32
	NeighbourDown2, NeighbourUp2 uint32

	grid3, grid1, grid2 int // this entry's position along each axis, used only to resolve periodic wraparound
}

// Maps is the immutable gridbox-index -> Map lookup table built once at
// initialisation from a dense Cartesian layout and never mutated
// afterwards, per the "gridboxes and maps are created once at
// initialisation, destroyed at shutdown" lifecycle.
type Maps struct {
	entries                   map[uint32]Map
	n3, n1, n2                int
	extent3, extent1, extent2 float64
}

// NewCartesianMaps builds the bounds-and-neighbour table for a dense
// n3 x n1 x n2 grid of uniform gridboxes, indexed row-major with axis 3
// slowest-varying (gridbox 0 is the (0,0,0) corner). Any axis count <= 0
// is treated as 1, collapsing that dimension, so a 1-D column is just
// NewCartesianMaps(n, 1, 1, ...).
func NewCartesianMaps(n3, n1, n2 int, step3, step1, step2 float64) *Maps {
	if n3 <= 0 {
		n3 = 1
	}
	if n1 <= 0 {
		n1 = 1
	}
	if n2 <= 0 {
		n2 = 1
	}

	m := &Maps{
		entries: make(map[uint32]Map, n3*n1*n2),
		n3:      n3, n1: n1, n2: n2,
		extent3: step3 * float64(n3), extent1: step1 * float64(n1), extent2: step2 * float64(n2),
	}

	idx := func(i3, i1, i2 int) uint32 { return uint32(i3*n1*n2 + i1*n2 + i2) }

	for i3 := 0; i3 < n3; i3++ {
		for i1 := 0; i1 < n1; i1++ {
			for i2 := 0; i2 < n2; i2++ {
				e := Map{
					Index:   idx(i3, i1, i2),
					Bounds3: AxisBounds{float64(i3) * step3, float64(i3+1) * step3},
					Bounds1: AxisBounds{float64(i1) * step1, float64(i1+1) * step1},
					Bounds2: AxisBounds{float64(i2) * step2, float64(i2+1) * step2},
					Volume:  step3 * step1 * step2,
					grid3:   i3, grid1: i1, grid2: i2,
				}

				e.NeighbourDown3 = NoNeighbour
				if i3 > 0 {
					e.NeighbourDown3 = idx(i3-1, i1, i2)
				}
				e.NeighbourUp3 = NoNeighbour
				if i3 < n3-1 {
					e.NeighbourUp3 = idx(i3+1, i1, i2)
				}
				e.NeighbourDown1 = NoNeighbour
				if i1 > 0 {
					e.NeighbourDown1 = idx(i3, i1-1, i2)
				}
				e.NeighbourUp1 = NoNeighbour
				if i1 < n1-1 {
					e.NeighbourUp1 = idx(i3, i1+1, i2)
				}
				e.NeighbourDown2 = NoNeighbour
				if i2 > 0 {
					e.NeighbourDown2 = idx(i3, i1, i2-1)
				}
				e.NeighbourUp2 = NoNeighbour
				if i2 < n2-1 {
					e.NeighbourUp2 = idx(i3, i1, i2+1)
				}

				m.entries[e.Index] = e
			}
		}
	}
	return m
}

// Get returns the Map entry for index, and whether it exists.
func (m *Maps) Get(index uint32) (Map, bool) {
	e, ok := m.entries[index]
	return e, ok
}

// Len returns the number of gridboxes in the table.
func (m *Maps) Len() int { return len(m.entries) }

func (m *Maps) indexAt(i3, i1, i2 int) uint32 { return uint32(i3*m.n1*m.n2 + i1*m.n2 + i2) }

// OppositeDown3/OppositeUp3 return the gridbox index at the far edge of
// axis 3 for e, used to resolve a periodic wraparound when e sits on a
// domain-boundary face along that axis. Symmetric helpers exist for axes
// 1 and 2. Only meaningful when the corresponding Neighbour is
// NoNeighbour.
func (m *Maps) OppositeDown3(e Map) uint32 { return m.indexAt(m.n3-1, e.grid1, e.grid2) }
func (m *Maps) OppositeUp3(e Map) uint32   { return m.indexAt(0, e.grid1, e.grid2) }
func (m *Maps) OppositeDown1(e Map) uint32 { return m.indexAt(e.grid3, m.n1-1, e.grid2) }
func (m *Maps) OppositeUp1(e Map) uint32   { return m.indexAt(e.grid3, 0, e.grid2) }
func (m *Maps) OppositeDown2(e Map) uint32 { return m.indexAt(e.grid3, e.grid1, m.n2-1) }
func (m *Maps) OppositeUp2(e Map) uint32   { return m.indexAt(e.grid3, e.grid1, 0) }

// Extent3/Extent1/Extent2 return the domain's total physical extent along
// each axis (n_k * stepsize_k), the distance a periodic wrap shifts a
// coordinate by.
func (m *Maps) Extent3() float64 { return m.extent3 }
func (m *Maps) Extent1() float64 { return m.extent1 }
func (m *Maps) Extent2() float64 { return m.extent2 }
