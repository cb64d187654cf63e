package gridbox

import (
	"testing"
)

func TestNewCartesianMapsBoundsAndVolume(t *testing.T) {
	m := NewCartesianMaps(2, 2, 2, 100, 100, 100)
	if m.Len() != 8 {
		t.Fatalf("len = %d, want 8", m.Len())
	}

	centre, ok := m.Get(0)
	if !ok {
		t.Fatalf("gridbox 0 missing from table")
	}
	if !centre.Bounds3.Contains(50) || !centre.Bounds1.Contains(50) || !centre.Bounds2.Contains(50) {
		t.Fatalf("gridbox 0 bounds do not contain its own interior point")
	}
	if centre.Volume != 100*100*100 {
		t.Fatalf("volume = %v, want %v", centre.Volume, 100*100*100.0)
	}
}

func TestNewCartesianMapsDomainEdgesAreSentinel(t *testing.T) {
	m := NewCartesianMaps(2, 2, 2, 100, 100, 100)
	gbx0, _ := m.Get(0)
	if gbx0.NeighbourDown3 != NoNeighbour {
		t.Fatalf("gridbox at the low edge of axis 3 must have NeighbourDown3 = NoNeighbour")
	}
	if gbx0.NeighbourDown1 != NoNeighbour {
		t.Fatalf("gridbox at the low edge of axis 1 must have NeighbourDown1 = NoNeighbour")
	}
	if gbx0.NeighbourDown2 != NoNeighbour {
		t.Fatalf("gridbox at the low edge of axis 2 must have NeighbourDown2 = NoNeighbour")
	}
	if gbx0.NeighbourUp3 == NoNeighbour {
		t.Fatalf("gridbox 0 of a 2x2x2 grid must have a real neighbour up axis 3")
	}
}

func TestNewCartesianMapsNeighboursAreMutuallyConsistent(t *testing.T) {
	m := NewCartesianMaps(3, 2, 2, 10, 10, 10)
	for i := uint32(0); i < uint32(m.Len()); i++ {
		e, ok := m.Get(i)
		if !ok {
			t.Fatalf("gridbox %d missing from table", i)
		}
		if up := e.NeighbourUp3; up != NoNeighbour {
			n, ok := m.Get(up)
			if !ok || n.NeighbourDown3 != e.Index {
				t.Fatalf("gridbox %d's NeighbourUp3 %d does not point back via NeighbourDown3", e.Index, up)
			}
		}
		if up := e.NeighbourUp1; up != NoNeighbour {
			n, ok := m.Get(up)
			if !ok || n.NeighbourDown1 != e.Index {
				t.Fatalf("gridbox %d's NeighbourUp1 %d does not point back via NeighbourDown1", e.Index, up)
			}
		}
	}
}

func TestNewCartesianMapsOppositeEdgeResolution(t *testing.T) {
	m := NewCartesianMaps(3, 1, 1, 10, 10, 10)
	low, _ := m.Get(0)
	high, _ := m.Get(2)

	if got := m.OppositeDown3(low); got != high.Index {
		t.Fatalf("opposite of the low edge along axis 3 = %d, want %d", got, high.Index)
	}
	if got := m.OppositeUp3(high); got != low.Index {
		t.Fatalf("opposite of the high edge along axis 3 = %d, want %d", got, low.Index)
	}
	if m.Extent3() != 30 {
		t.Fatalf("extent3 = %v, want 30", m.Extent3())
	}
}

func TestNewCartesianMapsCollapsesNonPositiveAxisCounts(t *testing.T) {
	m := NewCartesianMaps(5, 0, -3, 10, 10, 10)
	if m.Len() != 5 {
		t.Fatalf("len = %d, want 5 when axes 1 and 2 collapse to size 1", m.Len())
	}
}
