package gridbox

import (
	"testing"

	"github.com/cloudmicro/sdm/internal/superdrop"
)

func makeSupers(gbxIndices ...uint32) []superdrop.Superdrop {
	out := make([]superdrop.Superdrop, len(gbxIndices))
	for i, g := range gbxIndices {
		out[i] = superdrop.Superdrop{ID: uint64(i), GbxIndex: g}
	}
	return out
}

func TestSetRefsFindsContiguousSpan(t *testing.T) {
	supers := makeSupers(0, 0, 1, 1, 1, 2)
	g := Gridbox{Index: 1}
	g.SetRefs(supers)
	if g.First != 2 || g.Last != 5 {
		t.Fatalf("span = [%d,%d), want [2,5)", g.First, g.Last)
	}
	if g.NSupers() != 3 {
		t.Fatalf("nsupers = %d, want 3", g.NSupers())
	}
}

func TestSetRefsEmptySpanForAbsentIndex(t *testing.T) {
	supers := makeSupers(0, 0, 2, 2)
	g := Gridbox{Index: 1}
	g.SetRefs(supers)
	if g.NSupers() != 0 {
		t.Fatalf("nsupers = %d, want 0 for absent gridbox index", g.NSupers())
	}
}

func TestIsCorrectAfterSetRefs(t *testing.T) {
	supers := makeSupers(0, 1, 1, 1, 2, 2)
	gbxs := []Gridbox{{Index: 0}, {Index: 1}, {Index: 2}}
	for i := range gbxs {
		gbxs[i].SetRefs(supers)
		if !gbxs[i].IsCorrect(supers) {
			t.Fatalf("gridbox %d span invariant violated after SetRefs", gbxs[i].Index)
		}
	}
}

func TestIsCorrectDetectsViolation(t *testing.T) {
	supers := makeSupers(0, 1, 1, 2)
	g := Gridbox{Index: 1, First: 0, Last: 1} // deliberately wrong span
	if g.IsCorrect(supers) {
		t.Fatalf("expected IsCorrect to detect the deliberately wrong span")
	}
}

func TestSortAndRebuildRestoresInvariantAfterReindex(t *testing.T) {
	supers := makeSupers(1, 0, 2, 1, 0)
	gbxs := []Gridbox{{Index: 0}, {Index: 1}, {Index: 2}}

	supers[0].GbxIndex = 2 // simulate motion moving a superdrop to a new gridbox

	SortAndRebuild(gbxs, supers)
	for i := range gbxs {
		if !gbxs[i].IsCorrect(supers) {
			t.Fatalf("gridbox %d span invariant violated after SortAndRebuild", gbxs[i].Index)
		}
	}
	for i := 1; i < len(supers); i++ {
		if supers[i-1].GbxIndex > supers[i].GbxIndex {
			t.Fatalf("supers not sorted by GbxIndex after SortAndRebuild")
		}
	}
}
