package domain

import (
	"testing"

	"github.com/cloudmicro/sdm/internal/gridbox"
	"github.com/cloudmicro/sdm/internal/superdrop"
)

func TestNewRebuildsSpansImmediately(t *testing.T) {
	gbxs := []gridbox.Gridbox{{Index: 0}, {Index: 1}}
	supers := []superdrop.Superdrop{
		{ID: 1, GbxIndex: 1},
		{ID: 2, GbxIndex: 0},
		{ID: 3, GbxIndex: 0},
	}
	d := New(gbxs, supers, nil)

	if !d.Gridboxes[0].IsCorrect(d.Supers) || !d.Gridboxes[1].IsCorrect(d.Supers) {
		t.Fatalf("span invariant must hold immediately after New")
	}
	if d.Gridboxes[0].NSupers() != 2 || d.Gridboxes[1].NSupers() != 1 {
		t.Fatalf("unexpected span sizes: gbx0=%d gbx1=%d", d.Gridboxes[0].NSupers(), d.Gridboxes[1].NSupers())
	}
}

func TestByIndexFindsGridboxOrNil(t *testing.T) {
	d := New([]gridbox.Gridbox{{Index: 5}, {Index: 9}}, nil, nil)
	if g := d.ByIndex(9); g == nil || g.Index != 9 {
		t.Fatalf("ByIndex(9) did not find the gridbox")
	}
	if g := d.ByIndex(3); g != nil {
		t.Fatalf("ByIndex(3) should return nil for an absent index")
	}
}

func TestOutOfDomainSupersAreRetainedNotCompacted(t *testing.T) {
	gbxs := []gridbox.Gridbox{{Index: 0}}
	supers := []superdrop.Superdrop{
		{ID: 1, GbxIndex: 0},
		{ID: 2, GbxIndex: superdrop.OutsideDomain},
	}
	d := New(gbxs, supers, nil)

	if d.TotalSupers() != 2 {
		t.Fatalf("TotalSupers() = %d, want 2 (out-of-domain particle retained)", d.TotalSupers())
	}
	if d.Gridboxes[0].NSupers() != 1 {
		t.Fatalf("gridbox 0 span must exclude the out-of-domain particle")
	}
}

func TestSpanReturnsGridboxSlice(t *testing.T) {
	gbxs := []gridbox.Gridbox{{Index: 0}, {Index: 1}}
	supers := []superdrop.Superdrop{{ID: 1, GbxIndex: 0}, {ID: 2, GbxIndex: 1}}
	d := New(gbxs, supers, nil)

	span := d.Span(&d.Gridboxes[1])
	if len(span) != 1 || span[0].ID != 2 {
		t.Fatalf("Span(gbx1) = %+v, want the single superdrop with ID 2", span)
	}
}
