// Package domain owns the flat, sorted super-droplet array and the
// gridbox array addressing it, tying gridbox.SortAndRebuild into the
// single mutable container every driver tick operates on. It is
// grounded on gridboxes/gridbox.hpp's Gridbox array + CartesianMaps
// split: the domain holds the flat storage, individual steps
// (condensation/collision/motion) receive only the span or gridbox they
// need.
package domain

import (
	"github.com/cloudmicro/sdm/internal/gridbox"
	"github.com/cloudmicro/sdm/internal/superdrop"
)

// Domain is every gridbox and every super-droplet in the simulation,
// kept in the sorted-array-plus-span layout the driver requires, plus
// the immutable Maps table addressing each gridbox's bounds and
// neighbours. Gridboxes and Maps are both created once here at
// initialisation and held for the simulation's lifetime.
type Domain struct {
	Gridboxes []gridbox.Gridbox
	Supers    []superdrop.Superdrop
	Maps      *gridbox.Maps
}

// New builds a Domain from the given gridboxes, initial super-droplet
// population and gridbox map, sorting and rebuilding spans immediately so
// the invariant holds from tick zero. maps may be nil for configurations
// that never run the motion phase.
func New(gbxs []gridbox.Gridbox, supers []superdrop.Superdrop, maps *gridbox.Maps) *Domain {
	d := &Domain{Gridboxes: gbxs, Supers: supers, Maps: maps}
	d.Rebuild()
	return d
}

// Rebuild restores the sorted-array span invariant. Callers must invoke
// this after any step (collision, motion) that may have reassigned a
// super-droplet's GbxIndex.
func (d *Domain) Rebuild() {
	gridbox.SortAndRebuild(d.Gridboxes, d.Supers)
}

// ByIndex returns a pointer to the gridbox with the given index, or nil
// if absent. Gridbox indices are assumed dense and this is called rarely
// (boundary handling, diagnostics), so a linear scan is acceptable; the
// hot per-tick path indexes Gridboxes directly by position.
func (d *Domain) ByIndex(index uint32) *gridbox.Gridbox {
	for i := range d.Gridboxes {
		if d.Gridboxes[i].Index == index {
			return &d.Gridboxes[i]
		}
	}
	return nil
}

// Span returns the slice of Supers currently assigned to gbx.
func (d *Domain) Span(gbx *gridbox.Gridbox) []superdrop.Superdrop {
	return d.Supers[gbx.First:gbx.Last]
}

// TotalSupers returns the number of super-droplets currently tracked,
// including any sorted into the trailing out-of-domain segment (retained
// for reporting, not compacted out).
func (d *Domain) TotalSupers() int {
	return len(d.Supers)
}
