// Package motion advances super-droplet coordinates by a
// predictor-corrector integration of terminal fall speed plus
// linearly-interpolated ambient wind, enforcing the CFL criterion before
// any step is accepted. It is grounded on superdrops/predcorrmotion.hpp/
// .cpp for the predictor-corrector shape and gridboxes/cfl_criteria.hpp
// for the per-axis displacement check.
package motion

import (
	"math"

	"github.com/cloudmicro/sdm/internal/collision"
	"github.com/cloudmicro/sdm/internal/gridbox"
	"github.com/cloudmicro/sdm/internal/sdmerrors"
	"github.com/cloudmicro/sdm/internal/superdrop"
)

// Integrator runs the predictor-corrector motion update for every
// super-droplet in a gridbox over sub-timestep delt. GridStep3/1/2 are
// the gridbox's extent along each axis, used for the CFL check.
type Integrator struct {
	GridStep3, GridStep1, GridStep2 float64
}

// CFLCriterion reports whether a displacement along one axis stays within
// one gridstep, per cfl_criteria.hpp's cfl_criterion.
func CFLCriterion(gridstep, sdstep float64) bool {
	return math.Abs(sdstep) <= math.Abs(gridstep)
}

// lerpFace linearly interpolates a face-defined velocity pair across a
// gridbox, given the fractional position frac in [0,1] from the lower to
// the upper face.
func lerpFace(face [2]float64, frac float64) float64 {
	return face[0] + frac*(face[1]-face[0])
}

// Step moves sd by one predictor-corrector sub-step: a full-delt
// predictor step using the wind interpolated at the droplet's current
// position, then a corrector step re-interpolating the wind at the
// predicted position, following Grabowski et al. 2018's scheme as
// summarised in predcorrmotion.hpp. bounds is sd's current gridbox's
// physical bounds, needed because sd's coordinates are global rather
// than gridbox-local. It returns sdmerrors.ErrMotion if the resulting
// displacement violates the CFL criterion on any axis.
func (m *Integrator) Step(sd *superdrop.Superdrop, state *gridbox.State, bounds gridbox.Map, delt float64, tick int64) error {
	vterm := collision.TerminalVelocity(sd.Radius)

	frac3 := clampFrac((sd.Coord3 - bounds.Bounds3.Lower) / m.GridStep3)
	w0 := lerpFace(state.WVel, frac3) - vterm
	u0 := lerpFace(state.UVel, clampFrac((sd.Coord1-bounds.Bounds1.Lower)/m.GridStep1))
	v0 := lerpFace(state.VVel, clampFrac((sd.Coord2-bounds.Bounds2.Lower)/m.GridStep2))

	predCoord3 := sd.Coord3 + delt*w0
	predCoord1 := sd.Coord1 + delt*u0
	predCoord2 := sd.Coord2 + delt*v0

	w1 := lerpFace(state.WVel, clampFrac((predCoord3-bounds.Bounds3.Lower)/m.GridStep3)) - vterm
	u1 := lerpFace(state.UVel, clampFrac((predCoord1-bounds.Bounds1.Lower)/m.GridStep1))
	v1 := lerpFace(state.VVel, clampFrac((predCoord2-bounds.Bounds2.Lower)/m.GridStep2))

	delta3 := delt * 0.5 * (w0 + w1)
	delta1 := delt * 0.5 * (u0 + u1)
	delta2 := delt * 0.5 * (v0 + v1)

	if !CFLCriterion(m.GridStep3, delta3) || !CFLCriterion(m.GridStep1, delta1) || !CFLCriterion(m.GridStep2, delta2) {
		return sdmerrors.Motion(tick, sd.GbxIndex, sd.ID,
			"CFL violated: displacement (%.3e,%.3e,%.3e) exceeds gridstep (%.3e,%.3e,%.3e)",
			delta3, delta1, delta2, m.GridStep3, m.GridStep1, m.GridStep2)
	}

	sd.Coord3 += delta3
	sd.Coord1 += delta1
	sd.Coord2 += delta2
	return nil
}

func clampFrac(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
