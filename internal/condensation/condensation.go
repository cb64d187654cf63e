// Package condensation implements droplet growth and evaporation by vapour
// diffusion: an implicit-Euler Newton-Raphson solve of the Köhler growth
// ODE per super-droplet, and the resulting gridbox-level vapour/heat
// feedback. It is grounded on impliciteuler.hpp/.cpp and
// condensationmethod.cpp, trading CLEO's exception-on-non-convergence for
// an explicit sdmerrors.Convergence return and its fixed maxiters for a
// halving step-size fallback, the way an adaptive-step integrator falls
// back to a smaller step rather than erroring outright.
package condensation

import (
	"errors"
	"math"

	"github.com/cloudmicro/sdm/internal/consts"
	"github.com/cloudmicro/sdm/internal/gridbox"
	"github.com/cloudmicro/sdm/internal/sdmerrors"
	"github.com/cloudmicro/sdm/internal/superdrop"
)

// Solver holds the Newton-Raphson tolerances and preallocated scratch the
// condensation step reuses across every super-droplet and sub-step, the
// same allocate-once-reuse-every-step discipline a tight numerical
// integrator follows.
type Solver struct {
	MaxIters   int
	RTol       float64
	ATol       float64
	MinSubDelt float64 // smallest sub-timestep the halving fallback is allowed to reach
}

// NewSolver returns a Solver with the tolerances CLEO's example
// configurations use.
func NewSolver() *Solver {
	return &Solver{
		MaxIters:   50,
		RTol:       1e-6,
		ATol:       1e-6,
		MinSubDelt: 1e-4,
	}
}

// koeff bundles the Köhler/diffusion coefficients an implicit-Euler solve
// needs; computed once per super-droplet per tick since they depend on
// gridbox state but not on the iterate.
type koeff struct {
	sRatio  float64
	akoh    float64
	bkoh    float64
	ffactor float64
}

// initialGuess returns ziter = radius^2 at iteration zero: the larger of
// the previous radius squared and the equilibrium radius squared at
// S=1, per impliciteuler.cpp's initial_guess.
func initialGuess(rprev float64, k koeff) float64 {
	r1sqrd := k.bkoh / k.akoh
	rprevSqrd := rprev * rprev
	if rprevSqrd > r1sqrd {
		return rprevSqrd
	}
	return r1sqrd
}

func odeGFunc(rsqrd, radius, rprev float64, k koeff, delt float64) float64 {
	alpha := k.sRatio - 1 - k.akoh/radius + k.bkoh/(radius*radius*radius)
	beta := 2.0 * delt / (rsqrd * k.ffactor)
	gamma := (rprev / radius) * (rprev / radius)
	return 1 - gamma - alpha*beta
}

func odeGFuncDeriv(rsqrd, radius float64, k koeff, delt float64) float64 {
	alpha := k.akoh/radius - 3.0*k.bkoh/(radius*radius*radius)
	beta := delt / (rsqrd * k.ffactor)
	return 1 - alpha*beta
}

func notConverged(gIter, gPrev, rtol, atol float64) bool {
	threshold := rtol*math.Abs(gIter) + atol
	return math.Abs(gIter-gPrev) >= threshold
}

// solveRadius runs the Newton-Raphson implicit-Euler iteration to find the
// new radius for a single super-droplet over sub-timestep delt. It
// returns errNonConvergent if the iteration does not settle within
// MaxIters; StepSuperdrop turns that into an sdmerrors.ErrConvergence.
func (s *Solver) solveRadius(rprev float64, k koeff, delt float64) (float64, error) {
	ziter := initialGuess(rprev, k)

	radius := math.Sqrt(ziter)
	numerator := odeGFunc(ziter, radius, rprev, k, delt)

	for iter := 1; iter <= s.MaxIters; iter++ {
		radius = math.Sqrt(ziter)
		denominator := odeGFuncDeriv(ziter, radius, k, delt)
		ziter = ziter * (1 - numerator/denominator)

		radius = math.Sqrt(ziter)
		newNumerator := odeGFunc(ziter, radius, rprev, k, delt)

		if !notConverged(newNumerator, numerator, s.RTol, s.ATol) {
			return math.Sqrt(ziter), nil
		}
		numerator = newNumerator
	}

	return 0, errNonConvergent
}

var errNonConvergent = errors.New("newton-raphson exceeded max iterations")

// StepSuperdrop grows or shrinks one super-droplet over timestep delt by
// condensation/evaporation, applying the halving sub-step fallback of
// when the Newton-Raphson solve fails to converge at the
// full step. tick/gbx feed into the returned error's context only.
func (s *Solver) StepSuperdrop(sd *superdrop.Superdrop, state *gridbox.State, delt float64, tick int64) (massCondensed float64, err error) {
	psat := consts.SaturationPressure(state.Temp)
	sRatio := consts.SupersaturationRatio(state.Press, state.Qvap, psat)
	fk, fd := consts.DiffusionFactors(state.Press, state.Temp, psat)

	k := koeff{
		sRatio:  sRatio,
		akoh:    sd.AKohler(state.Temp),
		bkoh:    sd.BKohler(),
		ffactor: consts.RhoL * (fk + fd),
	}

	newRadius, serr := s.solveWithHalving(sd.Radius, k, delt)
	if serr != nil {
		return 0, &sdmerrors.StepError{
			Kind: sdmerrors.ErrConvergence, Tick: tick,
			GbxIndex: sd.GbxIndex, HasGbx: true,
			SuperID: sd.ID, HasSuper: true,
			Message: serr.Error(),
		}
	}

	deltaRadius := sd.ChangeRadius(newRadius)

	dmdtConst := 4.0 * math.Pi * consts.RhoL * math.Pow(consts.R0, 3.0)
	massCondensed = dmdtConst * sd.Radius * sd.Radius * float64(sd.Eps) * deltaRadius
	return massCondensed, nil
}

// solveWithHalving attempts solveRadius at delt; on non-convergence it
// halves the sub-step and composes two half-steps instead, recursing down
// to MinSubDelt before giving up. This mirrors the adaptive step-size
// retries of an embedded Runge-Kutta integrator, applied to
// condensation's implicit solve rather than an explicit error estimate.
func (s *Solver) solveWithHalving(rprev float64, k koeff, delt float64) (float64, error) {
	r, err := s.solveRadius(rprev, k, delt)
	if err == nil {
		return r, nil
	}
	if delt/2 < s.MinSubDelt {
		return 0, err
	}

	half := delt / 2
	rMid, err := s.solveWithHalving(rprev, k, half)
	if err != nil {
		return 0, err
	}
	rFinal, err := s.solveWithHalving(rMid, k, half)
	if err != nil {
		return 0, err
	}
	return rFinal, nil
}

// ThermoFeedback returns the change in condensate/vapour mixing ratio and
// temperature a gridbox's State should apply given the total mass
// condensed (summed over every super-droplet in the gridbox) this tick,
// per condensationmethod.cpp's condensation_alters_thermostate.
func ThermoFeedback(state *gridbox.State, totalMassCondensed float64) (deltaQcond, deltaQvap, deltaTemp float64) {
	deltaQcond = totalMassCondensed / consts.RhoDry
	deltaQvap = -deltaQcond
	deltaTemp = (consts.LatentV / consts.MoistSpecificHeat(state.Qvap, state.Qcond)) * deltaQcond
	return deltaQcond, deltaQvap, deltaTemp
}
