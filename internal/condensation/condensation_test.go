package condensation

import (
	"math"
	"testing"

	"github.com/cloudmicro/sdm/internal/gridbox"
	"github.com/cloudmicro/sdm/internal/solute"
	"github.com/cloudmicro/sdm/internal/superdrop"
)

func saturatedState() *gridbox.State {
	return &gridbox.State{
		Volume: 1.0,
		Press:  100000.0 / 100000.0, // dimensionless, ~1 at P0
		Temp:   280.0 / 273.15,
		Qvap:   0.015,
		Qcond:  0.0,
	}
}

func TestStepSuperdropGrowsInSupersaturatedAir(t *testing.T) {
	s := NewSolver()
	state := saturatedState()
	// push qvap well above saturation so the equilibrium draws the droplet
	// radius upward regardless of its small initial size.
	state.Qvap = 0.02

	sd := &superdrop.Superdrop{
		ID: 1, Eps: 1, Radius: 5e-6 / 1e-6, MSol: 1e-19,
		Solute: solute.AmmoniumSulfate(),
	}
	before := sd.Radius

	_, err := s.StepSuperdrop(sd, state, 0.01, 0)
	if err != nil {
		t.Fatalf("StepSuperdrop returned error: %v", err)
	}
	if sd.Radius < before {
		t.Fatalf("expected droplet to grow in supersaturated air: before=%v after=%v", before, sd.Radius)
	}
}

func TestStepSuperdropNeverShrinksBelowDryRadius(t *testing.T) {
	s := NewSolver()
	state := saturatedState()
	state.Qvap = 0.0001 // force strongly subsaturated conditions

	sd := &superdrop.Superdrop{
		ID: 1, Eps: 1, Radius: 5e-6 / 1e-6, MSol: 1e-16,
		Solute: solute.AmmoniumSulfate(),
	}

	for i := 0; i < 20; i++ {
		if _, err := s.StepSuperdrop(sd, state, 0.01, int64(i)); err != nil {
			t.Fatalf("StepSuperdrop returned error at iter %d: %v", i, err)
		}
	}
	if sd.Radius < sd.DryRadius()-1e-9 {
		t.Fatalf("radius %v fell below dry radius %v", sd.Radius, sd.DryRadius())
	}
}

func TestThermoFeedbackConservesSignConvention(t *testing.T) {
	state := saturatedState()
	deltaQcond, deltaQvap, deltaTemp := ThermoFeedback(state, 1e-6)
	if deltaQcond <= 0 {
		t.Fatalf("condensing mass should increase qcond, got delta=%v", deltaQcond)
	}
	if deltaQvap != -deltaQcond {
		t.Fatalf("deltaQvap should be -deltaQcond: got %v vs %v", deltaQvap, deltaQcond)
	}
	if deltaTemp <= 0 {
		t.Fatalf("latent heat release should warm the gridbox, got delta=%v", deltaTemp)
	}
}

func TestNotConvergedThreshold(t *testing.T) {
	if notConverged(1.0, 1.0+1e-10, 1e-6, 1e-6) {
		t.Fatalf("difference within tolerance should report converged")
	}
	if !notConverged(1.0, 2.0, 1e-6, 1e-6) {
		t.Fatalf("large difference should report not converged")
	}
}

func TestInitialGuessPicksLargerRoot(t *testing.T) {
	k := koeff{akoh: 1e-3, bkoh: 1e-9}
	g := initialGuess(0.0, k)
	want := k.bkoh / k.akoh
	if math.Abs(g-want) > 1e-15 {
		t.Fatalf("initialGuess = %v, want equilibrium root %v when rprev=0", g, want)
	}
}
