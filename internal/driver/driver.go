// Package driver runs the top-level SDM time-stepping loop: a multi-rate
// "next due" scheduler over four independently configurable step
// intervals (coupling, microphysics, motion, observation), each a
// positive integer multiple of a shared base tick, nested
// condensation/collision/motion sub-stepping, span-invariant rebuilding,
// and diagnostics collection. Its Run loop follows a stepping loop's
// shape (context cancellation check, per-step metric observation,
// accumulated non-fatal errors, final metrics snapshot) adapted from a
// flat ODE state vector to the SDM engine's domain of gridboxes and
// super-droplets.
package driver

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/cloudmicro/sdm/internal/collision"
	"github.com/cloudmicro/sdm/internal/condensation"
	"github.com/cloudmicro/sdm/internal/domain"
	"github.com/cloudmicro/sdm/internal/dynamics"
	"github.com/cloudmicro/sdm/internal/gridbox"
	"github.com/cloudmicro/sdm/internal/metrics"
	"github.com/cloudmicro/sdm/internal/motion"
	"github.com/cloudmicro/sdm/internal/parallel"
	"github.com/cloudmicro/sdm/internal/sdmerrors"
	"github.com/cloudmicro/sdm/internal/superdrop"
	"github.com/cloudmicro/sdm/internal/transport"
	"github.com/cloudmicro/sdm/internal/tui"
)

// Config holds the per-run parameters that shape the time-stepping loop,
// mirroring the role a flat ODE simulator's run config plays, generalised
// to gridboxes and sub-stepped processes.
type Config struct {
	Seed int64

	// BaseTick is the engine's smallest schedulable unit of time; every
	// other interval below is expressed as a positive integer multiple of
	// it. CouplTicks/MotionTicks/MicroTicks/ObsTicks of 1 run that phase
	// every base tick; 10 runs it every tenth tick.
	BaseTick    float64
	CouplTicks  int64
	MotionTicks int64
	MicroTicks  int64
	ObsTicks    int64
	EndTick     int64

	CondensationSubDt float64
	CollisionSubDt    float64
	MotionSubDt       float64
	Bounds            transport.Bounds
	TolerateFailures  bool // if true, a non-convergent condensation step is skipped rather than aborting the run
}

// microDt is the elapsed time between microphysics ticks: the outer dt
// condensation and collision sub-step within.
func (c Config) microDt() float64 { return c.BaseTick * float64(tickMultiple(c.MicroTicks)) }

// motionDt is the elapsed time between motion ticks: the outer dt motion
// sub-steps within.
func (c Config) motionDt() float64 { return c.BaseTick * float64(tickMultiple(c.MotionTicks)) }

func tickMultiple(n int64) int64 {
	if n < 1 {
		return 1
	}
	return n
}

// isDue reports whether tick t is a multiple of interval, i.e. whether
// the phase scheduled at that interval should run at t. An interval <= 0
// never fires.
func isDue(t, interval int64) bool {
	if interval <= 0 {
		return false
	}
	return t%interval == 0
}

// nextMultipleGE returns the smallest multiple of interval that is >= t.
func nextMultipleGE(t, interval int64) int64 {
	if interval <= 0 {
		interval = 1
	}
	rem := t % interval
	if rem == 0 {
		return t
	}
	return t + interval - rem
}

// nextDue returns min(next multiple of Δt_k >= t) across every configured
// interval: the driver's "next due" function that advances t to the next
// tick at which at least one phase is scheduled to run.
func nextDue(t int64, intervals ...int64) int64 {
	next := int64(-1)
	for _, iv := range intervals {
		if iv <= 0 {
			continue
		}
		m := nextMultipleGE(t, iv)
		if next == -1 || m < next {
			next = m
		}
	}
	if next == -1 {
		return t
	}
	return next
}

// Result accumulates what the run produced: per-tick diagnostics and any
// non-fatal errors encountered, following an accumulate-then-summarise
// shape.
type Result struct {
	TicksRun int64
	Errors   []error
	Metrics  map[string]float64
}

// Driver owns the domain, the configured process implementations, and
// the parallel backend they run on.
type Driver struct {
	Domain       *domain.Domain
	Config       Config
	Condensation *condensation.Solver
	Collision    *collision.Sampler
	Motion       *motion.Integrator
	Dynamics     dynamics.Provider
	Backend      parallel.Backend
	Collector    *metrics.Collector
	MassDrift    *metrics.MassDrift

	// Reports, if non-nil, receives a TickReport after every tick and a
	// final Done report when Run returns, for a live monitor (internal/tui)
	// to consume. The driver imports internal/tui for the report type and
	// Throttle, but never starts the UI itself.
	Reports chan<- tui.TickReport

	// ReportInterval throttles how often non-final reports are sent on
	// Reports via tui.Throttle, so a slow terminal never backs up the
	// simulation. Zero sends every tick's report unthrottled; ignored when
	// Reports is nil. The final Done report always sends regardless.
	ReportInterval time.Duration

	reportGate func(send func(tui.TickReport), report tui.TickReport)
}

// Run advances the domain from tick 0 to Config.EndTick inclusive, only
// running the phases due at each tick per the four-interval schedule:
// coupled-dynamics receive, microphysics (condensation then collisions),
// motion (plus transport bookkeeping and a span rebuild), coupled-dynamics
// send, then observation, in that fixed order whenever each is due.
func (d *Driver) Run(ctx context.Context) (result *Result, runErr error) {
	result = &Result{Metrics: make(map[string]float64)}
	if d.Reports != nil {
		d.reportGate = tui.Throttle(d.ReportInterval)
		defer func() { d.report(result.TicksRun, true, runErr) }()
	}

	for t := int64(0); t <= d.Config.EndTick; t = nextDue(t+1, d.Config.CouplTicks, d.Config.MotionTicks, d.Config.MicroTicks, d.Config.ObsTicks) {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		couplDue := isDue(t, d.Config.CouplTicks)
		microDue := isDue(t, d.Config.MicroTicks)
		motionDue := isDue(t, d.Config.MotionTicks)
		obsDue := isDue(t, d.Config.ObsTicks)

		if couplDue {
			if err := d.Dynamics.Receive(t, d.Domain.Gridboxes); err != nil {
				return result, fmt.Errorf("receiving coupled dynamics at tick %d: %w", t, err)
			}
		}

		if microDue {
			if err := d.runMicrophysics(t, result); err != nil {
				return result, err
			}
		}

		if motionDue {
			if err := d.runMotion(t, result); err != nil {
				return result, err
			}
			d.Domain.Rebuild()
		}

		if couplDue {
			if err := d.Dynamics.Send(t, d.Domain.Gridboxes); err != nil {
				return result, fmt.Errorf("sending coupled dynamics at tick %d: %w", t, err)
			}
		}

		if obsDue {
			d.observe()
		}

		result.TicksRun++
		d.report(t, false, nil)
	}

	if d.MassDrift != nil {
		result.Metrics["mass_drift"] = d.MassDrift.Value()
	}
	return result, nil
}

// runMicrophysics runs condensation then collisions across every
// gridbox's span in parallel over the Backend's team.
func (d *Driver) runMicrophysics(tick int64, result *Result) error {
	var stepErr error
	d.Backend.Team(len(d.Domain.Gridboxes), func(teamID int) {
		gbx := &d.Domain.Gridboxes[teamID]
		if err := d.stepMicrophysics(gbx, tick); err != nil {
			result.Errors = append(result.Errors, err)
			stepErr = err
		}
	})
	if stepErr != nil && !d.Config.TolerateFailures {
		return stepErr
	}
	return nil
}

// runMotion runs the motion sub-stepping across every gridbox's span in
// parallel over the Backend's team. A nil Motion skips the phase
// entirely (a scenario with zero microphysics but no dynamics still
// needs a no-op motion tick to be schedulable).
func (d *Driver) runMotion(tick int64, result *Result) error {
	if d.Motion == nil {
		return nil
	}
	var stepErr error
	d.Backend.Team(len(d.Domain.Gridboxes), func(teamID int) {
		gbx := &d.Domain.Gridboxes[teamID]
		if err := d.stepMotionGridbox(gbx, tick); err != nil {
			result.Errors = append(result.Errors, err)
			stepErr = err
		}
	})
	if stepErr != nil && !d.Config.TolerateFailures {
		return stepErr
	}
	return nil
}

// report publishes the current diagnostics to Reports, if a monitor is
// attached, through reportGate; a non-final report that finds the channel
// full is dropped, so a slow terminal never backs up the simulation. The deferred final call in Run always
// fires exactly once, regardless of which return path Run takes, so a
// monitor blocked reading Reports is never left waiting on a run that
// exited early; the final report always sends, bypassing the gate.
func (d *Driver) report(tick int64, done bool, err error) {
	if d.Reports == nil {
		return
	}
	massDrift := 0.0
	if d.MassDrift != nil {
		massDrift = d.MassDrift.Value()
	}
	rep := tui.TickReport{
		Tick:             tick,
		ActiveSuperdrops: d.Domain.TotalSupers(),
		MassDriftFrac:    massDrift,
		Done:             done,
		Err:              err,
	}
	if done {
		d.Reports <- rep
		close(d.Reports)
		return
	}
	d.reportGate(func(r tui.TickReport) {
		select {
		case d.Reports <- r:
		default:
		}
	}, rep)
}

// stepMicrophysics runs one microphysics tick's condensation and
// collision sub-stepping for a single gridbox's span. Sub-step counts are
// derived from Config's microDt divided by each process's sub-timestep.
func (d *Driver) stepMicrophysics(gbx *gridbox.Gridbox, tick int64) error {
	span := d.Domain.Supers[gbx.First:gbx.Last]

	if err := d.stepCondensation(span, gbx, tick); err != nil {
		return err
	}

	if d.Collision != nil {
		stream := parallel.StreamFor(d.Config.Seed, gbx.Index, tick)
		d.stepCollision(span, gbx, stream)
	}

	return nil
}

// numSubsteps divides outer into sub-sized pieces, rounding to at least
// one and always returning a count that evenly divides outer exactly
// (the actual sub-timestep used is outer/n, not sub verbatim).
func numSubsteps(outer, sub float64) (n int, actual float64) {
	if sub <= 0 || sub >= outer {
		return 1, outer
	}
	n = int(outer/sub + 0.5)
	if n < 1 {
		n = 1
	}
	return n, outer / float64(n)
}

func (d *Driver) stepCondensation(span []superdrop.Superdrop, gbx *gridbox.Gridbox, tick int64) error {
	if d.Condensation == nil {
		return nil
	}
	n, subDt := numSubsteps(d.Config.microDt(), d.Config.CondensationSubDt)

	for sub := 0; sub < n; sub++ {
		totalMassCondensed := 0.0
		var firstErr error
		for i := range span {
			massCondensed, err := d.Condensation.StepSuperdrop(&span[i], &gbx.State, subDt, tick)
			if err != nil {
				if d.Collector != nil {
					d.Collector.ConvergenceErrors.Inc()
				}
				if !d.Config.TolerateFailures {
					return err
				}
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			totalMassCondensed += massCondensed
		}

		deltaQcond, deltaQvap, deltaTemp := condensation.ThermoFeedback(&gbx.State, totalMassCondensed)
		gbx.State.Qcond += deltaQcond
		gbx.State.Qvap += deltaQvap
		gbx.State.Temp += deltaTemp
		if d.Collector != nil {
			d.Collector.CondensedMass.Add(totalMassCondensed)
		}
		if firstErr != nil {
			return firstErr
		}
	}
	return nil
}

func (d *Driver) stepCollision(span []superdrop.Superdrop, gbx *gridbox.Gridbox, stream *rand.Rand) {
	n, subDt := numSubsteps(d.Config.microDt(), d.Config.CollisionSubDt)
	for sub := 0; sub < n; sub++ {
		before := len(span)
		d.Collision.Run(span, subDt, gbx.State.Volume, stream)
		if d.Collector != nil && before >= 2 {
			d.Collector.CollisionEvents.Inc()
		}
	}
}

// stepMotionGridbox sub-steps motion for originGbx's span. A particle
// that migrates to a different gridbox mid-span (via transport.Advance)
// keeps being sub-stepped from this call using its current gridbox's live
// state and map, re-fetched every sub-step, since spans are not
// re-sorted until the caller's subsequent Domain.Rebuild.
func (d *Driver) stepMotionGridbox(originGbx *gridbox.Gridbox, tick int64) error {
	if d.Domain.Maps == nil {
		return sdmerrors.Invariant(tick, "motion configured without a gridbox map table")
	}

	span := d.Domain.Supers[originGbx.First:originGbx.Last]
	n, subDt := numSubsteps(d.Config.motionDt(), d.Config.MotionSubDt)

	for sub := 0; sub < n; sub++ {
		for i := range span {
			sd := &span[i]
			if sd.GbxIndex == superdrop.OutsideDomain {
				continue
			}

			curGbx := d.Domain.ByIndex(sd.GbxIndex)
			if curGbx == nil {
				return sdmerrors.Invariant(tick, "super-droplet %d references unknown gridbox %d", sd.ID, sd.GbxIndex)
			}
			m, ok := d.Domain.Maps.Get(sd.GbxIndex)
			if !ok {
				return sdmerrors.Invariant(tick, "super-droplet %d references unmapped gridbox %d", sd.ID, sd.GbxIndex)
			}

			if err := d.Motion.Step(sd, &curGbx.State, m, subDt, tick); err != nil {
				return err
			}
			if err := transport.Advance(sd, d.Domain.Maps, d.Config.Bounds, tick); err != nil {
				return err
			}
		}
	}
	return nil
}

// observe updates the mass-drift metric and Prometheus collector from
// the domain's current state.
func (d *Driver) observe() {
	if d.MassDrift == nil && d.Collector == nil {
		return
	}

	totalMass := 0.0
	for i := range d.Domain.Supers {
		sd := &d.Domain.Supers[i]
		totalMass += float64(sd.Eps) * sd.Mass()
	}

	if d.MassDrift != nil {
		d.MassDrift.Observe(totalMass)
	}
	if d.Collector != nil {
		d.Collector.ActiveSuperdrops.Set(float64(d.Domain.TotalSupers()))
		if d.MassDrift != nil {
			d.Collector.MassDrift.Set(d.MassDrift.Value())
		}
	}
}
