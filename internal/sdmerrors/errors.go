// Package sdmerrors defines the closed set of error kinds the SDM engine
// can surface, and a single context-carrying wrapper type used throughout
// the driver, condensation, collision, and motion packages.
package sdmerrors

import (
	"errors"
	"fmt"
)

// Kind sentinels for the closed set of error categories the engine can
// surface. Callers match against these with errors.Is.
var (
	ErrConfig      = errors.New("sdm: invalid or missing configuration option")
	ErrIO          = errors.New("sdm: file read/write failure")
	ErrInit        = errors.New("sdm: incompatible initial conditions")
	ErrConvergence = errors.New("sdm: condensation failed to converge")
	ErrMotion      = errors.New("sdm: CFL violation or lost particle")
	ErrInvariant   = errors.New("sdm: span/sort invariant broken")
)

// StepError wraps a sentinel Kind with the tick/gridbox/super context a
// step failure occurred in. HasGbx and HasSuper mark which of
// GbxIndex/SuperID are set (Convergence and Motion set both); an unset
// one is left at its zero value.
type StepError struct {
	Kind     error
	Tick     int64
	GbxIndex uint32
	SuperID  uint64
	HasGbx   bool
	HasSuper bool
	Message  string
}

func (e *StepError) Error() string {
	ctx := fmt.Sprintf("t=%d", e.Tick)
	if e.HasGbx {
		ctx += fmt.Sprintf(" gbx=%d", e.GbxIndex)
	}
	if e.HasSuper {
		ctx += fmt.Sprintf(" sd=%d", e.SuperID)
	}
	return fmt.Sprintf("%s (%s): %s", e.Kind, ctx, e.Message)
}

func (e *StepError) Unwrap() error { return e.Kind }

// Config builds a *StepError of kind ErrConfig.
func Config(msg string, args ...any) error {
	return &StepError{Kind: ErrConfig, Message: fmt.Sprintf(msg, args...)}
}

// IO builds a *StepError of kind ErrIO.
func IO(msg string, args ...any) error {
	return &StepError{Kind: ErrIO, Message: fmt.Sprintf(msg, args...)}
}

// Init builds a *StepError of kind ErrInit.
func Init(msg string, args ...any) error {
	return &StepError{Kind: ErrInit, Message: fmt.Sprintf(msg, args...)}
}

// Convergence builds a *StepError of kind ErrConvergence carrying the
// offending gridbox and super-droplet identifiers.
func Convergence(tick int64, gbx uint32, sdID uint64, msg string, args ...any) error {
	return &StepError{
		Kind: ErrConvergence, Tick: tick,
		GbxIndex: gbx, HasGbx: true,
		SuperID: sdID, HasSuper: true,
		Message: fmt.Sprintf(msg, args...),
	}
}

// Motion builds a *StepError of kind ErrMotion carrying the gridbox and
// super-droplet identifiers involved in the CFL violation.
func Motion(tick int64, gbx uint32, sdID uint64, msg string, args ...any) error {
	return &StepError{
		Kind: ErrMotion, Tick: tick,
		GbxIndex: gbx, HasGbx: true,
		SuperID: sdID, HasSuper: true,
		Message: fmt.Sprintf(msg, args...),
	}
}

// Invariant builds a *StepError of kind ErrInvariant.
func Invariant(tick int64, msg string, args ...any) error {
	return &StepError{Kind: ErrInvariant, Tick: tick, Message: fmt.Sprintf(msg, args...)}
}

// ExitCode maps a step error to the process's exit code convention.
// Unrecognised errors (e.g. a bare I/O error bubbled up unwrapped from the
// standard library) fall back to the runtime code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrConfig), errors.Is(err, ErrIO):
		return 1
	case errors.Is(err, ErrInit):
		return 2
	default:
		return 3
	}
}
