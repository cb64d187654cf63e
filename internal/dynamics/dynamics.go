// Package dynamics defines the coupled-dynamics contract: the interface
// the SDM driver uses to exchange thermodynamic state with an external
// dynamics solver at coupling intervals, plus a Null provider that keeps
// the engine running standalone. It is grounded on coupldyn_null's
// NullDynComms (the empty receive/send pair) and coupldyn_fromfile's
// shape (receive pre-computed fields on a schedule, nothing to send
// back).
package dynamics

import "github.com/cloudmicro/sdm/internal/gridbox"

// Provider exchanges thermodynamic state with an external dynamics
// solver. Receive is called at the start of every coupling interval to
// pull updated press/temp/qvap/wind fields into the gridboxes; Send is
// called at the end to push SDM's feedback (condensate tendencies) back
// out. Implementations that only drive SDM one-way leave the other
// method a no-op, the way NullDynComms leaves both empty.
type Provider interface {
	Receive(tick int64, gbxs []gridbox.Gridbox) error
	Send(tick int64, gbxs []gridbox.Gridbox) error
}

// Null is the standalone Provider: it neither injects external state nor
// reports SDM's feedback anywhere, per nulldyncomms.hpp's NullDynComms.
type Null struct{}

func (Null) Receive(tick int64, gbxs []gridbox.Gridbox) error { return nil }
func (Null) Send(tick int64, gbxs []gridbox.Gridbox) error    { return nil }

// FromFile reads a pre-computed schedule of gridbox thermodynamic states
// and applies it on Receive, following coupldyn_fromfile's one-way
// coupling: SDM reads imposed fields but never feeds anything back (Send
// is a no-op, like NullDynComms.send_dynamics).
type FromFile struct {
	// Schedule maps a tick to the State each gridbox should be set to at
	// that tick. A tick absent from Schedule leaves gridbox state
	// untouched (the imposed field is treated as held constant between
	// samples).
	Schedule map[int64][]gridbox.State
}

func (f *FromFile) Receive(tick int64, gbxs []gridbox.Gridbox) error {
	states, ok := f.Schedule[tick]
	if !ok {
		return nil
	}
	for i := range gbxs {
		if i < len(states) {
			gbxs[i].State = states[i]
		}
	}
	return nil
}

func (f *FromFile) Send(tick int64, gbxs []gridbox.Gridbox) error { return nil }
