// Package registry is the dispatch table mapping configuration-file
// names to the engine's closed sets of collision kernels, fragment laws,
// and boundary policies: a name string from YAML config resolves to a
// constructor, with an error for anything unrecognised rather than a
// type switch scattered through the driver.
package registry

import (
	"fmt"

	"github.com/cloudmicro/sdm/internal/collision"
	"github.com/cloudmicro/sdm/internal/sdmerrors"
	"github.com/cloudmicro/sdm/internal/transport"
)

// Registry resolves configuration-file names to constructors for the
// engine's closed, swappable components.
type Registry struct {
	kernels   map[string]func(params map[string]float64) collision.Kernel
	fragments map[string]func(params map[string]float64) collision.FragmentLaw
	policies  map[string]transport.Policy
}

// New returns a Registry pre-populated with every kernel, fragment law,
// and boundary policy the engine ships.
func New() *Registry {
	r := &Registry{
		kernels:   make(map[string]func(map[string]float64) collision.Kernel),
		fragments: make(map[string]func(map[string]float64) collision.FragmentLaw),
		policies:  make(map[string]transport.Policy),
	}

	r.kernels["golovin"] = func(params map[string]float64) collision.Kernel {
		return collision.Golovin{}
	}
	r.kernels["long"] = func(params map[string]float64) collision.Kernel {
		coalEff := params["coal_eff"]
		if coalEff == 0 {
			coalEff = 1.0
		}
		return collision.LongHydrodynamic{CoalEff: coalEff}
	}
	r.kernels["lowlist"] = func(params map[string]float64) collision.Kernel {
		coalEff := params["coal_eff"]
		if coalEff == 0 {
			coalEff = 1.0
		}
		return collision.LowList{CoalEff: coalEff}
	}

	r.fragments["fixed"] = func(params map[string]float64) collision.FragmentLaw {
		n := params["n_frag"]
		if n == 0 {
			n = 2
		}
		return collision.ConstFrags{N: n}
	}

	r.policies["periodic"] = transport.Periodic
	r.policies["reflective"] = transport.Reflective
	r.policies["outflow"] = transport.Outflow

	return r
}

// Kernel resolves name to a Kernel constructed from params.
func (r *Registry) Kernel(name string, params map[string]float64) (collision.Kernel, error) {
	fn, ok := r.kernels[name]
	if !ok {
		return nil, sdmerrors.Config("unknown collision kernel %q", name)
	}
	return fn(params), nil
}

// FragmentLaw resolves name to a FragmentLaw constructed from params. The
// "uniform" law needs a PRNG stream the registry does not own, so callers
// construct collision.UniformFrags directly rather than through this
// table; it is listed in ListFragmentLaws for discoverability only.
func (r *Registry) FragmentLaw(name string, params map[string]float64) (collision.FragmentLaw, error) {
	if name == "uniform" {
		return nil, fmt.Errorf("fragment law %q requires a PRNG stream; construct collision.UniformFrags directly", name)
	}
	fn, ok := r.fragments[name]
	if !ok {
		return nil, sdmerrors.Config("unknown fragment law %q", name)
	}
	return fn(params), nil
}

// BoundaryPolicy resolves name to a transport.Policy.
func (r *Registry) BoundaryPolicy(name string) (transport.Policy, error) {
	p, ok := r.policies[name]
	if !ok {
		return 0, sdmerrors.Config("unknown boundary policy %q", name)
	}
	return p, nil
}

// ListKernels returns every registered collision kernel name.
func (r *Registry) ListKernels() []string {
	names := make([]string, 0, len(r.kernels))
	for name := range r.kernels {
		names = append(names, name)
	}
	return names
}

// ListFragmentLaws returns every fragment law name, including "uniform"
// which must be constructed directly rather than via FragmentLaw.
func (r *Registry) ListFragmentLaws() []string {
	names := []string{"uniform"}
	for name := range r.fragments {
		names = append(names, name)
	}
	return names
}
