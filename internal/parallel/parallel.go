// Package parallel supplies the host-portable parallel-loop primitive
// the engine assumes but leaves unspecified: a range parallel-for over
// [0, N), a team (hierarchical) parallel-for that hands each team its
// index (the caller owns any per-team scratch), and a
// deterministic seed-derivable PRNG per work-item. The rest of the engine
// is written against this package's interface rather than against
// goroutines directly, so a different backend could be substituted without
// touching driver/condensation/collision code.
package parallel

import (
	"runtime"
	"sync"
)

// Backend is the contract a parallel-execution provider must satisfy.
type Backend interface {
	// For applies fn to every index in [0, n) with no ordering guarantee
	// between indices.
	For(n int, fn func(i int))
	// Team applies fn once per team, handing it the team's identifying
	// index. The caller (e.g. one team per gridbox) resolves that index to
	// its own span/scratch; Team only bounds concurrency and fans the call
	// out, it does not partition a flat range itself.
	Team(numTeams int, fn func(teamID int))
}

// CPUBackend runs both primitives over a bounded goroutine pool sized to
// the host's logical CPU count.
type CPUBackend struct {
	Workers int
}

// NewCPUBackend returns a CPUBackend sized to runtime.NumCPU().
func NewCPUBackend() *CPUBackend {
	return &CPUBackend{Workers: runtime.NumCPU()}
}

func (c *CPUBackend) workers() int {
	if c.Workers < 1 {
		return 1
	}
	return c.Workers
}

// For splits [0, n) into contiguous chunks, one per worker, and runs each
// chunk on its own goroutine.
func (c *CPUBackend) For(n int, fn func(i int)) {
	if n <= 0 {
		return
	}
	workers := c.workers()
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}

	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if start >= n {
			break
		}
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				fn(i)
			}
		}(start, end)
	}
	wg.Wait()
}

// Team runs one goroutine per team, handing each its team index.
// Unlike For, the caller chooses the partition directly (e.g. one team per
// gridbox span) rather than an even chunking of a flat range.
func (c *CPUBackend) Team(numTeams int, fn func(teamID int)) {
	// Team is used for per-gridbox work (condensation reduction, collision
	// sampling) where the caller already knows each team's span; this
	// backend just fans the call out, bounding concurrency to the worker
	// count via a semaphore so oversubscription on very fine-grained
	// gridbox meshes does not thrash the scheduler.
	if numTeams <= 0 {
		return
	}
	sem := make(chan struct{}, c.workers())
	var wg sync.WaitGroup
	for t := 0; t < numTeams; t++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(id int) {
			defer wg.Done()
			defer func() { <-sem }()
			fn(id)
		}(t)
	}
	wg.Wait()
}

// SequentialBackend runs both primitives on the calling goroutine. Useful
// for deterministic single-threaded tests, such as the check that it
// visits the same indices as CPUBackend.
type SequentialBackend struct{}

func (SequentialBackend) For(n int, fn func(i int)) {
	for i := 0; i < n; i++ {
		fn(i)
	}
}

func (SequentialBackend) Team(numTeams int, fn func(teamID int)) {
	for t := 0; t < numTeams; t++ {
		fn(t)
	}
}
