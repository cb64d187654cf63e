package parallel

import (
	"sort"
	"sync/atomic"
	"testing"
)

func TestCPUBackendForVisitsEveryIndex(t *testing.T) {
	const n = 997
	seen := make([]int32, n)
	b := NewCPUBackend()
	b.For(n, func(i int) {
		atomic.AddInt32(&seen[i], 1)
	})
	for i, v := range seen {
		if v != 1 {
			t.Fatalf("index %d visited %d times, want 1", i, v)
		}
	}
}

func TestCPUBackendTeamVisitsEveryTeam(t *testing.T) {
	const teams = 64
	var visited int32
	b := NewCPUBackend()
	b.Team(teams, func(teamID int) {
		atomic.AddInt32(&visited, 1)
	})
	if visited != teams {
		t.Fatalf("visited %d teams, want %d", visited, teams)
	}
}

func TestSequentialBackendMatchesCPUBackend(t *testing.T) {
	const n = 200
	var seqOrder, cpuVisited []int
	SequentialBackend{}.For(n, func(i int) { seqOrder = append(seqOrder, i) })
	for i, v := range seqOrder {
		if v != i {
			t.Fatalf("sequential backend not in order at %d: got %d", i, v)
		}
	}

	var mu int32
	cpuVisited = make([]int, n)
	NewCPUBackend().For(n, func(i int) {
		atomic.AddInt32(&mu, 1)
		cpuVisited[i] = i
	})
	sort.Ints(cpuVisited)
	for i, v := range cpuVisited {
		if v != i {
			t.Fatalf("cpu backend missed index %d", i)
		}
	}
}

func TestStreamForIsDeterministic(t *testing.T) {
	r1 := StreamFor(42, 7, 1000)
	r2 := StreamFor(42, 7, 1000)
	for i := 0; i < 10; i++ {
		a, b := r1.Float64(), r2.Float64()
		if a != b {
			t.Fatalf("draw %d diverged: %v != %v", i, a, b)
		}
	}
}

func TestStreamForDiffersAcrossWorkItems(t *testing.T) {
	r1 := StreamFor(42, 7, 1000)
	r2 := StreamFor(42, 8, 1000)
	if r1.Float64() == r2.Float64() {
		t.Fatalf("streams for different gridbox indices should not collide")
	}
}

func TestStreamForDiffersAcrossTicks(t *testing.T) {
	r1 := StreamFor(42, 7, 1000)
	r2 := StreamFor(42, 7, 1001)
	if r1.Float64() == r2.Float64() {
		t.Fatalf("streams for different ticks should not collide")
	}
}
