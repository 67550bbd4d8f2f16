// Package work provides the shared-memory threading primitives for the
// parlab multithreading lab: parallel loops, worker pools, and the counter
// family used to demonstrate races, locks, and contention.
package work

import (
	"runtime"
	"sync"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Number of worker goroutines to use.
	MinChunkSize int  // Minimum items per goroutine to avoid overhead.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 64, // Typical cache line aware chunk.
	}
}

// For executes f(i) for i in [0, n) with optional parallelism.
// Falls back to sequential execution if parallelism is disabled or n is too small.
func For(n int, f func(i int), cfg Config) {
	if !cfg.Enabled || n < cfg.MinChunkSize {
		// Sequential fallback.
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}

	var wg sync.WaitGroup
	chunkSize := max((n+cfg.NumWorkers-1)/cfg.NumWorkers, cfg.MinChunkSize)

	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				f(i)
			}
		}(start, end)
	}
	wg.Wait()
}

// ForBatch optimized for outer*inner iteration patterns such as
// band-of-rows sweeps.
func ForBatch(outer, inner int, f func(o, i int), cfg Config) {
	n := outer * inner
	For(n, func(k int) {
		f(k/inner, k%inner)
	}, cfg)
}

// Reduce computes combine over mapf(i) for i in [0, n) with optional
// parallelism. Each worker reduces its chunk locally; the partial results
// are combined in chunk order, so non-commutative combines are
// deterministic.
func Reduce[T any](n int, identity T, mapf func(i int) T, combine func(a, b T) T, cfg Config) T {
	if !cfg.Enabled || n < cfg.MinChunkSize {
		acc := identity
		for i := 0; i < n; i++ {
			acc = combine(acc, mapf(i))
		}
		return acc
	}

	chunkSize := max((n+cfg.NumWorkers-1)/cfg.NumWorkers, cfg.MinChunkSize)
	numChunks := (n + chunkSize - 1) / chunkSize
	partials := make([]T, numChunks)

	var wg sync.WaitGroup
	for c := 0; c < numChunks; c++ {
		start := c * chunkSize
		end := min(start+chunkSize, n)
		wg.Add(1)
		go func(c, s, e int) {
			defer wg.Done()
			acc := identity
			for i := s; i < e; i++ {
				acc = combine(acc, mapf(i))
			}
			partials[c] = acc
		}(c, start, end)
	}
	wg.Wait()

	acc := identity
	for _, p := range partials {
		acc = combine(acc, p)
	}
	return acc
}
