// Copyright 2025 The parlab Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package work

import (
	"context"

	"github.com/parlab-go/parlab/internal/work"
)

// Type aliases for public API

// Config controls parallel execution behavior.
type Config = work.Config

// Counter is a shared counter incremented by many goroutines at once.
type Counter = work.Counter

// Counter implementations, from broken to contention-free.
type (
	RacyCounter    = work.RacyCounter
	MutexCounter   = work.MutexCounter
	AtomicCounter  = work.AtomicCounter
	SpinCounter    = work.SpinCounter
	ShardedCounter = work.ShardedCounter
)

// RaceReport is the outcome of hammering one counter from many goroutines.
type RaceReport = work.RaceReport

// Pool runs submitted tasks on a fixed set of worker goroutines.
type Pool = work.Pool

// Strategy selects how dining philosophers acquire their forks.
type Strategy = work.Strategy

// Fork acquisition strategies.
const (
	Deadlock    Strategy = work.Deadlock
	GlobalOrder Strategy = work.GlobalOrder
	Waiter      Strategy = work.Waiter
)

// TableReport is the outcome of one dining run.
type TableReport = work.TableReport

// ErrClosed is returned by Pool.Submit after the pool has been closed.
var ErrClosed = work.ErrClosed

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	return work.DefaultConfig()
}

// For executes f(i) for i in [0, n) with optional parallelism.
func For(n int, f func(i int), cfg Config) {
	work.For(n, f, cfg)
}

// ForBatch executes f(o, i) over an outer*inner iteration space.
func ForBatch(outer, inner int, f func(o, i int), cfg Config) {
	work.ForBatch(outer, inner, f, cfg)
}

// Reduce computes combine over mapf(i) for i in [0, n) with optional
// parallelism.
func Reduce[T any](n int, identity T, mapf func(i int) T, combine func(a, b T) T, cfg Config) T {
	return work.Reduce(n, identity, mapf, combine, cfg)
}

// NewPool starts a pool with the given number of workers.
func NewPool(workers int) *Pool {
	return work.NewPool(workers)
}

// NewSharded creates a sharded counter; shards <= 0 selects GOMAXPROCS.
func NewSharded(shards int) *ShardedCounter {
	return work.NewSharded(shards)
}

// Hammer spawns workers goroutines, each adding 1 to c incsPerWorker times,
// and reports expected versus observed totals.
func Hammer(c Counter, workers, incsPerWorker int) RaceReport {
	return work.Hammer(c, workers, incsPerWorker)
}

// Dine runs the dining philosophers with the given fork strategy.
func Dine(ctx context.Context, philosophers, meals int, s Strategy) (TableReport, error) {
	return work.Dine(ctx, philosophers, meals, s)
}

// ParseStrategy maps a flag value to a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	return work.ParseStrategy(name)
}
