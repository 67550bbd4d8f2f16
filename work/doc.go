// Copyright 2025 The parlab Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package work is the shared-memory threading lab: parallel loops, worker
// pools, and the counter family that demonstrates races, locks, atomics,
// and contention.
//
// # Overview
//
// The package walks the classic progression of shared-state threading:
//   - RacyCounter increments without synchronization and loses updates
//   - MutexCounter fixes it with a lock
//   - AtomicCounter fixes it with one hardware instruction
//   - SpinCounter shows what a userspace spinlock costs
//   - ShardedCounter removes contention with padded per-shard slots
//
// Hammer drives any of them from N goroutines and reports the loss:
//
//	report := work.Hammer(&work.MutexCounter{}, 8, 1_000_000)
//	fmt.Printf("expected %d observed %d lost %d\n",
//	    report.Expected, report.Observed, report.Lost)
//
// # Parallel loops
//
// For, ForBatch, and Reduce split index ranges over worker goroutines,
// falling back to a sequential loop when the range is too small to pay for
// the fan-out:
//
//	work.For(len(xs), func(i int) { xs[i] *= 2 }, work.DefaultConfig())
//
// # Dining philosophers
//
// Dine runs the classic deadlock demonstration with a pluggable fork
// acquisition strategy: Deadlock (left then right, can cycle forever),
// GlobalOrder (ascending fork index), and Waiter (admit N-1 eaters).
package work
