// Copyright 2025 The parlab Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package bench turns the labs into measurement tables: every row is
// one timed run with a correctness verdict beside it, because a
// parallel speedup over a wrong answer is not a speedup.
//
// # Suites
//
// A Suite stamps the host hardware and collects Results. The runners
// each fill one table: RunCounters races the counter flavors,
// RunVec compares the generic and dispatched kernels, RunMatMul drives
// compute devices against a float64 oracle, RunPhilosophers seats the
// dining table under every fork strategy, and RunAllreduce times the
// in-process ring. Every measurement repeats Reps times after a warmup
// and keeps the minimum wall time, the run closest to the noise floor.
//
// # Config
//
// Run executes the sections a Config enables. LoadConfig reads a TOML
// file over DefaultConfig, so a suite file only says what it changes.
//
// # Output
//
// Transcript renders an aligned table with a colored verdict line,
// honoring NO_COLOR; WriteJSON writes the same suite for machines.
package bench
