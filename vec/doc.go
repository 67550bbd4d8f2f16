// Copyright 2025 The parlab Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package vec is the SIMD lab: one operation applied to many elements
// within a single core.
//
// # Overview
//
// Go has no portable vector intrinsics, so the package demonstrates the
// two flavors that pure Go can express honestly:
//   - generic: plain scalar loops, the baseline
//   - block4: 4-way unrolled loops with independent accumulator streams,
//     which expose the instruction-level parallelism that vector lanes
//     exploit on real hardware
//
// A prioritized registry dispatches each operation to the best registered
// implementation. ForceGeneric pins the baseline so the two flavors can be
// benchmarked against each other:
//
//	vec.ForceGeneric(true)
//	base := time.Now()
//	_ = vec.Dot(a, b)
//	fmt.Println("generic:", time.Since(base))
//
//	vec.ForceGeneric(false)
//	base = time.Now()
//	_ = vec.Dot(a, b)
//	fmt.Println("block4:", time.Since(base))
//
// Setting PARLAB_FORCE_GENERIC=1 pins the baseline at startup.
//
// # Operations
//
// Add, Mul, Scale, Axpy, Dot, Sum, and Max over []float32 and []float64.
// All kernels panic on slice length mismatches; the mismatch is a caller
// bug, not a runtime condition.
package vec
