// Copyright 2025 The parlab Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the dense arrays the parlab labs stage their
// data on.
//
// # Overview
//
// The substrate is contiguous row-major arrays with runtime type
// information. This package provides:
//   - Shape with row-major stride computation
//   - RawTensor, a reference-counted byte buffer with typed views
//   - Zero-copy access via AsFloat32(), AsInt64(), etc.
//
// # Basic Usage
//
//	import "github.com/parlab-go/parlab/tensor"
//
//	func main() {
//	    a, _ := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
//	    data := a.AsFloat32() // zero-copy typed view
//	    b := a.Clone()        // shares the buffer, reference-counted
//	    b.Release()
//	}
//
// # Supported Data Types
//
// The package supports the following element types via the Elem constraint:
//   - float32, float64 (floating-point)
//   - int32, int64 (signed integers)
//
// # Memory Management
//
// Buffers are reference-counted. Clone and Retain increment the count,
// Release decrements it; the bytes are freed when the count reaches zero.
// Releasing a freed buffer panics.
package tensor
