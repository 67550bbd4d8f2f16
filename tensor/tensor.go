// Copyright 2025 The parlab Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/parlab-go/parlab/internal/tensor"
)

// Type aliases for public API

// Elem is a constraint for tensor element types.
// Supported types: float32, float64, int32, int64.
type Elem = tensor.Elem

// DType represents the underlying data type of a tensor.
type DType = tensor.DType

// Data type constants.
const (
	Float32 DType = tensor.Float32
	Float64 DType = tensor.Float64
	Int32   DType = tensor.Int32
	Int64   DType = tensor.Int64
)

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3, 4} represents a 3D tensor with dimensions 2×3×4.
type Shape = tensor.Shape

// RawTensor is the low-level tensor representation.
//
// RawTensor provides:
//   - Shape and type information via Shape(), DType()
//   - Type-safe data access via AsFloat32(), AsInt64(), etc.
//   - Buffer sharing via Clone() with reference counting
//
// Example:
//
//	raw, _ := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float32)
//	data := raw.AsFloat32() // Type-safe access
//	clone := raw.Clone()    // Shares buffer via reference counting
type RawTensor = tensor.RawTensor

// NewRaw creates a zero-initialized RawTensor with the given shape and type.
func NewRaw(shape Shape, dtype DType) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype)
}

// NewRawFromBytes creates a RawTensor over a copy of the given bytes.
func NewRawFromBytes(data []byte, shape Shape, dtype DType) (*RawTensor, error) {
	return tensor.NewRawFromBytes(data, shape, dtype)
}

// FromSlice creates a RawTensor holding a copy of the given elements.
func FromSlice[T Elem](data []T, shape Shape) (*RawTensor, error) {
	return tensor.FromSlice(data, shape)
}

// DTypeOf returns the DType matching a generic element type T.
func DTypeOf[T Elem]() DType {
	return tensor.DTypeOf[T]()
}
