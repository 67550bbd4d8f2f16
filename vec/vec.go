// Copyright 2025 The parlab Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package vec

import (
	"github.com/parlab-go/parlab/internal/vec"
)

// Type aliases for public API

// Float is the constraint for vector element types.
type Float = vec.Float

// Level classifies how an implementation exploits data parallelism.
type Level = vec.Level

// Dispatch levels.
const (
	LevelGeneric Level = vec.LevelGeneric
	LevelBlock   Level = vec.LevelBlock
)

// Impl is one registered implementation set.
type Impl = vec.Impl

// Add computes dst[i] = a[i] + b[i].
func Add[T Float](dst, a, b []T) {
	vec.Add(dst, a, b)
}

// Mul computes dst[i] = a[i] * b[i].
func Mul[T Float](dst, a, b []T) {
	vec.Mul(dst, a, b)
}

// Scale computes dst[i] = a[i] * alpha.
func Scale[T Float](dst, a []T, alpha T) {
	vec.Scale(dst, a, alpha)
}

// Axpy computes dst[i] = alpha*x[i] + y[i].
func Axpy[T Float](dst []T, alpha T, x, y []T) {
	vec.Axpy(dst, alpha, x, y)
}

// Dot returns the inner product of a and b.
func Dot[T Float](a, b []T) T {
	return vec.Dot(a, b)
}

// Sum returns the sum of the elements of a.
func Sum[T Float](a []T) T {
	return vec.Sum(a)
}

// Max returns the largest element of a. Panics on an empty slice.
func Max[T Float](a []T) T {
	return vec.Max(a)
}

// ForceGeneric pins dispatch to the scalar baseline.
func ForceGeneric(v bool) {
	vec.ForceGeneric(v)
}

// ActiveName returns the name of the implementation dispatch would pick.
func ActiveName() string {
	return vec.ActiveName()
}

// Impls returns the registered implementations, highest priority first.
func Impls() []Impl {
	return vec.Impls()
}
