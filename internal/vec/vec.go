// Package vec provides the data-parallel vector kernels for the parlab
// SIMD lab: a scalar baseline and 4-way unrolled block kernels behind a
// prioritized dispatch registry.
package vec

import (
	"os"
	"sync"
	"sync/atomic"
)

// Float is the constraint for vector element types.
type Float interface {
	~float32 | ~float64
}

// Level classifies how an implementation exploits data parallelism.
type Level int

const (
	// LevelGeneric is the plain scalar loop baseline.
	LevelGeneric Level = iota
	// LevelBlock uses 4-way unrolled independent accumulator streams.
	LevelBlock
)

// String returns the level name used in transcripts.
func (l Level) String() string {
	switch l {
	case LevelGeneric:
		return "generic"
	case LevelBlock:
		return "block"
	default:
		return "unknown"
	}
}

// Kernels is the table of vector routines for one element type.
type Kernels[T Float] struct {
	Add   func(dst, a, b []T)
	Mul   func(dst, a, b []T)
	Scale func(dst, a []T, alpha T)
	Axpy  func(dst []T, alpha T, x, y []T)
	Dot   func(a, b []T) T
	Sum   func(a []T) T
	Max   func(a []T) T
}

// Impl is one registered implementation set covering both element types.
type Impl struct {
	Name     string
	Level    Level
	Priority int
	F32      Kernels[float32]
	F64      Kernels[float64]
}

var (
	mu           sync.RWMutex
	impls        []Impl
	forceGeneric atomic.Bool
)

func init() {
	if os.Getenv("PARLAB_FORCE_GENERIC") == "1" {
		forceGeneric.Store(true)
	}
}

// Register adds an implementation set to the dispatch table.
// Implementations register themselves from init functions.
func Register(im Impl) {
	mu.Lock()
	defer mu.Unlock()
	impls = append(impls, im)
}

// Impls returns the registered implementations, highest priority first.
func Impls() []Impl {
	mu.RLock()
	defer mu.RUnlock()

	out := make([]Impl, len(impls))
	copy(out, impls)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Priority > out[j-1].Priority; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// ForceGeneric pins dispatch to the scalar baseline. Used for A/B
// benchmarking; PARLAB_FORCE_GENERIC=1 sets it at startup.
func ForceGeneric(v bool) {
	forceGeneric.Store(v)
}

// ActiveName returns the name of the implementation dispatch would pick.
func ActiveName() string {
	return active().Name
}

// active returns the highest-priority registered implementation, or the
// baseline while ForceGeneric is set.
func active() Impl {
	force := forceGeneric.Load()

	mu.RLock()
	defer mu.RUnlock()

	var best *Impl
	for i := range impls {
		im := &impls[i]
		if force && im.Level != LevelGeneric {
			continue
		}
		if best == nil || im.Priority > best.Priority {
			best = im
		}
	}
	if best == nil {
		panic("vec: no implementation registered")
	}
	return *best
}

// kernelsFor selects the typed kernel table from an implementation.
func kernelsFor[T Float](im Impl) Kernels[T] {
	var zero T
	switch any(zero).(type) {
	case float32:
		return any(im.F32).(Kernels[T])
	case float64:
		return any(im.F64).(Kernels[T])
	default:
		panic("vec: unsupported element type")
	}
}

// Add computes dst[i] = a[i] + b[i].
func Add[T Float](dst, a, b []T) {
	kernelsFor[T](active()).Add(dst, a, b)
}

// Mul computes dst[i] = a[i] * b[i].
func Mul[T Float](dst, a, b []T) {
	kernelsFor[T](active()).Mul(dst, a, b)
}

// Scale computes dst[i] = a[i] * alpha.
func Scale[T Float](dst, a []T, alpha T) {
	kernelsFor[T](active()).Scale(dst, a, alpha)
}

// Axpy computes dst[i] = alpha*x[i] + y[i].
func Axpy[T Float](dst []T, alpha T, x, y []T) {
	kernelsFor[T](active()).Axpy(dst, alpha, x, y)
}

// Dot returns the inner product of a and b.
func Dot[T Float](a, b []T) T {
	return kernelsFor[T](active()).Dot(a, b)
}

// Sum returns the sum of the elements of a.
func Sum[T Float](a []T) T {
	return kernelsFor[T](active()).Sum(a)
}

// Max returns the largest element of a. Panics on an empty slice.
func Max[T Float](a []T) T {
	return kernelsFor[T](active()).Max(a)
}
