package vec

import "fmt"

// init registers the scalar baseline implementations.
//
// Priority: 0 (lowest; used when ForceGeneric pins the baseline or nothing
// better is registered).
func init() {
	Register(Impl{
		Name:     "generic",
		Level:    LevelGeneric,
		Priority: 0,
		F32: Kernels[float32]{
			Add:   addGeneric[float32],
			Mul:   mulGeneric[float32],
			Scale: scaleGeneric[float32],
			Axpy:  axpyGeneric[float32],
			Dot:   dotGeneric[float32],
			Sum:   sumGeneric[float32],
			Max:   maxGeneric[float32],
		},
		F64: Kernels[float64]{
			Add:   addGeneric[float64],
			Mul:   mulGeneric[float64],
			Scale: scaleGeneric[float64],
			Axpy:  axpyGeneric[float64],
			Dot:   dotGeneric[float64],
			Sum:   sumGeneric[float64],
			Max:   maxGeneric[float64],
		},
	})
}

func checkLen2(op string, a, b int) {
	if a != b {
		panic(fmt.Sprintf("vec: %s slice length mismatch: %d vs %d", op, a, b))
	}
}

func checkLen3(op string, dst, a, b int) {
	if a != b || dst != a {
		panic(fmt.Sprintf("vec: %s slice length mismatch: dst=%d a=%d b=%d", op, dst, a, b))
	}
}

// addGeneric computes dst[i] = a[i] + b[i] with a plain scalar loop.
func addGeneric[T Float](dst, a, b []T) {
	checkLen3("Add", len(dst), len(a), len(b))
	for i := range dst {
		dst[i] = a[i] + b[i]
	}
}

// mulGeneric computes dst[i] = a[i] * b[i] with a plain scalar loop.
func mulGeneric[T Float](dst, a, b []T) {
	checkLen3("Mul", len(dst), len(a), len(b))
	for i := range dst {
		dst[i] = a[i] * b[i]
	}
}

// scaleGeneric computes dst[i] = a[i] * alpha with a plain scalar loop.
func scaleGeneric[T Float](dst, a []T, alpha T) {
	checkLen2("Scale", len(dst), len(a))
	for i := range dst {
		dst[i] = a[i] * alpha
	}
}

// axpyGeneric computes dst[i] = alpha*x[i] + y[i] with a plain scalar loop.
func axpyGeneric[T Float](dst []T, alpha T, x, y []T) {
	checkLen3("Axpy", len(dst), len(x), len(y))
	for i := range dst {
		dst[i] = alpha*x[i] + y[i]
	}
}

// dotGeneric returns the inner product with one sequential accumulator.
func dotGeneric[T Float](a, b []T) T {
	checkLen2("Dot", len(a), len(b))
	var s T
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

// sumGeneric returns the element sum with one sequential accumulator.
func sumGeneric[T Float](a []T) T {
	var s T
	for _, v := range a {
		s += v
	}
	return s
}

// maxGeneric returns the largest element. Panics on an empty slice.
func maxGeneric[T Float](a []T) T {
	if len(a) == 0 {
		panic("vec: Max of empty slice")
	}
	m := a[0]
	for _, v := range a[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
