package vec

// init registers the 4-way unrolled block implementations.
//
// The unrolled loops keep four independent streams in flight, which is
// what vector lanes buy on real hardware: no dependency chain between
// consecutive elements, so the CPU retires several per cycle. Full-slice
// expressions in the loop body let the compiler drop bounds checks.
//
// Priority: 10 (preferred over the scalar baseline unless forced off).
func init() {
	Register(Impl{
		Name:     "block4",
		Level:    LevelBlock,
		Priority: 10,
		F32: Kernels[float32]{
			Add:   addBlock[float32],
			Mul:   mulBlock[float32],
			Scale: scaleBlock[float32],
			Axpy:  axpyBlock[float32],
			Dot:   dotBlock[float32],
			Sum:   sumBlock[float32],
			Max:   maxBlock[float32],
		},
		F64: Kernels[float64]{
			Add:   addBlock[float64],
			Mul:   mulBlock[float64],
			Scale: scaleBlock[float64],
			Axpy:  axpyBlock[float64],
			Dot:   dotBlock[float64],
			Sum:   sumBlock[float64],
			Max:   maxBlock[float64],
		},
	})
}

// addBlock computes dst[i] = a[i] + b[i], four elements per iteration.
func addBlock[T Float](dst, a, b []T) {
	checkLen3("Add", len(dst), len(a), len(b))

	i := 0
	for ; i+4 <= len(dst); i += 4 {
		d := dst[i : i+4 : i+4]
		aa := a[i : i+4 : i+4]
		bb := b[i : i+4 : i+4]
		d[0] = aa[0] + bb[0]
		d[1] = aa[1] + bb[1]
		d[2] = aa[2] + bb[2]
		d[3] = aa[3] + bb[3]
	}
	for ; i < len(dst); i++ {
		dst[i] = a[i] + b[i]
	}
}

// mulBlock computes dst[i] = a[i] * b[i], four elements per iteration.
func mulBlock[T Float](dst, a, b []T) {
	checkLen3("Mul", len(dst), len(a), len(b))

	i := 0
	for ; i+4 <= len(dst); i += 4 {
		d := dst[i : i+4 : i+4]
		aa := a[i : i+4 : i+4]
		bb := b[i : i+4 : i+4]
		d[0] = aa[0] * bb[0]
		d[1] = aa[1] * bb[1]
		d[2] = aa[2] * bb[2]
		d[3] = aa[3] * bb[3]
	}
	for ; i < len(dst); i++ {
		dst[i] = a[i] * b[i]
	}
}

// scaleBlock computes dst[i] = a[i] * alpha, four elements per iteration.
func scaleBlock[T Float](dst, a []T, alpha T) {
	checkLen2("Scale", len(dst), len(a))

	i := 0
	for ; i+4 <= len(dst); i += 4 {
		d := dst[i : i+4 : i+4]
		aa := a[i : i+4 : i+4]
		d[0] = aa[0] * alpha
		d[1] = aa[1] * alpha
		d[2] = aa[2] * alpha
		d[3] = aa[3] * alpha
	}
	for ; i < len(dst); i++ {
		dst[i] = a[i] * alpha
	}
}

// axpyBlock computes dst[i] = alpha*x[i] + y[i], four elements per iteration.
func axpyBlock[T Float](dst []T, alpha T, x, y []T) {
	checkLen3("Axpy", len(dst), len(x), len(y))

	i := 0
	for ; i+4 <= len(dst); i += 4 {
		d := dst[i : i+4 : i+4]
		xx := x[i : i+4 : i+4]
		yy := y[i : i+4 : i+4]
		d[0] = alpha*xx[0] + yy[0]
		d[1] = alpha*xx[1] + yy[1]
		d[2] = alpha*xx[2] + yy[2]
		d[3] = alpha*xx[3] + yy[3]
	}
	for ; i < len(dst); i++ {
		dst[i] = alpha*x[i] + y[i]
	}
}

// dotBlock returns the inner product using four independent partial sums.
// The result can differ from the sequential sum by float rounding since
// the additions associate differently.
func dotBlock[T Float](a, b []T) T {
	checkLen2("Dot", len(a), len(b))

	var s0, s1, s2, s3 T
	i := 0
	for ; i+4 <= len(a); i += 4 {
		aa := a[i : i+4 : i+4]
		bb := b[i : i+4 : i+4]
		s0 += aa[0] * bb[0]
		s1 += aa[1] * bb[1]
		s2 += aa[2] * bb[2]
		s3 += aa[3] * bb[3]
	}
	for ; i < len(a); i++ {
		s0 += a[i] * b[i]
	}
	return (s0 + s1) + (s2 + s3)
}

// sumBlock returns the element sum using four independent partial sums.
func sumBlock[T Float](a []T) T {
	var s0, s1, s2, s3 T
	i := 0
	for ; i+4 <= len(a); i += 4 {
		aa := a[i : i+4 : i+4]
		s0 += aa[0]
		s1 += aa[1]
		s2 += aa[2]
		s3 += aa[3]
	}
	for ; i < len(a); i++ {
		s0 += a[i]
	}
	return (s0 + s1) + (s2 + s3)
}

// maxBlock returns the largest element using four running maxima.
func maxBlock[T Float](a []T) T {
	if len(a) == 0 {
		panic("vec: Max of empty slice")
	}

	m0, m1, m2, m3 := a[0], a[0], a[0], a[0]
	i := 0
	for ; i+4 <= len(a); i += 4 {
		aa := a[i : i+4 : i+4]
		if aa[0] > m0 {
			m0 = aa[0]
		}
		if aa[1] > m1 {
			m1 = aa[1]
		}
		if aa[2] > m2 {
			m2 = aa[2]
		}
		if aa[3] > m3 {
			m3 = aa[3]
		}
	}
	for ; i < len(a); i++ {
		if a[i] > m0 {
			m0 = a[i]
		}
	}
	if m1 > m0 {
		m0 = m1
	}
	if m2 > m0 {
		m0 = m2
	}
	if m3 > m0 {
		m0 = m3
	}
	return m0
}
