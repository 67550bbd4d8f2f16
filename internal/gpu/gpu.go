// Package gpu defines the device abstraction for the offload lab:
// explicit buffers, explicit host/device transfers, and the three
// kernels the transcripts exercise (saxpy, matmul, reduction).
//
// Transfers are deliberately explicit. The point of the lab is that
// the copy cost is part of the program, not hidden behind a cache.
package gpu

// Buffer is an opaque device allocation of float32 elements.
// Buffers belong to the device that allocated them; handing a buffer
// to another device is an error.
type Buffer interface {
	// Len returns the element capacity of the buffer.
	Len() int
}

// Device is a compute device with explicit memory management.
//
// Kernels operate on the first n elements of their buffers and return
// an error when n exceeds a buffer's capacity. A zero n is a no-op.
type Device interface {
	// Name identifies the device in transcripts.
	Name() string

	// Alloc creates a device buffer holding n float32 elements.
	Alloc(n int) (Buffer, error)
	// Upload copies src into the front of dst.
	Upload(dst Buffer, src []float32) error
	// Download copies the front of src into dst.
	Download(dst []float32, src Buffer) error
	// Free returns a buffer to the device. The buffer must not be
	// used afterwards.
	Free(b Buffer)

	// Saxpy computes y[i] = alpha*x[i] + y[i] for i in [0, n).
	Saxpy(alpha float32, x, y Buffer, n int) error
	// MatMul computes C = A @ B for row-major A [m,k], B [k,n], C [m,n].
	MatMul(a, b, c Buffer, m, k, n int) error
	// Reduce returns the sum of the first n elements of x.
	Reduce(x Buffer, n int) (float32, error)

	// Release frees all device resources. The device must not be
	// used afterwards.
	Release()
}
