package tensor

import (
	"fmt"
	"sync/atomic"
	"unsafe"
)

// tensorBuffer is a reference-counted shared buffer.
// It enables cheap cloning: clones share the bytes until released.
type tensorBuffer struct {
	data     []byte
	refCount atomic.Int32
}

// newTensorBuffer creates a new reference-counted buffer with refCount = 1.
func newTensorBuffer(size int) *tensorBuffer {
	buf := &tensorBuffer{
		data: make([]byte, size),
	}
	buf.refCount.Store(1)
	return buf
}

// addRef increments the reference count (for Clone operations).
func (tb *tensorBuffer) addRef() {
	tb.refCount.Add(1)
}

// release decrements the reference count and deallocates if it reaches 0.
// Releasing an already-freed buffer is a caller bug and panics.
func (tb *tensorBuffer) release() {
	n := tb.refCount.Add(-1)
	switch {
	case n == 0:
		tb.data = nil
	case n < 0:
		panic("tensor: release of already-freed buffer")
	}
}

// RawTensor is the low-level tensor representation: a reference-counted
// byte buffer plus shape, strides, and runtime type information.
type RawTensor struct {
	buffer *tensorBuffer
	shape  Shape
	stride []int
	dtype  DType
}

// NewRaw creates a new RawTensor with the given shape and type.
// Memory is allocated and zero-initialized.
func NewRaw(shape Shape, dtype DType) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}

	numElements := shape.NumElements()
	byteSize := numElements * dtype.Size()

	return &RawTensor{
		buffer: newTensorBuffer(byteSize),
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		dtype:  dtype,
	}, nil
}

// NewRawFromBytes creates a RawTensor over a copy of the given bytes.
// The byte length must match shape.NumElements() * dtype.Size().
func NewRawFromBytes(data []byte, shape Shape, dtype DType) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	want := shape.NumElements() * dtype.Size()
	if len(data) != want {
		return nil, fmt.Errorf("data size %d does not match shape %v of %s (need %d bytes)",
			len(data), shape, dtype, want)
	}

	buf := newTensorBuffer(want)
	copy(buf.data, data)
	return &RawTensor{
		buffer: buf,
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		dtype:  dtype,
	}, nil
}

// FromSlice creates a RawTensor holding a copy of the given elements.
// The slice length must match shape.NumElements().
func FromSlice[T Elem](data []T, shape Shape) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	if len(data) != shape.NumElements() {
		return nil, fmt.Errorf("slice length %d does not match shape %v (need %d elements)",
			len(data), shape, shape.NumElements())
	}

	dtype := DTypeOf[T]()
	raw := &RawTensor{
		buffer: newTensorBuffer(len(data) * dtype.Size()),
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		dtype:  dtype,
	}
	if len(data) > 0 {
		dst := unsafe.Slice((*T)(unsafe.Pointer(&raw.buffer.data[0])), len(data))
		copy(dst, data)
	}
	return raw, nil
}

// Shape returns the tensor's shape.
func (r *RawTensor) Shape() Shape {
	return r.shape
}

// Strides returns the tensor's memory strides.
func (r *RawTensor) Strides() []int {
	return r.stride
}

// DType returns the tensor's data type.
func (r *RawTensor) DType() DType {
	return r.dtype
}

// NumElements returns the total number of elements.
func (r *RawTensor) NumElements() int {
	return r.shape.NumElements()
}

// ByteSize returns the total memory size in bytes.
func (r *RawTensor) ByteSize() int {
	return r.NumElements() * r.dtype.Size()
}

// Data returns the raw byte slice.
// WARNING: Direct access to underlying memory. Use with caution.
func (r *RawTensor) Data() []byte {
	return r.buffer.data
}

// AsFloat32 interprets the data as []float32.
// Panics if the tensor's dtype is not Float32.
func (r *RawTensor) AsFloat32() []float32 {
	if r.dtype != Float32 {
		panic(fmt.Sprintf("tensor dtype is %s, not float32", r.dtype))
	}
	return rawAs[float32](r)
}

// AsFloat64 interprets the data as []float64.
// Panics if the tensor's dtype is not Float64.
func (r *RawTensor) AsFloat64() []float64 {
	if r.dtype != Float64 {
		panic(fmt.Sprintf("tensor dtype is %s, not float64", r.dtype))
	}
	return rawAs[float64](r)
}

// AsInt32 interprets the data as []int32.
// Panics if the tensor's dtype is not Int32.
func (r *RawTensor) AsInt32() []int32 {
	if r.dtype != Int32 {
		panic(fmt.Sprintf("tensor dtype is %s, not int32", r.dtype))
	}
	return rawAs[int32](r)
}

// AsInt64 interprets the data as []int64.
// Panics if the tensor's dtype is not Int64.
func (r *RawTensor) AsInt64() []int64 {
	if r.dtype != Int64 {
		panic(fmt.Sprintf("tensor dtype is %s, not int64", r.dtype))
	}
	return rawAs[int64](r)
}

// rawAs reinterprets the backing bytes as a typed slice without copying.
func rawAs[T Elem](r *RawTensor) []T {
	n := r.NumElements()
	if n == 0 {
		return nil
	}
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds checked by NumElements()
	return unsafe.Slice((*T)(unsafe.Pointer(&r.buffer.data[0])), n)
}

// Clone creates a shallow copy of the RawTensor.
// The buffer is shared and reference-counted; both copies see the same bytes.
func (r *RawTensor) Clone() *RawTensor {
	r.buffer.addRef()
	return &RawTensor{
		buffer: r.buffer,
		shape:  r.shape.Clone(),
		stride: append([]int(nil), r.stride...),
		dtype:  r.dtype,
	}
}

// Retain increments the buffer's reference count.
// Each Retain must be balanced by a Release.
func (r *RawTensor) Retain() {
	r.buffer.addRef()
}

// Release decrements the reference count and deallocates if it reaches 0.
func (r *RawTensor) Release() {
	r.buffer.release()
}

// String returns a short description of the tensor.
func (r *RawTensor) String() string {
	return fmt.Sprintf("RawTensor(%s, shape=%v)", r.dtype, r.shape)
}
