// Package cpu implements the gpu.Device interface on the host. It is
// the reference device the GPU backends are checked against: kernels
// run through the vec dispatch table, with row parallelism from the
// work package.
package cpu

import (
	"fmt"

	"github.com/parlab-go/parlab/internal/gpu"
	"github.com/parlab-go/parlab/internal/vec"
	"github.com/parlab-go/parlab/internal/work"
)

// hostBuffer is a plain slice behind the gpu.Buffer interface.
type hostBuffer struct {
	data []float32
}

// Len returns the element capacity of the buffer.
func (b *hostBuffer) Len() int { return len(b.data) }

// Device executes kernels on the host.
type Device struct {
	cfg work.Config
}

var _ gpu.Device = (*Device)(nil)

// New returns the host reference device.
func New() *Device {
	return &Device{cfg: work.DefaultConfig()}
}

// Name identifies the device in transcripts.
func (d *Device) Name() string { return "cpu" }

// Alloc creates a zero-initialized host buffer of n elements.
func (d *Device) Alloc(n int) (gpu.Buffer, error) {
	if n < 0 {
		return nil, fmt.Errorf("cpu: invalid buffer size %d", n)
	}
	return &hostBuffer{data: make([]float32, n)}, nil
}

// hostBuf checks that a buffer was allocated by this device.
func (d *Device) hostBuf(b gpu.Buffer) (*hostBuffer, error) {
	hb, ok := b.(*hostBuffer)
	if !ok {
		return nil, fmt.Errorf("cpu: buffer of type %T does not belong to this device", b)
	}
	return hb, nil
}

// Upload copies src into the front of dst.
func (d *Device) Upload(dst gpu.Buffer, src []float32) error {
	hb, err := d.hostBuf(dst)
	if err != nil {
		return err
	}
	if len(src) > len(hb.data) {
		return fmt.Errorf("cpu: upload of %d elements into buffer of %d", len(src), len(hb.data))
	}
	copy(hb.data, src)
	return nil
}

// Download copies the front of src into dst.
func (d *Device) Download(dst []float32, src gpu.Buffer) error {
	hb, err := d.hostBuf(src)
	if err != nil {
		return err
	}
	if len(dst) > len(hb.data) {
		return fmt.Errorf("cpu: download of %d elements from buffer of %d", len(dst), len(hb.data))
	}
	copy(dst, hb.data)
	return nil
}

// Free drops the buffer's backing storage so later use fails loudly.
func (d *Device) Free(b gpu.Buffer) {
	if hb, ok := b.(*hostBuffer); ok {
		hb.data = nil
	}
}

// Saxpy computes y[i] = alpha*x[i] + y[i] for i in [0, n).
func (d *Device) Saxpy(alpha float32, x, y gpu.Buffer, n int) error {
	xb, err := d.hostBuf(x)
	if err != nil {
		return err
	}
	yb, err := d.hostBuf(y)
	if err != nil {
		return err
	}
	if n < 0 || n > len(xb.data) || n > len(yb.data) {
		return fmt.Errorf("cpu: saxpy over %d elements with buffers of %d and %d", n, len(xb.data), len(yb.data))
	}
	if n == 0 {
		return nil
	}
	vec.Axpy(yb.data[:n], alpha, xb.data[:n], yb.data[:n])
	return nil
}

// MatMul computes C = A @ B for row-major A [m,k], B [k,n], C [m,n].
// Rows of C are computed in parallel; each row is a sequence of axpy
// updates C[i,:] += A[i,kk] * B[kk,:], so the inner loop streams
// through the same kernels the vec lab benchmarks.
func (d *Device) MatMul(a, b, c gpu.Buffer, m, k, n int) error {
	ab, err := d.hostBuf(a)
	if err != nil {
		return err
	}
	bb, err := d.hostBuf(b)
	if err != nil {
		return err
	}
	cb, err := d.hostBuf(c)
	if err != nil {
		return err
	}
	if m < 0 || k < 0 || n < 0 {
		return fmt.Errorf("cpu: matmul with negative dimensions [%d,%d] @ [%d,%d]", m, k, k, n)
	}
	if len(ab.data) < m*k || len(bb.data) < k*n || len(cb.data) < m*n {
		return fmt.Errorf("cpu: matmul [%d,%d] @ [%d,%d] exceeds buffer capacities %d, %d, %d",
			m, k, k, n, len(ab.data), len(bb.data), len(cb.data))
	}
	if m == 0 || n == 0 {
		return nil
	}

	work.For(m, func(i int) {
		row := cb.data[i*n : (i+1)*n]
		for j := range row {
			row[j] = 0
		}
		for kk := 0; kk < k; kk++ {
			vec.Axpy(row, ab.data[i*k+kk], bb.data[kk*n:(kk+1)*n], row)
		}
	}, d.cfg)
	return nil
}

// Reduce returns the sum of the first n elements of x.
func (d *Device) Reduce(x gpu.Buffer, n int) (float32, error) {
	xb, err := d.hostBuf(x)
	if err != nil {
		return 0, err
	}
	if n < 0 || n > len(xb.data) {
		return 0, fmt.Errorf("cpu: reduce over %d elements with buffer of %d", n, len(xb.data))
	}
	if n == 0 {
		return 0, nil
	}
	return vec.Sum(xb.data[:n]), nil
}

// Release is a no-op; host buffers are garbage collected.
func (d *Device) Release() {}
