package cpu

import (
	"testing"

	"github.com/parlab-go/parlab/internal/gpu"
)

// fakeBuffer stands in for a buffer allocated by some other device.
type fakeBuffer struct{}

func (fakeBuffer) Len() int { return 16 }

func newBuffer(t *testing.T, d *Device, data []float32) gpu.Buffer {
	t.Helper()
	buf, err := d.Alloc(len(data))
	if err != nil {
		t.Fatalf("Alloc(%d) failed: %v", len(data), err)
	}
	if err := d.Upload(buf, data); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	return buf
}

func TestAllocZeroInitialized(t *testing.T) {
	d := New()
	buf, err := d.Alloc(8)
	if err != nil {
		t.Fatalf("Alloc(8) failed: %v", err)
	}
	if buf.Len() != 8 {
		t.Errorf("Len() = %d, want 8", buf.Len())
	}

	out := make([]float32, 8)
	if err := d.Download(out, buf); err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	for i, v := range out {
		if v != 0 {
			t.Errorf("element %d = %v, want 0", i, v)
		}
	}
}

func TestAllocNegative(t *testing.T) {
	d := New()
	if _, err := d.Alloc(-1); err == nil {
		t.Error("expected error for negative size, got nil")
	}
}

func TestUploadDownloadRoundTrip(t *testing.T) {
	d := New()
	data := []float32{1, 2, 3, 4, 5}
	buf := newBuffer(t, d, data)

	out := make([]float32, 5)
	if err := d.Download(out, buf); err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	for i := range data {
		if out[i] != data[i] {
			t.Errorf("element %d = %v, want %v", i, out[i], data[i])
		}
	}
}

func TestUploadTooLarge(t *testing.T) {
	d := New()
	buf, _ := d.Alloc(2)
	if err := d.Upload(buf, []float32{1, 2, 3}); err == nil {
		t.Error("expected error for oversized upload, got nil")
	}
}

func TestDownloadTooLarge(t *testing.T) {
	d := New()
	buf, _ := d.Alloc(2)
	out := make([]float32, 3)
	if err := d.Download(out, buf); err == nil {
		t.Error("expected error for oversized download, got nil")
	}
}

func TestSaxpy(t *testing.T) {
	d := New()
	x := newBuffer(t, d, []float32{1, 2, 3, 4})
	y := newBuffer(t, d, []float32{10, 20, 30, 40})

	if err := d.Saxpy(2, x, y, 4); err != nil {
		t.Fatalf("Saxpy failed: %v", err)
	}

	out := make([]float32, 4)
	if err := d.Download(out, y); err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	want := []float32{12, 24, 36, 48}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("element %d = %v, want %v", i, out[i], want[i])
		}
	}
}

func TestSaxpyZeroN(t *testing.T) {
	d := New()
	x := newBuffer(t, d, []float32{1, 2})
	y := newBuffer(t, d, []float32{5, 6})

	if err := d.Saxpy(3, x, y, 0); err != nil {
		t.Fatalf("Saxpy with n=0 failed: %v", err)
	}

	out := make([]float32, 2)
	if err := d.Download(out, y); err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	if out[0] != 5 || out[1] != 6 {
		t.Errorf("y = %v, want unchanged [5 6]", out)
	}
}

func TestSaxpyBounds(t *testing.T) {
	d := New()
	x, _ := d.Alloc(4)
	y, _ := d.Alloc(2)

	if err := d.Saxpy(1, x, y, 4); err == nil {
		t.Error("expected error for n beyond y capacity, got nil")
	}
	if err := d.Saxpy(1, x, y, -1); err == nil {
		t.Error("expected error for negative n, got nil")
	}
}

func TestMatMulSmall(t *testing.T) {
	d := New()
	// [1 2 3]   [7  8]   [ 58  64]
	// [4 5 6] @ [9 10] = [139 154]
	//           [11 12]
	a := newBuffer(t, d, []float32{1, 2, 3, 4, 5, 6})
	b := newBuffer(t, d, []float32{7, 8, 9, 10, 11, 12})
	c, _ := d.Alloc(4)

	if err := d.MatMul(a, b, c, 2, 3, 2); err != nil {
		t.Fatalf("MatMul failed: %v", err)
	}

	out := make([]float32, 4)
	if err := d.Download(out, c); err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	want := []float32{58, 64, 139, 154}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("element %d = %v, want %v", i, out[i], want[i])
		}
	}
}

// TestMatMulParallelRows uses enough rows to cross the parallel
// threshold. Small integer values keep float32 arithmetic exact, so
// the comparison against the sequential oracle is equality.
func TestMatMulParallelRows(t *testing.T) {
	d := New()
	const m, k, n = 128, 16, 8

	aData := make([]float32, m*k)
	bData := make([]float32, k*n)
	for i := range aData {
		aData[i] = float32(i%7 - 3)
	}
	for i := range bData {
		bData[i] = float32(i%5 - 2)
	}

	a := newBuffer(t, d, aData)
	b := newBuffer(t, d, bData)
	c, _ := d.Alloc(m * n)

	if err := d.MatMul(a, b, c, m, k, n); err != nil {
		t.Fatalf("MatMul failed: %v", err)
	}

	out := make([]float32, m*n)
	if err := d.Download(out, c); err != nil {
		t.Fatalf("Download failed: %v", err)
	}

	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			var sum float32
			for kk := 0; kk < k; kk++ {
				sum += aData[i*k+kk] * bData[kk*n+j]
			}
			if out[i*n+j] != sum {
				t.Fatalf("C[%d,%d] = %v, want %v", i, j, out[i*n+j], sum)
			}
		}
	}
}

func TestMatMulZeroInner(t *testing.T) {
	d := New()
	a, _ := d.Alloc(0)
	b, _ := d.Alloc(0)
	c := newBuffer(t, d, []float32{9, 9, 9, 9})

	// k=0 means C = A @ B is the zero matrix.
	if err := d.MatMul(a, b, c, 2, 0, 2); err != nil {
		t.Fatalf("MatMul with k=0 failed: %v", err)
	}

	out := make([]float32, 4)
	if err := d.Download(out, c); err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	for i, v := range out {
		if v != 0 {
			t.Errorf("element %d = %v, want 0", i, v)
		}
	}
}

func TestMatMulBounds(t *testing.T) {
	d := New()
	a, _ := d.Alloc(4)
	b, _ := d.Alloc(4)
	c, _ := d.Alloc(2)

	if err := d.MatMul(a, b, c, 2, 2, 2); err == nil {
		t.Error("expected error for undersized result buffer, got nil")
	}
	if err := d.MatMul(a, b, c, -1, 2, 2); err == nil {
		t.Error("expected error for negative dimension, got nil")
	}
}

func TestReduce(t *testing.T) {
	d := New()
	data := make([]float32, 100)
	for i := range data {
		data[i] = float32(i + 1)
	}
	x := newBuffer(t, d, data)

	got, err := d.Reduce(x, 100)
	if err != nil {
		t.Fatalf("Reduce failed: %v", err)
	}
	if got != 5050 {
		t.Errorf("Reduce = %v, want 5050", got)
	}
}

func TestReduceZeroN(t *testing.T) {
	d := New()
	x := newBuffer(t, d, []float32{1, 2, 3})

	got, err := d.Reduce(x, 0)
	if err != nil {
		t.Fatalf("Reduce with n=0 failed: %v", err)
	}
	if got != 0 {
		t.Errorf("Reduce = %v, want 0", got)
	}
}

func TestForeignBuffer(t *testing.T) {
	d := New()
	own, _ := d.Alloc(4)
	foreign := fakeBuffer{}

	if err := d.Upload(foreign, []float32{1}); err == nil {
		t.Error("Upload accepted a foreign buffer")
	}
	if err := d.Download(make([]float32, 1), foreign); err == nil {
		t.Error("Download accepted a foreign buffer")
	}
	if err := d.Saxpy(1, foreign, own, 1); err == nil {
		t.Error("Saxpy accepted a foreign buffer")
	}
	if err := d.MatMul(foreign, own, own, 1, 1, 1); err == nil {
		t.Error("MatMul accepted a foreign buffer")
	}
	if _, err := d.Reduce(foreign, 1); err == nil {
		t.Error("Reduce accepted a foreign buffer")
	}
}

func TestFreeInvalidatesBuffer(t *testing.T) {
	d := New()
	buf := newBuffer(t, d, []float32{1, 2, 3})
	d.Free(buf)

	if err := d.Upload(buf, []float32{1}); err == nil {
		t.Error("expected error on upload after Free, got nil")
	}
}
