package tensor

import (
	"testing"
)

func TestNewRawZeroInitialized(t *testing.T) {
	raw, err := NewRaw(Shape{3, 2}, Float32)
	if err != nil {
		t.Fatalf("NewRaw failed: %v", err)
	}

	data := raw.AsFloat32()
	if len(data) != 6 {
		t.Errorf("AsFloat32 length = %d, want 6", len(data))
	}
	for i, v := range data {
		if v != 0 {
			t.Errorf("data[%d] = %v, want 0", i, v)
		}
	}
}

func TestNewRawInvalidShape(t *testing.T) {
	if _, err := NewRaw(Shape{2, -1}, Float32); err == nil {
		t.Error("NewRaw with negative dimension should fail")
	}
}

func TestNewRawEmptyDim(t *testing.T) {
	raw, err := NewRaw(Shape{0, 4}, Float64)
	if err != nil {
		t.Fatalf("NewRaw with zero dimension failed: %v", err)
	}
	if raw.NumElements() != 0 {
		t.Errorf("NumElements = %d, want 0", raw.NumElements())
	}
	if got := raw.AsFloat64(); got != nil {
		t.Errorf("AsFloat64 on empty tensor = %v, want nil", got)
	}
}

func TestRawTensorScalar(t *testing.T) {
	raw, err := NewRaw(Shape{}, Float64)
	if err != nil {
		t.Fatalf("NewRaw scalar failed: %v", err)
	}
	if raw.NumElements() != 1 {
		t.Errorf("scalar NumElements = %d, want 1", raw.NumElements())
	}
	if raw.ByteSize() != 8 {
		t.Errorf("scalar ByteSize = %d, want 8", raw.ByteSize())
	}
}

func TestRawTensorAsInt64(t *testing.T) {
	raw, _ := NewRaw(Shape{3, 2}, Int64)
	data := raw.AsInt64()

	if len(data) != 6 {
		t.Errorf("AsInt64 length = %d, want 6", len(data))
	}

	// Modify and verify zero-copy
	data[0] = 42
	if raw.AsInt64()[0] != 42 {
		t.Error("AsInt64 should return zero-copy slice")
	}
}

func TestRawTensorAsWrongType(t *testing.T) {
	raw, _ := NewRaw(Shape{2}, Int32)

	defer func() {
		if recover() == nil {
			t.Error("AsFloat32 on int32 tensor should panic")
		}
	}()
	raw.AsFloat32()
}

func TestNewRawFromBytes(t *testing.T) {
	src := make([]byte, 4*4) // 4 float32 values
	raw, err := NewRawFromBytes(src, Shape{2, 2}, Float32)
	if err != nil {
		t.Fatalf("NewRawFromBytes failed: %v", err)
	}

	// Copies, does not alias
	raw.AsFloat32()[0] = 1.5
	if src[0] != 0 {
		t.Error("NewRawFromBytes should copy the input bytes")
	}
}

func TestNewRawFromBytesSizeMismatch(t *testing.T) {
	if _, err := NewRawFromBytes(make([]byte, 7), Shape{2}, Float32); err == nil {
		t.Error("NewRawFromBytes with wrong byte count should fail")
	}
}

func TestFromSlice(t *testing.T) {
	raw, err := FromSlice([]float32{1, 2, 3, 4, 5, 6}, Shape{2, 3})
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}

	data := raw.AsFloat32()
	want := []float32{1, 2, 3, 4, 5, 6}
	for i := range want {
		if data[i] != want[i] {
			t.Errorf("data[%d] = %v, want %v", i, data[i], want[i])
		}
	}
	if raw.DType() != Float32 {
		t.Errorf("DType = %v, want Float32", raw.DType())
	}
}

func TestFromSliceLengthMismatch(t *testing.T) {
	if _, err := FromSlice([]int64{1, 2, 3}, Shape{2, 2}); err == nil {
		t.Error("FromSlice with wrong length should fail")
	}
}

func TestRawTensorCloneSharesBuffer(t *testing.T) {
	a, _ := FromSlice([]float64{1, 2, 3}, Shape{3})
	b := a.Clone()

	b.AsFloat64()[1] = 99
	if a.AsFloat64()[1] != 99 {
		t.Error("Clone should share the underlying buffer")
	}

	b.Release()
	// a's buffer must survive b's release
	if a.AsFloat64()[0] != 1 {
		t.Error("buffer freed while references remain")
	}
	a.Release()
}

func TestRawTensorReleaseAfterFree(t *testing.T) {
	raw, _ := NewRaw(Shape{2}, Float32)
	raw.Release()

	defer func() {
		if recover() == nil {
			t.Error("Release on freed buffer should panic")
		}
	}()
	raw.Release()
}

func TestRawTensorRetain(t *testing.T) {
	raw, _ := FromSlice([]int32{7, 8}, Shape{2})
	raw.Retain()
	raw.Release()

	// Still one reference left
	if raw.AsInt32()[0] != 7 {
		t.Error("buffer freed while retained reference remains")
	}
	raw.Release()
}

func TestRawTensorString(t *testing.T) {
	raw, _ := NewRaw(Shape{2, 3}, Float32)
	got := raw.String()
	want := "RawTensor(float32, shape=[2 3])"
	if got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestDTypeSize(t *testing.T) {
	tests := []struct {
		dtype DType
		size  int
	}{
		{Float32, 4},
		{Float64, 8},
		{Int32, 4},
		{Int64, 8},
	}

	for _, tt := range tests {
		if got := tt.dtype.Size(); got != tt.size {
			t.Errorf("%s.Size() = %d, want %d", tt.dtype, got, tt.size)
		}
	}
}

func TestDTypeOf(t *testing.T) {
	if DTypeOf[float32]() != Float32 {
		t.Error("DTypeOf[float32] should be Float32")
	}
	if DTypeOf[float64]() != Float64 {
		t.Error("DTypeOf[float64] should be Float64")
	}
	if DTypeOf[int32]() != Int32 {
		t.Error("DTypeOf[int32] should be Int32")
	}
	if DTypeOf[int64]() != Int64 {
		t.Error("DTypeOf[int64] should be Int64")
	}
}
