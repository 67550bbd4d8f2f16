// Package tensor provides the dense array types shared by the parlab
// compute packages.
package tensor

// Elem is a constraint for supported element types.
type Elem interface {
	~float32 | ~float64 | ~int32 | ~int64
}

// DType represents runtime type information for tensors.
type DType int

// Supported data types for tensors.
const (
	Float32 DType = iota
	Float64
	Int32
	Int64
)

// Size returns the byte size of the data type.
func (dt DType) Size() int {
	switch dt {
	case Float32, Int32:
		return 4
	case Float64, Int64:
		return 8
	default:
		panic("unknown data type")
	}
}

// String returns a human-readable name for the data type.
func (dt DType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	default:
		return "unknown"
	}
}

// DTypeOf returns the DType matching a generic element type T.
func DTypeOf[T Elem]() DType {
	var zero T
	switch any(zero).(type) {
	case float32:
		return Float32
	case float64:
		return Float64
	case int32:
		return Int32
	case int64:
		return Int64
	default:
		panic("unsupported type")
	}
}
