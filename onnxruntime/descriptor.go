package onnxruntime

import (
	"fmt"
	"math"
	"math/bits"
	"strings"
)

// TensorData is a type constraint for supported tensor data types.
// It includes all numeric types, bool, Float16, and BFloat16 that are supported by ONNX Runtime.
// Float16 and BFloat16 are covered by ~uint16 since their underlying type is uint16.
type TensorData interface {
	~float32 | ~float64 |
		~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~bool
}

// TensorDescriptor is a concrete element type and shape for a tensor.
type TensorDescriptor struct {
	ElementType ONNXTensorElementDataType
	Shape       []int64
}

// ElementCount returns the product of the shape. A scalar (empty shape)
// holds one element. It returns -1 when a dimension is negative or the
// product does not fit in an int64.
func (d TensorDescriptor) ElementCount() int64 {
	n, ok := d.elementCount()
	if !ok {
		return -1
	}
	return int64(n)
}

// ByteSize returns the buffer length the descriptor requires, or 0 when the
// element type has no fixed size or the size overflows.
func (d TensorDescriptor) ByteSize() uintptr {
	n, ok := d.byteSize()
	if !ok {
		return 0
	}
	return n
}

func (d TensorDescriptor) elementCount() (uint64, bool) {
	n := uint64(1)
	for _, dim := range d.Shape {
		if dim < 0 {
			return 0, false
		}
		hi, lo := bits.Mul64(n, uint64(dim))
		if hi != 0 || lo > math.MaxInt64 {
			return 0, false
		}
		n = lo
	}
	return n, true
}

// byteSize is ByteSize with overflow reported separately from a zero
// element size.
func (d TensorDescriptor) byteSize() (uintptr, bool) {
	n, ok := d.elementCount()
	if !ok {
		return 0, false
	}
	hi, lo := bits.Mul64(n, uint64(ElementSize(d.ElementType)))
	if hi != 0 || lo > uint64(math.MaxInt64) || uint64(uintptr(lo)) != lo {
		return 0, false
	}
	return uintptr(lo), true
}

func (d TensorDescriptor) String() string {
	dims := make([]string, len(d.Shape))
	for i, dim := range d.Shape {
		dims[i] = fmt.Sprint(dim)
	}
	return fmt.Sprintf("%s[%s]", ElementTypeName(d.ElementType), strings.Join(dims, ","))
}

// ElementSize returns the size in bytes of one element of t, or 0 for types
// without a fixed-size representation (string, undefined).
func ElementSize(t ONNXTensorElementDataType) uintptr {
	switch t {
	case ONNXTensorElementDataTypeInt8, ONNXTensorElementDataTypeUint8, ONNXTensorElementDataTypeBool:
		return 1
	case ONNXTensorElementDataTypeInt16, ONNXTensorElementDataTypeUint16,
		ONNXTensorElementDataTypeFloat16, ONNXTensorElementDataTypeBFloat16:
		return 2
	case ONNXTensorElementDataTypeInt32, ONNXTensorElementDataTypeUint32, ONNXTensorElementDataTypeFloat:
		return 4
	case ONNXTensorElementDataTypeInt64, ONNXTensorElementDataTypeUint64,
		ONNXTensorElementDataTypeDouble, ONNXTensorElementDataTypeComplex64:
		return 8
	case ONNXTensorElementDataTypeComplex128:
		return 16
	default:
		return 0
	}
}

// ElementTypeName returns the lower-case ONNX name of t, e.g. "float" or "int64".
func ElementTypeName(t ONNXTensorElementDataType) string {
	switch t {
	case ONNXTensorElementDataTypeFloat:
		return "float"
	case ONNXTensorElementDataTypeUint8:
		return "uint8"
	case ONNXTensorElementDataTypeInt8:
		return "int8"
	case ONNXTensorElementDataTypeUint16:
		return "uint16"
	case ONNXTensorElementDataTypeInt16:
		return "int16"
	case ONNXTensorElementDataTypeInt32:
		return "int32"
	case ONNXTensorElementDataTypeInt64:
		return "int64"
	case ONNXTensorElementDataTypeString:
		return "string"
	case ONNXTensorElementDataTypeBool:
		return "bool"
	case ONNXTensorElementDataTypeFloat16:
		return "float16"
	case ONNXTensorElementDataTypeDouble:
		return "double"
	case ONNXTensorElementDataTypeUint32:
		return "uint32"
	case ONNXTensorElementDataTypeUint64:
		return "uint64"
	case ONNXTensorElementDataTypeComplex64:
		return "complex64"
	case ONNXTensorElementDataTypeComplex128:
		return "complex128"
	case ONNXTensorElementDataTypeBFloat16:
		return "bfloat16"
	default:
		return "undefined"
	}
}

// ONNXTypeName returns the name of an ONNX value type, e.g. "tensor".
func ONNXTypeName(t ONNXType) string {
	switch t {
	case ONNXTypeTensor:
		return "tensor"
	case ONNXTypeSequence:
		return "sequence"
	case ONNXTypeMap:
		return "map"
	case ONNXTypeOpaque:
		return "opaque"
	case ONNXTypeSparsetensor:
		return "sparse_tensor"
	case ONNXTypeOptional:
		return "optional"
	default:
		return "unknown"
	}
}

// isIntegerType reports whether t holds integer labels.
func isIntegerType(t ONNXTensorElementDataType) bool {
	switch t {
	case ONNXTensorElementDataTypeInt8, ONNXTensorElementDataTypeInt16,
		ONNXTensorElementDataTypeInt32, ONNXTensorElementDataTypeInt64,
		ONNXTensorElementDataTypeUint8, ONNXTensorElementDataTypeUint16,
		ONNXTensorElementDataTypeUint32, ONNXTensorElementDataTypeUint64:
		return true
	}
	return false
}

// isFloatType reports whether t is a real floating-point type.
func isFloatType(t ONNXTensorElementDataType) bool {
	switch t {
	case ONNXTensorElementDataTypeFloat, ONNXTensorElementDataTypeDouble,
		ONNXTensorElementDataTypeFloat16, ONNXTensorElementDataTypeBFloat16:
		return true
	}
	return false
}

// elementTypeOf maps a Go element type to its ONNX element type.
func elementTypeOf[T TensorData]() ONNXTensorElementDataType {
	var zero T
	switch any(zero).(type) {
	case float32:
		return ONNXTensorElementDataTypeFloat
	case float64:
		return ONNXTensorElementDataTypeDouble
	case int8:
		return ONNXTensorElementDataTypeInt8
	case int16:
		return ONNXTensorElementDataTypeInt16
	case int32:
		return ONNXTensorElementDataTypeInt32
	case int64:
		return ONNXTensorElementDataTypeInt64
	case uint8:
		return ONNXTensorElementDataTypeUint8
	case Float16:
		return ONNXTensorElementDataTypeFloat16
	case BFloat16:
		return ONNXTensorElementDataTypeBFloat16
	case uint16:
		return ONNXTensorElementDataTypeUint16
	case uint32:
		return ONNXTensorElementDataTypeUint32
	case uint64:
		return ONNXTensorElementDataTypeUint64
	case bool:
		return ONNXTensorElementDataTypeBool
	default:
		return ONNXTensorElementDataTypeUndefined
	}
}
