package fakeort

import (
	"slices"
	"unsafe"

	"github.com/benedoc-inc/ortsession/onnxruntime/internal/api"
)

// Element types understood by the fake backend. They mirror the values of
// ONNXTensorElementDataType.
const (
	Float   api.ONNXTensorElementDataType = 1
	Uint8   api.ONNXTensorElementDataType = 2
	Int8    api.ONNXTensorElementDataType = 3
	Uint16  api.ONNXTensorElementDataType = 4
	Int16   api.ONNXTensorElementDataType = 5
	Int32   api.ONNXTensorElementDataType = 6
	Int64   api.ONNXTensorElementDataType = 7
	String  api.ONNXTensorElementDataType = 8
	Bool    api.ONNXTensorElementDataType = 9
	Float16 api.ONNXTensorElementDataType = 10
	Double  api.ONNXTensorElementDataType = 11
	Uint32  api.ONNXTensorElementDataType = 12
	Uint64  api.ONNXTensorElementDataType = 13
)

// Value types.
const (
	TypeTensor   api.ONNXType = 1
	TypeSequence api.ONNXType = 2
	TypeMap      api.ONNXType = 3
	TypeOpaque   api.ONNXType = 4
)

// Value is a backend value: a tensor, a sequence, or a map.
type Value struct {
	Type     api.ONNXType
	ElemType api.ONNXTensorElementDataType
	Shape    []int64

	// Data is the raw tensor buffer. For a bound input it aliases the
	// caller's memory.
	Data []byte

	// Elems holds sequence elements, or [keys, values] for a map.
	Elems []*Value
}

// DataPointer returns the address of the tensor buffer, or nil.
func (v *Value) DataPointer() unsafe.Pointer {
	if len(v.Data) == 0 {
		return nil
	}
	return unsafe.Pointer(&v.Data[0])
}

// Float32s returns a copy of a float tensor's elements.
func (v *Value) Float32s() []float32 {
	return view[float32](v)
}

// Int64s returns a copy of an int64 tensor's elements.
func (v *Value) Int64s() []int64 {
	return view[int64](v)
}

func view[T any](v *Value) []T {
	var zero T
	n := len(v.Data) / int(unsafe.Sizeof(zero))
	if n == 0 {
		return nil
	}
	return slices.Clone(unsafe.Slice((*T)(unsafe.Pointer(&v.Data[0])), n))
}

// Tensor builds a tensor value holding a copy of data.
func Tensor[T any](elemType api.ONNXTensorElementDataType, shape []int64, data []T) *Value {
	var raw []byte
	if len(data) > 0 {
		var zero T
		size := len(data) * int(unsafe.Sizeof(zero))
		raw = slices.Clone(unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), size))
	}
	return &Value{
		Type:     TypeTensor,
		ElemType: elemType,
		Shape:    slices.Clone(shape),
		Data:     raw,
	}
}

// Float32Tensor builds a float tensor.
func Float32Tensor(shape []int64, data ...float32) *Value {
	return Tensor(Float, shape, data)
}

// Int64Tensor builds an int64 tensor.
func Int64Tensor(shape []int64, data ...int64) *Value {
	return Tensor(Int64, shape, data)
}

// StringTensor builds a string tensor. Its contents are not modelled.
func StringTensor(shape []int64) *Value {
	return &Value{Type: TypeTensor, ElemType: String, Shape: slices.Clone(shape)}
}

// Opaque builds a value of opaque type.
func Opaque() *Value {
	return &Value{Type: TypeOpaque}
}

// Sequence builds a sequence value.
func Sequence(elems ...*Value) *Value {
	return &Value{Type: TypeSequence, Elems: elems}
}

// Map builds a map value from a keys tensor and a values tensor.
func Map(keys, values *Value) *Value {
	return &Value{Type: TypeMap, Elems: []*Value{keys, values}}
}

// ProbabilityMaps builds a sequence of int64→float maps, the output layout of
// ZipMap-terminated classifiers. Keys are ordered ascending.
func ProbabilityMaps(maps ...map[int64]float32) *Value {
	elems := make([]*Value, len(maps))
	for i, m := range maps {
		keys := make([]int64, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		probs := make([]float32, len(keys))
		for j, k := range keys {
			probs[j] = m[k]
		}
		n := int64(len(keys))
		elems[i] = Map(Int64Tensor([]int64{n}, keys...), Float32Tensor([]int64{n}, probs...))
	}
	return Sequence(elems...)
}

func elementSize(t api.ONNXTensorElementDataType) int {
	switch t {
	case Uint8, Int8, Bool:
		return 1
	case Uint16, Int16, Float16:
		return 2
	case Float, Int32, Uint32:
		return 4
	case Int64, Uint64, Double:
		return 8
	case 16: // bfloat16
		return 2
	default:
		return 0
	}
}

func elementCount(shape []int64) int64 {
	n := int64(1)
	for _, d := range shape {
		n *= d
	}
	return n
}

// shapeMatches reports whether actual satisfies declared, where a
// non-positive declared dimension matches any size.
func shapeMatches(declared, actual []int64) bool {
	if len(declared) != len(actual) {
		return false
	}
	for i, d := range declared {
		if d > 0 && d != actual[i] {
			return false
		}
	}
	return true
}
