package onnxruntime

import (
	"fmt"
	"unsafe"

	"github.com/benedoc-inc/ortsession/onnxruntime/internal/api"
)

// tensorContents is a widened copy of a tensor value.
type tensorContents struct {
	elemType ONNXTensorElementDataType
	shape    []int64
	values   []float64
}

// valueType reports the declared ONNX type of v. The type info handle is
// registered in reg.
func (r *Runtime) valueType(reg *Registry, v api.OrtValue) (ONNXType, error) {
	var typeInfoPtr api.OrtTypeInfo
	status := r.apiFuncs.GetTypeInfo(v, &typeInfoPtr)
	if err := r.statusError(status); err != nil {
		return ONNXTypeUnknown, fmt.Errorf("failed to get type info: %w", err)
	}
	if _, err := r.acquireTypeInfo(reg, typeInfoPtr); err != nil {
		return ONNXTypeUnknown, err
	}

	var onnxType ONNXType
	status = r.apiFuncs.GetOnnxTypeFromTypeInfo(typeInfoPtr, &onnxType)
	if err := r.statusError(status); err != nil {
		return ONNXTypeUnknown, fmt.Errorf("failed to get ONNX type: %w", err)
	}
	return onnxType, nil
}

// valueKind reports the runtime type of v without allocating type info.
func (r *Runtime) valueKind(v api.OrtValue) (ONNXType, error) {
	var valueType ONNXType
	status := r.apiFuncs.GetValueType(v, &valueType)
	if err := r.statusError(status); err != nil {
		return ONNXTypeUnknown, fmt.Errorf("failed to get value type: %w", err)
	}
	return valueType, nil
}

// readTensor copies a numeric tensor out of native memory, widening every
// element to float64. The shape info handle is registered in reg.
func (r *Runtime) readTensor(reg *Registry, v api.OrtValue) (*tensorContents, error) {
	var infoPtr api.OrtTensorTypeAndShapeInfo
	status := r.apiFuncs.GetTensorTypeAndShape(v, &infoPtr)
	if err := r.statusError(status); err != nil {
		return nil, fmt.Errorf("failed to get tensor type and shape: %w", err)
	}
	if _, err := reg.Acquire(HandleKindTensorInfo, uintptr(infoPtr), func(p uintptr) {
		r.apiFuncs.ReleaseTensorTypeAndShapeInfo(api.OrtTensorTypeAndShapeInfo(p))
	}); err != nil {
		return nil, err
	}

	elemType, shape, err := r.readTensorShape(infoPtr)
	if err != nil {
		return nil, err
	}

	var count uintptr
	status = r.apiFuncs.GetTensorShapeElementCount(infoPtr, &count)
	if err := r.statusError(status); err != nil {
		return nil, fmt.Errorf("failed to get element count: %w", err)
	}

	tc := &tensorContents{elemType: elemType, shape: shape}
	if count == 0 {
		tc.values = []float64{}
		return tc, nil
	}
	if !isIntegerType(elemType) && !isFloatType(elemType) {
		return tc, nil
	}

	var dataPtr unsafe.Pointer
	status = r.apiFuncs.GetTensorMutableData(v, &dataPtr)
	if err := r.statusError(status); err != nil {
		return nil, fmt.Errorf("failed to get tensor data: %w", err)
	}
	if dataPtr == nil {
		return nil, fmt.Errorf("tensor of %d elements has no data", count)
	}

	tc.values = widen(elemType, dataPtr, int(count))
	return tc, nil
}

type number interface {
	~float32 | ~float64 |
		~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64
}

func widenSlice[T number](p unsafe.Pointer, n int) []float64 {
	src := unsafe.Slice((*T)(p), n)
	out := make([]float64, n)
	for i, x := range src {
		out[i] = float64(x)
	}
	return out
}

// widen converts n elements of type t at p to float64. It returns nil for
// non-numeric types.
func widen(t ONNXTensorElementDataType, p unsafe.Pointer, n int) []float64 {
	switch t {
	case ONNXTensorElementDataTypeFloat:
		return widenSlice[float32](p, n)
	case ONNXTensorElementDataTypeDouble:
		return widenSlice[float64](p, n)
	case ONNXTensorElementDataTypeInt8:
		return widenSlice[int8](p, n)
	case ONNXTensorElementDataTypeInt16:
		return widenSlice[int16](p, n)
	case ONNXTensorElementDataTypeInt32:
		return widenSlice[int32](p, n)
	case ONNXTensorElementDataTypeInt64:
		return widenSlice[int64](p, n)
	case ONNXTensorElementDataTypeUint8:
		return widenSlice[uint8](p, n)
	case ONNXTensorElementDataTypeUint16:
		return widenSlice[uint16](p, n)
	case ONNXTensorElementDataTypeUint32:
		return widenSlice[uint32](p, n)
	case ONNXTensorElementDataTypeUint64:
		return widenSlice[uint64](p, n)
	case ONNXTensorElementDataTypeFloat16:
		src := unsafe.Slice((*Float16)(p), n)
		out := make([]float64, n)
		for i, x := range src {
			out[i] = float64(x.Float32())
		}
		return out
	case ONNXTensorElementDataTypeBFloat16:
		src := unsafe.Slice((*BFloat16)(p), n)
		out := make([]float64, n)
		for i, x := range src {
			out[i] = float64(x.Float32())
		}
		return out
	default:
		return nil
	}
}
