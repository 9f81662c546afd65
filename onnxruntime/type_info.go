package onnxruntime

import (
	"fmt"

	"github.com/benedoc-inc/ortsession/onnxruntime/internal/api"
)

// TensorTypeInfo describes the element type and shape of a tensor.
// Dynamic dimensions are reported as declared (usually -1).
type TensorTypeInfo struct {
	ElementType ONNXTensorElementDataType
	Shape       []int64
}

// IOInfo describes a model input or output: its name, value type, and
// tensor info when the value is a tensor.
type IOInfo struct {
	Name       string
	Type       ONNXType
	TensorInfo *TensorTypeInfo // non-nil when Type == ONNXTypeTensor
}

// InputInfo returns complete type information for all model inputs.
func (s *Session) InputInfo() ([]IOInfo, error) {
	return s.ioInfo(true, s.inputNames)
}

// OutputInfo returns complete type information for all model outputs.
func (s *Session) OutputInfo() ([]IOInfo, error) {
	return s.ioInfo(false, s.outputNames)
}

func (s *Session) ioInfo(isInput bool, names []string) ([]IOInfo, error) {
	reg := NewRegistry()
	defer reg.ReleaseAll()

	infos := make([]IOInfo, len(names))
	for i, name := range names {
		info, err := s.getTypeInfo(reg, isInput, i)
		if err != nil {
			return nil, fmt.Errorf("failed to get type info for %q: %w", name, err)
		}
		infos[i] = IOInfo{
			Name:       name,
			Type:       info.onnxType,
			TensorInfo: info.tensorInfo,
		}
	}

	return infos, nil
}

type rawTypeInfo struct {
	onnxType   ONNXType
	tensorInfo *TensorTypeInfo
}

// getTypeInfo reads the declared type of input or output index. The type
// info handle is registered in reg.
func (s *Session) getTypeInfo(reg *Registry, isInput bool, index int) (*rawTypeInfo, error) {
	ptr, err := s.ptr()
	if err != nil {
		return nil, err
	}

	var typeInfoPtr api.OrtTypeInfo
	var status api.OrtStatus
	if isInput {
		status = s.runtime.apiFuncs.SessionGetInputTypeInfo(ptr, uintptr(index), &typeInfoPtr)
	} else {
		status = s.runtime.apiFuncs.SessionGetOutputTypeInfo(ptr, uintptr(index), &typeInfoPtr)
	}
	if err := s.runtime.statusError(status); err != nil {
		return nil, err
	}

	if _, err := s.runtime.acquireTypeInfo(reg, typeInfoPtr); err != nil {
		return nil, err
	}

	return s.runtime.readTypeInfo(typeInfoPtr)
}

func (r *Runtime) acquireTypeInfo(reg *Registry, p api.OrtTypeInfo) (*Handle, error) {
	return reg.Acquire(HandleKindTypeInfo, uintptr(p), func(p uintptr) {
		r.apiFuncs.ReleaseTypeInfo(api.OrtTypeInfo(p))
	})
}

// readTypeInfo decodes a type info the caller keeps alive.
func (r *Runtime) readTypeInfo(typeInfoPtr api.OrtTypeInfo) (*rawTypeInfo, error) {
	var onnxType ONNXType
	status := r.apiFuncs.GetOnnxTypeFromTypeInfo(typeInfoPtr, &onnxType)
	if err := r.statusError(status); err != nil {
		return nil, fmt.Errorf("failed to get ONNX type: %w", err)
	}

	result := &rawTypeInfo{onnxType: onnxType}
	if onnxType != ONNXTypeTensor {
		return result, nil
	}

	var tensorInfoPtr api.OrtTensorTypeAndShapeInfo
	status = r.apiFuncs.CastTypeInfoToTensorInfo(typeInfoPtr, &tensorInfoPtr)
	if err := r.statusError(status); err != nil {
		return nil, fmt.Errorf("failed to cast to tensor info: %w", err)
	}
	// tensorInfoPtr is owned by typeInfoPtr and is not released separately.

	elemType, dims, err := r.readTensorShape(tensorInfoPtr)
	if err != nil {
		return nil, err
	}

	result.tensorInfo = &TensorTypeInfo{
		ElementType: elemType,
		Shape:       dims,
	}
	return result, nil
}

// readTensorShape reads the element type and dimensions from tensor info.
func (r *Runtime) readTensorShape(info api.OrtTensorTypeAndShapeInfo) (ONNXTensorElementDataType, []int64, error) {
	var elemType ONNXTensorElementDataType
	status := r.apiFuncs.GetTensorElementType(info, &elemType)
	if err := r.statusError(status); err != nil {
		return 0, nil, fmt.Errorf("failed to get element type: %w", err)
	}

	var dimCount uintptr
	status = r.apiFuncs.GetDimensionsCount(info, &dimCount)
	if err := r.statusError(status); err != nil {
		return 0, nil, fmt.Errorf("failed to get dimensions count: %w", err)
	}

	dims := make([]int64, dimCount)
	if dimCount > 0 {
		status = r.apiFuncs.GetDimensions(info, &dims[0], dimCount)
		if err := r.statusError(status); err != nil {
			return 0, nil, fmt.Errorf("failed to get dimensions (count %d): %w", dimCount, err)
		}
	}

	return elemType, dims, nil
}
