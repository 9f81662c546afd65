package onnxruntime

import (
	"fmt"

	"github.com/benedoc-inc/ortsession/onnxruntime/internal/api"
)

// ONNX maps are exposed as a two-element value: keys then values.
const (
	mapKeysIndex   = 0
	mapValuesIndex = 1
)

// sequenceLength returns the number of elements in a sequence or map value.
func (r *Runtime) sequenceLength(v api.OrtValue) (int, error) {
	var count uintptr
	status := r.apiFuncs.GetValueCount(v, &count)
	if err := r.statusError(status); err != nil {
		return 0, fmt.Errorf("failed to get sequence length: %w", err)
	}
	return int(count), nil
}

// element extracts element index of a sequence or map value. The element is
// a new value registered in reg.
func (r *Runtime) element(reg *Registry, v api.OrtValue, index int) (api.OrtValue, error) {
	if r.allocator == nil {
		return 0, fmt.Errorf("allocator not initialized")
	}

	var elemPtr api.OrtValue
	status := r.apiFuncs.GetValue(v, int32(index), r.allocator.ptr, &elemPtr)
	if err := r.statusError(status); err != nil {
		return 0, fmt.Errorf("failed to get element at index %d: %w", index, err)
	}
	if _, err := r.acquireValue(reg, elemPtr); err != nil {
		return 0, err
	}
	return elemPtr, nil
}

// mapValues extracts the values tensor of a map value, registered in reg.
func (r *Runtime) mapValues(reg *Registry, m api.OrtValue) (api.OrtValue, error) {
	v, err := r.element(reg, m, mapValuesIndex)
	if err != nil {
		return 0, fmt.Errorf("failed to get map values: %w", err)
	}
	return v, nil
}
