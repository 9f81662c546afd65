package onnxruntime

import (
	"fmt"
	"unsafe"

	"github.com/benedoc-inc/ortsession/internal/cstrings"
	"github.com/benedoc-inc/ortsession/onnxruntime/internal/api"
)

// ModelMetadata contains metadata about an ONNX model.
// It is a plain snapshot; no native handle is kept.
type ModelMetadata struct {
	ProducerName   string
	GraphName      string
	Domain         string
	Description    string
	Version        int64
	CustomMetadata map[string]string
}

// ModelMetadata reads the model's metadata from the session.
func (s *Session) ModelMetadata() (*ModelMetadata, error) {
	ptr, err := s.ptr()
	if err != nil {
		return nil, err
	}

	if s.runtime.allocator == nil {
		return nil, fmt.Errorf("allocator not initialized")
	}

	var metadataPtr api.OrtModelMetadata
	status := s.runtime.apiFuncs.SessionGetModelMetadata(ptr, &metadataPtr)
	if err := s.runtime.statusError(status); err != nil {
		return nil, fmt.Errorf("%w: failed to get model metadata: %w", ErrMetadata, err)
	}

	reg := NewRegistry()
	defer reg.ReleaseAll()
	if _, err := reg.Acquire(HandleKindModelMetadata, uintptr(metadataPtr), func(p uintptr) {
		s.runtime.apiFuncs.ReleaseModelMetadata(api.OrtModelMetadata(p))
	}); err != nil {
		return nil, err
	}

	alloc := s.runtime.allocator
	result := &ModelMetadata{}

	fields := []struct {
		name string
		get  func(api.OrtModelMetadata, api.OrtAllocator, **byte) api.OrtStatus
		dst  *string
	}{
		{"producer name", s.runtime.apiFuncs.ModelMetadataGetProducerName, &result.ProducerName},
		{"graph name", s.runtime.apiFuncs.ModelMetadataGetGraphName, &result.GraphName},
		{"domain", s.runtime.apiFuncs.ModelMetadataGetDomain, &result.Domain},
		{"description", s.runtime.apiFuncs.ModelMetadataGetDescription, &result.Description},
	}
	for _, f := range fields {
		var valuePtr *byte
		status = f.get(metadataPtr, alloc.ptr, &valuePtr)
		if err := s.runtime.statusError(status); err != nil {
			return nil, fmt.Errorf("%w: failed to get %s: %w", ErrMetadata, f.name, err)
		}
		*f.dst = cstrings.CStringToString(valuePtr)
		alloc.free(unsafe.Pointer(valuePtr))
	}

	// Version
	status = s.runtime.apiFuncs.ModelMetadataGetVersion(metadataPtr, &result.Version)
	if err := s.runtime.statusError(status); err != nil {
		return nil, fmt.Errorf("%w: failed to get version: %w", ErrMetadata, err)
	}

	// Custom metadata keys
	var keysPtr **byte
	var numKeys int64
	status = s.runtime.apiFuncs.ModelMetadataGetCustomMetadataMapKeys(metadataPtr, alloc.ptr, &keysPtr, &numKeys)
	if err := s.runtime.statusError(status); err != nil {
		return nil, fmt.Errorf("%w: failed to get custom metadata keys: %w", ErrMetadata, err)
	}

	result.CustomMetadata = make(map[string]string, numKeys)
	if numKeys <= 0 || keysPtr == nil {
		return result, nil
	}

	// Every key and the key array itself belong to the allocator.
	keyPtrs := unsafe.Slice(keysPtr, numKeys)
	keys := make([]string, numKeys)
	for i, kp := range keyPtrs {
		keys[i] = cstrings.CStringToString(kp)
		alloc.free(unsafe.Pointer(kp))
	}
	alloc.free(unsafe.Pointer(keysPtr))

	for _, key := range keys {
		keyBytes := cstrings.CString(key)
		var valuePtr *byte
		status = s.runtime.apiFuncs.ModelMetadataLookupCustomMetadataMap(metadataPtr, alloc.ptr, &keyBytes[0], &valuePtr)
		if err := s.runtime.statusError(status); err != nil {
			return nil, fmt.Errorf("%w: failed to get custom metadata value for key %q: %w", ErrMetadata, key, err)
		}
		result.CustomMetadata[key] = cstrings.CStringToString(valuePtr)
		alloc.free(unsafe.Pointer(valuePtr))
	}

	return result, nil
}
