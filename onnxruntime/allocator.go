package onnxruntime

import (
	"fmt"
	"unsafe"

	"github.com/benedoc-inc/ortsession/onnxruntime/internal/api"
)

// allocator is the backend's default allocator. It is owned by the library
// and never released; it only frees strings and arrays the backend hands out.
type allocator struct {
	ptr     api.OrtAllocator
	runtime *Runtime
}

// free frees memory allocated by the allocator (internal use)
func (a *allocator) free(ptr unsafe.Pointer) {
	if a.runtime == nil || a.runtime.apiFuncs == nil || ptr == nil {
		return
	}

	a.runtime.apiFuncs.AllocatorFree(a.ptr, ptr)
}

// memoryInfo describes where bound tensor buffers live (internal use only)
type memoryInfo struct {
	handle *Handle
}

func (mi *memoryInfo) ptr() (api.OrtMemoryInfo, error) {
	p, err := mi.handle.Ptr()
	return api.OrtMemoryInfo(p), err
}

// newCPUMemoryInfo describes arena-allocated CPU memory of the default type,
// the placement of every caller buffer handed to Bind.
func (r *Runtime) newCPUMemoryInfo() (*memoryInfo, error) {
	var miPtr api.OrtMemoryInfo
	status := r.apiFuncs.CreateCpuMemoryInfo(allocatorTypeArena, memTypeDefault, &miPtr)
	if err := r.statusError(status); err != nil {
		return nil, fmt.Errorf("failed to create CPU memory info: %w", err)
	}

	h, err := r.handles.Acquire(HandleKindMemoryInfo, uintptr(miPtr), func(p uintptr) {
		r.apiFuncs.ReleaseMemoryInfo(api.OrtMemoryInfo(p))
	})
	if err != nil {
		return nil, err
	}
	return &memoryInfo{handle: h}, nil
}
