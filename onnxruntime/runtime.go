package onnxruntime

import (
	"fmt"
	"os"
	"sync"
	"unsafe"

	"github.com/benedoc-inc/ortsession/internal/cstrings"
	"github.com/benedoc-inc/ortsession/onnxruntime/internal/api"
	v23 "github.com/benedoc-inc/ortsession/onnxruntime/internal/api/v23"
)

// LibraryPathEnv names the environment variable consulted when NewRuntime is
// given an empty library path.
const LibraryPathEnv = "ONNXRUNTIME_LIB_PATH"

// Runtime is the loaded inference backend. It owns the process-wide state
// every session depends on: the shared library, the resolved C API table,
// the default allocator, the CPU memory descriptor and the shared
// environment. Create one Runtime and pass it to every model load.
//
// A Runtime is safe for concurrent use. Close it after every Model built
// from it has been closed.
type Runtime struct {
	libraryHandle uintptr
	apiFuncs      api.APIFuncs

	// handles owns the environment, the memory info and one scope per
	// loaded model, so Close tears them down in reverse order.
	handles *Registry

	allocator     *allocator
	cpuMemoryInfo *memoryInfo

	envOnce sync.Once
	env     *Env
	envErr  error

	closeOnce sync.Once
}

// NewRuntime loads the ONNX Runtime shared library at libraryPath and
// resolves the C API for apiVersion (0 selects the default version).
// An empty libraryPath falls back to $ONNXRUNTIME_LIB_PATH and then to the
// platform's default library name.
func NewRuntime(libraryPath string, apiVersion uint32) (*Runtime, error) {
	if libraryPath == "" {
		libraryPath = os.Getenv(LibraryPathEnv)
	}
	if libraryPath == "" {
		libraryPath = defaultLibraryName()
	}

	handle, err := openLibrary(libraryPath)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load ONNX Runtime library %q: %w", ErrLoad, libraryPath, err)
	}

	sym, err := lookupSymbol(handle, "OrtGetApiBase")
	if err != nil {
		closeLibrary(handle)
		return nil, fmt.Errorf("%w: %q is not an ONNX Runtime library: %w", ErrLoad, libraryPath, err)
	}

	funcs, err := v23.InitializeFuncs(sym, apiVersion)
	if err != nil {
		closeLibrary(handle)
		return nil, fmt.Errorf("%w: failed to initialize API functions: %w", ErrLoad, err)
	}

	r, err := newRuntimeFromFuncs(funcs)
	if err != nil {
		closeLibrary(handle)
		return nil, err
	}
	r.libraryHandle = handle

	return r, nil
}

// newRuntimeFromFuncs builds a Runtime over an already-resolved API table.
func newRuntimeFromFuncs(funcs api.APIFuncs) (*Runtime, error) {
	r := &Runtime{
		apiFuncs: funcs,
		handles:  NewRegistry(),
	}

	var allocPtr api.OrtAllocator
	status := funcs.GetAllocatorWithDefaultOptions(&allocPtr)
	if err := r.statusError(status); err != nil {
		return nil, fmt.Errorf("%w: failed to get default allocator: %w", ErrLoad, err)
	}
	r.allocator = &allocator{ptr: allocPtr, runtime: r}

	mi, err := r.newCPUMemoryInfo()
	if err != nil {
		r.handles.ReleaseAll()
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	r.cpuMemoryInfo = mi

	return r, nil
}

// statusError converts a non-nil OrtStatus into a *RuntimeError and
// releases the status.
func (r *Runtime) statusError(status api.OrtStatus) error {
	if status == 0 {
		return nil
	}
	defer r.apiFuncs.ReleaseStatus(status)

	code := r.apiFuncs.GetErrorCode(status)
	msg := cstrings.CStringToString((*byte)(r.apiFuncs.GetErrorMessage(status)))

	return &RuntimeError{
		Code:    code,
		Message: msg,
	}
}

// GetAvailableProviders returns the execution providers compiled into the
// loaded library, e.g. "CPUExecutionProvider".
func (r *Runtime) GetAvailableProviders() ([]string, error) {
	var providersPtr **byte
	var length int32

	status := r.apiFuncs.GetAvailableProviders(&providersPtr, &length)
	if err := r.statusError(status); err != nil {
		return nil, fmt.Errorf("failed to get available providers: %w", err)
	}
	if length == 0 || providersPtr == nil {
		return nil, nil
	}

	ptrs := unsafe.Slice(providersPtr, length)
	providers := make([]string, length)
	for i, p := range ptrs {
		providers[i] = cstrings.CStringToString(p)
	}

	status = r.apiFuncs.ReleaseAvailableProviders(providersPtr, length)
	if err := r.statusError(status); err != nil {
		return nil, fmt.Errorf("failed to release available providers: %w", err)
	}

	return providers, nil
}

// Close releases the shared environment and every model scope still
// registered with the runtime, then unloads the library.
// It is safe to call Close multiple times.
func (r *Runtime) Close() error {
	var err error
	r.closeOnce.Do(func() {
		r.handles.ReleaseAll()
		if r.libraryHandle != 0 {
			err = closeLibrary(r.libraryHandle)
			r.libraryHandle = 0
		}
	})
	return err
}
