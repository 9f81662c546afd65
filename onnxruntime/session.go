package onnxruntime

import (
	"errors"
	"fmt"
	goruntime "runtime"
	"unsafe"

	"github.com/benedoc-inc/ortsession/internal/cstrings"
	"github.com/benedoc-inc/ortsession/onnxruntime/internal/api"
)

// SessionOptions configures options for creating an inference session.
type SessionOptions struct {
	// IntraOpNumThreads sets the number of threads used for parallelizing
	// execution within nodes. A value of 0 uses the default number of threads.
	IntraOpNumThreads int

	// InterOpNumThreads sets the number of threads used for parallelizing
	// execution of the graph (across nodes). A value of 0 uses the default.
	InterOpNumThreads int

	// GraphOptimization sets the graph optimization level.
	// Zero value (GraphOptimizationDisabled) means no optimization.
	GraphOptimization GraphOptimizationLevel

	// ExecutionMode controls sequential vs parallel operator execution.
	// Zero value (ExecutionModeSequential) means sequential.
	ExecutionMode ExecutionMode

	// CpuMemArena controls whether the CPU memory arena is enabled.
	// nil means use the ORT default (enabled). Explicit true/false overrides.
	CpuMemArena *bool

	// MemPattern controls whether memory pattern optimization is enabled.
	// nil means use the ORT default (enabled). Explicit true/false overrides.
	MemPattern *bool

	// LogSeverityLevel overrides the session's log severity level.
	// nil means use the environment default.
	LogSeverityLevel *LoggingLevel

	// FreeDimensionOverrides fixes symbolic dimensions by name at session creation time.
	// Keys are symbolic dimension names (e.g., "batch_size"), values are the fixed sizes.
	FreeDimensionOverrides map[string]int64

	// OptimizedModelFilePath saves the graph-optimized model to the given path.
	OptimizedModelFilePath string
}

// Session is a loaded model inside the backend. Its native handle is owned
// by the registry it was created in.
//
// A Session is NOT safe for concurrent use from multiple goroutines.
// Model serializes access for callers that share one.
type Session struct {
	handle  *Handle
	runtime *Runtime

	inputNames  []string
	outputNames []string

	// cached null-terminated name bytes to avoid per-Run allocations
	inputNameCStrs  [][]byte
	outputNameCStrs [][]byte
}

// NewSession loads a model file into a new session registered in reg.
func (r *Runtime) NewSession(reg *Registry, env *Env, modelPath string, options *SessionOptions) (*Session, error) {
	path, err := nativePath(modelPath)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid model path %q: %w", ErrLoad, modelPath, err)
	}

	return r.createSession(reg, env, options, func(envPtr api.OrtEnv, optsPtr api.OrtSessionOptions, out *api.OrtSession) api.OrtStatus {
		return r.apiFuncs.CreateSession(envPtr, &path[0], optsPtr, out)
	})
}

// NewSessionFromBytes loads a serialized model held in memory into a new
// session registered in reg.
func (r *Runtime) NewSessionFromBytes(reg *Registry, env *Env, modelData []byte, options *SessionOptions) (*Session, error) {
	if len(modelData) == 0 {
		return nil, fmt.Errorf("%w: model data cannot be empty", ErrLoad)
	}

	return r.createSession(reg, env, options, func(envPtr api.OrtEnv, optsPtr api.OrtSessionOptions, out *api.OrtSession) api.OrtStatus {
		return r.apiFuncs.CreateSessionFromArray(envPtr, unsafe.Pointer(&modelData[0]), uintptr(len(modelData)), optsPtr, out)
	})
}

type createSessionFunc func(api.OrtEnv, api.OrtSessionOptions, *api.OrtSession) api.OrtStatus

func (r *Runtime) createSession(reg *Registry, env *Env, options *SessionOptions, create createSessionFunc) (*Session, error) {
	envPtr, err := env.ptr()
	if err != nil {
		return nil, err
	}

	// Session options only live until the session exists.
	scope, err := reg.Scope()
	if err != nil {
		return nil, err
	}
	defer scope.ReleaseAll()

	var optsPtr api.OrtSessionOptions
	if options != nil {
		status := r.apiFuncs.CreateSessionOptions(&optsPtr)
		if err := r.statusError(status); err != nil {
			return nil, fmt.Errorf("%w: failed to create session options: %w", ErrLoad, err)
		}
		if _, err := scope.Acquire(HandleKindSessionOptions, uintptr(optsPtr), func(p uintptr) {
			r.apiFuncs.ReleaseSessionOptions(api.OrtSessionOptions(p))
		}); err != nil {
			return nil, err
		}

		if err := r.configureSessionOptions(optsPtr, options); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoad, err)
		}
	}

	var sessionPtr api.OrtSession
	status := create(envPtr, optsPtr, &sessionPtr)
	if err := r.statusError(status); err != nil {
		return nil, fmt.Errorf("%w: failed to create session: %w", ErrLoad, err)
	}

	h, err := reg.Acquire(HandleKindSession, uintptr(sessionPtr), func(p uintptr) {
		r.apiFuncs.ReleaseSession(api.OrtSession(p))
	})
	if err != nil {
		return nil, err
	}

	session := &Session{
		handle:  h,
		runtime: r,
	}
	goruntime.AddCleanup(session, func(h *Handle) { h.Release() }, h)

	if err := session.initializeMetadata(); err != nil {
		session.Close()
		return nil, fmt.Errorf("%w: failed to initialize session metadata: %w", ErrMetadata, err)
	}

	return session, nil
}

// initializeMetadata caches input and output names during session creation
func (s *Session) initializeMetadata() error {
	inputCount, err := s.getInputCount()
	if err != nil {
		return err
	}

	s.inputNames = make([]string, inputCount)
	s.inputNameCStrs = make([][]byte, inputCount)
	for i := range inputCount {
		name, err := s.getIOName(true, i)
		if err != nil {
			return fmt.Errorf("failed to get input name at index %d: %w", i, err)
		}
		s.inputNames[i] = name
		s.inputNameCStrs[i] = cstrings.CString(name)
	}

	outputCount, err := s.getOutputCount()
	if err != nil {
		return err
	}

	s.outputNames = make([]string, outputCount)
	s.outputNameCStrs = make([][]byte, outputCount)
	for i := range outputCount {
		name, err := s.getIOName(false, i)
		if err != nil {
			return fmt.Errorf("failed to get output name at index %d: %w", i, err)
		}
		s.outputNames[i] = name
		s.outputNameCStrs[i] = cstrings.CString(name)
	}

	return nil
}

func (s *Session) ptr() (api.OrtSession, error) {
	p, err := s.handle.Ptr()
	if err != nil {
		return 0, err
	}
	return api.OrtSession(p), nil
}

// InputNames returns all input names for the model.
func (s *Session) InputNames() []string {
	return s.inputNames
}

// OutputNames returns all output names for the model.
func (s *Session) OutputNames() []string {
	return s.outputNames
}

func (s *Session) getInputCount() (int, error) {
	ptr, err := s.ptr()
	if err != nil {
		return 0, err
	}

	var count uintptr
	status := s.runtime.apiFuncs.SessionGetInputCount(ptr, &count)
	if err := s.runtime.statusError(status); err != nil {
		return 0, fmt.Errorf("failed to get input count: %w", err)
	}

	return int(count), nil
}

func (s *Session) getOutputCount() (int, error) {
	ptr, err := s.ptr()
	if err != nil {
		return 0, err
	}

	var count uintptr
	status := s.runtime.apiFuncs.SessionGetOutputCount(ptr, &count)
	if err := s.runtime.statusError(status); err != nil {
		return 0, fmt.Errorf("failed to get output count: %w", err)
	}

	return int(count), nil
}

// getIOName reads an input or output name and frees the backend's copy.
func (s *Session) getIOName(isInput bool, index int) (string, error) {
	ptr, err := s.ptr()
	if err != nil {
		return "", err
	}

	if s.runtime.allocator == nil {
		return "", errors.New("allocator not initialized")
	}

	var namePtr *byte
	var status api.OrtStatus
	if isInput {
		status = s.runtime.apiFuncs.SessionGetInputName(ptr, uintptr(index), s.runtime.allocator.ptr, &namePtr)
	} else {
		status = s.runtime.apiFuncs.SessionGetOutputName(ptr, uintptr(index), s.runtime.allocator.ptr, &namePtr)
	}
	if err := s.runtime.statusError(status); err != nil {
		return "", err
	}

	name := cstrings.CStringToString(namePtr)
	s.runtime.allocator.free(unsafe.Pointer(namePtr))

	return name, nil
}

// configureSessionOptions applies all session options to the ORT session options pointer.
func (r *Runtime) configureSessionOptions(optsPtr api.OrtSessionOptions, options *SessionOptions) error {
	if options.IntraOpNumThreads > 0 {
		status := r.apiFuncs.SetIntraOpNumThreads(optsPtr, int32(options.IntraOpNumThreads))
		if err := r.statusError(status); err != nil {
			return fmt.Errorf("failed to set intra-op num threads: %w", err)
		}
	}

	if options.InterOpNumThreads > 0 {
		status := r.apiFuncs.SetInterOpNumThreads(optsPtr, int32(options.InterOpNumThreads))
		if err := r.statusError(status); err != nil {
			return fmt.Errorf("failed to set inter-op num threads: %w", err)
		}
	}

	if options.GraphOptimization != 0 {
		status := r.apiFuncs.SetSessionGraphOptimizationLevel(optsPtr, int32(options.GraphOptimization))
		if err := r.statusError(status); err != nil {
			return fmt.Errorf("failed to set graph optimization level: %w", err)
		}
	}

	if options.ExecutionMode != 0 {
		status := r.apiFuncs.SetSessionExecutionMode(optsPtr, int32(options.ExecutionMode))
		if err := r.statusError(status); err != nil {
			return fmt.Errorf("failed to set execution mode: %w", err)
		}
	}

	if options.CpuMemArena != nil {
		var status api.OrtStatus
		if *options.CpuMemArena {
			status = r.apiFuncs.EnableCpuMemArena(optsPtr)
		} else {
			status = r.apiFuncs.DisableCpuMemArena(optsPtr)
		}
		if err := r.statusError(status); err != nil {
			return fmt.Errorf("failed to configure CPU memory arena: %w", err)
		}
	}

	if options.MemPattern != nil {
		var status api.OrtStatus
		if *options.MemPattern {
			status = r.apiFuncs.EnableMemPattern(optsPtr)
		} else {
			status = r.apiFuncs.DisableMemPattern(optsPtr)
		}
		if err := r.statusError(status); err != nil {
			return fmt.Errorf("failed to configure memory pattern: %w", err)
		}
	}

	if options.LogSeverityLevel != nil {
		status := r.apiFuncs.SetSessionLogSeverityLevel(optsPtr, int32(*options.LogSeverityLevel))
		if err := r.statusError(status); err != nil {
			return fmt.Errorf("failed to set log severity level: %w", err)
		}
	}

	for name, size := range options.FreeDimensionOverrides {
		nameBytes := cstrings.CString(name)
		status := r.apiFuncs.AddFreeDimensionOverrideByName(optsPtr, &nameBytes[0], size)
		if err := r.statusError(status); err != nil {
			return fmt.Errorf("failed to add free dimension override %q: %w", name, err)
		}
	}

	if options.OptimizedModelFilePath != "" {
		pathBytes, err := nativePath(options.OptimizedModelFilePath)
		if err != nil {
			return fmt.Errorf("invalid optimized model path: %w", err)
		}
		status := r.apiFuncs.SetOptimizedModelFilePath(optsPtr, &pathBytes[0])
		if err := r.statusError(status); err != nil {
			return fmt.Errorf("failed to set optimized model file path: %w", err)
		}
	}

	return nil
}

// cachedCStr returns a pointer to a cached null-terminated C string for the given name,
// or nil if the name is not in the cache. This avoids per-Run allocations.
func (s *Session) cachedCStr(name string, names []string, cstrs [][]byte) *byte {
	for i, n := range names {
		if n == name {
			return &cstrs[i][0]
		}
	}
	return nil
}

// Close releases the session.
// It is safe to call Close multiple times.
func (s *Session) Close() {
	s.handle.Release()
}
