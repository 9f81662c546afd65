package onnxruntime

import (
	"fmt"

	"github.com/benedoc-inc/ortsession/internal/cstrings"
	"github.com/benedoc-inc/ortsession/onnxruntime/internal/api"
)

// envLogID tags backend log lines emitted through the shared environment.
const envLogID = "ortsession"

// Env is the ONNX Runtime environment shared by every session of a Runtime.
type Env struct {
	handle   *Handle
	logLevel LoggingLevel
}

// LogLevel returns the logging level the environment was created with.
func (e *Env) LogLevel() LoggingLevel {
	return e.logLevel
}

func (e *Env) ptr() (api.OrtEnv, error) {
	p, err := e.handle.Ptr()
	return api.OrtEnv(p), err
}

// Env returns the runtime's shared environment, creating it on first use.
// Only the first caller's logLevel takes effect; the environment lives until
// the Runtime is closed.
func (r *Runtime) Env(logLevel LoggingLevel) (*Env, error) {
	r.envOnce.Do(func() {
		r.env, r.envErr = r.newEnv(logLevel)
	})
	return r.env, r.envErr
}

func (r *Runtime) newEnv(logLevel LoggingLevel) (*Env, error) {
	logID := cstrings.CString(envLogID)
	var envPtr api.OrtEnv

	status := r.apiFuncs.CreateEnv(logLevel, &logID[0], &envPtr)
	if err := r.statusError(status); err != nil {
		return nil, fmt.Errorf("%w: failed to create environment: %w", ErrLoad, err)
	}

	h, err := r.handles.Acquire(HandleKindEnvironment, uintptr(envPtr), func(p uintptr) {
		r.apiFuncs.ReleaseEnv(api.OrtEnv(p))
	})
	if err != nil {
		return nil, err
	}

	return &Env{handle: h, logLevel: logLevel}, nil
}
