package onnxruntime

import (
	"context"
	"fmt"
	"sync"

	"github.com/benedoc-inc/ortsession/internal/cstrings"
	"github.com/benedoc-inc/ortsession/onnxruntime/internal/api"
)

// RunOption is a functional option for configuring inference execution.
type RunOption func(*runConfig)

type runConfig struct {
	runTag string
}

// WithRunTag sets a tag on the run for log correlation and debugging.
// The tag appears in ORT log output to identify specific inference runs.
func WithRunTag(tag string) RunOption {
	return func(c *runConfig) {
		c.runTag = tag
	}
}

// Invoke runs one forward pass of the session with a single bound input and
// a single requested output. The output value is registered in reg.
//
// Backend failures are returned as ErrInference wrapping *RuntimeError; no
// output handle is produced and in stays valid for another attempt.
// Cancelling ctx asks the backend to terminate the run.
func (s *Session) Invoke(ctx context.Context, reg *Registry, in *BoundInput, outputName string, opts ...RunOption) (*Handle, error) {
	sessionPtr, err := s.ptr()
	if err != nil {
		return nil, err
	}
	if in == nil {
		return nil, fmt.Errorf("%w: no bound input", ErrInference)
	}
	inputPtr, err := in.handle.Ptr()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInference, err)
	}

	config := &runConfig{}
	for _, opt := range opts {
		opt(config)
	}

	// Run options are per call; the output value outlives them.
	local := NewRegistry()
	defer local.ReleaseAll()

	runOpts, stop, err := s.createRunOptions(ctx, local, config)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInference, err)
	}

	inputNamePtr := s.cachedCStr(in.Name, s.inputNames, s.inputNameCStrs)
	if inputNamePtr == nil {
		inputNamePtr = &in.cname[0]
	}
	outputNamePtr := s.cachedCStr(outputName, s.outputNames, s.outputNameCStrs)
	if outputNamePtr == nil {
		b := cstrings.CString(outputName)
		outputNamePtr = &b[0]
	}

	inputValue := api.OrtValue(inputPtr)
	var outputValue api.OrtValue

	status := s.runtime.apiFuncs.Run(
		sessionPtr,
		runOpts,
		&inputNamePtr,
		&inputValue,
		1,
		&outputNamePtr,
		1,
		&outputValue,
	)
	termErr := stop()
	if err := s.runtime.statusError(status); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if termErr != nil {
				return nil, fmt.Errorf("%w: %w, and the run could not be terminated: %w (%w)", ErrInference, ctxErr, termErr, err)
			}
			return nil, fmt.Errorf("%w: inference terminated: %w (%w)", ErrInference, ctxErr, err)
		}
		return nil, fmt.Errorf("%w: failed to run inference: %w", ErrInference, err)
	}
	if outputValue == 0 {
		return nil, fmt.Errorf("%w: backend produced no value for output %q", ErrInference, outputName)
	}

	return s.runtime.acquireValue(reg, outputValue)
}

// createRunOptions creates run options registered in reg, tagged per config,
// that are terminated when ctx is cancelled. The returned stop function
// must be called once the run has returned; it reports a failure to set the
// terminate flag. A run that completes despite that failure is still valid.
func (s *Session) createRunOptions(ctx context.Context, reg *Registry, config *runConfig) (api.OrtRunOptions, func() error, error) {
	var runOpts api.OrtRunOptions
	status := s.runtime.apiFuncs.CreateRunOptions(&runOpts)
	if err := s.runtime.statusError(status); err != nil {
		return 0, nil, fmt.Errorf("failed to create run options: %w", err)
	}
	if _, err := reg.Acquire(HandleKindRunOptions, uintptr(runOpts), func(p uintptr) {
		s.runtime.apiFuncs.ReleaseRunOptions(api.OrtRunOptions(p))
	}); err != nil {
		return 0, nil, err
	}

	if config.runTag != "" {
		tagBytes := cstrings.CString(config.runTag)
		status := s.runtime.apiFuncs.RunOptionsSetRunTag(runOpts, &tagBytes[0])
		if err := s.runtime.statusError(status); err != nil {
			return 0, nil, fmt.Errorf("failed to set run tag: %w", err)
		}
	}

	if ctx.Done() == nil {
		return runOpts, func() error { return nil }, nil
	}

	// The watcher must exit before the run options are released, or
	// RunOptionsSetTerminate could touch freed memory.
	var wg sync.WaitGroup
	var termErr error // written by the watcher, read after wg.Wait
	done := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case <-ctx.Done():
			status := s.runtime.apiFuncs.RunOptionsSetTerminate(runOpts)
			if err := s.runtime.statusError(status); err != nil {
				termErr = fmt.Errorf("failed to set terminate flag: %w", err)
			}
		case <-done:
		}
	}()

	var once sync.Once
	stop := func() error {
		once.Do(func() {
			close(done)
			wg.Wait()
		})
		return termErr
	}
	return runOpts, stop, nil
}

func (r *Runtime) acquireValue(reg *Registry, v api.OrtValue) (*Handle, error) {
	return reg.Acquire(HandleKindValue, uintptr(v), func(p uintptr) {
		r.apiFuncs.ReleaseValue(api.OrtValue(p))
	})
}
