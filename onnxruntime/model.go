package onnxruntime

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// ModelState is a step of a Model's lifecycle.
type ModelState int32

// Model lifecycle states. A loaded model starts in StateMetadataResolved and
// cycles through StateInputBound, StateInvoked and StateInterpreted on every
// run. StateReleased is terminal.
const (
	StateUninitialized ModelState = iota
	StateEnvironmentReady
	StateSessionLoaded
	StateMetadataResolved
	StateInputBound
	StateInvoked
	StateInterpreted
	StateReleased
)

func (s ModelState) String() string {
	switch s {
	case StateUninitialized:
		return "Uninitialized"
	case StateEnvironmentReady:
		return "EnvironmentReady"
	case StateSessionLoaded:
		return "SessionLoaded"
	case StateMetadataResolved:
		return "MetadataResolved"
	case StateInputBound:
		return "InputBound"
	case StateInvoked:
		return "Invoked"
	case StateInterpreted:
		return "Interpreted"
	case StateReleased:
		return "Released"
	default:
		return fmt.Sprintf("ModelState(%d)", int32(s))
	}
}

// Model is a single-input model session ready for repeated inference. It
// owns its session and every per-run handle, and runs one cycle at a time:
// a second concurrent RunOnce blocks until the first returns.
//
// Example:
//
//	rt, err := onnxruntime.NewRuntime("", 0)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close()
//
//	model, err := rt.LoadModel("model.onnx", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer model.Close()
//
//	result, err := model.RunOnce(ctx, []float32{1, 2, 3, 4})
type Model struct {
	mu    sync.Mutex
	state atomic.Int32

	runtime *Runtime
	handles *Registry
	session *Session
	ioSpec  *IOSpec
	path    string
	hooks   []Hook

	// cycle holds the handles of the latest run; it is released before the
	// next bind so only one input/output pair is live.
	cycle *Registry
}

// ModelConfig configures model loading.
type ModelConfig struct {
	// SessionOptions configures the inference session.
	SessionOptions *SessionOptions

	// LogLevel sets the ORT logging level of the shared environment
	// (default: LoggingLevelWarning). Only the first model loaded by a
	// Runtime decides it.
	LogLevel *LoggingLevel

	// BatchSize replaces a dynamic leading input dimension (default: 1).
	BatchSize int64

	// Hooks are called around every inference cycle.
	Hooks []Hook
}

func (c *ModelConfig) logLevel() LoggingLevel {
	if c != nil && c.LogLevel != nil {
		return *c.LogLevel
	}
	return LoggingLevelWarning
}

func (c *ModelConfig) sessionOptions() *SessionOptions {
	if c != nil {
		return c.SessionOptions
	}
	return nil
}

func (c *ModelConfig) inspectOptions() InspectOptions {
	if c != nil {
		return InspectOptions{BatchSize: c.BatchSize}
	}
	return InspectOptions{}
}

func (c *ModelConfig) hooks() []Hook {
	if c != nil {
		return c.Hooks
	}
	return nil
}

// LoadModel loads the model file at path.
func (r *Runtime) LoadModel(path string, config *ModelConfig) (*Model, error) {
	return r.loadModel(path, config, func(reg *Registry, env *Env) (*Session, error) {
		return r.NewSession(reg, env, path, config.sessionOptions())
	})
}

// LoadModelFromBytes loads a serialized model held in memory. name
// identifies the model in hooks and errors.
func (r *Runtime) LoadModelFromBytes(name string, data []byte, config *ModelConfig) (*Model, error) {
	return r.loadModel(name, config, func(reg *Registry, env *Env) (*Session, error) {
		return r.NewSessionFromBytes(reg, env, data, config.sessionOptions())
	})
}

func (r *Runtime) loadModel(path string, config *ModelConfig, open func(*Registry, *Env) (*Session, error)) (*Model, error) {
	m := &Model{
		runtime: r,
		path:    path,
		hooks:   config.hooks(),
	}

	env, err := r.Env(config.logLevel())
	if err != nil {
		return nil, err
	}
	m.state.Store(int32(StateEnvironmentReady))

	handles, err := r.handles.Scope()
	if err != nil {
		return nil, fmt.Errorf("%w: runtime is closed: %w", ErrLoad, err)
	}
	m.handles = handles

	session, err := open(handles, env)
	if err != nil {
		handles.ReleaseAll()
		return nil, fmt.Errorf("failed to load model %q: %w", path, err)
	}
	m.session = session
	m.state.Store(int32(StateSessionLoaded))

	ioSpec, err := session.Inspect(config.inspectOptions())
	if err != nil {
		handles.ReleaseAll()
		return nil, fmt.Errorf("failed to inspect model %q: %w", path, err)
	}
	m.ioSpec = ioSpec
	m.state.Store(int32(StateMetadataResolved))

	return m, nil
}

// State returns the current lifecycle state.
func (m *Model) State() ModelState {
	if m.handles == nil || m.handles.Released() {
		return StateReleased
	}
	return ModelState(m.state.Load())
}

// setState records s unless the model has been released.
func (m *Model) setState(s ModelState) {
	for {
		cur := m.state.Load()
		if ModelState(cur) == StateReleased {
			return
		}
		if m.state.CompareAndSwap(cur, int32(s)) {
			return
		}
	}
}

// RunOnce runs one inference cycle on a float32 input laid out as the
// model's resolved input shape.
func (m *Model) RunOnce(ctx context.Context, input []float32) (*Result, error) {
	return RunTensor(ctx, m, input)
}

// RunTensor runs one inference cycle on input, whose element type must
// match the model's input element type.
//
// The previous cycle's handles are released first. The returned Result's
// values are copies and remain valid after later runs.
func RunTensor[T TensorData](ctx context.Context, m *Model, input []T) (*Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.State() == StateReleased {
		return nil, fmt.Errorf("%w: model %q is closed", ErrUseAfterRelease, m.path)
	}

	info := &RunInfo{
		RunID:      uuid.NewString(),
		ModelPath:  m.path,
		InputName:  m.ioSpec.InputName,
		OutputName: m.ioSpec.OutputName,
	}
	for _, h := range m.hooks {
		h.BeforeRun(info)
	}

	start := time.Now()
	result, err := m.runCycle(ctx, info.RunID, func(reg *Registry) (*BoundInput, error) {
		return BindSlice(m.runtime, reg, m.ioSpec.InputName, m.ioSpec.Input, input)
	})
	info.Duration = time.Since(start)
	info.Error = err
	if result != nil {
		info.Kind = result.Kind
		info.Elements = result.Count()
	}

	for _, h := range m.hooks {
		h.AfterRun(info)
	}

	return result, err
}

// runCycle binds, invokes and interprets inside a fresh scope. On failure
// the scope is released and the model stays ready for another run.
func (m *Model) runCycle(ctx context.Context, runID string, bind func(*Registry) (*BoundInput, error)) (*Result, error) {
	if m.cycle != nil {
		m.cycle.ReleaseAll()
		m.cycle = nil
	}

	cycle, err := m.handles.Scope()
	if err != nil {
		return nil, err
	}
	fail := func(err error) (*Result, error) {
		cycle.ReleaseAll()
		m.setState(StateMetadataResolved)
		return nil, err
	}

	in, err := bind(cycle)
	if err != nil {
		return fail(err)
	}
	m.setState(StateInputBound)

	out, err := m.session.Invoke(ctx, cycle, in, m.ioSpec.OutputName, WithRunTag(runID))
	if err != nil {
		return fail(err)
	}
	m.setState(StateInvoked)

	result, err := m.runtime.Interpret(cycle, out)
	if err != nil {
		return fail(err)
	}
	m.setState(StateInterpreted)

	result.scope = cycle
	m.cycle = cycle
	return result, nil
}

// IOSpec returns a copy of the model's resolved I/O contract.
func (m *Model) IOSpec() IOSpec {
	spec := *m.ioSpec
	spec.Input.Shape = slices.Clone(spec.Input.Shape)
	spec.DeclaredShape = slices.Clone(spec.DeclaredShape)
	return spec
}

// Path returns the model path, or the name given to LoadModelFromBytes.
func (m *Model) Path() string {
	return m.path
}

// Session returns the underlying Session for advanced operations
// like ModelMetadata or InputInfo.
func (m *Model) Session() *Session {
	return m.session
}

// Runtime returns the Runtime the model was loaded by.
func (m *Model) Runtime() *Runtime {
	return m.runtime
}

// InputNames returns the model's input names.
func (m *Model) InputNames() []string {
	return m.session.InputNames()
}

// OutputNames returns the model's output names.
func (m *Model) OutputNames() []string {
	return m.session.OutputNames()
}

// Close releases the session and every handle of the last run. It waits
// for an in-flight run to finish. It is safe to call Close multiple times;
// runs after Close fail with ErrUseAfterRelease.
func (m *Model) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.Store(int32(StateReleased))
	m.cycle = nil
	if m.handles != nil {
		m.handles.ReleaseAll()
	}
}
