// Package fakeort is an in-process stand-in for the ONNX Runtime C API.
//
// A Backend implements api.APIFuncs over Go values. It hands out opaque
// integer handles, records every acquisition and release, and can be told to
// fail any call with a chosen status. Models are registered by path or by
// their serialized bytes and evaluated by a Go function.
package fakeort

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"unsafe"

	"github.com/benedoc-inc/ortsession/internal/cstrings"
	"github.com/benedoc-inc/ortsession/onnxruntime/internal/api"
)

// Error codes used by the fake backend.
const (
	CodeFail             api.OrtErrorCode = 1
	CodeInvalidArgument  api.OrtErrorCode = 2
	CodeNoSuchFile       api.OrtErrorCode = 3
	CodeRuntimeException api.OrtErrorCode = 6
	CodeInvalidProtobuf  api.OrtErrorCode = 7
)

// IO declares a model input or output.
type IO struct {
	Name     string
	Type     api.ONNXType // zero means tensor
	ElemType api.ONNXTensorElementDataType
	Shape    []int64

	// ReportedDims, when positive, is returned as the dimension count
	// instead of len(Shape), modelling inconsistent shape metadata.
	ReportedDims int
}

func (io IO) valueType() api.ONNXType {
	if io.Type == 0 {
		return TypeTensor
	}
	return io.Type
}

// Metadata is the model metadata reported by a session.
type Metadata struct {
	ProducerName string
	GraphName    string
	Domain       string
	Description  string
	Version      int64
	Custom       map[string]string
}

// Model is a model the fake backend can load.
type Model struct {
	Inputs   []IO
	Outputs  []IO
	Metadata Metadata

	// Run computes the outputs from the inputs. A nil Run produces a zero
	// tensor of the declared shape for every output. Returning a *Status
	// error controls the reported code.
	Run func(inputs map[string]*Value) (map[string]*Value, error)
}

// Status is an error carrying a backend status code.
type Status struct {
	Code    api.OrtErrorCode
	Message string
}

func (s *Status) Error() string {
	return fmt.Sprintf("status %d: %s", s.Code, s.Message)
}

// SessionOptions records the options applied to a session.
type SessionOptions struct {
	IntraOpThreads         int32
	InterOpThreads         int32
	ExecutionMode          int32
	GraphOptimization      int32
	CpuMemArena            *bool
	MemPattern             *bool
	LogSeverity            *int32
	FreeDimensionOverrides map[string]int64
	OptimizedModelPath     string
}

type kind int

const (
	kindStatus kind = iota
	kindEnv
	kindMemoryInfo
	kindSessionOptions
	kindSession
	kindRunOptions
	kindValue
	kindTypeInfo
	kindTensorInfo
	kindMetadata
)

func (k kind) String() string {
	return [...]string{"Status", "Env", "MemoryInfo", "SessionOptions", "Session",
		"RunOptions", "Value", "TypeInfo", "TensorInfo", "ModelMetadata"}[k]
}

type object struct {
	kind kind

	status     *Status
	statusText []byte

	model       *Model
	options     *SessionOptions
	value       *Value
	typeValue   *Value // type info and tensor info describe a value shape
	reportDims  int
	borrowed    []uintptr
	runTag      string
	terminated  bool
	metadata    *Metadata
	memType     api.OrtMemType
	allocatorTy api.OrtAllocatorType
}

type failure struct {
	status Status
	once   bool
}

// Backend is a fake ONNX Runtime. The zero value is not usable; call New.
type Backend struct {
	mu sync.Mutex

	nextID    uintptr
	objects   map[uintptr]*object
	borrowed  map[uintptr]*object
	released  map[uintptr]bool
	allocs    map[uintptr]any
	failures  map[string]failure
	calls     map[string]int
	models    map[string]*Model
	blobs     map[string]*Model
	providers []string

	doubleReleases  int
	invalidReleases int
	invalidFrees    int

	lastRunTag  string
	lastOptions *SessionOptions
	lastInputs  map[string]*Value
	envLevel    api.OrtLoggingLevel
	envLogID    string
}

var _ api.APIFuncs = (*Backend)(nil)

const defaultAllocator api.OrtAllocator = 0xA110C

// New returns an empty fake backend.
func New() *Backend {
	return &Backend{
		nextID:    0x1000,
		objects:   make(map[uintptr]*object),
		borrowed:  make(map[uintptr]*object),
		released:  make(map[uintptr]bool),
		allocs:    make(map[uintptr]any),
		failures:  make(map[string]failure),
		calls:     make(map[string]int),
		models:    make(map[string]*Model),
		blobs:     make(map[string]*Model),
		providers: []string{"CPUExecutionProvider"},
	}
}

// Register makes m loadable from path.
func (b *Backend) Register(path string, m *Model) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.models[path] = m
}

// RegisterBytes makes m loadable from the serialized bytes data.
func (b *Backend) RegisterBytes(data []byte, m *Model) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.blobs[string(data)] = m
}

// SetProviders replaces the reported execution providers.
func (b *Backend) SetProviders(providers ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.providers = providers
}

// Fail makes every later call to the named API function fail.
func (b *Backend) Fail(call string, code api.OrtErrorCode, msg string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[call] = failure{status: Status{Code: code, Message: msg}}
}

// FailOnce makes the next call to the named API function fail.
func (b *Backend) FailOnce(call string, code api.OrtErrorCode, msg string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[call] = failure{status: Status{Code: code, Message: msg}, once: true}
}

// ClearFailures removes every injected failure.
func (b *Backend) ClearFailures() {
	b.mu.Lock()
	defer b.mu.Unlock()
	clear(b.failures)
}

// Calls returns how many times the named API function was called.
func (b *Backend) Calls(call string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[call]
}

// Outstanding returns the number of live handles of every kind.
func (b *Backend) Outstanding() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.objects)
}

// OutstandingByKind returns the number of live handles per kind name,
// e.g. "Value" or "Session".
func (b *Backend) OutstandingByKind() map[string]int {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]int)
	for _, o := range b.objects {
		out[o.kind.String()]++
	}
	return out
}

// OutstandingAllocations returns the number of allocator-owned strings and
// arrays not yet freed.
func (b *Backend) OutstandingAllocations() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.allocs)
}

// DoubleReleases returns how many releases hit an already released handle.
func (b *Backend) DoubleReleases() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.doubleReleases
}

// InvalidReleases returns how many releases hit an unknown handle, a handle
// of the wrong kind, or a handle owned by another object.
func (b *Backend) InvalidReleases() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.invalidReleases + b.invalidFrees
}

// LastRunTag returns the run tag of the most recent run options.
func (b *Backend) LastRunTag() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastRunTag
}

// LastSessionOptions returns the options applied to the most recent session.
func (b *Backend) LastSessionOptions() *SessionOptions {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastOptions
}

// LastInputs returns the inputs of the most recent run.
func (b *Backend) LastInputs() map[string]*Value {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastInputs
}

// EnvLogLevel returns the logging level the environment was created with.
func (b *Backend) EnvLogLevel() api.OrtLoggingLevel {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.envLevel
}

// --- bookkeeping, called with b.mu held ---

func (b *Backend) enter(call string) api.OrtStatus {
	b.calls[call]++
	f, ok := b.failures[call]
	if !ok {
		return 0
	}
	if f.once {
		delete(b.failures, call)
	}
	return b.newStatus(f.status.Code, f.status.Message)
}

func (b *Backend) track(o *object) uintptr {
	id := b.nextID
	b.nextID += 8
	b.objects[id] = o
	return id
}

func (b *Backend) lookup(id uintptr, k kind) *object {
	if o, ok := b.objects[id]; ok && o.kind == k {
		return o
	}
	if o, ok := b.borrowed[id]; ok && o.kind == k {
		return o
	}
	return nil
}

func (b *Backend) release(id uintptr, k kind) {
	if id == 0 {
		return
	}
	o, ok := b.objects[id]
	switch {
	case !ok && b.released[id]:
		b.doubleReleases++
		return
	case !ok:
		b.invalidReleases++
		return
	case o.kind != k:
		b.invalidReleases++
		return
	}
	for _, child := range o.borrowed {
		delete(b.borrowed, child)
	}
	delete(b.objects, id)
	b.released[id] = true
}

func (b *Backend) newStatus(code api.OrtErrorCode, msg string) api.OrtStatus {
	return api.OrtStatus(b.track(&object{
		kind:       kindStatus,
		status:     &Status{Code: code, Message: msg},
		statusText: cstrings.CString(msg),
	}))
}

func (b *Backend) errorf(code api.OrtErrorCode, format string, args ...any) api.OrtStatus {
	return b.newStatus(code, fmt.Sprintf(format, args...))
}

func (b *Backend) allocString(s string) *byte {
	buf := cstrings.CString(s)
	p := &buf[0]
	b.allocs[uintptr(unsafe.Pointer(p))] = buf
	return p
}

func (b *Backend) allocStrings(ss []string) **byte {
	if len(ss) == 0 {
		return nil
	}
	arr := make([]*byte, len(ss))
	for i, s := range ss {
		arr[i] = b.allocString(s)
	}
	p := &arr[0]
	b.allocs[uintptr(unsafe.Pointer(p))] = arr
	return p
}

// --- status ---

func (b *Backend) CreateStatus(code api.OrtErrorCode, msg *byte) api.OrtStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.newStatus(code, cstrings.CStringToString(msg))
}

func (b *Backend) GetErrorCode(status api.OrtStatus) api.OrtErrorCode {
	b.mu.Lock()
	defer b.mu.Unlock()
	if o := b.lookup(uintptr(status), kindStatus); o != nil {
		return o.status.Code
	}
	return 0
}

func (b *Backend) GetErrorMessage(status api.OrtStatus) unsafe.Pointer {
	b.mu.Lock()
	defer b.mu.Unlock()
	if o := b.lookup(uintptr(status), kindStatus); o != nil {
		return unsafe.Pointer(&o.statusText[0])
	}
	return nil
}

func (b *Backend) ReleaseStatus(status api.OrtStatus) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.release(uintptr(status), kindStatus)
}

// --- environment ---

func (b *Backend) CreateEnv(level api.OrtLoggingLevel, logID *byte, env *api.OrtEnv) api.OrtStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	if st := b.enter("CreateEnv"); st != 0 {
		return st
	}
	b.envLevel = level
	b.envLogID = cstrings.CStringToString(logID)
	*env = api.OrtEnv(b.track(&object{kind: kindEnv}))
	return 0
}

func (b *Backend) ReleaseEnv(env api.OrtEnv) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.release(uintptr(env), kindEnv)
}

// --- allocator ---

func (b *Backend) GetAllocatorWithDefaultOptions(out *api.OrtAllocator) api.OrtStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	if st := b.enter("GetAllocatorWithDefaultOptions"); st != 0 {
		return st
	}
	*out = defaultAllocator
	return 0
}

func (b *Backend) AllocatorFree(alloc api.OrtAllocator, ptr unsafe.Pointer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := uintptr(ptr)
	if _, ok := b.allocs[key]; !ok || alloc != defaultAllocator {
		b.invalidFrees++
		return
	}
	delete(b.allocs, key)
}

// --- memory info ---

func (b *Backend) CreateCpuMemoryInfo(allocType api.OrtAllocatorType, memType api.OrtMemType, out *api.OrtMemoryInfo) api.OrtStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	if st := b.enter("CreateCpuMemoryInfo"); st != 0 {
		return st
	}
	*out = api.OrtMemoryInfo(b.track(&object{kind: kindMemoryInfo, allocatorTy: allocType, memType: memType}))
	return 0
}

func (b *Backend) ReleaseMemoryInfo(mi api.OrtMemoryInfo) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.release(uintptr(mi), kindMemoryInfo)
}

// --- session options ---

func (b *Backend) CreateSessionOptions(out *api.OrtSessionOptions) api.OrtStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	if st := b.enter("CreateSessionOptions"); st != 0 {
		return st
	}
	*out = api.OrtSessionOptions(b.track(&object{kind: kindSessionOptions, options: &SessionOptions{}}))
	return 0
}

// setOption applies fn to the options behind opts.
func (b *Backend) setOption(call string, opts api.OrtSessionOptions, fn func(*SessionOptions)) api.OrtStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	if st := b.enter(call); st != 0 {
		return st
	}
	o := b.lookup(uintptr(opts), kindSessionOptions)
	if o == nil {
		return b.errorf(CodeInvalidArgument, "%s: invalid session options", call)
	}
	fn(o.options)
	return 0
}

func (b *Backend) SetOptimizedModelFilePath(opts api.OrtSessionOptions, path *byte) api.OrtStatus {
	p := cstrings.CStringToString(path)
	return b.setOption("SetOptimizedModelFilePath", opts, func(o *SessionOptions) { o.OptimizedModelPath = p })
}

func (b *Backend) SetIntraOpNumThreads(opts api.OrtSessionOptions, n int32) api.OrtStatus {
	return b.setOption("SetIntraOpNumThreads", opts, func(o *SessionOptions) { o.IntraOpThreads = n })
}

func (b *Backend) SetInterOpNumThreads(opts api.OrtSessionOptions, n int32) api.OrtStatus {
	return b.setOption("SetInterOpNumThreads", opts, func(o *SessionOptions) { o.InterOpThreads = n })
}

func (b *Backend) SetSessionExecutionMode(opts api.OrtSessionOptions, mode int32) api.OrtStatus {
	return b.setOption("SetSessionExecutionMode", opts, func(o *SessionOptions) { o.ExecutionMode = mode })
}

func (b *Backend) SetSessionGraphOptimizationLevel(opts api.OrtSessionOptions, level int32) api.OrtStatus {
	return b.setOption("SetSessionGraphOptimizationLevel", opts, func(o *SessionOptions) { o.GraphOptimization = level })
}

func (b *Backend) EnableCpuMemArena(opts api.OrtSessionOptions) api.OrtStatus {
	return b.setOption("EnableCpuMemArena", opts, func(o *SessionOptions) { o.CpuMemArena = ptrTo(true) })
}

func (b *Backend) DisableCpuMemArena(opts api.OrtSessionOptions) api.OrtStatus {
	return b.setOption("DisableCpuMemArena", opts, func(o *SessionOptions) { o.CpuMemArena = ptrTo(false) })
}

func (b *Backend) EnableMemPattern(opts api.OrtSessionOptions) api.OrtStatus {
	return b.setOption("EnableMemPattern", opts, func(o *SessionOptions) { o.MemPattern = ptrTo(true) })
}

func (b *Backend) DisableMemPattern(opts api.OrtSessionOptions) api.OrtStatus {
	return b.setOption("DisableMemPattern", opts, func(o *SessionOptions) { o.MemPattern = ptrTo(false) })
}

func (b *Backend) SetSessionLogSeverityLevel(opts api.OrtSessionOptions, level int32) api.OrtStatus {
	return b.setOption("SetSessionLogSeverityLevel", opts, func(o *SessionOptions) { o.LogSeverity = ptrTo(level) })
}

func (b *Backend) AddFreeDimensionOverrideByName(opts api.OrtSessionOptions, name *byte, value int64) api.OrtStatus {
	n := cstrings.CStringToString(name)
	return b.setOption("AddFreeDimensionOverrideByName", opts, func(o *SessionOptions) {
		if o.FreeDimensionOverrides == nil {
			o.FreeDimensionOverrides = make(map[string]int64)
		}
		o.FreeDimensionOverrides[n] = value
	})
}

func (b *Backend) ReleaseSessionOptions(opts api.OrtSessionOptions) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.release(uintptr(opts), kindSessionOptions)
}

func ptrTo[T any](v T) *T { return &v }

// --- run options ---

func (b *Backend) CreateRunOptions(out *api.OrtRunOptions) api.OrtStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	if st := b.enter("CreateRunOptions"); st != 0 {
		return st
	}
	*out = api.OrtRunOptions(b.track(&object{kind: kindRunOptions}))
	return 0
}

func (b *Backend) RunOptionsSetRunTag(opts api.OrtRunOptions, tag *byte) api.OrtStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	if st := b.enter("RunOptionsSetRunTag"); st != 0 {
		return st
	}
	o := b.lookup(uintptr(opts), kindRunOptions)
	if o == nil {
		return b.errorf(CodeInvalidArgument, "invalid run options")
	}
	o.runTag = cstrings.CStringToString(tag)
	b.lastRunTag = o.runTag
	return 0
}

func (b *Backend) RunOptionsSetTerminate(opts api.OrtRunOptions) api.OrtStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	if st := b.enter("RunOptionsSetTerminate"); st != 0 {
		return st
	}
	o := b.lookup(uintptr(opts), kindRunOptions)
	if o == nil {
		return b.errorf(CodeInvalidArgument, "invalid run options")
	}
	o.terminated = true
	return 0
}

func (b *Backend) ReleaseRunOptions(opts api.OrtRunOptions) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.release(uintptr(opts), kindRunOptions)
}

// --- session ---

func (b *Backend) CreateSession(env api.OrtEnv, modelPath *byte, opts api.OrtSessionOptions, out *api.OrtSession) api.OrtStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	if st := b.enter("CreateSession"); st != 0 {
		return st
	}
	path := cstrings.CStringToString(modelPath)
	m, ok := b.models[path]
	if !ok {
		return b.errorf(CodeNoSuchFile, "Load model from %s failed. File doesn't exist", path)
	}
	return b.newSession(env, opts, m, out)
}

func (b *Backend) CreateSessionFromArray(env api.OrtEnv, data unsafe.Pointer, length uintptr, opts api.OrtSessionOptions, out *api.OrtSession) api.OrtStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	if st := b.enter("CreateSessionFromArray"); st != 0 {
		return st
	}
	key := string(unsafe.Slice((*byte)(data), length))
	m, ok := b.blobs[key]
	if !ok {
		return b.errorf(CodeInvalidProtobuf, "Load model from memory failed. Protobuf parsing failed.")
	}
	return b.newSession(env, opts, m, out)
}

func (b *Backend) newSession(env api.OrtEnv, opts api.OrtSessionOptions, m *Model, out *api.OrtSession) api.OrtStatus {
	if b.lookup(uintptr(env), kindEnv) == nil {
		return b.errorf(CodeInvalidArgument, "invalid environment")
	}
	applied := &SessionOptions{}
	if opts != 0 {
		o := b.lookup(uintptr(opts), kindSessionOptions)
		if o == nil {
			return b.errorf(CodeInvalidArgument, "invalid session options")
		}
		copied := *o.options
		applied = &copied
	}
	b.lastOptions = applied
	*out = api.OrtSession(b.track(&object{kind: kindSession, model: m, options: applied}))
	return 0
}

func (b *Backend) session(s api.OrtSession) (*Model, api.OrtStatus) {
	o := b.lookup(uintptr(s), kindSession)
	if o == nil {
		return nil, b.errorf(CodeInvalidArgument, "invalid session")
	}
	return o.model, 0
}

func (b *Backend) SessionGetInputCount(s api.OrtSession, out *uintptr) api.OrtStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	if st := b.enter("SessionGetInputCount"); st != 0 {
		return st
	}
	m, st := b.session(s)
	if st != 0 {
		return st
	}
	*out = uintptr(len(m.Inputs))
	return 0
}

func (b *Backend) SessionGetOutputCount(s api.OrtSession, out *uintptr) api.OrtStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	if st := b.enter("SessionGetOutputCount"); st != 0 {
		return st
	}
	m, st := b.session(s)
	if st != 0 {
		return st
	}
	*out = uintptr(len(m.Outputs))
	return 0
}

func (b *Backend) ioAt(call string, s api.OrtSession, index uintptr, isInput bool) (IO, api.OrtStatus) {
	if st := b.enter(call); st != 0 {
		return IO{}, st
	}
	m, st := b.session(s)
	if st != 0 {
		return IO{}, st
	}
	ios := m.Outputs
	if isInput {
		ios = m.Inputs
	}
	if index >= uintptr(len(ios)) {
		return IO{}, b.errorf(CodeInvalidArgument, "%s: index %d out of range", call, index)
	}
	return ios[index], 0
}

func (b *Backend) SessionGetInputName(s api.OrtSession, index uintptr, alloc api.OrtAllocator, out **byte) api.OrtStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	io, st := b.ioAt("SessionGetInputName", s, index, true)
	if st != 0 {
		return st
	}
	*out = b.allocString(io.Name)
	return 0
}

func (b *Backend) SessionGetOutputName(s api.OrtSession, index uintptr, alloc api.OrtAllocator, out **byte) api.OrtStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	io, st := b.ioAt("SessionGetOutputName", s, index, false)
	if st != 0 {
		return st
	}
	*out = b.allocString(io.Name)
	return 0
}

func (b *Backend) ReleaseSession(s api.OrtSession) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.release(uintptr(s), kindSession)
}

// pendingRun is a validated Run call.
type pendingRun struct {
	model   *Model
	opts    *object
	inputs  map[string]*Value
	outputs []string
}

// prepareRun validates a Run call. It is called with b.mu held.
func (b *Backend) prepareRun(s api.OrtSession, runOpts api.OrtRunOptions, inNames **byte, inputs *api.OrtValue, inCount uintptr, outNames **byte, outCount uintptr) (*pendingRun, api.OrtStatus) {
	if st := b.enter("Run"); st != 0 {
		return nil, st
	}
	m, st := b.session(s)
	if st != 0 {
		return nil, st
	}
	run := &pendingRun{model: m, inputs: make(map[string]*Value, inCount)}
	if runOpts != 0 {
		if run.opts = b.lookup(uintptr(runOpts), kindRunOptions); run.opts == nil {
			return nil, b.errorf(CodeInvalidArgument, "invalid run options")
		}
	}

	values := unsafe.Slice(inputs, inCount)
	for i, p := range unsafe.Slice(inNames, inCount) {
		name := cstrings.CStringToString(p)
		decl := slices.IndexFunc(m.Inputs, func(io IO) bool { return io.Name == name })
		if decl < 0 {
			return nil, b.errorf(CodeInvalidArgument, "Invalid input name: %s", name)
		}
		o := b.lookup(uintptr(values[i]), kindValue)
		if o == nil {
			return nil, b.errorf(CodeInvalidArgument, "input %s: invalid value", name)
		}
		want := m.Inputs[decl]
		if o.value.ElemType != want.ElemType || !shapeMatches(want.Shape, o.value.Shape) {
			return nil, b.errorf(CodeInvalidArgument, "input %s: got %v of type %d, want %v of type %d",
				name, o.value.Shape, o.value.ElemType, want.Shape, want.ElemType)
		}
		run.inputs[name] = o.value
	}

	for _, p := range unsafe.Slice(outNames, outCount) {
		name := cstrings.CStringToString(p)
		if !slices.ContainsFunc(m.Outputs, func(io IO) bool { return io.Name == name }) {
			return nil, b.errorf(CodeInvalidArgument, "Invalid output name: %s", name)
		}
		run.outputs = append(run.outputs, name)
	}
	return run, 0
}

func (run *pendingRun) terminated() bool {
	return run.opts != nil && run.opts.terminated
}

const terminatedMessage = "Exiting due to terminate flag being set to true."

// Run evaluates the session's model. The model function runs without the
// backend lock held, so it may block.
func (b *Backend) Run(s api.OrtSession, runOpts api.OrtRunOptions, inNames **byte, inputs *api.OrtValue, inCount uintptr, outNames **byte, outCount uintptr, outputs *api.OrtValue) api.OrtStatus {
	b.mu.Lock()
	run, st := b.prepareRun(s, runOpts, inNames, inputs, inCount, outNames, outCount)
	if st != 0 {
		b.mu.Unlock()
		return st
	}
	b.lastInputs = run.inputs
	if run.terminated() {
		defer b.mu.Unlock()
		return b.newStatus(CodeFail, terminatedMessage)
	}
	b.mu.Unlock()

	var produced map[string]*Value
	var runErr error
	if run.model.Run != nil {
		produced, runErr = run.model.Run(run.inputs)
	} else {
		produced = zeroOutputs(run.model)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if run.terminated() {
		return b.newStatus(CodeFail, terminatedMessage)
	}
	if runErr != nil {
		var st *Status
		if errors.As(runErr, &st) {
			return b.newStatus(st.Code, st.Message)
		}
		return b.newStatus(CodeRuntimeException, runErr.Error())
	}

	out := unsafe.Slice(outputs, outCount)
	for i, name := range run.outputs {
		v, ok := produced[name]
		if !ok {
			return b.errorf(CodeRuntimeException, "model produced no value for %s", name)
		}
		out[i] = api.OrtValue(b.track(&object{kind: kindValue, value: v}))
	}
	return 0
}

func zeroOutputs(m *Model) map[string]*Value {
	out := make(map[string]*Value, len(m.Outputs))
	for _, io := range m.Outputs {
		shape := make([]int64, len(io.Shape))
		for i, d := range io.Shape {
			shape[i] = max(d, 1)
		}
		size := elementSize(io.ElemType) * int(elementCount(shape))
		out[io.Name] = &Value{Type: TypeTensor, ElemType: io.ElemType, Shape: shape, Data: make([]byte, size)}
	}
	return out
}

// --- model metadata ---

func (b *Backend) SessionGetModelMetadata(s api.OrtSession, out *api.OrtModelMetadata) api.OrtStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	if st := b.enter("SessionGetModelMetadata"); st != 0 {
		return st
	}
	m, st := b.session(s)
	if st != 0 {
		return st
	}
	*out = api.OrtModelMetadata(b.track(&object{kind: kindMetadata, metadata: &m.Metadata}))
	return 0
}

func (b *Backend) metadataString(call string, md api.OrtModelMetadata, out **byte, field func(*Metadata) string) api.OrtStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	if st := b.enter(call); st != 0 {
		return st
	}
	o := b.lookup(uintptr(md), kindMetadata)
	if o == nil {
		return b.errorf(CodeInvalidArgument, "invalid model metadata")
	}
	*out = b.allocString(field(o.metadata))
	return 0
}

func (b *Backend) ModelMetadataGetProducerName(md api.OrtModelMetadata, _ api.OrtAllocator, out **byte) api.OrtStatus {
	return b.metadataString("ModelMetadataGetProducerName", md, out, func(m *Metadata) string { return m.ProducerName })
}

func (b *Backend) ModelMetadataGetGraphName(md api.OrtModelMetadata, _ api.OrtAllocator, out **byte) api.OrtStatus {
	return b.metadataString("ModelMetadataGetGraphName", md, out, func(m *Metadata) string { return m.GraphName })
}

func (b *Backend) ModelMetadataGetDomain(md api.OrtModelMetadata, _ api.OrtAllocator, out **byte) api.OrtStatus {
	return b.metadataString("ModelMetadataGetDomain", md, out, func(m *Metadata) string { return m.Domain })
}

func (b *Backend) ModelMetadataGetDescription(md api.OrtModelMetadata, _ api.OrtAllocator, out **byte) api.OrtStatus {
	return b.metadataString("ModelMetadataGetDescription", md, out, func(m *Metadata) string { return m.Description })
}

func (b *Backend) ModelMetadataLookupCustomMetadataMap(md api.OrtModelMetadata, _ api.OrtAllocator, key *byte, out **byte) api.OrtStatus {
	k := cstrings.CStringToString(key)
	return b.metadataString("ModelMetadataLookupCustomMetadataMap", md, out, func(m *Metadata) string { return m.Custom[k] })
}

func (b *Backend) ModelMetadataGetVersion(md api.OrtModelMetadata, out *int64) api.OrtStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	if st := b.enter("ModelMetadataGetVersion"); st != 0 {
		return st
	}
	o := b.lookup(uintptr(md), kindMetadata)
	if o == nil {
		return b.errorf(CodeInvalidArgument, "invalid model metadata")
	}
	*out = o.metadata.Version
	return 0
}

func (b *Backend) ModelMetadataGetCustomMetadataMapKeys(md api.OrtModelMetadata, _ api.OrtAllocator, keys ***byte, numKeys *int64) api.OrtStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	if st := b.enter("ModelMetadataGetCustomMetadataMapKeys"); st != 0 {
		return st
	}
	o := b.lookup(uintptr(md), kindMetadata)
	if o == nil {
		return b.errorf(CodeInvalidArgument, "invalid model metadata")
	}
	names := make([]string, 0, len(o.metadata.Custom))
	for k := range o.metadata.Custom {
		names = append(names, k)
	}
	sort.Strings(names)
	*keys = b.allocStrings(names)
	*numKeys = int64(len(names))
	return 0
}

func (b *Backend) ReleaseModelMetadata(md api.OrtModelMetadata) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.release(uintptr(md), kindMetadata)
}

// --- type introspection ---

func (b *Backend) sessionTypeInfo(call string, s api.OrtSession, index uintptr, isInput bool, out *api.OrtTypeInfo) api.OrtStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	io, st := b.ioAt(call, s, index, isInput)
	if st != 0 {
		return st
	}
	desc := &Value{Type: io.valueType(), ElemType: io.ElemType, Shape: slices.Clone(io.Shape)}
	*out = api.OrtTypeInfo(b.track(&object{kind: kindTypeInfo, typeValue: desc, reportDims: io.ReportedDims}))
	return 0
}

func (b *Backend) SessionGetInputTypeInfo(s api.OrtSession, index uintptr, out *api.OrtTypeInfo) api.OrtStatus {
	return b.sessionTypeInfo("SessionGetInputTypeInfo", s, index, true, out)
}

func (b *Backend) SessionGetOutputTypeInfo(s api.OrtSession, index uintptr, out *api.OrtTypeInfo) api.OrtStatus {
	return b.sessionTypeInfo("SessionGetOutputTypeInfo", s, index, false, out)
}

func (b *Backend) CastTypeInfoToTensorInfo(ti api.OrtTypeInfo, out *api.OrtTensorTypeAndShapeInfo) api.OrtStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	if st := b.enter("CastTypeInfoToTensorInfo"); st != 0 {
		return st
	}
	o := b.lookup(uintptr(ti), kindTypeInfo)
	if o == nil {
		return b.errorf(CodeInvalidArgument, "invalid type info")
	}
	if o.typeValue.Type != TypeTensor {
		*out = 0
		return 0
	}
	// The tensor info belongs to the type info and dies with it.
	id := b.nextID
	b.nextID += 8
	b.borrowed[id] = &object{kind: kindTensorInfo, typeValue: o.typeValue, reportDims: o.reportDims}
	o.borrowed = append(o.borrowed, id)
	*out = api.OrtTensorTypeAndShapeInfo(id)
	return 0
}

func (b *Backend) GetOnnxTypeFromTypeInfo(ti api.OrtTypeInfo, out *api.ONNXType) api.OrtStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	if st := b.enter("GetOnnxTypeFromTypeInfo"); st != 0 {
		return st
	}
	o := b.lookup(uintptr(ti), kindTypeInfo)
	if o == nil {
		return b.errorf(CodeInvalidArgument, "invalid type info")
	}
	*out = o.typeValue.Type
	return 0
}

func (b *Backend) ReleaseTypeInfo(ti api.OrtTypeInfo) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.release(uintptr(ti), kindTypeInfo)
}

// --- tensors and values ---

func (b *Backend) CreateTensorWithDataAsOrtValue(mi api.OrtMemoryInfo, data unsafe.Pointer, length uintptr, shape *int64, shapeLen uintptr, elemType api.ONNXTensorElementDataType, out *api.OrtValue) api.OrtStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	if st := b.enter("CreateTensorWithDataAsOrtValue"); st != 0 {
		return st
	}
	if b.lookup(uintptr(mi), kindMemoryInfo) == nil {
		return b.errorf(CodeInvalidArgument, "invalid memory info")
	}
	var dims []int64
	if shapeLen > 0 {
		dims = slices.Clone(unsafe.Slice(shape, shapeLen))
	}
	size := elementSize(elemType)
	if size == 0 {
		return b.errorf(CodeInvalidArgument, "unsupported element type %d", elemType)
	}
	if want := uintptr(elementCount(dims)) * uintptr(size); want != length {
		return b.errorf(CodeInvalidArgument, "shape %v needs %d bytes, buffer has %d", dims, want, length)
	}
	v := &Value{
		Type:     TypeTensor,
		ElemType: elemType,
		Shape:    dims,
		Data:     unsafe.Slice((*byte)(data), length),
	}
	*out = api.OrtValue(b.track(&object{kind: kindValue, value: v}))
	return 0
}

func (b *Backend) value(v api.OrtValue) (*Value, api.OrtStatus) {
	o := b.lookup(uintptr(v), kindValue)
	if o == nil {
		return nil, b.errorf(CodeInvalidArgument, "invalid value")
	}
	return o.value, 0
}

func (b *Backend) GetTypeInfo(v api.OrtValue, out *api.OrtTypeInfo) api.OrtStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	if st := b.enter("GetTypeInfo"); st != 0 {
		return st
	}
	val, st := b.value(v)
	if st != 0 {
		return st
	}
	*out = api.OrtTypeInfo(b.track(&object{kind: kindTypeInfo, typeValue: val}))
	return 0
}

func (b *Backend) GetValueType(v api.OrtValue, out *api.ONNXType) api.OrtStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	if st := b.enter("GetValueType"); st != 0 {
		return st
	}
	val, st := b.value(v)
	if st != 0 {
		return st
	}
	*out = val.Type
	return 0
}

func (b *Backend) GetTensorMutableData(v api.OrtValue, out *unsafe.Pointer) api.OrtStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	if st := b.enter("GetTensorMutableData"); st != 0 {
		return st
	}
	val, st := b.value(v)
	if st != 0 {
		return st
	}
	if val.Type != TypeTensor {
		return b.errorf(CodeInvalidArgument, "value is not a tensor")
	}
	*out = val.DataPointer()
	return 0
}

func (b *Backend) GetTensorTypeAndShape(v api.OrtValue, out *api.OrtTensorTypeAndShapeInfo) api.OrtStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	if st := b.enter("GetTensorTypeAndShape"); st != 0 {
		return st
	}
	val, st := b.value(v)
	if st != 0 {
		return st
	}
	if val.Type != TypeTensor {
		return b.errorf(CodeInvalidArgument, "value is not a tensor")
	}
	*out = api.OrtTensorTypeAndShapeInfo(b.track(&object{kind: kindTensorInfo, typeValue: val}))
	return 0
}

func (b *Backend) tensorInfo(info api.OrtTensorTypeAndShapeInfo) (*object, api.OrtStatus) {
	o := b.lookup(uintptr(info), kindTensorInfo)
	if o == nil {
		return nil, b.errorf(CodeInvalidArgument, "invalid tensor info")
	}
	return o, 0
}

func (b *Backend) GetTensorElementType(info api.OrtTensorTypeAndShapeInfo, out *api.ONNXTensorElementDataType) api.OrtStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	if st := b.enter("GetTensorElementType"); st != 0 {
		return st
	}
	o, st := b.tensorInfo(info)
	if st != 0 {
		return st
	}
	*out = o.typeValue.ElemType
	return 0
}

func (b *Backend) GetDimensionsCount(info api.OrtTensorTypeAndShapeInfo, out *uintptr) api.OrtStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	if st := b.enter("GetDimensionsCount"); st != 0 {
		return st
	}
	o, st := b.tensorInfo(info)
	if st != 0 {
		return st
	}
	n := len(o.typeValue.Shape)
	if o.reportDims > 0 {
		n = o.reportDims
	}
	*out = uintptr(n)
	return 0
}

func (b *Backend) GetDimensions(info api.OrtTensorTypeAndShapeInfo, dims *int64, length uintptr) api.OrtStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	if st := b.enter("GetDimensions"); st != 0 {
		return st
	}
	o, st := b.tensorInfo(info)
	if st != 0 {
		return st
	}
	shape := o.typeValue.Shape
	if length != uintptr(len(shape)) {
		return b.errorf(CodeInvalidArgument, "dimension buffer holds %d entries, shape has %d", length, len(shape))
	}
	if length > 0 {
		copy(unsafe.Slice(dims, length), shape)
	}
	return 0
}

func (b *Backend) GetTensorShapeElementCount(info api.OrtTensorTypeAndShapeInfo, out *uintptr) api.OrtStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	if st := b.enter("GetTensorShapeElementCount"); st != 0 {
		return st
	}
	o, st := b.tensorInfo(info)
	if st != 0 {
		return st
	}
	*out = uintptr(max(elementCount(o.typeValue.Shape), 0))
	return 0
}

func (b *Backend) ReleaseValue(v api.OrtValue) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.release(uintptr(v), kindValue)
}

func (b *Backend) ReleaseTensorTypeAndShapeInfo(info api.OrtTensorTypeAndShapeInfo) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.borrowed[uintptr(info)]; ok {
		// Owned by a type info; releasing it is a caller bug.
		b.invalidReleases++
		return
	}
	b.release(uintptr(info), kindTensorInfo)
}

// --- sequences and maps ---

func (b *Backend) GetValue(v api.OrtValue, index int32, alloc api.OrtAllocator, out *api.OrtValue) api.OrtStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	if st := b.enter("GetValue"); st != 0 {
		return st
	}
	val, st := b.value(v)
	if st != 0 {
		return st
	}
	if val.Type != TypeSequence && val.Type != TypeMap {
		return b.errorf(CodeInvalidArgument, "value is not a sequence or map")
	}
	if index < 0 || int(index) >= len(val.Elems) {
		return b.errorf(CodeInvalidArgument, "index %d out of range", index)
	}
	*out = api.OrtValue(b.track(&object{kind: kindValue, value: val.Elems[index]}))
	return 0
}

func (b *Backend) GetValueCount(v api.OrtValue, out *uintptr) api.OrtStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	if st := b.enter("GetValueCount"); st != 0 {
		return st
	}
	val, st := b.value(v)
	if st != 0 {
		return st
	}
	switch val.Type {
	case TypeSequence:
		*out = uintptr(len(val.Elems))
	case TypeMap:
		*out = 2
	default:
		return b.errorf(CodeInvalidArgument, "value is not a sequence or map")
	}
	return 0
}

// --- providers ---

func (b *Backend) GetAvailableProviders(out ***byte, length *int32) api.OrtStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	if st := b.enter("GetAvailableProviders"); st != 0 {
		return st
	}
	*out = b.allocStrings(b.providers)
	*length = int32(len(b.providers))
	return 0
}

func (b *Backend) ReleaseAvailableProviders(providers **byte, length int32) api.OrtStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	if providers == nil {
		return 0
	}
	for _, p := range unsafe.Slice(providers, length) {
		delete(b.allocs, uintptr(unsafe.Pointer(p)))
	}
	delete(b.allocs, uintptr(unsafe.Pointer(providers)))
	return 0
}
