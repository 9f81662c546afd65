package v23

import (
	"fmt"
	"unsafe"

	"github.com/benedoc-inc/ortsession/onnxruntime/internal/api"
	"github.com/ebitengine/purego"
)

// Funcs contains cached function pointers to ONNX Runtime C API functions.
type Funcs struct {
	// Status and error handling
	createStatus    func(api.OrtErrorCode, *byte) api.OrtStatus
	getErrorCode    func(api.OrtStatus) api.OrtErrorCode
	getErrorMessage func(api.OrtStatus) unsafe.Pointer
	releaseStatus   func(api.OrtStatus)

	// Environment
	createEnv  func(api.OrtLoggingLevel, *byte, *api.OrtEnv) api.OrtStatus
	releaseEnv func(api.OrtEnv)

	// Allocator
	getAllocatorWithDefaultOptions func(*api.OrtAllocator) api.OrtStatus
	allocatorFree                  func(api.OrtAllocator, unsafe.Pointer)

	// Memory info
	createCpuMemoryInfo func(api.OrtAllocatorType, api.OrtMemType, *api.OrtMemoryInfo) api.OrtStatus
	releaseMemoryInfo   func(api.OrtMemoryInfo)

	// Session options
	createSessionOptions             func(*api.OrtSessionOptions) api.OrtStatus
	setOptimizedModelFilePath        func(api.OrtSessionOptions, *byte) api.OrtStatus
	setIntraOpNumThreads             func(api.OrtSessionOptions, int32) api.OrtStatus
	setInterOpNumThreads             func(api.OrtSessionOptions, int32) api.OrtStatus
	setSessionExecutionMode          func(api.OrtSessionOptions, int32) api.OrtStatus
	setSessionGraphOptimizationLevel func(api.OrtSessionOptions, int32) api.OrtStatus
	enableCpuMemArena                func(api.OrtSessionOptions) api.OrtStatus
	disableCpuMemArena               func(api.OrtSessionOptions) api.OrtStatus
	enableMemPattern                 func(api.OrtSessionOptions) api.OrtStatus
	disableMemPattern                func(api.OrtSessionOptions) api.OrtStatus
	setSessionLogSeverityLevel       func(api.OrtSessionOptions, int32) api.OrtStatus
	addFreeDimensionOverrideByName   func(api.OrtSessionOptions, *byte, int64) api.OrtStatus
	releaseSessionOptions            func(api.OrtSessionOptions)

	// Run options
	createRunOptions       func(*api.OrtRunOptions) api.OrtStatus
	runOptionsSetRunTag    func(api.OrtRunOptions, *byte) api.OrtStatus
	runOptionsSetTerminate func(api.OrtRunOptions) api.OrtStatus
	releaseRunOptions      func(api.OrtRunOptions)

	// Session
	createSession          func(api.OrtEnv, *byte, api.OrtSessionOptions, *api.OrtSession) api.OrtStatus
	createSessionFromArray func(api.OrtEnv, unsafe.Pointer, uintptr, api.OrtSessionOptions, *api.OrtSession) api.OrtStatus
	sessionGetInputCount   func(api.OrtSession, *uintptr) api.OrtStatus
	sessionGetOutputCount  func(api.OrtSession, *uintptr) api.OrtStatus
	sessionGetInputName    func(api.OrtSession, uintptr, api.OrtAllocator, **byte) api.OrtStatus
	sessionGetOutputName   func(api.OrtSession, uintptr, api.OrtAllocator, **byte) api.OrtStatus
	run                    func(api.OrtSession, api.OrtRunOptions, **byte, *api.OrtValue, uintptr, **byte, uintptr, *api.OrtValue) api.OrtStatus
	releaseSession         func(api.OrtSession)

	// Model metadata
	sessionGetModelMetadata               func(api.OrtSession, *api.OrtModelMetadata) api.OrtStatus
	modelMetadataGetProducerName          func(api.OrtModelMetadata, api.OrtAllocator, **byte) api.OrtStatus
	modelMetadataGetGraphName             func(api.OrtModelMetadata, api.OrtAllocator, **byte) api.OrtStatus
	modelMetadataGetDomain                func(api.OrtModelMetadata, api.OrtAllocator, **byte) api.OrtStatus
	modelMetadataGetDescription           func(api.OrtModelMetadata, api.OrtAllocator, **byte) api.OrtStatus
	modelMetadataLookupCustomMetadataMap  func(api.OrtModelMetadata, api.OrtAllocator, *byte, **byte) api.OrtStatus
	modelMetadataGetVersion               func(api.OrtModelMetadata, *int64) api.OrtStatus
	modelMetadataGetCustomMetadataMapKeys func(api.OrtModelMetadata, api.OrtAllocator, ***byte, *int64) api.OrtStatus
	releaseModelMetadata                  func(api.OrtModelMetadata)

	// Type introspection
	sessionGetInputTypeInfo  func(api.OrtSession, uintptr, *api.OrtTypeInfo) api.OrtStatus
	sessionGetOutputTypeInfo func(api.OrtSession, uintptr, *api.OrtTypeInfo) api.OrtStatus
	castTypeInfoToTensorInfo func(api.OrtTypeInfo, *api.OrtTensorTypeAndShapeInfo) api.OrtStatus
	getOnnxTypeFromTypeInfo  func(api.OrtTypeInfo, *api.ONNXType) api.OrtStatus
	releaseTypeInfo          func(api.OrtTypeInfo)

	// Tensor/Value operations
	createTensorWithDataAsOrtValue func(api.OrtMemoryInfo, unsafe.Pointer, uintptr, *int64, uintptr, api.ONNXTensorElementDataType, *api.OrtValue) api.OrtStatus
	getTypeInfo                    func(api.OrtValue, *api.OrtTypeInfo) api.OrtStatus
	getValueType                   func(api.OrtValue, *api.ONNXType) api.OrtStatus
	getTensorMutableData           func(api.OrtValue, *unsafe.Pointer) api.OrtStatus
	getTensorTypeAndShape          func(api.OrtValue, *api.OrtTensorTypeAndShapeInfo) api.OrtStatus
	getTensorElementType           func(api.OrtTensorTypeAndShapeInfo, *api.ONNXTensorElementDataType) api.OrtStatus
	getDimensionsCount             func(api.OrtTensorTypeAndShapeInfo, *uintptr) api.OrtStatus
	getDimensions                  func(api.OrtTensorTypeAndShapeInfo, *int64, uintptr) api.OrtStatus
	getTensorShapeElementCount     func(api.OrtTensorTypeAndShapeInfo, *uintptr) api.OrtStatus
	releaseValue                   func(api.OrtValue)
	releaseTensorTypeAndShapeInfo  func(api.OrtTensorTypeAndShapeInfo)

	// Sequence/Map operations
	getValue      func(api.OrtValue, int32, api.OrtAllocator, *api.OrtValue) api.OrtStatus
	getValueCount func(api.OrtValue, *uintptr) api.OrtStatus

	// Execution provider information
	getAvailableProviders     func(***byte, *int32) api.OrtStatus
	releaseAvailableProviders func(**byte, int32) api.OrtStatus
}

var _ api.APIFuncs = (*Funcs)(nil)

// InitializeFuncs resolves the OrtApi table for the requested version and
// binds every function the engine uses. getAPIBaseSym is the address of the
// library's exported OrtGetApiBase symbol.
// This is called once per Runtime to avoid repeated RegisterFunc calls.
func InitializeFuncs(getAPIBaseSym uintptr, version uint32) (*Funcs, error) {
	if getAPIBaseSym == 0 {
		return nil, fmt.Errorf("OrtGetApiBase symbol address is nil")
	}
	if version == 0 {
		version = APIVersion
	}

	var ortGetAPIBase func() *APIBase
	purego.RegisterFunc(&ortGetAPIBase, getAPIBaseSym)

	apiBase := ortGetAPIBase()
	if apiBase == nil {
		return nil, fmt.Errorf("OrtGetApiBase returned nil")
	}

	var getAPIFunc func(uint32) unsafe.Pointer
	purego.RegisterFunc(&getAPIFunc, apiBase.GetAPI)

	apiPtr := getAPIFunc(version)
	if apiPtr == nil {
		return nil, fmt.Errorf("failed to get OrtApi for version %d", version)
	}

	table := (*API)(apiPtr)

	funcs := &Funcs{}

	purego.RegisterFunc(&funcs.createStatus, table.CreateStatus)
	purego.RegisterFunc(&funcs.getErrorCode, table.GetErrorCode)
	purego.RegisterFunc(&funcs.getErrorMessage, table.GetErrorMessage)
	purego.RegisterFunc(&funcs.releaseStatus, table.ReleaseStatus)

	purego.RegisterFunc(&funcs.createEnv, table.CreateEnv)
	purego.RegisterFunc(&funcs.releaseEnv, table.ReleaseEnv)

	purego.RegisterFunc(&funcs.getAllocatorWithDefaultOptions, table.GetAllocatorWithDefaultOptions)
	purego.RegisterFunc(&funcs.allocatorFree, table.AllocatorFree)

	purego.RegisterFunc(&funcs.createCpuMemoryInfo, table.CreateCpuMemoryInfo)
	purego.RegisterFunc(&funcs.releaseMemoryInfo, table.ReleaseMemoryInfo)

	purego.RegisterFunc(&funcs.createSessionOptions, table.CreateSessionOptions)
	purego.RegisterFunc(&funcs.setOptimizedModelFilePath, table.SetOptimizedModelFilePath)
	purego.RegisterFunc(&funcs.setIntraOpNumThreads, table.SetIntraOpNumThreads)
	purego.RegisterFunc(&funcs.setInterOpNumThreads, table.SetInterOpNumThreads)
	purego.RegisterFunc(&funcs.setSessionExecutionMode, table.SetSessionExecutionMode)
	purego.RegisterFunc(&funcs.setSessionGraphOptimizationLevel, table.SetSessionGraphOptimizationLevel)
	purego.RegisterFunc(&funcs.enableCpuMemArena, table.EnableCpuMemArena)
	purego.RegisterFunc(&funcs.disableCpuMemArena, table.DisableCpuMemArena)
	purego.RegisterFunc(&funcs.enableMemPattern, table.EnableMemPattern)
	purego.RegisterFunc(&funcs.disableMemPattern, table.DisableMemPattern)
	purego.RegisterFunc(&funcs.setSessionLogSeverityLevel, table.SetSessionLogSeverityLevel)
	purego.RegisterFunc(&funcs.addFreeDimensionOverrideByName, table.AddFreeDimensionOverrideByName)
	purego.RegisterFunc(&funcs.releaseSessionOptions, table.ReleaseSessionOptions)

	purego.RegisterFunc(&funcs.createRunOptions, table.CreateRunOptions)
	purego.RegisterFunc(&funcs.runOptionsSetRunTag, table.RunOptionsSetRunTag)
	purego.RegisterFunc(&funcs.runOptionsSetTerminate, table.RunOptionsSetTerminate)
	purego.RegisterFunc(&funcs.releaseRunOptions, table.ReleaseRunOptions)

	purego.RegisterFunc(&funcs.createSession, table.CreateSession)
	purego.RegisterFunc(&funcs.createSessionFromArray, table.CreateSessionFromArray)
	purego.RegisterFunc(&funcs.sessionGetInputCount, table.SessionGetInputCount)
	purego.RegisterFunc(&funcs.sessionGetOutputCount, table.SessionGetOutputCount)
	purego.RegisterFunc(&funcs.sessionGetInputName, table.SessionGetInputName)
	purego.RegisterFunc(&funcs.sessionGetOutputName, table.SessionGetOutputName)
	purego.RegisterFunc(&funcs.run, table.Run)
	purego.RegisterFunc(&funcs.releaseSession, table.ReleaseSession)

	purego.RegisterFunc(&funcs.sessionGetModelMetadata, table.SessionGetModelMetadata)
	purego.RegisterFunc(&funcs.modelMetadataGetProducerName, table.ModelMetadataGetProducerName)
	purego.RegisterFunc(&funcs.modelMetadataGetGraphName, table.ModelMetadataGetGraphName)
	purego.RegisterFunc(&funcs.modelMetadataGetDomain, table.ModelMetadataGetDomain)
	purego.RegisterFunc(&funcs.modelMetadataGetDescription, table.ModelMetadataGetDescription)
	purego.RegisterFunc(&funcs.modelMetadataLookupCustomMetadataMap, table.ModelMetadataLookupCustomMetadataMap)
	purego.RegisterFunc(&funcs.modelMetadataGetVersion, table.ModelMetadataGetVersion)
	purego.RegisterFunc(&funcs.modelMetadataGetCustomMetadataMapKeys, table.ModelMetadataGetCustomMetadataMapKeys)
	purego.RegisterFunc(&funcs.releaseModelMetadata, table.ReleaseModelMetadata)

	purego.RegisterFunc(&funcs.sessionGetInputTypeInfo, table.SessionGetInputTypeInfo)
	purego.RegisterFunc(&funcs.sessionGetOutputTypeInfo, table.SessionGetOutputTypeInfo)
	purego.RegisterFunc(&funcs.castTypeInfoToTensorInfo, table.CastTypeInfoToTensorInfo)
	purego.RegisterFunc(&funcs.getOnnxTypeFromTypeInfo, table.GetOnnxTypeFromTypeInfo)
	purego.RegisterFunc(&funcs.releaseTypeInfo, table.ReleaseTypeInfo)

	purego.RegisterFunc(&funcs.createTensorWithDataAsOrtValue, table.CreateTensorWithDataAsOrtValue)
	purego.RegisterFunc(&funcs.getTypeInfo, table.GetTypeInfo)
	purego.RegisterFunc(&funcs.getValueType, table.GetValueType)
	purego.RegisterFunc(&funcs.getTensorMutableData, table.GetTensorMutableData)
	purego.RegisterFunc(&funcs.getTensorTypeAndShape, table.GetTensorTypeAndShape)
	purego.RegisterFunc(&funcs.getTensorElementType, table.GetTensorElementType)
	purego.RegisterFunc(&funcs.getDimensionsCount, table.GetDimensionsCount)
	purego.RegisterFunc(&funcs.getDimensions, table.GetDimensions)
	purego.RegisterFunc(&funcs.getTensorShapeElementCount, table.GetTensorShapeElementCount)
	purego.RegisterFunc(&funcs.releaseValue, table.ReleaseValue)
	purego.RegisterFunc(&funcs.releaseTensorTypeAndShapeInfo, table.ReleaseTensorTypeAndShapeInfo)

	purego.RegisterFunc(&funcs.getValue, table.GetValue)
	purego.RegisterFunc(&funcs.getValueCount, table.GetValueCount)

	purego.RegisterFunc(&funcs.getAvailableProviders, table.GetAvailableProviders)
	purego.RegisterFunc(&funcs.releaseAvailableProviders, table.ReleaseAvailableProviders)

	return funcs, nil
}

// Status and error handling methods

func (f *Funcs) CreateStatus(code api.OrtErrorCode, msg *byte) api.OrtStatus {
	return f.createStatus(code, msg)
}

func (f *Funcs) GetErrorCode(status api.OrtStatus) api.OrtErrorCode {
	return f.getErrorCode(status)
}

func (f *Funcs) GetErrorMessage(status api.OrtStatus) unsafe.Pointer {
	return f.getErrorMessage(status)
}

func (f *Funcs) ReleaseStatus(status api.OrtStatus) {
	f.releaseStatus(status)
}

// Environment methods

func (f *Funcs) CreateEnv(logLevel api.OrtLoggingLevel, logID *byte, env *api.OrtEnv) api.OrtStatus {
	return f.createEnv(logLevel, logID, env)
}

func (f *Funcs) ReleaseEnv(env api.OrtEnv) {
	f.releaseEnv(env)
}

// Allocator methods

func (f *Funcs) GetAllocatorWithDefaultOptions(allocator *api.OrtAllocator) api.OrtStatus {
	return f.getAllocatorWithDefaultOptions(allocator)
}

func (f *Funcs) AllocatorFree(allocator api.OrtAllocator, ptr unsafe.Pointer) {
	f.allocatorFree(allocator, ptr)
}

// Memory info methods

func (f *Funcs) CreateCpuMemoryInfo(allocType api.OrtAllocatorType, memType api.OrtMemType, memInfo *api.OrtMemoryInfo) api.OrtStatus {
	return f.createCpuMemoryInfo(allocType, memType, memInfo)
}

func (f *Funcs) ReleaseMemoryInfo(memInfo api.OrtMemoryInfo) {
	f.releaseMemoryInfo(memInfo)
}

// Session options methods

func (f *Funcs) CreateSessionOptions(options *api.OrtSessionOptions) api.OrtStatus {
	return f.createSessionOptions(options)
}

func (f *Funcs) SetOptimizedModelFilePath(options api.OrtSessionOptions, path *byte) api.OrtStatus {
	return f.setOptimizedModelFilePath(options, path)
}

func (f *Funcs) SetIntraOpNumThreads(options api.OrtSessionOptions, numThreads int32) api.OrtStatus {
	return f.setIntraOpNumThreads(options, numThreads)
}

func (f *Funcs) SetInterOpNumThreads(options api.OrtSessionOptions, numThreads int32) api.OrtStatus {
	return f.setInterOpNumThreads(options, numThreads)
}

func (f *Funcs) SetSessionExecutionMode(options api.OrtSessionOptions, mode int32) api.OrtStatus {
	return f.setSessionExecutionMode(options, mode)
}

func (f *Funcs) SetSessionGraphOptimizationLevel(options api.OrtSessionOptions, level int32) api.OrtStatus {
	return f.setSessionGraphOptimizationLevel(options, level)
}

func (f *Funcs) EnableCpuMemArena(options api.OrtSessionOptions) api.OrtStatus {
	return f.enableCpuMemArena(options)
}

func (f *Funcs) DisableCpuMemArena(options api.OrtSessionOptions) api.OrtStatus {
	return f.disableCpuMemArena(options)
}

func (f *Funcs) EnableMemPattern(options api.OrtSessionOptions) api.OrtStatus {
	return f.enableMemPattern(options)
}

func (f *Funcs) DisableMemPattern(options api.OrtSessionOptions) api.OrtStatus {
	return f.disableMemPattern(options)
}

func (f *Funcs) SetSessionLogSeverityLevel(options api.OrtSessionOptions, level int32) api.OrtStatus {
	return f.setSessionLogSeverityLevel(options, level)
}

func (f *Funcs) AddFreeDimensionOverrideByName(options api.OrtSessionOptions, name *byte, value int64) api.OrtStatus {
	return f.addFreeDimensionOverrideByName(options, name, value)
}

func (f *Funcs) ReleaseSessionOptions(options api.OrtSessionOptions) {
	f.releaseSessionOptions(options)
}

// Run options methods

func (f *Funcs) CreateRunOptions(options *api.OrtRunOptions) api.OrtStatus {
	return f.createRunOptions(options)
}

func (f *Funcs) RunOptionsSetRunTag(options api.OrtRunOptions, tag *byte) api.OrtStatus {
	return f.runOptionsSetRunTag(options, tag)
}

func (f *Funcs) RunOptionsSetTerminate(options api.OrtRunOptions) api.OrtStatus {
	return f.runOptionsSetTerminate(options)
}

func (f *Funcs) ReleaseRunOptions(options api.OrtRunOptions) {
	f.releaseRunOptions(options)
}

// Session methods

func (f *Funcs) CreateSession(env api.OrtEnv, modelPath *byte, options api.OrtSessionOptions, session *api.OrtSession) api.OrtStatus {
	return f.createSession(env, modelPath, options, session)
}

func (f *Funcs) CreateSessionFromArray(env api.OrtEnv, modelData unsafe.Pointer, modelDataLength uintptr, options api.OrtSessionOptions, session *api.OrtSession) api.OrtStatus {
	return f.createSessionFromArray(env, modelData, modelDataLength, options, session)
}

func (f *Funcs) SessionGetInputCount(session api.OrtSession, count *uintptr) api.OrtStatus {
	return f.sessionGetInputCount(session, count)
}

func (f *Funcs) SessionGetOutputCount(session api.OrtSession, count *uintptr) api.OrtStatus {
	return f.sessionGetOutputCount(session, count)
}

func (f *Funcs) SessionGetInputName(session api.OrtSession, index uintptr, allocator api.OrtAllocator, name **byte) api.OrtStatus {
	return f.sessionGetInputName(session, index, allocator, name)
}

func (f *Funcs) SessionGetOutputName(session api.OrtSession, index uintptr, allocator api.OrtAllocator, name **byte) api.OrtStatus {
	return f.sessionGetOutputName(session, index, allocator, name)
}

func (f *Funcs) Run(session api.OrtSession, runOptions api.OrtRunOptions, inputNames **byte, inputs *api.OrtValue, inputCount uintptr, outputNames **byte, outputCount uintptr, outputs *api.OrtValue) api.OrtStatus {
	return f.run(session, runOptions, inputNames, inputs, inputCount, outputNames, outputCount, outputs)
}

func (f *Funcs) ReleaseSession(session api.OrtSession) {
	f.releaseSession(session)
}

// Model metadata methods

func (f *Funcs) SessionGetModelMetadata(session api.OrtSession, metadata *api.OrtModelMetadata) api.OrtStatus {
	return f.sessionGetModelMetadata(session, metadata)
}

func (f *Funcs) ModelMetadataGetProducerName(metadata api.OrtModelMetadata, allocator api.OrtAllocator, value **byte) api.OrtStatus {
	return f.modelMetadataGetProducerName(metadata, allocator, value)
}

func (f *Funcs) ModelMetadataGetGraphName(metadata api.OrtModelMetadata, allocator api.OrtAllocator, value **byte) api.OrtStatus {
	return f.modelMetadataGetGraphName(metadata, allocator, value)
}

func (f *Funcs) ModelMetadataGetDomain(metadata api.OrtModelMetadata, allocator api.OrtAllocator, value **byte) api.OrtStatus {
	return f.modelMetadataGetDomain(metadata, allocator, value)
}

func (f *Funcs) ModelMetadataGetDescription(metadata api.OrtModelMetadata, allocator api.OrtAllocator, value **byte) api.OrtStatus {
	return f.modelMetadataGetDescription(metadata, allocator, value)
}

func (f *Funcs) ModelMetadataLookupCustomMetadataMap(metadata api.OrtModelMetadata, allocator api.OrtAllocator, key *byte, value **byte) api.OrtStatus {
	return f.modelMetadataLookupCustomMetadataMap(metadata, allocator, key, value)
}

func (f *Funcs) ModelMetadataGetVersion(metadata api.OrtModelMetadata, version *int64) api.OrtStatus {
	return f.modelMetadataGetVersion(metadata, version)
}

func (f *Funcs) ModelMetadataGetCustomMetadataMapKeys(metadata api.OrtModelMetadata, allocator api.OrtAllocator, keys ***byte, numKeys *int64) api.OrtStatus {
	return f.modelMetadataGetCustomMetadataMapKeys(metadata, allocator, keys, numKeys)
}

func (f *Funcs) ReleaseModelMetadata(metadata api.OrtModelMetadata) {
	f.releaseModelMetadata(metadata)
}

// Type introspection methods

func (f *Funcs) SessionGetInputTypeInfo(session api.OrtSession, index uintptr, typeInfo *api.OrtTypeInfo) api.OrtStatus {
	return f.sessionGetInputTypeInfo(session, index, typeInfo)
}

func (f *Funcs) SessionGetOutputTypeInfo(session api.OrtSession, index uintptr, typeInfo *api.OrtTypeInfo) api.OrtStatus {
	return f.sessionGetOutputTypeInfo(session, index, typeInfo)
}

func (f *Funcs) CastTypeInfoToTensorInfo(typeInfo api.OrtTypeInfo, tensorInfo *api.OrtTensorTypeAndShapeInfo) api.OrtStatus {
	return f.castTypeInfoToTensorInfo(typeInfo, tensorInfo)
}

func (f *Funcs) GetOnnxTypeFromTypeInfo(typeInfo api.OrtTypeInfo, onnxType *api.ONNXType) api.OrtStatus {
	return f.getOnnxTypeFromTypeInfo(typeInfo, onnxType)
}

func (f *Funcs) ReleaseTypeInfo(typeInfo api.OrtTypeInfo) {
	f.releaseTypeInfo(typeInfo)
}

// Tensor/Value operations methods

func (f *Funcs) CreateTensorWithDataAsOrtValue(memInfo api.OrtMemoryInfo, data unsafe.Pointer, dataLength uintptr, shape *int64, shapeLength uintptr, dataType api.ONNXTensorElementDataType, value *api.OrtValue) api.OrtStatus {
	return f.createTensorWithDataAsOrtValue(memInfo, data, dataLength, shape, shapeLength, dataType, value)
}

func (f *Funcs) GetTypeInfo(value api.OrtValue, typeInfo *api.OrtTypeInfo) api.OrtStatus {
	return f.getTypeInfo(value, typeInfo)
}

func (f *Funcs) GetValueType(value api.OrtValue, valueType *api.ONNXType) api.OrtStatus {
	return f.getValueType(value, valueType)
}

func (f *Funcs) GetTensorMutableData(value api.OrtValue, data *unsafe.Pointer) api.OrtStatus {
	return f.getTensorMutableData(value, data)
}

func (f *Funcs) GetTensorTypeAndShape(value api.OrtValue, info *api.OrtTensorTypeAndShapeInfo) api.OrtStatus {
	return f.getTensorTypeAndShape(value, info)
}

func (f *Funcs) GetTensorElementType(info api.OrtTensorTypeAndShapeInfo, elemType *api.ONNXTensorElementDataType) api.OrtStatus {
	return f.getTensorElementType(info, elemType)
}

func (f *Funcs) GetDimensionsCount(info api.OrtTensorTypeAndShapeInfo, count *uintptr) api.OrtStatus {
	return f.getDimensionsCount(info, count)
}

func (f *Funcs) GetDimensions(info api.OrtTensorTypeAndShapeInfo, dims *int64, dimsLength uintptr) api.OrtStatus {
	return f.getDimensions(info, dims, dimsLength)
}

func (f *Funcs) GetTensorShapeElementCount(info api.OrtTensorTypeAndShapeInfo, count *uintptr) api.OrtStatus {
	return f.getTensorShapeElementCount(info, count)
}

func (f *Funcs) ReleaseValue(value api.OrtValue) {
	f.releaseValue(value)
}

func (f *Funcs) ReleaseTensorTypeAndShapeInfo(info api.OrtTensorTypeAndShapeInfo) {
	f.releaseTensorTypeAndShapeInfo(info)
}

// Sequence/Map operations methods

func (f *Funcs) GetValue(value api.OrtValue, index int32, allocator api.OrtAllocator, out *api.OrtValue) api.OrtStatus {
	return f.getValue(value, index, allocator, out)
}

func (f *Funcs) GetValueCount(value api.OrtValue, count *uintptr) api.OrtStatus {
	return f.getValueCount(value, count)
}

// Execution provider information methods

func (f *Funcs) GetAvailableProviders(providers ***byte, length *int32) api.OrtStatus {
	return f.getAvailableProviders(providers, length)
}

func (f *Funcs) ReleaseAvailableProviders(providers **byte, length int32) api.OrtStatus {
	return f.releaseAvailableProviders(providers, length)
}
