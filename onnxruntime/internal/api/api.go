package api

import "unsafe"

// OrtStatus is an opaque pointer to an ONNX Runtime status object.
type OrtStatus uintptr

// OrtEnv is an opaque pointer to an ONNX Runtime environment.
type OrtEnv uintptr

// OrtSession is an opaque pointer to an ONNX Runtime inference session.
type OrtSession uintptr

// OrtSessionOptions is an opaque pointer to ONNX Runtime session options.
type OrtSessionOptions uintptr

// OrtValue is an opaque pointer to an ONNX Runtime value (tensor, sequence or map).
type OrtValue uintptr

// OrtAllocator is an opaque pointer to an ONNX Runtime memory allocator.
type OrtAllocator uintptr

// OrtMemoryInfo is an opaque pointer to ONNX Runtime memory information.
type OrtMemoryInfo uintptr

// OrtTensorTypeAndShapeInfo is an opaque pointer to ONNX Runtime tensor type and shape information.
type OrtTensorTypeAndShapeInfo uintptr

// OrtRunOptions is an opaque pointer to ONNX Runtime run options.
type OrtRunOptions uintptr

// OrtModelMetadata is an opaque pointer to ONNX Runtime model metadata.
type OrtModelMetadata uintptr

// OrtTypeInfo is an opaque pointer to ONNX Runtime type information.
type OrtTypeInfo uintptr

// OrtErrorCode represents error codes returned by the ONNX Runtime C API.
type OrtErrorCode int32

// OrtLoggingLevel represents logging verbosity levels for ONNX Runtime.
type OrtLoggingLevel int32

// ONNXType represents the type of an ONNX value.
type ONNXType int32

// ONNXTensorElementDataType represents the data type of tensor elements.
type ONNXTensorElementDataType int32

// OrtAllocatorType represents memory allocator types.
type OrtAllocatorType int32

// OrtMemType represents memory types for allocations.
type OrtMemType int32

// APIFuncs is the subset of the ONNX Runtime C API the session engine consumes.
// It is implemented by the purego function table in package v23 and by the
// in-process fake backend used in tests.
type APIFuncs interface {
	// Status and error handling
	CreateStatus(OrtErrorCode, *byte) OrtStatus
	GetErrorCode(OrtStatus) OrtErrorCode
	GetErrorMessage(OrtStatus) unsafe.Pointer
	ReleaseStatus(OrtStatus)

	// Environment
	CreateEnv(OrtLoggingLevel, *byte, *OrtEnv) OrtStatus
	ReleaseEnv(OrtEnv)

	// Allocator
	GetAllocatorWithDefaultOptions(*OrtAllocator) OrtStatus
	AllocatorFree(OrtAllocator, unsafe.Pointer)

	// Memory info
	CreateCpuMemoryInfo(OrtAllocatorType, OrtMemType, *OrtMemoryInfo) OrtStatus
	ReleaseMemoryInfo(OrtMemoryInfo)

	// Session options
	CreateSessionOptions(*OrtSessionOptions) OrtStatus
	SetOptimizedModelFilePath(OrtSessionOptions, *byte) OrtStatus
	SetIntraOpNumThreads(OrtSessionOptions, int32) OrtStatus
	SetInterOpNumThreads(OrtSessionOptions, int32) OrtStatus
	SetSessionExecutionMode(OrtSessionOptions, int32) OrtStatus
	SetSessionGraphOptimizationLevel(OrtSessionOptions, int32) OrtStatus
	EnableCpuMemArena(OrtSessionOptions) OrtStatus
	DisableCpuMemArena(OrtSessionOptions) OrtStatus
	EnableMemPattern(OrtSessionOptions) OrtStatus
	DisableMemPattern(OrtSessionOptions) OrtStatus
	SetSessionLogSeverityLevel(OrtSessionOptions, int32) OrtStatus
	AddFreeDimensionOverrideByName(OrtSessionOptions, *byte, int64) OrtStatus
	ReleaseSessionOptions(OrtSessionOptions)

	// Run options
	CreateRunOptions(*OrtRunOptions) OrtStatus
	RunOptionsSetRunTag(OrtRunOptions, *byte) OrtStatus
	RunOptionsSetTerminate(OrtRunOptions) OrtStatus
	ReleaseRunOptions(OrtRunOptions)

	// Session
	CreateSession(OrtEnv, *byte, OrtSessionOptions, *OrtSession) OrtStatus
	CreateSessionFromArray(OrtEnv, unsafe.Pointer, uintptr, OrtSessionOptions, *OrtSession) OrtStatus
	SessionGetInputCount(OrtSession, *uintptr) OrtStatus
	SessionGetOutputCount(OrtSession, *uintptr) OrtStatus
	SessionGetInputName(OrtSession, uintptr, OrtAllocator, **byte) OrtStatus
	SessionGetOutputName(OrtSession, uintptr, OrtAllocator, **byte) OrtStatus
	Run(OrtSession, OrtRunOptions, **byte, *OrtValue, uintptr, **byte, uintptr, *OrtValue) OrtStatus
	ReleaseSession(OrtSession)

	// Model metadata
	SessionGetModelMetadata(OrtSession, *OrtModelMetadata) OrtStatus
	ModelMetadataGetProducerName(OrtModelMetadata, OrtAllocator, **byte) OrtStatus
	ModelMetadataGetGraphName(OrtModelMetadata, OrtAllocator, **byte) OrtStatus
	ModelMetadataGetDomain(OrtModelMetadata, OrtAllocator, **byte) OrtStatus
	ModelMetadataGetDescription(OrtModelMetadata, OrtAllocator, **byte) OrtStatus
	ModelMetadataLookupCustomMetadataMap(OrtModelMetadata, OrtAllocator, *byte, **byte) OrtStatus
	ModelMetadataGetVersion(OrtModelMetadata, *int64) OrtStatus
	ModelMetadataGetCustomMetadataMapKeys(OrtModelMetadata, OrtAllocator, ***byte, *int64) OrtStatus
	ReleaseModelMetadata(OrtModelMetadata)

	// Type introspection
	SessionGetInputTypeInfo(OrtSession, uintptr, *OrtTypeInfo) OrtStatus
	SessionGetOutputTypeInfo(OrtSession, uintptr, *OrtTypeInfo) OrtStatus
	CastTypeInfoToTensorInfo(OrtTypeInfo, *OrtTensorTypeAndShapeInfo) OrtStatus
	GetOnnxTypeFromTypeInfo(OrtTypeInfo, *ONNXType) OrtStatus
	ReleaseTypeInfo(OrtTypeInfo)

	// Tensor/Value operations
	CreateTensorWithDataAsOrtValue(OrtMemoryInfo, unsafe.Pointer, uintptr, *int64, uintptr, ONNXTensorElementDataType, *OrtValue) OrtStatus
	GetTypeInfo(OrtValue, *OrtTypeInfo) OrtStatus
	GetValueType(OrtValue, *ONNXType) OrtStatus
	GetTensorMutableData(OrtValue, *unsafe.Pointer) OrtStatus
	GetTensorTypeAndShape(OrtValue, *OrtTensorTypeAndShapeInfo) OrtStatus
	GetTensorElementType(OrtTensorTypeAndShapeInfo, *ONNXTensorElementDataType) OrtStatus
	GetDimensionsCount(OrtTensorTypeAndShapeInfo, *uintptr) OrtStatus
	GetDimensions(OrtTensorTypeAndShapeInfo, *int64, uintptr) OrtStatus
	GetTensorShapeElementCount(OrtTensorTypeAndShapeInfo, *uintptr) OrtStatus
	ReleaseValue(OrtValue)
	ReleaseTensorTypeAndShapeInfo(OrtTensorTypeAndShapeInfo)

	// Sequence/Map operations
	GetValue(OrtValue, int32, OrtAllocator, *OrtValue) OrtStatus
	GetValueCount(OrtValue, *uintptr) OrtStatus

	// Execution provider information
	GetAvailableProviders(***byte, *int32) OrtStatus
	ReleaseAvailableProviders(**byte, int32) OrtStatus
}
