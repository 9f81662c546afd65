package v23

// APIVersion is the default ORT_API_VERSION requested from OrtGetApiBase.
const APIVersion = 23

// APIBase mirrors struct OrtApiBase.
type APIBase struct {
	GetAPI           uintptr
	GetVersionString uintptr
}

// API mirrors the leading slots of struct OrtApi, through
// ReleaseAvailableProviders. The slot order of this prefix has been frozen
// since ORT_API_VERSION 1, so the same table serves every library that
// accepts the requested version. Slots the engine never calls are kept as
// padding so the offsets line up.
type API struct {
	CreateStatus                             uintptr // 0
	GetErrorCode                             uintptr
	GetErrorMessage                          uintptr
	CreateEnv                                uintptr
	CreateEnvWithCustomLogger                uintptr
	EnableTelemetryEvents                    uintptr
	DisableTelemetryEvents                   uintptr
	CreateSession                            uintptr
	CreateSessionFromArray                   uintptr
	Run                                      uintptr
	CreateSessionOptions                     uintptr // 10
	SetOptimizedModelFilePath                uintptr
	CloneSessionOptions                      uintptr
	SetSessionExecutionMode                  uintptr
	EnableProfiling                          uintptr
	DisableProfiling                         uintptr
	EnableMemPattern                         uintptr
	DisableMemPattern                        uintptr
	EnableCpuMemArena                        uintptr
	DisableCpuMemArena                       uintptr
	SetSessionLogId                          uintptr // 20
	SetSessionLogVerbosityLevel              uintptr
	SetSessionLogSeverityLevel               uintptr
	SetSessionGraphOptimizationLevel         uintptr
	SetIntraOpNumThreads                     uintptr
	SetInterOpNumThreads                     uintptr
	CreateCustomOpDomain                     uintptr
	CustomOpDomainAdd                        uintptr
	AddCustomOpDomain                        uintptr
	RegisterCustomOpsLibrary                 uintptr
	SessionGetInputCount                     uintptr // 30
	SessionGetOutputCount                    uintptr
	SessionGetOverridableInitializerCount    uintptr
	SessionGetInputTypeInfo                  uintptr
	SessionGetOutputTypeInfo                 uintptr
	SessionGetOverridableInitializerTypeInfo uintptr
	SessionGetInputName                      uintptr
	SessionGetOutputName                     uintptr
	SessionGetOverridableInitializerName     uintptr
	CreateRunOptions                         uintptr
	RunOptionsSetRunLogVerbosityLevel        uintptr // 40
	RunOptionsSetRunLogSeverityLevel         uintptr
	RunOptionsSetRunTag                      uintptr
	RunOptionsGetRunLogVerbosityLevel        uintptr
	RunOptionsGetRunLogSeverityLevel         uintptr
	RunOptionsGetRunTag                      uintptr
	RunOptionsSetTerminate                   uintptr
	RunOptionsUnsetTerminate                 uintptr
	CreateTensorAsOrtValue                   uintptr
	CreateTensorWithDataAsOrtValue           uintptr
	IsTensor                                 uintptr // 50
	GetTensorMutableData                     uintptr
	FillStringTensor                         uintptr
	GetStringTensorDataLength                uintptr
	GetStringTensorContent                   uintptr
	CastTypeInfoToTensorInfo                 uintptr
	GetOnnxTypeFromTypeInfo                  uintptr
	CreateTensorTypeAndShapeInfo             uintptr
	SetTensorElementType                     uintptr
	SetDimensions                            uintptr
	GetTensorElementType                     uintptr // 60
	GetDimensionsCount                       uintptr
	GetDimensions                            uintptr
	GetSymbolicDimensions                    uintptr
	GetTensorShapeElementCount               uintptr
	GetTensorTypeAndShape                    uintptr
	GetTypeInfo                              uintptr
	GetValueType                             uintptr
	CreateMemoryInfo                         uintptr
	CreateCpuMemoryInfo                      uintptr
	CompareMemoryInfo                        uintptr // 70
	MemoryInfoGetName                        uintptr
	MemoryInfoGetId                          uintptr
	MemoryInfoGetMemType                     uintptr
	MemoryInfoGetType                        uintptr
	AllocatorAlloc                           uintptr
	AllocatorFree                            uintptr
	AllocatorGetInfo                         uintptr
	GetAllocatorWithDefaultOptions           uintptr
	AddFreeDimensionOverride                 uintptr
	GetValue                                 uintptr // 80
	GetValueCount                            uintptr
	CreateValue                              uintptr
	CreateOpaqueValue                        uintptr
	GetOpaqueValue                           uintptr
	KernelInfoGetAttributeFloat              uintptr
	KernelInfoGetAttributeInt64              uintptr
	KernelContextGetInputCount               uintptr
	KernelContextGetOutputCount              uintptr
	KernelContextGetInput                    uintptr
	KernelContextGetOutput                   uintptr // 90
	ReleaseEnv                               uintptr
	ReleaseStatus                            uintptr
	ReleaseMemoryInfo                        uintptr
	ReleaseSession                           uintptr
	ReleaseValue                             uintptr
	ReleaseRunOptions                        uintptr
	ReleaseTypeInfo                          uintptr
	ReleaseTensorTypeAndShapeInfo            uintptr
	ReleaseSessionOptions                    uintptr
	ReleaseCustomOpDomain                    uintptr // 100
	GetDenotationFromTypeInfo                uintptr
	CastTypeInfoToMapTypeInfo                uintptr
	CastTypeInfoToSequenceTypeInfo           uintptr
	GetMapKeyType                            uintptr
	GetMapValueType                          uintptr
	GetSequenceElementType                   uintptr
	ReleaseMapTypeInfo                       uintptr
	ReleaseSequenceTypeInfo                  uintptr
	SessionEndProfiling                      uintptr
	SessionGetModelMetadata                  uintptr // 110
	ModelMetadataGetProducerName             uintptr
	ModelMetadataGetGraphName                uintptr
	ModelMetadataGetDomain                   uintptr
	ModelMetadataGetDescription              uintptr
	ModelMetadataLookupCustomMetadataMap     uintptr
	ModelMetadataGetVersion                  uintptr
	ReleaseModelMetadata                     uintptr
	CreateEnvWithGlobalThreadPools           uintptr
	DisablePerSessionThreads                 uintptr
	CreateThreadingOptions                   uintptr // 120
	ReleaseThreadingOptions                  uintptr
	ModelMetadataGetCustomMetadataMapKeys    uintptr
	AddFreeDimensionOverrideByName           uintptr
	GetAvailableProviders                    uintptr
	ReleaseAvailableProviders                uintptr // 125
}
