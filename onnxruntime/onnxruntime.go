package onnxruntime

import (
	"github.com/benedoc-inc/ortsession/onnxruntime/internal/api"
)

// ErrorCode is the code carried by a backend status. RuntimeError.Code
// holds one of these.
type ErrorCode = api.OrtErrorCode

const (
	ErrorCodeOK               ErrorCode = 0
	ErrorCodeFail             ErrorCode = 1
	ErrorCodeInvalidArgument  ErrorCode = 2
	ErrorCodeNoSuchFile       ErrorCode = 3
	ErrorCodeNoModel          ErrorCode = 4
	ErrorCodeEngineError      ErrorCode = 5
	ErrorCodeRuntimeException ErrorCode = 6
	ErrorCodeInvalidProtobuf  ErrorCode = 7
	ErrorCodeModelLoaded      ErrorCode = 8
	ErrorCodeNotImplemented   ErrorCode = 9
	ErrorCodeInvalidGraph     ErrorCode = 10
	ErrorCodeEPFail           ErrorCode = 11
)

// LoggingLevel is the severity threshold of the backend's own log.
type LoggingLevel = api.OrtLoggingLevel

const (
	LoggingLevelVerbose LoggingLevel = 0
	LoggingLevelInfo    LoggingLevel = 1
	LoggingLevelWarning LoggingLevel = 2
	LoggingLevelError   LoggingLevel = 3
	LoggingLevelFatal   LoggingLevel = 4
)

// ONNXType is the kind of an ONNX value. Only tensors, sequences and maps
// are interpreted.
type ONNXType = api.ONNXType

const (
	ONNXTypeUnknown      ONNXType = 0
	ONNXTypeTensor       ONNXType = 1
	ONNXTypeSequence     ONNXType = 2
	ONNXTypeMap          ONNXType = 3
	ONNXTypeOpaque       ONNXType = 4
	ONNXTypeSparsetensor ONNXType = 5
	ONNXTypeOptional     ONNXType = 6
)

// ONNXTensorElementDataType is the element type of a tensor. The values
// follow the ONNX TensorProto.DataType numbering.
type ONNXTensorElementDataType = api.ONNXTensorElementDataType

const (
	ONNXTensorElementDataTypeUndefined  ONNXTensorElementDataType = 0
	ONNXTensorElementDataTypeFloat      ONNXTensorElementDataType = 1 // float32
	ONNXTensorElementDataTypeUint8      ONNXTensorElementDataType = 2
	ONNXTensorElementDataTypeInt8       ONNXTensorElementDataType = 3
	ONNXTensorElementDataTypeUint16     ONNXTensorElementDataType = 4
	ONNXTensorElementDataTypeInt16      ONNXTensorElementDataType = 5
	ONNXTensorElementDataTypeInt32      ONNXTensorElementDataType = 6
	ONNXTensorElementDataTypeInt64      ONNXTensorElementDataType = 7
	ONNXTensorElementDataTypeString     ONNXTensorElementDataType = 8
	ONNXTensorElementDataTypeBool       ONNXTensorElementDataType = 9
	ONNXTensorElementDataTypeFloat16    ONNXTensorElementDataType = 10
	ONNXTensorElementDataTypeDouble     ONNXTensorElementDataType = 11 // float64
	ONNXTensorElementDataTypeUint32     ONNXTensorElementDataType = 12
	ONNXTensorElementDataTypeUint64     ONNXTensorElementDataType = 13
	ONNXTensorElementDataTypeComplex64  ONNXTensorElementDataType = 14
	ONNXTensorElementDataTypeComplex128 ONNXTensorElementDataType = 15
	ONNXTensorElementDataTypeBFloat16   ONNXTensorElementDataType = 16
)

// GraphOptimizationLevel controls how aggressively the graph is rewritten
// at session creation.
type GraphOptimizationLevel int32

// Graph optimization levels.
const (
	GraphOptimizationDisabled GraphOptimizationLevel = 0
	GraphOptimizationBasic    GraphOptimizationLevel = 1
	GraphOptimizationExtended GraphOptimizationLevel = 2
	GraphOptimizationAll      GraphOptimizationLevel = 99
)

// ExecutionMode selects sequential or parallel operator execution.
type ExecutionMode int32

// Execution modes.
const (
	ExecutionModeSequential ExecutionMode = 0
	ExecutionModeParallel   ExecutionMode = 1
)

// CPU memory info arguments.
type allocatorType = api.OrtAllocatorType

const (
	allocatorTypeDevice allocatorType = 0
	allocatorTypeArena  allocatorType = 1
)

type memType = api.OrtMemType

const memTypeDefault memType = 0
