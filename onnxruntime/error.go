package onnxruntime

import (
	"errors"
	"fmt"
)

// Error classes surfaced by the session engine. Every error returned from a
// load, inspect, bind, invoke or interpret call wraps exactly one of these,
// so callers can branch with errors.Is. Backend diagnostics are additionally
// available through errors.As with *RuntimeError.
var (
	// ErrLoad is returned when the backend library or the model cannot be loaded.
	// The session is unusable; reload to recover.
	ErrLoad = errors.New("load error")

	// ErrMetadata is returned when a model's I/O contract is outside the
	// single-input/single-output scope, or its metadata cannot be read.
	ErrMetadata = errors.New("metadata error")

	// ErrShapeMismatch is returned when a caller buffer disagrees with the
	// declared tensor shape or element type. Retry with a corrected buffer.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrInference is returned when the backend fails during the forward pass.
	// The same input may be retried.
	ErrInference = errors.New("inference error")

	// ErrUnsupportedOutputType is returned when an output value cannot be
	// interpreted as a dense tensor or a sequence of maps.
	ErrUnsupportedOutputType = errors.New("unsupported output type")

	// ErrUseAfterRelease is returned when a released handle, registry or model is used.
	ErrUseAfterRelease = errors.New("use after release")
)

// RuntimeError represents an error returned from the ONNX Runtime C API.
type RuntimeError struct {
	Code    ErrorCode
	Message string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("onnxruntime error (%s): %s", errorCodeName(e.Code), e.Message)
}

// errorCodeName returns a human-readable name for an error code.
func errorCodeName(code ErrorCode) string {
	switch code {
	case ErrorCodeOK:
		return "OK"
	case ErrorCodeFail:
		return "Fail"
	case ErrorCodeInvalidArgument:
		return "InvalidArgument"
	case ErrorCodeNoSuchFile:
		return "NoSuchFile"
	case ErrorCodeNoModel:
		return "NoModel"
	case ErrorCodeEngineError:
		return "EngineError"
	case ErrorCodeRuntimeException:
		return "RuntimeException"
	case ErrorCodeInvalidProtobuf:
		return "InvalidProtobuf"
	case ErrorCodeModelLoaded:
		return "ModelLoaded"
	case ErrorCodeNotImplemented:
		return "NotImplemented"
	case ErrorCodeInvalidGraph:
		return "InvalidGraph"
	case ErrorCodeEPFail:
		return "EPFail"
	default:
		return fmt.Sprintf("ErrorCode(%d)", code)
	}
}
