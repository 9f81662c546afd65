// Package hooks provides onnxruntime.Hook implementations for Prometheus
// metrics and zerolog logging.
package hooks

import (
	"context"
	"errors"

	"github.com/benedoc-inc/ortsession/onnxruntime"
)

// Outcome labels attached to finished runs.
const (
	OutcomeOK                = "ok"
	OutcomeShapeMismatch     = "shape_mismatch"
	OutcomeInference         = "inference_error"
	OutcomeUnsupportedOutput = "unsupported_output"
	OutcomeReleased          = "released"
	OutcomeCanceled          = "canceled"
	OutcomeOther             = "error"
)

// Outcome classifies a run error into a short, low-cardinality label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCanceled
	case errors.Is(err, onnxruntime.ErrShapeMismatch):
		return OutcomeShapeMismatch
	case errors.Is(err, onnxruntime.ErrUnsupportedOutputType):
		return OutcomeUnsupportedOutput
	case errors.Is(err, onnxruntime.ErrUseAfterRelease):
		return OutcomeReleased
	case errors.Is(err, onnxruntime.ErrInference):
		return OutcomeInference
	default:
		return OutcomeOther
	}
}
