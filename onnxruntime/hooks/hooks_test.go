package hooks

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/benedoc-inc/ortsession/onnxruntime"
)

func TestOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, OutcomeOK},
		{fmt.Errorf("%w: 3 bytes", onnxruntime.ErrShapeMismatch), OutcomeShapeMismatch},
		{fmt.Errorf("%w: run failed", onnxruntime.ErrInference), OutcomeInference},
		{fmt.Errorf("%w: string tensor", onnxruntime.ErrUnsupportedOutputType), OutcomeUnsupportedOutput},
		{onnxruntime.ErrUseAfterRelease, OutcomeReleased},
		{fmt.Errorf("%w: %w", onnxruntime.ErrInference, context.Canceled), OutcomeCanceled},
		{context.DeadlineExceeded, OutcomeCanceled},
		{errors.New("disk on fire"), OutcomeOther},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Outcome(tt.err))
		})
	}
}
