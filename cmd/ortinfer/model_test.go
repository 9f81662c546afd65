package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ort "github.com/benedoc-inc/ortsession/onnxruntime"
)

func TestPrepareRun(t *testing.T) {
	for _, et := range []ort.ONNXTensorElementDataType{
		ort.ONNXTensorElementDataTypeFloat,
		ort.ONNXTensorElementDataTypeDouble,
		ort.ONNXTensorElementDataTypeFloat16,
		ort.ONNXTensorElementDataTypeBFloat16,
		ort.ONNXTensorElementDataTypeInt64,
		ort.ONNXTensorElementDataTypeUint8,
		ort.ONNXTensorElementDataTypeBool,
	} {
		run, err := prepareRun(et, []float64{1, 0})
		require.NoError(t, err, ort.ElementTypeName(et))
		assert.NotNil(t, run)
	}

	_, err := prepareRun(ort.ONNXTensorElementDataTypeString, []float64{1})
	assert.ErrorContains(t, err, "string")
}
