package onnxruntime

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benedoc-inc/ortsession/onnxruntime/internal/api"
	"github.com/benedoc-inc/ortsession/onnxruntime/internal/fakeort"
)

func TestBindIsZeroCopy(t *testing.T) {
	rt, backend := newFakeRuntime(t)
	reg := NewRegistry()

	data := []float32{1, 2, 3, 4}
	desc := TensorDescriptor{ElementType: ONNXTensorElementDataTypeFloat, Shape: []int64{1, 4}}
	in, err := BindSlice(rt, reg, "float_input", desc, data)
	require.NoError(t, err)

	assert.Equal(t, "float_input", in.Name)
	assert.Equal(t, desc, in.Descriptor)
	assert.Equal(t, 1, backend.OutstandingByKind()["Value"])

	// The tensor aliases the caller's buffer.
	p, err := in.Handle().Ptr()
	require.NoError(t, err)
	var data0 unsafe.Pointer
	status := rt.apiFuncs.GetTensorMutableData(api.OrtValue(p), &data0)
	require.NoError(t, rt.statusError(status))
	assert.Equal(t, unsafe.Pointer(&data[0]), data0)

	reg.ReleaseAll()
	assert.Zero(t, backend.OutstandingByKind()["Value"])
}

func TestBindByteLengthMustMatch(t *testing.T) {
	rt, backend := newFakeRuntime(t)

	tests := []struct {
		name  string
		desc  TensorDescriptor
		bytes uintptr
		ok    bool
	}{
		{"exact float", TensorDescriptor{ONNXTensorElementDataTypeFloat, []int64{1, 4}}, 16, true},
		{"exact int64", TensorDescriptor{ONNXTensorElementDataTypeInt64, []int64{2, 2}}, 32, true},
		{"exact uint8", TensorDescriptor{ONNXTensorElementDataTypeUint8, []int64{3}}, 3, true},
		{"short buffer", TensorDescriptor{ONNXTensorElementDataTypeFloat, []int64{1, 4}}, 12, false},
		{"long buffer", TensorDescriptor{ONNXTensorElementDataTypeFloat, []int64{1, 4}}, 20, false},
		{"element size confusion", TensorDescriptor{ONNXTensorElementDataTypeDouble, []int64{1, 4}}, 16, false},
		{"unresolved dimension", TensorDescriptor{ONNXTensorElementDataTypeFloat, []int64{-1, 4}}, 16, false},
		{"zero dimension", TensorDescriptor{ONNXTensorElementDataTypeFloat, []int64{0, 4}}, 0, false},
		{"string tensor", TensorDescriptor{ONNXTensorElementDataTypeString, []int64{2}}, 32, false},
		{"element count overflows", TensorDescriptor{ONNXTensorElementDataTypeFloat, []int64{1<<62 + 1, 4}}, 16, false},
		{"element count wraps to zero", TensorDescriptor{ONNXTensorElementDataTypeUint8, []int64{1 << 32, 1 << 32}}, 0, false},
		{"byte size overflows", TensorDescriptor{ONNXTensorElementDataTypeDouble, []int64{1 << 61}}, 0, false},
	}

	buf := make([]byte, 64)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewRegistry()
			defer reg.ReleaseAll()

			in, err := rt.Bind(reg, "x", tt.desc, unsafe.Pointer(&buf[0]), tt.bytes)
			if tt.ok {
				require.NoError(t, err)
				assert.False(t, in.Handle().Released())
				return
			}
			require.ErrorIs(t, err, ErrShapeMismatch)
			assert.Nil(t, in)
			assert.Zero(t, reg.Len(), "failed bind registers nothing")
		})
	}

	requireNoLeaks(t, backend)
}

func TestBindSliceElementTypeMustMatch(t *testing.T) {
	rt, _ := newFakeRuntime(t)
	reg := NewRegistry()
	defer reg.ReleaseAll()

	desc := TensorDescriptor{ElementType: ONNXTensorElementDataTypeFloat, Shape: []int64{1, 2}}

	_, err := BindSlice(rt, reg, "x", desc, []float64{1, 2})
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = BindSlice(rt, reg, "x", desc, []float32{})
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = BindSlice(rt, reg, "x", desc, []float32{1, 2, 3})
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = BindSlice(rt, reg, "x", desc, []float32{1, 2})
	assert.NoError(t, err)
}

func TestBindBackendFailure(t *testing.T) {
	rt, backend := newFakeRuntime(t)
	backend.FailOnce("CreateTensorWithDataAsOrtValue", fakeort.CodeInvalidArgument, "bad tensor")

	reg := NewRegistry()
	defer reg.ReleaseAll()
	desc := TensorDescriptor{ElementType: ONNXTensorElementDataTypeFloat, Shape: []int64{2}}

	_, err := BindSlice(rt, reg, "x", desc, []float32{1, 2})
	require.ErrorIs(t, err, ErrShapeMismatch)

	var rtErr *RuntimeError
	require.ErrorAs(t, err, &rtErr)
	assert.Equal(t, ErrorCodeInvalidArgument, rtErr.Code)
	assert.Equal(t, "bad tensor", rtErr.Message)

	_, err = BindSlice(rt, reg, "x", desc, []float32{1, 2})
	assert.NoError(t, err)
}

func TestBindIntoReleasedRegistry(t *testing.T) {
	rt, backend := newFakeRuntime(t)
	reg := NewRegistry()
	reg.ReleaseAll()

	desc := TensorDescriptor{ElementType: ONNXTensorElementDataTypeFloat, Shape: []int64{2}}
	_, err := BindSlice(rt, reg, "x", desc, []float32{1, 2})
	require.ErrorIs(t, err, ErrUseAfterRelease)

	requireNoLeaks(t, backend)
}
