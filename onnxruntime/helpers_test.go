package onnxruntime

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/benedoc-inc/ortsession/onnxruntime/internal/fakeort"
)

const (
	regressionPath = "models/regression.onnx"
	classifierPath = "models/classifier.onnx"
	labelerPath    = "models/labeler.onnx"
)

// Regression model: variable = x·weights + bias.
var (
	regressionWeights = []float32{0.5, 0.25, 0.125, 1}
	regressionBias    = float32(1)
)

func regressionModel() *fakeort.Model {
	return &fakeort.Model{
		Inputs:  []fakeort.IO{{Name: "float_input", ElemType: fakeort.Float, Shape: []int64{-1, 4}}},
		Outputs: []fakeort.IO{{Name: "variable", ElemType: fakeort.Float, Shape: []int64{-1, 1}}},
		Metadata: fakeort.Metadata{
			ProducerName: "skl2onnx",
			GraphName:    "LinearRegression",
			Domain:       "ai.onnx",
			Description:  "linear regression over four features",
			Version:      3,
			Custom:       map[string]string{"task": "regression", "features": "4"},
		},
		Run: func(in map[string]*fakeort.Value) (map[string]*fakeort.Value, error) {
			x := in["float_input"]
			rows := x.Shape[0]
			data := x.Float32s()
			out := make([]float32, rows)
			for r := range rows {
				sum := regressionBias
				for c, w := range regressionWeights {
					sum += data[int(r)*4+c] * w
				}
				out[r] = sum
			}
			return map[string]*fakeort.Value{
				"variable": fakeort.Float32Tensor([]int64{rows, 1}, out...),
			}, nil
		},
	}
}

// expectedRegression computes the regression output for one row.
func expectedRegression(row []float32) float64 {
	sum := regressionBias
	for i, w := range regressionWeights {
		sum += row[i] * w
	}
	return float64(sum)
}

// Classifier model in the ZipMap layout: a label tensor and a sequence of
// label→probability maps.
func classifierModel() *fakeort.Model {
	return &fakeort.Model{
		Inputs: []fakeort.IO{{Name: "float_input", ElemType: fakeort.Float, Shape: []int64{-1, 4}}},
		Outputs: []fakeort.IO{
			{Name: "output_label", ElemType: fakeort.Int64, Shape: []int64{-1}},
			{Name: "output_probability", Type: fakeort.TypeSequence},
		},
		Run: func(in map[string]*fakeort.Value) (map[string]*fakeort.Value, error) {
			return map[string]*fakeort.Value{
				"output_label":       fakeort.Int64Tensor([]int64{1}, 1),
				"output_probability": fakeort.ProbabilityMaps(map[int64]float32{0: 0.1, 1: 0.9}),
			}, nil
		},
	}
}

// Labeler model: three outputs, so the first (an int64 label tensor) is read.
func labelerModel() *fakeort.Model {
	return &fakeort.Model{
		Inputs: []fakeort.IO{{Name: "pixels", ElemType: fakeort.Uint8, Shape: []int64{-1, 2, 2}}},
		Outputs: []fakeort.IO{
			{Name: "label", ElemType: fakeort.Int64, Shape: []int64{-1}},
			{Name: "scores", ElemType: fakeort.Float, Shape: []int64{-1, 3}},
			{Name: "embedding", ElemType: fakeort.Float, Shape: []int64{-1, 8}},
		},
		Run: func(in map[string]*fakeort.Value) (map[string]*fakeort.Value, error) {
			var sum int64
			for _, b := range in["pixels"].Data {
				sum += int64(b)
			}
			return map[string]*fakeort.Value{
				"label":     fakeort.Int64Tensor([]int64{1}, sum%3),
				"scores":    fakeort.Float32Tensor([]int64{1, 3}, 0.2, 0.3, 0.5),
				"embedding": fakeort.Float32Tensor([]int64{1, 8}, make([]float32, 8)...),
			}, nil
		},
	}
}

// newFakeRuntime returns a Runtime over a fresh fake backend with the test
// models registered. The runtime is closed when the test ends.
func newFakeRuntime(t testing.TB) (*Runtime, *fakeort.Backend) {
	t.Helper()

	backend := fakeort.New()
	backend.Register(regressionPath, regressionModel())
	backend.Register(classifierPath, classifierModel())
	backend.Register(labelerPath, labelerModel())

	rt, err := newRuntimeFromFuncs(backend)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })

	return rt, backend
}

// loadTestModel loads path into a Model closed at the end of the test.
func loadTestModel(t testing.TB, rt *Runtime, path string, config *ModelConfig) *Model {
	t.Helper()

	model, err := rt.LoadModel(path, config)
	require.NoError(t, err)
	t.Cleanup(model.Close)

	return model
}

// newTestSession opens path in a registry released at the end of the test.
func newTestSession(t *testing.T, rt *Runtime, path string) (*Session, *Registry) {
	t.Helper()

	env, err := rt.Env(LoggingLevelWarning)
	require.NoError(t, err)

	reg := NewRegistry()
	t.Cleanup(reg.ReleaseAll)

	session, err := rt.NewSession(reg, env, path, nil)
	require.NoError(t, err)

	return session, reg
}

// requireNoLeaks asserts that only the runtime's own handles remain live and
// that nothing was released twice.
func requireNoLeaks(t *testing.T, backend *fakeort.Backend) {
	t.Helper()

	live := backend.OutstandingByKind()
	delete(live, "Env")
	delete(live, "MemoryInfo")
	require.Empty(t, live, "leaked handles")
	require.Zero(t, backend.OutstandingAllocations(), "leaked allocator memory")
	require.Zero(t, backend.DoubleReleases(), "double releases")
	require.Zero(t, backend.InvalidReleases(), "invalid releases")
}
