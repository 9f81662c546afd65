package onnxruntime

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benedoc-inc/ortsession/onnxruntime/internal/fakeort"
)

func TestModelRoundTrip(t *testing.T) {
	rt, backend := newFakeRuntime(t)
	model := loadTestModel(t, rt, regressionPath, nil)
	assert.Equal(t, StateMetadataResolved, model.State())

	input := []float32{1, 2, 3, 4}
	result, err := model.RunOnce(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, StateInterpreted, model.State())
	assert.Equal(t, OutputKindDenseFloat, result.Kind)
	assert.Equal(t, []int64{1, 1}, result.Shape)
	require.Equal(t, 1, result.Count())
	assert.InDelta(t, expectedRegression(input), result.Values[0], 1e-6)

	// The backend saw the caller's data under the resolved shape.
	bound := backend.LastInputs()["float_input"]
	assert.Equal(t, []int64{1, 4}, bound.Shape)
	assert.Equal(t, input, bound.Float32s())
}

func TestModelClassifierReadsProbabilities(t *testing.T) {
	rt, _ := newFakeRuntime(t)
	model := loadTestModel(t, rt, classifierPath, nil)

	spec := model.IOSpec()
	assert.Equal(t, "output_probability", spec.OutputName)

	result, err := model.RunOnce(context.Background(), []float32{5.1, 3.5, 1.4, 0.2})
	require.NoError(t, err)
	assert.Equal(t, OutputKindLabelProbabilitySequence, result.Kind)
	assert.InDeltaSlice(t, []float64{0.1, 0.9}, result.Values, 1e-6)
}

func TestRunTensorTyped(t *testing.T) {
	rt, _ := newFakeRuntime(t)
	model := loadTestModel(t, rt, labelerPath, nil)

	result, err := RunTensor(context.Background(), model, []uint8{1, 1, 1, 2})
	require.NoError(t, err)
	assert.Equal(t, OutputKindDenseLabel, result.Kind)
	assert.Equal(t, []int64{2}, result.Labels())

	_, err = model.RunOnce(context.Background(), []float32{1, 2, 3, 4})
	assert.ErrorIs(t, err, ErrShapeMismatch, "float data cannot feed a uint8 input")
}

func TestModelReleasesEveryHandle(t *testing.T) {
	rt, backend := newFakeRuntime(t)
	model, err := rt.LoadModel(regressionPath, nil)
	require.NoError(t, err)

	for i := range 5 {
		result, err := model.RunOnce(context.Background(), []float32{1, 2, 3, float32(i)})
		require.NoError(t, err)
		assert.Equal(t, 1, result.Count())
		// Only the latest cycle's output stays live.
		assert.LessOrEqual(t, backend.OutstandingByKind()["Value"], 2)
	}

	model.Close()
	requireNoLeaks(t, backend)
	assert.Equal(t, StateReleased, model.State())
}

func TestModelResultOutlivesNextRun(t *testing.T) {
	rt, _ := newFakeRuntime(t)
	model := loadTestModel(t, rt, regressionPath, nil)

	first, err := model.RunOnce(context.Background(), []float32{1, 1, 1, 1})
	require.NoError(t, err)
	_, err = model.RunOnce(context.Background(), []float32{2, 2, 2, 2})
	require.NoError(t, err)

	assert.InDelta(t, expectedRegression([]float32{1, 1, 1, 1}), first.Values[0], 1e-6)
	first.Close()
	first.Close()
}

func TestModelShapeMismatchIsRecoverable(t *testing.T) {
	rt, backend := newFakeRuntime(t)
	model := loadTestModel(t, rt, regressionPath, nil)

	_, err := model.RunOnce(context.Background(), []float32{1, 2, 3})
	require.ErrorIs(t, err, ErrShapeMismatch)
	assert.Equal(t, StateMetadataResolved, model.State())
	assert.Zero(t, backend.Calls("Run"))

	_, err = model.RunOnce(context.Background(), []float32{1, 2, 3, 4})
	assert.NoError(t, err)
}

func TestModelInferenceErrorIsRecoverable(t *testing.T) {
	rt, backend := newFakeRuntime(t)
	model := loadTestModel(t, rt, regressionPath, nil)

	backend.FailOnce("Run", fakeort.CodeFail, "transient failure")
	_, err := model.RunOnce(context.Background(), []float32{1, 2, 3, 4})
	require.ErrorIs(t, err, ErrInference)
	assert.Equal(t, StateMetadataResolved, model.State())
	assert.Zero(t, backend.OutstandingByKind()["Value"], "failed cycle releases its input")

	result, err := model.RunOnce(context.Background(), []float32{1, 2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Count())
}

func TestModelUnsupportedOutput(t *testing.T) {
	rt, backend := newFakeRuntime(t)
	backend.Register("strings.onnx", &fakeort.Model{
		Inputs:  []fakeort.IO{{Name: "x", ElemType: fakeort.Float, Shape: []int64{1}}},
		Outputs: []fakeort.IO{{Name: "names", ElemType: fakeort.String, Shape: []int64{1}}},
		Run: func(map[string]*fakeort.Value) (map[string]*fakeort.Value, error) {
			return map[string]*fakeort.Value{"names": fakeort.StringTensor([]int64{1})}, nil
		},
	})
	model := loadTestModel(t, rt, "strings.onnx", nil)

	_, err := model.RunOnce(context.Background(), []float32{1})
	require.ErrorIs(t, err, ErrUnsupportedOutputType)
	assert.Equal(t, StateMetadataResolved, model.State())

	model.Close()
	requireNoLeaks(t, backend)
}

func TestModelUseAfterClose(t *testing.T) {
	rt, _ := newFakeRuntime(t)
	model, err := rt.LoadModel(regressionPath, nil)
	require.NoError(t, err)

	model.Close()
	model.Close()

	_, err = model.RunOnce(context.Background(), []float32{1, 2, 3, 4})
	assert.ErrorIs(t, err, ErrUseAfterRelease)
	assert.Equal(t, StateReleased, model.State())
}

func TestModelReleasedWithRuntime(t *testing.T) {
	backend := fakeort.New()
	backend.Register(regressionPath, regressionModel())
	rt, err := newRuntimeFromFuncs(backend)
	require.NoError(t, err)

	model, err := rt.LoadModel(regressionPath, nil)
	require.NoError(t, err)
	_, err = model.RunOnce(context.Background(), []float32{1, 2, 3, 4})
	require.NoError(t, err)

	require.NoError(t, rt.Close())
	assert.Equal(t, StateReleased, model.State())
	assert.Zero(t, backend.Outstanding())
	assert.Zero(t, backend.DoubleReleases())

	_, err = model.RunOnce(context.Background(), []float32{1, 2, 3, 4})
	assert.ErrorIs(t, err, ErrUseAfterRelease)
	model.Close()
	assert.Zero(t, backend.DoubleReleases())

	_, err = rt.LoadModel(regressionPath, nil)
	assert.ErrorIs(t, err, ErrLoad)
}

func TestModelSerializesConcurrentRuns(t *testing.T) {
	rt, backend := newFakeRuntime(t)

	var inFlight, maxInFlight atomic.Int32
	slow := regressionModel()
	run := slow.Run
	slow.Run = func(in map[string]*fakeort.Value) (map[string]*fakeort.Value, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			m := maxInFlight.Load()
			if n <= m || maxInFlight.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		return run(in)
	}
	backend.Register("slow.onnx", slow)
	model := loadTestModel(t, rt, "slow.onnx", nil)

	const workers = 8
	var wg sync.WaitGroup
	results := make([]float64, workers)
	errs := make([]error, workers)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			row := []float32{float32(i), 0, 0, 0}
			result, err := model.RunOnce(context.Background(), row)
			errs[i] = err
			if err == nil {
				results[i] = result.Values[0]
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInFlight.Load(), "runs on one model never overlap")
	for i := range workers {
		require.NoError(t, errs[i])
		assert.InDelta(t, expectedRegression([]float32{float32(i), 0, 0, 0}), results[i], 1e-6)
	}
}

func TestModelCloseWaitsForRun(t *testing.T) {
	rt, backend := newFakeRuntime(t)

	started := make(chan struct{})
	release := make(chan struct{})
	slow := regressionModel()
	run := slow.Run
	slow.Run = func(in map[string]*fakeort.Value) (map[string]*fakeort.Value, error) {
		close(started)
		<-release
		return run(in)
	}
	backend.Register("slow.onnx", slow)
	model, err := rt.LoadModel("slow.onnx", nil)
	require.NoError(t, err)

	errc := make(chan error, 1)
	go func() {
		_, err := model.RunOnce(context.Background(), []float32{1, 2, 3, 4})
		errc <- err
	}()
	<-started

	closed := make(chan struct{})
	go func() {
		model.Close()
		close(closed)
	}()

	select {
	case <-closed:
		t.Fatal("Close returned while a run was in flight")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	require.NoError(t, <-errc)
	<-closed
	requireNoLeaks(t, backend)
}

func TestLoadModelErrors(t *testing.T) {
	rt, backend := newFakeRuntime(t)

	_, err := rt.LoadModel("missing.onnx", nil)
	require.ErrorIs(t, err, ErrLoad)
	var rtErr *RuntimeError
	require.ErrorAs(t, err, &rtErr)
	assert.Equal(t, ErrorCodeNoSuchFile, rtErr.Code)

	_, err = rt.LoadModelFromBytes("blob", []byte("not a model"), nil)
	require.ErrorIs(t, err, ErrLoad)
	require.ErrorAs(t, err, &rtErr)
	assert.Equal(t, ErrorCodeInvalidProtobuf, rtErr.Code)

	_, err = rt.LoadModelFromBytes("empty", nil, nil)
	assert.ErrorIs(t, err, ErrLoad)

	backend.FailOnce("SessionGetInputName", fakeort.CodeFail, "names unavailable")
	_, err = rt.LoadModel(regressionPath, nil)
	assert.ErrorIs(t, err, ErrMetadata)

	requireNoLeaks(t, backend)
}

func TestLoadModelFromBytes(t *testing.T) {
	rt, backend := newFakeRuntime(t)
	data := []byte("serialized regression model")
	backend.RegisterBytes(data, regressionModel())

	model, err := rt.LoadModelFromBytes("regression", data, nil)
	require.NoError(t, err)
	defer model.Close()

	assert.Equal(t, "regression", model.Path())
	assert.Equal(t, []string{"float_input"}, model.InputNames())
	assert.Equal(t, []string{"variable"}, model.OutputNames())

	result, err := model.RunOnce(context.Background(), []float32{1, 2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Count())
}

func TestModelConfig(t *testing.T) {
	rt, backend := newFakeRuntime(t)

	level := LoggingLevelError
	arena := false
	model := loadTestModel(t, rt, regressionPath, &ModelConfig{
		LogLevel:  &level,
		BatchSize: 2,
		SessionOptions: &SessionOptions{
			IntraOpNumThreads:      2,
			GraphOptimization:      GraphOptimizationAll,
			CpuMemArena:            &arena,
			FreeDimensionOverrides: map[string]int64{"batch": 2},
		},
	})

	assert.Equal(t, LoggingLevelError, backend.EnvLogLevel())
	assert.Equal(t, []int64{2, 4}, model.IOSpec().Input.Shape)

	opts := backend.LastSessionOptions()
	assert.Equal(t, int32(2), opts.IntraOpThreads)
	assert.Equal(t, int32(GraphOptimizationAll), opts.GraphOptimization)
	require.NotNil(t, opts.CpuMemArena)
	assert.False(t, *opts.CpuMemArena)
	assert.Equal(t, map[string]int64{"batch": 2}, opts.FreeDimensionOverrides)

	result, err := model.RunOnce(context.Background(), []float32{1, 2, 3, 4, 4, 3, 2, 1})
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 1}, result.Shape)
	assert.InDelta(t, expectedRegression([]float32{4, 3, 2, 1}), result.Values[1], 1e-6)
}

func TestModelEnvironmentIsShared(t *testing.T) {
	rt, backend := newFakeRuntime(t)
	loadTestModel(t, rt, regressionPath, nil)

	level := LoggingLevelVerbose
	loadTestModel(t, rt, classifierPath, &ModelConfig{LogLevel: &level})

	assert.Equal(t, 1, backend.Calls("CreateEnv"))
	assert.Equal(t, LoggingLevelWarning, backend.EnvLogLevel(), "the first load decides the level")
}

func TestModelStateString(t *testing.T) {
	assert.Equal(t, "MetadataResolved", StateMetadataResolved.String())
	assert.Equal(t, "Released", StateReleased.String())
	assert.Equal(t, "ModelState(99)", ModelState(99).String())
}
