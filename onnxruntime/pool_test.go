package onnxruntime

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benedoc-inc/ortsession/onnxruntime/internal/fakeort"
)

var regressionRow = []float32{1, 2, 3, 4}

func newTestPool(t *testing.T, rt *Runtime, path string, n int, config *PoolConfig) *ModelPool {
	t.Helper()

	pool, err := rt.NewModelPool(context.Background(), path, n, config)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return pool
}

// blockingModel is the regression model with a Run that waits for release
// to be closed. started receives once per run.
func blockingModel(started chan<- struct{}, release <-chan struct{}) *fakeort.Model {
	m := regressionModel()
	run := m.Run
	m.Run = func(in map[string]*fakeort.Value) (map[string]*fakeort.Value, error) {
		started <- struct{}{}
		<-release
		return run(in)
	}
	return m
}

func TestModelPoolConcurrent(t *testing.T) {
	rt, _ := newFakeRuntime(t)
	pool := newTestPool(t, rt, regressionPath, 4, &PoolConfig{MaxConcurrentLoads: 2})

	assert.Equal(t, 4, pool.Size())
	assert.Equal(t, 4, pool.Available())

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			row := []float32{float32(i), 0, 0, 0}
			result, err := pool.Run(context.Background(), row)
			if err != nil {
				errs <- err
				return
			}
			if got, want := result.Values[0], expectedRegression(row); got != want {
				errs <- errors.New("wrong value from pooled run")
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}

	stats := pool.Stats()
	assert.Equal(t, int64(20), stats.TotalRuns)
	assert.Zero(t, stats.TotalErrors)
	assert.Equal(t, 4, stats.AvailableModels)
	assert.Equal(t, 4, stats.PoolSize)
}

func TestModelPoolContextCancellation(t *testing.T) {
	rt, backend := newFakeRuntime(t)
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	backend.Register("blocking.onnx", blockingModel(started, release))
	pool := newTestPool(t, rt, "blocking.onnx", 1, nil)

	done := make(chan error, 1)
	go func() {
		_, err := pool.Run(context.Background(), regressionRow)
		done <- err
	}()
	<-started
	assert.Zero(t, pool.Available())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := pool.Run(ctx, regressionRow)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, pool.Available())
}

func TestModelPoolHooks(t *testing.T) {
	rt, _ := newFakeRuntime(t)

	var after atomic.Int32
	counter := &countingHook{}
	pool := newTestPool(t, rt, regressionPath, 2, &PoolConfig{
		Model: &ModelConfig{
			Hooks: []Hook{
				counter,
				AfterRunHook(func(info *RunInfo) {
					if info.Error == nil && info.Kind == OutputKindDenseFloat {
						after.Add(1)
					}
				}),
			},
		},
	})

	for range 3 {
		_, err := pool.Run(context.Background(), regressionRow)
		require.NoError(t, err)
	}

	assert.Equal(t, int32(3), counter.before.Load())
	assert.Equal(t, int32(3), after.Load())
}

func TestModelPoolNames(t *testing.T) {
	rt, _ := newFakeRuntime(t)
	pool := newTestPool(t, rt, classifierPath, 2, nil)

	assert.Equal(t, []string{"float_input"}, pool.InputNames())
	assert.Equal(t, []string{"output_label", "output_probability"}, pool.OutputNames())

	spec := pool.IOSpec()
	assert.Equal(t, "output_probability", spec.OutputName)
	assert.Equal(t, []int64{1, 4}, spec.Input.Shape)
}

func TestModelPoolClose(t *testing.T) {
	rt, backend := newFakeRuntime(t)
	pool, err := rt.NewModelPool(context.Background(), regressionPath, 3, nil)
	require.NoError(t, err)

	_, err = pool.Run(context.Background(), regressionRow)
	require.NoError(t, err)

	pool.Close()
	pool.Close()

	_, err = pool.Run(context.Background(), regressionRow)
	assert.ErrorIs(t, err, ErrPoolClosed)
	assert.ErrorIs(t, pool.Warmup(context.Background(), regressionRow), ErrPoolClosed)
	requireNoLeaks(t, backend)
}

func TestModelPoolStats(t *testing.T) {
	rt, _ := newFakeRuntime(t)
	pool := newTestPool(t, rt, regressionPath, 2, nil)

	assert.Zero(t, pool.Stats().AvgLatency())

	_, err := pool.Run(context.Background(), regressionRow)
	require.NoError(t, err)
	_, err = pool.Run(context.Background(), []float32{1, 2})
	require.ErrorIs(t, err, ErrShapeMismatch)

	stats := pool.Stats()
	assert.Equal(t, int64(2), stats.TotalRuns)
	assert.Equal(t, int64(1), stats.TotalErrors)
	assert.Equal(t, stats.TotalLatency/2, stats.AvgLatency())

	pool.ResetStats()
	stats = pool.Stats()
	assert.Zero(t, stats.TotalRuns)
	assert.Zero(t, stats.TotalErrors)
	assert.Zero(t, stats.TotalLatency)
}

func TestModelPoolWarmup(t *testing.T) {
	rt, backend := newFakeRuntime(t)
	pool := newTestPool(t, rt, regressionPath, 3, nil)

	require.NoError(t, pool.Warmup(context.Background(), regressionRow))
	assert.Equal(t, 3, backend.Calls("Run"), "every instance runs once")
	assert.Equal(t, int64(3), pool.Stats().TotalRuns)
	assert.Equal(t, 3, pool.Available())
}

func TestModelPoolWarmupFailure(t *testing.T) {
	rt, _ := newFakeRuntime(t)
	pool := newTestPool(t, rt, regressionPath, 2, nil)

	err := pool.Warmup(context.Background(), []float32{1})
	require.ErrorIs(t, err, ErrShapeMismatch)
	assert.Equal(t, 2, pool.Available(), "instances are returned after a failed warmup")
}

func TestModelPoolHealthCheck(t *testing.T) {
	rt, backend := newFakeRuntime(t)
	pool := newTestPool(t, rt, regressionPath, 1, nil)

	require.NoError(t, pool.HealthCheck(context.Background(), regressionRow))

	backend.FailOnce("Run", fakeort.CodeRuntimeException, "device lost")
	err := pool.HealthCheck(context.Background(), regressionRow)
	require.ErrorIs(t, err, ErrInference)
	assert.Contains(t, err.Error(), "health check failed")

	pool.Close()
	assert.ErrorIs(t, pool.HealthCheck(context.Background(), regressionRow), ErrPoolClosed)
}

func TestModelPoolFromBytes(t *testing.T) {
	rt, backend := newFakeRuntime(t)
	data := []byte("serialized regression model")
	backend.RegisterBytes(data, regressionModel())

	pool, err := rt.NewModelPoolFromBytes(context.Background(), "inline", data, 2, nil)
	require.NoError(t, err)
	defer pool.Close()

	result, err := pool.Run(context.Background(), regressionRow)
	require.NoError(t, err)
	assert.Equal(t, expectedRegression(regressionRow), result.Values[0])

	_, err = rt.NewModelPoolFromBytes(context.Background(), "empty", nil, 2, nil)
	assert.ErrorIs(t, err, ErrLoad)
}

func TestModelPoolLoadFailureReleasesInstances(t *testing.T) {
	rt, backend := newFakeRuntime(t)

	// Session creation fails for every instance; nothing stays live.
	backend.Fail("CreateSession", fakeort.CodeFail, "out of memory")
	_, err := rt.NewModelPool(context.Background(), regressionPath, 3, &PoolConfig{MaxConcurrentLoads: 1})
	require.ErrorIs(t, err, ErrLoad)
	requireNoLeaks(t, backend)

	backend.ClearFailures()
	_, err = rt.NewModelPool(context.Background(), "missing.onnx", 2, nil)
	require.ErrorIs(t, err, ErrLoad)
	requireNoLeaks(t, backend)
}

func TestModelPoolInvalidSize(t *testing.T) {
	rt, _ := newFakeRuntime(t)

	for _, n := range []int{0, -1} {
		_, err := rt.NewModelPool(context.Background(), regressionPath, n, nil)
		assert.Error(t, err)
	}
}

// countingHook counts BeforeRun calls.
type countingHook struct {
	before atomic.Int32
}

func (h *countingHook) BeforeRun(_ *RunInfo) { h.before.Add(1) }
func (h *countingHook) AfterRun(_ *RunInfo)  {}

func TestModelPoolDo(t *testing.T) {
	rt, _ := newFakeRuntime(t)
	pool := newTestPool(t, rt, labelerPath, 2, nil)

	result, err := pool.Do(context.Background(), func(m *Model) (*Result, error) {
		return RunTensor(context.Background(), m, []uint8{1, 1, 1, 1})
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, result.Labels())

	_, err = pool.Do(context.Background(), func(m *Model) (*Result, error) {
		return nil, errors.New("caller failure")
	})
	require.Error(t, err)

	stats := pool.Stats()
	assert.Equal(t, int64(2), stats.TotalRuns)
	assert.Equal(t, int64(1), stats.TotalErrors)
	assert.Equal(t, 2, pool.Available())
}

func TestModelPoolCloseWakesWaiters(t *testing.T) {
	rt, backend := newFakeRuntime(t)
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	backend.Register("blocking.onnx", blockingModel(started, release))
	pool, err := rt.NewModelPool(context.Background(), "blocking.onnx", 1, nil)
	require.NoError(t, err)

	running := make(chan error, 1)
	go func() {
		_, err := pool.Run(context.Background(), regressionRow)
		running <- err
	}()
	<-started

	waiting := make(chan error, 1)
	go func() {
		_, err := pool.Run(context.Background(), regressionRow)
		waiting <- err
	}()
	warming := make(chan error, 1)
	go func() {
		warming <- pool.Warmup(context.Background(), regressionRow)
	}()
	// let both callers park on the empty pool
	time.Sleep(20 * time.Millisecond)

	// Close waits for the in-flight run, so it cannot run on this goroutine.
	closed := make(chan struct{})
	go func() {
		pool.Close()
		close(closed)
	}()

	select {
	case err := <-waiting:
		assert.ErrorIs(t, err, ErrPoolClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("waiting caller still blocked after Close")
	}
	select {
	case err := <-warming:
		assert.ErrorIs(t, err, ErrPoolClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("warmup still blocked after Close")
	}

	close(release)
	require.NoError(t, <-running)
	<-closed
	assert.Zero(t, pool.Available())
	requireNoLeaks(t, backend)
}

func TestModelPoolWarmupWith(t *testing.T) {
	rt, backend := newFakeRuntime(t)
	pool := newTestPool(t, rt, labelerPath, 2, nil)

	var seen sync.Map
	err := pool.WarmupWith(context.Background(), func(m *Model) (*Result, error) {
		seen.Store(m, true)
		return RunTensor(context.Background(), m, []uint8{1, 1, 1, 1})
	})
	require.NoError(t, err)

	n := 0
	seen.Range(func(_, _ any) bool { n++; return true })
	assert.Equal(t, 2, n, "every instance is warmed")
	assert.Equal(t, 2, backend.Calls("Run"))
	assert.Equal(t, 2, pool.Available())
}
