package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ort "github.com/benedoc-inc/ortsession/onnxruntime"
)

type stubRunner struct {
	mu     sync.Mutex
	inputs [][]float64
	result *ort.Result
	err    error
	closed bool
}

func (s *stubRunner) IOSpec() ort.IOSpec {
	return ort.IOSpec{InputName: "x", OutputName: "y"}
}

func (s *stubRunner) Run(_ context.Context, values []float64) (*ort.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inputs = append(s.inputs, values)
	return s.result, s.err
}

func (s *stubRunner) Describe() (*description, error) {
	return &description{Path: "stub.onnx", Input: "x", Output: "y"}, nil
}

type stubPool struct {
	stubRunner
	warmups atomic.Int32
	resets  atomic.Int32
	extra   *poolExtras
	size    int
}

func (s *stubPool) Warmup(ctx context.Context, values []float64) error {
	s.warmups.Add(1)
	_, err := s.Run(ctx, values)
	return err
}

func (s *stubPool) Stats() ort.PoolStats {
	return ort.PoolStats{PoolSize: s.size}
}

func (s *stubPool) ResetStats() { s.resets.Add(1) }

// newStubApp returns an app whose commands use r and p instead of a real
// runtime.
func newStubApp(r *stubRunner, p *stubPool) *app {
	a := newApp()
	a.openModel = func(_ *cobra.Command, location string) (runner, func(), error) {
		if location == "missing.onnx" {
			return nil, nil, ort.ErrLoad
		}
		return r, func() { r.closed = true }, nil
	}
	a.openPool = func(_ *cobra.Command, _ string, size int, extra *poolExtras) (poolRunner, func(), error) {
		p.size = size
		p.extra = extra
		return p, func() { p.closed = true }, nil
	}
	a.providers = func() ([]string, error) {
		return []string{"CPUExecutionProvider"}, nil
	}
	return a
}

func execute(t *testing.T, a *app, args ...string) (string, error) {
	t.Helper()
	cmd := a.rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func denseResult(values ...float64) *ort.Result {
	return &ort.Result{Kind: ort.OutputKindDenseFloat, ElementType: ort.ONNXTensorElementDataTypeFloat, Shape: []int64{1, int64(len(values))}, Values: values}
}

func TestRunCommand(t *testing.T) {
	r := &stubRunner{result: denseResult(4.5)}
	out, err := execute(t, newStubApp(r, nil), "run", "model.onnx")
	require.NoError(t, err)

	assert.Equal(t, "Inference Result: 4.500000\n", out)
	assert.Equal(t, [][]float64{{1, 2, 3, 4}}, r.inputs, "default input")
	assert.True(t, r.closed)
}

func TestRunCommandInputs(t *testing.T) {
	r := &stubRunner{result: denseResult(1)}
	_, err := execute(t, newStubApp(r, nil), "run", "model.onnx", "--input", "5.1 3.5 1.4 0.2")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "row.json")
	require.NoError(t, os.WriteFile(path, []byte("[9, 8]"), 0o644))
	_, err = execute(t, newStubApp(r, nil), "run", "model.onnx", "--input-file", path)
	require.NoError(t, err)

	assert.Equal(t, [][]float64{{5.1, 3.5, 1.4, 0.2}, {9, 8}}, r.inputs)

	_, err = execute(t, newStubApp(r, nil), "run", "model.onnx", "--input", "a,b")
	assert.Error(t, err)
}

func TestRunCommandJSON(t *testing.T) {
	r := &stubRunner{result: denseResult(0.25, 0.75)}
	out, err := execute(t, newStubApp(r, nil), "run", "model.onnx", "--format", "json")
	require.NoError(t, err)

	var decoded resultOutput
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "DenseFloat", decoded.Kind)
	assert.Equal(t, []float64{0.25, 0.75}, decoded.Values)
}

func TestRunCommandErrors(t *testing.T) {
	r := &stubRunner{err: ort.ErrShapeMismatch}
	_, err := execute(t, newStubApp(r, nil), "run", "model.onnx")
	assert.ErrorIs(t, err, ort.ErrShapeMismatch)
	assert.True(t, r.closed, "model is closed after a failed run")

	_, err = execute(t, newStubApp(r, nil), "run", "missing.onnx")
	assert.ErrorIs(t, err, ort.ErrLoad)

	_, err = execute(t, newStubApp(r, nil), "run")
	assert.Error(t, err)
}

func TestRunCommandEnvironment(t *testing.T) {
	t.Setenv("ORTINFER_INPUT", "3,1")
	t.Setenv("ORTINFER_FORMAT", "yaml")

	r := &stubRunner{result: denseResult(2)}
	out, err := execute(t, newStubApp(r, nil), "run", "model.onnx")
	require.NoError(t, err)

	assert.Equal(t, [][]float64{{3, 1}}, r.inputs)
	assert.Contains(t, out, "kind: DenseFloat")
}

func TestRunCommandConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ortinfer.yaml")
	require.NoError(t, os.WriteFile(path, []byte("input: \"6 7\"\nlog-level: error\n"), 0o644))

	r := &stubRunner{result: denseResult(2)}
	_, err := execute(t, newStubApp(r, nil), "run", "model.onnx", "--config", path)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{6, 7}}, r.inputs)

	_, err = execute(t, newStubApp(r, nil), "run", "model.onnx", "--config", filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestRunCommandInvalidLogLevel(t *testing.T) {
	r := &stubRunner{result: denseResult(2)}
	_, err := execute(t, newStubApp(r, nil), "run", "model.onnx", "--log-level", "loud")
	assert.Error(t, err)
	assert.Empty(t, r.inputs)
}

func TestInspectCommand(t *testing.T) {
	r := &stubRunner{}
	out, err := execute(t, newStubApp(r, nil), "inspect", "model.onnx", "--format", "json")
	require.NoError(t, err)

	var d description
	require.NoError(t, json.Unmarshal([]byte(out), &d))
	assert.Equal(t, "stub.onnx", d.Path)
	assert.True(t, r.closed)

	out, err = execute(t, newStubApp(r, nil), "inspect", "--providers")
	require.NoError(t, err)
	assert.Equal(t, "CPUExecutionProvider\n", out)

	_, err = execute(t, newStubApp(r, nil), "inspect")
	assert.Error(t, err)
}

func TestInspectProvidersFailure(t *testing.T) {
	a := newStubApp(&stubRunner{}, nil)
	a.providers = func() ([]string, error) { return nil, ort.ErrLoad }

	_, err := execute(t, a, "inspect", "--providers")
	assert.ErrorIs(t, err, ort.ErrLoad)
}

func TestBenchCommand(t *testing.T) {
	p := &stubPool{stubRunner: stubRunner{result: denseResult(1)}}
	out, err := execute(t, newStubApp(nil, p),
		"bench", "model.onnx", "--pool-size", "3", "--iterations", "10", "--concurrency", "4",
		"--load-concurrency", "2", "--format", "json")
	require.NoError(t, err)

	var report benchReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, int64(10), report.Runs)
	assert.Zero(t, report.Errors)
	assert.Equal(t, 3, report.PoolSize)

	assert.Equal(t, int32(1), p.warmups.Load())
	assert.Equal(t, int32(1), p.resets.Load())
	assert.Len(t, p.inputs, 11, "one warmup run plus ten measured runs")
	require.Len(t, p.extra.Hooks, 1)
	assert.Equal(t, 2, p.extra.MaxConcurrentLoads)
	assert.True(t, p.closed)
}

func TestBenchCommandNoWarmup(t *testing.T) {
	p := &stubPool{stubRunner: stubRunner{err: errors.New("device lost")}}
	out, err := execute(t, newStubApp(nil, p), "bench", "model.onnx", "--iterations", "5", "--warmup=false")
	require.NoError(t, err)

	assert.Zero(t, p.warmups.Load())
	assert.Contains(t, out, "Errors:        5")
	assert.Contains(t, out, "First error:   device lost")
}

func TestBenchCommandInvalid(t *testing.T) {
	p := &stubPool{}
	_, err := execute(t, newStubApp(nil, p), "bench", "model.onnx", "--concurrency", "0")
	assert.Error(t, err)
	assert.Nil(t, p.extra, "pool is not opened")
}
