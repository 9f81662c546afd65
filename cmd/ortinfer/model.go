package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/benedoc-inc/ortsession/modelstore"
	ort "github.com/benedoc-inc/ortsession/onnxruntime"
	"github.com/benedoc-inc/ortsession/onnxruntime/hooks"
)

// runner is a loaded model as the commands see it.
type runner interface {
	IOSpec() ort.IOSpec
	Run(ctx context.Context, values []float64) (*ort.Result, error)
	Describe() (*description, error)
}

// poolRunner is a pool of loaded models.
type poolRunner interface {
	IOSpec() ort.IOSpec
	Run(ctx context.Context, values []float64) (*ort.Result, error)
	Warmup(ctx context.Context, values []float64) error
	Stats() ort.PoolStats
	ResetStats()
}

// poolExtras are pool settings beyond the shared model flags.
type poolExtras struct {
	Hooks              []ort.Hook
	MaxConcurrentLoads int
}

var graphOptLevels = map[string]ort.GraphOptimizationLevel{
	"disabled": ort.GraphOptimizationDisabled,
	"basic":    ort.GraphOptimizationBasic,
	"extended": ort.GraphOptimizationExtended,
	"all":      ort.GraphOptimizationAll,
}

var ortLogLevels = map[string]ort.LoggingLevel{
	"verbose": ort.LoggingLevelVerbose,
	"info":    ort.LoggingLevelInfo,
	"warning": ort.LoggingLevelWarning,
	"error":   ort.LoggingLevelError,
	"fatal":   ort.LoggingLevelFatal,
}

// modelConfig builds the model configuration from the bound flags.
func (a *app) modelConfig(extraHooks ...ort.Hook) (*ort.ModelConfig, error) {
	graphOpt, ok := graphOptLevels[a.v.GetString("graph-opt")]
	if !ok {
		return nil, fmt.Errorf("invalid graph optimization level %q", a.v.GetString("graph-opt"))
	}
	logLevel, ok := ortLogLevels[a.v.GetString("ort-log-level")]
	if !ok {
		return nil, fmt.Errorf("invalid ONNX Runtime log level %q", a.v.GetString("ort-log-level"))
	}
	batch := a.v.GetInt64("batch-size")
	if batch < 1 {
		return nil, fmt.Errorf("batch size must be positive, got %d", batch)
	}

	mode := ort.ExecutionModeSequential
	if a.v.GetBool("parallel") {
		mode = ort.ExecutionModeParallel
	}

	return &ort.ModelConfig{
		SessionOptions: &ort.SessionOptions{
			IntraOpNumThreads: a.v.GetInt("intra-op-threads"),
			InterOpNumThreads: a.v.GetInt("inter-op-threads"),
			GraphOptimization: graphOpt,
			ExecutionMode:     mode,
		},
		LogLevel:  &logLevel,
		BatchSize: batch,
		Hooks:     append([]ort.Hook{hooks.NewZerologHook(a.logger)}, extraHooks...),
	}, nil
}

func (a *app) newRuntime() (*ort.Runtime, error) {
	return ort.NewRuntime(a.v.GetString("lib"), uint32(a.v.GetUint("api-version")))
}

func (a *app) resolveModel(ctx context.Context, location string) (string, error) {
	store, err := modelstore.New(a.v.GetString("cache-dir"))
	if err != nil {
		return "", err
	}
	return store.Resolve(a.logger.WithContext(ctx), location)
}

func (a *app) loadModel(cmd *cobra.Command, location string) (runner, func(), error) {
	path, err := a.resolveModel(cmd.Context(), location)
	if err != nil {
		return nil, nil, err
	}
	config, err := a.modelConfig()
	if err != nil {
		return nil, nil, err
	}

	rt, err := a.newRuntime()
	if err != nil {
		return nil, nil, err
	}
	model, err := rt.LoadModel(path, config)
	if err != nil {
		_ = rt.Close()
		return nil, nil, err
	}

	a.logger.Info().Str("model", path).Msg("model loaded")
	return &modelRunner{model: model}, func() {
		model.Close()
		_ = rt.Close()
	}, nil
}

func (a *app) loadPool(cmd *cobra.Command, location string, size int, extra *poolExtras) (poolRunner, func(), error) {
	path, err := a.resolveModel(cmd.Context(), location)
	if err != nil {
		return nil, nil, err
	}
	config, err := a.modelConfig(extra.Hooks...)
	if err != nil {
		return nil, nil, err
	}

	rt, err := a.newRuntime()
	if err != nil {
		return nil, nil, err
	}
	pool, err := rt.NewModelPool(cmd.Context(), path, size, &ort.PoolConfig{
		Model:              config,
		MaxConcurrentLoads: extra.MaxConcurrentLoads,
	})
	if err != nil {
		_ = rt.Close()
		return nil, nil, err
	}

	a.logger.Info().Str("model", path).Int("size", size).Msg("model pool loaded")
	return &poolAdapter{pool: pool}, func() {
		pool.Close()
		_ = rt.Close()
	}, nil
}

func (a *app) availableProviders() ([]string, error) {
	rt, err := a.newRuntime()
	if err != nil {
		return nil, err
	}
	defer rt.Close()
	return rt.GetAvailableProviders()
}

type modelRunner struct {
	model *ort.Model
}

func (r *modelRunner) IOSpec() ort.IOSpec { return r.model.IOSpec() }

func (r *modelRunner) Run(ctx context.Context, values []float64) (*ort.Result, error) {
	return runValues(ctx, r.model, values)
}

func (r *modelRunner) Describe() (*description, error) {
	return describeModel(r.model)
}

type poolAdapter struct {
	pool *ort.ModelPool
}

func (p *poolAdapter) IOSpec() ort.IOSpec { return p.pool.IOSpec() }
func (p *poolAdapter) Stats() ort.PoolStats { return p.pool.Stats() }
func (p *poolAdapter) ResetStats() { p.pool.ResetStats() }

func (p *poolAdapter) Run(ctx context.Context, values []float64) (*ort.Result, error) {
	run, err := prepareRun(p.pool.IOSpec().Input.ElementType, values)
	if err != nil {
		return nil, err
	}
	return p.pool.Do(ctx, func(m *ort.Model) (*ort.Result, error) {
		return run(ctx, m)
	})
}

func (p *poolAdapter) Warmup(ctx context.Context, values []float64) error {
	run, err := prepareRun(p.pool.IOSpec().Input.ElementType, values)
	if err != nil {
		return err
	}
	return p.pool.WarmupWith(ctx, func(m *ort.Model) (*ort.Result, error) {
		return run(ctx, m)
	})
}

// runFunc runs one cycle on a model with an already converted input.
type runFunc func(ctx context.Context, m *ort.Model) (*ort.Result, error)

// runValues converts values to the model's input element type and runs one
// cycle.
func runValues(ctx context.Context, m *ort.Model, values []float64) (*ort.Result, error) {
	run, err := prepareRun(m.IOSpec().Input.ElementType, values)
	if err != nil {
		return nil, err
	}
	return run(ctx, m)
}

// prepareRun converts values to element type t once and returns a runFunc
// binding the converted slice.
func prepareRun(t ort.ONNXTensorElementDataType, values []float64) (runFunc, error) {
	switch t {
	case ort.ONNXTensorElementDataTypeFloat:
		return tensorRun(convertValues[float32](values)), nil
	case ort.ONNXTensorElementDataTypeDouble:
		return tensorRun(values), nil
	case ort.ONNXTensorElementDataTypeFloat16:
		return tensorRun(ort.Float16Slice(convertValues[float32](values))), nil
	case ort.ONNXTensorElementDataTypeBFloat16:
		return tensorRun(ort.BFloat16Slice(convertValues[float32](values))), nil
	case ort.ONNXTensorElementDataTypeInt8:
		return tensorRun(convertValues[int8](values)), nil
	case ort.ONNXTensorElementDataTypeInt16:
		return tensorRun(convertValues[int16](values)), nil
	case ort.ONNXTensorElementDataTypeInt32:
		return tensorRun(convertValues[int32](values)), nil
	case ort.ONNXTensorElementDataTypeInt64:
		return tensorRun(convertValues[int64](values)), nil
	case ort.ONNXTensorElementDataTypeUint8:
		return tensorRun(convertValues[uint8](values)), nil
	case ort.ONNXTensorElementDataTypeUint16:
		return tensorRun(convertValues[uint16](values)), nil
	case ort.ONNXTensorElementDataTypeUint32:
		return tensorRun(convertValues[uint32](values)), nil
	case ort.ONNXTensorElementDataTypeUint64:
		return tensorRun(convertValues[uint64](values)), nil
	case ort.ONNXTensorElementDataTypeBool:
		bools := make([]bool, len(values))
		for i, v := range values {
			bools[i] = v != 0
		}
		return tensorRun(bools), nil
	default:
		return nil, fmt.Errorf("input element type %s cannot be given on the command line", ort.ElementTypeName(t))
	}
}

func tensorRun[T ort.TensorData](input []T) runFunc {
	return func(ctx context.Context, m *ort.Model) (*ort.Result, error) {
		return ort.RunTensor(ctx, m, input)
	}
}

type number interface {
	~float32 | ~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

func convertValues[T number](values []float64) []T {
	out := make([]T, len(values))
	for i, v := range values {
		out[i] = T(v)
	}
	return out
}
