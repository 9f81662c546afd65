package onnxruntime

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrPoolClosed is returned by ModelPool methods after Close, also to
// callers that were waiting for an instance when Close was called.
var ErrPoolClosed = errors.New("model pool is closed")

// ModelPool holds independent instances of one model for safe concurrent use.
// Each caller borrows an instance, runs one cycle, and returns it.
//
// Example:
//
//	pool, err := rt.NewModelPool(ctx, "model.onnx", 8, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer pool.Close()
//
//	// Safe to call from many goroutines:
//	result, err := pool.Run(ctx, []float32{1, 2, 3, 4})
type ModelPool struct {
	models chan *Model
	all    []*Model
	closed atomic.Bool
	done   chan struct{} // closed by Close; wakes waiting borrowers

	// metrics
	totalRuns    atomic.Int64
	totalErrors  atomic.Int64
	totalLatency atomic.Int64 // nanoseconds
}

// PoolConfig configures model pool behavior.
type PoolConfig struct {
	// Model is applied to every instance in the pool.
	Model *ModelConfig

	// MaxConcurrentLoads bounds how many instances load at once.
	// Zero loads all instances in parallel.
	MaxConcurrentLoads int
}

// NewModelPool loads n instances of the model file at path concurrently.
// All instances share the Runtime's environment and are otherwise
// independent.
func (r *Runtime) NewModelPool(ctx context.Context, path string, n int, config *PoolConfig) (*ModelPool, error) {
	return r.newModelPool(ctx, n, config, func(cfg *ModelConfig) (*Model, error) {
		return r.LoadModel(path, cfg)
	})
}

// NewModelPoolFromBytes loads n instances of a serialized model concurrently.
func (r *Runtime) NewModelPoolFromBytes(ctx context.Context, name string, data []byte, n int, config *PoolConfig) (*ModelPool, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: model data cannot be empty", ErrLoad)
	}
	return r.newModelPool(ctx, n, config, func(cfg *ModelConfig) (*Model, error) {
		return r.LoadModelFromBytes(name, data, cfg)
	})
}

func (r *Runtime) newModelPool(ctx context.Context, n int, config *PoolConfig, load func(*ModelConfig) (*Model, error)) (*ModelPool, error) {
	if n <= 0 {
		return nil, fmt.Errorf("pool size must be positive, got %d", n)
	}

	var modelConfig *ModelConfig
	limit := -1
	if config != nil {
		modelConfig = config.Model
		if config.MaxConcurrentLoads > 0 {
			limit = config.MaxConcurrentLoads
		}
	}

	models := make([]*Model, n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i := range n {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			m, err := load(modelConfig)
			if err != nil {
				return fmt.Errorf("failed to load instance %d: %w", i, err)
			}
			models[i] = m
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		for _, m := range models {
			if m != nil {
				m.Close()
			}
		}
		return nil, err
	}

	pool := &ModelPool{
		models: make(chan *Model, n),
		all:    models,
		done:   make(chan struct{}),
	}
	for _, m := range models {
		pool.models <- m
	}
	return pool, nil
}

// Run borrows an instance, runs one cycle on input, and returns the instance.
// It blocks until an instance is available or ctx is cancelled.
// This is safe to call from multiple goroutines concurrently.
func (p *ModelPool) Run(ctx context.Context, input []float32) (*Result, error) {
	return p.Do(ctx, func(m *Model) (*Result, error) {
		return m.RunOnce(ctx, input)
	})
}

// Do borrows an instance and calls fn with it, recording the call in the
// pool's statistics. fn must not keep the Model after returning. Use it to
// run inputs of other element types through RunTensor.
func (p *ModelPool) Do(ctx context.Context, fn func(*Model) (*Result, error)) (*Result, error) {
	if p.closed.Load() {
		return nil, ErrPoolClosed
	}

	model, err := p.borrow(ctx)
	if err != nil {
		return nil, err
	}

	// Always return the instance to the pool
	defer p.release(model)

	return p.runOn(model, fn)
}

// borrow waits for an idle instance. It fails with ErrPoolClosed once Close
// has been called, including for callers already waiting.
func (p *ModelPool) borrow(ctx context.Context) (*Model, error) {
	select {
	case model := <-p.models:
		if p.closed.Load() {
			return nil, ErrPoolClosed
		}
		return model, nil
	case <-p.done:
		return nil, ErrPoolClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *ModelPool) runOn(model *Model, fn func(*Model) (*Result, error)) (*Result, error) {
	start := time.Now()
	result, err := fn(model)
	elapsed := time.Since(start)

	p.totalRuns.Add(1)
	p.totalLatency.Add(int64(elapsed))
	if err != nil {
		p.totalErrors.Add(1)
	}

	return result, err
}

func (p *ModelPool) release(model *Model) {
	if !p.closed.Load() {
		p.models <- model
	}
}

// Warmup runs input once on every instance concurrently, so first-run costs
// are paid before real traffic. It holds every instance until all runs
// finish.
func (p *ModelPool) Warmup(ctx context.Context, input []float32) error {
	return p.WarmupWith(ctx, func(m *Model) (*Result, error) {
		return m.RunOnce(ctx, input)
	})
}

// WarmupWith is Warmup for any run: fn is called once on every instance,
// concurrently. Use it to warm models whose input is not float32.
func (p *ModelPool) WarmupWith(ctx context.Context, fn func(*Model) (*Result, error)) error {
	if p.closed.Load() {
		return ErrPoolClosed
	}

	borrowed := make([]*Model, 0, p.Size())
	defer func() {
		for _, m := range borrowed {
			p.release(m)
		}
	}()
	for range p.Size() {
		m, err := p.borrow(ctx)
		if err != nil {
			return err
		}
		borrowed = append(borrowed, m)
	}

	var g errgroup.Group
	for i, m := range borrowed {
		g.Go(func() error {
			if _, err := p.runOn(m, fn); err != nil {
				return fmt.Errorf("warmup of instance %d failed: %w", i, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// HealthCheck runs input on one instance and reports whether it succeeded.
func (p *ModelPool) HealthCheck(ctx context.Context, input []float32) error {
	result, err := p.Run(ctx, input)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if result.Count() == 0 {
		return fmt.Errorf("health check failed: empty %s output", result.Kind)
	}
	return nil
}

// Size returns the total number of instances in the pool.
func (p *ModelPool) Size() int {
	return cap(p.models)
}

// Available returns the number of idle instances currently available.
func (p *ModelPool) Available() int {
	return len(p.models)
}

// IOSpec returns the resolved I/O contract shared by every instance.
func (p *ModelPool) IOSpec() IOSpec {
	return p.all[0].IOSpec()
}

// Stats returns pool usage statistics.
func (p *ModelPool) Stats() PoolStats {
	return PoolStats{
		TotalRuns:       p.totalRuns.Load(),
		TotalErrors:     p.totalErrors.Load(),
		TotalLatency:    time.Duration(p.totalLatency.Load()),
		PoolSize:        cap(p.models),
		AvailableModels: len(p.models),
	}
}

// ResetStats zeroes the run counters.
func (p *ModelPool) ResetStats() {
	p.totalRuns.Store(0)
	p.totalErrors.Store(0)
	p.totalLatency.Store(0)
}

// InputNames returns the model's input names.
func (p *ModelPool) InputNames() []string {
	return p.all[0].InputNames()
}

// OutputNames returns the model's output names.
func (p *ModelPool) OutputNames() []string {
	return p.all[0].OutputNames()
}

// PoolStats contains pool usage statistics.
type PoolStats struct {
	TotalRuns       int64
	TotalErrors     int64
	TotalLatency    time.Duration
	PoolSize        int
	AvailableModels int
}

// AvgLatency returns the average inference latency, or 0 if no runs have completed.
func (s PoolStats) AvgLatency() time.Duration {
	if s.TotalRuns == 0 {
		return 0
	}
	return s.TotalLatency / time.Duration(s.TotalRuns)
}

// Close closes every instance, waiting for in-flight runs to finish.
// It is safe to call Close multiple times.
func (p *ModelPool) Close() {
	if !p.closed.CompareAndSwap(false, true) {
		return
	}
	close(p.done)
	for _, m := range p.all {
		m.Close()
	}
}
