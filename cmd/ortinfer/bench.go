package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	ort "github.com/benedoc-inc/ortsession/onnxruntime"
	"github.com/benedoc-inc/ortsession/onnxruntime/hooks"
)

func (a *app) benchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench MODEL",
		Short: "Run concurrent inferences against a pool of model instances",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := a.inputValues(cmd)
			if err != nil {
				return err
			}
			concurrency := a.v.GetInt("concurrency")
			iterations := a.v.GetInt("iterations")
			if concurrency < 1 || iterations < 1 {
				return fmt.Errorf("concurrency and iterations must be positive")
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector())
			hook := hooks.NewPrometheusHook(reg, "ortinfer")

			if addr := a.v.GetString("metrics-addr"); addr != "" {
				_, stop, err := a.serveMetrics(addr, reg)
				if err != nil {
					return err
				}
				defer stop()
			}

			pool, closePool, err := a.openPool(cmd, args[0], a.v.GetInt("pool-size"), &poolExtras{
				Hooks:              []ort.Hook{hook},
				MaxConcurrentLoads: a.v.GetInt("load-concurrency"),
			})
			if err != nil {
				return err
			}
			defer closePool()

			ctx := cmd.Context()
			if a.v.GetBool("warmup") {
				if err := pool.Warmup(ctx, values); err != nil {
					return err
				}
				pool.ResetStats()
			}

			report := runBench(ctx, iterations, concurrency, func(ctx context.Context) error {
				_, err := pool.Run(ctx, values)
				return err
			})
			report.addPoolStats(pool.Stats())

			return writeBenchReport(cmd.OutOrStdout(), a.v.GetString("format"), report)
		},
	}

	addInputFlags(cmd)
	cmd.Flags().Int("pool-size", 4, "Number of model instances in the pool")
	cmd.Flags().Int("load-concurrency", 0, "Instances loaded at once (0 = all)")
	cmd.Flags().Int("concurrency", 8, "Number of concurrent callers")
	cmd.Flags().Int("iterations", 100, "Total inference runs")
	cmd.Flags().Bool("warmup", true, "Run every instance once before measuring")
	cmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address while benchmarking")
	cmd.Flags().String("format", formatText, "Output format (text, json, yaml)")
	return cmd
}

// serveMetrics serves reg on addr until the returned stop func is called.
// It returns the address actually bound.
func (a *app) serveMetrics(addr string, reg *prometheus.Registry) (string, func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, fmt.Errorf("listening on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error().Err(err).Msg("metrics server failed")
		}
	}()
	a.logger.Info().Str("addr", ln.Addr().String()).Msg("serving metrics")

	return ln.Addr().String(), func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}

type benchReport struct {
	Runs       int64         `json:"runs" yaml:"runs"`
	Errors     int64         `json:"errors" yaml:"errors"`
	FirstError string        `json:"first_error,omitempty" yaml:"first_error,omitempty"`
	Elapsed    time.Duration `json:"elapsed_ns" yaml:"elapsed"`
	Throughput float64       `json:"throughput_per_sec" yaml:"throughput_per_sec"`
	AvgLatency time.Duration `json:"avg_latency_ns" yaml:"avg_latency"`
	PoolSize   int           `json:"pool_size" yaml:"pool_size"`
}

// runBench calls run iterations times with at most concurrency calls in
// flight. It stops scheduling new calls once ctx is done.
func runBench(ctx context.Context, iterations, concurrency int, run func(context.Context) error) *benchReport {
	var runs, failed atomic.Int64
	var firstErr atomic.Pointer[string]

	g := new(errgroup.Group)
	g.SetLimit(concurrency)

	start := time.Now()
	for range iterations {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			runs.Add(1)
			if err := run(ctx); err != nil {
				failed.Add(1)
				msg := err.Error()
				firstErr.CompareAndSwap(nil, &msg)
			}
			return nil
		})
	}
	_ = g.Wait()
	elapsed := time.Since(start)

	report := &benchReport{
		Runs:    runs.Load(),
		Errors:  failed.Load(),
		Elapsed: elapsed,
	}
	if p := firstErr.Load(); p != nil {
		report.FirstError = *p
	}
	if elapsed > 0 {
		report.Throughput = float64(report.Runs) / elapsed.Seconds()
	}
	return report
}

func (r *benchReport) addPoolStats(stats ort.PoolStats) {
	r.AvgLatency = stats.AvgLatency()
	r.PoolSize = stats.PoolSize
}

func writeBenchReport(w io.Writer, format string, r *benchReport) error {
	return writeOutput(w, format, r, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, `Runs:          %d
Errors:        %d
Total time:    %v
Avg latency:   %v
Throughput:    %.0f inferences/sec
Pool size:     %d
`, r.Runs, r.Errors, r.Elapsed, r.AvgLatency, r.Throughput, r.PoolSize)
		if err == nil && r.FirstError != "" {
			_, err = fmt.Fprintf(w, "First error:   %s\n", r.FirstError)
		}
		return err
	})
}
