package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunBench(t *testing.T) {
	var inFlight, peak atomic.Int32
	report := runBench(context.Background(), 50, 4, func(context.Context) error {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		return nil
	})

	assert.Equal(t, int64(50), report.Runs)
	assert.Zero(t, report.Errors)
	assert.Empty(t, report.FirstError)
	assert.Positive(t, report.Throughput)
	assert.LessOrEqual(t, peak.Load(), int32(4))
}

func TestRunBenchErrors(t *testing.T) {
	var calls atomic.Int32
	report := runBench(context.Background(), 10, 1, func(context.Context) error {
		if calls.Add(1)%2 == 0 {
			return errors.New("even call")
		}
		return nil
	})

	assert.Equal(t, int64(10), report.Runs)
	assert.Equal(t, int64(5), report.Errors)
	assert.Equal(t, "even call", report.FirstError)
}

func TestRunBenchCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := runBench(ctx, 100, 2, func(context.Context) error { return nil })
	assert.Zero(t, report.Runs)
}

func TestServeMetrics(t *testing.T) {
	a := newApp()

	reg := prometheus.NewRegistry()
	runs := prometheus.NewCounter(prometheus.CounterOpts{Name: "bench_runs_total", Help: "Runs."})
	reg.MustRegister(runs)
	runs.Add(3)

	addr, stop, err := a.serveMetrics("127.0.0.1:0", reg)
	require.NoError(t, err)
	defer stop()

	resp, err := http.Get("http://" + addr + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "bench_runs_total 3")

	_, _, err = a.serveMetrics("not an address", reg)
	assert.Error(t, err)
}
