package onnxruntime

import "time"

// Hook provides callbacks around inference execution for observability.
// Implement this interface to add metrics, logging, or tracing.
//
// Example:
//
//	type metricsHook struct {
//	    histogram prometheus.Histogram
//	}
//
//	func (h *metricsHook) BeforeRun(info *RunInfo) {}
//	func (h *metricsHook) AfterRun(info *RunInfo) {
//	    h.histogram.Observe(info.Duration.Seconds())
//	    if info.Error != nil {
//	        errorCounter.Inc()
//	    }
//	}
//
// Ready-made hooks for Prometheus and zerolog live in package hooks.
type Hook interface {
	// BeforeRun is called before inference starts.
	BeforeRun(info *RunInfo)

	// AfterRun is called after the cycle completes (or fails).
	// Duration and Error are always populated.
	AfterRun(info *RunInfo)
}

// RunInfo contains information about one inference cycle.
// RunID, ModelPath, InputName and OutputName are set before the run;
// Kind, Elements, Duration and Error are set after.
type RunInfo struct {
	// RunID is unique per cycle and is also the backend run tag.
	RunID      string
	ModelPath  string
	InputName  string
	OutputName string

	Kind     OutputKind
	Elements int
	Duration time.Duration
	Error    error
}

// hookFunc adapts a simple function into a Hook.
// The function is called as AfterRun; BeforeRun is a no-op.
type hookFunc struct {
	fn func(*RunInfo)
}

func (h *hookFunc) BeforeRun(_ *RunInfo)   {}
func (h *hookFunc) AfterRun(info *RunInfo) { h.fn(info) }

// AfterRunHook creates a Hook that calls fn after every inference.
// This is a convenience for the common case where you only need AfterRun.
//
// Example:
//
//	model, _ := rt.LoadModel("model.onnx", &ModelConfig{
//	    Hooks: []Hook{
//	        AfterRunHook(func(info *RunInfo) {
//	            log.Printf("inference took %v", info.Duration)
//	        }),
//	    },
//	})
func AfterRunHook(fn func(*RunInfo)) Hook {
	return &hookFunc{fn: fn}
}
