package hooks

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/benedoc-inc/ortsession/onnxruntime"
)

// PrometheusHook records run counts, latencies and in-flight runs.
//
// Example:
//
//	hook := hooks.NewPrometheusHook(prometheus.DefaultRegisterer, "ortinfer")
//	model, _ := rt.LoadModel("model.onnx", &onnxruntime.ModelConfig{
//	    Hooks: []onnxruntime.Hook{hook},
//	})
type PrometheusHook struct {
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	elements *prometheus.HistogramVec
	inFlight *prometheus.GaugeVec
}

// NewPrometheusHook registers the hook's collectors with reg under namespace.
// A nil reg leaves the collectors unregistered.
func NewPrometheusHook(reg prometheus.Registerer, namespace string) *PrometheusHook {
	factory := promauto.With(reg)

	return &PrometheusHook{
		runs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "inference",
				Name:      "runs_total",
				Help:      "Total number of inference runs by outcome",
			},
			[]string{"model", "outcome"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "inference",
				Name:      "duration_seconds",
				Help:      "Inference cycle duration in seconds",
				Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"model"},
		),
		elements: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "inference",
				Name:      "output_elements",
				Help:      "Number of values read from the output",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
			},
			[]string{"model", "kind"},
		),
		inFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "inference",
				Name:      "in_flight",
				Help:      "Inference runs currently executing",
			},
			[]string{"model"},
		),
	}
}

func (h *PrometheusHook) BeforeRun(info *onnxruntime.RunInfo) {
	h.inFlight.WithLabelValues(info.ModelPath).Inc()
}

func (h *PrometheusHook) AfterRun(info *onnxruntime.RunInfo) {
	h.inFlight.WithLabelValues(info.ModelPath).Dec()
	h.runs.WithLabelValues(info.ModelPath, Outcome(info.Error)).Inc()
	h.duration.WithLabelValues(info.ModelPath).Observe(info.Duration.Seconds())
	if info.Error == nil {
		h.elements.WithLabelValues(info.ModelPath, info.Kind.String()).Observe(float64(info.Elements))
	}
}
