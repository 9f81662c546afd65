package onnxruntime

import (
	"log/slog"
)

// SlogHook is a Hook that logs inference events via Go's structured logging (log/slog).
// It logs at Debug level when a run starts, Info level on success and Error level on failure.
//
// Example:
//
//	model, _ := rt.LoadModel("model.onnx", &onnxruntime.ModelConfig{
//	    Hooks: []onnxruntime.Hook{
//	        onnxruntime.NewSlogHook(slog.Default()),
//	    },
//	})
type SlogHook struct {
	logger *slog.Logger
}

// NewSlogHook creates a Hook that logs inference events to the given slog.Logger.
// If logger is nil, slog.Default() is used.
func NewSlogHook(logger *slog.Logger) *SlogHook {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogHook{logger: logger}
}

func (h *SlogHook) BeforeRun(info *RunInfo) {
	h.logger.Debug("inference started",
		slog.String("run_id", info.RunID),
		slog.String("model", info.ModelPath),
		slog.String("input", info.InputName),
	)
}

func (h *SlogHook) AfterRun(info *RunInfo) {
	if info.Error != nil {
		h.logger.Error("inference failed",
			slog.String("run_id", info.RunID),
			slog.String("model", info.ModelPath),
			slog.Duration("duration", info.Duration),
			slog.String("error", info.Error.Error()),
		)
		return
	}
	h.logger.Info("inference completed",
		slog.String("run_id", info.RunID),
		slog.String("model", info.ModelPath),
		slog.Duration("duration", info.Duration),
		slog.String("output", info.OutputName),
		slog.String("kind", info.Kind.String()),
		slog.Int("elements", info.Elements),
	)
}
