package hooks

import (
	"github.com/rs/zerolog"

	"github.com/benedoc-inc/ortsession/onnxruntime"
)

// ZerologHook logs inference events to a zerolog.Logger: Debug when a run
// starts, Debug on success and Error on failure.
type ZerologHook struct {
	logger zerolog.Logger
}

// NewZerologHook returns a hook writing to logger.
func NewZerologHook(logger zerolog.Logger) *ZerologHook {
	return &ZerologHook{logger: logger}
}

func (h *ZerologHook) BeforeRun(info *onnxruntime.RunInfo) {
	h.logger.Debug().
		Str("run_id", info.RunID).
		Str("model", info.ModelPath).
		Str("input", info.InputName).
		Msg("inference started")
}

func (h *ZerologHook) AfterRun(info *onnxruntime.RunInfo) {
	if info.Error != nil {
		h.logger.Error().
			Err(info.Error).
			Str("run_id", info.RunID).
			Str("model", info.ModelPath).
			Str("outcome", Outcome(info.Error)).
			Dur("duration", info.Duration).
			Msg("inference failed")
		return
	}
	h.logger.Debug().
		Str("run_id", info.RunID).
		Str("model", info.ModelPath).
		Str("output", info.OutputName).
		Stringer("kind", info.Kind).
		Int("elements", info.Elements).
		Dur("duration", info.Duration).
		Msg("inference completed")
}
