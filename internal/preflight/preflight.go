package preflight

import (
	"context"

	"playlet/internal/config"
	"playlet/internal/services/asr"
	"playlet/internal/services/ffprobe"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckBinary("FFmpeg", asr.DefaultFFmpegBinary, "required for audio extraction"),
		CheckBinary("FFprobe", ffprobe.DefaultBinary, "required for media inspection"),
		CheckBinary("Whisper", cfg.ASR.Binary, "required for speech recognition"),
		CheckModelFile("Whisper model", cfg.ASR.Model),
		CheckLLM(ctx, cfg),
		CheckTTS(ctx, cfg),
	}
	return results
}
