package asr

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	langpkg "playlet/internal/language"
	"playlet/internal/subtitles"
	"playlet/internal/timecode"
)

const (
	// DefaultBinary is the whisper.cpp CLI entry point.
	DefaultBinary = "whisper-cli"
	// DefaultFFmpegBinary extracts recognition-ready audio from source video.
	DefaultFFmpegBinary = "ffmpeg"
	// DefaultModel is a reasonable accuracy/speed tradeoff for short drama.
	DefaultModel = "models/ggml-base.bin"
)

// Config captures the runtime settings for recognition.
type Config struct {
	Binary       string
	FFmpegBinary string
	Model        string
	Language     string
}

// Service provides speech recognition via whisper.cpp.
type Service struct {
	cfg           Config
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewService creates a recognition service with the given configuration.
func NewService(cfg Config) *Service {
	if cfg.Binary == "" {
		cfg.Binary = DefaultBinary
	}
	if cfg.FFmpegBinary == "" {
		cfg.FFmpegBinary = DefaultFFmpegBinary
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	return &Service{cfg: cfg}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// Model returns the configured model path for logging.
func (s *Service) Model() string {
	return s.cfg.Model
}

// ExtractAudio pulls a mono 16 kHz WAV track out of the source video, the
// input format whisper.cpp expects.
func (s *Service) ExtractAudio(ctx context.Context, source, dest string) error {
	if source == "" {
		return fmt.Errorf("extract audio: source path required")
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("extract audio: ensure output dir: %w", err)
	}
	args := []string{
		"-y",
		"-i", source,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-f", "wav",
		dest,
	}
	if err := s.run(ctx, s.cfg.FFmpegBinary, args...); err != nil {
		return fmt.Errorf("extract audio: %w", err)
	}
	return nil
}

// Recognize transcribes a WAV file and returns the spoken cues in order.
// workDir is where the whisper.cpp JSON output lands.
func (s *Service) Recognize(ctx context.Context, wavPath, workDir string) ([]subtitles.Cue, error) {
	if wavPath == "" {
		return nil, fmt.Errorf("recognize: audio path required")
	}
	if workDir == "" {
		workDir = filepath.Dir(wavPath)
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("recognize: ensure work dir: %w", err)
	}

	lang := "auto"
	if strings.TrimSpace(s.cfg.Language) != "" {
		lang = langpkg.Normalize(s.cfg.Language)
	}

	outPrefix := filepath.Join(workDir, "whisper")
	args := []string{
		"-m", s.cfg.Model,
		"-l", lang,
		"-f", wavPath,
		"-oj",
		"-of", outPrefix,
	}
	if err := s.run(ctx, s.cfg.Binary, args...); err != nil {
		return nil, fmt.Errorf("recognize: %w", err)
	}

	return loadCues(outPrefix + ".json")
}

func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

type transcript struct {
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

func loadCues(jsonPath string) ([]subtitles.Cue, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("recognize: read transcript: %w", err)
	}
	var parsed transcript
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("recognize: parse transcript: %w", err)
	}

	cues := make([]subtitles.Cue, 0, len(parsed.Segments))
	for _, segment := range parsed.Segments {
		text := strings.TrimSpace(segment.Text)
		if text == "" {
			continue
		}
		start := timecode.FromSeconds(segment.Start)
		end := timecode.FromSeconds(segment.End)
		if end <= start {
			continue
		}
		cues = append(cues, subtitles.Cue{
			Span:   timecode.Span{Start: start, End: end},
			Text:   text,
			Source: subtitles.SourceOriginal,
		})
	}
	return cues, nil
}
