// Package ffprobe measures media durations via the ffprobe CLI.
package ffprobe

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"playlet/internal/timecode"
)

// DefaultBinary is the ffprobe executable name.
const DefaultBinary = "ffprobe"

// Service shells out to ffprobe.
type Service struct {
	binary        string
	commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewService creates a probe service; an empty binary selects DefaultBinary.
func NewService(binary string) *Service {
	if binary == "" {
		binary = DefaultBinary
	}
	return &Service{binary: binary}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) ([]byte, error)) {
	s.commandRunner = runner
}

// Duration returns the container duration of a media file.
func (s *Service) Duration(ctx context.Context, mediaPath string) (timecode.Millis, error) {
	if mediaPath == "" {
		return 0, fmt.Errorf("probe: media path required")
	}
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "json",
		mediaPath,
	}
	output, err := s.run(ctx, s.binary, args...)
	if err != nil {
		return 0, fmt.Errorf("probe: %w", err)
	}

	var parsed struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(output, &parsed); err != nil {
		return 0, fmt.Errorf("probe: parse output: %w", err)
	}
	seconds, err := strconv.ParseFloat(strings.TrimSpace(parsed.Format.Duration), 64)
	if err != nil {
		return 0, fmt.Errorf("probe: parse duration %q: %w", parsed.Format.Duration, err)
	}
	if seconds <= 0 {
		return 0, fmt.Errorf("probe: non-positive duration %v", seconds)
	}
	return timecode.FromSeconds(seconds), nil
}

func (s *Service) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return output, nil
}
