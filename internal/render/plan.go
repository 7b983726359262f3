package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"playlet/internal/mix"
	"playlet/internal/subtitles"
	"playlet/internal/timecode"
	"playlet/internal/timeline"
)

// Version identifies the plan schema for downstream renderers.
const Version = 1

// Plan is the complete render description for one job.
type Plan struct {
	Version          int           `json:"version"`
	Source           string        `json:"source"`
	Style            string        `json:"style"`
	FrameRate        int           `json:"frame_rate"`
	Blur             bool          `json:"blur"`
	DurationMillis   int64         `json:"duration_ms"`
	SourceDurMillis  int64         `json:"source_duration_ms"`
	DriftMillis      int64         `json:"drift_ms"`
	Coverage         float64       `json:"narration_coverage"`
	CreatedAt        time.Time     `json:"created_at"`
	Instructions     []Instruction `json:"instructions"`
	NarratedSegments int           `json:"narrated_segments"`
}

// Instruction describes one output span.
type Instruction struct {
	Index          int           `json:"index"`
	SegmentID      int           `json:"segment_id"`
	Output         SpanJSON      `json:"output"`
	Source         SpanJSON      `json:"source"`
	Rate           float64       `json:"rate"`
	FreezeMillis   int64         `json:"freeze_ms,omitempty"`
	Mix            mix.Envelope  `json:"mix"`
	NarrationAudio string        `json:"narration_audio,omitempty"`
	Subtitle       *SubtitleJSON `json:"subtitle,omitempty"`
	Blur           bool          `json:"blur,omitempty"`
}

// SpanJSON is a half-open [start, end) range in milliseconds.
type SpanJSON struct {
	StartMillis int64 `json:"start_ms"`
	EndMillis   int64 `json:"end_ms"`
}

// SubtitleJSON carries a cue positioned on the output timeline.
type SubtitleJSON struct {
	StartMillis int64  `json:"start_ms"`
	EndMillis   int64  `json:"end_ms"`
	Text        string `json:"text"`
	Source      string `json:"source"`
}

func spanJSON(span timecode.Span) SpanJSON {
	return SpanJSON{StartMillis: int64(span.Start), EndMillis: int64(span.End)}
}

func subtitleJSON(cue *subtitles.Cue) *SubtitleJSON {
	if cue == nil {
		return nil
	}
	return &SubtitleJSON{
		StartMillis: int64(cue.Span.Start),
		EndMillis:   int64(cue.Span.End),
		Text:        cue.Text,
		Source:      string(cue.Source),
	}
}

// Meta carries the job-level fields Build stamps onto the plan.
type Meta struct {
	Source         string
	Style          string
	FrameRate      int
	Blur           bool
	SourceDuration timecode.Millis
}

// Build converts an assembled timeline into a render plan.
func Build(meta Meta, spans []timeline.OutputSpan) (Plan, error) {
	if len(spans) == 0 {
		return Plan{}, errors.New("render plan: empty timeline")
	}

	total := timeline.Duration(spans)
	narrated := timeline.NarratedDuration(spans)

	plan := Plan{
		Version:         Version,
		Source:          meta.Source,
		Style:           meta.Style,
		FrameRate:       meta.FrameRate,
		Blur:            meta.Blur,
		DurationMillis:  int64(total),
		SourceDurMillis: int64(meta.SourceDuration),
		DriftMillis:     int64(total - meta.SourceDuration),
		CreatedAt:       time.Now().UTC(),
		Instructions:    make([]Instruction, 0, len(spans)),
	}
	if total > 0 {
		plan.Coverage = float64(narrated) / float64(total)
	}

	narratedSegments := make(map[int]struct{})
	for i, span := range spans {
		if span.Mix.HasNarration() {
			narratedSegments[span.SegmentID] = struct{}{}
		}
		plan.Instructions = append(plan.Instructions, Instruction{
			Index:          i,
			SegmentID:      span.SegmentID,
			Output:         spanJSON(span.Output),
			Source:         spanJSON(span.Source),
			Rate:           span.Rate,
			FreezeMillis:   int64(span.Freeze),
			Mix:            span.Mix,
			NarrationAudio: span.AudioHandle,
			Subtitle:       subtitleJSON(span.Subtitle),
			Blur:           span.Blur,
		})
	}
	plan.NarratedSegments = len(narratedSegments)
	return plan, nil
}

// WriteFile persists the plan as indented JSON.
func (p Plan) WriteFile(path string) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("render plan: encode: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("render plan: ensure dir: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("render plan: write: %w", err)
	}
	return nil
}

// ReadFile loads a previously written plan.
func ReadFile(path string) (Plan, error) {
	var plan Plan
	data, err := os.ReadFile(path)
	if err != nil {
		return plan, fmt.Errorf("render plan: read: %w", err)
	}
	if err := json.Unmarshal(data, &plan); err != nil {
		return plan, fmt.Errorf("render plan: decode: %w", err)
	}
	if plan.Version != Version {
		return plan, fmt.Errorf("render plan: unsupported version %d", plan.Version)
	}
	return plan, nil
}
