package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"playlet/internal/jobs"
)

// Narration is the per-job artifact recording every script and synthesis
// outcome, written next to the render plan so a reviewer can audit what the
// narrator said without re-running the job.
type Narration struct {
	JobID     string           `json:"job_id"`
	Source    string           `json:"source"`
	Style     string           `json:"style"`
	CreatedAt time.Time        `json:"created_at"`
	Entries   []NarrationEntry `json:"entries"`
}

// NarrationEntry is one segment's narration record.
type NarrationEntry struct {
	SegmentID      int    `json:"segment_id"`
	Script         string `json:"script,omitempty"`
	Audio          string `json:"audio,omitempty"`
	DurationMillis int64  `json:"duration_ms,omitempty"`
	Voice          string `json:"voice,omitempty"`
	Degraded       bool   `json:"degraded,omitempty"`
	DegradedStage  string `json:"degraded_stage,omitempty"`
	Reason         string `json:"reason,omitempty"`
}

func writeNarration(path string, item *jobs.Item, styleName string, narrations map[int]segmentNarration, degradations []Degradation) error {
	artifact := Narration{
		JobID:     item.JobID,
		Source:    item.SourcePath,
		Style:     styleName,
		CreatedAt: time.Now().UTC(),
		Entries:   make([]NarrationEntry, 0, len(narrations)+len(degradations)),
	}

	for id, narration := range narrations {
		artifact.Entries = append(artifact.Entries, NarrationEntry{
			SegmentID:      id,
			Script:         narration.clip.Script,
			Audio:          narration.clip.AudioHandle,
			DurationMillis: int64(narration.clip.AudioDuration),
			Voice:          narration.voice,
		})
	}
	for _, degradation := range degradations {
		artifact.Entries = append(artifact.Entries, NarrationEntry{
			SegmentID:     degradation.SegmentID,
			Degraded:      true,
			DegradedStage: degradation.Stage,
			Reason:        degradation.Reason,
		})
	}
	sort.Slice(artifact.Entries, func(i, j int) bool {
		return artifact.Entries[i].SegmentID < artifact.Entries[j].SegmentID
	})

	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return fmt.Errorf("narration artifact: encode: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("narration artifact: ensure dir: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("narration artifact: write: %w", err)
	}
	return nil
}

// ReadNarration loads a previously written narration artifact.
func ReadNarration(path string) (Narration, error) {
	var artifact Narration
	data, err := os.ReadFile(path)
	if err != nil {
		return artifact, fmt.Errorf("narration artifact: read: %w", err)
	}
	if err := json.Unmarshal(data, &artifact); err != nil {
		return artifact, fmt.Errorf("narration artifact: decode: %w", err)
	}
	return artifact, nil
}
