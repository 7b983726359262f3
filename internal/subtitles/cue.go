package subtitles

import (
	"strings"

	"playlet/internal/timecode"
)

// Source identifies where a cue's text came from.
type Source string

const (
	// SourceOriginal marks cues transcribed from the source audio.
	SourceOriginal Source = "original"
	// SourceGenerated marks cues produced from narration scripts.
	SourceGenerated Source = "generated"
)

// Cue is a single subtitle with its media-time span. Cues are immutable once
// produced by the aligner; downstream components read them only.
type Cue struct {
	Span   timecode.Span
	Text   string
	Source Source
}

// JoinText concatenates the text of the given cues with single spaces,
// skipping blank entries.
func JoinText(cues []Cue) string {
	parts := make([]string, 0, len(cues))
	for _, cue := range cues {
		if text := strings.TrimSpace(cue.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}
