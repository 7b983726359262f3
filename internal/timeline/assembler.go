package timeline

import (
	"errors"
	"fmt"

	"playlet/internal/mix"
	"playlet/internal/subtitles"
	"playlet/internal/timecode"
)

// ErrInconsistent marks a violated timeline invariant: spans out of order,
// overlapping, or leaving gaps. It indicates a reconciler defect and is
// never repaired here.
var ErrInconsistent = errors.New("timeline inconsistency")

// OutputSpan is the atomic unit of the render plan. Output is the span's
// position on the output timeline; Source is the original-video span it
// consumes. Rate below 1 slows source playback; Freeze holds the final
// frame for the given duration after the source plays out.
type OutputSpan struct {
	SegmentID int
	Output    timecode.Span
	Source    timecode.Span
	Rate      float64
	Freeze    timecode.Millis
	Mix       mix.Envelope
	Subtitle  *subtitles.Cue
	Blur      bool
	// AudioHandle references the synthesized narration audio; empty for
	// pass-through spans.
	AudioHandle string
}

// Shift moves the span, its mix duck window, and its subtitle cue along the
// output timeline.
func (s OutputSpan) Shift(by timecode.Millis) OutputSpan {
	s.Output = s.Output.Shift(by)
	s.Mix = s.Mix.Shift(by)
	if s.Subtitle != nil {
		cue := *s.Subtitle
		cue.Span = cue.Span.Shift(by)
		s.Subtitle = &cue
	}
	return s
}

// Assemble concatenates per-segment span groups in segment order, re-basing
// each group so the result is zero-based and contiguous, then validates the
// global invariant.
func Assemble(groups [][]OutputSpan) ([]OutputSpan, error) {
	var out []OutputSpan
	cursor := timecode.Millis(0)
	for _, group := range groups {
		if len(group) == 0 {
			continue
		}
		// Each group arrives zero-based relative to its own slot; shift the
		// whole group to the running cursor.
		base := group[0].Output.Start
		for _, span := range group {
			out = append(out, span.Shift(cursor-base))
		}
		cursor += group[len(group)-1].Output.End - base
	}
	if err := Validate(out); err != nil {
		return nil, err
	}
	return out, nil
}

// Validate checks that spans are contiguous, strictly increasing, and start
// at zero.
func Validate(spans []OutputSpan) error {
	if len(spans) == 0 {
		return fmt.Errorf("%w: empty plan", ErrInconsistent)
	}
	cursor := timecode.Millis(0)
	for i, span := range spans {
		if span.Output.Start != cursor {
			return fmt.Errorf("%w: span %d (segment %d) starts at %s, expected %s",
				ErrInconsistent, i, span.SegmentID, span.Output.Start, cursor)
		}
		if span.Output.End <= span.Output.Start {
			return fmt.Errorf("%w: span %d (segment %d) has non-positive output span %v",
				ErrInconsistent, i, span.SegmentID, span.Output)
		}
		cursor = span.Output.End
	}
	return nil
}

// Duration returns the total output duration of an assembled plan.
func Duration(spans []OutputSpan) timecode.Millis {
	if len(spans) == 0 {
		return 0
	}
	return spans[len(spans)-1].Output.End
}

// NarratedDuration sums the narration-covered output time across spans.
func NarratedDuration(spans []OutputSpan) timecode.Millis {
	var total timecode.Millis
	for _, span := range spans {
		if span.Mix.HasNarration() {
			total += span.Mix.Duck.Duration()
		}
	}
	return total
}
