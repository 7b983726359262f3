package plan

import (
	"fmt"
	"strings"

	"playlet/internal/align"
	"playlet/internal/config"
	"playlet/internal/timecode"
)

// Request asks the orchestrator to generate and synthesize narration for one
// segment. Context is the transcript excerpt handed to the script generator;
// TargetDuration is the source span the narration should roughly fill, used
// to pre-adjust synthesis speed.
type Request struct {
	SegmentID      int
	Context        string
	Style          config.Style
	TargetDuration timecode.Millis
}

// Options controls segment eligibility.
type Options struct {
	// MinDuration is the shortest segment that gets narration.
	MinDuration timecode.Millis
	// NeighborContext limits how much neighboring cue text is included,
	// in runes per side. Zero means no neighbor context.
	NeighborContext int
}

// Build emits at most one request per eligible segment, in segment order.
// Silence segments, segments below the minimum duration, and pass-through
// styles are skipped; skipping is the normal outcome for most of a video.
func Build(segments []align.Segment, style config.Style, opts Options) []Request {
	if style.PassThrough {
		return nil
	}
	requests := make([]Request, 0, len(segments))
	for i, seg := range segments {
		if seg.IsSilence() {
			continue
		}
		if seg.Span.Duration() < opts.MinDuration {
			continue
		}
		requests = append(requests, Request{
			SegmentID:      seg.ID,
			Context:        buildContext(segments, i, opts.NeighborContext),
			Style:          style,
			TargetDuration: seg.Span.Duration(),
		})
	}
	return requests
}

// buildContext frames the segment's dialogue with trimmed excerpts from its
// neighbors so the generated narration can reference what came before and
// tease what follows.
func buildContext(segments []align.Segment, idx, neighborRunes int) string {
	var b strings.Builder
	current := segments[idx]

	if neighborRunes > 0 {
		if prev := previousText(segments, idx); prev != "" {
			fmt.Fprintf(&b, "Before: %s\n", tailRunes(prev, neighborRunes))
		}
	}
	fmt.Fprintf(&b, "Scene (%s - %s): %s",
		current.Span.Start, current.Span.End, current.Text())
	if neighborRunes > 0 {
		if next := nextText(segments, idx); next != "" {
			fmt.Fprintf(&b, "\nAfter: %s", headRunes(next, neighborRunes))
		}
	}
	return b.String()
}

func previousText(segments []align.Segment, idx int) string {
	for i := idx - 1; i >= 0; i-- {
		if text := segments[i].Text(); text != "" {
			return text
		}
	}
	return ""
}

func nextText(segments []align.Segment, idx int) string {
	for i := idx + 1; i < len(segments); i++ {
		if text := segments[i].Text(); text != "" {
			return text
		}
	}
	return ""
}

func tailRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}

func headRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
