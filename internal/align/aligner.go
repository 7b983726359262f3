package align

import (
	"errors"
	"fmt"
	"sort"

	"playlet/internal/subtitles"
	"playlet/internal/timecode"
)

// ErrAlignment marks malformed recognition input: inverted cue spans or
// cues outside the source duration. It is fatal to the job because no
// segment partition can be derived from it.
var ErrAlignment = errors.New("cue alignment failed")

// DefaultFrameInterval corresponds to 25 fps output.
const DefaultFrameInterval timecode.Millis = 40

// Segment is a maximal span of source video considered as one narration
// planning unit. Segments with no cues are silence and always pass through.
type Segment struct {
	ID   int
	Span timecode.Span
	Cues []subtitles.Cue
}

// IsSilence reports whether the segment carries no recognized speech.
func (s Segment) IsSilence() bool {
	return len(s.Cues) == 0
}

// Text returns the segment's cue text joined with spaces.
func (s Segment) Text() string {
	return subtitles.JoinText(s.Cues)
}

// Options controls how cues are merged into segments.
type Options struct {
	// MinSilence is the smallest gap between cues that separates two
	// segments. Gaps below it are folded into the surrounding speech so
	// narration boundaries do not fragment on breathing pauses.
	MinSilence timecode.Millis

	// FrameInterval is the output frame duration. A residual gap shorter
	// than one frame cannot be rendered as a standalone silence segment,
	// so Partition folds it into the neighboring segment instead. Zero
	// means DefaultFrameInterval.
	FrameInterval timecode.Millis
}

// Partition sorts cues, merges them into speech segments, and fills
// residual gaps with silence segments so the result covers [0, total)
// exactly. Cue spans are validated against the source duration first.
func Partition(cues []subtitles.Cue, total timecode.Millis, opts Options) ([]Segment, error) {
	if total <= 0 {
		return nil, fmt.Errorf("%w: source duration %s", ErrAlignment, total)
	}
	for _, cue := range cues {
		if cue.Span.Start >= cue.Span.End {
			return nil, fmt.Errorf("%w: cue %q has end %s before start %s",
				ErrAlignment, cue.Text, cue.Span.End, cue.Span.Start)
		}
		if cue.Span.Start < 0 || cue.Span.End > total {
			return nil, fmt.Errorf("%w: cue %q span %v outside [0, %s]",
				ErrAlignment, cue.Text, cue.Span, total)
		}
	}

	sorted := make([]subtitles.Cue, len(cues))
	copy(sorted, cues)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Span.Start != sorted[j].Span.Start {
			return sorted[i].Span.Start < sorted[j].Span.Start
		}
		return sorted[i].Span.End < sorted[j].Span.End
	})

	groups := mergeCues(sorted, opts.MinSilence)

	frame := opts.FrameInterval
	if frame <= 0 {
		frame = DefaultFrameInterval
	}

	segments := make([]Segment, 0, len(groups)*2+1)
	cursor := timecode.Millis(0)
	for _, group := range groups {
		span := groupSpan(group)
		// Clamp to the cursor when a merged group starts before the previous
		// group ended; overlapping speech belongs to one timeline slot.
		start := span.Start
		if start < cursor {
			start = cursor
		}
		if gap := start - cursor; gap > 0 {
			if gap < frame {
				// A sub-frame gap cannot stand as its own segment; fold it
				// into the speech that follows.
				start = cursor
			} else {
				segments = append(segments, Segment{Span: timecode.Span{Start: cursor, End: start}})
			}
		}
		if span.End <= start {
			return nil, fmt.Errorf("%w: cue group %v collapsed at %s", ErrAlignment, span, cursor)
		}
		segments = append(segments, Segment{Span: timecode.Span{Start: start, End: span.End}, Cues: group})
		cursor = span.End
	}
	if rem := total - cursor; rem > 0 {
		if rem < frame && len(segments) > 0 {
			segments[len(segments)-1].Span.End = total
		} else {
			segments = append(segments, Segment{Span: timecode.Span{Start: cursor, End: total}})
		}
	}
	for i := range segments {
		segments[i].ID = i
	}
	if err := Validate(segments, total); err != nil {
		return nil, err
	}
	return segments, nil
}

// Validate checks the partition invariant: segments are contiguous,
// non-empty, and cover [0, total) exactly.
func Validate(segments []Segment, total timecode.Millis) error {
	if len(segments) == 0 {
		return fmt.Errorf("%w: empty partition for duration %s", ErrAlignment, total)
	}
	cursor := timecode.Millis(0)
	for _, seg := range segments {
		if seg.Span.Start != cursor {
			return fmt.Errorf("%w: segment %d starts at %s, expected %s",
				ErrAlignment, seg.ID, seg.Span.Start, cursor)
		}
		if seg.Span.End <= seg.Span.Start {
			return fmt.Errorf("%w: segment %d has non-positive span %v",
				ErrAlignment, seg.ID, seg.Span)
		}
		cursor = seg.Span.End
	}
	if cursor != total {
		return fmt.Errorf("%w: partition ends at %s, source duration is %s",
			ErrAlignment, cursor, total)
	}
	return nil
}

// mergeCues groups sorted cues whose spans overlap or whose gap is below
// minSilence.
func mergeCues(sorted []subtitles.Cue, minSilence timecode.Millis) [][]subtitles.Cue {
	var groups [][]subtitles.Cue
	for _, cue := range sorted {
		if len(groups) == 0 {
			groups = append(groups, []subtitles.Cue{cue})
			continue
		}
		last := groups[len(groups)-1]
		lastEnd := groupSpan(last).End
		if cue.Span.Start-lastEnd < minSilence {
			groups[len(groups)-1] = append(last, cue)
			continue
		}
		groups = append(groups, []subtitles.Cue{cue})
	}
	return groups
}

func groupSpan(group []subtitles.Cue) timecode.Span {
	span := group[0].Span
	for _, cue := range group[1:] {
		span = span.Union(cue.Span)
	}
	return span
}
