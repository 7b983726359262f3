package reconcile

import (
	"fmt"
	"math"

	"playlet/internal/align"
	"playlet/internal/mix"
	"playlet/internal/subtitles"
	"playlet/internal/timecode"
	"playlet/internal/timeline"
)

// Strategy selects how a segment is extended when narration outruns it.
// Strategies are a closed set chosen by configuration; new ones are added
// here, not by subclassing.
type Strategy string

const (
	// StrategyFreeze holds the segment's final frame for the deficit.
	StrategyFreeze Strategy = "freeze"
	// StrategySlowdown slows video playback so the visual duration matches
	// the narration, bounded by MaxSlowdown, then freezes for any
	// remainder.
	StrategySlowdown Strategy = "slowdown"
)

// Alignment places narration that is shorter than its segment.
type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
)

// DefaultFrameInterval mirrors the aligner's: 25 fps output.
const DefaultFrameInterval = align.DefaultFrameInterval

// Clip is the measured result of synthesizing one segment's narration.
// AudioDuration is always measured from the returned audio, never predicted.
type Clip struct {
	SegmentID     int
	Script        string
	AudioHandle   string
	AudioDuration timecode.Millis
	// SpeedFactor is the synthesis speed that was applied, recorded for
	// the job summary.
	SpeedFactor float64
}

// Options carries the style and output settings reconciliation depends on.
type Options struct {
	Alignment     Alignment
	Strategy      Strategy
	MaxSlowdown   float64
	FrameInterval timecode.Millis
	Mix           mix.Options
	Blur          bool
}

// Result is one segment's slot in the output timeline. Spans are zero-based
// within the slot; the assembler re-bases them. Extension is the output time
// added beyond the source span's duration.
type Result struct {
	Spans     []timeline.OutputSpan
	Extension timecode.Millis
}

func (o Options) frameInterval() timecode.Millis {
	if o.FrameInterval > 0 {
		return o.FrameInterval
	}
	return DefaultFrameInterval
}

// Reconcile computes the output spans for a segment. A nil clip means the
// segment passes through unchanged, which is also how degraded segments are
// handled: the caller records the failure and calls with nil, producing
// output identical to the no-narration case.
func Reconcile(seg align.Segment, clip *Clip, opts Options) (Result, error) {
	if err := seg.Span.Validate(); err != nil {
		return Result{}, err
	}
	segDur := seg.Span.Duration()
	frame := opts.frameInterval()
	if segDur < frame {
		return Result{}, fmt.Errorf("%w: segment %d duration %s below frame interval %s",
			timecode.ErrInvalidSpan, seg.ID, segDur, frame)
	}

	if clip == nil {
		return Result{Spans: []timeline.OutputSpan{passThroughSpan(seg)}}, nil
	}
	if clip.AudioDuration < frame {
		return Result{}, fmt.Errorf("%w: segment %d narration duration %s below frame interval %s",
			timecode.ErrInvalidSpan, seg.ID, clip.AudioDuration, frame)
	}

	if clip.AudioDuration <= segDur {
		return Result{Spans: []timeline.OutputSpan{fittedSpan(seg, clip, opts)}}, nil
	}
	return extendedSpan(seg, clip, opts)
}

// passThroughSpan emits the segment unchanged: original audio at unity gain,
// no narration track.
func passThroughSpan(seg align.Segment) timeline.OutputSpan {
	return timeline.OutputSpan{
		SegmentID: seg.ID,
		Output:    timecode.Span{Start: 0, End: seg.Span.Duration()},
		Source:    seg.Span,
		Rate:      1,
		Mix:       mix.PassThrough(),
		Subtitle:  passThroughSubtitle(seg),
	}
}

// fittedSpan places narration inside a segment it does not outrun. Output
// duration equals source duration; only the narrated sub-range is ducked.
func fittedSpan(seg align.Segment, clip *Clip, opts Options) timeline.OutputSpan {
	segDur := seg.Span.Duration()
	output := timecode.Span{Start: 0, End: segDur}

	offset := timecode.Millis(0)
	if opts.Alignment == AlignCenter {
		offset = (segDur - clip.AudioDuration) / 2
	}
	window := timecode.Span{Start: offset, End: offset + clip.AudioDuration}

	return timeline.OutputSpan{
		SegmentID:   seg.ID,
		Output:      output,
		Source:      seg.Span,
		Rate:        1,
		Mix:         mix.Schedule(output, window, opts.Mix),
		Subtitle:    narrationSubtitle(window, clip.Script),
		Blur:        opts.Blur,
		AudioHandle: clip.AudioHandle,
	}
}

// extendedSpan handles narration longer than its segment. The whole output
// span is covered by narration, so the duck window spans it entirely.
func extendedSpan(seg align.Segment, clip *Clip, opts Options) (Result, error) {
	segDur := seg.Span.Duration()
	deficit := clip.AudioDuration - segDur
	output := timecode.Span{Start: 0, End: clip.AudioDuration}

	rate := 1.0
	freeze := deficit
	if opts.Strategy == StrategySlowdown {
		if opts.MaxSlowdown < 1 {
			return Result{}, fmt.Errorf("%w: max slowdown factor %v below 1",
				timecode.ErrInvalidSpan, opts.MaxSlowdown)
		}
		required := float64(clip.AudioDuration) / float64(segDur)
		if required <= opts.MaxSlowdown {
			rate = float64(segDur) / float64(clip.AudioDuration)
			freeze = 0
		} else {
			// Slow as far as the bound allows, freeze for the remainder.
			rate = 1 / opts.MaxSlowdown
			visual := timecode.Millis(math.Round(float64(segDur) * opts.MaxSlowdown))
			freeze = clip.AudioDuration - visual
			if freeze < 0 {
				freeze = 0
			}
		}
	}

	span := timeline.OutputSpan{
		SegmentID:   seg.ID,
		Output:      output,
		Source:      seg.Span,
		Rate:        rate,
		Freeze:      freeze,
		Mix:         mix.Schedule(output, output, opts.Mix),
		Subtitle:    narrationSubtitle(output, clip.Script),
		Blur:        opts.Blur,
		AudioHandle: clip.AudioHandle,
	}
	return Result{Spans: []timeline.OutputSpan{span}, Extension: deficit}, nil
}

func narrationSubtitle(window timecode.Span, script string) *subtitles.Cue {
	if script == "" {
		return nil
	}
	return &subtitles.Cue{Span: window, Text: script, Source: subtitles.SourceGenerated}
}

// passThroughSubtitle carries the original cue text across the slot,
// re-based to the slot's zero-based time.
func passThroughSubtitle(seg align.Segment) *subtitles.Cue {
	if seg.IsSilence() {
		return nil
	}
	span := seg.Cues[0].Span
	for _, cue := range seg.Cues[1:] {
		span = span.Union(cue.Span)
	}
	local := span.Shift(-seg.Span.Start)
	// Merged cue groups can start marginally before the segment when
	// overlapping recognition output was clamped during alignment.
	if local.Start < 0 {
		local.Start = 0
	}
	if local.End > seg.Span.Duration() {
		local.End = seg.Span.Duration()
	}
	return &subtitles.Cue{Span: local, Text: seg.Text(), Source: subtitles.SourceOriginal}
}
