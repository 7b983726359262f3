package align_test

import (
	"errors"
	"testing"

	"playlet/internal/align"
	"playlet/internal/subtitles"
	"playlet/internal/timecode"
)

func cue(start, end timecode.Millis, text string) subtitles.Cue {
	return subtitles.Cue{
		Span:   timecode.Span{Start: start, End: end},
		Text:   text,
		Source: subtitles.SourceOriginal,
	}
}

func TestPartitionCoversFullDuration(t *testing.T) {
	cues := []subtitles.Cue{
		cue(1000, 3000, "one"),
		cue(3200, 5000, "two"),
		cue(9000, 9500, "three"),
	}
	segments, err := align.Partition(cues, 12_000, align.Options{MinSilence: 500})
	if err != nil {
		t.Fatalf("Partition failed: %v", err)
	}

	// Leading silence, merged speech (gap 200 < 500), silence, speech,
	// trailing silence.
	if len(segments) != 5 {
		t.Fatalf("expected 5 segments, got %d: %#v", len(segments), segments)
	}
	if !segments[0].IsSilence() || segments[0].Span != (timecode.Span{Start: 0, End: 1000}) {
		t.Fatalf("unexpected leading segment: %#v", segments[0])
	}
	if segments[1].Span != (timecode.Span{Start: 1000, End: 5000}) || len(segments[1].Cues) != 2 {
		t.Fatalf("cues within min silence were not merged: %#v", segments[1])
	}
	if !segments[2].IsSilence() || segments[2].Span != (timecode.Span{Start: 5000, End: 9000}) {
		t.Fatalf("unexpected silence segment: %#v", segments[2])
	}
	if segments[4].Span.End != 12_000 {
		t.Fatalf("trailing silence missing: %#v", segments[4])
	}

	if err := align.Validate(segments, 12_000); err != nil {
		t.Fatalf("Validate rejected a fresh partition: %v", err)
	}
	for i, seg := range segments {
		if seg.ID != i {
			t.Fatalf("segment %d has ID %d", i, seg.ID)
		}
	}
}

func TestPartitionUnorderedInput(t *testing.T) {
	cues := []subtitles.Cue{
		cue(4000, 6000, "later"),
		cue(0, 2000, "earlier"),
	}
	segments, err := align.Partition(cues, 6000, align.Options{MinSilence: 300})
	if err != nil {
		t.Fatalf("Partition failed: %v", err)
	}
	if len(segments) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(segments))
	}
	if segments[0].Text() != "earlier" || segments[2].Text() != "later" {
		t.Fatalf("segments out of order: %#v", segments)
	}
}

func TestPartitionMergesOverlappingCues(t *testing.T) {
	cues := []subtitles.Cue{
		cue(0, 3000, "a"),
		cue(2500, 4000, "b"),
	}
	segments, err := align.Partition(cues, 4000, align.Options{MinSilence: 100})
	if err != nil {
		t.Fatalf("Partition failed: %v", err)
	}
	if len(segments) != 1 || len(segments[0].Cues) != 2 {
		t.Fatalf("overlapping cues should form one segment: %#v", segments)
	}
	if segments[0].Span != (timecode.Span{Start: 0, End: 4000}) {
		t.Fatalf("unexpected merged span: %v", segments[0].Span)
	}
}

func TestPartitionEmptyCues(t *testing.T) {
	segments, err := align.Partition(nil, 5000, align.Options{})
	if err != nil {
		t.Fatalf("Partition failed: %v", err)
	}
	if len(segments) != 1 || !segments[0].IsSilence() {
		t.Fatalf("silent video should become a single silence segment: %#v", segments)
	}
	if segments[0].Span != (timecode.Span{Start: 0, End: 5000}) {
		t.Fatalf("unexpected span: %v", segments[0].Span)
	}
}

func TestPartitionAbsorbsSubFrameEdgeGaps(t *testing.T) {
	// A cue starting 10ms into the video must not leave a [0, 10) silence
	// sliver: nothing shorter than one frame can be rendered.
	segments, err := align.Partition([]subtitles.Cue{cue(10, 5000, "opening line")}, 20_000,
		align.Options{MinSilence: 500})
	if err != nil {
		t.Fatalf("Partition failed: %v", err)
	}
	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %d: %#v", len(segments), segments)
	}
	if segments[0].IsSilence() || segments[0].Span != (timecode.Span{Start: 0, End: 5000}) {
		t.Fatalf("leading gap was not folded into the speech segment: %#v", segments[0])
	}
	if err := align.Validate(segments, 20_000); err != nil {
		t.Fatalf("Validate rejected the partition: %v", err)
	}

	// Same at the trailing edge.
	segments, err = align.Partition([]subtitles.Cue{cue(1000, 19_980, "closing line")}, 20_000,
		align.Options{MinSilence: 500})
	if err != nil {
		t.Fatalf("Partition failed: %v", err)
	}
	last := segments[len(segments)-1]
	if last.IsSilence() || last.Span.End != 20_000 {
		t.Fatalf("trailing gap was not folded into the speech segment: %#v", last)
	}
}

func TestPartitionAbsorbsSubFrameInteriorGap(t *testing.T) {
	// Gap of 30ms clears MinSilence but is below the 40ms frame interval,
	// so it joins the following speech instead of becoming a segment.
	cues := []subtitles.Cue{cue(0, 1000, "first"), cue(1030, 2000, "second")}
	segments, err := align.Partition(cues, 2000, align.Options{MinSilence: 20})
	if err != nil {
		t.Fatalf("Partition failed: %v", err)
	}
	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %d: %#v", len(segments), segments)
	}
	if segments[1].Span != (timecode.Span{Start: 1000, End: 2000}) {
		t.Fatalf("interior gap was not folded forward: %#v", segments[1])
	}
	if err := align.Validate(segments, 2000); err != nil {
		t.Fatalf("Validate rejected the partition: %v", err)
	}
}

func TestPartitionRejectsInvertedCue(t *testing.T) {
	cues := []subtitles.Cue{cue(0, 1000, "fine"), {Span: timecode.Span{Start: 3000, End: 2000}, Text: "bad"}}
	if _, err := align.Partition(cues, 5000, align.Options{}); !errors.Is(err, align.ErrAlignment) {
		t.Fatalf("expected ErrAlignment, got %v", err)
	}
}

func TestPartitionRejectsOutOfRangeCue(t *testing.T) {
	cues := []subtitles.Cue{cue(4000, 7000, "past the end")}
	if _, err := align.Partition(cues, 5000, align.Options{}); !errors.Is(err, align.ErrAlignment) {
		t.Fatalf("expected ErrAlignment, got %v", err)
	}
}

func TestPartitionRejectsZeroDuration(t *testing.T) {
	if _, err := align.Partition(nil, 0, align.Options{}); !errors.Is(err, align.ErrAlignment) {
		t.Fatalf("expected ErrAlignment, got %v", err)
	}
}

func TestValidateDetectsGap(t *testing.T) {
	segments := []align.Segment{
		{ID: 0, Span: timecode.Span{Start: 0, End: 2000}},
		{ID: 1, Span: timecode.Span{Start: 2500, End: 5000}},
	}
	if err := align.Validate(segments, 5000); !errors.Is(err, align.ErrAlignment) {
		t.Fatalf("expected ErrAlignment for gap, got %v", err)
	}
}
