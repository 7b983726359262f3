package reconcile_test

import (
	"errors"
	"reflect"
	"testing"

	"playlet/internal/align"
	"playlet/internal/mix"
	"playlet/internal/reconcile"
	"playlet/internal/subtitles"
	"playlet/internal/timecode"
)

func segment(id int, start, end timecode.Millis, text string) align.Segment {
	seg := align.Segment{ID: id, Span: timecode.Span{Start: start, End: end}}
	if text != "" {
		seg.Cues = []subtitles.Cue{{
			Span:   timecode.Span{Start: start, End: end},
			Text:   text,
			Source: subtitles.SourceOriginal,
		}}
	}
	return seg
}

func defaultOptions() reconcile.Options {
	return reconcile.Options{
		Alignment:   reconcile.AlignLeft,
		Strategy:    reconcile.StrategySlowdown,
		MaxSlowdown: 1.5,
		Mix:         mix.Options{OriginalGain: 0.3, NarrationGain: 1.0, Fade: 150},
	}
}

func TestPassThroughSegment(t *testing.T) {
	// A 5000ms segment with no narration yields one span identical to its
	// source span with original audio at unity gain.
	seg := segment(0, 2000, 7000, "dialogue")
	res, err := reconcile.Reconcile(seg, nil, defaultOptions())
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if len(res.Spans) != 1 {
		t.Fatalf("expected one span, got %d", len(res.Spans))
	}
	span := res.Spans[0]
	if span.Output != (timecode.Span{Start: 0, End: 5000}) {
		t.Fatalf("unexpected output span: %v", span.Output)
	}
	if span.Source != seg.Span {
		t.Fatalf("unexpected source span: %v", span.Source)
	}
	if span.Mix.HasNarration() || span.Mix.OriginalGain != 1 || span.Mix.NarrationGain != 0 {
		t.Fatalf("unexpected mix: %#v", span.Mix)
	}
	if span.Rate != 1 || span.Freeze != 0 {
		t.Fatalf("pass-through must not re-time: rate=%v freeze=%v", span.Rate, span.Freeze)
	}
	if span.Subtitle == nil || span.Subtitle.Text != "dialogue" {
		t.Fatalf("original cue text should survive: %#v", span.Subtitle)
	}
	if res.Extension != 0 {
		t.Fatalf("pass-through must not extend: %d", res.Extension)
	}
}

func TestNarrationShorterThanSegmentLeftAligned(t *testing.T) {
	seg := segment(1, 0, 10_000, "dialogue")
	clip := &reconcile.Clip{SegmentID: 1, Script: "voice over", AudioHandle: "clip-1.wav", AudioDuration: 6000}
	res, err := reconcile.Reconcile(seg, clip, defaultOptions())
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	span := res.Spans[0]
	if span.Output.Duration() != 10_000 {
		t.Fatalf("fitting narration must not lengthen output: %v", span.Output)
	}
	if span.Mix.Duck != (timecode.Span{Start: 0, End: 6000}) {
		t.Fatalf("unexpected duck window: %v", span.Mix.Duck)
	}
	if span.Mix.OriginalGain != 0.3 || span.Mix.NarrationGain != 1.0 {
		t.Fatalf("unexpected gains: %#v", span.Mix)
	}
	if span.Subtitle == nil || span.Subtitle.Text != "voice over" || span.Subtitle.Source != subtitles.SourceGenerated {
		t.Fatalf("narration script should drive the subtitle: %#v", span.Subtitle)
	}
	if span.AudioHandle != "clip-1.wav" {
		t.Fatalf("audio handle lost: %q", span.AudioHandle)
	}
	if res.Extension != 0 {
		t.Fatalf("no extension expected: %d", res.Extension)
	}
}

func TestNarrationShorterThanSegmentCentered(t *testing.T) {
	opts := defaultOptions()
	opts.Alignment = reconcile.AlignCenter
	seg := segment(1, 0, 10_000, "dialogue")
	clip := &reconcile.Clip{SegmentID: 1, Script: "voice over", AudioDuration: 6000}
	res, err := reconcile.Reconcile(seg, clip, opts)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if res.Spans[0].Mix.Duck != (timecode.Span{Start: 2000, End: 8000}) {
		t.Fatalf("unexpected centered duck window: %v", res.Spans[0].Mix.Duck)
	}
}

func TestNarrationLongerWithinSlowdownBound(t *testing.T) {
	// 10,000ms segment, 12,500ms narration, max slowdown 1.5: one span of
	// 12,500ms fully covered by narration with 150ms fades at each edge.
	seg := segment(2, 0, 10_000, "dialogue")
	clip := &reconcile.Clip{SegmentID: 2, Script: "long narration", AudioDuration: 12_500}
	res, err := reconcile.Reconcile(seg, clip, defaultOptions())
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if len(res.Spans) != 1 {
		t.Fatalf("expected one span, got %d", len(res.Spans))
	}
	span := res.Spans[0]
	if span.Output != (timecode.Span{Start: 0, End: 12_500}) {
		t.Fatalf("output must equal narration duration: %v", span.Output)
	}
	if span.Freeze != 0 {
		t.Fatalf("within bound there is no freeze: %d", span.Freeze)
	}
	if got, want := span.Rate, 10_000.0/12_500.0; got != want {
		t.Fatalf("rate = %v, want %v", got, want)
	}
	if span.Mix.Duck != span.Output {
		t.Fatalf("whole span should be narrated: %v", span.Mix.Duck)
	}
	if span.Mix.FadeIn != 150 || span.Mix.FadeOut != 150 {
		t.Fatalf("unexpected fades: %d/%d", span.Mix.FadeIn, span.Mix.FadeOut)
	}
	if span.Mix.FullGain != 1 || span.Mix.NarrationGain != 1.0 {
		t.Fatalf("unexpected gains: %#v", span.Mix)
	}
	if res.Extension != 2500 {
		t.Fatalf("extension = %d, want 2500", res.Extension)
	}
}

func TestNarrationLongerBeyondBoundFallsBackToFreeze(t *testing.T) {
	// Required factor is 2.0, bound is 1.5: slow to the bound (15,000ms of
	// visual time) and freeze the remaining 5000ms.
	seg := segment(3, 0, 10_000, "dialogue")
	clip := &reconcile.Clip{SegmentID: 3, Script: "very long narration", AudioDuration: 20_000}
	res, err := reconcile.Reconcile(seg, clip, defaultOptions())
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	span := res.Spans[0]
	if span.Output.Duration() != 20_000 {
		t.Fatalf("output must equal narration duration: %v", span.Output)
	}
	if got, want := span.Rate, 1/1.5; got != want {
		t.Fatalf("rate = %v, want %v", got, want)
	}
	if span.Freeze != 5000 {
		t.Fatalf("freeze = %d, want 5000", span.Freeze)
	}
	if res.Extension != 10_000 {
		t.Fatalf("extension = %d, want 10000", res.Extension)
	}
}

func TestFreezeStrategy(t *testing.T) {
	opts := defaultOptions()
	opts.Strategy = reconcile.StrategyFreeze
	seg := segment(4, 0, 10_000, "dialogue")
	clip := &reconcile.Clip{SegmentID: 4, Script: "long", AudioDuration: 12_500}
	res, err := reconcile.Reconcile(seg, clip, opts)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	span := res.Spans[0]
	if span.Rate != 1 {
		t.Fatalf("freeze strategy must not slow playback: %v", span.Rate)
	}
	if span.Freeze != 2500 {
		t.Fatalf("freeze = %d, want 2500", span.Freeze)
	}
}

func TestDegradedSegmentIsIdenticalToPassThrough(t *testing.T) {
	seg := segment(5, 1000, 6000, "dialogue")
	direct, err := reconcile.Reconcile(seg, nil, defaultOptions())
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	again, err := reconcile.Reconcile(seg, nil, defaultOptions())
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if !reflect.DeepEqual(direct, again) {
		t.Fatalf("degraded output differs from pass-through:\n%#v\n%#v", direct, again)
	}
}

func TestReconcileIsIdempotent(t *testing.T) {
	seg := segment(6, 0, 8000, "dialogue")
	clip := &reconcile.Clip{SegmentID: 6, Script: "script", AudioHandle: "a.wav", AudioDuration: 9600}
	first, err := reconcile.Reconcile(seg, clip, defaultOptions())
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	second, err := reconcile.Reconcile(seg, clip, defaultOptions())
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatal("reconciliation is not deterministic")
	}
}

func TestSubFrameSpansRejected(t *testing.T) {
	opts := defaultOptions()
	opts.FrameInterval = 40

	tiny := segment(7, 0, 20, "")
	if _, err := reconcile.Reconcile(tiny, nil, opts); !errors.Is(err, timecode.ErrInvalidSpan) {
		t.Fatalf("expected ErrInvalidSpan for sub-frame segment, got %v", err)
	}

	seg := segment(8, 0, 5000, "dialogue")
	clip := &reconcile.Clip{SegmentID: 8, Script: "s", AudioDuration: 10}
	if _, err := reconcile.Reconcile(seg, clip, opts); !errors.Is(err, timecode.ErrInvalidSpan) {
		t.Fatalf("expected ErrInvalidSpan for sub-frame narration, got %v", err)
	}
}

func TestSlowdownRequiresSaneBound(t *testing.T) {
	opts := defaultOptions()
	opts.MaxSlowdown = 0.5
	seg := segment(9, 0, 5000, "dialogue")
	clip := &reconcile.Clip{SegmentID: 9, Script: "s", AudioDuration: 8000}
	if _, err := reconcile.Reconcile(seg, clip, opts); !errors.Is(err, timecode.ErrInvalidSpan) {
		t.Fatalf("expected ErrInvalidSpan for bound below 1, got %v", err)
	}
}
