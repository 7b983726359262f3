package plan_test

import (
	"strings"
	"testing"

	"playlet/internal/align"
	"playlet/internal/config"
	"playlet/internal/plan"
	"playlet/internal/subtitles"
	"playlet/internal/timecode"
)

func speech(id int, start, end timecode.Millis, text string) align.Segment {
	return align.Segment{
		ID:   id,
		Span: timecode.Span{Start: start, End: end},
		Cues: []subtitles.Cue{{
			Span:   timecode.Span{Start: start, End: end},
			Text:   text,
			Source: subtitles.SourceOriginal,
		}},
	}
}

func silence(id int, start, end timecode.Millis) align.Segment {
	return align.Segment{ID: id, Span: timecode.Span{Start: start, End: end}}
}

func TestBuildSkipsSilenceAndShortSegments(t *testing.T) {
	segments := []align.Segment{
		silence(0, 0, 1000),
		speech(1, 1000, 1800, "too short"),
		speech(2, 1800, 9000, "long enough"),
	}
	style := config.Style{Name: "recap", Description: "plot summary"}
	requests := plan.Build(segments, style, plan.Options{MinDuration: 2000})

	if len(requests) != 1 {
		t.Fatalf("expected one request, got %d", len(requests))
	}
	req := requests[0]
	if req.SegmentID != 2 {
		t.Fatalf("wrong segment selected: %d", req.SegmentID)
	}
	if req.TargetDuration != 7200 {
		t.Fatalf("unexpected target duration: %d", req.TargetDuration)
	}
	if req.Style.Name != "recap" {
		t.Fatalf("style lost: %#v", req.Style)
	}
}

func TestBuildPassThroughStyleEmitsNothing(t *testing.T) {
	segments := []align.Segment{speech(0, 0, 10_000, "dialogue")}
	style := config.Style{Name: "raw", PassThrough: true}
	if requests := plan.Build(segments, style, plan.Options{}); len(requests) != 0 {
		t.Fatalf("pass-through style must not request narration: %#v", requests)
	}
}

func TestBuildIncludesNeighborContext(t *testing.T) {
	segments := []align.Segment{
		speech(0, 0, 5000, "the hero arrives"),
		silence(1, 5000, 6000),
		speech(2, 6000, 12_000, "the duel begins"),
		speech(3, 12_000, 20_000, "an unexpected ally appears"),
	}
	requests := plan.Build(segments, config.Style{Name: "suspense"}, plan.Options{NeighborContext: 200})
	if len(requests) != 3 {
		t.Fatalf("expected 3 requests, got %d", len(requests))
	}

	mid := requests[1]
	if mid.SegmentID != 2 {
		t.Fatalf("unexpected segment order: %#v", requests)
	}
	if !strings.Contains(mid.Context, "Before: the hero arrives") {
		t.Fatalf("missing previous context: %q", mid.Context)
	}
	if !strings.Contains(mid.Context, "Scene (00:00:06.000 - 00:00:12.000): the duel begins") {
		t.Fatalf("missing scene line: %q", mid.Context)
	}
	if !strings.Contains(mid.Context, "After: an unexpected ally appears") {
		t.Fatalf("missing next context: %q", mid.Context)
	}

	first := requests[0]
	if strings.Contains(first.Context, "Before:") {
		t.Fatalf("first segment must not have previous context: %q", first.Context)
	}
}

func TestBuildTruncatesNeighborContext(t *testing.T) {
	long := strings.Repeat("长", 500)
	segments := []align.Segment{
		speech(0, 0, 5000, long),
		speech(1, 5000, 10_000, "scene"),
	}
	requests := plan.Build(segments, config.Style{Name: "recap"}, plan.Options{NeighborContext: 50})
	ctx := requests[1].Context
	lines := strings.Split(ctx, "\n")
	before := strings.TrimPrefix(lines[0], "Before: ")
	if got := len([]rune(before)); got != 50 {
		t.Fatalf("neighbor context not truncated: %d runes", got)
	}
}

func TestBuildOrderFollowsSegments(t *testing.T) {
	segments := []align.Segment{
		speech(0, 0, 3000, "a"),
		speech(1, 3000, 6000, "b"),
		speech(2, 6000, 9000, "c"),
	}
	requests := plan.Build(segments, config.Style{Name: "recap"}, plan.Options{})
	for i, req := range requests {
		if req.SegmentID != i {
			t.Fatalf("dispatch order must follow segment order: %#v", requests)
		}
	}
}
