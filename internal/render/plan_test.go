package render_test

import (
	"path/filepath"
	"testing"

	"playlet/internal/mix"
	"playlet/internal/render"
	"playlet/internal/subtitles"
	"playlet/internal/timecode"
	"playlet/internal/timeline"
)

func sampleTimeline() []timeline.OutputSpan {
	return []timeline.OutputSpan{
		{
			SegmentID: 0,
			Output:    timecode.Span{Start: 0, End: 4000},
			Source:    timecode.Span{Start: 0, End: 4000},
			Rate:      1,
			Mix:       mix.PassThrough(),
			Subtitle: &subtitles.Cue{
				Span:   timecode.Span{Start: 500, End: 3500},
				Text:   "你给我站住",
				Source: subtitles.SourceOriginal,
			},
		},
		{
			SegmentID:   1,
			Output:      timecode.Span{Start: 4000, End: 16500},
			Source:      timecode.Span{Start: 4000, End: 14000},
			Rate:        0.8,
			Mix:         mix.Envelope{FullGain: 1, OriginalGain: 0.3, NarrationGain: 1, Duck: timecode.Span{Start: 4000, End: 16500}, FadeIn: 150, FadeOut: 150},
			AudioHandle: "/work/seg1.wav",
			Blur:        true,
		},
	}
}

func TestBuildComputesSummary(t *testing.T) {
	plan, err := render.Build(render.Meta{
		Source:         "/videos/ep01.mp4",
		Style:          "suspense",
		FrameRate:      25,
		SourceDuration: timecode.Millis(14000),
	}, sampleTimeline())
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	if plan.Version != render.Version {
		t.Errorf("version = %d", plan.Version)
	}
	if plan.DurationMillis != 16500 {
		t.Errorf("duration = %d, want 16500", plan.DurationMillis)
	}
	if plan.DriftMillis != 2500 {
		t.Errorf("drift = %d, want 2500", plan.DriftMillis)
	}
	wantCoverage := 12500.0 / 16500.0
	if diff := plan.Coverage - wantCoverage; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("coverage = %v, want %v", plan.Coverage, wantCoverage)
	}
	if plan.NarratedSegments != 1 {
		t.Errorf("narrated segments = %d, want 1", plan.NarratedSegments)
	}
	if len(plan.Instructions) != 2 {
		t.Fatalf("instructions = %d", len(plan.Instructions))
	}

	first := plan.Instructions[0]
	if first.Subtitle == nil || first.Subtitle.Text != "你给我站住" {
		t.Errorf("instruction 0 subtitle = %+v", first.Subtitle)
	}
	if first.NarrationAudio != "" {
		t.Errorf("instruction 0 should carry no narration audio")
	}

	second := plan.Instructions[1]
	if second.Rate != 0.8 {
		t.Errorf("instruction 1 rate = %v", second.Rate)
	}
	if second.Output.StartMillis != 4000 || second.Output.EndMillis != 16500 {
		t.Errorf("instruction 1 output = %+v", second.Output)
	}
	if second.NarrationAudio != "/work/seg1.wav" || !second.Blur {
		t.Errorf("instruction 1 = %+v", second)
	}
}

func TestBuildRejectsEmptyTimeline(t *testing.T) {
	if _, err := render.Build(render.Meta{}, nil); err == nil {
		t.Fatal("expected error for empty timeline")
	}
}

func TestWriteAndReadFile(t *testing.T) {
	plan, err := render.Build(render.Meta{
		Source:         "/videos/ep01.mp4",
		Style:          "recap",
		FrameRate:      25,
		SourceDuration: timecode.Millis(14000),
	}, sampleTimeline())
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	path := filepath.Join(t.TempDir(), "plans", "ep01.plan.json")
	if err := plan.WriteFile(path); err != nil {
		t.Fatalf("WriteFile returned error: %v", err)
	}

	loaded, err := render.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile returned error: %v", err)
	}
	if loaded.Style != "recap" || len(loaded.Instructions) != len(plan.Instructions) {
		t.Fatalf("round trip mismatch: %+v", loaded)
	}
	if loaded.Instructions[1].Mix.Duck.Start != timecode.Millis(4000) {
		t.Errorf("duck window lost in round trip: %+v", loaded.Instructions[1].Mix)
	}
}
