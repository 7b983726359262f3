package mix_test

import (
	"testing"

	"playlet/internal/mix"
	"playlet/internal/timecode"
)

func TestPassThroughEnvelope(t *testing.T) {
	env := mix.PassThrough()
	if env.HasNarration() {
		t.Fatal("pass-through envelope must not carry narration")
	}
	if env.FullGain != 1 || env.OriginalGain != 1 || env.NarrationGain != 0 {
		t.Fatalf("unexpected pass-through gains: %#v", env)
	}
}

func TestScheduleDucksOnlyNarratedWindow(t *testing.T) {
	span := timecode.Span{Start: 0, End: 10_000}
	window := timecode.Span{Start: 2000, End: 8000}
	env := mix.Schedule(span, window, mix.Options{OriginalGain: 0.3, NarrationGain: 1.0})

	if env.Duck != window {
		t.Fatalf("duck window %v, want %v", env.Duck, window)
	}
	if env.OriginalGain != 0.3 || env.NarrationGain != 1.0 || env.FullGain != 1 {
		t.Fatalf("unexpected gains: %#v", env)
	}
	if env.FadeIn != mix.DefaultFade || env.FadeOut != mix.DefaultFade {
		t.Fatalf("expected default %dms fades, got %d/%d", mix.DefaultFade, env.FadeIn, env.FadeOut)
	}
}

func TestScheduleClipsWindowToSpan(t *testing.T) {
	span := timecode.Span{Start: 1000, End: 5000}
	window := timecode.Span{Start: 0, End: 9000}
	env := mix.Schedule(span, window, mix.Options{OriginalGain: 0.3, NarrationGain: 1.0})
	if env.Duck != span {
		t.Fatalf("duck window should clip to span, got %v", env.Duck)
	}
}

func TestScheduleShortWindowShortensFades(t *testing.T) {
	span := timecode.Span{Start: 0, End: 1000}
	window := timecode.Span{Start: 400, End: 600}
	env := mix.Schedule(span, window, mix.Options{OriginalGain: 0.3, NarrationGain: 1.0, Fade: 150})
	if env.FadeIn != 100 || env.FadeOut != 100 {
		t.Fatalf("fades should shrink to half the window, got %d/%d", env.FadeIn, env.FadeOut)
	}
}

func TestScheduleClampsGains(t *testing.T) {
	span := timecode.Span{Start: 0, End: 4000}
	env := mix.Schedule(span, span, mix.Options{OriginalGain: -0.5, NarrationGain: 3.0, MaxGain: 2.0})
	if env.OriginalGain != 0 {
		t.Fatalf("negative gain should clamp to 0, got %v", env.OriginalGain)
	}
	if env.NarrationGain != 2.0 {
		t.Fatalf("gain should clamp to max, got %v", env.NarrationGain)
	}
}

func TestScheduleDisjointWindowIsPassThrough(t *testing.T) {
	span := timecode.Span{Start: 0, End: 1000}
	window := timecode.Span{Start: 5000, End: 6000}
	env := mix.Schedule(span, window, mix.Options{OriginalGain: 0.3, NarrationGain: 1.0})
	if env.HasNarration() {
		t.Fatalf("disjoint window must yield pass-through, got %#v", env)
	}
}

func TestShiftMovesDuckWindow(t *testing.T) {
	span := timecode.Span{Start: 0, End: 4000}
	env := mix.Schedule(span, timecode.Span{Start: 1000, End: 3000}, mix.Options{OriginalGain: 0.3, NarrationGain: 1.0})
	shifted := env.Shift(2500)
	if shifted.Duck != (timecode.Span{Start: 3500, End: 5500}) {
		t.Fatalf("unexpected shifted duck: %v", shifted.Duck)
	}
	// Pass-through envelopes are unaffected.
	pt := mix.PassThrough().Shift(2500)
	if pt.HasNarration() {
		t.Fatal("shifting pass-through must not invent narration")
	}
}
