package mix

import (
	"playlet/internal/timecode"
)

// DefaultFade is the fade length applied at narration onset and offset when
// the configuration does not override it.
const DefaultFade timecode.Millis = 150

// Envelope describes how original and narration audio are blended inside one
// output span. Outside Duck the original track plays at FullGain and the
// narration track is silent; inside Duck the original track is held at
// OriginalGain while narration plays at NarrationGain, with linear fades of
// FadeIn/FadeOut at the window edges.
type Envelope struct {
	// FullGain is the original-track gain outside the narration window.
	FullGain float64 `json:"full_gain"`
	// OriginalGain is the ducked original-track gain under narration.
	OriginalGain float64 `json:"original_gain"`
	// NarrationGain is the narration-track gain inside the window.
	NarrationGain float64 `json:"narration_gain"`
	// Duck is the sub-range of the output span actually covered by
	// narration audio, in output-timeline coordinates. Empty when the span
	// carries no narration.
	Duck timecode.Span `json:"duck"`
	// FadeIn and FadeOut are the linear fade lengths at the window edges.
	FadeIn  timecode.Millis `json:"fade_in"`
	FadeOut timecode.Millis `json:"fade_out"`
}

// HasNarration reports whether the envelope carries a narration window.
func (e Envelope) HasNarration() bool {
	return !e.Duck.IsEmpty()
}

// Shift translates the duck window, keeping the envelope aligned with an
// output span that was moved during assembly.
func (e Envelope) Shift(by timecode.Millis) Envelope {
	if e.Duck.IsEmpty() {
		return e
	}
	e.Duck = e.Duck.Shift(by)
	return e
}

// Options carries the style-provided gain and fade settings.
type Options struct {
	// OriginalGain is the ducked level for the original track under
	// narration.
	OriginalGain float64
	// NarrationGain is the narration-track gain.
	NarrationGain float64
	// MaxGain clamps both gains; zero means no clamping beyond unity for
	// the ducked original.
	MaxGain float64
	// Fade is the linear fade length; zero selects DefaultFade.
	Fade timecode.Millis
}

// PassThrough is the envelope for spans without narration: original audio at
// unity gain, narration silent.
func PassThrough() Envelope {
	return Envelope{FullGain: 1, OriginalGain: 1, NarrationGain: 0}
}

// Schedule builds the envelope for an output span whose narration audio
// occupies window. The duck window is limited to the sub-range actually
// covered by narration, never the whole span, and fades are shortened when
// the window is too narrow to hold two full fades.
func Schedule(span, window timecode.Span, opts Options) Envelope {
	clipped, ok := span.Intersect(window)
	if !ok {
		return PassThrough()
	}

	fade := opts.Fade
	if fade <= 0 {
		fade = DefaultFade
	}
	if half := clipped.Duration() / 2; fade > half {
		fade = half
	}

	return Envelope{
		FullGain:      1,
		OriginalGain:  clampGain(opts.OriginalGain, opts.MaxGain),
		NarrationGain: clampGain(opts.NarrationGain, opts.MaxGain),
		Duck:          clipped,
		FadeIn:        fade,
		FadeOut:       fade,
	}
}

func clampGain(gain, maxGain float64) float64 {
	if gain < 0 {
		return 0
	}
	if maxGain > 0 && gain > maxGain {
		return maxGain
	}
	return gain
}
