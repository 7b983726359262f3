package timecode

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidSpan marks span arithmetic that produced or received an
// inverted interval. It indicates a defect in the caller and is fatal.
var ErrInvalidSpan = errors.New("invalid time span")

// Millis is a point or duration in media time, fixed-point milliseconds.
type Millis int64

// FromDuration converts a time.Duration to Millis, truncating sub-millisecond
// precision.
func FromDuration(d time.Duration) Millis {
	return Millis(d / time.Millisecond)
}

// FromSeconds converts floating seconds (the unit used by recognition and
// synthesis collaborators) to Millis with round-half-away-from-zero semantics.
func FromSeconds(s float64) Millis {
	return Millis(math.Round(s * 1000))
}

// Duration converts Millis to a time.Duration.
func (m Millis) Duration() time.Duration {
	return time.Duration(m) * time.Millisecond
}

// Seconds returns the value as floating seconds.
func (m Millis) Seconds() float64 {
	return float64(m) / 1000
}

// String formats the value as HH:MM:SS.mmm.
func (m Millis) String() string {
	neg := ""
	if m < 0 {
		neg = "-"
		m = -m
	}
	h := m / 3_600_000
	m -= h * 3_600_000
	min := m / 60_000
	m -= min * 60_000
	s := m / 1000
	ms := m - s*1000
	return fmt.Sprintf("%s%02d:%02d:%02d.%03d", neg, h, min, s, ms)
}

// Span is an immutable half-open interval [Start, End) in media time.
// A valid span satisfies Start < End; the only other representable state is
// an explicitly empty span where Start == End.
type Span struct {
	Start Millis
	End   Millis
}

// New builds a span and enforces Start < End.
func New(start, end Millis) (Span, error) {
	if start >= end {
		return Span{}, fmt.Errorf("%w: start %s >= end %s", ErrInvalidSpan, start, end)
	}
	return Span{Start: start, End: end}, nil
}

// Empty returns the empty span anchored at the given instant.
func Empty(at Millis) Span {
	return Span{Start: at, End: at}
}

// IsEmpty reports whether the span covers no time.
func (s Span) IsEmpty() bool {
	return s.Start == s.End
}

// Validate returns ErrInvalidSpan for inverted spans. Empty spans pass.
func (s Span) Validate() error {
	if s.Start > s.End {
		return fmt.Errorf("%w: start %s > end %s", ErrInvalidSpan, s.Start, s.End)
	}
	return nil
}

// Duration is End - Start.
func (s Span) Duration() Millis {
	return s.End - s.Start
}

// Contains reports whether the instant lies inside the half-open interval.
func (s Span) Contains(at Millis) bool {
	return at >= s.Start && at < s.End
}

// Shift translates the span by the given offset.
func (s Span) Shift(by Millis) Span {
	return Span{Start: s.Start + by, End: s.End + by}
}

// Scale stretches the span's duration about its start by the given factor.
// The result is rounded to whole milliseconds.
func (s Span) Scale(factor float64) (Span, error) {
	if factor <= 0 {
		return Span{}, fmt.Errorf("%w: scale factor %v", ErrInvalidSpan, factor)
	}
	scaled := Millis(math.Round(float64(s.Duration()) * factor))
	out := Span{Start: s.Start, End: s.Start + scaled}
	if err := out.Validate(); err != nil {
		return Span{}, err
	}
	return out, nil
}

// Union returns the smallest span covering both operands.
func (s Span) Union(o Span) Span {
	out := s
	if o.Start < out.Start {
		out.Start = o.Start
	}
	if o.End > out.End {
		out.End = o.End
	}
	return out
}

// Intersect returns the overlap of the two spans. The second return value is
// false when the spans do not overlap; the returned span is then empty.
func (s Span) Intersect(o Span) (Span, bool) {
	start := s.Start
	if o.Start > start {
		start = o.Start
	}
	end := s.End
	if o.End < end {
		end = o.End
	}
	if start >= end {
		return Empty(start), false
	}
	return Span{Start: start, End: end}, true
}

// Overlaps reports whether the spans share any time.
func (s Span) Overlaps(o Span) bool {
	_, ok := s.Intersect(o)
	return ok
}

func (s Span) String() string {
	return fmt.Sprintf("[%s, %s)", s.Start, s.End)
}
