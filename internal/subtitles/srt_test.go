package subtitles_test

import (
	"path/filepath"
	"strings"
	"testing"

	"playlet/internal/subtitles"
	"playlet/internal/timecode"
)

const sampleSRT = `1
00:00:01,000 --> 00:00:03,500
First line

2
00:00:04.250 --> 00:00:06.000
Second line
continued
`

func TestParseSRT(t *testing.T) {
	cues, err := subtitles.ParseSRT(sampleSRT)
	if err != nil {
		t.Fatalf("ParseSRT failed: %v", err)
	}
	if len(cues) != 2 {
		t.Fatalf("expected 2 cues, got %d", len(cues))
	}
	if cues[0].Span.Start != 1000 || cues[0].Span.End != 3500 {
		t.Fatalf("unexpected first span: %v", cues[0].Span)
	}
	if cues[1].Span.Start != 4250 {
		t.Fatalf("dot separator not accepted: %v", cues[1].Span)
	}
	if cues[1].Text != "Second line\ncontinued" {
		t.Fatalf("multi-line text lost: %q", cues[1].Text)
	}
	for _, cue := range cues {
		if cue.Source != subtitles.SourceOriginal {
			t.Fatalf("parsed cue should be original source, got %q", cue.Source)
		}
	}
}

func TestParseSRTSkipsMalformedBlocks(t *testing.T) {
	content := "garbage without timing\n\n1\n00:00:01,000 --> 00:00:02,000\nok\n"
	cues, err := subtitles.ParseSRT(content)
	if err != nil {
		t.Fatalf("ParseSRT failed: %v", err)
	}
	if len(cues) != 1 || cues[0].Text != "ok" {
		t.Fatalf("unexpected cues: %#v", cues)
	}
}

func TestParseSRTRejectsInvertedSpan(t *testing.T) {
	content := "1\n00:00:05,000 --> 00:00:02,000\nbackwards\n"
	if _, err := subtitles.ParseSRT(content); err == nil {
		t.Fatal("expected error for inverted cue span")
	}
}

func TestFormatSRTRoundTrip(t *testing.T) {
	cues := []subtitles.Cue{
		{Span: timecode.Span{Start: 0, End: 1500}, Text: "hello", Source: subtitles.SourceOriginal},
		{Span: timecode.Span{Start: 2000, End: 3045}, Text: "world", Source: subtitles.SourceGenerated},
	}
	rendered := subtitles.FormatSRT(cues)
	if !strings.Contains(rendered, "00:00:02,000 --> 00:00:03,045") {
		t.Fatalf("unexpected rendering:\n%s", rendered)
	}
	parsed, err := subtitles.ParseSRT(rendered)
	if err != nil {
		t.Fatalf("re-parse failed: %v", err)
	}
	if len(parsed) != 2 || parsed[1].Span != cues[1].Span || parsed[1].Text != "world" {
		t.Fatalf("round trip mismatch: %#v", parsed)
	}
}

func TestWriteAndParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.srt")
	cues := []subtitles.Cue{{Span: timecode.Span{Start: 500, End: 900}, Text: "line", Source: subtitles.SourceOriginal}}
	if err := subtitles.WriteSRTFile(path, cues); err != nil {
		t.Fatalf("WriteSRTFile failed: %v", err)
	}
	parsed, err := subtitles.ParseSRTFile(path)
	if err != nil {
		t.Fatalf("ParseSRTFile failed: %v", err)
	}
	if len(parsed) != 1 || parsed[0].Span != cues[0].Span {
		t.Fatalf("unexpected parsed cues: %#v", parsed)
	}
}

func TestJoinText(t *testing.T) {
	cues := []subtitles.Cue{
		{Text: " a "},
		{Text: ""},
		{Text: "b"},
	}
	if got := subtitles.JoinText(cues); got != "a b" {
		t.Fatalf("JoinText = %q", got)
	}
}
