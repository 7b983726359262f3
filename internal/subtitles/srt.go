package subtitles

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"playlet/internal/timecode"
)

// ParseSRT parses SRT content into cues. Blocks with missing timing lines are
// skipped rather than failing the whole file, matching how recognition output
// from real transcribers tends to be slightly malformed. Both "," and "." are
// accepted as millisecond separators.
func ParseSRT(content string) ([]Cue, error) {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	blocks := strings.Split(strings.TrimSpace(content), "\n\n")
	cues := make([]Cue, 0, len(blocks))
	for _, block := range blocks {
		lines := strings.Split(strings.TrimSpace(block), "\n")
		if len(lines) < 2 {
			continue
		}
		// The numeric index line is optional in practice.
		timingIdx := 0
		if !strings.Contains(lines[0], "-->") {
			timingIdx = 1
		}
		if timingIdx >= len(lines) || !strings.Contains(lines[timingIdx], "-->") {
			continue
		}
		parts := strings.SplitN(lines[timingIdx], "-->", 2)
		start, err := ParseTimestamp(strings.TrimSpace(parts[0]))
		if err != nil {
			continue
		}
		end, err := ParseTimestamp(strings.TrimSpace(parts[1]))
		if err != nil {
			continue
		}
		text := strings.TrimSpace(strings.Join(lines[timingIdx+1:], "\n"))
		if text == "" {
			continue
		}
		span, err := timecode.New(start, end)
		if err != nil {
			return nil, fmt.Errorf("srt cue %q: %w", text, err)
		}
		cues = append(cues, Cue{Span: span, Text: text, Source: SourceOriginal})
	}
	return cues, nil
}

// ParseSRTFile reads and parses an SRT file from disk.
func ParseSRTFile(path string) ([]Cue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read srt: %w", err)
	}
	return ParseSRT(string(data))
}

// FormatSRT renders cues as SRT with 1-based indices and comma millisecond
// separators.
func FormatSRT(cues []Cue) string {
	var b strings.Builder
	for i, cue := range cues {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString("\n")
		b.WriteString(FormatTimestamp(cue.Span.Start))
		b.WriteString(" --> ")
		b.WriteString(FormatTimestamp(cue.Span.End))
		b.WriteString("\n")
		b.WriteString(cue.Text)
		b.WriteString("\n")
	}
	return b.String()
}

// WriteSRTFile writes cues to path in SRT format.
func WriteSRTFile(path string, cues []Cue) error {
	if err := os.WriteFile(path, []byte(FormatSRT(cues)), 0o644); err != nil {
		return fmt.Errorf("write srt: %w", err)
	}
	return nil
}

// ParseTimestamp parses an SRT timestamp (HH:MM:SS,mmm or HH:MM:SS.mmm).
func ParseTimestamp(value string) (timecode.Millis, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(value), ",", ".")
	fields := strings.Split(normalized, ":")
	if len(fields) != 3 {
		return 0, fmt.Errorf("srt timestamp %q: expected HH:MM:SS,mmm", value)
	}
	hours, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, fmt.Errorf("srt timestamp %q: hours: %w", value, err)
	}
	minutes, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, fmt.Errorf("srt timestamp %q: minutes: %w", value, err)
	}
	seconds, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return 0, fmt.Errorf("srt timestamp %q: seconds: %w", value, err)
	}
	if hours < 0 || minutes < 0 || seconds < 0 {
		return 0, fmt.Errorf("srt timestamp %q: negative component", value)
	}
	total := timecode.Millis(hours)*3_600_000 +
		timecode.Millis(minutes)*60_000 +
		timecode.FromSeconds(seconds)
	return total, nil
}

// FormatTimestamp renders a timestamp as HH:MM:SS,mmm.
func FormatTimestamp(at timecode.Millis) string {
	if at < 0 {
		at = 0
	}
	h := at / 3_600_000
	at -= h * 3_600_000
	m := at / 60_000
	at -= m * 60_000
	s := at / 1000
	ms := at - s*1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}
