package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

const (
	ansiReset  = "\x1b[0m"
	ansiDim    = "\x1b[2m"
	ansiRed    = "\x1b[31m"
	ansiYellow = "\x1b[33m"
	ansiCyan   = "\x1b[36m"
)

type prettyHandler struct {
	mu        sync.Mutex
	writer    io.Writer
	level     *slog.LevelVar
	attrs     []slog.Attr
	groups    []string
	addSource bool
	color     bool
}

func newPrettyHandler(w io.Writer, level *slog.LevelVar, addSource bool) slog.Handler {
	color := false
	if file, ok := w.(*os.File); ok {
		color = isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
	}
	return &prettyHandler{writer: w, level: level, addSource: addSource, color: color}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *prettyHandler) Handle(_ context.Context, record slog.Record) error {
	timestamp := record.Time
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	attrs := make([]slog.Attr, 0, record.NumAttrs()+len(h.attrs))
	attrs = append(attrs, h.attrs...)
	record.Attrs(func(attr slog.Attr) bool {
		attrs = append(attrs, attr)
		return true
	})

	var component, jobID string
	filtered := attrs[:0]
	for _, attr := range attrs {
		switch attr.Key {
		case FieldComponent:
			if component == "" {
				component = attr.Value.String()
			}
		case FieldJobID:
			if jobID == "" {
				jobID = attr.Value.String()
			}
			filtered = append(filtered, attr)
		default:
			filtered = append(filtered, attr)
		}
	}

	var buf bytes.Buffer
	buf.Grow(128 + len(filtered)*24)

	buf.WriteString(h.dim(timestamp.Format("15:04:05.000")))
	buf.WriteByte(' ')
	buf.WriteString(h.levelLabel(record.Level))
	if component != "" {
		buf.WriteByte(' ')
		buf.WriteString(h.dim("[" + component + "]"))
	}
	buf.WriteByte(' ')
	buf.WriteString(record.Message)

	for _, attr := range filtered {
		buf.WriteByte(' ')
		buf.WriteString(h.dim(attr.Key + "="))
		buf.WriteString(formatValue(attr.Value))
	}
	if h.addSource {
		if src := record.Source(); src != nil {
			fmt.Fprintf(&buf, " %s", h.dim(fmt.Sprintf("(%s:%d)", src.File, src.Line)))
		}
	}
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.writer.Write(buf.Bytes())
	return err
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := &prettyHandler{
		writer:    h.writer,
		level:     h.level,
		addSource: h.addSource,
		color:     h.color,
		groups:    h.groups,
	}
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return clone
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	clone := &prettyHandler{
		writer:    h.writer,
		level:     h.level,
		addSource: h.addSource,
		color:     h.color,
		attrs:     h.attrs,
	}
	clone.groups = append(append([]string{}, h.groups...), name)
	return clone
}

func (h *prettyHandler) levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return h.colorize("ERROR", ansiRed)
	case level >= slog.LevelWarn:
		return h.colorize("WARN ", ansiYellow)
	case level >= slog.LevelInfo:
		return h.colorize("INFO ", ansiCyan)
	default:
		return h.colorize("DEBUG", ansiDim)
	}
}

func (h *prettyHandler) colorize(text, code string) string {
	if !h.color {
		return text
	}
	return code + text + ansiReset
}

func (h *prettyHandler) dim(text string) string {
	return h.colorize(text, ansiDim)
}

func formatValue(v slog.Value) string {
	v = v.Resolve()
	text := v.String()
	if strings.ContainsAny(text, " \t") {
		return fmt.Sprintf("%q", text)
	}
	return text
}
