package sink

import (
	"fmt"
	"io"
	"time"

	"github.com/Geun-Oh/switchsink/internal/entry"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

// TextSink writes one human-readable line per entry, optionally coloured by
// level.
type TextSink struct {
	w     io.Writer
	color bool
}

// NewTextSink creates a sink that writes to w.
func NewTextSink(w io.Writer, color bool) *TextSink {
	return &TextSink{w: w, color: color}
}

// Write emits the entry with a single Write call on the underlying writer.
func (s *TextSink) Write(e *entry.LogEntry) error {
	if !s.color {
		_, err := io.WriteString(s.w, e.Format()+"\n")
		return err
	}

	ts := e.Timestamp.Format(time.RFC3339)
	var line string
	if e.Level != entry.LevelUnknown {
		line = fmt.Sprintf("%s[%s]%s[%s]%s[%s]%s: %s\n",
			colorGray, ts, colorReset,
			e.Stream,
			levelColor(e.Level), e.Level, colorReset,
			e.Message,
		)
	} else {
		line = fmt.Sprintf("%s[%s]%s[%s]: %s\n", colorGray, ts, colorReset, e.Stream, e.Message)
	}
	_, err := io.WriteString(s.w, line)
	return err
}

func (s *TextSink) Flush() error { return flush(s.w) }

func (s *TextSink) Close() error { return s.Flush() }

func (s *TextSink) Name() string { return "text" }

func levelColor(l entry.Level) string {
	switch l {
	case entry.LevelError, entry.LevelFatal:
		return colorBold + colorRed
	case entry.LevelWarn:
		return colorYellow
	case entry.LevelDebug:
		return colorGray
	default:
		return colorCyan
	}
}
