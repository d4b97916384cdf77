package sink

import (
	"encoding/json"
	"io"

	"github.com/Geun-Oh/switchsink/internal/entry"
)

// jsonEntry is the serialization format for JSON Lines output.
type jsonEntry struct {
	Timestamp string `json:"timestamp"`
	Stream    string `json:"stream"`
	Level     string `json:"level,omitempty"`
	Source    string `json:"source,omitempty"`
	Seq       uint64 `json:"seq,omitempty"`
	Message   string `json:"message"`
}

// JSONSink writes log entries as JSON Lines (one JSON object per line).
type JSONSink struct {
	w   io.Writer
	enc *json.Encoder
}

// NewJSONSink creates a JSON Lines sink writing to w. Each entry reaches w
// as one Write call.
func NewJSONSink(w io.Writer) *JSONSink {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &JSONSink{w: w, enc: enc}
}

func (s *JSONSink) Write(e *entry.LogEntry) error {
	je := jsonEntry{
		Timestamp: e.Timestamp.Format("2006-01-02T15:04:05.000Z07:00"),
		Stream:    e.Stream,
		Source:    e.Source,
		Seq:       e.Seq,
		Message:   e.Message,
	}
	if e.Level != entry.LevelUnknown {
		je.Level = e.Level.String()
	}
	return s.enc.Encode(je)
}

func (s *JSONSink) Flush() error { return flush(s.w) }

func (s *JSONSink) Close() error { return s.Flush() }

func (s *JSONSink) Name() string { return "json" }
