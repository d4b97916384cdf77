// Package sink defines the Sink interface for pipeline output.
//
// Sinks format entries onto an io.Writer they do not own. The command wires
// them to a *switchsink.Writer so that the file behind a sink can be rotated
// while the pipeline runs.
package sink

import (
	"github.com/Geun-Oh/switchsink/internal/entry"
)

// Sink receives filtered LogEntry values and writes them to an output destination.
type Sink interface {
	// Write outputs a single log entry.
	Write(e *entry.LogEntry) error

	// Flush ensures all buffered output is written.
	Flush() error

	// Close releases resources held by the sink. It never closes the
	// underlying writer.
	Close() error

	// Name returns a human-readable identifier for this sink.
	Name() string
}

type flusher interface {
	Flush() error
}

// flush flushes w when it supports it.
func flush(w any) error {
	if f, ok := w.(flusher); ok {
		return f.Flush()
	}
	return nil
}
