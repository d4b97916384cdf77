// Package entry defines the LogEntry type carried from sources to sinks.
package entry

import (
	"fmt"
	"strings"
	"time"
)

// Level represents log severity levels.
type Level int

const (
	LevelUnknown Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var levelNames = [...]string{
	LevelUnknown: "UNKNOWN",
	LevelDebug:   "DEBUG",
	LevelInfo:    "INFO",
	LevelWarn:    "WARN",
	LevelError:   "ERROR",
	LevelFatal:   "FATAL",
}

// String returns the upper-case name of the level.
func (l Level) String() string {
	if l < 0 || int(l) >= len(levelNames) {
		return levelNames[LevelUnknown]
	}
	return levelNames[l]
}

// ParseLevel converts a level name to a Level, ignoring case. Common aliases
// such as ERR, WARNING, TRACE and PANIC are accepted.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG", "TRACE":
		return LevelDebug
	case "INFO":
		return LevelInfo
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR", "ERR":
		return LevelError
	case "FATAL", "PANIC", "CRITICAL":
		return LevelFatal
	default:
		return LevelUnknown
	}
}

// LogEntry is one line of input as it moves through the pipeline.
type LogEntry struct {
	Timestamp time.Time
	Stream    string // stdout, stderr, file, stdin
	Level     Level
	Source    string // source identifier, e.g. "exec:make"
	Message   string
	Seq       uint64 // monotonic per source
}

// Format renders the entry as a single plain-text line without a trailing
// newline.
func (e *LogEntry) Format() string {
	ts := e.Timestamp.Format(time.RFC3339)
	if e.Level != LevelUnknown {
		return fmt.Sprintf("[%s][%s][%s]: %s", ts, e.Stream, e.Level, e.Message)
	}
	return fmt.Sprintf("[%s][%s]: %s", ts, e.Stream, e.Message)
}
