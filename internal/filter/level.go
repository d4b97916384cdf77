package filter

import (
	"regexp"
	"sort"
	"strings"

	"github.com/Geun-Oh/switchsink/internal/entry"
)

// levelRegex finds level markers such as [ERROR], level=warn or "INFO:".
var levelRegex = regexp.MustCompile(`(?i)\b(DEBUG|TRACE|INFO|WARN(?:ING)?|ERR(?:OR)?|FATAL|PANIC|CRITICAL)\b`)

// DetectLevel returns the first level marker found in msg, or LevelUnknown.
func DetectLevel(msg string) entry.Level {
	return entry.ParseLevel(levelRegex.FindString(msg))
}

// LevelFilter passes entries whose level is in the allowed set.
type LevelFilter struct {
	allowed map[entry.Level]bool
}

// NewLevelFilter creates a filter that passes entries at any of the given levels.
func NewLevelFilter(levels ...entry.Level) *LevelFilter {
	allowed := make(map[entry.Level]bool, len(levels))
	for _, l := range levels {
		allowed[l] = true
	}
	return &LevelFilter{allowed: allowed}
}

// Match detects and caches the entry's level when it is not yet known.
func (f *LevelFilter) Match(e *entry.LogEntry) bool {
	if e.Level == entry.LevelUnknown {
		e.Level = DetectLevel(e.Message)
	}
	return f.allowed[e.Level]
}

func (f *LevelFilter) Name() string {
	levels := make([]entry.Level, 0, len(f.allowed))
	for l := range f.allowed {
		levels = append(levels, l)
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i] < levels[j] })

	names := make([]string, len(levels))
	for i, l := range levels {
		names[i] = l.String()
	}
	return "level:" + strings.Join(names, ",")
}
