package filter

import (
	"fmt"

	"github.com/Geun-Oh/switchsink/internal/entry"
)

// ContextBuffer provides grep-like --before / --after context lines.
// It wraps a primary filter and buffers entries to emit context around matches.
// Every entry is emitted at most once, even when context windows overlap.
type ContextBuffer struct {
	filter     Filter
	beforeN    int
	afterN     int
	ring       []entry.LogEntry
	seen       int // entries processed so far
	emitted    int // entries [0, emitted) were emitted or are out of reach
	afterCount int // remaining "after" lines to emit
}

// NewContextBuffer wraps f. Negative counts are treated as zero.
func NewContextBuffer(f Filter, before, after int) *ContextBuffer {
	before = max(before, 0)
	after = max(after, 0)
	return &ContextBuffer{
		filter:  f,
		beforeN: before,
		afterN:  after,
		ring:    make([]entry.LogEntry, before+1),
	}
}

// Process evaluates an entry and returns the entries to emit, in input order.
// It returns nil when nothing should be emitted yet.
func (cb *ContextBuffer) Process(e *entry.LogEntry) []entry.LogEntry {
	isMatch := cb.filter.Match(e)

	cb.ring[cb.seen%len(cb.ring)] = *e
	cb.seen++

	if isMatch {
		start := max(cb.seen-cb.beforeN-1, cb.emitted)
		result := make([]entry.LogEntry, 0, cb.seen-start)
		for i := start; i < cb.seen; i++ {
			result = append(result, cb.ring[i%len(cb.ring)])
		}
		cb.emitted = cb.seen
		cb.afterCount = cb.afterN
		return result
	}

	if cb.afterCount > 0 {
		cb.afterCount--
		cb.emitted = cb.seen
		return []entry.LogEntry{*e}
	}
	return nil
}

func (cb *ContextBuffer) Name() string {
	return fmt.Sprintf("context(-B%d -A%d)[%s]", cb.beforeN, cb.afterN, cb.filter.Name())
}
