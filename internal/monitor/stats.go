// Package monitor collects pipeline statistics.
package monitor

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Stats collects pipeline processing metrics in a lock-free manner.
type Stats struct {
	totalLines   atomic.Uint64
	matchedLines atomic.Uint64
	writeErrors  atomic.Uint64
	startTime    time.Time
	now          func() time.Time
}

// NewStats creates a new statistics collector.
func NewStats() *Stats {
	return &Stats{startTime: time.Now(), now: time.Now}
}

// RecordLine counts an entry read from the source.
func (s *Stats) RecordLine() { s.totalLines.Add(1) }

// RecordMatch counts an entry that passed the filters.
func (s *Stats) RecordMatch() { s.matchedLines.Add(1) }

// RecordWriteError counts a failed sink write, including ones later retried.
func (s *Stats) RecordWriteError() { s.writeErrors.Add(1) }

func (s *Stats) Total() uint64 { return s.totalLines.Load() }
func (s *Stats) Matched() uint64 { return s.matchedLines.Load() }
func (s *Stats) WriteErrors() uint64 { return s.writeErrors.Load() }

// Elapsed returns the time since monitoring started.
func (s *Stats) Elapsed() time.Duration {
	return s.now().Sub(s.startTime)
}

// Rate returns processed lines per second.
func (s *Stats) Rate() float64 {
	elapsed := s.Elapsed().Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(s.Total()) / elapsed
}

// Summary returns a formatted summary block.
func (s *Stats) Summary() string {
	total := s.Total()
	matched := s.Matched()

	matchRate := float64(0)
	if total > 0 {
		matchRate = float64(matched) / float64(total) * 100
	}

	return fmt.Sprintf(
		"── Summary ──\n"+
			"  Total lines:   %d\n"+
			"  Matched lines: %d (%.1f%%)\n"+
			"  Write errors:  %d\n"+
			"  Duration:      %s\n"+
			"  Throughput:    %.0f lines/s\n"+
			"─────────────",
		total, matched, matchRate,
		s.WriteErrors(),
		s.Elapsed().Round(time.Millisecond),
		s.Rate(),
	)
}
