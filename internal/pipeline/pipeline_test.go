package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Geun-Oh/switchsink/internal/entry"
	"github.com/Geun-Oh/switchsink/internal/filter"
	"github.com/Geun-Oh/switchsink/internal/monitor"
	"github.com/Geun-Oh/switchsink/internal/sink"
	"github.com/Geun-Oh/switchsink/internal/switchsink"
)

// chanSource emits whatever the test sends on ch.
type chanSource struct {
	ch       chan entry.LogEntry
	startErr error
}

func newSliceSource(lines ...string) *chanSource {
	ch := make(chan entry.LogEntry, len(lines))
	for i, l := range lines {
		ch <- entry.LogEntry{Stream: "stdout", Message: l, Seq: uint64(i + 1)}
	}
	close(ch)
	return &chanSource{ch: ch}
}

func (s *chanSource) Name() string { return "test" }

func (s *chanSource) Start(ctx context.Context) (<-chan entry.LogEntry, error) {
	if s.startErr != nil {
		return nil, s.startErr
	}
	return s.ch, nil
}

// recordingSink captures messages and can fail on demand.
type recordingSink struct {
	messages []string
	levels   []entry.Level
	fail     []error // consumed one per Write
	flushed  bool
	closed   bool
}

func (s *recordingSink) Write(e *entry.LogEntry) error {
	if len(s.fail) > 0 {
		err := s.fail[0]
		s.fail = s.fail[1:]
		if err != nil {
			return err
		}
	}
	s.messages = append(s.messages, e.Message)
	s.levels = append(s.levels, e.Level)
	return nil
}

func (s *recordingSink) Flush() error {
	s.flushed = true
	return nil
}

func (s *recordingSink) Close() error {
	s.closed = true
	return nil
}

func (s *recordingSink) Name() string { return "recording" }

func TestRunRequiresSourceAndSinks(t *testing.T) {
	err := Run(context.Background(), &Config{Sinks: []sink.Sink{&recordingSink{}}})
	assert.ErrorContains(t, err, "source is required")

	err = Run(context.Background(), &Config{Source: newSliceSource()})
	assert.ErrorContains(t, err, "at least one sink")
}

func TestRunStartError(t *testing.T) {
	boom := errors.New("boom")
	err := Run(context.Background(), &Config{
		Source: &chanSource{startErr: boom},
		Sinks:  []sink.Sink{&recordingSink{}},
	})
	assert.ErrorIs(t, err, boom)
}

func TestRunFiltersAndDetectsLevels(t *testing.T) {
	a, b := &recordingSink{}, &recordingSink{}
	stats := monitor.NewStats()
	var summary bytes.Buffer

	err := Run(context.Background(), &Config{
		Source:  newSliceSource("INFO starting", "ERROR db down", "WARN db slow", "noise"),
		Filters: filter.NewChain(filter.MatchAny, filter.NewKeywordFilter("db")),
		Sinks:   []sink.Sink{a, b},
		Stats:   stats,
		Summary: &summary,
	})
	require.NoError(t, err)

	for _, s := range []*recordingSink{a, b} {
		assert.Equal(t, []string{"ERROR db down", "WARN db slow"}, s.messages)
		assert.Equal(t, []entry.Level{entry.LevelError, entry.LevelWarn}, s.levels)
		assert.True(t, s.flushed)
		assert.True(t, s.closed)
	}
	assert.Equal(t, uint64(4), stats.Total())
	assert.Equal(t, uint64(2), stats.Matched())
	assert.Contains(t, summary.String(), "Matched lines: 2 (50.0%)")
}

func TestRunEmitsContextLines(t *testing.T) {
	s := &recordingSink{}
	stats := monitor.NewStats()

	err := Run(context.Background(), &Config{
		Source: newSliceSource(
			"boot", "INFO conn open", "ERROR timeout", "INFO retry",
			"ERROR timeout again", "INFO recovered", "idle", "idle", "INFO bye",
		),
		Filters: filter.NewChain(filter.MatchAny, filter.NewKeywordFilter("never")),
		Context: filter.NewContextBuffer(filter.NewLevelFilter(entry.LevelError), 1, 1),
		Sinks:   []sink.Sink{s},
		Stats:   stats,
	})
	require.NoError(t, err)

	// The windows around the two errors overlap on "INFO retry", which is
	// written once.
	assert.Equal(t, []string{
		"INFO conn open", "ERROR timeout", "INFO retry",
		"ERROR timeout again", "INFO recovered",
	}, s.messages)
	assert.Equal(t, []entry.Level{
		entry.LevelInfo, entry.LevelError, entry.LevelInfo,
		entry.LevelError, entry.LevelInfo,
	}, s.levels)
	assert.Equal(t, uint64(9), stats.Total())
	assert.Equal(t, uint64(5), stats.Matched())
}

func TestRunRetriesClosedDestinationOnce(t *testing.T) {
	closed := fmt.Errorf("write out.log: %w", os.ErrClosed)
	s := &recordingSink{fail: []error{closed}}
	stats := monitor.NewStats()

	err := Run(context.Background(), &Config{
		Source: newSliceSource("one", "two"),
		Sinks:  []sink.Sink{s},
		Stats:  stats,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, s.messages)
	assert.Equal(t, uint64(1), stats.WriteErrors())
}

func TestRunAbortsOnWriteError(t *testing.T) {
	diskFull := errors.New("no space left on device")
	s := &recordingSink{fail: []error{nil, diskFull}}

	err := Run(context.Background(), &Config{
		Source: newSliceSource("one", "two", "three"),
		Sinks:  []sink.Sink{s},
	})
	assert.ErrorIs(t, err, diskFull)
	assert.Equal(t, []string{"one"}, s.messages)
	assert.True(t, s.closed)
}

func TestRunAbortsWhenRetryFails(t *testing.T) {
	s := &recordingSink{fail: []error{os.ErrClosed, os.ErrClosed}}

	err := Run(context.Background(), &Config{
		Source: newSliceSource("one"),
		Sinks:  []sink.Sink{s},
	})
	assert.ErrorIs(t, err, os.ErrClosed)
	assert.Empty(t, s.messages)
}

func TestRunFollowsSwitchedDestination(t *testing.T) {
	var first, second bytes.Buffer
	sw := switchsink.New()
	sw.Install(&first)

	src := &chanSource{ch: make(chan entry.LogEntry)}
	done := make(chan error, 1)
	go func() {
		done <- Run(context.Background(), &Config{
			Source: src,
			Sinks:  []sink.Sink{sink.NewJSONSink(sw)},
		})
	}()

	// An unbuffered send returns once the pipeline has received the entry,
	// which is after the previous entry was fully written. Entries received
	// while Install races the write may land in either buffer.
	src.ch <- entry.LogEntry{Stream: "stdout", Message: "to-first"}
	src.ch <- entry.LogEntry{Stream: "stdout", Message: "racing"}
	sw.Install(&second)
	src.ch <- entry.LogEntry{Stream: "stdout", Message: "to-second"}
	close(src.ch)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("pipeline did not finish")
	}

	assert.Contains(t, first.String(), `"message":"to-first"`)
	assert.NotContains(t, first.String(), "to-second")
	assert.Contains(t, second.String(), `"message":"to-second"`)
	assert.NotContains(t, second.String(), `"message":"to-first"`)
}
