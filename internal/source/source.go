// Package source defines the Source interface and the inputs a pipeline
// reads from.
package source

import (
	"bufio"
	"context"
	"io"
	"sync/atomic"
	"time"

	kitlog "github.com/go-kit/kit/log"

	"github.com/Geun-Oh/switchsink/internal/entry"
)

// Source reads log data from an input and emits LogEntry values on a channel.
// Implementations must close the returned channel when the source is exhausted
// or the context is cancelled.
type Source interface {
	// Start begins reading from the source.
	Start(ctx context.Context) (<-chan entry.LogEntry, error)

	// Name returns a human-readable identifier for this source.
	Name() string
}

const (
	chanSize    = 256
	maxLineSize = 1024 * 1024
)

// lineScanner emits one entry per line read from r. It returns when r is
// exhausted or ctx is done, and reports the scanner error, if any.
type lineScanner struct {
	source string
	stream string
	seq    *atomic.Uint64
}

func (ls lineScanner) run(ctx context.Context, r io.Reader, ch chan<- entry.LogEntry) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		e := entry.LogEntry{
			Timestamp: time.Now(),
			Stream:    ls.stream,
			Source:    ls.source,
			Message:   scanner.Text(),
			Seq:       ls.seq.Add(1),
		}
		select {
		case ch <- e:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return scanner.Err()
}

func orNop(logger kitlog.Logger) kitlog.Logger {
	if logger == nil {
		return kitlog.NewNopLogger()
	}
	return logger
}
