package source

import (
	"context"
	"io"
	"sync/atomic"

	kitlog "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"github.com/Geun-Oh/switchsink/internal/entry"
)

// ReaderSource reads lines from an arbitrary reader, typically os.Stdin.
type ReaderSource struct {
	logger kitlog.Logger
	name   string
	stream string
	r      io.Reader
	seq    atomic.Uint64
}

// NewReaderSource creates a source reading from r. stream labels every entry
// it produces.
func NewReaderSource(logger kitlog.Logger, name, stream string, r io.Reader) *ReaderSource {
	return &ReaderSource{logger: orNop(logger), name: name, stream: stream, r: r}
}

// Name returns the source identifier.
func (s *ReaderSource) Name() string {
	return s.name
}

// Start reads from the underlying reader until EOF or ctx is cancelled.
func (s *ReaderSource) Start(ctx context.Context) (<-chan entry.LogEntry, error) {
	ch := make(chan entry.LogEntry, chanSize)

	go func() {
		defer close(ch)
		ls := lineScanner{source: s.name, stream: s.stream, seq: &s.seq}
		if err := ls.run(ctx, s.r, ch); err != nil && ctx.Err() == nil {
			level.Warn(s.logger).Log("event", "read_failed", "source", s.name, "error", err)
		}
	}()

	return ch, nil
}
