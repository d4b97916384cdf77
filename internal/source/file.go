package source

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	kitlog "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"github.com/Geun-Oh/switchsink/internal/entry"
)

// FileSource reads log lines from a file, optionally following new writes
// the way tail -f does.
type FileSource struct {
	logger   kitlog.Logger
	path     string
	follow   bool
	interval time.Duration
	seq      atomic.Uint64
}

// NewFileSource creates a source that reads from a file.
// If follow is true, it keeps polling for appended lines until ctx is done.
func NewFileSource(logger kitlog.Logger, path string, follow bool) *FileSource {
	return &FileSource{
		logger:   orNop(logger),
		path:     path,
		follow:   follow,
		interval: 100 * time.Millisecond,
	}
}

// Name returns the source identifier.
func (s *FileSource) Name() string {
	return fmt.Sprintf("file:%s", s.path)
}

// Start opens the file and returns a channel of log entries.
func (s *FileSource) Start(ctx context.Context) (<-chan entry.LogEntry, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open file %s: %w", s.path, err)
	}

	ch := make(chan entry.LogEntry, chanSize)

	go func() {
		defer close(ch)
		defer f.Close()

		ls := lineScanner{source: s.Name(), stream: "file", seq: &s.seq}
		for {
			// A fresh scanner per pass resumes from the current file offset.
			if err := ls.run(ctx, f, ch); err != nil {
				if ctx.Err() == nil {
					level.Warn(s.logger).Log("event", "read_failed", "source", s.Name(), "error", err)
				}
				return
			}

			if !s.follow {
				return
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(s.interval):
			}
		}
	}()

	return ch, nil
}
