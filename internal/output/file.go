// Package output installs files behind switchable writers and owns their
// lifetime.
package output

import (
	"fmt"
	"io"
	"os"
	"sync"

	kitlog "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"github.com/Geun-Oh/switchsink/internal/switchsink"
)

// Stdout is the path that selects the process's standard output.
const Stdout = "-"

// File keeps one output file installed in a switchsink.Writer. Writers hold
// the switch; File is the only thing that opens and closes the file.
type File struct {
	logger kitlog.Logger
	path   string
	sw     *switchsink.Writer

	mu sync.Mutex
	f  *os.File // nil for Stdout or once closed
}

// Open opens path for appending and installs it into sw. Stdout installs
// os.Stdout, which File never closes.
func Open(logger kitlog.Logger, path string, sw *switchsink.Writer) (*File, error) {
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}
	o := &File{
		logger: kitlog.With(logger, "path", path),
		path:   path,
		sw:     sw,
	}

	if path == Stdout {
		sw.Install(os.Stdout)
		return o, nil
	}

	f, err := openAppend(path)
	if err != nil {
		return nil, err
	}
	o.f = f
	sw.Install(f)
	level.Debug(o.logger).Log("event", "output_opened")

	return o, nil
}

// Path returns the configured path.
func (o *File) Path() string {
	return o.path
}

// Reopen opens the path again, installs the new file and closes the previous
// one. It is how an externally rotated file is picked up. Writes racing the
// swap may land in the old file or fail with os.ErrClosed.
func (o *File) Reopen() error {
	if o.path == Stdout {
		return nil
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.f == nil {
		return fmt.Errorf("output: reopen %s: %w", o.path, os.ErrClosed)
	}

	f, err := openAppend(o.path)
	if err != nil {
		return err
	}

	old := o.f
	o.f = f
	o.sw.Install(f)

	if err := old.Close(); err != nil {
		level.Warn(o.logger).Log("event", "close_previous_failed", "error", err)
	}
	level.Info(o.logger).Log("event", "output_reopened")

	return nil
}

// Close uninstalls the file, leaving sw discarding writes, then syncs and
// closes it.
func (o *File) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if w := o.installed(); w != nil && o.sw.Current() == w {
		o.sw.Install(nil)
	}

	if o.f == nil {
		return nil
	}
	f := o.f
	o.f = nil

	// Character devices such as /dev/null reject fsync.
	if err := f.Sync(); err != nil {
		level.Debug(o.logger).Log("event", "sync_failed", "error", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("output: close %s: %w", o.path, err)
	}
	return nil
}

// installed returns the writer this File put into the switch, or nil.
// Must be called with mu held.
func (o *File) installed() io.Writer {
	if o.path == Stdout {
		return os.Stdout
	}
	if o.f == nil {
		return nil
	}
	return o.f
}

func openAppend(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("output: open %s: %w", path, err)
	}
	return f, nil
}
