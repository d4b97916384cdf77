// Package switchsink provides a stable io.Writer whose destination can be
// replaced at runtime.
package switchsink

import (
	"errors"
	"io"
	"sync/atomic"
)

// ErrRange is returned by WriteRange when off and n do not describe a valid
// window of p.
var ErrRange = errors.New("switchsink: write range out of bounds")

// destination boxes the installed writer so that writers of different
// concrete types can share one atomic cell.
type destination struct {
	w io.Writer
}

// Writer forwards writes to whatever destination is currently installed and
// drops them when there is none. It never owns the destination: Flush and
// Close are no-ops, and closing the destination is up to whoever installed it.
//
// The zero value is ready to use and has no destination. All methods are safe
// for concurrent use.
type Writer struct {
	dst atomic.Pointer[destination]
}

var (
	_ io.WriteCloser  = (*Writer)(nil)
	_ io.ByteWriter   = (*Writer)(nil)
	_ io.StringWriter = (*Writer)(nil)
)

// New returns a Writer with no destination installed.
func New() *Writer {
	return &Writer{}
}

// Install makes w the destination for subsequent writes. Passing nil clears
// it. Writes already in flight may still complete against the previous
// destination.
func (s *Writer) Install(w io.Writer) {
	if w == nil {
		s.dst.Store(nil)
		return
	}
	s.dst.Store(&destination{w: w})
}

// Current returns the installed destination, or nil.
func (s *Writer) Current() io.Writer {
	if d := s.dst.Load(); d != nil {
		return d.w
	}
	return nil
}

// Write forwards p to the destination and returns its result unchanged.
// Without a destination the data is discarded and len(p) is reported.
func (s *Writer) Write(p []byte) (int, error) {
	d := s.dst.Load()
	if d == nil {
		return len(p), nil
	}
	return d.w.Write(p)
}

// WriteRange forwards p[off:off+n].
func (s *Writer) WriteRange(p []byte, off, n int) (int, error) {
	d := s.dst.Load()
	if d == nil {
		return max(n, 0), nil
	}
	if off < 0 || n < 0 || off > len(p) || n > len(p)-off {
		return 0, ErrRange
	}
	return d.w.Write(p[off : off+n])
}

// WriteByte forwards a single byte, using the destination's io.ByteWriter
// when it has one.
func (s *Writer) WriteByte(c byte) error {
	d := s.dst.Load()
	if d == nil {
		return nil
	}
	if bw, ok := d.w.(io.ByteWriter); ok {
		return bw.WriteByte(c)
	}
	n, err := d.w.Write([]byte{c})
	if err == nil && n != 1 {
		return io.ErrShortWrite
	}
	return err
}

// WriteString forwards str, using the destination's io.StringWriter when it
// has one.
func (s *Writer) WriteString(str string) (int, error) {
	d := s.dst.Load()
	if d == nil {
		return len(str), nil
	}
	if sw, ok := d.w.(io.StringWriter); ok {
		return sw.WriteString(str)
	}
	return d.w.Write([]byte(str))
}

// Flush does nothing. The destination is never flushed on the caller's behalf.
func (s *Writer) Flush() error { return nil }

// Close does nothing. The destination stays open and installed.
func (s *Writer) Close() error { return nil }
