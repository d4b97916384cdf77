// Package buffer keeps recent output in memory.
package buffer

import (
	"bytes"
	"io"
	"sync"
)

// Ring is an io.Writer that retains the last lines written to it.
// When full, the oldest lines are silently evicted. A trailing line without
// a newline is held until it is completed.
// All operations are goroutine-safe.
type Ring struct {
	mu       sync.Mutex
	lines    [][]byte
	head     int // next write position
	count    int
	capacity int
	partial  []byte
	dropped  uint64
}

// NewRing creates a ring that keeps up to capacity lines.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = 64
	}
	return &Ring{
		lines:    make([][]byte, capacity),
		capacity: capacity,
	}
}

// Write splits p into lines and stores them. It never fails.
func (r *Ring) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rest := p
	for {
		i := bytes.IndexByte(rest, '\n')
		if i < 0 {
			r.partial = append(r.partial, rest...)
			return len(p), nil
		}
		line := make([]byte, 0, len(r.partial)+i)
		line = append(line, r.partial...)
		line = append(line, rest[:i]...)
		r.partial = r.partial[:0]
		r.push(line)
		rest = rest[i+1:]
	}
}

// push stores a complete line. Must be called with mu held.
func (r *Ring) push(line []byte) {
	r.lines[r.head] = line
	r.head = (r.head + 1) % r.capacity
	if r.count < r.capacity {
		r.count++
	} else {
		r.dropped++
	}
}

// Snapshot returns the retained lines, oldest first, followed by any
// incomplete trailing line.
func (r *Ring) Snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, 0, r.count+1)
	start := (r.head - r.count + r.capacity) % r.capacity
	for i := 0; i < r.count; i++ {
		out = append(out, string(r.lines[(start+i)%r.capacity]))
	}
	if len(r.partial) > 0 {
		out = append(out, string(r.partial))
	}
	return out
}

// WriteTo writes the snapshot to w, one line each.
func (r *Ring) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, line := range r.Snapshot() {
		n, err := io.WriteString(w, line+"\n")
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Len returns the number of complete lines held.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Dropped returns the number of evicted lines.
func (r *Ring) Dropped() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}
