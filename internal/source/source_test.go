package source

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Geun-Oh/switchsink/internal/entry"
)

func collect(t *testing.T, ch <-chan entry.LogEntry) []entry.LogEntry {
	t.Helper()

	var out []entry.LogEntry
	timeout := time.After(5 * time.Second)
	for {
		select {
		case e, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, e)
		case <-timeout:
			t.Fatal("source did not close its channel")
		}
	}
}

func messages(entries []entry.LogEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Message)
	}
	return out
}

func TestReaderSource(t *testing.T) {
	src := NewReaderSource(nil, "stdin", "stdin", strings.NewReader("one\ntwo\nthree"))
	ch, err := src.Start(context.Background())
	require.NoError(t, err)

	entries := collect(t, ch)
	assert.Equal(t, []string{"one", "two", "three"}, messages(entries))
	for i, e := range entries {
		assert.Equal(t, "stdin", e.Stream)
		assert.Equal(t, "stdin", e.Source)
		assert.Equal(t, uint64(i+1), e.Seq)
	}
}

func TestReaderSourceCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer w.Close()

	src := NewReaderSource(nil, "pipe", "stdin", r)
	ch, err := src.Start(ctx)
	require.NoError(t, err)

	_, err = w.WriteString("first\n")
	require.NoError(t, err)
	assert.Equal(t, "first", (<-ch).Message)

	cancel()
	require.NoError(t, r.Close())
	collect(t, ch)
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, os.WriteFile(path, []byte("a\nb\n"), 0o644))

	src := NewFileSource(nil, path, false)
	assert.Equal(t, "file:"+path, src.Name())

	ch, err := src.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, messages(collect(t, ch)))
}

func TestFileSourceMissing(t *testing.T) {
	_, err := NewFileSource(nil, filepath.Join(t.TempDir(), "nope"), false).Start(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFileSourceFollow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, os.WriteFile(path, []byte("initial\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := NewFileSource(nil, path, true)
	src.interval = 10 * time.Millisecond

	ch, err := src.Start(ctx)
	require.NoError(t, err)
	assert.Equal(t, "initial", (<-ch).Message)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("appended\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	select {
	case e := <-ch:
		assert.Equal(t, "appended", e.Message)
	case <-time.After(5 * time.Second):
		t.Fatal("appended line was not picked up")
	}

	cancel()
	collect(t, ch)
}

func TestExecSource(t *testing.T) {
	src := NewExecSource(nil, "sh", []string{"-c", "echo out; echo err >&2"})
	assert.Equal(t, "exec:sh", src.Name())

	ch, err := src.Start(context.Background())
	require.NoError(t, err)

	entries := collect(t, ch)
	require.Len(t, entries, 2)

	streams := map[string]string{}
	var seqs []int
	for _, e := range entries {
		streams[e.Stream] = e.Message
		seqs = append(seqs, int(e.Seq))
	}
	sort.Ints(seqs)
	assert.Equal(t, map[string]string{"stdout": "out", "stderr": "err"}, streams)
	assert.Equal(t, []int{1, 2}, seqs)
}

func TestExecSourceMissingCommand(t *testing.T) {
	_, err := NewExecSource(nil, "definitely-not-a-real-command-xyz", nil).Start(context.Background())
	assert.Error(t, err)
}
