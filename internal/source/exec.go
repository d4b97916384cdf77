package source

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"sync/atomic"

	kitlog "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"github.com/Geun-Oh/switchsink/internal/entry"
)

// ExecSource executes a command and streams its stdout/stderr as LogEntry values.
type ExecSource struct {
	logger  kitlog.Logger
	command string
	args    []string
	seq     atomic.Uint64
}

// NewExecSource creates a source that runs the given command with arguments.
func NewExecSource(logger kitlog.Logger, command string, args []string) *ExecSource {
	return &ExecSource{
		logger:  orNop(logger),
		command: command,
		args:    args,
	}
}

// Name returns the source identifier.
func (s *ExecSource) Name() string {
	return fmt.Sprintf("exec:%s", s.command)
}

// Start executes the command and returns a channel of log entries.
// The channel is closed when the command exits or ctx is cancelled.
func (s *ExecSource) Start(ctx context.Context) (<-chan entry.LogEntry, error) {
	cmd := exec.CommandContext(ctx, s.command, s.args...)

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}

	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start command: %w", err)
	}

	logger := kitlog.With(s.logger, "source", s.Name(), "pid", cmd.Process.Pid)
	level.Debug(logger).Log("event", "command_started")

	ch := make(chan entry.LogEntry, chanSize)
	var wg sync.WaitGroup
	wg.Add(2)

	go s.readStream(ctx, logger, "stdout", stdoutPipe, ch, &wg)
	go s.readStream(ctx, logger, "stderr", stderrPipe, ch, &wg)

	go func() {
		wg.Wait()
		if err := cmd.Wait(); err != nil && ctx.Err() == nil {
			level.Warn(logger).Log("event", "command_failed", "error", err)
		} else {
			level.Debug(logger).Log("event", "command_exited")
		}
		close(ch)
	}()

	return ch, nil
}

func (s *ExecSource) readStream(ctx context.Context, logger kitlog.Logger, stream string, r io.Reader, ch chan<- entry.LogEntry, wg *sync.WaitGroup) {
	defer wg.Done()

	ls := lineScanner{source: s.Name(), stream: stream, seq: &s.seq}
	if err := ls.run(ctx, r, ch); err != nil && ctx.Err() == nil {
		level.Warn(logger).Log("event", "read_failed", "stream", stream, "error", err)
	}
	// Drain so the child never blocks on a full pipe after cancellation.
	_, _ = io.Copy(io.Discard, r)
}
