// Package pipeline orchestrates Source → Filter → Sink processing.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	kitlog "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"github.com/Geun-Oh/switchsink/internal/entry"
	"github.com/Geun-Oh/switchsink/internal/filter"
	"github.com/Geun-Oh/switchsink/internal/monitor"
	"github.com/Geun-Oh/switchsink/internal/sink"
	"github.com/Geun-Oh/switchsink/internal/source"
)

// Config holds pipeline configuration.
type Config struct {
	Source  source.Source
	Filters *filter.Chain         // optional
	Context *filter.ContextBuffer // optional; replaces Filters when set
	Sinks   []sink.Sink
	Stats   *monitor.Stats // optional
	Logger  kitlog.Logger  // optional
	Summary io.Writer      // receives the stats summary when set
}

// Run reads from the source, filters, and writes to every sink. It blocks
// until the source is exhausted or ctx is cancelled, then flushes and closes
// the sinks.
func Run(ctx context.Context, cfg *Config) error {
	if cfg.Source == nil {
		return fmt.Errorf("pipeline: source is required")
	}
	if len(cfg.Sinks) == 0 {
		return fmt.Errorf("pipeline: at least one sink is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}
	logger = kitlog.With(logger, "component", "pipeline", "source", cfg.Source.Name())

	stats := cfg.Stats
	if stats == nil {
		stats = monitor.NewStats()
	}

	ch, err := cfg.Source.Start(ctx)
	if err != nil {
		return fmt.Errorf("pipeline: start source: %w", err)
	}
	level.Debug(logger).Log("event", "started", "sinks", len(cfg.Sinks))

	runErr := consume(ch, cfg, stats, logger)
	if runErr != nil {
		// Unblock the source so its goroutines can exit.
		go func() {
			for range ch {
			}
		}()
	}

	for _, s := range cfg.Sinks {
		if err := s.Flush(); err != nil {
			level.Warn(logger).Log("event", "flush_failed", "sink", s.Name(), "error", err)
		}
		if err := s.Close(); err != nil {
			level.Warn(logger).Log("event", "close_failed", "sink", s.Name(), "error", err)
		}
	}

	level.Info(logger).Log("event", "finished", "total", stats.Total(), "matched", stats.Matched(), "write_errors", stats.WriteErrors())

	if cfg.Summary != nil {
		fmt.Fprintf(cfg.Summary, "\n%s\n", stats.Summary())
	}

	return runErr
}

func consume(ch <-chan entry.LogEntry, cfg *Config, stats *monitor.Stats, logger kitlog.Logger) error {
	for e := range ch {
		stats.RecordLine()

		if e.Level == entry.LevelUnknown {
			e.Level = filter.DetectLevel(e.Message)
		}

		if cfg.Context != nil {
			for _, ce := range cfg.Context.Process(&e) {
				if err := emit(&ce, cfg.Sinks, stats, logger); err != nil {
					return err
				}
			}
			continue
		}

		if cfg.Filters != nil && !cfg.Filters.Match(&e) {
			continue
		}
		if err := emit(&e, cfg.Sinks, stats, logger); err != nil {
			return err
		}
	}
	return nil
}

func emit(e *entry.LogEntry, sinks []sink.Sink, stats *monitor.Stats, logger kitlog.Logger) error {
	stats.RecordMatch()
	for _, s := range sinks {
		if err := write(s, e, stats, logger); err != nil {
			return fmt.Errorf("pipeline: write to %s: %w", s.Name(), err)
		}
	}
	return nil
}

// write retries once when the sink's destination was closed underneath it,
// which happens when an output file is reopened mid-write.
func write(s sink.Sink, e *entry.LogEntry, stats *monitor.Stats, logger kitlog.Logger) error {
	err := s.Write(e)
	if err == nil {
		return nil
	}
	stats.RecordWriteError()
	if !errors.Is(err, os.ErrClosed) {
		return err
	}

	level.Debug(logger).Log("event", "retry_write", "sink", s.Name(), "seq", e.Seq, "error", err)
	if err := s.Write(e); err != nil {
		stats.RecordWriteError()
		return err
	}
	return nil
}
