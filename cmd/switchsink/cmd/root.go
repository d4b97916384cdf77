package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	kitlog "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/oklog/run"
	"github.com/spf13/cobra"

	"github.com/Geun-Oh/switchsink/internal/buffer"
	"github.com/Geun-Oh/switchsink/internal/monitor"
	"github.com/Geun-Oh/switchsink/internal/output"
	"github.com/Geun-Oh/switchsink/internal/pipeline"
	"github.com/Geun-Oh/switchsink/internal/sink"
	"github.com/Geun-Oh/switchsink/internal/switchsink"
)

const recentDiagnostics = 64

type options struct {
	configPath string
	inputFile  string
	follow     bool

	outputPath string
	format     string
	color      bool

	logFile string
	verbose bool
	debug   bool

	mode     string
	keywords []string
	exclude  []string
	regex    []string
	levels   []string
	before   int
	after    int
	stats    bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "switchsink [flags] [-- command [args...]]",
		Short: "Filter log lines from a command, file or stdin into a rotatable output",
		Long: `switchsink reads log lines from a command, a file or stdin, filters them
and writes the survivors to an output that can be rotated without restarting.

Send SIGHUP to reopen the output file and the diagnostic log file, e.g. after
logrotate has moved them away.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd, opts, args)
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&opts.configPath, "config", "c", "", "YAML config file; flags override its values")
	fs.StringVarP(&opts.inputFile, "file", "f", "", "read from a file instead of stdin")
	fs.BoolVarP(&opts.follow, "follow", "F", false, "keep reading lines appended to --file")
	fs.StringVarP(&opts.outputPath, "output", "o", output.Stdout, "output path, - for stdout")
	fs.StringVar(&opts.format, "format", "text", "output format: text or json")
	fs.BoolVar(&opts.color, "color", false, "colour text output by level")
	fs.StringVar(&opts.logFile, "log-file", "", "write diagnostics to this file")
	fs.BoolVarP(&opts.verbose, "verbose", "v", false, "write diagnostics to stderr")
	fs.BoolVar(&opts.debug, "debug", false, "include debug diagnostics")
	fs.StringVar(&opts.mode, "mode", "any", "combine include filters with any or all")
	fs.StringSliceVarP(&opts.keywords, "keyword", "k", nil, "keep lines containing keyword")
	fs.StringSliceVarP(&opts.exclude, "exclude", "x", nil, "drop lines containing pattern")
	fs.StringSliceVarP(&opts.regex, "regex", "r", nil, "keep lines matching regular expression")
	fs.StringSliceVarP(&opts.levels, "level", "l", nil, "keep lines at these levels")
	fs.IntVarP(&opts.before, "before", "B", 0, "also write this many lines before each match")
	fs.IntVarP(&opts.after, "after", "A", 0, "also write this many lines after each match")
	fs.BoolVar(&opts.stats, "stats", false, "print a summary to stderr when done")

	return cmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func execute(cmd *cobra.Command, opts *options, args []string) (err error) {
	// Diagnostics are written through their own switch. Until a destination
	// is installed below, everything logged is discarded.
	diag := switchsink.New()
	logger := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(diag))
	if opts.configPath != "" {
		logger.Log("event", "loading_config", "path", opts.configPath)
	}

	cfg, err := loadConfig(cmd.Flags(), opts)
	if err != nil {
		return err
	}

	allow := level.AllowInfo()
	if cfg.Log.Debug {
		allow = level.AllowDebug()
	}
	logger = level.NewFilter(logger, allow)
	logger = kitlog.With(logger, "ts", kitlog.DefaultTimestampUTC, "caller", kitlog.DefaultCaller)

	var (
		logFile *output.File
		recent  *buffer.Ring
	)
	switch {
	case cfg.Log.File != "":
		if logFile, err = output.Open(logger, cfg.Log.File, diag); err != nil {
			return err
		}
		defer logFile.Close()
	case cfg.Log.Verbose || cfg.Log.Debug:
		diag.Install(os.Stderr)
		defer diag.Install(nil)
	default:
		// Keep quiet, but hold on to recent diagnostics in case we fail.
		recent = buffer.NewRing(recentDiagnostics)
		diag.Install(recent)
		defer diag.Install(nil)
	}

	defer func() {
		if err == nil {
			return
		}
		level.Error(logger).Log("event", "error", "error", err, "msg", "exiting with error")
		if recent != nil {
			dumpRecent(cmd.ErrOrStderr(), recent)
		}
	}()

	out := switchsink.New()
	outFile, err := output.Open(logger, cfg.Output.Path, out)
	if err != nil {
		return err
	}
	defer outFile.Close()

	filters, err := buildFilters(cfg.Filter)
	if err != nil {
		return err
	}

	src, err := buildSource(logger, opts, args, cmd.InOrStdin())
	if err != nil {
		return err
	}

	var summary io.Writer
	if cfg.Stats {
		summary = cmd.ErrOrStderr()
	}

	around := buildContext(cfg.Filter, filters)

	level.Info(logger).Log("event", "starting", "source", src.Name(), "output", cfg.Output.Path, "format", cfg.Output.Format, "filters", filters.Name(), "before", cfg.Filter.Before, "after", cfg.Filter.After)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	var g run.Group

	g.Add(
		func() error {
			return pipeline.Run(ctx, &pipeline.Config{
				Source:  src,
				Filters: filters,
				Context: around,
				Sinks:   []sink.Sink{buildSink(cfg.Output, out)},
				Stats:   monitor.NewStats(),
				Logger:  logger,
				Summary: summary,
			})
		},
		func(error) {
			cancel()
		},
	)

	{
		logger := kitlog.With(logger, "component", "signal_handler")

		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
		done := make(chan struct{})

		g.Add(
			func() error {
				defer signal.Stop(sigc)
				for {
					select {
					case <-done:
						return nil
					case sig := <-sigc:
						if sig == syscall.SIGHUP {
							reopen(logger, outFile, logFile)
							continue
						}
						level.Info(logger).Log("event", "requesting_shutdown", "signal", sig)
						return nil
					}
				}
			},
			func(error) {
				close(done)
			},
		)
	}

	return g.Run()
}

// dumpRecent replays the retained diagnostics, noting how many were lost.
func dumpRecent(w io.Writer, recent *buffer.Ring) {
	if n := recent.Dropped(); n > 0 {
		fmt.Fprintf(w, "%d earlier diagnostics dropped\n", n)
	}
	_, _ = recent.WriteTo(w)
}

// reopen swaps fresh file handles into the output and diagnostic switches.
func reopen(logger kitlog.Logger, files ...*output.File) {
	for _, f := range files {
		if f == nil {
			continue
		}
		if err := f.Reopen(); err != nil {
			level.Error(logger).Log("event", "reopen_failed", "path", f.Path(), "error", err)
		}
	}
}
