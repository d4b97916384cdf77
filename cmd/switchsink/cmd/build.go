package cmd

import (
	"fmt"
	"io"

	kitlog "github.com/go-kit/kit/log"
	"github.com/spf13/pflag"

	"github.com/Geun-Oh/switchsink/internal/config"
	"github.com/Geun-Oh/switchsink/internal/entry"
	"github.com/Geun-Oh/switchsink/internal/filter"
	"github.com/Geun-Oh/switchsink/internal/sink"
	"github.com/Geun-Oh/switchsink/internal/source"
)

// loadConfig reads the config file, if any, and lays explicitly set flags on
// top of it.
func loadConfig(fs *pflag.FlagSet, opts *options) (*config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.Load(opts.configPath); err != nil {
			return nil, err
		}
	}

	set := func(name string, apply func()) {
		if fs.Changed(name) {
			apply()
		}
	}
	set("output", func() { cfg.Output.Path = opts.outputPath })
	set("format", func() { cfg.Output.Format = opts.format })
	set("color", func() { cfg.Output.Color = opts.color })
	set("log-file", func() { cfg.Log.File = opts.logFile })
	set("verbose", func() { cfg.Log.Verbose = opts.verbose })
	set("debug", func() { cfg.Log.Debug = opts.debug })
	set("mode", func() { cfg.Filter.Mode = opts.mode })
	set("keyword", func() { cfg.Filter.Keywords = opts.keywords })
	set("exclude", func() { cfg.Filter.Exclude = opts.exclude })
	set("regex", func() { cfg.Filter.Regex = opts.regex })
	set("level", func() { cfg.Filter.Levels = opts.levels })
	set("before", func() { cfg.Filter.Before = opts.before })
	set("after", func() { cfg.Filter.After = opts.after })
	set("stats", func() { cfg.Stats = opts.stats })

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildFilters combines the include filters with the configured mode and
// always applies exclusions on top.
func buildFilters(fc config.FilterConfig) (*filter.Chain, error) {
	mode, err := filter.ParseMatchMode(fc.Mode)
	if err != nil {
		return nil, err
	}

	include := filter.NewChain(mode)
	for _, k := range fc.Keywords {
		include.Add(filter.NewKeywordFilter(k))
	}
	for _, p := range fc.Regex {
		f, err := filter.NewRegexFilter(p)
		if err != nil {
			return nil, err
		}
		include.Add(f)
	}
	if len(fc.Levels) > 0 {
		levels := make([]entry.Level, 0, len(fc.Levels))
		for _, name := range fc.Levels {
			l := entry.ParseLevel(name)
			if l == entry.LevelUnknown {
				return nil, fmt.Errorf("unknown level %q", name)
			}
			levels = append(levels, l)
		}
		include.Add(filter.NewLevelFilter(levels...))
	}

	chain := filter.NewChain(filter.MatchAll)
	if include.Len() > 0 {
		chain.Add(include)
	}
	if len(fc.Exclude) > 0 {
		chain.Add(filter.NewExcludeFilter(fc.Exclude...))
	}
	return chain, nil
}

// buildContext wraps chain with context lines, or returns nil when none are
// requested.
func buildContext(fc config.FilterConfig, chain *filter.Chain) *filter.ContextBuffer {
	if fc.Before == 0 && fc.After == 0 {
		return nil
	}
	return filter.NewContextBuffer(chain, fc.Before, fc.After)
}

// buildSource picks the input: a command after --, else --file, else stdin.
func buildSource(logger kitlog.Logger, opts *options, args []string, stdin io.Reader) (source.Source, error) {
	switch {
	case len(args) > 0 && opts.inputFile != "":
		return nil, fmt.Errorf("--file cannot be combined with a command")
	case len(args) > 0:
		return source.NewExecSource(logger, args[0], args[1:]), nil
	case opts.inputFile != "":
		return source.NewFileSource(logger, opts.inputFile, opts.follow), nil
	case opts.follow:
		return nil, fmt.Errorf("--follow requires --file")
	default:
		return source.NewReaderSource(logger, "stdin", "stdin", stdin), nil
	}
}

func buildSink(oc config.OutputConfig, w io.Writer) sink.Sink {
	if oc.Format == "json" {
		return sink.NewJSONSink(w)
	}
	return sink.NewTextSink(w, oc.Color)
}
