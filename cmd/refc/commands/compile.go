package commands

import (
	"context"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"

	"github.com/erraggy/refc"
	"github.com/erraggy/refc/bundler"
	"github.com/erraggy/refc/compiler"
	"github.com/erraggy/refc/internal/cliutil"
	"github.com/erraggy/refc/internal/config"
	"github.com/erraggy/refc/internal/logging"
	"github.com/erraggy/refc/internal/watch"
)

// compileOptions is the merged view of the config file, the environment, and
// the command line.
type compileOptions struct {
	InputFile   string
	OutputFile  string
	RefDirs     []string
	Verbose     bool
	Test        bool
	Watch       bool
	KeepMerged  bool
	LogFormat   logging.Format
	Indent      int
	MaxRefDepth int
	Debounce    time.Duration
}

// resolveOptions loads settings and applies every flag the user set.
func resolveOptions(fs *pflag.FlagSet, flags *RootFlags) (*compileOptions, error) {
	settings, _, err := config.Load(flags.ConfigFile)
	if err != nil {
		return nil, err
	}

	opts := &compileOptions{
		InputFile:   flags.InputFile,
		OutputFile:  flags.OutputFile,
		RefDirs:     settings.RefDirs,
		Verbose:     settings.Verbose,
		Test:        flags.Test,
		Watch:       flags.Watch,
		KeepMerged:  settings.KeepMerged,
		Indent:      settings.Indent,
		MaxRefDepth: settings.MaxRefDepth,
		Debounce:    settings.Watch.Debounce,
	}
	logFormat := settings.LogFormat

	if fs.Changed("ref-dirs") {
		opts.RefDirs = splitRefDirs(flags.RefDirs)
	}
	if fs.Changed("verbose") {
		opts.Verbose = flags.Verbose
	}
	if fs.Changed("keep-merged") {
		opts.KeepMerged = flags.KeepMerged
	}
	if fs.Changed("log-format") {
		logFormat = flags.LogFormat
	}
	if fs.Changed("indent") {
		opts.Indent = flags.Indent
	}
	if fs.Changed("max-ref-depth") {
		opts.MaxRefDepth = flags.MaxRefDepth
	}

	if opts.LogFormat, err = logging.ParseFormat(logFormat); err != nil {
		return nil, err
	}
	return opts, nil
}

func runCompile(ctx context.Context, opts *compileOptions, stdout, stderr io.Writer) error {
	logger, err := logging.New(opts.LogFormat, opts.Verbose, stderr)
	if err != nil {
		return err
	}
	defer func() { _ = logging.Sync(logger) }()

	cfg, err := compiler.NewConfig(opts.InputFile, opts.OutputFile, opts.RefDirs)
	if err != nil {
		return err
	}

	if opts.Test {
		if err := cliutil.WriteLabeledJSON(stdout, "opts:", cfg); err != nil {
			return err
		}
		cliutil.Writef(stdout, "outDir: %s\n", cfg.OutputDir())
		return nil
	}

	c, err := newCompiler(cfg, opts, logger)
	if err != nil {
		return err
	}

	if opts.Watch {
		return watchAndCompile(ctx, c, opts, logger, stdout, stderr)
	}
	return compileOnce(ctx, c, opts, stdout)
}

func newCompiler(cfg *compiler.Config, opts *compileOptions, logger refc.Logger) (*compiler.Compiler, error) {
	b, err := bundler.New(
		bundler.WithAllowedRoots(cfg.Roots()...),
		bundler.WithMaxRefDepth(opts.MaxRefDepth),
		bundler.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	return compiler.New(cfg,
		compiler.WithBundler(b),
		compiler.WithLogger(logger),
		compiler.WithIndent(opts.Indent),
		compiler.WithKeepMerged(opts.KeepMerged),
	)
}

func compileOnce(ctx context.Context, c *compiler.Compiler, opts *compileOptions, stdout io.Writer) error {
	result, err := c.Run(ctx)
	if err != nil {
		return err
	}
	cliutil.Writef(stdout, "JSON for OpenAPI written to %s\n", result.OutputPath)
	if opts.KeepMerged {
		cliutil.Writef(stdout, "Merged document kept at %s\n", result.MergedPath)
	}
	return nil
}

// watchAndCompile compiles once, then recompiles on every relevant change
// until ctx is cancelled. Compile failures are reported and do not stop the
// watcher.
func watchAndCompile(ctx context.Context, c *compiler.Compiler, opts *compileOptions, logger refc.Logger, stdout, stderr io.Writer) error {
	cfg := c.Config()

	if err := compileOnce(ctx, c, opts, stdout); err != nil {
		cliutil.Writef(stderr, "Error: %v\n", err)
	}

	w, err := watch.New(watch.Config{
		Roots:       cfg.Roots(),
		Patterns:    []string{"**/*.yaml", "**/*.json"},
		IgnorePaths: []string{cfg.OutputPath},
		Debounce:    opts.Debounce,
		Logger:      logger,
		OnChange: func(ctx context.Context, changed []string) error {
			logger.Info("change detected", "files", relativeTo(cfg.BaseDir, changed))
			if err := compileOnce(ctx, c, opts, stdout); err != nil {
				cliutil.Writef(stderr, "Error: %v\n", err)
			}
			return nil
		},
	})
	if err != nil {
		return err
	}

	cliutil.Writef(stdout, "Watching %d director%s for changes\n", len(w.Roots()), plural(len(w.Roots()), "y", "ies"))
	return w.Run(ctx)
}

func relativeTo(base string, paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		if rel, err := filepath.Rel(base, p); err == nil {
			p = rel
		}
		out[i] = filepath.ToSlash(p)
	}
	return out
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
