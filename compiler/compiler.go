package compiler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.yaml.in/yaml/v4"

	"github.com/erraggy/refc"
	"github.com/erraggy/refc/internal/docnode"
	"github.com/erraggy/refc/refcerrors"
)

// DefaultIndent is the number of spaces used to indent the bundled output.
const DefaultIndent = 4

// MaxIndent is the largest indent accepted by WithIndent.
const MaxIndent = 8

// TempPattern is the os.CreateTemp pattern of merged documents; the format
// extension is appended.
const TempPattern = ".refc-*"

// Bundler dereferences every external reference of a merged document.
type Bundler interface {
	Bundle(ctx context.Context, path string) (*yaml.Node, error)
}

// Option configures a Compiler.
type Option func(*options) error

type options struct {
	logger     refc.Logger
	bundler    Bundler
	indent     int
	keepMerged bool
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l refc.Logger) Option {
	return func(o *options) error {
		o.logger = l
		return nil
	}
}

// WithBundler sets the bundler used by Compile and Run.
func WithBundler(b Bundler) Option {
	return func(o *options) error {
		o.bundler = b
		return nil
	}
}

// WithIndent sets the number of spaces used to indent the bundled output.
func WithIndent(n int) Option {
	return func(o *options) error {
		if n < 1 || n > MaxIndent {
			return &refcerrors.ConfigError{
				Option:  "indent",
				Value:   n,
				Message: fmt.Sprintf("must be between 1 and %d", MaxIndent),
			}
		}
		o.indent = n
		return nil
	}
}

// WithKeepMerged keeps the temporary merged document after Compile returns.
func WithKeepMerged(keep bool) Option {
	return func(o *options) error {
		o.keepMerged = keep
		return nil
	}
}

// Compiler runs the merge and bundle steps for one Config.
type Compiler struct {
	cfg        *Config
	format     Format
	logger     refc.Logger
	bundler    Bundler
	indent     string
	keepMerged bool
	merger     Merger
}

// New returns a Compiler for cfg. The base document format is detected from
// its file name, so an unsupported extension fails here, before any file is
// created.
func New(cfg *Config, opts ...Option) (*Compiler, error) {
	if cfg == nil {
		return nil, &refcerrors.ConfigError{Message: "compiler: nil config"}
	}

	o := options{indent: DefaultIndent}
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, err
		}
	}

	format, err := DetectFormat(cfg.BaseFile)
	if err != nil {
		return nil, err
	}

	logger := refc.OrNop(o.logger)
	merger, err := NewMerger(format, NewDiscoverer(cfg, format, logger), logger)
	if err != nil {
		return nil, err
	}

	return &Compiler{
		cfg:        cfg,
		format:     format,
		logger:     logger,
		bundler:    o.bundler,
		indent:     strings.Repeat(" ", o.indent),
		keepMerged: o.keepMerged,
		merger:     merger,
	}, nil
}

// Config returns the compiler's configuration.
func (c *Compiler) Config() *Config { return c.cfg }

// Format returns the detected base document format.
func (c *Compiler) Format() Format { return c.format }

// MergeBytes reads the base document and returns the merged document
// without writing anything.
func (c *Compiler) MergeBytes() (*Merged, error) {
	c.logger.Info("compiling references",
		"baseDir", c.cfg.BaseDir,
		"baseFile", c.cfg.BaseFile,
		"refDirs", c.cfg.RefDirs)

	basePath := c.cfg.BasePath()
	base, err := os.ReadFile(basePath)
	if err != nil {
		return nil, &refcerrors.FilesystemError{Op: "read", Path: basePath, Cause: err}
	}

	merged, err := c.merger.Merge(base, basePath)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("merged fragments",
		"count", len(merged.Fragments),
		"duplicates", len(merged.Duplicates))
	return merged, nil
}

// Merge writes the merged document to path.
func (c *Compiler) Merge(path string) (*Merged, error) {
	merged, err := c.MergeBytes()
	if err != nil {
		return nil, err
	}
	if err := WriteFile(path, merged.Content); err != nil {
		return nil, err
	}
	return merged, nil
}

// Result describes a completed compilation.
type Result struct {
	// Document is the bundled JSON document.
	Document []byte
	// OutputPath is where Document was written; empty for Compile.
	OutputPath string
	// MergedPath is the intermediate merged document. It no longer exists
	// unless the compiler keeps merged documents or Config.MergedPath was set.
	MergedPath string
	// Fragments lists every injected fragment.
	Fragments []FragmentRef
	// Duplicates lists fragments sharing a name within a category.
	Duplicates []FragmentRef
	// Elapsed is the wall time of the run.
	Elapsed time.Duration
}

// Compile merges the base document, bundles it, and returns the bundled
// JSON without writing the final output.
func (c *Compiler) Compile(ctx context.Context) (*Result, error) {
	if c.bundler == nil {
		return nil, errors.New("compiler: no bundler configured")
	}
	start := time.Now()

	mergedPath, cleanup, err := c.mergedPath()
	if err != nil {
		return nil, err
	}
	defer cleanup()
	c.logger.Info("ref compiler temp file", "path", mergedPath)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	merged, err := c.Merge(mergedPath)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	root, err := c.bundler.Bundle(ctx, mergedPath)
	if err != nil {
		return nil, wrapBundleError(mergedPath, err)
	}

	doc, err := docnode.MarshalJSONIndent(root, c.indent)
	if err != nil {
		return nil, &refcerrors.BundleError{Path: mergedPath, Cause: err}
	}

	return &Result{
		Document:   doc,
		MergedPath: mergedPath,
		Fragments:  merged.Fragments,
		Duplicates: merged.Duplicates,
		Elapsed:    time.Since(start),
	}, nil
}

// Run compiles and writes the bundled document to Config.OutputPath.
func (c *Compiler) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	result, err := c.Compile(ctx)
	if err != nil {
		return nil, err
	}
	if err := WriteOutput(c.cfg.OutputPath, result.Document); err != nil {
		return nil, err
	}
	result.OutputPath = c.cfg.OutputPath
	result.Elapsed = time.Since(start)
	return result, nil
}

// mergedPath returns where the merged document goes and a cleanup func.
// Without an explicit Config.MergedPath a temp file is created next to the
// base document so relative references resolve the same way.
func (c *Compiler) mergedPath() (string, func(), error) {
	if c.cfg.MergedPath != "" {
		return c.cfg.MergedPath, func() {}, nil
	}

	f, err := os.CreateTemp(c.cfg.BaseDir, TempPattern+c.format.Extension())
	if err != nil {
		return "", nil, &refcerrors.FilesystemError{Op: "create temp file", Path: c.cfg.BaseDir, Cause: err}
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		_ = os.Remove(name)
		return "", nil, &refcerrors.FilesystemError{Op: "close", Path: name, Cause: err}
	}

	if c.keepMerged {
		return name, func() {}, nil
	}
	return name, func() {
		if err := os.Remove(name); err != nil && !errors.Is(err, os.ErrNotExist) {
			c.logger.Warn("failed to remove temp file", "path", name, "error", err)
		}
	}, nil
}

func wrapBundleError(path string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var be *refcerrors.BundleError
	if errors.As(err, &be) {
		return err
	}
	return &refcerrors.BundleError{Path: path, Cause: err}
}
