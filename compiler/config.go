package compiler

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/erraggy/refc/refcerrors"
)

// Config describes one compilation. It is built once by NewConfig and is
// read-only afterwards; use WithMergedPath to derive a variant.
type Config struct {
	// BaseDir is the absolute directory containing the base document.
	BaseDir string `json:"baseDir"`
	// BaseFile is the base document's file name.
	BaseFile string `json:"baseFile"`
	// RefDirs are the reference roots relative to BaseDir, in scan order.
	// The first entry is always "" (BaseDir itself).
	RefDirs []string `json:"refDirs"`
	// MergedPath is the intermediate merged document. When empty, Run
	// allocates a temporary file in BaseDir.
	MergedPath string `json:"mergedPath,omitempty"`
	// OutputPath is the absolute path of the bundled output document.
	OutputPath string `json:"outputPath"`
}

// NewConfig validates the command inputs and builds a Config.
//
// refDirs are resolved against the current working directory. Every entry
// must exist and be a directory; empty entries are ignored. No file is read
// or written.
func NewConfig(inputFile, outputFile string, refDirs []string) (*Config, error) {
	if inputFile == "" {
		return nil, &refcerrors.ConfigError{Option: "input-file", Message: "you must specify an input file"}
	}
	if outputFile == "" {
		return nil, &refcerrors.ConfigError{Option: "output-file", Message: "you must specify an output file"}
	}

	fullPath, err := filepath.Abs(inputFile)
	if err != nil {
		return nil, &refcerrors.ConfigError{Option: "input-file", Value: inputFile, Cause: err}
	}
	outPath, err := filepath.Abs(outputFile)
	if err != nil {
		return nil, &refcerrors.ConfigError{Option: "output-file", Value: outputFile, Cause: err}
	}

	cfg := &Config{
		BaseDir:    filepath.Dir(fullPath),
		BaseFile:   filepath.Base(fullPath),
		RefDirs:    []string{""},
		OutputPath: outPath,
	}

	for _, dir := range refDirs {
		if dir == "" {
			continue
		}
		rel, err := resolveRefDir(cfg.BaseDir, dir)
		if err != nil {
			return nil, err
		}
		cfg.RefDirs = append(cfg.RefDirs, rel)
	}

	return cfg, nil
}

func resolveRefDir(baseDir, dir string) (string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		msg := "reference directory cannot be accessed"
		if errors.Is(err, fs.ErrNotExist) {
			msg = "reference directory does not exist"
		}
		return "", &refcerrors.ConfigError{Option: "ref-dirs", Value: dir, Message: msg, Cause: err}
	}
	if !info.IsDir() {
		return "", &refcerrors.ConfigError{Option: "ref-dirs", Value: dir, Message: "reference directory is not a directory"}
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", &refcerrors.ConfigError{Option: "ref-dirs", Value: dir, Cause: err}
	}
	rel, err := filepath.Rel(baseDir, abs)
	if err != nil {
		return "", &refcerrors.ConfigError{Option: "ref-dirs", Value: dir, Message: "reference directory cannot be made relative to the base document", Cause: err}
	}
	if rel == "." {
		rel = ""
	}
	return rel, nil
}

// BasePath returns the absolute path of the base document.
func (c *Config) BasePath() string {
	return filepath.Join(c.BaseDir, c.BaseFile)
}

// OutputDir returns the directory the output document is written to.
func (c *Config) OutputDir() string {
	return filepath.Dir(c.OutputPath)
}

// Roots returns the absolute reference root directories, BaseDir first.
func (c *Config) Roots() []string {
	roots := make([]string, 0, len(c.RefDirs))
	for _, d := range c.RefDirs {
		roots = append(roots, filepath.Join(c.BaseDir, d))
	}
	return roots
}

// WithMergedPath returns a copy of c with MergedPath set.
func (c *Config) WithMergedPath(path string) *Config {
	cp := *c
	cp.RefDirs = append([]string(nil), c.RefDirs...)
	cp.MergedPath = path
	return &cp
}
