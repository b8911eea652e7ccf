package bundler

import (
	"fmt"
	"path/filepath"

	"github.com/erraggy/refc"
)

// Option configures a Bundler.
type Option func(*Bundler) error

// WithAllowedRoots restricts referenced files to the given directories.
// Relative directories are made absolute against the working directory.
func WithAllowedRoots(dirs ...string) Option {
	return func(b *Bundler) error {
		for _, d := range dirs {
			abs, err := filepath.Abs(d)
			if err != nil {
				return fmt.Errorf("bundler: resolving allowed root %s: %w", d, err)
			}
			b.allowedRoots = append(b.allowedRoots, abs)
		}
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(l refc.Logger) Option {
	return func(b *Bundler) error {
		b.logger = refc.OrNop(l)
		return nil
	}
}

// WithMaxRefDepth sets how deeply references may nest. Zero keeps the
// default.
func WithMaxRefDepth(n int) Option {
	return func(b *Bundler) error {
		if n < 0 {
			return fmt.Errorf("bundler: max ref depth must not be negative, got %d", n)
		}
		if n > 0 {
			b.maxRefDepth = n
		}
		return nil
	}
}

// WithMaxFileSize sets the largest file, in bytes, that may be loaded. Zero
// keeps the default.
func WithMaxFileSize(n int64) Option {
	return func(b *Bundler) error {
		if n < 0 {
			return fmt.Errorf("bundler: max file size must not be negative, got %d", n)
		}
		if n > 0 {
			b.maxFileSize = n
		}
		return nil
	}
}

// WithMaxCachedDocuments sets how many distinct files one Bundle call may
// load. Zero keeps the default.
func WithMaxCachedDocuments(n int) Option {
	return func(b *Bundler) error {
		if n < 0 {
			return fmt.Errorf("bundler: max cached documents must not be negative, got %d", n)
		}
		if n > 0 {
			b.maxCachedDocuments = n
		}
		return nil
	}
}
