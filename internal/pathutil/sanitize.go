// Package pathutil checks filesystem paths that come from references,
// watch events, and MCP callers.
package pathutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrSymlink is returned when an output path is a symbolic link.
	ErrSymlink = errors.New("refusing to write to symlink")
	// ErrDirectory is returned when an output path names a directory.
	ErrDirectory = errors.New("output path is a directory")
)

// SanitizeOutputPath validates and cleans an output file path.
// It resolves ".." components via filepath.Clean + filepath.Abs and rejects
// symlinks and existing directories. New files are accepted even when their
// parent directory does not exist yet. Returns the cleaned absolute path.
func SanitizeOutputPath(path string) (string, error) {
	if path == "" {
		return "", errors.New("pathutil: empty output path")
	}

	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("pathutil: cannot resolve absolute path: %w", err)
	}

	info, err := os.Lstat(abs)
	switch {
	case err == nil:
		if info.Mode()&os.ModeSymlink != 0 {
			return "", fmt.Errorf("pathutil: %w: %s", ErrSymlink, abs)
		}
		if info.IsDir() {
			return "", fmt.Errorf("pathutil: %w: %s", ErrDirectory, abs)
		}
	case os.IsNotExist(err):
	default:
		return "", fmt.Errorf("pathutil: cannot stat path: %w", err)
	}

	return abs, nil
}

// Within reports whether path lies inside root (or is root itself) and
// returns it relative to root in slash form. Both paths must be absolute and
// clean.
func Within(root, path string) (string, bool) {
	// Rel fails for paths on different volumes.
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// WithinAny returns the first of roots containing path.
func WithinAny(roots []string, path string) (root, rel string, ok bool) {
	for _, r := range roots {
		if rel, ok := Within(r, path); ok {
			return r, rel, true
		}
	}
	return "", "", false
}
