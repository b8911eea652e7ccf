// Package testutil provides test utilities and fixtures for unit tests.
package testutil

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

// Tree maps slash-separated relative paths to file contents.
// A path ending in "/" creates an empty directory.
type Tree map[string]string

// WriteTree materializes tree under root and returns root.
// Parent directories are created as needed.
func WriteTree(t *testing.T, root string, tree Tree) string {
	t.Helper()

	// Sorted so failures are reported deterministically.
	paths := make([]string, 0, len(tree))
	for p := range tree {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		full := filepath.Join(root, filepath.FromSlash(p))
		if p[len(p)-1] == '/' {
			if err := os.MkdirAll(full, 0o755); err != nil {
				t.Fatalf("Failed to create directory %s: %v", p, err)
			}
			continue
		}
		WriteFile(t, full, tree[p])
	}
	return root
}

// WriteFile writes content to path, creating parent directories.
// Returns the path.
func WriteFile(t *testing.T, path, content string) string {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("Failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
	return path
}

// ReadFile returns the contents of path as a string.
func ReadFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", path, err)
	}
	return string(data)
}
