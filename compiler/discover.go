package compiler

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/erraggy/refc"
	"github.com/erraggy/refc/refcerrors"
)

// FragmentRef is one discovered fragment file.
type FragmentRef struct {
	// Category is the category directory the fragment was found in.
	Category Category
	// Name is the key the fragment is registered under.
	Name string
	// Path is the slash-separated reference path relative to the base
	// directory, e.g. "shared/definitions/Widget.yaml".
	Path string
	// Root is the reference root (relative to the base directory) that
	// contained the fragment; "" for the base directory itself.
	Root string
	// FileName is the fragment's file name as listed by the filesystem.
	FileName string
}

// Discoverer lists fragment files across the reference roots of a Config.
type Discoverer struct {
	cfg    *Config
	format Format
	logger refc.Logger
}

// NewDiscoverer returns a Discoverer that matches files of the given format.
func NewDiscoverer(cfg *Config, format Format, logger refc.Logger) *Discoverer {
	return &Discoverer{cfg: cfg, format: format, logger: refc.OrNop(logger)}
}

// Discover returns the fragments of one category. Roots are visited in
// Config.RefDirs order and entries are sorted by name within each directory.
// A missing category directory is skipped; any other I/O failure is fatal.
func (d *Discoverer) Discover(cat Category) ([]FragmentRef, error) {
	var refs []FragmentRef
	for _, root := range d.cfg.RefDirs {
		relDir := filepath.ToSlash(filepath.Join(root, string(cat)))
		dir := filepath.Join(d.cfg.BaseDir, filepath.FromSlash(relDir))

		entries, err := os.ReadDir(dir)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				d.logger.Debug("fragment directory not found", "dir", dir)
				continue
			}
			return nil, &refcerrors.FilesystemError{Op: "read directory", Path: dir, Cause: err}
		}

		for _, entry := range entries {
			if entry.IsDir() || !d.format.Matches(entry.Name()) {
				continue
			}
			name, err := DeriveName(entry.Name())
			if err != nil {
				return nil, err
			}
			refs = append(refs, FragmentRef{
				Category: cat,
				Name:     name,
				Path:     DerivePath(path.Clean(relDir), entry.Name()),
				Root:     filepath.ToSlash(root),
				FileName: entry.Name(),
			})
		}
	}
	return refs, nil
}

// DiscoverAll returns the fragments of every category, keyed by category.
func (d *Discoverer) DiscoverAll() (map[Category][]FragmentRef, error) {
	all := make(map[Category][]FragmentRef, len(Categories()))
	for _, cat := range Categories() {
		refs, err := d.Discover(cat)
		if err != nil {
			return nil, err
		}
		all[cat] = refs
	}
	return all, nil
}
