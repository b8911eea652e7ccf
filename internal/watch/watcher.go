// Package watch re-runs a callback when fragment or base documents change.
//
// It monitors one or more directory trees, filters events with doublestar
// glob patterns, and invokes the callback after a debounce period. Events
// within the debounce window are coalesced so the callback fires once with
// the full set of changed paths.
package watch

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/erraggy/refc"
	"github.com/erraggy/refc/internal/pathutil"
)

// defaultDebounce is the quiet period used when Config.Debounce is not set.
// Editors commonly write then rename, which produces several events.
const defaultDebounce = 250 * time.Millisecond

// defaultIgnores lists path patterns that never trigger a callback.
// The ".refc-*" entry covers the compiler's own merged temp files.
var defaultIgnores = []string{
	"**/.git/**",
	"**/node_modules/**",
	"**/*.swp",
	"**/*.swo",
	"**/*~",
	"**/.DS_Store",
	"**/.refc-*",
}

// Config holds the parameters for a Watcher.
type Config struct {
	// Roots are the directory trees to watch. Each is watched recursively.
	// At least one root is required.
	Roots []string

	// Patterns are doublestar glob patterns, relative to the root that holds
	// the file, selecting which files trigger callbacks. An empty slice
	// matches every non-ignored file.
	Patterns []string

	// Ignore are additional glob patterns that never trigger callbacks.
	Ignore []string

	// IgnorePaths are exact file paths that never trigger callbacks, such
	// as the compiled output document.
	IgnorePaths []string

	// Debounce is the quiet period after the last event before the callback
	// fires. Zero or negative values fall back to the default.
	Debounce time.Duration

	// OnChange is called with the absolute paths that changed. Errors are
	// logged and do not stop the watcher.
	OnChange func(ctx context.Context, changed []string) error

	// Logger receives watcher diagnostics.
	Logger refc.Logger
}

// Watcher monitors directory trees and fires a debounced callback when
// matching files change. Run must be called exactly once.
type Watcher struct {
	cfg         Config
	fsw         *fsnotify.Watcher
	roots       []string
	ignores     []string
	ignorePaths map[string]bool
	debounce    time.Duration
	logger      refc.Logger
	started     atomic.Bool
	closeOnce   sync.Once
}

// New creates a Watcher and registers every non-ignored directory under the
// configured roots.
func New(cfg Config) (*Watcher, error) {
	if len(cfg.Roots) == 0 {
		return nil, errors.New("watch: at least one root is required")
	}
	if err := validatePatterns(cfg.Patterns, "watch"); err != nil {
		return nil, err
	}
	if err := validatePatterns(cfg.Ignore, "ignore"); err != nil {
		return nil, err
	}

	roots := make([]string, 0, len(cfg.Roots))
	for _, r := range cfg.Roots {
		abs, err := filepath.Abs(r)
		if err != nil {
			return nil, fmt.Errorf("watch: resolve root %s: %w", r, err)
		}
		if !slices.Contains(roots, abs) {
			roots = append(roots, abs)
		}
	}

	ignorePaths := make(map[string]bool, len(cfg.IgnorePaths))
	for _, p := range cfg.IgnorePaths {
		if abs, err := filepath.Abs(p); err == nil {
			ignorePaths[abs] = true
		}
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		cfg:         cfg,
		fsw:         fsw,
		roots:       roots,
		ignores:     append(slices.Clone(defaultIgnores), cfg.Ignore...),
		ignorePaths: ignorePaths,
		debounce:    debounce,
		logger:      refc.OrNop(cfg.Logger),
	}

	for _, root := range roots {
		if err := w.addDirectories(root); err != nil {
			_ = w.Close()
			return nil, err
		}
	}
	return w, nil
}

// Roots returns the absolute, de-duplicated watched roots.
func (w *Watcher) Roots() []string {
	return slices.Clone(w.roots)
}

// Close releases the underlying watcher. Run closes it on return; Close is
// for a Watcher that is never run.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() { err = w.fsw.Close() })
	return err
}

// Run blocks until ctx is cancelled, dispatching debounced callbacks. It
// returns nil on cancellation and an error when the watcher breaks.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return errors.New("watch: Run called more than once")
	}

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
		running atomic.Bool
	)

	// fire may be scheduled by time.AfterFunc after ctx is cancelled.
	// A run still in progress causes a retry rather than a concurrent call.
	fire := func() {
		if ctx.Err() != nil {
			return
		}
		if !running.CompareAndSwap(false, true) {
			w.logger.Debug("previous run still in progress, deferring")
			mu.Lock()
			if timer != nil {
				timer.Reset(w.debounce)
			}
			mu.Unlock()
			return
		}
		defer running.Store(false)

		mu.Lock()
		if len(pending) == 0 {
			mu.Unlock()
			return
		}
		changed := slices.Sorted(maps.Keys(pending))
		clear(pending)
		mu.Unlock()

		if w.cfg.OnChange != nil {
			if err := w.cfg.OnChange(ctx, changed); err != nil {
				w.logger.Error("recompile failed", "error", err)
			}
		}
	}

	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		if err := w.Close(); err != nil {
			w.logger.Warn("closing watcher", "error", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: fsnotify event channel closed unexpectedly")
			}
			if evt.Has(fsnotify.Chmod) && !evt.Has(fsnotify.Write) {
				continue
			}

			if evt.Has(fsnotify.Create) {
				w.maybeAddDir(evt.Name)
			}
			if !w.relevant(evt.Name) {
				continue
			}
			w.logger.Debug("file changed", "path", evt.Name, "op", evt.Op.String())

			mu.Lock()
			pending[evt.Name] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: fsnotify error channel closed unexpectedly")
			}
			if isFatalFsnotifyError(err) {
				return fmt.Errorf("watch: fatal fsnotify error: %w", err)
			}
			w.logger.Warn("fsnotify error", "error", err)
		}
	}
}

// relevant reports whether an event for path should trigger a callback.
func (w *Watcher) relevant(path string) bool {
	if w.ignorePaths[path] {
		return false
	}
	rel, ok := w.relative(path)
	if !ok {
		return false
	}
	return !w.isIgnored(rel) && w.matchesPatterns(rel)
}

// relative returns path relative to the first root containing it.
func (w *Watcher) relative(path string) (string, bool) {
	_, rel, ok := pathutil.WithinAny(w.roots, path)
	return rel, ok
}

// addDirectories registers root and every non-ignored directory below it.
func (w *Watcher) addDirectories(root string) error {
	walkErr := filepath.WalkDir(root, func(path string, d os.DirEntry, walkDirErr error) error {
		if walkDirErr != nil {
			if path == root {
				return walkDirErr
			}
			w.logger.Warn("skipping inaccessible path", "path", path, "error", walkDirErr)
			return nil
		}
		if !d.IsDir() {
			return nil
		}

		rel, ok := pathutil.Within(root, path)
		if !ok {
			return nil
		}
		if path != root && (w.isIgnored(rel) || w.isIgnored(rel+"/")) {
			return filepath.SkipDir
		}

		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch: add directory %q: %w", path, err)
		}
		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("watch: walk directory tree %s: %w", root, walkErr)
	}
	return nil
}

// maybeAddDir watches a directory created after startup, such as a new
// category directory.
func (w *Watcher) maybeAddDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	rel, ok := w.relative(path)
	if !ok || w.isIgnored(rel) || w.isIgnored(rel+"/") {
		return
	}
	if err := w.fsw.Add(path); err != nil {
		w.logger.Warn("watching new directory", "path", path, "error", err)
	}
}

func (w *Watcher) isIgnored(rel string) bool {
	for _, pat := range w.ignores {
		if matched, err := doublestar.Match(pat, rel); err == nil && matched {
			return true
		}
	}
	return false
}

func (w *Watcher) matchesPatterns(rel string) bool {
	if len(w.cfg.Patterns) == 0 {
		return true
	}
	for _, pat := range w.cfg.Patterns {
		if matched, err := doublestar.Match(pat, rel); err == nil && matched {
			return true
		}
	}
	return false
}

// DefaultIgnores returns a copy of the built-in ignore patterns.
func DefaultIgnores() []string {
	return slices.Clone(defaultIgnores)
}

// validatePatterns checks that every pattern is a valid doublestar glob.
func validatePatterns(patterns []string, label string) error {
	for _, pat := range patterns {
		if !doublestar.ValidatePattern(pat) {
			return fmt.Errorf("watch: invalid %s pattern %q", label, pat)
		}
	}
	return nil
}
