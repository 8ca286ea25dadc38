// Package watch re-runs a build when project sources change.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/mailbuilder/internal/logfields"
)

// DefaultDebounce is the quiet period after the last change before a rebuild.
const DefaultDebounce = 300 * time.Millisecond

// RebuildFunc runs one build. Errors are logged and do not stop watching.
type RebuildFunc func(ctx context.Context) error

// Watcher triggers RebuildFunc for changes below a set of directories.
type Watcher struct {
	dirs     []string
	exclude  []string
	rebuild  RebuildFunc
	debounce time.Duration
	logger   *slog.Logger
}

// New creates a Watcher for dirs. Missing directories are skipped at Run.
func New(rebuild RebuildFunc, dirs ...string) *Watcher {
	return &Watcher{
		dirs:     dirs,
		rebuild:  rebuild,
		debounce: DefaultDebounce,
		logger:   slog.Default(),
	}
}

// WithDebounce sets the quiet period.
func (w *Watcher) WithDebounce(d time.Duration) *Watcher {
	if d > 0 {
		w.debounce = d
	}
	return w
}

// WithExclude ignores changes below the given paths, typically the build
// output directory.
func (w *Watcher) WithExclude(paths ...string) *Watcher {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			w.exclude = append(w.exclude, abs)
		}
	}
	return w
}

// WithLogger sets the logger.
func (w *Watcher) WithLogger(l *slog.Logger) *Watcher {
	if l != nil {
		w.logger = l
	}
	return w
}

// Run watches until ctx is done. It does not perform an initial build.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer func() { _ = fw.Close() }()

	watched := 0
	for _, dir := range w.dirs {
		if st, statErr := os.Stat(dir); statErr != nil || !st.IsDir() {
			w.logger.Warn("Skipping watch directory", logfields.Path(dir))
			continue
		}
		w.addDirsRecursive(fw, dir)
		watched++
	}
	if watched == 0 {
		return fmt.Errorf("no directories to watch: %s", strings.Join(w.dirs, ", "))
	}

	requests, trigger := newDebouncer(w.debounce)
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.worker(ctx, requests)
	}()

	for {
		select {
		case <-ctx.Done():
			<-done
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(fw, ev, trigger)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Watcher error", logfields.Error(err))
		}
	}
}

// worker serializes rebuilds. Requests arriving during a rebuild coalesce
// into one follow-up run.
func (w *Watcher) worker(ctx context.Context, requests <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-requests:
			w.logger.Info("Change detected; rebuilding")
			if err := w.rebuild(ctx); err != nil && ctx.Err() == nil {
				w.logger.Warn("Rebuild failed", logfields.Error(err))
			}
		}
	}
}

func (w *Watcher) excluded(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	for _, ex := range w.exclude {
		if abs == ex || strings.HasPrefix(abs, ex+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (w *Watcher) handleEvent(fw *fsnotify.Watcher, ev fsnotify.Event, trigger func()) {
	if shouldIgnore(ev.Name) || w.excluded(ev.Name) {
		return
	}
	if ev.Op&fsnotify.Create == fsnotify.Create {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			w.addDirsRecursive(fw, ev.Name)
		}
	}
	w.logger.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	trigger()
}

func (w *Watcher) addDirsRecursive(fw *fsnotify.Watcher, root string) {
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if w.excluded(path) || (path != root && shouldIgnore(path)) {
				return filepath.SkipDir
			}
			if err := fw.Add(path); err != nil {
				w.logger.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
			}
		}
		return nil
	})
}

// newDebouncer returns a request channel with capacity one and a trigger that
// sends on it once d has passed without another trigger.
func newDebouncer(d time.Duration) (chan struct{}, func()) {
	var mu sync.Mutex
	var timer *time.Timer
	requests := make(chan struct{}, 1)

	trigger := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(d, func() {
			select {
			case requests <- struct{}{}:
			default:
			}
		})
	}
	return requests, trigger
}

// shouldIgnore reports hidden files and editor swap files.
func shouldIgnore(path string) bool {
	base := filepath.Base(path)
	switch {
	case strings.HasPrefix(base, "."):
		return true
	case strings.HasSuffix(base, "~"), strings.HasSuffix(base, ".swp"), strings.HasSuffix(base, ".swx"):
		return true
	case strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#"):
		return true
	}
	return false
}
