// Package watcher reloads corpus files on change using fsnotify with debouncing.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/corpus"
)

const defaultDebounce = 400 * time.Millisecond

// Watcher watches corpus files and invokes callbacks when they change.
// A configured directory stands for every supported corpus file directly
// inside it.
type Watcher struct {
	paths       []string
	onChange    func(path string)
	onRemove    func(path string)
	debounce    time.Duration
	watcher     *fsnotify.Watcher
	mu          sync.Mutex
	files       map[string]bool // single watched files
	dirs        map[string]bool // directories watched as a whole
	debounceMap map[string]*time.Timer
	done        chan struct{}
	started     bool
	stopOnce    sync.Once
	logger      *zap.Logger // optional; when set, logs debug events
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithLogger sets a logger for debug output (file events, reloads).
func WithLogger(l *zap.Logger) WatcherOption {
	return func(w *Watcher) { w.logger = l }
}

// WithDebounce overrides the quiet period after the last event before
// onChange fires.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// NewWatcher creates a watcher for the given corpus files or directories.
// onChange is called once per burst of writes; onRemove when a watched file
// disappears. Either callback may be nil.
func NewWatcher(paths []string, onChange, onRemove func(path string), opts ...WatcherOption) *Watcher {
	w := &Watcher{
		paths:       paths,
		onChange:    onChange,
		onRemove:    onRemove,
		debounce:    defaultDebounce,
		files:       make(map[string]bool),
		dirs:        make(map[string]bool),
		debounceMap: make(map[string]*time.Timer),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start starts the watcher. It runs until ctx is cancelled or Stop is called.
// Every configured path must be an existing directory or a file inside an
// existing directory.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	watched := make(map[string]bool)
	for _, p := range w.paths {
		dir, err := w.trackLocked(p)
		if err == nil && !watched[dir] {
			err = fw.Add(dir)
			watched[dir] = true
		}
		if err != nil {
			_ = fw.Close()
			w.files = make(map[string]bool)
			w.dirs = make(map[string]bool)
			w.mu.Unlock()
			return fmt.Errorf("failed to watch %s: %w", p, err)
		}
	}
	w.watcher = fw
	w.started = true
	if w.logger != nil {
		w.logger.Debug("watcher starting", zap.Strings("paths", w.paths), zap.Duration("debounce", w.debounce))
	}
	w.mu.Unlock()
	go w.run(ctx, fw)
	return nil
}

// trackLocked registers p and returns the directory that has to be watched for it.
func (w *Watcher) trackLocked(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	switch {
	case err == nil && info.IsDir():
		w.dirs[abs] = true
		return abs, nil
	case err == nil || os.IsNotExist(err):
		// A missing file is picked up once it is created.
		w.files[abs] = true
		return filepath.Dir(abs), nil
	default:
		return "", err
	}
}

func (w *Watcher) run(ctx context.Context, fw *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			if err != nil && w.logger != nil {
				w.logger.Debug("watcher error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	path := filepath.Clean(ev.Name)
	if !w.tracks(path) {
		return
	}
	if w.logger != nil {
		w.logger.Debug("watcher event", zap.String("op", ev.Op.String()), zap.String("path", path))
	}
	switch {
	case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
		w.debounceChange(path)
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		w.cancelDebounce(path)
		if w.onRemove != nil {
			w.onRemove(path)
		}
	}
}

// tracks reports whether path is a watched corpus file.
func (w *Watcher) tracks(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.files[path] {
		return true
	}
	return w.dirs[filepath.Dir(path)] && corpus.IsSupported(path)
}

func (w *Watcher) debounceChange(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.debounceMap[path]; ok {
		t.Stop()
	}
	t := time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.debounceMap, path)
		logger := w.logger
		w.mu.Unlock()
		if logger != nil {
			logger.Debug("watcher reloading file (debounced)", zap.String("path", path))
		}
		if w.onChange != nil {
			w.onChange(path)
		}
	})
	w.debounceMap[path] = t
}

func (w *Watcher) cancelDebounce(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.debounceMap[path]; ok {
		t.Stop()
		delete(w.debounceMap, path)
	}
}

// Files returns the corpus files currently covered by the watcher, sorted.
// Directory entries are expanded to the supported files inside them.
// Before Start the configured paths are classified on the fly.
func (w *Watcher) Files() []string {
	w.mu.Lock()
	var files, dirs []string
	if w.started {
		for f := range w.files {
			files = append(files, f)
		}
		for d := range w.dirs {
			dirs = append(dirs, d)
		}
	} else {
		files, dirs = classify(w.paths)
	}
	w.mu.Unlock()

	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if w.logger != nil {
				w.logger.Debug("watcher failed to read directory", zap.String("path", dir), zap.Error(err))
			}
			continue
		}
		for _, e := range entries {
			if !e.IsDir() && corpus.IsSupported(e.Name()) {
				files = append(files, filepath.Join(dir, e.Name()))
			}
		}
	}
	sort.Strings(files)
	return files
}

func classify(paths []string) (files, dirs []string) {
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		if info, err := os.Stat(abs); err == nil && info.IsDir() {
			dirs = append(dirs, abs)
			continue
		}
		files = append(files, abs)
	}
	return files, dirs
}

// SyncExistingFiles calls onChange for every covered file that exists. Call
// it after Start to load files that were present before the watcher started.
func (w *Watcher) SyncExistingFiles() {
	files := w.Files()
	if w.logger != nil {
		w.logger.Debug("watcher syncing existing files", zap.Strings("files", files))
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if w.onChange != nil {
			w.onChange(f)
		}
	}
}

// Stop stops the watcher and releases resources.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started || w.watcher == nil {
		w.mu.Unlock()
		return
	}
	for path, t := range w.debounceMap {
		t.Stop()
		delete(w.debounceMap, path)
	}
	_ = w.watcher.Close()
	w.watcher = nil
	w.started = false
	w.mu.Unlock()
	w.stopOnce.Do(func() { close(w.done) })
}
