// Package watcher re-runs screening when the resume directory or the job
// description file changes.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hyperjump/shortlist/internal/extract"
	"go.uber.org/zap"
)

const defaultDebounce = 400 * time.Millisecond

// Watcher watches a resume directory and a job description file. Changes are
// debounced into a single rescreen callback: resume edits arrive in bursts
// (drag-and-drop of several files, editors writing temp files) and each burst
// should trigger one run, not one per event.
type Watcher struct {
	resumeDir  string
	jobFile    string
	extensions []string
	onChange   func()
	debounce   time.Duration

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	timer   *time.Timer
	started bool

	done     chan struct{}
	stopOnce sync.Once
	logger   *zap.Logger
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// WithDebounce overrides the debounce interval.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// NewWatcher creates a watcher. onChange is invoked (debounced) whenever a
// matching resume file or the job file changes. extensions filter which
// resume files count (empty = all).
func NewWatcher(resumeDir, jobFile string, extensions []string, onChange func(), opts ...Option) *Watcher {
	w := &Watcher{
		resumeDir:  resumeDir,
		jobFile:    jobFile,
		extensions: extensions,
		onChange:   onChange,
		debounce:   defaultDebounce,
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start starts the watcher. It runs until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	if err := w.addTargets(watcher); err != nil {
		_ = watcher.Close()
		w.mu.Unlock()
		return err
	}
	w.watcher = watcher
	w.started = true
	if w.logger != nil {
		w.logger.Debug("watcher starting",
			zap.String("resume_dir", w.resumeDir),
			zap.String("job_file", w.jobFile),
			zap.Strings("extensions", w.extensions))
	}
	w.mu.Unlock()
	go w.run(ctx)
	return nil
}

func (w *Watcher) addTargets(watcher *fsnotify.Watcher) error {
	if _, err := os.Stat(w.resumeDir); err != nil {
		if os.IsNotExist(err) {
			if err := os.MkdirAll(w.resumeDir, 0755); err != nil {
				return err
			}
		} else {
			return err
		}
	}
	if err := watcher.Add(w.resumeDir); err != nil {
		return err
	}
	if w.jobFile != "" {
		// Watch the parent directory: editors replace files on save, which
		// drops an inotify watch placed on the file itself.
		jobDir := filepath.Dir(w.jobFile)
		if filepath.Clean(jobDir) != filepath.Clean(w.resumeDir) {
			if err := watcher.Add(jobDir); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *Watcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.watcher.Errors:
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
	if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	if !w.relevant(ev.Name) {
		return
	}
	if w.logger != nil {
		w.logger.Debug("watcher event", zap.String("op", ev.Op.String()), zap.String("path", ev.Name))
	}
	w.scheduleRescreen()
}

// relevant reports whether a changed path should trigger a rescreen: the job
// file itself, or a resume file with a matching extension inside the watched
// directory.
func (w *Watcher) relevant(path string) bool {
	clean := filepath.Clean(path)
	if w.jobFile != "" && clean == filepath.Clean(w.jobFile) {
		return true
	}
	if filepath.Clean(filepath.Dir(clean)) != filepath.Clean(w.resumeDir) {
		return false
	}
	return extract.MatchExtension(clean, w.extensions)
}

func (w *Watcher) scheduleRescreen() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		w.timer = nil
		logger := w.logger
		w.mu.Unlock()
		if logger != nil {
			logger.Debug("watcher rescreening (debounced)")
		}
		if w.onChange != nil {
			w.onChange()
		}
	})
}

// Stop stops the watcher and releases resources.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started || w.watcher == nil {
		w.mu.Unlock()
		return
	}
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	_ = w.watcher.Close()
	w.watcher = nil
	w.started = false
	w.mu.Unlock()
	w.stopOnce.Do(func() { close(w.done) })
}
