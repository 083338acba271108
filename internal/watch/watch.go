// Package watch evicts the resident model when its files change on disk, so
// the next request loads the new weights.
package watch

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const defaultDebounce = 400 * time.Millisecond

// Reason is passed to Evict when a watched file changes.
const Reason = "model file changed"

// Evicter is satisfied by *manager.Manager.
type Evicter interface {
	Evict(reason string) bool
}

// Watcher watches the parent directories of a set of files. Watching the
// directory catches editors and copy tools that replace files by rename.
type Watcher struct {
	files    map[string]struct{}
	target   Evicter
	debounce time.Duration
	log      zerolog.Logger

	mu    sync.Mutex
	timer *time.Timer
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(w *Watcher) { w.log = l.With().Str("component", "watch").Logger() }
}

// WithDebounce overrides the quiet period before eviction.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// New returns a watcher for paths. Empty paths are ignored.
func New(target Evicter, paths []string, opts ...Option) *Watcher {
	w := &Watcher{
		files:    make(map[string]struct{}),
		target:   target,
		debounce: defaultDebounce,
		log:      zerolog.Nop(),
	}
	for _, p := range paths {
		if p == "" {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		w.files[filepath.Clean(p)] = struct{}{}
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run blocks until ctx is cancelled. It returns an error only when the
// watch could not be established.
func (w *Watcher) Run(ctx context.Context) error {
	if len(w.files) == 0 {
		return errors.New("watch: no files to watch")
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	dirs := make(map[string]struct{})
	for f := range w.files {
		dirs[filepath.Dir(f)] = struct{}{}
	}
	for d := range dirs {
		if err := fw.Add(d); err != nil {
			return err
		}
	}
	w.log.Info().Int("files", len(w.files)).Msg("watching model files")
	defer w.stopTimer()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn().Err(err).Msg("watcher error")
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if _, ok := w.files[filepath.Clean(ev.Name)]; !ok {
		return
	}
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
		return
	}
	w.log.Debug().Str("op", ev.Op.String()).Str("path", ev.Name).Msg("watcher event")
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		if w.target.Evict(Reason) {
			w.log.Info().Str("path", ev.Name).Msg("model evicted after file change")
		}
	})
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}
