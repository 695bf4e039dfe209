// Package watch reports session changes on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ppiankov/dialectic/internal/session"
)

// Handler is called with the id of a session whose file changed
type Handler func(ctx context.Context, sessionID string)

// Watcher watches a sessions directory and calls a handler once per burst
// of writes to a session's session.json.
type Watcher struct {
	root     string
	debounce time.Duration
	only     map[string]bool // nil watches every session
	logger   *slog.Logger

	mu      sync.Mutex
	pending map[string]pendingCall
	gen     uint64
	stopped bool
	wg      sync.WaitGroup
}

type pendingCall struct {
	timer *time.Timer
	gen   uint64
}

// Option configures a Watcher
type Option func(*Watcher)

// WithDebounce sets how long a session must stay quiet before the handler runs
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the logger; the default is slog.Default()
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) { w.logger = logger }
}

// WithSessions restricts the watcher to the given session ids
func WithSessions(ids ...string) Option {
	return func(w *Watcher) {
		if len(ids) == 0 {
			return
		}
		w.only = make(map[string]bool, len(ids))
		for _, id := range ids {
			if norm, err := session.NormalizeID(id); err == nil {
				w.only[norm] = true
			}
		}
	}
}

// New creates a watcher for the sessions directory root
func New(root string, opts ...Option) *Watcher {
	w := &Watcher{
		root:     root,
		debounce: 300 * time.Millisecond,
		logger:   slog.Default(),
		pending:  make(map[string]pendingCall),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches until ctx is done. Handlers still waiting on their debounce
// window are dropped; running handlers are waited for.
func (w *Watcher) Run(ctx context.Context, handle Handler) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = fsw.Close() }()

	if err := fsw.Add(w.root); err != nil {
		return fmt.Errorf("watch %s: %w", w.root, err)
	}

	entries, err := os.ReadDir(w.root)
	if err != nil {
		return fmt.Errorf("read sessions directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			w.addSessionDir(fsw, filepath.Join(w.root, e.Name()))
		}
	}

	w.logger.Debug("watching sessions", "root", w.root, "debounce", w.debounce)
	defer w.stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			w.handleEvent(ctx, fsw, event, handle)

		case wErr, ok := <-fsw.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			w.logger.Error("fsnotify error", "error", wErr)
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, fsw *fsnotify.Watcher, event fsnotify.Event, handle Handler) {
	w.logger.Debug("event received", "name", event.Name, "op", event.Op.String())

	// A new session directory
	if filepath.Dir(event.Name) == filepath.Clean(w.root) {
		if event.Has(fsnotify.Create) {
			if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
				if id, ok := w.addSessionDir(fsw, event.Name); ok {
					if _, err := os.Stat(filepath.Join(event.Name, session.FileName)); err == nil {
						w.schedule(ctx, id, handle)
					}
				}
			}
		}
		return
	}

	if filepath.Base(event.Name) != session.FileName {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}

	id, ok := session.IDFromDirName(filepath.Base(filepath.Dir(event.Name)))
	if !ok || !w.wants(id) {
		return
	}
	w.schedule(ctx, id, handle)
}

func (w *Watcher) addSessionDir(fsw *fsnotify.Watcher, dir string) (string, bool) {
	id, ok := session.IDFromDirName(filepath.Base(dir))
	if !ok || !w.wants(id) {
		return "", false
	}
	if err := fsw.Add(dir); err != nil {
		w.logger.Warn("cannot watch session", "session_id", id, "error", err)
		return "", false
	}
	return id, true
}

func (w *Watcher) wants(id string) bool {
	return w.only == nil || w.only[id]
}

// schedule (re)starts the debounce timer of a session
func (w *Watcher) schedule(ctx context.Context, id string, handle Handler) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	if p, ok := w.pending[id]; ok && p.timer.Stop() {
		w.wg.Done()
	}

	w.gen++
	gen := w.gen
	w.wg.Add(1)
	w.pending[id] = pendingCall{
		gen: gen,
		timer: time.AfterFunc(w.debounce, func() {
			defer w.wg.Done()

			w.mu.Lock()
			if p, ok := w.pending[id]; ok && p.gen == gen {
				delete(w.pending, id)
			}
			w.mu.Unlock()

			if ctx.Err() != nil {
				return
			}
			handle(ctx, id)
		}),
	}
}

func (w *Watcher) stop() {
	w.mu.Lock()
	w.stopped = true
	for id, p := range w.pending {
		if p.timer.Stop() {
			w.wg.Done()
		}
		delete(w.pending, id)
	}
	w.mu.Unlock()

	w.wg.Wait()
}
