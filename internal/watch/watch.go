// Package watch observes the working copies beneath the repository root and
// emits debounced per-repository change events, so the dashboard can refresh
// without polling. Events fire for edits made by anything: the engine, the
// host user, or an editor.
package watch

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounceDelay = 350 * time.Millisecond

// Watcher watches the root directory and every working copy directly
// beneath it (including each .git directory, where ref updates land).
type Watcher struct {
	root    string
	delay   time.Duration
	log     *slog.Logger
	watcher *fsnotify.Watcher
	events  chan string

	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
}

func New(root string, delay time.Duration, logger *slog.Logger) (*Watcher, error) {
	if delay <= 0 {
		delay = defaultDebounceDelay
	}
	if logger == nil {
		logger = slog.Default()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		root:    root,
		delay:   delay,
		log:     logger,
		watcher: fsw,
		events:  make(chan string, 16),
		timers:  make(map[string]*time.Timer),
	}
	if err := fsw.Add(root); err != nil {
		err = errors.Join(err, fsw.Close())
		return nil, err
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		err = errors.Join(err, fsw.Close())
		return nil, err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			w.addRepo(filepath.Join(root, entry.Name()))
		}
	}
	go w.loop()
	return w, nil
}

// Events delivers repository names whose working copies changed. No more
// events arrive after Close; the channel itself stays open so late timer
// fires can never panic a consumer.
func (w *Watcher) Events() <-chan string { return w.events }

func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	for _, t := range w.timers {
		t.Stop()
	}
	w.mu.Unlock()
	return w.watcher.Close()
}

// addRepo registers the repo directory and its .git directory. Failures are
// logged, not fatal; a repo that cannot be watched still works via polling.
func (w *Watcher) addRepo(path string) {
	if err := w.watcher.Add(path); err != nil {
		w.log.Debug("watch repo", slog.String("path", path), slog.Any("error", err))
		return
	}
	gitDir := filepath.Join(path, ".git")
	if info, err := os.Stat(gitDir); err == nil && info.IsDir() {
		if err := w.watcher.Add(gitDir); err != nil {
			w.log.Debug("watch .git", slog.String("path", gitDir), slog.Any("error", err))
		}
	}
}

func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error("fs watcher", slog.Any("error", err))
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return
	}
	repo := rel
	if i := strings.IndexByte(rel, filepath.Separator); i >= 0 {
		repo = rel[:i]
	}
	// A freshly cloned repo shows up as a Create on the root; start
	// watching it before debouncing its first event.
	if event.Op.Has(fsnotify.Create) && repo == rel {
		w.addRepo(event.Name)
	}
	w.trigger(repo)
}

// trigger arms (or re-arms) the per-repo debounce timer. One timer per repo
// keeps a busy repository from starving notifications for the others.
func (w *Watcher) trigger(repo string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if t, ok := w.timers[repo]; ok {
		t.Stop()
	}
	w.timers[repo] = time.AfterFunc(w.delay, func() {
		w.mu.Lock()
		if w.closed {
			w.mu.Unlock()
			return
		}
		delete(w.timers, repo)
		w.mu.Unlock()
		select {
		case w.events <- repo:
		default:
			// Slow consumer; drop rather than block the timer goroutine.
		}
	})
}
