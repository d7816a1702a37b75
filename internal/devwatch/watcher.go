// Package devwatch drives `hemtt dev`'s watch loop: it watches the
// project tree and re-triggers a rebuild callback, debounced so a burst
// of saves from an editor collapses into one rebuild. Adapted from
// internal/indexing's FileWatcher/eventDebouncer pattern in the teacher
// repo, trimmed to the single callback this tool needs.
package devwatch

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Rebuild is invoked after a batch of changes settles. It receives the
// set of changed paths since the last rebuild.
type Rebuild func(changed []string)

// Watcher watches root and its subdirectories, calling OnRebuild after
// debounce settles following one or more fsnotify events.
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration
	onRebuild Rebuild
	skipExt  map[string]bool

	mu      sync.Mutex
	pending map[string]bool
	timer   *time.Timer
}

// New creates a Watcher rooted at root, recursively watching every
// directory under it whose own name does not start with "." (fsnotify
// has no native recursive mode).
func New(root string, debounce time.Duration, onRebuild Rebuild) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fsw:       fsw,
		debounce:  debounce,
		onRebuild: onRebuild,
		pending:   make(map[string]bool),
		skipExt:   map[string]bool{".pbo": true, ".bisign": true},
	}
	if err := filepath.Walk(root, func(p string, info fs.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if info.IsDir() && !strings.HasPrefix(filepath.Base(p), ".") {
			return fsw.Add(p)
		}
		return nil
	}); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Run processes events until ctx is cancelled, then closes the
// underlying fsnotify watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if w.skipExt[filepath.Ext(event.Name)] {
				continue
			}
			w.schedule(event.Name)
		case <-w.fsw.Errors:
			// a watch error on one path doesn't stop the loop; the next
			// rebuild will surface any resulting build failure instead.
		}
	}
}

func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[path] = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	changed := make([]string, 0, len(w.pending))
	for p := range w.pending {
		changed = append(changed, p)
	}
	w.pending = make(map[string]bool)
	w.mu.Unlock()
	if len(changed) > 0 && w.onRebuild != nil {
		w.onRebuild(changed)
	}
}
