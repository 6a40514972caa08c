// Package watch follows a local data tree and drops cached copies of files
// that change, announcing each change to connected readers.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/FocuswithJustin/JuniperTorah/core/errors"
	"github.com/FocuswithJustin/JuniperTorah/internal/logging"
)

// DefaultDebounce collapses the burst of events an editor or an atomic
// rename produces for one save.
const DefaultDebounce = 50 * time.Millisecond

// Invalidator drops cached copies of the document at a path relative to the
// data root.
type Invalidator interface {
	Invalidate(ctx context.Context, rel string) (int, error)
}

// Notifier is told about every change after invalidation.
type Notifier interface {
	DataChanged(path, op string, invalidated int)
}

// Watcher watches a data tree recursively.
type Watcher struct {
	root     string
	fw       *fsnotify.Watcher
	inv      Invalidator
	notify   Notifier
	Debounce time.Duration

	mu       sync.Mutex
	last     map[string]time.Time
	stopOnce sync.Once
	done     chan struct{}
}

// New creates a watcher over root. notify may be nil.
func New(root string, inv Invalidator, notify Notifier) (*Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.NewIO("resolve", root, err)
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return nil, errors.NewIO("stat", abs, err)
	}
	if !fi.IsDir() {
		return nil, errors.NewValidation("root", "data root is not a directory: "+abs)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.NewIO("watch", abs, err)
	}
	return &Watcher{
		root:     abs,
		fw:       fw,
		inv:      inv,
		notify:   notify,
		Debounce: DefaultDebounce,
		last:     make(map[string]time.Time),
		done:     make(chan struct{}),
	}, nil
}

// Start adds every directory of the tree and processes events in the
// background until ctx is canceled or Close is called.
func (w *Watcher) Start(ctx context.Context) error {
	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != w.root && ignoredDir(d.Name()) {
				return filepath.SkipDir
			}
			return w.fw.Add(path)
		}
		return nil
	})
	if err != nil {
		return errors.NewIO("watch", w.root, err)
	}
	logging.Info("watching data tree", "root", w.root, "directories", len(w.fw.WatchList()))

	go w.loop(ctx)
	return nil
}

func (w *Watcher) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.Close()
			return
		case <-w.done:
			return
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			w.handle(ctx, ev)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			logging.Warn("watch error", "root", w.root, "error", err)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, ev fsnotify.Event) {
	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() && !ignoredDir(fi.Name()) {
			if err := w.fw.Add(ev.Name); err != nil {
				logging.Warn("watch new directory failed", "path", ev.Name, "error", err)
			}
			return
		}
	}

	op := opName(ev.Op)
	if op == "" || !relevantFile(ev.Name) {
		return
	}
	rel, err := filepath.Rel(w.root, ev.Name)
	if err != nil || strings.HasPrefix(rel, "..") {
		return
	}
	rel = filepath.ToSlash(rel)

	if w.bounced(rel) {
		return
	}

	n, err := w.inv.Invalidate(ctx, rel)
	if err != nil {
		logging.Warn("invalidate failed", "path", rel, "error", err)
	}
	logging.Debug("data changed", "path", rel, "op", op, "invalidated", n)
	if w.notify != nil {
		w.notify.DataChanged(rel, op, n)
	}
}

// bounced reports whether rel changed within the debounce window.
func (w *Watcher) bounced(rel string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	now := time.Now()
	if last, ok := w.last[rel]; ok && now.Sub(last) < w.Debounce {
		return true
	}
	w.last[rel] = now
	return false
}

// Close stops watching. Safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.fw.Close()
	})
	return err
}

func opName(op fsnotify.Op) string {
	switch {
	case op.Has(fsnotify.Create):
		return "create"
	case op.Has(fsnotify.Write):
		return "write"
	case op.Has(fsnotify.Remove):
		return "remove"
	case op.Has(fsnotify.Rename):
		return "rename"
	}
	return ""
}

// relevantFile keeps JSON documents and skips hidden and temporary files.
func relevantFile(path string) bool {
	base := filepath.Base(path)
	return strings.HasSuffix(base, ".json") && !strings.HasPrefix(base, ".")
}

func ignoredDir(name string) bool {
	return strings.HasPrefix(name, ".") || name == "node_modules"
}
