// Package watcher provides recursive file system watching with debouncing
// for source trees.
package watcher

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zjrosen/nativepage/internal/log"
)

// Watcher monitors a directory tree and reports changed files in batches.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	root      string
	debounce  time.Duration
	filter    func(path string) bool
	skipDir   func(name string) bool
	onChange  chan []string
	done      chan struct{}
	stopOnce  sync.Once
}

// Config holds watcher configuration options.
type Config struct {
	Root        string
	DebounceDur time.Duration

	// Filter selects the files whose changes are reported. Nil reports all.
	Filter func(path string) bool

	// SkipDir reports directories (by base name) that are not watched.
	// Nil skips hidden directories.
	SkipDir func(name string) bool
}

// DefaultConfig returns sensible defaults for the watcher.
func DefaultConfig(root string) Config {
	return Config{
		Root:        root,
		DebounceDur: 500 * time.Millisecond,
	}
}

// New creates a new tree watcher.
func New(cfg Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	w := &Watcher{
		fsWatcher: fsw,
		root:      cfg.Root,
		debounce:  cfg.DebounceDur,
		filter:    cfg.Filter,
		skipDir:   cfg.SkipDir,
		onChange:  make(chan []string, 1),
		done:      make(chan struct{}),
	}
	if w.filter == nil {
		w.filter = func(string) bool { return true }
	}
	if w.skipDir == nil {
		w.skipDir = func(name string) bool { return strings.HasPrefix(name, ".") }
	}
	return w, nil
}

// Start watches every directory under the root, including ones created
// later. The returned channel receives the sorted, de-duplicated paths
// changed during each quiet period and is closed by Stop.
func (w *Watcher) Start() (<-chan []string, error) {
	info, err := os.Stat(w.root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("watching %s: not a directory", w.root)
	}
	if err := w.addTree(w.root); err != nil {
		return nil, err
	}

	go w.loop()

	return w.onChange, nil
}

// Stop terminates the watcher and releases resources. It is safe to call
// more than once.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.fsWatcher.Close()
	})
	return err
}

// addTree watches dir and every directory below it.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Directories removed mid-walk are not an error
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return fmt.Errorf("walking %s: %w", path, err)
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && w.skipDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.fsWatcher.Add(path); err != nil {
			return fmt.Errorf("watching directory %s: %w", path, err)
		}
		log.Debug(log.CatWatcher, "watching", "dir", path)
		return nil
	})
}

// loop processes file system events with debouncing.
func (w *Watcher) loop() {
	defer close(w.onChange)

	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		pending = make(map[string]struct{})
	)
	arm := func() {
		if timer == nil {
			timer = time.NewTimer(w.debounce)
		} else {
			timer.Reset(w.debounce)
		}
		timerC = timer.C
	}

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if w.skipDir(filepath.Base(event.Name)) {
						continue
					}
					if err := w.addTree(event.Name); err != nil {
						log.ErrorErr(log.CatWatcher, "failed to watch new directory", err, "dir", event.Name)
					}
					// Files written before the watch was added produce no events
					w.collect(event.Name, pending)
					if len(pending) > 0 {
						arm()
					}
					continue
				}
			}

			if !w.filter(event.Name) {
				continue
			}
			pending[event.Name] = struct{}{}
			arm()

		case <-timerC:
			timerC = nil
			if len(pending) == 0 {
				continue
			}
			batch := make([]string, 0, len(pending))
			for path := range pending {
				batch = append(batch, path)
			}
			slices.Sort(batch)

			select {
			case w.onChange <- batch:
				clear(pending)
			default:
				// Consumer still busy with the last batch; retry after another quiet period
				arm()
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.ErrorErr(log.CatWatcher, "watch error", err, "root", w.root)

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// collect adds the tracked files already present under dir to pending.
func (w *Watcher) collect(dir string, pending map[string]struct{}) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // best effort
		}
		if d.IsDir() {
			if path != dir && w.skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if w.filter(path) {
			pending[path] = struct{}{}
		}
		return nil
	})
}
