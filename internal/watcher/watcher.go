// Package watcher monitors the custom stylesheet pair and emits a
// coalesced reload signal. Hosts feed the signal back into the scheduler
// as a theme trigger so edits to a CSS file restyle open documents.
package watcher

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zjrosen/quill/internal/log"
)

const defaultDebounce = 250 * time.Millisecond

// Watcher watches the dark and light stylesheet files for changes.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	targets   map[string]struct{}
	debounce  time.Duration
	onChange  chan struct{}
	done      chan struct{}
}

// Config holds watcher options. Empty paths are skipped, so a host with
// only one custom stylesheet still gets reloads for it.
type Config struct {
	DarkStylesheet  string
	LightStylesheet string
	DebounceDur     time.Duration
}

// New creates a stylesheet watcher. At least one path must be set.
func New(cfg Config) (*Watcher, error) {
	targets := make(map[string]struct{})
	for _, p := range []string{cfg.DarkStylesheet, cfg.LightStylesheet} {
		if p != "" {
			targets[filepath.Clean(p)] = struct{}{}
		}
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("no stylesheet paths to watch")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	debounce := cfg.DebounceDur
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	return &Watcher{
		fsWatcher: fsw,
		targets:   targets,
		debounce:  debounce,
		onChange:  make(chan struct{}, 1),
		done:      make(chan struct{}),
	}, nil
}

// Start begins watching. The returned channel receives one signal per
// quiet period after the last relevant change; editors that write via
// rename-replace coalesce into a single reload.
func (w *Watcher) Start() (<-chan struct{}, error) {
	// Watch parent directories. Watching the files directly breaks on
	// editors that save by rename-replace: the watched inode goes away.
	dirs := make(map[string]struct{})
	for target := range w.targets {
		dirs[filepath.Dir(target)] = struct{}{}
	}
	for dir := range dirs {
		if err := w.fsWatcher.Add(dir); err != nil {
			return nil, fmt.Errorf("watching directory %s: %w", dir, err)
		}
	}

	go w.loop()

	return w.onChange, nil
}

// Stop terminates the watcher and releases resources.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.fsWatcher.Close()
}

func (w *Watcher) loop() {
	var (
		timer   *time.Timer
		pending bool
	)

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !w.isRelevant(event) {
				continue
			}

			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			pending = true

		case <-func() <-chan time.Time {
			if timer != nil {
				return timer.C
			}
			return nil
		}():
			if pending {
				select {
				case w.onChange <- struct{}{}:
				default:
				}
				pending = false
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.Warn(log.CatWatcher, "stylesheet watch error", "error", err)

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

func (w *Watcher) isRelevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	_, ok := w.targets[filepath.Clean(event.Name)]
	return ok
}
