// Package allowlist gates ingestion on an optional device allow-list file:
// one device id per line, blank lines and #-comments ignored, matching
// case-insensitive. No file configured or file absent means every device may
// write; a present but empty list means none may.
package allowlist

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// ErrUnreadable reports an allow-list file that exists but cannot be read.
// Distinct from the file being absent, which is the permissive case.
var ErrUnreadable = errors.New("allow-list file unreadable")

// Authorizer caches the allow-list and reloads it when the file changes.
// Caching policy: contents are read once and refreshed through an fsnotify
// watch on the containing directory, so edits are picked up within watcher
// latency instead of on every request. If the watcher cannot be established
// the authorizer degrades to reading the file on each check.
type Authorizer struct {
	path    string
	logger  *slog.Logger
	watcher *fsnotify.Watcher

	mu    sync.RWMutex
	state listState
}

type listState struct {
	present bool
	entries map[string]struct{}
	err     error
}

// New builds an authorizer for the given file path. An empty path disables
// allow-listing entirely.
func New(path string, logger *slog.Logger) *Authorizer {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Authorizer{path: path, logger: logger}
	if path == "" {
		return a
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warn("allow-list watcher unavailable, falling back to per-request reads", "error", err)
		return a
	}
	// Watch the directory, not the file: editors and config pushes replace
	// the file by rename, which drops a watch on the file itself.
	if err := w.Add(filepath.Dir(path)); err != nil {
		logger.Warn("allow-list watch failed, falling back to per-request reads", "path", path, "error", err)
		_ = w.Close()
		return a
	}

	a.watcher = w
	a.setState(loadFile(path))
	go a.processEvents()
	return a
}

// Close stops the file watcher if one is running.
func (a *Authorizer) Close() error {
	if a.watcher == nil {
		return nil
	}
	return a.watcher.Close()
}

// IsAllowed reports whether the device may write readings. The probe is
// trimmed and case-folded before the membership test.
func (a *Authorizer) IsAllowed(deviceID string) (bool, error) {
	if a.path == "" {
		return true, nil
	}

	var st listState
	if a.watcher != nil {
		a.mu.RLock()
		st = a.state
		a.mu.RUnlock()
	} else {
		st = loadFile(a.path)
	}

	if st.err != nil {
		return false, st.err
	}
	if !st.present {
		return true, nil
	}
	_, ok := st.entries[strings.ToLower(strings.TrimSpace(deviceID))]
	return ok, nil
}

func (a *Authorizer) setState(st listState) {
	a.mu.Lock()
	a.state = st
	a.mu.Unlock()
}

func (a *Authorizer) processEvents() {
	for {
		select {
		case ev, ok := <-a.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(a.path) {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) ||
				ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
				st := loadFile(a.path)
				a.setState(st)
				a.logger.Info("allow-list reloaded",
					"path", a.path,
					"present", st.present,
					"entries", len(st.entries),
				)
			}
		case err, ok := <-a.watcher.Errors:
			if !ok {
				return
			}
			a.logger.Error("allow-list watcher error", "error", err)
		}
	}
}

func loadFile(path string) listState {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return listState{present: false}
		}
		return listState{err: fmt.Errorf("%w: %v", ErrUnreadable, err)}
	}
	defer f.Close()

	entries := make(map[string]struct{})
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		entries[strings.ToLower(line)] = struct{}{}
	}
	if err := sc.Err(); err != nil {
		return listState{err: fmt.Errorf("%w: %v", ErrUnreadable, err)}
	}
	return listState{present: true, entries: entries}
}
