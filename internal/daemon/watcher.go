package daemon

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ManifestWatcher monitors the manifest file and its scan sources and
// triggers a refresh when any of them change.
type ManifestWatcher struct {
	manifestPath string
	onChange     func(context.Context)
	watcher      *fsnotify.Watcher
	mu           sync.RWMutex
	stopChan     chan struct{}
	changeChan   chan struct{}
	debounceTime time.Duration
}

// NewManifestWatcher creates a new manifest file watcher. onChange runs
// after changes have settled for the debounce interval; a non-positive
// debounce falls back to the default.
func NewManifestWatcher(manifestPath string, debounce time.Duration, onChange func(context.Context)) (*ManifestWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	// Resolve absolute path for consistent watching
	absPath, err := filepath.Abs(manifestPath)
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to resolve manifest path: %w", err)
	}

	if debounce <= 0 {
		debounce = 2 * time.Second // Debounce rapid file changes
	}

	return &ManifestWatcher{
		manifestPath: absPath,
		onChange:     onChange,
		watcher:      watcher,
		stopChan:     make(chan struct{}),
		changeChan:   make(chan struct{}, 1),
		debounceTime: debounce,
	}, nil
}

// Start begins monitoring the manifest file
func (mw *ManifestWatcher) Start(ctx context.Context) error {
	mw.mu.Lock()
	defer mw.mu.Unlock()

	// Watch the directory containing the manifest (more reliable than watching the file directly)
	manifestDir := filepath.Dir(mw.manifestPath)
	if err := mw.watcher.Add(manifestDir); err != nil {
		return fmt.Errorf("failed to watch manifest directory %s: %w", manifestDir, err)
	}

	slog.Info("Starting manifest watcher", "manifest_path", mw.manifestPath)

	// Start the watcher goroutines
	go mw.watchLoop(ctx)
	go mw.refreshLoop(ctx)

	return nil
}

// WatchSources adds the manifest's scan sources to the watch set.
// Directory sources are watched recursively, skipping hidden
// directories the same way scanning does.
func (mw *ManifestWatcher) WatchSources(paths []string) error {
	mw.mu.Lock()
	defer mw.mu.Unlock()

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			slog.Warn("Skipping unwatchable scan source", "path", p, "error", err)
			continue
		}
		if !info.IsDir() {
			if err := mw.watcher.Add(filepath.Dir(p)); err != nil {
				return fmt.Errorf("failed to watch scan source %s: %w", p, err)
			}
			continue
		}

		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			if path != p && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return mw.watcher.Add(path)
		})
		if err != nil {
			return fmt.Errorf("failed to watch scan source %s: %w", p, err)
		}
	}

	return nil
}

// Stop stops the manifest watcher
func (mw *ManifestWatcher) Stop(ctx context.Context) error {
	mw.mu.Lock()
	defer mw.mu.Unlock()

	slog.Info("Stopping manifest watcher")

	// Signal stop to all goroutines
	close(mw.stopChan)

	// Close the file system watcher
	if mw.watcher != nil {
		if err := mw.watcher.Close(); err != nil {
			slog.Error("Error closing file watcher", "error", err)
		}
	}

	return nil
}

// watchLoop monitors file system events
func (mw *ManifestWatcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-mw.stopChan:
			return
		case event, ok := <-mw.watcher.Events:
			if !ok {
				return
			}

			// Only process events for the manifest or scannable sources
			if !mw.relevant(event.Name) {
				continue
			}

			// Handle different types of file events
			if event.Op&fsnotify.Write == fsnotify.Write {
				slog.Debug("Source write detected", "file", event.Name)
				mw.triggerRefresh()
			} else if event.Op&fsnotify.Create == fsnotify.Create {
				slog.Debug("Source create detected", "file", event.Name)
				mw.triggerRefresh()
			} else if event.Op&fsnotify.Remove == fsnotify.Remove {
				if filepath.Base(event.Name) == filepath.Base(mw.manifestPath) {
					slog.Warn("Manifest file removed", "file", event.Name)
					continue
				}
				slog.Debug("Source remove detected", "file", event.Name)
				mw.triggerRefresh()
			} else if event.Op&fsnotify.Rename == fsnotify.Rename {
				slog.Debug("Source rename detected", "file", event.Name)
				mw.triggerRefresh()
			}

		case err, ok := <-mw.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("Manifest watcher error", "error", err)
		}
	}
}

// refreshLoop handles debounced refreshes
func (mw *ManifestWatcher) refreshLoop(ctx context.Context) {
	var refreshTimer *time.Timer

	for {
		select {
		case <-ctx.Done():
			if refreshTimer != nil {
				refreshTimer.Stop()
			}
			return
		case <-mw.stopChan:
			if refreshTimer != nil {
				refreshTimer.Stop()
			}
			return
		case <-mw.changeChan:
			// Reset/start debounce timer
			if refreshTimer != nil {
				refreshTimer.Stop()
			}
			refreshTimer = time.AfterFunc(mw.debounceTime, func() {
				slog.Info("Manifest change detected, refreshing", "manifest_path", mw.manifestPath)
				mw.onChange(ctx)
			})
		}
	}
}

// triggerRefresh triggers a debounced refresh
func (mw *ManifestWatcher) triggerRefresh() {
	select {
	case mw.changeChan <- struct{}{}:
		// Refresh triggered
	default:
		// Refresh already pending
	}
}

// relevant reports whether an event path can affect the resource list:
// the manifest itself, or a file type scanning understands.
func (mw *ManifestWatcher) relevant(name string) bool {
	if filepath.Base(name) == filepath.Base(mw.manifestPath) {
		return true
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown", ".html", ".htm", ".txt", ".urls":
		return true
	}
	return false
}
