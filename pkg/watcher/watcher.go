package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileWatcher reports debounced changes to model files so a running
// preview can reload them
type FileWatcher struct {
	watcher   *fsnotify.Watcher
	log       *slog.Logger
	mu        sync.Mutex
	callbacks map[string]func(string)
	debounce  time.Duration
	timers    map[string]*time.Timer
	closeOnce sync.Once
}

// NewFileWatcher creates a watcher that waits debounce after the last
// write before firing
func NewFileWatcher(debounce time.Duration, log *slog.Logger) (*FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}

	return &FileWatcher{
		watcher:   w,
		log:       log,
		callbacks: make(map[string]func(string)),
		debounce:  debounce,
		timers:    make(map[string]*time.Timer),
	}, nil
}

// Watch registers callback for each of files. Paths that do not exist are
// skipped with a warning, since assets are optional.
func (fw *FileWatcher) Watch(files []string, callback func(string)) (int, error) {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	watched := 0
	for _, file := range files {
		absPath, err := filepath.Abs(file)
		if err != nil {
			return watched, fmt.Errorf("failed to resolve path %s: %w", file, err)
		}

		if err := fw.watcher.Add(absPath); err != nil {
			fw.log.Warn("not watching asset", slog.String("path", absPath), slog.Any("err", err))
			continue
		}

		fw.callbacks[absPath] = callback
		watched++
	}

	return watched, nil
}

// Run delivers events until ctx is done or the watcher is closed
func (fw *FileWatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}

			// Editors either rewrite in place or replace the file
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				fw.handleFileChange(event.Name)
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.log.Error("watcher error", slog.Any("err", err))
		}
	}
}

// handleFileChange fires the callback once the file has been quiet for the
// debounce interval
func (fw *FileWatcher) handleFileChange(filePath string) {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	callback, exists := fw.callbacks[filePath]
	if !exists {
		return
	}

	if timer, exists := fw.timers[filePath]; exists {
		timer.Stop()
	}

	fw.timers[filePath] = time.AfterFunc(fw.debounce, func() {
		fw.log.Debug("asset changed", slog.String("path", filePath))
		callback(filePath)
	})
}

// Close stops the watcher and any pending callbacks
func (fw *FileWatcher) Close() error {
	var err error
	fw.closeOnce.Do(func() {
		fw.mu.Lock()
		for _, t := range fw.timers {
			t.Stop()
		}
		fw.timers = make(map[string]*time.Timer)
		fw.mu.Unlock()
		err = fw.watcher.Close()
	})
	return err
}
