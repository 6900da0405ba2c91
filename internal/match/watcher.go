package match

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"cvscreen/internal/errors"
)

// TableWatcher watches the synonyms file for changes and reloads the
// table in place, so matcher instances pick up new entries without a
// restart.
type TableWatcher struct {
	mu sync.Mutex

	path  string
	table *SynonymTable

	fsWatcher     *fsnotify.Watcher
	debounceDelay time.Duration
	debounceTimer *time.Timer

	stopChan chan struct{}
	logger   *errors.Logger
	running  bool
}

// NewTableWatcher creates a watcher for the given synonyms file. A zero
// debounce delay defaults to one second; editors typically emit several
// write events per save.
func NewTableWatcher(path string, table *SynonymTable, debounceDelay time.Duration, logger *errors.Logger) *TableWatcher {
	if debounceDelay == 0 {
		debounceDelay = time.Second
	}
	return &TableWatcher{
		path:          path,
		table:         table,
		debounceDelay: debounceDelay,
		stopChan:      make(chan struct{}),
		logger:        logger,
	}
}

// Start loads the file once and begins watching its directory. Watching
// the directory rather than the file survives rename-based saves.
func (w *TableWatcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("synonym table watcher is already running")
	}

	if err := w.table.LoadFile(w.path); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		if closeErr := watcher.Close(); closeErr != nil && w.logger != nil {
			w.logger.LogError(closeErr, "Failed to close file watcher during cleanup")
		}
		return fmt.Errorf("failed to watch synonyms file directory: %w", err)
	}

	w.fsWatcher = watcher
	w.running = true
	go w.watchLoop()

	if w.logger != nil {
		w.logger.Info("Synonym table watcher started",
			"file", w.path,
			"entries", w.table.Len(),
			"debounce_delay", w.debounceDelay.String())
	}
	return nil
}

// Stop terminates the watch loop and releases the watcher.
func (w *TableWatcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}
	close(w.stopChan)
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	if err := w.fsWatcher.Close(); err != nil && w.logger != nil {
		w.logger.LogError(err, "Failed to close synonyms file watcher")
	}
	w.running = false
}

func (w *TableWatcher) watchLoop() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.scheduleReload()
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			if w.logger != nil {
				w.logger.Warn("Synonyms file watcher error", "error", err)
			}
		case <-w.stopChan:
			return
		}
	}
}

// scheduleReload debounces bursts of file events into a single reload.
func (w *TableWatcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounceDelay, w.reload)
}

func (w *TableWatcher) reload() {
	if err := w.table.LoadFile(w.path); err != nil {
		// Keep serving the previous table on a bad edit.
		if w.logger != nil {
			w.logger.LogError(err, "Failed to reload synonyms file, keeping previous table",
				"file", w.path)
		}
		return
	}
	if w.logger != nil {
		w.logger.Info("Synonym table reloaded", "file", w.path, "entries", w.table.Len())
	}
}
