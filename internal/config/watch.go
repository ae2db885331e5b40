package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Watcher reloads the configuration when the config file changes on
// disk and hands the validated result to a callback. Only
// display-oriented settings should be applied live; connection
// settings take effect on the next start.
type Watcher struct {
	watcher  *fsnotify.Watcher
	path     string
	onChange func(*Config)
	stopCh   chan struct{}
}

// NewWatcher creates a Watcher for the given config file. onChange is
// called with the freshly loaded Config after each valid change;
// invalid edits are ignored and the previous config stays in effect.
func NewWatcher(path string, onChange func(*Config)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	// Watch the directory; editors replace files on save, which drops
	// a watch on the file itself.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch config directory: %w", err)
	}

	return &Watcher{
		watcher:  fw,
		path:     path,
		onChange: onChange,
		stopCh:   make(chan struct{}),
	}, nil
}

// Start begins watching for config changes.
func (w *Watcher) Start() {
	go w.watchLoop()
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	close(w.stopCh)
	w.watcher.Close()
}

// watchLoop processes filesystem events for the config file.
func (w *Watcher) watchLoop() {
	targetFile := filepath.Base(w.path)
	debounceTimer := time.NewTimer(0)
	<-debounceTimer.C // drain initial timer

	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != targetFile {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			// Debounce to avoid multiple rapid notifications
			debounceTimer.Reset(100 * time.Millisecond)

		case <-debounceTimer.C:
			if err := viper.ReadInConfig(); err != nil {
				continue
			}
			cfg, err := Load()
			if err != nil {
				// Invalid edit; keep the previous config in effect.
				continue
			}
			if w.onChange != nil {
				w.onChange(cfg)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			_ = err
		}
	}
}
