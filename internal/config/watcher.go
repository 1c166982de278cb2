package config

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher reloads the config file when it changes on disk, so edits made
// from the history window (microphone selection in particular) take effect
// without a restart. The directory is watched rather than the file because
// editors and the UI replace the file atomically.
type Watcher struct {
	fw  *fsnotify.Watcher
	log zerolog.Logger
}

// Watch invokes onChange with the freshly loaded config after every change
// to the config file. Callbacks run on the watcher goroutine.
func Watch(onChange func(*Config), log zerolog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create config watcher: %w", err)
	}

	path := Path()
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch config dir: %w", err)
	}

	w := &Watcher{fw: fw, log: log}
	go w.loop(path, onChange)
	return w, nil
}

func (w *Watcher) loop(path string, onChange func(*Config)) {
	for {
		select {
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if ev.Name != path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			cfg, err := Load()
			if err != nil {
				w.log.Warn().Err(err).Msg("Ignoring unreadable config change")
				continue
			}
			w.log.Debug().Msg("Config file changed, reloading")
			onChange(cfg)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("Config watcher error")
		}
	}
}

func (w *Watcher) Close() error {
	return w.fw.Close()
}
