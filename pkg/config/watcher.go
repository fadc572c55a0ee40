package config

import (
	"fmt"
	"log/slog"

	"github.com/fsnotify/fsnotify"

	"github.com/notabot/notabot/pkg/models"
)

// Watch reloads the config file whenever it changes, invoking onReload with
// each successfully validated configuration. A config that fails to load is
// logged and skipped, keeping the previous one active. The returned stop
// function shuts the watcher down.
func Watch(path string, logger *slog.Logger, onReload func(*models.Config)) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create config watcher: %w", err)
	}

	if err := watcher.Add(path); err != nil {
		_ = watcher.Close()

		return nil, fmt.Errorf("failed to watch %s: %w", path, err)
	}

	done := make(chan struct{})

	go func() {
		defer func() { _ = watcher.Close() }()

		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}

				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}

				config, err := Load(path)
				if err != nil {
					logger.Error("Config reload failed, keeping previous configuration", "error", err)

					continue
				}

				logger.Info("Config file changed, reloading", "path", path)
				onReload(config)

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}

				logger.Warn("Config watcher error", "error", err)

			case <-done:
				return
			}
		}
	}()

	return func() { close(done) }, nil
}
