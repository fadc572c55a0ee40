// Package directory implements an event source that polls a directory for
// JSON event files, dispatching and deleting them one per tick.
package directory

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/notabot/notabot/pkg/protocol"
)

// tickInterval is fixed rather than configurable: processing one file per
// tick at this rate smooths bursts without noticeable latency.
const tickInterval = 400 * time.Millisecond

// Source polls a directory for event files. Discovered paths enter a FIFO
// queue guarded by a membership set, so a file is never enqueued twice
// while pending. Deleting a dispatched file is the acknowledgement; a
// file that fails to parse is left in place and re-discovered later.
type Source struct {
	path      string
	pattern   string
	recursive bool
	tick      time.Duration

	callback protocol.EventCallback
	logger   *slog.Logger

	// pending and enqueued are owned by the poll goroutine.
	pending  []string
	enqueued map[string]struct{}

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// Start launches the polling goroutine.
func (s *Source) Start(ctx context.Context, callback protocol.EventCallback) error {
	s.callback = callback

	s.logger.Info("Starting directory source",
		"path", s.path,
		"pattern", s.pattern,
		"recursive", s.recursive)

	s.wg.Add(1)

	go s.poll(ctx)

	return nil
}

// Stop terminates the polling goroutine and waits for it to join.
func (s *Source) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})

	done := make(chan struct{})

	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Validate checks the source configuration without starting it.
func (s *Source) Validate() error {
	if s.path == "" {
		return errors.New("directory source requires a 'path'")
	}

	return nil
}

func (s *Source) poll(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			s.logger.Info("Directory source stopped", "path", s.path)

			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.discover()

			if err := s.processNext(ctx); err != nil {
				s.logger.Error("Directory source terminating, event dispatch failed",
					"path", s.path,
					"error", err)

				return
			}
		}
	}
}

// discover appends newly seen files to the pending queue in lexical order.
func (s *Source) discover() {
	var names []string

	if s.recursive {
		err := filepath.WalkDir(s.path, func(p string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if entry.Type().IsRegular() {
				names = append(names, p)
			}

			return nil
		})
		if err != nil {
			s.logger.Warn("Failed to walk directory", "path", s.path, "error", err)

			return
		}
	} else {
		entries, err := os.ReadDir(s.path)
		if err != nil {
			s.logger.Warn("Failed to read directory", "path", s.path, "error", err)

			return
		}

		for _, entry := range entries {
			if entry.Type().IsRegular() {
				names = append(names, filepath.Join(s.path, entry.Name()))
			}
		}
	}

	for _, name := range names {
		if s.pattern != "" && !Match(filepath.Base(name), s.pattern) {
			continue
		}

		if _, ok := s.enqueued[name]; ok {
			continue
		}

		s.enqueued[name] = struct{}{}
		s.pending = append(s.pending, name)
	}
}

// processNext handles at most one pending file. A non-nil error means the
// dispatch callback failed and the source must stop; everything else is
// logged and the file is released for a later retry.
func (s *Source) processNext(ctx context.Context) error {
	if len(s.pending) == 0 {
		return nil
	}

	name := s.pending[0]
	s.pending = s.pending[1:]

	data, err := os.ReadFile(name)
	if err != nil {
		s.logger.Warn("Failed to read event file", "file", name, "error", err)
		delete(s.enqueued, name)

		return nil
	}

	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		delete(s.enqueued, name)

		return nil
	}

	var payload any
	if err := json.Unmarshal([]byte(trimmed), &payload); err != nil {
		s.logger.Warn("Failed to parse event file as JSON, leaving in place",
			"file", name,
			"error", err)
		delete(s.enqueued, name)

		return nil
	}

	if err := s.callback(ctx, payload); err != nil {
		return err
	}

	s.logger.Info("Dispatched event from directory", "file", name)

	// Deleting the file acknowledges it. Keep the membership entry when
	// deletion fails so the leftover file is not dispatched again.
	if err := os.Remove(name); err != nil {
		s.logger.Warn("Failed to delete event file after dispatch",
			"file", name,
			"error", err)

		return nil
	}

	delete(s.enqueued, name)

	return nil
}

var _ protocol.Source = (*Source)(nil)
