// Package file implements an event source that polls a single file path
// for one JSON event.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/notabot/notabot/pkg/protocol"
)

const minPollInterval = 10 * time.Millisecond

// signature is a coarse change detector: file length plus modification
// time truncated to seconds. Good enough to suppress duplicate dispatches
// of an unchanged file without hashing its content.
type signature struct {
	size  int64
	mtime int64
}

// Source polls a file for JSON content. With deleteOnSuccess the file is
// removed after each dispatch and every recreation produces a new event;
// without it the file is dispatched only when its signature changes.
type Source struct {
	path            string
	pollInterval    time.Duration
	deleteOnSuccess bool

	callback protocol.EventCallback
	logger   *slog.Logger
	lastSig  *signature

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// Start launches the polling goroutine.
func (s *Source) Start(ctx context.Context, callback protocol.EventCallback) error {
	s.callback = callback

	s.logger.Info("Starting file source",
		"path", s.path,
		"poll_interval", s.pollInterval,
		"delete_on_success", s.deleteOnSuccess)

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
		return errors.New("file source requires a 'path'")
	}

	return nil
}

func (s *Source) poll(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			s.logger.Info("File source stopped", "path", s.path)

			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.pollOnce(ctx); err != nil {
				s.logger.Error("File source terminating, event dispatch failed",
					"path", s.path,
					"error", err)

				return
			}
		}
	}
}

// pollOnce inspects the file and dispatches its content when warranted.
// A non-nil error means the dispatch callback failed and the source must
// stop; every other problem is logged and retried on the next tick.
func (s *Source) pollOnce(ctx context.Context) error {
	info, err := os.Stat(s.path)
	if err != nil {
		// Missing file is the normal state before a producer writes it.
		return nil
	}

	if !info.Mode().IsRegular() {
		s.logger.Warn("Path exists but is not a regular file", "path", s.path)

		return nil
	}

	sig := signature{size: info.Size(), mtime: info.ModTime().Unix()}
	if !s.deleteOnSuccess && s.lastSig != nil && *s.lastSig == sig {
		return nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		s.logger.Warn("Failed to read file", "path", s.path, "error", err)

		return nil
	}

	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil
	}

	var payload any
	if err := json.Unmarshal([]byte(trimmed), &payload); err != nil {
		s.logger.Warn("Failed to parse file as JSON, will retry",
			"path", s.path,
			"error", err)

		return nil
	}

	if err := s.callback(ctx, payload); err != nil {
		return err
	}

	s.logger.Info("Dispatched event from file",
		"path", s.path,
		"delete_on_success", s.deleteOnSuccess)

	if s.deleteOnSuccess {
		if err := os.Remove(s.path); err != nil {
			s.logger.Warn("Failed to delete file after dispatch",
				"path", s.path,
				"error", err)
		}
	} else {
		s.lastSig = &sig
	}

	return nil
}

var _ protocol.Source = (*Source)(nil)
