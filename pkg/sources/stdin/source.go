// Package stdin implements an event source reading newline-delimited JSON
// from the process's standard input, mainly for shell pipelines:
//
//	echo '{"type":"send_text","text":"Hi"}' | notabot --config config/default.json
package stdin

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"

	"github.com/notabot/notabot/pkg/protocol"
)

const maxLineSize = 1024 * 1024

// Source reads one JSON value per line until end-of-stream. Malformed
// lines are logged and skipped; EOF ends the source without affecting the
// rest of the process.
type Source struct {
	in io.Reader

	callback protocol.EventCallback
	logger   *slog.Logger

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// Start launches the line-reading goroutine.
func (s *Source) Start(ctx context.Context, callback protocol.EventCallback) error {
	s.callback = callback

	s.logger.Info("Starting stdin source")

	s.wg.Add(1)

	go s.readLoop(ctx)

	return nil
}

// Stop signals the reader to finish. A goroutine blocked on a read from
// a real stdin cannot be interrupted, so the wait is bounded by ctx; the
// process exit closes the descriptor regardless.
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
	return nil
}

func (s *Source) readLoop(ctx context.Context) {
	defer s.wg.Done()

	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var payload any
		if err := json.Unmarshal(line, &payload); err != nil {
			s.logger.Warn("Failed to parse stdin line as JSON",
				"line", string(line),
				"error", err)

			continue
		}

		if err := s.callback(ctx, payload); err != nil {
			s.logger.Error("Stdin source terminating, event dispatch failed", "error", err)

			return
		}
	}

	if err := scanner.Err(); err != nil {
		s.logger.Warn("Error reading stdin", "error", err)

		return
	}

	s.logger.Info("EOF on stdin, source finished")
}

var _ protocol.Source = (*Source)(nil)
