// Package tcp implements an event source speaking newline-delimited JSON
// over a listening socket.
package tcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/notabot/notabot/pkg/protocol"
)

// maxLineSize bounds a single NDJSON line; longer lines abort the
// connection instead of growing the scanner buffer unboundedly.
const maxLineSize = 1024 * 1024

// Source accepts TCP connections and reads one JSON value per line from
// each. Every connection gets its own goroutine; lines from one
// connection are dispatched in arrival order. There is no authentication
// or encryption, so the listener belongs on a trusted network only.
type Source struct {
	bind string
	ack  bool

	callback protocol.EventCallback
	logger   *slog.Logger
	listener net.Listener

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// Start binds the listening socket and launches the accept loop. A bind
// failure is returned to the caller and leaves the source not running.
func (s *Source) Start(ctx context.Context, callback protocol.EventCallback) error {
	s.callback = callback

	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("tcp source failed to bind %s: %w", s.bind, err)
	}

	s.listener = listener
	s.logger.Info("TCP source listening", "addr", listener.Addr().String(), "ack", s.ack)

	s.wg.Add(1)

	go s.acceptLoop(ctx)

	return nil
}

// Stop closes the listener and every open connection, then waits for the
// connection goroutines to join.
func (s *Source) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})

	if s.listener != nil {
		_ = s.listener.Close()
	}

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
	if s.bind == "" {
		return errors.New("tcp source requires a 'bind' address")
	}

	return nil
}

func (s *Source) acceptLoop(ctx context.Context) {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.stopCh:
				return
			default:
			}

			if errors.Is(err, net.ErrClosed) {
				return
			}

			s.logger.Warn("Failed to accept connection", "error", err)

			continue
		}

		s.logger.Debug("Accepted connection", "remote_addr", conn.RemoteAddr().String())

		s.wg.Add(1)

		go s.handleConn(ctx, conn)
	}
}

func (s *Source) handleConn(ctx context.Context, conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	// Reads on conn have no deadline, so a watcher unblocks them by
	// closing the connection when the source shuts down.
	connDone := make(chan struct{})
	defer close(connDone)

	go func() {
		select {
		case <-s.stopCh:
			_ = conn.Close()
		case <-ctx.Done():
			_ = conn.Close()
		case <-connDone:
		}
	}()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var payload any
		if err := json.Unmarshal(line, &payload); err != nil {
			s.logger.Warn("Failed to parse line as JSON",
				"remote_addr", conn.RemoteAddr().String(),
				"error", err)
			s.respond(conn, "ERROR "+err.Error())

			continue
		}

		if err := s.callback(ctx, payload); err != nil {
			s.logger.Error("Closing connection, event dispatch failed",
				"remote_addr", conn.RemoteAddr().String(),
				"error", err)

			return
		}

		s.respond(conn, "OK")
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		s.logger.Warn("Connection read error",
			"remote_addr", conn.RemoteAddr().String(),
			"error", err)
	}
}

// respond writes one acknowledgement line. Write failures are ignored:
// the protocol keeps serving a connection even when the peer stopped
// reading its acks.
func (s *Source) respond(conn net.Conn, line string) {
	if !s.ack {
		return
	}

	_, _ = conn.Write([]byte(line + "\n"))
}

var _ protocol.Source = (*Source)(nil)
