// Package webhook implements an event source that accepts JSON events
// over HTTP POST.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/notabot/notabot/pkg/protocol"
)

const (
	readTimeout     = 30 * time.Second
	writeTimeout    = 30 * time.Second
	idleTimeout     = 60 * time.Second
	shutdownTimeout = 5 * time.Second
	maxBodySize     = 1024 * 1024 // 1MB max request body
)

// Source runs an HTTP server with a single event endpoint. A POST with a
// JSON body is enqueued and acknowledged with 202; malformed bodies get
// an RFC 7807 problem response. The server also exposes GET /healthz.
type Source struct {
	addr string
	path string

	app      *fiber.App
	listener net.Listener
	callback protocol.EventCallback
	logger   *slog.Logger
}

// Start binds the listen address and serves in the background. A bind
// failure is returned to the caller and leaves the source not running.
func (s *Source) Start(ctx context.Context, callback protocol.EventCallback) error {
	s.callback = callback

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("webhook source failed to bind %s: %w", s.addr, err)
	}

	s.listener = listener
	s.app = s.buildApp()

	s.logger.Info("Webhook source listening",
		"addr", listener.Addr().String(),
		"path", s.path)

	go func() {
		if err := s.app.Listener(listener, fiber.ListenConfig{
			DisableStartupMessage: true,
		}); err != nil {
			s.logger.Error("Webhook server error", "error", err)
		}
	}()

	return nil
}

// Stop gracefully shuts the HTTP server down.
func (s *Source) Stop(ctx context.Context) error {
	if s.app == nil {
		return nil
	}

	s.logger.Info("Stopping webhook source")

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	return s.app.ShutdownWithContext(shutdownCtx)
}

// Validate checks the source configuration without starting it.
func (s *Source) Validate() error {
	if s.addr == "" {
		return errors.New("webhook source requires an 'addr'")
	}

	if !strings.HasPrefix(s.path, "/") {
		return fmt.Errorf("webhook source path %q must start with '/'", s.path)
	}

	return nil
}

func (s *Source) buildApp() *fiber.App {
	app := fiber.New(fiber.Config{
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
		BodyLimit:    maxBodySize,
	})

	app.Post(s.path, s.handleEvent)
	app.Get("/healthz", s.handleHealth)

	return app
}

func (s *Source) handleEvent(c fiber.Ctx) error {
	var payload any
	if err := json.Unmarshal(c.Body(), &payload); err != nil {
		s.logger.Warn("Rejected webhook request with invalid JSON",
			"remote_addr", c.IP(),
			"error", err)

		return badRequest(c, "request body is not valid JSON: "+err.Error())
	}

	if err := s.callback(c.Context(), payload); err != nil {
		s.logger.Error("Failed to enqueue webhook event", "error", err)

		return internalError(c, err)
	}

	s.logger.Debug("Accepted webhook event", "remote_addr", c.IP())

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "accepted"})
}

func (s *Source) handleHealth(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

var _ protocol.Source = (*Source)(nil)
