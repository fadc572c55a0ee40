// Package schedule implements a cron-driven event source that fabricates
// events instead of ingesting them, so recurring workflows need no
// external producer.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/notabot/notabot/pkg/protocol"
)

// Source fires a synthetic event on a cron schedule. The event is the
// configured payload plus a "type" field and a "fired_at" timestamp.
type Source struct {
	cronExpr  string
	eventType string
	payload   map[string]any

	cron     *cron.Cron
	callback protocol.EventCallback
	logger   *slog.Logger
}

// Start registers the cron entry and starts the scheduler.
func (s *Source) Start(ctx context.Context, callback protocol.EventCallback) error {
	s.callback = callback

	s.logger.Info("Starting schedule source",
		"cron", s.cronExpr,
		"event_type", s.eventType)

	// SkipIfStillRunning keeps a tick that is blocked on a full queue
	// from stacking up behind itself.
	s.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))

	if _, err := s.cron.AddFunc(s.cronExpr, func() { s.fire(ctx) }); err != nil {
		return fmt.Errorf("failed to add cron entry: %w", err)
	}

	s.cron.Start()

	return nil
}

// Stop halts the scheduler and waits for a running fire to finish.
func (s *Source) Stop(ctx context.Context) error {
	if s.cron == nil {
		return nil
	}

	s.logger.Info("Stopping schedule source")

	stopCtx := s.cron.Stop()

	select {
	case <-stopCtx.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Validate checks the source configuration without starting it.
func (s *Source) Validate() error {
	if s.cronExpr == "" {
		return errors.New("schedule source requires a 'cron' expression")
	}

	if _, err := cron.ParseStandard(s.cronExpr); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", s.cronExpr, err)
	}

	return nil
}

func (s *Source) fire(ctx context.Context) {
	event := s.buildEvent(time.Now().UTC())

	if err := s.callback(ctx, event); err != nil {
		s.logger.Error("Failed to dispatch scheduled event",
			"event_type", s.eventType,
			"error", err)

		return
	}

	s.logger.Debug("Dispatched scheduled event", "event_type", s.eventType)
}

// buildEvent merges the configured payload under the reserved "type" and
// "fired_at" fields, which always win over payload keys.
func (s *Source) buildEvent(firedAt time.Time) map[string]any {
	event := make(map[string]any, len(s.payload)+2)

	for k, v := range s.payload {
		event[k] = v
	}

	event["type"] = s.eventType
	event["fired_at"] = firedAt.Format(time.RFC3339)

	return event
}

var _ protocol.Source = (*Source)(nil)
