package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/notabot/notabot/pkg/eventbus"
	"github.com/notabot/notabot/pkg/events"
	"github.com/notabot/notabot/pkg/metrics"
	"github.com/notabot/notabot/pkg/models"
	"github.com/notabot/notabot/pkg/protocol"
	"github.com/notabot/notabot/pkg/registry"
)

// SourceManager owns the lifecycle of every configured source: it builds
// them from their config blocks, starts them against the shared queue and
// stops them all on shutdown.
type SourceManager struct {
	registry *registry.Registry
	queue    *eventbus.Queue
	logger   *slog.Logger

	sourceMutex sync.Mutex
	sources     []*sourceInstance
}

type sourceInstance struct {
	id         string
	sourceType string
	source     protocol.Source
	started    bool
}

func NewSourceManager(reg *registry.Registry, queue *eventbus.Queue, logger *slog.Logger) *SourceManager {
	return &SourceManager{
		registry: reg,
		queue:    queue,
		logger:   logger.With("module", "source-manager"),
	}
}

// CreateAll instantiates every configured source. Any factory or validation
// failure aborts startup: a bot with a broken source definition should not
// come up half-configured.
func (m *SourceManager) CreateAll(configs []models.SourceConfig) error {
	for _, sourceConfig := range configs {
		source, err := m.registry.CreateSource(sourceConfig.Type, sourceConfig.Config)
		if err != nil {
			return fmt.Errorf("source %q: %w", sourceConfig.Type, err)
		}

		instance := &sourceInstance{
			id:         fmt.Sprintf("%s-%s", sourceConfig.Type, uuid.New().String()[:8]),
			sourceType: sourceConfig.Type,
			source:     source,
		}

		m.sourceMutex.Lock()
		m.sources = append(m.sources, instance)
		m.sourceMutex.Unlock()

		m.logger.Info("Created source", "source_id", instance.id, "source_type", instance.sourceType)
	}

	return nil
}

// StartAll starts every created source. A source that fails to start (port
// already taken, broker unreachable) is logged and skipped; the remaining
// sources keep the bot useful.
func (m *SourceManager) StartAll(ctx context.Context) {
	m.sourceMutex.Lock()
	defer m.sourceMutex.Unlock()

	started := 0

	for _, instance := range m.sources {
		callback := m.eventCallback(instance.id, instance.sourceType)

		if err := instance.source.Start(ctx, callback); err != nil {
			m.logger.Error("Failed to start source",
				"source_id", instance.id,
				"source_type", instance.sourceType,
				"error", err)

			continue
		}

		instance.started = true
		started++

		m.logger.Info("Started source", "source_id", instance.id, "source_type", instance.sourceType)
	}

	m.logger.Info("Sources running", "started", started, "configured", len(m.sources))
}

// StopAll stops every started source, blocking until their goroutines have
// joined or ctx expires.
func (m *SourceManager) StopAll(ctx context.Context) {
	m.sourceMutex.Lock()
	defer m.sourceMutex.Unlock()

	for _, instance := range m.sources {
		if !instance.started {
			continue
		}

		m.logger.Info("Stopping source", "source_id", instance.id)

		if err := instance.source.Stop(ctx); err != nil {
			m.logger.Error("Error stopping source",
				"source_id", instance.id,
				"source_type", instance.sourceType,
				"error", err)
		}
	}

	m.sources = nil
	m.logger.Info("All sources stopped")
}

// eventCallback builds the publish callback for one source instance. The
// callback runs synchronously inside the source's read loop, so a full
// queue blocks the source and backpressure reaches the producer.
func (m *SourceManager) eventCallback(sourceID, sourceType string) protocol.EventCallback {
	logger := m.logger.With("source_id", sourceID, "source_type", sourceType)

	return func(ctx context.Context, payload any) error {
		event := events.NewSourceEvent(sourceID, sourceType, payload)

		if err := m.queue.Publish(ctx, event); err != nil {
			if errors.Is(err, eventbus.ErrClosed) {
				return err
			}

			logger.Error("Failed to enqueue source event", "error", err)

			return err
		}

		metrics.EventsIngested.WithLabelValues(sourceType).Inc()
		logger.Debug("Event enqueued", "event_type", event.EventType())

		return nil
	}
}
