package main

import (
	"context"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notabot/notabot/pkg/cmd"
	"github.com/notabot/notabot/pkg/eventbus"
	"github.com/notabot/notabot/pkg/events"
	"github.com/notabot/notabot/pkg/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// collectEvents subscribes to the queue and acks everything, exposing the
// decoded envelopes. Must be called before any source starts publishing.
func collectEvents(t *testing.T, queue *eventbus.Queue) <-chan *events.SourceEvent {
	t.Helper()

	messages, err := queue.Subscribe(context.Background())
	require.NoError(t, err)

	eventCh := make(chan *events.SourceEvent, 16)

	go func() {
		defer close(eventCh)

		for msg := range messages {
			event, decodeErr := eventbus.Decode(msg)
			msg.Ack()

			if decodeErr == nil {
				eventCh <- event
			}
		}
	}()

	return eventCh
}

func waitEvent(t *testing.T, eventCh <-chan *events.SourceEvent) *events.SourceEvent {
	t.Helper()

	select {
	case event := <-eventCh:
		return event
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")

		return nil
	}
}

func TestEventCallbackPublishesEnvelope(t *testing.T) {
	logger := testLogger()
	queue := eventbus.NewQueue(2, logger)

	t.Cleanup(func() { _ = queue.Close() })

	eventCh := collectEvents(t, queue)

	manager := NewSourceManager(cmd.NewRegistry(logger), queue, logger)
	callback := manager.eventCallback("file-ab12cd34", "file")

	payload := map[string]any{"type": "report_ready", "path": "/tmp/report.pdf"}
	require.NoError(t, callback(context.Background(), payload))

	event := waitEvent(t, eventCh)
	assert.Equal(t, "file-ab12cd34", event.SourceID)
	assert.Equal(t, "file", event.SourceType)
	assert.Equal(t, "report_ready", event.EventType())
	assert.False(t, event.ReceivedAt.IsZero())

	obj, ok := event.Payload.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "/tmp/report.pdf", obj["path"])
}

// ErrClosed must surface to the source unwrapped: it is the termination
// signal for its read loop.
func TestEventCallbackAfterClose(t *testing.T) {
	logger := testLogger()
	queue := eventbus.NewQueue(2, logger)

	_ = collectEvents(t, queue)
	require.NoError(t, queue.Close())

	manager := NewSourceManager(cmd.NewRegistry(logger), queue, logger)
	callback := manager.eventCallback("tcp-12345678", "tcp")

	err := callback(context.Background(), map[string]any{"type": "late"})
	require.ErrorIs(t, err, eventbus.ErrClosed)
}

func TestCreateAllUnknownType(t *testing.T) {
	logger := testLogger()
	queue := eventbus.NewQueue(2, logger)

	t.Cleanup(func() { _ = queue.Close() })

	manager := NewSourceManager(cmd.NewRegistry(logger), queue, logger)

	err := manager.CreateAll([]models.SourceConfig{
		{Type: "carrier_pigeon", Config: map[string]any{}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}

func TestCreateAllFactoryValidation(t *testing.T) {
	logger := testLogger()
	queue := eventbus.NewQueue(2, logger)

	t.Cleanup(func() { _ = queue.Close() })

	manager := NewSourceManager(cmd.NewRegistry(logger), queue, logger)

	// file source without its required path
	err := manager.CreateAll([]models.SourceConfig{
		{Type: "file", Config: map[string]any{}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `source "file"`)
}

func TestManagerLifecycleWithFileSource(t *testing.T) {
	logger := testLogger()
	queue := eventbus.NewQueue(2, logger)

	t.Cleanup(func() { _ = queue.Close() })

	eventCh := collectEvents(t, queue)

	path := filepath.Join(t.TempDir(), "event.json")

	manager := NewSourceManager(cmd.NewRegistry(logger), queue, logger)
	require.NoError(t, manager.CreateAll([]models.SourceConfig{
		{Type: "file", Config: map[string]any{"path": path, "poll_ms": 10}},
	}))

	manager.StartAll(context.Background())

	require.NoError(t, os.WriteFile(path, []byte(`{"type":"ping"}`), 0o600))

	event := waitEvent(t, eventCh)
	assert.Equal(t, "file", event.SourceType)
	assert.True(t, strings.HasPrefix(event.SourceID, "file-"), "got source_id %q", event.SourceID)
	assert.Equal(t, "ping", event.EventType())

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	manager.StopAll(stopCtx)
}

// One broken source must not keep the rest from starting.
func TestStartAllContinuesPastFailedSource(t *testing.T) {
	logger := testLogger()

	blocker, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	t.Cleanup(func() { _ = blocker.Close() })

	queue := eventbus.NewQueue(2, logger)

	t.Cleanup(func() { _ = queue.Close() })

	eventCh := collectEvents(t, queue)

	path := filepath.Join(t.TempDir(), "event.json")

	manager := NewSourceManager(cmd.NewRegistry(logger), queue, logger)
	require.NoError(t, manager.CreateAll([]models.SourceConfig{
		{Type: "tcp", Config: map[string]any{"bind": blocker.Addr().String()}},
		{Type: "file", Config: map[string]any{"path": path, "poll_ms": 10}},
	}))

	manager.StartAll(context.Background())

	require.NoError(t, os.WriteFile(path, []byte(`{"type":"still_alive"}`), 0o600))

	event := waitEvent(t, eventCh)
	assert.Equal(t, "still_alive", event.EventType())

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	manager.StopAll(stopCtx)
}
