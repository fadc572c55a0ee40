package main

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notabot/notabot/pkg/config"
	"github.com/notabot/notabot/pkg/eventbus"
	"github.com/notabot/notabot/pkg/events"
	"github.com/notabot/notabot/pkg/models"
	"github.com/notabot/notabot/pkg/runtime"
)

// recordingProvider captures effect calls instead of executing them.
type recordingProvider struct {
	calls []string
}

func (p *recordingProvider) record(call string) error {
	p.calls = append(p.calls, call)

	return nil
}

func (p *recordingProvider) MoveTo(_ context.Context, x, y int) error {
	return p.record(fmt.Sprintf("move %d,%d", x, y))
}

func (p *recordingProvider) Click(_ context.Context, button models.MouseButton, count int) error {
	return p.record(fmt.Sprintf("click %s x%d", button, count))
}

func (p *recordingProvider) Scroll(_ context.Context, deltaX, deltaY int) error {
	return p.record(fmt.Sprintf("scroll %d,%d", deltaX, deltaY))
}

func (p *recordingProvider) SendKeys(_ context.Context, text string) error {
	return p.record("keys " + text)
}

func (p *recordingProvider) TypeText(_ context.Context, text string) error {
	return p.record("type " + text)
}

func (p *recordingProvider) Sleep(_ context.Context, ms int64) error {
	return p.record(fmt.Sprintf("sleep %dms", ms))
}

func (p *recordingProvider) FocusWindow(_ context.Context, titleContains string) (bool, error) {
	return true, p.record("focus " + titleContains)
}

func (p *recordingProvider) OcrCheck(_ context.Context, _ *models.Rect, mustContain string) (bool, error) {
	return true, p.record("ocr " + mustContain)
}

func (p *recordingProvider) CaptureScreen(_ context.Context, path string, _ *models.Rect) error {
	return p.record("capture " + path)
}

const dispatchConfig = `{
  "workflows": {
    "notify": [
      {
        "type": "conditional",
        "when": "{{status}}",
        "equals": "ok",
        "then": {"type": "mouse_move", "x": 1, "y": 1},
        "else": {"type": "type_text", "text": "investigate {{status}}"}
      }
    ]
  },
  "events": {
    "build_done": {"workflow": "notify", "vars_map": {"status": "status"}}
  }
}`

// One dispatcher, a mix of good and droppable events. Publish is ack-gated,
// so each publish returns only after the event has been routed, run and
// acked; the call log proves both ordering and that drops never abort the
// loop.
func TestDispatcherEndToEnd(t *testing.T) {
	logger := testLogger()

	cfg, err := config.Parse([]byte(dispatchConfig))
	require.NoError(t, err)

	provider := &recordingProvider{}
	rt := runtime.NewRuntime(cfg, provider, logger)

	queue := eventbus.NewQueue(4, logger)

	messages, err := queue.Subscribe(context.Background())
	require.NoError(t, err)

	done := make(chan struct{})

	go func() {
		defer close(done)

		NewDispatcher(rt, logger).Run(context.Background(), messages)
	}()

	publish := func(payload any) {
		t.Helper()

		publishErr := queue.Publish(context.Background(), events.NewSourceEvent("test-1", "test", payload))
		require.NoError(t, publishErr)
	}

	publish(map[string]any{"type": "build_done", "status": "ok"})
	publish(map[string]any{"type": "build_done", "status": "broken"})
	publish(map[string]any{"kind": "no type field"})
	publish(map[string]any{"type": "unbound_event"})
	publish(map[string]any{"type": "build_done", "status": "ok"})

	require.NoError(t, queue.Close())
	<-done

	assert.Equal(t, []string{
		"move 1,1",
		"type investigate broken",
		"move 1,1",
	}, provider.calls)
}

// A workflow failure aborts that run only; the dispatcher keeps consuming.
func TestDispatcherSurvivesRunFailure(t *testing.T) {
	logger := testLogger()

	cfg, err := config.Parse([]byte(`{
	  "workflows": {
	    "broken": [{"type": "ref", "name": "gone"}],
	    "fine":   [{"type": "mouse_move", "x": 2, "y": 3}]
	  },
	  "actions": {"gone": {"type": "log", "level": "info", "message": "placeholder"}},
	  "events": {
	    "bad":  {"workflow": "broken"},
	    "good": {"workflow": "fine"}
	  }
	}`))
	require.NoError(t, err)

	// Emptying the actions table after load leaves a dangling ref, the
	// cheapest way to make a run fail mid-workflow.
	cfg.Actions = models.NamedActions{}

	provider := &recordingProvider{}
	rt := runtime.NewRuntime(cfg, provider, logger)

	queue := eventbus.NewQueue(2, logger)

	messages, err := queue.Subscribe(context.Background())
	require.NoError(t, err)

	done := make(chan struct{})

	go func() {
		defer close(done)

		NewDispatcher(rt, logger).Run(context.Background(), messages)
	}()

	for _, payload := range []map[string]any{
		{"type": "bad"},
		{"type": "good"},
	} {
		require.NoError(t, queue.Publish(context.Background(), events.NewSourceEvent("test-1", "test", payload)))
	}

	require.NoError(t, queue.Close())
	<-done

	assert.Equal(t, []string{"move 2,3"}, provider.calls)
}
