package stdin

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startWithInput runs a source over a fixed input and returns the events
// it dispatched before hitting EOF.
func startWithInput(t *testing.T, input string) []any {
	t.Helper()

	source := &Source{
		in:     strings.NewReader(input),
		logger: testLogger(),
		stopCh: make(chan struct{}),
	}

	var events []any

	callback := func(_ context.Context, payload any) error {
		events = append(events, payload)

		return nil
	}

	require.NoError(t, source.Start(context.Background(), callback))

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// EOF on the reader ends the goroutine; Stop just joins it.
	require.NoError(t, source.Stop(stopCtx))

	return events
}

func TestStdinSourceDispatchesLines(t *testing.T) {
	events := startWithInput(t, `{"type":"one"}`+"\n"+`{"type":"two"}`+"\n")

	require.Len(t, events, 2)
	assert.Equal(t, map[string]any{"type": "one"}, events[0])
	assert.Equal(t, map[string]any{"type": "two"}, events[1])
}

func TestStdinSourceSkipsMalformedAndEmptyLines(t *testing.T) {
	input := "\n" +
		"not json\n" +
		"   \n" +
		`{"type":"kept"}` + "\n" +
		"{broken\n"

	events := startWithInput(t, input)

	require.Len(t, events, 1)
	assert.Equal(t, map[string]any{"type": "kept"}, events[0])
}

func TestStdinSourceAcceptsAnyJSONValue(t *testing.T) {
	events := startWithInput(t, "[1,2,3]\n\"plain\"\n42\n")

	require.Len(t, events, 3)
	assert.Equal(t, []any{float64(1), float64(2), float64(3)}, events[0])
	assert.Equal(t, "plain", events[1])
	assert.Equal(t, float64(42), events[2])
}

func TestStdinSourceStopsOnCallbackError(t *testing.T) {
	source := &Source{
		in:     strings.NewReader(`{"type":"a"}` + "\n" + `{"type":"b"}` + "\n"),
		logger: testLogger(),
		stopCh: make(chan struct{}),
	}

	var calls int

	callback := func(_ context.Context, _ any) error {
		calls++

		return io.ErrClosedPipe
	}

	require.NoError(t, source.Start(context.Background(), callback))

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, source.Stop(stopCtx))

	assert.Equal(t, 1, calls, "source must stop after the first dispatch failure")
}

func TestFactoryMetadata(t *testing.T) {
	factory := NewFactory()

	created, err := factory.Create(nil, testLogger())
	require.NoError(t, err)
	assert.NoError(t, created.Validate())

	assert.Equal(t, "stdin", factory.ID())
	assert.Empty(t, factory.Schema()["required"])
}
