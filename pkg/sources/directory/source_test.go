package directory

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startSource(t *testing.T, config map[string]any) chan any {
	t.Helper()

	created, err := NewFactory().Create(config, testLogger())
	require.NoError(t, err)

	source, ok := created.(*Source)
	require.True(t, ok)
	source.tick = 10 * time.Millisecond

	events := make(chan any, 8)
	callback := func(_ context.Context, payload any) error {
		events <- payload

		return nil
	}

	require.NoError(t, source.Start(context.Background(), callback))
	t.Cleanup(func() {
		_ = source.Stop(context.Background())
	})

	return events
}

func waitEvent(t *testing.T, events chan any) any {
	t.Helper()

	select {
	case payload := <-events:
		return payload
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")

		return nil
	}
}

func assertNoEvent(t *testing.T, events chan any) {
	t.Helper()

	select {
	case payload := <-events:
		t.Fatalf("unexpected event: %v", payload)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		want    bool
	}{
		{"event_123.json", "event_*.json", true},
		{"abc", "abc", true},
		{"abc", "abcd", false},
		{"abcd", "abc", false},
		{"axyzd", "a*z*d", true},
		{"ad", "a*z*d", false},
		{"anything.txt", "*", true},
		{"", "*", true},
		{"event.json", "*.json", true},
		{"event.jsonx", "*.json", false},
		{"Event.json", "event*", false},
		{"report-2024-final.csv", "report-*-final.*", true},
	}

	for _, tc := range tests {
		assert.Equalf(t, tc.want, Match(tc.name, tc.pattern),
			"Match(%q, %q)", tc.name, tc.pattern)
	}
}

func TestDirectorySourceDispatchesAndDeletes(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.json")
	second := filepath.Join(dir, "b.json")
	require.NoError(t, os.WriteFile(first, []byte(`{"type":"a"}`), 0o600))
	require.NoError(t, os.WriteFile(second, []byte(`{"type":"b"}`), 0o600))

	events := startSource(t, map[string]any{"path": dir})

	// One file per tick, in lexical discovery order.
	assert.Equal(t, map[string]any{"type": "a"}, waitEvent(t, events))
	assert.Equal(t, map[string]any{"type": "b"}, waitEvent(t, events))

	assert.Eventually(t, func() bool {
		entries, err := os.ReadDir(dir)

		return err == nil && len(entries) == 0
	}, 5*time.Second, 10*time.Millisecond, "dispatched files should be deleted")
}

func TestDirectorySourcePatternFilter(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "event_1.json"), []byte(`{"type":"in"}`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte(`{"type":"out"}`), 0o600))

	events := startSource(t, map[string]any{"path": dir, "pattern": "event_*.json"})

	assert.Equal(t, map[string]any{"type": "in"}, waitEvent(t, events))
	assertNoEvent(t, events)

	// Non-matching files are untouched.
	_, err := os.Stat(filepath.Join(dir, "notes.txt"))
	assert.NoError(t, err)
}

func TestDirectorySourceLeavesMalformedInPlace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"type": nope`), 0o600))

	events := startSource(t, map[string]any{"path": dir})

	assertNoEvent(t, events)

	_, err := os.Stat(path)
	require.NoError(t, err, "unparseable file must stay in place")

	// Fixing the content makes the re-discovered file dispatch.
	require.NoError(t, os.WriteFile(path, []byte(`{"type":"fixed"}`), 0o600))
	assert.Equal(t, map[string]any{"type": "fixed"}, waitEvent(t, events))
}

func TestDirectorySourceRecursive(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.MkdirAll(sub, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "deep.json"), []byte(`{"type":"deep"}`), 0o600))

	events := startSource(t, map[string]any{"path": dir, "recursive": true})
	assert.Equal(t, map[string]any{"type": "deep"}, waitEvent(t, events))
}

func TestDirectorySourceNonRecursiveIgnoresSubdirs(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.MkdirAll(sub, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "deep.json"), []byte(`{"type":"deep"}`), 0o600))

	events := startSource(t, map[string]any{"path": dir})
	assertNoEvent(t, events)
}

func TestFactoryCreateRequiresPath(t *testing.T) {
	_, err := NewFactory().Create(map[string]any{}, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path")
}

func TestFactoryMetadata(t *testing.T) {
	factory := NewFactory()

	assert.Equal(t, "directory", factory.ID())
	assert.NotEmpty(t, factory.Description())
	assert.Equal(t, []string{"path"}, factory.Schema()["required"])
}
