package redis

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFactoryCreateRequiresList(t *testing.T) {
	_, err := NewFactory().Create(map[string]any{}, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list")
}

func TestFactoryDefaults(t *testing.T) {
	created, err := NewFactory().Create(map[string]any{"list": "notabot:events"}, testLogger())
	require.NoError(t, err)

	source, ok := created.(*Source)
	require.True(t, ok)
	assert.Equal(t, defaultAddr, source.addr)
	assert.Equal(t, "notabot:events", source.list)
	assert.Empty(t, source.password)
	assert.Zero(t, source.db)
}

func TestFactoryParsesConnectionSettings(t *testing.T) {
	created, err := NewFactory().Create(map[string]any{
		"addr":     "redis.internal:6380",
		"list":     "jobs",
		"password": "hunter2",
		"db":       float64(3), // JSON numbers decode as float64
	}, testLogger())
	require.NoError(t, err)

	source, ok := created.(*Source)
	require.True(t, ok)
	assert.Equal(t, "redis.internal:6380", source.addr)
	assert.Equal(t, "hunter2", source.password)
	assert.Equal(t, 3, source.db)
}

func TestFactoryMetadata(t *testing.T) {
	factory := NewFactory()

	assert.Equal(t, "redis", factory.ID())
	assert.NotEmpty(t, factory.Description())
	assert.Equal(t, []string{"list"}, factory.Schema()["required"])
}
