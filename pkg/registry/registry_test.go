package registry

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notabot/notabot/pkg/protocol"
)

type stubSource struct{}

func (s *stubSource) Start(_ context.Context, _ protocol.EventCallback) error { return nil }
func (s *stubSource) Stop(_ context.Context) error                            { return nil }
func (s *stubSource) Validate() error                                         { return nil }

type stubFactory struct {
	id         string
	lastConfig map[string]any
}

func (f *stubFactory) Create(config map[string]any, _ *slog.Logger) (protocol.Source, error) {
	f.lastConfig = config

	return &stubSource{}, nil
}

func (f *stubFactory) ID() string             { return f.id }
func (f *stubFactory) Name() string           { return f.id }
func (f *stubFactory) Description() string    { return "stub source for tests" }
func (f *stubFactory) Schema() map[string]any { return map[string]any{"type": "object"} }

func newTestRegistry() *Registry {
	return NewRegistry(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRegistryCreateSource(t *testing.T) {
	reg := newTestRegistry()
	factory := &stubFactory{id: "file"}
	reg.RegisterSource(factory)

	config := map[string]any{"path": "/tmp/event.json"}

	source, err := reg.CreateSource("file", config)
	require.NoError(t, err)
	assert.NotNil(t, source)
	assert.Equal(t, config, factory.lastConfig)
}

func TestRegistryCreateSourceUnknownType(t *testing.T) {
	reg := newTestRegistry()

	_, err := reg.CreateSource("carrier-pigeon", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source type 'carrier-pigeon' not registered")
}

func TestRegistrySourceIDsSorted(t *testing.T) {
	reg := newTestRegistry()
	reg.RegisterSource(&stubFactory{id: "tcp"})
	reg.RegisterSource(&stubFactory{id: "file"})
	reg.RegisterSource(&stubFactory{id: "stdin"})

	assert.Equal(t, []string{"file", "stdin", "tcp"}, reg.SourceIDs())
}

func TestRegistrySourceFactory(t *testing.T) {
	reg := newTestRegistry()
	reg.RegisterSource(&stubFactory{id: "redis"})

	factory, ok := reg.SourceFactory("redis")
	require.True(t, ok)
	assert.Equal(t, "redis", factory.ID())

	_, ok = reg.SourceFactory("kafka")
	assert.False(t, ok)
}
