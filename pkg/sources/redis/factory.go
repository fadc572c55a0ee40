package redis

import (
	"log/slog"

	"github.com/notabot/notabot/pkg/protocol"
	"github.com/notabot/notabot/pkg/sources"
)

const defaultAddr = "localhost:6379"

// Factory creates redis source instances.
type Factory struct{}

// NewFactory creates a new redis source factory.
func NewFactory() *Factory {
	return &Factory{}
}

// Create instantiates a redis source from its raw configuration.
func (f *Factory) Create(config map[string]any, logger *slog.Logger) (protocol.Source, error) {
	source := &Source{
		addr:     sources.StringValue(config, "addr", defaultAddr),
		list:     sources.StringValue(config, "list", ""),
		password: sources.StringValue(config, "password", ""),
		db:       sources.IntValue(config, "db", 0),
		logger:   logger.With("module", "redis_source"),
		stopCh:   make(chan struct{}),
	}

	if err := source.Validate(); err != nil {
		return nil, err
	}

	return source, nil
}

// ID returns the source type discriminator.
func (f *Factory) ID() string {
	return "redis"
}

// Name returns a human-readable name for this source type.
func (f *Factory) Name() string {
	return "Redis"
}

// Description returns a short description of what this source does.
func (f *Factory) Description() string {
	return "Pops JSON events off a Redis list with BLPOP. Popping acknowledges the " +
		"element, so malformed elements are logged and dropped."
}

// Schema returns a JSON Schema describing the configuration keys.
func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"addr": map[string]any{
				"type":        "string",
				"description": "Redis server address (default: \"localhost:6379\")",
				"default":     defaultAddr,
			},
			"list": map[string]any{
				"type":        "string",
				"description": "List key to consume (e.g. \"notabot:events\")",
			},
			"password": map[string]any{
				"type":        "string",
				"description": "Optional AUTH password",
			},
			"db": map[string]any{
				"type":        "integer",
				"description": "Database number (default: 0)",
				"default":     0,
			},
		},
		"required":             []string{"list"},
		"additionalProperties": false,
		"description":          "Redis list source configuration.",
	}
}

// Ensure interface compliance.
var _ protocol.SourceFactory = (*Factory)(nil)
