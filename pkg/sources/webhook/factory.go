package webhook

import (
	"log/slog"

	"github.com/notabot/notabot/pkg/protocol"
	"github.com/notabot/notabot/pkg/sources"
)

const (
	defaultAddr = ":8085"
	defaultPath = "/events"
)

// Factory creates webhook source instances.
type Factory struct{}

// NewFactory creates a new webhook source factory.
func NewFactory() *Factory {
	return &Factory{}
}

// Create instantiates a webhook source from its raw configuration.
func (f *Factory) Create(config map[string]any, logger *slog.Logger) (protocol.Source, error) {
	source := &Source{
		addr:   sources.StringValue(config, "addr", defaultAddr),
		path:   sources.StringValue(config, "path", defaultPath),
		logger: logger.With("module", "webhook_source"),
	}

	if err := source.Validate(); err != nil {
		return nil, err
	}

	return source, nil
}

// ID returns the source type discriminator.
func (f *Factory) ID() string {
	return "webhook"
}

// Name returns a human-readable name for this source type.
func (f *Factory) Name() string {
	return "Webhook"
}

// Description returns a short description of what this source does.
func (f *Factory) Description() string {
	return "Accepts JSON events over HTTP POST, acknowledging each accepted event " +
		"with status 202. Malformed bodies are rejected with an RFC 7807 problem " +
		"response. Also serves GET /healthz."
}

// Schema returns a JSON Schema describing the configuration keys.
func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"addr": map[string]any{
				"type":        "string",
				"description": "Listen address (default: \":8085\")",
				"default":     defaultAddr,
			},
			"path": map[string]any{
				"type":        "string",
				"description": "Path accepting POSTed events (default: \"/events\")",
				"default":     defaultPath,
			},
		},
		"required":             []string{},
		"additionalProperties": false,
		"description":          "HTTP webhook source configuration.",
	}
}

// Ensure interface compliance.
var _ protocol.SourceFactory = (*Factory)(nil)
