package tcp

import (
	"log/slog"

	"github.com/notabot/notabot/pkg/protocol"
	"github.com/notabot/notabot/pkg/sources"
)

// Factory creates TCP source instances.
type Factory struct{}

// NewFactory creates a new TCP source factory.
func NewFactory() *Factory {
	return &Factory{}
}

// Create instantiates a TCP source from its raw configuration.
func (f *Factory) Create(config map[string]any, logger *slog.Logger) (protocol.Source, error) {
	source := &Source{
		bind:   sources.StringValue(config, "bind", ""),
		ack:    sources.BoolValue(config, "ack", true),
		logger: logger.With("module", "tcp_source"),
		stopCh: make(chan struct{}),
	}

	if err := source.Validate(); err != nil {
		return nil, err
	}

	return source, nil
}

// ID returns the source type discriminator.
func (f *Factory) ID() string {
	return "tcp"
}

// Name returns a human-readable name for this source type.
func (f *Factory) Name() string {
	return "TCP"
}

// Description returns a short description of what this source does.
func (f *Factory) Description() string {
	return "Listens on a TCP address for newline-delimited JSON events. Each line is " +
		"parsed independently and acknowledged with 'OK' or 'ERROR <reason>' when " +
		"acknowledgements are enabled. Intended for trusted networks only."
}

// Schema returns a JSON Schema describing the configuration keys.
func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"bind": map[string]any{
				"type":        "string",
				"description": "Listen address (e.g. \"127.0.0.1:7777\")",
			},
			"ack": map[string]any{
				"type":        "boolean",
				"description": "Write an OK/ERROR acknowledgement line per received line (default: true)",
				"default":     true,
			},
		},
		"required":             []string{"bind"},
		"additionalProperties": false,
		"description":          "Newline-delimited JSON over TCP source configuration.",
	}
}

// Ensure interface compliance.
var _ protocol.SourceFactory = (*Factory)(nil)
