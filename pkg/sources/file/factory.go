package file

import (
	"log/slog"
	"time"

	"github.com/notabot/notabot/pkg/protocol"
	"github.com/notabot/notabot/pkg/sources"
)

const defaultPollMs = 100

// Factory creates file source instances.
type Factory struct{}

// NewFactory creates a new file source factory.
func NewFactory() *Factory {
	return &Factory{}
}

// Create instantiates a file source from its raw configuration.
func (f *Factory) Create(config map[string]any, logger *slog.Logger) (protocol.Source, error) {
	pollInterval := time.Duration(sources.IntValue(config, "poll_ms", defaultPollMs)) * time.Millisecond
	if pollInterval < minPollInterval {
		pollInterval = minPollInterval
	}

	source := &Source{
		path:            sources.StringValue(config, "path", ""),
		pollInterval:    pollInterval,
		deleteOnSuccess: sources.BoolValue(config, "delete_on_success", false),
		logger:          logger.With("module", "file_source"),
		stopCh:          make(chan struct{}),
	}

	if err := source.Validate(); err != nil {
		return nil, err
	}

	return source, nil
}

// ID returns the source type discriminator.
func (f *Factory) ID() string {
	return "file"
}

// Name returns a human-readable name for this source type.
func (f *Factory) Name() string {
	return "File"
}

// Description returns a short description of what this source does.
func (f *Factory) Description() string {
	return "Polls a single file path and dispatches its content as one JSON event. " +
		"With delete_on_success the file is removed after each dispatch, otherwise " +
		"a change in size or modification time is required between events."
}

// Schema returns a JSON Schema describing the configuration keys.
func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{
				"type":        "string",
				"description": "File path to poll for a JSON event",
			},
			"poll_ms": map[string]any{
				"type":        "integer",
				"description": "Polling interval in milliseconds (default: 100, minimum: 10)",
				"default":     defaultPollMs,
				"minimum":     10,
			},
			"delete_on_success": map[string]any{
				"type":        "boolean",
				"description": "Delete the file after a successful dispatch (default: false)",
				"default":     false,
			},
		},
		"required":             []string{"path"},
		"additionalProperties": false,
		"description":          "File polling source configuration.",
	}
}

// Ensure interface compliance.
var _ protocol.SourceFactory = (*Factory)(nil)
