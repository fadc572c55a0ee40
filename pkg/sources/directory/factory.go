package directory

import (
	"log/slog"

	"github.com/notabot/notabot/pkg/protocol"
	"github.com/notabot/notabot/pkg/sources"
)

// Factory creates directory source instances.
type Factory struct{}

// NewFactory creates a new directory source factory.
func NewFactory() *Factory {
	return &Factory{}
}

// Create instantiates a directory source from its raw configuration.
func (f *Factory) Create(config map[string]any, logger *slog.Logger) (protocol.Source, error) {
	source := &Source{
		path:      sources.StringValue(config, "path", ""),
		pattern:   sources.StringValue(config, "pattern", ""),
		recursive: sources.BoolValue(config, "recursive", false),
		tick:      tickInterval,
		logger:    logger.With("module", "directory_source"),
		enqueued:  make(map[string]struct{}),
		stopCh:    make(chan struct{}),
	}

	if err := source.Validate(); err != nil {
		return nil, err
	}

	return source, nil
}

// ID returns the source type discriminator.
func (f *Factory) ID() string {
	return "directory"
}

// Name returns a human-readable name for this source type.
func (f *Factory) Name() string {
	return "Directory"
}

// Description returns a short description of what this source does.
func (f *Factory) Description() string {
	return "Polls a directory for JSON event files, dispatching at most one file " +
		"per tick and deleting each file after a successful dispatch. File names " +
		"can be filtered with a '*' wildcard pattern."
}

// Schema returns a JSON Schema describing the configuration keys.
func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{
				"type":        "string",
				"description": "Directory to poll for event files",
			},
			"pattern": map[string]any{
				"type":        "string",
				"description": "Optional file name filter; '*' matches any substring (e.g. \"event_*.json\")",
			},
			"recursive": map[string]any{
				"type":        "boolean",
				"description": "Also discover files in subdirectories (default: false)",
				"default":     false,
			},
		},
		"required":             []string{"path"},
		"additionalProperties": false,
		"description":          "Directory polling source configuration.",
	}
}

// Ensure interface compliance.
var _ protocol.SourceFactory = (*Factory)(nil)
