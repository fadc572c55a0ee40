package stdin

import (
	"log/slog"
	"os"

	"github.com/notabot/notabot/pkg/protocol"
)

// Factory creates stdin source instances.
type Factory struct{}

// NewFactory creates a new stdin source factory.
func NewFactory() *Factory {
	return &Factory{}
}

// Create instantiates a stdin source. The source takes no configuration.
func (f *Factory) Create(_ map[string]any, logger *slog.Logger) (protocol.Source, error) {
	return &Source{
		in:     os.Stdin,
		logger: logger.With("module", "stdin_source"),
		stopCh: make(chan struct{}),
	}, nil
}

// ID returns the source type discriminator.
func (f *Factory) ID() string {
	return "stdin"
}

// Name returns a human-readable name for this source type.
func (f *Factory) Name() string {
	return "Stdin"
}

// Description returns a short description of what this source does.
func (f *Factory) Description() string {
	return "Reads newline-delimited JSON events from standard input until " +
		"end-of-stream. Useful for shell pipelines and manual testing."
}

// Schema returns a JSON Schema describing the configuration keys.
func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"properties":           map[string]any{},
		"required":             []string{},
		"additionalProperties": false,
		"description":          "Stdin source configuration. No keys are accepted.",
	}
}

// Ensure interface compliance.
var _ protocol.SourceFactory = (*Factory)(nil)
