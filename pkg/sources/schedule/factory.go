package schedule

import (
	"log/slog"

	"github.com/notabot/notabot/pkg/protocol"
	"github.com/notabot/notabot/pkg/sources"
)

const defaultEventType = "tick"

// Factory creates schedule source instances.
type Factory struct{}

// NewFactory creates a new schedule source factory.
func NewFactory() *Factory {
	return &Factory{}
}

// Create instantiates a schedule source from its raw configuration.
func (f *Factory) Create(config map[string]any, logger *slog.Logger) (protocol.Source, error) {
	source := &Source{
		cronExpr:  sources.StringValue(config, "cron", ""),
		eventType: sources.StringValue(config, "event_type", defaultEventType),
		payload:   sources.MapValue(config, "payload"),
		logger:    logger.With("module", "schedule_source"),
	}

	if err := source.Validate(); err != nil {
		return nil, err
	}

	return source, nil
}

// ID returns the source type discriminator.
func (f *Factory) ID() string {
	return "schedule"
}

// Name returns a human-readable name for this source type.
func (f *Factory) Name() string {
	return "Schedule"
}

// Description returns a short description of what this source does.
func (f *Factory) Description() string {
	return "Fires a synthetic event on a cron schedule. The event carries the " +
		"configured payload plus 'type' and 'fired_at' fields, so recurring " +
		"workflows run without an external producer."
}

// Schema returns a JSON Schema describing the configuration keys.
func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"cron": map[string]any{
				"type":        "string",
				"description": "Standard five-field cron expression (e.g. \"*/5 * * * *\")",
				"examples":    []string{"*/5 * * * *", "0 9 * * MON-FRI"},
			},
			"event_type": map[string]any{
				"type":        "string",
				"description": "Value of the emitted event's 'type' field (default: \"tick\")",
				"default":     defaultEventType,
			},
			"payload": map[string]any{
				"type":        "object",
				"description": "Extra fields merged into every emitted event",
			},
		},
		"required":             []string{"cron"},
		"additionalProperties": false,
		"description":          "Cron schedule source configuration.",
	}
}

// Ensure interface compliance.
var _ protocol.SourceFactory = (*Factory)(nil)
