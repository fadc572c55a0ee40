package kafka

import (
	"log/slog"
	"strings"

	"github.com/notabot/notabot/pkg/protocol"
	"github.com/notabot/notabot/pkg/sources"
)

const defaultConsumerGroup = "notabot"

// Factory creates kafka source instances.
type Factory struct{}

// NewFactory creates a new kafka source factory.
func NewFactory() *Factory {
	return &Factory{}
}

// Create instantiates a kafka source from its raw configuration.
func (f *Factory) Create(config map[string]any, logger *slog.Logger) (protocol.Source, error) {
	source := &Source{
		brokers: parseBrokers(sources.StringValue(config, "brokers", "")),
		topic:   sources.StringValue(config, "topic", ""),
		group:   sources.StringValue(config, "consumer_group", defaultConsumerGroup),
		logger:  logger.With("module", "kafka_source"),
	}

	if err := source.Validate(); err != nil {
		return nil, err
	}

	return source, nil
}

// parseBrokers splits a comma-separated broker list, trimming whitespace
// and dropping empty entries.
func parseBrokers(raw string) []string {
	var brokers []string

	for _, broker := range strings.Split(raw, ",") {
		if broker = strings.TrimSpace(broker); broker != "" {
			brokers = append(brokers, broker)
		}
	}

	return brokers
}

// ID returns the source type discriminator.
func (f *Factory) ID() string {
	return "kafka"
}

// Name returns a human-readable name for this source type.
func (f *Factory) Name() string {
	return "Kafka"
}

// Description returns a short description of what this source does.
func (f *Factory) Description() string {
	return "Consumes a Kafka topic as a member of a consumer group, treating each " +
		"message body as one JSON event. Offsets are committed after dispatch, " +
		"so delivery is at-least-once."
}

// Schema returns a JSON Schema describing the configuration keys.
func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"brokers": map[string]any{
				"type":        "string",
				"description": "Comma-separated broker list (e.g. \"kafka-1:9092,kafka-2:9092\")",
			},
			"topic": map[string]any{
				"type":        "string",
				"description": "Topic to consume",
			},
			"consumer_group": map[string]any{
				"type":        "string",
				"description": "Consumer group ID (default: \"notabot\")",
				"default":     defaultConsumerGroup,
			},
		},
		"required":             []string{"brokers", "topic"},
		"additionalProperties": false,
		"description":          "Kafka consumer source configuration.",
	}
}

// Ensure interface compliance.
var _ protocol.SourceFactory = (*Factory)(nil)
