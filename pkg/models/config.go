package models

import (
	"encoding/json"
	"fmt"
)

const (
	// DefaultQueueSize bounds the shared event queue between sources and
	// the dispatcher.
	DefaultQueueSize = 256
)

// NamedActions maps a name to a reusable action tree, resolved by "ref"
// actions at execution time.
type NamedActions map[string]Action

func (n *NamedActions) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage

	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := make(NamedActions, len(raw))

	for name, actionData := range raw {
		action, err := UnmarshalAction(actionData)
		if err != nil {
			return fmt.Errorf("named action %q: %w", name, err)
		}

		out[name] = action
	}

	*n = out

	return nil
}

// Workflow is an ordered list of actions executed for one event.
type Workflow []Action

func (w *Workflow) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage

	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := make(Workflow, 0, len(raw))

	for i, stepData := range raw {
		step, err := UnmarshalAction(stepData)
		if err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}

		out = append(out, step)
	}

	*w = out

	return nil
}

// Workflows maps a workflow name to its steps.
type Workflows map[string]Workflow

// EventBinding connects an incoming event's "type" to a workflow, mapping
// event fields into the run's initial variables by dotted path.
type EventBinding struct {
	// Workflow must exist in the workflows table (checked at load time).
	Workflow string `json:"workflow" validate:"required"`

	// VarsMap maps variable name -> dotted path into the event object,
	// e.g. {"side": "order.side"}. An empty path yields the whole event.
	VarsMap map[string]string `json:"vars_map,omitempty"`

	// Strict overrides settings.strict_vars for this binding: when true a
	// missing path drops the event instead of seeding an empty string.
	Strict *bool `json:"strict,omitempty"`
}

// SourceConfig selects and configures one event source. Only the "type"
// discriminator is typed here; the remaining keys are handed to the
// source's factory, which parses and validates them.
type SourceConfig struct {
	Type   string
	Config map[string]any
}

func (s *SourceConfig) UnmarshalJSON(data []byte) error {
	var raw map[string]any

	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	sourceType, _ := raw["type"].(string)
	if sourceType == "" {
		return fmt.Errorf("source config is missing string field 'type'")
	}

	delete(raw, "type")

	s.Type = sourceType
	s.Config = raw

	return nil
}

func (s SourceConfig) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.Config)+1)

	for k, v := range s.Config {
		out[k] = v
	}

	out["type"] = s.Type

	return json.Marshal(out)
}

// Settings holds engine tunables that are not part of the workflow tables.
type Settings struct {
	// StrictVars drops an event when a vars_map path cannot be resolved
	// instead of seeding the variable with an empty string.
	StrictVars bool `json:"strict_vars,omitempty"`

	// QueueSize bounds the shared event queue (default 256).
	QueueSize int `json:"queue_size,omitempty" validate:"omitempty,min=1"`
}

// Config is the aggregate root: constructed once at startup, validated,
// then held read-only for the process lifetime. Reloads swap the whole
// value rather than mutating it in place.
type Config struct {
	Sources   []SourceConfig          `json:"sources,omitempty"`
	Actions   NamedActions            `json:"actions,omitempty"`
	Workflows Workflows               `json:"workflows,omitempty"`
	Events    map[string]EventBinding `json:"events,omitempty" validate:"dive"`
	Globals   map[string]any          `json:"globals,omitempty"`
	Settings  Settings                `json:"settings,omitempty"`
}

// EffectiveQueueSize resolves the queue capacity, applying the default.
func (c *Config) EffectiveQueueSize() int {
	if c.Settings.QueueSize > 0 {
		return c.Settings.QueueSize
	}

	return DefaultQueueSize
}

// StrictFor resolves the missing-variable policy for one binding.
func (c *Config) StrictFor(binding EventBinding) bool {
	if binding.Strict != nil {
		return *binding.Strict
	}

	return c.Settings.StrictVars
}
