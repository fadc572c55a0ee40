// Package config loads the bot configuration: JSON schema validation,
// typed decoding, struct validation and cross-reference checks, plus the
// file watcher behind hot reload.
package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/xeipuuv/gojsonschema"

	"github.com/notabot/notabot/pkg/models"
)

//go:embed schema.json
var schemaBytes []byte

var validate = validator.New(validator.WithRequiredStructEnabled())

// Schema returns the embedded JSON schema document for the config file.
func Schema() []byte {
	return schemaBytes
}

// Load reads, parses and fully validates a config file.
func Load(path string) (*models.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	config, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	return config, nil
}

// Parse validates raw JSON against the embedded schema, decodes it into the
// typed model and runs the cross-reference checks.
func Parse(data []byte) (*models.Config, error) {
	if err := validateSchema(data); err != nil {
		return nil, err
	}

	var config models.Config

	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := validate.Struct(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if err := Validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func validateSchema(data []byte) error {
	schemaLoader := gojsonschema.NewBytesLoader(schemaBytes)
	dataLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return fmt.Errorf("failed to validate config against schema: %w", err)
	}

	if !result.Valid() {
		descriptions := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			descriptions = append(descriptions, desc.String())
		}

		return fmt.Errorf("config does not match schema: %s", strings.Join(descriptions, "; "))
	}

	return nil
}

// Validate performs the cross-reference checks: every event binding must
// name an existing workflow and every ref must name an existing actions
// entry. Tables are walked in sorted order so the first error reported is
// deterministic.
func Validate(config *models.Config) error {
	for _, eventType := range slices.Sorted(maps.Keys(config.Events)) {
		binding := config.Events[eventType]
		if _, ok := config.Workflows[binding.Workflow]; !ok {
			return fmt.Errorf("event %q refers to missing workflow %q", eventType, binding.Workflow)
		}
	}

	for _, name := range slices.Sorted(maps.Keys(config.Actions)) {
		if err := validateRefs(config.Actions[name], config.Actions); err != nil {
			return fmt.Errorf("invalid reference in named action %q: %w", name, err)
		}
	}

	for _, name := range slices.Sorted(maps.Keys(config.Workflows)) {
		for i, step := range config.Workflows[name] {
			if err := validateRefs(step, config.Actions); err != nil {
				return fmt.Errorf("invalid reference in workflow %q at step %d: %w", name, i, err)
			}
		}
	}

	return nil
}

func validateRefs(action models.Action, actions models.NamedActions) error {
	switch a := action.(type) {
	case *models.Ref:
		if _, ok := actions[a.Name]; !ok {
			return fmt.Errorf("referenced action %q was not found in actions", a.Name)
		}
	case *models.Sequence:
		for i, step := range a.Steps {
			if err := validateRefs(step, actions); err != nil {
				return fmt.Errorf("invalid reference in sequence at index %d: %w", i, err)
			}
		}
	case *models.Conditional:
		if err := validateRefs(a.Then, actions); err != nil {
			return fmt.Errorf("invalid reference in conditional 'then' branch: %w", err)
		}

		if a.Else != nil {
			if err := validateRefs(a.Else, actions); err != nil {
				return fmt.Errorf("invalid reference in conditional 'else' branch: %w", err)
			}
		}
	}

	return nil
}
