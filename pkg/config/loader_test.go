package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notabot/notabot/pkg/models"
)

const sampleConfig = `{
  "sources": [{"type": "stdin"}],
  "actions": {
    "greet": {"type": "type_text", "text": "hi {{name}}"}
  },
  "workflows": {
    "welcome": [
      {"type": "ref", "name": "greet"},
      {
        "type": "conditional",
        "when": "{{side}}",
        "equals": "buy",
        "then": {"type": "log", "level": "info", "message": "buying"},
        "else": {"type": "sequence", "steps": [{"type": "sleep_ms", "ms": 50}]}
      }
    ]
  },
  "events": {
    "user_signup": {
      "workflow": "welcome",
      "vars_map": {"name": "user.name", "side": "order.side"}
    }
  },
  "globals": {"app": {"name": "notabot"}},
  "settings": {"strict_vars": false, "queue_size": 16}
}`

func TestParseSampleConfig(t *testing.T) {
	config, err := Parse([]byte(sampleConfig))
	require.NoError(t, err)

	require.Len(t, config.Sources, 1)
	assert.Equal(t, "stdin", config.Sources[0].Type)

	require.Contains(t, config.Workflows, "welcome")
	require.Len(t, config.Workflows["welcome"], 2)
	assert.IsType(t, &models.Ref{}, config.Workflows["welcome"][0])
	assert.IsType(t, &models.Conditional{}, config.Workflows["welcome"][1])

	binding := config.Events["user_signup"]
	assert.Equal(t, "welcome", binding.Workflow)
	assert.Equal(t, "user.name", binding.VarsMap["name"])

	assert.Equal(t, 16, config.EffectiveQueueSize())
}

func TestParseDefaults(t *testing.T) {
	config, err := Parse([]byte(`{}`))
	require.NoError(t, err)

	assert.Equal(t, models.DefaultQueueSize, config.EffectiveQueueSize())
	assert.False(t, config.Settings.StrictVars)
	assert.Empty(t, config.Sources)
}

func TestParseRejectsUnknownActionType(t *testing.T) {
	raw := `{"workflows": {"wf": [{"type": "teleport", "x": 1}]}}`

	_, err := Parse([]byte(raw))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config does not match schema")
}

func TestParseRejectsMissingRequiredField(t *testing.T) {
	raw := `{"workflows": {"wf": [{"type": "mouse_move", "x": 10}]}}`

	_, err := Parse([]byte(raw))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config does not match schema")
}

func TestParseRejectsBadQueueSize(t *testing.T) {
	raw := `{"settings": {"queue_size": 0}}`

	_, err := Parse([]byte(raw))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config does not match schema")
}

func TestParseRejectsMalformedJSON(t *testing.T) {
	_, err := Parse([]byte(`{"workflows": `))
	require.Error(t, err)
}

func TestValidateEventWithMissingWorkflow(t *testing.T) {
	raw := `{
	  "workflows": {"welcome": []},
	  "events": {"user_signup": {"workflow": "ghost"}}
	}`

	_, err := Parse([]byte(raw))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `event "user_signup" refers to missing workflow "ghost"`)
}

func TestValidateWorkflowWithUnknownRef(t *testing.T) {
	raw := `{
	  "workflows": {"wf": [{"type": "ref", "name": "ghost"}]}
	}`

	_, err := Parse([]byte(raw))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid reference in workflow "wf" at step 0`)
	assert.Contains(t, err.Error(), `referenced action "ghost" was not found in actions`)
}

func TestValidateNamedActionWithUnknownRef(t *testing.T) {
	raw := `{
	  "actions": {
	    "outer": {"type": "sequence", "steps": [{"type": "ref", "name": "ghost"}]}
	  }
	}`

	_, err := Parse([]byte(raw))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid reference in named action "outer"`)
	assert.Contains(t, err.Error(), "invalid reference in sequence at index 0")
}

func TestValidateConditionalElseBranchRef(t *testing.T) {
	raw := `{
	  "workflows": {
	    "wf": [{
	      "type": "conditional",
	      "when": "{{x}}",
	      "equals": "1",
	      "then": {"type": "sleep_ms", "ms": 1},
	      "else": {"type": "ref", "name": "ghost"}
	    }]
	  }
	}`

	_, err := Parse([]byte(raw))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid reference in conditional 'else' branch")
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o600))

	config, err := Load(path)
	require.NoError(t, err)
	assert.Contains(t, config.Workflows, "welcome")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestSchemaDocumentIsEmbedded(t *testing.T) {
	assert.Contains(t, string(Schema()), `"notabot configuration"`)
}
