package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notabot/notabot/pkg/runtime"
)

func TestParseVars(t *testing.T) {
	tests := []struct {
		name    string
		pairs   []string
		want    map[string]string
		wantErr bool
	}{
		{name: "empty", pairs: nil, want: map[string]string{}},
		{name: "single pair", pairs: []string{"user=ada"}, want: map[string]string{"user": "ada"}},
		{name: "multiple pairs", pairs: []string{"a=1", "b=2"}, want: map[string]string{"a": "1", "b": "2"}},
		{name: "value keeps extra equals", pairs: []string{"expr=x=y"}, want: map[string]string{"expr": "x=y"}},
		{name: "empty value", pairs: []string{"flag="}, want: map[string]string{"flag": ""}},
		{name: "last pair wins", pairs: []string{"k=1", "k=2"}, want: map[string]string{"k": "2"}},
		{name: "missing equals", pairs: []string{"oops"}, wantErr: true},
		{name: "empty key", pairs: []string{"=value"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseVars(tt.pairs)
			if tt.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

const triggerConfig = `{
  "workflows": {
    "greet": [
      {"type": "log", "level": "info", "message": "hello {{name}}"}
    ]
  }
}`

func writeConfig(t *testing.T, doc string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	return path
}

func TestTriggerCommandRunsWorkflow(t *testing.T) {
	path := writeConfig(t, triggerConfig)

	err := NewTriggerCommand().Run(context.Background(), []string{
		"trigger",
		"--config", path,
		"--workflow", "greet",
		"--var", "name=ada",
		"--dry-run",
		"--log-level", "error",
	})
	require.NoError(t, err)
}

func TestTriggerCommandUnknownWorkflow(t *testing.T) {
	path := writeConfig(t, triggerConfig)

	err := NewTriggerCommand().Run(context.Background(), []string{
		"trigger",
		"--config", path,
		"--workflow", "missing",
		"--dry-run",
		"--log-level", "error",
	})
	require.ErrorIs(t, err, runtime.ErrUnknownWorkflow)
}

func TestTriggerCommandRejectsBadVar(t *testing.T) {
	path := writeConfig(t, triggerConfig)

	err := NewTriggerCommand().Run(context.Background(), []string{
		"trigger",
		"--config", path,
		"--workflow", "greet",
		"--var", "not-a-pair",
		"--dry-run",
		"--log-level", "error",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected key=value")
}
