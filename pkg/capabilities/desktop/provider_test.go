package desktop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notabot/notabot/pkg/models"
)

func TestParseChord(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		key     string
		mods    []any
		isChord bool
	}{
		{
			name:    "ctrl shift letter",
			text:    "ctrl+shift+t",
			key:     "t",
			mods:    []any{"control", "shift"},
			isChord: true,
		},
		{
			name:    "modifier aliases normalized",
			text:    "cmd+option+Q",
			key:     "q",
			mods:    []any{"command", "alt"},
			isChord: true,
		},
		{
			name:    "named key with modifier",
			text:    "alt+enter",
			key:     "enter",
			mods:    []any{"alt"},
			isChord: true,
		},
		{
			name:    "plain text is not a chord",
			text:    "hello",
			isChord: false,
		},
		{
			name:    "bare plus is not a chord",
			text:    "+",
			isChord: false,
		},
		{
			name:    "dangling plus is not a chord",
			text:    "ctrl+",
			isChord: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, mods, ok := parseChord(tt.text)
			require.Equal(t, tt.isChord, ok)

			if tt.isChord {
				assert.Equal(t, tt.key, key)
				assert.Equal(t, tt.mods, mods)
			}
		})
	}
}

func TestButtonName(t *testing.T) {
	assert.Equal(t, "left", buttonName(models.ButtonLeft))
	assert.Equal(t, "center", buttonName(models.ButtonMiddle))
	assert.Equal(t, "right", buttonName(models.ButtonRight))
}
